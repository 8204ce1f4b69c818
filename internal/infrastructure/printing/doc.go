// Package printing draws planned document pages and turns them into PDF.
//
// Pages are drawn onto a Canvas, which only records operations. A completed
// page is captured as a PageState snapshot by the DeferredPageNumberer; once
// the final page count is known the numberer replays every snapshot into a
// Sink, stamping "Page i of N" on each, and seals the stream.
//
// This package contains:
//   - Canvas, Op and PageState, the recorded drawing model
//   - DeferredPageNumberer and the Sink interface
//   - FPDFSink, the go-pdf/fpdf backend
//   - PDFInspector, post-render validation with pdfcpu
//   - PageRenderer and the classic, compact and payroll layouts
//   - FontMeasurer, Formatter, image assets and QR generation
//
// Example usage:
//
//	sink := NewFPDFSink(FPDFSinkConfig{Title: "Electronic Invoice FE-1001"})
//	numberer := NewDeferredPageNumberer(sink, PageNumberStyleFor(geometry, color, ""))
//	for _, page := range pages {
//	    canvas := NewCanvas(geometry.Width(), geometry.Height())
//	    renderer.Render(canvas, page, nil, rc)
//	    if err := numberer.Capture(canvas.Snapshot()); err != nil {
//	        return err
//	    }
//	}
//	data, err := numberer.Finalize()
package printing
