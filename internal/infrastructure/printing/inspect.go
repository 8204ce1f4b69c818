package printing

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

var disableConfigDir sync.Once

// PageSize is the size of one page of an inspected PDF
type PageSize struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Inspection summarises a produced PDF
type Inspection struct {
	PageCount int        `json:"page_count"`
	Pages     []PageSize `json:"pages"`
}

// PDFInspector validates produced documents with pdfcpu
type PDFInspector struct {
	conf *model.Configuration
}

// NewPDFInspector creates an inspector using relaxed validation
func NewPDFInspector() *PDFInspector {
	disableConfigDir.Do(api.DisableConfigDir)
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &PDFInspector{conf: conf}
}

// Inspect validates data and returns its page count and page sizes
func (i *PDFInspector) Inspect(data []byte) (*Inspection, error) {
	if len(data) == 0 {
		return nil, NewRenderError(ErrCodeVerifyFailed, "document is empty", nil)
	}
	if err := api.Validate(bytes.NewReader(data), i.conf); err != nil {
		return nil, NewRenderError(ErrCodeVerifyFailed, "document failed validation", err)
	}
	dims, err := api.PageDims(bytes.NewReader(data), i.conf)
	if err != nil {
		return nil, NewRenderError(ErrCodeVerifyFailed, "failed to read page sizes", err)
	}
	out := &Inspection{PageCount: len(dims), Pages: make([]PageSize, len(dims))}
	for n, d := range dims {
		out.Pages[n] = PageSize{Width: d.Width, Height: d.Height}
	}
	return out, nil
}

// Verify checks that data holds exactly want pages
func (i *PDFInspector) Verify(data []byte, want int) error {
	ins, err := i.Inspect(data)
	if err != nil {
		return err
	}
	if ins.PageCount != want {
		return NewRenderError(ErrCodeVerifyFailed,
			fmt.Sprintf("document has %d pages, expected %d", ins.PageCount, want), nil)
	}
	return nil
}
