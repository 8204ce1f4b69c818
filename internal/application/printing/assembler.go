package printing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/erp/docgen/internal/domain/printing"
	"github.com/erp/docgen/internal/domain/shared"
	infra "github.com/erp/docgen/internal/infrastructure/printing"
	"github.com/erp/docgen/internal/infrastructure/telemetry"
)

// AssemblerConfig controls document assembly
type AssemblerConfig struct {
	// DefaultPaper is used when a document names no paper
	DefaultPaper string
	// PageNumberFormat receives the page index and the page count
	PageNumberFormat string
	// DefaultBucket receives documents without an explicit target URL
	DefaultBucket string
	// Creator is written into the document metadata
	Creator string
}

// AssembledDocument is a finished document and the place it should be stored
type AssembledDocument struct {
	Bytes         []byte
	Bucket        string
	Key           string
	Filename      string
	PageCount     int
	PlannedPages  int
	TransactionID string
}

// DocumentAssembler turns documents into numbered PDF byte streams.
// It is safe for concurrent use; every call owns its canvases, assets and sink.
type DocumentAssembler struct {
	catalog   *printing.GeometryCatalog
	planner   *printing.FlowPlanner
	measurer  infra.TextMeasurer
	qr        infra.QRGenerator
	inspector *infra.PDFInspector
	metrics   *telemetry.DocumentMetrics
	config    AssemblerConfig
	logger    *zap.Logger
	now       func() time.Time
}

// AssemblerOption configures a DocumentAssembler
type AssemblerOption func(*DocumentAssembler)

// WithInspector verifies every produced document with pdfcpu
func WithInspector(inspector *infra.PDFInspector) AssemblerOption {
	return func(a *DocumentAssembler) {
		a.inspector = inspector
	}
}

// WithMetrics records assembly counts and durations
func WithMetrics(metrics *telemetry.DocumentMetrics) AssemblerOption {
	return func(a *DocumentAssembler) {
		a.metrics = metrics
	}
}

// WithClock overrides the time source used for file names and metadata
func WithClock(now func() time.Time) AssemblerOption {
	return func(a *DocumentAssembler) {
		a.now = now
	}
}

// WithMeasurer overrides the text measurer
func WithMeasurer(m infra.TextMeasurer) AssemblerOption {
	return func(a *DocumentAssembler) {
		a.measurer = m
	}
}

// NewDocumentAssembler creates an assembler
func NewDocumentAssembler(
	catalog *printing.GeometryCatalog,
	qr infra.QRGenerator,
	config AssemblerConfig,
	logger *zap.Logger,
	opts ...AssemblerOption,
) *DocumentAssembler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if catalog == nil {
		catalog = printing.NewGeometryCatalog()
	}
	if config.PageNumberFormat == "" {
		config.PageNumberFormat = infra.DefaultPageNumberFormat
	}
	a := &DocumentAssembler{
		catalog:  catalog,
		planner:  printing.NewFlowPlanner(),
		measurer: infra.NewFontMeasurer("Helvetica", ""),
		qr:       qr,
		config:   config,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Assemble validates doc, plans its rows, renders every page, stamps page
// numbers and resolves the upload location
func (a *DocumentAssembler) Assemble(ctx context.Context, doc *printing.Document) (*AssembledDocument, error) {
	if doc == nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "document is required")
	}

	ctx, span := telemetry.StartServiceSpan(ctx, "document", "assemble")
	defer span.End()
	started := time.Now()

	out, err := a.assemble(ctx, doc)
	pages := 0
	if err != nil {
		telemetry.RecordError(span, err)
	} else {
		pages = out.PageCount
		telemetry.SetAttributes(span,
			telemetry.SpanAttrPages, out.PageCount,
			telemetry.SpanAttrBytes, len(out.Bytes),
			telemetry.SpanAttrBucket, out.Bucket,
			telemetry.SpanAttrKey, out.Key)
	}
	a.metrics.RecordAssembly(ctx, doc.Template.String(), pages, time.Since(started), err)
	return out, err
}

func (a *DocumentAssembler) assemble(ctx context.Context, doc *printing.Document) (*AssembledDocument, error) {
	doc.Normalize()
	if !doc.Template.IsValid() {
		return nil, shared.NewDomainError("INVALID_TEMPLATE",
			fmt.Sprintf("%v: %q", printing.ErrUnknownTemplate, doc.Template))
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}

	now := a.now()
	loc, err := ResolveLocation(doc, a.config.DefaultBucket, now)
	if err != nil {
		return nil, err
	}

	paper := doc.Paper
	if strings.TrimSpace(paper) == "" {
		paper = a.config.DefaultPaper
	}
	geometry, known := a.catalog.Lookup(paper)
	if !known {
		a.logger.Debug("unknown paper size, using baseline",
			zap.String("paper", paper),
			zap.String("baseline", string(printing.BaselinePaperSize)))
	}

	palette := printing.ResolvePalette(doc.Template, doc.Colors)
	schema, metrics := printing.TableLayout(doc.Template, geometry.ContentWidth())
	rows := printing.BuildRows(doc.LineItems(), a.measurer, metrics)
	pages := a.planner.Plan(rows, geometry, doc.Policy)
	telemetry.SetAttributes(telemetry.SpanFromContext(ctx),
		telemetry.SpanAttrTemplate, doc.Template.String(),
		telemetry.SpanAttrPaper, string(geometry.Paper.ID),
		telemetry.SpanAttrTransactionID, doc.Info.TransactionID,
		telemetry.SpanAttrRows, len(rows))

	renderer, err := infra.NewPageRenderer(doc.Template, a.logger)
	if err != nil {
		return nil, err
	}
	rc := &infra.RenderContext{
		Doc:      doc,
		Geometry: geometry,
		Policy:   doc.Policy,
		Palette:  palette,
		Schema:   schema,
		Metrics:  metrics,
		Measurer: a.measurer,
		Format:   infra.NewFormatter(),
		Assets:   a.loadAssets(doc),
	}

	sink := infra.NewFPDFSink(infra.FPDFSinkConfig{
		Title:     strings.TrimSpace(doc.Info.Title + " " + doc.Info.Number),
		Author:    doc.Issuer.Name,
		Creator:   a.config.Creator,
		CreatedAt: now,
	})
	numberer := infra.NewDeferredPageNumberer(sink,
		infra.PageNumberStyleFor(geometry, palette.FooterText, a.config.PageNumberFormat))

	var overflow []infra.Block
	for _, page := range pages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var tail []infra.Block
		if page.IsLast(pages) {
			tail = renderer.TailBlocks(rc, doc.Policy.TotalsOnlyOnLastPage)
		}
		canvas := infra.NewCanvas(geometry.Width(), geometry.Height())
		overflow = renderer.Render(canvas, page, tail, rc)
		if err := numberer.Capture(canvas.Snapshot()); err != nil {
			return nil, err
		}
	}
	for len(overflow) > 0 {
		canvas := infra.NewCanvas(geometry.Width(), geometry.Height())
		overflow = renderer.RenderOverflow(canvas, overflow, rc)
		if err := numberer.Capture(canvas.Snapshot()); err != nil {
			return nil, err
		}
	}

	total := numberer.PageCount()
	data, err := numberer.Finalize()
	if err != nil {
		return nil, infra.NewRenderError(infra.ErrCodeRenderFailed, "failed to produce document", err)
	}
	if a.inspector != nil {
		if err := a.inspector.Verify(data, total); err != nil {
			return nil, err
		}
	}

	a.logger.Info("document assembled",
		zap.String("template", doc.Template.String()),
		zap.String("paper", string(geometry.Paper.ID)),
		zap.Int("rows", len(rows)),
		zap.Int("planned_pages", len(pages)),
		zap.Int("pages", total),
		zap.Int("bytes", len(data)),
		zap.String("key", loc.Key))

	return &AssembledDocument{
		Bytes:         data,
		Bucket:        loc.Bucket,
		Key:           loc.Key,
		Filename:      loc.Filename,
		PageCount:     total,
		PlannedPages:  len(pages),
		TransactionID: doc.Info.TransactionID,
	}, nil
}

// loadAssets decodes the document's images. Undecodable images are logged
// and left out.
func (a *DocumentAssembler) loadAssets(doc *printing.Document) infra.Assets {
	var assets infra.Assets
	decode := func(name, encoded string) *infra.ImageAsset {
		if strings.TrimSpace(encoded) == "" {
			return nil
		}
		img, err := infra.DecodeBase64Image(name, encoded)
		if err != nil {
			a.logger.Warn("image omitted", zap.String("asset", name), zap.Error(err))
			return nil
		}
		return img
	}
	assets.IssuerLogo = decode("issuer_logo", doc.Issuer.Logo)
	assets.ProviderLogo = decode("provider_logo", doc.Provider.Logo)

	if a.qr != nil && doc.Info.QRData != "" {
		png, err := a.qr.Generate(doc.Info.QRData)
		if err != nil {
			a.logger.Warn("image omitted", zap.String("asset", "qr"), zap.Error(err))
			return assets
		}
		img, err := infra.DecodeImage("qr", png)
		if err != nil {
			a.logger.Warn("image omitted", zap.String("asset", "qr"), zap.Error(err))
			return assets
		}
		assets.QR = img
	}
	return assets
}
