package printing

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/erp/docgen/internal/domain/printing"
)

// RenderError represents an error during document rendering or storage
type RenderError struct {
	Code    string
	Message string
	Cause   error
}

func (e *RenderError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *RenderError) Unwrap() error {
	return e.Cause
}

// Error codes for rendering failures
const (
	ErrCodeRenderFailed    = "RENDER_FAILED"
	ErrCodeInvalidTemplate = "INVALID_TEMPLATE"
	ErrCodeVerifyFailed    = "VERIFY_FAILED"
	ErrCodeStorageFailed   = "STORAGE_FAILED"
)

// NewRenderError creates a new RenderError
func NewRenderError(code, message string, cause error) *RenderError {
	return &RenderError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Vertical spacing shared by every layout
const (
	tableHeadingHeight = 14
	blockGap           = 6
	bandHeight         = 10
	lineHeight         = 9
)

// TextMeasurer measures and wraps text in the renderer's font
type TextMeasurer interface {
	printing.Measurer
	Width(text string, fontSize float64) float64
}

// Assets are the decoded images of one document. Each assembly owns its own.
type Assets struct {
	IssuerLogo   *ImageAsset
	ProviderLogo *ImageAsset
	QR           *ImageAsset
}

// RenderContext carries the per-document state shared by every page
type RenderContext struct {
	Doc      *printing.Document
	Geometry printing.PageGeometry
	Policy   printing.Policy
	Palette  printing.Palette
	Schema   printing.ColumnSchema
	Metrics  printing.RowMetrics
	Measurer TextMeasurer
	Format   *Formatter
	Assets   Assets
}

// footerTop returns the y coordinate where the footer band starts
func (rc *RenderContext) footerTop() float64 {
	g := rc.Geometry
	return g.Height() - g.Margins.Bottom - g.Reserved.Footer
}

// Block is an atomic unit drawn below the rows of the final page
type Block struct {
	Name   string
	Height float64
	Draw   func(c *Canvas, x, y, w float64)
}

// Layout draws the template-specific parts of a page
type Layout interface {
	Kind() printing.TemplateKind
	// Header draws the header band. Page 0 gets the full header, later
	// pages a compact one.
	Header(c *Canvas, rc *RenderContext, page printing.Page, top, height float64)
	// Info draws the recipient block in the zone below the header band
	Info(c *Canvas, rc *RenderContext, page printing.Page, top, height float64)
	// Totals returns the totals block
	Totals(rc *RenderContext) Block
	// Auxiliary returns the blocks drawn after the totals on the final page
	Auxiliary(rc *RenderContext) []Block
	// DrawRow draws one table row
	DrawRow(c *Canvas, rc *RenderContext, row printing.ContentRow, x, y float64)
}

// LayoutFor returns the layout of a template
func LayoutFor(kind printing.TemplateKind) (Layout, error) {
	switch kind {
	case printing.TemplateClassic:
		return classicLayout{}, nil
	case printing.TemplateCompact:
		return compactLayout{}, nil
	case printing.TemplatePayroll:
		return payrollLayout{}, nil
	}
	return nil, NewRenderError(ErrCodeInvalidTemplate,
		fmt.Sprintf("no layout for template %q", kind), printing.ErrUnknownTemplate)
}

// PageRenderer draws planned pages onto canvases
type PageRenderer struct {
	layout Layout
	logger *zap.Logger
}

// NewPageRenderer creates a renderer for a template
func NewPageRenderer(kind printing.TemplateKind, logger *zap.Logger) (*PageRenderer, error) {
	layout, err := LayoutFor(kind)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PageRenderer{layout: layout, logger: logger}, nil
}

// Layout returns the renderer's layout
func (r *PageRenderer) Layout() Layout {
	return r.layout
}

// TailBlocks returns the blocks that follow the rows of the final page:
// the totals when they are deferred, the auxiliary blocks and the trailing
// observations when present.
func (r *PageRenderer) TailBlocks(rc *RenderContext, includeTotals bool) []Block {
	var blocks []Block
	if includeTotals {
		blocks = append(blocks, r.layout.Totals(rc))
	}
	blocks = append(blocks, r.layout.Auxiliary(rc)...)
	return append(blocks, observationsBlocks(rc)...)
}

// Render draws one planned page. tail is drawn below the rows in order;
// blocks that do not fit above the footer are returned for overflow sheets.
func (r *PageRenderer) Render(c *Canvas, page printing.Page, tail []Block, rc *RenderContext) []Block {
	g := rc.Geometry
	top := g.Margins.Top
	headerH := g.HeaderHeight(page.Index, rc.Policy)

	if page.HasHeader {
		r.layout.Header(c, rc, page, top, headerH)
		r.layout.Info(c, rc, page, top+headerH, headerH-tableHeadingHeight-4)
	} else {
		continuationBand(c, rc, top, headerH)
	}

	// the preamble zone below the header band is as tall as the band itself
	rowsTop := top + 2*headerH
	rowsEnd := r.drawTable(c, rc, page, rowsTop)

	tailTop := rowsEnd + blockGap
	if page.HasTotals && !rc.Policy.TotalsOnlyOnLastPage {
		totals := r.layout.Totals(rc)
		y := top + headerH + page.Capacity
		if y < tailTop {
			y = tailTop
		}
		totals.Draw(c, g.Margins.Left, y, g.ContentWidth())
		tailTop = y + totals.Height + blockGap
	}

	rest := placeBlocks(c, rc, tail, tailTop, r.footerTop(rc), false)
	drawAnnotations(c, rc)

	r.logger.Debug("page rendered",
		zap.Int("page", page.Index+1),
		zap.Int("rows", len(page.Rows)),
		zap.Bool("header", page.HasHeader),
		zap.Bool("totals", page.HasTotals),
		zap.Int("overflow_blocks", len(rest)))
	return rest
}

// RenderOverflow draws a continuation sheet holding tail blocks that did not
// fit on the previous page. At least one block is always placed.
func (r *PageRenderer) RenderOverflow(c *Canvas, blocks []Block, rc *RenderContext) []Block {
	g := rc.Geometry
	top := g.Margins.Top
	band := g.Reserved.Continuation
	continuationBand(c, rc, top, band)

	rest := placeBlocks(c, rc, blocks, top+band+blockGap, r.footerTop(rc), true)
	drawAnnotations(c, rc)

	r.logger.Debug("overflow sheet rendered",
		zap.Int("blocks", len(blocks)-len(rest)),
		zap.Int("remaining", len(rest)))
	return rest
}

func (r *PageRenderer) footerTop(rc *RenderContext) float64 {
	return rc.footerTop()
}

// placeBlocks draws blocks from y downward until one does not fit above
// limit. With force set the first block is drawn even when it is too tall.
func placeBlocks(c *Canvas, rc *RenderContext, blocks []Block, y, limit float64, force bool) []Block {
	x := rc.Geometry.Margins.Left
	w := rc.Geometry.ContentWidth()
	for i, b := range blocks {
		if y+b.Height > limit && !(force && i == 0) {
			return blocks[i:]
		}
		b.Draw(c, x, y, w)
		y += b.Height + blockGap
	}
	return nil
}

// drawTable draws the table heading and the page's rows. It returns the y
// coordinate below the last row.
func (r *PageRenderer) drawTable(c *Canvas, rc *RenderContext, page printing.Page, rowsTop float64) float64 {
	x := rc.Geometry.Margins.Left
	schema := rc.Schema
	headingTop := rowsTop - tableHeadingHeight
	offsets := schema.Offsets()

	c.SetFillColor(rc.Palette.Background)
	c.Rect(x, headingTop, schema.Width(), tableHeadingHeight, RectFill)
	c.SetFont("Helvetica", "B", 7)
	c.SetTextColor(printing.ColorWhiteSmoke)
	for i, col := range schema.Columns {
		c.Text(x+offsets[i]+col.Width/2, headingTop+9.5, AlignCenter, col.Header)
	}

	y := rowsTop
	for _, row := range page.Rows {
		r.layout.DrawRow(c, rc, row, x, y)
		y += row.Height()
	}

	c.SetDrawColor(printing.ColorBlack)
	c.SetLineWidth(0.75)
	for i := 1; i < len(offsets); i++ {
		c.Line(x+offsets[i], headingTop, x+offsets[i], y)
	}
	c.Rect(x, headingTop, schema.Width(), y-headingTop, RectDraw)
	return y
}

// cellText draws a single-line value inside a column, vertically centred in
// a row of height h
func cellText(c *Canvas, rc *RenderContext, col int, x, y, h float64, s string) {
	column := rc.Schema.Columns[col]
	left := x + rc.Schema.Offsets()[col]
	s = fitText(rc.Measurer, s, rc.Metrics.FontSize, column.Width-2*printing.CellPadding)
	baseline := y + h/2 + 2.5
	switch column.Align {
	case AlignRight:
		c.Text(left+column.Width-printing.CellPadding, baseline, AlignRight, s)
	case AlignCenter:
		c.Text(left+column.Width/2, baseline, AlignCenter, s)
	default:
		c.Text(left+printing.CellPadding, baseline, AlignLeft, s)
	}
}

// wrappedCell draws the pre-wrapped lines of a row in the wrap column
func wrappedCell(c *Canvas, rc *RenderContext, lines []string, x, y float64) {
	col := rc.Schema.WrapColumn
	left := x + rc.Schema.Offsets()[col] + printing.CellPadding
	m := rc.Metrics
	for i, line := range lines {
		c.Text(left, y+m.Padding/2+float64(i+1)*m.Leading-1.5, AlignLeft, line)
	}
}

// fitText shortens s with an ellipsis until it fits width
func fitText(m TextMeasurer, s string, size, width float64) string {
	if m == nil || s == "" || m.Width(s, size) <= width {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 {
		runes = runes[:len(runes)-1]
		candidate := string(runes) + "..."
		if m.Width(candidate, size) <= width {
			return candidate
		}
	}
	return ""
}

// titleBand draws a filled band with a centred white bold title
func titleBand(c *Canvas, color printing.RGB, x, y, w float64, title string) {
	c.SetFillColor(color)
	c.Rect(x, y, w, bandHeight, RectFill)
	c.SetFont("Helvetica", "B", 7)
	c.SetTextColor(printing.ColorWhiteSmoke)
	c.Text(x+w/2, y+7.5, AlignCenter, title)
}

// field is a label and value pair of an information grid
type field struct {
	Label string
	Value string
}

// fieldGrid draws rows of one or two label/value pairs inside a box and
// returns its height
func fieldGrid(c *Canvas, rc *RenderContext, x, y, w float64, rows [][]field) float64 {
	h := float64(len(rows)) * lineHeight
	c.SetDrawColor(printing.ColorBlack)
	c.SetLineWidth(0.75)
	c.Rect(x, y, w, h+2, RectDraw)

	half := w / 2
	labelW := w * 0.18
	for i, row := range rows {
		baseline := y + float64(i+1)*lineHeight - 1.5
		for j, f := range row {
			colX := x + float64(j)*half
			valueW := half - labelW - 4
			if len(row) == 1 {
				valueW = w - labelW - 4
			}
			c.SetFont("Helvetica", "", 7)
			c.SetTextColor(printing.ColorBlack)
			c.Text(colX+2, baseline, AlignLeft, f.Label)
			c.SetFont("Helvetica", "B", 7)
			c.Text(colX+labelW, baseline, AlignLeft, fitText(rc.Measurer, f.Value, 7, valueW))
		}
	}
	return h + 2
}

// textBlockLeading is the baseline distance of wrapped body text
const textBlockLeading = 8

// textBlocks builds blocks with a title band and wrapped body text. Long
// bodies are split into chunks that each fit on an overflow sheet, so text
// never runs past the footer.
func textBlocks(rc *RenderContext, name, title, body string, color printing.RGB) []Block {
	lines := rc.Measurer.WrapLines(body, 7, rc.Geometry.ContentWidth()-8)
	per := maxTextBlockLines(rc)

	var blocks []Block
	for start := 0; start < len(lines); start += per {
		end := start + per
		if end > len(lines) {
			end = len(lines)
		}
		heading := title
		if start > 0 {
			heading = title + " (continued)"
		}
		blocks = append(blocks, textChunk(name, heading, lines[start:end], color))
	}
	return blocks
}

// maxTextBlockLines is the number of body lines a text block may hold so
// that it fits between the continuation band and the footer
func maxTextBlockLines(rc *RenderContext) int {
	g := rc.Geometry
	room := rc.footerTop() - (g.Margins.Top + g.Reserved.Continuation + blockGap)
	n := int((room - bandHeight - 6) / textBlockLeading)
	if n < 1 {
		n = 1
	}
	return n
}

func textChunk(name, title string, lines []string, color printing.RGB) Block {
	height := bandHeight + float64(len(lines))*textBlockLeading + 6
	return Block{
		Name:   name,
		Height: height,
		Draw: func(c *Canvas, x, y, w float64) {
			titleBand(c, color, x, y, w, title)
			c.SetFont("Helvetica", "", 7)
			c.SetTextColor(printing.ColorBlack)
			for i, line := range lines {
				c.Text(x+4, y+bandHeight+float64(i+1)*textBlockLeading, AlignLeft, line)
			}
			c.SetDrawColor(printing.ColorBlack)
			c.SetLineWidth(0.75)
			c.Rect(x, y, w, height, RectDraw)
		},
	}
}

// observationsBlocks are the trailing free-text blocks of the document
func observationsBlocks(rc *RenderContext) []Block {
	text := strings.TrimSpace(rc.Doc.Extras.Observations)
	if text == "" {
		return nil
	}
	return textBlocks(rc, "observations", "Document Observations", text, rc.Palette.Background)
}

// additionalNotesBlocks hold the document's additional notes
func additionalNotesBlocks(rc *RenderContext) []Block {
	text := strings.TrimSpace(rc.Doc.Info.AdditionalNotes)
	if text == "" {
		return nil
	}
	return textBlocks(rc, "additional_notes", "Additional Notes", text, rc.Palette.Background)
}

// continuationBand draws the slim band used on pages without a header
func continuationBand(c *Canvas, rc *RenderContext, top, height float64) {
	g := rc.Geometry
	x := g.Margins.Left
	w := g.ContentWidth()
	h := height - 4
	if h < 12 {
		h = 12
	}
	c.SetFillColor(printing.ColorWhiteSmoke)
	c.SetDrawColor(printing.ColorBlack)
	c.SetLineWidth(0.75)
	c.Rect(x, top, w, h, RectFillDraw)
	c.SetFont("Helvetica", "B", 8)
	c.SetTextColor(printing.ColorBlack)
	baseline := top + h/2 + 3
	c.Text(x+6, baseline, AlignLeft, rc.Doc.Info.Title)
	c.Text(x+w-6, baseline, AlignRight, rc.Doc.Info.Number)
}

// documentBox draws the bordered title and number box of the header
func documentBox(c *Canvas, rc *RenderContext, x, y, w float64) {
	c.SetDrawColor(printing.ColorBlack)
	c.SetLineWidth(1)
	c.Rect(x, y, w, 28, RectDraw)
	c.Line(x, y+14, x+w, y+14)
	c.SetFont("Helvetica", "B", 7)
	c.SetTextColor(printing.ColorBlack)
	c.Text(x+w/2, y+9.5, AlignCenter, fitText(rc.Measurer, rc.Doc.Info.Title, 7, w-4))
	c.Text(x+w/2, y+23.5, AlignCenter, fitText(rc.Measurer, rc.Doc.Info.Number, 7, w-4))
}

// issuerName draws the issuer's legal name centred on the page
func issuerName(c *Canvas, rc *RenderContext, top float64, size float64) {
	c.SetFont("Helvetica", "B", size)
	c.SetTextColor(rc.Palette.HeaderText)
	c.Text(rc.Geometry.Width()/2, top+size+2, AlignCenter, rc.Doc.Issuer.Name)
}

// compactHeader is the later-page header shared by every layout
func compactHeader(c *Canvas, rc *RenderContext, top, height float64) {
	g := rc.Geometry
	x := g.Margins.Left
	w := g.ContentWidth()
	issuerName(c, rc, top, 10)

	logoH := height - 30
	if logoH > 40 {
		logoH = 40
	}
	if rc.Assets.IssuerLogo != nil && logoH > 8 {
		lw, lh := rc.Assets.IssuerLogo.Fit(w*0.2, logoH)
		c.Image(rc.Assets.IssuerLogo, x, top+18, lw, lh)
	}
	boxW := 110.0
	if boxW > w*0.3 {
		boxW = w * 0.3
	}
	documentBox(c, rc, x+w-boxW, top+18, boxW)
}

// drawAnnotations draws the fixed decorations of every page
func drawAnnotations(c *Canvas, rc *RenderContext) {
	g := rc.Geometry
	doc := rc.Doc
	W := g.Width()
	hx := W / 612
	off := g.Reserved.Offsets

	// provider title, top right
	c.SetFont("Helvetica", "", 6)
	c.SetTextColor(printing.ColorBlack)
	c.Text(W-g.Margins.Right, 10, AlignRight, doc.Provider.Title)

	if mark := strings.TrimSpace(doc.Info.Watermark); mark != "" {
		cx, cy := W/2, g.Height()/2
		c.SetAlpha(0.4)
		c.SetFont("Helvetica", "B", 50*g.Scale)
		c.SetTextColor(printing.ColorWatermark)
		c.Rotate(45, cx, cy)
		c.Text(cx, cy, AlignCenter, strings.ToUpper(mark))
		c.EndRotate()
		c.SetAlpha(1)
	}

	// footer rule
	c.SetDrawColor(printing.ColorLightGrey)
	c.SetLineWidth(0.5)
	c.Line(g.Margins.Left, g.FromBottom(off.Notes), W-g.Margins.Right, g.FromBottom(off.Notes))

	contact := fmt.Sprintf("Address: %s %s, Phone: %s, Email: %s | Web: %s",
		doc.Issuer.Address, doc.Issuer.City, doc.Issuer.Mobile, doc.Issuer.Email, doc.Issuer.Website)
	c.SetFont("Helvetica", "", 7)
	c.SetTextColor(printing.ColorBlack)
	c.Text(W/2, g.FromBottom(off.Contact), AlignCenter, fitText(rc.Measurer, contact, 7, g.ContentWidth()))

	if notes := strings.TrimSpace(doc.Info.FooterNotes); notes != "" {
		lines := rc.Measurer.WrapLines(notes, 7, g.ContentWidth())
		if len(lines) > 2 {
			lines = lines[:2]
		}
		base := g.FromBottom(off.Disclaimer)
		for i, line := range lines {
			c.Text(W/2, base-float64(len(lines)-1-i)*7, AlignCenter, line)
		}
	}

	c.SetFont("Helvetica", "", 6)
	c.SetTextColor(rc.Palette.FooterText)
	c.Text(W/2-40*hx, g.FromBottom(off.Provider), AlignCenter, doc.Provider.Text)
	if logo := rc.Assets.ProviderLogo; logo != nil {
		lw, lh := logo.Fit(79*hx, 20)
		c.Image(logo, W/2+130*hx, g.FromBottom(off.Provider)-14, lw, lh)
	}

	if date := strings.TrimSpace(doc.Info.ValidationDate); date != "" {
		x, y := 15.0, g.FromBottom(off.Validation)
		c.SetFont("Helvetica", "B", 7)
		c.SetTextColor(printing.ColorGrey)
		c.Rotate(90, x, y)
		c.Text(x, y, AlignLeft, "Validation date: "+date)
		c.EndRotate()
	}
}
