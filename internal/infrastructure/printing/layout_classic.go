package printing

import (
	"github.com/erp/docgen/internal/domain/printing"
)

// classicLayout is the invoice layout with the QR in the header band
type classicLayout struct{}

func (classicLayout) Kind() printing.TemplateKind { return printing.TemplateClassic }

func (classicLayout) Header(c *Canvas, rc *RenderContext, page printing.Page, top, height float64) {
	invoiceHeader(c, rc, page, top, height, true)
}

func (classicLayout) Info(c *Canvas, rc *RenderContext, page printing.Page, top, height float64) {
	invoiceInfo(c, rc, page, top, height)
}

func (classicLayout) DrawRow(c *Canvas, rc *RenderContext, row printing.ContentRow, x, y float64) {
	invoiceRow(c, rc, row, x, y)
}

// Totals draws the resolution text and amount in words next to the amounts
func (classicLayout) Totals(rc *RenderContext) Block {
	rows := amountRows(rc, false)
	return Block{
		Name:   "totals",
		Height: printing.DefaultTotalsHeight,
		Draw: func(c *Canvas, x, y, w float64) {
			colW := w * 0.3
			left := w - colW - 6
			amountColumn(c, rc, rows, x+w-colW, y, colW)

			c.SetFont("Helvetica", "", 7)
			c.SetTextColor(printing.ColorBlack)
			ly := y + 8
			if words := rc.Doc.Info.AmountInWords; words != "" {
				for _, line := range limitLines(rc.Measurer.WrapLines("Amount in words: "+words, 7, left-8), 3) {
					c.Text(x+4, ly, AlignLeft, line)
					ly += 8
				}
				ly += 4
			}
			if res := rc.Doc.Extras.Resolution; res != "" {
				avail := int((y + printing.DefaultTotalsHeight - ly) / 8)
				for _, line := range limitLines(rc.Measurer.WrapLines(res, 7, left-8), avail) {
					c.Text(x+4, ly, AlignLeft, line)
					ly += 8
				}
			}
		},
	}
}

func (classicLayout) Auxiliary(rc *RenderContext) []Block {
	var blocks []Block
	if b, ok := healthBlock(rc); ok {
		blocks = append(blocks, b)
	}
	return append(blocks, additionalNotesBlocks(rc)...)
}

// limitLines keeps at most n lines
func limitLines(lines []string, n int) []string {
	if n < 0 {
		n = 0
	}
	if len(lines) > n {
		return lines[:n]
	}
	return lines
}
