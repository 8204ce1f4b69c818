package printing

import (
	"github.com/erp/docgen/internal/domain/printing"
)

// compactLayout is the invoice layout that moves the QR into the totals block
type compactLayout struct{}

func (compactLayout) Kind() printing.TemplateKind { return printing.TemplateCompact }

func (compactLayout) Header(c *Canvas, rc *RenderContext, page printing.Page, top, height float64) {
	invoiceHeader(c, rc, page, top, height, false)
}

func (compactLayout) Info(c *Canvas, rc *RenderContext, page printing.Page, top, height float64) {
	invoiceInfo(c, rc, page, top, height)
}

func (compactLayout) DrawRow(c *Canvas, rc *RenderContext, row printing.ContentRow, x, y float64) {
	invoiceRow(c, rc, row, x, y)
}

// Totals combines the QR, the order-number box and the amounts column
func (compactLayout) Totals(rc *RenderContext) Block {
	rows := amountRows(rc, true)
	return Block{
		Name:   "totals",
		Height: printing.DefaultTotalsHeight,
		Draw: func(c *Canvas, x, y, w float64) {
			colW := w * 0.3
			amountColumn(c, rc, rows, x+w-colW, y, colW)

			qrSize := 80.0
			if qr := rc.Assets.QR; qr != nil {
				c.Image(qr, x, y, qrSize, qrSize)
			}

			boxX := x + qrSize + 8
			boxW := w - colW - qrSize - 16
			c.SetDrawColor(printing.ColorBlack)
			c.SetLineWidth(0.75)
			c.Rect(boxX, y, boxW, 28, RectDraw)
			c.SetFont("Helvetica", "B", 7)
			c.SetTextColor(printing.ColorBlack)
			c.Text(boxX+4, y+10, AlignLeft, "Order number")
			c.SetFont("Helvetica", "", 7)
			c.Text(boxX+4, y+21, AlignLeft, fitText(rc.Measurer, rc.Doc.Info.OrderNumber, 7, boxW-8))

			ly := y + 40
			if words := rc.Doc.Info.AmountInWords; words != "" {
				for _, line := range limitLines(rc.Measurer.WrapLines(words, 7, boxW-8), 3) {
					c.Text(boxX+4, ly, AlignLeft, line)
					ly += 8
				}
				ly += 4
			}
			if res := rc.Doc.Extras.Resolution; res != "" {
				avail := int((y + printing.DefaultTotalsHeight - ly) / 8)
				for _, line := range limitLines(rc.Measurer.WrapLines(res, 7, boxW-8), avail) {
					c.Text(boxX+4, ly, AlignLeft, line)
					ly += 8
				}
			}
		},
	}
}

func (compactLayout) Auxiliary(rc *RenderContext) []Block {
	var blocks []Block
	if cufe := rc.Doc.Info.TransactionID; cufe != "" {
		blocks = append(blocks, textBlocks(rc, "cufe", "CUFE", cufe, rc.Palette.Background)...)
	}
	return append(blocks, additionalNotesBlocks(rc)...)
}
