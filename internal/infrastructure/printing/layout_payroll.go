package printing

import (
	"github.com/erp/docgen/internal/domain/printing"
)

// payrollLayout is the payslip layout grouped by payroll section
type payrollLayout struct{}

func (payrollLayout) Kind() printing.TemplateKind { return printing.TemplatePayroll }

func (payrollLayout) Header(c *Canvas, rc *RenderContext, page printing.Page, top, height float64) {
	if page.Index > 0 {
		compactHeader(c, rc, top, height)
		return
	}
	g := rc.Geometry
	x := g.Margins.Left
	w := g.ContentWidth()
	issuerName(c, rc, top, 12)

	y := top + 20
	box := height - 30
	if box > 80 {
		box = 80
	}
	if logo := rc.Assets.IssuerLogo; logo != nil && box > 0 {
		lw, lh := logo.Fit(w*0.25, box)
		c.Image(logo, x, y, lw, lh)
	}
	invoiceFiscalLines(c, rc, x+w*0.25+6, y, w*0.37-6)
	if qr := rc.Assets.QR; qr != nil && box > 0 {
		c.Image(qr, x+w*0.62+(w*0.18-box)/2, y, box, box)
	}
	boxW := w * 0.2
	documentBox(c, rc, x+w-boxW, y, boxW)
}

// Info draws the liquidation data and the worker block on the first page
// and a worker reminder on later pages
func (payrollLayout) Info(c *Canvas, rc *RenderContext, page printing.Page, top, height float64) {
	g := rc.Geometry
	x := g.Margins.Left
	w := g.ContentWidth()
	doc := rc.Doc
	r := doc.Recipient

	if page.Index > 0 {
		if height < bandHeight+lineHeight+2 {
			return
		}
		titleBand(c, rc.Palette.Info, x, top, w, "Worker Information")
		fieldGrid(c, rc, x, top+bandHeight, w, [][]field{
			{{"Worker:", joinNonEmpty(" - ", r.ID, r.Name)}, {"Period:", doc.Payroll.Period}},
		})
		return
	}

	settlement := [][]field{
		{{"Period:", doc.Payroll.Period}, {"Issued:", joinNonEmpty(" ", doc.Info.IssueDate, doc.Info.IssueTime)}},
		{{"Summary:", doc.Payroll.Summary}},
		{{"Liquidator:", doc.Info.Liquidator}, {"CUNE:", doc.Info.TransactionID}},
	}
	worker := [][]field{
		{{"Worker:", joinNonEmpty(" - ", r.ID, r.Name)}},
		{{"Position:", r.Position}, {"Contract:", r.ContractType}},
		{{"Base salary:", rc.Format.Money(doc.BaseSalary())}, {"Worked days:", doc.Payroll.WorkedDays}},
		{{"Bank:", doc.Info.Bank}, {"Account:", doc.Info.BankAccount}},
	}

	y := top
	titleBand(c, rc.Palette.Info, x, y, w, "Settlement Data")
	y += bandHeight
	y += fieldGrid(c, rc, x, y, w, settlement) + blockGap

	if top+height-y < bandHeight+float64(len(worker))*lineHeight+2 {
		return
	}
	titleBand(c, rc.Palette.Info, x, y, w, "Worker Information")
	fieldGrid(c, rc, x, y+bandHeight, w, worker)
}

// sectionColor maps a payroll section to its palette colour
func sectionColor(p printing.Palette, s printing.PayrollSection) printing.RGB {
	switch s {
	case printing.SectionEarnings:
		return p.Positive
	case printing.SectionDeductions:
		return p.Negative
	default:
		return p.Info
	}
}

func (payrollLayout) DrawRow(c *Canvas, rc *RenderContext, row printing.ContentRow, x, y float64) {
	item := row.Item()
	h := row.Height()
	w := rc.Schema.Width()

	switch item.Kind {
	case printing.RowKindHeading:
		c.SetFillColor(sectionColor(rc.Palette, item.Group))
		c.Rect(x, y, w, h, RectFill)
		c.SetFont("Helvetica", "B", rc.Metrics.FontSize)
		c.SetTextColor(printing.ColorWhiteSmoke)
		wrappedCell(c, rc, row.Lines(), x, y)
		return
	case printing.RowKindSubtotal:
		c.SetFillColor(printing.ColorWhiteSmoke)
		c.Rect(x, y, w, h, RectFill)
		c.SetFont("Helvetica", "B", rc.Metrics.FontSize)
		c.SetTextColor(sectionColor(rc.Palette, item.Group))
		wrappedCell(c, rc, row.Lines(), x, y)
		cellText(c, rc, 1, x, y, h, rc.Format.Money(item.LineTotal))
	default:
		c.SetFont("Helvetica", "", rc.Metrics.FontSize)
		c.SetTextColor(printing.ColorBlack)
		wrappedCell(c, rc, row.Lines(), x, y)
		cellText(c, rc, 1, x, y, h, rc.Format.Money(item.LineTotal))
		cellText(c, rc, 2, x, y, h, item.Observation)
	}

	c.SetDrawColor(printing.ColorLightGrey)
	c.SetLineWidth(0.25)
	c.Line(x, y+h, x+w, y+h)
}

// Totals lists each section total and the net pay
func (payrollLayout) Totals(rc *RenderContext) Block {
	t := rc.Doc.Payroll.Totals
	f := rc.Format
	p := rc.Palette
	rows := []struct {
		label string
		value string
		color printing.RGB
	}{
		{"Total earnings", f.Money(t.Earnings), p.Positive},
		{"Total deductions", f.Money(t.Deductions), p.Negative},
		{"Employer contributions", f.Money(t.Contributions), p.Info},
		{"Social benefit provisions", f.Money(t.Provisions), p.Info},
	}
	return Block{
		Name:   "totals",
		Height: printing.DefaultTotalsHeight,
		Draw: func(c *Canvas, x, y, w float64) {
			const rowH = 14
			colW := w * 0.45
			cx := x + w - colW
			for i, r := range rows {
				ry := y + float64(i)*rowH
				c.SetFont("Helvetica", "B", 7)
				c.SetTextColor(r.color)
				c.Text(cx+4, ry+10, AlignLeft, r.label)
				c.SetTextColor(printing.ColorBlack)
				c.Text(cx+colW-4, ry+10, AlignRight, r.value)
			}
			ny := y + float64(len(rows))*rowH + 4
			c.SetFillColor(p.Background)
			c.Rect(cx, ny, colW, 18, RectFill)
			c.SetFont("Helvetica", "B", 8)
			c.SetTextColor(printing.ColorWhiteSmoke)
			c.Text(cx+4, ny+12, AlignLeft, "NET PAY")
			c.Text(cx+colW-4, ny+12, AlignRight, f.Money(t.NetPay))

			c.SetDrawColor(printing.ColorBlack)
			c.SetLineWidth(0.75)
			c.Rect(cx, y, colW, ny+18-y, RectDraw)

			if res := rc.Doc.Extras.Resolution; res != "" {
				c.SetFont("Helvetica", "", 7)
				c.SetTextColor(printing.ColorBlack)
				ly := y + 8
				for _, line := range limitLines(rc.Measurer.WrapLines(res, 7, w-colW-12), 10) {
					c.Text(x+4, ly, AlignLeft, line)
					ly += 8
				}
			}
		},
	}
}

func (payrollLayout) Auxiliary(rc *RenderContext) []Block {
	return additionalNotesBlocks(rc)
}
