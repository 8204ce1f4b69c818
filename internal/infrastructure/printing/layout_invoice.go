package printing

import (
	"strconv"
	"strings"

	"github.com/erp/docgen/internal/domain/printing"
)

// invoiceRow draws an 8-column invoice row
func invoiceRow(c *Canvas, rc *RenderContext, row printing.ContentRow, x, y float64) {
	item := row.Item()
	h := row.Height()
	f := rc.Format

	c.SetFont("Helvetica", "", rc.Metrics.FontSize)
	c.SetTextColor(printing.ColorBlack)
	wrappedCell(c, rc, row.Lines(), x, y)

	values := []string{
		0: strconv.Itoa(item.LineNumber),
		2: item.Unit,
		3: f.Quantity(item.Quantity),
		4: f.Money(item.UnitPrice),
		5: f.Percent(item.TaxPercent),
		6: f.Money(item.Discount),
		7: f.Money(item.LineTotal),
	}
	for col, v := range values {
		if col == rc.Schema.WrapColumn || col >= len(rc.Schema.Columns) {
			continue
		}
		cellText(c, rc, col, x, y, h, v)
	}

	c.SetDrawColor(printing.ColorLightGrey)
	c.SetLineWidth(0.25)
	c.Line(x, y+h, x+rc.Schema.Width(), y+h)
}

// invoiceInfo draws the recipient block. Page 0 gets every field, later
// pages a short reminder.
func invoiceInfo(c *Canvas, rc *RenderContext, page printing.Page, top, height float64) {
	g := rc.Geometry
	x := g.Margins.Left
	w := g.ContentWidth()
	doc := rc.Doc
	r := doc.Recipient
	info := doc.Info

	var rows [][]field
	if page.Index == 0 {
		rows = [][]field{
			{{"Customer:", r.Name}},
			{{"ID:", r.ID}, {"Phone:", r.Phone}},
			{{"Email:", r.Email}, {"Address:", r.Address}},
			{{"City:", r.City}, {"State:", joinNonEmpty(", ", r.State, r.Country)}},
			{{"Currency:", info.Currency}, {"Payment method:", info.PaymentMethod}},
			{{"Payment type:", info.PaymentType}, {"Order number:", info.OrderNumber}},
			{{"Issued:", joinNonEmpty(" ", info.IssueDate, info.IssueTime)}, {"Due date:", info.DueDate}},
			{{"CUFE:", info.TransactionID}},
		}
	} else {
		rows = [][]field{
			{{"Customer:", r.Name}, {"ID:", r.ID}},
			{{"Document:", info.Number}, {"Issued:", info.IssueDate}},
		}
	}
	if fit := int((height - bandHeight - 2) / lineHeight); len(rows) > fit {
		if fit < 0 {
			fit = 0
		}
		rows = rows[:fit]
	}
	if len(rows) == 0 {
		return
	}

	titleBand(c, rc.Palette.Background, x, top, w, "Customer Information")
	fieldGrid(c, rc, x, top+bandHeight, w, rows)
}

// invoiceFiscalLines draws the issuer's fiscal identity lines
func invoiceFiscalLines(c *Canvas, rc *RenderContext, x, y, w float64) {
	is := rc.Doc.Issuer
	lines := []field{
		{"Tax ID:", is.DocumentID},
		{"Economic activity:", is.EconomicActivity},
		{"Regime:", is.TaxRegime},
		{"VAT responsible:", is.VATResponsible},
		{"ICA rate:", is.ICARate},
	}
	c.SetTextColor(rc.Palette.HeaderText)
	for i, l := range lines {
		if l.Value == "" {
			continue
		}
		baseline := y + float64(i+1)*lineHeight
		c.SetFont("Helvetica", "B", 7)
		c.Text(x, baseline, AlignLeft, l.Label)
		c.SetFont("Helvetica", "", 7)
		c.Text(x+68, baseline, AlignLeft, fitText(rc.Measurer, l.Value, 7, w-70))
	}
}

// invoiceHeader draws the full invoice header. withQR places the QR image
// in the header band.
func invoiceHeader(c *Canvas, rc *RenderContext, page printing.Page, top, height float64, withQR bool) {
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

	if qr := rc.Assets.QR; withQR && qr != nil && box > 0 {
		c.Image(qr, x+w*0.62+(w*0.18-box)/2, y, box, box)
	}

	boxW := w * 0.2
	documentBox(c, rc, x+w-boxW, y, boxW)
	if ref := rc.Doc.Extras.ReferenceDocument; ref != "" {
		c.SetFont("Helvetica", "", 6)
		c.SetTextColor(rc.Palette.HeaderText)
		c.Text(x+w-boxW/2, y+38, AlignCenter, fitText(rc.Measurer, "Ref: "+ref, 6, boxW))
	}
}

// amountRows are the label/value pairs of an invoice totals column
func amountRows(rc *RenderContext, compact bool) []field {
	t := rc.Doc.Totals
	f := rc.Format
	withholdings := t.WithheldVAT.Add(t.WithheldIncome).Add(t.WithheldICA)
	due := t.AmountDue
	rows := []field{
		{"Subtotal", f.Money(t.Subtotal)},
		{"Discount", f.Money(t.Discount)},
		{"Tax", f.Money(t.Tax)},
	}
	if compact {
		rows = append(rows,
			field{"Charges", f.Money(t.Charges)},
			field{"Withholdings", f.Money(withholdings)},
		)
	}
	return append(rows,
		field{"Advance", f.Money(t.Advance)},
		field{"Total due", f.Money(due)},
	)
}

// amountColumn draws the totals column and returns its height
func amountColumn(c *Canvas, rc *RenderContext, rows []field, x, y, w float64) float64 {
	const rowH = 12
	for i, r := range rows {
		ry := y + float64(i)*rowH
		last := i == len(rows)-1
		if last {
			c.SetFillColor(rc.Palette.Background)
			c.Rect(x, ry, w, rowH, RectFill)
			c.SetTextColor(printing.ColorWhiteSmoke)
			c.SetFont("Helvetica", "B", 7)
		} else {
			c.SetTextColor(printing.ColorBlack)
			c.SetFont("Helvetica", "", 7)
		}
		c.Text(x+4, ry+8.5, AlignLeft, r.Label)
		c.Text(x+w-4, ry+8.5, AlignRight, r.Value)
	}
	h := float64(len(rows)) * rowH
	c.SetDrawColor(printing.ColorBlack)
	c.SetLineWidth(0.75)
	c.Rect(x, y, w, h, RectDraw)
	return h
}

// healthBlock lists the free health-sector fields in two columns
func healthBlock(rc *RenderContext) (Block, bool) {
	var values []string
	for _, v := range rc.Doc.Extras.HealthFields {
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return Block{}, false
	}
	lines := (len(values) + 1) / 2
	height := bandHeight + float64(lines)*lineHeight + 4
	return Block{
		Name:   "health_sector",
		Height: height,
		Draw: func(c *Canvas, x, y, w float64) {
			titleBand(c, rc.Palette.Background, x, y, w, "Health Sector Additional Data")
			c.SetFont("Helvetica", "", 7)
			c.SetTextColor(printing.ColorBlack)
			for i, v := range values {
				col := float64(i % 2)
				baseline := y + bandHeight + float64(i/2+1)*lineHeight
				c.Text(x+4+col*w/2, baseline, AlignLeft, fitText(rc.Measurer, v, 7, w/2-8))
			}
			c.SetDrawColor(printing.ColorBlack)
			c.SetLineWidth(0.75)
			c.Rect(x, y, w, height, RectDraw)
		},
	}, true
}

func joinNonEmpty(sep string, parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, sep)
}

