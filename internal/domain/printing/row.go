package printing

import (
	"math"

	"github.com/shopspring/decimal"
)

// Measurer breaks text into lines that fit a width at a font size.
// Implementations must be deterministic for identical input.
type Measurer interface {
	WrapLines(text string, fontSize, width float64) []string
}

// RowMetrics controls how a row's height is derived from its wrapped text
type RowMetrics struct {
	FontSize  float64 // description font size
	Leading   float64 // height of one wrapped line
	MinHeight float64 // floor applied to the wrapped height
	Padding   float64 // added below the floored height
	WrapWidth float64 // width of the wrapping column
}

// DefaultRowMetrics returns the metrics used by the invoice tables
func DefaultRowMetrics() RowMetrics {
	return RowMetrics{
		FontSize:  7,
		Leading:   8,
		MinHeight: 10,
		Padding:   4,
		WrapWidth: 180,
	}
}

// Height returns the row height for a number of wrapped lines
func (m RowMetrics) Height(lines int) float64 {
	return math.Max(float64(lines)*m.Leading, m.MinHeight) + m.Padding
}

// LineItem is the data carried by one table row
type LineItem struct {
	LineNumber  int             `json:"line_number"`
	Code        string          `json:"code,omitempty"`
	Description string          `json:"description"`
	Unit        string          `json:"unit"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TaxPercent  decimal.Decimal `json:"tax_percent"`
	Discount    decimal.Decimal `json:"discount"`
	LineTotal   decimal.Decimal `json:"line_total"`
	// Kind, Group and Observation are used by payroll rows
	Kind        RowKind        `json:"kind,omitempty"`
	Group       PayrollSection `json:"group,omitempty"`
	Observation string         `json:"observation,omitempty"`
}

// ContentRow is a line item with its wrapped description and measured height.
// It is immutable after construction.
type ContentRow struct {
	item   LineItem
	lines  []string
	height float64
}

// NewContentRow measures item with the given metrics
func NewContentRow(item LineItem, measurer Measurer, metrics RowMetrics) ContentRow {
	lines := measurer.WrapLines(item.Description, metrics.FontSize, metrics.WrapWidth)
	if len(lines) == 0 {
		lines = []string{""}
	}
	return ContentRow{
		item:   item,
		lines:  lines,
		height: metrics.Height(len(lines)),
	}
}

// BuildRows measures every item in order
func BuildRows(items []LineItem, measurer Measurer, metrics RowMetrics) []ContentRow {
	rows := make([]ContentRow, 0, len(items))
	for _, item := range items {
		rows = append(rows, NewContentRow(item, measurer, metrics))
	}
	return rows
}

// LineNumber returns the row's line number
func (r ContentRow) LineNumber() int { return r.item.LineNumber }

// Item returns a copy of the row's line item
func (r ContentRow) Item() LineItem { return r.item }

// Lines returns a copy of the wrapped description lines
func (r ContentRow) Lines() []string {
	out := make([]string, len(r.lines))
	copy(out, r.lines)
	return out
}

// Height returns the measured height in points
func (r ContentRow) Height() float64 { return r.height }

// Column is one column of a row table
type Column struct {
	Header string
	Width  float64
	Align  string // "L", "C" or "R"
}

// CellPadding is the horizontal inset applied on each side of a table cell
const CellPadding = 2

// ColumnSchema is the fixed column layout of a row table. The same schema is
// used on every page of a document.
type ColumnSchema struct {
	Columns []Column
	// WrapColumn is the index of the column whose text wraps
	WrapColumn int
}

// Width returns the total width of the schema
func (s ColumnSchema) Width() float64 {
	var w float64
	for _, c := range s.Columns {
		w += c.Width
	}
	return w
}

// Offsets returns the left edge of each column relative to the table's left edge
func (s ColumnSchema) Offsets() []float64 {
	out := make([]float64, len(s.Columns))
	var x float64
	for i, c := range s.Columns {
		out[i] = x
		x += c.Width
	}
	return out
}

// WrapWidth returns the width of the wrapping column
func (s ColumnSchema) WrapWidth() float64 {
	if s.WrapColumn < 0 || s.WrapColumn >= len(s.Columns) {
		return 0
	}
	return s.Columns[s.WrapColumn].Width
}

// FitTo scales every column proportionally so the schema spans width
func (s ColumnSchema) FitTo(width float64) ColumnSchema {
	total := s.Width()
	out := ColumnSchema{Columns: make([]Column, len(s.Columns)), WrapColumn: s.WrapColumn}
	copy(out.Columns, s.Columns)
	if total <= 0 || width <= 0 {
		return out
	}
	f := width / total
	for i := range out.Columns {
		out.Columns[i].Width = s.Columns[i].Width * f
	}
	return out
}

// InvoiceColumns returns the 8-column invoice table schema
func InvoiceColumns() ColumnSchema {
	return ColumnSchema{
		Columns: []Column{
			{Header: "#", Width: 25, Align: "C"},
			{Header: "Description", Width: 180, Align: "L"},
			{Header: "Unit", Width: 40, Align: "C"},
			{Header: "Qty", Width: 40, Align: "R"},
			{Header: "Unit Price", Width: 75, Align: "R"},
			{Header: "Tax %", Width: 50, Align: "R"},
			{Header: "Discount", Width: 75, Align: "R"},
			{Header: "Total", Width: 75, Align: "R"},
		},
		WrapColumn: 1,
	}
}

// PayrollColumns returns the 3-column payslip table schema
func PayrollColumns() ColumnSchema {
	return ColumnSchema{
		Columns: []Column{
			{Header: "Concept", Width: 260, Align: "L"},
			{Header: "Value", Width: 100, Align: "R"},
			{Header: "Observation", Width: 196, Align: "L"},
		},
		WrapColumn: 0,
	}
}

// TableLayout returns the column schema fitted to contentWidth and the row
// metrics whose wrap width matches the schema's wrapping column
func TableLayout(kind TemplateKind, contentWidth float64) (ColumnSchema, RowMetrics) {
	schema := InvoiceColumns()
	if kind == TemplatePayroll {
		schema = PayrollColumns()
	}
	schema = schema.FitTo(contentWidth)
	m := DefaultRowMetrics()
	m.WrapWidth = schema.WrapWidth() - 2*CellPadding
	return schema, m
}
