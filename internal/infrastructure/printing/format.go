package printing

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Formatter renders amounts for display
type Formatter struct {
	symbol    string
	separator byte
}

// NewFormatter creates a formatter with comma grouping and a "$" symbol
func NewFormatter() *Formatter {
	return &Formatter{
		symbol:    "$",
		separator: ',',
	}
}

// Money formats d with two decimals and thousands grouping, e.g. $1,234.50.
// Digits come from the decimal itself so large amounts print exactly.
func (f *Formatter) Money(d decimal.Decimal) string {
	d = d.Round(2)
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}
	fixed := d.StringFixed(2)
	intPart, frac, _ := strings.Cut(fixed, ".")
	return sign + f.symbol + f.group(intPart) + "." + frac
}

// group inserts the separator every three digits from the right
func (f *Formatter) group(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	b.Grow(len(digits) + len(digits)/3)
	head := len(digits) % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(f.separator)
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// Percent formats d with two decimals and a trailing "%"
func (f *Formatter) Percent(d decimal.Decimal) string {
	return d.StringFixed(2) + "%"
}

// Quantity formats d without trailing zeros
func (f *Formatter) Quantity(d decimal.Decimal) string {
	return d.String()
}
