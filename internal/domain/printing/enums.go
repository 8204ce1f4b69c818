package printing

import (
	"errors"
	"fmt"
	"strings"
)

// PaperSize identifies a paper preset in the geometry catalog
type PaperSize string

const (
	PaperSizeLetter     PaperSize = "LETTER"     // 8.5in x 11in, baseline
	PaperSizeLegal      PaperSize = "LEGAL"      // 8.5in x 14in
	PaperSizeA4         PaperSize = "A4"         // 210mm x 297mm
	PaperSizeHalfLetter PaperSize = "HALFLETTER" // 5.5in x 8.5in
	PaperSizeA5         PaperSize = "A5"         // 148mm x 210mm
	PaperSizeExecutive  PaperSize = "EXECUTIVE"  // 7.25in x 10.5in
)

// BaselinePaperSize is the preset every other preset is scaled from
const BaselinePaperSize = PaperSizeLetter

// paperAliases maps accepted spellings onto catalog identifiers
var paperAliases = map[string]PaperSize{
	"HALF":        PaperSizeHalfLetter,
	"HALF_LETTER": PaperSizeHalfLetter,
	"HALF-LETTER": PaperSizeHalfLetter,
}

// NormalizePaperSize upper-cases and trims an identifier and resolves aliases.
// It does not check that the result is in the catalog.
func NormalizePaperSize(id string) PaperSize {
	key := strings.ToUpper(strings.TrimSpace(id))
	if alias, ok := paperAliases[key]; ok {
		return alias
	}
	return PaperSize(key)
}

// String returns the string representation of PaperSize
func (p PaperSize) String() string {
	return string(p)
}

// TemplateKind selects one of the closed set of document layouts
type TemplateKind string

const (
	TemplateClassic TemplateKind = "classic" // invoice with health-sector and notes blocks
	TemplateCompact TemplateKind = "compact" // invoice with QR/order/totals combo and CUFE box
	TemplatePayroll TemplateKind = "payroll" // payslip grouped by payroll section
)

// ErrUnknownTemplate is returned for template tags outside the closed set
var ErrUnknownTemplate = errors.New("unknown template")

// ParseTemplateKind resolves a template tag. Numeric tags 1, 2 and 3 map to
// classic, compact and payroll. An empty tag selects classic. Any other value
// is a configuration error.
func ParseTemplateKind(tag string) (TemplateKind, error) {
	switch strings.ToLower(strings.TrimSpace(tag)) {
	case "", "1", string(TemplateClassic):
		return TemplateClassic, nil
	case "2", string(TemplateCompact):
		return TemplateCompact, nil
	case "3", string(TemplatePayroll):
		return TemplatePayroll, nil
	}
	return "", fmt.Errorf("%w: %q (accepted: 1, 2, 3, classic, compact, payroll)", ErrUnknownTemplate, tag)
}

// IsValid checks if the TemplateKind is a valid value
func (k TemplateKind) IsValid() bool {
	switch k {
	case TemplateClassic, TemplateCompact, TemplatePayroll:
		return true
	}
	return false
}

// IsInvoice returns true for the invoice layouts
func (k TemplateKind) IsInvoice() bool {
	return k == TemplateClassic || k == TemplateCompact
}

// FilePrefix returns the prefix used in generated file names
func (k TemplateKind) FilePrefix() string {
	if k == TemplatePayroll {
		return "payroll"
	}
	return "invoice"
}

// String returns the string representation of TemplateKind
func (k TemplateKind) String() string {
	return string(k)
}

// AllTemplateKinds returns all valid TemplateKind values
func AllTemplateKinds() []TemplateKind {
	return []TemplateKind{TemplateClassic, TemplateCompact, TemplatePayroll}
}
