package printing

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// MaxAdditionalNotesLength caps the additional-notes block in characters
const MaxAdditionalNotesLength = 800

// PayrollSection groups payroll concepts
type PayrollSection string

const (
	SectionEarnings      PayrollSection = "earnings"
	SectionDeductions    PayrollSection = "deductions"
	SectionContributions PayrollSection = "employer_contributions"
	SectionProvisions    PayrollSection = "provisions"
)

// Title returns the heading printed above the section
func (s PayrollSection) Title() string {
	switch s {
	case SectionEarnings:
		return "Earnings"
	case SectionDeductions:
		return "Deductions"
	case SectionContributions:
		return "Employer Contributions"
	case SectionProvisions:
		return "Social Benefit Provisions"
	}
	return string(s)
}

// RowKind distinguishes payroll section headings and subtotals from concept rows
type RowKind string

const (
	RowKindItem     RowKind = ""
	RowKindHeading  RowKind = "heading"
	RowKindSubtotal RowKind = "subtotal"
)

// Issuer is the party issuing the document
type Issuer struct {
	DocumentID       string
	Name             string
	Address          string
	Country          string
	State            string
	City             string
	Phone            string
	Mobile           string
	Email            string
	Website          string
	TaxRegime        string
	VATResponsible   string
	EconomicActivity string
	ICARate          string
	// Logo is base64 encoded image data
	Logo string
}

// Recipient is the customer of an invoice or the worker of a payslip
type Recipient struct {
	ID           string
	Name         string
	Address      string
	City         string
	State        string
	Country      string
	Phone        string
	Email        string
	Position     string
	ContractType string
}

// DocumentInfo holds identification, dates and free texts of the document
type DocumentInfo struct {
	Number          string
	IssueDate       string
	IssueTime       string
	Currency        string
	PaymentMethod   string
	PaymentTerms    string
	PaymentType     string
	Bank            string
	BankAccount     string
	OrderNumber     string
	DueDate         string
	Watermark       string
	TransactionID   string // CUFE for invoices, CUNE for payroll
	ValidationDate  string
	QRData          string
	Title           string
	AmountInWords   string
	FooterNotes     string
	AdditionalNotes string
	Liquidator      string
	// TargetURL, when set, fixes the storage location of the output
	TargetURL string
}

// InvoiceTotals are the document level amounts of an invoice
type InvoiceTotals struct {
	Subtotal       decimal.Decimal
	TaxBase        decimal.Decimal
	Discount       decimal.Decimal
	Charges        decimal.Decimal
	Tax            decimal.Decimal
	WithheldVAT    decimal.Decimal
	WithheldIncome decimal.Decimal
	WithheldICA    decimal.Decimal
	Advance        decimal.Decimal
	DocumentTotal  decimal.Decimal
	AmountDue      decimal.Decimal
}

// PayrollEntry is one payroll concept
type PayrollEntry struct {
	Type        string
	Value       decimal.Decimal
	Description string
}

// PayrollTotals are the section totals and net pay of a payslip
type PayrollTotals struct {
	BaseSalary    decimal.Decimal
	Earnings      decimal.Decimal
	Deductions    decimal.Decimal
	Contributions decimal.Decimal
	Provisions    decimal.Decimal
	NetPay        decimal.Decimal
}

// Payroll holds the payslip sections
type Payroll struct {
	Earnings      []PayrollEntry
	Deductions    []PayrollEntry
	Contributions []PayrollEntry
	Provisions    []PayrollEntry
	Totals        PayrollTotals
	WorkedDays    string
	Period        string
	Summary       string
}

// Extras carries the auxiliary blocks
type Extras struct {
	Resolution        string
	HealthFields      []string
	ReferenceDocument string
	// Observations is printed as a trailing block after the last page content
	Observations string
}

// Provider is the platform that produced the document
type Provider struct {
	Title string
	Text  string
	// Logo is base64 encoded image data
	Logo string
}

// Document is the input of an assembly
type Document struct {
	Template  TemplateKind
	Paper     string
	Policy    Policy
	Colors    ColorOptions
	Issuer    Issuer
	Recipient Recipient
	Info      DocumentInfo
	Items     []LineItem
	Totals    InvoiceTotals
	Payroll   Payroll
	Extras    Extras
	Provider  Provider
}

// FieldError names one invalid field by its JSON path
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists every invalid field of a document
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "invalid document: " + strings.Join(parts, "; ")
}

// Add records a field error
func (e *ValidationError) Add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// HasErrors reports whether any field error was recorded
func (e *ValidationError) HasErrors() bool {
	return len(e.Fields) > 0
}

// Validate checks the fields needed to lay out the document. It returns a
// *ValidationError naming every missing field, or nil.
func (d *Document) Validate() error {
	v := &ValidationError{}
	if !d.Template.IsValid() {
		v.Add("features.template", "unknown template")
	}
	required := func(field, value string) {
		if strings.TrimSpace(value) == "" {
			v.Add(field, "is required")
		}
	}

	required("issuer.document_id", d.Issuer.DocumentID)
	required("issuer.name", d.Issuer.Name)
	required("recipient.id", d.Recipient.ID)
	required("recipient.name", d.Recipient.Name)
	required("document.number", d.Info.Number)
	required("document.issue_date", d.Info.IssueDate)

	if d.Template.IsInvoice() {
		required("document.transaction_id", d.Info.TransactionID)
		for i, item := range d.Items {
			if strings.TrimSpace(item.Description) == "" {
				v.Add(fmt.Sprintf("items[%d].description", i), "is required")
			}
			if item.Quantity.IsNegative() {
				v.Add(fmt.Sprintf("items[%d].quantity", i), "must not be negative")
			}
		}
	}

	if d.Template == TemplatePayroll {
		sections := []struct {
			name    string
			entries []PayrollEntry
		}{
			{"earnings", d.Payroll.Earnings},
			{"deductions", d.Payroll.Deductions},
			{"employer_contributions", d.Payroll.Contributions},
			{"provisions", d.Payroll.Provisions},
		}
		for _, s := range sections {
			for i, e := range s.entries {
				if strings.TrimSpace(e.Type) == "" {
					v.Add(fmt.Sprintf("%s[%d].type", s.name, i), "is required")
				}
			}
		}
	}

	if v.HasErrors() {
		return v
	}
	return nil
}

// Normalize applies defaults to optional fields. It is safe to call more
// than once.
func (d *Document) Normalize() {
	if d.Template == "" {
		d.Template = TemplateClassic
	}
	if utf8.RuneCountInString(d.Info.AdditionalNotes) > MaxAdditionalNotesLength {
		d.Info.AdditionalNotes = string([]rune(d.Info.AdditionalNotes)[:MaxAdditionalNotesLength])
	}
	if d.Info.Title == "" {
		if d.Template == TemplatePayroll {
			d.Info.Title = "Payroll Support Document"
		} else {
			d.Info.Title = "Electronic Invoice"
		}
	}
	if d.Template == TemplatePayroll && d.Info.TransactionID == "" {
		d.Info.TransactionID = d.Info.Number
	}
	for i := range d.Items {
		if d.Items[i].LineNumber == 0 {
			d.Items[i].LineNumber = i + 1
		}
	}
}

// FileID returns the identifier embedded in generated file names
func (d *Document) FileID() string {
	if d.Template == TemplatePayroll {
		return d.Info.Number
	}
	return d.Info.TransactionID
}

// LineItems returns the rows of the document's table. Payroll sections are
// flattened into a heading row, one row per concept and a subtotal row.
// Empty sections are skipped.
func (d *Document) LineItems() []LineItem {
	if d.Template != TemplatePayroll {
		out := make([]LineItem, len(d.Items))
		copy(out, d.Items)
		return out
	}

	sections := []struct {
		section PayrollSection
		entries []PayrollEntry
		total   decimal.Decimal
	}{
		{SectionEarnings, d.Payroll.Earnings, d.Payroll.Totals.Earnings},
		{SectionDeductions, d.Payroll.Deductions, d.Payroll.Totals.Deductions},
		{SectionContributions, d.Payroll.Contributions, d.Payroll.Totals.Contributions},
		{SectionProvisions, d.Payroll.Provisions, d.Payroll.Totals.Provisions},
	}

	var out []LineItem
	line := 0
	for _, s := range sections {
		if len(s.entries) == 0 {
			continue
		}
		out = append(out, LineItem{Kind: RowKindHeading, Group: s.section, Description: s.section.Title()})
		for _, e := range s.entries {
			line++
			out = append(out, LineItem{
				LineNumber:  line,
				Kind:        RowKindItem,
				Group:       s.section,
				Description: e.Type,
				LineTotal:   e.Value,
				Observation: e.Description,
			})
		}
		out = append(out, LineItem{
			Kind:        RowKindSubtotal,
			Group:       s.section,
			Description: "Total " + s.section.Title(),
			LineTotal:   s.total,
		})
	}
	return out
}

// BaseSalary returns the payroll base salary, falling back to the earnings
// concept named "salary"
func (d *Document) BaseSalary() decimal.Decimal {
	if !d.Payroll.Totals.BaseSalary.IsZero() {
		return d.Payroll.Totals.BaseSalary
	}
	for _, e := range d.Payroll.Earnings {
		t := strings.ToLower(strings.TrimSpace(e.Type))
		if t == "salary" || t == "salario" {
			return e.Value
		}
	}
	return decimal.Zero
}
