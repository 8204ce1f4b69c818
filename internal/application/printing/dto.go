package printing

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/erp/docgen/internal/domain/printing"
	"github.com/erp/docgen/internal/domain/shared"
)

// =============================================================================
// Document request DTOs
// =============================================================================

// GenerateDocumentRequest is the payload of a document generation request
type GenerateDocumentRequest struct {
	Features  FeaturesDTO   `json:"features"`
	Issuer    IssuerDTO     `json:"issuer"`
	Recipient RecipientDTO  `json:"recipient"`
	Document  DocumentDTO   `json:"document"`
	Items     []LineItemDTO `json:"items" binding:"omitempty,dive"`
	Totals    TotalsDTO     `json:"totals"`
	Payroll   *PayrollDTO   `json:"payroll"`
	Extras    ExtrasDTO     `json:"extras"`
	Provider  ProviderDTO   `json:"provider"`
}

// FeaturesDTO selects the template, paper and layout flags
type FeaturesDTO struct {
	// Template accepts 1, 2, 3, classic, compact or payroll
	Template              string          `json:"template"`
	Paper                 string          `json:"paper" binding:"max=20"`
	RepeatHeaderEveryPage *bool           `json:"repeat_header_every_page"`
	TotalsOnlyOnLastPage  *bool           `json:"totals_only_on_last_page"`
	Colors                ColorOptionsDTO `json:"colors"`
}

// ColorOptionsDTO carries hex colour overrides
type ColorOptionsDTO struct {
	Background string `json:"background"`
	HeaderText string `json:"header_text"`
	FooterText string `json:"footer_text"`
	Info       string `json:"info"`
	Negative   string `json:"negative"`
	Positive   string `json:"positive"`
}

// IssuerDTO describes the issuing company
type IssuerDTO struct {
	DocumentID       string `json:"document_id" binding:"required,max=50"`
	Name             string `json:"name" binding:"required,max=200"`
	Address          string `json:"address"`
	Country          string `json:"country"`
	State            string `json:"state"`
	City             string `json:"city"`
	Phone            string `json:"phone"`
	Mobile           string `json:"mobile"`
	Email            string `json:"email" binding:"omitempty,email"`
	Website          string `json:"website"`
	TaxRegime        string `json:"tax_regime"`
	VATResponsible   string `json:"vat_responsible"`
	EconomicActivity string `json:"economic_activity"`
	ICARate          string `json:"ica_rate"`
	Logo             string `json:"logo"`
}

// RecipientDTO describes the customer or the employee
type RecipientDTO struct {
	ID           string `json:"id" binding:"required,max=50"`
	Name         string `json:"name" binding:"required,max=200"`
	Address      string `json:"address"`
	City         string `json:"city"`
	State        string `json:"state"`
	Country      string `json:"country"`
	Phone        string `json:"phone"`
	Email        string `json:"email" binding:"omitempty,email"`
	Position     string `json:"position"`
	ContractType string `json:"contract_type"`
}

// DocumentDTO holds the document header fields
type DocumentDTO struct {
	Number          string `json:"number" binding:"required,max=50"`
	IssueDate       string `json:"issue_date" binding:"required"`
	IssueTime       string `json:"issue_time"`
	Currency        string `json:"currency"`
	PaymentMethod   string `json:"payment_method"`
	PaymentTerms    string `json:"payment_terms"`
	PaymentType     string `json:"payment_type"`
	Bank            string `json:"bank"`
	BankAccount     string `json:"bank_account"`
	OrderNumber     string `json:"order_number"`
	DueDate         string `json:"due_date"`
	Watermark       string `json:"watermark" binding:"max=40"`
	TransactionID   string `json:"transaction_id"`
	ValidationDate  string `json:"validation_date"`
	QRData          string `json:"qr_data"`
	Title           string `json:"title"`
	AmountInWords   string `json:"amount_in_words"`
	FooterNotes     string `json:"footer_notes"`
	AdditionalNotes string `json:"additional_notes"`
	Liquidator      string `json:"liquidator"`
	TargetURL       string `json:"target_url"`
}

// LineItemDTO is one invoice line. Quantity, unit price and line total are
// required; a missing value is reported instead of printed as zero.
type LineItemDTO struct {
	LineNumber  int                 `json:"line_number" binding:"gte=0"`
	Code        string              `json:"code"`
	Description string              `json:"description" binding:"required"`
	Unit        string              `json:"unit"`
	Quantity    decimal.NullDecimal `json:"quantity"`
	UnitPrice   decimal.NullDecimal `json:"unit_price"`
	TaxPercent  decimal.Decimal     `json:"tax_percent"`
	Discount    decimal.Decimal     `json:"discount"`
	LineTotal   decimal.NullDecimal `json:"line_total"`
}

// TotalsDTO holds the invoice totals. The optional amounts default to zero;
// the document total and the amount due are required on invoices.
type TotalsDTO struct {
	Subtotal       decimal.Decimal     `json:"subtotal"`
	TaxBase        decimal.Decimal     `json:"tax_base"`
	Discount       decimal.Decimal     `json:"discount"`
	Charges        decimal.Decimal     `json:"charges"`
	Tax            decimal.Decimal     `json:"tax"`
	WithheldVAT    decimal.Decimal     `json:"withheld_vat"`
	WithheldIncome decimal.Decimal     `json:"withheld_income"`
	WithheldICA    decimal.Decimal     `json:"withheld_ica"`
	Advance        decimal.Decimal     `json:"advance"`
	DocumentTotal  decimal.NullDecimal `json:"document_total"`
	AmountDue      decimal.NullDecimal `json:"amount_due"`
}

// PayrollEntryDTO is one payroll concept
type PayrollEntryDTO struct {
	Type        string          `json:"type" binding:"required"`
	Value       decimal.Decimal `json:"value"`
	Description string          `json:"description"`
}

// PayrollDTO holds the payslip sections
type PayrollDTO struct {
	Earnings      []PayrollEntryDTO `json:"earnings" binding:"omitempty,dive"`
	Deductions    []PayrollEntryDTO `json:"deductions" binding:"omitempty,dive"`
	Contributions []PayrollEntryDTO `json:"employer_contributions" binding:"omitempty,dive"`
	Provisions    []PayrollEntryDTO `json:"provisions" binding:"omitempty,dive"`
	Totals        PayrollTotalsDTO  `json:"totals"`
	WorkedDays    string            `json:"worked_days"`
	Period        string            `json:"period"`
	Summary       string            `json:"summary"`
}

// PayrollTotalsDTO holds the payslip totals
type PayrollTotalsDTO struct {
	BaseSalary    decimal.Decimal `json:"base_salary"`
	Earnings      decimal.Decimal `json:"earnings"`
	Deductions    decimal.Decimal `json:"deductions"`
	Contributions decimal.Decimal `json:"employer_contributions"`
	Provisions    decimal.Decimal `json:"provisions"`
	NetPay        decimal.Decimal `json:"net_pay"`
}

// ExtrasDTO holds the auxiliary block contents
type ExtrasDTO struct {
	Resolution        string   `json:"resolution"`
	HealthFields      []string `json:"health_fields" binding:"max=10"`
	ReferenceDocument string   `json:"reference_document"`
	Observations      string   `json:"observations"`
}

// ProviderDTO holds the technology provider's footer content
type ProviderDTO struct {
	Title string `json:"title"`
	Text  string `json:"text"`
	Logo  string `json:"logo"`
}

// ToDocument converts the request into a domain document. An unknown
// template tag is reported as an INVALID_TEMPLATE domain error. Missing
// fields, including absent invoice amounts, are reported together as a
// *printing.ValidationError.
func (r *GenerateDocumentRequest) ToDocument() (*printing.Document, error) {
	kind, err := printing.ParseTemplateKind(r.Features.Template)
	if err != nil {
		return nil, shared.NewDomainError("INVALID_TEMPLATE", err.Error())
	}

	policy := printing.DefaultPolicy()
	if r.Features.RepeatHeaderEveryPage != nil {
		policy.RepeatHeaderEveryPage = *r.Features.RepeatHeaderEveryPage
	}
	if r.Features.TotalsOnlyOnLastPage != nil {
		policy.TotalsOnlyOnLastPage = *r.Features.TotalsOnlyOnLastPage
	}

	doc := &printing.Document{
		Template:  kind,
		Paper:     r.Features.Paper,
		Policy:    policy,
		Colors:    printing.ColorOptions(r.Features.Colors),
		Issuer:    printing.Issuer(r.Issuer),
		Recipient: printing.Recipient(r.Recipient),
		Info:      printing.DocumentInfo(r.Document),
		Totals:    r.Totals.toDomain(),
		Extras:    printing.Extras(r.Extras),
		Provider:  printing.Provider(r.Provider),
	}

	doc.Items = make([]printing.LineItem, len(r.Items))
	for i, it := range r.Items {
		doc.Items[i] = printing.LineItem{
			LineNumber:  it.LineNumber,
			Code:        it.Code,
			Description: it.Description,
			Unit:        it.Unit,
			Quantity:    it.Quantity.Decimal,
			UnitPrice:   it.UnitPrice.Decimal,
			TaxPercent:  it.TaxPercent,
			Discount:    it.Discount,
			LineTotal:   it.LineTotal.Decimal,
		}
	}

	if p := r.Payroll; p != nil {
		doc.Payroll = printing.Payroll{
			Earnings:      toEntries(p.Earnings),
			Deductions:    toEntries(p.Deductions),
			Contributions: toEntries(p.Contributions),
			Provisions:    toEntries(p.Provisions),
			Totals:        printing.PayrollTotals(p.Totals),
			WorkedDays:    p.WorkedDays,
			Period:        p.Period,
			Summary:       p.Summary,
		}
	}

	v := &printing.ValidationError{}
	var domainErrs *printing.ValidationError
	if err := doc.Validate(); errors.As(err, &domainErrs) {
		v.Fields = append(v.Fields, domainErrs.Fields...)
	}
	if kind.IsInvoice() {
		r.requireAmounts(v)
	}
	if v.HasErrors() {
		return nil, v
	}
	return doc, nil
}

// requireAmounts records every invoice amount the request left out
func (r *GenerateDocumentRequest) requireAmounts(v *printing.ValidationError) {
	present := func(field string, n decimal.NullDecimal) {
		if !n.Valid {
			v.Add(field, "is required")
		}
	}
	for i, it := range r.Items {
		present(fmt.Sprintf("items[%d].quantity", i), it.Quantity)
		present(fmt.Sprintf("items[%d].unit_price", i), it.UnitPrice)
		present(fmt.Sprintf("items[%d].line_total", i), it.LineTotal)
	}
	present("totals.document_total", r.Totals.DocumentTotal)
	present("totals.amount_due", r.Totals.AmountDue)
}

func (t TotalsDTO) toDomain() printing.InvoiceTotals {
	return printing.InvoiceTotals{
		Subtotal:       t.Subtotal,
		TaxBase:        t.TaxBase,
		Discount:       t.Discount,
		Charges:        t.Charges,
		Tax:            t.Tax,
		WithheldVAT:    t.WithheldVAT,
		WithheldIncome: t.WithheldIncome,
		WithheldICA:    t.WithheldICA,
		Advance:        t.Advance,
		DocumentTotal:  t.DocumentTotal.Decimal,
		AmountDue:      t.AmountDue.Decimal,
	}
}

func toEntries(in []PayrollEntryDTO) []printing.PayrollEntry {
	out := make([]printing.PayrollEntry, len(in))
	for i, e := range in {
		out[i] = printing.PayrollEntry(e)
	}
	return out
}

// ParseRegistrationRequest asks for the fields of a tax registration PDF
type ParseRegistrationRequest struct {
	PDFURL string `json:"pdf_url" binding:"required,url"`
}

// =============================================================================
// Response DTOs
// =============================================================================

// GenerateDocumentResponse describes an assembled document and its upload
type GenerateDocumentResponse struct {
	URL           string `json:"url"`
	Bucket        string `json:"bucket"`
	Key           string `json:"key"`
	Filename      string `json:"filename"`
	Pages         int    `json:"pages"`
	TransactionID string `json:"transaction_id"`
	UploadStatus  string `json:"upload_status"`
	// DownloadURL is a temporary link, set when the store can sign one
	DownloadURL       string     `json:"download_url,omitempty"`
	DownloadExpiresAt *time.Time `json:"download_expires_at,omitempty"`
}

// UploadStatusResponse is the state of a background upload
type UploadStatusResponse struct {
	Bucket    string    `json:"bucket"`
	Key       string    `json:"key"`
	Status    string    `json:"status"`
	Attempts  int       `json:"attempts"`
	Size      int       `json:"size"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PaperSizeResponse describes an available paper preset and the layout
// geometry derived for it. Lengths are in points.
type PaperSizeResponse struct {
	ID            string  `json:"id"`
	Width         float64 `json:"width"`
	Height        float64 `json:"height"`
	ContentWidth  float64 `json:"content_width"`
	ContentHeight float64 `json:"content_height"`
	HeaderFirst   float64 `json:"header_first"`
	HeaderLater   float64 `json:"header_later"`
	Footer        float64 `json:"footer"`
}

// TemplateResponse describes an available template
type TemplateResponse struct {
	Kind    string `json:"kind"`
	Invoice bool   `json:"invoice"`
}

func toUploadStatusResponse(r *printing.UploadRecord) *UploadStatusResponse {
	return &UploadStatusResponse{
		Bucket:    r.Bucket,
		Key:       r.Key,
		Status:    r.Status.String(),
		Attempts:  r.Attempts,
		Size:      r.Size,
		Error:     r.Error,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}
