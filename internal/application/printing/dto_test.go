package printing_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erp/docgen/internal/application/printing"
	domain "github.com/erp/docgen/internal/domain/printing"
)

func fieldNames(v *domain.ValidationError) []string {
	names := make([]string, 0, len(v.Fields))
	for _, f := range v.Fields {
		names = append(names, f.Field)
	}
	return names
}

func TestGenerateDocumentRequest_ToDocument_MissingAmounts(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		missing []string
	}{
		{
			name: "complete invoice",
			body: `{"features": {"template": "classic"},
				"issuer": {"document_id": "900123456", "name": "Acme Supplies SAS"},
				"recipient": {"id": "800765432", "name": "Globex Ltd"},
				"document": {"number": "FE-1001", "issue_date": "2024-03-09", "transaction_id": "cufe-abc-123"},
				"items": [{"description": "Chair", "quantity": "2", "unit_price": "50", "line_total": "100"}],
				"totals": {"document_total": "119", "amount_due": "0"}}`,
		},
		{
			name: "line amounts left out",
			body: `{"features": {"template": "compact"},
				"issuer": {"document_id": "900123456", "name": "Acme Supplies SAS"},
				"recipient": {"id": "800765432", "name": "Globex Ltd"},
				"document": {"number": "FE-1001", "issue_date": "2024-03-09", "transaction_id": "cufe-abc-123"},
				"items": [
					{"description": "Chair", "quantity": "2", "unit_price": "50", "line_total": "100"},
					{"description": "Desk", "unit_price": null}
				],
				"totals": {"document_total": "119", "amount_due": "119"}}`,
			missing: []string{"items[1].quantity", "items[1].unit_price", "items[1].line_total"},
		},
		{
			name: "totals left out",
			body: `{"features": {"template": "classic"},
				"issuer": {"document_id": "900123456", "name": "Acme Supplies SAS"},
				"recipient": {"id": "800765432", "name": "Globex Ltd"},
				"document": {"number": "FE-1001", "issue_date": "2024-03-09", "transaction_id": "cufe-abc-123"},
				"totals": {"subtotal": "100"}}`,
			missing: []string{"totals.document_total", "totals.amount_due"},
		},
		{
			name: "reported with other missing fields",
			body: `{"features": {"template": "classic"},
				"issuer": {"document_id": "900123456"},
				"recipient": {"id": "800765432", "name": "Globex Ltd"},
				"document": {"number": "FE-1001", "issue_date": "2024-03-09", "transaction_id": "cufe-abc-123"},
				"totals": {"amount_due": "119"}}`,
			missing: []string{"issuer.name", "totals.document_total"},
		},
		{
			name: "payslips carry no invoice amounts",
			body: `{"features": {"template": "payroll"},
				"issuer": {"document_id": "900123456", "name": "Acme Supplies SAS"},
				"recipient": {"id": "1020304050", "name": "Jane Doe"},
				"document": {"number": "NE-77", "issue_date": "2024-03-31"},
				"payroll": {"earnings": [{"type": "Salary", "value": "100000"}]}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req printing.GenerateDocumentRequest
			require.NoError(t, json.Unmarshal([]byte(tt.body), &req))

			doc, err := req.ToDocument()
			if len(tt.missing) == 0 {
				require.NoError(t, err)
				require.NotNil(t, doc)
				return
			}

			var validation *domain.ValidationError
			require.ErrorAs(t, err, &validation)
			assert.Nil(t, doc)
			assert.Equal(t, tt.missing, fieldNames(validation))
		})
	}
}

func TestGenerateDocumentRequest_ToDocument_ZeroAmountDueIsKept(t *testing.T) {
	var req printing.GenerateDocumentRequest
	require.NoError(t, json.Unmarshal([]byte(`{"features": {"template": "classic"},
		"issuer": {"document_id": "900123456", "name": "Acme Supplies SAS"},
		"recipient": {"id": "800765432", "name": "Globex Ltd"},
		"document": {"number": "FE-1001", "issue_date": "2024-03-09", "transaction_id": "cufe-abc-123"},
		"totals": {"document_total": "119", "advance": "119", "amount_due": "0"}}`), &req))

	doc, err := req.ToDocument()
	require.NoError(t, err)
	assert.True(t, doc.Totals.AmountDue.IsZero())
	assert.Equal(t, "119", doc.Totals.DocumentTotal.String())
}
