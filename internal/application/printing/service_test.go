package printing_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/erp/docgen/internal/application/printing"
	domain "github.com/erp/docgen/internal/domain/printing"
	"github.com/erp/docgen/internal/domain/shared"
)

// =============================================================================
// Mock Implementations
// =============================================================================

type MockUploader struct {
	mock.Mock
}

func (m *MockUploader) Dispatch(ctx context.Context, obj *printing.UploadObject) (*domain.UploadRecord, error) {
	args := m.Called(ctx, obj)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.UploadRecord), args.Error(1)
}

type MockObjectStorage struct {
	mock.Mock
}

func (m *MockObjectStorage) Put(ctx context.Context, obj *printing.UploadObject) error {
	args := m.Called(ctx, obj)
	return args.Error(0)
}

func (m *MockObjectStorage) BucketExists(ctx context.Context, bucket string) (bool, error) {
	args := m.Called(ctx, bucket)
	return args.Bool(0), args.Error(1)
}

type MockStatusRepository struct {
	mock.Mock
}

func (m *MockStatusRepository) Save(ctx context.Context, record *domain.UploadRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockStatusRepository) Find(ctx context.Context, bucket, key string) (*domain.UploadRecord, error) {
	args := m.Called(ctx, bucket, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.UploadRecord), args.Error(1)
}

type MockRegistrationParser struct {
	mock.Mock
}

func (m *MockRegistrationParser) Parse(ctx context.Context, pdfURL string) (map[string]string, error) {
	args := m.Called(ctx, pdfURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]string), args.Error(1)
}

// =============================================================================
// Test Helpers
// =============================================================================

var fixedNow = time.Date(2024, 3, 9, 14, 5, 7, 123_000_000, time.UTC)

func newTestAssembler() *printing.DocumentAssembler {
	return printing.NewDocumentAssembler(
		domain.NewGeometryCatalog(),
		nil,
		printing.AssemblerConfig{
			DefaultPaper:  "LETTER",
			DefaultBucket: "documents.example.com",
			Creator:       "docgen",
		},
		zap.NewNop(),
		printing.WithClock(func() time.Time { return fixedNow }),
	)
}

func newInvoiceRequest(items int) *printing.GenerateDocumentRequest {
	req := &printing.GenerateDocumentRequest{
		Features: printing.FeaturesDTO{Template: "classic"},
		Issuer: printing.IssuerDTO{
			DocumentID: "900123456",
			Name:       "Acme Supplies SAS",
			Address:    "Calle 1 # 2-3",
			City:       "Bogota",
			Phone:      "6015550000",
			Email:      "billing@acme.example.com",
		},
		Recipient: printing.RecipientDTO{
			ID:   "800765432",
			Name: "Globex Ltd",
		},
		Document: printing.DocumentDTO{
			Number:        "FE-1001",
			IssueDate:     "2024-03-09",
			TransactionID: "cufe-abc-123",
			Currency:      "COP",
		},
		Totals: printing.TotalsDTO{
			Subtotal:      decimal.NewFromInt(1000),
			Tax:           decimal.NewFromInt(190),
			DocumentTotal: decimal.NewNullDecimal(decimal.NewFromInt(1190)),
			AmountDue:     decimal.NewNullDecimal(decimal.NewFromInt(1190)),
		},
	}
	for i := 0; i < items; i++ {
		req.Items = append(req.Items, printing.LineItemDTO{
			Description: "Office chair",
			Unit:        "EA",
			Quantity:    decimal.NewNullDecimal(decimal.NewFromInt(1)),
			UnitPrice:   decimal.NewNullDecimal(decimal.NewFromInt(100)),
			LineTotal:   decimal.NewNullDecimal(decimal.NewFromInt(100)),
		})
	}
	return req
}

func pendingRecord(bucket, key string) *domain.UploadRecord {
	r, _ := domain.NewUploadRecord(bucket, key, 10)
	return r
}

// =============================================================================
// DocumentService Tests
// =============================================================================

func TestDocumentService_Generate(t *testing.T) {
	t.Run("assembles and queues the upload", func(t *testing.T) {
		uploader := new(MockUploader)
		uploader.On("Dispatch", mock.Anything, mock.MatchedBy(func(obj *printing.UploadObject) bool {
			return obj.Bucket == "documents.example.com" &&
				obj.ContentType == "application/pdf" &&
				obj.ContentDisposition == "inline" &&
				len(obj.Data) > 0
		})).Return(pendingRecord("documents.example.com", "k"), nil)

		svc := printing.NewDocumentService(newTestAssembler(), uploader, nil, nil, nil, nil,
			printing.ServiceConfig{}, zap.NewNop())

		resp, err := svc.Generate(context.Background(), newInvoiceRequest(3))
		require.NoError(t, err)
		assert.Equal(t, "documents.example.com", resp.Bucket)
		assert.Equal(t, "800765432/2024/03/09/invoice_cufe-abc-123_20240309_140507_123.pdf", resp.Key)
		assert.Equal(t, "https://documents.example.com/"+resp.Key, resp.URL)
		assert.Equal(t, 1, resp.Pages)
		assert.Equal(t, "cufe-abc-123", resp.TransactionID)
		assert.Equal(t, "pending", resp.UploadStatus)
		uploader.AssertExpectations(t)
	})

	t.Run("uses the public base URL", func(t *testing.T) {
		uploader := new(MockUploader)
		uploader.On("Dispatch", mock.Anything, mock.Anything).Return(pendingRecord("b", "k"), nil)

		svc := printing.NewDocumentService(newTestAssembler(), uploader, nil, nil, nil, nil,
			printing.ServiceConfig{PublicBaseURL: "https://cdn.example.com/"}, zap.NewNop())

		resp, err := svc.Generate(context.Background(), newInvoiceRequest(1))
		require.NoError(t, err)
		assert.Equal(t, "https://cdn.example.com/"+resp.Key, resp.URL)
	})

	t.Run("rejects a missing bucket before uploading", func(t *testing.T) {
		uploader := new(MockUploader)
		storage := new(MockObjectStorage)
		storage.On("BucketExists", mock.Anything, "documents.example.com").Return(false, nil)

		svc := printing.NewDocumentService(newTestAssembler(), uploader, storage, nil, nil, nil,
			printing.ServiceConfig{CheckBucket: true}, zap.NewNop())

		resp, err := svc.Generate(context.Background(), newInvoiceRequest(1))
		assert.Nil(t, resp)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_BUCKET", domainErr.Code)
		uploader.AssertNotCalled(t, "Dispatch", mock.Anything, mock.Anything)
	})

	t.Run("treats a bucket check error as an invalid bucket", func(t *testing.T) {
		storage := new(MockObjectStorage)
		storage.On("BucketExists", mock.Anything, mock.Anything).Return(false, errors.New("forbidden"))

		svc := printing.NewDocumentService(newTestAssembler(), new(MockUploader), storage, nil, nil, nil,
			printing.ServiceConfig{CheckBucket: true}, zap.NewNop())

		_, err := svc.Generate(context.Background(), newInvoiceRequest(1))
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_BUCKET", domainErr.Code)
	})

	t.Run("reports an unknown template", func(t *testing.T) {
		req := newInvoiceRequest(1)
		req.Features.Template = "7"

		svc := printing.NewDocumentService(newTestAssembler(), new(MockUploader), nil, nil, nil, nil,
			printing.ServiceConfig{}, zap.NewNop())

		_, err := svc.Generate(context.Background(), req)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_TEMPLATE", domainErr.Code)
	})

	t.Run("reports missing fields", func(t *testing.T) {
		req := newInvoiceRequest(1)
		req.Document.TransactionID = ""

		svc := printing.NewDocumentService(newTestAssembler(), new(MockUploader), nil, nil, nil, nil,
			printing.ServiceConfig{}, zap.NewNop())

		_, err := svc.Generate(context.Background(), req)
		var validation *domain.ValidationError
		require.ErrorAs(t, err, &validation)
		assert.Equal(t, "document.transaction_id", validation.Fields[0].Field)
	})

	t.Run("wraps dispatch errors", func(t *testing.T) {
		uploader := new(MockUploader)
		uploader.On("Dispatch", mock.Anything, mock.Anything).Return(nil, printing.ErrDispatcherClosed)

		svc := printing.NewDocumentService(newTestAssembler(), uploader, nil, nil, nil, nil,
			printing.ServiceConfig{}, zap.NewNop())

		_, err := svc.Generate(context.Background(), newInvoiceRequest(1))
		assert.ErrorIs(t, err, printing.ErrDispatcherClosed)
	})
}

func TestDocumentService_Render(t *testing.T) {
	svc := printing.NewDocumentService(newTestAssembler(), nil, nil, nil, nil, nil,
		printing.ServiceConfig{}, nil)

	t.Run("nil request", func(t *testing.T) {
		_, err := svc.Render(context.Background(), nil)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_INPUT", domainErr.Code)
	})

	t.Run("renders a pdf", func(t *testing.T) {
		doc, err := svc.Render(context.Background(), newInvoiceRequest(2))
		require.NoError(t, err)
		assert.Equal(t, "%PDF", string(doc.Bytes[:4]))
		assert.Equal(t, 1, doc.PageCount)
	})
}

func TestDocumentService_Status(t *testing.T) {
	t.Run("returns the recorded status", func(t *testing.T) {
		repo := new(MockStatusRepository)
		record := pendingRecord("b", "a/b.pdf")
		require.NoError(t, record.StartAttempt())
		require.NoError(t, record.Complete())
		repo.On("Find", mock.Anything, "b", "a/b.pdf").Return(record, nil)

		svc := printing.NewDocumentService(nil, nil, nil, repo, nil, nil, printing.ServiceConfig{}, nil)
		resp, err := svc.Status(context.Background(), "b", "a/b.pdf")
		require.NoError(t, err)
		assert.Equal(t, "uploaded", resp.Status)
		assert.Equal(t, 1, resp.Attempts)
	})

	t.Run("not found", func(t *testing.T) {
		repo := new(MockStatusRepository)
		repo.On("Find", mock.Anything, "b", "missing").Return(nil, shared.ErrNotFound)

		svc := printing.NewDocumentService(nil, nil, nil, repo, nil, nil, printing.ServiceConfig{}, nil)
		_, err := svc.Status(context.Background(), "b", "missing")
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "NOT_FOUND", domainErr.Code)
	})

	t.Run("repository failure", func(t *testing.T) {
		repo := new(MockStatusRepository)
		repo.On("Find", mock.Anything, "b", "k").Return(nil, errors.New("connection refused"))

		svc := printing.NewDocumentService(nil, nil, nil, repo, nil, nil, printing.ServiceConfig{}, nil)
		_, err := svc.Status(context.Background(), "b", "k")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "connection refused")
	})
}

func TestDocumentService_ParseRegistration(t *testing.T) {
	const url = "https://files.example.com/rut.pdf"

	t.Run("returns extracted fields", func(t *testing.T) {
		parser := new(MockRegistrationParser)
		parser.On("Parse", mock.Anything, url).Return(map[string]string{"nit": "900123456"}, nil)

		svc := printing.NewDocumentService(nil, nil, nil, nil, parser, nil, printing.ServiceConfig{}, nil)
		fields, err := svc.ParseRegistration(context.Background(), printing.ParseRegistrationRequest{PDFURL: url})
		require.NoError(t, err)
		assert.Equal(t, "900123456", fields["nit"])
	})

	t.Run("empty extraction", func(t *testing.T) {
		parser := new(MockRegistrationParser)
		parser.On("Parse", mock.Anything, url).Return(map[string]string{}, nil)

		svc := printing.NewDocumentService(nil, nil, nil, nil, parser, nil, printing.ServiceConfig{}, nil)
		_, err := svc.ParseRegistration(context.Background(), printing.ParseRegistrationRequest{PDFURL: url})
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "NO_FIELDS_EXTRACTED", domainErr.Code)
	})

	t.Run("blank url", func(t *testing.T) {
		parser := new(MockRegistrationParser)
		svc := printing.NewDocumentService(nil, nil, nil, nil, parser, nil, printing.ServiceConfig{}, nil)
		_, err := svc.ParseRegistration(context.Background(), printing.ParseRegistrationRequest{PDFURL: "  "})
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_INPUT", domainErr.Code)
		parser.AssertNotCalled(t, "Parse", mock.Anything, mock.Anything)
	})

	t.Run("parser not configured", func(t *testing.T) {
		svc := printing.NewDocumentService(nil, nil, nil, nil, nil, nil, printing.ServiceConfig{}, nil)
		_, err := svc.ParseRegistration(context.Background(), printing.ParseRegistrationRequest{PDFURL: url})
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "NOT_SUPPORTED", domainErr.Code)
	})
}

func TestDocumentService_Catalogs(t *testing.T) {
	svc := printing.NewDocumentService(nil, nil, nil, nil, nil, nil, printing.ServiceConfig{}, nil)

	papers := svc.GetPaperSizes()
	require.NotEmpty(t, papers)
	ids := make([]string, len(papers))
	for i, p := range papers {
		ids[i] = p.ID
		assert.Greater(t, p.Width, 0.0)
		assert.Greater(t, p.Height, 0.0)
	}
	assert.Contains(t, ids, "LETTER")

	byID := make(map[string]printing.PaperSizeResponse, len(papers))
	for _, p := range papers {
		byID[p.ID] = p
	}
	letter := byID["LETTER"]
	assert.Equal(t, printing.PaperSizeResponse{
		ID:            "LETTER",
		Width:         612,
		Height:        792,
		ContentWidth:  556,
		ContentHeight: 736,
		HeaderFirst:   180,
		HeaderLater:   90,
		Footer:        80,
	}, letter)

	half, ok := byID["HALFLETTER"]
	require.True(t, ok)
	assert.Equal(t, 340.0, half.ContentWidth)
	assert.Equal(t, 556.0, half.ContentHeight)
	// reserved space scales with the page height, 612/792
	assert.Equal(t, 139.0, half.HeaderFirst)
	assert.Equal(t, 70.0, half.HeaderLater)
	assert.Equal(t, 62.0, half.Footer)

	templates := svc.GetTemplates()
	require.Len(t, templates, 3)
	assert.Equal(t, "classic", templates[0].Kind)
	assert.True(t, templates[0].Invoice)
	assert.False(t, templates[2].Invoice)
}
