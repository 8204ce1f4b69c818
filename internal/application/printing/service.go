package printing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/erp/docgen/internal/domain/printing"
	"github.com/erp/docgen/internal/domain/shared"
)

// Uploader queues assembled documents for background upload
type Uploader interface {
	Dispatch(ctx context.Context, obj *UploadObject) (*printing.UploadRecord, error)
}

// ServiceConfig controls the document service
type ServiceConfig struct {
	// CheckBucket verifies the bucket before an upload is dispatched
	CheckBucket bool
	// PublicBaseURL prefixes the keys of returned URLs
	PublicBaseURL string
}

// DocumentService handles document generation operations
type DocumentService struct {
	assembler *DocumentAssembler
	uploader  Uploader
	storage   ObjectStorage
	statuses  printing.UploadStatusRepository
	parser    RegistrationParser
	catalog   *printing.GeometryCatalog
	config    ServiceConfig
	logger    *zap.Logger
}

// NewDocumentService creates a new DocumentService
func NewDocumentService(
	assembler *DocumentAssembler,
	uploader Uploader,
	storage ObjectStorage,
	statuses printing.UploadStatusRepository,
	parser RegistrationParser,
	catalog *printing.GeometryCatalog,
	config ServiceConfig,
	logger *zap.Logger,
) *DocumentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if catalog == nil {
		catalog = printing.NewGeometryCatalog()
	}
	return &DocumentService{
		assembler: assembler,
		uploader:  uploader,
		storage:   storage,
		statuses:  statuses,
		parser:    parser,
		catalog:   catalog,
		config:    config,
		logger:    logger,
	}
}

// Generate assembles a document, queues its upload and returns where it
// will be available. The upload itself happens in the background.
func (s *DocumentService) Generate(ctx context.Context, req *GenerateDocumentRequest) (*GenerateDocumentResponse, error) {
	assembled, err := s.Render(ctx, req)
	if err != nil {
		return nil, err
	}

	if s.config.CheckBucket && s.storage != nil {
		ok, err := s.storage.BucketExists(ctx, assembled.Bucket)
		if err != nil || !ok {
			s.logger.Warn("bucket check failed",
				zap.String("bucket", assembled.Bucket),
				zap.Error(err))
			return nil, shared.NewDomainError("INVALID_BUCKET",
				fmt.Sprintf("bucket %s is invalid or unreachable", assembled.Bucket))
		}
	}

	record, err := s.uploader.Dispatch(ctx, &UploadObject{
		Bucket:             assembled.Bucket,
		Key:                assembled.Key,
		ContentType:        "application/pdf",
		ContentDisposition: "inline",
		Data:               assembled.Bytes,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to dispatch upload: %w", err)
	}

	loc := Location{Bucket: assembled.Bucket, Key: assembled.Key, Filename: assembled.Filename}
	resp := &GenerateDocumentResponse{
		URL:           PublicURL(s.config.PublicBaseURL, loc),
		Bucket:        assembled.Bucket,
		Key:           assembled.Key,
		Filename:      assembled.Filename,
		Pages:         assembled.PageCount,
		TransactionID: assembled.TransactionID,
		UploadStatus:  record.Status.String(),
	}
	if signer, ok := s.storage.(URLSigner); ok {
		link, expires, err := signer.PresignGet(ctx, loc.Bucket, loc.Key, 0)
		if err != nil {
			s.logger.Warn("failed to presign download URL", zap.String("key", loc.Key), zap.Error(err))
		} else {
			resp.DownloadURL = link
			resp.DownloadExpiresAt = &expires
		}
	}
	return resp, nil
}

// Render assembles a document without uploading it
func (s *DocumentService) Render(ctx context.Context, req *GenerateDocumentRequest) (*AssembledDocument, error) {
	if req == nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "request body is required")
	}
	doc, err := req.ToDocument()
	if err != nil {
		return nil, err
	}
	return s.assembler.Assemble(ctx, doc)
}

// Status returns the upload status of a document
func (s *DocumentService) Status(ctx context.Context, bucket, key string) (*UploadStatusResponse, error) {
	if s.statuses == nil {
		return nil, shared.ErrNotFound
	}
	record, err := s.statuses.Find(ctx, bucket, key)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("NOT_FOUND", "No upload recorded for this document")
		}
		return nil, fmt.Errorf("failed to get upload status: %w", err)
	}
	return toUploadStatusResponse(record), nil
}

// ParseRegistration extracts the fields of a tax registration PDF
func (s *DocumentService) ParseRegistration(ctx context.Context, req ParseRegistrationRequest) (map[string]string, error) {
	if s.parser == nil {
		return nil, shared.NewDomainError("NOT_SUPPORTED", "Registration parsing is not configured")
	}
	url := strings.TrimSpace(req.PDFURL)
	if url == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "pdf_url is required")
	}
	fields, err := s.parser.Parse(ctx, url)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, shared.NewDomainError("NO_FIELDS_EXTRACTED", "No data could be extracted from the document")
	}
	return fields, nil
}

// GetPaperSizes returns the available paper presets
func (s *DocumentService) GetPaperSizes() []PaperSizeResponse {
	presets := s.catalog.Presets()
	out := make([]PaperSizeResponse, len(presets))
	for i, p := range presets {
		g := s.catalog.Resolve(string(p.ID))
		out[i] = PaperSizeResponse{
			ID:            string(p.ID),
			Width:         p.Width,
			Height:        p.Height,
			ContentWidth:  g.ContentWidth(),
			ContentHeight: g.Height() - g.Margins.Vertical(),
			HeaderFirst:   g.Reserved.HeaderFirst,
			HeaderLater:   g.Reserved.HeaderLater,
			Footer:        g.Reserved.Footer,
		}
	}
	return out
}

// GetTemplates returns the available templates
func (s *DocumentService) GetTemplates() []TemplateResponse {
	kinds := printing.AllTemplateKinds()
	out := make([]TemplateResponse, len(kinds))
	for i, k := range kinds {
		out[i] = TemplateResponse{Kind: k.String(), Invoice: k.IsInvoice()}
	}
	return out
}
