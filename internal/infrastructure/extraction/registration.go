// Package extraction reads structured fields out of third-party PDF documents.
package extraction

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tsawler/tabula"
	"go.uber.org/zap"

	printingapp "github.com/erp/docgen/internal/application/printing"
	"github.com/erp/docgen/internal/domain/shared"
)

// Ensure RegistrationExtractor implements RegistrationParser
var _ printingapp.RegistrationParser = (*RegistrationExtractor)(nil)

// Defaults for fetching registration documents
const (
	DefaultFetchTimeout = 15 * time.Second
	DefaultMaxSize      = 10 << 20
)

// ErrTooLarge is returned when a document exceeds the configured size
var ErrTooLarge = errors.New("document exceeds the maximum size")

// TextSource returns the text of the first page of a PDF file
type TextSource interface {
	FirstPageText(path string) (string, error)
}

// TabulaTextSource extracts text with github.com/tsawler/tabula
type TabulaTextSource struct{}

// FirstPageText extracts the text of page 1
func (TabulaTextSource) FirstPageText(path string) (string, error) {
	ext := tabula.Open(path)
	defer ext.Close()

	text, _, err := ext.Pages(1).Text()
	if err != nil {
		return "", fmt.Errorf("failed to extract text: %w", err)
	}
	return text, nil
}

// Config controls how registration documents are fetched
type Config struct {
	FetchTimeout time.Duration
	MaxSize      int64
	TempDir      string
}

// RegistrationExtractor downloads a tax registration (RUT) PDF and parses
// the fields printed on its first page
type RegistrationExtractor struct {
	client *http.Client
	source TextSource
	config Config
	logger *zap.Logger
}

// NewRegistrationExtractor creates an extractor. A nil client uses one with
// the configured fetch timeout; a nil source uses tabula.
func NewRegistrationExtractor(client *http.Client, source TextSource, config Config, logger *zap.Logger) *RegistrationExtractor {
	if config.FetchTimeout <= 0 {
		config.FetchTimeout = DefaultFetchTimeout
	}
	if config.MaxSize <= 0 {
		config.MaxSize = DefaultMaxSize
	}
	if client == nil {
		client = &http.Client{Timeout: config.FetchTimeout}
	}
	if source == nil {
		source = TabulaTextSource{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RegistrationExtractor{client: client, source: source, config: config, logger: logger}
}

// Parse fetches pdfURL and returns the registration fields found on it
func (e *RegistrationExtractor) Parse(ctx context.Context, pdfURL string) (map[string]string, error) {
	if err := checkPDFURL(pdfURL); err != nil {
		return nil, err
	}

	path, err := e.fetch(ctx, pdfURL)
	if err != nil {
		return nil, err
	}
	defer os.Remove(path)

	text, err := e.source.FirstPageText(path)
	if err != nil {
		e.logger.Warn("registration text extraction failed", zap.String("url", pdfURL), zap.Error(err))
		return nil, shared.NewDomainError("EXTRACTION_FAILED", "The document could not be read as a PDF")
	}

	fields := ParseRegistrationText(text)
	e.logger.Info("registration parsed",
		zap.String("url", pdfURL),
		zap.Int("fields", len(fields)))
	return fields, nil
}

// fetch downloads pdfURL into a temporary file and returns its path
func (e *RegistrationExtractor) fetch(ctx context.Context, pdfURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pdfURL, nil)
	if err != nil {
		return "", shared.NewDomainError("INVALID_PDF_URL", err.Error())
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", shared.NewDomainError("FETCH_FAILED",
			fmt.Sprintf("fetching the document returned HTTP %d", resp.StatusCode))
	}

	f, err := os.CreateTemp(e.config.TempDir, "registration-"+uuid.NewString()+"-*.pdf")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	path := f.Name()

	n, err := io.Copy(f, io.LimitReader(resp.Body, e.config.MaxSize+1))
	closeErr := f.Close()
	if err == nil {
		err = closeErr
	}
	if err == nil && n > e.config.MaxSize {
		err = ErrTooLarge
	}
	if err != nil {
		_ = os.Remove(path)
		if errors.Is(err, ErrTooLarge) {
			return "", shared.NewDomainError("DOCUMENT_TOO_LARGE",
				fmt.Sprintf("the document is larger than %d bytes", e.config.MaxSize))
		}
		return "", fmt.Errorf("failed to download document: %w", err)
	}
	return path, nil
}

// checkPDFURL accepts absolute http(s) URLs whose path ends in .pdf
func checkPDFURL(raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return shared.NewDomainError("INVALID_PDF_URL", "pdf_url must be an absolute http(s) URL")
	}
	if !strings.HasSuffix(strings.ToLower(u.Path), ".pdf") {
		return shared.NewDomainError("INVALID_PDF_URL", "The URL does not point to a PDF document")
	}
	return nil
}
