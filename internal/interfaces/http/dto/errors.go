package dto

import "net/http"

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	ErrCodeUnknown         = "ERR_UNKNOWN"
	ErrCodeInternal        = "ERR_INTERNAL"
	ErrCodeNotSupported    = "ERR_NOT_SUPPORTED"
	ErrCodeUnavailable     = "ERR_SERVICE_UNAVAILABLE"
	ErrCodeRequestTooLarge = "ERR_REQUEST_TOO_LARGE"
	ErrCodeTimeout         = "ERR_TIMEOUT"
)

// Validation and input error codes
const (
	ErrCodeValidation   = "ERR_VALIDATION"
	ErrCodeBadRequest   = "ERR_BAD_REQUEST"
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
	ErrCodeInvalidJSON  = "ERR_INVALID_JSON"
)

// Authentication error codes
const (
	ErrCodeUnauthorized       = "ERR_UNAUTHORIZED"
	ErrCodeInvalidCredentials = "ERR_INVALID_CREDENTIALS"
	ErrCodeTokenExpired       = "ERR_TOKEN_EXPIRED"
	ErrCodeTokenInvalid       = "ERR_TOKEN_INVALID"
	ErrCodeTokenRevoked       = "ERR_TOKEN_REVOKED"
)

// Resource error codes
const (
	ErrCodeNotFound     = "ERR_NOT_FOUND"
	ErrCodeInvalidState = "ERR_INVALID_STATE"
)

// Document error codes
const (
	ErrCodeInvalidTemplate   = "ERR_INVALID_TEMPLATE"
	ErrCodeInvalidTargetURL  = "ERR_INVALID_TARGET_URL"
	ErrCodeInvalidKey        = "ERR_INVALID_KEY"
	ErrCodeInvalidBucket     = "ERR_INVALID_BUCKET"
	ErrCodeInvalidPDFURL     = "ERR_INVALID_PDF_URL"
	ErrCodeFetchFailed       = "ERR_FETCH_FAILED"
	ErrCodeDocumentTooLarge  = "ERR_DOCUMENT_TOO_LARGE"
	ErrCodeExtractionFailed  = "ERR_EXTRACTION_FAILED"
	ErrCodeNoFieldsExtracted = "ERR_NO_FIELDS_EXTRACTED"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeUnknown:         http.StatusInternalServerError,
	ErrCodeInternal:        http.StatusInternalServerError,
	ErrCodeNotSupported:    http.StatusNotImplemented,
	ErrCodeUnavailable:     http.StatusServiceUnavailable,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,
	ErrCodeTimeout:         http.StatusGatewayTimeout,

	ErrCodeValidation:   http.StatusBadRequest,
	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeInvalidInput: http.StatusBadRequest,
	ErrCodeInvalidJSON:  http.StatusBadRequest,

	ErrCodeUnauthorized:       http.StatusUnauthorized,
	ErrCodeInvalidCredentials: http.StatusUnauthorized,
	ErrCodeTokenExpired:       http.StatusUnauthorized,
	ErrCodeTokenInvalid:       http.StatusUnauthorized,
	ErrCodeTokenRevoked:       http.StatusUnauthorized,

	ErrCodeNotFound:     http.StatusNotFound,
	ErrCodeInvalidState: http.StatusInternalServerError,

	ErrCodeInvalidTemplate:   http.StatusBadRequest,
	ErrCodeInvalidTargetURL:  http.StatusBadRequest,
	ErrCodeInvalidKey:        http.StatusBadRequest,
	ErrCodeInvalidBucket:     http.StatusBadRequest,
	ErrCodeInvalidPDFURL:     http.StatusBadRequest,
	ErrCodeFetchFailed:       http.StatusBadGateway,
	ErrCodeDocumentTooLarge:  http.StatusRequestEntityTooLarge,
	ErrCodeExtractionFailed:  http.StatusUnprocessableEntity,
	ErrCodeNoFieldsExtracted: http.StatusUnprocessableEntity,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DomainErrorCodeMapping maps domain error codes to API error codes
var DomainErrorCodeMapping = map[string]string{
	"NOT_FOUND":           ErrCodeNotFound,
	"INVALID_INPUT":       ErrCodeInvalidInput,
	"INVALID_STATE":       ErrCodeInvalidState,
	"UNAUTHORIZED":        ErrCodeUnauthorized,
	"NOT_SUPPORTED":       ErrCodeNotSupported,
	"INVALID_TEMPLATE":    ErrCodeInvalidTemplate,
	"INVALID_TARGET_URL":  ErrCodeInvalidTargetURL,
	"INVALID_KEY":         ErrCodeInvalidKey,
	"INVALID_BUCKET":      ErrCodeInvalidBucket,
	"INVALID_PDF_URL":     ErrCodeInvalidPDFURL,
	"FETCH_FAILED":        ErrCodeFetchFailed,
	"DOCUMENT_TOO_LARGE":  ErrCodeDocumentTooLarge,
	"EXTRACTION_FAILED":   ErrCodeExtractionFailed,
	"NO_FIELDS_EXTRACTED": ErrCodeNoFieldsExtracted,
}

// NormalizeErrorCode converts a domain error code to the API format
// If the code is already in the API format or unknown, returns it as-is
func NormalizeErrorCode(code string) string {
	if newCode, ok := DomainErrorCodeMapping[code]; ok {
		return newCode
	}
	return code
}
