package printing

import (
	"time"

	"github.com/erp/docgen/internal/domain/shared"
)

// UploadStatus is the state of a document upload
type UploadStatus string

const (
	UploadStatusPending   UploadStatus = "pending"
	UploadStatusUploading UploadStatus = "uploading"
	UploadStatusUploaded  UploadStatus = "uploaded"
	UploadStatusFailed    UploadStatus = "failed"
)

// String returns the string representation of UploadStatus
func (s UploadStatus) String() string {
	return string(s)
}

// IsValid checks if the UploadStatus is a valid value
func (s UploadStatus) IsValid() bool {
	switch s {
	case UploadStatusPending, UploadStatusUploading, UploadStatusUploaded, UploadStatusFailed:
		return true
	}
	return false
}

// IsTerminal returns true for uploaded and failed
func (s UploadStatus) IsTerminal() bool {
	return s == UploadStatusUploaded || s == UploadStatusFailed
}

// CanTransitionTo reports whether the status may move to next.
// Uploading may return to pending between retry attempts.
func (s UploadStatus) CanTransitionTo(next UploadStatus) bool {
	switch s {
	case UploadStatusPending:
		return next == UploadStatusUploading || next == UploadStatusFailed
	case UploadStatusUploading:
		return next == UploadStatusUploaded || next == UploadStatusFailed || next == UploadStatusPending
	}
	return false
}

// UploadRecord tracks one background upload
type UploadRecord struct {
	Bucket    string       `json:"bucket"`
	Key       string       `json:"key"`
	Status    UploadStatus `json:"status"`
	Attempts  int          `json:"attempts"`
	Size      int          `json:"size"`
	Error     string       `json:"error,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// NewUploadRecord creates a pending upload record
func NewUploadRecord(bucket, key string, size int) (*UploadRecord, error) {
	if bucket == "" {
		return nil, shared.NewDomainError("INVALID_BUCKET", "Bucket cannot be empty")
	}
	if key == "" {
		return nil, shared.NewDomainError("INVALID_KEY", "Key cannot be empty")
	}
	now := time.Now()
	return &UploadRecord{
		Bucket:    bucket,
		Key:       key,
		Status:    UploadStatusPending,
		Size:      size,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// StartAttempt marks the record as uploading and counts the attempt
func (r *UploadRecord) StartAttempt() error {
	if !r.Status.CanTransitionTo(UploadStatusUploading) {
		return shared.NewDomainError("INVALID_STATE",
			"Cannot start upload from status: "+r.Status.String())
	}
	r.Status = UploadStatusUploading
	r.Attempts++
	r.UpdatedAt = time.Now()
	return nil
}

// Retry returns an uploading record to pending after a failed attempt
func (r *UploadRecord) Retry(errorMessage string) error {
	if r.Status != UploadStatusUploading {
		return shared.NewDomainError("INVALID_STATE",
			"Cannot retry upload from status: "+r.Status.String())
	}
	r.Status = UploadStatusPending
	r.Error = errorMessage
	r.UpdatedAt = time.Now()
	return nil
}

// Complete marks the record as uploaded
func (r *UploadRecord) Complete() error {
	if !r.Status.CanTransitionTo(UploadStatusUploaded) {
		return shared.NewDomainError("INVALID_STATE",
			"Cannot complete upload from status: "+r.Status.String())
	}
	r.Status = UploadStatusUploaded
	r.Error = ""
	r.UpdatedAt = time.Now()
	return nil
}

// Fail marks the record as failed
func (r *UploadRecord) Fail(errorMessage string) error {
	if r.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE",
			"Cannot fail an upload that is already in terminal status: "+r.Status.String())
	}
	r.Status = UploadStatusFailed
	r.Error = errorMessage
	r.UpdatedAt = time.Now()
	return nil
}
