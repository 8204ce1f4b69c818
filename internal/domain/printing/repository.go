package printing

import "context"

// UploadStatusRepository persists upload records
type UploadStatusRepository interface {
	// Save stores the record, replacing any record with the same bucket and key
	Save(ctx context.Context, record *UploadRecord) error

	// Find returns the record for bucket and key.
	// Returns shared.ErrNotFound if no record exists.
	Find(ctx context.Context, bucket, key string) (*UploadRecord, error)
}
