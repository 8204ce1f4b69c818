package printing

import (
	"context"
	"time"
)

// UploadObject is a document ready to be written to object storage
type UploadObject struct {
	Bucket             string
	Key                string
	ContentType        string
	ContentDisposition string
	Data               []byte
}

// ObjectStorage writes documents to a bucket-addressed store
type ObjectStorage interface {
	// Put writes the object, replacing any object with the same key
	Put(ctx context.Context, obj *UploadObject) error
	// BucketExists reports whether the bucket is reachable
	BucketExists(ctx context.Context, bucket string) (bool, error)
}

// URLSigner is implemented by stores that can hand out temporary download
// links
type URLSigner interface {
	PresignGet(ctx context.Context, bucket, key string, expiresIn time.Duration) (string, time.Time, error)
}

// RegistrationParser extracts the fields of a tax registration PDF
type RegistrationParser interface {
	Parse(ctx context.Context, pdfURL string) (map[string]string, error)
}
