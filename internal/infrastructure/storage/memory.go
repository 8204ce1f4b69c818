package storage

import (
	"context"
	"errors"
	"sync"

	printingapp "github.com/erp/docgen/internal/application/printing"
)

// Ensure MemoryObjectStorage implements ObjectStorage
var _ printingapp.ObjectStorage = (*MemoryObjectStorage)(nil)

// MemoryObjectStorage keeps documents in memory.
// Use this for development and tests; contents are lost on restart.
type MemoryObjectStorage struct {
	mu      sync.RWMutex
	objects map[string]printingapp.UploadObject
	// Buckets, when non-empty, is the set of buckets reported as existing.
	// An empty set accepts every bucket.
	buckets map[string]bool
}

// NewMemoryObjectStorage creates an empty store. Passing bucket names
// restricts BucketExists to them.
func NewMemoryObjectStorage(buckets ...string) *MemoryObjectStorage {
	s := &MemoryObjectStorage{
		objects: make(map[string]printingapp.UploadObject),
		buckets: make(map[string]bool),
	}
	for _, b := range buckets {
		s.buckets[b] = true
	}
	return s
}

// Put stores a copy of the document
func (s *MemoryObjectStorage) Put(ctx context.Context, obj *printingapp.UploadObject) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if obj == nil || obj.Key == "" {
		return errors.New("storage key is required")
	}
	stored := *obj
	stored.Data = append([]byte(nil), obj.Data...)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[obj.Bucket+"/"+obj.Key] = stored
	return nil
}

// BucketExists reports whether bucket is known
func (s *MemoryObjectStorage) BucketExists(ctx context.Context, bucket string) (bool, error) {
	if bucket == "" {
		return false, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.buckets) == 0 {
		return true, nil
	}
	return s.buckets[bucket], nil
}

// Get returns a stored document
func (s *MemoryObjectStorage) Get(bucket, key string) (printingapp.UploadObject, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[bucket+"/"+key]
	return obj, ok
}

// Len returns the number of stored documents
func (s *MemoryObjectStorage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
