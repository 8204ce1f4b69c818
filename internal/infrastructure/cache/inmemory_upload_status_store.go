package cache

import (
	"context"
	"sync"
	"time"

	"github.com/erp/docgen/internal/domain/printing"
	"github.com/erp/docgen/internal/domain/shared"
)

// entry represents a stored upload record with expiration
type entry struct {
	record    printing.UploadRecord
	expiresAt time.Time
}

func (e entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// InMemoryUploadStatusStore implements UploadStatusRepository using an in-memory map
// This is suitable for single-instance deployments and testing
type InMemoryUploadStatusStore struct {
	mu        sync.RWMutex
	entries   map[string]entry
	ttl       time.Duration
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemoryUploadStatusStore creates a new in-memory status store.
// Records expire ttl after their last update; zero keeps them forever.
// It starts a background goroutine to clean up expired entries.
func NewInMemoryUploadStatusStore(ttl time.Duration) *InMemoryUploadStatusStore {
	store := &InMemoryUploadStatusStore{
		entries:  make(map[string]entry),
		ttl:      ttl,
		stopChan: make(chan struct{}),
	}

	store.wg.Add(1)
	go store.cleanupLoop()

	return store
}

// Save stores a copy of the record
func (s *InMemoryUploadStatusStore) Save(ctx context.Context, record *printing.UploadRecord) error {
	e := entry{record: *record}
	if s.ttl > 0 {
		e.expiresAt = time.Now().Add(s.ttl)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[record.Bucket+"/"+record.Key] = e
	return nil
}

// Find returns a copy of the record for bucket and key
func (s *InMemoryUploadStatusStore) Find(ctx context.Context, bucket, key string) (*printing.UploadRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, exists := s.entries[bucket+"/"+key]
	if !exists || e.expired(time.Now()) {
		return nil, shared.ErrNotFound
	}
	record := e.record
	return &record, nil
}

// Close stops the cleanup goroutine and releases resources
// Safe to call multiple times
func (s *InMemoryUploadStatusStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stopChan)
		s.wg.Wait()
	})
	return nil
}

// cleanupLoop periodically removes expired entries
func (s *InMemoryUploadStatusStore) cleanupLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.cleanup()
		}
	}
}

// cleanup removes expired entries from the store
func (s *InMemoryUploadStatusStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for k, e := range s.entries {
		if e.expired(now) {
			delete(s.entries, k)
		}
	}
}

// Size returns the number of entries in the store (for testing/monitoring)
func (s *InMemoryUploadStatusStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Ensure InMemoryUploadStatusStore implements UploadStatusRepository
var _ printing.UploadStatusRepository = (*InMemoryUploadStatusStore)(nil)
