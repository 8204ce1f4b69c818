package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erp/docgen/internal/domain/printing"
	"github.com/erp/docgen/internal/domain/shared"
	"github.com/erp/docgen/internal/infrastructure/config"
)

func newRecord(t *testing.T, key string) *printing.UploadRecord {
	t.Helper()
	r, err := printing.NewUploadRecord("docs", key, 42)
	require.NoError(t, err)
	return r
}

func TestInMemoryUploadStatusStore_SaveAndFind(t *testing.T) {
	store := NewInMemoryUploadStatusStore(time.Hour)
	defer store.Close()

	ctx := context.Background()

	t.Run("returns saved record", func(t *testing.T) {
		r := newRecord(t, "a.pdf")
		require.NoError(t, store.Save(ctx, r))

		got, err := store.Find(ctx, "docs", "a.pdf")
		require.NoError(t, err)
		assert.Equal(t, printing.UploadStatusPending, got.Status)
		assert.Equal(t, 42, got.Size)
	})

	t.Run("later saves replace the record", func(t *testing.T) {
		r := newRecord(t, "b.pdf")
		require.NoError(t, store.Save(ctx, r))
		require.NoError(t, r.StartAttempt())
		require.NoError(t, r.Complete())
		require.NoError(t, store.Save(ctx, r))

		got, err := store.Find(ctx, "docs", "b.pdf")
		require.NoError(t, err)
		assert.Equal(t, printing.UploadStatusUploaded, got.Status)
		assert.Equal(t, 1, got.Attempts)
	})

	t.Run("stored records are copies", func(t *testing.T) {
		r := newRecord(t, "c.pdf")
		require.NoError(t, store.Save(ctx, r))
		r.Status = printing.UploadStatusFailed

		got, err := store.Find(ctx, "docs", "c.pdf")
		require.NoError(t, err)
		assert.Equal(t, printing.UploadStatusPending, got.Status)
	})

	t.Run("unknown record", func(t *testing.T) {
		_, err := store.Find(ctx, "docs", "missing.pdf")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestInMemoryUploadStatusStore_Expiration(t *testing.T) {
	store := NewInMemoryUploadStatusStore(10 * time.Millisecond)
	defer store.Close()

	ctx := context.Background()
	require.NoError(t, store.Save(ctx, newRecord(t, "a.pdf")))
	time.Sleep(20 * time.Millisecond)

	_, err := store.Find(ctx, "docs", "a.pdf")
	assert.ErrorIs(t, err, shared.ErrNotFound)

	store.cleanup()
	assert.Equal(t, 0, store.Size())
}

func TestInMemoryUploadStatusStore_NoTTL(t *testing.T) {
	store := NewInMemoryUploadStatusStore(0)
	defer store.Close()

	ctx := context.Background()
	require.NoError(t, store.Save(ctx, newRecord(t, "a.pdf")))
	store.cleanup()

	_, err := store.Find(ctx, "docs", "a.pdf")
	assert.NoError(t, err)
}

func TestInMemoryUploadStatusStore_Close(t *testing.T) {
	store := NewInMemoryUploadStatusStore(time.Hour)
	assert.NoError(t, store.Close())
	assert.NoError(t, store.Close())
}

func TestUploadStatusStoreFactory(t *testing.T) {
	t.Run("redis disabled uses memory", func(t *testing.T) {
		f := NewUploadStatusStoreFactory(config.RedisConfig{Enabled: false})
		store, err := f.CreateStore()
		require.NoError(t, err)
		defer store.Close()
		assert.IsType(t, &InMemoryUploadStatusStore{}, store)
	})

	t.Run("unreachable redis falls back to memory", func(t *testing.T) {
		f := NewUploadStatusStoreFactory(config.RedisConfig{Enabled: true, Host: "127.0.0.1", Port: 1})
		store, err := f.CreateStore()
		require.NoError(t, err)
		defer store.Close()
		assert.IsType(t, &InMemoryUploadStatusStore{}, store)
	})

	t.Run("unreachable redis without fallback fails", func(t *testing.T) {
		f := NewUploadStatusStoreFactory(config.RedisConfig{Enabled: true, Host: "127.0.0.1", Port: 1},
			WithInMemoryFallback(false))
		_, err := f.CreateStore()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Redis required")
	})
}
