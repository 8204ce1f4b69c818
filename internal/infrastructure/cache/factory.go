package cache

import (
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/erp/docgen/internal/domain/printing"
	"github.com/erp/docgen/internal/infrastructure/config"
)

// UploadStatusStore is a status repository that holds resources
type UploadStatusStore interface {
	printing.UploadStatusRepository
	io.Closer
}

// UploadStatusStoreFactory creates upload status stores based on configuration
type UploadStatusStoreFactory struct {
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// UploadStatusStoreFactoryOption is a functional option for configuring the factory
type UploadStatusStoreFactoryOption func(*UploadStatusStoreFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) UploadStatusStoreFactoryOption {
	return func(f *UploadStatusStoreFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to in-memory store when Redis is unavailable
// Default is true (allow fallback)
func WithInMemoryFallback(allow bool) UploadStatusStoreFactoryOption {
	return func(f *UploadStatusStoreFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewUploadStatusStoreFactory creates a new factory
func NewUploadStatusStoreFactory(cfg config.RedisConfig, opts ...UploadStatusStoreFactoryOption) *UploadStatusStoreFactory {
	f := &UploadStatusStoreFactory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// CreateRedisStore creates a Redis-based status store
func (f *UploadStatusStoreFactory) CreateRedisStore() (UploadStatusStore, error) {
	store, err := NewRedisUploadStatusStore(RedisConfig{
		Host:     f.redisConfig.Host,
		Port:     f.redisConfig.Port,
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	}, f.redisConfig.StatusTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to create Redis upload status store: %w", err)
	}
	return store, nil
}

// CreateInMemoryStore creates an in-memory status store
// WARNING: In-memory stores do not share state across process instances, so
// a status request served by another instance reports NOT_FOUND
func (f *UploadStatusStoreFactory) CreateInMemoryStore() UploadStatusStore {
	return NewInMemoryUploadStatusStore(f.redisConfig.StatusTTL)
}

// CreateStore creates a Redis store when Redis is enabled, falling back to
// in-memory when it is unreachable and fallback is allowed
func (f *UploadStatusStoreFactory) CreateStore() (UploadStatusStore, error) {
	if !f.redisConfig.Enabled {
		f.logger.Info("Redis disabled, using in-memory upload status store")
		return f.CreateInMemoryStore(), nil
	}

	store, err := f.CreateRedisStore()
	if err == nil {
		f.logger.Info("using Redis upload status store", zap.String("addr", f.redisConfig.Addr()))
		return store, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("Redis required for upload status but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory upload status store. "+
		"Upload status will not be shared between instances.",
		zap.Error(err),
	)
	return f.CreateInMemoryStore(), nil
}
