package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/erp/docgen/internal/domain/printing"
	"github.com/erp/docgen/internal/domain/shared"
)

const defaultUploadKeyPrefix = "docgen:upload:"

// RedisUploadStatusStore implements UploadStatusRepository using Redis.
// This is suitable for distributed deployments where every instance must
// report the status of uploads started by the others.
type RedisUploadStatusStore struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NewRedisUploadStatusStore creates a new Redis-based status store.
// Records expire ttl after their last update; zero keeps them forever.
func NewRedisUploadStatusStore(cfg RedisConfig, ttl time.Duration) (*RedisUploadStatusStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisUploadStatusStoreWithClient(client, "", ttl), nil
}

// NewRedisUploadStatusStoreWithClient creates a store with an existing Redis client
// This is useful for testing or when sharing a client across components
func NewRedisUploadStatusStoreWithClient(client *redis.Client, keyPrefix string, ttl time.Duration) *RedisUploadStatusStore {
	if keyPrefix == "" {
		keyPrefix = defaultUploadKeyPrefix
	}
	return &RedisUploadStatusStore{
		client:    client,
		keyPrefix: keyPrefix,
		ttl:       ttl,
	}
}

// Save stores the record as JSON, refreshing its TTL
func (s *RedisUploadStatusStore) Save(ctx context.Context, record *printing.UploadRecord) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode upload record: %w", err)
	}
	if err := s.client.Set(ctx, s.key(record.Bucket, record.Key), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save upload record: %w", err)
	}
	return nil
}

// Find returns the record for bucket and key
func (s *RedisUploadStatusStore) Find(ctx context.Context, bucket, key string) (*printing.UploadRecord, error) {
	payload, err := s.client.Get(ctx, s.key(bucket, key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load upload record: %w", err)
	}

	var record printing.UploadRecord
	if err := json.Unmarshal(payload, &record); err != nil {
		return nil, fmt.Errorf("failed to decode upload record: %w", err)
	}
	return &record, nil
}

// Close closes the Redis client
func (s *RedisUploadStatusStore) Close() error {
	return s.client.Close()
}

// GetClient returns the underlying Redis client (for testing/monitoring)
func (s *RedisUploadStatusStore) GetClient() *redis.Client {
	return s.client
}

func (s *RedisUploadStatusStore) key(bucket, key string) string {
	return s.keyPrefix + bucket + "/" + key
}

// Ensure RedisUploadStatusStore implements UploadStatusRepository
var _ printing.UploadStatusRepository = (*RedisUploadStatusStore)(nil)
