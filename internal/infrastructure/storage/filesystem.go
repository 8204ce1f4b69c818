package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"go.uber.org/zap"

	printingapp "github.com/erp/docgen/internal/application/printing"
)

// Ensure FileSystemStorage implements ObjectStorage
var _ printingapp.ObjectStorage = (*FileSystemStorage)(nil)

// ErrInvalidPath is returned for bucket or key values that would escape the
// storage root
var ErrInvalidPath = errors.New("invalid storage path")

// FileSystemStorage stores documents on the local file system.
// Path structure: {base}/{bucket}/{key}
type FileSystemStorage struct {
	basePath string
	logger   *zap.Logger
}

// NewFileSystemStorage creates a file system store rooted at basePath
func NewFileSystemStorage(basePath string, logger *zap.Logger) (*FileSystemStorage, error) {
	if basePath == "" {
		basePath = "./data/documents"
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory %s: %w", basePath, err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileSystemStorage{basePath: basePath, logger: logger}, nil
}

// Put writes a document, replacing any file with the same key
func (s *FileSystemStorage) Put(ctx context.Context, obj *printingapp.UploadObject) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if obj == nil || obj.Key == "" {
		return errors.New("storage key is required")
	}

	fullPath, err := s.resolve(obj.Bucket, obj.Key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	// write then rename so readers never observe a partial file
	tmp := fullPath + ".part"
	if err := os.WriteFile(tmp, obj.Data, 0o644); err != nil {
		return fmt.Errorf("failed to write document: %w", err)
	}
	if err := os.Rename(tmp, fullPath); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to write document: %w", err)
	}

	s.logger.Debug("document stored",
		zap.String("path", fullPath),
		zap.Int("size", len(obj.Data)))
	return nil
}

// BucketExists reports whether the bucket directory exists. Buckets are
// created on first write, so only invalid names are reported missing.
func (s *FileSystemStorage) BucketExists(ctx context.Context, bucket string) (bool, error) {
	if bucket == "" {
		return false, nil
	}
	if _, err := s.resolve(bucket, ""); err != nil {
		return false, nil
	}
	return true, nil
}

// Open opens a stored document for reading
func (s *FileSystemStorage) Open(bucket, key string) (fs.File, error) {
	fullPath, err := s.resolve(bucket, key)
	if err != nil {
		return nil, err
	}
	return os.Open(fullPath)
}

// resolve maps bucket and key onto a path below the base directory
func (s *FileSystemStorage) resolve(bucket, key string) (string, error) {
	if bucket == "" || containsDotDot(bucket) || strings.ContainsAny(bucket, `/\`) {
		s.logger.Warn("blocked potentially malicious bucket", zap.String("bucket", bucket))
		return "", ErrInvalidPath
	}
	cleanKey := filepath.Clean(filepath.FromSlash(key))
	if key != "" && (filepath.IsAbs(cleanKey) || containsDotDot(key)) {
		s.logger.Warn("blocked potentially malicious path", zap.String("key", key))
		return "", ErrInvalidPath
	}

	fullPath := filepath.Join(s.basePath, bucket, cleanKey)

	// Additional security: verify the resolved path is still under basePath
	absBase, err := filepath.Abs(s.basePath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve base path: %w", err)
	}
	absPath, err := filepath.Abs(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve file path: %w", err)
	}
	if !strings.HasPrefix(absPath, absBase+string(filepath.Separator)) {
		s.logger.Warn("path escape attempt blocked",
			zap.String("path", absPath),
			zap.String("base", absBase))
		return "", ErrInvalidPath
	}
	return fullPath, nil
}

// containsDotDot checks if a path contains ".." components
func containsDotDot(path string) bool {
	parts := strings.FieldsFunc(path, func(r rune) bool {
		return r == '/' || r == '\\'
	})
	return slices.Contains(parts, "..")
}
