package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned when a requested object does not exist.
	ErrNotFound = errors.New("object not found")

	// ErrInvalidKey is returned when a key is empty or contains path traversal.
	ErrInvalidKey = errors.New("invalid storage key")
)

// BlobStorage stores and retrieves case artifacts.
type BlobStorage interface {
	// Upload stores data from the reader under the given key.
	Upload(ctx context.Context, key string, reader io.Reader) error

	// Download retrieves the object stored under the given key.
	Download(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes the object stored under the given key.
	Delete(ctx context.Context, key string) error

	// Exists checks whether an object is stored under the given key.
	Exists(ctx context.Context, key string) (bool, error)

	// URL returns an externally usable URL for the object. For S3 this is
	// a presigned GET URL, for local storage a filesystem path.
	URL(ctx context.Context, key string) (string, error)
}

// Config holds blob storage configuration.
type Config struct {
	Type          string // "local" or "s3"
	BaseDir       string
	S3Bucket      string
	S3Region      string
	PresignExpiry time.Duration
}

// New creates a BlobStorage implementation based on configuration.
func New(cfg Config) (BlobStorage, error) {
	switch strings.ToLower(cfg.Type) {
	case "local":
		if cfg.BaseDir == "" {
			return nil, fmt.Errorf("base_dir is required for local storage")
		}
		return NewLocalStorage(cfg.BaseDir)

	case "s3":
		if cfg.S3Bucket == "" {
			return nil, fmt.Errorf("bucket is required for S3 storage")
		}
		if cfg.S3Region == "" {
			return nil, fmt.Errorf("region is required for S3 storage")
		}
		s3Storage, err := NewS3Storage(cfg.S3Bucket, cfg.S3Region)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize S3 storage: %w", err)
		}
		if cfg.PresignExpiry > 0 {
			s3Storage.presignExpiration = cfg.PresignExpiry
		}
		return s3Storage, nil

	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}
