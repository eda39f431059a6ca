package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// LocalStorage implements BlobStorage using the local filesystem.
// Intended for development; production deployments use S3.
type LocalStorage struct {
	baseDir string
}

// NewLocalStorage creates a new local filesystem storage rooted at baseDir.
// The directory is created if it does not exist.
func NewLocalStorage(baseDir string) (*LocalStorage, error) {
	baseDir = filepath.Clean(baseDir)
	if baseDir == "" || baseDir == "." {
		return nil, fmt.Errorf("%w: base directory cannot be empty", ErrInvalidKey)
	}

	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	return &LocalStorage{
		baseDir: baseDir,
	}, nil
}

// Upload stores data from the reader under the given key.
func (s *LocalStorage) Upload(ctx context.Context, key string, reader io.Reader) error {
	fullPath, err := s.resolve(key)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	if _, err := io.Copy(file, reader); err != nil {
		// Clean up partial file on error
		os.Remove(fullPath)
		return fmt.Errorf("failed to write file: %w", err)
	}

	return nil
}

// Download retrieves the object stored under the given key.
func (s *LocalStorage) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	fullPath, err := s.resolve(key)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(fullPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	return file, nil
}

// Delete removes the object stored under the given key.
func (s *LocalStorage) Delete(ctx context.Context, key string) error {
	fullPath, err := s.resolve(key)
	if err != nil {
		return err
	}

	if err := os.Remove(fullPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete file: %w", err)
	}

	return nil
}

// Exists checks whether an object is stored under the given key.
func (s *LocalStorage) Exists(ctx context.Context, key string) (bool, error) {
	fullPath, err := s.resolve(key)
	if err != nil {
		return false, err
	}

	_, err = os.Stat(fullPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check file existence: %w", err)
	}

	return true, nil
}

// URL returns the filesystem path of the stored object.
func (s *LocalStorage) URL(ctx context.Context, key string) (string, error) {
	fullPath, err := s.resolve(key)
	if err != nil {
		return "", err
	}

	exists, err := s.Exists(ctx, key)
	if err != nil {
		return "", err
	}
	if !exists {
		return "", ErrNotFound
	}

	return fullPath, nil
}

// resolve validates the key and joins it with the base directory. It
// rejects keys that would escape baseDir.
func (s *LocalStorage) resolve(key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("%w: key cannot be empty", ErrInvalidKey)
	}

	cleanKey := filepath.Clean(key)
	fullPath := filepath.Join(s.baseDir, cleanKey)

	relPath, err := filepath.Rel(s.baseDir, fullPath)
	if err != nil || len(relPath) > 0 && relPath[0] == '.' {
		return "", fmt.Errorf("%w: path traversal detected", ErrInvalidKey)
	}

	return fullPath, nil
}
