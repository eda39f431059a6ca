package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewLocalStorage(t *testing.T) {
	tests := []struct {
		name      string
		baseDir   string
		wantError bool
	}{
		{
			name:      "valid directory",
			baseDir:   filepath.Join(t.TempDir(), "artifacts"),
			wantError: false,
		},
		{
			name:      "empty directory",
			baseDir:   "",
			wantError: true,
		},
		{
			name:      "current directory",
			baseDir:   ".",
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := NewLocalStorage(tt.baseDir)
			if tt.wantError {
				if err == nil {
					t.Error("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if store == nil {
				t.Fatal("expected storage instance, got nil")
			}
			if _, statErr := os.Stat(tt.baseDir); statErr != nil {
				t.Errorf("base directory not created: %v", statErr)
			}
		})
	}
}

func TestLocalStorage_UploadDownload(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}

	ctx := context.Background()
	content := []byte(`{"log":{"version":"1.2"}}`)

	key := "cases/2f49c5b1/har-1700000000000.json"
	if err := store.Upload(ctx, key, bytes.NewReader(content)); err != nil {
		t.Fatalf("upload failed: %v", err)
	}

	reader, err := store.Download(ctx, key)
	if err != nil {
		t.Fatalf("download failed: %v", err)
	}
	defer reader.Close()

	got, err := io.ReadAll(reader)
	if err != nil {
		t.Fatalf("failed to read downloaded content: %v", err)
	}
	if !bytes.Equal(got, content) {
		t.Errorf("downloaded content = %q, want %q", got, content)
	}
}

func TestLocalStorage_DownloadMissing(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}

	_, err = store.Download(context.Background(), "cases/none/dom.html.gz")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestLocalStorage_Exists(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}

	ctx := context.Background()
	key := "cases/abc/console-1.jsonl"

	exists, err := store.Exists(ctx, key)
	if err != nil {
		t.Fatalf("exists check failed: %v", err)
	}
	if exists {
		t.Error("expected key to not exist before upload")
	}

	if err := store.Upload(ctx, key, strings.NewReader("entry")); err != nil {
		t.Fatalf("upload failed: %v", err)
	}

	exists, err = store.Exists(ctx, key)
	if err != nil {
		t.Fatalf("exists check failed: %v", err)
	}
	if !exists {
		t.Error("expected key to exist after upload")
	}
}

func TestLocalStorage_Delete(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}

	ctx := context.Background()
	key := "cases/abc/cookies-1.json"

	if err := store.Upload(ctx, key, strings.NewReader("[]")); err != nil {
		t.Fatalf("upload failed: %v", err)
	}
	if err := store.Delete(ctx, key); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if err := store.Delete(ctx, key); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestLocalStorage_URL(t *testing.T) {
	baseDir := t.TempDir()
	store, err := NewLocalStorage(baseDir)
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}

	ctx := context.Background()
	key := "cases/abc/screenshot-1.png"

	if _, err := store.URL(ctx, key); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing key, got %v", err)
	}

	if err := store.Upload(ctx, key, strings.NewReader("png")); err != nil {
		t.Fatalf("upload failed: %v", err)
	}

	url, err := store.URL(ctx, key)
	if err != nil {
		t.Fatalf("URL failed: %v", err)
	}
	want := filepath.Join(baseDir, filepath.FromSlash(key))
	if url != want {
		t.Errorf("URL = %q, want %q", url, want)
	}
}

func TestLocalStorage_InvalidKeys(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}

	tests := []struct {
		name string
		key  string
	}{
		{name: "empty key", key: ""},
		{name: "parent traversal", key: "../outside.txt"},
		{name: "nested traversal", key: "cases/../../outside.txt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := store.Upload(context.Background(), tt.key, strings.NewReader("data"))
			if !errors.Is(err, ErrInvalidKey) {
				t.Errorf("expected ErrInvalidKey, got %v", err)
			}
		})
	}
}
