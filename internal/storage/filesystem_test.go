package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"speedrush/internal/domain"
)

func TestSanitizeKey(t *testing.T) {
	cases := map[string]string{
		"car.png":         "car.png",
		"/abc/car.png":    "abc/car.png",
		"./abc//car.png":  "abc/car.png",
		"abc\\wheels.png": "abc/wheels.png",
		"abc/../car.png":  "car.png",
	}
	for in, want := range cases {
		got, err := sanitizeKey(in)
		if err != nil {
			t.Fatalf("sanitizeKey(%q) error: %v", in, err)
		}
		if got != want {
			t.Fatalf("sanitizeKey(%q) = %q, want %q", in, got, want)
		}
	}
	for _, bad := range []string{"", "  ", "../etc/passwd", ".."} {
		if _, err := sanitizeKey(bad); err == nil {
			t.Fatalf("sanitizeKey(%q) expected error", bad)
		}
	}
}

func TestFileStoreUpload(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir, "http://localhost:8000/static/")
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	uri, err := store.Upload(context.Background(), "car.png", []byte("png"))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if !strings.HasPrefix(uri, "http://localhost:8000/static/") || !strings.HasSuffix(uri, "/car.png") {
		t.Fatalf("uri = %q", uri)
	}
	key := strings.TrimPrefix(uri, "http://localhost:8000/static/")
	data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(key)))
	if err != nil || string(data) != "png" {
		t.Fatalf("stored = %q, %v", data, err)
	}

	other, _ := store.Upload(context.Background(), "car.png", []byte("png2"))
	if other == uri {
		t.Fatalf("uploads with the same name must not collide")
	}
}

func TestFileStoreUploadErrors(t *testing.T) {
	store, _ := NewFileStore(t.TempDir(), "")
	if _, err := store.Upload(context.Background(), "car.png", nil); !errors.Is(err, domain.ErrUpload) {
		t.Fatalf("empty payload err = %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := store.Upload(ctx, "car.png", []byte("x")); !errors.Is(err, context.Canceled) {
		t.Fatalf("canceled err = %v", err)
	}
	if _, err := NewFileStore("", ""); !errors.Is(err, domain.ErrConfiguration) {
		t.Fatalf("empty base path err = %v", err)
	}
}
