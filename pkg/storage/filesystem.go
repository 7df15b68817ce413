package storage

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// PhotoStore persists uploaded images on disk under a base directory and
// hands back the relative path that handlers persist alongside records.
type PhotoStore struct {
	baseDir      string
	maxSizeBytes int64
	allowedMIMEs map[string]struct{}
}

// NewPhotoStore ensures the base directory exists and returns a handle.
func NewPhotoStore(baseDir string, maxSizeBytes int64, allowedMIMEs []string) (*PhotoStore, error) {
	if baseDir == "" {
		baseDir = "./uploads"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads directory: %w", err)
	}

	mimes := make(map[string]struct{}, len(allowedMIMEs))
	for _, m := range allowedMIMEs {
		mimes[strings.ToLower(strings.TrimSpace(m))] = struct{}{}
	}

	return &PhotoStore{baseDir: baseDir, maxSizeBytes: maxSizeBytes, allowedMIMEs: mimes}, nil
}

// SaveUpload validates and stores a multipart photo under a per-category
// subdirectory. The returned path is relative to the base directory.
func (s *PhotoStore) SaveUpload(category string, header *multipart.FileHeader) (string, error) {
	if header == nil {
		return "", fmt.Errorf("missing upload")
	}
	if s.maxSizeBytes > 0 && header.Size > s.maxSizeBytes {
		return "", fmt.Errorf("upload exceeds %d bytes", s.maxSizeBytes)
	}
	if len(s.allowedMIMEs) > 0 {
		contentType := strings.ToLower(header.Header.Get("Content-Type"))
		if _, ok := s.allowedMIMEs[contentType]; !ok {
			return "", fmt.Errorf("unsupported content type %q", contentType)
		}
	}

	src, err := header.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close() //nolint:errcheck

	ext := strings.ToLower(filepath.Ext(header.Filename))
	relPath := filepath.Join(sanitizeCategory(category), uuid.NewString()+ext)

	fullPath := filepath.Join(s.baseDir, relPath)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return "", fmt.Errorf("prepare upload directory: %w", err)
	}

	dst, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}
	defer dst.Close() //nolint:errcheck

	if _, err := io.Copy(dst, src); err != nil {
		_ = os.Remove(fullPath)
		return "", fmt.Errorf("write upload: %w", err)
	}

	return filepath.ToSlash(relPath), nil
}

// Delete removes a stored photo if present.
func (s *PhotoStore) Delete(relPath string) error {
	if relPath == "" {
		return nil
	}
	path := filepath.Join(s.baseDir, filepath.FromSlash(relPath))
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete upload: %w", err)
	}
	return nil
}

// BaseDir exposes the root directory so the router can serve it statically.
func (s *PhotoStore) BaseDir() string {
	return s.baseDir
}

func sanitizeCategory(category string) string {
	category = strings.ToLower(strings.TrimSpace(category))
	if category == "" {
		return "misc"
	}
	var b strings.Builder
	for _, r := range category {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}
	return b.String()
}
