package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalStorage stores files on the local filesystem
type LocalStorage struct {
	basePath string
	baseURL  string
}

// NewLocalStorage creates a new local storage instance
func NewLocalStorage(basePath, baseURL string) (*LocalStorage, error) {
	if basePath == "" {
		basePath = "./uploads"
	}

	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	return &LocalStorage{
		basePath: basePath,
		baseURL:  strings.TrimRight(baseURL, "/"),
	}, nil
}

// Name identifies the backend in stored image records
func (s *LocalStorage) Name() string { return "local" }

// Upload writes the file under basePath
func (s *LocalStorage) Upload(ctx context.Context, key string, body io.Reader, contentType string, size int64) (*UploadResult, error) {
	fullPath, err := s.resolve(key)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	tmp := fullPath + ".part"
	file, err := os.Create(tmp)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}

	written, err := io.Copy(file, body)
	closeErr := file.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(tmp)
		return nil, fmt.Errorf("failed to write file: %w", err)
	}
	if err := os.Rename(tmp, fullPath); err != nil {
		_ = os.Remove(tmp)
		return nil, fmt.Errorf("failed to finalize file: %w", err)
	}

	return &UploadResult{
		Storage:     s.Name(),
		Key:         key,
		URL:         s.URL(key),
		ContentType: contentType,
		Size:        written,
	}, nil
}

// Open returns a reader for a stored file
func (s *LocalStorage) Open(key string) (io.ReadCloser, error) {
	fullPath, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	return os.Open(fullPath)
}

// ReadAll reads a stored file into memory
func (s *LocalStorage) ReadAll(key string) ([]byte, error) {
	fullPath, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(fullPath)
}

// Delete removes a file, ignoring files that are already gone
func (s *LocalStorage) Delete(ctx context.Context, key string) error {
	fullPath, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// DeletePrefix removes a directory of files
func (s *LocalStorage) DeletePrefix(prefix string) error {
	fullPath, err := s.resolve(prefix)
	if err != nil {
		return err
	}
	return os.RemoveAll(fullPath)
}

// URL returns the public URL for a key
func (s *LocalStorage) URL(key string) string {
	if s.baseURL == "" {
		return "/files/" + key
	}
	return s.baseURL + "/" + key
}

// resolve joins key onto basePath and refuses keys escaping it
func (s *LocalStorage) resolve(key string) (string, error) {
	fullPath := filepath.Join(s.basePath, filepath.FromSlash(key))
	rel, err := filepath.Rel(s.basePath, fullPath)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("invalid storage key %q", key)
	}
	return fullPath, nil
}
