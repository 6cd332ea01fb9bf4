package storage

import (
	"context"
	"io"
)

// UploadResult contains the result of a file upload
type UploadResult struct {
	Storage     string `json:"storage"`
	Key         string `json:"key"`
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

// Store is a place uploaded images end up
type Store interface {
	Name() string
	Upload(ctx context.Context, key string, body io.Reader, contentType string, size int64) (*UploadResult, error)
	Delete(ctx context.Context, key string) error
}
