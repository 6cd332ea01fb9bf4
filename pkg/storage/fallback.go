package storage

import (
	"bytes"
	"context"
	"fmt"

	pkglogger "github.com/modulbox/leadform-backend/pkg/logger"
)

// FallbackStore uploads to the primary store and falls back to the secondary
// one when the primary is missing or fails.
type FallbackStore struct {
	primary   Store
	secondary Store
}

// NewFallbackStore creates a FallbackStore. primary may be nil.
func NewFallbackStore(primary, secondary Store) *FallbackStore {
	return &FallbackStore{primary: primary, secondary: secondary}
}

// Name identifies the preferred backend
func (f *FallbackStore) Name() string {
	if f.primary != nil {
		return f.primary.Name()
	}
	return f.secondary.Name()
}

// UploadBytes uploads data, retrying once on the secondary store
func (f *FallbackStore) UploadBytes(ctx context.Context, key string, data []byte, contentType string) (*UploadResult, error) {
	size := int64(len(data))
	if f.primary != nil {
		result, err := f.primary.Upload(ctx, key, bytes.NewReader(data), contentType, size)
		if err == nil {
			return result, nil
		}
		pkglogger.GetLogger().Warn().
			Err(err).
			Str("key", key).
			Str("fallback", f.secondary.Name()).
			Msg("primary upload failed")
	}

	result, err := f.secondary.Upload(ctx, key, bytes.NewReader(data), contentType, size)
	if err != nil {
		return nil, fmt.Errorf("fallback upload failed: %w", err)
	}
	return result, nil
}

// Remove deletes an uploaded file from whichever backend took it
func (f *FallbackStore) Remove(ctx context.Context, result *UploadResult) error {
	if f.primary != nil && f.primary.Name() == result.Storage {
		return f.primary.Delete(ctx, result.Key)
	}
	if f.secondary.Name() == result.Storage {
		return f.secondary.Delete(ctx, result.Key)
	}
	return fmt.Errorf("unknown storage %q for key %s", result.Storage, result.Key)
}
