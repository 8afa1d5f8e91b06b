package storage

import (
	"context"
	"io"
)

// ObjectStorage archives uploaded images.
type ObjectStorage interface {
	// Upload stores an object under key.
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error

	// Delete removes an object; used to roll back an upload whose record was not saved.
	Delete(ctx context.Context, key string) error

	// GetURL returns the public URL for an object.
	GetURL(key string) string
}
