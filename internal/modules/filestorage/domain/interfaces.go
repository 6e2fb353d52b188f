package domain

import (
	"context"
	"io"
)

// FileStorage defines the interface for content store operations.
// Keys are slash separated and scoped by the caller, e.g. "<sessionId>/<storedName>".
// Implemented by the local filesystem and S3/MinIO.
type FileStorage interface {
	// Save writes the reader under key and returns the number of bytes stored
	Save(ctx context.Context, key string, r io.Reader, contentType string) (int64, error)

	// Open returns a reader over the stored bytes. ErrObjectNotFound when the key is absent.
	Open(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes the stored bytes. ErrObjectNotFound when the key is absent.
	Delete(ctx context.Context, key string) error
}
