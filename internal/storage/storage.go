package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrEmptyKey indicates a put or delete was attempted without an object key.
var ErrEmptyKey = errors.New("storage: empty key")

// BlobStore abstracts the object-storage provider. Put returns a durable
// public location for the stored object; Delete removes an object by key;
// SignedURL grants time-limited read access.
type BlobStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
	SignedURL(ctx context.Context, key string, expires time.Duration) (string, error)
}
