package ports

import (
	"context"
	"io"
)

// BlobStore holds resource payloads by opaque key. Deletion is best-effort:
// a failed blob delete must not block or roll back the metadata delete.
type BlobStore interface {
	Put(ctx context.Context, key string, r io.Reader) (size int64, err error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}
