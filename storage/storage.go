// Package storage defines the object store used as a source of attachment
// and inline image content.
package storage

import (
	"context"
	"io"
	"time"
)

// ObjectInfo describes a stored object.
type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
	ETag         string
	ContentType  string            // used as the attachment mime type
	Metadata     map[string]string // user-defined metadata
}

// PutOptions contains optional parameters for Put.
type PutOptions struct {
	ContentType string
	Metadata    map[string]string
}

// Storage stores and reads attachment objects.
// An empty bucket argument selects the implementation's default bucket.
type Storage interface {
	// Put stores an object.
	Put(ctx context.Context, bucket, key string, reader io.Reader, opts *PutOptions) error

	// Get opens an object for reading. The caller closes the reader.
	Get(ctx context.Context, bucket, key string) (io.ReadCloser, *ObjectInfo, error)

	// Exists reports whether an object exists.
	Exists(ctx context.Context, bucket, key string) (bool, error)

	// Delete removes an object.
	Delete(ctx context.Context, bucket, key string) error

	io.Closer
}
