// Package storage holds the S3-compatible object store used for audit archives.
package storage

import (
	"context"
	"io"
	"time"
)

// PutObjectOptions describe an upload. Size is the exact byte count, or -1
// when unknown.
type PutObjectOptions struct {
	Size        int64
	ContentType string
	Metadata    map[string]string
}

// ObjectInfo describes a stored object.
type ObjectInfo struct {
	Key         string
	Size        int64
	ETag        string
	ContentType string
	Metadata    map[string]string
}

// Storage is an object store client. Implementations stream content and
// are safe for concurrent use.
type Storage interface {
	Put(ctx context.Context, key string, r io.Reader, opt PutObjectOptions) (ObjectInfo, error)
	Delete(ctx context.Context, key string) error
	// PresignGet returns a URL that downloads the object without credentials
	// until expiry elapses.
	PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error)
}
