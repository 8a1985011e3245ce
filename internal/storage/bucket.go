// Package storage stores product images in an object bucket.
package storage

import (
	"context"
	"errors"
	"time"
)

// ErrObjectNotFound is returned by Download for a missing object.
var ErrObjectNotFound = errors.New("object not found")

// ObjectInfo describes one stored object.
type ObjectInfo struct {
	Name        string    `json:"name"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type,omitempty"`
	UpdatedAt   time.Time `json:"updated_at,omitempty"`
}

// UploadOptions controls how an object is written.
type UploadOptions struct {
	ContentType  string
	CacheControl string
	Upsert       bool
}

// Bucket is an object store scoped to a single bucket. Paths are relative
// to the bucket root.
type Bucket interface {
	Name() string
	// Upload writes data and returns the object's full key (bucket/path).
	Upload(ctx context.Context, path string, data []byte, opts UploadOptions) (string, error)
	Download(ctx context.Context, path string) ([]byte, error)
	Remove(ctx context.Context, paths []string) error
	// List returns the objects directly under folder.
	List(ctx context.Context, folder string) ([]ObjectInfo, error)
	PublicURL(path string) string
}
