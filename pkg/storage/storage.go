// Package storage defines the object store collaborator used by the gallery
// and thumbnail services, along with its GCS, MinIO, S3 and in-memory backends.
package storage

import (
	"context"
	"fmt"
	"io"
	"time"
)

// ObjectInfo describes one listed object
type ObjectInfo struct {
	Key  string
	Size int64
}

// ObjectStore is a flat key/value bucket.
//
// List drains every page before returning. When the listing fails part way
// it returns the objects accumulated so far together with the error.
// Delete of a missing key succeeds.
type ObjectStore interface {
	List(ctx context.Context) ([]ObjectInfo, error)
	URL(ctx context.Context, key string) (string, error)
	Download(ctx context.Context, key, dst string) error
	Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Options configures a backend
type Options struct {
	Backend     string
	Bucket      string
	URLLifetime time.Duration
	MinIO       MinIOOptions
	S3Region    string
	S3Endpoint  string
}

// MinIOOptions holds MinIO connection settings
type MinIOOptions struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

// Open returns the backend named by opts.Backend
func Open(ctx context.Context, opts Options) (ObjectStore, error) {
	switch opts.Backend {
	case "gcs", "":
		return NewGCS(ctx, opts.Bucket, opts.URLLifetime)
	case "minio":
		return NewMinIO(ctx, opts.MinIO, opts.Bucket, opts.URLLifetime)
	case "s3":
		return NewS3(ctx, opts.S3Region, opts.S3Endpoint, opts.Bucket, opts.URLLifetime)
	case "memory":
		return NewMemory(opts.Bucket), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", opts.Backend)
	}
}
