package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
)

// GCS is an ObjectStore backed by a Google Cloud Storage bucket
type GCS struct {
	client      *storage.Client
	bucket      *storage.BucketHandle
	urlLifetime time.Duration
}

// NewGCS creates a client using application default credentials
func NewGCS(ctx context.Context, bucketName string, urlLifetime time.Duration) (*GCS, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	return &GCS{
		client:      client,
		bucket:      client.Bucket(bucketName),
		urlLifetime: urlLifetime,
	}, nil
}

// List returns every object in the bucket
func (g *GCS) List(ctx context.Context) ([]ObjectInfo, error) {
	var objects []ObjectInfo

	it := g.bucket.Objects(ctx, nil)
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return objects, fmt.Errorf("error iterating objects: %w", err)
		}
		objects = append(objects, ObjectInfo{Key: attrs.Name, Size: attrs.Size})
	}

	return objects, nil
}

// URL creates a signed GET URL for the object
func (g *GCS) URL(_ context.Context, key string) (string, error) {
	signedURL, err := g.bucket.SignedURL(key, &storage.SignedURLOptions{
		Expires: time.Now().Add(g.urlLifetime),
		Method:  "GET",
	})
	if err != nil {
		return "", fmt.Errorf("sign %s: %w", key, err)
	}
	return signedURL, nil
}

// Download copies the object into the local file dst
func (g *GCS) Download(ctx context.Context, key, dst string) error {
	key = strings.TrimPrefix(key, "/")

	reader, err := g.bucket.Object(key).NewReader(ctx)
	if err != nil {
		return fmt.Errorf("Object(%q).NewReader: %w", key, err)
	}
	defer reader.Close()

	f, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("os.Create: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, reader); err != nil {
		return fmt.Errorf("ReadFrom: %w", err)
	}

	return f.Close()
}

// Upload writes r to key with the given content type
func (g *GCS) Upload(ctx context.Context, key string, r io.Reader, _ int64, contentType string) error {
	key = strings.TrimPrefix(key, "/")

	writer := g.bucket.Object(key).NewWriter(ctx)
	writer.ContentType = contentType

	if _, err := io.Copy(writer, r); err != nil {
		writer.Close()
		return fmt.Errorf("Writer.Write: %w", err)
	}

	if err := writer.Close(); err != nil {
		return fmt.Errorf("Writer.Close: %w", err)
	}

	return nil
}

// Delete removes the object. A missing object is not an error.
func (g *GCS) Delete(ctx context.Context, key string) error {
	err := g.bucket.Object(key).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// Close releases the underlying client
func (g *GCS) Close() error {
	return g.client.Close()
}
