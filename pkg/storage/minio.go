package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinIO is an ObjectStore backed by any S3-compatible MinIO endpoint
type MinIO struct {
	client      *minio.Client
	bucketName  string
	urlLifetime time.Duration
}

// NewMinIO connects to the endpoint and checks that the bucket exists
func NewMinIO(ctx context.Context, opts MinIOOptions, bucketName string, urlLifetime time.Duration) (*MinIO, error) {
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	exists, err := client.BucketExists(ctx, bucketName)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("bucket %s does not exist", bucketName)
	}

	return &MinIO{
		client:      client,
		bucketName:  bucketName,
		urlLifetime: urlLifetime,
	}, nil
}

// List returns every object in the bucket
func (m *MinIO) List(ctx context.Context) ([]ObjectInfo, error) {
	var objects []ObjectInfo

	for obj := range m.client.ListObjects(ctx, m.bucketName, minio.ListObjectsOptions{Recursive: true}) {
		if obj.Err != nil {
			return objects, fmt.Errorf("error iterating objects: %w", obj.Err)
		}
		objects = append(objects, ObjectInfo{Key: obj.Key, Size: obj.Size})
	}

	return objects, nil
}

// URL creates a presigned GET URL for the object
func (m *MinIO) URL(ctx context.Context, key string) (string, error) {
	u, err := m.client.PresignedGetObject(ctx, m.bucketName, key, m.urlLifetime, nil)
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", key, err)
	}
	return u.String(), nil
}

// Download copies the object into the local file dst
func (m *MinIO) Download(ctx context.Context, key, dst string) error {
	if err := m.client.FGetObject(ctx, m.bucketName, key, dst, minio.GetObjectOptions{}); err != nil {
		return fmt.Errorf("download %s: %w", key, err)
	}
	return nil
}

// Upload writes r to key with the given content type
func (m *MinIO) Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	_, err := m.client.PutObject(ctx, m.bucketName, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("upload %s: %w", key, err)
	}
	return nil
}

// Delete removes the object. MinIO reports success for missing keys.
func (m *MinIO) Delete(ctx context.Context, key string) error {
	if err := m.client.RemoveObject(ctx, m.bucketName, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// Close is a no-op; the MinIO client holds no resources that need releasing
func (m *MinIO) Close() error {
	return nil
}
