package storage

import (
	"context"
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"voicepipe/internal/config"
)

// MinioStore implements BlobStore against a MinIO/S3 bucket.
type MinioStore struct {
	client *minio.Client
	bucket string
}

// NewMinioStore connects to the configured endpoint.
func NewMinioStore(cfg config.MinioConfig) (*MinioStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to object storage: %w", err)
	}

	return &MinioStore{client: client, bucket: cfg.Bucket}, nil
}

// Stat returns the object size in bytes.
func (s *MinioStore) Stat(ctx context.Context, path string) (int64, error) {
	info, err := s.client.StatObject(ctx, s.bucket, path, minio.StatObjectOptions{})
	if err != nil {
		return 0, fmt.Errorf("stat object %s: %w", path, err)
	}
	return info.Size, nil
}

// Download copies the object to destPath.
func (s *MinioStore) Download(ctx context.Context, path, destPath string) error {
	if err := s.client.FGetObject(ctx, s.bucket, path, destPath, minio.GetObjectOptions{}); err != nil {
		return fmt.Errorf("download object %s: %w", path, err)
	}
	return nil
}
