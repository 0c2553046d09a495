package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"soundwave/config"
	"soundwave/logger"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioStore keeps uploads in a MinIO bucket under kind-prefixed object
// names.
type MinioStore struct {
	client *minio.Client
	bucket string
}

// NewMinioStore connects to MinIO and ensures the bucket exists.
func NewMinioStore(cfg *config.Config) (*MinioStore, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
		Region: cfg.MinioRegion,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.MinioBucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket %s: %w", cfg.MinioBucket, err)
	}
	if !exists {
		err = client.MakeBucket(ctx, cfg.MinioBucket, minio.MakeBucketOptions{
			Region: cfg.MinioRegion,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create bucket %s: %w", cfg.MinioBucket, err)
		}
		logger.Info("created MinIO bucket", logger.String("bucket", cfg.MinioBucket))
	}

	return &MinioStore{client: client, bucket: cfg.MinioBucket}, nil
}

func objectName(kind Kind, fileName string) string {
	return string(kind) + "/" + fileName
}

// Save uploads the file to the bucket and returns its public URL path.
func (s *MinioStore) Save(ctx context.Context, kind Kind, fileName string, r io.Reader, size int64, contentType string) (string, error) {
	if err := checkFileName(fileName); err != nil {
		return "", err
	}

	_, err := s.client.PutObject(ctx, s.bucket, objectName(kind, fileName), r, size,
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s to MinIO: %w", fileName, err)
	}
	return PublicURL(kind, fileName), nil
}

// Open fetches the object content and its content type.
func (s *MinioStore) Open(ctx context.Context, kind Kind, fileName string) (io.ReadCloser, string, error) {
	if err := checkFileName(fileName); err != nil {
		return nil, "", err
	}

	name := objectName(kind, fileName)

	stat, err := s.client.StatObject(ctx, s.bucket, name, minio.StatObjectOptions{})
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, "", ErrFileNotFound
		}
		return nil, "", fmt.Errorf("failed to stat %s in MinIO: %w", fileName, err)
	}

	object, err := s.client.GetObject(ctx, s.bucket, name, minio.GetObjectOptions{})
	if err != nil {
		return nil, "", fmt.Errorf("failed to get %s from MinIO: %w", fileName, err)
	}
	return object, stat.ContentType, nil
}

// Delete removes the object from the bucket.
func (s *MinioStore) Delete(ctx context.Context, kind Kind, fileName string) error {
	if err := checkFileName(fileName); err != nil {
		return err
	}

	name := objectName(kind, fileName)

	_, err := s.client.StatObject(ctx, s.bucket, name, minio.StatObjectOptions{})
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return ErrFileNotFound
		}
		return fmt.Errorf("failed to stat %s in MinIO: %w", fileName, err)
	}

	if err := s.client.RemoveObject(ctx, s.bucket, name, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete %s from MinIO: %w", fileName, err)
	}
	return nil
}
