package storage

import (
	"context"
	"fmt"
	"io"
	"path"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioStore keeps collection files in an S3-compatible bucket.
type MinioStore struct {
	client *minio.Client
	bucket string
}

func NewMinioStore(ctx context.Context, o Options) (*MinioStore, error) {
	client, err := minio.New(o.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(o.MinioAccessKey, o.MinioSecretKey, ""),
		Secure: o.MinioUseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}
	ok, err := client.BucketExists(ctx, o.MinioBucket)
	if err != nil {
		return nil, fmt.Errorf("minio bucket check: %w", err)
	}
	if !ok {
		if err := client.MakeBucket(ctx, o.MinioBucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("minio make bucket: %w", err)
		}
	}
	return &MinioStore{client: client, bucket: o.MinioBucket}, nil
}

func (s *MinioStore) Put(ctx context.Context, key string, r io.Reader) (string, error) {
	key = path.Clean("/" + key)[1:]
	_, err := s.client.PutObject(ctx, s.bucket, key, r, -1, minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return "", err
	}
	return key, nil
}

func (s *MinioStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	key = path.Clean("/" + key)[1:]
	if _, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{}); err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
}
