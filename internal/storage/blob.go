package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
)

var ErrNotFound = errors.New("blob not found")

// BlobStore holds the question-bank collection files.
type BlobStore interface {
	Put(ctx context.Context, key string, r io.Reader) (string, error) // returns canonical key
	Get(ctx context.Context, key string) (io.ReadCloser, error)
}

// Options selects and configures a driver.
type Options struct {
	Driver   string // fs|minio
	BasePath string // fs

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
}

func Open(ctx context.Context, o Options) (BlobStore, error) {
	switch o.Driver {
	case "", "fs":
		return NewFSStore(o.BasePath)
	case "minio":
		return NewMinioStore(ctx, o)
	default:
		return nil, fmt.Errorf("unsupported blob driver: %s", o.Driver)
	}
}
