package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/lric3/recipes/config"
)

// ObjectStorage defines common object operations across backends. Recipe
// images are the only objects the app stores.
type ObjectStorage interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	Bucket() string
}

// New selects and constructs the configured storage backend.
func New(ctx context.Context, cfg config.StorageConfig) (ObjectStorage, error) {
	switch cfg.Backend {
	case config.StorageBackendMinio:
		return NewMinioClient(cfg.Minio)
	case config.StorageBackendGCS:
		return NewGCSClient(ctx, cfg.GCS)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
