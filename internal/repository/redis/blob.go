package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rehablink/physio-api/internal/repository"
)

const keyPrefix = "physio:collections:"

type Config struct {
	URL          string        `yaml:"url"`
	MaxRetries   int           `yaml:"max_retries"`
	RetryBackoff time.Duration `yaml:"retry_backoff"`
	PoolSize     int           `yaml:"pool_size"`
	MinIdleConns int           `yaml:"min_idle_conns"`
}

type blobStore struct {
	client *redis.Client
}

// NewBlobStore connects to Redis; each collection is a single key holding
// the serialized blob.
func NewBlobStore(cfg Config) (repository.BlobStore, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	opts.MaxRetries = cfg.MaxRetries
	opts.MinRetryBackoff = cfg.RetryBackoff
	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &blobStore{client: client}, nil
}

func (s *blobStore) Save(ctx context.Context, collection string, blob []byte) error {
	if err := s.client.Set(ctx, keyPrefix+collection, blob, 0).Err(); err != nil {
		return fmt.Errorf("failed to save collection %s: %w", collection, err)
	}
	return nil
}

func (s *blobStore) Load(ctx context.Context, collection string) ([]byte, error) {
	blob, err := s.client.Get(ctx, keyPrefix+collection).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, repository.ErrNoBlob
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load collection %s: %w", collection, err)
	}
	return blob, nil
}

func (s *blobStore) Close() error {
	return s.client.Close()
}
