package config

import (
	"fmt"

	"github.com/rehablink/physio-api/internal/repository"
	"github.com/rehablink/physio-api/internal/repository/memory"
	"github.com/rehablink/physio-api/internal/repository/postgres"
	redisrepo "github.com/rehablink/physio-api/internal/repository/redis"
	"github.com/rehablink/physio-api/pkg/security"
)

// NewBlobStore builds the configured blob backend, wrapped with encryption
// when a key is set.
func (c *Config) NewBlobStore() (repository.BlobStore, error) {
	var (
		blobs repository.BlobStore
		err   error
	)
	switch c.Storage.Backend {
	case BackendPostgres:
		blobs, err = postgres.NewBlobStore(c.Database)
	case BackendRedis:
		blobs, err = redisrepo.NewBlobStore(c.Redis.ToBlobConfig())
	case BackendMemory:
		blobs = memory.NewBlobStore()
	default:
		return nil, fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	if err != nil {
		return nil, err
	}

	if c.Storage.EncryptionKey != "" {
		key, err := security.ParseKey(c.Storage.EncryptionKey)
		if err != nil {
			return nil, err
		}
		encryptor, err := security.NewAESEncryptor(key)
		if err != nil {
			return nil, err
		}
		blobs = repository.NewEncryptedStore(blobs, encryptor)
	}
	return blobs, nil
}
