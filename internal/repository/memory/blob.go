package memory

import (
	"context"
	"sync"

	"github.com/rehablink/physio-api/internal/repository"
)

type blobStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

// NewBlobStore returns a volatile in-memory blob store, used in tests and
// for ephemeral deployments.
func NewBlobStore() repository.BlobStore {
	return &blobStore{blobs: make(map[string][]byte)}
}

func (s *blobStore) Save(_ context.Context, collection string, blob []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]byte, len(blob))
	copy(cp, blob)
	s.blobs[collection] = cp
	return nil
}

func (s *blobStore) Load(_ context.Context, collection string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	blob, ok := s.blobs[collection]
	if !ok {
		return nil, repository.ErrNoBlob
	}
	cp := make([]byte, len(blob))
	copy(cp, blob)
	return cp, nil
}

func (s *blobStore) Close() error {
	return nil
}
