package repository

import (
	"context"
	"fmt"

	"github.com/rehablink/physio-api/pkg/security"
)

type encryptedStore struct {
	inner     BlobStore
	encryptor security.Encryptor
}

// NewEncryptedStore wraps a BlobStore so collection blobs are encrypted at
// rest. Clinical data never reaches the backend in plaintext.
func NewEncryptedStore(inner BlobStore, encryptor security.Encryptor) BlobStore {
	return &encryptedStore{inner: inner, encryptor: encryptor}
}

func (s *encryptedStore) Save(ctx context.Context, collection string, blob []byte) error {
	sealed, err := s.encryptor.Encrypt(blob)
	if err != nil {
		return fmt.Errorf("failed to encrypt collection %s: %w", collection, err)
	}
	return s.inner.Save(ctx, collection, sealed)
}

func (s *encryptedStore) Load(ctx context.Context, collection string) ([]byte, error) {
	sealed, err := s.inner.Load(ctx, collection)
	if err != nil {
		return nil, err
	}
	blob, err := s.encryptor.Decrypt(sealed)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt collection %s: %w", collection, err)
	}
	return blob, nil
}

func (s *encryptedStore) Close() error {
	return s.inner.Close()
}
