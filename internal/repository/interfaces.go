package repository

import (
	"context"
	"errors"
)

// ErrNoBlob is returned by Load when a collection has never been saved.
var ErrNoBlob = errors.New("no blob stored for collection")

// BlobStore is the durable key-value contract the entity store persists
// through. Collections are stored as opaque serialized blobs keyed by name;
// the backend never inspects their contents.
type BlobStore interface {
	Save(ctx context.Context, collection string, blob []byte) error
	Load(ctx context.Context, collection string) ([]byte, error)
	Close() error
}
