// Package blobstore provides opaque byte storage adapters keyed by string
// paths. The vault uses two independent backends: an S3 bucket for the
// encrypted file blobs and a MinIO bucket for wrapped keys. Both are
// reached through the same Store interface so they can be swapped or faked.
package blobstore

import (
	"context"
	"time"
)

// Store is a minimal object-storage capability: put/get/exists/delete plus
// presigned direct-download URLs. Get returns common.ErrNotFound for a
// missing key; Delete of an absent key is a no-op, not an error.
type Store interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Exists(ctx context.Context, key string) (bool, error)
	Delete(ctx context.Context, key string) error

	// PresignGet returns a time-limited URL for fetching the raw stored
	// object directly from the backend. The object is served as stored,
	// i.e. still encrypted.
	PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error)
}
