// Package kvstore is the persistent key/value layer standing in for browser
// local storage. Each key holds one serialized collection.
package kvstore

import "context"

// Well-known collection keys.
const (
	KeyPhotos    = "photos"
	KeyLayout    = "exhibitionLayout"
	KeyMapAlbums = "mapAlbums"
)

// Store is the interface for raw key/value persistence.
// Consumers should depend on this interface rather than a concrete backend.
type Store interface {
	// Get returns the stored bytes, or apperr.ErrNotFound for a missing key.
	Get(ctx context.Context, key string) ([]byte, error)
	// Put overwrites the value at key in full.
	Put(ctx context.Context, key string, value []byte) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Checksum returns the digest of the stored value, or "" for a missing key.
	Checksum(ctx context.Context, key string) (string, error)
	Close() error
}

// Verify both backends satisfy Store at compile time.
var (
	_ Store = (*SQLite)(nil)
	_ Store = (*FS)(nil)
)
