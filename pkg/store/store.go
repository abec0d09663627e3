// Package store provides the key-value persistence used for daily focus
// records. The aggregation engine only sees the Store interface; backends
// cover in-memory (tests), SQLite (single-teacher default) and Postgres.
package store

import "errors"

// ErrNotFound is returned when a key has no stored value.
var ErrNotFound = errors.New("key not found")

// Store is a minimal key-value interface. Values are opaque JSON blobs.
type Store interface {
	Get(key string) ([]byte, error)
	Put(key string, value []byte) error
	Delete(key string) error
	Close() error
}
