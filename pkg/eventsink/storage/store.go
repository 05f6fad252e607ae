// Package storage provides the durable key-value stores that back the
// client's pending events, batches, and batch index.
package storage

import "errors"

// Store persists opaque values under string keys.
// Implementations must be safe for concurrent use. All implementations
// except MemoryStore survive process restarts.
type Store interface {
	// Get retrieves the value stored under key.
	// Returns ErrNotFound if the key has never been set.
	Get(key string) ([]byte, error)

	// Set stores value under key, overwriting any previous value.
	Set(key string, value []byte) error

	// Delete removes a key.
	// Returns nil if the key doesn't exist.
	Delete(key string) error

	// Close releases any resources (connections, files).
	Close() error
}

// Sentinel errors for store operations.
var (
	// ErrNotFound indicates a key has no stored value.
	ErrNotFound = errors.New("storage: key not found")

	// ErrStoreClosed indicates the store has been closed.
	ErrStoreClosed = errors.New("storage: store closed")
)
