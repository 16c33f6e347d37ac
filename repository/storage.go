package repository

import (
	"context"
	"errors"
)

// ErrKeyNotFound is returned by a KeyValueStore when a key has never been written.
var ErrKeyNotFound = errors.New("key not found")

// KeyValueStore is the persistence backend behind the storage adapter.
// Values are opaque bytes; the adapter owns the JSON encoding.
type KeyValueStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	Close() error
}
