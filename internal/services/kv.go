package services

import "context"

// KV is the key-value namespace backing all collections. Each collection store
// owns exactly one key and overwrites the whole value on every mutation, so the
// backend only needs plain get/put semantics, no compare-and-swap.
type KV interface {
	// Get returns the value stored under key, or ErrKeyNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put stores value under key, replacing any previous value.
	Put(ctx context.Context, key string, value []byte) error

	// Keys returns all keys starting with prefix.
	Keys(ctx context.Context, prefix string) ([]string, error)
}
