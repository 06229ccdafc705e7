// Package kv defines the key-value capability the lifecycle manager
// consumes: get/put/delete plus list-by-prefix, with per-key TTL.
//
// The contract is deliberately small. Values are opaque strings, writes
// are idempotent given the same key, and the backing store is assumed to
// be at least read-your-writes consistent. Nothing here promises
// multi-key atomicity; callers that batch operations own the
// partial-failure semantics.
package kv

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable wraps transport or backend faults. It is the only error
// class a [Store] surfaces for infrastructure problems, so callers can
// separate "the store is down" from "the key is absent".
var ErrUnavailable = errors.New("kv store unavailable")

// Store is the persistence capability consumed by the lifecycle manager.
// Implementations must be safe for concurrent use.
type Store interface {
	// Get returns the value for key, or found=false when the key is
	// absent or expired.
	Get(ctx context.Context, key string) (value string, found bool, err error)

	// Put writes value under key. A ttl > 0 bounds the key's lifetime;
	// ttl == 0 persists without expiry.
	Put(ctx context.Context, key, value string, ttl time.Duration) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// ListKeysByPrefix returns every live key starting with prefix. The
	// enumeration is eventually consistent: keys created concurrently
	// with the scan may or may not appear.
	ListKeysByPrefix(ctx context.Context, prefix string) ([]string, error)
}
