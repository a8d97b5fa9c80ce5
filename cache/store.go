package cache

import (
	"context"
	"time"
)

// Store is a bounded key/value cache with least-recently-inserted eviction.
//
// Contract:
//   - Concurrency: implementations must be safe for concurrent use.
//   - Get returns (nil, false) for absent keys and for entries past their
//     TTL; a stale entry is not removed by the read.
//   - Put inserts or refreshes; refreshing never changes the key's eviction
//     order slot. Inserting a new key at capacity evicts the oldest-inserted
//     key first.
type Store interface {
	Get(key string) (any, bool)
	Put(key string, value any)
	Delete(key string)
	Clear()
	Len() int
}

// Backend is the contract an external persistent tier must satisfy. All
// three hooks are best-effort from the cache's point of view: every error is
// swallowed by the caller, logged at most, and never surfaces to the user of
// the memoized function.
type Backend interface {
	// Persist stores a computed value under (namespace, key).
	Persist(ctx context.Context, namespace, key string, value any, storedAt time.Time) error

	// TryRead returns the stored value and its original store time, with
	// ok=false when the pair is absent.
	TryRead(ctx context.Context, namespace, key string) (value any, storedAt time.Time, ok bool, err error)

	// Remove deletes the pair. Removing an absent pair is not an error.
	Remove(ctx context.Context, namespace, key string) error
}
