package cachestore

import (
	"time"

	"github.com/viccon/sturdyc"
)

// Sturdyc adapts a sturdyc client to the bounded-store shape. It trades the
// strict insertion-order eviction of LRI for sharded storage with batch
// eviction, which holds up better under heavy concurrent write load.
type Sturdyc struct {
	client *sturdyc.Client[any]
}

// NewSturdyc creates the adapter. Parameters map directly onto
// sturdyc.New: total capacity, shard count, entry TTL and the percentage of
// a shard evicted when it fills.
func NewSturdyc(capacity, numShards int, ttl time.Duration, evictionPercentage int) *Sturdyc {
	return &Sturdyc{
		client: sturdyc.New[any](capacity, numShards, ttl, evictionPercentage),
	}
}

// Get returns the live value stored under key.
func (s *Sturdyc) Get(key string) (any, bool) {
	return s.client.Get(key)
}

// Put inserts or refreshes key.
func (s *Sturdyc) Put(key string, value any) {
	s.client.Set(key, value)
}

// Delete removes key.
func (s *Sturdyc) Delete(key string) {
	s.client.Delete(key)
}

// Clear removes every entry. sturdyc exposes no bulk reset, so this walks
// the current key set.
func (s *Sturdyc) Clear() {
	for _, key := range s.client.ScanKeys() {
		s.client.Delete(key)
	}
}

// Len reports the number of entries.
func (s *Sturdyc) Len() int {
	return s.client.Size()
}
