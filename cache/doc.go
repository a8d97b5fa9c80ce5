// Package cache defines the contracts of the memoization core: bounded
// stores, persistent backends and cache-key derivation.
//
// # Overview
//
// The package exports three main surfaces:
//
//   - Store: a bounded, TTL-aware key/value store with least-recently-inserted
//     eviction
//   - Backend: the contract an external persistent tier must satisfy
//   - KeyDeriver: turns a receiver plus an argument list into a stable string
//     key
//
// Implementations live in internal/cachestore and are constructed through
// NewStore, NewTieredStore and NewSturdycStore.
//
// # Key derivation
//
// Two derivers are provided. The digest deriver canonically encodes
// [receiver, args] and hashes the JSON text with SHA3-512, giving
// collision-resistant 128-character keys. The fast deriver hashes the same
// canonical text with xxhash into a short base-36 key prefixed by the input
// length; it trades collision resistance for speed and must not be used when
// inputs may be adversarially chosen.
//
// Both honor the three key modes:
//
//   - KeyContextSensitive: key covers receiver and arguments
//   - KeyArgsOnly: key covers arguments only
//   - KeyConstant: key is always "" — every call shares one slot
//
// # Eviction model
//
// Stores evict by insertion order only: reads never promote an entry, and
// refreshing an existing key keeps its original order slot. An entry past its
// TTL reads as a miss but keeps occupying capacity until overwritten or
// evicted.
package cache
