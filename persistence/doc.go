// Package persistence provides a database-backed cache.Backend so memoized
// results survive process restarts.
//
// Values are stored msgpack-encoded under a (namespace, cache_key) composite
// key. Decoding restores msgpack's generic shapes, so values read back from
// the database come out as maps, slices and scalars rather than the concrete
// Go types that went in; callers that need concrete types re-decode from the
// stored payload themselves.
//
// The backend is best-effort by contract: the cache layer swallows every
// error this package returns.
package persistence
