// Package digest implements the SHA3-512 hash used for cache key
// fingerprinting.
//
// The implementation is deliberately self-contained: cache keys derived from
// these digests may be persisted by external backends, so the exact output —
// down to the nibble ordering of the hex rendition — must stay stable across
// releases and must not drift with a dependency upgrade.
//
// # Usage
//
//	sum := digest.Sum("payload")
//	// sum is 128 lowercase hex characters
//
// Sum is a pure function: it never fails, including on the empty string, and
// equal inputs always produce equal output. The digest is used for
// deduplication only; it is not a substitute for a MAC or a signature.
package digest
