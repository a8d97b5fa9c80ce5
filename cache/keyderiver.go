package cache

import (
	"strconv"

	"github.com/cespare/xxhash/v2"

	"github.com/goliatone/go-memoize/canonical"
	"github.com/goliatone/go-memoize/digest"
)

// KeyMode selects which parts of a call feed the cache key.
type KeyMode int

const (
	// KeyContextSensitive derives the key from receiver state and arguments.
	KeyContextSensitive KeyMode = iota

	// KeyArgsOnly derives the key from arguments alone; receiver state is
	// ignored. Used for plain function memoization.
	KeyArgsOnly

	// KeyConstant always yields the empty key: every call collapses into a
	// single cache slot ("compute once, ever" semantics).
	KeyConstant
)

// KeyDeriver builds a cache key from receiver state and an argument list.
//
// Contract:
//   - Determinism: equivalent receiver/args must produce the same key across
//     calls and across processes.
//   - Errors: a value the canonical encoder cannot represent must surface as
//     an error, never as a silently truncated key.
type KeyDeriver interface {
	DeriveKey(receiver any, args []any) (string, error)
}

// DigestKeyDeriver produces 128-hex-character SHA3-512 keys over the
// canonical JSON encoding of [receiver, args]. This is the
// collision-resistant default.
type DigestKeyDeriver struct {
	mode     KeyMode
	registry *canonical.Registry
}

// NewDigestKeyDeriver creates the default deriver. A nil registry selects
// the canonical default registry.
func NewDigestKeyDeriver(mode KeyMode, registry *canonical.Registry) *DigestKeyDeriver {
	return &DigestKeyDeriver{mode: mode, registry: registry}
}

// DeriveKey implements KeyDeriver.
func (d *DigestKeyDeriver) DeriveKey(receiver any, args []any) (string, error) {
	payload, ok, err := keyPayload(d.mode, d.registry, receiver, args)
	if err != nil || !ok {
		return "", err
	}
	return digest.Sum(payload), nil
}

// FastKeyDeriver produces short keys from a 64-bit xxhash of the canonical
// JSON encoding, rendered base-36 and prefixed with the payload length.
//
// The fast deriver is not collision resistant. It must not be used when
// receivers or arguments can be adversarially influenced, or when a key
// collision across distinct inputs would return an incorrect result to a
// caller expecting correctness rather than throughput.
type FastKeyDeriver struct {
	mode     KeyMode
	registry *canonical.Registry
}

// NewFastKeyDeriver creates the throughput-oriented deriver. A nil registry
// selects the canonical default registry.
func NewFastKeyDeriver(mode KeyMode, registry *canonical.Registry) *FastKeyDeriver {
	return &FastKeyDeriver{mode: mode, registry: registry}
}

// DeriveKey implements KeyDeriver.
func (d *FastKeyDeriver) DeriveKey(receiver any, args []any) (string, error) {
	payload, ok, err := keyPayload(d.mode, d.registry, receiver, args)
	if err != nil || !ok {
		return "", err
	}
	sum := xxhash.Sum64String(payload)
	return strconv.Itoa(len(payload)) + ":" + strconv.FormatUint(sum, 36), nil
}

// keyPayload builds the canonical JSON text the key is hashed from.
// ok=false signals the constant mode, whose key is always empty.
func keyPayload(mode KeyMode, registry *canonical.Registry, receiver any, args []any) (string, bool, error) {
	var subject any
	switch mode {
	case KeyConstant:
		return "", false, nil
	case KeyArgsOnly:
		subject = args
	default:
		subject = []any{receiver, args}
	}

	payload, err := canonical.EncodeJSON(subject, registry)
	if err != nil {
		return "", false, err
	}
	return payload, true, nil
}

var (
	_ KeyDeriver = (*DigestKeyDeriver)(nil)
	_ KeyDeriver = (*FastKeyDeriver)(nil)
)
