package memoize

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"go.uber.org/zap"

	"github.com/goliatone/go-memoize/cache"
	"github.com/goliatone/go-memoize/canonical"
)

// Config holds the settings of a Memoizer.
type Config struct {
	// MaxEntries bounds each store. Must be > 0.
	MaxEntries int

	// MaxReceivers bounds how many distinct receivers get their own store.
	// Zero disables per-receiver stores: every call shares one store, which
	// is the right shape for plain function memoization.
	//
	// When combined with Backend, each receiver's store carries the same
	// persistent tier under the shared Namespace; the persistent tier tells
	// entries apart only through the derived key, so keep a key mode that
	// covers receiver state (the default) when both are set.
	MaxReceivers int

	// TTL is the entry lifetime. Zero disables expiry; a negative value makes
	// every entry immediately stale, disabling caching without changing the
	// call path.
	TTL time.Duration

	// Mode selects what feeds the cache key. Defaults to KeyContextSensitive.
	Mode cache.KeyMode

	// Deriver overrides key derivation entirely. When nil, the digest deriver
	// is used, or the fast deriver when FastKeys is set.
	Deriver cache.KeyDeriver

	// Registry customizes canonical encoding for key derivation. Nil selects
	// the default registry.
	Registry *canonical.Registry

	// FastKeys switches the built-in deriver from SHA3-512 digests to short
	// xxhash keys. Not collision resistant; see cache.FastKeyDeriver.
	FastKeys bool

	// Backend, when set, adds a persistent tier under the store. All backend
	// traffic is best-effort.
	Backend cache.Backend

	// Namespace scopes persistent entries. Defaults to a name derived from
	// the module when empty.
	Namespace string

	// SingleFlight de-duplicates concurrent computations of the same key so
	// a miss storm runs the computation once. Off by default.
	SingleFlight bool

	// Stores, when set, receives every store the Memoizer creates so callers
	// can bulk-invalidate across memoizers.
	Stores *StoreList

	// Logger receives side-channel diagnostics. Nil means no logging.
	Logger *zap.Logger
}

// DefaultConfig returns a Config with the defaults used across services:
// a single shared store of 1024 entries, no expiry, digest keys derived from
// receiver state and arguments.
func DefaultConfig() Config {
	return Config{
		MaxEntries: 1024,
		Mode:       cache.KeyContextSensitive,
	}
}

// Validate checks whether the configuration values are valid.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.MaxEntries, validation.Required, validation.Min(1)),
		validation.Field(&c.MaxReceivers, validation.Min(0)),
		validation.Field(&c.Mode, validation.In(
			cache.KeyContextSensitive,
			cache.KeyArgsOnly,
			cache.KeyConstant,
		)),
	)
}
