package cache

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"go.uber.org/zap"

	"github.com/goliatone/go-memoize/internal/cachestore"
)

// Config holds the settings of a bounded store.
type Config struct {
	// MaxEntries is the maximum number of distinct keys the store holds.
	// Inserting beyond it evicts the oldest-inserted key. Must be > 0.
	MaxEntries int

	// TTL is the entry lifetime. Zero disables expiry entirely; a negative
	// value makes every entry immediately stale, which disables caching
	// while keeping the call path intact.
	TTL time.Duration
}

// DefaultConfig returns a Config populated with sensible defaults:
// 1024 entries, no expiry.
func DefaultConfig() Config {
	return Config{MaxEntries: 1024}
}

// Validate checks whether the configuration values are valid.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.MaxEntries, validation.Required, validation.Min(1)),
	)
}

// NewStore constructs the default in-memory bounded store.
func NewStore(cfg Config) (Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cachestore.NewLRI[string, any](cfg.MaxEntries, cfg.TTL), nil
}

// NewTieredStore constructs a store backed by a memory tier plus a
// persistent backend. Backend reads happen synchronously on a memory miss;
// backend writes and removals are fire-and-forget. A nil logger is replaced
// with a no-op logger.
func NewTieredStore(cfg Config, namespace string, backend Backend, logger *zap.Logger) (Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cachestore.NewTiered(cfg.MaxEntries, cfg.TTL, namespace, backend, logger), nil
}

// SturdycConfig holds the settings of the sturdyc-backed store variant.
type SturdycConfig struct {
	// Capacity is the maximum number of entries across all shards.
	Capacity int

	// NumShards controls lock granularity for concurrent access.
	NumShards int

	// TTL is the entry lifetime. Must be greater than 0.
	TTL time.Duration

	// EvictionPercentage is the share of a shard evicted when it fills,
	// between 1 and 100.
	EvictionPercentage int
}

// DefaultSturdycConfig mirrors the defaults we run in services that prefer
// throughput over strict insertion-order eviction.
func DefaultSturdycConfig() SturdycConfig {
	return SturdycConfig{
		Capacity:           10000,
		NumShards:          256,
		TTL:                5 * time.Minute,
		EvictionPercentage: 10,
	}
}

// Validate checks whether the configuration values are valid.
func (c SturdycConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Capacity, validation.Required, validation.Min(1)),
		validation.Field(&c.NumShards, validation.Required, validation.Min(1)),
		validation.Field(&c.TTL, validation.Required, validation.Min(time.Duration(1))),
		validation.Field(&c.EvictionPercentage, validation.Required, validation.Min(1), validation.Max(100)),
	)
}

// NewSturdycStore constructs the sturdyc-backed store variant. Unlike the
// default store it evicts in shard-sized batches rather than strictly
// oldest-first, which suits high-throughput call sites that tolerate
// approximate eviction.
func NewSturdycStore(cfg SturdycConfig) (Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cachestore.NewSturdyc(cfg.Capacity, cfg.NumShards, cfg.TTL, cfg.EvictionPercentage), nil
}
