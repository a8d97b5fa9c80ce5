package memoize

import (
	"context"

	"github.com/puzpuzpuz/xsync/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/goliatone/go-memoize/cache"
	"github.com/goliatone/go-memoize/internal/cachestore"
)

// Compute produces the value to cache. It runs only on a miss.
type Compute func(ctx context.Context) (any, error)

// Memoizer caches computation results behind derived keys.
type Memoizer struct {
	deriver   cache.KeyDeriver
	store     cache.Store
	receivers *cachestore.Receivers
	keys      *xsync.MapOf[string, struct{}]
	group     *singleflight.Group
	logger    *zap.Logger
}

// New creates a Memoizer from the configuration.
func New(cfg Config) (*Memoizer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	deriver := cfg.Deriver
	if deriver == nil {
		if cfg.FastKeys {
			deriver = cache.NewFastKeyDeriver(cfg.Mode, cfg.Registry)
		} else {
			deriver = cache.NewDigestKeyDeriver(cfg.Mode, cfg.Registry)
		}
	}

	storeCfg := cache.Config{MaxEntries: cfg.MaxEntries, TTL: cfg.TTL}
	namespace := cfg.Namespace
	if namespace == "" {
		namespace = "memoize"
	}

	var store cache.Store
	var err error
	if cfg.Backend != nil {
		store, err = cache.NewTieredStore(storeCfg, namespace, cfg.Backend, logger)
	} else {
		store, err = cache.NewStore(storeCfg)
	}
	if err != nil {
		return nil, err
	}

	m := &Memoizer{
		deriver: deriver,
		store:   store,
		keys:    xsync.NewMapOf[string, struct{}](),
		logger:  logger,
	}
	if cfg.MaxReceivers > 0 {
		// Per-receiver stores carry the same persistent tier as the shared
		// store, so a configured backend sees receiver-bound traffic too.
		factory := func() cachestore.Store {
			if cfg.Backend != nil {
				return cachestore.NewTiered(cfg.MaxEntries, cfg.TTL, namespace, cfg.Backend, logger)
			}
			return cachestore.NewLRI[string, any](cfg.MaxEntries, cfg.TTL)
		}
		m.receivers = cachestore.NewReceivers(cfg.MaxReceivers, factory)
	}
	if cfg.SingleFlight {
		m.group = &singleflight.Group{}
	}
	if cfg.Stores != nil {
		cfg.Stores.Add(m)
	}
	return m, nil
}

// Do returns the cached result for (receiver, args), running compute on a
// miss and storing its result. A compute error propagates unchanged and
// leaves no cache entry behind.
func (m *Memoizer) Do(ctx context.Context, receiver any, args []any, compute Compute) (any, error) {
	_, value, err := m.do(ctx, receiver, args, compute)
	return value, err
}

func (m *Memoizer) do(ctx context.Context, receiver any, args []any, compute Compute) (string, any, error) {
	key, err := m.deriver.DeriveKey(receiver, args)
	if err != nil {
		return "", nil, err
	}

	store := m.storeFor(receiver)
	if value, ok := store.Get(key); ok {
		return key, value, nil
	}

	value, err := m.compute(ctx, key, compute)
	if err != nil {
		return key, nil, err
	}

	store.Put(key, value)
	m.keys.Store(key, struct{}{})
	return key, value, nil
}

// compute runs the computation, collapsing concurrent misses on the same key
// into one call when single-flight is enabled.
func (m *Memoizer) compute(ctx context.Context, key string, compute Compute) (any, error) {
	if m.group == nil {
		return compute(ctx)
	}
	value, err, _ := m.group.Do(key, func() (any, error) {
		return compute(ctx)
	})
	return value, err
}

// storeFor picks the per-receiver store when receiver stores are enabled and
// a receiver is present, the shared store otherwise.
func (m *Memoizer) storeFor(receiver any) cache.Store {
	if m.receivers != nil && receiver != nil {
		return m.receivers.For(receiver)
	}
	return m.store
}

// Keys returns the keys stored through this Memoizer, in no particular
// order. Evicted or expired keys may still be listed until invalidated.
func (m *Memoizer) Keys() []string {
	keys := make([]string, 0, m.keys.Size())
	m.keys.Range(func(key string, _ struct{}) bool {
		keys = append(keys, key)
		return true
	})
	return keys
}

// Invalidate removes a single key from the shared store.
func (m *Memoizer) Invalidate(key string) {
	m.store.Delete(key)
	m.keys.Delete(key)
}

// Clear drops every cached entry: the shared store, all per-receiver stores
// and the key registry.
func (m *Memoizer) Clear() {
	m.store.Clear()
	if m.receivers != nil {
		m.receivers.Clear()
	}
	m.keys.Clear()
}

// Len reports the shared store's entry count.
func (m *Memoizer) Len() int {
	return m.store.Len()
}

type flusher interface {
	Flush()
}

// Flush waits for in-flight persistence work when a backend is configured,
// across the shared store and every per-receiver store. Without a backend
// it is a no-op.
func (m *Memoizer) Flush() {
	if f, ok := m.store.(flusher); ok {
		f.Flush()
	}
	if m.receivers != nil {
		m.receivers.Flush()
	}
}
