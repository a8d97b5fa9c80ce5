package cachestore

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Backend mirrors the persistent-tier contract of the cache package. It is
// declared locally so this package does not depend on its consumer; any
// value satisfying the public contract satisfies this one.
type Backend interface {
	Persist(ctx context.Context, namespace, key string, value any, storedAt time.Time) error
	TryRead(ctx context.Context, namespace, key string) (any, time.Time, bool, error)
	Remove(ctx context.Context, namespace, key string) error
}

// Tiered layers an LRI memory tier over a persistent backend.
//
// Reads consult memory first and fall back to the backend synchronously; a
// fresh backend hit is copied into memory with its original timestamp so the
// TTL keeps counting from the original store time. Writes go to memory
// synchronously and to the backend fire-and-forget.
//
// Every backend failure is swallowed: persistence is best-effort and must
// never affect the primary return value. Failures are logged at debug level.
type Tiered struct {
	memory    *LRI[string, any]
	backend   Backend
	namespace string
	ttl       time.Duration
	logger    *zap.Logger
	pending   sync.WaitGroup
}

// NewTiered creates a tiered store. A nil logger is replaced with a no-op
// logger.
func NewTiered(capacity int, ttl time.Duration, namespace string, backend Backend, logger *zap.Logger) *Tiered {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tiered{
		memory:    NewLRI[string, any](capacity, ttl),
		backend:   backend,
		namespace: namespace,
		ttl:       ttl,
		logger:    logger,
	}
}

// Get returns the live value under key, consulting the backend on a memory
// miss. A stale backend entry triggers a best-effort background removal and
// reads as a miss.
func (t *Tiered) Get(key string) (any, bool) {
	if value, ok := t.memory.Get(key); ok {
		return value, true
	}
	if t.backend == nil {
		return nil, false
	}

	value, storedAt, ok, err := t.backend.TryRead(context.Background(), t.namespace, key)
	if err != nil {
		t.logger.Debug("persistent read failed",
			zap.String("namespace", t.namespace),
			zap.Error(err))
		return nil, false
	}
	if !ok {
		return nil, false
	}

	if t.expired(storedAt) {
		t.async(func(ctx context.Context) {
			if err := t.backend.Remove(ctx, t.namespace, key); err != nil {
				t.logger.Debug("persistent remove failed",
					zap.String("namespace", t.namespace),
					zap.Error(err))
			}
		})
		return nil, false
	}

	t.memory.PutAt(key, value, storedAt)
	return value, true
}

// Put stores the value in memory and pushes it to the backend without
// blocking the caller.
func (t *Tiered) Put(key string, value any) {
	now := time.Now()
	t.memory.PutAt(key, value, now)

	if t.backend == nil {
		return
	}
	t.async(func(ctx context.Context) {
		if err := t.backend.Persist(ctx, t.namespace, key, value, now); err != nil {
			t.logger.Debug("persist failed",
				zap.String("namespace", t.namespace),
				zap.Error(err))
		}
	})
}

// Delete removes the key from memory and, best-effort, from the backend.
func (t *Tiered) Delete(key string) {
	t.memory.Delete(key)
	if t.backend == nil {
		return
	}
	t.async(func(ctx context.Context) {
		if err := t.backend.Remove(ctx, t.namespace, key); err != nil {
			t.logger.Debug("persistent remove failed",
				zap.String("namespace", t.namespace),
				zap.Error(err))
		}
	})
}

// Clear resets the memory tier. Persistent entries are left in place; they
// age out through their stored timestamps.
func (t *Tiered) Clear() {
	t.memory.Clear()
}

// Len reports the memory-tier entry count.
func (t *Tiered) Len() int {
	return t.memory.Len()
}

// Flush blocks until all in-flight backend operations have finished. The
// primary call path never waits on these; Flush exists for orderly shutdown
// and deterministic tests.
func (t *Tiered) Flush() {
	t.pending.Wait()
}

func (t *Tiered) expired(storedAt time.Time) bool {
	switch {
	case t.ttl == 0:
		return false
	case t.ttl < 0:
		return true
	}
	return time.Now().After(storedAt.Add(t.ttl))
}

// async runs a backend side effect on its own goroutine. The task carries no
// cancellation: it is expected to complete independently of the primary
// call's lifetime. A panicking backend must not take the process down.
func (t *Tiered) async(task func(ctx context.Context)) {
	t.pending.Add(1)
	go func() {
		defer t.pending.Done()
		defer func() {
			if r := recover(); r != nil {
				t.logger.Debug("backend panicked", zap.Any("panic", r))
			}
		}()
		task(context.Background())
	}()
}
