// Package testsupport holds shared helpers for exercising memoization
// components in tests: canonical value-graph builders, a recording fake
// backend and unique-namespace generation.
package testsupport

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

// Namespace returns a unique persistence namespace so tests sharing a
// database never collide.
func Namespace(t *testing.T) string {
	t.Helper()
	return "test_" + uuid.NewString()
}

// CyclicMap builds a map that contains itself under the "self" key, the
// smallest value graph that exercises cycle handling end to end.
func CyclicMap() map[string]any {
	m := map[string]any{"name": "root"}
	m["self"] = m
	return m
}

// SharedSlice builds a slice whose two elements are the same underlying map,
// for asserting that encoding deduplicates by identity and decoding restores
// the sharing.
func SharedSlice() []any {
	shared := map[string]any{"id": int64(1)}
	return []any{shared, shared}
}

// Node is a linked node for building reference cycles.
type Node struct {
	Name string
	Peer *Node
}

// MutualNodes returns the first of a two-node reference cycle.
func MutualNodes() *Node {
	a := &Node{Name: "a"}
	b := &Node{Name: "b"}
	a.Peer = b
	b.Peer = a
	return a
}

// Clock is a manually advanced time source for TTL tests.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock creates a clock frozen at the given instant.
func NewClock(start time.Time) *Clock {
	return &Clock{now: start}
}

// Now returns the current instant. Pass as a clock function.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// FakeBackend is an in-memory cache.Backend that records its calls and can
// be told to fail, for asserting best-effort persistence behaviour.
type FakeBackend struct {
	mu      sync.Mutex
	entries map[string]fakeEntry

	// PersistErr, ReadErr and RemoveErr, when set, are returned by the
	// corresponding hook.
	PersistErr error
	ReadErr    error
	RemoveErr  error

	persistCalls int
	readCalls    int
	removeCalls  int
}

type fakeEntry struct {
	value    any
	storedAt time.Time
}

// NewFakeBackend creates an empty backend.
func NewFakeBackend() *FakeBackend {
	return &FakeBackend{entries: map[string]fakeEntry{}}
}

// Persist implements cache.Backend.
func (b *FakeBackend) Persist(_ context.Context, namespace, key string, value any, storedAt time.Time) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.persistCalls++
	if b.PersistErr != nil {
		return b.PersistErr
	}
	b.entries[namespace+"\x00"+key] = fakeEntry{value: value, storedAt: storedAt}
	return nil
}

// TryRead implements cache.Backend.
func (b *FakeBackend) TryRead(_ context.Context, namespace, key string) (any, time.Time, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.readCalls++
	if b.ReadErr != nil {
		return nil, time.Time{}, false, b.ReadErr
	}
	entry, ok := b.entries[namespace+"\x00"+key]
	if !ok {
		return nil, time.Time{}, false, nil
	}
	return entry.value, entry.storedAt, true, nil
}

// Remove implements cache.Backend.
func (b *FakeBackend) Remove(_ context.Context, namespace, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.removeCalls++
	if b.RemoveErr != nil {
		return b.RemoveErr
	}
	delete(b.entries, namespace+"\x00"+key)
	return nil
}

// Seed inserts an entry directly, bypassing the hooks and their counters.
func (b *FakeBackend) Seed(namespace, key string, value any, storedAt time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries[namespace+"\x00"+key] = fakeEntry{value: value, storedAt: storedAt}
}

// Has reports whether (namespace, key) is currently stored.
func (b *FakeBackend) Has(namespace, key string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.entries[namespace+"\x00"+key]
	return ok
}

// Calls returns the persist, read and remove call counts.
func (b *FakeBackend) Calls() (persists, reads, removes int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.persistCalls, b.readCalls, b.removeCalls
}

// FailAll makes every hook return an error, simulating a dead store.
func (b *FakeBackend) FailAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	err := errors.New("testsupport: backend unavailable")
	b.PersistErr = err
	b.ReadErr = err
	b.RemoveErr = err
}
