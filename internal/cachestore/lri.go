// Package cachestore holds the store implementations behind the cache
// package contracts: the insertion-ordered bounded store, the two-tier
// persistent variant, the per-receiver two-level store and the sturdyc
// adapter.
package cachestore

import (
	"container/list"
	"sync"
	"time"
)

type entry[K comparable, V any] struct {
	key      K
	value    V
	storedAt time.Time
}

// LRI is a bounded store with least-recently-inserted eviction.
//
// Eviction order is pure insertion order: a Get never promotes an entry and
// a Put on an existing key refreshes its value and timestamp without moving
// it. Entries past the TTL read as misses but keep occupying their capacity
// slot until refreshed or evicted.
//
// The map gives O(1) lookups and the list gives O(1) oldest-first eviction,
// newest entries at the back.
type LRI[K comparable, V any] struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	items    map[K]*list.Element
	order    *list.List
	clock    func() time.Time
}

// NewLRI creates a bounded store holding at most capacity entries.
// TTL semantics: zero = entries never expire, negative = every entry is
// immediately stale (caching disabled), positive = entry lifetime.
func NewLRI[K comparable, V any](capacity int, ttl time.Duration) *LRI[K, V] {
	return &LRI[K, V]{
		capacity: capacity,
		ttl:      ttl,
		items:    make(map[K]*list.Element),
		order:    list.New(),
		clock:    time.Now,
	}
}

// Get returns the live value stored under key. Stale entries read as misses
// and stay in place; they are superseded by the Put that follows the miss.
func (c *LRI[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		var zero V
		return zero, false
	}

	e := elem.Value.(*entry[K, V])
	if c.stale(e.storedAt) {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Put inserts or refreshes key. Refreshing keeps the key's insertion-order
// slot; inserting a new key at capacity evicts the oldest-inserted key.
func (c *LRI[K, V]) Put(key K, value V) {
	c.putAt(key, value, c.clock())
}

// PutAt is Put with an explicit timestamp, used when copying an entry from
// the persistent tier so its original age is preserved.
func (c *LRI[K, V]) PutAt(key K, value V, storedAt time.Time) {
	c.putAt(key, value, storedAt)
}

func (c *LRI[K, V]) putAt(key K, value V, storedAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		e := elem.Value.(*entry[K, V])
		e.value = value
		e.storedAt = storedAt
		return
	}

	if c.capacity > 0 && len(c.items) >= c.capacity {
		c.evictOldest()
	}

	elem := c.order.PushBack(&entry[K, V]{key: key, value: value, storedAt: storedAt})
	c.items[key] = elem
}

// Delete removes key. Deleting an absent key is a no-op.
func (c *LRI[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		c.removeElement(elem)
	}
}

// Clear removes all entries.
func (c *LRI[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[K]*list.Element)
	c.order.Init()
}

// Len reports the number of entries, stale ones included.
func (c *LRI[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Values returns the stored values in insertion order, stale ones included.
func (c *LRI[K, V]) Values() []V {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]V, 0, len(c.items))
	for elem := c.order.Front(); elem != nil; elem = elem.Next() {
		out = append(out, elem.Value.(*entry[K, V]).value)
	}
	return out
}

// SetClock replaces the time source. Intended for tests.
func (c *LRI[K, V]) SetClock(clock func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clock = clock
}

func (c *LRI[K, V]) stale(storedAt time.Time) bool {
	switch {
	case c.ttl == 0:
		return false
	case c.ttl < 0:
		return true
	}
	return c.clock().After(storedAt.Add(c.ttl))
}

func (c *LRI[K, V]) evictOldest() {
	if oldest := c.order.Front(); oldest != nil {
		c.removeElement(oldest)
	}
}

func (c *LRI[K, V]) removeElement(elem *list.Element) {
	e := elem.Value.(*entry[K, V])
	delete(c.items, e.key)
	c.order.Remove(elem)
}
