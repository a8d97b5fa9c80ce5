package memoize

import "sync"

// Clearable is anything whose cached state can be dropped wholesale.
type Clearable interface {
	Clear()
}

// StoreList collects caches so they can be invalidated together. Pass one
// StoreList through the Config of several memoizers and a single ClearAll
// resets them all, the usual move after a bulk data import.
type StoreList struct {
	mu     sync.Mutex
	stores []Clearable
}

// NewStoreList creates an empty list.
func NewStoreList() *StoreList {
	return &StoreList{}
}

// Add registers a cache with the list.
func (l *StoreList) Add(store Clearable) {
	if store == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stores = append(l.stores, store)
}

// ClearAll clears every registered cache.
func (l *StoreList) ClearAll() {
	l.mu.Lock()
	stores := make([]Clearable, len(l.stores))
	copy(stores, l.stores)
	l.mu.Unlock()

	for _, store := range stores {
		store.Clear()
	}
}

// Len reports how many caches are registered.
func (l *StoreList) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.stores)
}
