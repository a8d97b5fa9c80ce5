package cachestore

import "reflect"

// Store is the shape shared by the bounded store variants in this package.
type Store interface {
	Get(key string) (any, bool)
	Put(key string, value any)
	Delete(key string)
	Clear()
	Len() int
}

// receiverRef identifies a receiver that cannot itself be a map key by the
// address of its underlying data.
type receiverRef struct {
	typ reflect.Type
	ptr uintptr
}

// Receivers is a two-level store: each receiver gets its own bounded store
// built by the factory, and the set of receivers is itself bounded so
// long-gone receivers do not pin their caches forever. Evicting a receiver
// drops its whole inner store.
//
// Receiver identity follows the key derivation contract: pointer, channel
// and comparable value receivers are identified by the value itself, maps,
// slices and functions by reference.
type Receivers struct {
	outer   *LRI[any, Store]
	factory func() Store
}

// NewReceivers creates a per-receiver store family. maxReceivers bounds the
// number of distinct receivers tracked; factory builds each receiver's
// inner store on first use.
func NewReceivers(maxReceivers int, factory func() Store) *Receivers {
	return &Receivers{
		outer:   NewLRI[any, Store](maxReceivers, 0),
		factory: factory,
	}
}

// For returns the store dedicated to receiver, creating it on first use.
func (r *Receivers) For(receiver any) Store {
	id := receiverID(receiver)
	if store, ok := r.outer.Get(id); ok {
		return store
	}
	store := r.factory()
	r.outer.Put(id, store)
	return store
}

// Clear drops every receiver's store.
func (r *Receivers) Clear() {
	r.outer.Clear()
}

// Len reports the number of receivers currently tracked.
func (r *Receivers) Len() int {
	return r.outer.Len()
}

// Flush blocks until every inner store with in-flight background work has
// drained.
func (r *Receivers) Flush() {
	for _, store := range r.outer.Values() {
		if f, ok := store.(interface{ Flush() }); ok {
			f.Flush()
		}
	}
}

// receiverID maps a receiver to a comparable identity key.
//
// Pointer and channel receivers are their own identity: the outer store
// holds the value, which pins the referent for as long as the entry lives,
// so a live entry can never alias a recycled allocation. Maps, slices and
// functions cannot be map keys and collapse to their data pointer; such an
// entry can outlive its receiver, and if the allocator later hands the same
// address to a value of the same type the newcomer inherits the old store.
// The maxReceivers bound keeps that window narrow.
func receiverID(receiver any) any {
	if receiver == nil {
		return nil
	}
	v := reflect.ValueOf(receiver)
	switch v.Kind() {
	case reflect.Map, reflect.Slice, reflect.Func:
		return receiverRef{typ: v.Type(), ptr: v.Pointer()}
	}
	if v.Comparable() {
		return receiver
	}
	// Non-comparable value kinds (structs embedding slices, arrays of maps)
	// cannot be map keys; box each occurrence so it gets its own store
	// rather than a runtime panic.
	boxed := reflect.New(v.Type())
	boxed.Elem().Set(v)
	return receiverRef{typ: v.Type(), ptr: boxed.Pointer()}
}
