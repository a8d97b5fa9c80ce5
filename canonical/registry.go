package canonical

import "fmt"

// Codec decomposes instances of one container type into constituent values
// and reconstructs instances from such values.
//
// Mutable container codecs supply Alloc so Decode can run two-phase: the
// empty stub is registered at its position before the parts are decoded,
// which lets a self-referencing container resolve its own reference.
// Immutable codecs leave Alloc nil; Populate then receives a nil stub and
// must build the value from the parts alone.
type Codec struct {
	// Match reports whether this codec handles the value.
	Match func(v any) bool

	// Decompose returns the ordered constituent values of v.
	Decompose func(v any) ([]any, error)

	// Alloc returns an empty stub of the target type, or is nil when the
	// type cannot be usefully pre-allocated.
	Alloc func() any

	// Populate fills the stub (or builds the value when stub is nil) from
	// the decoded parts and returns the final value.
	Populate func(stub any, parts []any) (any, error)
}

// Registry maps stable type labels to codecs. The zero value is not usable;
// construct via NewRegistry or derive from DefaultRegistry.
//
// Registries are value-style configuration: With returns a merged copy and
// never mutates the receiver, so the default registry can be shared freely.
type Registry struct {
	order  []string
	codecs map[string]Codec
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{codecs: map[string]Codec{}}
}

// With returns a new registry containing the receiver's codecs plus the
// given one. Registering an existing label replaces its codec while keeping
// its match priority; new labels are matched after all existing ones.
func (r *Registry) With(label string, codec Codec) *Registry {
	next := &Registry{
		order:  make([]string, len(r.order)),
		codecs: make(map[string]Codec, len(r.codecs)+1),
	}
	copy(next.order, r.order)
	for name, c := range r.codecs {
		next.codecs[name] = c
	}

	if _, exists := next.codecs[label]; !exists {
		next.order = append(next.order, label)
	}
	next.codecs[label] = codec
	return next
}

// Lookup returns the codec registered under label.
func (r *Registry) Lookup(label string) (Codec, bool) {
	c, ok := r.codecs[label]
	return c, ok
}

// Labels returns the registered labels in match order.
func (r *Registry) Labels() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// match finds the first codec whose Match accepts v, in registration order.
func (r *Registry) match(v any) (string, Codec, bool) {
	for _, label := range r.order {
		c := r.codecs[label]
		if c.Match != nil && c.Match(v) {
			return label, c, true
		}
	}
	return "", Codec{}, false
}

func partString(parts []any, i int) (string, error) {
	if i >= len(parts) {
		return "", fmt.Errorf("missing part %d", i)
	}
	s, ok := parts[i].(string)
	if !ok {
		return "", fmt.Errorf("part %d: expected string, got %T", i, parts[i])
	}
	return s, nil
}
