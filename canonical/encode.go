package canonical

import (
	"encoding/json"
	"fmt"
	"math/big"
	"reflect"
)

// Encode converts a value graph into its canonical form. A nil registry
// selects the default registry.
//
// Encoding never mutates the input. Values that are reference-equal collapse
// to a single entry, so shared references and cycles are preserved and
// terminate.
func Encode(v any, reg *Registry) (Form, error) {
	if reg == nil {
		reg = DefaultRegistry()
	}

	// A magic root short-circuits to its bare sentinel; no list is produced.
	if s := sentinelFor(v); s != 0 {
		return s, nil
	}
	if lit, ok := normalizeScalar(v); ok {
		if s := sentinelFor(lit); s != 0 {
			return s, nil
		}
	}

	e := &encoder{
		reg:     reg,
		byValue: map[any]int{},
		byRef:   map[refKey]int{},
	}
	if _, err := e.addEntry(v); err != nil {
		return nil, err
	}
	return e.entries, nil
}

// EncodeJSON returns the canonical form rendered as JSON text. The form is
// JSON-safe by construction, so this is exactly the JSON serialization of
// the flat list (or of the bare sentinel).
func EncodeJSON(v any, reg *Registry) (string, error) {
	form, err := Encode(v, reg)
	if err != nil {
		return "", err
	}
	data, err := json.Marshal(form)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

type encoder struct {
	reg     *Registry
	entries []any
	byValue map[any]int
	byRef   map[refKey]int
}

// refKey identifies a reference-typed value for deduplication. Slices carry
// their length because two slices may share a backing array.
type refKey struct {
	typ reflect.Type
	ptr uintptr
	len int
}

func refKeyFor(v any) (refKey, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map:
		return refKey{typ: rv.Type(), ptr: rv.Pointer()}, true
	case reflect.Slice:
		return refKey{typ: rv.Type(), ptr: rv.Pointer(), len: rv.Len()}, true
	}
	return refKey{}, false
}

func (e *encoder) append(entry any) int {
	e.entries = append(e.entries, entry)
	return len(e.entries) - 1
}

// reserve appends a placeholder so children visited during recursion can
// reference the parent's position before it is filled in.
func (e *encoder) reserve() int {
	return e.append(nil)
}

// addEntry records v in the flat list and returns its position. Previously
// seen primitives (by value) and references (by identity) reuse their
// original position.
func (e *encoder) addEntry(v any) (int, error) {
	switch v.(type) {
	case undefinedKind, holeKind:
		s := sentinelFor(v)
		if pos, seen := e.byValue[v]; seen {
			return pos, nil
		}
		pos := e.append(s)
		e.byValue[v] = pos
		return pos, nil
	}

	if lit, ok := normalizeScalar(v); ok {
		if s := sentinelFor(lit); s != 0 {
			// NaN never compares equal to itself, so it cannot be a
			// dedup key; every occurrence gets its own entry.
			if s == SentinelNaN {
				return e.append(s), nil
			}
			if pos, seen := e.byValue[lit]; seen {
				return pos, nil
			}
			pos := e.append(s)
			e.byValue[lit] = pos
			return pos, nil
		}
		if pos, seen := e.byValue[lit]; seen {
			return pos, nil
		}
		pos := e.append(lit)
		e.byValue[lit] = pos
		return pos, nil
	}

	if key, ok := refKeyFor(v); ok {
		if pos, seen := e.byRef[key]; seen {
			return pos, nil
		}
		pos := e.reserve()
		e.byRef[key] = pos
		entry, err := e.repr(v, pos)
		if err != nil {
			return 0, err
		}
		e.entries[pos] = entry
		return pos, nil
	}

	pos := e.reserve()
	entry, err := e.repr(v, pos)
	if err != nil {
		return 0, err
	}
	e.entries[pos] = entry
	return pos, nil
}

// repr computes the entry value stored at pos for a non-scalar v. The
// position is already reserved (and, for references, indexed), so recursive
// addEntry calls on children resolve self-references to pos.
func (e *encoder) repr(v any, pos int) (any, error) {
	if b, ok := v.(*big.Int); ok {
		return []any{BigIntTag, b.Text(16)}, nil
	}

	if label, codec, ok := e.reg.match(v); ok {
		parts, err := codec.Decompose(v)
		if err != nil {
			return nil, err
		}
		rec := make([]any, 0, len(parts)+1)
		rec = append(rec, label)
		for _, part := range parts {
			idx, err := e.addEntry(part)
			if err != nil {
				return nil, err
			}
			rec = append(rec, idx)
		}
		return rec, nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer:
		if rv.IsNil() {
			return nil, nil
		}
		elem := rv.Elem().Interface()
		if lit, ok := normalizeScalar(elem); ok {
			if s := sentinelFor(lit); s != 0 {
				return s, nil
			}
			return lit, nil
		}
		// The pointee collapses into the pointer's position; chains of
		// pointers keep collapsing until a representable value appears.
		// Index the pointee too, so a later direct occurrence of the
		// same map or slice reuses this position.
		if key, ok := refKeyFor(elem); ok {
			if _, seen := e.byRef[key]; !seen {
				e.byRef[key] = pos
			}
		}
		return e.repr(elem, pos)

	case reflect.Slice, reflect.Array:
		n := rv.Len()
		rec := make([]any, n)
		for i := range rec {
			rec[i] = SentinelHole
		}
		for i := 0; i < n; i++ {
			el := rv.Index(i).Interface()
			if _, isHole := el.(holeKind); isHole {
				continue
			}
			idx, err := e.addEntry(el)
			if err != nil {
				return nil, err
			}
			rec[i] = idx
		}
		return rec, nil

	case reflect.Struct:
		rt := rv.Type()
		rec := []any{EmptyLabel}
		for i := 0; i < rt.NumField(); i++ {
			field := rt.Field(i)
			if !field.IsExported() {
				continue
			}
			kIdx, err := e.addEntry(field.Name)
			if err != nil {
				return nil, err
			}
			vIdx, err := e.addEntry(rv.Field(i).Interface())
			if err != nil {
				return nil, err
			}
			rec = append(rec, kIdx, vIdx)
		}
		return rec, nil
	}

	return nil, &NonEncodableError{Type: fmt.Sprintf("%T", v)}
}

// normalizeScalar folds every basic kind, including named types, into the
// canonical literal representation used in the flat list.
func normalizeScalar(v any) (any, bool) {
	switch x := v.(type) {
	case nil:
		return nil, true
	case bool, string, int64, uint64, float64:
		return x, true
	case int:
		return int64(x), true
	case int8:
		return int64(x), true
	case int16:
		return int64(x), true
	case int32:
		return int64(x), true
	case uint:
		return uint64(x), true
	case uint8:
		return uint64(x), true
	case uint16:
		return uint64(x), true
	case uint32:
		return uint64(x), true
	case float32:
		return float64(x), true
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Bool:
		return rv.Bool(), true
	case reflect.String:
		return rv.String(), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint(), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return nil, false
}
