package canonical

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"regexp"
	"sort"
	"time"
)

// Labels of the built-in codecs.
const (
	LabelError  = "Error"
	LabelBytes  = "Bytes"
	LabelDate   = "Date"
	LabelURL    = "URL"
	LabelRegExp = "RegExp"
	LabelSet    = "Set"
	LabelMap    = "Map"
)

var defaultRegistry = buildDefaultRegistry()

// DefaultRegistry returns the shared registry of built-in codecs. It must be
// treated as immutable; derive customized registries with With.
func DefaultRegistry() *Registry {
	return defaultRegistry
}

func buildDefaultRegistry() *Registry {
	r := NewRegistry()
	r = r.With(LabelBytes, bytesCodec())
	r = r.With(LabelDate, dateCodec())
	r = r.With(LabelURL, urlCodec())
	r = r.With(LabelRegExp, regexpCodec())
	// Set must match before Map: a struct{}-valued map satisfies both.
	r = r.With(LabelSet, setCodec())
	r = r.With(LabelMap, mapCodec())
	r = r.With(LabelError, errorCodec())
	return r
}

// DecodedError is the reconstruction of an encoded error value. The concrete
// error type does not survive the round trip; the message and unwrap chain do.
type DecodedError struct {
	Message string
	Cause   error
}

func (e *DecodedError) Error() string { return e.Message }

// Unwrap exposes the preserved cause chain to errors.Is and errors.As.
func (e *DecodedError) Unwrap() error { return e.Cause }

func errorCodec() Codec {
	return Codec{
		Match: func(v any) bool {
			_, ok := v.(error)
			return ok
		},
		Decompose: func(v any) ([]any, error) {
			err := v.(error)
			var cause any
			if unwrapped := errors.Unwrap(err); unwrapped != nil {
				cause = unwrapped
			}
			return []any{err.Error(), cause}, nil
		},
		Populate: func(_ any, parts []any) (any, error) {
			msg, err := partString(parts, 0)
			if err != nil {
				return nil, err
			}
			out := &DecodedError{Message: msg}
			if len(parts) > 1 && parts[1] != nil {
				if cause, ok := parts[1].(error); ok {
					out.Cause = cause
				}
			}
			return out, nil
		},
	}
}

func bytesCodec() Codec {
	return Codec{
		Match: func(v any) bool {
			_, ok := v.([]byte)
			return ok
		},
		Decompose: func(v any) ([]any, error) {
			return []any{base64.StdEncoding.EncodeToString(v.([]byte))}, nil
		},
		Populate: func(_ any, parts []any) (any, error) {
			s, err := partString(parts, 0)
			if err != nil {
				return nil, err
			}
			return base64.StdEncoding.DecodeString(s)
		},
	}
}

func dateCodec() Codec {
	return Codec{
		Match: func(v any) bool {
			_, ok := v.(time.Time)
			return ok
		},
		Decompose: func(v any) ([]any, error) {
			return []any{v.(time.Time).Format(time.RFC3339Nano)}, nil
		},
		Populate: func(_ any, parts []any) (any, error) {
			s, err := partString(parts, 0)
			if err != nil {
				return nil, err
			}
			return time.Parse(time.RFC3339Nano, s)
		},
	}
}

func urlCodec() Codec {
	return Codec{
		Match: func(v any) bool {
			_, ok := v.(*url.URL)
			return ok
		},
		Decompose: func(v any) ([]any, error) {
			return []any{v.(*url.URL).String()}, nil
		},
		Populate: func(_ any, parts []any) (any, error) {
			s, err := partString(parts, 0)
			if err != nil {
				return nil, err
			}
			return url.Parse(s)
		},
	}
}

func regexpCodec() Codec {
	return Codec{
		Match: func(v any) bool {
			_, ok := v.(*regexp.Regexp)
			return ok
		},
		Decompose: func(v any) ([]any, error) {
			// Go folds flags into the pattern, so the source alone is enough.
			return []any{v.(*regexp.Regexp).String()}, nil
		},
		Populate: func(_ any, parts []any) (any, error) {
			s, err := partString(parts, 0)
			if err != nil {
				return nil, err
			}
			return regexp.Compile(s)
		},
	}
}

// setCodec handles the map[T]struct{} set idiom: the decomposed parts are the
// members in deterministic order.
func setCodec() Codec {
	var emptyStruct = reflect.TypeOf(struct{}{})
	return Codec{
		Match: func(v any) bool {
			rt := reflect.TypeOf(v)
			return rt != nil && rt.Kind() == reflect.Map && rt.Elem() == emptyStruct
		},
		Decompose: func(v any) ([]any, error) {
			rv := reflect.ValueOf(v)
			members := make([]any, 0, rv.Len())
			for _, k := range sortedMapKeys(rv) {
				members = append(members, k.Interface())
			}
			return members, nil
		},
		Alloc: func() any {
			return map[any]struct{}{}
		},
		Populate: func(stub any, parts []any) (any, error) {
			set := stub.(map[any]struct{})
			for _, member := range parts {
				if member == nil || !reflect.TypeOf(member).Comparable() {
					return nil, fmt.Errorf("set member of type %T is not comparable", member)
				}
				set[member] = struct{}{}
			}
			return set, nil
		},
	}
}

// mapCodec handles every other Go map: the decomposed parts are interleaved
// key/value pairs with keys in deterministic order.
func mapCodec() Codec {
	return Codec{
		Match: func(v any) bool {
			rt := reflect.TypeOf(v)
			return rt != nil && rt.Kind() == reflect.Map
		},
		Decompose: func(v any) ([]any, error) {
			rv := reflect.ValueOf(v)
			parts := make([]any, 0, rv.Len()*2)
			for _, k := range sortedMapKeys(rv) {
				parts = append(parts, k.Interface(), rv.MapIndex(k).Interface())
			}
			return parts, nil
		},
		Alloc: func() any {
			return map[any]any{}
		},
		Populate: func(stub any, parts []any) (any, error) {
			if len(parts)%2 != 0 {
				return nil, fmt.Errorf("map record has odd part count %d", len(parts))
			}
			m := stub.(map[any]any)
			for i := 0; i < len(parts); i += 2 {
				if parts[i] == nil || !reflect.TypeOf(parts[i]).Comparable() {
					return nil, fmt.Errorf("map key of type %T is not comparable", parts[i])
				}
				m[parts[i]] = parts[i+1]
			}
			return m, nil
		},
	}
}

// sortedMapKeys orders map keys by a type-qualified textual rendition so that
// decomposition is stable across runs despite Go's randomized map iteration.
func sortedMapKeys(rv reflect.Value) []reflect.Value {
	keys := rv.MapKeys()
	sort.Slice(keys, func(i, j int) bool {
		return mapKeyOrder(keys[i]) < mapKeyOrder(keys[j])
	})
	return keys
}

func mapKeyOrder(k reflect.Value) string {
	return fmt.Sprintf("%s\x00%v", k.Type(), k.Interface())
}
