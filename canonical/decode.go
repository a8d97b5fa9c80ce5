package canonical

import (
	"encoding/json"
	"math"
	"math/big"
	"reflect"
)

// Decode reconstructs the value graph described by a canonical form,
// including cycles and shared references. A nil registry selects the default
// registry. The registry must cover every label appearing in the form.
//
// Plain objects decode to map[string]any, typed maps to map[any]any and
// numbers to the widest type the form carries (float64 after a JSON round
// trip). Struct types do not survive the round trip; reference structure does.
func Decode(form Form, reg *Registry) (any, error) {
	if reg == nil {
		reg = DefaultRegistry()
	}

	if s, ok := toInt(form); ok {
		v, valid := sentinelValue(s)
		if !valid {
			return nil, &FormError{Position: -1, Message: "unknown root sentinel"}
		}
		return v, nil
	}

	entries, ok := toAnySlice(form)
	if !ok {
		return nil, &FormError{Position: -1, Message: "root is neither a sentinel nor an entry list"}
	}
	if len(entries) == 0 {
		return nil, &FormError{Position: -1, Message: "empty entry list"}
	}

	d := &decoder{
		reg:      reg,
		entries:  entries,
		values:   make([]any, len(entries)),
		done:     make([]bool, len(entries)),
		inflight: make([]bool, len(entries)),
	}
	return d.decodeAt(0)
}

// DecodeJSON parses JSON text produced by EncodeJSON and decodes it.
func DecodeJSON(text string, reg *Registry) (any, error) {
	var form any
	if err := json.Unmarshal([]byte(text), &form); err != nil {
		return nil, err
	}
	return Decode(form, reg)
}

type decoder struct {
	reg      *Registry
	entries  []any
	values   []any
	done     []bool
	inflight []bool
}

func (d *decoder) decodeAt(i int) (any, error) {
	if i < 0 || i >= len(d.entries) {
		return nil, &FormError{Position: i, Message: "index out of range"}
	}
	if d.done[i] {
		return d.values[i], nil
	}
	if d.inflight[i] {
		// Only containers with a two-phase codec may participate in
		// cycles; anything else would recurse forever.
		return nil, &FormError{Position: i, Message: "cycle through a non-container entry"}
	}
	d.inflight[i] = true
	defer func() { d.inflight[i] = false }()

	entry := d.entries[i]

	switch e := entry.(type) {
	case nil:
		return d.finish(i, nil)
	case bool:
		return d.finish(i, e)
	case string:
		return d.finish(i, e)
	}

	if n, ok := toInt(entry); ok && n < 0 {
		// Reserved sentinels win over equal literals; other negative
		// numbers are ordinary literals.
		if v, valid := sentinelValue(n); valid {
			return d.finish(i, v)
		}
	}
	if isNumber(entry) {
		return d.finish(i, entry)
	}

	rec, ok := toAnySlice(entry)
	if !ok {
		return nil, &FormError{Position: i, Message: "unsupported entry type"}
	}
	if len(rec) == 0 {
		return d.finishEarly(i, []any{})
	}

	if label, ok := rec[0].(string); ok {
		return d.decodeLabeled(i, label, rec[1:])
	}

	if tag, ok := toInt(rec[0]); ok && tag == BigIntTag {
		if len(rec) != 2 {
			return nil, &FormError{Position: i, Message: "bigint record must have exactly one digit string"}
		}
		digits, ok := rec[1].(string)
		if !ok {
			return nil, &FormError{Position: i, Message: "bigint digits must be a string"}
		}
		b, ok := new(big.Int).SetString(digits, 16)
		if !ok {
			return nil, &FormError{Position: i, Message: "invalid base-16 bigint digits"}
		}
		return d.finish(i, b)
	}

	return d.decodeArray(i, rec)
}

// finish records a fully decoded value.
func (d *decoder) finish(i int, v any) (any, error) {
	d.values[i] = v
	d.done[i] = true
	return v, nil
}

// finishEarly records a container before its children are decoded, so
// references back to position i resolve to the allocated container.
func (d *decoder) finishEarly(i int, v any) (any, error) {
	d.values[i] = v
	d.done[i] = true
	d.inflight[i] = false
	return v, nil
}

func (d *decoder) decodeArray(i int, rec []any) (any, error) {
	out := make([]any, len(rec))
	d.finishEarly(i, out)

	for pos, el := range rec {
		idx, ok := toInt(el)
		if !ok {
			return nil, &FormError{Position: i, Message: "array record element is not an index"}
		}
		if idx < 0 {
			v, valid := sentinelValue(idx)
			if !valid {
				return nil, &FormError{Position: i, Message: "unknown sentinel in array record"}
			}
			out[pos] = v
			continue
		}
		child, err := d.decodeAt(idx)
		if err != nil {
			return nil, err
		}
		out[pos] = child
	}
	return out, nil
}

func (d *decoder) decodeLabeled(i int, label string, indices []any) (any, error) {
	if label == EmptyLabel {
		return d.decodePlainObject(i, indices)
	}

	codec, ok := d.reg.Lookup(label)
	if !ok {
		return nil, &FormError{Position: i, Message: "no codec registered for label " + label}
	}

	var stub any
	if codec.Alloc != nil {
		stub = codec.Alloc()
		d.finishEarly(i, stub)
	}

	parts := make([]any, len(indices))
	for n, el := range indices {
		idx, ok := toInt(el)
		if !ok {
			return nil, &FormError{Position: i, Message: "labeled record element is not an index"}
		}
		child, err := d.decodeAt(idx)
		if err != nil {
			return nil, err
		}
		parts[n] = child
	}

	final, err := codec.Populate(stub, parts)
	if err != nil {
		return nil, &FormError{Position: i, Message: label + " codec: " + err.Error()}
	}
	return d.finish(i, final)
}

func (d *decoder) decodePlainObject(i int, indices []any) (any, error) {
	if len(indices)%2 != 0 {
		return nil, &FormError{Position: i, Message: "plain object record has odd index count"}
	}

	obj := map[string]any{}
	d.finishEarly(i, obj)

	for n := 0; n < len(indices); n += 2 {
		kIdx, ok := toInt(indices[n])
		if !ok {
			return nil, &FormError{Position: i, Message: "plain object key is not an index"}
		}
		vIdx, ok := toInt(indices[n+1])
		if !ok {
			return nil, &FormError{Position: i, Message: "plain object value is not an index"}
		}

		keyVal, err := d.decodeAt(kIdx)
		if err != nil {
			return nil, err
		}
		key, ok := keyVal.(string)
		if !ok {
			return nil, &FormError{Position: i, Message: "plain object key is not a string"}
		}
		val, err := d.decodeAt(vIdx)
		if err != nil {
			return nil, err
		}
		obj[key] = val
	}
	return obj, nil
}

// toInt accepts the numeric renditions an entry index may arrive in: native
// ints from Encode or float64 after a JSON round trip. Values outside the
// int range are rejected rather than wrapped, so an oversized index reads as
// a malformed entry instead of masquerading as a sentinel.
func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		if int64(int(n)) != n {
			return 0, false
		}
		return int(n), true
	case uint64:
		if n > uint64(math.MaxInt) {
			return 0, false
		}
		return int(n), true
	case float64:
		if n == float64(int(n)) {
			return int(n), true
		}
	}
	return 0, false
}

func isNumber(v any) bool {
	switch v.(type) {
	case int, int64, uint64, float64:
		return true
	}
	return false
}

// toAnySlice normalizes both []any records and typed slices such as []int
// (as produced by the native encoder for array records).
func toAnySlice(v any) ([]any, bool) {
	if s, ok := v.([]any); ok {
		return s, true
	}
	rv := reflect.ValueOf(v)
	if !rv.IsValid() || rv.Kind() != reflect.Slice {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}
