package canonical

import (
	"errors"
	"fmt"
	"math"
)

// Form is the canonical rendition of a value graph: either a bare sentinel
// integer or a flat []any entry list with the root at position 0.
type Form any

// Reserved sentinel integers. They are negative so they stay out of the
// index space of the flat list.
const (
	SentinelUndefined = -1
	SentinelHole      = -2
	SentinelNaN       = -3
	SentinelPosInf    = -4
	SentinelNegInf    = -5

	// BigIntTag marks a tagged big-integer record [-6, "<hex>"].
	BigIntTag = -6
)

// EmptyLabel is the record label used for plain objects.
const EmptyLabel = ""

type undefinedKind struct{}
type holeKind struct{}

// Undefined is the explicit stand-in for a missing value. Go has no
// undefined primitive; encoding this singleton yields the -1 sentinel and
// decoding a -1 sentinel yields it back.
var Undefined = undefinedKind{}

// Hole is the explicit stand-in for a sparse-sequence gap. An element equal
// to Hole inside a slice is encoded as the -2 sentinel at that index.
var Hole = holeKind{}

// ErrNonEncodable is the sentinel for values with no encoding path: funcs,
// channels, complex numbers, or registry misses with no structural fallback.
var ErrNonEncodable = errors.New("canonical: value is not encodable")

// ErrMalformedForm is the sentinel for forms Decode cannot interpret.
var ErrMalformedForm = errors.New("canonical: malformed form")

// NonEncodableError reports the concrete type that had no encoding path.
type NonEncodableError struct {
	Type string
}

func (e *NonEncodableError) Error() string {
	return fmt.Sprintf("canonical: value of type %s is not encodable", e.Type)
}

// Is makes errors.Is(err, ErrNonEncodable) succeed.
func (e *NonEncodableError) Is(target error) bool {
	return target == ErrNonEncodable
}

// FormError reports the entry position at which Decode failed.
type FormError struct {
	Position int
	Message  string
}

func (e *FormError) Error() string {
	return fmt.Sprintf("canonical: malformed form at entry %d: %s", e.Position, e.Message)
}

// Is makes errors.Is(err, ErrMalformedForm) succeed.
func (e *FormError) Is(target error) bool {
	return target == ErrMalformedForm
}

// sentinelFor returns the sentinel for a magic value, or 0 when v is not one
// of the magic cases. 0 is never a valid sentinel.
func sentinelFor(v any) int {
	switch x := v.(type) {
	case undefinedKind:
		return SentinelUndefined
	case holeKind:
		return SentinelHole
	case float64:
		return floatSentinel(x)
	case float32:
		return floatSentinel(float64(x))
	}
	return 0
}

func floatSentinel(f float64) int {
	switch {
	case math.IsNaN(f):
		return SentinelNaN
	case math.IsInf(f, 1):
		return SentinelPosInf
	case math.IsInf(f, -1):
		return SentinelNegInf
	}
	return 0
}

// sentinelValue is the inverse of sentinelFor.
func sentinelValue(s int) (any, bool) {
	switch s {
	case SentinelUndefined:
		return Undefined, true
	case SentinelHole:
		return Hole, true
	case SentinelNaN:
		return math.NaN(), true
	case SentinelPosInf:
		return math.Inf(1), true
	case SentinelNegInf:
		return math.Inf(-1), true
	}
	return nil, false
}
