// Package canonical converts arbitrary value graphs into a flat, JSON-safe,
// order-stable form suitable for fingerprinting and general serialization.
//
// # Canonical Form
//
// Encode produces either a bare sentinel (when the root itself is one of the
// magic non-JSON cases) or a flat entry list where position 0 holds the root.
// Each entry is one of:
//
//   - a JSON primitive (string, finite number, boolean, null)
//   - a reserved negative sentinel for Undefined, an array hole, NaN, +Inf, -Inf
//   - a tagged big-integer record: [-6, "<base-16 digits>"]
//   - an array record: a list of entry indices, with holes as the -2 sentinel
//   - a labeled record: [label, idx...] where an empty label marks a plain
//     object (interleaved key/value indices) and any other label names a
//     registered codec whose decomposed parts the indices point at
//
// Values that are reference-equal to an earlier-visited value are encoded
// once; later occurrences point at the earlier position. Positions are
// reserved before children are visited, which is what makes cyclic graphs
// terminate instead of recursing forever.
//
// # Registry
//
// Container types are handled by codecs looked up in a Registry. The default
// registry covers errors, byte slices, maps, struct{}-valued maps (the Go set
// idiom), time.Time, *regexp.Regexp, *url.URL and *big.Int. The default is
// immutable; customize by merging into a new registry:
//
//	reg := canonical.DefaultRegistry().With("Money", moneyCodec)
//
// # Round trips
//
// Decode reconstructs the value graph, including cycles and shared
// references, using a two-phase scheme: mutable containers are allocated
// empty, registered at their position, and only then populated, so a
// self-reference resolves to the already-allocated stub.
//
// Plain objects decode to map[string]any and typed maps to map[any]any; the
// original Go struct and map types are not recovered. A literal number that
// happens to equal a reserved sentinel decodes as the sentinel — this matches
// the wire format the form is required to stay compatible with.
package canonical
