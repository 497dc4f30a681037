// Package payload works on decoded response bodies.
//
// Response bodies reach the cache as untyped values produced by a JSON
// decoder, so every helper here operates over a closed set of shapes:
//
//   - nil
//   - scalars: bool, string and any numeric kind (float64 from encoding/json,
//     Go integer kinds, json.Number)
//   - lists: []any
//   - objects: map[string]any
//
// Values outside that set (structs, typed slices, typed maps) are brought into
// it with Normalize, which round-trips them through encoding/json.
//
// # Equality
//
// Equal is a total structural comparison: objects compare by key set and
// values regardless of key order, lists compare element by element, and all
// numeric kinds compare by value so a float64 decoded from JSON equals the int
// a caller passes in. Loose additionally treats scalars with the same textual
// form as equal ("42" and 42).
//
// # Sub-paths
//
// Responses are often wrapped in an envelope such as
//
//	{"data": {"items": [...]}}
//
// Extract, ExtractList and ExtractOccurrence descend through such envelopes
// following a sequence of property names. A path that does not resolve
// reports false instead of panicking.
package payload
