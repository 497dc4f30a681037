package payload

import (
	"encoding/json"
	"strconv"
)

// Equal reports whether a and b are structurally equal.
func Equal(a, b any) bool {
	a, b = Normalize(a), Normalize(b)
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	if fa, ok := toFloat(a); ok {
		fb, ok := toFloat(b)
		return ok && fa == fb
	}

	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Equal(av[i], bv[i]) {
				return false
			}
		}
		return true
	case map[string]any:
		bv, ok := b.(map[string]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, v := range av {
			other, exists := bv[k]
			if !exists || !Equal(v, other) {
				return false
			}
		}
		return true
	}
	return false
}

// Loose reports whether a and b are equal, treating scalars with the same
// textual form as equal.
func Loose(a, b any) bool {
	if Equal(a, b) {
		return true
	}
	sa, ok := scalarString(a)
	if !ok {
		return false
	}
	sb, ok := scalarString(b)
	return ok && sa == sb
}

// Normalize converts v into the closed set of shapes the package works on.
// Values already in that set are returned unchanged.
func Normalize(v any) any {
	switch tv := v.(type) {
	case nil, bool, string, []any, map[string]any:
		return v
	case map[string]string:
		out := make(map[string]any, len(tv))
		for k, s := range tv {
			out[k] = s
		}
		return out
	}
	if _, ok := toFloat(v); ok {
		return v
	}

	raw, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return v
	}
	return out
}

// Clone returns a normalized deep copy of v. Maps and slices in the result
// share no memory with v.
func Clone(v any) any {
	switch tv := Normalize(v).(type) {
	case map[string]any:
		if tv == nil {
			return tv
		}
		out := make(map[string]any, len(tv))
		for k, e := range tv {
			out[k] = Clone(e)
		}
		return out
	case []any:
		if tv == nil {
			return tv
		}
		out := make([]any, len(tv))
		for i, e := range tv {
			out[i] = Clone(e)
		}
		return out
	default:
		return tv
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

func scalarString(v any) (string, bool) {
	if f, ok := toFloat(v); ok {
		return strconv.FormatFloat(f, 'f', -1, 64), true
	}
	switch s := v.(type) {
	case string:
		return s, true
	case bool:
		return strconv.FormatBool(s), true
	}
	return "", false
}
