package payload

import (
	"fmt"
	"sort"
	"strings"
)

// Canonical renders v as a deterministic string. Object keys are sorted so two
// structurally equal values always render the same way, which makes the
// output usable as a fingerprint in logs and as a map key.
func Canonical(v any) string {
	var b strings.Builder
	writeCanonical(&b, v)
	return b.String()
}

func writeCanonical(b *strings.Builder, v any) {
	v = Normalize(v)
	if v == nil {
		b.WriteString("null")
		return
	}

	if s, ok := scalarString(v); ok {
		if _, isString := v.(string); isString {
			fmt.Fprintf(b, "%q", s)
			return
		}
		b.WriteString(s)
		return
	}

	switch tv := v.(type) {
	case []any:
		b.WriteByte('[')
		for i, elem := range tv {
			if i > 0 {
				b.WriteByte(',')
			}
			writeCanonical(b, elem)
		}
		b.WriteByte(']')
	case map[string]any:
		keys := make([]string, 0, len(tv))
		for k := range tv {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		b.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				b.WriteByte(',')
			}
			fmt.Fprintf(b, "%q:", k)
			writeCanonical(b, tv[k])
		}
		b.WriteByte('}')
	default:
		// Normalize could not bring the value into a known shape.
		fmt.Fprintf(b, "fallback:%T", v)
	}
}
