package payload

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"
)

// Decode converts an untyped payload into T, matching object keys against
// the `json` struct tags of T.
func Decode[T any](v any) (T, error) {
	var out T

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		Result:           &out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return out, fmt.Errorf("payload: build decoder: %w", err)
	}

	if err := decoder.Decode(Normalize(v)); err != nil {
		var zero T
		return zero, fmt.Errorf("payload: decode into %T: %w", out, err)
	}
	return out, nil
}
