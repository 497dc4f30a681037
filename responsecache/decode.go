package responsecache

import "github.com/goliatone/go-response-cache/payload"

// Decode converts the untyped result of a cache call into T. It is meant to
// wrap a call directly:
//
//	user, err := responsecache.Decode[User](users.Find(42, responsecache.SubPaths{}))
func Decode[T any](v any, err error) (T, error) {
	if err != nil {
		var zero T
		return zero, err
	}
	return payload.Decode[T](v)
}
