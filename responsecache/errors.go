package responsecache

import "errors"

// ErrNotFound is returned by the cache only lookups when no cached item
// matches. It never comes out of a call that reached the transport.
var ErrNotFound = errors.New("responsecache: not found")

// IsNotFound reports whether err is, or wraps, ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
