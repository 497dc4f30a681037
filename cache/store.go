package cache

// Store holds cache entries keyed by request URL.
//
// Implementations keep keys in insertion order: Keys lists them oldest first
// and overwriting an existing key with Set keeps its position. Stores are not
// required to be safe for concurrent use; the response cache serializes
// access.
type Store interface {
	Get(key string) (Entry, bool)
	Set(key string, entry Entry)
	Delete(key string)
	Clear()
	Keys() []string
	Len() int
}
