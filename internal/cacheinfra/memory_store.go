package cacheinfra

import "slices"

// MemoryStore is an unbounded map that remembers insertion order.
// It is not safe for concurrent use.
type MemoryStore[V any] struct {
	entries map[string]V
	order   []string
}

// NewMemoryStore returns an empty store.
func NewMemoryStore[V any]() *MemoryStore[V] {
	return &MemoryStore[V]{entries: make(map[string]V)}
}

func (s *MemoryStore[V]) Get(key string) (V, bool) {
	v, ok := s.entries[key]
	return v, ok
}

// Set stores value under key. An existing key keeps its position.
func (s *MemoryStore[V]) Set(key string, value V) {
	if _, ok := s.entries[key]; !ok {
		s.order = append(s.order, key)
	}
	s.entries[key] = value
}

func (s *MemoryStore[V]) Delete(key string) {
	if _, ok := s.entries[key]; !ok {
		return
	}
	delete(s.entries, key)
	if i := slices.Index(s.order, key); i >= 0 {
		s.order = slices.Delete(s.order, i, i+1)
	}
}

func (s *MemoryStore[V]) Clear() {
	clear(s.entries)
	s.order = s.order[:0]
}

// Keys returns the stored keys, oldest first.
func (s *MemoryStore[V]) Keys() []string {
	return slices.Clone(s.order)
}

func (s *MemoryStore[V]) Len() int {
	return len(s.entries)
}
