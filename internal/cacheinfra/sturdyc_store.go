package cacheinfra

import (
	"slices"

	"github.com/viccon/sturdyc"
)

// SturdycStore keeps entries in a sharded sturdyc client, which bounds memory
// through capacity eviction and a hard TTL. sturdyc does not track insertion
// order, so the store keeps its own key list and prunes keys sturdyc evicted.
// It is not safe for concurrent use.
type SturdycStore[V any] struct {
	client *sturdyc.Client[V]
	order  []string
}

// NewSturdycStore validates cfg and builds the sturdyc client.
func NewSturdycStore[V any](cfg SturdycConfig) (*SturdycStore[V], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client := sturdyc.New[V](
		cfg.Capacity,
		cfg.NumShards,
		cfg.TTL,
		cfg.EvictionPercentage,
		cfg.ToSturdycOptions()...,
	)

	return &SturdycStore[V]{client: client}, nil
}

func (s *SturdycStore[V]) Get(key string) (V, bool) {
	v, ok := s.client.Get(key)
	if !ok {
		s.forget(key)
	}
	return v, ok
}

// Set stores value under key. An existing key keeps its position.
func (s *SturdycStore[V]) Set(key string, value V) {
	if !slices.Contains(s.order, key) {
		s.order = append(s.order, key)
	}
	s.client.Set(key, value)
}

func (s *SturdycStore[V]) Delete(key string) {
	s.client.Delete(key)
	s.forget(key)
}

func (s *SturdycStore[V]) Clear() {
	for _, key := range s.client.ScanKeys() {
		s.client.Delete(key)
	}
	s.order = s.order[:0]
}

// Keys returns the keys sturdyc still holds, oldest first.
func (s *SturdycStore[V]) Keys() []string {
	live := make(map[string]struct{}, len(s.order))
	for _, key := range s.client.ScanKeys() {
		live[key] = struct{}{}
	}

	s.order = slices.DeleteFunc(s.order, func(key string) bool {
		_, ok := live[key]
		return !ok
	})
	return slices.Clone(s.order)
}

func (s *SturdycStore[V]) Len() int {
	return len(s.Keys())
}

func (s *SturdycStore[V]) forget(key string) {
	if i := slices.Index(s.order, key); i >= 0 {
		s.order = slices.Delete(s.order, i, i+1)
	}
}
