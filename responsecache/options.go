package responsecache

import (
	"github.com/apex/log"

	"github.com/goliatone/go-response-cache/cache"
)

// Option customizes a ResponseCache.
type Option func(*ResponseCache)

// WithStore replaces the store selected by Config.Backend.
func WithStore(store cache.Store) Option {
	return func(c *ResponseCache) {
		if store != nil {
			c.store = store
		}
	}
}

// WithClock replaces the wall clock used to stamp and expire entries.
func WithClock(clock cache.Clock) Option {
	return func(c *ResponseCache) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithLogger replaces the default apex/log logger.
func WithLogger(logger log.Interface) Option {
	return func(c *ResponseCache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics registers a receiver for hit, miss, expiry and invalidation events.
func WithMetrics(metrics cache.Metrics) Option {
	return func(c *ResponseCache) {
		if metrics != nil {
			c.metrics = metrics
		}
	}
}
