package responsecache

import (
	"context"
	"fmt"

	"github.com/goliatone/go-response-cache/cache"
	"github.com/goliatone/go-response-cache/payload"
	"github.com/goliatone/go-response-cache/transport"
)

// FindByKey searches the cached payloads for the first item whose key field
// equals value. Entries are visited in the order their URLs were first
// cached. It never calls the transport and fails with ErrNotFound on a miss.
func (c *ResponseCache) FindByKey(key string, value any, paths SubPaths) (any, error) {
	if item, ok := c.findInCache(key, value, paths); ok {
		return item, nil
	}
	c.metrics.Miss()
	return nil, fmt.Errorf("%w: %s=%v", ErrNotFound, key, value)
}

// FindByKeyOrRequest is FindByKey falling back to Get on a miss. The miss is
// counted once, by Get.
func (c *ResponseCache) FindByKeyOrRequest(ctx context.Context, key string, value any, method transport.Method, params transport.Params, paths SubPaths) (any, error) {
	if item, ok := c.findInCache(key, value, paths); ok {
		return item, nil
	}
	return c.Get(ctx, method, params)
}

// FindByKeyOrRequestGetAll is FindByKey that, on a miss, starts fetching the
// list described by method and params in the background and then searches
// the cache once more without waiting for it. The second search usually
// misses while the list is in flight; later lookups are then served from the
// warmed cache. Use Wait to block until background fetches are done.
func (c *ResponseCache) FindByKeyOrRequestGetAll(ctx context.Context, key string, value any, method transport.Method, params transport.Params, paths SubPaths) (any, error) {
	if item, ok := c.findInCache(key, value, paths); ok {
		return item, nil
	}
	if !method.Valid() {
		return nil, unsupported(method)
	}

	c.warmUp(ctx, method, params)
	return c.FindByKey(key, value, paths)
}

// Find is FindByKey on the configured id key.
func (c *ResponseCache) Find(id any, paths SubPaths) (any, error) {
	return c.FindByKey(c.idKey, id, paths)
}

// FindOrRequest is FindByKeyOrRequest on the configured id key.
func (c *ResponseCache) FindOrRequest(ctx context.Context, id any, method transport.Method, params transport.Params, paths SubPaths) (any, error) {
	return c.FindByKeyOrRequest(ctx, c.idKey, id, method, params, paths)
}

// FindOrRequestGetAll is FindByKeyOrRequestGetAll on the configured id key.
func (c *ResponseCache) FindOrRequestGetAll(ctx context.Context, id any, method transport.Method, params transport.Params, paths SubPaths) (any, error) {
	return c.FindByKeyOrRequestGetAll(ctx, c.idKey, id, method, params, paths)
}

// findInCache counts hits only. Callers count the miss once they know how the
// lookup ends.
func (c *ResponseCache) findInCache(key string, value any, paths SubPaths) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.sweepLocked()

	for _, url := range c.store.Keys() {
		entry, ok := c.store.Get(url)
		if !ok {
			continue
		}

		switch entry.Kind {
		case cache.KindList:
			list, ok := payload.ExtractList(entry.Payload, paths.List)
			if !ok {
				continue
			}
			for _, item := range list {
				if matches(item, key, value) {
					c.metrics.Hit()
					return item, true
				}
			}
		case cache.KindOccurrence:
			occurrence, ok := payload.ExtractOccurrence(entry.Payload, paths.Occurrence)
			if ok && matches(occurrence, key, value) {
				c.metrics.Hit()
				return occurrence, true
			}
		}
	}

	return nil, false
}

func matches(item any, key string, value any) bool {
	field, ok := payload.Field(item, key)
	return ok && payload.Equal(field, value)
}
