package responsecache

import (
	"context"

	"github.com/apex/log"

	"github.com/goliatone/go-response-cache/cache"
	"github.com/goliatone/go-response-cache/payload"
	"github.com/goliatone/go-response-cache/transport"
)

// RequestOptions select the invalidation applied before Request and
// RequestCached reach the transport.
type RequestOptions struct {
	// ClearCache drops every entry.
	ClearCache bool
	// ClearLists drops every list entry.
	ClearLists bool
	// ClearOccurrence drops the occurrence entries whose id equals
	// OccurrenceID. It is ignored when OccurrenceID is nil, zero or empty.
	ClearOccurrence bool
	OccurrenceID    any
	// OccurrencePath locates the item inside an occurrence payload.
	OccurrencePath []string
}

// Create drops every list entry, then sends the request. Occurrence entries
// are kept since none of them can describe the item being created.
func (c *ResponseCache) Create(ctx context.Context, method transport.Method, params transport.Params) (any, error) {
	if !method.Valid() {
		return nil, unsupported(method)
	}

	c.mu.Lock()
	c.clearListsLocked()
	c.mu.Unlock()

	return transport.Dispatch(ctx, c.transport, method, params)
}

// Update drops the occurrence entries for id and every list entry, then
// sends the request. Invalidation happens before the transport answers, so a
// read racing a failed update may cache the old state again.
func (c *ResponseCache) Update(ctx context.Context, id any, method transport.Method, params transport.Params, occurrencePath []string) (any, error) {
	return c.write(ctx, id, method, params, occurrencePath)
}

// Delete invalidates like Update, then sends the request.
func (c *ResponseCache) Delete(ctx context.Context, id any, method transport.Method, params transport.Params, occurrencePath []string) (any, error) {
	return c.write(ctx, id, method, params, occurrencePath)
}

// Request applies opts and sends the request. The response is neither
// looked up in nor stored to the cache.
func (c *ResponseCache) Request(ctx context.Context, method transport.Method, params transport.Params, opts RequestOptions) (any, error) {
	if !method.Valid() {
		return nil, unsupported(method)
	}

	c.applyRequestOptions(opts)
	return transport.Dispatch(ctx, c.transport, method, params)
}

// RequestCached applies opts, then serves the request through the cache as
// GetList or Get would, storing the response with the given kind.
func (c *ResponseCache) RequestCached(ctx context.Context, method transport.Method, params transport.Params, kind cache.Kind, opts RequestOptions) (any, error) {
	if !method.Valid() {
		return nil, unsupported(method)
	}

	c.applyRequestOptions(opts)
	return c.cachedRequest(ctx, method, params, kind)
}

func (c *ResponseCache) write(ctx context.Context, id any, method transport.Method, params transport.Params, occurrencePath []string) (any, error) {
	if !method.Valid() {
		return nil, unsupported(method)
	}

	c.mu.Lock()
	c.clearOccurrenceLocked(id, occurrencePath)
	c.clearListsLocked()
	c.mu.Unlock()

	c.logger.WithFields(log.Fields{"url": params.URL, "method": method, "id": id}).Debug("write invalidated cache")
	return transport.Dispatch(ctx, c.transport, method, params)
}

func (c *ResponseCache) applyRequestOptions(opts RequestOptions) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if opts.ClearCache {
		c.clearAllLocked()
	}
	if opts.ClearLists {
		c.clearListsLocked()
	}
	if opts.ClearOccurrence && present(opts.OccurrenceID) {
		c.clearOccurrenceLocked(opts.OccurrenceID, opts.OccurrencePath)
	}
}

// present reports whether id names an item: nil, empty strings, zero numbers
// and false do not.
func present(id any) bool {
	switch v := id.(type) {
	case nil:
		return false
	case string:
		return v != ""
	case bool:
		return v
	}
	return !payload.Equal(id, 0)
}
