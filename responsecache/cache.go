package responsecache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/apex/log"
	"golang.org/x/sync/singleflight"

	"github.com/goliatone/go-response-cache/cache"
	"github.com/goliatone/go-response-cache/payload"
	"github.com/goliatone/go-response-cache/transport"
)

// ResponseCache decorates a transport.Transport with a per URL response cache.
type ResponseCache struct {
	transport  transport.Transport
	idKey      string
	unexpiring bool
	validity   time.Duration

	mu    sync.Mutex
	store cache.Store

	clock   cache.Clock
	logger  log.Interface
	metrics cache.Metrics

	warmups singleflight.Group

	// warming counts background fetches; warmDone is signalled when it
	// drops to zero.
	warmMu   sync.Mutex
	warmDone *sync.Cond
	warming  int
}

// SubPaths locate the data inside a response envelope. List leads to the
// array of a list response, Occurrence to the object of a single item
// response. Empty paths mean the payload itself.
type SubPaths struct {
	List       []string
	Occurrence []string
}

// New creates a ResponseCache in front of tr.
func New(tr transport.Transport, cfg cache.Config, opts ...Option) (*ResponseCache, error) {
	if tr == nil {
		return nil, fmt.Errorf("responsecache: transport is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("responsecache: invalid config: %w", err)
	}

	c := &ResponseCache{
		transport:  tr,
		idKey:      cfg.IDKey,
		unexpiring: cfg.Unexpiring,
		validity:   cfg.Validity,
		clock:      cache.SystemClock{},
		logger:     log.Log,
		metrics:    cache.NoopMetrics{},
	}
	c.warmDone = sync.NewCond(&c.warmMu)
	for _, opt := range opts {
		opt(c)
	}

	if c.store == nil {
		store, err := cache.NewStore(cfg)
		if err != nil {
			return nil, err
		}
		c.store = store
	}

	return c, nil
}

// IDKey returns the field name identifying an occurrence.
func (c *ResponseCache) IDKey() string {
	return c.idKey
}

// GetList returns the list response for params, from the cache when a fresh
// entry with the same signature exists and from the transport otherwise.
func (c *ResponseCache) GetList(ctx context.Context, method transport.Method, params transport.Params) (any, error) {
	return c.cachedRequest(ctx, method, params, cache.KindList)
}

// Get is GetList for single item responses.
func (c *ResponseCache) Get(ctx context.Context, method transport.Method, params transport.Params) (any, error) {
	return c.cachedRequest(ctx, method, params, cache.KindOccurrence)
}

// Clear drops every entry.
func (c *ResponseCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.clearAllLocked()
}

// Len returns the number of entries, expired ones included until the next sweep.
func (c *ResponseCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.store.Len()
}

// Wait blocks until the background list fetches started by the
// ...OrRequestGetAll lookups have finished. It is safe to call while other
// goroutines keep starting lookups; fetches started meanwhile are waited for
// as well.
func (c *ResponseCache) Wait() {
	c.warmMu.Lock()
	defer c.warmMu.Unlock()

	for c.warming > 0 {
		c.warmDone.Wait()
	}
}

func (c *ResponseCache) cachedRequest(ctx context.Context, method transport.Method, params transport.Params, kind cache.Kind) (any, error) {
	if !method.Valid() {
		return nil, unsupported(method)
	}

	signature := cache.NewSignature(method, params)
	fields := log.Fields{"url": params.URL, "method": method, "kind": kind}

	c.mu.Lock()
	c.sweepLocked()
	entry, ok := c.store.Get(params.URL)
	hit := ok && entry.Signature.Equal(signature)
	c.mu.Unlock()

	if hit {
		c.metrics.Hit()
		c.logger.WithFields(fields).Debug("cache hit")
		return entry.Payload, nil
	}

	c.metrics.Miss()
	c.logger.WithFields(fields).Debug("cache miss")

	result, err := transport.Dispatch(ctx, c.transport, method, params)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.store.Set(params.URL, cache.Entry{
		FetchedAt: c.clock.Now(),
		Signature: signature,
		Kind:      kind,
		Payload:   result,
	})
	c.mu.Unlock()

	return result, nil
}

// warmUp fetches the list for params in the background. Concurrent warm-ups
// of the same request share one transport call.
func (c *ResponseCache) warmUp(ctx context.Context, method transport.Method, params transport.Params) {
	ctx = context.WithoutCancel(ctx)
	key := string(method) + " " + params.URL + " " + cache.NewSignature(method, params).String()

	c.warmMu.Lock()
	c.warming++
	c.warmMu.Unlock()

	go func() {
		defer c.warmFinished()

		_, err, _ := c.warmups.Do(key, func() (any, error) {
			return c.GetList(ctx, method, params)
		})
		if err != nil {
			c.logger.WithFields(log.Fields{"url": params.URL, "method": method}).
				WithError(err).Warn("list warm-up failed")
		}
	}()
}

func (c *ResponseCache) warmFinished() {
	c.warmMu.Lock()
	defer c.warmMu.Unlock()

	c.warming--
	if c.warming == 0 {
		c.warmDone.Broadcast()
	}
}

func (c *ResponseCache) sweepLocked() {
	if c.unexpiring {
		return
	}

	now := c.clock.Now()
	for _, url := range c.store.Keys() {
		entry, ok := c.store.Get(url)
		if !ok || !entry.Expired(now, c.validity) {
			continue
		}
		c.store.Delete(url)
		c.metrics.Expire()
		c.logger.WithFields(log.Fields{"url": url, "kind": entry.Kind}).Debug("cache entry expired")
	}
}

func (c *ResponseCache) clearAllLocked() {
	n := c.store.Len()
	c.store.Clear()
	for i := 0; i < n; i++ {
		c.metrics.Invalidate()
	}
	if n > 0 {
		c.logger.WithField("entries", n).Debug("cache cleared")
	}
}

func (c *ResponseCache) clearListsLocked() {
	for _, url := range c.store.Keys() {
		entry, ok := c.store.Get(url)
		if !ok || entry.Kind != cache.KindList {
			continue
		}
		c.invalidateLocked(url, entry)
	}
}

func (c *ResponseCache) clearOccurrenceLocked(id any, occurrencePath []string) {
	for _, url := range c.store.Keys() {
		entry, ok := c.store.Get(url)
		if !ok || entry.Kind != cache.KindOccurrence {
			continue
		}
		occurrence, ok := payload.ExtractOccurrence(entry.Payload, occurrencePath)
		if !ok {
			continue
		}
		if field, ok := occurrence[c.idKey]; ok && payload.Loose(field, id) {
			c.invalidateLocked(url, entry)
		}
	}
}

func (c *ResponseCache) invalidateLocked(url string, entry cache.Entry) {
	c.store.Delete(url)
	c.metrics.Invalidate()
	c.logger.WithFields(log.Fields{"url": url, "kind": entry.Kind}).Debug("cache entry invalidated")
}

func unsupported(method transport.Method) error {
	return fmt.Errorf("%w: %q", transport.ErrUnsupportedMethod, string(method))
}
