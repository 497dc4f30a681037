package di

import (
	"fmt"
	"sync"

	"github.com/apex/log"

	"github.com/goliatone/go-response-cache/cache"
	"github.com/goliatone/go-response-cache/responsecache"
	"github.com/goliatone/go-response-cache/transport"
)

// Container is the composition root for response caches. It owns the
// configuration, the transport shared by every cache and the metrics they
// report to, and hands out one ResponseCache per API resource.
type Container struct {
	config    cache.Config
	transport transport.Transport
	metrics   *cache.CounterMetrics
	logger    log.Interface

	mu     sync.Mutex
	caches map[string]*responsecache.ResponseCache
}

// ContainerOption customizes a Container.
type ContainerOption func(*Container)

// WithLogger sets the logger handed to the transport built by
// NewContainerFromEnv and to every cache.
func WithLogger(logger log.Interface) ContainerOption {
	return func(c *Container) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewContainer validates config and wires it with tr.
func NewContainer(config cache.Config, tr transport.Transport, opts ...ContainerOption) (*Container, error) {
	if tr == nil {
		return nil, fmt.Errorf("di: transport is required")
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("di: invalid cache config: %w", err)
	}

	c := &Container{
		config:    config,
		transport: tr,
		metrics:   cache.NewCounterMetrics(),
		logger:    log.Log,
		caches:    make(map[string]*responsecache.ResponseCache),
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// NewContainerFromEnv reads the cache and HTTP settings from RESPCACHE_*
// environment variables and builds an HTTP transport authenticated by tokens.
// tokens may be nil for anonymous APIs.
func NewContainerFromEnv(tokens transport.TokenSource, opts ...ContainerOption) (*Container, error) {
	config, err := cache.LoadConfigFromEnv()
	if err != nil {
		return nil, err
	}
	httpConfig, err := transport.LoadHTTPConfigFromEnv()
	if err != nil {
		return nil, err
	}

	probe := &Container{logger: log.Log}
	for _, opt := range opts {
		opt(probe)
	}

	tr := transport.NewHTTP(httpConfig,
		transport.WithTokenSource(tokens),
		transport.WithLogger(probe.logger),
	)
	return NewContainer(config, tr, opts...)
}

// Config returns a copy of the cache configuration used by this container.
func (c *Container) Config() cache.Config {
	return c.config
}

// Transport returns the transport shared by every cache.
func (c *Container) Transport() transport.Transport {
	return c.transport
}

// Metrics returns the counters every cache built by the container reports to.
func (c *Container) Metrics() *cache.CounterMetrics {
	return c.metrics
}

// NewResponseCache builds a cache that is not registered with the container.
// An empty idKey keeps the configured one.
func (c *Container) NewResponseCache(idKey string, opts ...responsecache.Option) (*responsecache.ResponseCache, error) {
	config := c.config
	if idKey != "" {
		config.IDKey = idKey
	}

	base := []responsecache.Option{
		responsecache.WithMetrics(c.metrics),
		responsecache.WithLogger(c.logger),
	}
	return responsecache.New(c.transport, config, append(base, opts...)...)
}

// ResponseCache returns the cache registered for resource, creating it on
// first use. idKey only applies when the cache is created.
func (c *Container) ResponseCache(resource, idKey string) (*responsecache.ResponseCache, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if rc, ok := c.caches[resource]; ok {
		return rc, nil
	}

	rc, err := c.NewResponseCache(idKey, responsecache.WithLogger(c.logger.WithField("resource", resource)))
	if err != nil {
		return nil, err
	}
	c.caches[resource] = rc
	return rc, nil
}

// Clear empties every registered cache, e.g. when the signed in user changes.
func (c *Container) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, rc := range c.caches {
		rc.Clear()
	}
}

// Wait blocks until no registered cache has a background fetch in flight.
func (c *Container) Wait() {
	c.mu.Lock()
	caches := make([]*responsecache.ResponseCache, 0, len(c.caches))
	for _, rc := range c.caches {
		caches = append(caches, rc)
	}
	c.mu.Unlock()

	for _, rc := range caches {
		rc.Wait()
	}
}
