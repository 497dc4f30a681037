package responsecache

import (
	"sync"
	"testing"
	"time"

	"github.com/goliatone/go-response-cache/cache"
	"github.com/goliatone/go-response-cache/pkg/testsupport"
	"github.com/goliatone/go-response-cache/transport"
)

// fakeClock is a manually advanced cache.Clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	cache     *ResponseCache
	transport *testsupport.FakeTransport
	clock     *fakeClock
	metrics   *cache.CounterMetrics
}

func newFixture(t *testing.T, mutate func(*cache.Config)) *fixture {
	t.Helper()

	cfg := cache.DefaultConfig()
	if mutate != nil {
		mutate(&cfg)
	}

	f := &fixture{
		transport: testsupport.NewFakeTransport(),
		clock:     newFakeClock(),
		metrics:   cache.NewCounterMetrics(),
	}

	c, err := New(f.transport, cfg, WithClock(f.clock), WithMetrics(f.metrics))
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	f.cache = c
	return f
}

func get(url string) transport.Params {
	return transport.Params{URL: url}
}

func item(id any, name string) map[string]any {
	return map[string]any{"id": id, "name": name}
}

func list(items ...map[string]any) []any {
	out := make([]any, len(items))
	for i, it := range items {
		out[i] = it
	}
	return out
}
