package cache

import "github.com/puzpuzpuz/xsync/v3"

// Metrics is notified of cache events.
type Metrics interface {
	// Hit is called when a read is answered from the cache.
	Hit()
	// Miss is called when a read has to go to the transport.
	Miss()
	// Expire is called for each entry removed because it outlived its validity.
	Expire()
	// Invalidate is called for each entry removed by a write or an explicit clear.
	Invalidate()
}

// NoopMetrics discards every event.
type NoopMetrics struct{}

func (NoopMetrics) Hit()        {}
func (NoopMetrics) Miss()       {}
func (NoopMetrics) Expire()     {}
func (NoopMetrics) Invalidate() {}

// Stats is a point in time copy of CounterMetrics.
type Stats struct {
	Hits          int64 `json:"hits"`
	Misses        int64 `json:"misses"`
	Expirations   int64 `json:"expirations"`
	Invalidations int64 `json:"invalidations"`
}

// CounterMetrics counts events. It is safe for concurrent use.
type CounterMetrics struct {
	hits          *xsync.Counter
	misses        *xsync.Counter
	expirations   *xsync.Counter
	invalidations *xsync.Counter
}

// NewCounterMetrics returns zeroed counters.
func NewCounterMetrics() *CounterMetrics {
	return &CounterMetrics{
		hits:          xsync.NewCounter(),
		misses:        xsync.NewCounter(),
		expirations:   xsync.NewCounter(),
		invalidations: xsync.NewCounter(),
	}
}

func (m *CounterMetrics) Hit()        { m.hits.Inc() }
func (m *CounterMetrics) Miss()       { m.misses.Inc() }
func (m *CounterMetrics) Expire()     { m.expirations.Inc() }
func (m *CounterMetrics) Invalidate() { m.invalidations.Inc() }

// Snapshot returns the current counts.
func (m *CounterMetrics) Snapshot() Stats {
	return Stats{
		Hits:          m.hits.Value(),
		Misses:        m.misses.Value(),
		Expirations:   m.expirations.Value(),
		Invalidations: m.invalidations.Value(),
	}
}

// Reset zeroes every counter.
func (m *CounterMetrics) Reset() {
	m.hits.Reset()
	m.misses.Reset()
	m.expirations.Reset()
	m.invalidations.Reset()
}
