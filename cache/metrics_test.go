package cache

import (
	"sync"
	"testing"
)

func TestCounterMetrics(t *testing.T) {
	m := NewCounterMetrics()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Hit()
			m.Hit()
			m.Miss()
			m.Expire()
			m.Invalidate()
		}()
	}
	wg.Wait()

	want := Stats{Hits: 20, Misses: 10, Expirations: 10, Invalidations: 10}
	if got := m.Snapshot(); got != want {
		t.Errorf("expected %+v, got %+v", want, got)
	}

	m.Reset()
	if got := m.Snapshot(); got != (Stats{}) {
		t.Errorf("expected zeroed stats after reset, got %+v", got)
	}
}

func TestNoopMetrics(t *testing.T) {
	var m Metrics = NoopMetrics{}
	m.Hit()
	m.Miss()
	m.Expire()
	m.Invalidate()
}
