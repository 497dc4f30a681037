package script

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/apex/log"
	"github.com/tidwall/gjson"

	"github.com/goliatone/go-response-cache/cache"
	"github.com/goliatone/go-response-cache/pkg/di"
	"github.com/goliatone/go-response-cache/responsecache"
)

// Result is the outcome of one step.
type Result struct {
	Index    int           `json:"index"`
	Name     string        `json:"name"`
	Resource string        `json:"resource"`
	Op       Op            `json:"op"`
	Method   string        `json:"method,omitempty"`
	URL      string        `json:"url,omitempty"`
	Duration time.Duration `json:"duration"`
	// Stats is the counter delta the step caused.
	Stats  cache.Stats     `json:"stats"`
	Output json.RawMessage `json:"output,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// Hit reports whether the step was served from the cache.
func (r Result) Hit() bool {
	return r.Stats.Hits > 0 && r.Stats.Misses == 0
}

// Runner executes scripts against the caches of a container.
type Runner struct {
	container *di.Container
	logger    log.Interface
	now       func() time.Time
	sleep     func(context.Context, time.Duration) error
}

// NewRunner returns a Runner over c.
func NewRunner(c *di.Container, logger log.Interface) *Runner {
	if logger == nil {
		logger = log.Log
	}
	return &Runner{
		container: c,
		logger:    logger,
		now:       time.Now,
		sleep:     sleepContext,
	}
}

// Run executes every step in order. It stops at the first failing step not
// marked allow_error and returns the results gathered so far with the error.
func (r *Runner) Run(ctx context.Context, s *Script) ([]Result, error) {
	results := make([]Result, 0, len(s.Steps))
	metrics := r.container.Metrics()

	for i, st := range s.Steps {
		rc, err := r.container.ResponseCache(st.resource(), s.Resources[st.resource()])
		if err != nil {
			return results, fmt.Errorf("step %d (%s): %w", i+1, st.label(), err)
		}

		res := Result{
			Index:    i + 1,
			Name:     st.label(),
			Resource: st.resource(),
			Op:       st.Op,
			URL:      st.URL,
		}
		if st.URL != "" {
			res.Method = string(st.method())
		}

		before := metrics.Snapshot()
		start := r.now()
		out, err := r.exec(ctx, rc, st)
		res.Duration = r.now().Sub(start)
		res.Stats = diff(metrics.Snapshot(), before)

		r.logger.WithFields(log.Fields{
			"step":     res.Index,
			"op":       st.Op,
			"resource": res.Resource,
			"duration": res.Duration,
		}).Debug("step done")

		if err != nil {
			res.Error = err.Error()
			results = append(results, res)
			if st.AllowError {
				continue
			}
			return results, fmt.Errorf("step %d (%s): %w", res.Index, res.Name, err)
		}

		if res.Output, err = project(out, st.Select); err != nil {
			return results, fmt.Errorf("step %d (%s): %w", res.Index, res.Name, err)
		}
		results = append(results, res)
	}

	return results, nil
}

func (r *Runner) exec(ctx context.Context, rc *responsecache.ResponseCache, st Step) (any, error) {
	method, params, paths := st.method(), st.params(), st.paths()

	switch st.Op {
	case OpGetList:
		return rc.GetList(ctx, method, params)
	case OpGet:
		return rc.Get(ctx, method, params)
	case OpFindByKey:
		return rc.FindByKey(st.Key, st.Value, paths)
	case OpFindByKeyOrRequest:
		return rc.FindByKeyOrRequest(ctx, st.Key, st.Value, method, params, paths)
	case OpFindByKeyOrRequestGetAll:
		return rc.FindByKeyOrRequestGetAll(ctx, st.Key, st.Value, method, params, paths)
	case OpFind:
		return rc.Find(st.ID, paths)
	case OpFindOrRequest:
		return rc.FindOrRequest(ctx, st.ID, method, params, paths)
	case OpFindOrRequestGetAll:
		return rc.FindOrRequestGetAll(ctx, st.ID, method, params, paths)
	case OpCreate:
		return rc.Create(ctx, method, params)
	case OpUpdate:
		return rc.Update(ctx, st.ID, method, params, st.OccurrencePath)
	case OpDelete:
		return rc.Delete(ctx, st.ID, method, params, st.OccurrencePath)
	case OpRequest:
		return rc.Request(ctx, method, params, st.requestOptions())
	case OpRequestCached:
		return rc.RequestCached(ctx, method, params, st.kind(), st.requestOptions())
	case OpClear:
		rc.Clear()
		return nil, nil
	case OpWait:
		r.container.Wait()
		return nil, nil
	case OpSleep:
		return nil, r.sleep(ctx, st.Duration)
	default:
		return nil, fmt.Errorf("unknown op %q", st.Op)
	}
}

// project encodes v as JSON and narrows it with a gjson path when sel is set.
func project(v any, sel string) (json.RawMessage, error) {
	if v == nil {
		return nil, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode output: %w", err)
	}
	if sel == "" {
		return raw, nil
	}

	picked := gjson.GetBytes(raw, sel)
	if !picked.Exists() {
		return json.RawMessage("null"), nil
	}
	return json.RawMessage(picked.Raw), nil
}

func diff(after, before cache.Stats) cache.Stats {
	return cache.Stats{
		Hits:          after.Hits - before.Hits,
		Misses:        after.Misses - before.Misses,
		Expirations:   after.Expirations - before.Expirations,
		Invalidations: after.Invalidations - before.Invalidations,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
