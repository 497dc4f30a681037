package responsecache

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/goliatone/go-response-cache/cache"
	"github.com/goliatone/go-response-cache/transport"
)

func TestFindByKey_Occurrence(t *testing.T) {
	f := newFixture(t, nil)
	f.transport.Respond(transport.MethodGet, "/items/1", item(1, "a"))

	if _, err := f.cache.Get(context.Background(), transport.MethodGet, get("/items/1")); err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	got, err := f.cache.FindByKey("name", "a", SubPaths{Occurrence: []string{}})
	if err != nil {
		t.Fatalf("FindByKey failed: %v", err)
	}
	if !reflect.DeepEqual(got, item(1, "a")) {
		t.Errorf("expected %v, got %v", item(1, "a"), got)
	}

	_, err = f.cache.FindByKey("name", "z", SubPaths{})
	if !errors.Is(err, ErrNotFound) || !IsNotFound(err) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestFindByKey_NestedList(t *testing.T) {
	f := newFixture(t, nil)
	envelope := map[string]any{
		"data": map[string]any{
			"list": []any{map[string]any{"id": 1}, map[string]any{"id": 2}},
		},
	}
	f.transport.Respond(transport.MethodGet, "/items", envelope)

	if _, err := f.cache.GetList(context.Background(), transport.MethodGet, get("/items")); err != nil {
		t.Fatalf("GetList failed: %v", err)
	}

	got, err := f.cache.FindByKey("id", 2, SubPaths{List: []string{"data", "list"}})
	if err != nil {
		t.Fatalf("FindByKey failed: %v", err)
	}
	if !reflect.DeepEqual(got, map[string]any{"id": 2}) {
		t.Errorf("expected {id:2}, got %v", got)
	}
}

func TestFindByKey_ListPathStopsAtArray(t *testing.T) {
	f := newFixture(t, nil)
	f.transport.Respond(transport.MethodGet, "/items", list(item(1, "a"), item(2, "b")))

	if _, err := f.cache.GetList(context.Background(), transport.MethodGet, get("/items")); err != nil {
		t.Fatalf("GetList failed: %v", err)
	}

	got, err := f.cache.FindByKey("name", "b", SubPaths{List: []string{"data", "list"}})
	if err != nil {
		t.Fatalf("expected bare list to be searched, got %v", err)
	}
	if !reflect.DeepEqual(got, item(2, "b")) {
		t.Errorf("expected item 2, got %v", got)
	}
}

func TestFindByKey_PathMissesAreSkipped(t *testing.T) {
	f := newFixture(t, nil)
	f.transport.
		Respond(transport.MethodGet, "/broken", map[string]any{"data": "not a list"}).
		Respond(transport.MethodGet, "/scalar", "plain text").
		Respond(transport.MethodGet, "/items", map[string]any{"data": map[string]any{"list": list(item(7, "x"))}})
	ctx := context.Background()

	_, _ = f.cache.GetList(ctx, transport.MethodGet, get("/broken"))
	_, _ = f.cache.Get(ctx, transport.MethodGet, get("/scalar"))
	_, _ = f.cache.GetList(ctx, transport.MethodGet, get("/items"))

	got, err := f.cache.FindByKey("id", 7, SubPaths{List: []string{"data", "list"}, Occurrence: []string{"data"}})
	if err != nil {
		t.Fatalf("FindByKey failed: %v", err)
	}
	if !reflect.DeepEqual(got, item(7, "x")) {
		t.Errorf("expected item 7, got %v", got)
	}
}

func TestFindByKey_StrictMatching(t *testing.T) {
	tests := []struct {
		name  string
		value any
		found bool
	}{
		{"same int", 42, true},
		{"float from json", float64(42), true},
		{"int64", int64(42), true},
		{"string form", "42", false},
		{"other number", 43, false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)
			f.transport.Respond(transport.MethodGet, "/items/42", item(42, "a"))
			_, _ = f.cache.Get(context.Background(), transport.MethodGet, get("/items/42"))

			_, err := f.cache.Find(tt.value, SubPaths{})
			if tt.found && err != nil {
				t.Errorf("expected match for %v, got %v", tt.value, err)
			}
			if !tt.found && !errors.Is(err, ErrNotFound) {
				t.Errorf("expected ErrNotFound for %v, got %v", tt.value, err)
			}
		})
	}
}

func TestFindByKey_InsertionOrder(t *testing.T) {
	f := newFixture(t, nil)
	f.transport.
		Respond(transport.MethodGet, "/first", list(item(1, "from first"))).
		Respond(transport.MethodGet, "/second", item(1, "from second"))
	ctx := context.Background()

	_, _ = f.cache.GetList(ctx, transport.MethodGet, get("/first"))
	_, _ = f.cache.Get(ctx, transport.MethodGet, get("/second"))

	got, err := f.cache.Find(1, SubPaths{})
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	if !reflect.DeepEqual(got, item(1, "from first")) {
		t.Errorf("expected the first cached URL to win, got %v", got)
	}
}

func TestFindByKey_NeverCallsTransport(t *testing.T) {
	f := newFixture(t, nil)
	f.transport.Respond(transport.MethodGet, "/items/1", item(1, "a"))

	for _, id := range []any{1, "1", 2} {
		_, _ = f.cache.Find(id, SubPaths{})
	}

	if f.transport.TotalCalls() != 0 {
		t.Errorf("expected no transport calls, got %d", f.transport.TotalCalls())
	}
}

func TestFindByKey_SweepsExpiredEntries(t *testing.T) {
	f := newFixture(t, nil)
	f.transport.Respond(transport.MethodGet, "/items/1", item(1, "a"))
	_, _ = f.cache.Get(context.Background(), transport.MethodGet, get("/items/1"))

	f.clock.Advance(cache.DefaultValidity + 1)

	if _, err := f.cache.Find(1, SubPaths{}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected expired entry to be ignored, got %v", err)
	}
	if f.cache.Len() != 0 {
		t.Errorf("expected expired entry to be swept, got %d entries", f.cache.Len())
	}
}

func TestFindByKeyOrRequest(t *testing.T) {
	f := newFixture(t, nil)
	f.transport.Respond(transport.MethodGet, "/items/1", item(1, "a"))
	ctx := context.Background()

	got, err := f.cache.FindOrRequest(ctx, 1, transport.MethodGet, get("/items/1"), SubPaths{})
	if err != nil {
		t.Fatalf("FindOrRequest failed: %v", err)
	}
	if !reflect.DeepEqual(got, item(1, "a")) {
		t.Errorf("expected fetched item, got %v", got)
	}

	got, err = f.cache.FindOrRequest(ctx, 1, transport.MethodGet, get("/items/1"), SubPaths{})
	if err != nil {
		t.Fatalf("FindOrRequest failed: %v", err)
	}
	if !reflect.DeepEqual(got, item(1, "a")) {
		t.Errorf("expected cached item, got %v", got)
	}
	if n := f.transport.TotalCalls(); n != 1 {
		t.Errorf("expected 1 transport call, got %d", n)
	}

	entry, ok := f.cache.store.Get("/items/1")
	if !ok || entry.Kind != cache.KindOccurrence {
		t.Errorf("expected fallback to be cached as occurrence, got %+v", entry)
	}
}

func TestFindByKeyOrRequest_CountsEachLookupOnce(t *testing.T) {
	f := newFixture(t, nil)
	f.transport.Respond(transport.MethodGet, "/items/1", item(1, "a"))
	ctx := context.Background()

	if _, err := f.cache.FindOrRequest(ctx, 1, transport.MethodGet, get("/items/1"), SubPaths{}); err != nil {
		t.Fatalf("FindOrRequest failed: %v", err)
	}
	if got, want := f.metrics.Snapshot(), (cache.Stats{Misses: 1}); got != want {
		t.Errorf("after miss: expected %+v, got %+v", want, got)
	}

	if _, err := f.cache.FindOrRequest(ctx, 1, transport.MethodGet, get("/items/1"), SubPaths{}); err != nil {
		t.Fatalf("FindOrRequest failed: %v", err)
	}
	if _, err := f.cache.Find(2, SubPaths{}); !IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
	if got, want := f.metrics.Snapshot(), (cache.Stats{Hits: 1, Misses: 2}); got != want {
		t.Errorf("expected %+v, got %+v", want, got)
	}
}

func TestFindByKeyOrRequest_TransportErrorPassesThrough(t *testing.T) {
	f := newFixture(t, nil)
	notFound := &transport.HTTPError{Status: 404, Type: transport.ErrorNotFound}
	f.transport.Fail(transport.MethodGet, "/items/9", notFound)

	_, err := f.cache.FindByKeyOrRequest(context.Background(), "id", 9, transport.MethodGet, get("/items/9"), SubPaths{})
	if !errors.Is(err, notFound) {
		t.Errorf("expected transport error, got %v", err)
	}
	if errors.Is(err, ErrNotFound) {
		t.Error("transport failures must not be reported as cache misses")
	}
}

func TestFindByKeyOrRequestGetAll_WarmsInBackground(t *testing.T) {
	f := newFixture(t, nil)
	f.transport.Respond(transport.MethodGet, "/items", list(item(1, "a"), item(2, "b")))
	f.transport.Block()

	_, err := f.cache.FindOrRequestGetAll(context.Background(), 2, transport.MethodGet, get("/items"), SubPaths{})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected immediate retry to miss while the list is in flight, got %v", err)
	}

	f.transport.Release()
	f.cache.Wait()

	got, err := f.cache.Find(2, SubPaths{})
	if err != nil {
		t.Fatalf("expected warmed cache to answer, got %v", err)
	}
	if !reflect.DeepEqual(got, item(2, "b")) {
		t.Errorf("expected item 2, got %v", got)
	}

	entry, ok := f.cache.store.Get("/items")
	if !ok || entry.Kind != cache.KindList {
		t.Errorf("expected warm-up to cache a list, got %+v", entry)
	}
}

func TestFindByKeyOrRequestGetAll_DeduplicatesWarmUps(t *testing.T) {
	f := newFixture(t, nil)
	f.transport.Respond(transport.MethodGet, "/items", list(item(1, "a")))
	f.transport.Block()
	ctx := context.Background()

	_, _ = f.cache.FindOrRequestGetAll(ctx, 1, transport.MethodGet, get("/items"), SubPaths{})
	f.transport.AwaitCalls(t, 1)
	_, _ = f.cache.FindOrRequestGetAll(ctx, 1, transport.MethodGet, get("/items"), SubPaths{})

	f.transport.Release()
	f.cache.Wait()

	if n := f.transport.CallCount(transport.MethodGet, "/items"); n != 1 {
		t.Errorf("expected concurrent warm-ups to share one call, got %d", n)
	}
}

func TestWait_WhileNewWarmUpsStart(t *testing.T) {
	f := newFixture(t, nil)
	f.transport.
		Respond(transport.MethodGet, "/a", list(item(1, "a"))).
		Respond(transport.MethodGet, "/b", list(item(2, "b")))
	f.transport.Block()
	ctx := context.Background()

	_, _ = f.cache.FindOrRequestGetAll(ctx, 1, transport.MethodGet, get("/a"), SubPaths{})
	f.transport.AwaitCalls(t, 1)

	done := make(chan struct{})
	go func() {
		f.cache.Wait()
		close(done)
	}()

	_, _ = f.cache.FindOrRequestGetAll(ctx, 2, transport.MethodGet, get("/b"), SubPaths{})
	f.transport.AwaitCalls(t, 2)
	f.transport.Release()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Wait did not return")
	}

	for _, id := range []int{1, 2} {
		if _, err := f.cache.Find(id, SubPaths{}); err != nil {
			t.Errorf("expected item %d after Wait, got %v", id, err)
		}
	}
}

func TestFindByKeyOrRequestGetAll_OutlivesCallerContext(t *testing.T) {
	f := newFixture(t, nil)
	f.transport.Respond(transport.MethodGet, "/items", list(item(1, "a")))
	f.transport.Block()

	ctx, cancel := context.WithCancel(context.Background())
	_, _ = f.cache.FindOrRequestGetAll(ctx, 1, transport.MethodGet, get("/items"), SubPaths{})
	f.transport.AwaitCalls(t, 1)
	cancel()

	f.transport.Release()
	f.cache.Wait()

	if _, err := f.cache.Find(1, SubPaths{}); err != nil {
		t.Errorf("expected warm-up to complete after the caller gave up, got %v", err)
	}
}

func TestFindByKeyOrRequestGetAll_HitSkipsWarmUp(t *testing.T) {
	f := newFixture(t, nil)
	f.transport.Respond(transport.MethodGet, "/items/1", item(1, "a"))
	ctx := context.Background()
	_, _ = f.cache.Get(ctx, transport.MethodGet, get("/items/1"))

	got, err := f.cache.FindByKeyOrRequestGetAll(ctx, "name", "a", transport.MethodGet, get("/items"), SubPaths{})
	f.cache.Wait()

	if err != nil || !reflect.DeepEqual(got, item(1, "a")) {
		t.Fatalf("expected cache hit, got %v, %v", got, err)
	}
	if n := f.transport.CallCount(transport.MethodGet, "/items"); n != 0 {
		t.Errorf("expected no list fetch on a hit, got %d", n)
	}
}

func TestFindByKeyOrRequestGetAll_UnsupportedMethod(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.cache.FindOrRequestGetAll(context.Background(), 1, transport.Method("TRACE"), get("/items"), SubPaths{})
	f.cache.Wait()

	if !errors.Is(err, transport.ErrUnsupportedMethod) {
		t.Errorf("expected ErrUnsupportedMethod, got %v", err)
	}
}
