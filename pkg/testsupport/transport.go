package testsupport

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/goliatone/go-response-cache/transport"
)

// Call is a request observed by FakeTransport.
type Call struct {
	Method transport.Method
	Params transport.Params
}

type fakeResponse struct {
	payload any
	err     error
}

// FakeTransport is a scripted transport.Transport that records every call.
//
// Responses are registered per method and URL. When several responses are
// queued for the same request they are served in order and the last one
// repeats. Requests with no registered response succeed with a nil payload.
type FakeTransport struct {
	mu        sync.Mutex
	responses map[string][]fakeResponse
	calls     []Call
	gate      chan struct{}
}

var _ transport.Transport = (*FakeTransport)(nil)

// NewFakeTransport returns a transport with no scripted responses.
func NewFakeTransport() *FakeTransport {
	return &FakeTransport{responses: make(map[string][]fakeResponse)}
}

// Respond queues a successful response for method and url.
func (f *FakeTransport) Respond(method transport.Method, url string, payload any) *FakeTransport {
	return f.enqueue(method, url, fakeResponse{payload: payload})
}

// Fail queues a failure for method and url.
func (f *FakeTransport) Fail(method transport.Method, url string, err error) *FakeTransport {
	return f.enqueue(method, url, fakeResponse{err: err})
}

func (f *FakeTransport) enqueue(method transport.Method, url string, r fakeResponse) *FakeTransport {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := callKey(method, url)
	f.responses[key] = append(f.responses[key], r)
	return f
}

// Block makes every following call wait until Release is called or its
// context is done. Calls are recorded before they wait.
func (f *FakeTransport) Block() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.gate == nil {
		f.gate = make(chan struct{})
	}
}

// Release lets blocked calls proceed.
func (f *FakeTransport) Release() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.gate != nil {
		close(f.gate)
		f.gate = nil
	}
}

// Calls returns a copy of the recorded calls in arrival order.
func (f *FakeTransport) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]Call, len(f.calls))
	copy(out, f.calls)
	return out
}

// CallCount returns how many calls were made for method and url.
func (f *FakeTransport) CallCount(method transport.Method, url string) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := 0
	for _, c := range f.calls {
		if c.Method == method && c.Params.URL == url {
			n++
		}
	}
	return n
}

// TotalCalls returns the number of recorded calls.
func (f *FakeTransport) TotalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.calls)
}

// Reset forgets recorded calls. Scripted responses are kept.
func (f *FakeTransport) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = nil
}

// AwaitCalls waits until at least n calls were recorded.
func (f *FakeTransport) AwaitCalls(t *testing.T, n int) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for f.TotalCalls() < n {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %d transport calls, got %d", n, f.TotalCalls())
		}
		time.Sleep(time.Millisecond)
	}
}

func (f *FakeTransport) Get(ctx context.Context, params transport.Params) (any, error) {
	return f.do(ctx, transport.MethodGet, params)
}

func (f *FakeTransport) Post(ctx context.Context, params transport.Params) (any, error) {
	return f.do(ctx, transport.MethodPost, params)
}

func (f *FakeTransport) Put(ctx context.Context, params transport.Params) (any, error) {
	return f.do(ctx, transport.MethodPut, params)
}

func (f *FakeTransport) Patch(ctx context.Context, params transport.Params) (any, error) {
	return f.do(ctx, transport.MethodPatch, params)
}

func (f *FakeTransport) Delete(ctx context.Context, params transport.Params) (any, error) {
	return f.do(ctx, transport.MethodDelete, params)
}

func (f *FakeTransport) do(ctx context.Context, method transport.Method, params transport.Params) (any, error) {
	f.mu.Lock()
	f.calls = append(f.calls, Call{Method: method, Params: params})
	gate := f.gate

	var r fakeResponse
	key := callKey(method, params.URL)
	if queue := f.responses[key]; len(queue) > 0 {
		r = queue[0]
		if len(queue) > 1 {
			f.responses[key] = queue[1:]
		}
	}
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %s %s: %v", transport.ErrAborted, method, params.URL, ctx.Err())
		}
	}

	return r.payload, r.err
}

func callKey(method transport.Method, url string) string {
	return string(method) + " " + url
}
