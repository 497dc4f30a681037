package cache

import (
	"maps"
	"time"

	"github.com/goliatone/go-response-cache/payload"
	"github.com/goliatone/go-response-cache/transport"
)

// Kind tells whether a cached payload is a collection or a single item.
type Kind int

const (
	KindList Kind = iota
	KindOccurrence
)

func (k Kind) String() string {
	switch k {
	case KindList:
		return "LIST"
	case KindOccurrence:
		return "OCCURRENCE"
	default:
		return "UNKNOWN"
	}
}

// Signature identifies the request that produced an entry. Two requests to
// the same URL only share an entry when their signatures are equal.
type Signature struct {
	Method  transport.Method
	Body    any
	Headers map[string]string
}

// NewSignature captures the parts of a request that make up its signature.
// Body and headers are copied, so callers may reuse their maps.
func NewSignature(method transport.Method, params transport.Params) Signature {
	return Signature{
		Method:  method,
		Body:    payload.Clone(params.Body),
		Headers: maps.Clone(params.Headers),
	}
}

// Equal compares the {method, body?, headers?} projections of both
// signatures. A nil body or nil header map is absent, not empty.
func (s Signature) Equal(other Signature) bool {
	return payload.Equal(s.projection(), other.projection())
}

// String renders the signature deterministically, for logs.
func (s Signature) String() string {
	return payload.Canonical(s.projection())
}

func (s Signature) projection() map[string]any {
	out := map[string]any{"method": string(s.Method)}
	if s.Body != nil {
		out["body"] = s.Body
	}
	if s.Headers != nil {
		out["headers"] = s.Headers
	}
	return out
}

// Entry is a cached response.
type Entry struct {
	FetchedAt time.Time
	Signature Signature
	Kind      Kind
	Payload   any
}

// Expired reports whether the entry is older than validity at now.
func (e Entry) Expired(now time.Time, validity time.Duration) bool {
	return now.Sub(e.FetchedAt) > validity
}

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }
