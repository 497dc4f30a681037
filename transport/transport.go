// Package transport defines the request capability the response cache sits
// in front of, and an HTTP implementation of it.
package transport

import (
	"context"
	"fmt"
)

// Method is an HTTP verb supported by Transport.
type Method string

const (
	MethodGet    Method = "GET"
	MethodPost   Method = "POST"
	MethodPut    Method = "PUT"
	MethodPatch  Method = "PATCH"
	MethodDelete Method = "DELETE"
)

// Valid reports whether m is one of the supported verbs.
func (m Method) Valid() bool {
	switch m {
	case MethodGet, MethodPost, MethodPut, MethodPatch, MethodDelete:
		return true
	}
	return false
}

// Params describes a single request.
type Params struct {
	// URL is either absolute or a path resolved by the Transport.
	URL string
	// Body is encoded as JSON. Ignored for GET and DELETE.
	Body any
	// Headers are sent as given, before transport-managed headers are applied.
	Headers map[string]string
	// SuccessStatusCodes extends the default success set (200, 201, 204).
	SuccessStatusCodes []int
	// SkipJSONContentType disables the default JSON Content-Type header.
	SkipJSONContentType bool
	// Options carries implementation specific settings, see HTTPOptions.
	Options any
}

// Transport performs requests and returns the decoded response body.
// Failures carry the status and decoded body as *HTTPError.
type Transport interface {
	Get(ctx context.Context, params Params) (any, error)
	Post(ctx context.Context, params Params) (any, error)
	Put(ctx context.Context, params Params) (any, error)
	Patch(ctx context.Context, params Params) (any, error)
	Delete(ctx context.Context, params Params) (any, error)
}

// Dispatch routes a request to the Transport method matching method.
func Dispatch(ctx context.Context, t Transport, method Method, params Params) (any, error) {
	switch method {
	case MethodGet:
		return t.Get(ctx, params)
	case MethodPost:
		return t.Post(ctx, params)
	case MethodPut:
		return t.Put(ctx, params)
	case MethodPatch:
		return t.Patch(ctx, params)
	case MethodDelete:
		return t.Delete(ctx, params)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedMethod, string(method))
	}
}
