package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strings"

	"github.com/apex/log"
	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/goliatone/go-response-cache/transport"

// RequestIDHeader carries a per-request id for correlating logs and traces.
const RequestIDHeader = "X-Request-Id"

var defaultSuccessStatusCodes = []int{http.StatusOK, http.StatusCreated, http.StatusNoContent}

// HTTPOptions are the HTTP specific settings accepted in Params.Options.
type HTTPOptions struct {
	Query url.Values
}

// HTTP is a Transport speaking JSON over HTTP with retries.
type HTTP struct {
	client  *retryablehttp.Client
	baseURL string
	tokens  TokenSource
	logger  log.Interface
	tracer  trace.Tracer
}

var _ Transport = (*HTTP)(nil)

// HTTPOption customizes an HTTP transport.
type HTTPOption func(*HTTP)

// WithTokenSource attaches a bearer token to every request.
func WithTokenSource(tokens TokenSource) HTTPOption {
	return func(h *HTTP) {
		h.tokens = tokens
	}
}

// WithLogger replaces the default apex/log logger.
func WithLogger(logger log.Interface) HTTPOption {
	return func(h *HTTP) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithHTTPClient sets the underlying client, e.g. one built by httptest.
// HTTPConfig.Timeout still applies unless client sets its own timeout.
func WithHTTPClient(client *http.Client) HTTPOption {
	return func(h *HTTP) {
		if client != nil {
			h.client.HTTPClient = client
		}
	}
}

// WithTracer replaces the tracer taken from the global provider.
func WithTracer(tracer trace.Tracer) HTTPOption {
	return func(h *HTTP) {
		if tracer != nil {
			h.tracer = tracer
		}
	}
}

// NewHTTP builds an HTTP transport from cfg.
func NewHTTP(cfg HTTPConfig, opts ...HTTPOption) *HTTP {
	client := retryablehttp.NewClient()
	client.RetryMax = cfg.RetryMax
	client.RetryWaitMin = cfg.RetryWaitMin
	client.RetryWaitMax = cfg.RetryWaitMax
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler
	client.CheckRetry = retryIdempotent

	h := &HTTP{
		client:  client,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		logger:  log.Log,
		tracer:  otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(h)
	}
	if cfg.Timeout > 0 && client.HTTPClient.Timeout == 0 {
		client.HTTPClient.Timeout = cfg.Timeout
	}
	client.Logger = leveledLogger{log: h.logger}

	return h
}

func (h *HTTP) Get(ctx context.Context, params Params) (any, error) {
	return h.do(ctx, MethodGet, params)
}

func (h *HTTP) Post(ctx context.Context, params Params) (any, error) {
	return h.do(ctx, MethodPost, params)
}

func (h *HTTP) Put(ctx context.Context, params Params) (any, error) {
	return h.do(ctx, MethodPut, params)
}

func (h *HTTP) Patch(ctx context.Context, params Params) (any, error) {
	return h.do(ctx, MethodPatch, params)
}

func (h *HTTP) Delete(ctx context.Context, params Params) (any, error) {
	return h.do(ctx, MethodDelete, params)
}

func (h *HTTP) do(ctx context.Context, method Method, params Params) (any, error) {
	target := h.resolve(params)
	requestID := uuid.NewString()
	ctx = context.WithValue(ctx, methodKey{}, method)

	ctx, span := h.tracer.Start(ctx, "HTTP "+string(method),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", string(method)),
			attribute.String("url.full", target),
			attribute.String("http.request.id", requestID),
		),
	)
	defer span.End()

	req, err := h.newRequest(ctx, method, target, params)
	if err != nil {
		return nil, h.fail(span, err)
	}
	req.Header.Set(RequestIDHeader, requestID)
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	h.logger.WithFields(log.Fields{
		"method":     method,
		"url":        target,
		"request_id": requestID,
	}).Debug("http request")

	resp, err := h.client.Do(req)
	if err != nil {
		if ctx.Err() != nil || errors.Is(err, context.Canceled) {
			return nil, h.fail(span, fmt.Errorf("%w: %s %s: %v", ErrAborted, method, target, err))
		}
		return nil, h.fail(span, fmt.Errorf("transport: %s %s: %w", method, target, err))
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, h.fail(span, fmt.Errorf("transport: read response: %w", err))
	}

	success := slices.Contains(defaultSuccessStatusCodes, resp.StatusCode) ||
		slices.Contains(params.SuccessStatusCodes, resp.StatusCode)

	body, decodeErr := decodeBody(raw)
	if success {
		if decodeErr != nil {
			return nil, h.fail(span, fmt.Errorf("transport: decode response: %w", decodeErr))
		}
		return body, nil
	}

	if decodeErr != nil {
		body = string(raw)
	}
	return nil, h.fail(span, &HTTPError{
		Status: resp.StatusCode,
		Type:   ErrorTypeForStatus(resp.StatusCode),
		Body:   body,
	})
}

func (h *HTTP) newRequest(ctx context.Context, method Method, target string, params Params) (*retryablehttp.Request, error) {
	var rawBody interface{}
	if params.Body != nil && method != MethodGet && method != MethodDelete {
		encoded, err := json.Marshal(params.Body)
		if err != nil {
			return nil, fmt.Errorf("transport: encode body: %w", err)
		}
		rawBody = encoded
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, string(method), target, rawBody)
	if err != nil {
		return nil, fmt.Errorf("transport: build request: %w", err)
	}

	for k, v := range params.Headers {
		req.Header.Set(k, v)
	}
	if !params.SkipJSONContentType {
		req.Header.Set("Content-Type", "application/json")
	}

	if h.tokens != nil {
		token, err := h.tokens.Token(ctx)
		if err != nil {
			return nil, fmt.Errorf("transport: token: %w", err)
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	return req, nil
}

func (h *HTTP) resolve(params Params) string {
	target := params.URL
	if h.baseURL != "" && !strings.Contains(target, "://") {
		target = h.baseURL + "/" + strings.TrimLeft(target, "/")
	}

	var query url.Values
	switch opts := params.Options.(type) {
	case HTTPOptions:
		query = opts.Query
	case *HTTPOptions:
		if opts != nil {
			query = opts.Query
		}
	}
	if len(query) == 0 {
		return target
	}

	sep := "?"
	if strings.Contains(target, "?") {
		sep = "&"
	}
	return target + sep + query.Encode()
}

type methodKey struct{}

// retryIdempotent applies the default retry policy to GET, PUT and DELETE.
// POST and PATCH are sent once.
func retryIdempotent(ctx context.Context, resp *http.Response, err error) (bool, error) {
	switch method, _ := ctx.Value(methodKey{}).(Method); method {
	case MethodPost, MethodPatch:
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		return false, nil
	}
	return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
}

func (h *HTTP) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

func decodeBody(raw []byte) (any, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}
	var body any
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, err
	}
	return body, nil
}
