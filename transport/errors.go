package transport

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrUnsupportedMethod is returned when a request names a verb outside Method.
	ErrUnsupportedMethod = errors.New("transport: unsupported method")
	// ErrAborted is returned when the request context ends before a response arrives.
	ErrAborted = errors.New("transport: request aborted")
)

// ErrorType classifies a failed response by status code.
type ErrorType string

const (
	ErrorBadRequest          ErrorType = "BAD_REQUEST"
	ErrorUnauthorized        ErrorType = "UNAUTHORIZED"
	ErrorRequireSubscription ErrorType = "REQUIRE_SUBSCRIPTION"
	ErrorForbidden           ErrorType = "FORBIDDEN"
	ErrorNotFound            ErrorType = "NOT_FOUND"
	ErrorConflict            ErrorType = "CONFLICT"
	ErrorServer              ErrorType = "SERVER_ERROR"
	ErrorServerUnavailable   ErrorType = "SERVER_UNAVAILABLE"
	ErrorUnknown             ErrorType = "UNKNOWN_ERROR"
)

// HTTPError is a response whose status is outside the success set.
type HTTPError struct {
	Status int
	Type   ErrorType
	// Body is the decoded error body, or its raw text when it is not JSON.
	Body any
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("transport: %s (status %d)", e.Type, e.Status)
}

// ErrorTypeForStatus maps a status code to its ErrorType.
func ErrorTypeForStatus(status int) ErrorType {
	switch status {
	case http.StatusBadRequest:
		return ErrorBadRequest
	case http.StatusUnauthorized:
		return ErrorUnauthorized
	case http.StatusPaymentRequired:
		return ErrorRequireSubscription
	case http.StatusForbidden:
		return ErrorForbidden
	case http.StatusNotFound:
		return ErrorNotFound
	case http.StatusConflict:
		return ErrorConflict
	case http.StatusInternalServerError:
		return ErrorServer
	case http.StatusServiceUnavailable:
		return ErrorServerUnavailable
	default:
		return ErrorUnknown
	}
}

// IsStatus reports whether err is an *HTTPError carrying status.
func IsStatus(err error, status int) bool {
	var httpErr *HTTPError
	return errors.As(err, &httpErr) && httpErr.Status == status
}
