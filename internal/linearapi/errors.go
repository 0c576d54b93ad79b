package linearapi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// ErrorKind classifies an API failure into the categories the rest of the
// dashboard reacts to.
type ErrorKind int

const (
	// ErrorNetwork covers connection failures, timeouts and 5xx responses.
	ErrorNetwork ErrorKind = iota
	// ErrorUnauthorized means the API rejected the key.
	ErrorUnauthorized
	// ErrorRateLimited means the API asked us to slow down.
	ErrorRateLimited
	// ErrorMalformed means the response could not be decoded into the
	// expected shape.
	ErrorMalformed
)

// String returns a short label for the kind.
func (k ErrorKind) String() string {
	switch k {
	case ErrorNetwork:
		return "network"
	case ErrorUnauthorized:
		return "unauthorized"
	case ErrorRateLimited:
		return "rate limited"
	case ErrorMalformed:
		return "malformed response"
	default:
		return "unknown"
	}
}

// APIError is a classified failure from the Linear API. Callers retrieve it
// with errors.As and branch on Kind.
type APIError struct {
	Kind ErrorKind
	// RetryAfter is the server-requested delay before the next attempt.
	// Zero unless Kind is ErrorRateLimited and the response carried a hint.
	RetryAfter time.Duration
	// Err is the underlying transport or decode error, if any.
	Err error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	switch {
	case e.Kind == ErrorRateLimited && e.RetryAfter > 0:
		return fmt.Sprintf("rate limited, retry after %s", e.RetryAfter)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	default:
		return e.Kind.String()
	}
}

// Unwrap returns the underlying error.
func (e *APIError) Unwrap() error {
	return e.Err
}

// classify maps an arbitrary error from the GraphQL layer to an APIError.
// Errors produced by the transport (status interception, connection
// failures) already carry a classification and pass through unchanged.
// Anything else came from decoding the response body or from the GraphQL
// errors array, which both mean the payload was not what we asked for.
func classify(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return &APIError{Kind: ErrorNetwork, Err: err}
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return &APIError{Kind: ErrorNetwork, Err: err}
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &APIError{Kind: ErrorNetwork, Err: err}
	}

	return &APIError{Kind: ErrorMalformed, Err: err}
}

// retryAfterHint parses the Retry-After header, accepting both the
// delta-seconds and HTTP-date forms. Returns zero when absent or invalid.
func retryAfterHint(h http.Header, now time.Time) time.Duration {
	v := h.Get("Retry-After")
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(v); err == nil {
		if d := at.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}
