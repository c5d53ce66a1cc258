// Package apierror defines the structured error taxonomy surfaced to API
// callers. Every error carries an HTTP status code and a message; 503s must
// reach the client verbatim so it can retry.
package apierror

import (
	"errors"
	"net/http"
)

// Error is a caller-facing error with an HTTP status code.
type Error struct {
	StatusCode int    `json:"status_code"`
	Message    string `json:"message"`
}

func (e *Error) Error() string {
	return e.Message
}

// InvalidInput reports malformed or out-of-bounds request parameters (400).
func InvalidInput(message string) *Error {
	return &Error{StatusCode: http.StatusBadRequest, Message: message}
}

// NotFound reports an absent order, market, wallet or transaction (404).
func NotFound(message string) *Error {
	return &Error{StatusCode: http.StatusNotFound, Message: message}
}

// ServiceUnavailable reports a tripped ban gate or an unreachable exchange
// after retry exhaustion (503). Outer handlers must never rewrite it to 500.
func ServiceUnavailable(message string) *Error {
	return &Error{StatusCode: http.StatusServiceUnavailable, Message: message}
}

// ExternalService reports a reachable price feed that returned no usable
// price or failed unexpectedly (500).
func ExternalService(message string) *Error {
	return &Error{StatusCode: http.StatusInternalServerError, Message: message}
}

// Internal reports a broken ledger invariant, such as a row vanishing inside
// a transaction (500).
func Internal(message string) *Error {
	return &Error{StatusCode: http.StatusInternalServerError, Message: message}
}

// As extracts an *Error from an error chain.
func As(err error) (*Error, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// IsRetryable reports whether the error is a 503 the caller may retry.
func IsRetryable(err error) bool {
	apiErr, ok := As(err)
	return ok && apiErr.StatusCode == http.StatusServiceUnavailable
}
