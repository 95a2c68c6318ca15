package llm

import (
	"errors"
	"fmt"
	"net/http"
)

// Category classifies proxy and provider failures into the closed set the
// rest of the system consumes. Categories, not raw provider errors, decide
// the user-facing text shown in the conversation.
type Category string

const (
	CategoryConfiguration       Category = "configuration_error"
	CategoryBadRequest          Category = "bad_request"
	CategoryUnauthorized        Category = "unauthorized"
	CategoryRateLimited         Category = "rate_limited"
	CategoryUpstreamUnavailable Category = "upstream_unavailable"
	CategoryUnknown             Category = "unknown"
)

// Error is a structured chat-proxy error with classification.
type Error struct {
	Category   Category // Classification of the error
	Message    string   // Human-readable message
	StatusCode int      // HTTP status code if applicable
	Cause      error    // Underlying error
}

// Error implements the error interface.
func (e *Error) Error() string {
	s := string(e.Category)
	if e.StatusCode > 0 {
		s = fmt.Sprintf("%s HTTP %d", s, e.StatusCode)
	}
	if e.Message != "" {
		s = s + " " + e.Message
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", s, e.Cause)
	}
	return s
}

// Unwrap returns the underlying cause for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new structured proxy error.
func NewError(category Category, message string, cause error) *Error {
	return &Error{Category: category, Message: message, Cause: cause}
}

// ClassifyStatus maps a proxy response to a structured error. The error
// code from the response body wins over the HTTP status so the proxy can
// report a missing server-side credential distinguishably from an
// upstream 5xx.
func ClassifyStatus(statusCode int, errorCode, message string) *Error {
	e := &Error{StatusCode: statusCode, Message: message}

	if errorCode == string(CategoryConfiguration) {
		e.Category = CategoryConfiguration
		return e
	}

	switch {
	case statusCode == http.StatusBadRequest:
		e.Category = CategoryBadRequest
	case statusCode == http.StatusUnauthorized:
		e.Category = CategoryUnauthorized
	case statusCode == http.StatusTooManyRequests:
		e.Category = CategoryRateLimited
	case statusCode >= 500:
		e.Category = CategoryUpstreamUnavailable
	default:
		e.Category = CategoryUnknown
		if e.Message == "" {
			e.Message = "the assistant request failed"
		}
	}
	return e
}

// ClassifyTransport wraps a network-level failure (connection refused,
// timeout, DNS) as upstream-unavailable.
func ClassifyTransport(err error) *Error {
	return NewError(CategoryUpstreamUnavailable, "could not reach the assistant service", err)
}

// classifyProviderStatus maps an upstream provider HTTP status to a
// structured error, used by the provider adapters on the service side.
func classifyProviderStatus(statusCode int, message string, cause error) *Error {
	e := ClassifyStatus(statusCode, "", message)
	e.Cause = cause
	return e
}

// CategoryOf extracts the Category from an error. Non-proxy errors report
// CategoryUnknown.
func CategoryOf(err error) Category {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Category
	}
	return CategoryUnknown
}
