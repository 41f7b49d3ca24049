package api

import (
	"errors"
	"fmt"
)

// The client distinguishes four failure kinds; consumers that only need a
// user-facing string collapse them with Message.

// NetworkError wraps a transport-level failure (DNS, connect, timeout).
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string { return fmt.Sprintf("network error: %v", e.Err) }
func (e *NetworkError) Unwrap() error { return e.Err }

// HTTPError is a non-success status code, with the server message when the
// error body carried one.
type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("http %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("http %d", e.Status)
}

// DecodeError wraps a response body that did not match the expected shape.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string { return fmt.Sprintf("decode response: %v", e.Err) }
func (e *DecodeError) Unwrap() error { return e.Err }

// SemanticError is a well-formed response that still reports failure,
// e.g. success=false on HTTP 200.
type SemanticError struct {
	Message string
}

func (e *SemanticError) Error() string { return e.Message }

// Message normalizes any client error to a human-readable string, preferring
// the server-supplied message and falling back to the given default.
func Message(err error, fallback string) string {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) && httpErr.Message != "" {
		return httpErr.Message
	}
	var semErr *SemanticError
	if errors.As(err, &semErr) && semErr.Message != "" {
		return semErr.Message
	}
	return fallback
}
