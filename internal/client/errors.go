package client

import (
	"errors"
	"fmt"

	"authkit/internal/events"
)

// ErrSessionExpired is returned when the refresh protocol could not recover
// the session. By the time a caller sees it, the logout path has already
// run: credentials are cleared and the logout signal has been emitted.
var ErrSessionExpired = errors.New("session expired: re-authentication required")

// RequestError is the structured failure returned by the pipeline.
type RequestError struct {
	// Class is the failure classification.
	Class events.FailureClass

	// StatusCode is the HTTP status, or zero when none was received.
	StatusCode int

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *RequestError) Error() string {
	switch {
	case e.StatusCode > 0 && e.Err != nil:
		return fmt.Sprintf("request failed: %s (status %d): %v", e.Class, e.StatusCode, e.Err)
	case e.StatusCode > 0:
		return fmt.Sprintf("request failed: %s (status %d)", e.Class, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("request failed: %s: %v", e.Class, e.Err)
	default:
		return fmt.Sprintf("request failed: %s", e.Class)
	}
}

// Unwrap returns the underlying cause for error chain inspection.
func (e *RequestError) Unwrap() error {
	return e.Err
}

// sessionExpiredError builds the terminal error for the logout path.
func sessionExpiredError(statusCode int) *RequestError {
	return &RequestError{
		Class:      events.FailureAuthInvalid,
		StatusCode: statusCode,
		Err:        ErrSessionExpired,
	}
}
