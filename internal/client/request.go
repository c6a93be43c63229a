package client

import (
	"net/http"
	"time"
)

// Request describes one logical outbound call. The path is relative to the
// client's configured base URL.
//
// A Request value is scoped to a single Do call and must not be reused: the
// unexported retried flag records whether the refresh-and-replay cycle has
// already run for this call, and it only ever transitions false to true.
type Request struct {
	// Method is the HTTP method.
	Method string

	// Path is the request path relative to the configured base URL.
	Path string

	// Header holds additional request headers. May be nil.
	Header http.Header

	// Body is the optional request body.
	Body []byte

	// Timeout overrides the client timeout for this call when positive.
	Timeout time.Duration

	// retried marks that this call has already been replayed once after a
	// refresh. A request that fails again with retried set is terminal.
	retried bool
}

// NewRequest creates a request for the given method and path.
func NewRequest(method, path string) *Request {
	return &Request{
		Method: method,
		Path:   path,
		Header: make(http.Header),
	}
}

// Response is the successful outcome of a request, with the body fully read.
type Response struct {
	// StatusCode is the HTTP status code.
	StatusCode int

	// Header holds the response headers.
	Header http.Header

	// Body is the full response body.
	Body []byte
}
