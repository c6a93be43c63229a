package client

import (
	"context"
	"errors"
	"net"
	"net/http"
	"syscall"

	"authkit/internal/events"
)

// classifyStatus maps an HTTP status code to a failure class. Callers only
// pass failing statuses; anything below 400 is treated as unclassified.
func classifyStatus(statusCode int) events.FailureClass {
	switch {
	case statusCode == http.StatusUnauthorized:
		return events.FailureAuthExpired
	case statusCode >= 400 && statusCode < 500:
		return events.FailureClientError
	case statusCode >= 500:
		return events.FailureServerError
	default:
		return events.FailureOther
	}
}

// classifyError maps a transport-level error (no parseable status) to a
// failure class: a recognized no-connectivity signal is NetworkUnreachable,
// everything else is Other.
func classifyError(err error) events.FailureClass {
	if isNetworkUnreachable(err) {
		return events.FailureNetworkUnreachable
	}
	return events.FailureOther
}

// isNetworkUnreachable reports whether the error is a no-connectivity
// signal: a timeout, a refused or unreachable endpoint, or a DNS failure.
func isNetworkUnreachable(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}

	return errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EHOSTUNREACH) ||
		errors.Is(err, syscall.ENETUNREACH)
}
