// Package events routes classified request failures to logging and exposes
// the logout signal consumed by the surrounding application.
package events

import (
	"sync"

	"authkit/internal/credstore"
	"authkit/pkg/logging"
)

// FailureClass classifies the outcome of a request attempt. It is derived
// per response at classification time and used only to route handling, never
// stored.
type FailureClass int

const (
	// FailureNetworkUnreachable means no connectivity: timeout, refused
	// connection, or DNS failure. Never retried by the auth layer.
	FailureNetworkUnreachable FailureClass = iota

	// FailureAuthExpired means the server answered 401; the access token
	// needs a refresh.
	FailureAuthExpired

	// FailureAuthInvalid means no valid session exists: the refresh token
	// is missing or the token endpoint rejected the exchange.
	FailureAuthInvalid

	// FailureClientError covers 4xx statuses other than 401.
	FailureClientError

	// FailureServerError covers 5xx statuses.
	FailureServerError

	// FailureOther is an unclassified transport failure.
	FailureOther
)

// String returns the string representation of the failure class.
func (f FailureClass) String() string {
	switch f {
	case FailureNetworkUnreachable:
		return "network_unreachable"
	case FailureAuthExpired:
		return "auth_expired"
	case FailureAuthInvalid:
		return "auth_invalid"
	case FailureClientError:
		return "client_error"
	case FailureServerError:
		return "server_error"
	case FailureOther:
		return "other"
	default:
		return "unknown"
	}
}

// CredentialStore is the slice of the credential store the router needs.
type CredentialStore interface {
	Get() credstore.Credentials
	Clear() error
}

// Router maps classified failures to the logging sink and drives the logout
// path when refresh cannot recover the session.
type Router struct {
	mu          sync.Mutex
	store       CredentialStore
	subscribers []chan struct{}
}

// NewRouter creates a failure router over the given credential store.
func NewRouter(store CredentialStore) *Router {
	return &Router{store: store}
}

// Subscribe returns a channel that receives an empty notification every time
// the logout path is triggered. The channel has a buffer of one; a
// notification arriving while a previous one is unconsumed is coalesced.
func (r *Router) Subscribe() <-chan struct{} {
	ch := make(chan struct{}, 1)

	r.mu.Lock()
	r.subscribers = append(r.subscribers, ch)
	r.mu.Unlock()

	return ch
}

// Report routes a classified failure to the logging sink. It is
// fire-and-forget: it never blocks the caller and never panics, so a
// misbehaving sink cannot affect request outcomes.
func (r *Router) Report(class FailureClass, details map[string]interface{}) {
	defer func() {
		if rec := recover(); rec != nil {
			// A reporting failure must never propagate.
			_ = rec
		}
	}()

	switch class {
	case FailureAuthExpired:
		logging.Debug("FailureRouter", "request failed: %s %v", class, details)
	case FailureClientError:
		logging.Info("FailureRouter", "request failed: %s %v", class, details)
	default:
		logging.Warn("FailureRouter", "request failed: %s %v", class, details)
	}
}

// TriggerLogout clears the credential store and emits the logout signal.
//
// It is idempotent with respect to storage: credentials are cleared only
// when still present, so back-to-back calls clear once. The signal is
// emitted on every call; delivery to each subscriber is non-blocking.
func (r *Router) TriggerLogout() {
	r.mu.Lock()

	if !r.store.Get().IsZero() {
		if err := r.store.Clear(); err != nil {
			logging.Error("FailureRouter", err, "failed to clear credentials on logout")
		} else {
			logging.Info("FailureRouter", "session ended, credentials cleared")
		}
	}

	subscribers := make([]chan struct{}, len(r.subscribers))
	copy(subscribers, r.subscribers)
	r.mu.Unlock()

	for _, ch := range subscribers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
