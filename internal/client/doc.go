// Package client implements the authenticated request pipeline.
//
// A Client wraps outbound HTTP calls with bearer-credential injection,
// failure classification, and the refresh-and-replay-once protocol:
//
//	Pending -> Sent -> {Succeeded | Failed(class)}
//	Failed(401, not yet retried) -> refresh in flight
//	    -> replay once -> {Succeeded | Failed(terminal)}
//	    -> refresh failed -> logged out
//
// A logical call is replayed at most once, after exactly one coordinated
// refresh; a replay that is rejected again ends the session instead of
// looping. Network failures and non-401 statuses are never retried by this
// layer, they are classified and surfaced to the caller unchanged.
package client
