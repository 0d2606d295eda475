// Package tracker is the public entry point of the download session tracker.
//
// # Overview
//
// The Tracker creates a session per transfer request, gates every request
// behind the origin trust policy, and reconciles progress updates arriving
// from two independent, racing sources: the host's event channel (push) and
// the backend's status endpoints (pull). Updates funnel into OnProgress, the
// single reconciliation point, where the registry's transition rules decide
// what applies. Observers subscribe per session and receive every accepted
// state change exactly once; discarded stale or terminal-duplicate updates
// are logged, never propagated.
//
// A session that reaches a terminal status (Completed, Failed, TimedOut)
// stops its poll timer and is evicted from the registry after a grace
// period, unless an observer disposes of it earlier.
//
// # Concurrency
//
// Apply-then-notify is a critical section: updates racing for the same
// session id are serialized, and observers see a monotone status sequence.
// Observer callbacks run synchronously inside that section. They must be
// quick and must not call back into the Tracker; hand off to a goroutine or
// channel instead, the way cmd/modelfetch does.
//
// Network calls (the transfer request and the poll queries) never run under
// the tracker's lock, so slow endpoints cannot block reconciliation of
// other sessions.
package tracker
