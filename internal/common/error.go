// Package common defines shared sentinel errors used across the tracker,
// the transport adapters, and the API client. Callers should use errors.Is
// to match these values.
package common

import "errors"

var (
	// Policy errors. An untrusted origin is fatal for the request;
	// callers must not retry it.
	ErrUntrustedOrigin = errors.New("untrusted origin")

	// Remote request errors. The server declined to start the transfer;
	// the session goes straight to Failed and is never polled.
	ErrRequestRejected = errors.New("request rejected")

	// Transport-level errors (endpoint unreachable, non-2xx, bad body).
	// Recoverable: the pull adapter retries and never fails a session
	// on these alone.
	ErrUnavailable = errors.New("endpoint unavailable")

	// Push channel attachment exhausted its attempt budget. The tracker
	// then relies on the pull adapter alone.
	ErrChannelUnavailable = errors.New("event channel unavailable")
)
