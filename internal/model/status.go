package model

// Status represents the lifecycle state of a download session.
type Status string

const (
	// StatusStarting means the transfer request was issued but the remote
	// has not begun sending data yet. This is the sole initial state.
	StatusStarting Status = "Starting"

	// StatusTransferring means the remote accepted the request and bytes
	// are moving.
	StatusTransferring Status = "Transferring"

	// StatusCompleted means the transfer finished successfully.
	StatusCompleted Status = "Completed"

	// StatusFailed means the remote reported an error for the transfer.
	StatusFailed Status = "Failed"

	// StatusTimedOut means the poll deadline expired before the session
	// reached any other terminal state. Kept distinct from Failed so
	// observers can tell "server never answered" from "server reported
	// an error".
	StatusTimedOut Status = "TimedOut"
)

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

// IsTerminal reports whether the status accepts no further transitions.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusTimedOut
}

// Rank orders statuses for forward-wins reconciliation:
// Starting < Transferring < {Completed, Failed, TimedOut}.
// Unknown statuses rank below Starting so they can never advance a session.
func (s Status) Rank() int {
	switch s {
	case StatusStarting:
		return 1
	case StatusTransferring:
		return 2
	case StatusCompleted, StatusFailed, StatusTimedOut:
		return 3
	default:
		return 0
	}
}

// Wire status vocabulary used by the server. It speaks lowercase short
// names; they map 1:1 onto Status values.
const (
	WireStatusStarting    = "starting"
	WireStatusDownloading = "downloading"
	WireStatusCompleted   = "completed"
	WireStatusError       = "error"
	WireStatusTimeout     = "timeout"
)

// StatusFromWire maps a remote status string onto a Status. The second
// result is false for vocabulary the tracker does not recognize; such
// updates carry no status change.
func StatusFromWire(s string) (Status, bool) {
	switch s {
	case WireStatusStarting:
		return StatusStarting, true
	case WireStatusDownloading:
		return StatusTransferring, true
	case WireStatusCompleted:
		return StatusCompleted, true
	case WireStatusError:
		return StatusFailed, true
	case WireStatusTimeout:
		return StatusTimedOut, true
	default:
		return "", false
	}
}
