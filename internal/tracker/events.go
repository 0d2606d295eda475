package tracker

import "github.com/dmitrijs2005/modelfetch/internal/model"

// EventType distinguishes observer notifications.
type EventType int

const (
	// EventUpdated carries a fresh session snapshot after an accepted update.
	EventUpdated EventType = iota

	// EventRemoved signals the session left the registry (dismissed or
	// evicted after its grace period).
	EventRemoved
)

// Event is one observer notification.
type Event struct {
	Type      EventType
	SessionID string

	// Session is a snapshot; nil for EventRemoved.
	Session *model.Session

	// StillWaiting marks a throttled re-emission of unchanged state while
	// both pull endpoints are failing, so a UI can show liveness without
	// being spammed every tick.
	StillWaiting bool
}

// Observer receives events for one subscribed session.
type Observer func(Event)
