// Package model defines the session data model shared by the registry,
// the tracker, and both transport adapters.
package model

import "time"

// Resource identifies what to fetch and where to file it.
type Resource struct {
	URL              string
	TargetCollection string // destination category, e.g. "checkpoints"
	TargetName       string // destination filename; may be empty until resolved
}

// Session is one tracked transfer attempt. The client-generated ID is the
// join key between the tracker, the registry, and both transports. ServerID
// is assigned by the remote on acceptance and may arrive later than creation.
type Session struct {
	ID       string
	ServerID string
	Resource Resource

	Status     Status
	TotalSize  int64
	Downloaded int64
	Percent    int

	// SizeKnown reports whether TotalSize is a confirmed value. While it is
	// false the Downloaded <= TotalSize bound is not enforced; there is no
	// placeholder size.
	SizeKnown bool

	// LastError holds the remote-reported or deadline error. Meaningful only
	// in the Failed and TimedOut states.
	LastError string

	CreatedAt time.Time
}

// Clone returns a copy safe to hand to observers while the registry keeps
// mutating the original.
func (s *Session) Clone() *Session {
	c := *s
	return &c
}

// ProgressUpdate is the normalized event both transports deliver to the
// tracker. Only the pull deadline produces TimedOut; the wire never carries
// it for a live session.
type ProgressUpdate struct {
	SessionID string

	// Status carries the reported state; empty when the source reported a
	// vocabulary the tracker does not recognize (numeric fields still apply).
	Status Status

	Downloaded     int64
	TotalSize      int64
	TotalSizeKnown bool
	Percent        int

	// ResolvedName is the server-side filename, when the source reports one.
	ResolvedName string

	Error string
}
