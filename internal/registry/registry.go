// Package registry owns the session store. It is the single source of truth
// consulted and mutated by both transport adapters, and the place where the
// lifecycle rules are enforced so no adapter can duplicate or bypass them.
//
// # Transition rules
//
// Starting -> Transferring -> {Completed | Failed}, plus the external
// {Starting | Transferring} -> TimedOut transition driven by the pull
// deadline. Terminal states accept nothing further. For concurrent updates
// to a live session the forward status wins, while numeric progress fields
// always take the most recent value regardless of which transport delivered
// it: both transports reflect the same authoritative remote state.
package registry

import (
	"sync"
	"time"

	"github.com/dmitrijs2005/modelfetch/internal/model"
)

// ApplyResult classifies what Apply did with an update.
type ApplyResult int

const (
	// Accepted: the session was mutated and observers should be notified.
	Accepted ApplyResult = iota

	// DiscardedStale: no session with this id exists (disposed or never
	// created). Logged, not applied, not propagated.
	DiscardedStale

	// DiscardedTerminal: the session already reached a terminal status.
	// Duplicate terminal messages race in from both transports; they are
	// logged and dropped.
	DiscardedTerminal
)

// Registry maps session ids to sessions behind one mutex. All mutation goes
// through Put, Apply, and Delete. A secondary index maps server-assigned
// ids back to sessions, because push events are keyed by the id the server
// generated, not the client one.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*model.Session
	byServer map[string]string // server-assigned id -> session id
}

func New() *Registry {
	return &Registry{
		sessions: make(map[string]*model.Session),
		byServer: make(map[string]string),
	}
}

// Put inserts a session, replacing (never merging) any prior entry with the
// same id. A new transfer attempt is expected to carry a new id.
func (r *Registry) Put(s *model.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if old, ok := r.sessions[s.ID]; ok && old.ServerID != "" {
		delete(r.byServer, old.ServerID)
	}
	r.sessions[s.ID] = s.Clone()
	if s.ServerID != "" {
		r.byServer[s.ServerID] = s.ID
	}
}

// Get returns a snapshot of the session, or false when the id is unknown.
func (r *Registry) Get(id string) (*model.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, false
	}
	return s.Clone(), true
}

// Snapshot returns copies of all current sessions.
func (r *Registry) Snapshot() []*model.Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*model.Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s.Clone())
	}
	return out
}

// Delete removes the session and its server-id mapping, and reports whether
// it was present.
func (r *Registry) Delete(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if ok && s.ServerID != "" {
		delete(r.byServer, s.ServerID)
	}
	delete(r.sessions, id)
	return ok
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// SetServerID records the identifier the remote assigned on acceptance and
// indexes it so updates keyed by it resolve to the session. Reports false
// when the session no longer exists.
func (r *Registry) SetServerID(id, serverID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return false
	}
	if s.ServerID != "" {
		delete(r.byServer, s.ServerID)
	}
	s.ServerID = serverID
	if serverID != "" {
		r.byServer[serverID] = id
	}
	return true
}

// Apply reconciles one update under the transition rules and returns a
// snapshot of the resulting session when the update was accepted. The
// update's SessionID may be either the client-generated id or the
// server-assigned one; the client id is checked first.
func (r *Registry) Apply(u model.ProgressUpdate) (*model.Session, ApplyResult) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[u.SessionID]
	if !ok {
		if sid, mapped := r.byServer[u.SessionID]; mapped {
			s, ok = r.sessions[sid]
		}
	}
	if !ok {
		return nil, DiscardedStale
	}
	if s.Status.IsTerminal() {
		return nil, DiscardedTerminal
	}

	// Numeric progress always takes the latest value.
	s.Downloaded = u.Downloaded
	s.Percent = u.Percent
	if u.TotalSizeKnown {
		s.TotalSize = u.TotalSize
		s.SizeKnown = true
	}
	if s.SizeKnown && s.Downloaded > s.TotalSize {
		s.Downloaded = s.TotalSize
	}
	if u.ResolvedName != "" {
		s.Resource.TargetName = u.ResolvedName
	}

	// Forward-status wins; a lower-ranked report never moves the session
	// backward.
	if u.Status != "" && u.Status.Rank() > s.Status.Rank() {
		s.Status = u.Status
		if s.Status == model.StatusFailed || s.Status == model.StatusTimedOut {
			s.LastError = u.Error
		}
	}

	return s.Clone(), Accepted
}

// MarkAccepted moves a live session to Transferring and records the
// server-resolved filename. Progress numbers are left untouched: acceptance
// is a lifecycle step, not a progress report, and a push event may already
// have delivered real numbers while the request was in flight.
func (r *Registry) MarkAccepted(id, resolvedName string) (*model.Session, ApplyResult) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil, DiscardedStale
	}
	if s.Status.IsTerminal() {
		return nil, DiscardedTerminal
	}

	if resolvedName != "" {
		s.Resource.TargetName = resolvedName
	}
	if model.StatusTransferring.Rank() > s.Status.Rank() {
		s.Status = model.StatusTransferring
	}
	return s.Clone(), Accepted
}

// NewSession builds a Starting session for the given resource. The expected
// size is unknown at creation; there is no placeholder value.
func NewSession(id string, res model.Resource) *model.Session {
	return &model.Session{
		ID:        id,
		Resource:  res,
		Status:    model.StatusStarting,
		CreatedAt: time.Now(),
	}
}
