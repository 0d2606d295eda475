package tracker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/modelfetch/internal/api"
	"github.com/dmitrijs2005/modelfetch/internal/common"
	"github.com/dmitrijs2005/modelfetch/internal/config"
	"github.com/dmitrijs2005/modelfetch/internal/logging"
	"github.com/dmitrijs2005/modelfetch/internal/model"
	"github.com/dmitrijs2005/modelfetch/internal/registry"
	"github.com/dmitrijs2005/modelfetch/internal/transport"
	"github.com/dmitrijs2005/modelfetch/internal/trust"
)

// Tracker coordinates sessions, transports, and observers.
type Tracker struct {
	client api.Client
	policy *trust.Policy
	reg    *registry.Registry
	poller *transport.Poller
	push   *transport.PushAdapter
	log    logging.Logger

	evictionDelay time.Duration

	// mu serializes apply-then-notify for all sessions and guards the
	// subscriber and eviction tables.
	mu        sync.Mutex
	subs      map[string]map[int]Observer
	nextSubID int
	evictions map[string]*time.Timer
}

// New wires a tracker from configuration. source may be nil when the host
// exposes no event channel; the tracker then works from polling alone.
func New(cfg *config.Config, client api.Client, source transport.ChannelSource, log logging.Logger) *Tracker {
	t := &Tracker{
		client:        client,
		policy:        trust.NewPolicy(cfg.TrustedDomains),
		reg:           registry.New(),
		log:           log.With("component", "tracker"),
		evictionDelay: cfg.EvictionDelay,
		subs:          make(map[string]map[int]Observer),
		evictions:     make(map[string]*time.Timer),
	}

	t.poller = transport.NewPoller(client, transport.PollerConfig{
		Interval:          cfg.PollInterval,
		Deadline:          cfg.PollTimeout,
		CallTimeout:       cfg.RequestTimeout,
		StillWaitingEvery: cfg.StillWaitingEvery,
	}, transport.PollerHooks{
		OnUpdate:       t.OnProgress,
		OnStillWaiting: t.notifyStillWaiting,
		OnDeadline:     t.forceTimeout,
	}, log)

	if source != nil {
		t.push = transport.NewPushAdapter(source, t.OnProgress, log,
			cfg.AttachRetryInterval, cfg.AttachMaxAttempts)
	}

	return t
}

// Start begins the push adapter's attachment attempts in the background.
// Attachment failure is not fatal: the poller covers every session anyway.
func (t *Tracker) Start(ctx context.Context) {
	if t.push == nil {
		return
	}
	go func() {
		_ = t.push.Attach(ctx)
	}()
}

// Close tears down both adapters and pending eviction timers. Sessions are
// left in the registry; the process is ending anyway.
func (t *Tracker) Close() {
	t.poller.StopAll()
	if t.push != nil {
		t.push.Detach()
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	for id, timer := range t.evictions {
		timer.Stop()
		delete(t.evictions, id)
	}
}

// RequestTransfer validates trust, creates a Starting session, and issues
// the remote transfer request. On acceptance the session moves to
// Transferring and its poll timer starts; on rejection it moves to Failed
// with the remote's reason and is never polled. The returned id is valid in
// both cases; the error reports rejections.
func (t *Tracker) RequestTransfer(ctx context.Context, res model.Resource) (string, error) {
	if !t.policy.IsTrusted(res.URL) {
		t.log.Warn(ctx, "transfer refused by trust policy", "url", res.URL)
		return "", fmt.Errorf("%w: %s", common.ErrUntrustedOrigin, res.URL)
	}

	id := uuid.NewString()
	t.reg.Put(registry.NewSession(id, res))

	t.log.Info(ctx, "transfer requested", "session_id", id,
		"url", res.URL, "folder", res.TargetCollection)

	// The remote call runs outside the lock so other sessions keep
	// reconciling while this one is in flight.
	resp, err := t.client.RequestDownload(ctx, api.DownloadRequest{
		URL:      res.URL,
		Folder:   res.TargetCollection,
		Filename: res.TargetName,
		ClientID: id,
	})
	if err != nil {
		reason := err.Error()
		if resp != nil && resp.Error != "" {
			reason = resp.Error
		}
		t.OnProgress(ctx, model.ProgressUpdate{
			SessionID: id,
			Status:    model.StatusFailed,
			Error:     reason,
		})
		return id, err
	}

	t.reg.SetServerID(id, resp.ID)
	if snap := t.markAccepted(ctx, id, resp.Filename); snap != nil {
		t.poller.Start(ctx, id, resp.ID)
	}

	return id, nil
}

// markAccepted moves the session to Transferring without touching progress
// numbers; a push event racing the acceptance response may already have
// delivered real ones. Returns nil when the session reached a terminal
// status (or was disposed) while the request was in flight, in which case
// polling must not start.
func (t *Tracker) markAccepted(ctx context.Context, sessionID, resolvedName string) *model.Session {
	t.mu.Lock()
	defer t.mu.Unlock()

	snap, result := t.reg.MarkAccepted(sessionID, resolvedName)
	if result != registry.Accepted {
		t.log.Debug(ctx, "acceptance arrived after session settled", "session_id", sessionID)
		return nil
	}
	t.notifyLocked(Event{Type: EventUpdated, SessionID: snap.ID, Session: snap})
	return snap
}

// OnProgress is the single reconciliation entry point used by both
// adapters. Accepted updates notify subscribers exactly once; stale and
// terminal-duplicate updates are logged and dropped.
func (t *Tracker) OnProgress(ctx context.Context, u model.ProgressUpdate) {
	t.mu.Lock()
	defer t.mu.Unlock()

	snap, result := t.reg.Apply(u)
	switch result {
	case registry.DiscardedStale:
		t.log.Debug(ctx, "discarding update for unknown session",
			"session_id", u.SessionID, "status", u.Status)
		return
	case registry.DiscardedTerminal:
		t.log.Debug(ctx, "discarding update for terminal session",
			"session_id", u.SessionID, "status", u.Status)
		return
	}

	t.notifyLocked(Event{Type: EventUpdated, SessionID: snap.ID, Session: snap})

	if snap.Status.IsTerminal() {
		t.log.Info(ctx, "session reached terminal status",
			"session_id", snap.ID, "status", snap.Status, "error", snap.LastError)
		t.poller.Stop(snap.ID)
		t.scheduleEvictionLocked(snap.ID)
	}
}

// Subscribe registers an observer for the session and returns its
// unsubscribe function. Multiple observers per session are permitted.
func (t *Tracker) Subscribe(sessionID string, obs Observer) func() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.subs[sessionID] == nil {
		t.subs[sessionID] = make(map[int]Observer)
	}
	t.nextSubID++
	subID := t.nextSubID
	t.subs[sessionID][subID] = obs

	return func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		delete(t.subs[sessionID], subID)
		if len(t.subs[sessionID]) == 0 {
			delete(t.subs, sessionID)
		}
	}
}

// Dispose removes the session: the poll timer and any pending eviction are
// cancelled, the registry entry is deleted, and subscribers get one removal
// notification. Idempotent; later calls (and late updates for the id) are
// no-ops.
func (t *Tracker) Dispose(ctx context.Context, sessionID string) {
	t.poller.Stop(sessionID)

	t.mu.Lock()
	defer t.mu.Unlock()

	if timer, ok := t.evictions[sessionID]; ok {
		timer.Stop()
		delete(t.evictions, sessionID)
	}

	if !t.reg.Delete(sessionID) {
		return
	}

	t.log.Info(ctx, "session disposed", "session_id", sessionID)
	t.notifyLocked(Event{Type: EventRemoved, SessionID: sessionID})

	// No further events can arrive for the id; dropping the subscriber set
	// here keeps observers that never unsubscribe from accumulating.
	delete(t.subs, sessionID)
}

// Session returns a snapshot of one session.
func (t *Tracker) Session(sessionID string) (*model.Session, bool) {
	return t.reg.Get(sessionID)
}

// Sessions returns snapshots of all live sessions.
func (t *Tracker) Sessions() []*model.Session {
	return t.reg.Snapshot()
}

// PushAvailable reports whether the push adapter still has (or may get) a
// channel. False means the tracker runs on polling alone.
func (t *Tracker) PushAvailable() bool {
	return t.push != nil && t.push.Available()
}

// forceTimeout is the poller's deadline hook: the session moves to TimedOut
// with a descriptive error unless it already reached a terminal status (in
// which case the update is discarded like any other terminal duplicate).
func (t *Tracker) forceTimeout(ctx context.Context, sessionID string, elapsed time.Duration) {
	snap, ok := t.reg.Get(sessionID)
	u := model.ProgressUpdate{
		SessionID: sessionID,
		Status:    model.StatusTimedOut,
		Error:     fmt.Sprintf("download timed out after %s", elapsed.Round(time.Second)),
	}
	if ok {
		// Keep the last observed numbers instead of zeroing them.
		u.Downloaded = snap.Downloaded
		u.Percent = snap.Percent
	}
	t.OnProgress(ctx, u)
}

// notifyStillWaiting re-emits the current state for a session whose pull
// endpoints keep failing, so observers can show liveness.
func (t *Tracker) notifyStillWaiting(ctx context.Context, sessionID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	snap, ok := t.reg.Get(sessionID)
	if !ok || snap.Status.IsTerminal() {
		return
	}
	t.notifyLocked(Event{Type: EventUpdated, SessionID: sessionID, Session: snap, StillWaiting: true})
}

func (t *Tracker) scheduleEvictionLocked(sessionID string) {
	if _, ok := t.evictions[sessionID]; ok {
		return
	}
	t.evictions[sessionID] = time.AfterFunc(t.evictionDelay, func() {
		t.Dispose(context.Background(), sessionID)
	})
}

func (t *Tracker) notifyLocked(ev Event) {
	for _, obs := range t.subs[ev.SessionID] {
		obs(ev)
	}
}
