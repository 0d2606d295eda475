package transport

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/modelfetch/internal/api"
	"github.com/dmitrijs2005/modelfetch/internal/logging"
)

// PollerConfig carries the pull adapter's timing knobs.
type PollerConfig struct {
	// Interval between status queries for one session.
	Interval time.Duration

	// Deadline is the hard wall-clock budget per session. When it expires
	// the session's timer is cancelled unconditionally and OnDeadline fires.
	Deadline time.Duration

	// CallTimeout bounds each individual query.
	CallTimeout time.Duration

	// StillWaitingEvery throttles the "still waiting" re-notification: it
	// fires after every N consecutive ticks where both endpoints failed.
	StillWaitingEvery int
}

// PollerHooks are the tracker callbacks the poller drives.
type PollerHooks struct {
	// OnUpdate delivers a successfully pulled state.
	OnUpdate UpdateSink

	// OnStillWaiting asks the tracker to re-notify observers that the
	// session is alive even though the backend is not answering.
	OnStillWaiting func(ctx context.Context, sessionID string)

	// OnDeadline tells the tracker the session's poll budget is spent.
	OnDeadline func(ctx context.Context, sessionID string, elapsed time.Duration)
}

// Poller issues periodic status queries, one independent timer per session.
type Poller struct {
	client api.Client
	cfg    PollerConfig
	hooks  PollerHooks
	log    logging.Logger

	mu     sync.Mutex
	active map[string]context.CancelFunc
	wg     sync.WaitGroup
}

func NewPoller(client api.Client, cfg PollerConfig, hooks PollerHooks, log logging.Logger) *Poller {
	if cfg.StillWaitingEvery < 1 {
		cfg.StillWaitingEvery = 1
	}
	return &Poller{
		client: client,
		cfg:    cfg,
		hooks:  hooks,
		log:    log.With("transport", "pull"),
		active: make(map[string]context.CancelFunc),
	}
}

// Start begins polling for the session. serverID may be empty; when present
// it is preferred for the per-download query, with the client id as the
// fallback key in the bulk listing. Starting an id that already has a timer
// is a no-op.
func (p *Poller) Start(ctx context.Context, sessionID, serverID string) {
	p.mu.Lock()
	if _, ok := p.active[sessionID]; ok {
		p.mu.Unlock()
		return
	}
	pollCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	p.active[sessionID] = cancel
	p.wg.Add(1)
	p.mu.Unlock()

	p.log.Debug(ctx, "polling started", "session_id", sessionID, "server_id", serverID)

	go p.run(pollCtx, sessionID, serverID)
}

// Stop cancels the session's timer. Idempotent and safe to call for an id
// with no active timer.
func (p *Poller) Stop(sessionID string) {
	p.mu.Lock()
	cancel, ok := p.active[sessionID]
	delete(p.active, sessionID)
	p.mu.Unlock()
	if ok {
		cancel()
	}
}

// StopAll cancels every timer and waits for the poll goroutines to drain.
func (p *Poller) StopAll() {
	p.mu.Lock()
	for id, cancel := range p.active {
		cancel()
		delete(p.active, id)
	}
	p.mu.Unlock()
	p.wg.Wait()
}

// Active reports whether the session currently has a timer.
func (p *Poller) Active(sessionID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.active[sessionID]
	return ok
}

// run is the per-session loop. A single goroutine owns the ticker, so ticks
// never overlap; a tick slower than the interval simply drops the missed
// fires.
func (p *Poller) run(ctx context.Context, sessionID, serverID string) {
	defer p.wg.Done()
	defer p.Stop(sessionID)

	started := time.Now()
	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	deadline := time.NewTimer(p.cfg.Deadline)
	defer deadline.Stop()

	failures := 0

	// Poll immediately once so the first state arrives without waiting a
	// full interval.
	if done := p.tick(ctx, sessionID, serverID, &failures); done {
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-deadline.C:
			p.log.Warn(ctx, "poll deadline reached", "session_id", sessionID,
				"elapsed", time.Since(started))
			if p.hooks.OnDeadline != nil {
				p.hooks.OnDeadline(ctx, sessionID, time.Since(started))
			}
			return
		case <-ticker.C:
			if done := p.tick(ctx, sessionID, serverID, &failures); done {
				return
			}
		}
	}
}

// tick performs one query round: per-download endpoint first, bulk listing
// as the fallback. Returns true when polling should stop (terminal status
// observed or the context is gone).
func (p *Poller) tick(ctx context.Context, sessionID, serverID string, failures *int) bool {
	if ctx.Err() != nil {
		return true
	}

	callCtx, cancel := context.WithTimeout(ctx, p.cfg.CallTimeout)
	state, err := p.fetch(callCtx, sessionID, serverID)
	cancel()

	if err != nil {
		if ctx.Err() != nil {
			return true
		}
		*failures++
		p.log.Debug(ctx, "poll tick failed", "session_id", sessionID,
			"consecutive_failures", *failures, "error", err)
		if *failures%p.cfg.StillWaitingEvery == 0 && p.hooks.OnStillWaiting != nil {
			p.hooks.OnStillWaiting(ctx, sessionID)
		}
		return false
	}

	*failures = 0
	u := state.ToUpdate(sessionID)
	p.hooks.OnUpdate(ctx, u)

	if u.Status.IsTerminal() {
		p.log.Debug(ctx, "terminal status pulled, stopping",
			"session_id", sessionID, "status", u.Status)
		return true
	}
	return false
}

// fetch tries the per-download query, then scans the bulk listing for the
// session under either of its ids.
func (p *Poller) fetch(ctx context.Context, sessionID, serverID string) (*api.DownloadState, error) {
	queryID := serverID
	if queryID == "" {
		queryID = sessionID
	}

	state, err := p.client.GetProgress(ctx, queryID)
	if err == nil {
		return state, nil
	}

	downloads, listErr := p.client.ListDownloads(ctx)
	if listErr != nil {
		return nil, err
	}
	if d, ok := downloads[queryID]; ok {
		return &d, nil
	}
	if d, ok := downloads[sessionID]; ok {
		return &d, nil
	}
	return nil, err
}
