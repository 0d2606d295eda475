package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/dmitrijs2005/modelfetch/internal/api"
	"github.com/dmitrijs2005/modelfetch/internal/common"
	"github.com/dmitrijs2005/modelfetch/internal/logging"
)

// PushAdapter surfaces progress events riding the host's shared event
// channel without disrupting the channel's existing consumer.
type PushAdapter struct {
	source        ChannelSource
	sink          UpdateSink
	log           logging.Logger
	retryInterval time.Duration
	maxAttempts   int

	mu         sync.Mutex
	channel    Channel
	prev       MessageHandler
	exhausted  bool
	handlerCtx context.Context
}

// NewPushAdapter builds an adapter that will attach to whatever channel the
// source eventually yields. maxAttempts bounds the attach retries; interval
// is the fixed cadence between them.
func NewPushAdapter(source ChannelSource, sink UpdateSink, log logging.Logger, interval time.Duration, maxAttempts int) *PushAdapter {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &PushAdapter{
		source:        source,
		sink:          sink,
		log:           log.With("transport", "push"),
		retryInterval: interval,
		maxAttempts:   maxAttempts,
	}
}

// Attach hooks the adapter into the host channel, retrying on a fixed
// cadence until the channel appears or the attempt budget runs out. After
// exhaustion it returns common.ErrChannelUnavailable and the adapter stays
// permanently unavailable; the tracker then relies on polling alone.
// Attaching an already-attached adapter is a no-op.
func (a *PushAdapter) Attach(ctx context.Context) error {
	a.mu.Lock()
	if a.channel != nil {
		a.mu.Unlock()
		return nil
	}
	if a.exhausted {
		a.mu.Unlock()
		return common.ErrChannelUnavailable
	}
	a.mu.Unlock()

	backoff := retry.WithMaxRetries(uint64(a.maxAttempts-1), retry.NewConstant(a.retryInterval))

	attempt := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		ch := a.source.Channel()
		if ch == nil {
			a.log.Debug(ctx, "event channel not available yet",
				"attempt", attempt, "max_attempts", a.maxAttempts)
			return retry.RetryableError(fmt.Errorf("channel not exposed yet"))
		}
		a.attachTo(ctx, ch)
		return nil
	})
	if err != nil {
		a.mu.Lock()
		a.exhausted = true
		a.mu.Unlock()
		a.log.Warn(ctx, "event channel attachment exhausted, relying on polling",
			"attempts", attempt)
		return fmt.Errorf("%w: after %d attempts", common.ErrChannelUnavailable, attempt)
	}

	a.log.Info(ctx, "attached to event channel", "attempts", attempt)
	return nil
}

// attachTo composes the adapter's handling with the channel's existing
// consumer: the prior handler keeps running and is invoked first.
func (a *PushAdapter) attachTo(ctx context.Context, ch Channel) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.channel = ch
	a.prev = ch.Handler()
	a.handlerCtx = context.WithoutCancel(ctx)

	prev := a.prev
	ch.SetHandler(func(data []byte) {
		if prev != nil {
			prev(data)
		}
		a.handleMessage(data)
	})
}

// Detach restores the channel's prior handler. Idempotent and safe to call
// on a never-attached adapter.
func (a *PushAdapter) Detach() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.channel == nil {
		return
	}
	a.channel.SetHandler(a.prev)
	a.channel = nil
	a.prev = nil
}

// Attached reports whether the adapter currently intercepts the channel.
func (a *PushAdapter) Attached() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.channel != nil
}

// Available reports false once the attach budget is exhausted.
func (a *PushAdapter) Available() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return !a.exhausted
}

// handleMessage filters one inbound message. Only JSON payloads carrying the
// progress type tag are forwarded; everything else is the host's traffic and
// is ignored without comment.
func (a *PushAdapter) handleMessage(data []byte) {
	var ev api.ProgressEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return
	}
	if ev.Type != api.EventTypeProgress || ev.DownloadID == "" {
		return
	}

	a.mu.Lock()
	ctx := a.handlerCtx
	a.mu.Unlock()
	if ctx == nil {
		ctx = context.Background()
	}

	a.log.Debug(ctx, "progress event received",
		"session_id", ev.DownloadID, "status", ev.Status, "percent", ev.Percent)
	a.sink(ctx, ev.ToUpdate())
}
