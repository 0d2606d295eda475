package transport

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/modelfetch/internal/api"
	"github.com/dmitrijs2005/modelfetch/internal/model"
)

// fakeAPI scripts the two pull endpoints.
type fakeAPI struct {
	mu            sync.Mutex
	progress      map[string]*api.DownloadState
	progressErr   error
	listErr       error
	progressCalls int
	listCalls     int
}

func (f *fakeAPI) RequestDownload(ctx context.Context, req api.DownloadRequest) (*api.DownloadResponse, error) {
	return nil, errors.New("not used")
}

func (f *fakeAPI) GetProgress(ctx context.Context, id string) (*api.DownloadState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.progressCalls++
	if f.progressErr != nil {
		return nil, f.progressErr
	}
	if d, ok := f.progress[id]; ok {
		cp := *d
		return &cp, nil
	}
	return nil, errors.New("unknown id")
}

func (f *fakeAPI) ListDownloads(ctx context.Context) (map[string]api.DownloadState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make(map[string]api.DownloadState, len(f.progress))
	for k, v := range f.progress {
		out[k] = *v
	}
	return out, nil
}

func (f *fakeAPI) set(id string, state api.DownloadState) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.progress == nil {
		f.progress = make(map[string]*api.DownloadState)
	}
	f.progress[id] = &state
}

func (f *fakeAPI) setProgressErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.progressErr = err
}

func (f *fakeAPI) setListErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listErr = err
}

func testPollerConfig() PollerConfig {
	return PollerConfig{
		Interval:          5 * time.Millisecond,
		Deadline:          time.Minute,
		CallTimeout:       time.Second,
		StillWaitingEvery: 3,
	}
}

func TestPoller_ForwardsPulledState(t *testing.T) {
	f := &fakeAPI{}
	f.set("srv-1", api.DownloadState{Status: "downloading", Downloaded: 250, TotalSize: 1000, Percent: 25})

	rec := &recordedUpdates{}
	p := NewPoller(f, testPollerConfig(), PollerHooks{OnUpdate: rec.sink}, testLog())
	t.Cleanup(p.StopAll)

	p.Start(context.Background(), "sess-1", "srv-1")

	require.Eventually(t, func() bool { return len(rec.all()) >= 1 }, time.Second, time.Millisecond)

	u := rec.all()[0]
	assert.Equal(t, "sess-1", u.SessionID, "updates carry the client session id, not the query id")
	assert.Equal(t, model.StatusTransferring, u.Status)
	assert.Equal(t, int64(250), u.Downloaded)
	assert.True(t, u.TotalSizeKnown)
}

func TestPoller_StopsOnTerminalStatus(t *testing.T) {
	f := &fakeAPI{}
	f.set("srv-1", api.DownloadState{Status: "completed", Percent: 100})

	rec := &recordedUpdates{}
	p := NewPoller(f, testPollerConfig(), PollerHooks{OnUpdate: rec.sink}, testLog())
	t.Cleanup(p.StopAll)

	p.Start(context.Background(), "sess-1", "srv-1")

	require.Eventually(t, func() bool { return !p.Active("sess-1") }, time.Second, time.Millisecond)
	require.NotEmpty(t, rec.all())
	assert.Equal(t, model.StatusCompleted, rec.all()[0].Status)
}

func TestPoller_FallsBackToListing(t *testing.T) {
	f := &fakeAPI{}
	f.set("sess-1", api.DownloadState{Status: "downloading", Percent: 40})
	f.setProgressErr(errors.New("progress endpoint down"))

	rec := &recordedUpdates{}
	p := NewPoller(f, testPollerConfig(), PollerHooks{OnUpdate: rec.sink}, testLog())
	t.Cleanup(p.StopAll)

	p.Start(context.Background(), "sess-1", "")

	require.Eventually(t, func() bool { return len(rec.all()) >= 1 }, time.Second, time.Millisecond)
	assert.Equal(t, 40, rec.all()[0].Percent)

	f.mu.Lock()
	listCalls := f.listCalls
	f.mu.Unlock()
	assert.GreaterOrEqual(t, listCalls, 1)
}

func TestPoller_ThrottledStillWaiting(t *testing.T) {
	f := &fakeAPI{}
	f.setProgressErr(errors.New("down"))
	f.setListErr(errors.New("down too"))

	var stillMu sync.Mutex
	still := 0

	p := NewPoller(f, testPollerConfig(), PollerHooks{
		OnUpdate: func(ctx context.Context, u model.ProgressUpdate) {
			t.Error("no update should be forwarded while both endpoints fail")
		},
		OnStillWaiting: func(ctx context.Context, sessionID string) {
			stillMu.Lock()
			still++
			stillMu.Unlock()
		},
	}, testLog())
	t.Cleanup(p.StopAll)

	p.Start(context.Background(), "sess-1", "")

	// Wait long enough for well over StillWaitingEvery ticks.
	require.Eventually(t, func() bool {
		stillMu.Lock()
		defer stillMu.Unlock()
		return still >= 2
	}, 2*time.Second, time.Millisecond)

	f.mu.Lock()
	ticks := f.progressCalls
	f.mu.Unlock()
	stillMu.Lock()
	notified := still
	stillMu.Unlock()
	assert.Less(t, notified, ticks, "still-waiting must fire on a fraction of failed ticks")
}

func TestPoller_DeadlineFires(t *testing.T) {
	f := &fakeAPI{}
	f.setProgressErr(errors.New("down"))
	f.setListErr(errors.New("down"))

	cfg := testPollerConfig()
	cfg.Deadline = 25 * time.Millisecond

	var deadlineMu sync.Mutex
	deadlines := 0

	p := NewPoller(f, cfg, PollerHooks{
		OnUpdate: func(ctx context.Context, u model.ProgressUpdate) {},
		OnDeadline: func(ctx context.Context, sessionID string, elapsed time.Duration) {
			deadlineMu.Lock()
			deadlines++
			deadlineMu.Unlock()
			assert.Equal(t, "sess-1", sessionID)
		},
	}, testLog())
	t.Cleanup(p.StopAll)

	p.Start(context.Background(), "sess-1", "")

	require.Eventually(t, func() bool { return !p.Active("sess-1") }, time.Second, time.Millisecond)

	// Give a stray second firing a chance to show up, then check exactly-once.
	time.Sleep(50 * time.Millisecond)
	deadlineMu.Lock()
	defer deadlineMu.Unlock()
	assert.Equal(t, 1, deadlines, "the deadline must fire exactly once")
}

func TestPoller_StartIsIdempotent(t *testing.T) {
	f := &fakeAPI{}
	f.set("srv-1", api.DownloadState{Status: "downloading"})

	rec := &recordedUpdates{}
	p := NewPoller(f, testPollerConfig(), PollerHooks{OnUpdate: rec.sink}, testLog())
	t.Cleanup(p.StopAll)

	ctx := context.Background()
	p.Start(ctx, "sess-1", "srv-1")
	p.Start(ctx, "sess-1", "srv-1")
	p.Start(ctx, "sess-1", "srv-1")

	assert.True(t, p.Active("sess-1"))

	// One timer only: stopping once clears it.
	p.Stop("sess-1")
	assert.False(t, p.Active("sess-1"))
}

func TestPoller_StopUnknownID(t *testing.T) {
	p := NewPoller(&fakeAPI{}, testPollerConfig(), PollerHooks{OnUpdate: func(context.Context, model.ProgressUpdate) {}}, testLog())
	p.Stop("never-started")
	p.Stop("never-started")
}
