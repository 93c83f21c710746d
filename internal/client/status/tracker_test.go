package status

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/lorekeeper/internal/logging"
)

type fakeProber struct {
	mu           sync.Mutex
	pingErr      error
	refreshCalls int
}

func (f *fakeProber) Ping(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pingErr
}

func (f *fakeProber) RefreshVerification(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshCalls++
	return nil
}

func (f *fakeProber) setPingErr(err error) {
	f.mu.Lock()
	f.pingErr = err
	f.mu.Unlock()
}

func (f *fakeProber) refreshed() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.refreshCalls
}

func discardLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.DiscardHandler))
}

func TestTracker_StartsOffline(t *testing.T) {
	tr := NewTracker(&fakeProber{}, discardLogger())
	assert.False(t, tr.IsOnline())
}

func TestTracker_CheckNow_Transitions(t *testing.T) {
	p := &fakeProber{}
	tr := NewTracker(p, discardLogger())
	ctx := context.Background()

	require.True(t, tr.CheckNow(ctx))
	assert.True(t, tr.IsOnline())

	p.setPingErr(errors.New("unreachable"))
	require.False(t, tr.CheckNow(ctx))
	assert.False(t, tr.IsOnline())

	p.setPingErr(nil)
	require.True(t, tr.CheckNow(ctx))
	assert.True(t, tr.IsOnline())
}

func TestTracker_RefreshesVerificationOnReconnect(t *testing.T) {
	p := &fakeProber{}
	tr := NewTracker(p, discardLogger())
	ctx := context.Background()

	tr.CheckNow(ctx) // offline -> online
	assert.Equal(t, 1, p.refreshed())

	tr.CheckNow(ctx) // still online: no extra refresh
	assert.Equal(t, 1, p.refreshed())

	p.setPingErr(errors.New("down"))
	tr.CheckNow(ctx)
	p.setPingErr(nil)
	tr.CheckNow(ctx) // back online
	assert.Equal(t, 2, p.refreshed())
}

func TestTracker_RunStopsOnContextDone(t *testing.T) {
	p := &fakeProber{}
	tr := NewTracker(p, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		tr.Run(ctx, 10*time.Millisecond)
		close(done)
	}()

	require.Eventually(t, tr.IsOnline, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after context cancellation")
	}
}
