// Package status tracks auxiliary, non-blocking client state: backend
// reachability and the email-verification flag. Nothing here ever gates a
// feature; the CLI only renders the values.
package status

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/lorekeeper/internal/logging"
)

// Prober is the slice of the auth service the tracker needs.
type Prober interface {
	Ping(ctx context.Context) error
	RefreshVerification(ctx context.Context) error
}

// Tracker polls the backend and exposes an online flag. When connectivity
// comes back it also nudges the verification flag, opportunistically.
type Tracker struct {
	prober Prober
	logger logging.Logger

	probeTimeout time.Duration
	online       atomic.Bool
}

func NewTracker(prober Prober, logger logging.Logger) *Tracker {
	return &Tracker{prober: prober, logger: logger, probeTimeout: 3 * time.Second}
}

// IsOnline reports the result of the most recent probe.
func (t *Tracker) IsOnline() bool {
	return t.online.Load()
}

// CheckNow runs a single probe and updates the flag. Returns the new value.
func (t *Tracker) CheckNow(ctx context.Context) bool {
	probeCtx, cancel := context.WithTimeout(ctx, t.probeTimeout)
	err := t.prober.Ping(probeCtx)
	cancel()

	now := err == nil
	was := t.online.Swap(now)

	if now != was {
		if now {
			t.logger.Info(ctx, "backend reachable")
		} else {
			t.logger.Warn(ctx, "backend unreachable, switching to offline view")
		}
	}

	if now && !was {
		if err := t.prober.RefreshVerification(ctx); err != nil {
			t.logger.Debug(ctx, "verification refresh failed", "error", err)
		}
	}
	return now
}

// Run probes on the given interval until ctx is done. Callers start it on
// its own goroutine.
func (t *Tracker) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			t.CheckNow(ctx)
		case <-ctx.Done():
			return
		}
	}
}
