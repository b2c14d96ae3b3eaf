package core

// scheduler.go keeps the snapshot fresh so newly approved updates reach the
// map without a restart. A failed refresh is logged and retried on the next
// tick; the previous snapshot stays in service meanwhile.

import (
	"context"
	"log/slog"
	"time"
)

// DefaultRefreshInterval is used when the configured interval is not positive.
const DefaultRefreshInterval = 5 * time.Minute

// StartRefreshScheduler loads immediately, then every interval, until ctx is
// cancelled. It blocks; run it in its own goroutine.
func (s *Service) StartRefreshScheduler(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	slog.Info("refresh scheduler started", "interval", interval.String())

	s.runRefresh(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("refresh scheduler stopped")
			return
		case <-ticker.C:
			s.runRefresh(ctx)
		}
	}
}

// runRefresh performs one load and logs the outcome.
func (s *Service) runRefresh(ctx context.Context) {
	snap, err := s.Load(ctx)
	if err != nil {
		slog.Error("refresh failed", "error", err, "user_message", FormatUserError(err))
		return
	}
	if snap.Stale {
		slog.Warn("refresh served stale snapshot", "snapshot_id", snap.ID, "warnings", snap.Warnings)
	}
}
