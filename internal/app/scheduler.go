package app

import (
	"context"
	"time"
)

// StartScheduler launches the background refresh loop. Each tick runs a full
// price refresh followed by the daily snapshot monitor, bounded by the
// configured per-run timeout. The loop stops when Close or StopScheduler is
// called.
func (a *App) StartScheduler() {
	if a.schedulerCancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	a.schedulerCancel = cancel

	interval := a.Config.Refresh.GetInterval()
	a.Logger.Info().
		Str("interval", interval.String()).
		Msg("Starting refresh scheduler")

	go a.runScheduler(ctx, interval)
}

// StopScheduler stops the background refresh loop if it is running.
func (a *App) StopScheduler() {
	if a.schedulerCancel != nil {
		a.schedulerCancel()
		a.schedulerCancel = nil
	}
}

func (a *App) runScheduler(ctx context.Context, interval time.Duration) {
	// Run once at startup so valuations are current before the first tick.
	a.runRefresh(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			a.Logger.Info().Msg("Refresh scheduler stopped")
			return
		case <-ticker.C:
			a.runRefresh(ctx)
		}
	}
}

// runRefresh executes one scheduled refresh pass with the configured timeout.
func (a *App) runRefresh(ctx context.Context) {
	runCtx, cancel := context.WithTimeout(ctx, a.Config.Refresh.GetRunTimeout())
	defer cancel()

	start := time.Now()
	result, err := a.RefreshService.RefreshAll(runCtx)
	if err != nil {
		a.Logger.Error().Err(err).Msg("Scheduled refresh failed")
		return
	}

	a.Logger.Info().
		Int("updated", result.Updated).
		Int("skipped", result.Skipped).
		Int("failed", result.Failed).
		Dur("elapsed", time.Since(start)).
		Msg("Scheduled refresh complete")

	if err := a.RefreshService.SnapshotAndNotify(runCtx); err != nil {
		a.Logger.Warn().Err(err).Msg("Portfolio snapshot failed")
	}
}
