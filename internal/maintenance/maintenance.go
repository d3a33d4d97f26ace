// Package maintenance runs periodic background tasks as Go tickers.
// The status API is already a long-running process, so retention work is
// driven from it rather than from a separate cron job.
package maintenance

import (
	"context"
	"log/slog"
	"time"

	"github.com/apptwatch/apptwatch/internal/store"
)

// Config controls maintenance task intervals. Zero duration disables a task.
type Config struct {
	PruneInterval time.Duration // History retention sweep
	Retention     time.Duration // Age beyond which history rows are dropped
}

// DefaultConfig returns sensible production defaults.
func DefaultConfig(retention time.Duration) Config {
	return Config{
		PruneInterval: 6 * time.Hour,
		Retention:     retention,
	}
}

// Start launches all configured maintenance tickers. Blocks until ctx is
// cancelled. Intended to be called with `go`.
func Start(ctx context.Context, pruner store.Pruner, cfg Config, logger *slog.Logger) {
	logger.Info("Maintenance tickers started",
		"prune", cfg.PruneInterval,
		"retention", cfg.Retention)

	if pruner == nil || cfg.PruneInterval <= 0 || cfg.Retention <= 0 {
		logger.Info("History pruning disabled")
		<-ctx.Done()
		return
	}

	t := time.NewTicker(cfg.PruneInterval)
	defer t.Stop()
	runLoop(ctx, t.C, func() {
		_, _ = Prune(ctx, pruner, cfg.Retention, time.Now(), logger)
	})
	logger.Info("Maintenance tickers stopped")
}

func runLoop(ctx context.Context, ch <-chan time.Time, fn func()) {
	for {
		select {
		case <-ch:
			fn()
		case <-ctx.Done():
			return
		}
	}
}

// --------------------------------------------------------------------------
// Task implementations
// --------------------------------------------------------------------------

// Prune removes history rows scraped more than retention before now. The
// cutoff is truncated to a whole day since rows carry scrape dates only.
func Prune(ctx context.Context, pruner store.Pruner, retention time.Duration, now time.Time, logger *slog.Logger) (int64, error) {
	cutoff := now.Add(-retention)
	cutoff = time.Date(cutoff.Year(), cutoff.Month(), cutoff.Day(), 0, 0, 0, 0, time.UTC)

	start := time.Now()
	n, err := pruner.Prune(ctx, cutoff)
	dur := time.Since(start).Round(time.Millisecond)
	if err != nil {
		logger.Warn("Prune: failed to drop old history", "before", cutoff.Format(time.DateOnly), "error", err)
		return 0, err
	}
	if n > 0 {
		logger.Info("Prune: dropped old history", "count", n, "before", cutoff.Format(time.DateOnly), "duration", dur)
	}
	return n, nil
}
