package cache

import (
	"context"
	"time"

	"github.com/bassista/chefs_best_friend/internal/logger"
)

// StartRefreshScheduler runs a goroutine that periodically reloads the cache
// so it never drifts from the store for longer than interval.
// Returns a channel that is closed when the scheduler has stopped.
func StartRefreshScheduler(
	ctx context.Context,
	refresher Refresher,
	interval time.Duration,
) <-chan struct{} {
	done := make(chan struct{})
	if interval <= 0 {
		logger.WithComponent("refresh").Debug("refresh scheduler disabled")
		close(done)
		return done
	}

	logger.WithComponent("refresh").Debugf("starting refresh scheduler with interval: %v", interval)
	ticker := time.NewTicker(interval)
	go func() {
		defer close(done)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				logger.WithComponent("refresh").Info("refresh scheduler stopped")
				return
			case <-ticker.C:
				logger.WithComponent("refresh").Trace("refresh scheduler tick")
				refresh(ctx, refresher)
			}
		}
	}()
	return done
}

// refresh reloads once. Failures are already published by the refresher, so
// they are only logged here.
func refresh(ctx context.Context, refresher Refresher) {
	if err := ctx.Err(); err != nil {
		return
	}
	if err := refresher.LoadAll(ctx); err != nil {
		logger.WithComponent("refresh").Warnf("periodic refresh failed: %v", err)
		return
	}
	logger.WithComponent("refresh").Debug("cache refreshed")
}
