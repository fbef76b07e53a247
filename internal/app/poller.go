package app

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/five82/gridsync/internal/orchestrator"
	"github.com/five82/gridsync/internal/state"
)

const (
	defaultPollInterval = 2 * time.Second
	maxBackoff          = 30 * time.Second
)

// previewer is the part of the orchestrator the poller needs.
type previewer interface {
	Preview(ctx context.Context) (orchestrator.Preview, error)
	Running() bool
}

// StartPoller launches a background goroutine that recomputes the preview at
// a fixed cadence, backing off after failures. It returns immediately.
func StartPoller(ctx context.Context, store *state.Store, src previewer, interval time.Duration, logger *zap.Logger) {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	go func() {
		timer := time.NewTimer(0)
		defer timer.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-timer.C:
			}
			refresh(ctx, store, src, logger)
			timer.Reset(calculateBackoff(store.Snapshot().ConsecutiveFailures, interval))
		}
	}()
}

// refresh stores a new preview. It does nothing while a sync pass runs and
// reports whether a preview was attempted.
func refresh(ctx context.Context, store *state.Store, src previewer, logger *zap.Logger) bool {
	if src.Running() {
		return false
	}
	preview, err := src.Preview(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return true
		}
		store.Update(nil, err)
		logger.Warn("preview failed", zap.Error(err))
		return true
	}
	store.Update(&preview, nil)
	return true
}

// calculateBackoff doubles base for every consecutive failure, up to
// maxBackoff.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 {
		return base
	}
	d := base
	for range failures {
		d *= 2
		if d >= maxBackoff {
			return maxBackoff
		}
	}
	return d
}
