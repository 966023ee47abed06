package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/impactlens/internal/repository"
	"github.com/spec-kit/impactlens/internal/service"
)

// RetentionWorker periodically drops expired ticket copies and sweeps
// stale analysis cache entries.
type RetentionWorker struct {
	store    repository.TicketStore
	analysis *service.AnalysisService
	interval time.Duration
	logger   *zap.Logger
}

// NewRetentionWorker constructs the worker.
func NewRetentionWorker(store repository.TicketStore, analysis *service.AnalysisService, interval time.Duration, logger *zap.Logger) *RetentionWorker {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	return &RetentionWorker{store: store, analysis: analysis, interval: interval, logger: logger}
}

// Start runs the sweep loop until the context is cancelled.
func (w *RetentionWorker) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				w.sweep(ctx)
			}
		}
	}()
}

func (w *RetentionWorker) sweep(ctx context.Context) {
	now := time.Now()
	removed, err := w.store.DeleteExpired(ctx, now)
	if err != nil {
		w.logger.Warn("expired ticket sweep failed", zap.Error(err))
	} else if removed > 0 {
		w.logger.Info("expired tickets removed", zap.Int64("count", removed))
	}
	if w.analysis != nil {
		if swept := w.analysis.SweepCache(now); swept > 0 {
			w.logger.Info("cache entries expired", zap.Int("count", swept))
		}
	}
}
