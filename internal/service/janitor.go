package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/ragforge/console/config"
)

// RunPruner deletes job runs older than the retention window.
type RunPruner interface {
	Prune(ctx context.Context, retention time.Duration) (int64, error)
}

// Janitor periodically prunes expired job run history.
type Janitor struct {
	history RunPruner
	cfg     config.HistoryConfig
	logger  *slog.Logger
}

// NewJanitor creates a Janitor over the given history repository.
func NewJanitor(history RunPruner, cfg config.HistoryConfig, logger *slog.Logger) *Janitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Janitor{history: history, cfg: cfg, logger: logger}
}

// Run sweeps once immediately, then on every prune interval until the context
// is cancelled. Sweep failures are logged and retried on the next tick.
func (j *Janitor) Run(ctx context.Context) error {
	j.logger.Info("janitor started",
		"retention", j.cfg.Retention,
		"prune_interval", j.cfg.PruneInterval)

	j.sweep(ctx)

	ticker := time.NewTicker(j.cfg.PruneInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			j.logger.Info("janitor stopped")
			return nil
		case <-ticker.C:
			j.sweep(ctx)
		}
	}
}

func (j *Janitor) sweep(ctx context.Context) {
	pruned, err := j.history.Prune(ctx, j.cfg.Retention)
	if err != nil {
		j.logger.Error("history prune failed", "error", err)
		return
	}
	if pruned > 0 {
		j.logger.Info("pruned expired job runs", "count", pruned)
	}
}
