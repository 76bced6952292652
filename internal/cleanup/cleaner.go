package cleanup

import (
	"context"
	"log/slog"
	"time"
)

// Pruner deletes audit events recorded before a cutoff
type Pruner interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// Collector reclaims space in a store
type Collector interface {
	CollectGarbage(ctx context.Context) error
}

// Cleaner handles periodic pruning of the audit trail and garbage collection
// of the session store
type Cleaner struct {
	pruner     Pruner
	collectors []Collector
	retention  time.Duration
	interval   time.Duration
	now        func() time.Time
}

// NewCleaner creates a new cleanup worker. Collectors may be empty.
func NewCleaner(pruner Pruner, retention, interval time.Duration, collectors ...Collector) *Cleaner {
	if interval <= 0 {
		interval = time.Hour
	}
	if retention <= 0 {
		retention = 90 * 24 * time.Hour
	}

	return &Cleaner{
		pruner:     pruner,
		collectors: collectors,
		retention:  retention,
		interval:   interval,
		now:        time.Now,
	}
}

// Run is the main loop for the cleanup worker. It blocks until ctx is
// cancelled and the cycle in progress has finished.
func (c *Cleaner) Run(ctx context.Context) error {
	slog.Info("cleanup worker started", "interval", c.interval, "retention", c.retention)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	// Run immediately on start
	c.RunOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.Info("cleanup worker stopped")
			return nil
		case <-ticker.C:
			c.RunOnce(ctx)
		}
	}
}

// RunOnce prunes expired audit events and collects garbage in every store
func (c *Cleaner) RunOnce(ctx context.Context) {
	slog.Debug("running cleanup cycle")

	if c.pruner != nil {
		cutoff := c.now().Add(-c.retention)
		deleted, err := c.pruner.DeleteOlderThan(ctx, cutoff)
		switch {
		case err != nil:
			slog.Error("failed to prune audit events", "error", err, "cutoff", cutoff)
		case deleted > 0:
			slog.Info("pruned audit events", "count", deleted, "cutoff", cutoff)
		default:
			slog.Debug("no audit events to prune")
		}
	}

	for _, col := range c.collectors {
		if err := col.CollectGarbage(ctx); err != nil {
			slog.Error("failed to collect garbage", "error", err)
		}
	}
}
