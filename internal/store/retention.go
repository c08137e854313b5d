package store

// retention.go prunes old fetch history in the background.
//
// The fetch log grows with every refresh and prefetch; entries older than
// the retention window stop being useful for diagnostics. A sweeper
// deletes them in batches so the table never needs manual cleanup and a
// big backlog cannot hold locks for long.
//
// The sweeper is long-running and context-aware for graceful shutdown. A
// failed sweep is logged and retried on the next tick; it never takes the
// application down.

import (
	"context"
	"log/slog"
	"time"
)

// RetentionConfig holds fetch-log retention settings. Zero values fall
// back to the defaults noted per field.
type RetentionConfig struct {
	RetentionDays int           // days of fetch history to keep (default: 90)
	BatchSize     int           // rows deleted per statement (default: 5000)
	CheckInterval time.Duration // how often to sweep (default: 24h)
}

func (c *RetentionConfig) applyDefaults() {
	if c.RetentionDays <= 0 {
		c.RetentionDays = 90
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 5000
	}
	if c.CheckInterval <= 0 {
		c.CheckInterval = 24 * time.Hour
	}
}

// StartRetentionSweeper blocks, pruning expired fetch history immediately
// and then every CheckInterval until ctx is cancelled. Run it in its own
// goroutine.
func (s *Store) StartRetentionSweeper(ctx context.Context, cfg RetentionConfig) {
	cfg.applyDefaults()

	slog.Info("fetch log retention sweeper started",
		"retention_days", cfg.RetentionDays,
		"batch_size", cfg.BatchSize,
		"interval", cfg.CheckInterval,
	)

	s.runSweep(ctx, cfg)

	ticker := time.NewTicker(cfg.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("fetch log retention sweeper stopped")
			return
		case <-ticker.C:
			s.runSweep(ctx, cfg)
		}
	}
}

// runSweep deletes expired rows batch by batch until none remain, so one
// cycle clears the whole backlog without a single long-held lock.
func (s *Store) runSweep(ctx context.Context, cfg RetentionConfig) {
	start := time.Now()
	cutoff := start.AddDate(0, 0, -cfg.RetentionDays)

	var total int64
	for {
		deleted, err := s.PruneFetchLog(ctx, cutoff, cfg.BatchSize)
		if err != nil {
			slog.Error("fetch log prune failed", "error", err, "pruned_so_far", total)
			return
		}
		total += deleted
		if deleted < int64(cfg.BatchSize) {
			break
		}
	}

	if total > 0 {
		slog.Info("pruned fetch log entries",
			"entries_pruned", total,
			"cutoff", cutoff.Format(time.RFC3339),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
}

// PruneFetchLog deletes up to batch fetch-log rows older than cutoff and
// returns how many went.
func (s *Store) PruneFetchLog(ctx context.Context, cutoff time.Time, batch int) (int64, error) {
	tag, err := s.db.Exec(ctx, `
		DELETE FROM fetch_log
		WHERE id IN (
			SELECT id FROM fetch_log
			WHERE created_at < $1
			ORDER BY created_at
			LIMIT $2
		)`, cutoff, batch)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
