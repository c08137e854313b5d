package store

import (
	"context"
	"fmt"
	"time"

	"github.com/JonMunkholm/ChartFeed/internal/core"
)

// FetchEntry is one recorded fetch attempt.
type FetchEntry struct {
	ID         string    `json:"id"`
	Locator    string    `json:"locator"`
	Outcome    string    `json:"outcome"`
	Candidates int       `json:"candidates"`
	DurationMs int64     `json:"duration_ms"`
	CreatedAt  time.Time `json:"created_at"`
}

// RecordFetch appends one fetch outcome to the log.
func (s *Store) RecordFetch(ctx context.Context, rec core.FetchRecord) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO fetch_log (id, locator, outcome, candidates, duration_ms)
		VALUES ($1, $2, $3, $4, $5)`,
		rec.ID, rec.Locator, rec.Outcome, rec.Candidates, rec.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("record fetch %s: %w", rec.Locator, err)
	}
	return nil
}

// RecentFetches returns the newest log entries, newest first. A
// non-positive limit defaults to 50; the hard cap is 500.
func (s *Store) RecentFetches(ctx context.Context, limit int) ([]FetchEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}

	rows, err := s.db.Query(ctx, `
		SELECT id, locator, outcome, candidates, duration_ms, created_at
		FROM fetch_log
		ORDER BY created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("recent fetches: %w", err)
	}
	defer rows.Close()

	var entries []FetchEntry
	for rows.Next() {
		var e FetchEntry
		if err := rows.Scan(&e.ID, &e.Locator, &e.Outcome, &e.Candidates, &e.DurationMs, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan fetch entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("recent fetches: %w", err)
	}
	return entries, nil
}
