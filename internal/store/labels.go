package store

import (
	"context"
	"fmt"
	"time"
)

// LabelOverride is a display label keyed by a sanitized series title.
type LabelOverride struct {
	Key       string    `json:"key"`
	Label     string    `json:"label"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LabelOverrides returns all overrides as a key-to-label map. This is the
// shape the service merges over the seed labels on every table render.
func (s *Store) LabelOverrides(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.Query(ctx, "SELECT key, label FROM label_overrides")
	if err != nil {
		return nil, fmt.Errorf("load label overrides: %w", err)
	}
	defer rows.Close()

	overrides := make(map[string]string)
	for rows.Next() {
		var key, label string
		if err := rows.Scan(&key, &label); err != nil {
			return nil, fmt.Errorf("scan label override: %w", err)
		}
		overrides[key] = label
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load label overrides: %w", err)
	}
	return overrides, nil
}

// ListLabelOverrides returns all overrides with their update times, sorted
// by key.
func (s *Store) ListLabelOverrides(ctx context.Context) ([]LabelOverride, error) {
	rows, err := s.db.Query(ctx,
		"SELECT key, label, updated_at FROM label_overrides ORDER BY key")
	if err != nil {
		return nil, fmt.Errorf("list label overrides: %w", err)
	}
	defer rows.Close()

	var overrides []LabelOverride
	for rows.Next() {
		var o LabelOverride
		if err := rows.Scan(&o.Key, &o.Label, &o.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan label override: %w", err)
		}
		overrides = append(overrides, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list label overrides: %w", err)
	}
	return overrides, nil
}

// UpsertLabelOverride inserts or replaces the override for key.
func (s *Store) UpsertLabelOverride(ctx context.Context, key, label string) (*LabelOverride, error) {
	o := LabelOverride{Key: key, Label: label}
	err := s.db.QueryRow(ctx, `
		INSERT INTO label_overrides (key, label)
		VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET label = EXCLUDED.label, updated_at = now()
		RETURNING updated_at`,
		key, label,
	).Scan(&o.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("upsert label override %q: %w", key, err)
	}
	return &o, nil
}

// DeleteLabelOverride removes the override for key. It reports whether a
// row was deleted.
func (s *Store) DeleteLabelOverride(ctx context.Context, key string) (bool, error) {
	tag, err := s.db.Exec(ctx, "DELETE FROM label_overrides WHERE key = $1", key)
	if err != nil {
		return false, fmt.Errorf("delete label override %q: %w", key, err)
	}
	return tag.RowsAffected() > 0, nil
}
