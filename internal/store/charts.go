package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ChartDefinition is a saved chart: which category to render, optionally
// pinned to a single series title, and how to draw it.
type ChartDefinition struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Category    string    `json:"category"`
	SeriesTitle string    `json:"series_title,omitempty"`
	Kind        string    `json:"kind"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ChartParams are the caller-supplied fields of a chart definition.
type ChartParams struct {
	Name        string `json:"name"`
	Category    string `json:"category"`
	SeriesTitle string `json:"series_title"`
	Kind        string `json:"kind"`
}

const chartColumns = "id, name, category, series_title, kind, created_at, updated_at"

// ListCharts returns all chart definitions, oldest first.
func (s *Store) ListCharts(ctx context.Context) ([]ChartDefinition, error) {
	rows, err := s.db.Query(ctx,
		"SELECT "+chartColumns+" FROM chart_definitions ORDER BY created_at")
	if err != nil {
		return nil, fmt.Errorf("list charts: %w", err)
	}
	defer rows.Close()

	var charts []ChartDefinition
	for rows.Next() {
		var c ChartDefinition
		if err := rows.Scan(&c.ID, &c.Name, &c.Category, &c.SeriesTitle, &c.Kind, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan chart: %w", err)
		}
		charts = append(charts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list charts: %w", err)
	}
	return charts, nil
}

// GetChart returns the chart definition with the given ID.
func (s *Store) GetChart(ctx context.Context, id string) (*ChartDefinition, error) {
	var c ChartDefinition
	err := s.db.QueryRow(ctx,
		"SELECT "+chartColumns+" FROM chart_definitions WHERE id = $1", id,
	).Scan(&c.ID, &c.Name, &c.Category, &c.SeriesTitle, &c.Kind, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("chart not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get chart %s: %w", id, err)
	}
	return &c, nil
}

// CreateChart saves a new chart definition and returns it with its
// generated ID. An empty kind defaults to "line".
func (s *Store) CreateChart(ctx context.Context, params ChartParams) (*ChartDefinition, error) {
	if params.Kind == "" {
		params.Kind = "line"
	}
	c := ChartDefinition{
		ID:          uuid.New().String(),
		Name:        params.Name,
		Category:    params.Category,
		SeriesTitle: params.SeriesTitle,
		Kind:        params.Kind,
	}
	err := s.db.QueryRow(ctx, `
		INSERT INTO chart_definitions (id, name, category, series_title, kind)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`,
		c.ID, c.Name, c.Category, c.SeriesTitle, c.Kind,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("create chart: %w", err)
	}
	return &c, nil
}

// UpdateChart replaces the caller-supplied fields of an existing chart.
func (s *Store) UpdateChart(ctx context.Context, id string, params ChartParams) (*ChartDefinition, error) {
	if params.Kind == "" {
		params.Kind = "line"
	}
	c := ChartDefinition{
		ID:          id,
		Name:        params.Name,
		Category:    params.Category,
		SeriesTitle: params.SeriesTitle,
		Kind:        params.Kind,
	}
	err := s.db.QueryRow(ctx, `
		UPDATE chart_definitions
		SET name = $2, category = $3, series_title = $4, kind = $5, updated_at = now()
		WHERE id = $1
		RETURNING created_at, updated_at`,
		id, c.Name, c.Category, c.SeriesTitle, c.Kind,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("chart not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("update chart %s: %w", id, err)
	}
	return &c, nil
}

// DeleteChart removes the chart definition with the given ID.
func (s *Store) DeleteChart(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, "DELETE FROM chart_definitions WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete chart %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("chart not found: %s", id)
	}
	return nil
}
