// Package store persists chart feed configuration in PostgreSQL.
//
// The store is optional: deployments without a database run the feed with
// seed labels only, and the service layer skips persistence when no store
// is wired in. Everything here speaks through the DBTX interface so both
// *pgxpool.Pool and pgx.Tx satisfy it, and tests can fake it.
package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the interface for database operations.
// Satisfied by *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Store reads and writes label overrides, chart definitions, and the
// fetch log.
type Store struct {
	db DBTX
}

// New creates a Store on top of db.
func New(db DBTX) *Store {
	return &Store{db: db}
}

// Schema statements are idempotent so EnsureSchema can run on every boot.
const (
	labelsDDL = `
	CREATE TABLE IF NOT EXISTS label_overrides (
		key        TEXT PRIMARY KEY,
		label      TEXT NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`

	chartsDDL = `
	CREATE TABLE IF NOT EXISTS chart_definitions (
		id           UUID PRIMARY KEY,
		name         TEXT NOT NULL,
		category     TEXT NOT NULL,
		series_title TEXT NOT NULL DEFAULT '',
		kind         TEXT NOT NULL DEFAULT 'line',
		created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
	)`

	fetchLogDDL = `
	CREATE TABLE IF NOT EXISTS fetch_log (
		id          UUID PRIMARY KEY,
		locator     TEXT NOT NULL,
		outcome     TEXT NOT NULL,
		candidates  INT NOT NULL DEFAULT 0,
		duration_ms BIGINT NOT NULL DEFAULT 0,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	CREATE INDEX IF NOT EXISTS fetch_log_created_at_idx ON fetch_log (created_at DESC)`
)

// EnsureSchema creates the configuration tables when they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, ddl := range []string{labelsDDL, chartsDDL, fetchLogDDL} {
		if _, err := s.db.Exec(ctx, ddl); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
