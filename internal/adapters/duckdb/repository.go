// Package duckdb persists pipeline run traces in an embedded DuckDB database.
package duckdb

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/marcboeker/go-duckdb"
)

// Repository stores traces and spans. It is safe for concurrent use.
type Repository struct {
	db *sql.DB
}

// NewRepository opens (or creates) the database at path and applies the schema.
// An empty path opens an in-memory database.
func NewRepository(path string) (*Repository, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open DuckDB: %w", err)
	}

	// A single connection keeps in-memory databases shared between calls.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	r := &Repository{db: db}
	if err := r.migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return r, nil
}

// Close releases the database handle.
func (r *Repository) Close() error {
	return r.db.Close()
}

func (r *Repository) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS traces (
			id           VARCHAR PRIMARY KEY,
			name         VARCHAR NOT NULL,
			status       VARCHAR NOT NULL,
			subject_name VARCHAR,
			profile_url  VARCHAR,
			error_kind   VARCHAR,
			root_span_id VARCHAR NOT NULL,
			start_time   TIMESTAMP NOT NULL,
			end_time     TIMESTAMP,
			duration_ms  BIGINT,
			span_count   INTEGER
		)`,
		`CREATE TABLE IF NOT EXISTS spans (
			id          VARCHAR PRIMARY KEY,
			trace_id    VARCHAR NOT NULL,
			parent_id   VARCHAR,
			name        VARCHAR NOT NULL,
			kind        VARCHAR NOT NULL,
			status      VARCHAR NOT NULL,
			input       VARCHAR,
			output      VARCHAR,
			error       VARCHAR,
			model       VARCHAR,
			attributes  VARCHAR,
			start_time  TIMESTAMP NOT NULL,
			end_time    TIMESTAMP,
			duration_ms BIGINT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_spans_trace_id ON spans (trace_id)`,
	}
	for _, stmt := range stmts {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
