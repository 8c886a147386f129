// Package history persists a local log of weave runs in SQLite. The CLI
// appends one row per run so users can audit what was woven, with which
// inputs, and how well the definition covered the data.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/flowweave/flowweave/pkg/errors"
)

// Run is one recorded weave invocation.
type Run struct {
	ID             string        `json:"id"`
	CreatedAt      time.Time     `json:"created_at"`
	DatasetHash    string        `json:"dataset_hash"`
	DefinitionHash string        `json:"definition_hash"`
	GraphHash      string        `json:"graph_hash"`
	NodeCount      int           `json:"node_count"`
	LinkCount      int           `json:"link_count"`
	Unmatched      int           `json:"unmatched"`
	InputValue     float64       `json:"input_value"`
	RoutedValue    float64       `json:"routed_value"`
	Duration       time.Duration `json:"duration"`
}

// Store manages the SQLite connection and schema.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the run log at path and migrates the
// schema. WAL mode is enabled so a concurrent reader never blocks an
// append.
func NewStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("schema migration: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the runs table if it doesn't exist. The table is
// append-only; Prune is the only deletion path.
func (s *Store) migrate() error {
	query := `
	CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		created_at DATETIME NOT NULL,

		dataset_hash TEXT NOT NULL,
		definition_hash TEXT NOT NULL,
		graph_hash TEXT NOT NULL,

		node_count INTEGER NOT NULL,
		link_count INTEGER NOT NULL,
		unmatched INTEGER NOT NULL,
		input_value REAL NOT NULL,
		routed_value REAL NOT NULL,
		duration_ms INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create runs table: %w", err)
	}
	return nil
}

// Append records a run. A missing ID gets a fresh UUID and a zero
// CreatedAt gets the current time; the stored run is returned.
func (s *Store) Append(ctx context.Context, run Run) (Run, error) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (
			run_id, created_at, dataset_hash, definition_hash, graph_hash,
			node_count, link_count, unmatched, input_value, routed_value, duration_ms
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.CreatedAt, run.DatasetHash, run.DefinitionHash, run.GraphHash,
		run.NodeCount, run.LinkCount, run.Unmatched, run.InputValue, run.RoutedValue,
		run.Duration.Milliseconds(),
	)
	if err != nil {
		return Run{}, fmt.Errorf("insert run: %w", err)
	}
	return run, nil
}

// Get returns the run with the given ID.
func (s *Store) Get(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT run_id, created_at, dataset_hash, definition_hash, graph_hash,
		       node_count, link_count, unmatched, input_value, routed_value, duration_ms
		FROM runs WHERE run_id = ?`, id)

	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return Run{}, errors.New(errors.ErrCodeNotFound, "no run %q", id)
	}
	if err != nil {
		return Run{}, fmt.Errorf("query run: %w", err)
	}
	return run, nil
}

// List returns the most recent runs, newest first. A non-positive limit
// returns everything.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, created_at, dataset_hash, definition_hash, graph_hash,
		       node_count, link_count, unmatched, input_value, routed_value, duration_ms
		FROM runs ORDER BY created_at DESC, run_id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

// Prune deletes all but the newest keep runs and returns the number
// removed.
func (s *Store) Prune(ctx context.Context, keep int) (int, error) {
	if keep < 0 {
		keep = 0
	}
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM runs WHERE run_id NOT IN (
			SELECT run_id FROM runs ORDER BY created_at DESC, run_id LIMIT ?
		)`, keep)
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (Run, error) {
	var run Run
	var durationMS int64
	err := s.Scan(
		&run.ID, &run.CreatedAt, &run.DatasetHash, &run.DefinitionHash, &run.GraphHash,
		&run.NodeCount, &run.LinkCount, &run.Unmatched, &run.InputValue, &run.RoutedValue,
		&durationMS,
	)
	if err != nil {
		return Run{}, err
	}
	run.Duration = time.Duration(durationMS) * time.Millisecond
	return run, nil
}
