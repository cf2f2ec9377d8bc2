// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cache

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/clue-search/pkg/types"
)

var _ Cache = (*SQLite)(nil)

// SQLite stores results in a local SQLite database. One row in queries
// marks a key as stored, so an empty result list survives a round trip.
// Rows are keyed by list position, not rank, so a list comes back in the
// order it was saved whatever its ranks are.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens or creates the cache database at path and creates the
// schema if it does not exist.
func NewSQLite(path string) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening cache database: %w", err)
	}

	// A single connection serializes writers; SQLite allows only one anyway.
	db.SetMaxOpenConns(1)

	s := &SQLite{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS queries (
			query TEXT PRIMARY KEY,
			updated_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS results (
			query TEXT NOT NULL REFERENCES queries(query) ON DELETE CASCADE,
			pos INTEGER NOT NULL,
			rank INTEGER NOT NULL,
			title TEXT NOT NULL,
			description TEXT NOT NULL,
			PRIMARY KEY (query, pos)
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

func (s *SQLite) Load(ctx context.Context, query string) ([]types.SearchResult, bool, error) {
	var updated string
	err := s.db.QueryRowContext(ctx, `SELECT updated_at FROM queries WHERE query = ?`, query).Scan(&updated)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, unavailable("loading", query, err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT title, description, rank FROM results WHERE query = ? ORDER BY pos`, query)
	if err != nil {
		return nil, false, unavailable("loading", query, err)
	}
	defer rows.Close()

	results := []types.SearchResult{}
	for rows.Next() {
		var r types.SearchResult
		if err := rows.Scan(&r.Title, &r.Description, &r.Rank); err != nil {
			return nil, false, unavailable("scanning", query, err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, false, unavailable("loading", query, err)
	}
	return results, true, nil
}

// Save replaces the entry for query in one transaction.
func (s *SQLite) Save(ctx context.Context, query string, results []types.SearchResult) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return unavailable("saving", query, err)
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO queries (query, updated_at) VALUES (?, ?)
		ON CONFLICT(query) DO UPDATE SET updated_at = excluded.updated_at`, query, now); err != nil {
		return unavailable("saving", query, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM results WHERE query = ?`, query); err != nil {
		return unavailable("saving", query, err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO results (query, pos, rank, title, description) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return unavailable("saving", query, err)
	}
	defer stmt.Close()

	for i, r := range results {
		if _, err := stmt.ExecContext(ctx, query, i, r.Rank, r.Title, r.Description); err != nil {
			return unavailable("saving", query, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return unavailable("saving", query, err)
	}
	return nil
}

// Dump returns every stored entry.
func (s *SQLite) Dump(ctx context.Context) (map[string][]types.SearchResult, error) {
	out := make(map[string][]types.SearchResult)

	qrows, err := s.db.QueryContext(ctx, `SELECT query FROM queries`)
	if err != nil {
		return nil, unavailable("listing", "", err)
	}
	for qrows.Next() {
		var q string
		if err := qrows.Scan(&q); err != nil {
			qrows.Close()
			return nil, unavailable("listing", "", err)
		}
		out[q] = []types.SearchResult{}
	}
	qrows.Close()
	if err := qrows.Err(); err != nil {
		return nil, unavailable("listing", "", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT query, title, description, rank FROM results ORDER BY query, pos`)
	if err != nil {
		return nil, unavailable("listing", "", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			q string
			r types.SearchResult
		)
		if err := rows.Scan(&q, &r.Title, &r.Description, &r.Rank); err != nil {
			return nil, unavailable("listing", "", err)
		}
		out[q] = append(out[q], r)
	}
	return out, rows.Err()
}
