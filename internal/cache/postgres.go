// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pdiddy/clue-search/pkg/types"
)

var _ Cache = (*Postgres)(nil)

// Postgres shares one result cache between several stage processes. The
// list is stored as JSON text rather than JSONB, which rejects the \u0000
// escape that a NUL in a title or description encodes to.
type Postgres struct {
	pool *pgxpool.Pool
}

const postgresSchema = `
CREATE TABLE IF NOT EXISTS search_result_cache (
	query TEXT PRIMARY KEY,
	results TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// NewPostgres connects to dsn and creates the cache table if needed.
func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

func (p *Postgres) Load(ctx context.Context, query string) ([]types.SearchResult, bool, error) {
	var raw string
	err := p.pool.QueryRow(ctx,
		`SELECT results FROM search_result_cache WHERE query = $1`, query).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, unavailable("loading", query, err)
	}
	results := []types.SearchResult{}
	if err := json.Unmarshal([]byte(raw), &results); err != nil {
		return nil, false, unavailable("decoding", query, err)
	}
	return results, true, nil
}

func (p *Postgres) Save(ctx context.Context, query string, results []types.SearchResult) error {
	raw, err := json.Marshal(cloneResults(results))
	if err != nil {
		return fmt.Errorf("encoding results for %q: %w", query, err)
	}
	_, err = p.pool.Exec(ctx, `
	INSERT INTO search_result_cache (query, results, updated_at) VALUES ($1, $2, now())
	ON CONFLICT (query) DO UPDATE SET results = EXCLUDED.results, updated_at = EXCLUDED.updated_at
	`, query, string(raw))
	if err != nil {
		return unavailable("saving", query, err)
	}
	return nil
}

// Dump returns every stored entry.
func (p *Postgres) Dump(ctx context.Context) (map[string][]types.SearchResult, error) {
	rows, err := p.pool.Query(ctx, `SELECT query, results FROM search_result_cache`)
	if err != nil {
		return nil, unavailable("listing", "", err)
	}
	defer rows.Close()

	out := make(map[string][]types.SearchResult)
	for rows.Next() {
		var (
			q   string
			raw string
		)
		if err := rows.Scan(&q, &raw); err != nil {
			return nil, unavailable("listing", "", err)
		}
		results := []types.SearchResult{}
		if err := json.Unmarshal([]byte(raw), &results); err != nil {
			return nil, unavailable("decoding", q, err)
		}
		out[q] = results
	}
	return out, rows.Err()
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}
