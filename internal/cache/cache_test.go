// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cache

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/clue-search/pkg/types"
)

func parisResults() []types.SearchResult {
	return []types.SearchResult{
		{Title: "Paris", Description: "City in France", Rank: 1},
		{Title: "France", Description: "Country in Europe", Rank: 2},
	}
}

// backends returns a fresh instance of every backend that runs without
// external services, plus postgres when CLUE_SEARCH_TEST_PG_DSN is set.
func backends(t *testing.T) map[string]Cache {
	t.Helper()
	dir := t.TempDir()

	sq, err := NewSQLite(filepath.Join(dir, "sqlite", "results.db"))
	require.NoError(t, err)
	yf, err := NewYAMLFile(filepath.Join(dir, "yaml", "results.yaml"))
	require.NoError(t, err)

	out := map[string]Cache{
		"memory": NewMemory(),
		"sqlite": sq,
		"yaml":   yf,
	}
	if dsn := os.Getenv("CLUE_SEARCH_TEST_PG_DSN"); dsn != "" {
		pg, err := NewPostgres(context.Background(), dsn)
		require.NoError(t, err)
		_, err = pg.pool.Exec(context.Background(), `TRUNCATE search_result_cache`)
		require.NoError(t, err)
		out["postgres"] = pg
	}
	for _, c := range out {
		t.Cleanup(func() { c.Close() })
	}
	return out
}

func TestCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, c := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, ok, err := c.Load(ctx, "Paris capital France")
			require.NoError(t, err)
			assert.False(t, ok, "unseen key must be absent")

			require.NoError(t, c.Save(ctx, "Paris capital France", parisResults()))

			got, ok, err := c.Load(ctx, "Paris capital France")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, parisResults(), got)
		})
	}
}

func TestCacheExactKeyMatch(t *testing.T) {
	ctx := context.Background()
	for name, c := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, c.Save(ctx, "Paris capital France", parisResults()))

			for _, q := range []string{"paris capital france", "Paris capital France ", "Paris  capital France"} {
				_, ok, err := c.Load(ctx, q)
				require.NoError(t, err)
				assert.False(t, ok, "query %q must not match", q)
			}
		})
	}
}

func TestCacheEmptyListIsPresent(t *testing.T) {
	ctx := context.Background()
	for name, c := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, c.Save(ctx, "nothing here", nil))

			got, ok, err := c.Load(ctx, "nothing here")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Empty(t, got)
		})
	}
}

func TestCacheOverwrite(t *testing.T) {
	ctx := context.Background()
	for name, c := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, c.Save(ctx, "q", parisResults()))
			replacement := []types.SearchResult{{Title: "Only", Description: "one", Rank: 1}}
			require.NoError(t, c.Save(ctx, "q", replacement))

			got, _, err := c.Load(ctx, "q")
			require.NoError(t, err)
			assert.Equal(t, replacement, got)
		})
	}
}

func TestCacheUnicodeAndEmptyStrings(t *testing.T) {
	ctx := context.Background()
	want := []types.SearchResult{
		{Title: "", Description: "", Rank: 1},
		{Title: "Zürich – 東京", Description: "naïve café\nline two", Rank: 2},
		{Title: "emoji 🚀", Description: "'quoted' \"text\": yes", Rank: 3},
	}
	for name, c := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, c.Save(ctx, "Zürich 東京", want))
			got, ok, err := c.Load(ctx, "Zürich 東京")
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, want, got)
		})
	}
}

func TestCachePreservesListOrder(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name    string
		results []types.SearchResult
	}{
		{"ranks out of order", []types.SearchResult{
			{Title: "second", Description: "b", Rank: 2},
			{Title: "first", Description: "a", Rank: 1},
		}},
		{"repeated ranks", []types.SearchResult{
			{Title: "a", Rank: 0},
			{Title: "b", Rank: 0},
			{Title: "c", Rank: 0},
		}},
	}
	for name, c := range backends(t) {
		for _, tt := range tests {
			t.Run(name+"/"+tt.name, func(t *testing.T) {
				require.NoError(t, c.Save(ctx, tt.name, tt.results))
				got, ok, err := c.Load(ctx, tt.name)
				require.NoError(t, err)
				require.True(t, ok)
				assert.Equal(t, tt.results, got)

				all, err := c.(Dumper).Dump(ctx)
				require.NoError(t, err)
				assert.Equal(t, tt.results, all[tt.name])
			})
		}
	}
}

func TestCacheNULInText(t *testing.T) {
	ctx := context.Background()
	want := []types.SearchResult{{Title: "nul\x00title", Description: "before\x00after", Rank: 1}}
	for name, c := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, c.Save(ctx, "nul", want))
			got, ok, err := c.Load(ctx, "nul")
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, want, got)
		})
	}
}

func TestCacheLoadReturnsCopy(t *testing.T) {
	ctx := context.Background()
	for name, c := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, c.Save(ctx, "q", parisResults()))
			got, _, err := c.Load(ctx, "q")
			require.NoError(t, err)
			got[0].Title = "mutated"

			again, _, err := c.Load(ctx, "q")
			require.NoError(t, err)
			assert.Equal(t, "Paris", again[0].Title)
		})
	}
}

func TestCacheConcurrentWriters(t *testing.T) {
	ctx := context.Background()
	for name, c := range backends(t) {
		t.Run(name, func(t *testing.T) {
			var wg sync.WaitGroup
			for i := range 8 {
				wg.Add(1)
				go func() {
					defer wg.Done()
					q := fmt.Sprintf("query %d", i%3)
					assert.NoError(t, c.Save(ctx, q, parisResults()))
					_, _, err := c.Load(ctx, q)
					assert.NoError(t, err)
				}()
			}
			wg.Wait()

			for i := range 3 {
				got, ok, err := c.Load(ctx, fmt.Sprintf("query %d", i))
				require.NoError(t, err)
				assert.True(t, ok)
				assert.Equal(t, parisResults(), got)
			}
		})
	}
}

func TestCacheDump(t *testing.T) {
	ctx := context.Background()
	for name, c := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, c.Save(ctx, "a", parisResults()))
			require.NoError(t, c.Save(ctx, "b", nil))

			d, ok := c.(Dumper)
			require.True(t, ok)
			all, err := d.Dump(ctx)
			require.NoError(t, err)
			assert.Equal(t, parisResults(), all["a"])
			assert.Contains(t, all, "b")
			assert.Empty(t, all["b"])
		})
	}
}

func TestSQLitePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "results.db")

	c, err := NewSQLite(path)
	require.NoError(t, err)
	require.NoError(t, c.Save(ctx, "Paris capital France", parisResults()))
	require.NoError(t, c.Close())

	c, err = NewSQLite(path)
	require.NoError(t, err)
	defer c.Close()

	got, ok, err := c.Load(ctx, "Paris capital France")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, parisResults(), got)
}

func TestSQLiteClosedIsUnavailable(t *testing.T) {
	c, err := NewSQLite(filepath.Join(t.TempDir(), "results.db"))
	require.NoError(t, err)
	require.NoError(t, c.Close())

	_, _, err = c.Load(context.Background(), "q")
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.ErrorIs(t, c.Save(context.Background(), "q", parisResults()), ErrUnavailable)
}

func TestYAMLFilePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "results.yaml")

	c, err := NewYAMLFile(path)
	require.NoError(t, err)
	require.NoError(t, c.Save(ctx, "Paris capital France", parisResults()))

	c, err = NewYAMLFile(path)
	require.NoError(t, err)
	got, ok, err := c.Load(ctx, "Paris capital France")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, parisResults(), got)
}

func TestYAMLFileFailedWriteLeavesMemoryUnchanged(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "snap")
	c, err := NewYAMLFile(filepath.Join(dir, "results.yaml"))
	require.NoError(t, err)
	require.NoError(t, c.Save(ctx, "kept", parisResults()))

	// A regular file where the snapshot directory should be fails every write.
	require.NoError(t, os.RemoveAll(dir))
	require.NoError(t, os.WriteFile(dir, []byte("not a directory"), 0o644))

	err = c.Save(ctx, "lost", parisResults())
	assert.ErrorIs(t, err, ErrUnavailable)

	_, ok, err := c.Load(ctx, "lost")
	require.NoError(t, err)
	assert.False(t, ok, "failed save must not reach memory")

	got, ok, err := c.Load(ctx, "kept")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, parisResults(), got)
}

func TestYAMLFileRejectsCorruptSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.yaml")
	require.NoError(t, os.WriteFile(path, []byte("entries: [unterminated"), 0o644))

	_, err := NewYAMLFile(path)
	assert.Error(t, err)
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		cfg     types.CacheConfig
		want    any
		wantErr bool
	}{
		{"default is sqlite", types.CacheConfig{Path: filepath.Join(dir, "a.db")}, &SQLite{}, false},
		{"sqlite", types.CacheConfig{Backend: types.CacheSQLite, Path: filepath.Join(dir, "b.db")}, &SQLite{}, false},
		{"yaml", types.CacheConfig{Backend: types.CacheYAML, Path: filepath.Join(dir, "c.yaml")}, &YAMLFile{}, false},
		{"memory", types.CacheConfig{Backend: types.CacheMemory}, &Memory{}, false},
		{"unknown", types.CacheConfig{Backend: "redis"}, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Open(context.Background(), tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			defer c.Close()
			assert.IsType(t, tt.want, c)
		})
	}
}
