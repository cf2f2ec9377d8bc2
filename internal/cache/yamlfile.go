// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cache

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/clue-search/pkg/types"
)

var _ Cache = (*YAMLFile)(nil)

// Snapshot is the on-disk form of a YAML cache file and of a cache export.
type Snapshot struct {
	Entries   []SnapshotEntry `yaml:"entries"`
	Timestamp time.Time       `yaml:"timestamp"`
}

// SnapshotEntry is one query and its ordered results.
type SnapshotEntry struct {
	Query   string               `yaml:"query"`
	Results []types.SearchResult `yaml:"results"`
}

// YAMLFile keeps the cache in memory and rewrites a YAML snapshot on every
// save. It suits small, hand-inspectable caches.
type YAMLFile struct {
	path string

	mu  sync.Mutex
	mem *Memory
}

// NewYAMLFile loads the snapshot at path, or starts empty when the file
// does not exist yet.
func NewYAMLFile(path string) (*YAMLFile, error) {
	f := &YAMLFile{path: path, mem: NewMemory()}

	snap, err := ReadSnapshot(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	if snap != nil {
		for _, e := range snap.Entries {
			f.mem.entries[e.Query] = cloneResults(e.Results)
		}
	}
	return f, nil
}

func (f *YAMLFile) Load(ctx context.Context, query string) ([]types.SearchResult, bool, error) {
	return f.mem.Load(ctx, query)
}

// Save writes the snapshot with the new entry first and only then updates
// memory, so a failed write leaves both holding the previous contents.
func (f *YAMLFile) Save(ctx context.Context, query string, results []types.SearchResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	all, err := f.mem.Dump(ctx)
	if err != nil {
		return err
	}
	all[query] = cloneResults(results)
	if err := WriteSnapshot(f.path, all); err != nil {
		return unavailable("saving", query, err)
	}
	return f.mem.Save(ctx, query, results)
}

func (f *YAMLFile) Dump(ctx context.Context) (map[string][]types.SearchResult, error) {
	return f.mem.Dump(ctx)
}

func (f *YAMLFile) Close() error { return nil }

// WriteSnapshot writes entries to path as YAML, sorted by query. The file
// is replaced atomically through a temporary file in the same directory.
func WriteSnapshot(path string, entries map[string][]types.SearchResult) error {
	snap := Snapshot{Timestamp: time.Now().UTC()}
	for q, res := range entries {
		snap.Entries = append(snap.Entries, SnapshotEntry{Query: q, Results: cloneResults(res)})
	}
	sort.Slice(snap.Entries, func(i, j int) bool {
		return snap.Entries[i].Query < snap.Entries[j].Query
	})

	data, err := yaml.Marshal(&snap)
	if err != nil {
		return fmt.Errorf("marshaling cache snapshot: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating snapshot directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".snapshot-*.yaml")
	if err != nil {
		return fmt.Errorf("creating temporary snapshot: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing snapshot: %w", err)
	}
	return os.Rename(tmp.Name(), path)
}

// ReadSnapshot loads a snapshot written by WriteSnapshot. A missing file
// returns an error satisfying os.IsNotExist.
func ReadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var snap Snapshot
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("parsing cache snapshot %s: %w", path, err)
	}
	return &snap, nil
}
