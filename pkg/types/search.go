// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the clue-search stage.
// Covers the question context handed in by the host pipeline (Question, Clue),
// the provider results kept in the cache (SearchResult), and the units the
// stage emits downstream (ResultUnit, ResultInfo).
package types

// SearchResult is one hit returned by the web search provider. Rank is
// assigned 1..N in provider response order and is never re-sorted.
type SearchResult struct {
	// Title is the page title as returned by the provider.
	Title string `json:"title" yaml:"title"`

	// Description is the provider snippet; it becomes the unit's document text.
	Description string `json:"description" yaml:"description"`

	// Rank is the 1-based position in the provider response.
	Rank int `json:"rank" yaml:"rank"`
}

// ReciprocalRank returns 1/Rank, or 0 for an unranked result.
func (r SearchResult) ReciprocalRank() float64 {
	if r.Rank < 1 {
		return 0
	}
	return 1 / float64(r.Rank)
}

// RankResults assigns ranks 1..N in slice order, in place, and returns the
// same slice.
func RankResults(results []SearchResult) []SearchResult {
	for i := range results {
		results[i].Rank = i + 1
	}
	return results
}
