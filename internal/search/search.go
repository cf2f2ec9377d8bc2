// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search turns a question's clues into one query string, fetches
// ranked web results for it and keeps them in the result cache so that a
// distinct query reaches the provider at most once.
package search

import (
	"context"
	"errors"
	"strings"

	"github.com/pdiddy/clue-search/pkg/types"
)

// ErrRemote wraps every network, authentication and decode failure from
// a provider. The fetcher recovers from it; it never reaches the host.
var ErrRemote = errors.New("remote search failed")

// Provider fetches ranked results from a remote web search API.
type Provider interface {
	// Name is the provider's symbolic name, used as the unit source tag.
	Name() string

	// Fetch returns results in provider order with Rank set 1..N. desired
	// is a hint only. On failure it returns an error wrapping ErrRemote and
	// no results.
	Fetch(ctx context.Context, query string, desired int) ([]types.SearchResult, error)
}

// BuildQuery joins the clue labels with single spaces, in the order given.
// Labels are used verbatim: no case folding, trimming or de-duplication.
func BuildQuery(clues []types.Clue) string {
	var b strings.Builder
	for i, c := range clues {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(c.Label)
	}
	return b.String()
}
