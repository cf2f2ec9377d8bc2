// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fanout

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/pdiddy/clue-search/pkg/types"
)

const defaultLanguage = "en"

// Builder turns one search result, or none for the sentinel, into a
// self-contained unit. It performs no I/O.
type Builder struct {
	// Source is the provider's symbolic name.
	Source string

	// Origin identifies the search stage that produced the unit.
	Origin string

	// Clone copies the shared question context. Nil uses (*Question).Clone.
	Clone func(*types.Question) (*types.Question, error)

	// NewID returns a document identifier. Nil uses a random UUID.
	NewID func() string
}

// Build returns a unit carrying a private clone of q. A nil result yields
// the empty placeholder used by the sentinel.
func (b Builder) Build(q *types.Question, result *types.SearchResult, seq, isLast int) (*types.ResultUnit, error) {
	clone := b.Clone
	if clone == nil {
		clone = (*types.Question).Clone
	}
	qc, err := clone(q)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCloneFailed, err)
	}

	u := &types.ResultUnit{Question: qc, Seq: seq}
	u.Result = types.ResultInfo{
		DocumentLanguage: qc.Language,
		Source:           b.Source,
		Origin:           b.Origin,
		IsLast:           isLast,
	}
	if result == nil {
		return u, nil
	}

	newID := b.NewID
	if newID == nil {
		newID = uuid.NewString
	}
	if u.Result.DocumentLanguage == "" {
		u.Result.DocumentLanguage = defaultLanguage
	}
	u.Result.DocumentID = newID()
	u.Result.DocumentText = result.Description
	u.Result.DocumentTitle = result.Title
	u.Result.Features.Set(types.FeatureResultRR, result.ReciprocalRank())
	return u, nil
}
