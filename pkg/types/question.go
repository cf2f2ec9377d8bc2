// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"errors"
	"maps"
	"slices"
)

// ErrNilQuestion is returned when a nil question context is cloned.
var ErrNilQuestion = errors.New("question context is nil")

// Clue is a keyword or phrase contributed by question analysis.
type Clue struct {
	// Label is the clue text used to build the search query.
	Label string `json:"label" yaml:"label"`

	// Weight is the analysis weight of the clue. Advisory only.
	Weight float64 `json:"weight,omitempty" yaml:"weight,omitempty"`
}

// Question is the shared question context. The stage never mutates it;
// every emitted unit carries its own copy made by Clone.
type Question struct {
	// ID identifies the question across pipeline stages.
	ID string `json:"id" yaml:"id"`

	// Text is the original question text.
	Text string `json:"text" yaml:"text"`

	// Language is the document language tag (e.g. "en").
	Language string `json:"language" yaml:"language"`

	// Clues lists the clues in the order question analysis supplied them.
	Clues []Clue `json:"clues" yaml:"clues"`

	// Annotations holds free-form string metadata set by earlier stages.
	Annotations map[string]string `json:"annotations,omitempty" yaml:"annotations,omitempty"`

	// Features holds question-level feature values set by earlier stages.
	Features FeatureVector `json:"features,omitempty" yaml:"features,omitempty"`
}

// ClueLabels returns the clue labels in order.
func (q *Question) ClueLabels() []string {
	labels := make([]string, 0, len(q.Clues))
	for _, c := range q.Clues {
		labels = append(labels, c.Label)
	}
	return labels
}

// Clone returns a deep copy of q. Slices and maps are copied so that
// changes to the clone never reach q or any other clone.
func (q *Question) Clone() (*Question, error) {
	if q == nil {
		return nil, ErrNilQuestion
	}
	c := *q
	c.Clues = slices.Clone(q.Clues)
	c.Annotations = maps.Clone(q.Annotations)
	c.Features = q.Features.Clone()
	return &c, nil
}
