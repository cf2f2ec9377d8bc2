// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "maps"

// FeatureResultRR is the reciprocal-rank relevance feature of a result.
const FeatureResultRR = "ResultRR"

// FeatureVector maps feature names to values.
type FeatureVector map[string]float64

// Set assigns a feature value, allocating the map on first use.
func (fv *FeatureVector) Set(name string, value float64) {
	if *fv == nil {
		*fv = make(FeatureVector)
	}
	(*fv)[name] = value
}

// Clone returns an independent copy; nil stays nil.
func (fv FeatureVector) Clone() FeatureVector {
	return maps.Clone(fv)
}

// ResultInfo is the result sub-context of a unit. For the terminal sentinel
// every text field is empty and Features is nil.
type ResultInfo struct {
	// DocumentID identifies the result document; empty for the sentinel.
	DocumentID string `json:"document_id" yaml:"document_id"`

	// DocumentText is the result description.
	DocumentText string `json:"document_text" yaml:"document_text"`

	// DocumentLanguage is inherited from the question context.
	DocumentLanguage string `json:"document_language" yaml:"document_language"`

	// DocumentTitle is the result title.
	DocumentTitle string `json:"document_title" yaml:"document_title"`

	// Source is the provider's symbolic name (e.g. "bing").
	Source string `json:"source" yaml:"source"`

	// Origin distinguishes which search stage produced the unit.
	Origin string `json:"origin" yaml:"origin"`

	// Features carries the reciprocal-rank feature for populated units.
	Features FeatureVector `json:"features,omitempty" yaml:"features,omitempty"`

	// IsLast is zero on every unit except the one that ends the sequence,
	// where it holds the number of units produced.
	IsLast int `json:"is_last" yaml:"is_last"`
}

// ResultUnit is one self-contained downstream artifact. The consumer owns
// it entirely once it is returned by the generator.
type ResultUnit struct {
	// Question is a private clone of the shared question context.
	Question *Question `json:"question" yaml:"question"`

	// Result is the populated or placeholder result sub-context.
	Result ResultInfo `json:"result" yaml:"result"`

	// Seq is the zero-based position of the unit in its sequence.
	Seq int `json:"seq" yaml:"seq"`
}

// Last reports whether the unit ends its sequence.
func (u *ResultUnit) Last() bool { return u.Result.IsLast != 0 }

// Sentinel reports whether the unit is the empty placeholder emitted for a
// query with no results.
func (u *ResultUnit) Sentinel() bool { return u.Result.DocumentID == "" }
