package weave

import "math"

// Diagnostics reports coverage warnings accumulated during a weave call.
// None of these conditions abort the weave; they are returned alongside
// the output graph so partial-coverage diagrams stay auditable.
type Diagnostics struct {
	// UnmatchedCount and UnmatchedValue describe flow records no bundle
	// covered. Unmatched records appear in no output link.
	UnmatchedCount int     `json:"unmatched_count"`
	UnmatchedValue float64 `json:"unmatched_value"`

	// EmptySelectors lists placed nodes whose selector resolved to zero
	// processes, in ordering position.
	EmptySelectors []string `json:"empty_selectors,omitempty"`

	// OtherHits counts classifications that fell into an implicit
	// catch-all bucket, across node and flow partitions.
	OtherHits int `json:"other_hits,omitempty"`

	// InputValue is the dataset's total flow value; RoutedValue is the
	// total value of matched records, each counted once regardless of
	// path length. InputValue = RoutedValue + UnmatchedValue always.
	InputValue  float64 `json:"input_value"`
	RoutedValue float64 `json:"routed_value"`
}

// Conserved reports whether routed plus unmatched value accounts for the
// full input within tol.
func (d Diagnostics) Conserved(tol float64) bool {
	return math.Abs(d.InputValue-d.RoutedValue-d.UnmatchedValue) <= tol
}

// HasWarnings reports whether any coverage condition occurred.
func (d Diagnostics) HasWarnings() bool {
	return d.UnmatchedCount > 0 || len(d.EmptySelectors) > 0 || d.OtherHits > 0
}
