// Package criteria defines the closed set of evaluation criteria.
//
// Every presentation is scored on the same six dimensions. The set is
// fixed at compile time; adding a criterion is a source change, not a
// runtime choice, so that weight profiles, normalization tables and the
// export column contract stay in lockstep.
package criteria

import "fmt"

// Criterion identifies one evaluation dimension.
type Criterion string

// The closed criterion set, in canonical order.
const (
	PSSimilarity   Criterion = "ps_similarity"  // alignment with the problem statement
	Feasibility    Criterion = "feasibility"    // technical feasibility of the proposal
	Attractiveness Criterion = "attractiveness" // visual design quality
	ImageAnalysis  Criterion = "image_analysis" // diagram and image quality
	LinkAnalysis   Criterion = "link_analysis"  // supporting link quality
	LLMPenalty     Criterion = "llm_penalty"    // AI-generated-content likelihood (penalty)
)

// all holds the canonical ordering used for iteration, reports and the
// CSV column contract.
var all = []Criterion{
	PSSimilarity,
	Feasibility,
	Attractiveness,
	ImageAnalysis,
	LinkAnalysis,
	LLMPenalty,
}

// All returns the criteria in canonical order. The slice is a copy.
func All() []Criterion {
	out := make([]Criterion, len(all))
	copy(out, all)
	return out
}

// Count is the number of criteria in the closed set.
func Count() int {
	return len(all)
}

// Parse converts a tag into a Criterion, rejecting unknown tags.
func Parse(s string) (Criterion, error) {
	c := Criterion(s)
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownCriterion, s)
	}
	return c, nil
}

// String returns the criterion tag.
func (c Criterion) String() string {
	return string(c)
}

// Valid reports whether c belongs to the closed set.
func (c Criterion) Valid() bool {
	switch c {
	case PSSimilarity, Feasibility, Attractiveness, ImageAnalysis, LinkAnalysis, LLMPenalty:
		return true
	default:
		return false
	}
}

// IsPenalty reports whether c is the penalty criterion. The penalty
// weight is subtracted from the composite score instead of added, and a
// high normalized value counts against the submission.
func (c Criterion) IsPenalty() bool {
	return c == LLMPenalty
}
