// Package model contains domain models passed between layers.
package model

import (
	"time"

	"github.com/BhoomiAgrawal12/ppt-Evaluator/internal/domain/criteria"
	"github.com/BhoomiAgrawal12/ppt-Evaluator/internal/domain/weights"
)

// RawScore is one sub-evaluator's native-scale output for a criterion.
// Valid is false when the sub-evaluator failed to report; such entries
// normalize to 0 and mark the record degraded. Metadata is opaque to the
// core and stored untouched.
type RawScore struct {
	Value    float64        `json:"value"`
	Valid    bool           `json:"valid"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// RawScoreVector maps each criterion to its raw sub-score. A criterion
// absent from the map is treated the same as Valid:false.
type RawScoreVector map[criteria.Criterion]RawScore

// Clone copies the vector. Metadata maps are copied one level deep.
func (v RawScoreVector) Clone() RawScoreVector {
	if v == nil {
		return nil
	}
	out := make(RawScoreVector, len(v))
	for c, rs := range v {
		if rs.Metadata != nil {
			meta := make(map[string]any, len(rs.Metadata))
			for k, val := range rs.Metadata {
				meta[k] = val
			}
			rs.Metadata = meta
		}
		out[c] = rs
	}
	return out
}

// NormalizedVector maps each criterion to its canonical [0,1] score.
type NormalizedVector map[criteria.Criterion]float64

// Clone copies the vector.
func (v NormalizedVector) Clone() NormalizedVector {
	if v == nil {
		return nil
	}
	out := make(NormalizedVector, len(v))
	for c, n := range v {
		out[c] = n
	}
	return out
}

// Submission is an evaluation request before scoring. ID and TS may be
// empty; the service fills them at submit time. Weights, when nil, falls
// back to the service default snapshot.
type Submission struct {
	ID                 string
	TeamName           string
	ProblemStatementID string
	TS                 time.Time
	Raw                RawScoreVector
	Weights            *weights.Snapshot
}

// EvaluationRecord is the committed, write-once result of scoring one
// submission. Corrections are expressed as new records, never updates.
// The weight snapshot is the exact profile the scores were computed
// with, kept so the record stays reproducible.
type EvaluationRecord struct {
	ID                 string           `json:"id"`
	TeamName           string           `json:"team_name"`
	ProblemStatementID string           `json:"problem_statement_id"`
	Timestamp          time.Time        `json:"timestamp"`
	Raw                RawScoreVector   `json:"raw_scores"`
	Normalized         NormalizedVector `json:"normalized_scores"`
	Weights            weights.Snapshot `json:"weights"`
	TotalScore         float64          `json:"total_score"`
	NormalizedScore    float64          `json:"normalized_score"`
	PercentageScore    float64          `json:"percentage_score"`
	Grade              string           `json:"grade"`
	Strengths          []string         `json:"strengths"`
	Weaknesses         []string         `json:"weaknesses"`
	Recommendations    []string         `json:"recommendations"`
	Degraded           bool             `json:"degraded"`
}

// Clone deep-copies the record. Stores hand out clones so a committed
// record cannot be mutated through a reader's reference.
func (r EvaluationRecord) Clone() EvaluationRecord {
	out := r
	out.Raw = r.Raw.Clone()
	out.Normalized = r.Normalized.Clone()
	out.Strengths = cloneStrings(r.Strengths)
	out.Weaknesses = cloneStrings(r.Weaknesses)
	out.Recommendations = cloneStrings(r.Recommendations)
	return out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
