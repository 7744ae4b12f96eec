// Package weights provides validated, immutable weight snapshots.
//
// A Snapshot fixes the per-criterion weights for one scoring run. Every
// evaluation record stores the exact snapshot it was computed with, so a
// historical score stays reproducible even after the active profile
// changes. There is no mutable process-wide weight state; callers thread
// a Snapshot explicitly through every scoring call.
package weights

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/BhoomiAgrawal12/ppt-Evaluator/internal/domain/criteria"
)

// sumTolerance bounds the allowed drift of the weight-magnitude sum
// from 1.0. It absorbs binary representation error of decimal profiles
// without admitting real misconfiguration.
const sumTolerance = 1e-9

// Snapshot is an immutable weight assignment covering the full criterion
// set. The zero value is invalid; construct via New, Parse or Default.
type Snapshot struct {
	values map[criteria.Criterion]float64
}

// New validates values and returns a Snapshot. It fails when a criterion
// is missing or unknown, any weight is negative (the penalty is given as
// a non-negative magnitude), or the weight magnitudes do not sum to 1.0
// within tolerance. The input map is copied.
func New(values map[criteria.Criterion]float64) (Snapshot, error) {
	for c := range values {
		if !c.Valid() {
			return Snapshot{}, fmt.Errorf("%w: unknown criterion %q", ErrInvalidWeights, c)
		}
	}

	sum := 0.0
	out := make(map[criteria.Criterion]float64, criteria.Count())
	for _, c := range criteria.All() {
		w, ok := values[c]
		if !ok {
			return Snapshot{}, fmt.Errorf("%w: missing criterion %q", ErrInvalidWeights, c)
		}
		if math.IsNaN(w) || math.IsInf(w, 0) {
			return Snapshot{}, fmt.Errorf("%w: non-finite weight for %q", ErrInvalidWeights, c)
		}
		if w < 0 {
			return Snapshot{}, fmt.Errorf("%w: negative weight %v for %q", ErrInvalidWeights, w, c)
		}
		sum += w
		out[c] = w
	}

	if math.Abs(sum-1.0) > sumTolerance {
		return Snapshot{}, fmt.Errorf("%w: weight magnitudes sum to %v, want 1.0", ErrInvalidWeights, sum)
	}

	return Snapshot{values: out}, nil
}

// Parse builds a Snapshot from string-keyed weights, e.g. from
// configuration, rejecting unknown tags before validation.
func Parse(values map[string]float64) (Snapshot, error) {
	typed := make(map[criteria.Criterion]float64, len(values))
	for tag, w := range values {
		c, err := criteria.Parse(tag)
		if err != nil {
			return Snapshot{}, fmt.Errorf("%w: %v", ErrInvalidWeights, err)
		}
		typed[c] = w
	}
	return New(typed)
}

// Default returns the stock weight profile.
func Default() Snapshot {
	s, err := New(map[criteria.Criterion]float64{
		criteria.PSSimilarity:   0.25,
		criteria.Feasibility:    0.20,
		criteria.Attractiveness: 0.15,
		criteria.ImageAnalysis:  0.15,
		criteria.LinkAnalysis:   0.10,
		criteria.LLMPenalty:     0.15,
	})
	if err != nil {
		panic(err)
	}
	return s
}

// Weight returns the weight assigned to c, or 0 for an unknown criterion.
func (s Snapshot) Weight(c criteria.Criterion) float64 {
	return s.values[c]
}

// Penalty returns the magnitude subtracted per unit of the penalty
// criterion's normalized value.
func (s Snapshot) Penalty() float64 {
	return s.values[criteria.LLMPenalty]
}

// Values returns a copy of the weight assignment.
func (s Snapshot) Values() map[criteria.Criterion]float64 {
	out := make(map[criteria.Criterion]float64, len(s.values))
	for c, w := range s.values {
		out[c] = w
	}
	return out
}

// IsZero reports whether the snapshot was never constructed. A zero
// snapshot must not be used for scoring.
func (s Snapshot) IsZero() bool {
	return s.values == nil
}

// MarshalJSON encodes the snapshot as a flat tag-to-weight object.
func (s Snapshot) MarshalJSON() ([]byte, error) {
	flat := make(map[string]float64, len(s.values))
	for c, w := range s.values {
		flat[c.String()] = w
	}
	b, err := json.Marshal(flat)
	if err != nil {
		return nil, fmt.Errorf("marshal weights: %w", err)
	}
	return b, nil
}

// UnmarshalJSON decodes and re-validates a snapshot, so weights loaded
// from storage or a request body carry the same guarantees as ones built
// through New.
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	var flat map[string]float64
	if err := json.Unmarshal(data, &flat); err != nil {
		return fmt.Errorf("unmarshal weights: %w", err)
	}
	parsed, err := Parse(flat)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
