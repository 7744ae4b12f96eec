// Package normalize rescales native-scale sub-scores into [0,1].
//
// Each sub-evaluator reports on its own scale: semantic similarity is a
// cosine in [-1,1], the originality detector emits a probability, link
// quality is already a fraction. A per-criterion strategy maps each raw
// value onto the canonical range. A missing or out-of-range value never
// aborts the run; it normalizes to 0 and flags the record degraded while
// the remaining criteria proceed untouched.
package normalize

import (
	"fmt"
	"math"

	"github.com/BhoomiAgrawal12/ppt-Evaluator/internal/domain/criteria"
	"github.com/BhoomiAgrawal12/ppt-Evaluator/internal/domain/model"
)

// Kind names a normalization strategy.
type Kind string

// Supported strategy kinds.
const (
	// Linear rescales [Min,Max] onto [0,1] and rejects values outside
	// the native domain as out-of-range.
	Linear Kind = "linear"
	// Clamp rescales like Linear but accepts any finite value, clamping
	// the result into [0,1].
	Clamp Kind = "clamp"
	// Logistic squashes an unbounded scale into (0,1) with a monotone
	// sigmoid around Midpoint.
	Logistic Kind = "logistic"
)

// Strategy configures how one criterion's raw value reaches [0,1].
// Min/Max bound the native domain for Linear and Clamp; Midpoint and
// Steepness shape the Logistic curve.
type Strategy struct {
	Kind      Kind    `yaml:"strategy" json:"strategy" validate:"required,oneof=linear clamp logistic"`
	Min       float64 `yaml:"min" json:"min"`
	Max       float64 `yaml:"max" json:"max"`
	Midpoint  float64 `yaml:"midpoint" json:"midpoint"`
	Steepness float64 `yaml:"steepness" json:"steepness"`
}

// Validate checks the strategy parameters.
func (s Strategy) Validate() error {
	switch s.Kind {
	case Linear, Clamp:
		if s.Max <= s.Min {
			return fmt.Errorf("%w: %s requires max > min (got [%v,%v])", ErrInvalidStrategy, s.Kind, s.Min, s.Max)
		}
	case Logistic:
		if s.Steepness <= 0 {
			return fmt.Errorf("%w: logistic requires steepness > 0 (got %v)", ErrInvalidStrategy, s.Steepness)
		}
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidStrategy, s.Kind)
	}
	return nil
}

// Apply maps a raw value onto [0,1]. The second return is false when the
// value is out-of-range for this strategy: always for non-finite input,
// and for Linear also when the value leaves the native domain.
func (s Strategy) Apply(v float64) (float64, bool) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	switch s.Kind {
	case Linear:
		if v < s.Min || v > s.Max {
			return 0, false
		}
		return (v - s.Min) / (s.Max - s.Min), true
	case Clamp:
		return clamp01((v - s.Min) / (s.Max - s.Min)), true
	case Logistic:
		return 1 / (1 + math.Exp(-s.Steepness*(v-s.Midpoint))), true
	default:
		return 0, false
	}
}

// Normalizer applies a full per-criterion strategy table.
type Normalizer struct {
	strategies map[criteria.Criterion]Strategy
}

// New builds a Normalizer. The table must cover every criterion of the
// closed set with a valid strategy.
func New(strategies map[criteria.Criterion]Strategy) (*Normalizer, error) {
	table := make(map[criteria.Criterion]Strategy, criteria.Count())
	for c, s := range strategies {
		if !c.Valid() {
			return nil, fmt.Errorf("%w: unknown criterion %q", ErrInvalidStrategy, c)
		}
		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("criterion %q: %w", c, err)
		}
		table[c] = s
	}
	for _, c := range criteria.All() {
		if _, ok := table[c]; !ok {
			return nil, fmt.Errorf("%w: no strategy for criterion %q", ErrInvalidStrategy, c)
		}
	}
	return &Normalizer{strategies: table}, nil
}

// DefaultStrategies returns the stock strategy table: the similarity
// cosine rescaled strictly from [-1,1], everything else clamped from a
// probability-like [0,1] scale.
func DefaultStrategies() map[criteria.Criterion]Strategy {
	table := make(map[criteria.Criterion]Strategy, criteria.Count())
	for _, c := range criteria.All() {
		table[c] = Strategy{Kind: Clamp, Min: 0, Max: 1}
	}
	table[criteria.PSSimilarity] = Strategy{Kind: Linear, Min: -1, Max: 1}
	return table
}

// Normalize maps a raw vector onto the canonical range. The returned
// vector always covers the full criterion set. The boolean reports
// whether any criterion was missing or out-of-range and therefore
// defaulted to 0 (the degraded flag of the resulting record).
func (n *Normalizer) Normalize(raw model.RawScoreVector) (model.NormalizedVector, bool) {
	out := make(model.NormalizedVector, criteria.Count())
	degraded := false
	for _, c := range criteria.All() {
		rs, ok := raw[c]
		if !ok || !rs.Valid {
			out[c] = 0
			degraded = true
			continue
		}
		v, inRange := n.strategies[c].Apply(rs.Value)
		if !inRange {
			out[c] = 0
			degraded = true
			continue
		}
		out[c] = v
	}
	return out, degraded
}

// Strategy returns the configured strategy for c.
func (n *Normalizer) Strategy(c criteria.Criterion) Strategy {
	return n.strategies[c]
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
