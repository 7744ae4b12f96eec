// Package scoring defines the contract for folding a normalized
// criterion vector into the final composite verdict.
package scoring

import (
	"context"
	"fmt"
	"math"

	"github.com/BhoomiAgrawal12/ppt-Evaluator/internal/domain/criteria"
	"github.com/BhoomiAgrawal12/ppt-Evaluator/internal/domain/model"
	"github.com/BhoomiAgrawal12/ppt-Evaluator/internal/domain/weights"
)

// Option applies a configuration option to the CompositeScorer.
type Option func(*CompositeScorer)

// WithRules replaces the stock rule set. Invalid rules are ignored so a
// half-built Rules literal cannot silently break grading.
func WithRules(r Rules) Option {
	return func(s *CompositeScorer) {
		if err := r.Validate(); err == nil {
			s.rules = r
		}
	}
}

// Input carries the scoring-relevant slice of a submission.
type Input struct {
	Normalized model.NormalizedVector
	Weights    weights.Snapshot
}

// Outcome is the computed composite verdict for one submission.
type Outcome struct {
	// Total is the raw weighted sum minus the penalty term. It may
	// leave [0,1] when the penalty outweighs the earned score.
	Total float64
	// Normalized is Total clamped into [0,1].
	Normalized float64
	// Percentage is Normalized scaled onto [0,100].
	Percentage float64
	Grade      string
	// Strengths and Weaknesses list criterion tags in canonical order.
	Strengths  []string
	Weaknesses []string
	// Recommendations holds the advice text for each weakness, in the
	// same order.
	Recommendations []string
}

// Scorer computes a composite verdict from a normalized vector.
type Scorer interface {
	// Score computes a verdict, honoring ctx for cancellation. The
	// function is pure: equal inputs always yield equal outcomes.
	Score(ctx context.Context, in Input) (Outcome, error)
}

// CompositeScorer implements Scorer as a weighted sum over the
// non-penalty criteria with the originality penalty subtracted.
type CompositeScorer struct {
	rules Rules
}

// NewCompositeScorer creates a scorer with configuration options.
func NewCompositeScorer(opts ...Option) *CompositeScorer {
	s := &CompositeScorer{
		rules: DefaultRules(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Score computes the verdict for the given input. Criteria absent from
// the vector contribute 0, matching how normalization fills gaps.
func (s *CompositeScorer) Score(ctx context.Context, in Input) (Outcome, error) {
	if err := ctx.Err(); err != nil {
		return Outcome{}, fmt.Errorf("context cancelled: %w", err)
	}
	if in.Weights.IsZero() {
		return Outcome{}, ErrMissingWeights
	}

	var total float64
	for _, c := range criteria.All() {
		term := in.Weights.Weight(c) * in.Normalized[c]
		if c.IsPenalty() {
			total -= term
			continue
		}
		total += term
	}

	normalized := math.Max(0, math.Min(1, total))
	percentage := normalized * 100

	var strengths, weaknesses, recommendations []string
	for _, c := range criteria.All() {
		strong, weak := s.classify(c, in.Normalized[c])
		if strong {
			strengths = append(strengths, c.String())
		}
		if weak {
			weaknesses = append(weaknesses, c.String())
			if advice, ok := s.rules.RecommendationFor(c); ok {
				recommendations = append(recommendations, advice)
			}
		}
	}

	return Outcome{
		Total:           total,
		Normalized:      normalized,
		Percentage:      percentage,
		Grade:           s.rules.GradeFor(percentage),
		Strengths:       strengths,
		Weaknesses:      weaknesses,
		Recommendations: recommendations,
	}, nil
}

// Rules returns the active rule set.
func (s *CompositeScorer) Rules() Rules {
	return s.rules
}

// classify decides strength and weakness for one criterion. The
// originality penalty inverts: a low normalized penalty means original
// work, a high one means heavy generated content.
func (s *CompositeScorer) classify(c criteria.Criterion, n float64) (strong, weak bool) {
	if c.IsPenalty() {
		return n < s.rules.PenaltyStrengthMax, n > s.rules.PenaltyWeaknessMin
	}
	return n > s.rules.StrengthThreshold, n < s.rules.WeaknessThreshold
}
