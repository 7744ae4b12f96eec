package testevals

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/BhoomiAgrawal12/ppt-Evaluator/pkg/logger"
)

// Constants for random number generation.
const (
	randomFloatDivisor = 1000000
)

// Constants for submission cases. Indices cycle through the cases so
// every cohort receives strong entries, weak entries, degraded records
// and exact score ties.
const (
	caseStrongContender = 0
	caseMidPack         = 1
	caseWeakEntry       = 2
	caseAlignedOnly     = 3
	caseDegraded        = 4
	caseHeavyPenalty    = 5
	caseNearPerfect     = 6
	caseScoreTie        = 7
	caseCount           = 8
)

// The service's scoring dimensions in canonical order.
const numCriteria = 6

var criterionTags = [numCriteria]string{
	"ps_similarity",
	"feasibility",
	"attractiveness",
	"image_analysis",
	"link_analysis",
	"llm_penalty",
}

// scoreRange bounds one criterion's random draw.
type scoreRange struct {
	lo, hi float64
}

// profileRanges bounds the draws for each generation case, in canonical
// criterion order: ps_similarity is a cosine in [-1,1], the remaining
// criteria are fractions in [0,1].
var profileRanges = [caseScoreTie][numCriteria]scoreRange{
	caseStrongContender: {{0.5, 0.9}, {0.7, 0.95}, {0.7, 0.95}, {0.65, 0.9}, {0.6, 0.9}, {0.0, 0.2}},
	caseMidPack:         {{-0.1, 0.5}, {0.4, 0.7}, {0.35, 0.65}, {0.3, 0.6}, {0.3, 0.6}, {0.1, 0.4}},
	caseWeakEntry:       {{-0.6, 0.1}, {0.1, 0.4}, {0.1, 0.35}, {0.05, 0.3}, {0.0, 0.3}, {0.2, 0.5}},
	caseAlignedOnly:     {{0.6, 0.95}, {0.55, 0.8}, {0.05, 0.3}, {0.05, 0.3}, {0.1, 0.4}, {0.1, 0.3}},
	caseDegraded:        {{-0.2, 0.6}, {0.3, 0.7}, {0.3, 0.7}, {0, 0}, {0, 0}, {0.1, 0.4}},
	caseHeavyPenalty:    {{0.3, 0.8}, {0.5, 0.85}, {0.5, 0.85}, {0.4, 0.8}, {0.4, 0.8}, {0.7, 1.0}},
	caseNearPerfect:     {{0.85, 1.0}, {0.9, 1.0}, {0.9, 1.0}, {0.88, 1.0}, {0.85, 1.0}, {0.0, 0.05}},
}

// getRandomFloat returns a random float64 between 0.0 and 1.0 using crypto/rand.
func getRandomFloat() float64 {
	n, _ := rand.Int(rand.Reader, big.NewInt(randomFloatDivisor))
	return float64(n.Int64()) / float64(randomFloatDivisor)
}

// generateSubmissions creates the specified number of submissions with
// unique ids, spread across the configured teams and problem statements.
func generateSubmissions(ctx context.Context, config *Config, stats *Stats) ([]Submission, error) {
	logger.Get().Info(ctx, "generating submissions",
		logger.Int("numEvals", config.NumEvals),
		logger.Int("teams", config.Teams),
		logger.Int("problems", config.Problems))

	evals := make([]Submission, config.NumEvals)

	// Timestamps count up from a fixed base so every submission carries
	// a distinct, ordered ts and tie-breaks are deterministic.
	base := time.Now().UTC().Add(-time.Duration(config.NumEvals) * time.Second)

	workerCount := minInt(config.Workers, config.NumEvals)
	if workerCount < 1 {
		workerCount = 1
	}
	evalsPerWorker := config.NumEvals / workerCount

	g, gctx := errgroup.WithContext(ctx)
	for worker := 0; worker < workerCount; worker++ {
		start := worker * evalsPerWorker
		end := start + evalsPerWorker
		if worker == workerCount-1 {
			end = config.NumEvals // Last worker gets the remainder
		}

		g.Go(func() error {
			for i := start; i < end; i++ {
				select {
				case <-gctx.Done():
					return gctx.Err()
				default:
				}
				evals[i] = generateSingleSubmission(i, start, base, config, evals)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("context cancelled during submission generation: %w", err)
	}

	stats.EvalsGenerated = len(evals)
	logger.Get().Info(ctx, "generated submissions successfully", logger.Int("count", len(evals)))

	return evals, nil
}

// generateSingleSubmission builds the submission at index i. Workers
// fill disjoint index ranges of evals, so reading evals[i-1] is safe
// whenever i-1 falls inside the caller's own range.
func generateSingleSubmission(i, rangeStart int, base time.Time, config *Config, evals []Submission) Submission {
	sub := Submission{
		ID:                 uuid.New().String(),
		TeamName:           fmt.Sprintf("team-%03d", i%config.Teams),
		ProblemStatementID: fmt.Sprintf("ps-%02d", i%config.Problems),
		TS:                 base.Add(time.Duration(i) * time.Second).Format(time.RFC3339),
	}

	// The tie case clones the previous submission's scores into the same
	// cohort so rankings exercise the timestamp tie-break. The first
	// index of a worker's range has no predecessor and draws fresh
	// scores instead.
	if i%caseCount == caseScoreTie && i > rangeStart {
		prev := evals[i-1]
		sub.ProblemStatementID = prev.ProblemStatementID
		sub.Scores = cloneScores(prev.Scores)
		return sub
	}

	sub.Scores = generateVariedScores(i % caseCount)
	return sub
}

// generateVariedScores draws one raw score vector for the given case.
func generateVariedScores(scoreCase int) []Score {
	if scoreCase >= caseScoreTie {
		scoreCase = caseNearPerfect
	}
	ranges := profileRanges[scoreCase]

	scores := make([]Score, numCriteria)
	for c := 0; c < numCriteria; c++ {
		v := ranges[c].lo + getRandomFloat()*(ranges[c].hi-ranges[c].lo)
		scores[c] = Score{Criterion: criterionTags[c], Value: &v}
	}

	if scoreCase == caseDegraded {
		// Two sub-evaluators report nothing; the service scores them as
		// zero and flags the record degraded.
		scores[3].Value = nil
		scores[4].Value = nil
	}

	return scores
}

// cloneScores deep-copies a score vector so twin submissions do not
// share Value pointers.
func cloneScores(scores []Score) []Score {
	out := make([]Score, len(scores))
	for i, s := range scores {
		out[i] = Score{Criterion: s.Criterion}
		if s.Value != nil {
			v := *s.Value
			out[i].Value = &v
		}
	}
	return out
}

// minInt returns the minimum of two integers.
func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
