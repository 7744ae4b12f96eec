// Package ranking derives a deterministic total order of evaluation
// records inside a problem-statement cohort.
package ranking

import (
	"sort"

	"github.com/BhoomiAgrawal12/ppt-Evaluator/internal/domain/model"
	"github.com/BhoomiAgrawal12/ppt-Evaluator/internal/domain/types"
)

// Rank orders records by percentage score descending, breaking ties by
// earlier submission first and finally by id, then assigns contiguous
// ranks 1..N. Ties are resolved, never shared, so recomputing over an
// unchanged cohort always yields identical entries.
func Rank(records []model.EvaluationRecord) []types.RankingEntry {
	ordered := make([]model.EvaluationRecord, len(records))
	copy(ordered, records)

	sort.Slice(ordered, func(i, j int) bool {
		return less(ordered[i], ordered[j])
	})

	entries := make([]types.RankingEntry, 0, len(ordered))
	for i, r := range ordered {
		entries = append(entries, types.RankingEntry{
			Rank:               i + 1,
			ID:                 r.ID,
			TeamName:           r.TeamName,
			ProblemStatementID: r.ProblemStatementID,
			PercentageScore:    r.PercentageScore,
			Grade:              r.Grade,
			Timestamp:          r.Timestamp,
		})
	}
	return entries
}

// less is the cohort comparator: higher percentage first, then earlier
// timestamp, then smaller id. The id key keeps the order strict even
// for records sharing score and timestamp.
func less(a, b model.EvaluationRecord) bool {
	if a.PercentageScore != b.PercentageScore {
		return a.PercentageScore > b.PercentageScore
	}
	if !a.Timestamp.Equal(b.Timestamp) {
		return a.Timestamp.Before(b.Timestamp)
	}
	return a.ID < b.ID
}
