// Package stats aggregates stored evaluation records into summary
// statistics. Snapshots are derived on demand and never persisted, so
// they can always be recomputed identically from the store.
package stats

import (
	"github.com/BhoomiAgrawal12/ppt-Evaluator/internal/domain/criteria"
	"github.com/BhoomiAgrawal12/ppt-Evaluator/internal/domain/model"
	"github.com/BhoomiAgrawal12/ppt-Evaluator/internal/domain/types"
)

// Aggregate computes count, mean, min and max over percentage scores
// plus per-criterion aggregates of the normalized values. An empty
// input yields the zero snapshot with Count 0, not an error.
func Aggregate(records []model.EvaluationRecord) types.StatisticsSnapshot {
	snap := types.StatisticsSnapshot{
		Criteria:          make(map[string]types.CriterionStats, criteria.Count()),
		GradeDistribution: make(map[string]int),
	}
	if len(records) == 0 {
		return snap
	}

	snap.Count = len(records)
	snap.MinPercentage = records[0].PercentageScore
	snap.MaxPercentage = records[0].PercentageScore

	sums := make(map[criteria.Criterion]float64, criteria.Count())
	mins := make(map[criteria.Criterion]float64, criteria.Count())
	maxs := make(map[criteria.Criterion]float64, criteria.Count())
	for _, c := range criteria.All() {
		first := records[0].Normalized[c]
		mins[c] = first
		maxs[c] = first
	}

	var pctSum float64
	for _, r := range records {
		pctSum += r.PercentageScore
		if r.PercentageScore < snap.MinPercentage {
			snap.MinPercentage = r.PercentageScore
		}
		if r.PercentageScore > snap.MaxPercentage {
			snap.MaxPercentage = r.PercentageScore
		}

		for _, c := range criteria.All() {
			v := r.Normalized[c]
			sums[c] += v
			if v < mins[c] {
				mins[c] = v
			}
			if v > maxs[c] {
				maxs[c] = v
			}
		}

		if r.Grade != "" {
			snap.GradeDistribution[r.Grade]++
		}
		if r.Degraded {
			snap.DegradedCount++
		}
	}

	n := float64(len(records))
	snap.MeanPercentage = pctSum / n
	for _, c := range criteria.All() {
		snap.Criteria[c.String()] = types.CriterionStats{
			Mean: sums[c] / n,
			Min:  mins[c],
			Max:  maxs[c],
		}
	}
	return snap
}
