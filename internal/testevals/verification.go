package testevals

import (
	"fmt"
	"log"
	"math"
)

// verifyResults checks every cohort's ranking against the ordering
// contract and reconciles the totals with what was accepted.
func verifyResults(config *Config, results []cohortResult, stats *Stats) error {
	log.Println("🔍 Verifying results...")

	if len(results) == 0 {
		return fmt.Errorf("no cohorts to verify")
	}

	var failures []string
	totalRanked := 0
	for _, cohort := range results {
		if err := verifyCohort(cohort); err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", cohort.ProblemStatementID, err))
			continue
		}
		totalRanked += len(cohort.Rankings)
		stats.CohortsVerified++
	}

	if len(failures) > 0 {
		for _, failure := range failures {
			log.Printf("❌ %s", failure)
		}
		return fmt.Errorf("%d of %d cohorts failed verification", len(failures), len(results))
	}

	// A store shared with earlier runs can only hold more records than
	// this run accepted, never fewer.
	if totalRanked < stats.EvalsAccepted {
		return fmt.Errorf("rankings hold %d evaluations; %d were accepted", totalRanked, stats.EvalsAccepted)
	}
	if totalRanked > stats.EvalsAccepted {
		log.Printf("⚠️  Rankings hold %d evaluations beyond this run's %d; store carries earlier data",
			totalRanked-stats.EvalsAccepted, stats.EvalsAccepted)
	}

	log.Printf("✅ All %d cohorts verified (%d ranked evaluations)", len(results), totalRanked)

	displayLeaders(results, config.Verbose)

	log.Println("✅ Result verification completed")
	return nil
}

// verifyCohort checks one cohort's invariants: ranks are contiguous
// from 1, percentages descend, ties fall back to timestamp then id, and
// the statistics snapshot agrees with the ranking.
func verifyCohort(cohort cohortResult) error {
	rankings := cohort.Rankings

	for i, entry := range rankings {
		if entry.Rank != i+1 {
			return fmt.Errorf("rank %d at position %d; want %d", entry.Rank, i, i+1)
		}
		if entry.ProblemStatementID != cohort.ProblemStatementID {
			return fmt.Errorf("entry %s belongs to cohort %s", entry.ID, entry.ProblemStatementID)
		}
	}

	for i := 1; i < len(rankings); i++ {
		prev, cur := rankings[i-1], rankings[i]
		switch {
		case cur.PercentageScore > prev.PercentageScore:
			return fmt.Errorf("percentage ascends between ranks %d and %d", prev.Rank, cur.Rank)
		case cur.PercentageScore == prev.PercentageScore && cur.Timestamp.Before(prev.Timestamp):
			return fmt.Errorf("tie between ranks %d and %d not in timestamp order", prev.Rank, cur.Rank)
		case cur.PercentageScore == prev.PercentageScore && cur.Timestamp.Equal(prev.Timestamp) && cur.ID < prev.ID:
			return fmt.Errorf("tie between ranks %d and %d not in id order", prev.Rank, cur.Rank)
		}
	}

	snapshot := cohort.Stats
	if snapshot.Count != len(rankings) {
		return fmt.Errorf("statistics count %d; ranking has %d entries", snapshot.Count, len(rankings))
	}

	gradeTotal := 0
	for _, n := range snapshot.GradeDistribution {
		gradeTotal += n
	}
	if snapshot.Count > 0 && gradeTotal != snapshot.Count {
		return fmt.Errorf("grade distribution sums to %d; want %d", gradeTotal, snapshot.Count)
	}

	if len(rankings) > 0 {
		top := rankings[0].PercentageScore
		if math.Abs(snapshot.MaxPercentage-top) > PercentageTolerance {
			return fmt.Errorf("statistics max %.4f disagrees with top rank %.4f", snapshot.MaxPercentage, top)
		}
		bottom := rankings[len(rankings)-1].PercentageScore
		if math.Abs(snapshot.MinPercentage-bottom) > PercentageTolerance {
			return fmt.Errorf("statistics min %.4f disagrees with bottom rank %.4f", snapshot.MinPercentage, bottom)
		}
	}

	return nil
}

// displayLeaders shows each cohort's leaders and, in verbose mode, the
// aggregate percentages.
func displayLeaders(results []cohortResult, verbose bool) {
	leadersPerCohort := 3

	for _, cohort := range results {
		topN := leadersPerCohort
		if len(cohort.Rankings) < topN {
			topN = len(cohort.Rankings)
		}
		if topN == 0 {
			log.Printf("🏆 Cohort %s: empty", cohort.ProblemStatementID)
			continue
		}

		log.Printf("🏆 Cohort %s leaders:", cohort.ProblemStatementID)
		for i := 0; i < topN; i++ {
			entry := cohort.Rankings[i]
			log.Printf("   %d. %s (%s) %.2f%% grade %s",
				entry.Rank, entry.TeamName, entry.ID, entry.PercentageScore, entry.Grade)
		}

		if verbose {
			log.Printf(`📊 Cohort %s statistics:
   Count: %d
   Mean: %.2f%%
   Max: %.2f%%
   Min: %.2f%%
   Degraded: %d
`, cohort.ProblemStatementID, cohort.Stats.Count, cohort.Stats.MeanPercentage,
				cohort.Stats.MaxPercentage, cohort.Stats.MinPercentage, cohort.Stats.DegradedCount)
		}
	}
}
