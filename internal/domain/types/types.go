// Package types contains derived view types shared across the application.
package types

import "time"

// RankingEntry pairs an evaluation record with its 1-based rank inside
// a problem-statement cohort. Entries are recomputed from the store on
// every ranking query and never persisted.
type RankingEntry struct {
	Rank               int       `json:"rank"`
	ID                 string    `json:"id"`
	TeamName           string    `json:"team_name"`
	ProblemStatementID string    `json:"problem_statement_id"`
	PercentageScore    float64   `json:"percentage_score"`
	Grade              string    `json:"grade"`
	Timestamp          time.Time `json:"timestamp"`
}

// CriterionStats aggregates one criterion's normalized values.
type CriterionStats struct {
	Mean float64 `json:"mean"`
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
}

// StatisticsSnapshot is a point-in-time aggregate over stored records.
// Like rankings it is derived on demand; an empty store yields the zero
// snapshot with Count 0 rather than an error.
type StatisticsSnapshot struct {
	Count             int                       `json:"count"`
	MeanPercentage    float64                   `json:"mean_percentage"`
	MinPercentage     float64                   `json:"min_percentage"`
	MaxPercentage     float64                   `json:"max_percentage"`
	Criteria          map[string]CriterionStats `json:"criteria"`
	GradeDistribution map[string]int            `json:"grade_distribution"`
	DegradedCount     int                       `json:"degraded_count"`
}

// BatchResult summarizes the intake outcome of one batch submission.
type BatchResult struct {
	Accepted   int `json:"accepted"`
	Duplicates int `json:"duplicates"`
	Rejected   int `json:"rejected"`
}
