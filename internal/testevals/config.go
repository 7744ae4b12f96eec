package testevals

import "time"

// Config holds configuration for the evaluation load run
type Config struct {
	BaseURL    string        // Base URL of the service
	NumEvals   int           // Number of submissions to generate
	Teams      int           // Number of distinct team names
	Problems   int           // Number of problem-statement cohorts
	Workers    int           // Number of concurrent workers
	Timeout    time.Duration // HTTP request timeout
	OutputFile string        // Output file for submissions
	LogFile    string        // Log file for run output
	Verbose    bool          // Enable verbose logging
}

// Submission mirrors the intake payload accepted by the service.
type Submission struct {
	ID                 string  `json:"id"`
	TeamName           string  `json:"team_name"`
	ProblemStatementID string  `json:"problem_statement_id"`
	TS                 string  `json:"ts"`
	Scores             []Score `json:"scores"`
}

// Score is one sub-evaluator result inside a submission. A nil Value
// marks the sub-evaluator as failed.
type Score struct {
	Criterion string   `json:"criterion"`
	Value     *float64 `json:"value,omitempty"`
}

// BatchResult mirrors the intake summary returned by the batch endpoint.
type BatchResult struct {
	Accepted   int `json:"accepted"`
	Duplicates int `json:"duplicates"`
	Rejected   int `json:"rejected"`
}

// RankingEntry mirrors one row of a cohort ranking response.
type RankingEntry struct {
	Rank               int       `json:"rank"`
	ID                 string    `json:"id"`
	TeamName           string    `json:"team_name"`
	ProblemStatementID string    `json:"problem_statement_id"`
	PercentageScore    float64   `json:"percentage_score"`
	Grade              string    `json:"grade"`
	Timestamp          time.Time `json:"timestamp"`
}

// StatisticsSnapshot mirrors the per-cohort aggregate response.
type StatisticsSnapshot struct {
	Count             int            `json:"count"`
	MeanPercentage    float64        `json:"mean_percentage"`
	MinPercentage     float64        `json:"min_percentage"`
	MaxPercentage     float64        `json:"max_percentage"`
	GradeDistribution map[string]int `json:"grade_distribution"`
	DegradedCount     int            `json:"degraded_count"`
}

// statusResponse carries the counters the runner polls while waiting
// for the intake queue to drain.
type statusResponse struct {
	QueueLength      int `json:"queueLength"`
	TotalEvaluations int `json:"totalEvaluations"`
}

// cohortResult pairs one problem statement's ranking with its
// statistics snapshot.
type cohortResult struct {
	ProblemStatementID string
	Rankings           []RankingEntry
	Stats              StatisticsSnapshot
}

// Stats holds run statistics
type Stats struct {
	EvalsGenerated  int
	EvalsSubmitted  int
	EvalsAccepted   int
	EvalsDuplicate  int
	EvalsRejected   int
	BatchesFailed   int
	CohortsVerified int
	StartTime       time.Time
	EndTime         time.Time
	Duration        time.Duration
}
