package testevals

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BhoomiAgrawal12/ppt-Evaluator/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0750
)

// Run executes the complete load and verification run against a live
// service: health check, generate, submit, drain, retrieve, verify.
func Run(ctx context.Context, config *Config) error {
	stats := &Stats{
		StartTime: time.Now(),
	}

	logger.Get().Info(ctx, "starting evaluation load run",
		logger.String("baseURL", config.BaseURL),
		logger.Int("evals", config.NumEvals),
		logger.Int("teams", config.Teams),
		logger.Int("problems", config.Problems),
		logger.Int("workers", config.Workers),
		logger.String("timeout", config.Timeout.String()),
		logger.String("logFile", config.LogFile),
		logger.Bool("verbose", config.Verbose))

	// Step 1: Check service health
	if err := checkServiceHealth(ctx, config); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Record the committed total before submitting so a store
	// shared with earlier runs does not skew the drain target.
	baseline, _, err := fetchStatus(ctx, config)
	if err != nil {
		return fmt.Errorf("status check failed: %w", err)
	}

	// Step 3: Generate submissions
	evals, err := generateSubmissions(ctx, config, stats)
	if err != nil {
		return fmt.Errorf("submission generation failed: %w", err)
	}

	// Step 4: Submit concurrently in batches
	if err := submitSubmissions(ctx, config, evals, stats); err != nil {
		return fmt.Errorf("submission failed: %w", err)
	}

	// Step 5: Wait until the queue drains and the store catches up
	if err := waitForDrain(ctx, config, baseline+stats.EvalsAccepted); err != nil {
		return fmt.Errorf("queue drain failed: %w", err)
	}

	// Step 6: Retrieve rankings and statistics per cohort
	results, err := retrieveCohorts(ctx, config, uniqueCohorts(evals), stats)
	if err != nil {
		return fmt.Errorf("cohort retrieval failed: %w", err)
	}

	// Step 7: Verify results
	if err := verifyResults(config, results, stats); err != nil {
		return fmt.Errorf("result verification failed: %w", err)
	}

	// Step 8: Save submissions to file
	if err := saveSubmissionsToFile(ctx, config, evals); err != nil {
		logger.Get().Warn(ctx, "failed to save submissions to file", logger.Error(err))
	}

	// Final statistics
	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	displayFinalStats(stats)

	logger.Get().Info(ctx, "run completed successfully")
	return nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, config *Config) error {
	logger.Get().Info(ctx, "checking service health")

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/healthz"

	resp, err := client.Get(ctx, url)
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Get().Error(context.Background(), "failed to close response body", logger.Error(err))
		}
	}()

	// Accept any 200 response as healthy (the service returns Prometheus metrics)
	if resp.StatusCode != StatusOK {
		return fmt.Errorf("service health check failed with status: %d", resp.StatusCode)
	}

	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// fetchStatus reads the committed total and queue length from the
// status endpoint.
func fetchStatus(ctx context.Context, config *Config) (total, queued int, err error) {
	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/api/status"

	resp, err := client.Get(ctx, url)
	if err != nil {
		return 0, 0, fmt.Errorf("request failed: %w", err)
	}

	body, err := readResponseBody(resp)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != StatusOK {
		return 0, 0, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}

	var status statusResponse
	if err := unmarshalJSON(body, &status); err != nil {
		return 0, 0, fmt.Errorf("failed to parse response: %w", err)
	}

	return status.TotalEvaluations, status.QueueLength, nil
}

// waitForDrain polls the status endpoint until the store holds every
// accepted submission and the intake queue is empty. Batch intake is
// asynchronous, so rankings are only meaningful once the queue drains.
func waitForDrain(ctx context.Context, config *Config, expected int) error {
	logger.Get().Info(ctx, "waiting for queue drain", logger.Int("expected", expected))

	ticker := time.NewTicker(DrainPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("timed out waiting for queue drain: %w", ctx.Err())
		case <-ticker.C:
		}

		total, queued, err := fetchStatus(ctx, config)
		if err != nil {
			if config.Verbose {
				logger.Get().Warn(ctx, "status poll failed", logger.Error(err))
			}
			continue
		}

		if total >= expected && queued == 0 {
			logger.Get().Info(ctx, "queue drained", logger.Int("committed", total))
			return nil
		}

		if config.Verbose {
			logger.Get().Info(ctx, "drain progress",
				logger.Int("committed", total),
				logger.Int("expected", expected),
				logger.Int("queued", queued))
		}
	}
}

// uniqueCohorts lists the problem statements present in the generated
// submissions, in first-seen order.
func uniqueCohorts(evals []Submission) []string {
	seen := make(map[string]bool)
	var cohorts []string
	for _, eval := range evals {
		if !seen[eval.ProblemStatementID] {
			seen[eval.ProblemStatementID] = true
			cohorts = append(cohorts, eval.ProblemStatementID)
		}
	}
	return cohorts
}

// saveSubmissionsToFile saves the generated submissions to a JSON file.
func saveSubmissionsToFile(ctx context.Context, config *Config, evals []Submission) error {
	if len(evals) == 0 {
		return fmt.Errorf("no submissions to save")
	}

	// Determine output filename
	filename := config.OutputFile
	if filename == "" {
		timestamp := time.Now().Format("20060102_150405")
		filename = "generated_evals_" + timestamp + ".json"
	}

	// Ensure the directory exists
	dir := filepath.Dir(filename)
	if dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			logger.Get().Error(context.Background(), "failed to close file", logger.Error(err))
		}
	}()

	// Write a JSON array with one submission per line so large runs
	// stay greppable.
	if _, err := file.WriteString("[\n"); err != nil {
		return fmt.Errorf("failed to write opening bracket: %w", err)
	}

	for i, eval := range evals {
		jsonData, err := marshalJSON(eval)
		if err != nil {
			return fmt.Errorf("failed to marshal submission %d: %w", i, err)
		}

		if _, err := file.Write(jsonData); err != nil {
			return fmt.Errorf("failed to write submission %d: %w", i, err)
		}

		// Add comma except for last submission
		if i < len(evals)-1 {
			if _, err := file.WriteString(","); err != nil {
				return fmt.Errorf("failed to write comma: %w", err)
			}
		}
		_, _ = file.WriteString("\n")
	}

	if _, err := file.WriteString("]\n"); err != nil {
		return fmt.Errorf("failed to write closing bracket: %w", err)
	}

	logger.Get().Info(ctx, "submissions saved to file", logger.String("filename", filename))
	return nil
}

// displayFinalStats prints the final run statistics.
func displayFinalStats(stats *Stats) {
	var acceptRate, evalsPerSecond float64

	if stats.EvalsSubmitted > 0 {
		acceptRate = float64(stats.EvalsAccepted) / float64(stats.EvalsSubmitted) * PercentageMultiplier
	}

	if stats.Duration > 0 {
		evalsPerSecond = float64(stats.EvalsSubmitted) / stats.Duration.Seconds()
	}

	logger.Get().Info(context.Background(), "final statistics",
		logger.Int("evalsGenerated", stats.EvalsGenerated),
		logger.Int("evalsSubmitted", stats.EvalsSubmitted),
		logger.Int("evalsAccepted", stats.EvalsAccepted),
		logger.Int("evalsDuplicate", stats.EvalsDuplicate),
		logger.Int("evalsRejected", stats.EvalsRejected),
		logger.Int("batchesFailed", stats.BatchesFailed),
		logger.Int("cohortsVerified", stats.CohortsVerified),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("acceptRate", acceptRate),
		logger.Float64("evalsPerSecond", evalsPerSecond))
}
