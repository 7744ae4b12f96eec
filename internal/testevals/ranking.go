package testevals

import (
	"context"
	"fmt"
	"log"
	"net/url"

	"golang.org/x/sync/errgroup"
)

// retrieveCohorts fetches the ranking and statistics snapshot for every
// problem-statement cohort concurrently.
func retrieveCohorts(ctx context.Context, config *Config, cohorts []string, stats *Stats) ([]cohortResult, error) {
	log.Printf("🏆 Retrieving rankings for %d cohorts with %d workers...", len(cohorts), config.Workers)

	client := newHTTPClient(config.Timeout)
	results := make([]cohortResult, len(cohorts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(config.Workers)

	for i, psID := range cohorts {
		i, psID := i, psID
		g.Go(func() error {
			rankings, err := retrieveRanking(gctx, client, config.BaseURL, psID)
			if err != nil {
				return fmt.Errorf("rankings for %s: %w", psID, err)
			}

			snapshot, err := retrieveStatistics(gctx, client, config.BaseURL, psID)
			if err != nil {
				return fmt.Errorf("statistics for %s: %w", psID, err)
			}

			results[i] = cohortResult{
				ProblemStatementID: psID,
				Rankings:           rankings,
				Stats:              snapshot,
			}

			if config.Verbose {
				log.Printf("📊 Cohort %s: %d ranked, %d counted", psID, len(rankings), snapshot.Count)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	ranked := 0
	for _, result := range results {
		ranked += len(result.Rankings)
	}

	log.Printf(`✅ Cohort retrieval completed:
   Cohorts: %d
   Ranked evaluations: %d
`, len(results), ranked)

	return results, nil
}

// retrieveRanking fetches the full ranking of one cohort.
func retrieveRanking(ctx context.Context, client *HTTPClient, baseURL, psID string) ([]RankingEntry, error) {
	rankURL := fmt.Sprintf("%s/api/rankings/%s", baseURL, url.PathEscape(psID))

	resp, err := client.Get(ctx, rankURL)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	body, err := readResponseBody(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}

	var entries []RankingEntry
	if err := unmarshalJSON(body, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	return entries, nil
}

// retrieveStatistics fetches the statistics snapshot of one cohort.
func retrieveStatistics(ctx context.Context, client *HTTPClient, baseURL, psID string) (StatisticsSnapshot, error) {
	statsURL := fmt.Sprintf("%s/api/statistics?problem_statement_id=%s", baseURL, url.QueryEscape(psID))

	resp, err := client.Get(ctx, statsURL)
	if err != nil {
		return StatisticsSnapshot{}, fmt.Errorf("request failed: %w", err)
	}

	body, err := readResponseBody(resp)
	if err != nil {
		return StatisticsSnapshot{}, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != StatusOK {
		return StatisticsSnapshot{}, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}

	var snapshot StatisticsSnapshot
	if err := unmarshalJSON(body, &snapshot); err != nil {
		return StatisticsSnapshot{}, fmt.Errorf("failed to parse response: %w", err)
	}

	return snapshot, nil
}
