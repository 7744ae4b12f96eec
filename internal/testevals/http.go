package testevals

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// HTTPClient wraps http.Client with timeout
type HTTPClient struct {
	client  *http.Client
	timeout time.Duration
}

// newHTTPClient creates a new HTTP client with timeout
func newHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client: &http.Client{
			Timeout: timeout,
		},
		timeout: timeout,
	}
}

// Get performs a GET request bound to the run context
func (c *HTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.client.Do(req)
}

// Post performs a POST request with JSON body bound to the run context
func (c *HTTPClient) Post(ctx context.Context, url string, body interface{}) (*http.Response, error) {
	jsonData, err := marshalJSON(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	return c.client.Do(req)
}

// marshalJSON marshals a struct to JSON
func marshalJSON(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

// unmarshalJSON unmarshals JSON to a struct
func unmarshalJSON(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

// readResponseBody reads and closes the response body
func readResponseBody(resp *http.Response) ([]byte, error) {
	defer func() {
		if err := resp.Body.Close(); err != nil {
			log.Printf("failed to close response body: %v", err)
		}
	}()
	return io.ReadAll(resp.Body)
}

// submitSubmissions posts the generated submissions in fixed-size
// batches across the worker pool.
func submitSubmissions(ctx context.Context, config *Config, evals []Submission, stats *Stats) error {
	log.Printf("📤 Submitting %d evaluations in batches of %d with %d workers...", len(evals), BatchSize, config.Workers)

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/api/evaluations/batch"

	// Counters for statistics
	var (
		submitted     int64
		accepted      int64
		duplicate     int64
		rejected      int64
		batchesFailed int64
	)

	// Progress reporting runs on its own goroutine so workers never
	// share a report clock.
	progressDone := make(chan struct{})
	go func() {
		ticker := time.NewTicker(1 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-progressDone:
				return
			case <-ticker.C:
				total := atomic.LoadInt64(&submitted)
				acc := atomic.LoadInt64(&accepted)
				dup := atomic.LoadInt64(&duplicate)
				rej := atomic.LoadInt64(&rejected)

				if config.Verbose {
					log.Printf("📊 Progress: %d/%d submitted (accepted: %d, duplicate: %d, rejected: %d)",
						total, len(evals), acc, dup, rej)
				} else {
					fmt.Printf("\r📤 Submitted: %d/%d (accepted: %d, duplicate: %d, rejected: %d)",
						total, len(evals), acc, dup, rej)
				}
			}
		}
	}()

	batchChan := make(chan []Submission, config.Workers*WorkerChannelMultiplier)

	g, gctx := errgroup.WithContext(ctx)

	// Start workers
	for i := 0; i < config.Workers; i++ {
		g.Go(func() error {
			for batch := range batchChan {
				result, err := submitSingleBatch(gctx, client, url, batch)
				if err != nil {
					atomic.AddInt64(&batchesFailed, 1)
					if config.Verbose {
						log.Printf("⚠️  Batch of %d failed: %v", len(batch), err)
					}
					continue
				}

				atomic.AddInt64(&submitted, int64(len(batch)))
				atomic.AddInt64(&accepted, int64(result.Accepted))
				atomic.AddInt64(&duplicate, int64(result.Duplicates))
				atomic.AddInt64(&rejected, int64(result.Rejected))
			}
			return nil
		})
	}

	// Feed batches to workers
	g.Go(func() error {
		defer close(batchChan)
		for start := 0; start < len(evals); start += BatchSize {
			end := start + BatchSize
			if end > len(evals) {
				end = len(evals)
			}
			select {
			case <-gctx.Done():
				return gctx.Err()
			case batchChan <- evals[start:end]:
			}
		}
		return nil
	})

	err := g.Wait()
	close(progressDone)
	if err != nil {
		return err
	}

	// Final progress report
	if !config.Verbose {
		fmt.Println() // New line after progress indicator
	}

	// Update stats
	stats.EvalsSubmitted = int(atomic.LoadInt64(&submitted))
	stats.EvalsAccepted = int(atomic.LoadInt64(&accepted))
	stats.EvalsDuplicate = int(atomic.LoadInt64(&duplicate))
	stats.EvalsRejected = int(atomic.LoadInt64(&rejected))
	stats.BatchesFailed = int(atomic.LoadInt64(&batchesFailed))

	log.Printf(`✅ Submission completed:
   Accepted: %d
   Duplicate: %d
   Rejected: %d
   Failed batches: %d
`, stats.EvalsAccepted, stats.EvalsDuplicate, stats.EvalsRejected, stats.BatchesFailed)

	return nil
}

// submitSingleBatch posts one batch and parses the intake summary.
func submitSingleBatch(ctx context.Context, client *HTTPClient, url string, batch []Submission) (BatchResult, error) {
	resp, err := client.Post(ctx, url, batch)
	if err != nil {
		return BatchResult{}, fmt.Errorf("request failed: %w", err)
	}

	body, err := readResponseBody(resp)
	if err != nil {
		return BatchResult{}, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != StatusAccepted {
		return BatchResult{}, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}

	var result BatchResult
	if err := unmarshalJSON(body, &result); err != nil {
		return BatchResult{}, fmt.Errorf("failed to parse response: %w", err)
	}

	return result, nil
}
