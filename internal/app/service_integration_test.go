package service_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/BhoomiAgrawal12/ppt-Evaluator/internal/adapters/repository"
	service "github.com/BhoomiAgrawal12/ppt-Evaluator/internal/app"
	"github.com/BhoomiAgrawal12/ppt-Evaluator/internal/domain/criteria"
	"github.com/BhoomiAgrawal12/ppt-Evaluator/internal/domain/model"
	"github.com/BhoomiAgrawal12/ppt-Evaluator/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

// uniformRaw builds a raw vector whose stock normalization is v on
// every earning criterion and 0 on the penalty, so the percentage is
// exactly 85*v under the default weights.
func uniformRaw(v float64) model.RawScoreVector {
	return model.RawScoreVector{
		criteria.PSSimilarity:   {Value: 2*v - 1, Valid: true},
		criteria.Feasibility:    {Value: v, Valid: true},
		criteria.Attractiveness: {Value: v, Valid: true},
		criteria.ImageAnalysis:  {Value: v, Valid: true},
		criteria.LinkAnalysis:   {Value: v, Valid: true},
		criteria.LLMPenalty:     {Value: 0, Valid: true},
	}
}

// waitForEvaluations polls until the store holds at least want records
// or the deadline passes, returning the last observed count.
func waitForEvaluations(ctx context.Context, svc *service.Service, want int, deadline time.Duration) int {
	end := time.Now().Add(deadline)
	count := 0
	for time.Now().Before(end) {
		records, err := svc.ListEvaluations(ctx, "")
		if err == nil {
			count = len(records)
			if count >= want {
				return count
			}
		}
		time.Sleep(10 * time.Millisecond)
	}
	return count
}

func TestServiceIntegration(t *testing.T) {
	Convey("Given a service with full integration", t, func() {
		svc := service.New(
			service.WithWorkerCount(2),
			service.WithQueueSize(1000),
			service.WithDedupeSize(500),
		)
		defer svc.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		err := svc.Start(ctx)
		So(err, ShouldBeNil)

		Convey("When submitting a batch end-to-end", func() {
			batch := []model.Submission{
				{ID: "batch-1", TeamName: "team-1", ProblemStatementID: "ps-001", Raw: uniformRaw(0.9)},
				{ID: "batch-2", TeamName: "team-2", ProblemStatementID: "ps-001", Raw: uniformRaw(0.5)},
				{ID: "batch-3", TeamName: "team-3", ProblemStatementID: "ps-002", Raw: uniformRaw(0.2)},
			}

			res, err := svc.SubmitBatch(ctx, batch)
			So(err, ShouldBeNil)

			Convey("Then every submission is accepted", func() {
				So(res.Accepted, ShouldEqual, 3)
				So(res.Duplicates, ShouldEqual, 0)
				So(res.Rejected, ShouldEqual, 0)
			})

			Convey("And workers drain the queue into the store", func() {
				count := waitForEvaluations(ctx, svc, 3, 5*time.Second)
				So(count, ShouldEqual, 3)

				rec, err := svc.GetEvaluation(ctx, "batch-1")
				So(err, ShouldBeNil)
				So(rec.TeamName, ShouldEqual, "team-1")
				So(rec.PercentageScore, ShouldAlmostEqual, 76.5, 1e-6)
				So(rec.Grade, ShouldEqual, "B+")
			})

			Convey("And re-submitting the same batch counts duplicates", func() {
				count := waitForEvaluations(ctx, svc, 3, 5*time.Second)
				So(count, ShouldEqual, 3)

				again, err := svc.SubmitBatch(ctx, batch)
				So(err, ShouldBeNil)
				So(again.Accepted, ShouldEqual, 0)
				So(again.Duplicates, ShouldEqual, 3)
				So(again.Rejected, ShouldEqual, 0)

				// Nothing new reaches the store
				records, err := svc.ListEvaluations(ctx, "")
				So(err, ShouldBeNil)
				So(len(records), ShouldEqual, 3)
			})
		})

		Convey("When ranking a scored cohort", func() {
			for _, sub := range []model.Submission{
				{ID: "rank-hi", TeamName: "team-hi", ProblemStatementID: "ps-rank", Raw: uniformRaw(0.9)},
				{ID: "rank-mid", TeamName: "team-mid", ProblemStatementID: "ps-rank", Raw: uniformRaw(0.5)},
				{ID: "rank-lo", TeamName: "team-lo", ProblemStatementID: "ps-rank", Raw: uniformRaw(0.2)},
			} {
				_, err := svc.Submit(ctx, sub)
				So(err, ShouldBeNil)
			}

			Convey("Then entries come back ordered with contiguous ranks", func() {
				entries, err := svc.Rankings(ctx, "ps-rank")
				So(err, ShouldBeNil)
				So(len(entries), ShouldEqual, 3)

				So(entries[0].ID, ShouldEqual, "rank-hi")
				So(entries[1].ID, ShouldEqual, "rank-mid")
				So(entries[2].ID, ShouldEqual, "rank-lo")
				for i, entry := range entries {
					So(entry.Rank, ShouldEqual, i+1)
				}
				for i := 1; i < len(entries); i++ {
					So(entries[i-1].PercentageScore, ShouldBeGreaterThanOrEqualTo, entries[i].PercentageScore)
				}
			})

			Convey("And statistics aggregate the same cohort", func() {
				snap, err := svc.Statistics(ctx, "ps-rank")
				So(err, ShouldBeNil)
				So(snap.Count, ShouldEqual, 3)
				So(snap.MeanPercentage, ShouldAlmostEqual, 136.0/3, 1e-6)
				So(snap.MinPercentage, ShouldAlmostEqual, 17.0, 1e-6)
				So(snap.MaxPercentage, ShouldAlmostEqual, 76.5, 1e-6)
				So(snap.GradeDistribution["B+"], ShouldEqual, 1)
				So(snap.GradeDistribution["C"], ShouldEqual, 1)
				So(snap.GradeDistribution["D"], ShouldEqual, 1)
			})

			Convey("And the CSV export carries the full column contract", func() {
				var buf bytes.Buffer
				err := svc.ExportCSV(ctx, &buf)
				So(err, ShouldBeNil)

				lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
				So(len(lines), ShouldEqual, 4) // header + 3 records

				So(lines[0], ShouldEqual,
					"id,team_name,problem_statement_id,timestamp,"+
						"ps_similarity_raw,ps_similarity_normalized,"+
						"feasibility_raw,feasibility_normalized,"+
						"attractiveness_raw,attractiveness_normalized,"+
						"image_analysis_raw,image_analysis_normalized,"+
						"link_analysis_raw,link_analysis_normalized,"+
						"llm_penalty_raw,llm_penalty_normalized,"+
						"total_score,normalized_score,percentage_score,grade")
				So(lines[1], ShouldStartWith, "rank-hi,team-hi,ps-rank,")
				So(lines[1], ShouldEndWith, ",B+")
			})
		})

		Convey("When two teams tie on percentage", func() {
			t0 := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)

			// The later submission is committed first
			_, err := svc.Submit(ctx, model.Submission{
				ID: "tie-b", TeamName: "team-b", ProblemStatementID: "ps-tie",
				TS: t0.Add(time.Minute), Raw: uniformRaw(0.5),
			})
			So(err, ShouldBeNil)
			_, err = svc.Submit(ctx, model.Submission{
				ID: "tie-a", TeamName: "team-a", ProblemStatementID: "ps-tie",
				TS: t0, Raw: uniformRaw(0.5),
			})
			So(err, ShouldBeNil)

			Convey("Then the earlier timestamp ranks first", func() {
				entries, err := svc.Rankings(ctx, "ps-tie")
				So(err, ShouldBeNil)
				So(len(entries), ShouldEqual, 2)
				So(entries[0].ID, ShouldEqual, "tie-a")
				So(entries[1].ID, ShouldEqual, "tie-b")
				So(entries[0].PercentageScore, ShouldAlmostEqual, entries[1].PercentageScore, 1e-12)
			})
		})

		Convey("When handling service lifecycle", func() {
			_, err := svc.Submit(ctx, model.Submission{
				TeamName: "team-cycle", ProblemStatementID: "ps-cycle", Raw: uniformRaw(0.5),
			})
			So(err, ShouldBeNil)

			Convey("And restarting the service", func() {
				svc.Stop()

				stats := svc.GetStats()
				So(stats["started"], ShouldEqual, false)

				err := svc.Start(ctx)
				So(err, ShouldBeNil)

				Convey("Then it runs again on a fresh owned store", func() {
					stats := svc.GetStats()
					So(stats["started"], ShouldEqual, true)
					So(stats["totalEvaluations"], ShouldEqual, 0)
				})
			})
		})

		Convey("When handling edge cases", func() {
			Convey("And raw values far outside the native scales", func() {
				rec, err := svc.Submit(ctx, model.Submission{
					TeamName:           "team-extreme",
					ProblemStatementID: "ps-extreme",
					Raw: model.RawScoreVector{
						criteria.PSSimilarity:   {Value: 0.0, Valid: true},
						criteria.Feasibility:    {Value: 1000.0, Valid: true},
						criteria.Attractiveness: {Value: -100.0, Valid: true},
						criteria.ImageAnalysis:  {Value: 0.5, Valid: true},
						criteria.LinkAnalysis:   {Value: 0.5, Valid: true},
						criteria.LLMPenalty:     {Value: 0.0, Valid: true},
					},
				})

				Convey("Then clamped criteria saturate instead of degrading", func() {
					So(err, ShouldBeNil)
					So(rec.Degraded, ShouldBeFalse)
					So(rec.Normalized[criteria.Feasibility], ShouldEqual, 1.0)
					So(rec.Normalized[criteria.Attractiveness], ShouldEqual, 0.0)
				})
			})

			Convey("And a similarity cosine outside its strict domain", func() {
				raw := uniformRaw(0.5)
				raw[criteria.PSSimilarity] = model.RawScore{Value: 5.0, Valid: true}
				rec, err := svc.Submit(ctx, model.Submission{
					TeamName: "team-oob", ProblemStatementID: "ps-extreme", Raw: raw,
				})

				Convey("Then the criterion zeroes out and the record degrades", func() {
					So(err, ShouldBeNil)
					So(rec.Degraded, ShouldBeTrue)
					So(rec.Normalized[criteria.PSSimilarity], ShouldEqual, 0.0)
				})
			})

			Convey("And very long identifiers", func() {
				longID := "very-long-submission-id-" + strings.Repeat("x", 1000)
				rec, err := svc.Submit(ctx, model.Submission{
					ID:       longID,
					TeamName: "team-long-" + strings.Repeat("y", 1000), ProblemStatementID: "ps-long",
					Raw: uniformRaw(0.5),
				})

				Convey("Then long ids round-trip through the store", func() {
					So(err, ShouldBeNil)
					got, err := svc.GetEvaluation(ctx, longID)
					So(err, ShouldBeNil)
					So(got.TeamName, ShouldEqual, rec.TeamName)
				})
			})
		})
	})
}

func TestServiceConcurrency(t *testing.T) {
	Convey("Given a service with concurrent operations", t, func() {
		svc := service.New(
			service.WithWorkerCount(4),
			service.WithQueueSize(2000),
			service.WithDedupeSize(1000),
		)
		defer svc.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		err := svc.Start(ctx)
		So(err, ShouldBeNil)

		Convey("When multiple goroutines submit batches concurrently", func() {
			numGoroutines := 10
			subsPerGoroutine := 50
			done := make(chan bool, numGoroutines)

			for i := 0; i < numGoroutines; i++ {
				go func(g int) {
					batch := make([]model.Submission, 0, subsPerGoroutine)
					for j := 0; j < subsPerGoroutine; j++ {
						batch = append(batch, model.Submission{
							ID:                 fmt.Sprintf("concurrent-%d-%d", g, j),
							TeamName:           fmt.Sprintf("team-%d", g),
							ProblemStatementID: fmt.Sprintf("ps-%d", g%3),
							Raw:                uniformRaw(float64(j%10) / 10.0),
						})
					}
					_, _ = svc.SubmitBatch(ctx, batch)
					done <- true
				}(i)
			}

			// Wait for all goroutines to complete
			for i := 0; i < numGoroutines; i++ {
				<-done
			}

			Convey("Then every submission lands in the store exactly once", func() {
				total := numGoroutines * subsPerGoroutine
				count := waitForEvaluations(ctx, svc, total, 10*time.Second)
				So(count, ShouldEqual, total)

				snap, err := svc.Statistics(ctx, "")
				So(err, ShouldBeNil)
				So(snap.Count, ShouldEqual, total)
			})
		})

		Convey("When multiple goroutines query while workers are busy", func() {
			seed := []model.Submission{
				{ID: "query-1", TeamName: "team-q1", ProblemStatementID: "ps-0", Raw: uniformRaw(0.8)},
				{ID: "query-2", TeamName: "team-q2", ProblemStatementID: "ps-0", Raw: uniformRaw(0.6)},
			}
			for _, sub := range seed {
				_, err := svc.Submit(ctx, sub)
				So(err, ShouldBeNil)
			}

			numGoroutines := 20
			done := make(chan bool, numGoroutines)
			errs := make(chan error, numGoroutines*20) // Buffer for potential errors

			for i := 0; i < numGoroutines; i++ {
				go func() {
					for j := 0; j < 10; j++ {
						entries, err := svc.Rankings(ctx, "ps-0")
						if err != nil {
							errs <- err
							continue
						}
						if len(entries) == 0 {
							errs <- fmt.Errorf("rankings came back empty")
							continue
						}
						if _, err := svc.Statistics(ctx, "ps-0"); err != nil {
							errs <- err
						}
					}
					done <- true
				}()
			}

			// Wait for all goroutines to complete
			for i := 0; i < numGoroutines; i++ {
				<-done
			}

			Convey("Then all queries should succeed", func() {
				select {
				case err := <-errs:
					So(err, ShouldBeNil)
				default:
					// No errors, test passed
					So(true, ShouldBeTrue)
				}
			})
		})
	})
}

func TestServiceErrorHandling(t *testing.T) {
	Convey("Given a service with a deliberately small queue", t, func() {
		svc := service.New(
			service.WithWorkerCount(1),
			service.WithQueueSize(10),
			service.WithDedupeSize(100),
		)
		defer svc.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		err := svc.Start(ctx)
		So(err, ShouldBeNil)

		Convey("When submitting a batch larger than the queue", func() {
			batch := make([]model.Submission, 0, 40)
			for i := 0; i < 40; i++ {
				batch = append(batch, model.Submission{
					ID:                 fmt.Sprintf("pressure-%d", i),
					TeamName:           fmt.Sprintf("team-%d", i),
					ProblemStatementID: "ps-pressure",
					Raw:                uniformRaw(0.5),
				})
			}

			res, err := svc.SubmitBatch(ctx, batch)
			So(err, ShouldBeNil)

			Convey("Then the outcome counts conserve the batch size", func() {
				So(res.Accepted+res.Duplicates+res.Rejected, ShouldEqual, 40)
				So(res.Duplicates, ShouldEqual, 0)
				So(res.Accepted, ShouldBeGreaterThan, 0)
			})

			Convey("And exactly the accepted submissions are committed", func() {
				count := waitForEvaluations(ctx, svc, res.Accepted, 10*time.Second)
				So(count, ShouldEqual, res.Accepted)

				// Settle and confirm nothing extra trickles in
				time.Sleep(50 * time.Millisecond)
				records, err := svc.ListEvaluations(ctx, "")
				So(err, ShouldBeNil)
				So(len(records), ShouldEqual, res.Accepted)
			})

			Convey("And a rejected id can be retried later", func() {
				count := waitForEvaluations(ctx, svc, res.Accepted, 10*time.Second)
				So(count, ShouldEqual, res.Accepted)

				retryRes, err := svc.SubmitBatch(ctx, batch)
				So(err, ShouldBeNil)
				// Committed ids stay duplicates; only the rejected ones
				// are eligible again.
				So(retryRes.Duplicates, ShouldEqual, res.Accepted)
				So(retryRes.Accepted+retryRes.Rejected, ShouldEqual, 40-res.Accepted)
			})
		})

		Convey("When querying a non-existent evaluation", func() {
			_, err := svc.GetEvaluation(ctx, "no-such-id")

			Convey("Then it should return not found", func() {
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When ranking a cohort nobody submitted to", func() {
			entries, err := svc.Rankings(ctx, "ps-empty")

			Convey("Then it yields an empty result, not an error", func() {
				So(err, ShouldBeNil)
				So(entries, ShouldBeEmpty)
			})
		})

		Convey("When aggregating an empty store", func() {
			snap, err := svc.Statistics(ctx, "")

			Convey("Then the snapshot is zero-valued", func() {
				So(err, ShouldBeNil)
				So(snap.Count, ShouldEqual, 0)
				So(snap.MeanPercentage, ShouldEqual, 0)
			})
		})
	})

	Convey("Given a service that is not running", t, func() {
		svc := service.New()

		Convey("When submitting a batch", func() {
			_, err := svc.SubmitBatch(context.Background(), []model.Submission{
				{TeamName: "team", ProblemStatementID: "ps", Raw: uniformRaw(0.5)},
			})

			Convey("Then it reports not started", func() {
				So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
			})
		})
	})
}

func TestServicePerformance(t *testing.T) {
	Convey("Given a service for performance testing", t, func() {
		svc := service.New(
			service.WithWorkerCount(8),
			service.WithQueueSize(10000),
			service.WithDedupeSize(5000),
		)
		defer svc.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		err := svc.Start(ctx)
		So(err, ShouldBeNil)

		Convey("When processing a large number of submissions", func() {
			numSubs := 1000
			batch := make([]model.Submission, 0, numSubs)
			for i := 0; i < numSubs; i++ {
				batch = append(batch, model.Submission{
					ID:                 fmt.Sprintf("perf-%04d", i),
					TeamName:           fmt.Sprintf("team-%d", i%100),
					ProblemStatementID: fmt.Sprintf("ps-%d", i%5),
					Raw:                uniformRaw(float64(i%100) / 100.0),
				})
			}

			start := time.Now()
			res, err := svc.SubmitBatch(ctx, batch)
			submitTime := time.Since(start)

			So(err, ShouldBeNil)
			So(res.Accepted, ShouldEqual, numSubs)

			Convey("Then intake should be fast", func() {
				So(submitTime, ShouldBeLessThan, 5*time.Second)
			})

			Convey("And the workers keep up", func() {
				count := waitForEvaluations(ctx, svc, numSubs, 15*time.Second)
				So(count, ShouldEqual, numSubs)
			})

			Convey("And ranking queries should be fast", func() {
				count := waitForEvaluations(ctx, svc, numSubs, 15*time.Second)
				So(count, ShouldEqual, numSubs)

				qStart := time.Now()
				entries, err := svc.Rankings(ctx, "ps-0")
				queryTime := time.Since(qStart)

				So(err, ShouldBeNil)
				So(len(entries), ShouldEqual, numSubs/5)
				So(queryTime, ShouldBeLessThan, 100*time.Millisecond)
			})

			Convey("And record lookups should be fast", func() {
				count := waitForEvaluations(ctx, svc, numSubs, 15*time.Second)
				So(count, ShouldEqual, numSubs)

				qStart := time.Now()
				rec, err := svc.GetEvaluation(ctx, "perf-0000")
				queryTime := time.Since(qStart)

				So(err, ShouldBeNil)
				So(rec.ID, ShouldEqual, "perf-0000")
				So(queryTime, ShouldBeLessThan, 100*time.Millisecond)
			})
		})
	})
}
