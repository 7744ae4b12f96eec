// Package service wires the domain packages into the evaluation
// service that backs the HTTP API.
package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/BhoomiAgrawal12/ppt-Evaluator/internal/adapters/mq/queue"
	"github.com/BhoomiAgrawal12/ppt-Evaluator/internal/adapters/mq/worker"
	"github.com/BhoomiAgrawal12/ppt-Evaluator/internal/adapters/repository"
	"github.com/BhoomiAgrawal12/ppt-Evaluator/internal/domain/criteria"
	"github.com/BhoomiAgrawal12/ppt-Evaluator/internal/domain/dedupe"
	"github.com/BhoomiAgrawal12/ppt-Evaluator/internal/domain/model"
	"github.com/BhoomiAgrawal12/ppt-Evaluator/internal/domain/normalize"
	"github.com/BhoomiAgrawal12/ppt-Evaluator/internal/domain/ranking"
	"github.com/BhoomiAgrawal12/ppt-Evaluator/internal/domain/scoring"
	"github.com/BhoomiAgrawal12/ppt-Evaluator/internal/domain/stats"
	"github.com/BhoomiAgrawal12/ppt-Evaluator/internal/domain/types"
	"github.com/BhoomiAgrawal12/ppt-Evaluator/internal/domain/weights"
	"github.com/BhoomiAgrawal12/ppt-Evaluator/pkg/logger"
	"github.com/BhoomiAgrawal12/ppt-Evaluator/pkg/metrics"
)

// evalAdapter exposes the service's scoring pipeline as the
// worker.Evaluator contract.
type evalAdapter struct {
	svc *Service
}

func (a *evalAdapter) Evaluate(ctx context.Context, sub model.Submission) (model.EvaluationRecord, error) { //nolint:gocritic // hugeParam: Submission must be passed by value for channel semantics
	rec, err := a.svc.evaluate(ctx, sub)
	if errors.Is(err, repository.ErrDuplicateID) {
		// Lost an append race against another submit with the same id.
		// The committed record wins; hand it back so the id stays
		// recorded as seen.
		return a.svc.store.Get(ctx, sub.ID)
	}
	return rec, err
}

// Service implements the API dependencies for the evaluation system.
type Service struct {
	mu sync.RWMutex

	// Core components
	store      repository.Store
	deduper    dedupe.Deduper
	subQueue   queue.Queue
	normalizer *normalize.Normalizer
	scorer     *scoring.CompositeScorer
	workerPool *worker.Pool

	// Configuration
	workerCount    int
	queueSize      int
	dedupeSize     int
	defaultWeights weights.Snapshot
	rules          scoring.Rules

	// State
	ownStore  bool
	started   bool
	startTime time.Time

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore injects an already opened evaluation store. The caller
// keeps ownership and closes it; without this option the service runs
// on an in-memory store it opens and closes itself.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithWeights sets the default weight snapshot applied to submissions
// that do not carry their own.
func WithWeights(w weights.Snapshot) Option {
	return func(s *Service) {
		if !w.IsZero() {
			s.defaultWeights = w
		}
	}
}

// WithRules replaces the stock scoring rules. Invalid rules are ignored.
func WithRules(r scoring.Rules) Option {
	return func(s *Service) {
		if err := r.Validate(); err == nil {
			s.rules = r
		}
	}
}

// WithWorkerCount sets the number of worker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the submission queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the size of the deduplication cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:    runtime.NumCPU(),
		queueSize:      1024,
		dedupeSize:     65536,
		defaultWeights: weights.Default(),
		rules:          scoring.DefaultRules(),
		logger:         nil, // Will be replaced when service starts
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	// Initialize logger if not already set
	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting evaluation service...")

	// Initialize components
	if s.store == nil {
		s.store = repository.NewMemoryStore()
		s.ownStore = true
		s.logger.Info(ctx, "using in-memory store")
	}
	s.deduper = dedupe.NewInMemoryDeduper(
		dedupe.WithMaxSize(s.dedupeSize),
	)
	s.subQueue = queue.NewInMemoryQueue(
		queue.WithCapacity(s.queueSize),
		queue.WithBufferSize(s.queueSize),
	)

	strategies, err := s.rules.Strategies()
	if err != nil {
		return fmt.Errorf("building normalization strategies: %w", err)
	}
	normalizer, err := normalize.New(strategies)
	if err != nil {
		return fmt.Errorf("building normalizer: %w", err)
	}
	s.normalizer = normalizer
	s.scorer = scoring.NewCompositeScorer(scoring.WithRules(s.rules))

	// Create and start worker pool with the evaluation adapter
	s.workerPool = worker.NewPool(s.workerCount, s.subQueue, &evalAdapter{svc: s}, s.deduper)
	s.workerPool.Start(ctx)

	s.started = true
	s.startTime = time.Now()
	s.logger.Info(ctx, "evaluation service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
	)

	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(context.Background(), "stopping evaluation service...")

	// Stop worker pool
	if s.workerPool != nil {
		s.workerPool.Stop()
	}

	// Close queue
	if s.subQueue != nil && !s.subQueue.IsClosed() {
		_ = s.subQueue.Close()
	}

	// Close the store only when the service opened it; a later Start
	// opens a fresh one.
	if s.ownStore && s.store != nil {
		_ = s.store.Close()
		s.store = nil
		s.ownStore = false
	}

	s.started = false
	s.logger.Info(context.Background(), "evaluation service stopped")
}

// Submit scores a submission synchronously and returns the committed
// record. A missing id is filled with a fresh UUID and a zero timestamp
// with the current UTC time, so callers can omit both.
func (s *Service) Submit(ctx context.Context, sub model.Submission) (model.EvaluationRecord, error) { //nolint:gocritic // hugeParam: Submission is passed by value so fills stay local
	if !s.isStarted() {
		return model.EvaluationRecord{}, ErrNotStarted
	}

	if err := validate(sub); err != nil {
		return model.EvaluationRecord{}, err
	}
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	if sub.TS.IsZero() {
		sub.TS = time.Now().UTC()
	}

	rec, err := s.evaluate(ctx, sub)
	if err != nil {
		return model.EvaluationRecord{}, err
	}

	// Prime the deduper so the same id cannot re-enter via the batch
	// path.
	s.deduper.SeenAndRecord(ctx, rec.ID)

	metrics.RecordSubmissionProcessed()
	if rec.Degraded {
		metrics.RecordDegradedEvaluation()
	}

	return rec, nil
}

// SubmitBatch queues submissions for asynchronous evaluation. Rejected
// counts submissions that failed validation or hit queue backpressure;
// duplicates are counted and skipped, never re-queued.
func (s *Service) SubmitBatch(ctx context.Context, subs []model.Submission) (types.BatchResult, error) {
	if !s.isStarted() {
		return types.BatchResult{}, ErrNotStarted
	}

	var res types.BatchResult
	for i := range subs {
		sub := subs[i]
		if err := validate(sub); err != nil {
			res.Rejected++
			continue
		}
		if sub.ID == "" {
			sub.ID = uuid.NewString()
		}
		if sub.TS.IsZero() {
			sub.TS = time.Now().UTC()
		}

		if s.deduper.SeenAndRecord(ctx, sub.ID) {
			s.logger.Debug(ctx, "duplicate submission detected, skipping",
				logger.String("submissionID", sub.ID),
				logger.String("teamName", sub.TeamName),
			)
			metrics.RecordSubmissionDuplicate()
			res.Duplicates++
			continue
		}

		if !s.subQueue.Enqueue(ctx, sub) {
			// Give the id back so the client can retry the submission.
			s.deduper.Unrecord(ctx, sub.ID)
			res.Rejected++
			continue
		}
		res.Accepted++
	}

	metrics.UpdateQueueSize(s.subQueue.Len(ctx))

	return res, nil
}

// GetEvaluation returns the committed record with the given id.
func (s *Service) GetEvaluation(ctx context.Context, id string) (model.EvaluationRecord, error) {
	if !s.isStarted() {
		return model.EvaluationRecord{}, ErrNotStarted
	}
	return s.store.Get(ctx, id)
}

// ListEvaluations returns committed records in insertion order. A
// non-empty problemStatementID restricts the result to that cohort.
func (s *Service) ListEvaluations(ctx context.Context, problemStatementID string) ([]model.EvaluationRecord, error) {
	if !s.isStarted() {
		return nil, ErrNotStarted
	}
	return s.store.List(ctx, problemStatementID)
}

// Rankings returns the ranked cohort for a problem statement. An
// unknown cohort yields an empty slice, not an error.
func (s *Service) Rankings(ctx context.Context, problemStatementID string) ([]types.RankingEntry, error) {
	if !s.isStarted() {
		return nil, ErrNotStarted
	}

	records, err := s.store.List(ctx, problemStatementID)
	if err != nil {
		return nil, err
	}
	return ranking.Rank(records), nil
}

// Statistics aggregates committed records. An empty problem statement
// id aggregates the whole store.
func (s *Service) Statistics(ctx context.Context, problemStatementID string) (types.StatisticsSnapshot, error) {
	if !s.isStarted() {
		return types.StatisticsSnapshot{}, ErrNotStarted
	}

	records, err := s.store.List(ctx, problemStatementID)
	if err != nil {
		return types.StatisticsSnapshot{}, err
	}
	return stats.Aggregate(records), nil
}

// ExportCSV streams every committed record in insertion order. The
// column set and order are a compatibility contract; raw values of
// failed sub-evaluators export as empty cells rather than zeros.
func (s *Service) ExportCSV(ctx context.Context, w io.Writer) error {
	if !s.isStarted() {
		return ErrNotStarted
	}

	records, err := s.store.List(ctx, "")
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)

	header := []string{"id", "team_name", "problem_statement_id", "timestamp"}
	for _, c := range criteria.All() {
		header = append(header, c.String()+"_raw", c.String()+"_normalized")
	}
	header = append(header, "total_score", "normalized_score", "percentage_score", "grade")
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}

	for i := range records {
		rec := &records[i]
		row := []string{
			rec.ID,
			rec.TeamName,
			rec.ProblemStatementID,
			rec.Timestamp.UTC().Format(time.RFC3339),
		}
		for _, c := range criteria.All() {
			raw := ""
			if rs, ok := rec.Raw[c]; ok && rs.Valid {
				raw = formatScore(rs.Value)
			}
			row = append(row, raw, formatScore(rec.Normalized[c]))
		}
		row = append(row,
			formatScore(rec.TotalScore),
			formatScore(rec.NormalizedScore),
			formatScore(rec.PercentageScore),
			rec.Grade,
		)
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing csv row: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing csv: %w", err)
	}
	return nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
	}

	if s.started {
		queueLen := s.subQueue.Len(ctx)
		totalEvaluations := s.store.Count(ctx)

		stats["uptime"] = time.Since(s.startTime).Round(time.Second).String()
		stats["queueLength"] = queueLen
		stats["totalEvaluations"] = totalEvaluations

		// Update metrics
		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateTotalEvaluations(totalEvaluations)
		metrics.UpdateWorkerCount(s.workerCount)
	}

	return stats
}

// Size returns the current number of entries in the deduper.
func (s *Service) Size() int64 {
	if s.deduper == nil {
		return 0
	}
	return s.deduper.Size()
}

// evaluate runs the scoring pipeline for one submission and commits the
// resulting record. It is shared by the synchronous Submit path and the
// queue workers, so both produce byte-identical records.
func (s *Service) evaluate(ctx context.Context, sub model.Submission) (model.EvaluationRecord, error) { //nolint:gocritic // hugeParam: Submission must be passed by value for channel semantics
	w := s.defaultWeights
	if sub.Weights != nil {
		w = *sub.Weights
	}

	normalized, degraded := s.normalizer.Normalize(sub.Raw)

	outcome, err := s.scorer.Score(ctx, scoring.Input{
		Normalized: normalized,
		Weights:    w,
	})
	if err != nil {
		return model.EvaluationRecord{}, fmt.Errorf("scoring submission %s: %w", sub.ID, err)
	}

	rec := model.EvaluationRecord{
		ID:                 sub.ID,
		TeamName:           sub.TeamName,
		ProblemStatementID: sub.ProblemStatementID,
		Timestamp:          sub.TS,
		Raw:                sub.Raw.Clone(),
		Normalized:         normalized,
		Weights:            w,
		TotalScore:         outcome.Total,
		NormalizedScore:    outcome.Normalized,
		PercentageScore:    outcome.Percentage,
		Grade:              outcome.Grade,
		Strengths:          outcome.Strengths,
		Weaknesses:         outcome.Weaknesses,
		Recommendations:    outcome.Recommendations,
		Degraded:           degraded,
	}

	if err := s.store.Append(ctx, rec); err != nil {
		if !errors.Is(err, repository.ErrDuplicateID) {
			metrics.RecordStoreError()
		}
		return model.EvaluationRecord{}, err
	}

	metrics.RecordEvaluationScore(rec.PercentageScore)
	metrics.RecordEvaluationGrade(rec.Grade)
	metrics.UpdateTotalEvaluations(s.store.Count(ctx))

	return rec, nil
}

func (s *Service) isStarted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}

// validate checks the fields the pipeline cannot default. Raw scores
// are allowed to be missing or invalid, that degrades the record
// instead of rejecting it, but unknown criterion keys are a caller bug.
func validate(sub model.Submission) error { //nolint:gocritic // hugeParam: read-only check, kept by value for symmetry with the pipeline
	if sub.TeamName == "" {
		return fmt.Errorf("%w: team_name is required", ErrInvalidSubmission)
	}
	if sub.ProblemStatementID == "" {
		return fmt.Errorf("%w: problem_statement_id is required", ErrInvalidSubmission)
	}
	for c := range sub.Raw {
		if !c.Valid() {
			return fmt.Errorf("%w: unknown criterion %q", ErrInvalidSubmission, c)
		}
	}
	return nil
}

// formatScore renders scores with the shortest round-trip decimal form.
func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
