// Package worker defines worker contracts for asynchronous evaluation
// of queued submissions.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/BhoomiAgrawal12/ppt-Evaluator/internal/adapters/mq/queue"
	"github.com/BhoomiAgrawal12/ppt-Evaluator/internal/domain/model"
	"github.com/BhoomiAgrawal12/ppt-Evaluator/pkg/logger"
	"github.com/BhoomiAgrawal12/ppt-Evaluator/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultWorkerMultiplier = 4 // multiplier for runtime.NumCPU()
	metricsUpdateInterval   = 5 * time.Second
	workerShutdownTimeout   = 5 * time.Second
	poolShutdownTimeout     = 30 * time.Second
)

// Submission abstracts what workers read off the queue.
// Using the model.Submission type for consistency.
type Submission = model.Submission

// Evaluator scores a submission and commits the resulting record.
type Evaluator interface {
	Evaluate(ctx context.Context, sub Submission) (model.EvaluationRecord, error)
}

// Tracker forgets a submission ID whose evaluation failed, so the
// client can retry it without tripping duplicate detection.
type Tracker interface {
	Unrecord(ctx context.Context, id string)
}

// Queue defines how workers receive submissions.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Submission
}

// Worker processes submissions and commits evaluation records using the
// provided interfaces.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown gracefully stops the worker.
	// It will process any remaining submissions before stopping.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker for processing submissions.
type InMemoryWorker struct {
	queue     Queue
	evaluator Evaluator
	tracker   Tracker
	name      string

	// Called after each successful evaluation; set by the pool to feed
	// its throughput counter.
	onProcessed func()

	// Shutdown control
	shutdown chan struct{}
	done     chan struct{}

	// Logging
	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(queue Queue, evaluator Evaluator, tracker Tracker, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:     queue,
		evaluator: evaluator,
		tracker:   tracker,
		name:      "worker", // default name
		shutdown:  make(chan struct{}),
		done:      make(chan struct{}),
		logger:    logger.Get().Named("worker"), // will be updated by options
	}

	// Apply all options
	for _, opt := range opts {
		opt(w)
	}

	// Set up logger with worker name if not already set
	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}

	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer func() {
		close(w.done)
	}()

	subChan := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case sub, ok := <-subChan:
			if !ok {
				// Channel closed, worker should stop
				return
			}

			// Process the submission
			if err := w.processSubmission(ctx, sub); err != nil {
				w.logger.Error(ctx, "error processing submission", logger.Error(err))
			}
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	// Signal shutdown
	close(w.shutdown)

	// Wait for worker to finish or context to timeout
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// processSubmission handles a single submission.
func (w *InMemoryWorker) processSubmission(ctx context.Context, sub queue.Submission) error { //nolint:gocritic // hugeParam: Submission must be passed by value for channel semantics
	// Track overall processing latency
	start := time.Now()
	defer func() {
		latency := time.Since(start).Milliseconds()
		metrics.RecordWorkerProcessingLatency(float64(latency))
	}()

	// Track evaluation latency separately from queue overhead
	evalStart := time.Now()
	record, err := w.evaluator.Evaluate(ctx, sub)
	evalLatency := time.Since(evalStart).Milliseconds()

	metrics.RecordScoringLatency(float64(evalLatency))

	if err != nil {
		metrics.RecordScoringError()
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "evaluation_error")
		metrics.RecordErrorByType("evaluation_error", "high")
		w.logger.Error(ctx, "evaluation failed for submission",
			logger.String("submissionID", sub.ID),
			logger.Error(err),
		)
		// Forget the ID so the client can retry the submission.
		w.tracker.Unrecord(ctx, sub.ID)
		return fmt.Errorf("failed to evaluate submission %s: %w", sub.ID, err)
	}

	metrics.RecordSubmissionProcessed()
	if record.Degraded {
		metrics.RecordDegradedEvaluation()
	}
	if w.onProcessed != nil {
		w.onProcessed()
	}

	return nil
}

// Pool manages multiple workers.
type Pool struct {
	workers   []*InMemoryWorker
	queue     Queue
	evaluator Evaluator
	tracker   Tracker

	// Shutdown control
	shutdown chan struct{}
	done     chan struct{}

	// Metrics tracking
	processedCount    int64
	lastProcessedTime time.Time

	// Logging
	logger logger.Logger
}

// NewPool creates a new worker pool.
func NewPool(workerCount int, queue Queue, evaluator Evaluator, tracker Tracker) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU() * defaultWorkerMultiplier
	}

	pool := &Pool{
		workers:           make([]*InMemoryWorker, workerCount),
		queue:             queue,
		evaluator:         evaluator,
		tracker:           tracker,
		shutdown:          make(chan struct{}),
		done:              make(chan struct{}),
		lastProcessedTime: time.Now(),
		logger:            logger.Get().Named("worker-pool"),
	}

	for i := 0; i < workerCount; i++ {
		pool.workers[i] = NewInMemoryWorker(
			queue,
			evaluator,
			tracker,
			WithName("worker-"+strconv.Itoa(i)),
		)
		pool.workers[i].onProcessed = pool.RecordProcessedMessage
	}

	// Initialize worker metrics
	metrics.UpdateWorkerActiveCount(workerCount)
	metrics.UpdateWorkerIdleCount(0)
	metrics.UpdateWorkerMessagesPerSecond(0.0)

	return pool
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, worker := range p.workers {
		go worker.Run(ctx)
	}

	// Start metrics updater
	go p.startMetricsUpdater(ctx)
}

// startMetricsUpdater starts a background goroutine that updates worker metrics.
func (p *Pool) startMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(metricsUpdateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.shutdown:
			return
		case <-ticker.C:
			p.updateMetrics()
		}
	}
}

// updateMetrics updates worker-related metrics.
func (p *Pool) updateMetrics() {
	// Calculate messages per second over the elapsed window
	now := time.Now()
	timeDiff := now.Sub(p.lastProcessedTime).Seconds()
	processed := atomic.SwapInt64(&p.processedCount, 0)
	if timeDiff > 0 {
		messagesPerSecond := float64(processed) / timeDiff
		metrics.UpdateWorkerMessagesPerSecond(messagesPerSecond)
	}
	p.lastProcessedTime = now
}

// RecordProcessedMessage increments the processed message count.
func (p *Pool) RecordProcessedMessage() {
	atomic.AddInt64(&p.processedCount, 1)
}

// Stop gracefully stops all workers.
func (p *Pool) Stop() {
	// Signal shutdown to all workers
	close(p.shutdown)

	// Wait for all workers to finish
	for _, worker := range p.workers {
		select {
		case <-worker.done:
			// Worker finished
		case <-time.After(workerShutdownTimeout):
			// Worker timeout
		}
	}
}

// Shutdown gracefully shuts down the entire worker pool.
func (p *Pool) Shutdown(ctx context.Context) error {
	// First close the queue to stop new submissions
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	// Signal shutdown to all workers
	close(p.shutdown)

	// Wait for all workers to finish or context to timeout
	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, worker := range p.workers {
		select {
		case <-worker.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}

	return nil
}
