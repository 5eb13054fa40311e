// Package worker defines worker contracts for asynchronous trial analysis.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/peakform/stork/internal/adapters/mq/queue"
	"github.com/peakform/stork/internal/domain/analysis"
	"github.com/peakform/stork/internal/domain/bilateral"
	"github.com/peakform/stork/internal/domain/model"
	"github.com/peakform/stork/internal/domain/scoring"
	"github.com/peakform/stork/pkg/logger"
	"github.com/peakform/stork/pkg/metrics"
)

// Default worker configuration constants.
const (
	metricsUpdateInterval = 5 * time.Second
	workerShutdownTimeout = 5 * time.Second
	poolShutdownTimeout   = 30 * time.Second
)

// Job abstracts what workers read off the queue.
// Using the model.AnalysisJob type for consistency.
type Job = model.AnalysisJob

// Analyzer computes the metrics block for a finished trial.
type Analyzer interface {
	Compute(ctx context.Context, in analysis.Input) (analysis.Metrics, error)
}

// Scorer grades a hold time against the age tables.
type Scorer interface {
	Score(ctx context.Context, in scoring.Input) (scoring.Result, error)
}

// Store persists trial results and the bilateral comparison.
type Store interface {
	SaveResult(ctx context.Context, r model.TrialResult) error
	ResultsForAssessment(ctx context.Context, assessmentID string) ([]model.TrialResult, error)
	SaveComparison(ctx context.Context, assessmentID string, cmp bilateral.Comparison) (bool, error)
}

// Comparator builds the left/right symmetry report.
type Comparator interface {
	Compare(ctx context.Context, a, b bilateral.Trial) (bilateral.Comparison, error)
}

// Observer is notified as results land.
type Observer interface {
	TrialCompleted(ctx context.Context, r model.TrialResult)
	AssessmentCompleted(ctx context.Context, assessmentID string, cmp bilateral.Comparison)
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Job
}

// Worker processes analysis jobs using the provided interfaces.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown gracefully stops the worker.
	// It will process any remaining jobs before stopping.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker for processing analysis jobs.
type InMemoryWorker struct {
	queue      Queue
	analyzer   Analyzer
	scorer     Scorer
	store      Store
	comparator Comparator
	observer   Observer
	name       string

	// Called after each successfully processed job.
	onProcessed func()

	// Shutdown control
	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	// Logging
	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, analyzer Analyzer, scorer Scorer, store Store, comparator Comparator, observer Observer, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:      q,
		analyzer:   analyzer,
		scorer:     scorer,
		store:      store,
		comparator: comparator,
		observer:   observer,
		name:       "worker", // default name
		shutdown:   make(chan struct{}),
		done:       make(chan struct{}),
		logger:     logger.Get().Named("worker"),
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

	jobChan := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case job, ok := <-jobChan:
			if !ok {
				// Channel closed, worker should stop
				return
			}

			if err := w.processJob(ctx, job); err != nil {
				w.logger.Error(ctx, "error processing job", logger.Error(err))
			}
		}
	}
}

// Shutdown gracefully stops the worker. Safe to call more than once.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	// Signal shutdown
	w.shutdownOnce.Do(func() { close(w.shutdown) })

	// Wait for worker to finish or context to timeout
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// processJob handles a single analysis job: metrics, score, persist, and the
// bilateral comparison once the second leg lands.
func (w *InMemoryWorker) processJob(ctx context.Context, job queue.Job) error {
	// Track overall processing latency
	start := time.Now()
	defer func() {
		latency := time.Since(start).Milliseconds()
		metrics.RecordWorkerProcessingLatency(float64(latency))
	}()

	analysisStart := time.Now()
	m, err := w.analyzer.Compute(ctx, analysis.Input{
		Frames:        job.Frames,
		ActiveEntry:   job.ActiveEntry,
		Success:       job.Success,
		FailureReason: job.FailureReason,
		EndedAt:       job.EndedAt,
	})
	metrics.RecordAnalysisLatency(float64(time.Since(analysisStart).Milliseconds()))

	if err != nil {
		metrics.RecordAnalysisError()
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "analysis_error")
		metrics.RecordErrorByType("analysis_error", "high")
		w.logger.Error(ctx, "analysis failed for trial",
			logger.String("trialID", job.TrialID),
			logger.Error(err),
		)
		return fmt.Errorf("failed to analyze trial %s: %w", job.TrialID, err)
	}

	scoreStart := time.Now()
	score, err := w.scorer.Score(ctx, scoring.Input{HoldTime: m.HoldTime, Age: job.Age})
	metrics.RecordScoringLatency(float64(time.Since(scoreStart).Milliseconds()))

	if err != nil {
		metrics.RecordScoringError()
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "scoring_error")
		metrics.RecordErrorByType("scoring_error", "high")
		w.logger.Error(ctx, "scoring failed for trial",
			logger.String("trialID", job.TrialID),
			logger.Error(err),
		)
		return fmt.Errorf("failed to score trial %s: %w", job.TrialID, err)
	}

	result := model.TrialResult{
		TrialID:      job.TrialID,
		AssessmentID: job.AssessmentID,
		AthleteID:    job.AthleteID,
		Leg:          job.Leg,
		Metrics:      m,
		Score:        score,
		CompletedAt:  time.Now(),
	}

	if err := w.store.SaveResult(ctx, result); err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "store_error")
		metrics.RecordErrorByType("store_error", "high")
		w.logger.Error(ctx, "result save failed for trial",
			logger.String("trialID", job.TrialID),
			logger.Error(err),
		)
		return fmt.Errorf("failed to save result for trial %s: %w", job.TrialID, err)
	}
	metrics.RecordResultSaved()

	if w.observer != nil {
		w.observer.TrialCompleted(ctx, result)
	}

	if err := w.compareWhenComplete(ctx, job.AssessmentID); err != nil {
		return err
	}

	metrics.RecordJobProcessed()
	if w.onProcessed != nil {
		w.onProcessed()
	}

	return nil
}

// compareWhenComplete runs the bilateral comparison once both legs have
// results. Two workers can race here when the legs finish back to back; the
// store's first-save flag picks the single winner that notifies.
func (w *InMemoryWorker) compareWhenComplete(ctx context.Context, assessmentID string) error {
	results, err := w.store.ResultsForAssessment(ctx, assessmentID)
	if err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "store_error")
		metrics.RecordErrorByType("store_error", "high")
		return fmt.Errorf("failed to list results for assessment %s: %w", assessmentID, err)
	}
	if len(results) < 2 {
		return nil
	}

	cmp, err := w.comparator.Compare(ctx,
		bilateral.Trial{Leg: results[0].Leg, Metrics: results[0].Metrics},
		bilateral.Trial{Leg: results[1].Leg, Metrics: results[1].Metrics},
	)
	if err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "comparison_error")
		metrics.RecordErrorByType("comparison_error", "high")
		w.logger.Error(ctx, "comparison failed for assessment",
			logger.String("assessmentID", assessmentID),
			logger.Error(err),
		)
		return fmt.Errorf("failed to compare assessment %s: %w", assessmentID, err)
	}

	first, err := w.store.SaveComparison(ctx, assessmentID, cmp)
	if err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "store_error")
		metrics.RecordErrorByType("store_error", "high")
		return fmt.Errorf("failed to save comparison for assessment %s: %w", assessmentID, err)
	}

	if first {
		metrics.RecordComparisonSaved()
		if w.observer != nil {
			w.observer.AssessmentCompleted(ctx, assessmentID, cmp)
		}
	}

	return nil
}

// Pool manages multiple workers.
type Pool struct {
	workers    []*InMemoryWorker
	queue      Queue
	analyzer   Analyzer
	scorer     Scorer
	store      Store
	comparator Comparator
	observer   Observer

	// Shutdown control
	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	// Metrics tracking
	processedCount    atomic.Int64
	lastProcessedTime time.Time

	// Logging
	logger logger.Logger
}

// NewPool creates a new worker pool. Analysis is CPU bound, so a
// non-positive workerCount falls back to one worker per core.
func NewPool(workerCount int, q Queue, analyzer Analyzer, scorer Scorer, store Store, comparator Comparator, observer Observer) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}

	pool := &Pool{
		workers:           make([]*InMemoryWorker, workerCount),
		queue:             q,
		analyzer:          analyzer,
		scorer:            scorer,
		store:             store,
		comparator:        comparator,
		observer:          observer,
		shutdown:          make(chan struct{}),
		done:              make(chan struct{}),
		lastProcessedTime: time.Now(),
		logger:            logger.Get().Named("worker-pool"),
	}

	for i := 0; i < workerCount; i++ {
		pool.workers[i] = NewInMemoryWorker(
			q,
			analyzer,
			scorer,
			store,
			comparator,
			observer,
			WithName("worker-"+strconv.Itoa(i)),
			WithOnProcessed(pool.RecordProcessedMessage),
		)
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
	now := time.Now()
	timeDiff := now.Sub(p.lastProcessedTime).Seconds()
	if timeDiff > 0 {
		messagesPerSecond := float64(p.processedCount.Swap(0)) / timeDiff
		metrics.UpdateWorkerMessagesPerSecond(messagesPerSecond)
	}
	p.lastProcessedTime = now
}

// RecordProcessedMessage increments the processed message count.
func (p *Pool) RecordProcessedMessage() {
	p.processedCount.Add(1)
}

// Stop stops all workers without draining the queue. Jobs still buffered
// stay there.
func (p *Pool) Stop() {
	// Signal the metrics updater
	p.shutdownOnce.Do(func() { close(p.shutdown) })

	// Stop each worker, bounded per worker
	for _, worker := range p.workers {
		stopCtx, cancel := context.WithTimeout(context.Background(), workerShutdownTimeout)
		if err := worker.Shutdown(stopCtx); err != nil {
			p.logger.Warn(stopCtx, "worker stop timed out")
		}
		cancel()
	}
}

// Shutdown gracefully shuts down the entire worker pool, draining buffered
// jobs first.
func (p *Pool) Shutdown(ctx context.Context) error {
	// First close the queue so workers exit once it is drained
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	// Signal the metrics updater
	p.shutdownOnce.Do(func() { close(p.shutdown) })

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
