// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
//
// The service owns the live trials: each started trial gets a frame source
// and a runner goroutine, and every terminal trial is handed to the worker
// pool for analysis. Everything downstream of the runner works on frozen
// copies, so the hot path never shares mutable state.
package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	jobqueue "github.com/peakform/stork/internal/adapters/mq/queue"
	workerpool "github.com/peakform/stork/internal/adapters/mq/worker"
	repository "github.com/peakform/stork/internal/adapters/repository"
	"github.com/peakform/stork/internal/config"
	"github.com/peakform/stork/internal/domain/analysis"
	"github.com/peakform/stork/internal/domain/bilateral"
	"github.com/peakform/stork/internal/domain/dedupe"
	"github.com/peakform/stork/internal/domain/scoring"
	"github.com/peakform/stork/pkg/logger"
	"github.com/peakform/stork/pkg/metrics"
	"github.com/peakform/stork/pkg/timeutil"
)

// Service implements the API dependencies for the balance assessment system.
type Service struct {
	mu sync.RWMutex

	// Core components
	store      repository.Store
	deduper    dedupe.Deduper
	jobs       jobqueue.Queue
	analyzer   *analysis.Calculator
	scorer     scoring.Scorer
	comparator *bilateral.Comparator
	workerPool *workerpool.Pool

	// Live trial runners keyed by trial ID. Entries stay after the trial
	// finishes so status reads keep answering; a settled session is tiny.
	runners  map[string]*runner
	runnerWG sync.WaitGroup
	active   atomic.Int64

	// Configuration
	cfg *config.Config

	// State
	started bool
	stopCh  chan struct{}

	clock    timeutil.Clock
	observer Observer

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithConfig replaces the whole configuration. The config is copied, so
// later options and service internals never mutate the caller's value.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		if cfg != nil {
			c := *cfg
			s.cfg = &c
		}
	}
}

// WithWorkerCount sets the number of analysis workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.cfg.WorkerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the analysis job queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.cfg.QueueSize = size
		}
	}
}

// WithDedupeSize sets the size of the deduplication cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.cfg.DedupeSize = size
		}
	}
}

// WithStaleTimeout sets the wall-clock gap after which a silent frame
// stream is declared dead.
func WithStaleTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.cfg.StaleTimeoutSeconds = d.Seconds()
		}
	}
}

// WithClock sets the wall clock used for stale-stream timers and record
// timestamps. Tests inject a mock clock here.
func WithClock(c timeutil.Clock) Option {
	return func(s *Service) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithObserver sets the receiver for completed-trial and completed-assessment
// events. The default observer logs them.
func WithObserver(o Observer) Option {
	return func(s *Service) {
		if o != nil {
			s.observer = o
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
		cfg:     config.New(),
		runners: make(map[string]*runner),
		clock:   timeutil.RealClock{},
		stopCh:  make(chan struct{}),
		logger:  nil, // Will be replaced when service starts
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
	if s.observer == nil {
		s.observer = &loggingObserver{logger: s.logger.Named("observer")}
	}

	s.logger.Info(ctx, "starting balance assessment service...")

	// Initialize components
	s.store = repository.NewMemStore()
	s.deduper = dedupe.NewInMemoryDeduper(
		dedupe.WithMaxSize(s.cfg.DedupeSize),
	)
	s.jobs = jobqueue.NewInMemoryQueue(
		jobqueue.WithCapacity(s.cfg.QueueSize),
		jobqueue.WithBufferSize(s.cfg.QueueSize),
	)
	s.analyzer = analysis.New(
		analysis.WithMaxDuration(s.cfg.MaxDurationSeconds),
		analysis.WithVisibilityThreshold(s.cfg.VisibilityThreshold),
		analysis.WithCorrectionThreshold(s.cfg.CorrectionThreshold),
		analysis.WithSegmentSeconds(s.cfg.SegmentSeconds),
		analysis.WithDefaultScale(s.cfg.DefaultSubjectScale),
		analysis.WithFlapping(s.cfg.FlapWindowSeconds, s.cfg.FlapMinHz, s.cfg.FlapMinAmplitudeDeg),
		analysis.WithCorrectionBurst(s.cfg.BurstWindowSeconds, s.cfg.BurstMinCount),
		analysis.WithStabilization(s.cfg.CalmVelocity, s.cfg.CalmSustainSeconds),
	)
	s.scorer = scoring.NewTierScorer(
		scoring.WithExpectations(s.cfg.AgeExpectations),
	)
	s.comparator = bilateral.New(
		bilateral.WithArmDenominator(s.cfg.ArmSymmetryDenominatorDeg),
		bilateral.WithCorrectionsDenominator(s.cfg.CorrectionsSymmetryDenominator),
		bilateral.WithDominanceThreshold(s.cfg.DominanceThresholdPct),
		bilateral.WithWeights(bilateral.Weights{
			Duration:    s.cfg.SymmetryWeights["duration"],
			Sway:        s.cfg.SymmetryWeights["sway"],
			Arm:         s.cfg.SymmetryWeights["arm"],
			Corrections: s.cfg.SymmetryWeights["corrections"],
		}),
	)

	// Create and start the worker pool. The pool reports completions in
	// storage terms; workerObserver turns them into wire documents.
	s.workerPool = workerpool.NewPool(s.cfg.WorkerCount, s.jobs, s.analyzer, s.scorer, s.store, s.comparator, &workerObserver{svc: s})
	s.workerPool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "balance assessment service started",
		logger.Int("workers", s.cfg.WorkerCount),
		logger.Int("queueSize", s.cfg.QueueSize),
		logger.Int("dedupeSize", s.cfg.DedupeSize),
		logger.Float64("staleTimeoutSeconds", s.cfg.StaleTimeoutSeconds),
	)

	return nil
}

// Stop gracefully shuts down the service. Live trials are cut off: their
// sources close, the runners drain out, and nothing new reaches the queue.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.logger.Info(context.Background(), "stopping balance assessment service...")

	runners := make([]*runner, 0, len(s.runners))
	for _, r := range s.runners {
		runners = append(runners, r)
	}
	s.mu.Unlock()

	// Release every runner before touching the pool so in-flight
	// completions still reach the queue.
	for _, r := range runners {
		r.release()
	}
	s.runnerWG.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()

	// Stop worker pool
	if s.workerPool != nil {
		s.workerPool.Stop()
	}

	// Close queue
	if q, ok := s.jobs.(*jobqueue.InMemoryQueue); ok {
		_ = q.Close()
	}

	// Signal cleanup loop to stop
	select {
	case <-s.stopCh:
		// Channel already closed
	default:
		close(s.stopCh)
	}

	s.started = false
	s.logger.Info(context.Background(), "balance assessment service stopped")
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.cfg.WorkerCount,
		"queueSize":   s.cfg.QueueSize,
		"dedupeSize":  s.cfg.DedupeSize,
	}

	if s.started {
		queueLen := s.jobs.Len(ctx)
		activeTrials := int(s.active.Load())

		stats["queueLength"] = queueLen
		stats["activeTrials"] = activeTrials
		stats["dedupeEntries"] = s.deduper.Size()
		for k, v := range s.store.Stats(ctx) {
			stats[k] = v
		}

		// Update metrics
		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateActiveTrials(activeTrials)
	}

	return stats
}

// runner returns the live runner for a trial, or nil for unknown IDs.
func (s *Service) runner(trialID string) *runner {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.runners[trialID]
}

// staleTimeout converts the configured stall window to a duration.
func (s *Service) staleTimeout() time.Duration {
	return time.Duration(s.cfg.StaleTimeoutSeconds * float64(time.Second))
}

// runnerLaunched and runnerDone bracket a runner goroutine's lifetime. They
// must not take the service mutex: Stop waits on the runner group.
func (s *Service) runnerLaunched() {
	s.runnerWG.Add(1)
	metrics.UpdateActiveTrials(int(s.active.Add(1)))
}

func (s *Service) runnerDone() {
	metrics.UpdateActiveTrials(int(s.active.Add(-1)))
	s.runnerWG.Done()
}
