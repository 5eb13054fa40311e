package service

import (
	"context"

	"github.com/peakform/stork/internal/domain/bilateral"
	"github.com/peakform/stork/internal/domain/model"
	"github.com/peakform/stork/internal/domain/types"
	"github.com/peakform/stork/pkg/logger"
)

// Observer receives the completion events of the assessment flow. The
// payloads are the same wire documents the HTTP API serves: numeric results
// only, never raw landmark data. Implementations must be safe for concurrent
// use; workers invoke them directly.
type Observer interface {
	// TrialCompleted fires after a trial's result is persisted.
	TrialCompleted(ctx context.Context, r types.TrialResult)

	// AssessmentCompleted fires exactly once per assessment, after the
	// bilateral comparison is persisted.
	AssessmentCompleted(ctx context.Context, r types.AssessmentResult)
}

// loggingObserver is the default Observer: it reports completions to the log
// and nothing else.
type loggingObserver struct {
	logger logger.Logger
}

func (o *loggingObserver) TrialCompleted(ctx context.Context, r types.TrialResult) {
	o.logger.Info(ctx, "trial result ready",
		logger.String("trialID", r.TrialID),
		logger.String("leg", string(r.Leg)),
		logger.Float64("holdTime", r.Metrics.HoldTime),
		logger.Int("durationScore", r.DurationScore),
		logger.String("label", r.DurationLabel),
	)
}

func (o *loggingObserver) AssessmentCompleted(ctx context.Context, r types.AssessmentResult) {
	fields := []logger.Field{
		logger.String("assessmentID", r.AssessmentID),
		logger.String("athleteID", r.AthleteID),
	}
	if r.Comparison != nil {
		fields = append(fields,
			logger.Int("symmetryScore", r.Comparison.OverallSymmetryScore),
			logger.String("symmetry", r.Comparison.SymmetryAssessment),
			logger.String("dominantLeg", string(r.Comparison.DominantLeg)),
		)
	}
	o.logger.Info(ctx, "assessment completed", fields...)
}

// workerObserver adapts pool notifications, which speak the storage model,
// to the service Observer, which speaks wire documents.
type workerObserver struct {
	svc *Service
}

func (o *workerObserver) TrialCompleted(ctx context.Context, r model.TrialResult) {
	o.svc.observer.TrialCompleted(ctx, toWireResult(r))
}

// The comparison argument is already inside the aggregate; the refetch keeps
// the event payload identical to what GET /assessments/{id} would serve.
func (o *workerObserver) AssessmentCompleted(ctx context.Context, assessmentID string, _ bilateral.Comparison) {
	agg, err := o.svc.AssessmentResult(ctx, assessmentID)
	if err != nil {
		o.svc.logger.Warn(ctx, "assessment aggregate unavailable for notification",
			logger.String("assessmentID", assessmentID),
			logger.Error(err),
		)
		return
	}
	o.svc.observer.AssessmentCompleted(ctx, agg)
}
