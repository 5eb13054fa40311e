package service

import (
	"context"

	"github.com/google/uuid"

	repository "github.com/peakform/stork/internal/adapters/repository"
	"github.com/peakform/stork/internal/domain/analysis"
	"github.com/peakform/stork/internal/domain/failure"
	"github.com/peakform/stork/internal/domain/model"
	"github.com/peakform/stork/internal/domain/pose"
	"github.com/peakform/stork/internal/domain/session"
	"github.com/peakform/stork/internal/domain/types"
	"github.com/peakform/stork/pkg/logger"
)

// CreateAssessment registers an athlete for a two-leg assessment. An empty
// athlete ID gets a synthetic one; walk-in athletes are a normal case.
func (s *Service) CreateAssessment(ctx context.Context, athleteID string, age int) (types.Assessment, error) {
	if athleteID == "" {
		athleteID = uuid.NewString()
	}

	a := model.Assessment{
		ID:        uuid.NewString(),
		AthleteID: athleteID,
		Age:       age,
		CreatedAt: s.clock.Now().UTC(),
	}
	if err := s.store.CreateAssessment(ctx, a); err != nil {
		return types.Assessment{}, err
	}

	s.logger.Info(ctx, "assessment registered",
		logger.String("assessmentID", a.ID),
		logger.String("athleteID", a.AthleteID),
		logger.Int("age", a.Age),
	)
	return types.Assessment{
		AssessmentID: a.ID,
		AthleteID:    a.AthleteID,
		Age:          a.Age,
		CreatedAt:    a.CreatedAt,
	}, nil
}

// StartTrial registers a trial for one leg and launches its runner. With
// autostart the session arms itself once the stance is stably visible;
// otherwise this call is the explicit start and the session arms now. Either
// way the countdown waits for a stable stance.
func (s *Service) StartTrial(ctx context.Context, assessmentID string, leg pose.Leg, autostart bool) (types.TrialStatus, error) {
	a, err := s.store.Assessment(ctx, assessmentID)
	if err != nil {
		return types.TrialStatus{}, err
	}

	sess, err := session.New(leg,
		session.WithAutostart(autostart),
		session.WithCountdown(s.cfg.CountdownSeconds),
		session.WithMaxDuration(s.cfg.MaxDurationSeconds),
		session.WithVisibilityThreshold(s.cfg.VisibilityThreshold),
		session.WithReadinessDebounce(s.cfg.ReadinessDebounceSeconds),
		session.WithDefaultScale(s.cfg.DefaultSubjectScale),
		session.WithThresholds(failure.Thresholds{
			TouchdownEpsilon: s.cfg.TouchdownEpsilon,
			HandsOff:         s.cfg.HandsOffThreshold,
			SupportMove:      s.cfg.SupportMoveThreshold,
		}),
	)
	if err != nil {
		return types.TrialStatus{}, err
	}

	trial := model.Trial{
		ID:           sess.ID(),
		AssessmentID: a.ID,
		Leg:          leg,
		CreatedAt:    s.clock.Now().UTC(),
	}
	if err := s.store.AddTrial(ctx, trial); err != nil {
		return types.TrialStatus{}, err
	}

	if !autostart {
		_ = sess.Start()
	}

	r := newRunner(s, sess, trial, a)
	s.mu.Lock()
	s.runners[trial.ID] = r
	s.mu.Unlock()

	s.runnerLaunched()
	go r.run(r.ctx)

	s.logger.Info(ctx, "trial started",
		logger.String("trialID", trial.ID),
		logger.String("assessmentID", a.ID),
		logger.String("leg", string(leg)),
		logger.Bool("autostart", autostart),
	)
	return s.trialStatus(ctx, r, false), nil
}

// PushFrames feeds a batch of frames to a trial's stream. The ack reports
// how many frames entered the source and the state observed afterwards; a
// finished trial acknowledges with Done and accepts nothing.
func (s *Service) PushFrames(ctx context.Context, trialID string, frames []pose.Frame) (types.FrameAck, error) {
	r := s.runner(trialID)
	if r == nil {
		return types.FrameAck{}, repository.ErrNotFound
	}

	if st := r.sess.State(); st.Terminal() {
		return types.FrameAck{TrialID: trialID, State: string(st), Done: true}, nil
	}

	accepted := 0
	for _, f := range frames {
		if !r.source.Push(ctx, f) {
			break
		}
		accepted++
	}

	st := r.sess.State()
	return types.FrameAck{
		TrialID:  trialID,
		Accepted: accepted,
		State:    string(st),
		Done:     st.Terminal(),
	}, nil
}

// AbortTrial discards a trial from any non-terminal state. Aborting a
// finished trial is a no-op that reports the terminal state.
func (s *Service) AbortTrial(ctx context.Context, trialID string) (types.TrialStatus, error) {
	r := s.runner(trialID)
	if r == nil {
		return types.TrialStatus{}, repository.ErrNotFound
	}

	if _, changed := r.sess.Abort(); changed {
		// Closing the source drains the runner; its exit path records the
		// aborted outcome.
		_ = r.source.Close()
		s.logger.Info(ctx, "trial aborted", logger.String("trialID", trialID))
	}
	return s.trialStatus(ctx, r, false), nil
}

// TrialStatus returns the live view of a trial, with preview metrics while
// the hold is in progress.
func (s *Service) TrialStatus(ctx context.Context, trialID string) (types.TrialStatus, error) {
	r := s.runner(trialID)
	if r == nil {
		return types.TrialStatus{}, repository.ErrNotFound
	}
	return s.trialStatus(ctx, r, true), nil
}

// TrialResult returns the analyzed result of a trial. It reports
// repository.ErrNotFound until the workers have persisted one.
func (s *Service) TrialResult(ctx context.Context, trialID string) (types.TrialResult, error) {
	r, err := s.store.Result(ctx, trialID)
	if err != nil {
		return types.TrialResult{}, err
	}
	return toWireResult(r), nil
}

// AssessmentResult aggregates whatever the assessment has produced so far:
// per-leg results as they land and the bilateral comparison once both legs
// have been analyzed.
func (s *Service) AssessmentResult(ctx context.Context, assessmentID string) (types.AssessmentResult, error) {
	a, err := s.store.Assessment(ctx, assessmentID)
	if err != nil {
		return types.AssessmentResult{}, err
	}
	results, err := s.store.ResultsForAssessment(ctx, assessmentID)
	if err != nil {
		return types.AssessmentResult{}, err
	}

	agg := types.AssessmentResult{
		AssessmentID: a.ID,
		AthleteID:    a.AthleteID,
		Age:          a.Age,
	}
	for _, r := range results {
		wire := toWireResult(r)
		switch r.Leg {
		case pose.LegLeft:
			agg.Left = &wire
		case pose.LegRight:
			agg.Right = &wire
		}
	}
	if cmp, err := s.store.Comparison(ctx, assessmentID); err == nil {
		agg.Comparison = &cmp
	}
	agg.Complete = agg.Left != nil && agg.Right != nil && agg.Comparison != nil
	return agg, nil
}

// trialStatus projects a runner's session into the wire document. The
// preview runs the same calculator that produces the final metrics, over the
// history captured so far; clients never compute their own numbers.
func (s *Service) trialStatus(ctx context.Context, r *runner, withPreview bool) types.TrialStatus {
	snap := r.sess.Snapshot()
	st := types.TrialStatus{
		TrialID:            snap.ID,
		AssessmentID:       r.trial.AssessmentID,
		Leg:                snap.Leg,
		State:              string(snap.State),
		FramesSeen:         snap.Frames,
		Elapsed:            snap.Elapsed,
		CountdownRemaining: snap.CountdownRemaining,
		Hint:               snap.Hint,
	}
	if !withPreview || snap.State != session.StateActive || len(snap.History.Frames) == 0 {
		return st
	}

	m, err := s.analyzer.Compute(ctx, analysis.Input{
		Frames:      snap.History.Frames,
		ActiveEntry: snap.History.ActiveEntry,
		Success:     true,
		EndedAt:     snap.History.ActiveEntry + snap.Elapsed,
	})
	if err != nil {
		s.logger.Warn(ctx, "preview computation failed",
			logger.String("trialID", snap.ID),
			logger.Error(err),
		)
		return st
	}
	st.Preview = &m
	return st
}

// toWireResult converts a stored trial result to its wire document.
func toWireResult(r model.TrialResult) types.TrialResult {
	return types.TrialResult{
		TrialID:        r.TrialID,
		AssessmentID:   r.AssessmentID,
		AthleteID:      r.AthleteID,
		Leg:            r.Leg,
		Metrics:        r.Metrics,
		DurationScore:  r.Score.Score,
		DurationLabel:  r.Score.Label,
		AgeExpectation: r.Score.AgeExpectation,
		CompletedAt:    r.CompletedAt,
	}
}
