package service

import (
	"context"
	"errors"
	"sync"

	"github.com/peakform/stork/internal/adapters/stream"
	"github.com/peakform/stork/internal/domain/model"
	"github.com/peakform/stork/internal/domain/session"
	"github.com/peakform/stork/pkg/logger"
	"github.com/peakform/stork/pkg/metrics"
)

// runner drives one trial. It is the session's single writer: it drains the
// trial's frame source in order, watches for stream stalls on the wall
// clock, and hands the terminal trial to the analysis queue. Everything the
// API does to a live trial goes through the session's own locking or through
// closing the source; the runner never races itself.
type runner struct {
	svc        *Service
	sess       *session.Session
	trial      model.Trial
	assessment model.Assessment
	source     *stream.PushSource

	ctx     context.Context
	cancel  context.CancelFunc
	release func()
}

func newRunner(svc *Service, sess *session.Session, trial model.Trial, a model.Assessment) *runner {
	ctx, cancel := context.WithCancel(context.Background())
	r := &runner{
		svc:        svc,
		sess:       sess,
		trial:      trial,
		assessment: a,
		source:     stream.NewPushSource(),
		ctx:        ctx,
		cancel:     cancel,
	}

	var once sync.Once
	r.release = func() {
		once.Do(func() {
			_ = r.source.Close()
			r.cancel()
		})
	}
	return r
}

// run is the trial loop. It exits when the session reaches a terminal state,
// when the source closes (abort or service stop), or when the runner context
// is canceled.
func (r *runner) run(ctx context.Context) {
	defer r.svc.runnerDone()

	stale := r.svc.staleTimeout()
	timer := r.svc.clock.NewTimer(stale)
	defer timer.Stop()

	for {
		select {
		case f, ok := <-r.source.Frames():
			if !ok {
				// Aborted from the API, or the service is stopping with
				// the trial still in flight.
				if r.sess.State() == session.StateAborted {
					metrics.RecordTrialCompleted("aborted")
				}
				return
			}
			timer.Reset(stale)

			st, err := r.sess.Ingest(f)
			if err != nil {
				if errors.Is(err, session.ErrOutOfOrder) {
					r.svc.logger.Debug(ctx, "out-of-order frame dropped",
						logger.String("trialID", r.trial.ID),
						logger.Float64("timestamp", f.Timestamp),
					)
				}
				continue
			}
			if st.Terminal() {
				r.complete(ctx)
				return
			}

		case <-timer.C():
			if st, terminal := r.sess.Timeout(); terminal {
				r.svc.logger.Warn(ctx, "frame stream stalled",
					logger.String("trialID", r.trial.ID),
					logger.String("state", string(st)),
				)
				r.complete(ctx)
				return
			}
			// An idle or armed trial survives the stall; keep watching.
			timer.Reset(stale)

		case <-ctx.Done():
			return
		}
	}
}

// complete freezes the trial and hands it to the analysis pipeline. Runs on
// the runner goroutine only, after the session reached a terminal state.
func (r *runner) complete(ctx context.Context) {
	_ = r.source.Close()

	hist, out, ok := r.sess.Result()
	if !ok {
		return
	}
	metrics.RecordTrialCompleted(outcomeLabel(out))

	// Idempotent handoff: a trial ID enters the queue at most once.
	if r.svc.deduper.SeenAndRecord(ctx, r.trial.ID) {
		metrics.RecordJobDuplicate()
		r.svc.logger.Warn(ctx, "trial already handed to analysis, skipping",
			logger.String("trialID", r.trial.ID),
		)
		return
	}

	job := model.AnalysisJob{
		TrialID:       r.trial.ID,
		AssessmentID:  r.trial.AssessmentID,
		AthleteID:     r.assessment.AthleteID,
		Leg:           r.trial.Leg,
		Age:           r.assessment.Age,
		Frames:        hist.Frames,
		ActiveEntry:   hist.ActiveEntry,
		Success:       out.Success,
		FailureReason: out.Reason,
		EndedAt:       out.EndedAt,
	}
	if !r.svc.jobs.Enqueue(ctx, job) {
		// Closed or saturated queue. Unrecord so a replay can try again.
		r.svc.deduper.Unrecord(ctx, r.trial.ID)
		r.svc.logger.Error(ctx, "analysis job rejected by queue",
			logger.String("trialID", r.trial.ID),
		)
		return
	}

	r.svc.logger.Info(ctx, "trial completed",
		logger.String("trialID", r.trial.ID),
		logger.String("leg", string(r.trial.Leg)),
		logger.String("outcome", outcomeLabel(out)),
		logger.Float64("endedAt", out.EndedAt),
	)
}

// outcomeLabel names a terminal outcome for metrics and logs.
func outcomeLabel(o session.Outcome) string {
	if o.Success {
		return "success"
	}
	return string(o.Reason)
}
