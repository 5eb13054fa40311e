// Package session implements the per-trial balance-test state machine. One
// Session is created per trial attempt (arena-style): it consumes the frame
// stream in order, consults the readiness detector while idle/armed, runs the
// failure checks while active, and freezes its Landmark History the moment a
// terminal state is reached. Concurrent trials never share a Session.
package session

import (
	"sync"

	"github.com/google/uuid"
	"github.com/peakform/stork/internal/domain/failure"
	"github.com/peakform/stork/internal/domain/pose"
	"github.com/peakform/stork/internal/domain/readiness"
)

// State is the lifecycle phase of a trial.
type State string

// Trial states. Aborted is the terminal form of "abort to idle": the session
// object ends and a retry gets a fresh Session.
const (
	StateIdle    State = "idle"
	StateArmed   State = "armed"
	StateActive  State = "active"
	StateSuccess State = "completed_success"
	StateFailure State = "completed_failure"
	StateAborted State = "aborted"
)

// Terminal reports whether no further transitions are possible.
func (s State) Terminal() bool {
	return s == StateSuccess || s == StateFailure || s == StateAborted
}

// Completed reports whether the trial produced a result to analyze. Aborted
// trials never do.
func (s State) Completed() bool {
	return s == StateSuccess || s == StateFailure
}

// Outcome describes how a completed trial ended. EndedAt is the media
// timestamp of the terminal frame (for stream timeouts, of the last frame
// seen).
type Outcome struct {
	Success bool
	Reason  failure.Reason
	EndedAt float64
}

// Default trial parameters.
const (
	defaultCountdownSeconds    = 3.0
	defaultMaxDurationSeconds  = 30.0
	defaultVisibilityThreshold = 0.5
	defaultDebounceSeconds     = 1.0
	defaultSubjectScale        = 0.25
)

// Session owns one trial's lifecycle. Methods are safe for concurrent use so
// an abort or stale-timer can cut in while the runner ingests, but frame
// processing itself is strictly sequential: Ingest holds the session lock for
// the full readiness/failure/transition step.
type Session struct {
	mu sync.Mutex

	id           string
	leg          pose.Leg
	autostart    bool
	countdown    float64
	maxDuration  float64
	visibility   float64
	debounce     float64
	defaultScale float64
	thresholds   failure.Thresholds

	detector *readiness.Detector
	checks   []failure.Check

	state       State
	hist        History
	anchored    bool
	anchor      float64
	supportSet  bool
	supportRef  pose.Point
	scale       float64
	outcome     Outcome
	hint        string
	lastFrameTS float64
	frames      int
}

// Snapshot is a read-only projection of the session for live display. The
// History is a deep copy; mutating it cannot affect the trial.
type Snapshot struct {
	ID                 string
	Leg                pose.Leg
	State              State
	Frames             int
	Elapsed            float64
	CountdownRemaining float64
	Hint               string
	Outcome            Outcome
	History            History
}

// New creates an idle session for the given standing leg.
func New(leg pose.Leg, opts ...Option) (*Session, error) {
	if !leg.Valid() {
		return nil, ErrInvalidLeg
	}
	s := &Session{
		id:           uuid.NewString(),
		leg:          leg,
		countdown:    defaultCountdownSeconds,
		maxDuration:  defaultMaxDurationSeconds,
		visibility:   defaultVisibilityThreshold,
		debounce:     defaultDebounceSeconds,
		defaultScale: defaultSubjectScale,
		state:        StateIdle,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.detector == nil {
		s.detector = readiness.New(
			readiness.WithVisibilityThreshold(s.visibility),
			readiness.WithDebounce(s.debounce),
		)
	}
	if s.checks == nil {
		s.checks = failure.Checks(s.thresholds)
	}
	s.scale = s.defaultScale
	return s, nil
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Leg returns the standing leg under test.
func (s *Session) Leg() pose.Leg { return s.leg }

// State returns the current lifecycle phase.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Start arms an idle session. The countdown begins once the stance is stably
// ready, never blind.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.state.Terminal():
		return ErrTerminal
	case s.state != StateIdle:
		return ErrAlreadyStarted
	}
	s.toArmed()
	return nil
}

// Ingest advances the machine with one frame and returns the state after the
// transition. Frames must arrive in timestamp order.
func (s *Session) Ingest(frame pose.Frame) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Terminal() {
		return s.state, ErrTerminal
	}
	if s.frames > 0 && frame.Timestamp < s.lastFrameTS {
		return s.state, ErrOutOfOrder
	}
	s.frames++
	s.lastFrameTS = frame.Timestamp
	if sc, ok := frame.SubjectScale(s.visibility); ok {
		s.scale = sc
	}

	switch s.state {
	case StateIdle, StateArmed:
		status := s.detector.Observe(frame)
		s.hint = status.Reason
		if s.state == StateIdle {
			if !s.autostart || !status.Ready {
				break
			}
			s.toArmed()
		}
		// Countdown runs only while the stance stays stably ready; losing
		// readiness re-arms rather than starting blind.
		if !status.Ready {
			s.anchored = false
			break
		}
		if !s.anchored {
			s.anchored = true
			s.anchor = frame.Timestamp
		}
		if frame.Timestamp-s.anchor >= s.countdown {
			s.toActive(frame)
		}
	case StateActive:
		s.hist.Frames = append(s.hist.Frames, frame)
		s.advanceActive(frame)
	}
	return s.state, nil
}

// Timeout reports a stream stall to the session. An active trial terminates
// with the distinct stream_timeout reason; idle/armed sessions recover in
// place with a hint, since no protocol was violated yet. The boolean is true
// when the call reached a terminal state.
func (s *Session) Timeout() (State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case StateActive:
		s.finish(Outcome{Reason: failure.StreamTimeout, EndedAt: s.lastFrameTS})
		return s.state, true
	case StateIdle, StateArmed:
		s.hint = "no frames arriving: check the camera"
		s.anchored = false
		s.detector.Reset()
		return s.state, false
	default:
		return s.state, false
	}
}

// Abort discards the trial from any non-terminal state. The history is
// dropped and no Metrics will ever be produced for this session.
func (s *Session) Abort() (State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Terminal() {
		return s.state, false
	}
	s.state = StateAborted
	s.hist = History{}
	s.outcome = Outcome{}
	s.hint = ""
	return s.state, true
}

// Result returns the frozen history and outcome of a completed trial. It
// reports false while the trial is still running and for aborted sessions.
func (s *Session) Result() (History, Outcome, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.state.Completed() {
		return History{}, Outcome{}, false
	}
	return s.hist, s.outcome, true
}

// Snapshot returns a read-only projection for live display.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{
		ID:      s.id,
		Leg:     s.leg,
		State:   s.state,
		Frames:  s.frames,
		Hint:    s.hint,
		Outcome: s.outcome,
		History: s.hist.Clone(),
	}
	switch {
	case s.state == StateActive:
		snap.Elapsed = s.lastFrameTS - s.hist.ActiveEntry
	case s.state.Completed():
		snap.Elapsed = s.outcome.EndedAt - s.hist.ActiveEntry
	}
	if snap.Elapsed < 0 {
		snap.Elapsed = 0
	}
	if s.state == StateArmed && s.anchored {
		if remaining := s.countdown - (s.lastFrameTS - s.anchor); remaining > 0 {
			snap.CountdownRemaining = remaining
		}
	}
	return snap
}

func (s *Session) toArmed() {
	s.state = StateArmed
	s.anchored = false
	s.hint = "get set: countdown starts once the stance is stable"
}

func (s *Session) toActive(frame pose.Frame) {
	s.state = StateActive
	s.hint = ""
	s.hist = History{ActiveEntry: frame.Timestamp, Frames: []pose.Frame{frame}}
	s.supportSet = false
	s.advanceActive(frame)
}

func (s *Session) advanceActive(frame pose.Frame) {
	if frame.Timestamp-s.hist.ActiveEntry >= s.maxDuration {
		s.finish(Outcome{Success: true, EndedAt: frame.Timestamp})
		return
	}
	ref := s.supportRef
	if !s.supportSet {
		if ankle, ok := frame.At(s.leg.Ankle()); ok && ankle.Visibility >= s.visibility {
			s.supportRef = ankle
			s.supportSet = true
		}
		// Until a reference exists the support check compares the ankle to
		// itself; the remaining checks carry their own visibility guards.
		ref = s.supportRef
	}
	sample := failure.Sample{
		Frame:      frame,
		Leg:        s.leg,
		Scale:      s.scale,
		SupportRef: ref,
		Visibility: s.visibility,
	}
	if reason, fired := failure.Evaluate(s.checks, sample); fired {
		s.finish(Outcome{Reason: reason, EndedAt: frame.Timestamp})
	}
}

func (s *Session) finish(o Outcome) {
	if o.Success {
		s.state = StateSuccess
	} else {
		s.state = StateFailure
	}
	s.outcome = o
	s.hint = ""
}
