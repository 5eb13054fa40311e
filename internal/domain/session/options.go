package session

import "github.com/peakform/stork/internal/domain/failure"

// Option applies a configuration option to the Session.
type Option func(*Session)

// WithID sets the session ID instead of generating one.
func WithID(id string) Option {
	return func(s *Session) {
		if id != "" {
			s.id = id
		}
	}
}

// WithAutostart arms the session automatically once the stance is stably
// ready, instead of waiting for an explicit Start.
func WithAutostart(enabled bool) Option {
	return func(s *Session) {
		s.autostart = enabled
	}
}

// WithCountdown sets the armed countdown in seconds of frame time.
func WithCountdown(seconds float64) Option {
	return func(s *Session) {
		if seconds >= 0 {
			s.countdown = seconds
		}
	}
}

// WithMaxDuration sets the hold target in seconds; reaching it completes the
// trial successfully.
func WithMaxDuration(seconds float64) Option {
	return func(s *Session) {
		if seconds > 0 {
			s.maxDuration = seconds
		}
	}
}

// WithVisibilityThreshold sets the minimum landmark confidence used for
// readiness, scale estimation and failure checks.
func WithVisibilityThreshold(threshold float64) Option {
	return func(s *Session) {
		if threshold > 0 && threshold <= 1 {
			s.visibility = threshold
		}
	}
}

// WithReadinessDebounce sets how long the stance must stay visible before
// the session considers it stable.
func WithReadinessDebounce(seconds float64) Option {
	return func(s *Session) {
		if seconds >= 0 {
			s.debounce = seconds
		}
	}
}

// WithThresholds sets the failure-check thresholds.
func WithThresholds(t failure.Thresholds) Option {
	return func(s *Session) {
		s.thresholds = t
	}
}

// WithChecks replaces the failure-check list. Used by tests to isolate
// single rules; the default is the full ordered protocol.
func WithChecks(checks []failure.Check) Option {
	return func(s *Session) {
		if len(checks) > 0 {
			s.checks = checks
		}
	}
}

// WithDefaultScale sets the subject-scale fallback used until the trunk has
// been observed at least once.
func WithDefaultScale(scale float64) Option {
	return func(s *Session) {
		if scale > 0 {
			s.defaultScale = scale
		}
	}
}
