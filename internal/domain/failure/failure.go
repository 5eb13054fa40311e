// Package failure implements the protocol-violation checks evaluated once
// per frame while a trial is active. Checks run in a fixed priority order and
// the first firing check ends the trial; there is deliberately no debounce,
// so a single qualifying frame is terminal.
package failure

import "github.com/peakform/stork/internal/domain/pose"

// Reason identifies why a trial ended without completing.
type Reason string

// Terminal failure reasons. StreamTimeout is raised by the session runner
// when frames stop arriving, not by a per-frame check.
const (
	FootTouchdown    Reason = "foot_touchdown"
	HandsLeftHips    Reason = "hands_left_hips"
	SupportFootMoved Reason = "support_foot_moved"
	StreamTimeout    Reason = "stream_timeout"
)

// Default thresholds in subject-scale units (fractions of trunk length).
const (
	defaultTouchdownEpsilon = 0.20
	defaultHandsOff         = 0.60
	defaultSupportMove      = 0.30
	defaultVisibility       = 0.5
)

// Sample is the per-frame evidence a check inspects. Distances are
// normalized by Scale, the subject's trunk length in image units, so camera
// distance and subject size do not bias detection.
type Sample struct {
	Frame pose.Frame
	// Leg is the standing/support side; the raised foot is the opposite.
	Leg pose.Leg
	// Scale is the current subject-scale estimate, always > 0.
	Scale float64
	// SupportRef is the standing ankle position captured at active entry.
	SupportRef pose.Point
	// Visibility is the minimum landmark confidence for a check to engage;
	// a check whose landmarks are not tracked well enough stays silent.
	Visibility float64
}

// Check is a single protocol rule.
type Check interface {
	// Reason names the failure this check reports.
	Reason() Reason
	// Fires reports whether the rule is violated in this sample.
	Fires(s Sample) bool
}

// Thresholds carries the calibrated limits for the three checks, in
// subject-scale units. Zero fields fall back to the package defaults.
type Thresholds struct {
	TouchdownEpsilon float64
	HandsOff         float64
	SupportMove      float64
}

func (t Thresholds) withDefaults() Thresholds {
	if t.TouchdownEpsilon <= 0 {
		t.TouchdownEpsilon = defaultTouchdownEpsilon
	}
	if t.HandsOff <= 0 {
		t.HandsOff = defaultHandsOff
	}
	if t.SupportMove <= 0 {
		t.SupportMove = defaultSupportMove
	}
	return t
}

// Checks returns the protocol rules in their fixed evaluation order:
// foot touchdown, hands leaving hips, support-foot displacement.
func Checks(t Thresholds) []Check {
	t = t.withDefaults()
	return []Check{
		NewFootTouchdown(t.TouchdownEpsilon),
		NewHandsOnHips(t.HandsOff),
		NewSupportFoot(t.SupportMove),
	}
}

// Evaluate runs the checks in order and returns the first firing reason.
func Evaluate(checks []Check, s Sample) (Reason, bool) {
	if s.Visibility <= 0 {
		s.Visibility = defaultVisibility
	}
	for _, c := range checks {
		if c.Fires(s) {
			return c.Reason(), true
		}
	}
	return "", false
}
