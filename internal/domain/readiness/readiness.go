// Package readiness gates trial start on a stable, fully tracked stance.
// Both hips and both ankles must hold the visibility threshold for a debounce
// window of consecutive frames before the detector reports ready, so a single
// flickering landmark can never trigger a start.
package readiness

import (
	"fmt"

	"github.com/peakform/stork/internal/domain/pose"
)

// Default detection parameters.
const (
	defaultVisibilityThreshold = 0.5
	defaultDebounceSeconds     = 1.0
)

// Option applies a configuration option to the Detector.
type Option func(*Detector)

// WithVisibilityThreshold sets the minimum landmark confidence.
func WithVisibilityThreshold(threshold float64) Option {
	return func(d *Detector) {
		if threshold > 0 && threshold <= 1 {
			d.visibility = threshold
		}
	}
}

// WithDebounce sets how long, in seconds of frame time, the stance must stay
// fully visible before the detector reports ready.
func WithDebounce(seconds float64) Option {
	return func(d *Detector) {
		if seconds >= 0 {
			d.debounce = seconds
		}
	}
}

// Status is the detector's verdict for one frame.
type Status struct {
	Ready bool
	// Reason carries the reposition hint while not ready.
	Reason string
}

// Detector tracks stance visibility across consecutive frames. It is not
// safe for concurrent use; each trial session owns exactly one.
type Detector struct {
	visibility  float64
	debounce    float64
	streak      bool
	stableSince float64
}

// New creates a Detector with the given options.
func New(opts ...Option) *Detector {
	d := &Detector{
		visibility: defaultVisibilityThreshold,
		debounce:   defaultDebounceSeconds,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Observe consumes one frame and reports whether the stance is stably ready.
// Losing any stance landmark resets the debounce streak.
func (d *Detector) Observe(frame pose.Frame) Status {
	name, ok := frame.FirstMissing(d.visibility, pose.StanceLandmarks...)
	if !ok {
		d.streak = false
		return Status{Reason: fmt.Sprintf("%s not visible: reposition in frame", name)}
	}
	if !d.streak {
		d.streak = true
		d.stableSince = frame.Timestamp
	}
	if frame.Timestamp-d.stableSince >= d.debounce {
		return Status{Ready: true}
	}
	return Status{Reason: "stance detected: hold still"}
}

// Reset clears any accumulated streak, e.g. after a re-arm.
func (d *Detector) Reset() {
	d.streak = false
	d.stableSince = 0
}
