package analysis

// Option applies a configuration option to the Calculator.
type Option func(*Calculator)

// WithMaxDuration sets the hold target used to clamp holdTime, in seconds.
func WithMaxDuration(seconds float64) Option {
	return func(c *Calculator) {
		if seconds > 0 {
			c.maxDuration = seconds
		}
	}
}

// WithVisibilityThreshold sets the minimum landmark confidence for a frame
// to contribute to sway and arm math.
func WithVisibilityThreshold(threshold float64) Option {
	return func(c *Calculator) {
		if threshold > 0 && threshold <= 1 {
			c.visibility = threshold
		}
	}
}

// WithCorrectionThreshold sets the excursion distance, in subject-scale
// units, that the hip midpoint must round-trip to count as a correction.
func WithCorrectionThreshold(threshold float64) Option {
	return func(c *Calculator) {
		if threshold > 0 {
			c.correctionThreshold = threshold
		}
	}
}

// WithSegmentSeconds sets the fixed segment width; zero disables segments.
func WithSegmentSeconds(seconds float64) Option {
	return func(c *Calculator) {
		if seconds >= 0 {
			c.segmentSeconds = seconds
		}
	}
}

// WithDefaultScale sets the subject-scale fallback for histories where the
// trunk was never fully tracked.
func WithDefaultScale(scale float64) Option {
	return func(c *Calculator) {
		if scale > 0 {
			c.defaultScale = scale
		}
	}
}

// WithFlapping sets the flapping detector's sliding window, minimum
// oscillation frequency and minimum amplitude.
func WithFlapping(windowSeconds, minHz, minAmplitudeDeg float64) Option {
	return func(c *Calculator) {
		if windowSeconds > 0 {
			c.flapWindow = windowSeconds
		}
		if minHz > 0 {
			c.flapMinHz = minHz
		}
		if minAmplitudeDeg > 0 {
			c.flapMinAmplitude = minAmplitudeDeg
		}
	}
}

// WithCorrectionBurst sets the burst detector's window and trigger count.
func WithCorrectionBurst(windowSeconds float64, minCount int) Option {
	return func(c *Calculator) {
		if windowSeconds > 0 {
			c.burstWindow = windowSeconds
		}
		if minCount > 0 {
			c.burstMinCount = minCount
		}
	}
}

// WithStabilization sets the calm velocity threshold and how long sway must
// stay below it to count as stabilized.
func WithStabilization(calmVelocity, sustainSeconds float64) Option {
	return func(c *Calculator) {
		if calmVelocity > 0 {
			c.calmVelocity = calmVelocity
		}
		if sustainSeconds > 0 {
			c.calmSustain = sustainSeconds
		}
	}
}
