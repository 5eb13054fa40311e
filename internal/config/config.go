// Package config defines service configuration and its loading order.
//
// Conventions:
// - Defaults live in New; nothing elsewhere hardcodes a calibration value.
// - Load layers an optional YAML file and STORK_-prefixed env vars on top.
// - External errors must be wrapped via this package's error kinds.
package config

import (
	"runtime"
)

// Config contains process configuration. Calibration fields are expressed in
// normalized subject-scale units unless the name says otherwise.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the in-memory analysis job queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of analysis workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize caps the trial-ID deduplication cache.
	DedupeSize int `koanf:"dedupe_size"`

	// CountdownSeconds is the get-ready period before the hold starts.
	CountdownSeconds float64 `koanf:"countdown_seconds"`

	// MaxDurationSeconds caps the hold; reaching it completes the trial.
	MaxDurationSeconds float64 `koanf:"max_duration_seconds"`

	// StaleTimeoutSeconds is the wall-clock gap after which a silent
	// frame stream is declared dead.
	StaleTimeoutSeconds float64 `koanf:"stale_timeout_seconds"`

	// ReadinessDebounceSeconds is how long the stance must stay stable
	// before the countdown is anchored.
	ReadinessDebounceSeconds float64 `koanf:"readiness_debounce_seconds"`

	// VisibilityThreshold is the minimum landmark confidence for a
	// landmark to participate in readiness and failure checks.
	VisibilityThreshold float64 `koanf:"visibility_threshold"`

	// TouchdownEpsilon is the lifted-foot height margin over the support
	// ankle beyond which the foot counts as down.
	TouchdownEpsilon float64 `koanf:"touchdown_epsilon"`

	// HandsOffThreshold is the wrist-to-hip distance beyond which hands
	// have left the hips.
	HandsOffThreshold float64 `koanf:"hands_off_threshold"`

	// SupportMoveThreshold is the support-ankle drift from its anchored
	// position that fails the trial.
	SupportMoveThreshold float64 `koanf:"support_move_threshold"`

	// DefaultSubjectScale stands in for the trunk scale when the landmarks
	// never yield one.
	DefaultSubjectScale float64 `koanf:"default_subject_scale"`

	// CorrectionThreshold is the hip-velocity level that counts as a
	// balance correction.
	CorrectionThreshold float64 `koanf:"correction_threshold"`

	// SegmentSeconds is the fixed-window width of the per-segment
	// stability breakdown.
	SegmentSeconds float64 `koanf:"segment_seconds"`

	// FlapWindowSeconds, FlapMinHz and FlapMinAmplitudeDeg shape the
	// arm-flapping event detector.
	FlapWindowSeconds   float64 `koanf:"flap_window_seconds"`
	FlapMinHz           float64 `koanf:"flap_min_hz"`
	FlapMinAmplitudeDeg float64 `koanf:"flap_min_amplitude_deg"`

	// BurstWindowSeconds and BurstMinCount shape the correction-burst
	// event detector.
	BurstWindowSeconds float64 `koanf:"burst_window_seconds"`
	BurstMinCount      int     `koanf:"burst_min_count"`

	// CalmVelocity and CalmSustainSeconds shape the stabilization event:
	// sway velocity below the level, sustained for the period.
	CalmVelocity       float64 `koanf:"calm_velocity"`
	CalmSustainSeconds float64 `koanf:"calm_sustain_seconds"`

	// ArmSymmetryDenominatorDeg normalizes the left/right arm-angle gap.
	ArmSymmetryDenominatorDeg float64 `koanf:"arm_symmetry_denominator_deg"`

	// CorrectionsSymmetryDenominator normalizes the corrections gap.
	CorrectionsSymmetryDenominator float64 `koanf:"corrections_symmetry_denominator"`

	// DominanceThresholdPct is the hold-time gap, as a percentage of the
	// longer hold, at which a leg counts as dominant.
	DominanceThresholdPct float64 `koanf:"dominance_threshold_pct"`

	// SymmetryWeights maps symmetry components to their share of the
	// overall score. Keys: duration, sway, arm, corrections.
	SymmetryWeights map[string]float64 `koanf:"symmetry_weights"`

	// AgeExpectations maps athlete age to the duration score expected at
	// that age. Ages outside the table read as meeting expectations.
	AgeExpectations map[int]int `koanf:"age_expectations"`
}

// New creates a Config carrying the calibrated defaults.
func New() *Config {
	c := &Config{
		LogLevel:                 "info",
		Addr:                     ":8080",
		QueueSize:                1024,
		WorkerCount:              runtime.NumCPU(),
		DedupeSize:               50_000,
		CountdownSeconds:         3.0,
		MaxDurationSeconds:       30.0,
		StaleTimeoutSeconds:      2.0,
		ReadinessDebounceSeconds: 1.0,
		VisibilityThreshold:      0.5,
		TouchdownEpsilon:         0.20,
		HandsOffThreshold:        0.60,
		SupportMoveThreshold:     0.30,
		DefaultSubjectScale:      0.25,
		CorrectionThreshold:      0.04,
		SegmentSeconds:           5.0,
		FlapWindowSeconds:        1.0,
		FlapMinHz:                2.0,
		FlapMinAmplitudeDeg:      15.0,
		BurstWindowSeconds:       2.0,
		BurstMinCount:            3,
		CalmVelocity:             0.30,
		CalmSustainSeconds:       3.0,

		ArmSymmetryDenominatorDeg:      45.0,
		CorrectionsSymmetryDenominator: 10.0,
		DominanceThresholdPct:          20.0,
		SymmetryWeights: map[string]float64{
			"duration":    0.50,
			"sway":        0.30,
			"arm":         0.10,
			"corrections": 0.10,
		},
		AgeExpectations: map[int]int{
			5: 1, 6: 1,
			7: 2,
			8: 3, 9: 3,
			10: 4, 11: 4,
			12: 5, 13: 5,
		},
	}
	return c
}
