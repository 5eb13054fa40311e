// Package bilateral compares the left-leg and right-leg trials of one
// assessment: absolute differences, per-metric symmetry ratios, a weighted
// overall score and a leg-dominance call.
package bilateral

import (
	"context"
	"math"

	analysis "github.com/peakform/stork/internal/domain/analysis"
	pose "github.com/peakform/stork/internal/domain/pose"
)

// Default comparison parameters.
const (
	defaultArmDenominatorDeg      = 45.0
	defaultCorrectionsDenominator = 10.0
	defaultDominancePct           = 20.0
)

// defaultWeights spreads the overall score across the submetrics, duration
// heaviest.
func defaultWeights() Weights {
	return Weights{Duration: 0.5, Sway: 0.3, Arm: 0.1, Corrections: 0.1}
}

// Assessment bands for the overall symmetry score.
const (
	AssessmentExcellent = "excellent"
	AssessmentGood      = "good"
	AssessmentFair      = "fair"
	AssessmentPoor      = "poor"
)

// Dominance is the leg-dominance call derived from hold-time imbalance.
type Dominance string

// Dominance values.
const (
	DominanceBalanced Dominance = "balanced"
	DominanceLeft     Dominance = "left"
	DominanceRight    Dominance = "right"
)

// Weights distributes the overall symmetry score across the submetrics.
type Weights struct {
	Duration    float64
	Sway        float64
	Arm         float64
	Corrections float64
}

// Option applies a configuration option to the Comparator.
type Option func(*Comparator)

// WithArmDenominator sets the arm-angle difference, in degrees, at which arm
// symmetry bottoms out at zero.
func WithArmDenominator(deg float64) Option {
	return func(c *Comparator) {
		if deg > 0 {
			c.armDenominator = deg
		}
	}
}

// WithCorrectionsDenominator sets the corrections-count difference at which
// corrections symmetry bottoms out at zero.
func WithCorrectionsDenominator(count float64) Option {
	return func(c *Comparator) {
		if count > 0 {
			c.correctionsDenominator = count
		}
	}
}

// WithDominanceThreshold sets the hold-time difference percentage below
// which the legs are called balanced.
func WithDominanceThreshold(pct float64) Option {
	return func(c *Comparator) {
		if pct > 0 {
			c.dominancePct = pct
		}
	}
}

// WithWeights replaces the submetric weights. Negative entries and an
// all-zero set are ignored; the weights are normalized to sum to one.
func WithWeights(w Weights) Option {
	return func(c *Comparator) {
		sum := w.Duration + w.Sway + w.Arm + w.Corrections
		if w.Duration < 0 || w.Sway < 0 || w.Arm < 0 || w.Corrections < 0 || sum <= 0 {
			return
		}
		c.weights = Weights{
			Duration:    w.Duration / sum,
			Sway:        w.Sway / sum,
			Arm:         w.Arm / sum,
			Corrections: w.Corrections / sum,
		}
	}
}

// Trial pairs a leg with the metrics its completed trial produced.
type Trial struct {
	Leg     pose.Leg
	Metrics analysis.Metrics
}

// Comparison is the bilateral report for one assessment. Differences are
// absolute values, symmetry ratios live in [0,1] with 1 meaning identical.
type Comparison struct {
	DurationDiff    float64 `json:"duration_diff"`
	DurationDiffPct float64 `json:"duration_diff_pct"`
	SwayDiff        float64 `json:"sway_diff"`
	ArmAngleDiff    float64 `json:"arm_angle_diff"`
	CorrectionsDiff int     `json:"corrections_diff"`

	DominantLeg Dominance `json:"dominant_leg"`

	DurationSymmetry     float64 `json:"duration_symmetry"`
	SwaySymmetry         float64 `json:"sway_symmetry"`
	ArmSymmetry          float64 `json:"arm_symmetry"`
	CorrectionsSymmetry  float64 `json:"corrections_symmetry"`
	OverallSymmetryScore int     `json:"overall_symmetry_score"`
	SymmetryAssessment   string  `json:"symmetry_assessment"`
}

// Comparator computes bilateral comparisons. It is stateless: one instance
// serves concurrent assessments.
type Comparator struct {
	armDenominator         float64
	correctionsDenominator float64
	dominancePct           float64
	weights                Weights
}

// New creates a comparator with the defaults adjusted by the given options.
func New(opts ...Option) *Comparator {
	c := &Comparator{
		armDenominator:         defaultArmDenominatorDeg,
		correctionsDenominator: defaultCorrectionsDenominator,
		dominancePct:           defaultDominancePct,
		weights:                defaultWeights(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compare builds the bilateral report from the two trials of an assessment.
// The trials may arrive in either order but must cover both legs; anything
// else returns ErrMismatch.
func (c *Comparator) Compare(ctx context.Context, a, b Trial) (Comparison, error) {
	if err := ctx.Err(); err != nil {
		return Comparison{}, err
	}

	left, right := a.Metrics, b.Metrics
	switch {
	case a.Leg == pose.LegLeft && b.Leg == pose.LegRight:
	case a.Leg == pose.LegRight && b.Leg == pose.LegLeft:
		left, right = b.Metrics, a.Metrics
	default:
		return Comparison{}, ErrMismatch
	}

	cmp := Comparison{
		DurationDiff:    math.Abs(left.HoldTime - right.HoldTime),
		SwayDiff:        math.Abs(left.SwayVelocity - right.SwayVelocity),
		ArmAngleDiff:    math.Abs(armAvg(left) - armAvg(right)),
		CorrectionsDiff: absInt(left.CorrectionsCount - right.CorrectionsCount),
	}

	if longest := math.Max(left.HoldTime, right.HoldTime); longest > 0 {
		cmp.DurationDiffPct = cmp.DurationDiff / longest * 100
	}

	cmp.DominantLeg = DominanceBalanced
	if cmp.DurationDiffPct >= c.dominancePct {
		if left.HoldTime > right.HoldTime {
			cmp.DominantLeg = DominanceLeft
		} else {
			cmp.DominantLeg = DominanceRight
		}
	}

	cmp.DurationSymmetry = 1 - math.Min(cmp.DurationDiffPct/100, 1)
	cmp.SwaySymmetry = 1.0
	if mean := (left.SwayVelocity + right.SwayVelocity) / 2; mean > 0 {
		cmp.SwaySymmetry = 1 - math.Min(cmp.SwayDiff/mean, 1)
	}
	cmp.ArmSymmetry = math.Max(0, 1-cmp.ArmAngleDiff/c.armDenominator)
	cmp.CorrectionsSymmetry = math.Max(0, 1-float64(cmp.CorrectionsDiff)/c.correctionsDenominator)

	weighted := c.weights.Duration*clamp01(cmp.DurationSymmetry) +
		c.weights.Sway*clamp01(cmp.SwaySymmetry) +
		c.weights.Arm*clamp01(cmp.ArmSymmetry) +
		c.weights.Corrections*clamp01(cmp.CorrectionsSymmetry)
	cmp.OverallSymmetryScore = int(math.Round(100 * weighted))
	cmp.SymmetryAssessment = assessmentFor(cmp.OverallSymmetryScore)
	return cmp, nil
}

func assessmentFor(score int) string {
	switch {
	case score >= 85:
		return AssessmentExcellent
	case score >= 70:
		return AssessmentGood
	case score >= 50:
		return AssessmentFair
	default:
		return AssessmentPoor
	}
}

// armAvg is the trial's mean arm elevation across both arms.
func armAvg(m analysis.Metrics) float64 {
	return (m.ArmAngleLeft + m.ArmAngleRight) / 2
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
