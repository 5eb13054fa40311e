// Package analysis computes the biomechanical metrics of a balance trial
// from its Landmark History. There is exactly one calculator: the worker
// runs it over the frozen history after a terminal state, and the live
// status endpoint runs the same code over the history-so-far, so a preview
// can never disagree with the official result.
//
// Every sub-computation is total: degenerate input (no frames, missing
// landmarks, zero duration) yields zeros and a Degraded flag, never an
// error.
package analysis

import (
	"context"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/peakform/stork/internal/domain/failure"
	"github.com/peakform/stork/internal/domain/pose"
)

// Default calculation parameters. Distances are in subject-scale units
// (fractions of trunk length).
const (
	defaultMaxDurationSeconds  = 30.0
	defaultVisibilityThreshold = 0.5
	defaultCorrectionThreshold = 0.04
	defaultSegmentSeconds      = 5.0
	defaultSubjectScale        = 0.25
)

// Degraded flags recorded when a sub-computation fell back to a safe value.
const (
	DegradedNoHipFrames  = "no_visible_hip_frames"
	DegradedNoScale      = "no_subject_scale"
	DegradedLeftArm      = "left_arm_unmeasured"
	DegradedRightArm     = "right_arm_unmeasured"
	DegradedArmAsymmetry = "arm_asymmetry_degenerate"
	DegradedZeroDuration = "zero_duration"
)

// Input bundles one trial's frozen history and terminal outcome. For a live
// preview, Success is false, FailureReason is empty and EndedAt is the
// latest frame timestamp.
type Input struct {
	Frames        []pose.Frame
	ActiveEntry   float64
	Success       bool
	FailureReason failure.Reason
	EndedAt       float64
}

// Window is the sub-metric set recomputed independently per temporal window.
type Window struct {
	Start         float64 `json:"start"`
	End           float64 `json:"end"`
	AvgVelocity   float64 `json:"avg_velocity"`
	Corrections   int     `json:"corrections"`
	ArmAngleLeft  float64 `json:"arm_angle_left"`
	ArmAngleRight float64 `json:"arm_angle_right"`
}

// Temporal is the equal-duration thirds breakdown of the active window.
type Temporal struct {
	First  Window `json:"first_third"`
	Middle Window `json:"middle_third"`
	Final  Window `json:"final_third"`
}

// Metrics is the immutable result of one trial analysis. Field names and
// units are a stable contract: hold_time is always seconds, sway_velocity is
// always subject-scale-normalized distance per second.
type Metrics struct {
	Success           bool           `json:"success"`
	HoldTime          float64        `json:"hold_time"`
	FailureReason     failure.Reason `json:"failure_reason,omitempty"`
	SwayStdX          float64        `json:"sway_std_x"`
	SwayStdY          float64        `json:"sway_std_y"`
	SwayPathLength    float64        `json:"sway_path_length"`
	SwayVelocity      float64        `json:"sway_velocity"`
	CorrectionsCount  int            `json:"corrections_count"`
	ArmAngleLeft      float64        `json:"arm_angle_left"`
	ArmAngleRight     float64        `json:"arm_angle_right"`
	ArmAsymmetryRatio float64        `json:"arm_asymmetry_ratio"`
	Temporal          Temporal       `json:"temporal"`
	Segments          []Window       `json:"segments,omitempty"`
	Events            []Event        `json:"events,omitempty"`
	Degraded          []string       `json:"degraded,omitempty"`
}

// Calculator derives Metrics from landmark histories. It is stateless and
// safe for concurrent use.
type Calculator struct {
	maxDuration         float64
	visibility          float64
	correctionThreshold float64
	segmentSeconds      float64
	defaultScale        float64

	flapWindow       float64
	flapMinHz        float64
	flapMinAmplitude float64
	burstWindow      float64
	burstMinCount    int
	calmVelocity     float64
	calmSustain      float64
}

// New creates a Calculator with the given options.
func New(opts ...Option) *Calculator {
	c := &Calculator{
		maxDuration:         defaultMaxDurationSeconds,
		visibility:          defaultVisibilityThreshold,
		correctionThreshold: defaultCorrectionThreshold,
		segmentSeconds:      defaultSegmentSeconds,
		defaultScale:        defaultSubjectScale,
		flapWindow:          defaultFlapWindowSeconds,
		flapMinHz:           defaultFlapMinHz,
		flapMinAmplitude:    defaultFlapMinAmplitudeDeg,
		burstWindow:         defaultBurstWindowSeconds,
		burstMinCount:       defaultBurstMinCount,
		calmVelocity:        defaultCalmVelocity,
		calmSustain:         defaultCalmSustainSeconds,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compute derives the full metric battery for one trial. The only error is
// context cancellation; degenerate histories produce flagged fallbacks.
func (c *Calculator) Compute(ctx context.Context, in Input) (Metrics, error) {
	if err := ctx.Err(); err != nil {
		return Metrics{}, fmt.Errorf("analysis canceled: %w", err)
	}

	m := Metrics{
		Success:           in.Success,
		FailureReason:     in.FailureReason,
		ArmAsymmetryRatio: 1,
	}

	hold := in.EndedAt - in.ActiveEntry
	if hold < 0 {
		hold = 0
	}
	if hold > c.maxDuration {
		hold = c.maxDuration
	}
	m.HoldTime = hold
	if hold <= timeEpsilon {
		m.Degraded = append(m.Degraded, DegradedZeroDuration)
	}

	s := c.extract(in)
	m.Degraded = append(m.Degraded, s.degraded...)

	if len(s.midX) == 0 {
		m.Degraded = append(m.Degraded, DegradedNoHipFrames)
	} else {
		m.SwayStdX = stat.PopStdDev(s.midX, nil)
		m.SwayStdY = stat.PopStdDev(s.midY, nil)
		m.SwayPathLength = floats.Sum(s.steps)
	}
	if m.HoldTime > timeEpsilon {
		m.SwayVelocity = m.SwayPathLength / m.HoldTime
	}

	var corrTimes []float64
	m.CorrectionsCount, corrTimes = roundTripCorrections(
		s.midX, s.midY, s.ts, c.correctionThreshold*s.scale)

	if len(s.armLeftDeg) > 0 {
		m.ArmAngleLeft = stat.Mean(s.armLeftDeg, nil)
	} else {
		m.Degraded = append(m.Degraded, DegradedLeftArm)
	}
	if len(s.armRightDeg) > 0 {
		m.ArmAngleRight = stat.Mean(s.armRightDeg, nil)
	} else {
		m.Degraded = append(m.Degraded, DegradedRightArm)
	}
	lo := math.Min(m.ArmAngleLeft, m.ArmAngleRight)
	hi := math.Max(m.ArmAngleLeft, m.ArmAngleRight)
	if lo > distEpsilon {
		m.ArmAsymmetryRatio = hi / lo
	} else if hi > distEpsilon {
		m.Degraded = append(m.Degraded, DegradedArmAsymmetry)
	}

	m.Temporal = c.temporal(s, in.ActiveEntry, hold)
	m.Segments = c.segments(s, in.ActiveEntry, hold)
	m.Events = c.detectEvents(s, corrTimes)
	return m, nil
}

// Numeric guards.
const (
	timeEpsilon = 1e-9
	distEpsilon = 1e-9
)

// series is the per-frame evidence extracted once per computation: hip
// midpoints from frames where both hips are tracked, per-arm angle samples,
// and the trial's subject scale.
type series struct {
	ts    []float64
	midX  []float64
	midY  []float64
	steps []float64 // scale-normalized distance between consecutive midpoints

	armLeftTs   []float64
	armLeftDeg  []float64
	armRightTs  []float64
	armRightDeg []float64

	scale    float64
	degraded []string
}

func (c *Calculator) extract(in Input) series {
	s := series{scale: c.defaultScale}

	var scaleSum float64
	var scaleN int
	for _, f := range in.Frames {
		if sc, ok := f.SubjectScale(c.visibility); ok {
			scaleSum += sc
			scaleN++
		}
	}
	if scaleN > 0 {
		s.scale = scaleSum / float64(scaleN)
	} else if len(in.Frames) > 0 {
		s.degraded = append(s.degraded, DegradedNoScale)
	}

	for _, f := range in.Frames {
		if f.Visible(pose.LeftHip, c.visibility) && f.Visible(pose.RightHip, c.visibility) {
			mid := pose.Midpoint(f.Landmarks[pose.LeftHip], f.Landmarks[pose.RightHip])
			if n := len(s.midX); n > 0 {
				step := math.Hypot(mid.X-s.midX[n-1], mid.Y-s.midY[n-1]) / s.scale
				s.steps = append(s.steps, step)
			}
			s.ts = append(s.ts, f.Timestamp)
			s.midX = append(s.midX, mid.X)
			s.midY = append(s.midY, mid.Y)
		}
		if deg, ok := armAngle(f, pose.LegLeft, c.visibility); ok {
			s.armLeftTs = append(s.armLeftTs, f.Timestamp)
			s.armLeftDeg = append(s.armLeftDeg, deg)
		}
		if deg, ok := armAngle(f, pose.LegRight, c.visibility); ok {
			s.armRightTs = append(s.armRightTs, f.Timestamp)
			s.armRightDeg = append(s.armRightDeg, deg)
		}
	}
	return s
}

// armAngle measures the upper-arm segment against the torso axis (shoulder
// midpoint toward hip midpoint), in degrees.
func armAngle(f pose.Frame, side pose.Leg, visibility float64) (float64, bool) {
	if _, ok := f.FirstMissing(visibility,
		pose.LeftShoulder, pose.RightShoulder, pose.LeftHip, pose.RightHip,
		side.Shoulder(), side.Elbow()); !ok {
		return 0, false
	}
	shoulderMid := pose.Midpoint(f.Landmarks[pose.LeftShoulder], f.Landmarks[pose.RightShoulder])
	hipMid := pose.Midpoint(f.Landmarks[pose.LeftHip], f.Landmarks[pose.RightHip])
	axisX, axisY := hipMid.X-shoulderMid.X, hipMid.Y-shoulderMid.Y

	shoulder := f.Landmarks[side.Shoulder()]
	elbow := f.Landmarks[side.Elbow()]
	armX, armY := elbow.X-shoulder.X, elbow.Y-shoulder.Y

	axisLen := math.Hypot(axisX, axisY)
	armLen := math.Hypot(armX, armY)
	if axisLen < distEpsilon || armLen < distEpsilon {
		return 0, false
	}
	cos := (axisX*armX + axisY*armY) / (axisLen * armLen)
	cos = math.Max(-1, math.Min(1, cos))
	return math.Acos(cos) * 180 / math.Pi, true
}

// roundTripCorrections counts postural corrections: the hip midpoint's
// distance from its running centroid must cross above the threshold and come
// back below to count once, so jitter around the line never inflates the
// tally. Returns the count and the re-entry timestamps.
func roundTripCorrections(midX, midY, ts []float64, threshold float64) (int, []float64) {
	if threshold <= 0 {
		return 0, nil
	}
	var cx, cy float64
	outside := false
	count := 0
	var times []float64
	for i := range midX {
		n := float64(i + 1)
		cx += (midX[i] - cx) / n
		cy += (midY[i] - cy) / n
		d := math.Hypot(midX[i]-cx, midY[i]-cy)
		if d > threshold {
			outside = true
		} else if outside {
			outside = false
			count++
			times = append(times, ts[i])
		}
	}
	return count, times
}

// sortEvents orders a merged event list by time, then type for stability.
func sortEvents(events []Event) {
	sort.Slice(events, func(i, j int) bool {
		if events[i].Timestamp != events[j].Timestamp {
			return events[i].Timestamp < events[j].Timestamp
		}
		return events[i].Type < events[j].Type
	})
}
