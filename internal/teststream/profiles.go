package teststream

import (
	"context"
	"crypto/rand"
	"fmt"
	"math"
	"math/big"

	"github.com/google/uuid"
	"github.com/peakform/stork/pkg/logger"
)

// Landmark names follow the MediaPipe Pose convention the service reads.
const (
	leftShoulder  = "left_shoulder"
	rightShoulder = "right_shoulder"
	leftWrist     = "left_wrist"
	rightWrist    = "right_wrist"
	leftHip       = "left_hip"
	rightHip      = "right_hip"
	leftAnkle     = "left_ankle"
	rightAnkle    = "right_ankle"
)

// Supported legs.
const (
	LegLeft  = "left"
	LegRight = "right"
)

// Profile names.
const (
	ProfileSteadyHold   = "steady_hold"
	ProfileWobblyHold   = "wobbly_hold"
	ProfileSlowStarter  = "slow_starter"
	ProfileTouchdown    = "early_touchdown"
	ProfileHandsOff     = "hands_off_hips"
	ProfileSupportSlide = "support_slide"
)

// Failure reasons the service reports for the scripted violations.
const (
	reasonTouchdown   = "foot_touchdown"
	reasonHandsOff    = "hands_left_hips"
	reasonSupportMove = "support_foot_moved"
)

// profileCases is the draw table for trial profiles; steady holds dominate
// the way they do in a real junior cohort.
var profileCases = []string{
	ProfileSteadyHold,
	ProfileSteadyHold,
	ProfileSteadyHold,
	ProfileWobblyHold,
	ProfileSlowStarter,
	ProfileTouchdown,
	ProfileHandsOff,
	ProfileSupportSlide,
}

// Frame script constants. Timestamps advance on a 10 fps grid.
const (
	framesPerSecond = 10.0
	successMargin   = 0.5
	violationTail   = 0.3
	warmupSeconds   = 1.0
	dimVisibility   = 0.3
	wobbleAmplitude = 0.008
	wobbleHz        = 1.3
)

// Constants for scripted violation timing, as fractions of the hold window.
const (
	earliestViolation = 0.15
	violationSpan     = 0.55
)

// Constants for random number generation.
const (
	randomFloatDivisor  = 1000000
	minAthleteAge       = 5
	athleteAgeSpan      = 9 // ages 5 through 13
	trialsPerAssessment = 2
)

// getRandomFloat returns a random float64 between 0.0 and 1.0 using crypto/rand.
func getRandomFloat() float64 {
	n, _ := rand.Int(rand.Reader, big.NewInt(randomFloatDivisor))
	return float64(n.Int64()) / float64(randomFloatDivisor)
}

// randomInt returns a uniform random integer in [0, n) using crypto/rand.
func randomInt(n int64) int64 {
	v, _ := rand.Int(rand.Reader, big.NewInt(n))
	return v.Int64()
}

// generatePlan scripts two trials per assessment with varied profiles.
func generatePlan(ctx context.Context, config *Config, stats *Stats) ([]Trial, error) {
	logger.Get().Info(ctx, "generating scripted trials",
		logger.Int("assessments", config.NumAssessments),
		logger.Float64("maxHold", config.MaxHold))

	total := config.NumAssessments * trialsPerAssessment
	trials := make([]Trial, total)

	// Pre-allocate athlete identities; both legs share one.
	athleteIDs := make([]string, config.NumAssessments)
	ages := make([]int, config.NumAssessments)
	for i := 0; i < config.NumAssessments; i++ {
		athleteIDs[i] = uuid.New().String()
		ages[i] = minAthleteAge + int(randomInt(athleteAgeSpan))
	}

	// Generate scripts concurrently
	type trialResult struct {
		index int
		trial Trial
		err   error
	}

	resultChan := make(chan trialResult, total)

	// Use worker pool for script generation
	workerCount := minInt(config.Workers, total)
	if workerCount < 1 {
		workerCount = 1
	}
	trialsPerWorker := total / workerCount

	for worker := 0; worker < workerCount; worker++ {
		start := worker * trialsPerWorker
		end := start + trialsPerWorker
		if worker == workerCount-1 {
			end = total // Last worker gets remaining trials
		}

		go func(start, end int) {
			for i := start; i < end; i++ {
				select {
				case <-ctx.Done():
					resultChan <- trialResult{index: i, err: ctx.Err()}
					return
				default:
					leg := LegLeft
					if i%trialsPerAssessment == 1 {
						leg = LegRight
					}
					a := i / trialsPerAssessment
					resultChan <- trialResult{index: i, trial: buildTrial(config, athleteIDs[a], ages[a], leg)}
				}
			}
		}(start, end)
	}

	// Collect results
	framesPlanned := 0
	for i := 0; i < total; i++ {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("context cancelled during plan generation: %w", ctx.Err())
		case result := <-resultChan:
			if result.err != nil {
				return nil, fmt.Errorf("failed to script trial %d: %w", result.index, result.err)
			}
			trials[result.index] = result.trial
			framesPlanned += len(result.trial.Frames)
		}
	}

	stats.TrialsPlanned = len(trials)
	logger.Get().Info(ctx, "scripted trials successfully",
		logger.Int("trials", len(trials)),
		logger.Int("frames", framesPlanned))

	return trials, nil
}

// buildTrial scripts one leg for an athlete with a randomly drawn profile.
func buildTrial(config *Config, athleteID string, age int, leg string) Trial {
	profile := profileCases[randomInt(int64(len(profileCases)))]
	t := Trial{
		AthleteID: athleteID,
		Age:       age,
		Leg:       leg,
		Profile:   profile,
	}
	switch profile {
	case ProfileSteadyHold:
		t.ExpectSuccess = true
		t.Frames = steadyScript(config, leg)
	case ProfileWobblyHold:
		t.ExpectSuccess = true
		t.Frames = wobblyScript(config, leg)
	case ProfileSlowStarter:
		t.ExpectSuccess = true
		t.Frames = slowStarterScript(config, leg)
	case ProfileTouchdown:
		t.ExpectReason = reasonTouchdown
		t.Frames = violationScript(config, leg, dropRaisedFoot)
	case ProfileHandsOff:
		t.ExpectReason = reasonHandsOff
		t.Frames = violationScript(config, leg, flingArmsOut)
	case ProfileSupportSlide:
		t.ExpectReason = reasonSupportMove
		t.Frames = violationScript(config, leg, slideSupportFoot)
	}
	return t
}

// gridTime returns the timestamp of the i-th frame on the 10 fps grid.
func gridTime(i int) float64 {
	return float64(i) / framesPerSecond
}

// ceilGrid snaps a duration in seconds up to the frame grid.
func ceilGrid(seconds float64) float64 {
	return math.Ceil(seconds*framesPerSecond-1e-9) / framesPerSecond
}

// rampTime bounds how long a continuously compliant stream takes to go
// active: the readiness debounce plus the countdown, grid-aligned.
func rampTime(config *Config) float64 {
	return ceilGrid(config.Debounce) + ceilGrid(config.Countdown)
}

// stanceFrame returns a compliant stork stance for the given support leg:
// the opposite foot raised, hands on hips, trunk length a quarter of the
// frame height.
func stanceFrame(leg string, ts float64) Frame {
	f := Frame{
		Timestamp: ts,
		Landmarks: map[string]Point{
			leftShoulder:  {X: 0.40, Y: 0.30, Visibility: 0.9},
			rightShoulder: {X: 0.60, Y: 0.30, Visibility: 0.9},
			leftHip:       {X: 0.40, Y: 0.55, Visibility: 0.9},
			rightHip:      {X: 0.60, Y: 0.55, Visibility: 0.9},
			leftWrist:     {X: 0.42, Y: 0.57, Visibility: 0.9},
			rightWrist:    {X: 0.58, Y: 0.57, Visibility: 0.9},
		},
	}
	if leg == LegLeft {
		f.Landmarks[leftAnkle] = Point{X: 0.48, Y: 0.90, Visibility: 0.9}
		f.Landmarks[rightAnkle] = Point{X: 0.55, Y: 0.78, Visibility: 0.9}
	} else {
		f.Landmarks[rightAnkle] = Point{X: 0.52, Y: 0.90, Visibility: 0.9}
		f.Landmarks[leftAnkle] = Point{X: 0.45, Y: 0.78, Visibility: 0.9}
	}
	return f
}

// supportAnkle returns the standing-side ankle landmark name.
func supportAnkle(leg string) string {
	if leg == LegLeft {
		return leftAnkle
	}
	return rightAnkle
}

// raisedAnkle returns the raised-side ankle landmark name.
func raisedAnkle(leg string) string {
	if leg == LegLeft {
		return rightAnkle
	}
	return leftAnkle
}

// steadyScript holds a compliant stance from rest through the full hold.
func steadyScript(config *Config, leg string) []Frame {
	total := rampTime(config) + config.MaxHold + successMargin
	var frames []Frame
	for i := 0; ; i++ {
		ts := gridTime(i)
		if ts > total+1e-9 {
			return frames
		}
		frames = append(frames, stanceFrame(leg, ts))
	}
}

// wobblyScript sways the trunk through the hold without breaking any
// protocol rule: hips and wrists shift together, both feet stay put.
func wobblyScript(config *Config, leg string) []Frame {
	frames := steadyScript(config, leg)
	for i := range frames {
		dx := wobbleAmplitude * math.Sin(2*math.Pi*wobbleHz*frames[i].Timestamp)
		for _, name := range []string{leftHip, rightHip, leftWrist, rightWrist} {
			p := frames[i].Landmarks[name]
			p.X += dx
			frames[i].Landmarks[name] = p
		}
	}
	return frames
}

// slowStarterScript spends a warmup period with the raised ankle tracked
// too poorly to arm, then settles into a steady hold.
func slowStarterScript(config *Config, leg string) []Frame {
	total := warmupSeconds + rampTime(config) + config.MaxHold + successMargin
	var frames []Frame
	for i := 0; ; i++ {
		ts := gridTime(i)
		if ts > total+1e-9 {
			return frames
		}
		f := stanceFrame(leg, ts)
		if ts < warmupSeconds-1e-9 {
			name := raisedAnkle(leg)
			p := f.Landmarks[name]
			p.Visibility = dimVisibility
			f.Landmarks[name] = p
		}
		frames = append(frames, f)
	}
}

// violationScript holds a compliant stance through activation, then breaks
// the protocol at a random point inside the hold window.
func violationScript(config *Config, leg string, violate func(*Frame, string)) []Frame {
	frac := earliestViolation + getRandomFloat()*violationSpan
	at := ceilGrid(rampTime(config) + frac*config.MaxHold)
	total := at + violationTail
	var frames []Frame
	for i := 0; ; i++ {
		ts := gridTime(i)
		if ts > total+1e-9 {
			return frames
		}
		f := stanceFrame(leg, ts)
		if ts >= at-1e-9 {
			violate(&f, leg)
		}
		frames = append(frames, f)
	}
}

// dropRaisedFoot lowers the raised ankle to the standing ankle's height.
func dropRaisedFoot(f *Frame, leg string) {
	name := raisedAnkle(leg)
	p := f.Landmarks[name]
	p.Y = 0.89
	f.Landmarks[name] = p
}

// flingArmsOut swings both wrists away from the hips.
func flingArmsOut(f *Frame, _ string) {
	f.Landmarks[leftWrist] = Point{X: 0.25, Y: 0.45, Visibility: 0.9}
	f.Landmarks[rightWrist] = Point{X: 0.75, Y: 0.45, Visibility: 0.9}
}

// slideSupportFoot shifts the standing ankle sideways off its anchor.
func slideSupportFoot(f *Frame, leg string) {
	name := supportAnkle(leg)
	p := f.Landmarks[name]
	p.X += 0.10
	f.Landmarks[name] = p
}

// minInt returns the minimum of two integers.
func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
