package analysis

import (
	"fmt"
	"math"
)

// Default event-detection parameters.
const (
	defaultFlapWindowSeconds   = 1.0
	defaultFlapMinHz           = 2.0
	defaultFlapMinAmplitudeDeg = 15.0
	defaultBurstWindowSeconds  = 2.0
	defaultBurstMinCount       = 3
	defaultCalmVelocity        = 0.30
	defaultCalmSustainSeconds  = 3.0
)

// EventType identifies a detected pattern in the trial timeline.
type EventType string

// Detected event types.
const (
	EventFlapping        EventType = "flapping"
	EventCorrectionBurst EventType = "correction_burst"
	EventStabilized      EventType = "stabilized"
)

// Severity buckets an event by how far past its threshold it went.
type Severity string

// Severity buckets.
const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// severityFor maps a threshold-exceedance ratio to a bucket.
func severityFor(ratio float64) Severity {
	switch {
	case ratio >= 2:
		return SeverityHigh
	case ratio >= 1.4:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// Event is one detected pattern, stamped with the media time at which it was
// established.
type Event struct {
	Timestamp float64   `json:"timestamp"`
	Type      EventType `json:"type"`
	Severity  Severity  `json:"severity"`
	Detail    string    `json:"detail"`
}

func (c *Calculator) detectEvents(s series, corrections []float64) []Event {
	events := c.flappingEvents(s)
	events = append(events, c.burstEvents(corrections)...)
	events = append(events, c.stabilizedEvents(s)...)
	sortEvents(events)
	return events
}

// flappingEvents scans a sliding window over the combined arm-angle series
// for oscillation that exceeds both the frequency and amplitude thresholds.
// After an event the window must fully refill before another can fire.
func (c *Calculator) flappingEvents(s series) []Event {
	var ts, deg []float64
	for i, j := 0, 0; i < len(s.armLeftTs) && j < len(s.armRightTs); {
		switch {
		case s.armLeftTs[i] == s.armRightTs[j]:
			ts = append(ts, s.armLeftTs[i])
			deg = append(deg, (s.armLeftDeg[i]+s.armRightDeg[j])/2)
			i++
			j++
		case s.armLeftTs[i] < s.armRightTs[j]:
			i++
		default:
			j++
		}
	}
	if c.flapWindow <= 0 || len(ts) < 3 {
		return nil
	}

	var events []Event
	nextAt := ts[0] + c.flapWindow
	start := 0
	for end := 0; end < len(ts); end++ {
		if ts[end] < nextAt {
			continue
		}
		for ts[start] < ts[end]-c.flapWindow {
			start++
		}
		window := deg[start : end+1]
		freq := (float64(directionChanges(window)) / 2) / c.flapWindow
		lo, hi := minMax(window)
		amp := hi - lo
		if freq >= c.flapMinHz && amp >= c.flapMinAmplitude {
			events = append(events, Event{
				Timestamp: ts[end],
				Type:      EventFlapping,
				Severity:  severityFor(amp / c.flapMinAmplitude),
				Detail:    fmt.Sprintf("arm oscillation %.1f Hz, amplitude %.0f°", freq, amp),
			})
			nextAt = ts[end] + c.flapWindow
		}
	}
	return events
}

// burstEvents fires when enough corrections land inside one sliding window,
// with a window-length cooldown between events.
func (c *Calculator) burstEvents(times []float64) []Event {
	if c.burstMinCount <= 0 || len(times) < c.burstMinCount {
		return nil
	}
	var events []Event
	cooldownUntil := math.Inf(-1)
	start := 0
	for i := range times {
		for times[start] <= times[i]-c.burstWindow {
			start++
		}
		count := i - start + 1
		if count >= c.burstMinCount && times[i] >= cooldownUntil {
			events = append(events, Event{
				Timestamp: times[i],
				Type:      EventCorrectionBurst,
				Severity:  severityFor(float64(count) / float64(c.burstMinCount)),
				Detail:    fmt.Sprintf("%d corrections in %.1fs", count, c.burstWindow),
			})
			cooldownUntil = times[i] + c.burstWindow
		}
	}
	return events
}

// stabilizedEvents fires when instantaneous sway velocity stays below the
// calm threshold for the sustain period after having been above it. Each
// event re-arms only once the velocity climbs back over the threshold.
func (c *Calculator) stabilizedEvents(s series) []Event {
	if c.calmSustain <= 0 || c.calmVelocity <= 0 {
		return nil
	}
	var events []Event
	wasAbove := false
	below := false
	emitted := false
	var belowStart, sum float64
	var n int
	for i := 1; i < len(s.ts); i++ {
		dt := s.ts[i] - s.ts[i-1]
		if dt <= 0 {
			continue
		}
		v := s.steps[i-1] / dt
		if v > c.calmVelocity {
			wasAbove = true
			below = false
			continue
		}
		if !wasAbove {
			continue
		}
		if !below {
			below = true
			belowStart = s.ts[i]
			sum, n = 0, 0
			emitted = false
		}
		sum += v
		n++
		if !emitted && s.ts[i]-belowStart >= c.calmSustain {
			avg := sum / float64(n)
			events = append(events, Event{
				Timestamp: s.ts[i],
				Type:      EventStabilized,
				Severity:  severityFor(c.calmVelocity / math.Max(avg, distEpsilon)),
				Detail:    fmt.Sprintf("sway settled below %.2f for %.1fs", c.calmVelocity, c.calmSustain),
			})
			emitted = true
			wasAbove = false
		}
	}
	return events
}

func directionChanges(vals []float64) int {
	prev := 0.0
	flips := 0
	for i := 1; i < len(vals); i++ {
		d := vals[i] - vals[i-1]
		if d == 0 {
			continue
		}
		dir := 1.0
		if d < 0 {
			dir = -1
		}
		if prev != 0 && dir != prev {
			flips++
		}
		prev = dir
	}
	return flips
}

func minMax(vals []float64) (float64, float64) {
	lo, hi := vals[0], vals[0]
	for _, v := range vals[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}
