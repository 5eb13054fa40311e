package analysis_test

import (
	"testing"

	analysis "github.com/peakform/stork/internal/domain/analysis"
	pose "github.com/peakform/stork/internal/domain/pose"
	. "github.com/smartystreets/goconvey/convey"
)

func eventsOf(m analysis.Metrics, kind analysis.EventType) []analysis.Event {
	var out []analysis.Event
	for _, e := range m.Events {
		if e.Type == kind {
			out = append(out, e)
		}
	}
	return out
}

func TestFlappingDetection(t *testing.T) {
	oscillating := func(low, high float64) []pose.Frame {
		var frames []pose.Frame
		for k := 0; k <= 44; k++ {
			deg := low
			if k%2 == 1 {
				deg = high
			}
			frames = append(frames, balanceFrame(float64(k)*0.05, 0.5, 0.5, deg))
		}
		return frames
	}

	Convey("Given arms oscillating well past both thresholds", t, func() {
		m := compute(analysis.Input{Frames: oscillating(10, 40), ActiveEntry: 0, Success: true, EndedAt: 2.2})
		flaps := eventsOf(m, analysis.EventFlapping)

		Convey("Then flapping fires once the first window fills", func() {
			So(len(flaps), ShouldBeGreaterThanOrEqualTo, 1)
			So(flaps[0].Timestamp, ShouldAlmostEqual, 1.0, 0.06)
			So(flaps[0].Severity, ShouldEqual, analysis.SeverityHigh)
			So(flaps[0].Detail, ShouldContainSubstring, "arm oscillation")
		})

		Convey("Then the window refills before the next event", func() {
			So(len(flaps), ShouldBeLessThanOrEqualTo, 2)
			if len(flaps) == 2 {
				So(flaps[1].Timestamp-flaps[0].Timestamp, ShouldBeGreaterThanOrEqualTo, 1.0)
			}
		})
	})

	Convey("Given a smaller oscillation amplitude", t, func() {
		m := compute(analysis.Input{Frames: oscillating(10, 35), ActiveEntry: 0, Success: true, EndedAt: 2.2})
		flaps := eventsOf(m, analysis.EventFlapping)

		Convey("Then the event is graded medium", func() {
			So(len(flaps), ShouldBeGreaterThanOrEqualTo, 1)
			So(flaps[0].Severity, ShouldEqual, analysis.SeverityMedium)
		})
	})

	Convey("Given only one tracked arm", t, func() {
		frames := oscillating(10, 40)
		for i := range frames {
			delete(frames[i].Landmarks, pose.RightElbow)
		}
		m := compute(analysis.Input{Frames: frames, ActiveEntry: 0, Success: true, EndedAt: 2.2})

		Convey("Then flapping stays silent", func() {
			So(eventsOf(m, analysis.EventFlapping), ShouldBeEmpty)
		})
	})

	Convey("Given steady arms", t, func() {
		m := compute(analysis.Input{Frames: staticTrial(0, 5, 0.5, 0.5), ActiveEntry: 0, Success: true, EndedAt: 5})
		So(eventsOf(m, analysis.EventFlapping), ShouldBeEmpty)
	})
}

func TestCorrectionBurstDetection(t *testing.T) {
	Convey("Given three quick corrections", t, func() {
		xs := make([]float64, 0, 36)
		for k := 0; k < 30; k++ {
			xs = append(xs, 0.5)
		}
		xs = append(xs, 0.58, 0.5, 0.58, 0.5, 0.58, 0.5)

		var frames []pose.Frame
		for k, x := range xs {
			frames = append(frames, balanceFrame(float64(k)*0.1, x, 0.5, 30))
		}
		m := compute(analysis.Input{Frames: frames, ActiveEntry: 0, Success: true, EndedAt: 3.5})
		bursts := eventsOf(m, analysis.EventCorrectionBurst)

		Convey("Then one burst fires on the third correction", func() {
			So(m.CorrectionsCount, ShouldEqual, 3)
			So(bursts, ShouldHaveLength, 1)
			So(bursts[0].Timestamp, ShouldAlmostEqual, 3.5, 1e-9)
			So(bursts[0].Severity, ShouldEqual, analysis.SeverityLow)
			So(bursts[0].Detail, ShouldContainSubstring, "corrections in")
		})
	})

	Convey("Given corrections spread far apart", t, func() {
		xs := make([]float64, 0, 160)
		for k := 0; k < 30; k++ {
			xs = append(xs, 0.5)
		}
		// One round trip every five seconds.
		for trip := 0; trip < 3; trip++ {
			xs = append(xs, 0.58, 0.5)
			for k := 0; k < 48; k++ {
				xs = append(xs, 0.5)
			}
		}

		var frames []pose.Frame
		for k, x := range xs {
			frames = append(frames, balanceFrame(float64(k)*0.1, x, 0.5, 30))
		}
		end := float64(len(xs)-1) * 0.1
		m := compute(analysis.Input{Frames: frames, ActiveEntry: 0, Success: true, EndedAt: end},
			analysis.WithMaxDuration(60))

		Convey("Then no burst fires even though corrections accumulate", func() {
			So(m.CorrectionsCount, ShouldEqual, 3)
			So(eventsOf(m, analysis.EventCorrectionBurst), ShouldBeEmpty)
		})
	})
}

func TestStabilizationDetection(t *testing.T) {
	Convey("Given sway that settles after an agitated start", t, func() {
		var frames []pose.Frame
		for k := 0; k <= 65; k++ {
			x := 0.5 + 0.01*float64(k)
			if k > 20 {
				x = 0.70
			}
			frames = append(frames, balanceFrame(float64(k)*0.1, x, 0.5, 30))
		}
		m := compute(analysis.Input{Frames: frames, ActiveEntry: 0, Success: true, EndedAt: 6.5})
		calms := eventsOf(m, analysis.EventStabilized)

		Convey("Then one stabilized event marks the sustain point", func() {
			So(calms, ShouldHaveLength, 1)
			So(calms[0].Timestamp, ShouldAlmostEqual, 5.1, 0.01)
			So(calms[0].Severity, ShouldEqual, analysis.SeverityHigh)
			So(calms[0].Detail, ShouldContainSubstring, "sway settled")
		})

		Convey("And the calm stretch emits only once", func() {
			So(len(calms), ShouldEqual, 1)
		})
	})

	Convey("Given sway that never rises above the calm threshold", t, func() {
		m := compute(analysis.Input{Frames: staticTrial(0, 8, 0.5, 0.5), ActiveEntry: 0, Success: true, EndedAt: 8})

		Convey("Then stillness alone is not a stabilization", func() {
			So(eventsOf(m, analysis.EventStabilized), ShouldBeEmpty)
		})
	})

	Convey("Given a calm stretch shorter than the sustain period", t, func() {
		var frames []pose.Frame
		for k := 0; k <= 40; k++ {
			x := 0.5 + 0.01*float64(k)
			if k > 20 {
				x = 0.70
			}
			frames = append(frames, balanceFrame(float64(k)*0.1, x, 0.5, 30))
		}
		m := compute(analysis.Input{Frames: frames, ActiveEntry: 0, Success: true, EndedAt: 4.0})

		Convey("Then no event fires", func() {
			So(eventsOf(m, analysis.EventStabilized), ShouldBeEmpty)
		})
	})
}
