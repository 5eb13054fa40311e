package bilateral_test

import (
	"context"
	"testing"

	analysis "github.com/peakform/stork/internal/domain/analysis"
	bilateral "github.com/peakform/stork/internal/domain/bilateral"
	pose "github.com/peakform/stork/internal/domain/pose"
	. "github.com/smartystreets/goconvey/convey"
)

func metricsFor(hold, sway, armL, armR float64, corrections int) analysis.Metrics {
	return analysis.Metrics{
		HoldTime:         hold,
		SwayVelocity:     sway,
		ArmAngleLeft:     armL,
		ArmAngleRight:    armR,
		CorrectionsCount: corrections,
	}
}

func TestCompare(t *testing.T) {
	Convey("Given a comparator with defaults", t, func() {
		cmp := bilateral.New()
		compare := func(a, b bilateral.Trial) bilateral.Comparison {
			res, err := cmp.Compare(context.Background(), a, b)
			So(err, ShouldBeNil)
			return res
		}

		Convey("When the left leg clearly outlasts the right", func() {
			left := bilateral.Trial{Leg: pose.LegLeft, Metrics: metricsFor(25, 2.0, 20, 20, 2)}
			right := bilateral.Trial{Leg: pose.LegRight, Metrics: metricsFor(18, 3.0, 20, 20, 2)}
			res := compare(left, right)

			Convey("Then the report matches the worked example", func() {
				So(res.DurationDiff, ShouldAlmostEqual, 7, 1e-9)
				So(res.DurationDiffPct, ShouldAlmostEqual, 28, 1e-9)
				So(res.DominantLeg, ShouldEqual, bilateral.DominanceLeft)
				So(res.DurationSymmetry, ShouldAlmostEqual, 0.72, 1e-9)
				So(res.SwaySymmetry, ShouldAlmostEqual, 0.6, 1e-9)
				So(res.ArmSymmetry, ShouldEqual, 1)
				So(res.CorrectionsSymmetry, ShouldEqual, 1)
				So(res.OverallSymmetryScore, ShouldEqual, 74)
				So(res.SymmetryAssessment, ShouldEqual, bilateral.AssessmentGood)
			})

			Convey("Then argument order does not change the report", func() {
				swapped := compare(right, left)
				So(swapped, ShouldResemble, res)
			})
		})

		Convey("When the trials are identical", func() {
			m := metricsFor(20, 1.5, 30, 32, 3)
			res := compare(
				bilateral.Trial{Leg: pose.LegLeft, Metrics: m},
				bilateral.Trial{Leg: pose.LegRight, Metrics: m},
			)

			Convey("Then symmetry is perfect", func() {
				So(res.DurationDiff, ShouldEqual, 0)
				So(res.SwayDiff, ShouldEqual, 0)
				So(res.ArmAngleDiff, ShouldEqual, 0)
				So(res.CorrectionsDiff, ShouldEqual, 0)
				So(res.DominantLeg, ShouldEqual, bilateral.DominanceBalanced)
				So(res.OverallSymmetryScore, ShouldEqual, 100)
				So(res.SymmetryAssessment, ShouldEqual, bilateral.AssessmentExcellent)
			})
		})

		Convey("When both trials failed instantly", func() {
			res := compare(
				bilateral.Trial{Leg: pose.LegLeft, Metrics: metricsFor(0, 0, 0, 0, 0)},
				bilateral.Trial{Leg: pose.LegRight, Metrics: metricsFor(0, 0, 0, 0, 0)},
			)

			Convey("Then zero holds read as balanced, not as division blowups", func() {
				So(res.DurationDiffPct, ShouldEqual, 0)
				So(res.DominantLeg, ShouldEqual, bilateral.DominanceBalanced)
				So(res.SwaySymmetry, ShouldEqual, 1)
				So(res.OverallSymmetryScore, ShouldEqual, 100)
			})
		})

		Convey("When the imbalance sits exactly on the dominance threshold", func() {
			res := compare(
				bilateral.Trial{Leg: pose.LegLeft, Metrics: metricsFor(8, 1, 20, 20, 1)},
				bilateral.Trial{Leg: pose.LegRight, Metrics: metricsFor(10, 1, 20, 20, 1)},
			)

			Convey("Then the threshold is inclusive", func() {
				So(res.DurationDiffPct, ShouldAlmostEqual, 20, 1e-9)
				So(res.DominantLeg, ShouldEqual, bilateral.DominanceRight)
			})
		})

		Convey("When every submetric is maximally apart", func() {
			res := compare(
				bilateral.Trial{Leg: pose.LegLeft, Metrics: metricsFor(30, 2.0, 80, 80, 12)},
				bilateral.Trial{Leg: pose.LegRight, Metrics: metricsFor(0, 0, 0, 0, 0)},
			)

			Convey("Then the score bottoms out at poor", func() {
				So(res.OverallSymmetryScore, ShouldEqual, 0)
				So(res.SymmetryAssessment, ShouldEqual, bilateral.AssessmentPoor)
			})
		})

		Convey("When the trials do not cover both legs", func() {
			left := bilateral.Trial{Leg: pose.LegLeft, Metrics: metricsFor(10, 1, 20, 20, 1)}

			Convey("Then two same-side trials are rejected", func() {
				_, err := cmp.Compare(context.Background(), left, left)
				So(err, ShouldEqual, bilateral.ErrMismatch)
			})

			Convey("Then an unknown leg is rejected", func() {
				_, err := cmp.Compare(context.Background(), left, bilateral.Trial{Leg: "both"})
				So(err, ShouldEqual, bilateral.ErrMismatch)
			})
		})
	})

	Convey("Given custom weights", t, func() {
		cmp := bilateral.New(bilateral.WithWeights(bilateral.Weights{Duration: 1, Sway: 1, Arm: 1, Corrections: 1}))

		Convey("Then they are normalized before use", func() {
			res, err := cmp.Compare(context.Background(),
				bilateral.Trial{Leg: pose.LegLeft, Metrics: metricsFor(25, 2.0, 20, 20, 2)},
				bilateral.Trial{Leg: pose.LegRight, Metrics: metricsFor(18, 3.0, 20, 20, 2)},
			)
			So(err, ShouldBeNil)
			// 0.25*(0.72 + 0.6 + 1 + 1) = 0.83
			So(res.OverallSymmetryScore, ShouldEqual, 83)
		})
	})

	Convey("Given an invalid weight set", t, func() {
		cmp := bilateral.New(bilateral.WithWeights(bilateral.Weights{Duration: -1, Sway: 2}))

		Convey("Then the defaults stay in force", func() {
			res, err := cmp.Compare(context.Background(),
				bilateral.Trial{Leg: pose.LegLeft, Metrics: metricsFor(25, 2.0, 20, 20, 2)},
				bilateral.Trial{Leg: pose.LegRight, Metrics: metricsFor(18, 3.0, 20, 20, 2)},
			)
			So(err, ShouldBeNil)
			So(res.OverallSymmetryScore, ShouldEqual, 74)
		})
	})
}
