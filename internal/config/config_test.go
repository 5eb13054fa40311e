package config_test

import (
	"runtime"
	"testing"

	"github.com/peakform/stork/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible service defaults", func() {
			convey.So(cfg.LogLevel, convey.ShouldEqual, "info")
			convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
			convey.So(cfg.QueueSize, convey.ShouldEqual, 1024)
			convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU())
			convey.So(cfg.DedupeSize, convey.ShouldEqual, 50_000)
		})

		convey.Convey("Then it should carry the protocol calibration", func() {
			convey.So(cfg.CountdownSeconds, convey.ShouldEqual, 3.0)
			convey.So(cfg.MaxDurationSeconds, convey.ShouldEqual, 30.0)
			convey.So(cfg.StaleTimeoutSeconds, convey.ShouldEqual, 2.0)
			convey.So(cfg.ReadinessDebounceSeconds, convey.ShouldEqual, 1.0)
			convey.So(cfg.VisibilityThreshold, convey.ShouldEqual, 0.5)
			convey.So(cfg.TouchdownEpsilon, convey.ShouldEqual, 0.20)
			convey.So(cfg.HandsOffThreshold, convey.ShouldEqual, 0.60)
			convey.So(cfg.SupportMoveThreshold, convey.ShouldEqual, 0.30)
			convey.So(cfg.DefaultSubjectScale, convey.ShouldEqual, 0.25)
		})

		convey.Convey("Then it should carry the analysis calibration", func() {
			convey.So(cfg.CorrectionThreshold, convey.ShouldEqual, 0.04)
			convey.So(cfg.SegmentSeconds, convey.ShouldEqual, 5.0)
			convey.So(cfg.FlapMinHz, convey.ShouldEqual, 2.0)
			convey.So(cfg.BurstMinCount, convey.ShouldEqual, 3)
			convey.So(cfg.CalmVelocity, convey.ShouldEqual, 0.30)
		})

		convey.Convey("Then the symmetry weights should cover every component", func() {
			convey.So(cfg.SymmetryWeights["duration"], convey.ShouldEqual, 0.50)
			convey.So(cfg.SymmetryWeights["sway"], convey.ShouldEqual, 0.30)
			convey.So(cfg.SymmetryWeights["arm"], convey.ShouldEqual, 0.10)
			convey.So(cfg.SymmetryWeights["corrections"], convey.ShouldEqual, 0.10)
			convey.So(cfg.ArmSymmetryDenominatorDeg, convey.ShouldEqual, 45.0)
			convey.So(cfg.CorrectionsSymmetryDenominator, convey.ShouldEqual, 10.0)
			convey.So(cfg.DominanceThresholdPct, convey.ShouldEqual, 20.0)
		})

		convey.Convey("Then the age-expectation table should span ages 5 to 13", func() {
			convey.So(cfg.AgeExpectations, convey.ShouldHaveLength, 9)
			convey.So(cfg.AgeExpectations[5], convey.ShouldEqual, 1)
			convey.So(cfg.AgeExpectations[7], convey.ShouldEqual, 2)
			convey.So(cfg.AgeExpectations[9], convey.ShouldEqual, 3)
			convey.So(cfg.AgeExpectations[11], convey.ShouldEqual, 4)
			convey.So(cfg.AgeExpectations[13], convey.ShouldEqual, 5)
		})
	})
}
