package pose_test

import (
	"math"
	"testing"

	pose "github.com/peakform/stork/internal/domain/pose"
	. "github.com/smartystreets/goconvey/convey"
)

func TestLeg(t *testing.T) {
	Convey("Given the two supported legs", t, func() {
		Convey("Then both should be valid and opposite of each other", func() {
			So(pose.LegLeft.Valid(), ShouldBeTrue)
			So(pose.LegRight.Valid(), ShouldBeTrue)
			So(pose.LegLeft.Opposite(), ShouldEqual, pose.LegRight)
			So(pose.LegRight.Opposite(), ShouldEqual, pose.LegLeft)
		})

		Convey("Then an unknown leg should be invalid", func() {
			So(pose.Leg("both").Valid(), ShouldBeFalse)
		})

		Convey("Then side helpers should name the matching landmarks", func() {
			So(pose.LegLeft.Ankle(), ShouldEqual, pose.LeftAnkle)
			So(pose.LegRight.Ankle(), ShouldEqual, pose.RightAnkle)
			So(pose.LegLeft.Hip(), ShouldEqual, pose.LeftHip)
			So(pose.LegRight.Wrist(), ShouldEqual, pose.RightWrist)
		})
	})
}

func TestFrameVisibility(t *testing.T) {
	Convey("Given a frame with mixed landmark visibility", t, func() {
		frame := pose.Frame{
			Timestamp: 1.5,
			Landmarks: map[string]pose.Point{
				pose.LeftHip:    {X: 0.4, Y: 0.5, Visibility: 0.9},
				pose.RightHip:   {X: 0.6, Y: 0.5, Visibility: 0.9},
				pose.LeftAnkle:  {X: 0.45, Y: 0.9, Visibility: 0.3},
				pose.RightAnkle: {X: 0.55, Y: 0.9, Visibility: 0.8},
			},
		}

		Convey("When checking individual landmarks", func() {
			So(frame.Visible(pose.LeftHip, 0.5), ShouldBeTrue)
			So(frame.Visible(pose.LeftAnkle, 0.5), ShouldBeFalse)
			So(frame.Visible(pose.Nose, 0.5), ShouldBeFalse)
		})

		Convey("When scanning the stance landmarks", func() {
			missing, ok := frame.FirstMissing(0.5, pose.StanceLandmarks...)

			Convey("Then the first weak landmark should be reported", func() {
				So(ok, ShouldBeFalse)
				So(missing, ShouldEqual, pose.LeftAnkle)
			})
		})

		Convey("When every landmark passes the threshold", func() {
			missing, ok := frame.FirstMissing(0.2, pose.StanceLandmarks...)
			So(ok, ShouldBeTrue)
			So(missing, ShouldEqual, "")
		})
	})
}

func TestFrameClone(t *testing.T) {
	Convey("Given a frame", t, func() {
		frame := pose.Frame{
			Timestamp: 2.0,
			Landmarks: map[string]pose.Point{
				pose.LeftHip: {X: 0.4, Y: 0.5, Visibility: 1},
			},
		}

		Convey("When cloning and mutating the clone", func() {
			clone := frame.Clone()
			clone.Landmarks[pose.LeftHip] = pose.Point{X: 9}

			Convey("Then the original should be untouched", func() {
				So(frame.Landmarks[pose.LeftHip].X, ShouldEqual, 0.4)
				So(clone.Landmarks[pose.LeftHip].X, ShouldEqual, 9.0)
			})
		})
	})
}

func TestGeometry(t *testing.T) {
	Convey("Given two points", t, func() {
		a := pose.Point{X: 0, Y: 0, Visibility: 0.9}
		b := pose.Point{X: 0.3, Y: 0.4, Visibility: 0.7}

		Convey("Then the planar distance should be Euclidean in XY", func() {
			So(pose.PlanarDist(a, b), ShouldAlmostEqual, 0.5, 1e-12)
		})

		Convey("Then the midpoint should average coordinates and keep the weaker visibility", func() {
			m := pose.Midpoint(a, b)
			So(m.X, ShouldAlmostEqual, 0.15, 1e-12)
			So(m.Y, ShouldAlmostEqual, 0.2, 1e-12)
			So(m.Visibility, ShouldEqual, 0.7)
		})
	})
}

func TestSubjectScale(t *testing.T) {
	Convey("Given a frame with a full trunk", t, func() {
		frame := pose.Frame{
			Landmarks: map[string]pose.Point{
				pose.LeftShoulder:  {X: 0.40, Y: 0.30, Visibility: 0.9},
				pose.RightShoulder: {X: 0.60, Y: 0.30, Visibility: 0.9},
				pose.LeftHip:       {X: 0.40, Y: 0.55, Visibility: 0.9},
				pose.RightHip:      {X: 0.60, Y: 0.55, Visibility: 0.9},
			},
		}

		Convey("When estimating the subject scale", func() {
			scale, ok := frame.SubjectScale(0.5)

			Convey("Then it should be the shoulder-to-hip midpoint distance", func() {
				So(ok, ShouldBeTrue)
				So(scale, ShouldAlmostEqual, 0.25, 1e-12)
			})
		})

		Convey("When a shoulder drops below the threshold", func() {
			weak := frame.Clone()
			p := weak.Landmarks[pose.LeftShoulder]
			p.Visibility = 0.1
			weak.Landmarks[pose.LeftShoulder] = p

			_, ok := weak.SubjectScale(0.5)
			So(ok, ShouldBeFalse)
		})

		Convey("When shoulders and hips coincide", func() {
			flat := pose.Frame{Landmarks: map[string]pose.Point{
				pose.LeftShoulder:  {X: 0.5, Y: 0.5, Visibility: 1},
				pose.RightShoulder: {X: 0.5, Y: 0.5, Visibility: 1},
				pose.LeftHip:       {X: 0.5, Y: 0.5, Visibility: 1},
				pose.RightHip:      {X: 0.5, Y: 0.5, Visibility: 1},
			}}

			_, ok := flat.SubjectScale(0.5)
			So(ok, ShouldBeFalse)
		})
	})

	Convey("Given NaN-free math on degenerate distances", t, func() {
		So(math.IsNaN(pose.PlanarDist(pose.Point{}, pose.Point{})), ShouldBeFalse)
	})
}
