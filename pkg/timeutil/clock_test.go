package timeutil_test

import (
	"testing"
	"time"

	timeutil "github.com/peakform/stork/pkg/timeutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMockClock(t *testing.T) {
	Convey("Given a mock clock", t, func() {
		base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
		clk := timeutil.NewMockClock(base)

		Convey("Then Now and Since track the set time", func() {
			So(clk.Now(), ShouldEqual, base)
			clk.Set(base.Add(5 * time.Second))
			So(clk.Since(base), ShouldEqual, 5*time.Second)
		})

		Convey("When a timer is armed", func() {
			timer := clk.NewTimer(2 * time.Second)

			Convey("Then it stays silent before the deadline", func() {
				clk.Advance(1 * time.Second)
				select {
				case <-timer.C():
					So(false, ShouldBeTrue)
				default:
				}
			})

			Convey("Then it fires once the deadline passes", func() {
				clk.Advance(2 * time.Second)
				select {
				case fired := <-timer.C():
					So(fired, ShouldEqual, base.Add(2*time.Second))
				default:
					So(false, ShouldBeTrue)
				}
			})

			Convey("Then a reset re-arms it from the current time", func() {
				clk.Advance(1 * time.Second)
				timer.Reset(2 * time.Second)
				clk.Advance(1 * time.Second)
				select {
				case <-timer.C():
					So(false, ShouldBeTrue)
				default:
				}
				clk.Advance(1 * time.Second)
				select {
				case <-timer.C():
				default:
					So(false, ShouldBeTrue)
				}
			})

			Convey("Then a stopped timer never fires", func() {
				So(timer.Stop(), ShouldBeTrue)
				clk.Advance(5 * time.Second)
				select {
				case <-timer.C():
					So(false, ShouldBeTrue)
				default:
				}
			})
		})

		Convey("When a ticker is running", func() {
			ticker := clk.NewTicker(1 * time.Second)

			Convey("Then each advance past the interval delivers a tick", func() {
				clk.Advance(1 * time.Second)
				select {
				case <-ticker.C():
				default:
					So(false, ShouldBeTrue)
				}
			})

			Convey("Then stopping silences it", func() {
				ticker.Stop()
				clk.Advance(3 * time.Second)
				select {
				case <-ticker.C():
					So(false, ShouldBeTrue)
				default:
				}
			})
		})
	})
}

func TestRealClock(t *testing.T) {
	Convey("Given the real clock", t, func() {
		clk := timeutil.RealClock{}

		Convey("Then Now is close to the wall clock", func() {
			So(clk.Since(clk.Now()), ShouldBeLessThan, time.Second)
		})

		Convey("Then timers deliver on the standard channel", func() {
			timer := clk.NewTimer(time.Millisecond)
			select {
			case <-timer.C():
			case <-time.After(time.Second):
				So(false, ShouldBeTrue)
			}
		})
	})
}
