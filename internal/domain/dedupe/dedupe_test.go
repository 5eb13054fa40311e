package dedupe_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	dedupe "github.com/peakform/stork/internal/domain/dedupe"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInMemoryDeduper(t *testing.T) {
	Convey("Given a new InMemoryDeduper", t, func() {
		Convey("When recording trials", func() {
			d := dedupe.NewInMemoryDeduper()

			Convey("And the trial is new", func() {
				seen := d.SeenAndRecord(context.Background(), "trial-1")

				Convey("Then it should return false and record the trial", func() {
					So(seen, ShouldBeFalse)
					So(d.Size(), ShouldEqual, 1)
				})
			})

			Convey("And the trial was already seen", func() {
				d.SeenAndRecord(context.Background(), "trial-1")
				seen := d.SeenAndRecord(context.Background(), "trial-1")

				Convey("Then it should return true", func() {
					So(seen, ShouldBeTrue)
					So(d.Size(), ShouldEqual, 1)
				})
			})

			Convey("And multiple trials are recorded", func() {
				trials := []string{"trial-1", "trial-2", "trial-3", "trial-4", "trial-5"}
				for _, id := range trials {
					So(d.SeenAndRecord(context.Background(), id), ShouldBeFalse)
				}

				Convey("Then all trials should be recorded", func() {
					So(d.Size(), ShouldEqual, int64(len(trials)))
					for _, id := range trials {
						So(d.SeenAndRecord(context.Background(), id), ShouldBeTrue)
					}
				})
			})
		})

		Convey("When unrecording trials", func() {
			d := dedupe.NewInMemoryDeduper()

			Convey("And the trial exists", func() {
				d.SeenAndRecord(context.Background(), "trial-1")
				So(d.Size(), ShouldEqual, 1)

				d.Unrecord(context.Background(), "trial-1")

				Convey("Then it should be removed and retryable", func() {
					So(d.Size(), ShouldEqual, 0)
					So(d.SeenAndRecord(context.Background(), "trial-1"), ShouldBeFalse)
				})
			})

			Convey("And the trial doesn't exist", func() {
				d.Unrecord(context.Background(), "nonexistent")

				Convey("Then it should not affect the size", func() {
					So(d.Size(), ShouldEqual, 0)
				})
			})
		})

		Convey("When using bounded mode with eviction", func() {
			d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(3))

			Convey("And the deduper is at capacity", func() {
				for _, id := range []string{"trial-1", "trial-2", "trial-3"} {
					So(d.SeenAndRecord(context.Background(), id), ShouldBeFalse)
				}
				So(d.Size(), ShouldEqual, 3)

				seen := d.SeenAndRecord(context.Background(), "trial-4")

				Convey("Then it should evict the oldest and hold the bound", func() {
					So(seen, ShouldBeFalse)
					So(d.Size(), ShouldEqual, 3)

					// trial-1 was the oldest, so it is gone and re-recording
					// it evicts the next oldest in turn.
					So(d.SeenAndRecord(context.Background(), "trial-1"), ShouldBeFalse)
					So(d.Size(), ShouldEqual, 3)
					So(d.SeenAndRecord(context.Background(), "trial-2"), ShouldBeFalse)
					So(d.Size(), ShouldEqual, 3)
				})
			})

			Convey("And slots were unrecorded before the wrap", func() {
				for _, id := range []string{"trial-1", "trial-2", "trial-3"} {
					d.SeenAndRecord(context.Background(), id)
				}
				d.Unrecord(context.Background(), "trial-1")
				So(d.Size(), ShouldEqual, 2)

				Convey("Then stale slots do not distort the count", func() {
					So(d.SeenAndRecord(context.Background(), "trial-4"), ShouldBeFalse)
					So(d.Size(), ShouldEqual, 3)
					So(d.SeenAndRecord(context.Background(), "trial-2"), ShouldBeTrue)
					So(d.SeenAndRecord(context.Background(), "trial-3"), ShouldBeTrue)
				})
			})
		})

		Convey("When using unbounded mode", func() {
			d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(0))

			Convey("And many trials are recorded", func() {
				const numTrials = 1000
				for i := 0; i < numTrials; i++ {
					So(d.SeenAndRecord(context.Background(), fmt.Sprintf("trial-%d", i)), ShouldBeFalse)
				}

				Convey("Then all trials should be recorded without eviction", func() {
					So(d.Size(), ShouldEqual, int64(numTrials))
					for i := 0; i < numTrials; i++ {
						So(d.SeenAndRecord(context.Background(), fmt.Sprintf("trial-%d", i)), ShouldBeTrue)
					}
				})
			})
		})
	})
}

func TestDedupeConcurrency(t *testing.T) {
	Convey("Given a deduper with concurrent access", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(1000))
		const numGoroutines = 10
		const trialsPerGoroutine = 100

		Convey("When multiple goroutines record trials concurrently", func() {
			var wg sync.WaitGroup
			for i := 0; i < numGoroutines; i++ {
				wg.Add(1)
				go func(id int) {
					defer wg.Done()
					for j := 0; j < trialsPerGoroutine; j++ {
						d.SeenAndRecord(context.Background(), fmt.Sprintf("trial-%d-%d", id, j))
					}
				}(i)
			}
			wg.Wait()

			Convey("Then all trials should be recorded exactly once", func() {
				So(d.Size(), ShouldEqual, int64(numGoroutines*trialsPerGoroutine))
			})
		})

		Convey("When multiple goroutines unrecord trials concurrently", func() {
			const numTrials = 500
			for i := 0; i < numTrials; i++ {
				d.SeenAndRecord(context.Background(), fmt.Sprintf("trial-%d", i))
			}
			So(d.Size(), ShouldEqual, int64(numTrials))

			var wg sync.WaitGroup
			for i := 0; i < numGoroutines; i++ {
				wg.Add(1)
				go func(id int) {
					defer wg.Done()
					per := numTrials / numGoroutines
					for j := 0; j < per; j++ {
						d.Unrecord(context.Background(), fmt.Sprintf("trial-%d", id*per+j))
					}
				}(i)
			}
			wg.Wait()

			Convey("Then all trials should be unrecorded", func() {
				So(d.Size(), ShouldEqual, 0)
			})
		})
	})
}

func TestDedupeEdgeCases(t *testing.T) {
	Convey("Given a deduper with edge cases", t, func() {
		Convey("When recording an empty ID at capacity one", func() {
			d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(1))

			So(d.SeenAndRecord(context.Background(), ""), ShouldBeFalse)
			So(d.Size(), ShouldEqual, 1)
			So(d.SeenAndRecord(context.Background(), ""), ShouldBeTrue)

			Convey("Then the bound survives the empty ID", func() {
				So(d.SeenAndRecord(context.Background(), "trial-1"), ShouldBeFalse)
				So(d.Size(), ShouldEqual, 1)
				So(d.SeenAndRecord(context.Background(), ""), ShouldBeFalse)
				So(d.Size(), ShouldEqual, 1)
			})
		})

		Convey("When using a nil context", func() {
			d := dedupe.NewInMemoryDeduper()

			Convey("Then it should not panic", func() {
				So(func() { d.SeenAndRecord(nil, "trial-1") }, ShouldNotPanic)
				So(func() { d.Unrecord(nil, "trial-1") }, ShouldNotPanic)
			})
		})

		Convey("When using negative max size", func() {
			d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(-1))

			Convey("Then it should be unbounded", func() {
				const numTrials = 1000
				for i := 0; i < numTrials; i++ {
					So(d.SeenAndRecord(context.Background(), fmt.Sprintf("trial-%d", i)), ShouldBeFalse)
				}
				So(d.Size(), ShouldEqual, int64(numTrials))
			})
		})
	})
}
