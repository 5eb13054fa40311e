package scoring_test

import (
	"context"
	"testing"

	scoring "github.com/peakform/stork/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

func TestTierScorer_Score(t *testing.T) {
	Convey("Given the default rubric", t, func() {
		scorer := scoring.NewTierScorer()
		score := func(hold float64, age int) scoring.Result {
			res, err := scorer.Score(context.Background(), scoring.Input{HoldTime: hold, Age: age})
			So(err, ShouldBeNil)
			return res
		}

		Convey("Then each band starts exactly at its boundary", func() {
			cases := []struct {
				hold  float64
				score int
				label string
			}{
				{30, 5, "Advanced"},
				{25, 5, "Advanced"},
				{24.999, 4, "Proficient"},
				{20, 4, "Proficient"},
				{15, 3, "Competent"},
				{10, 2, "Developing"},
				{9.999, 1, "Beginning"},
				{0.4, 1, "Beginning"},
				{0, 1, "Beginning"},
			}
			for _, c := range cases {
				res := score(c.hold, 10)
				So(res.Score, ShouldEqual, c.score)
				So(res.Label, ShouldEqual, c.label)
			}
		})

		Convey("Then the score never decreases as the hold grows", func() {
			prev := 0
			for hold := 0.0; hold <= 32; hold += 0.5 {
				res := score(hold, 10)
				So(res.Score, ShouldBeGreaterThanOrEqualTo, prev)
				prev = res.Score
			}
		})

		Convey("Then age expectations bracket the earned score", func() {
			So(score(30, 5).AgeExpectation, ShouldEqual, scoring.ExpectationAbove)
			So(score(30, 13).AgeExpectation, ShouldEqual, scoring.ExpectationMeets)
			So(score(5, 13).AgeExpectation, ShouldEqual, scoring.ExpectationBelow)
			So(score(12, 7).AgeExpectation, ShouldEqual, scoring.ExpectationMeets)
		})

		Convey("Then ages outside the table always meet expectations", func() {
			So(score(0, 4).AgeExpectation, ShouldEqual, scoring.ExpectationMeets)
			So(score(30, 40).AgeExpectation, ShouldEqual, scoring.ExpectationMeets)
			So(score(30, 0).AgeExpectation, ShouldEqual, scoring.ExpectationMeets)
		})

		Convey("Then a fixed hold reads harsher as the athlete ages", func() {
			rank := map[string]int{
				scoring.ExpectationBelow: 0,
				scoring.ExpectationMeets: 1,
				scoring.ExpectationAbove: 2,
			}
			for age := 5; age < 13; age++ {
				younger := score(12, age)
				older := score(12, age+1)
				So(rank[older.AgeExpectation], ShouldBeLessThanOrEqualTo, rank[younger.AgeExpectation])
			}
		})

		Convey("When the context is already cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			_, err := scorer.Score(ctx, scoring.Input{HoldTime: 10, Age: 10})

			Convey("Then the error propagates", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})

	Convey("Given a custom rubric supplied out of order", t, func() {
		scorer := scoring.NewTierScorer(
			scoring.WithTiers([]scoring.Tier{
				{MinHold: 0, Score: 1, Label: "Novice"},
				{MinHold: 8, Score: 2, Label: "Steady"},
			}),
			scoring.WithExpectations(map[int]int{9: 2}),
		)

		Convey("Then bands are matched from the top regardless of input order", func() {
			res, err := scorer.Score(context.Background(), scoring.Input{HoldTime: 9, Age: 9})
			So(err, ShouldBeNil)
			So(res.Score, ShouldEqual, 2)
			So(res.Label, ShouldEqual, "Steady")
			So(res.AgeExpectation, ShouldEqual, scoring.ExpectationMeets)
		})

		Convey("Then holds below every band fall to the lowest", func() {
			res, err := scorer.Score(context.Background(), scoring.Input{HoldTime: 3, Age: 9})
			So(err, ShouldBeNil)
			So(res.Label, ShouldEqual, "Novice")
			So(res.AgeExpectation, ShouldEqual, scoring.ExpectationBelow)
		})
	})
}
