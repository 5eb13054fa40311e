// Package scoring maps a completed trial's hold time onto the developmental
// rubric and tags the result against the athlete's age expectation.
package scoring

import (
	"context"
	"sort"
)

// Expectation tags comparing an earned score to the age-expected score.
const (
	ExpectationBelow = "below"
	ExpectationMeets = "meets"
	ExpectationAbove = "above"
)

// Tier is one rubric band: a hold of at least MinHold seconds earns Score
// and Label.
type Tier struct {
	MinHold float64
	Score   int
	Label   string
}

// defaultTiers is the rubric, highest band first. The zero band catches
// every hold, including a failure on the first active frame.
func defaultTiers() []Tier {
	return []Tier{
		{MinHold: 25, Score: 5, Label: "Advanced"},
		{MinHold: 20, Score: 4, Label: "Proficient"},
		{MinHold: 15, Score: 3, Label: "Competent"},
		{MinHold: 10, Score: 2, Label: "Developing"},
		{MinHold: 0, Score: 1, Label: "Beginning"},
	}
}

// defaultExpectations maps athlete age in years to the score a typical
// athlete of that age reaches on this protocol.
func defaultExpectations() map[int]int {
	return map[int]int{5: 1, 6: 1, 7: 2, 8: 3, 9: 3, 10: 4, 11: 4, 12: 5, 13: 5}
}

// Option applies a configuration option to the TierScorer.
type Option func(*TierScorer)

// WithTiers replaces the rubric. The list is copied and kept ordered from
// the highest band down; an empty list is ignored.
func WithTiers(tiers []Tier) Option {
	return func(s *TierScorer) {
		if len(tiers) == 0 {
			return
		}
		s.tiers = append([]Tier(nil), tiers...)
		sort.Slice(s.tiers, func(i, j int) bool { return s.tiers[i].MinHold > s.tiers[j].MinHold })
	}
}

// WithExpectations replaces the age table. The map is copied so later caller
// mutations cannot reach the scorer.
func WithExpectations(byAge map[int]int) Option {
	return func(s *TierScorer) {
		if len(byAge) == 0 {
			return
		}
		s.expectations = make(map[int]int, len(byAge))
		for age, score := range byAge {
			s.expectations[age] = score
		}
	}
}

// Input carries the fields scoring needs from a completed trial.
type Input struct {
	HoldTime float64
	Age      int
}

// Result is the rubric outcome for one trial.
type Result struct {
	Score          int
	Label          string
	AgeExpectation string
}

// Scorer computes a rubric result from a trial's hold time.
type Scorer interface {
	// Score computes a result, honoring ctx for cancellation.
	Score(ctx context.Context, in Input) (Result, error)
}

// TierScorer implements Scorer against a fixed band table.
type TierScorer struct {
	tiers        []Tier
	expectations map[int]int
}

// NewTierScorer creates a scorer with the default rubric and age table,
// adjusted by the given options.
func NewTierScorer(opts ...Option) *TierScorer {
	s := &TierScorer{
		tiers:        defaultTiers(),
		expectations: defaultExpectations(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Score maps the hold time to its band and compares the earned score with
// the age expectation. Ages outside the table score as "meets": the rubric
// has no norm to hold them to.
func (s *TierScorer) Score(ctx context.Context, in Input) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	tier := s.tiers[len(s.tiers)-1]
	for _, t := range s.tiers {
		if in.HoldTime >= t.MinHold {
			tier = t
			break
		}
	}

	res := Result{Score: tier.Score, Label: tier.Label, AgeExpectation: ExpectationMeets}
	if expected, ok := s.expectations[in.Age]; ok {
		switch {
		case tier.Score < expected:
			res.AgeExpectation = ExpectationBelow
		case tier.Score > expected:
			res.AgeExpectation = ExpectationAbove
		}
	}
	return res, nil
}
