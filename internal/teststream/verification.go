package teststream

import (
	"context"
	"fmt"
	"log"
	"sort"
)

// verifyResults checks every retrieved result against its script's
// expectation and the aggregates for cross-document consistency.
func verifyResults(ctx context.Context, config *Config, trials []Trial, results []TrialResult, aggregates []AssessmentResult, stats *Stats) error {
	log.Println("🔍 Verifying results...")

	if len(results) == 0 {
		return fmt.Errorf("no results to verify")
	}

	byTrial := make(map[string]TrialResult, len(results))
	for _, result := range results {
		byTrial[result.TrialID] = result
	}

	issues := 0
	checked := 0
	for _, t := range trials {
		result, ok := byTrial[t.TrialID]
		if !ok {
			continue
		}
		checked++
		issues += verifySingleResult(config, t, result)
	}

	for _, aggregate := range aggregates {
		issues += verifyAggregate(aggregate)
	}

	stats.VerificationIssues = issues
	if issues > 0 {
		log.Printf("⚠️  Verification found %d issue(s) across %d results", issues, checked)
	} else {
		log.Printf("✅ Verified %d results with no issues", checked)
	}

	// Display the standout holds
	displayLongestHolds(results, config.TopN)

	if config.Verbose {
		displayHoldStatistics(results)
	}

	log.Println("✅ Result verification completed")
	return nil
}

// verifySingleResult checks one result against the profile that scripted it.
func verifySingleResult(config *Config, t Trial, result TrialResult) int {
	issues := 0
	flag := func(format string, args ...interface{}) {
		issues++
		prefix := fmt.Sprintf("⚠️  [%s %s] ", t.Profile, t.Leg)
		log.Printf(prefix+format, args...)
	}

	if result.Leg != t.Leg {
		flag("result leg %q does not match the scripted leg", result.Leg)
	}
	if result.AssessmentID != t.AssessmentID {
		flag("result assessment %q does not match %q", result.AssessmentID, t.AssessmentID)
	}

	if t.ExpectSuccess {
		if !result.Metrics.Success {
			flag("expected a full hold, got %q after %.1fs", result.Metrics.FailureReason, result.Metrics.HoldTime)
		} else if result.Metrics.HoldTime < config.MaxHold-1e-9 {
			flag("hold time %.2fs is short of the %.2fs cap", result.Metrics.HoldTime, config.MaxHold)
		}
	} else {
		switch {
		case result.Metrics.Success:
			flag("expected %q, got a full hold", t.ExpectReason)
		case result.Metrics.FailureReason != t.ExpectReason:
			flag("expected %q, got %q", t.ExpectReason, result.Metrics.FailureReason)
		case result.Metrics.HoldTime >= config.MaxHold:
			flag("failed trial reports hold time %.2fs at or over the cap", result.Metrics.HoldTime)
		}
	}

	if result.DurationScore < 1 || result.DurationScore > 5 {
		flag("duration score %d outside 1..5", result.DurationScore)
	}
	if result.DurationLabel == "" {
		flag("missing duration score label")
	}
	if result.AgeExpectation == "" {
		flag("missing age expectation")
	}

	return issues
}

// verifyAggregate checks the bilateral block of one aggregate document.
func verifyAggregate(aggregate AssessmentResult) int {
	issues := 0
	flag := func(format string, args ...interface{}) {
		issues++
		prefix := fmt.Sprintf("⚠️  [assessment %s] ", aggregate.AssessmentID)
		log.Printf(prefix+format, args...)
	}

	if aggregate.Complete {
		if aggregate.Left == nil || aggregate.Right == nil {
			flag("complete aggregate is missing a leg")
		}
		if aggregate.Comparison == nil {
			flag("complete aggregate has no comparison")
		}
	}

	if aggregate.Comparison != nil {
		c := aggregate.Comparison
		if !aggregate.Complete {
			flag("comparison present on an incomplete aggregate")
		}
		if c.OverallSymmetryScore < 0 || c.OverallSymmetryScore > 100 {
			flag("symmetry score %d outside 0..100", c.OverallSymmetryScore)
		}
		if c.DurationSymmetry < 0 || c.DurationSymmetry > 1 {
			flag("duration symmetry %.3f outside 0..1", c.DurationSymmetry)
		}
		if c.SymmetryAssessment == "" {
			flag("missing symmetry assessment")
		}
		if c.DominantLeg == "" {
			flag("missing dominant leg")
		}
	}

	return issues
}

// displayLongestHolds shows the longest holds across the retrieved results.
func displayLongestHolds(results []TrialResult, topN int) {
	sorted := make([]TrialResult, len(results))
	copy(sorted, results)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Metrics.HoldTime > sorted[j].Metrics.HoldTime
	})

	if len(sorted) < topN {
		topN = len(sorted)
	}

	log.Printf("🏆 Top %d holds:", topN)
	for i := 0; i < topN; i++ {
		result := sorted[i]
		log.Printf("   %d. %s (%s leg) - %.1fs, score %d (%s)",
			i+1, result.AthleteID, result.Leg, result.Metrics.HoldTime, result.DurationScore, result.DurationLabel)
	}
}

// displayHoldStatistics shows hold time statistics across the results.
func displayHoldStatistics(results []TrialResult) {
	if len(results) == 0 {
		return
	}

	maxHold, minHold := results[0].Metrics.HoldTime, results[0].Metrics.HoldTime
	for _, result := range results {
		if result.Metrics.HoldTime > maxHold {
			maxHold = result.Metrics.HoldTime
		}
		if result.Metrics.HoldTime < minHold {
			minHold = result.Metrics.HoldTime
		}
	}

	log.Printf(`📊 Hold statistics:
   Average: %.2fs
   Maximum: %.2fs
   Minimum: %.2fs
`, calculateAverageHold(results), maxHold, minHold)
}

// calculateAverageHold calculates the average hold time of the results.
func calculateAverageHold(results []TrialResult) float64 {
	if len(results) == 0 {
		return 0
	}

	sum := 0.0
	for _, result := range results {
		sum += result.Metrics.HoldTime
	}

	return sum / float64(len(results))
}
