package teststream

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"
)

// retrieveResults fetches the analyzed result for every trial that reached
// a terminal state, concurrently.
func retrieveResults(ctx context.Context, config *Config, trials []Trial, stats *Stats) ([]TrialResult, error) {
	log.Printf("🏁 Retrieving results for %d trials with %d workers...", len(trials), config.Workers)

	client := newHTTPClient(config.Timeout)

	// Results storage
	results := make([]TrialResult, len(trials))
	var (
		retrieved int64
		missing   int64
	)

	// Progress reporting
	var lastReport atomic.Int64
	reportInterval := 1 * time.Second

	// Create worker pool
	trialChan := make(chan int, config.Workers*WorkerChannelMultiplier) // Send indices instead of IDs
	var wg sync.WaitGroup

	// Start workers
	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()

			for index := range trialChan {
				select {
				case <-ctx.Done():
					return
				default:
					t := trials[index]
					if t.TrialID == "" || (t.FinalState != StateCompletedSuccess && t.FinalState != StateCompletedFailure) {
						// Never started, or ended without an analyzable
						// outcome; there is no result document to fetch.
						atomic.AddInt64(&missing, 1)
						continue
					}

					result, err := retrieveSingleResult(ctx, client, config, t.TrialID)
					if err != nil {
						atomic.AddInt64(&missing, 1)
						if config.Verbose {
							log.Printf("⚠️  Failed to get result for %s: %v", t.TrialID, err)
						}
					} else {
						results[index] = result
						atomic.AddInt64(&retrieved, 1)
					}

					// Progress reporting
					now := time.Now().UnixNano()
					last := lastReport.Load()
					if now-last >= int64(reportInterval) && lastReport.CompareAndSwap(last, now) {
						ret := atomic.LoadInt64(&retrieved)
						miss := atomic.LoadInt64(&missing)
						total := ret + miss

						if config.Verbose {
							log.Printf("📊 Result progress: %d/%d retrieved (success: %d, missing: %d)",
								total, len(trials), ret, miss)
						} else {
							log.Printf("\r🏁 Results: %d/%d retrieved (success: %d, missing: %d)",
								total, len(trials), ret, miss)
						}
					}
				}
			}
		}(i)
	}

	// Send trial indices to workers
	go func() {
		defer close(trialChan)
		for i := range trials {
			select {
			case <-ctx.Done():
				return
			case trialChan <- i:
			}
		}
	}()

	// Wait for all workers to complete
	wg.Wait()

	// Final progress report
	if !config.Verbose {
		log.Println() // New line after progress indicator
	}

	// Filter out empty entries (failed retrievals)
	validResults := make([]TrialResult, 0, len(results))
	for _, result := range results {
		if result.TrialID != "" { // Empty TrialID indicates failed retrieval
			validResults = append(validResults, result)
		}
	}

	// Update stats
	stats.ResultsRetrieved = len(validResults)

	log.Printf(`✅ Result retrieval completed:
   Retrieved: %d
   Missing: %d
`, len(validResults), int(atomic.LoadInt64(&missing)))

	return validResults, nil
}

// retrieveSingleResult polls one trial's result until the analysis workers
// persist it.
func retrieveSingleResult(ctx context.Context, client *HTTPClient, config *Config, trialID string) (TrialResult, error) {
	url := fmt.Sprintf("%s/trials/%s/result", config.BaseURL, trialID)
	deadline := time.Now().Add(ResultPollTimeout)
	for {
		resp, err := client.Get(ctx, url)
		if err != nil {
			return TrialResult{}, fmt.Errorf("request failed: %w", err)
		}
		body, err := readResponseBody(resp)
		if err != nil {
			return TrialResult{}, fmt.Errorf("failed to read response: %w", err)
		}

		switch resp.StatusCode {
		case StatusOK:
			var result TrialResult
			if err := unmarshalJSON(body, &result); err != nil {
				return TrialResult{}, fmt.Errorf("failed to parse response: %w", err)
			}
			return result, nil
		case StatusNotFound:
			// Not persisted yet; keep polling
		default:
			return TrialResult{}, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
		}

		if time.Now().After(deadline) {
			return TrialResult{}, fmt.Errorf("result not available after %s", ResultPollTimeout)
		}
		select {
		case <-ctx.Done():
			return TrialResult{}, ctx.Err()
		case <-time.After(ResultPollInterval):
		}
	}
}

// getAssessmentResults fetches the aggregate document for every assessment.
func getAssessmentResults(ctx context.Context, config *Config, trials []Trial, stats *Stats) ([]AssessmentResult, error) {
	// Collect unique assessment IDs in plan order
	seen := make(map[string]bool, config.NumAssessments)
	ids := make([]string, 0, config.NumAssessments)
	for _, t := range trials {
		if t.AssessmentID != "" && !seen[t.AssessmentID] {
			seen[t.AssessmentID] = true
			ids = append(ids, t.AssessmentID)
		}
	}

	log.Printf("🥇 Fetching %d assessment aggregates...", len(ids))

	client := newHTTPClient(config.Timeout)

	aggregates := make([]AssessmentResult, 0, len(ids))
	complete := 0
	for _, id := range ids {
		url := fmt.Sprintf("%s/assessments/%s", config.BaseURL, id)
		resp, err := client.Get(ctx, url)
		if err != nil {
			return nil, fmt.Errorf("request failed: %w", err)
		}
		body, err := readResponseBody(resp)
		if err != nil {
			return nil, fmt.Errorf("failed to read response: %w", err)
		}
		if resp.StatusCode != StatusOK {
			return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
		}

		var aggregate AssessmentResult
		if err := unmarshalJSON(body, &aggregate); err != nil {
			return nil, fmt.Errorf("failed to parse response: %w", err)
		}
		if aggregate.Complete {
			complete++
		}
		aggregates = append(aggregates, aggregate)
	}

	stats.AggregatesComplete = complete
	log.Printf("✅ Retrieved %d aggregates (%d complete with comparison)", len(aggregates), complete)

	return aggregates, nil
}
