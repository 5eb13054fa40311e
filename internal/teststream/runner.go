package teststream

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/peakform/stork/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0750
)

// Run executes the complete stream test.
func Run(ctx context.Context, config *Config) error {
	stats := &Stats{
		StartTime: time.Now(),
	}

	logger.Get().Info(ctx, "starting stork stream test",
		logger.String("baseURL", config.BaseURL),
		logger.Int("assessments", config.NumAssessments),
		logger.Int("workers", config.Workers),
		logger.String("timeout", config.Timeout.String()),
		logger.Float64("debounce", config.Debounce),
		logger.Float64("countdown", config.Countdown),
		logger.Float64("maxHold", config.MaxHold),
		logger.String("logFile", config.LogFile),
		logger.Any("verbose", config.Verbose))

	// Step 1: Check service health
	if err := checkServiceHealth(ctx, config); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Script the trial plan
	trials, err := generatePlan(ctx, config, stats)
	if err != nil {
		return fmt.Errorf("plan generation failed: %w", err)
	}

	// Step 3: Create assessments
	if err := createAssessments(ctx, config, trials, stats); err != nil {
		return fmt.Errorf("assessment creation failed: %w", err)
	}

	// Step 4: Stream the trials concurrently
	if err := runTrials(ctx, config, trials, stats); err != nil {
		return fmt.Errorf("trial streaming failed: %w", err)
	}

	// Step 5: Let the analysis workers drain
	logger.Get().Info(ctx, "waiting for analysis workers to drain")
	time.Sleep(ResultSettleDelay)

	// Step 6: Retrieve trial results concurrently
	results, err := retrieveResults(ctx, config, trials, stats)
	if err != nil {
		return fmt.Errorf("result retrieval failed: %w", err)
	}

	// Step 7: Fetch assessment aggregates
	aggregates, err := getAssessmentResults(ctx, config, trials, stats)
	if err != nil {
		return fmt.Errorf("aggregate retrieval failed: %w", err)
	}

	// Step 8: Verify results
	if err := verifyResults(ctx, config, trials, results, aggregates, stats); err != nil {
		return fmt.Errorf("result verification failed: %w", err)
	}

	// Step 9: Save results to file
	if err := saveResultsToFile(ctx, config, results); err != nil {
		logger.Get().Warn(ctx, "failed to save results to file", logger.Error(err))
	}

	// Final statistics
	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	displayFinalStats(stats)

	logger.Get().Info(ctx, "test completed successfully")
	return nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, config *Config) error {
	logger.Get().Info(ctx, "checking service health")

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/healthz"

	resp, err := client.Get(ctx, url)
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Get().Error(context.Background(), "failed to close response body", logger.Error(err))
		}
	}()

	if resp.StatusCode != StatusOK {
		return fmt.Errorf("service health check failed with status: %d", resp.StatusCode)
	}

	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// saveResultsToFile saves the retrieved trial results to a JSON file.
func saveResultsToFile(ctx context.Context, config *Config, results []TrialResult) error {
	if len(results) == 0 {
		return fmt.Errorf("no results to save")
	}

	// Determine output filename
	filename := config.OutputFile
	if filename == "" {
		timestamp := time.Now().Format("20060102_150405")
		filename = "trial_results_" + timestamp + ".json"
	}

	// Ensure the directory exists
	dir := filepath.Dir(filename)
	if dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	// Write results to file
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			logger.Get().Error(context.Background(), "failed to close file", logger.Error(err))
		}
	}()

	// Write JSON array
	if _, err := file.WriteString("[\n"); err != nil {
		return fmt.Errorf("failed to write opening bracket: %w", err)
	}

	for i, result := range results {
		jsonData, err := marshalJSON(result)
		if err != nil {
			return fmt.Errorf("failed to marshal result %d: %w", i, err)
		}

		if _, err := file.Write(jsonData); err != nil {
			return fmt.Errorf("failed to write result %d: %w", i, err)
		}

		// Add comma except for last result
		if i < len(results)-1 {
			if _, err := file.WriteString(","); err != nil {
				return fmt.Errorf("failed to write comma: %w", err)
			}
		}
		_, _ = file.WriteString("\n")
	}

	if _, err := file.WriteString("]\n"); err != nil {
		return fmt.Errorf("failed to write closing bracket: %w", err)
	}

	logger.Get().Info(ctx, "results saved to file", logger.String("filename", filename))
	return nil
}

// displayFinalStats prints the final test statistics.
func displayFinalStats(stats *Stats) {
	var successRate, framesPerSec float64

	run := stats.TrialsSucceeded + stats.TrialsFailed
	if run > 0 {
		successRate = float64(stats.TrialsSucceeded) / float64(run) * PercentageMultiplier
	}

	if stats.Duration > 0 {
		framesPerSec = float64(stats.FramesSubmitted) / stats.Duration.Seconds()
	}

	logger.Get().Info(context.Background(), "final statistics",
		logger.Int("assessmentsCreated", stats.AssessmentsCreated),
		logger.Int("trialsPlanned", stats.TrialsPlanned),
		logger.Int("trialsSucceeded", stats.TrialsSucceeded),
		logger.Int("trialsFailed", stats.TrialsFailed),
		logger.Int("trialsErrored", stats.TrialsErrored),
		logger.Int("framesSubmitted", stats.FramesSubmitted),
		logger.Int("batchesRetried", stats.BatchesRetried),
		logger.Int("resultsRetrieved", stats.ResultsRetrieved),
		logger.Int("aggregatesComplete", stats.AggregatesComplete),
		logger.Int("verificationIssues", stats.VerificationIssues),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("successRate", successRate),
		logger.Float64("framesPerSecond", framesPerSec))
}
