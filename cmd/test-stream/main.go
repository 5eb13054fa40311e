package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/peakform/stork/internal/teststream"
)

// Default configuration constants.
const (
	defaultNumAssessments = 100
	defaultTopN           = 10
	defaultWorkers        = 2 // multiplier for runtime.NumCPU()
	defaultTimeout        = 30 * time.Second
	defaultTestTimeout    = 10 * time.Minute
	defaultDebounce       = 1.0
	defaultCountdown      = 3.0
	defaultMaxHold        = 30.0
)

func main() {
	var (
		baseURL        = flag.String("url", "http://localhost:8080", "Base URL of the service")
		numAssessments = flag.Int("assessments", defaultNumAssessments, "Number of assessments to run, two trials each")
		topN           = flag.Int("top", defaultTopN, "Number of longest holds to display in the summary")
		workers        = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		timeout        = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		debounce       = flag.Float64("debounce", defaultDebounce, "Readiness debounce of the target service in seconds")
		countdown      = flag.Float64("countdown", defaultCountdown, "Countdown window of the target service in seconds")
		maxHold        = flag.Float64("hold", defaultMaxHold, "Maximum hold duration of the target service in seconds")
		outputFile     = flag.String("output", "", "Output file for trial results (default: trial_results_TIMESTAMP.json)")
		logFile        = flag.String("log", "", "Log file for test output (default: test_log_TIMESTAMP.log)")
		verbose        = flag.Bool("verbose", false, "Enable verbose logging")
		help           = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		teststream.ShowHelp()
		return
	}

	// Setup logging
	if err := teststream.SetupLogging(*logFile); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		return
	}

	// Create context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), defaultTestTimeout)
	defer cancel()

	// Create test configuration
	config := &teststream.Config{
		BaseURL:        *baseURL,
		NumAssessments: *numAssessments,
		TopN:           *topN,
		Workers:        *workers,
		Timeout:        *timeout,
		Debounce:       *debounce,
		Countdown:      *countdown,
		MaxHold:        *maxHold,
		OutputFile:     *outputFile,
		LogFile:        *logFile,
		Verbose:        *verbose,
	}

	// Run the test
	if err := teststream.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Test failed: " + err.Error() + "\n")
		return
	}
}
