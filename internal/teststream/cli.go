package teststream

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/peakform/stork/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0600
)

// SetupLogging configures logging to both console and file.
// If logFile is empty, a timestamped filename is generated.
func SetupLogging(logFile string) error {
	// Initialize the logger first
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if logFile == "" {
		timestamp := time.Now().Format("20060102_150405")
		logFile = "test_log_" + timestamp + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}

	multiWriter := io.MultiWriter(os.Stdout, file)
	log.SetOutput(multiWriter)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	return nil
}

// ShowHelp prints usage information for the stream test tool.
func ShowHelp() {
	os.Stdout.WriteString(`Stork Stream Test Tool
======================

A concurrent tool for exercising the stork balance assessment service end
to end: it scripts pose streams for both legs of each athlete, streams
them over HTTP and verifies the analyzed results.

Usage:
  go run cmd/test-stream/main.go [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:8080")
  -assessments int
        Number of assessments to run, two trials each (default 100)
  -top int
        Number of longest holds to display in the summary (default 10)
  -workers int
        Number of concurrent workers (default CPU cores * 2)
  -timeout duration
        HTTP request timeout (default 30s)
  -debounce float
        Readiness debounce of the target service in seconds (default 1)
  -countdown float
        Countdown window of the target service in seconds (default 3)
  -hold float
        Maximum hold duration of the target service in seconds (default 30)
  -output string
        Output file for trial results (default: trial_results_TIMESTAMP.json)
  -log string
        Log file for test output (default: test_log_TIMESTAMP.log)
  -verbose
        Enable verbose logging
  -help
        Show this help message

The protocol flags must match the target service's configuration: the
scripts time their holds and violations around those windows.

Examples:
  # Test with default settings
  go run cmd/test-stream/main.go

  # Heavier run against a local service
  go run cmd/test-stream/main.go -assessments 500 -workers 16

  # Target a service configured with short protocol windows
  go run cmd/test-stream/main.go -debounce 0.2 -countdown 0.3 -hold 1.0

  # Verbose output with a custom log file
  go run cmd/test-stream/main.go -verbose -log my_test.log
`)
}
