package teststream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// HTTPClient wraps http.Client with timeout
type HTTPClient struct {
	client  *http.Client
	timeout time.Duration
}

// newHTTPClient creates a new HTTP client with timeout
func newHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client: &http.Client{
			Timeout: timeout,
		},
		timeout: timeout,
	}
}

// Get performs a GET request
func (c *HTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.client.Do(req)
}

// Post performs a POST request with JSON body
func (c *HTTPClient) Post(ctx context.Context, url string, body interface{}) (*http.Response, error) {
	jsonData, err := marshalJSON(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	return c.client.Do(req)
}

// marshalJSON marshals a struct to JSON
func marshalJSON(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

// unmarshalJSON unmarshals JSON to a struct
func unmarshalJSON(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

// readResponseBody reads and closes the response body
func readResponseBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// Request bodies for the service endpoints.
type createAssessmentRequest struct {
	AthleteID string `json:"athlete_id"`
	Age       int    `json:"age"`
}

type startTrialRequest struct {
	Leg       string `json:"leg"`
	Autostart bool   `json:"autostart"`
}

type framesRequest struct {
	Frames []Frame `json:"frames"`
}

// createAssessments registers one assessment per athlete and stamps the
// returned IDs into the plan.
func createAssessments(ctx context.Context, config *Config, trials []Trial, stats *Stats) error {
	log.Printf("📝 Creating %d assessments...", config.NumAssessments)

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/assessments"

	created := make(map[string]string, config.NumAssessments)
	for i := range trials {
		t := &trials[i]
		if id, ok := created[t.AthleteID]; ok {
			t.AssessmentID = id
			continue
		}

		resp, err := client.Post(ctx, url, createAssessmentRequest{AthleteID: t.AthleteID, Age: t.Age})
		if err != nil {
			return fmt.Errorf("failed to create assessment for %s: %w", t.AthleteID, err)
		}
		body, err := readResponseBody(resp)
		if err != nil {
			return fmt.Errorf("failed to read assessment response: %w", err)
		}
		if resp.StatusCode != StatusCreated {
			return fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
		}

		var a Assessment
		if err := unmarshalJSON(body, &a); err != nil {
			return fmt.Errorf("failed to parse assessment response: %w", err)
		}
		created[t.AthleteID] = a.AssessmentID
		t.AssessmentID = a.AssessmentID
	}

	stats.AssessmentsCreated = len(created)
	log.Printf("✅ Created %d assessments", len(created))
	return nil
}

// runTrials streams every scripted trial through the service using worker
// pools. Each worker starts a trial, pushes its frame batches and waits for
// the terminal state.
func runTrials(ctx context.Context, config *Config, trials []Trial, stats *Stats) error {
	log.Printf("📤 Streaming %d trials with %d workers...", len(trials), config.Workers)

	client := newHTTPClient(config.Timeout)

	// Counters for statistics
	var (
		succeeded int64
		failed    int64
		errored   int64
		frames    int64
		retried   int64
	)

	// Progress reporting
	var lastReport atomic.Int64
	reportInterval := 1 * time.Second

	// Create worker pool
	trialChan := make(chan int, config.Workers*WorkerChannelMultiplier)
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
					t := &trials[index]
					err := runSingleTrial(ctx, client, config, t, &frames, &retried)

					// Update counters
					switch {
					case err != nil:
						atomic.AddInt64(&errored, 1)
						if config.Verbose {
							log.Printf("⚠️  Trial %s/%s did not finish: %v", t.AthleteID, t.Leg, err)
						}
					case t.FinalState == StateCompletedSuccess:
						atomic.AddInt64(&succeeded, 1)
					case t.FinalState == StateCompletedFailure:
						atomic.AddInt64(&failed, 1)
					default:
						atomic.AddInt64(&errored, 1)
					}

					// Progress reporting
					now := time.Now().UnixNano()
					last := lastReport.Load()
					if now-last >= int64(reportInterval) && lastReport.CompareAndSwap(last, now) {
						succ := atomic.LoadInt64(&succeeded)
						fail := atomic.LoadInt64(&failed)
						errs := atomic.LoadInt64(&errored)
						total := succ + fail + errs

						if config.Verbose {
							log.Printf("📊 Progress: %d/%d trials (success: %d, failure: %d, errors: %d)",
								total, len(trials), succ, fail, errs)
						} else {
							fmt.Printf("\r📤 Trials: %d/%d (success: %d, failure: %d, errors: %d)",
								total, len(trials), succ, fail, errs)
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
		fmt.Println() // New line after progress indicator
	}

	// Update stats
	stats.TrialsSucceeded = int(atomic.LoadInt64(&succeeded))
	stats.TrialsFailed = int(atomic.LoadInt64(&failed))
	stats.TrialsErrored = int(atomic.LoadInt64(&errored))
	stats.FramesSubmitted = int(atomic.LoadInt64(&frames))
	stats.BatchesRetried = int(atomic.LoadInt64(&retried))

	log.Printf(`✅ Trial streaming completed:
   Succeeded: %d
   Failed: %d
   Errors: %d
   Frames: %d
`, stats.TrialsSucceeded, stats.TrialsFailed, stats.TrialsErrored, stats.FramesSubmitted)

	return nil
}

// runSingleTrial drives one scripted trial from start to a terminal state.
func runSingleTrial(ctx context.Context, client *HTTPClient, config *Config, t *Trial, frames, retried *int64) error {
	// Register the trial on its leg; the scripts carry the athlete through
	// readiness themselves, so the session arms on its own.
	startURL := fmt.Sprintf("%s/assessments/%s/trials", config.BaseURL, t.AssessmentID)
	resp, err := client.Post(ctx, startURL, startTrialRequest{Leg: t.Leg, Autostart: true})
	if err != nil {
		return fmt.Errorf("start request failed: %w", err)
	}
	body, err := readResponseBody(resp)
	if err != nil {
		return fmt.Errorf("failed to read start response: %w", err)
	}
	if resp.StatusCode != StatusCreated {
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}
	var status TrialStatus
	if err := unmarshalJSON(body, &status); err != nil {
		return fmt.Errorf("failed to parse start response: %w", err)
	}
	t.TrialID = status.TrialID

	// Stream the script in batches
	framesURL := fmt.Sprintf("%s/trials/%s/frames", config.BaseURL, t.TrialID)
	for start := 0; start < len(t.Frames); start += FrameBatchSize {
		end := start + FrameBatchSize
		if end > len(t.Frames) {
			end = len(t.Frames)
		}
		done, err := pushBatch(ctx, client, framesURL, t.Frames[start:end], frames, retried)
		if err != nil {
			return err
		}
		if done {
			break
		}
	}

	// The session ingests asynchronously; wait for the terminal state
	state, err := waitTerminal(ctx, client, config, t.TrialID)
	if err != nil {
		return err
	}
	t.FinalState = state
	return nil
}

// pushBatch posts one frame batch, retrying on backpressure. It reports
// whether the trial acknowledged a terminal state.
func pushBatch(ctx context.Context, client *HTTPClient, url string, batch []Frame, frames, retried *int64) (bool, error) {
	for attempt := 0; ; attempt++ {
		resp, err := client.Post(ctx, url, framesRequest{Frames: batch})
		if err != nil {
			return false, fmt.Errorf("frame push failed: %w", err)
		}
		body, err := readResponseBody(resp)
		if err != nil {
			return false, fmt.Errorf("failed to read frame ack: %w", err)
		}

		switch resp.StatusCode {
		case StatusAccepted, StatusOK:
			// 202 is the normal ack; 200 means the trial reached a terminal
			// state and further frames are moot.
			var ack FrameAck
			if err := unmarshalJSON(body, &ack); err != nil {
				return false, fmt.Errorf("failed to parse frame ack: %w", err)
			}
			atomic.AddInt64(frames, int64(ack.Accepted))
			return ack.Done, nil
		case StatusTooManyRequests:
			// The stream buffer is full. Re-sent frames the source already
			// took are dropped as out of order on the far side, so the whole
			// batch can be retried.
			if attempt >= MaxBatchRetries {
				return false, fmt.Errorf("backpressure persisted after %d retries", attempt)
			}
			atomic.AddInt64(retried, 1)
			select {
			case <-ctx.Done():
				return false, ctx.Err()
			case <-time.After(BackpressureWait):
			}
		default:
			return false, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
		}
	}
}

// waitTerminal polls the live status until the trial reaches a terminal
// state or the poll window closes.
func waitTerminal(ctx context.Context, client *HTTPClient, config *Config, trialID string) (string, error) {
	url := fmt.Sprintf("%s/trials/%s", config.BaseURL, trialID)
	deadline := time.Now().Add(ResultPollTimeout)
	for {
		resp, err := client.Get(ctx, url)
		if err != nil {
			return "", fmt.Errorf("status request failed: %w", err)
		}
		body, err := readResponseBody(resp)
		if err != nil {
			return "", fmt.Errorf("failed to read status response: %w", err)
		}
		if resp.StatusCode != StatusOK {
			return "", fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
		}

		var status TrialStatus
		if err := unmarshalJSON(body, &status); err != nil {
			return "", fmt.Errorf("failed to parse status response: %w", err)
		}
		switch status.State {
		case StateCompletedSuccess, StateCompletedFailure, StateAborted:
			return status.State, nil
		}

		if time.Now().After(deadline) {
			return "", fmt.Errorf("trial stuck in state %q (hint: %s)", status.State, status.Hint)
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(ResultPollInterval):
		}
	}
}
