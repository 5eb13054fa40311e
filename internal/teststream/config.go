package teststream

import "time"

// Config holds configuration for the stream test
type Config struct {
	BaseURL        string        // Base URL of the service
	NumAssessments int           // Number of assessments to run, two trials each
	TopN           int           // Number of longest holds to display
	Workers        int           // Number of concurrent workers
	Timeout        time.Duration // HTTP request timeout
	Debounce       float64       // Readiness debounce of the target service, seconds
	Countdown      float64       // Countdown window of the target service, seconds
	MaxHold        float64       // Maximum hold duration of the target service, seconds
	OutputFile     string        // Output file for trial results
	LogFile        string        // Log file for test output
	Verbose        bool          // Enable verbose logging
}

// Point is one landmark in a streamed frame
type Point struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z"`
	Visibility float64 `json:"visibility"`
}

// Frame is one pose sample in a streamed batch
type Frame struct {
	Timestamp float64          `json:"timestamp"`
	Landmarks map[string]Point `json:"landmarks"`
}

// Trial is one scripted leg of an assessment, carried from planning
// through submission and verification
type Trial struct {
	AthleteID     string
	Age           int
	Leg           string
	Profile       string
	ExpectSuccess bool
	ExpectReason  string
	Frames        []Frame

	// Filled in while the test runs
	AssessmentID string
	TrialID      string
	FinalState   string
}

// Assessment mirrors the document returned by POST /assessments
type Assessment struct {
	AssessmentID string `json:"assessment_id"`
	AthleteID    string `json:"athlete_id"`
	Age          int    `json:"age"`
}

// TrialStatus mirrors the live view returned by the trial endpoints
type TrialStatus struct {
	TrialID    string  `json:"trial_id"`
	State      string  `json:"state"`
	FramesSeen int     `json:"frames_seen"`
	Elapsed    float64 `json:"elapsed"`
	Hint       string  `json:"hint,omitempty"`
}

// FrameAck mirrors the acknowledgment returned by POST /trials/{id}/frames
type FrameAck struct {
	TrialID  string `json:"trial_id"`
	Accepted int    `json:"accepted"`
	State    string `json:"state"`
	Done     bool   `json:"done"`
}

// Metrics carries the analyzed numbers the verifier inspects
type Metrics struct {
	Success          bool    `json:"success"`
	HoldTime         float64 `json:"hold_time"`
	FailureReason    string  `json:"failure_reason,omitempty"`
	SwayPathLength   float64 `json:"sway_path_length"`
	CorrectionsCount int     `json:"corrections_count"`
}

// TrialResult mirrors GET /trials/{id}/result
type TrialResult struct {
	TrialID        string  `json:"trial_id"`
	AssessmentID   string  `json:"assessment_id"`
	AthleteID      string  `json:"athlete_id"`
	Leg            string  `json:"leg"`
	Metrics        Metrics `json:"metrics"`
	DurationScore  int     `json:"duration_score"`
	DurationLabel  string  `json:"duration_score_label"`
	AgeExpectation string  `json:"age_expectation"`
}

// Comparison mirrors the bilateral block of the aggregate document
type Comparison struct {
	DominantLeg          string  `json:"dominant_leg"`
	DurationSymmetry     float64 `json:"duration_symmetry"`
	OverallSymmetryScore int     `json:"overall_symmetry_score"`
	SymmetryAssessment   string  `json:"symmetry_assessment"`
}

// AssessmentResult mirrors GET /assessments/{id}
type AssessmentResult struct {
	AssessmentID string       `json:"assessment_id"`
	AthleteID    string       `json:"athlete_id"`
	Age          int          `json:"age"`
	Left         *TrialResult `json:"left,omitempty"`
	Right        *TrialResult `json:"right,omitempty"`
	Comparison   *Comparison  `json:"comparison,omitempty"`
	Complete     bool         `json:"complete"`
}

// Stats holds test statistics
type Stats struct {
	AssessmentsCreated int
	TrialsPlanned      int
	TrialsSucceeded    int
	TrialsFailed       int
	TrialsErrored      int
	FramesSubmitted    int
	BatchesRetried     int
	ResultsRetrieved   int
	AggregatesComplete int
	VerificationIssues int
	StartTime          time.Time
	EndTime            time.Time
	Duration           time.Duration
}
