// Package types contains the wire documents shared across the application.
// Field names are a published contract; changing one breaks clients.
package types

import (
	"time"

	analysis "github.com/peakform/stork/internal/domain/analysis"
	bilateral "github.com/peakform/stork/internal/domain/bilateral"
	pose "github.com/peakform/stork/internal/domain/pose"
)

// Assessment is returned when an assessment is registered.
type Assessment struct {
	AssessmentID string    `json:"assessment_id"`
	AthleteID    string    `json:"athlete_id"`
	Age          int       `json:"age"`
	CreatedAt    time.Time `json:"created_at"`
}

// FrameAck acknowledges a frame batch pushed to a trial. Done reports that
// the trial has reached a terminal state; further frames will be discarded.
type FrameAck struct {
	TrialID  string `json:"trial_id"`
	Accepted int    `json:"accepted"`
	State    string `json:"state"`
	Done     bool   `json:"done"`
}

// TrialStatus is the live view of a trial in flight.
type TrialStatus struct {
	TrialID            string            `json:"trial_id"`
	AssessmentID       string            `json:"assessment_id"`
	Leg                pose.Leg          `json:"leg"`
	State              string            `json:"state"`
	FramesSeen         int               `json:"frames_seen"`
	Elapsed            float64           `json:"elapsed"`
	CountdownRemaining float64           `json:"countdown_remaining"`
	Hint               string            `json:"hint,omitempty"`
	Preview            *analysis.Metrics `json:"preview,omitempty"`
}

// TrialResult is the public result document for one analyzed trial.
type TrialResult struct {
	TrialID        string           `json:"trial_id"`
	AssessmentID   string           `json:"assessment_id"`
	AthleteID      string           `json:"athlete_id"`
	Leg            pose.Leg         `json:"leg"`
	Metrics        analysis.Metrics `json:"metrics"`
	DurationScore  int              `json:"duration_score"`
	DurationLabel  string           `json:"duration_score_label"`
	AgeExpectation string           `json:"age_expectation"`
	CompletedAt    time.Time        `json:"completed_at"`
}

// AssessmentResult aggregates both legs of an assessment. Comparison is
// present once both trials have completed.
type AssessmentResult struct {
	AssessmentID string                `json:"assessment_id"`
	AthleteID    string                `json:"athlete_id"`
	Age          int                   `json:"age"`
	Left         *TrialResult          `json:"left,omitempty"`
	Right        *TrialResult          `json:"right,omitempty"`
	Comparison   *bilateral.Comparison `json:"comparison,omitempty"`
	Complete     bool                  `json:"complete"`
}
