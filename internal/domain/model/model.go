// Package model contains domain records passed between layers.
package model

import (
	"time"

	analysis "github.com/peakform/stork/internal/domain/analysis"
	failure "github.com/peakform/stork/internal/domain/failure"
	pose "github.com/peakform/stork/internal/domain/pose"
	scoring "github.com/peakform/stork/internal/domain/scoring"
)

// Assessment is one athlete's two-leg balance assessment.
type Assessment struct {
	ID        string
	AthleteID string
	Age       int // athlete age in years at assessment time
	CreatedAt time.Time
}

// Trial binds a trial to its assessment. Live protocol state is owned by the
// session; this record is what survives it.
type Trial struct {
	ID           string
	AssessmentID string
	Leg          pose.Leg
	CreatedAt    time.Time
}

// AnalysisJob is one finished trial frozen for the analysis workers: the
// active-window history plus the terminal outcome.
type AnalysisJob struct {
	TrialID      string
	AssessmentID string
	AthleteID    string
	Leg          pose.Leg
	Age          int

	Frames        []pose.Frame // active window, entry frame first
	ActiveEntry   float64      // media time of the entry frame
	Success       bool
	FailureReason failure.Reason
	EndedAt       float64
}

// TrialResult is the persisted outcome of one analyzed trial.
type TrialResult struct {
	TrialID      string
	AssessmentID string
	AthleteID    string
	Leg          pose.Leg
	Metrics      analysis.Metrics
	Score        scoring.Result
	CompletedAt  time.Time
}
