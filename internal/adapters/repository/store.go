// Package repository defines the assessment store interface and errors.
package repository

import (
	"context"

	bilateral "github.com/peakform/stork/internal/domain/bilateral"
	model "github.com/peakform/stork/internal/domain/model"
)

// Store provides read/write access to assessments, trials and their results.
type Store interface {
	// CreateAssessment registers a new assessment.
	// Returns ErrConflict if the ID is already taken.
	CreateAssessment(ctx context.Context, a model.Assessment) error

	// Assessment returns the assessment record.
	// Returns ErrNotFound if the assessment is unknown.
	Assessment(ctx context.Context, id string) (model.Assessment, error)

	// AddTrial registers a trial under its assessment. Each assessment
	// holds at most one trial per leg; a second registration for the same
	// leg returns ErrConflict.
	AddTrial(ctx context.Context, t model.Trial) error

	// TrialByID returns the trial registration.
	// Returns ErrNotFound if the trial is unknown.
	TrialByID(ctx context.Context, id string) (model.Trial, error)

	// SaveResult persists the analyzed outcome of a registered trial.
	// Saving again overwrites: analysis is deterministic, so a replay
	// writes the same result.
	SaveResult(ctx context.Context, r model.TrialResult) error

	// Result returns the persisted result for a trial.
	// Returns ErrNotFound while the trial is still unanalyzed.
	Result(ctx context.Context, trialID string) (model.TrialResult, error)

	// ResultsForAssessment lists the completed trial results for an
	// assessment, at most one per leg.
	ResultsForAssessment(ctx context.Context, assessmentID string) ([]model.TrialResult, error)

	// SaveComparison persists the bilateral report exactly once per
	// assessment. The boolean is true only for the first save.
	SaveComparison(ctx context.Context, assessmentID string, cmp bilateral.Comparison) (bool, error)

	// Comparison returns the stored bilateral report.
	// Returns ErrNotFound until both legs have been analyzed.
	Comparison(ctx context.Context, assessmentID string) (bilateral.Comparison, error)

	// Stats reports record counts by kind.
	Stats(ctx context.Context) map[string]int
}
