// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/peakform/stork/internal/adapters/repository"
	"github.com/peakform/stork/internal/domain/pose"
	"github.com/peakform/stork/internal/domain/types"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// CreateAssessment registers an athlete for a two-leg assessment.
	CreateAssessment(ctx context.Context, athleteID string, age int) (Assessment, error)

	// StartTrial registers the trial for one leg and launches its runner.
	StartTrial(ctx context.Context, assessmentID string, leg pose.Leg, autostart bool) (TrialStatus, error)

	// PushFrames feeds landmark frames to a trial. The ack reports how many
	// frames entered the stream and the trial state observed afterwards.
	PushFrames(ctx context.Context, trialID string, frames []pose.Frame) (FrameAck, error)

	// AbortTrial discards a trial from any non-terminal state.
	AbortTrial(ctx context.Context, trialID string) (TrialStatus, error)

	// TrialStatus returns the live view of a trial.
	TrialStatus(ctx context.Context, trialID string) (TrialStatus, error)

	// TrialResult returns the analyzed result of a completed trial.
	TrialResult(ctx context.Context, trialID string) (TrialResult, error)

	// AssessmentResult aggregates both trial results and, once both legs
	// have been analyzed, the bilateral comparison.
	AssessmentResult(ctx context.Context, assessmentID string) (AssessmentResult, error)
}

// Wire documents mirror the read shapes returned by the service.
type (
	Assessment       = types.Assessment
	TrialStatus      = types.TrialStatus
	TrialResult      = types.TrialResult
	AssessmentResult = types.AssessmentResult
	FrameAck         = types.FrameAck
)

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	assessmentsHandler *AssessmentsHandler
	trialsHandler      *TrialsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(statsProvider),
		assessmentsHandler: NewAssessmentsHandler(deps),
		trialsHandler:      NewTrialsHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux, deps Dependencies) {
	// Specific paths first (most specific to least specific)
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/assessments", MetricsMiddleware(s.assessmentsHandler.HandleCreate, "assessments"))
	mux.HandleFunc("/assessments/", MetricsMiddleware(s.assessmentsHandler.HandleAssessment, "assessments"))
	mux.HandleFunc("/trials/", MetricsMiddleware(s.trialsHandler.HandleTrial, "trials"))
}

// Plausibility bound for athlete age; the rubric itself tolerates any age.
const maxAthleteAge = 120

// createAssessmentRequest mirrors the OpenAPI schema for POST /assessments.
type createAssessmentRequest struct {
	AthleteID string `json:"athlete_id"`
	Age       int    `json:"age"`
}

func (r createAssessmentRequest) validate() error {
	switch {
	case r.Age <= 0:
		return errors.New("missing age")
	case r.Age > maxAthleteAge:
		return errors.New("implausible age")
	}
	return nil
}

// startTrialRequest mirrors the OpenAPI schema for POST /assessments/{id}/trials.
type startTrialRequest struct {
	Leg       string `json:"leg"`
	Autostart bool   `json:"autostart"`
}

func (r startTrialRequest) validate() error {
	switch {
	case strings.TrimSpace(r.Leg) == "":
		return errors.New("missing leg")
	case !pose.Leg(r.Leg).Valid():
		return errors.New("invalid leg; must be left or right")
	}
	return nil
}

// framesRequest mirrors the OpenAPI schema for POST /trials/{id}/frames.
type framesRequest struct {
	Frames []pose.Frame `json:"frames"`
}

func (r framesRequest) validate() error {
	if len(r.Frames) == 0 {
		return errors.New("missing frames")
	}
	for i := 1; i < len(r.Frames); i++ {
		if r.Frames[i].Timestamp < r.Frames[i-1].Timestamp {
			return errors.New("frames out of order; timestamps must be non-decreasing")
		}
	}
	return nil
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// isNotFound and isConflict translate store errors to HTTP statuses. The
// store package owns the sentinels every layer reports lookups with.
func isNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound)
}

func isConflict(err error) bool {
	return errors.Is(err, repository.ErrConflict)
}
