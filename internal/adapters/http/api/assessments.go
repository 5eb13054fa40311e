// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/peakform/stork/internal/domain/pose"
)

// AssessmentDependencies defines the interface for assessment operations.
type AssessmentDependencies interface {
	CreateAssessment(ctx context.Context, athleteID string, age int) (Assessment, error)
	StartTrial(ctx context.Context, assessmentID string, leg pose.Leg, autostart bool) (TrialStatus, error)
	AssessmentResult(ctx context.Context, assessmentID string) (AssessmentResult, error)
}

// AssessmentsHandler handles assessment requests.
type AssessmentsHandler struct {
	deps AssessmentDependencies
}

// NewAssessmentsHandler creates a new assessments handler.
func NewAssessmentsHandler(deps AssessmentDependencies) *AssessmentsHandler {
	return &AssessmentsHandler{deps: deps}
}

// HandleCreate handles POST /assessments requests.
func (h *AssessmentsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_assessment"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req createAssessmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	a, err := h.deps.CreateAssessment(r.Context(), strings.TrimSpace(req.AthleteID), req.Age)
	if err != nil {
		if isConflict(err) {
			writeError(w, http.StatusConflict, "conflict", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

// HandleAssessment dispatches /assessments/{id} and /assessments/{id}/trials.
func (h *AssessmentsHandler) HandleAssessment(w http.ResponseWriter, r *http.Request) {
	const op = "api.assessment"
	path := strings.TrimPrefix(r.URL.Path, "/assessments/")
	id, rest, _ := strings.Cut(path, "/")
	if id == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	switch {
	case rest == "" && r.Method == http.MethodGet:
		h.handleResult(w, r, id)
	case rest == "trials" && r.Method == http.MethodPost:
		h.handleStartTrial(w, r, id)
	default:
		http.NotFound(w, r)
	}
}

// handleStartTrial handles POST /assessments/{id}/trials requests.
func (h *AssessmentsHandler) handleStartTrial(w http.ResponseWriter, r *http.Request, assessmentID string) {
	const op = "api.start_trial"
	var req startTrialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	status, err := h.deps.StartTrial(r.Context(), assessmentID, pose.Leg(req.Leg), req.Autostart)
	if err != nil {
		switch {
		case isNotFound(err):
			writeError(w, http.StatusNotFound, "not_found", err)
		case isConflict(err):
			writeError(w, http.StatusConflict, "conflict", err)
		default:
			writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		}
		return
	}
	writeJSON(w, http.StatusCreated, status)
}

// handleResult handles GET /assessments/{id} requests.
func (h *AssessmentsHandler) handleResult(w http.ResponseWriter, r *http.Request, assessmentID string) {
	const op = "api.assessment_result"
	result, err := h.deps.AssessmentResult(r.Context(), assessmentID)
	if err != nil {
		if isNotFound(err) {
			writeError(w, http.StatusNotFound, "not_found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, result)
}
