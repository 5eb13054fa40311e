// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/peakform/stork/internal/domain/pose"
)

// TrialDependencies defines the interface for trial operations.
type TrialDependencies interface {
	PushFrames(ctx context.Context, trialID string, frames []pose.Frame) (FrameAck, error)
	AbortTrial(ctx context.Context, trialID string) (TrialStatus, error)
	TrialStatus(ctx context.Context, trialID string) (TrialStatus, error)
	TrialResult(ctx context.Context, trialID string) (TrialResult, error)
}

// TrialsHandler handles trial requests.
type TrialsHandler struct {
	deps TrialDependencies
}

// NewTrialsHandler creates a new trials handler.
func NewTrialsHandler(deps TrialDependencies) *TrialsHandler {
	return &TrialsHandler{deps: deps}
}

// HandleTrial dispatches /trials/{id}, /trials/{id}/frames,
// /trials/{id}/abort and /trials/{id}/result.
func (h *TrialsHandler) HandleTrial(w http.ResponseWriter, r *http.Request) {
	const op = "api.trial"
	path := strings.TrimPrefix(r.URL.Path, "/trials/")
	id, rest, _ := strings.Cut(path, "/")
	if id == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	switch {
	case rest == "" && r.Method == http.MethodGet:
		h.handleStatus(w, r, id)
	case rest == "frames" && r.Method == http.MethodPost:
		h.handleFrames(w, r, id)
	case rest == "abort" && r.Method == http.MethodPost:
		h.handleAbort(w, r, id)
	case rest == "result" && r.Method == http.MethodGet:
		h.handleResult(w, r, id)
	default:
		http.NotFound(w, r)
	}
}

// handleFrames handles POST /trials/{id}/frames requests.
func (h *TrialsHandler) handleFrames(w http.ResponseWriter, r *http.Request, trialID string) {
	const op = "api.push_frames"
	var req framesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	ack, err := h.deps.PushFrames(r.Context(), trialID, req.Frames)
	if err != nil {
		if isNotFound(err) {
			writeError(w, http.StatusNotFound, "not_found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	// A finished trial discards frames; that is an answer, not an error.
	if ack.Done {
		writeJSON(w, http.StatusOK, ack)
		return
	}
	if ack.Accepted < len(req.Frames) {
		err := fmt.Errorf("accepted %d of %d frames", ack.Accepted, len(req.Frames))
		writeError(w, http.StatusTooManyRequests, "backpressure", WrapKind(op, ErrBackpressure, err))
		return
	}
	writeJSON(w, http.StatusAccepted, ack)
}

// handleAbort handles POST /trials/{id}/abort requests. Aborting a trial
// that already finished is a no-op and reports the terminal state.
func (h *TrialsHandler) handleAbort(w http.ResponseWriter, r *http.Request, trialID string) {
	const op = "api.abort_trial"
	status, err := h.deps.AbortTrial(r.Context(), trialID)
	if err != nil {
		if isNotFound(err) {
			writeError(w, http.StatusNotFound, "not_found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// handleStatus handles GET /trials/{id} requests.
func (h *TrialsHandler) handleStatus(w http.ResponseWriter, r *http.Request, trialID string) {
	const op = "api.trial_status"
	status, err := h.deps.TrialStatus(r.Context(), trialID)
	if err != nil {
		if isNotFound(err) {
			writeError(w, http.StatusNotFound, "not_found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// handleResult handles GET /trials/{id}/result requests. The result stays
// 404 until the analysis workers have persisted it.
func (h *TrialsHandler) handleResult(w http.ResponseWriter, r *http.Request, trialID string) {
	const op = "api.trial_result"
	result, err := h.deps.TrialResult(r.Context(), trialID)
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
