package api_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/peakform/stork/internal/adapters/http/api"
	repository "github.com/peakform/stork/internal/adapters/repository"
	"github.com/peakform/stork/internal/domain/pose"
	. "github.com/smartystreets/goconvey/convey"
)

// Mock implementations for testing
type mockService struct {
	assessments map[string]api.Assessment
	statuses    map[string]api.TrialStatus
	done        map[string]bool
	results     map[string]api.TrialResult
	aggregates  map[string]api.AssessmentResult

	acceptLimit int // max frames accepted per push; -1 means all
	createErr   error
	startErr    error
}

func newMockService() *mockService {
	return &mockService{
		assessments: make(map[string]api.Assessment),
		statuses:    make(map[string]api.TrialStatus),
		done:        make(map[string]bool),
		results:     make(map[string]api.TrialResult),
		aggregates:  make(map[string]api.AssessmentResult),
		acceptLimit: -1,
	}
}

func (m *mockService) CreateAssessment(ctx context.Context, athleteID string, age int) (api.Assessment, error) {
	if m.createErr != nil {
		return api.Assessment{}, m.createErr
	}
	a := api.Assessment{
		AssessmentID: "a-" + strconv.Itoa(len(m.assessments)+1),
		AthleteID:    athleteID,
		Age:          age,
		CreatedAt:    time.Now(),
	}
	if a.AthleteID == "" {
		a.AthleteID = "athlete-synthetic"
	}
	m.assessments[a.AssessmentID] = a
	return a, nil
}

func (m *mockService) StartTrial(ctx context.Context, assessmentID string, leg pose.Leg, autostart bool) (api.TrialStatus, error) {
	if m.startErr != nil {
		return api.TrialStatus{}, m.startErr
	}
	if _, ok := m.assessments[assessmentID]; !ok {
		return api.TrialStatus{}, repository.ErrNotFound
	}
	st := api.TrialStatus{
		TrialID:      "t-" + string(leg),
		AssessmentID: assessmentID,
		Leg:          leg,
		State:        "armed",
	}
	m.statuses[st.TrialID] = st
	return st, nil
}

func (m *mockService) PushFrames(ctx context.Context, trialID string, frames []pose.Frame) (api.FrameAck, error) {
	st, ok := m.statuses[trialID]
	if !ok {
		return api.FrameAck{}, repository.ErrNotFound
	}
	if m.done[trialID] {
		return api.FrameAck{TrialID: trialID, Accepted: 0, State: st.State, Done: true}, nil
	}
	accepted := len(frames)
	if m.acceptLimit >= 0 && accepted > m.acceptLimit {
		accepted = m.acceptLimit
	}
	return api.FrameAck{TrialID: trialID, Accepted: accepted, State: st.State}, nil
}

func (m *mockService) AbortTrial(ctx context.Context, trialID string) (api.TrialStatus, error) {
	st, ok := m.statuses[trialID]
	if !ok {
		return api.TrialStatus{}, repository.ErrNotFound
	}
	if !m.done[trialID] {
		st.State = "aborted"
		m.statuses[trialID] = st
		m.done[trialID] = true
	}
	return st, nil
}

func (m *mockService) TrialStatus(ctx context.Context, trialID string) (api.TrialStatus, error) {
	st, ok := m.statuses[trialID]
	if !ok {
		return api.TrialStatus{}, repository.ErrNotFound
	}
	return st, nil
}

func (m *mockService) TrialResult(ctx context.Context, trialID string) (api.TrialResult, error) {
	res, ok := m.results[trialID]
	if !ok {
		return api.TrialResult{}, repository.ErrNotFound
	}
	return res, nil
}

func (m *mockService) AssessmentResult(ctx context.Context, assessmentID string) (api.AssessmentResult, error) {
	if agg, ok := m.aggregates[assessmentID]; ok {
		return agg, nil
	}
	a, ok := m.assessments[assessmentID]
	if !ok {
		return api.AssessmentResult{}, repository.ErrNotFound
	}
	return api.AssessmentResult{AssessmentID: a.AssessmentID, AthleteID: a.AthleteID, Age: a.Age}, nil
}

type mockStatsProvider struct {
	stats map[string]interface{}
}

func (m *mockStatsProvider) GetStats() map[string]interface{} {
	return m.stats
}

// Local types for testing
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

const framesBody = `{"frames":[
	{"timestamp":1.0,"landmarks":{"nose":{"x":0.5,"y":0.2,"z":0,"visibility":0.9}}},
	{"timestamp":1.1,"landmarks":{"nose":{"x":0.5,"y":0.2,"z":0,"visibility":0.9}}}
]}`

func TestServer_Register(t *testing.T) {
	Convey("Given a new API server", t, func() {
		deps := newMockService()
		statsProvider := &mockStatsProvider{stats: map[string]interface{}{"started": true}}
		server := api.NewServer(deps, statsProvider)
		mux := http.NewServeMux()

		Convey("When registering routes", func() {
			server.Register(context.Background(), mux, deps)

			Convey("Then all expected routes should be registered", func() {
				So(mux, ShouldNotBeNil)
			})

			Convey("And health endpoint should be accessible", func() {
				req := httptest.NewRequest("GET", "/healthz", nil)
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, req)
				So(w.Code, ShouldEqual, http.StatusOK)
			})

			Convey("And stats endpoint should be accessible", func() {
				req := httptest.NewRequest("GET", "/stats", nil)
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, req)
				So(w.Code, ShouldEqual, http.StatusOK)
			})

			Convey("And assessments endpoint should be accessible", func() {
				req := httptest.NewRequest("POST", "/assessments", strings.NewReader(`{}`))
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, req)
				So(w.Code, ShouldEqual, http.StatusBadRequest) // Invalid request
			})

			Convey("And assessment subtree should be routed", func() {
				a, err := deps.CreateAssessment(context.Background(), "athlete-1", 9)
				So(err, ShouldBeNil)
				req := httptest.NewRequest("GET", "/assessments/"+a.AssessmentID, nil)
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, req)
				So(w.Code, ShouldEqual, http.StatusOK)
			})

			Convey("And trials subtree should be routed", func() {
				req := httptest.NewRequest("GET", "/trials/unknown-trial", nil)
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, req)
				So(w.Code, ShouldEqual, http.StatusNotFound)
			})

			Convey("And root endpoint should catch everything else", func() {
				req := httptest.NewRequest("GET", "/unknown", nil)
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, req)
				So(w.Code, ShouldEqual, http.StatusNotFound)
			})
		})
	})
}

func TestAssessmentsHandler_HandleCreate(t *testing.T) {
	Convey("Given an assessments handler", t, func() {
		deps := newMockService()
		handler := api.NewAssessmentsHandler(deps)

		Convey("When handling a valid POST request", func() {
			body := `{"athlete_id":"athlete-1","age":9}`
			req := httptest.NewRequest("POST", "/assessments", strings.NewReader(body))
			w := httptest.NewRecorder()

			Convey("Then it should return created status", func() {
				handler.HandleCreate(w, req)
				So(w.Code, ShouldEqual, http.StatusCreated)

				var response api.Assessment
				err := json.NewDecoder(w.Body).Decode(&response)
				So(err, ShouldBeNil)
				So(response.AssessmentID, ShouldNotBeEmpty)
				So(response.AthleteID, ShouldEqual, "athlete-1")
				So(response.Age, ShouldEqual, 9)
			})
		})

		Convey("When the athlete id is omitted", func() {
			body := `{"age":11}`
			req := httptest.NewRequest("POST", "/assessments", strings.NewReader(body))
			w := httptest.NewRecorder()

			Convey("Then a synthetic athlete id is assigned", func() {
				handler.HandleCreate(w, req)
				So(w.Code, ShouldEqual, http.StatusCreated)

				var response api.Assessment
				err := json.NewDecoder(w.Body).Decode(&response)
				So(err, ShouldBeNil)
				So(response.AthleteID, ShouldNotBeEmpty)
			})
		})

		Convey("When the age is missing", func() {
			body := `{"athlete_id":"athlete-1"}`
			req := httptest.NewRequest("POST", "/assessments", strings.NewReader(body))
			w := httptest.NewRecorder()

			Convey("Then it should return bad request status", func() {
				handler.HandleCreate(w, req)
				So(w.Code, ShouldEqual, http.StatusBadRequest)

				var response errorResponse
				err := json.NewDecoder(w.Body).Decode(&response)
				So(err, ShouldBeNil)
				So(response.Message, ShouldContainSubstring, "missing age")
			})
		})

		Convey("When the age is implausible", func() {
			body := `{"athlete_id":"athlete-1","age":200}`
			req := httptest.NewRequest("POST", "/assessments", strings.NewReader(body))
			w := httptest.NewRecorder()

			Convey("Then it should return bad request status", func() {
				handler.HandleCreate(w, req)
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When handling an invalid JSON request", func() {
			req := httptest.NewRequest("POST", "/assessments", strings.NewReader(`{invalid json`))
			w := httptest.NewRecorder()

			Convey("Then it should return bad request status", func() {
				handler.HandleCreate(w, req)
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When handling a non-POST request", func() {
			req := httptest.NewRequest("GET", "/assessments", nil)
			w := httptest.NewRecorder()

			Convey("Then it should return not found status", func() {
				handler.HandleCreate(w, req)
				So(w.Code, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("When the service reports a conflict", func() {
			deps.createErr = repository.ErrConflict
			body := `{"athlete_id":"athlete-1","age":9}`
			req := httptest.NewRequest("POST", "/assessments", strings.NewReader(body))
			w := httptest.NewRecorder()

			Convey("Then it should return conflict status", func() {
				handler.HandleCreate(w, req)
				So(w.Code, ShouldEqual, http.StatusConflict)

				var response errorResponse
				err := json.NewDecoder(w.Body).Decode(&response)
				So(err, ShouldBeNil)
				So(response.Code, ShouldEqual, "conflict")
			})
		})
	})
}

func TestAssessmentsHandler_StartTrial(t *testing.T) {
	Convey("Given an assessments handler with a registered assessment", t, func() {
		deps := newMockService()
		handler := api.NewAssessmentsHandler(deps)
		a, err := deps.CreateAssessment(context.Background(), "athlete-1", 9)
		So(err, ShouldBeNil)

		Convey("When starting a valid trial", func() {
			body := `{"leg":"left","autostart":true}`
			req := httptest.NewRequest("POST", "/assessments/"+a.AssessmentID+"/trials", strings.NewReader(body))
			w := httptest.NewRecorder()

			Convey("Then it should return created status with the trial view", func() {
				handler.HandleAssessment(w, req)
				So(w.Code, ShouldEqual, http.StatusCreated)

				var response api.TrialStatus
				err := json.NewDecoder(w.Body).Decode(&response)
				So(err, ShouldBeNil)
				So(response.TrialID, ShouldNotBeEmpty)
				So(response.Leg, ShouldEqual, pose.LegLeft)
				So(response.State, ShouldEqual, "armed")
			})
		})

		Convey("When the leg is missing", func() {
			req := httptest.NewRequest("POST", "/assessments/"+a.AssessmentID+"/trials", strings.NewReader(`{}`))
			w := httptest.NewRecorder()

			Convey("Then it should return bad request status", func() {
				handler.HandleAssessment(w, req)
				So(w.Code, ShouldEqual, http.StatusBadRequest)

				var response errorResponse
				err := json.NewDecoder(w.Body).Decode(&response)
				So(err, ShouldBeNil)
				So(response.Message, ShouldContainSubstring, "missing leg")
			})
		})

		Convey("When the leg is invalid", func() {
			body := `{"leg":"both"}`
			req := httptest.NewRequest("POST", "/assessments/"+a.AssessmentID+"/trials", strings.NewReader(body))
			w := httptest.NewRecorder()

			Convey("Then it should return bad request status", func() {
				handler.HandleAssessment(w, req)
				So(w.Code, ShouldEqual, http.StatusBadRequest)

				var response errorResponse
				err := json.NewDecoder(w.Body).Decode(&response)
				So(err, ShouldBeNil)
				So(response.Message, ShouldContainSubstring, "invalid leg")
			})
		})

		Convey("When the assessment is unknown", func() {
			body := `{"leg":"left"}`
			req := httptest.NewRequest("POST", "/assessments/missing/trials", strings.NewReader(body))
			w := httptest.NewRecorder()

			Convey("Then it should return not found status", func() {
				handler.HandleAssessment(w, req)
				So(w.Code, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("When the leg was already completed", func() {
			deps.startErr = repository.ErrConflict
			body := `{"leg":"left"}`
			req := httptest.NewRequest("POST", "/assessments/"+a.AssessmentID+"/trials", strings.NewReader(body))
			w := httptest.NewRecorder()

			Convey("Then it should return conflict status", func() {
				handler.HandleAssessment(w, req)
				So(w.Code, ShouldEqual, http.StatusConflict)
			})
		})
	})
}

func TestAssessmentsHandler_HandleResult(t *testing.T) {
	Convey("Given an assessments handler", t, func() {
		deps := newMockService()
		handler := api.NewAssessmentsHandler(deps)
		a, err := deps.CreateAssessment(context.Background(), "athlete-1", 9)
		So(err, ShouldBeNil)

		Convey("When requesting an in-progress assessment", func() {
			req := httptest.NewRequest("GET", "/assessments/"+a.AssessmentID, nil)
			w := httptest.NewRecorder()

			Convey("Then it should return the incomplete aggregate", func() {
				handler.HandleAssessment(w, req)
				So(w.Code, ShouldEqual, http.StatusOK)

				var response api.AssessmentResult
				err := json.NewDecoder(w.Body).Decode(&response)
				So(err, ShouldBeNil)
				So(response.AssessmentID, ShouldEqual, a.AssessmentID)
				So(response.Complete, ShouldBeFalse)
				So(response.Comparison, ShouldBeNil)
			})
		})

		Convey("When requesting an unknown assessment", func() {
			req := httptest.NewRequest("GET", "/assessments/missing", nil)
			w := httptest.NewRecorder()

			Convey("Then it should return not found status", func() {
				handler.HandleAssessment(w, req)
				So(w.Code, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("When the method does not match the route", func() {
			req := httptest.NewRequest("DELETE", "/assessments/"+a.AssessmentID, nil)
			w := httptest.NewRecorder()

			Convey("Then it should return not found status", func() {
				handler.HandleAssessment(w, req)
				So(w.Code, ShouldEqual, http.StatusNotFound)
			})
		})
	})
}

func TestTrialsHandler_HandleFrames(t *testing.T) {
	Convey("Given a trials handler with a running trial", t, func() {
		deps := newMockService()
		handler := api.NewTrialsHandler(deps)
		a, err := deps.CreateAssessment(context.Background(), "athlete-1", 9)
		So(err, ShouldBeNil)
		st, err := deps.StartTrial(context.Background(), a.AssessmentID, pose.LegLeft, true)
		So(err, ShouldBeNil)

		Convey("When pushing a valid frame batch", func() {
			req := httptest.NewRequest("POST", "/trials/"+st.TrialID+"/frames", strings.NewReader(framesBody))
			w := httptest.NewRecorder()

			Convey("Then it should return accepted status with the full ack", func() {
				handler.HandleTrial(w, req)
				So(w.Code, ShouldEqual, http.StatusAccepted)

				var response api.FrameAck
				err := json.NewDecoder(w.Body).Decode(&response)
				So(err, ShouldBeNil)
				So(response.Accepted, ShouldEqual, 2)
				So(response.Done, ShouldBeFalse)
			})
		})

		Convey("When the trial already finished", func() {
			deps.done[st.TrialID] = true
			req := httptest.NewRequest("POST", "/trials/"+st.TrialID+"/frames", strings.NewReader(framesBody))
			w := httptest.NewRecorder()

			Convey("Then frames are discarded with an OK ack", func() {
				handler.HandleTrial(w, req)
				So(w.Code, ShouldEqual, http.StatusOK)

				var response api.FrameAck
				err := json.NewDecoder(w.Body).Decode(&response)
				So(err, ShouldBeNil)
				So(response.Accepted, ShouldEqual, 0)
				So(response.Done, ShouldBeTrue)
			})
		})

		Convey("When the stream buffer cannot take the whole batch", func() {
			deps.acceptLimit = 1
			req := httptest.NewRequest("POST", "/trials/"+st.TrialID+"/frames", strings.NewReader(framesBody))
			w := httptest.NewRecorder()

			Convey("Then it should return too many requests status", func() {
				handler.HandleTrial(w, req)
				So(w.Code, ShouldEqual, http.StatusTooManyRequests)

				var response errorResponse
				err := json.NewDecoder(w.Body).Decode(&response)
				So(err, ShouldBeNil)
				So(response.Code, ShouldEqual, "backpressure")
				So(response.Message, ShouldContainSubstring, "accepted 1 of 2")
			})
		})

		Convey("When the trial is unknown", func() {
			req := httptest.NewRequest("POST", "/trials/missing/frames", strings.NewReader(framesBody))
			w := httptest.NewRecorder()

			Convey("Then it should return not found status", func() {
				handler.HandleTrial(w, req)
				So(w.Code, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("When the batch is empty", func() {
			req := httptest.NewRequest("POST", "/trials/"+st.TrialID+"/frames", strings.NewReader(`{"frames":[]}`))
			w := httptest.NewRecorder()

			Convey("Then it should return bad request status", func() {
				handler.HandleTrial(w, req)
				So(w.Code, ShouldEqual, http.StatusBadRequest)

				var response errorResponse
				err := json.NewDecoder(w.Body).Decode(&response)
				So(err, ShouldBeNil)
				So(response.Message, ShouldContainSubstring, "missing frames")
			})
		})

		Convey("When the batch timestamps run backwards", func() {
			body := `{"frames":[
				{"timestamp":2.0,"landmarks":{}},
				{"timestamp":1.0,"landmarks":{}}
			]}`
			req := httptest.NewRequest("POST", "/trials/"+st.TrialID+"/frames", strings.NewReader(body))
			w := httptest.NewRecorder()

			Convey("Then it should return bad request status", func() {
				handler.HandleTrial(w, req)
				So(w.Code, ShouldEqual, http.StatusBadRequest)

				var response errorResponse
				err := json.NewDecoder(w.Body).Decode(&response)
				So(err, ShouldBeNil)
				So(response.Message, ShouldContainSubstring, "out of order")
			})
		})

		Convey("When the body is not JSON", func() {
			req := httptest.NewRequest("POST", "/trials/"+st.TrialID+"/frames", strings.NewReader(`{invalid`))
			w := httptest.NewRecorder()

			Convey("Then it should return bad request status", func() {
				handler.HandleTrial(w, req)
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})
	})
}

func TestTrialsHandler_StatusAbortResult(t *testing.T) {
	Convey("Given a trials handler with a running trial", t, func() {
		deps := newMockService()
		handler := api.NewTrialsHandler(deps)
		a, err := deps.CreateAssessment(context.Background(), "athlete-1", 9)
		So(err, ShouldBeNil)
		st, err := deps.StartTrial(context.Background(), a.AssessmentID, pose.LegRight, false)
		So(err, ShouldBeNil)

		Convey("When requesting the live status", func() {
			req := httptest.NewRequest("GET", "/trials/"+st.TrialID, nil)
			w := httptest.NewRecorder()

			Convey("Then it should return the trial view", func() {
				handler.HandleTrial(w, req)
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Content-Type"), ShouldContainSubstring, "application/json")

				var response api.TrialStatus
				err := json.NewDecoder(w.Body).Decode(&response)
				So(err, ShouldBeNil)
				So(response.TrialID, ShouldEqual, st.TrialID)
				So(response.Leg, ShouldEqual, pose.LegRight)
			})
		})

		Convey("When aborting the trial", func() {
			req := httptest.NewRequest("POST", "/trials/"+st.TrialID+"/abort", nil)
			w := httptest.NewRecorder()

			Convey("Then it should return the aborted view", func() {
				handler.HandleTrial(w, req)
				So(w.Code, ShouldEqual, http.StatusOK)

				var response api.TrialStatus
				err := json.NewDecoder(w.Body).Decode(&response)
				So(err, ShouldBeNil)
				So(response.State, ShouldEqual, "aborted")
			})
		})

		Convey("When aborting an unknown trial", func() {
			req := httptest.NewRequest("POST", "/trials/missing/abort", nil)
			w := httptest.NewRecorder()

			Convey("Then it should return not found status", func() {
				handler.HandleTrial(w, req)
				So(w.Code, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("When requesting a result that exists", func() {
			deps.results[st.TrialID] = api.TrialResult{
				TrialID:       st.TrialID,
				AssessmentID:  a.AssessmentID,
				AthleteID:     "athlete-1",
				Leg:           pose.LegRight,
				DurationScore: 4,
				DurationLabel: "Proficient",
			}
			req := httptest.NewRequest("GET", "/trials/"+st.TrialID+"/result", nil)
			w := httptest.NewRecorder()

			Convey("Then it should return the result document", func() {
				handler.HandleTrial(w, req)
				So(w.Code, ShouldEqual, http.StatusOK)

				var response api.TrialResult
				err := json.NewDecoder(w.Body).Decode(&response)
				So(err, ShouldBeNil)
				So(response.DurationScore, ShouldEqual, 4)
				So(response.DurationLabel, ShouldEqual, "Proficient")
			})
		})

		Convey("When requesting a result that is not ready", func() {
			req := httptest.NewRequest("GET", "/trials/"+st.TrialID+"/result", nil)
			w := httptest.NewRecorder()

			Convey("Then it should return not found status", func() {
				handler.HandleTrial(w, req)
				So(w.Code, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("When the subroute is unknown", func() {
			req := httptest.NewRequest("GET", "/trials/"+st.TrialID+"/history", nil)
			w := httptest.NewRecorder()

			Convey("Then it should return not found status", func() {
				handler.HandleTrial(w, req)
				So(w.Code, ShouldEqual, http.StatusNotFound)
			})
		})
	})
}

func TestHealthHandler_HandleHealth(t *testing.T) {
	Convey("Given a health handler", t, func() {
		handler := api.NewHealthHandler()

		Convey("When handling health check request", func() {
			req := httptest.NewRequest("GET", "/healthz", nil)
			w := httptest.NewRecorder()

			Convey("Then it should return OK status", func() {
				handler.HandleHealth(w, req)
				So(w.Code, ShouldEqual, http.StatusOK)
			})
		})
	})
}

func TestStatsHandler_HandleStats(t *testing.T) {
	Convey("Given a stats handler", t, func() {
		mockStats := &mockStatsProvider{
			stats: map[string]interface{}{
				"assessments":   3,
				"active_trials": 1,
			},
		}
		handler := api.NewStatsHandler(mockStats)

		Convey("When handling stats request", func() {
			req := httptest.NewRequest("GET", "/stats", nil)
			w := httptest.NewRecorder()

			Convey("Then it should return stats", func() {
				handler.HandleStats(w, req)
				So(w.Code, ShouldEqual, http.StatusOK)

				var response map[string]interface{}
				err := json.NewDecoder(w.Body).Decode(&response)
				So(err, ShouldBeNil)
				So(response["assessments"], ShouldEqual, float64(3))
				So(response["active_trials"], ShouldEqual, float64(1))
			})
		})

		Convey("When handling a non-GET request", func() {
			req := httptest.NewRequest("POST", "/stats", nil)
			w := httptest.NewRecorder()

			Convey("Then it should return not found status", func() {
				handler.HandleStats(w, req)
				So(w.Code, ShouldEqual, http.StatusNotFound)
			})
		})
	})
}

func TestErrorHelpers(t *testing.T) {
	Convey("Given the API error helpers", t, func() {
		Convey("When tagging a sentinel with an operation", func() {
			err := api.NewKind("api.start_trial", api.ErrBadRequest)

			Convey("Then the sentinel stays in the chain", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "api.start_trial")
				So(fmt.Sprintf("%v", err), ShouldContainSubstring, "bad request")
			})
		})

		Convey("When wrapping a cause under a sentinel", func() {
			cause := fmt.Errorf("missing leg")
			err := api.WrapKind("api.start_trial", api.ErrBadRequest, cause)

			Convey("Then both the kind and the cause are reported", func() {
				So(err.Error(), ShouldContainSubstring, "bad request")
				So(err.Error(), ShouldContainSubstring, "missing leg")
			})
		})
	})
}
