package repository

import (
	"context"
	"sync"
	"time"

	bilateral "github.com/peakform/stork/internal/domain/bilateral"
	model "github.com/peakform/stork/internal/domain/model"
	pose "github.com/peakform/stork/internal/domain/pose"
	"github.com/peakform/stork/pkg/metrics"
)

// MemStore implements Store with mutex-guarded maps. Every access is a keyed
// lookup; nothing is ever ranked or scanned in order, so plain maps are the
// whole story.
type MemStore struct {
	mu          sync.RWMutex
	assessments map[string]model.Assessment
	trials      map[string]model.Trial
	legSlots    map[string]map[pose.Leg]string // assessmentID -> leg -> trialID
	results     map[string]model.TrialResult   // trialID -> result
	comparisons map[string]bilateral.Comparison
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	s := &MemStore{
		assessments: make(map[string]model.Assessment),
		trials:      make(map[string]model.Trial),
		legSlots:    make(map[string]map[pose.Leg]string),
		results:     make(map[string]model.TrialResult),
		comparisons: make(map[string]bilateral.Comparison),
	}
	metrics.UpdateRepositoryRecordsTotal(0)
	return s
}

// CreateAssessment registers a new assessment.
func (s *MemStore) CreateAssessment(ctx context.Context, a model.Assessment) error {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryUpdateLatency(float64(time.Since(start).Milliseconds()))
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.assessments[a.ID]; exists {
		metrics.RecordErrorByComponent("repository", "conflict")
		return ErrConflict
	}
	s.assessments[a.ID] = a
	s.updateRecordsTotal()
	return nil
}

// Assessment returns the assessment record.
func (s *MemStore) Assessment(ctx context.Context, id string) (model.Assessment, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.assessments[id]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return model.Assessment{}, ErrNotFound
	}
	return a, nil
}

// AddTrial registers a trial under its assessment. A leg slot whose current
// occupant never produced a result is reclaimed: an aborted or abandoned
// trial must not burn the leg for the whole assessment.
func (s *MemStore) AddTrial(ctx context.Context, t model.Trial) error {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryUpdateLatency(float64(time.Since(start).Milliseconds()))
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.assessments[t.AssessmentID]; !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return ErrNotFound
	}
	if _, ok := s.trials[t.ID]; ok {
		metrics.RecordErrorByComponent("repository", "conflict")
		return ErrConflict
	}

	slots := s.legSlots[t.AssessmentID]
	if slots == nil {
		slots = make(map[pose.Leg]string, 2)
		s.legSlots[t.AssessmentID] = slots
	}
	if occupant, ok := slots[t.Leg]; ok {
		if _, done := s.results[occupant]; done {
			metrics.RecordErrorByComponent("repository", "conflict")
			return ErrConflict
		}
		delete(s.trials, occupant)
	}

	slots[t.Leg] = t.ID
	s.trials[t.ID] = t
	s.updateRecordsTotal()
	return nil
}

// TrialByID returns the trial registration.
func (s *MemStore) TrialByID(ctx context.Context, id string) (model.Trial, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.trials[id]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return model.Trial{}, ErrNotFound
	}
	return t, nil
}

// SaveResult persists the analyzed outcome of a registered trial.
func (s *MemStore) SaveResult(ctx context.Context, r model.TrialResult) error {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryUpdateLatency(float64(time.Since(start).Milliseconds()))
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.trials[r.TrialID]; !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return ErrNotFound
	}
	s.results[r.TrialID] = r
	s.updateRecordsTotal()
	return nil
}

// Result returns the persisted result for a trial.
func (s *MemStore) Result(ctx context.Context, trialID string) (model.TrialResult, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.results[trialID]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return model.TrialResult{}, ErrNotFound
	}
	return r, nil
}

// ResultsForAssessment lists the completed trial results for an assessment,
// left before right. A result belonging to a replaced trial is invisible:
// only the current leg occupants are consulted.
func (s *MemStore) ResultsForAssessment(ctx context.Context, assessmentID string) ([]model.TrialResult, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.assessments[assessmentID]; !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return nil, ErrNotFound
	}

	var out []model.TrialResult
	for _, leg := range []pose.Leg{pose.LegLeft, pose.LegRight} {
		trialID, ok := s.legSlots[assessmentID][leg]
		if !ok {
			continue
		}
		if r, done := s.results[trialID]; done {
			out = append(out, r)
		}
	}
	return out, nil
}

// SaveComparison persists the bilateral report exactly once per assessment.
func (s *MemStore) SaveComparison(ctx context.Context, assessmentID string, cmp bilateral.Comparison) (bool, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryUpdateLatency(float64(time.Since(start).Milliseconds()))
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.assessments[assessmentID]; !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return false, ErrNotFound
	}
	if _, exists := s.comparisons[assessmentID]; exists {
		return false, nil
	}
	s.comparisons[assessmentID] = cmp
	s.updateRecordsTotal()
	return true, nil
}

// Comparison returns the stored bilateral report.
func (s *MemStore) Comparison(ctx context.Context, assessmentID string) (bilateral.Comparison, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	s.mu.RLock()
	defer s.mu.RUnlock()

	cmp, ok := s.comparisons[assessmentID]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return bilateral.Comparison{}, ErrNotFound
	}
	return cmp, nil
}

// Stats reports record counts by kind.
func (s *MemStore) Stats(ctx context.Context) map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return map[string]int{
		"assessments": len(s.assessments),
		"trials":      len(s.trials),
		"results":     len(s.results),
		"comparisons": len(s.comparisons),
	}
}

// updateRecordsTotal refreshes the records gauge. Callers hold s.mu.
func (s *MemStore) updateRecordsTotal() {
	total := len(s.assessments) + len(s.trials) + len(s.results) + len(s.comparisons)
	metrics.UpdateRepositoryRecordsTotal(total)
}
