package operations

import (
	"fmt"
	"sync"

	"expenditure/pkg/contracts/domain"
)

// MemoryRunStore keeps the most recent runs in memory, oldest evicted first
type MemoryRunStore struct {
	mu       sync.RWMutex
	runs     map[string]*domain.Run
	order    []string
	capacity int
}

// NewMemoryRunStore creates a store holding at most capacity runs
func NewMemoryRunStore(capacity int) *MemoryRunStore {
	if capacity < 1 {
		capacity = 1
	}
	return &MemoryRunStore{
		runs:     make(map[string]*domain.Run),
		capacity: capacity,
	}
}

// Create adds a new run, evicting the oldest finished run when full
func (s *MemoryRunStore) Create(run *domain.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.runs[run.ID]; exists {
		return fmt.Errorf("run %s already exists", run.ID)
	}

	s.runs[run.ID] = cloneRun(run)
	s.order = append(s.order, run.ID)
	s.evict()
	return nil
}

// Get retrieves a copy of a run by ID
func (s *MemoryRunStore) Get(id string) (*domain.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, exists := s.runs[id]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return cloneRun(run), nil
}

// Update replaces a stored run
func (s *MemoryRunStore) Update(run *domain.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.runs[run.ID]; !exists {
		return fmt.Errorf("%w: %s", ErrRunNotFound, run.ID)
	}
	s.runs[run.ID] = cloneRun(run)
	return nil
}

// List returns copies of the stored runs, newest first
func (s *MemoryRunStore) List() []*domain.Run {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Run, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		result = append(result, cloneRun(s.runs[s.order[i]]))
	}
	return result
}

// Len returns the number of stored runs
func (s *MemoryRunStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// evict drops the oldest finished runs above capacity. Active runs are kept.
func (s *MemoryRunStore) evict() {
	for i := 0; len(s.order) > s.capacity && i < len(s.order); {
		run := s.runs[s.order[i]]
		if run.Status == domain.RunStatusPending || run.Status == domain.RunStatusRunning {
			i++
			continue
		}
		delete(s.runs, s.order[i])
		s.order = append(s.order[:i], s.order[i+1:]...)
	}
}

// cloneRun copies a run so callers cannot mutate stored state
func cloneRun(run *domain.Run) *domain.Run {
	c := *run
	c.Request.Categories = append([]string(nil), run.Request.Categories...)
	c.Tables = append([]domain.TableResult(nil), run.Tables...)
	if run.Report != nil {
		report := domain.CleaningReport{
			Skipped:   append([]domain.SkippedFile{}, run.Report.Skipped...),
			Anomalies: append([]domain.Anomaly(nil), run.Report.Anomalies...),
		}
		c.Report = &report
	}
	return &c
}
