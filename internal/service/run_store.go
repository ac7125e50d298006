package service

import (
	"sync"

	"github.com/google/uuid"

	"docbench/internal/domain"
)

// RunStore keeps completed benchmark runs for later retrieval and export.
type RunStore interface {
	Save(run *domain.BenchmarkRun)
	Get(id uuid.UUID) (*domain.BenchmarkRun, error)
	List() []domain.RunListing
}

type runStore struct {
	mu    sync.RWMutex
	order []uuid.UUID
	runs  map[uuid.UUID]*domain.BenchmarkRun
}

// NewRunStore creates an in-memory RunStore. Runs are listed in insertion
// order, newest last.
func NewRunStore() RunStore {
	return &runStore{runs: make(map[uuid.UUID]*domain.BenchmarkRun)}
}

func (s *runStore) Save(run *domain.BenchmarkRun) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.runs[run.ID]; !exists {
		s.order = append(s.order, run.ID)
	}
	s.runs[run.ID] = run
}

func (s *runStore) Get(id uuid.UUID) (*domain.BenchmarkRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs[id]
	if !ok {
		return nil, domain.ErrRunNotFound
	}
	return run, nil
}

func (s *runStore) List() []domain.RunListing {
	s.mu.RLock()
	defer s.mu.RUnlock()
	listings := make([]domain.RunListing, 0, len(s.order))
	for _, id := range s.order {
		run := s.runs[id]
		listings = append(listings, domain.RunListing{
			ID:            run.ID,
			AnalyzerID:    run.AnalyzerID,
			CreatedAt:     run.CreatedAt,
			DocumentCount: len(run.Records),
			BackendCount:  len(run.Backends),
		})
	}
	return listings
}
