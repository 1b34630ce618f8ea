package inmemory

import (
	"context"
	"fmt"
	"sync"

	"github.com/ametlin/budgetlens/internal/jobs"
)

// Store keeps job state in memory, safe for concurrent use. State is lost
// on restart.
type Store struct {
	mu   sync.RWMutex
	jobs map[string]*jobs.ParseStatementJob
}

// NewStore creates a new in-memory job store.
func NewStore() *Store {
	return &Store{
		jobs: make(map[string]*jobs.ParseStatementJob),
	}
}

// SaveJob implements jobs.Store. Jobs are stored by value so later
// mutations by the worker don't leak into earlier reads.
func (s *Store) SaveJob(ctx context.Context, job *jobs.ParseStatementJob) error {
	if job.ID == "" {
		return fmt.Errorf("job ID is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	jobCopy := *job
	s.jobs[job.ID] = &jobCopy
	return nil
}

// GetJob implements jobs.Store.
func (s *Store) GetJob(ctx context.Context, id string) (*jobs.ParseStatementJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, exists := s.jobs[id]
	if !exists {
		return nil, fmt.Errorf("job not found: %s", id)
	}

	jobCopy := *job
	return &jobCopy, nil
}

var _ jobs.Store = (*Store)(nil)
