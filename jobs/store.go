package jobs

import (
	"context"
	"sync"
	"time"
)

// Store persists jobs.
type Store interface {
	Create(ctx context.Context, job *Job) error
	Get(ctx context.Context, id string) (*Job, error)
	GetByTask(ctx context.Context, taskID string) (*Job, error)
	Update(ctx context.Context, job *Job) error

	// DeleteFinishedBefore removes terminal jobs last updated before cutoff
	// and returns them.
	DeleteFinishedBefore(ctx context.Context, cutoff time.Time) ([]*Job, error)
}

// MemoryStore keeps jobs in process memory.
type MemoryStore struct {
	mu     sync.RWMutex
	jobs   map[string]*Job
	byTask map[string]string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		jobs:   make(map[string]*Job),
		byTask: make(map[string]string),
	}
}

func (s *MemoryStore) Create(ctx context.Context, job *Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.jobs[job.ID] = job.Clone()
	if job.TaskID != "" {
		s.byTask[job.TaskID] = job.ID
	}
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return job.Clone(), nil
}

func (s *MemoryStore) GetByTask(ctx context.Context, taskID string) (*Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byTask[taskID]
	if !ok {
		return nil, ErrNotFound
	}
	return s.jobs[id].Clone(), nil
}

func (s *MemoryStore) Update(ctx context.Context, job *Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[job.ID]; !ok {
		return ErrNotFound
	}
	job.UpdatedAt = time.Now().UTC()
	s.jobs[job.ID] = job.Clone()
	if job.TaskID != "" {
		s.byTask[job.TaskID] = job.ID
	}
	return nil
}

func (s *MemoryStore) DeleteFinishedBefore(ctx context.Context, cutoff time.Time) ([]*Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed []*Job
	for id, job := range s.jobs {
		if !job.Status.Terminal() || !job.UpdatedAt.Before(cutoff) {
			continue
		}
		removed = append(removed, job.Clone())
		delete(s.jobs, id)
		delete(s.byTask, job.TaskID)
	}
	return removed, nil
}

var _ Store = (*MemoryStore)(nil)
