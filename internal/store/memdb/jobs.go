package memdb

import (
	"cmp"
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/hedisam/rscanner/internal/store"
)

// JobStore maps scan ids to their jobs. The map lock only guards membership, each job carries its own lock.
type JobStore struct {
	jobs map[string]*store.Job
	mu   sync.RWMutex
}

func NewJobStore(opts ...Option) *JobStore {
	cfg := &config{memSize: DefaultMemSize}
	for opt := range slices.Values(opts) {
		opt(cfg)
	}

	return &JobStore{
		jobs: make(map[string]*store.Job, cfg.memSize),
	}
}

// InsertJob registers a new job. It fails if a job with the same id exists.
func (s *JobStore) InsertJob(_ context.Context, job *store.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[job.ID()]; ok {
		return store.ErrAlreadyExists
	}
	s.jobs[job.ID()] = job
	return nil
}

// GetJob returns the job with the given id.
func (s *JobStore) GetJob(_ context.Context, id string) (*store.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return job, nil
}

// ListJobs returns every job, oldest first.
func (s *JobStore) ListJobs(_ context.Context) ([]*store.Job, error) {
	s.mu.RLock()
	jobs := slices.Collect(maps.Values(s.jobs))
	s.mu.RUnlock()

	slices.SortFunc(jobs, func(a, b *store.Job) int {
		return cmp.Or(a.CreatedAt().Compare(b.CreatedAt()), cmp.Compare(a.ID(), b.ID()))
	})
	return jobs, nil
}
