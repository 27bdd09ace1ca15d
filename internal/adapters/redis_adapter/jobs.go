// internal/adapters/redis_adapter/jobs.go
package redis_a

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ammerola/kasir-be/internal/core/domain"
	"github.com/ammerola/kasir-be/internal/core/ports"
)

// DefaultJobTTL keeps job status around long enough to fetch the result
const DefaultJobTTL = 24 * time.Hour

// JobStore keeps job status records in the cache
type JobStore struct {
	cache ports.CacheRepository
	ttl   time.Duration
}

var _ ports.JobStore = (*JobStore)(nil)

// NewJobStore creates a job store. A non-positive ttl uses DefaultJobTTL.
func NewJobStore(cache ports.CacheRepository, ttl time.Duration) *JobStore {
	if ttl <= 0 {
		ttl = DefaultJobTTL
	}
	return &JobStore{cache: cache, ttl: ttl}
}

// Save writes the job under job:<id>
func (s *JobStore) Save(ctx context.Context, job *domain.Job) error {
	if job.ID == "" {
		return fmt.Errorf("%w: job id is required", domain.ErrInvalidRecord)
	}
	job.UpdatedAt = time.Now().UTC()
	if job.CreatedAt.IsZero() {
		job.CreatedAt = job.UpdatedAt
	}
	if err := s.cache.SetWithTTL(ctx, BuildKey(PrefixJob, job.ID), job, s.ttl); err != nil {
		return fmt.Errorf("failed to save job %s: %w", job.ID, err)
	}
	return nil
}

// Get loads a job, returning domain.ErrNotFound when it is unknown or expired
func (s *JobStore) Get(ctx context.Context, id string) (*domain.Job, error) {
	var job domain.Job
	if err := s.cache.Get(ctx, BuildKey(PrefixJob, id), &job); err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return nil, fmt.Errorf("job %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load job %s: %w", id, err)
	}
	return &job, nil
}
