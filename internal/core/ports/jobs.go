// internal/core/ports/jobs.go
package ports

import (
	"context"

	"github.com/hibiken/asynq"

	"github.com/ammerola/kasir-be/internal/core/domain"
)

// TaskEnqueuer submits background tasks. *asynq.Client satisfies it.
type TaskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// JobStore keeps the status of export and import jobs
type JobStore interface {
	Save(ctx context.Context, job *domain.Job) error
	Get(ctx context.Context, id string) (*domain.Job, error)
}
