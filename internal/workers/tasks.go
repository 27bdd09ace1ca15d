// internal/workers/tasks.go
package workers

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/ammerola/kasir-be/internal/core/domain"
	"github.com/ammerola/kasir-be/internal/core/ports"
)

const (
	TypeReportExport   = "report:export"
	TypeExpenseImport  = "expense:import"
	TypeWarmCache      = "report:warm_cache"
	TypeCleanupExports = "cleanup:exports"
)

const (
	QueueCritical = "critical"
	QueueDefault  = "default"
	QueueLow      = "low"
)

// ExportPayload asks for a report to be rendered and archived
type ExportPayload struct {
	JobID  string              `json:"job_id"`
	Kind   domain.ReportKind   `json:"kind"`
	Format domain.ExportFormat `json:"format"`
	Query  ports.ReportQuery   `json:"query"`
}

// Validate checks the payload before any work is done
func (p ExportPayload) Validate() error {
	if p.JobID == "" {
		return fmt.Errorf("%w: job_id is required", domain.ErrInvalidRecord)
	}
	if !p.Kind.IsValid() {
		return fmt.Errorf("%w: unknown report kind %q", domain.ErrInvalidRecord, p.Kind)
	}
	if !p.Format.IsValid() {
		return fmt.Errorf("%w: unknown export format %q", domain.ErrInvalidRecord, p.Format)
	}
	return nil
}

// ImportPayload points at an uploaded expense workbook
type ImportPayload struct {
	JobID     string `json:"job_id"`
	ObjectKey string `json:"object_key"`
	Filename  string `json:"filename,omitempty"`
}

// NewExportTask builds a report:export task
func NewExportTask(p ExportPayload, retries int) (*asynq.Task, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	b, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal export payload: %w", err)
	}
	return asynq.NewTask(TypeReportExport, b,
		asynq.Queue(QueueDefault),
		asynq.MaxRetry(retries),
		asynq.Timeout(5*time.Minute),
	), nil
}

// NewImportTask builds an expense:import task
func NewImportTask(p ImportPayload, retries int) (*asynq.Task, error) {
	if p.JobID == "" || p.ObjectKey == "" {
		return nil, fmt.Errorf("%w: job_id and object_key are required", domain.ErrInvalidRecord)
	}
	b, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal import payload: %w", err)
	}
	return asynq.NewTask(TypeExpenseImport, b,
		asynq.Queue(QueueDefault),
		asynq.MaxRetry(retries),
		asynq.Timeout(10*time.Minute),
	), nil
}

// NewWarmCacheTask builds a report:warm_cache task
func NewWarmCacheTask() *asynq.Task {
	return asynq.NewTask(TypeWarmCache, nil, asynq.Queue(QueueLow), asynq.MaxRetry(1))
}

// NewCleanupTask builds a cleanup:exports task
func NewCleanupTask() *asynq.Task {
	return asynq.NewTask(TypeCleanupExports, nil, asynq.Queue(QueueLow), asynq.MaxRetry(1))
}

func decodePayload(t *asynq.Task, dst any) error {
	if err := json.Unmarshal(t.Payload(), dst); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}
	return nil
}

func finish(job *domain.Job, status domain.JobStatus, err error) {
	now := time.Now().UTC()
	job.Status = status
	job.FinishedAt = &now
	if err != nil {
		job.Error = err.Error()
	}
}
