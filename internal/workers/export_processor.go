// internal/workers/export_processor.go
package workers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"time"

	"github.com/hibiken/asynq"

	"github.com/ammerola/kasir-be/internal/core/domain"
	"github.com/ammerola/kasir-be/internal/core/ports"
	"github.com/ammerola/kasir-be/internal/export"
	"github.com/ammerola/kasir-be/internal/pkg/logger"
)

// Locker serializes work on a key across workers
type Locker interface {
	Obtain(ctx context.Context, key string, ttl time.Duration) (release func(), err error)
}

// ExportProcessor renders reports and archives them in storage
type ExportProcessor struct {
	reports ports.ReportService
	storage ports.StorageClient
	jobs    ports.JobStore
	locker  Locker
	prefix  string
	lockTTL time.Duration
	logger  *slog.Logger
}

// NewExportProcessor creates a new export processor. locker may be nil.
func NewExportProcessor(reports ports.ReportService, storage ports.StorageClient, jobs ports.JobStore,
	locker Locker, prefix string, logger *slog.Logger) *ExportProcessor {
	if prefix == "" {
		prefix = "exports"
	}
	return &ExportProcessor{
		reports: reports,
		storage: storage,
		jobs:    jobs,
		locker:  locker,
		prefix:  prefix,
		lockTTL: 5 * time.Minute,
		logger:  logger.With(slog.String("processor", "export")),
	}
}

// ProcessExport handles report:export tasks
func (p *ExportProcessor) ProcessExport(ctx context.Context, t *asynq.Task) error {
	var payload ExportPayload
	if err := decodePayload(t, &payload); err != nil {
		return err
	}
	if err := payload.Validate(); err != nil {
		return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
	}
	ctx = logger.WithJobID(ctx, payload.JobID)

	job, err := p.jobs.Get(ctx, payload.JobID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		job = &domain.Job{
			ID:        payload.JobID,
			Type:      domain.JobTypeExport,
			Kind:      payload.Kind,
			Format:    payload.Format,
			StartDate: payload.Query.StartDate,
			EndDate:   payload.Query.EndDate,
		}
	}

	period, err := p.reports.ResolvePeriod(payload.Query.StartDate, payload.Query.EndDate)
	if err != nil {
		p.fail(ctx, job, err)
		return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
	}

	if p.locker != nil {
		lockKey := fmt.Sprintf("export:%s:%s:%s", payload.Kind, period.Key(), payload.Format)
		release, err := p.locker.Obtain(ctx, lockKey, p.lockTTL)
		if err != nil {
			p.logger.WarnContext(ctx, "export already running for this range, retrying later",
				slog.String("lock", lockKey),
				slog.String("error", err.Error()))
			return err
		}
		defer release()
	}

	job.Status = domain.JobProcessing
	if err := p.jobs.Save(ctx, job); err != nil {
		p.logger.WarnContext(ctx, "failed to record job status", slog.String("error", err.Error()))
	}

	start := time.Now()
	doc, err := p.render(ctx, payload)
	if err != nil {
		p.fail(ctx, job, err)
		if errors.Is(err, domain.ErrInvalidDateRange) || errors.Is(err, domain.ErrInvalidRecord) {
			return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
		}
		return err
	}

	key := path.Join(p.prefix, payload.JobID, doc.Filename)
	if _, err := p.storage.Upload(ctx, key, bytes.NewReader(doc.Data), doc.ContentType); err != nil {
		p.fail(ctx, job, err)
		return fmt.Errorf("failed to archive export: %w", err)
	}

	job.ObjectKey = key
	finish(job, domain.JobCompleted, nil)
	if err := p.jobs.Save(ctx, job); err != nil {
		return fmt.Errorf("failed to record completed export: %w", err)
	}

	p.logger.InfoContext(ctx, "export completed",
		slog.String("kind", string(payload.Kind)),
		slog.String("format", string(payload.Format)),
		slog.String("object_key", key),
		slog.Int("bytes", len(doc.Data)),
		slog.Duration("duration", time.Since(start)))

	return nil
}

func (p *ExportProcessor) render(ctx context.Context, payload ExportPayload) (*export.Document, error) {
	report, err := BuildReport(ctx, p.reports, payload.Kind, payload.Query)
	if err != nil {
		return nil, err
	}
	tables, err := export.FromReport(report)
	if err != nil {
		return nil, err
	}
	return export.Render(payload.Format, tables)
}

func (p *ExportProcessor) fail(ctx context.Context, job *domain.Job, cause error) {
	finish(job, domain.JobFailed, cause)
	if err := p.jobs.Save(ctx, job); err != nil {
		p.logger.WarnContext(ctx, "failed to record job failure", slog.String("error", err.Error()))
	}
	p.logger.ErrorContext(ctx, "export failed", slog.String("error", cause.Error()))
}

// BuildReport runs the report of the given kind
func BuildReport(ctx context.Context, reports ports.ReportService, kind domain.ReportKind, q ports.ReportQuery) (any, error) {
	switch kind {
	case domain.ReportSales:
		return reports.SalesReport(ctx, q)
	case domain.ReportProfitLoss:
		return reports.ProfitLoss(ctx, q)
	case domain.ReportExpenses:
		return reports.ExpenseReport(ctx, q)
	case domain.ReportStock:
		return reports.StockReport(ctx, q)
	default:
		return nil, fmt.Errorf("%w: unknown report kind %q", domain.ErrInvalidRecord, kind)
	}
}
