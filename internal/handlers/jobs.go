// internal/handlers/jobs.go
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/ammerola/kasir-be/internal/core/domain"
	"github.com/ammerola/kasir-be/internal/core/ports"
	"github.com/ammerola/kasir-be/internal/workers"
)

// ExportRequest is the body of POST /api/v1/exports
type ExportRequest struct {
	Kind          string `json:"kind" validate:"required,oneof=sales profit_loss expenses stock"`
	Format        string `json:"format" validate:"required,oneof=xlsx pdf json"`
	StartDate     string `json:"startDate" validate:"omitempty,max=32"`
	EndDate       string `json:"endDate" validate:"omitempty,max=32"`
	Continuous    bool   `json:"continuous"`
	PaymentMethod string `json:"paymentMethod" validate:"omitempty,oneof=cash transfer debit"`
}

// JobResponse is a job with a download link once it has completed
type JobResponse struct {
	*domain.Job
	DownloadURL string `json:"downloadUrl,omitempty"`
}

// JobHandler queues export jobs and reports job status
type JobHandler struct {
	responder
	reports       ports.ReportService
	jobs          ports.JobStore
	queue         ports.TaskEnqueuer
	storage       ports.StorageClient
	presignExpiry time.Duration
	maxRetry      int
}

// NewJobHandler creates a new job handler
func NewJobHandler(reports ports.ReportService, jobs ports.JobStore, queue ports.TaskEnqueuer,
	storage ports.StorageClient, presignExpiry time.Duration, maxRetry int, logger *slog.Logger) *JobHandler {
	if presignExpiry <= 0 {
		presignExpiry = 15 * time.Minute
	}
	return &JobHandler{
		responder:     responder{logger: logger.With(slog.String("handler", "jobs"))},
		reports:       reports,
		jobs:          jobs,
		queue:         queue,
		storage:       storage,
		presignExpiry: presignExpiry,
		maxRetry:      maxRetry,
	}
}

// CreateExport handles POST /api/v1/exports
func (h *JobHandler) CreateExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req ExportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		h.respondError(w, http.StatusBadRequest, validationError(err).Error())
		return
	}

	period, err := h.reports.ResolvePeriod(req.StartDate, req.EndDate)
	if err != nil {
		h.respondServiceError(ctx, w, err, "queue export")
		return
	}
	view := period.View()

	job := &domain.Job{
		ID:        uuid.New().String(),
		Type:      domain.JobTypeExport,
		Status:    domain.JobQueued,
		Kind:      domain.ReportKind(req.Kind),
		Format:    domain.ExportFormat(req.Format),
		StartDate: view.Start,
		EndDate:   view.End,
	}

	task, err := workers.NewExportTask(workers.ExportPayload{
		JobID:  job.ID,
		Kind:   job.Kind,
		Format: job.Format,
		Query: ports.ReportQuery{
			StartDate:     view.Start,
			EndDate:       view.End,
			Continuous:    req.Continuous,
			PaymentMethod: domain.PaymentMethod(req.PaymentMethod),
		},
	}, h.maxRetry)
	if err != nil {
		h.respondServiceError(ctx, w, err, "queue export")
		return
	}

	if err := h.jobs.Save(ctx, job); err != nil {
		h.logger.ErrorContext(ctx, "failed to create job record",
			slog.String("error", err.Error()))
		h.respondError(w, http.StatusInternalServerError, "Failed to create export job")
		return
	}

	info, err := h.queue.EnqueueContext(ctx, task, asynq.TaskID(job.ID), asynq.Retention(24*time.Hour))
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to enqueue export",
			slog.String("job_id", job.ID),
			slog.String("error", err.Error()))

		job.Status = domain.JobFailed
		job.Error = "failed to queue export"
		if err := h.jobs.Save(ctx, job); err != nil {
			h.logger.WarnContext(ctx, "failed to record failed job", slog.String("error", err.Error()))
		}
		h.respondError(w, http.StatusInternalServerError, "Failed to queue export job")
		return
	}

	h.logger.InfoContext(ctx, "export queued",
		slog.String("job_id", job.ID),
		slog.String("task_id", info.ID),
		slog.String("kind", req.Kind),
		slog.String("format", req.Format))

	h.respondJSON(w, http.StatusAccepted, map[string]interface{}{
		"jobId":     job.ID,
		"status":    job.Status,
		"statusUrl": "/api/v1/exports/" + job.ID,
	})
}

// GetJob handles GET /api/v1/exports/{id} and GET /api/v1/imports/{id}
func (h *JobHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")

	if _, err := uuid.Parse(id); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid job ID format")
		return
	}

	job, err := h.jobs.Get(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			h.respondError(w, http.StatusNotFound, "Job not found")
			return
		}
		h.logger.ErrorContext(ctx, "failed to load job",
			slog.String("job_id", id),
			slog.String("error", err.Error()))
		h.respondError(w, http.StatusInternalServerError, "Failed to load job")
		return
	}

	resp := JobResponse{Job: job}
	if job.Type == domain.JobTypeExport && job.Status == domain.JobCompleted && job.ObjectKey != "" {
		url, err := h.storage.GetPresignedURL(ctx, job.ObjectKey, h.presignExpiry)
		if err != nil {
			h.logger.WarnContext(ctx, "failed to presign export",
				slog.String("job_id", id),
				slog.String("error", err.Error()))
		} else {
			resp.DownloadURL = url
		}
	}

	h.respondJSON(w, http.StatusOK, resp)
}
