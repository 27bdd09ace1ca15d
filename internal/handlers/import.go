// internal/handlers/import.go
package handlers

import (
	"log/slog"
	"net/http"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/ammerola/kasir-be/internal/core/domain"
	"github.com/ammerola/kasir-be/internal/core/ports"
	"github.com/ammerola/kasir-be/internal/export"
	"github.com/ammerola/kasir-be/internal/workers"
)

// ImportHandler handles expense workbook uploads
type ImportHandler struct {
	responder
	storage     ports.StorageClient
	jobs        ports.JobStore
	queue       ports.TaskEnqueuer
	prefix      string
	maxFileSize int64
	maxRetry    int
}

// NewImportHandler creates a new import handler
func NewImportHandler(storage ports.StorageClient, jobs ports.JobStore, queue ports.TaskEnqueuer,
	prefix string, maxFileSize int64, maxRetry int, logger *slog.Logger) *ImportHandler {
	return &ImportHandler{
		responder:   responder{logger: logger.With(slog.String("handler", "import"))},
		storage:     storage,
		jobs:        jobs,
		queue:       queue,
		prefix:      prefix,
		maxFileSize: maxFileSize,
		maxRetry:    maxRetry,
	}
}

// ImportExpenses handles POST /api/v1/imports/expenses
func (h *ImportHandler) ImportExpenses(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	r.Body = http.MaxBytesReader(w, r.Body, h.maxFileSize+1<<20)
	if err := r.ParseMultipartForm(h.maxFileSize); err != nil {
		h.respondError(w, http.StatusBadRequest, "Failed to parse form data")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "File is required")
		return
	}
	defer file.Close()

	if header.Size > h.maxFileSize {
		h.respondError(w, http.StatusRequestEntityTooLarge, "File is too large")
		return
	}
	if !strings.EqualFold(filepath.Ext(header.Filename), ".xlsx") {
		h.respondError(w, http.StatusBadRequest, "Only .xlsx files are allowed")
		return
	}

	jobID := uuid.New().String()
	key := path.Join(h.prefix, jobID, filepath.Base(header.Filename))

	if _, err := h.storage.Upload(ctx, key, file, export.ContentTypeExcel); err != nil {
		h.logger.ErrorContext(ctx, "failed to store upload",
			slog.String("error", err.Error()))
		h.respondError(w, http.StatusInternalServerError, "Failed to save upload")
		return
	}

	job := &domain.Job{
		ID:        jobID,
		Type:      domain.JobTypeImport,
		Status:    domain.JobQueued,
		ObjectKey: key,
	}
	if err := h.jobs.Save(ctx, job); err != nil {
		h.discard(r, key)
		h.logger.ErrorContext(ctx, "failed to create job record",
			slog.String("error", err.Error()))
		h.respondError(w, http.StatusInternalServerError, "Failed to create import job")
		return
	}

	task, err := workers.NewImportTask(workers.ImportPayload{
		JobID:     jobID,
		ObjectKey: key,
		Filename:  header.Filename,
	}, h.maxRetry)
	if err == nil {
		_, err = h.queue.EnqueueContext(ctx, task, asynq.TaskID(jobID), asynq.Retention(24*time.Hour))
	}
	if err != nil {
		h.discard(r, key)
		h.logger.ErrorContext(ctx, "failed to enqueue import",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()))
		h.respondError(w, http.StatusInternalServerError, "Failed to queue import job")
		return
	}

	h.logger.InfoContext(ctx, "expense import queued",
		slog.String("job_id", jobID),
		slog.String("filename", header.Filename),
		slog.Int64("size", header.Size))

	h.respondJSON(w, http.StatusAccepted, map[string]interface{}{
		"jobId":     jobID,
		"status":    domain.JobQueued,
		"statusUrl": "/api/v1/imports/" + jobID,
	})
}

func (h *ImportHandler) discard(r *http.Request, key string) {
	if err := h.storage.Delete(r.Context(), key); err != nil {
		h.logger.WarnContext(r.Context(), "failed to remove upload",
			slog.String("key", key),
			slog.String("error", err.Error()))
	}
}
