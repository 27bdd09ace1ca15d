// internal/handlers/export.go
package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	redis_a "github.com/ammerola/kasir-be/internal/adapters/redis_adapter"
	"github.com/ammerola/kasir-be/internal/core/domain"
	"github.com/ammerola/kasir-be/internal/core/ports"
	"github.com/ammerola/kasir-be/internal/core/services"
	"github.com/ammerola/kasir-be/internal/export"
	"github.com/ammerola/kasir-be/internal/workers"
)

// routeKinds maps URL segments to report kinds
var routeKinds = map[string]domain.ReportKind{
	"sales":       domain.ReportSales,
	"profit-loss": domain.ReportProfitLoss,
	"expenses":    domain.ReportExpenses,
	"stock":       domain.ReportStock,
}

// ExportHandler renders reports for download
type ExportHandler struct {
	responder
	reports ports.ReportService
	cache   ports.CacheRepository
}

// NewExportHandler creates a new export handler. cache may be nil.
func NewExportHandler(reports ports.ReportService, cache ports.CacheRepository, logger *slog.Logger) *ExportHandler {
	return &ExportHandler{
		responder: responder{logger: logger.With(slog.String("handler", "export"))},
		reports:   reports,
		cache:     cache,
	}
}

// ExportReport handles GET /api/v1/reports/{kind}/export
func (h *ExportHandler) ExportReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	kind, ok := routeKinds[r.PathValue("kind")]
	if !ok {
		h.respondError(w, http.StatusNotFound, "unknown report")
		return
	}

	params, err := parseReportParams(r)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	format := domain.ExportFormat(params.Format)
	if format == "" {
		format = domain.FormatExcel
	}
	query := params.Query()

	period, err := h.reports.ResolvePeriod(query.StartDate, query.EndDate)
	if err != nil {
		h.respondServiceError(ctx, w, err, "export")
		return
	}

	filename := export.Filename(kind, period.View(), format)
	cacheKey := redis_a.BuildKey(redis_a.PrefixExport, string(format), services.CacheKey(kind, period, query))

	if h.cache != nil {
		var cached []byte
		if err := h.cache.Get(ctx, cacheKey, &cached); err == nil {
			h.writeDocument(ctx, w, &export.Document{
				Data:        cached,
				ContentType: contentTypeFor(format),
				Filename:    filename,
			}, "HIT")
			return
		}
	}

	start := time.Now()
	report, err := workers.BuildReport(ctx, h.reports, kind, query)
	if err != nil {
		h.respondServiceError(ctx, w, err, "export")
		return
	}

	tables, err := export.FromReport(report)
	if err != nil {
		h.respondServiceError(ctx, w, err, "export")
		return
	}

	doc, err := export.Render(format, tables)
	if err != nil {
		h.respondServiceError(ctx, w, err, "export")
		return
	}

	h.writeDocument(ctx, w, doc, "MISS")

	if h.cache != nil {
		go func() {
			cacheCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
			defer cancel()

			if err := h.cache.Set(cacheCtx, cacheKey, doc.Data); err != nil {
				h.logger.WarnContext(cacheCtx, "failed to cache export",
					slog.String("key", cacheKey),
					slog.String("error", err.Error()))
			}
		}()
	}

	h.logger.InfoContext(ctx, "export completed",
		slog.String("kind", string(kind)),
		slog.String("format", string(format)),
		slog.Int("bytes", len(doc.Data)),
		slog.Duration("duration", time.Since(start)))
}

func (h *ExportHandler) writeDocument(ctx context.Context, w http.ResponseWriter, doc *export.Document, cacheStatus string) {
	w.Header().Set("Content-Type", doc.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, doc.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(doc.Data)))
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Header().Set("X-Cache", cacheStatus)

	if _, err := w.Write(doc.Data); err != nil {
		h.logger.ErrorContext(ctx, "failed to write export response",
			slog.String("error", err.Error()))
	}
}

func contentTypeFor(format domain.ExportFormat) string {
	switch format {
	case domain.FormatPDF:
		return export.ContentTypePDF
	case domain.FormatJSON:
		return export.ContentTypeJSON
	default:
		return export.ContentTypeExcel
	}
}
