// internal/workers/warm_cache.go
package workers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/ammerola/kasir-be/internal/core/domain"
	"github.com/ammerola/kasir-be/internal/core/ports"
)

// CacheWarmer precomputes the reports the dashboard opens with
type CacheWarmer struct {
	reports ports.ReportService
	kinds   []domain.ReportKind
	logger  *slog.Logger
}

// NewCacheWarmer creates a warmer for the default range of each kind.
// With no kinds it warms the sales report only.
func NewCacheWarmer(reports ports.ReportService, logger *slog.Logger, kinds ...domain.ReportKind) *CacheWarmer {
	if len(kinds) == 0 {
		kinds = []domain.ReportKind{domain.ReportSales}
	}
	return &CacheWarmer{
		reports: reports,
		kinds:   kinds,
		logger:  logger.With(slog.String("processor", "warm_cache")),
	}
}

// WarmCache handles report:warm_cache tasks
func (w *CacheWarmer) WarmCache(ctx context.Context, t *asynq.Task) error {
	var errs []error
	for _, kind := range w.kinds {
		start := time.Now()
		if _, err := BuildReport(ctx, w.reports, kind, ports.ReportQuery{}); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", kind, err))
			continue
		}
		w.logger.DebugContext(ctx, "report warmed",
			slog.String("kind", string(kind)),
			slog.Duration("duration", time.Since(start)))
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("failed to warm report cache: %w", err)
	}

	w.logger.InfoContext(ctx, "report cache warmed", slog.Int("reports", len(w.kinds)))
	return nil
}
