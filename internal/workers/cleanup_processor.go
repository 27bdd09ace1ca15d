// internal/workers/cleanup_processor.go
package workers

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/ammerola/kasir-be/internal/core/ports"
)

// CleanupProcessor handles cleanup tasks
type CleanupProcessor struct {
	storage   ports.StorageClient
	prefixes  []string
	retention time.Duration
	now       func() time.Time
	logger    *slog.Logger
}

// NewCleanupProcessor creates a new cleanup processor that removes objects
// under prefixes once they are older than retention.
func NewCleanupProcessor(storage ports.StorageClient, retention time.Duration, logger *slog.Logger, prefixes ...string) *CleanupProcessor {
	if retention <= 0 {
		retention = 7 * 24 * time.Hour
	}
	return &CleanupProcessor{
		storage:   storage,
		prefixes:  prefixes,
		retention: retention,
		now:       time.Now,
		logger:    logger.With(slog.String("processor", "cleanup")),
	}
}

// CleanupExports handles cleanup:exports tasks
func (p *CleanupProcessor) CleanupExports(ctx context.Context, t *asynq.Task) error {
	cutoff := p.now().Add(-p.retention)
	p.logger.InfoContext(ctx, "cleaning up archived exports",
		slog.Time("cutoff", cutoff))

	var deletedCount, failedCount int
	for _, prefix := range p.prefixes {
		objects, err := p.storage.List(ctx, prefix)
		if err != nil {
			return fmt.Errorf("failed to list %s: %w", prefix, err)
		}

		for _, obj := range objects {
			if !obj.LastModified.Before(cutoff) {
				continue
			}
			if err := p.storage.Delete(ctx, obj.Key); err != nil {
				failedCount++
				p.logger.WarnContext(ctx, "failed to delete archived object",
					slog.String("key", obj.Key),
					slog.String("error", err.Error()))
				continue
			}
			deletedCount++
		}
	}

	p.logger.InfoContext(ctx, "archived exports cleaned up",
		slog.Int("files_deleted", deletedCount),
		slog.Int("files_failed", failedCount))

	return nil
}
