// cmd/worker/main.go
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	redis_a "github.com/ammerola/kasir-be/internal/adapters/redis_adapter"
	"github.com/ammerola/kasir-be/internal/app"
	"github.com/ammerola/kasir-be/internal/core/domain"
	"github.com/ammerola/kasir-be/internal/pkg/config"
	"github.com/ammerola/kasir-be/internal/pkg/logger"
	"github.com/ammerola/kasir-be/internal/workers"
)

func main() {
	slogger := logger.SetupLogger("info", "json")

	cfg, err := config.Load(slogger.Logger)
	if err != nil {
		slogger.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Reconfigure logger with loaded settings
	slogger = logger.SetupLogger(cfg.App.LogLevel, cfg.App.LogFormat)
	log := slogger.Logger
	log.Info("starting worker",
		slog.String("environment", cfg.App.Environment),
		slog.String("redis_addr", cfg.Asynq.RedisAddr))

	ctx := context.Background()

	// Fewer connections for worker
	store, err := app.OpenStore(ctx, cfg, 10, log)
	if err != nil {
		log.Error("failed to initialize store", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer store.Close()

	redisClient, err := app.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Error("failed to connect to redis", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer redisClient.Close()

	objectStore, err := app.NewStorage(ctx, cfg, log)
	if err != nil {
		log.Error("failed to initialize storage", slog.String("error", err.Error()))
		os.Exit(1)
	}

	cache := redis_a.NewCache(redisClient, cfg.Report.CacheTTL, log)
	jobs := redis_a.NewJobStore(cache, redis_a.DefaultJobTTL)
	locker := redis_a.NewLocker(redisClient, log)
	reports := app.NewReportService(cfg, store.LedgerStore, cache, log)

	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Asynq.RedisAddr,
		Password: cfg.Asynq.RedisPassword,
		DB:       cfg.Asynq.RedisDB,
	}

	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency:     cfg.Asynq.Concurrency,
		Queues:          cfg.Asynq.Queues,
		StrictPriority:  cfg.Asynq.StrictPriority,
		ErrorHandler:    asynq.ErrorHandlerFunc(handleError),
		RetryDelayFunc:  exponentialBackoff,
		ShutdownTimeout: cfg.Asynq.ShutdownTimeout,
		HealthCheckFunc: healthCheck,
		Logger:          logger.NewAsynqLogger(log),
	})

	mux := asynq.NewServeMux()
	mux.Use(taskLogging(slogger))

	exportProcessor := workers.NewExportProcessor(reports, objectStore, jobs, locker, cfg.Storage.ExportPrefix, log)
	mux.HandleFunc(workers.TypeReportExport, exportProcessor.ProcessExport)

	importProcessor := workers.NewImportProcessor(objectStore, store.LedgerStore, reports, jobs, cfg.Report.Location(), log)
	mux.HandleFunc(workers.TypeExpenseImport, importProcessor.ProcessImport)

	warmer := workers.NewCacheWarmer(reports, log,
		domain.ReportSales, domain.ReportProfitLoss, domain.ReportExpenses, domain.ReportStock)
	mux.HandleFunc(workers.TypeWarmCache, warmer.WarmCache)

	cleanup := workers.NewCleanupProcessor(objectStore, cfg.Storage.Retention, log,
		cfg.Storage.ExportPrefix, cfg.Storage.ImportPrefix)
	mux.HandleFunc(workers.TypeCleanupExports, cleanup.CleanupExports)

	scheduler := asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{
		Location: cfg.Report.Location(),
		Logger:   logger.NewAsynqLogger(log),
	})
	if err := registerPeriodicTasks(scheduler, cfg, log); err != nil {
		log.Error("failed to register periodic tasks", slog.String("error", err.Error()))
		os.Exit(1)
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := srv.Run(mux); err != nil {
			log.Error("failed to run worker server", slog.String("error", err.Error()))
			shutdown <- syscall.SIGTERM
		}
	}()

	go func() {
		if err := scheduler.Run(); err != nil {
			log.Error("failed to run scheduler", slog.String("error", err.Error()))
			shutdown <- syscall.SIGTERM
		}
	}()

	log.Info("worker started successfully",
		slog.Int("concurrency", cfg.Asynq.Concurrency),
		slog.Any("queues", cfg.Asynq.Queues))

	sig := <-shutdown
	log.Info("shutdown signal received", slog.String("signal", sig.String()))

	scheduler.Shutdown()
	srv.Shutdown()
	log.Info("worker shutdown complete")
}

func registerPeriodicTasks(scheduler *asynq.Scheduler, cfg *config.Config, log *slog.Logger) error {
	if cfg.Asynq.CleanupCron != "" {
		if _, err := scheduler.Register(cfg.Asynq.CleanupCron, workers.NewCleanupTask()); err != nil {
			return err
		}
		log.Info("scheduled export cleanup", slog.String("cron", cfg.Asynq.CleanupCron))
	}
	if cfg.Asynq.WarmCacheCron != "" {
		if _, err := scheduler.Register(cfg.Asynq.WarmCacheCron, workers.NewWarmCacheTask()); err != nil {
			return err
		}
		log.Info("scheduled cache warming", slog.String("cron", cfg.Asynq.WarmCacheCron))
	}
	return nil
}

// taskLogging attaches a task scoped logger to the handler context
func taskLogging(l *logger.Logger) asynq.MiddlewareFunc {
	return func(next asynq.Handler) asynq.Handler {
		return asynq.HandlerFunc(func(ctx context.Context, t *asynq.Task) error {
			ctx = context.WithValue(ctx, logger.ContextKeyTaskType, t.Type())
			if id, ok := asynq.GetTaskID(ctx); ok {
				ctx = logger.WithJobID(ctx, id)
			}
			ctx = logger.WithLogger(ctx, l)

			start := time.Now()
			err := next.ProcessTask(ctx, t)
			l.InfoContext(ctx, "task finished",
				slog.String("type", t.Type()),
				slog.Duration("duration", time.Since(start)),
				slog.Bool("failed", err != nil))
			return err
		})
	}
}

func handleError(ctx context.Context, task *asynq.Task, err error) {
	retried, _ := asynq.GetRetryCount(ctx)
	maxRetry, _ := asynq.GetMaxRetry(ctx)
	slog.ErrorContext(ctx, "task processing failed",
		slog.String("type", task.Type()),
		slog.Int("retried", retried),
		slog.Int("max_retry", maxRetry),
		slog.String("error", err.Error()))
}

func exponentialBackoff(n int, e error, t *asynq.Task) time.Duration {
	baseDelay := time.Second
	maxDelay := 10 * time.Minute
	delay := baseDelay * time.Duration(1<<uint(n))
	if delay > maxDelay {
		delay = maxDelay
	}
	return delay
}

func healthCheck(err error) {
	if err != nil {
		slog.Error("worker health check failed", slog.String("error", err.Error()))
	}
}
