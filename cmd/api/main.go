// cmd/api/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	redis_a "github.com/ammerola/kasir-be/internal/adapters/redis_adapter"
	"github.com/ammerola/kasir-be/internal/app"
	"github.com/ammerola/kasir-be/internal/handlers"
	"github.com/ammerola/kasir-be/internal/handlers/middleware"
	"github.com/ammerola/kasir-be/internal/pkg/config"
	"github.com/ammerola/kasir-be/internal/pkg/logger"
)

// Build information injected at compile time
var (
	Version   = "dev"
	BuildTime = "unknown"
	GoVersion = "unknown"
)

func main() {
	slogger := logger.SetupLogger("debug", "json")

	slogger.Info("starting kasir report service",
		slog.String("version", Version),
		slog.String("build_time", BuildTime),
		slog.String("go_version", GoVersion),
	)

	cfg, err := config.Load(slogger.Logger)
	if err != nil {
		slogger.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Reconfigure logger with loaded settings
	slogger = logger.SetupLogger(cfg.App.LogLevel, cfg.App.LogFormat)
	slogger.Info("configuration loaded",
		slog.String("environment", cfg.App.Environment),
		slog.String("log_level", cfg.App.LogLevel),
		slog.String("store", cfg.Database.Driver),
		slog.String("storage", cfg.Storage.Driver),
	)

	ctx := context.Background()

	deps, err := initializeDependencies(ctx, cfg, slogger.Logger)
	if err != nil {
		slogger.Error("failed to initialize dependencies", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer deps.cleanup()

	server := setupHTTPServer(cfg, deps, slogger)

	serverErrors := make(chan error, 1)
	go func() {
		slogger.Info("starting HTTP server", slog.String("address", cfg.GetServerAddress()))
		serverErrors <- server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slogger.Error("server error", slog.String("error", err.Error()))
		}
	case sig := <-shutdown:
		slogger.Info("shutdown signal received", slog.String("signal", sig.String()))

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slogger.Error("failed to gracefully shutdown server", slog.String("error", err.Error()))
			server.Close()
		}

		slogger.Info("server shutdown complete")
	}
}

// dependencies holds all application dependencies
type dependencies struct {
	store          *app.Store
	redisClient    *redis.Client
	asynqClient    *asynq.Client
	asynqInspector *asynq.Inspector
	reportHandler  *handlers.ReportHandler
	exportHandler  *handlers.ExportHandler
	jobHandler     *handlers.JobHandler
	importHandler  *handlers.ImportHandler
	healthHandler  *handlers.HealthHandler
}

func (d *dependencies) cleanup() {
	if d.asynqClient != nil {
		d.asynqClient.Close()
	}
	if d.asynqInspector != nil {
		d.asynqInspector.Close()
	}
	if d.redisClient != nil {
		d.redisClient.Close()
	}
	if d.store != nil {
		d.store.Close()
	}
}

func initializeDependencies(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*dependencies, error) {
	deps := &dependencies{}

	store, err := app.OpenStore(ctx, cfg, 0, logger)
	if err != nil {
		return nil, err
	}
	deps.store = store

	redisClient, err := app.NewRedisClient(ctx, cfg, logger)
	if err != nil {
		deps.cleanup()
		return nil, err
	}
	deps.redisClient = redisClient
	cache := redis_a.NewCache(redisClient, cfg.Report.CacheTTL, logger)

	objectStore, err := app.NewStorage(ctx, cfg, logger)
	if err != nil {
		deps.cleanup()
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	logger.Info("initializing Asynq client", slog.String("addr", cfg.Asynq.RedisAddr))
	asynqRedisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Asynq.RedisAddr,
		Password: cfg.Asynq.RedisPassword,
		DB:       cfg.Asynq.RedisDB,
	}
	deps.asynqClient = asynq.NewClient(asynqRedisOpt)
	deps.asynqInspector = asynq.NewInspector(asynqRedisOpt)

	reports := app.NewReportService(cfg, store.LedgerStore, cache, logger)
	jobs := redis_a.NewJobStore(cache, redis_a.DefaultJobTTL)

	deps.reportHandler = handlers.NewReportHandler(reports, logger)
	deps.exportHandler = handlers.NewExportHandler(reports, cache, logger)
	deps.jobHandler = handlers.NewJobHandler(reports, jobs, deps.asynqClient, objectStore,
		cfg.Storage.PresignExpiry, cfg.Asynq.RetryMax, logger)
	deps.importHandler = handlers.NewImportHandler(objectStore, jobs, deps.asynqClient,
		cfg.Storage.ImportPrefix, int64(cfg.Storage.MaxUploadMB)<<20, cfg.Asynq.RetryMax, logger)
	deps.healthHandler = handlers.NewHealthHandler(store.LedgerStore, cache, deps.asynqInspector,
		cfg.App.Version, cfg.App.Environment, logger)

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

func setupHTTPServer(cfg *config.Config, deps *dependencies, l *logger.Logger) *http.Server {
	mux := http.NewServeMux()
	registerRoutes(mux, deps)

	// Apply middleware in reverse order (innermost first)
	var handler http.Handler = mux
	handler = middleware.Timeout(cfg.Server.RequestTimeout)(handler)

	if cfg.Security.SecureHeaders {
		handler = middleware.SecureHeaders(handler)
	}
	if len(cfg.Security.AllowedOrigins) > 0 {
		handler = middleware.CORS(cfg.Security.AllowedOrigins)(handler)
	}
	handler = middleware.RateLimit(cfg.Security.RateLimitRequests, cfg.Security.RateLimitDuration)(handler)
	handler = middleware.Recovery(l.Logger)(handler)
	handler = middleware.Logger(l)(handler)
	handler = middleware.RequestID(cfg.Security.RequestIDHeader)(handler)

	return &http.Server{
		Addr:           cfg.GetServerAddress(),
		Handler:        handler,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
		ErrorLog:       slog.NewLogLogger(l.Handler(), slog.LevelError),
	}
}

func registerRoutes(mux *http.ServeMux, deps *dependencies) {
	apiV1 := "/api/v1"

	mux.HandleFunc("GET /health", deps.healthHandler.Health)
	mux.HandleFunc("GET /health/live", deps.healthHandler.Liveness)
	mux.HandleFunc("GET /health/ready", deps.healthHandler.Readiness)

	// Reports
	mux.HandleFunc("GET "+apiV1+"/reports/sales", deps.reportHandler.GetSales)
	mux.HandleFunc("GET "+apiV1+"/reports/profit-loss", deps.reportHandler.GetProfitLoss)
	mux.HandleFunc("GET "+apiV1+"/reports/expenses", deps.reportHandler.GetExpenses)
	mux.HandleFunc("GET "+apiV1+"/reports/stock", deps.reportHandler.GetStock)
	mux.HandleFunc("GET "+apiV1+"/reports/{kind}/export", deps.exportHandler.ExportReport)

	// Background jobs
	mux.HandleFunc("POST "+apiV1+"/exports", deps.jobHandler.CreateExport)
	mux.HandleFunc("GET "+apiV1+"/exports/{id}", deps.jobHandler.GetJob)
	mux.HandleFunc("POST "+apiV1+"/imports/expenses", deps.importHandler.ImportExpenses)
	mux.HandleFunc("GET "+apiV1+"/imports/{id}", deps.jobHandler.GetJob)
}
