// internal/app/bootstrap.go
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/ammerola/kasir-be/internal/adapters/db"
	"github.com/ammerola/kasir-be/internal/adapters/memory"
	"github.com/ammerola/kasir-be/internal/adapters/storage"
	"github.com/ammerola/kasir-be/internal/core/aggregation"
	"github.com/ammerola/kasir-be/internal/core/ports"
	"github.com/ammerola/kasir-be/internal/core/services"
	"github.com/ammerola/kasir-be/internal/pkg/config"
)

// Store is a ledger store plus its release func
type Store struct {
	ports.LedgerStore
	Close func()
}

// OpenStore connects the configured ledger backend. maxConns overrides the
// configured pool size when positive.
func OpenStore(ctx context.Context, cfg *config.Config, maxConns int32, logger *slog.Logger) (*Store, error) {
	if cfg.Database.Driver == "memory" {
		logger.Warn("using in-memory ledger store, data is not persisted")
		return &Store{LedgerStore: memory.NewStore(), Close: func() {}}, nil
	}

	if cfg.Database.AutoMigrate {
		migration := &db.MigrationConfig{
			DatabaseURL: cfg.GetDatabaseURL(),
			TableName:   "schema_migrations",
			SchemaName:  "public",
		}
		if err := db.RunMigrationsWithRetry(ctx, migration, logger, 3); err != nil {
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	poolSize := cfg.Database.MaxConnections
	if maxConns > 0 {
		poolSize = maxConns
	}

	logger.Info("connecting to database",
		slog.String("host", cfg.Database.Host),
		slog.String("database", cfg.Database.Name))

	database, err := db.NewDatabase(ctx, &db.Config{
		Host:               cfg.Database.Host,
		Port:               cfg.Database.Port,
		User:               cfg.Database.User,
		Password:           cfg.Database.Password,
		Database:           cfg.Database.Name,
		SSLMode:            cfg.Database.SSLMode,
		MaxConnections:     poolSize,
		MinConnections:     cfg.Database.MinConnections,
		MaxConnLifetime:    cfg.Database.MaxConnLifetime,
		MaxConnIdleTime:    cfg.Database.MaxConnIdleTime,
		HealthCheckPeriod:  cfg.Database.HealthCheckPeriod,
		ConnectTimeout:     cfg.Database.ConnectTimeout,
		EnableQueryLogging: cfg.Database.EnableQueryLogging,
		Timezone:           cfg.Report.Timezone,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return &Store{
		LedgerStore: db.NewLedgerStore(database, logger),
		Close:       database.Close,
	}, nil
}

// NewRedisClient dials and pings the cache redis
func NewRedisClient(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*redis.Client, error) {
	logger.Info("connecting to Redis", slog.String("addr", cfg.GetRedisAddr()))

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.GetRedisAddr(),
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		MaxRetries:   cfg.Redis.MaxRetries,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// NewStorage builds the configured object store
func NewStorage(ctx context.Context, cfg *config.Config, logger *slog.Logger) (ports.StorageClient, error) {
	if cfg.Storage.Driver == "local" {
		local, err := storage.NewLocalStorage(cfg.Storage.LocalPath, logger)
		if err != nil {
			return nil, err
		}
		return local, nil
	}

	s3, err := storage.NewS3Storage(ctx, &storage.S3Config{
		Region:          cfg.AWS.Region,
		Bucket:          cfg.AWS.S3Bucket,
		AccessKeyID:     cfg.AWS.AccessKeyID,
		SecretAccessKey: cfg.AWS.SecretAccessKey,
		Endpoint:        cfg.AWS.S3Endpoint,
		UsePathStyle:    cfg.AWS.UsePathStyle,
	}, logger)
	if err != nil {
		return nil, err
	}
	return s3, nil
}

// NewReportService wires the aggregation engine and cache into a report service
func NewReportService(cfg *config.Config, store ports.TransactionStore, cache ports.CacheRepository, logger *slog.Logger) *services.ReportService {
	loc := cfg.Report.Location()

	costRatio := decimal.NewFromFloat(cfg.Report.AssumedCostRatio)
	engine := aggregation.NewEngine(aggregation.Options{
		AssumedCostRatio:  &costRatio,
		Location:          loc,
		TopN:              cfg.Report.TopN,
		RecentLimit:       cfg.Report.RecentLimit,
		LowStockThreshold: cfg.Report.LowStockThreshold,
	}, logger)

	return services.NewReportService(store, cache, engine, services.ReportSettings{
		Location:         loc,
		DefaultRangeDays: cfg.Report.DefaultRangeDays,
		MaxRangeDays:     cfg.Report.MaxRangeDays,
		CacheTTL:         cfg.Report.CacheTTL,
	}, logger)
}
