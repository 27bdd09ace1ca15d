// internal/pkg/config/config.go
package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Asynq    AsynqConfig
	AWS      AWSConfig
	Storage  StorageConfig
	Report   ReportConfig
	Security SecurityConfig
	Server   ServerConfig
}

// AppConfig holds application-specific configuration
type AppConfig struct {
	Name        string `validate:"required"`
	Environment string // development, staging, production
	Version     string
	LogLevel    string `validate:"omitempty,oneof=debug info warn error"`
	LogFormat   string `validate:"omitempty,oneof=json text"`
	Debug       bool
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Driver             string `validate:"omitempty,oneof=postgres memory"`
	Host               string `validate:"required_if=Driver postgres"`
	Port               string
	User               string
	Password           string
	Name               string `validate:"required_if=Driver postgres"`
	SSLMode            string
	MaxConnections     int32
	MinConnections     int32
	MaxConnLifetime    time.Duration
	MaxConnIdleTime    time.Duration
	HealthCheckPeriod  time.Duration
	ConnectTimeout     time.Duration
	EnableQueryLogging bool
	AutoMigrate        bool
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host         string
	Port         string
	Password     string
	DB           int
	MaxRetries   int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PoolSize     int
	MinIdleConns int
}

// AsynqConfig holds Asynq configuration
type AsynqConfig struct {
	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	Concurrency     int
	Queues          map[string]int // queue name -> priority
	StrictPriority  bool
	RetryMax        int
	ShutdownTimeout time.Duration
	CleanupCron     string
	WarmCacheCron   string
}

// AWSConfig holds AWS configuration
type AWSConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	S3Bucket        string
	S3Endpoint      string // MinIO in development
	UsePathStyle    bool
	SecretsProvider string `validate:"omitempty,oneof=env aws"`
	SecretName      string `validate:"required_if=SecretsProvider aws"`
}

// StorageConfig holds export archive and upload configuration
type StorageConfig struct {
	Driver        string `validate:"omitempty,oneof=s3 local"`
	LocalPath     string
	ExportPrefix  string
	ImportPrefix  string
	Retention     time.Duration
	PresignExpiry time.Duration
	MaxUploadMB   int
}

// ReportConfig holds reporting defaults
type ReportConfig struct {
	Timezone          string
	AssumedCostRatio  float64 `validate:"gte=0,lte=1"`
	CacheTTL          time.Duration
	DefaultRangeDays  int `validate:"gte=0"`
	MaxRangeDays      int `validate:"gte=0"`
	TopN              int `validate:"gte=0"`
	RecentLimit       int `validate:"gte=0"`
	LowStockThreshold int `validate:"gte=0"`
}

// Location resolves the reporting time zone, falling back to the local zone
func (r ReportConfig) Location() *time.Location {
	if r.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(r.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// SecurityConfig holds security configuration
type SecurityConfig struct {
	RateLimitRequests int
	RateLimitDuration time.Duration
	AllowedOrigins    []string
	SecureHeaders     bool
	RequestIDHeader   string
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string `validate:"required"`
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	RequestTimeout  time.Duration
	MaxHeaderBytes  int
	GracefulTimeout time.Duration
}

// Load loads configuration from the environment, a .env file in development
// and, when configured, AWS Secrets Manager.
func Load(logger *slog.Logger) (*Config, error) {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	if env == "development" || env == "local" {
		if err := godotenv.Load(); err != nil {
			logger.Warn("no .env file found, using environment variables",
				slog.String("error", err.Error()))
		} else {
			logger.Info(".env file loaded successfully")
		}
	}

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	e := envReader{v: v}
	cfg := &Config{
		App: AppConfig{
			Name:        e.str("APP_NAME", "kasir-api"),
			Environment: env,
			Version:     e.str("APP_VERSION", "dev"),
			LogLevel:    e.str("LOG_LEVEL", "debug"),
			LogFormat:   e.str("LOG_FORMAT", "json"),
			Debug:       e.boolean("APP_DEBUG", env == "development"),
		},
		Database: DatabaseConfig{
			Driver:             e.str("DB_DRIVER", "postgres"),
			Host:               e.str("DB_HOST", "localhost"),
			Port:               e.str("DB_PORT", "5432"),
			User:               e.str("DB_USER", "kasir"),
			Password:           e.str("DB_PASSWORD", "kasir_dev"),
			Name:               e.str("DB_NAME", "kasir"),
			SSLMode:            e.str("DB_SSL_MODE", "disable"),
			MaxConnections:     int32(e.integer("DB_MAX_CONNECTIONS", 25)),
			MinConnections:     int32(e.integer("DB_MIN_CONNECTIONS", 5)),
			MaxConnLifetime:    e.duration("DB_CONNECTION_LIFETIME", time.Hour),
			MaxConnIdleTime:    e.duration("DB_IDLE_TIME", 30*time.Minute),
			HealthCheckPeriod:  e.duration("DB_HEALTH_CHECK_PERIOD", time.Minute),
			ConnectTimeout:     e.duration("DB_CONNECT_TIMEOUT", 10*time.Second),
			EnableQueryLogging: e.boolean("DB_QUERY_LOGGING", env == "development"),
			AutoMigrate:        e.boolean("DB_AUTO_MIGRATE", true),
		},
		Redis: RedisConfig{
			Host:         e.str("REDIS_HOST", "localhost"),
			Port:         e.str("REDIS_PORT", "6379"),
			Password:     e.str("REDIS_PASSWORD", ""),
			DB:           e.integer("REDIS_DB", 0),
			MaxRetries:   e.integer("REDIS_MAX_RETRIES", 3),
			DialTimeout:  e.duration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  e.duration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: e.duration("REDIS_WRITE_TIMEOUT", 3*time.Second),
			PoolSize:     e.integer("REDIS_POOL_SIZE", 10),
			MinIdleConns: e.integer("REDIS_MIN_IDLE_CONNS", 2),
		},
		Asynq: AsynqConfig{
			RedisAddr:       fmt.Sprintf("%s:%s", e.str("REDIS_HOST", "localhost"), e.str("REDIS_PORT", "6379")),
			RedisPassword:   e.str("REDIS_PASSWORD", ""),
			RedisDB:         e.integer("ASYNQ_REDIS_DB", 0),
			Concurrency:     e.integer("ASYNQ_CONCURRENCY", 10),
			Queues:          parseQueues(e.str("ASYNQ_QUEUES", "critical:6,default:3,low:1")),
			StrictPriority:  e.boolean("ASYNQ_STRICT_PRIORITY", false),
			RetryMax:        e.integer("ASYNQ_RETRY_MAX", 3),
			ShutdownTimeout: e.duration("ASYNQ_SHUTDOWN_TIMEOUT", 30*time.Second),
			CleanupCron:     e.str("ASYNQ_CLEANUP_CRON", "@daily"),
			WarmCacheCron:   e.str("ASYNQ_WARM_CACHE_CRON", "*/10 * * * *"),
		},
		AWS: AWSConfig{
			Region:          e.str("AWS_REGION", "ap-southeast-1"),
			AccessKeyID:     e.str("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: e.str("AWS_SECRET_ACCESS_KEY", ""),
			S3Bucket:        e.str("AWS_S3_BUCKET", "kasir-reports"),
			S3Endpoint:      e.str("AWS_S3_ENDPOINT", ""),
			UsePathStyle:    e.boolean("AWS_S3_PATH_STYLE", env == "development"),
			SecretsProvider: e.str("SECRETS_PROVIDER", "env"),
			SecretName:      e.str("SECRETS_NAME", ""),
		},
		Storage: StorageConfig{
			Driver:        e.str("STORAGE_DRIVER", "local"),
			LocalPath:     e.str("STORAGE_LOCAL_PATH", "./data"),
			ExportPrefix:  e.str("STORAGE_EXPORT_PREFIX", "exports"),
			ImportPrefix:  e.str("STORAGE_IMPORT_PREFIX", "imports"),
			Retention:     e.duration("EXPORT_RETENTION", 7*24*time.Hour),
			PresignExpiry: e.duration("EXPORT_PRESIGN_EXPIRY", 15*time.Minute),
			MaxUploadMB:   e.integer("IMPORT_MAX_SIZE_MB", 10),
		},
		Report: ReportConfig{
			Timezone:          e.str("REPORT_TIMEZONE", "Asia/Jakarta"),
			AssumedCostRatio:  e.float("REPORT_ASSUMED_COST_RATIO", 0.6),
			CacheTTL:          e.duration("REPORT_CACHE_TTL", 2*time.Minute),
			DefaultRangeDays:  e.integer("REPORT_DEFAULT_RANGE_DAYS", 30),
			MaxRangeDays:      e.integer("REPORT_MAX_RANGE_DAYS", 366),
			TopN:              e.integer("REPORT_TOP_N", 5),
			RecentLimit:       e.integer("REPORT_RECENT_LIMIT", 10),
			LowStockThreshold: e.integer("REPORT_LOW_STOCK_THRESHOLD", 10),
		},
		Security: SecurityConfig{
			RateLimitRequests: e.integer("RATE_LIMIT_REQUESTS", 100),
			RateLimitDuration: e.duration("RATE_LIMIT_DURATION", time.Minute),
			AllowedOrigins:    e.slice("ALLOWED_ORIGINS", []string{"*"}),
			SecureHeaders:     e.boolean("SECURE_HEADERS", env == "production"),
			RequestIDHeader:   e.str("REQUEST_ID_HEADER", "X-Request-ID"),
		},
		Server: ServerConfig{
			Host:            e.str("SERVER_HOST", "0.0.0.0"),
			Port:            e.str("SERVER_PORT", "8080"),
			ReadTimeout:     e.duration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    e.duration("SERVER_WRITE_TIMEOUT", 60*time.Second),
			IdleTimeout:     e.duration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			RequestTimeout:  e.duration("SERVER_REQUEST_TIMEOUT", 30*time.Second),
			MaxHeaderBytes:  e.integer("SERVER_MAX_HEADER_BYTES", 1<<20),
			GracefulTimeout: e.duration("SERVER_GRACEFUL_TIMEOUT", 30*time.Second),
		},
	}

	if cfg.AWS.SecretsProvider == "aws" {
		if err := cfg.resolveSecrets(context.Background(), logger); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) resolveSecrets(ctx context.Context, logger *slog.Logger) error {
	sm, err := NewAWSSecretsManager(ctx, c.AWS.Region, c.AWS.SecretName, logger)
	if err != nil {
		return err
	}
	return c.ApplySecrets(ctx, sm)
}

// ApplySecrets overrides credentials with values from the provider
func (c *Config) ApplySecrets(ctx context.Context, provider SecretsProvider) error {
	secrets, err := provider.GetSecrets(ctx, []string{"DB_PASSWORD", "REDIS_PASSWORD"})
	if err != nil {
		return fmt.Errorf("failed to resolve secrets: %w", err)
	}
	if v, ok := secrets["DB_PASSWORD"]; ok {
		c.Database.Password = v
	}
	if v, ok := secrets["REDIS_PASSWORD"]; ok {
		c.Redis.Password = v
		c.Asynq.RedisPassword = v
	}
	return nil
}

// Validate runs the validator chain for the current environment
func (c *Config) Validate() error {
	validators := []Validator{&BasicValidator{}, &SecurityValidator{}}
	if c.IsProduction() {
		validators = append(validators, &ProductionValidator{})
	}

	for _, v := range validators {
		if err := v.Validate(c); err != nil {
			return err
		}
	}
	return nil
}

// GetDatabaseURL returns the formatted database connection string
func (c *Config) GetDatabaseURL() string {
	return fmt.Sprintf(
		"postgresql://%s:%s@%s:%s/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// GetRedisAddr returns host:port for Redis
func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}

// GetServerAddress returns the formatted server address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}

// IsProduction returns true if running in production
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// IsDevelopment returns true if running in development
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development" || c.App.Environment == "local"
}

// envReader registers each default with viper and reads the merged value
type envReader struct {
	v *viper.Viper
}

func (e envReader) str(key, def string) string {
	e.v.SetDefault(key, def)
	return e.v.GetString(key)
}

func (e envReader) boolean(key string, def bool) bool {
	e.v.SetDefault(key, def)
	return e.v.GetBool(key)
}

func (e envReader) integer(key string, def int) int {
	e.v.SetDefault(key, def)
	return e.v.GetInt(key)
}

func (e envReader) float(key string, def float64) float64 {
	e.v.SetDefault(key, def)
	return e.v.GetFloat64(key)
}

func (e envReader) duration(key string, def time.Duration) time.Duration {
	e.v.SetDefault(key, def)
	return e.v.GetDuration(key)
}

func (e envReader) slice(key string, def []string) []string {
	raw := e.str(key, strings.Join(def, ","))
	if raw == "" {
		return []string{}
	}
	parts := strings.Split(raw, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func parseQueues(queuesStr string) map[string]int {
	queues := make(map[string]int)
	for _, pair := range strings.Split(queuesStr, ",") {
		parts := strings.Split(pair, ":")
		if len(parts) != 2 {
			continue
		}
		name := strings.TrimSpace(parts[0])
		priority, err := strconv.Atoi(strings.TrimSpace(parts[1]))
		if err == nil && name != "" {
			queues[name] = priority
		}
	}
	if len(queues) == 0 {
		queues["default"] = 1
	}
	return queues
}
