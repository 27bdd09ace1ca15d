// test/helpers/helpers.go
package helpers

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/ammerola/kasir-be/internal/adapters/db"
	"github.com/ammerola/kasir-be/internal/core/domain"
	"github.com/ammerola/kasir-be/internal/pkg/config"
)

// TestDB represents a test database instance
type TestDB struct {
	PgxPool  *pgxpool.Pool
	Database *db.Database
	Resource *dockertest.Resource
	Pool     *dockertest.Pool
	Config   *db.Config
}

// TestRedis represents a test Redis instance
type TestRedis struct {
	Client *redis.Client
	Server *miniredis.Miniredis
}

// TestLogger returns a test logger
func TestLogger() *slog.Logger {
	if testing.Verbose() {
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

// SetupTestDB creates a PostgreSQL container with the ledger schema applied
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	pool, err := dockertest.NewPool("")
	require.NoError(t, err, "Could not connect to Docker")

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "16-alpine",
		Env: []string{
			"POSTGRES_USER=test",
			"POSTGRES_PASSWORD=test",
			"POSTGRES_DB=test_kasir",
			"listen_addresses = '*'",
		},
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	require.NoError(t, err, "Could not start PostgreSQL container")

	t.Cleanup(func() {
		if err := pool.Purge(resource); err != nil {
			t.Logf("Could not purge resource: %s", err)
		}
	})

	dbConfig := db.DefaultConfig()
	dbConfig.Port = resource.GetPort("5432/tcp")
	dbConfig.User = "test"
	dbConfig.Password = "test"
	dbConfig.Database = "test_kasir"
	dbConfig.MaxConnections = 5
	dbConfig.MinConnections = 1
	dbConfig.EnableQueryLogging = testing.Verbose()

	var database *db.Database
	err = pool.Retry(func() error {
		ctx := context.Background()
		var err error
		database, err = db.NewDatabase(ctx, dbConfig, TestLogger())
		if err != nil {
			return err
		}
		return database.Ping(ctx)
	})
	require.NoError(t, err, "Could not connect to PostgreSQL")
	t.Cleanup(database.Close)

	migrationConfig := &db.MigrationConfig{
		DatabaseURL: fmt.Sprintf("postgresql://%s:%s@%s:%s/%s?sslmode=%s",
			dbConfig.User, dbConfig.Password, dbConfig.Host, dbConfig.Port,
			dbConfig.Database, dbConfig.SSLMode),
	}
	err = db.RunMigrationsWithRetry(context.Background(), migrationConfig, TestLogger(), 3)
	require.NoError(t, err, "Could not run migrations")

	return &TestDB{
		PgxPool:  database.Pool(),
		Database: database,
		Resource: resource,
		Pool:     pool,
		Config:   dbConfig,
	}
}

// SetupTestRedis creates an in-process Redis for testing
func SetupTestRedis(t *testing.T) *TestRedis {
	t.Helper()

	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	t.Cleanup(func() {
		client.Close()
	})

	return &TestRedis{
		Client: client,
		Server: mr,
	}
}

// LoadTestConfig returns a test configuration
func LoadTestConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{
			Name:        "test-api",
			Environment: "test",
			Version:     "test",
			LogLevel:    "debug",
			LogFormat:   "text",
			Debug:       true,
		},
		Database: config.DatabaseConfig{
			Host:               "localhost",
			Port:               "5432",
			User:               "test",
			Password:           "test",
			Name:               "test_kasir",
			SSLMode:            "disable",
			MaxConnections:     10,
			MinConnections:     2,
			EnableQueryLogging: true,
		},
		Redis: config.RedisConfig{
			Host:     "localhost",
			Port:     "6379",
			DB:       0,
			PoolSize: 10,
		},
		Report: config.ReportConfig{
			Timezone:          "Asia/Jakarta",
			AssumedCostRatio:  0.6,
			CacheTTL:          2 * time.Minute,
			DefaultRangeDays:  30,
			MaxRangeDays:      366,
			TopN:              5,
			RecentLimit:       10,
			LowStockThreshold: 10,
		},
		Storage: config.StorageConfig{
			Driver:        "local",
			LocalPath:     os.TempDir(),
			ExportPrefix:  "exports",
			ImportPrefix:  "imports",
			Retention:     7 * 24 * time.Hour,
			PresignExpiry: 15 * time.Minute,
		},
		Security: config.SecurityConfig{
			RateLimitRequests: 100,
			RateLimitDuration: time.Minute,
			AllowedOrigins:    []string{"*"},
			SecureHeaders:     false,
		},
		Server: config.ServerConfig{
			Host:         "localhost",
			Port:         "8080",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
		},
	}
}

// CreateTestSale creates a paid cash sale of a single item
func CreateTestSale(overrides ...func(*domain.Sale)) *domain.Sale {
	sale := &domain.Sale{
		ID:            uuid.New(),
		TotalItems:    1,
		TotalAmount:   decimal.NewFromInt(25000),
		Discount:      decimal.Zero,
		DiscountType:  domain.DiscountFixed,
		PaymentMethod: domain.PaymentCash,
		UserID:        uuid.New(),
		CashierName:   "Siti",
		CreatedAt:     time.Date(2024, time.March, 1, 9, 30, 0, 0, time.UTC),
	}

	for _, override := range overrides {
		override(sale)
	}

	return sale
}

// CreateTestSaleItem creates a line item whose subtotal is qty x unitPrice
func CreateTestSaleItem(saleID uuid.UUID, category string, qty int, unitPrice int64) *domain.SaleLineItem {
	price := decimal.NewFromInt(unitPrice)
	return &domain.SaleLineItem{
		ID:           uuid.New(),
		SaleID:       saleID,
		CategoryID:   uuid.Nil,
		CategoryName: category,
		UnitPrice:    price,
		Quantity:     qty,
		Discount:     decimal.Zero,
		Subtotal:     price.Mul(decimal.NewFromInt(int64(qty))),
		CreatedAt:    time.Date(2024, time.March, 1, 9, 30, 0, 0, time.UTC),
	}
}

// CreateTestPurchaseItem creates a purchase line whose subtotal is qty x unitCost
func CreateTestPurchaseItem(category string, qty int, unitCost int64) *domain.PurchaseLineItem {
	cost := decimal.NewFromInt(unitCost)
	return &domain.PurchaseLineItem{
		ID:           uuid.New(),
		PurchaseID:   uuid.New(),
		CategoryName: category,
		SupplierName: "CV Sumber Rejeki",
		UnitCost:     cost,
		Quantity:     qty,
		Subtotal:     cost.Mul(decimal.NewFromInt(int64(qty))),
		CreatedAt:    time.Date(2024, time.March, 1, 8, 0, 0, 0, time.UTC),
	}
}

// CreateTestExpense creates an expense
func CreateTestExpense(overrides ...func(*domain.Expense)) *domain.Expense {
	expense := &domain.Expense{
		ID:          uuid.New(),
		Description: "Listrik toko",
		Category:    "listrik",
		Amount:      decimal.NewFromInt(150000),
		CreatedAt:   time.Date(2024, time.March, 1, 17, 0, 0, 0, time.UTC),
	}

	for _, override := range overrides {
		override(expense)
	}

	return expense
}

// CreateTestCategory creates a catalog category
func CreateTestCategory(overrides ...func(*domain.Category)) *domain.Category {
	category := &domain.Category{
		ID:    uuid.New(),
		Name:  "Kopi Bubuk",
		Stock: 50,
		Price: decimal.NewFromInt(12000),
	}

	for _, override := range overrides {
		override(category)
	}

	return category
}

// TruncateAllTables truncates all ledger tables in the test database
func TruncateAllTables(t *testing.T, db *pgxpool.Pool) {
	t.Helper()

	ctx := context.Background()
	tables := []string{
		"sale_items", "sales",
		"purchase_items", "purchases",
		"expenses", "categories",
		"members", "users", "suppliers",
	}

	for _, table := range tables {
		_, err := db.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table))
		require.NoError(t, err, "Failed to truncate table: %s", table)
	}
}

// AssertEventuallyWithTimeout asserts that a condition is met within a timeout
func AssertEventuallyWithTimeout(t *testing.T, condition func() bool, timeout time.Duration, msg string) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(100 * time.Millisecond)
	}

	t.Errorf("Condition not met within %v: %s", timeout, msg)
}
