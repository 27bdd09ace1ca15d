// internal/core/services/report_test.go
package services_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ammerola/kasir-be/internal/core/aggregation"
	"github.com/ammerola/kasir-be/internal/core/domain"
	"github.com/ammerola/kasir-be/internal/core/ports"
	"github.com/ammerola/kasir-be/internal/core/services"
	"github.com/ammerola/kasir-be/test/helpers"
	"github.com/ammerola/kasir-be/test/mocks"
)

var fixedNow = time.Date(2024, time.March, 15, 10, 0, 0, 0, time.UTC)

func newService(store ports.TransactionStore, cache ports.CacheRepository) *services.ReportService {
	settings := services.DefaultReportSettings()
	settings.Location = time.UTC

	engine := aggregation.NewEngine(aggregation.Options{Location: time.UTC}, helpers.TestLogger())
	return services.NewReportService(store, cache, engine, settings, helpers.TestLogger()).
		WithClock(func() time.Time { return fixedNow })
}

// passThrough makes a mocked GetOrSet behave like a cache miss
func passThrough(_ context.Context, _ string, dest any, fetch func() (any, error), _ time.Duration) error {
	value, err := fetch()
	if err != nil {
		return err
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dest)
}

func TestReportService_ResolvePeriod(t *testing.T) {
	svc := newService(nil, nil)

	tests := []struct {
		name          string
		startDate     string
		endDate       string
		expectedStart string
		expectedEnd   string
		expectedError error
	}{
		{
			name:          "defaults_to_last_30_days",
			expectedStart: "2024-02-15",
			expectedEnd:   "2024-03-15",
		},
		{
			name:          "explicit_range",
			startDate:     "2024-01-01",
			endDate:       "2024-01-31",
			expectedStart: "2024-01-01",
			expectedEnd:   "2024-01-31",
		},
		{
			name:          "derives_end_from_start",
			startDate:     "2024-01-01",
			expectedStart: "2024-01-01",
			expectedEnd:   "2024-01-30",
		},
		{
			name:          "derives_start_from_end",
			endDate:       "2024-01-31",
			expectedStart: "2024-01-02",
			expectedEnd:   "2024-01-31",
		},
		{
			name:          "single_day",
			startDate:     "2024-03-01",
			endDate:       "2024-03-01",
			expectedStart: "2024-03-01",
			expectedEnd:   "2024-03-01",
		},
		{
			name:          "accepts_rfc3339",
			startDate:     "2024-01-01T10:00:00Z",
			endDate:       "2024-01-02T23:00:00Z",
			expectedStart: "2024-01-01",
			expectedEnd:   "2024-01-02",
		},
		{
			name:          "start_after_end",
			startDate:     "2024-02-01",
			endDate:       "2024-01-01",
			expectedError: domain.ErrInvalidDateRange,
		},
		{
			name:          "unparseable_start",
			startDate:     "01/02/2024",
			expectedError: domain.ErrInvalidDateRange,
		},
		{
			name:          "range_over_limit",
			startDate:     "2023-01-01",
			endDate:       "2024-12-31",
			expectedError: domain.ErrInvalidDateRange,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			period, err := svc.ResolvePeriod(tt.startDate, tt.endDate)

			if tt.expectedError != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.expectedError))
				return
			}

			require.NoError(t, err)
			view := period.View()
			assert.Equal(t, tt.expectedStart, view.Start)
			assert.Equal(t, tt.expectedEnd, view.End)
			assert.True(t, period.End.After(period.Start))
		})
	}
}

func TestReportService_SalesReport_LoadsBothWindows(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockTransactionStore(ctrl)
	svc := newService(store, nil)

	cur := []domain.Sale{
		*helpers.CreateTestSale(func(s *domain.Sale) {
			s.TotalAmount = decimal.NewFromInt(100)
			s.CreatedAt = time.Date(2024, time.March, 2, 9, 0, 0, 0, time.UTC)
		}),
		*helpers.CreateTestSale(func(s *domain.Sale) {
			s.TotalAmount = decimal.NewFromInt(100)
			s.CreatedAt = time.Date(2024, time.March, 3, 9, 0, 0, 0, time.UTC)
		}),
	}
	prev := []domain.Sale{
		*helpers.CreateTestSale(func(s *domain.Sale) {
			s.TotalAmount = decimal.NewFromInt(100)
			s.CreatedAt = time.Date(2024, time.February, 10, 9, 0, 0, 0, time.UTC)
		}),
	}
	currentStart := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)

	store.EXPECT().
		ListSales(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, p domain.Period) ([]domain.Sale, error) {
			if p.Start.Equal(currentStart) {
				return cur, nil
			}
			assert.Equal(t, currentStart, p.End, "previous window must end where the current one starts")
			return prev, nil
		}).
		Times(2)
	store.EXPECT().
		ListSaleItems(gomock.Any(), gomock.Any()).
		Return([]domain.SaleLineItem{*helpers.CreateTestSaleItem(cur[0].ID, "Kopi", 2, 50)}, nil)

	report, err := svc.SalesReport(context.Background(), ports.ReportQuery{
		StartDate: "2024-03-01",
		EndDate:   "2024-03-31",
	})
	require.NoError(t, err)

	assert.Equal(t, "2024-03-01", report.Period.Start)
	assert.Equal(t, "2024-03-31", report.Period.End)
	assert.Equal(t, 2, report.Overview.TotalTransactions)
	assert.True(t, report.Overview.TotalRevenue.Equal(decimal.NewFromInt(200)))
	assert.Equal(t, 100.0, report.Overview.RevenueGrowth)
	require.Len(t, report.CategorySales, 1)
	assert.Equal(t, "Kopi", report.CategorySales[0].Category)
}

func TestReportService_PaymentMethodFilter(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockTransactionStore(ctrl)
	cache := mocks.NewMockCacheRepository(ctrl)
	svc := newService(store, cache)

	cash := helpers.CreateTestSale(func(s *domain.Sale) {
		s.PaymentMethod = domain.PaymentCash
		s.CreatedAt = time.Date(2024, time.March, 2, 9, 0, 0, 0, time.UTC)
	})
	transfer := helpers.CreateTestSale(func(s *domain.Sale) {
		s.PaymentMethod = domain.PaymentTransfer
		s.TotalAmount = decimal.NewFromInt(40000)
		s.CreatedAt = time.Date(2024, time.March, 3, 9, 0, 0, 0, time.UTC)
	})

	store.EXPECT().ListSales(gomock.Any(), gomock.Any()).Return([]domain.Sale{*cash, *transfer}, nil).Times(2)
	store.EXPECT().ListSaleItems(gomock.Any(), gomock.Any()).Return([]domain.SaleLineItem{
		*helpers.CreateTestSaleItem(cash.ID, "Gula", 1, 25000),
		*helpers.CreateTestSaleItem(transfer.ID, "Kopi", 2, 20000),
	}, nil)
	cache.EXPECT().
		GetOrSet(gomock.Any(), "report:sales:2024-03-01:2024-03-31:continuous,pm=transfer", gomock.Any(), gomock.Any(), 2*time.Minute).
		DoAndReturn(passThrough)

	report, err := svc.SalesReport(context.Background(), ports.ReportQuery{
		StartDate:     "2024-03-01",
		EndDate:       "2024-03-31",
		Continuous:    true,
		PaymentMethod: domain.PaymentTransfer,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, report.Overview.TotalTransactions)
	assert.True(t, report.Overview.TotalRevenue.Equal(decimal.NewFromInt(40000)))
	require.Len(t, report.CategorySales, 1)
	assert.Equal(t, "Kopi", report.CategorySales[0].Category)
	assert.Len(t, report.DailySales, 31)
}

func TestReportService_RejectsUnknownPaymentMethod(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockTransactionStore(ctrl)
	svc := newService(store, nil)

	_, err := svc.SalesReport(context.Background(), ports.ReportQuery{PaymentMethod: "bitcoin"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidRecord))
}

func TestReportService_ExpenseReport_Cache(t *testing.T) {
	query := ports.ReportQuery{StartDate: "2024-03-01", EndDate: "2024-03-31"}
	key := "report:expenses:2024-03-01:2024-03-31:all"

	tests := []struct {
		name          string
		setupMocks    func(*mocks.MockTransactionStore, *mocks.MockCacheRepository)
		expectedTotal string
		expectedError error
	}{
		{
			name: "cache_hit_skips_store",
			setupMocks: func(store *mocks.MockTransactionStore, cache *mocks.MockCacheRepository) {
				cache.EXPECT().
					GetOrSet(gomock.Any(), key, gomock.Any(), gomock.Any(), gomock.Any()).
					DoAndReturn(func(ctx context.Context, key string, dest any, fetch func() (any, error), ttl time.Duration) error {
						*dest.(*domain.ExpenseReport) = domain.ExpenseReport{
							TotalExpenses: decimal.NewFromInt(999),
							Count:         1,
						}
						return nil
					})
			},
			expectedTotal: "999",
		},
		{
			name: "cache_miss_builds_report",
			setupMocks: func(store *mocks.MockTransactionStore, cache *mocks.MockCacheRepository) {
				cache.EXPECT().
					GetOrSet(gomock.Any(), key, gomock.Any(), gomock.Any(), gomock.Any()).
					DoAndReturn(passThrough)
				store.EXPECT().
					ListExpenses(gomock.Any(), gomock.Any()).
					Return([]domain.Expense{
						*helpers.CreateTestExpense(),
						*helpers.CreateTestExpense(func(e *domain.Expense) { e.Amount = decimal.NewFromInt(50000) }),
					}, nil)
			},
			expectedTotal: "200000",
		},
		{
			name: "cache_unavailable_builds_directly",
			setupMocks: func(store *mocks.MockTransactionStore, cache *mocks.MockCacheRepository) {
				cache.EXPECT().
					GetOrSet(gomock.Any(), key, gomock.Any(), gomock.Any(), gomock.Any()).
					Return(errors.New("redis: connection refused"))
				store.EXPECT().
					ListExpenses(gomock.Any(), gomock.Any()).
					Return([]domain.Expense{*helpers.CreateTestExpense()}, nil)
			},
			expectedTotal: "150000",
		},
		{
			name: "store_failure_is_data_source_unavailable",
			setupMocks: func(store *mocks.MockTransactionStore, cache *mocks.MockCacheRepository) {
				cache.EXPECT().
					GetOrSet(gomock.Any(), key, gomock.Any(), gomock.Any(), gomock.Any()).
					DoAndReturn(passThrough)
				store.EXPECT().
					ListExpenses(gomock.Any(), gomock.Any()).
					Return(nil, errors.New("connection reset by peer"))
			},
			expectedError: domain.ErrDataSourceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			store := mocks.NewMockTransactionStore(ctrl)
			cache := mocks.NewMockCacheRepository(ctrl)
			tt.setupMocks(store, cache)

			report, err := newService(store, cache).ExpenseReport(context.Background(), query)

			if tt.expectedError != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.expectedError))
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expectedTotal, report.TotalExpenses.String())
		})
	}
}

func TestReportService_StockReport_IgnoresPaymentFilterForItems(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockTransactionStore(ctrl)
	svc := newService(store, nil)

	category := helpers.CreateTestCategory()
	item := helpers.CreateTestSaleItem(category.ID, category.Name, 4, 12000)
	item.CategoryID = category.ID

	store.EXPECT().ListCategories(gomock.Any()).Return([]domain.Category{*category}, nil)
	store.EXPECT().ListSaleItems(gomock.Any(), gomock.Any()).Return([]domain.SaleLineItem{*item}, nil)
	store.EXPECT().ListPurchaseItems(gomock.Any(), gomock.Any()).Return(nil, nil)

	report, err := svc.StockReport(context.Background(), ports.ReportQuery{
		StartDate:     "2024-03-01",
		EndDate:       "2024-03-31",
		PaymentMethod: domain.PaymentCash,
	})
	require.NoError(t, err)

	require.Len(t, report.Categories, 1)
	assert.Equal(t, 4, report.Categories[0].SoldQuantity)
	assert.Equal(t, 50, report.TotalStock)
}

func TestReportService_ProfitLoss_StoreError(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockTransactionStore(ctrl)
	svc := newService(store, nil)

	store.EXPECT().ListSales(gomock.Any(), gomock.Any()).Return(nil, nil).AnyTimes()
	store.EXPECT().ListSaleItems(gomock.Any(), gomock.Any()).Return(nil, nil).AnyTimes()
	store.EXPECT().ListPurchaseItems(gomock.Any(), gomock.Any()).Return(nil, nil).AnyTimes()
	store.EXPECT().ListExpenses(gomock.Any(), gomock.Any()).
		Return(nil, errors.New("timeout")).AnyTimes()

	_, err := svc.ProfitLoss(context.Background(), ports.ReportQuery{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrDataSourceUnavailable))
	assert.Contains(t, err.Error(), "profit_loss report")
}

func TestReportService_Invalidate(t *testing.T) {
	tests := []struct {
		name          string
		setupMocks    func(*mocks.MockCacheRepository)
		expectedError bool
	}{
		{
			name: "drops_reports_and_exports",
			setupMocks: func(m *mocks.MockCacheRepository) {
				gomock.InOrder(
					m.EXPECT().DeletePattern(gomock.Any(), "report:*").Return(nil),
					m.EXPECT().DeletePattern(gomock.Any(), "export:*").Return(nil),
				)
			},
		},
		{
			name: "propagates_cache_error",
			setupMocks: func(m *mocks.MockCacheRepository) {
				m.EXPECT().DeletePattern(gomock.Any(), "report:*").Return(errors.New("redis down"))
			},
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			cache := mocks.NewMockCacheRepository(ctrl)
			tt.setupMocks(cache)

			err := newService(nil, cache).Invalidate(context.Background())
			if tt.expectedError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}

	t.Run("nil_cache_is_noop", func(t *testing.T) {
		assert.NoError(t, newService(nil, nil).Invalidate(context.Background()))
	})
}

func TestCacheKey(t *testing.T) {
	period, err := domain.NewPeriod(
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
		time.UTC)
	require.NoError(t, err)

	assert.Equal(t, "report:sales:2024-01-01:2024-01-31:all",
		services.CacheKey(domain.ReportSales, period, ports.ReportQuery{}))
	assert.Equal(t, "report:sales:2024-01-01:2024-01-31:pm=cash",
		services.CacheKey(domain.ReportSales, period, ports.ReportQuery{PaymentMethod: domain.PaymentCash}))
	assert.NotEqual(t,
		services.CacheKey(domain.ReportSales, period, ports.ReportQuery{Continuous: true}),
		services.CacheKey(domain.ReportSales, period, ports.ReportQuery{}))
}
