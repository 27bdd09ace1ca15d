// internal/core/services/report.go
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/ammerola/kasir-be/internal/core/aggregation"
	"github.com/ammerola/kasir-be/internal/core/domain"
	"github.com/ammerola/kasir-be/internal/core/ports"
)

const (
	reportKeyPrefix = "report"
	exportKeyPrefix = "export"
)

// ReportService resolves date ranges, loads the ledger and runs the
// aggregation engine, caching finished reports.
type ReportService struct {
	store    ports.TransactionStore
	cache    ports.CacheRepository
	engine   *aggregation.Engine
	settings ReportSettings
	now      func() time.Time
	tracer   trace.Tracer
	logger   *slog.Logger
}

// Statically assert that *ReportService implements the ReportService interface.
var _ ports.ReportService = (*ReportService)(nil)

// NewReportService creates a report service. cache may be nil.
func NewReportService(store ports.TransactionStore, cache ports.CacheRepository, engine *aggregation.Engine,
	settings ReportSettings, logger *slog.Logger) *ReportService {
	if settings.Location == nil {
		settings.Location = time.Local
	}
	if settings.DefaultRangeDays <= 0 {
		settings.DefaultRangeDays = DefaultReportSettings().DefaultRangeDays
	}

	return &ReportService{
		store:    store,
		cache:    cache,
		engine:   engine,
		settings: settings,
		now:      time.Now,
		tracer:   otel.Tracer("github.com/ammerola/kasir-be/internal/core/services"),
		logger:   logger.With(slog.String("service", "report")),
	}
}

// WithClock replaces the wall clock used for the default range
func (s *ReportService) WithClock(now func() time.Time) *ReportService {
	s.now = now
	return s
}

// ResolvePeriod turns optional ISO-8601 bounds into a reporting window.
// Missing bounds are derived from the default range length ending today.
func (s *ReportService) ResolvePeriod(startDate, endDate string) (domain.Period, error) {
	loc := s.settings.Location
	span := s.settings.DefaultRangeDays - 1

	start, err := s.parseDate(startDate)
	if err != nil {
		return domain.Period{}, fmt.Errorf("%w: invalid startDate %q", domain.ErrInvalidDateRange, startDate)
	}
	end, err := s.parseDate(endDate)
	if err != nil {
		return domain.Period{}, fmt.Errorf("%w: invalid endDate %q", domain.ErrInvalidDateRange, endDate)
	}

	switch {
	case start.IsZero() && end.IsZero():
		end = s.now().In(loc)
		start = end.AddDate(0, 0, -span)
	case start.IsZero():
		start = end.AddDate(0, 0, -span)
	case end.IsZero():
		end = start.AddDate(0, 0, span)
	}

	period, err := domain.NewPeriod(start, end, loc)
	if err != nil {
		return domain.Period{}, err
	}

	if limit := s.settings.MaxRangeDays; limit > 0 && len(period.Days()) > limit {
		return domain.Period{}, fmt.Errorf("%w: range of %d days exceeds the %d day limit",
			domain.ErrInvalidDateRange, len(period.Days()), limit)
	}

	return period, nil
}

func (s *ReportService) parseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	if t, err := time.ParseInLocation(domain.DateLayout, value, s.settings.Location); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, err
	}
	return t.In(s.settings.Location), nil
}

// SalesReport builds the sales dashboard
func (s *ReportService) SalesReport(ctx context.Context, q ports.ReportQuery) (*domain.SalesReport, error) {
	return runReport(ctx, s, salesPlan, q, func(ctx context.Context, cur, prev aggregation.Input) domain.SalesReport {
		return s.engine.SalesReport(ctx, cur, prev, aggregation.SalesOptions{Continuous: q.Continuous})
	})
}

// ProfitLoss builds the profit and loss statement
func (s *ReportService) ProfitLoss(ctx context.Context, q ports.ReportQuery) (*domain.ProfitLossReport, error) {
	return runReport(ctx, s, profitLossPlan, q, s.engine.ProfitLoss)
}

// ExpenseReport builds the expense breakdown
func (s *ReportService) ExpenseReport(ctx context.Context, q ports.ReportQuery) (*domain.ExpenseReport, error) {
	return runReport(ctx, s, expensePlan, q, func(ctx context.Context, cur, _ aggregation.Input) domain.ExpenseReport {
		return s.engine.ExpenseReport(ctx, cur)
	})
}

// StockReport builds the stock levels and turnover report
func (s *ReportService) StockReport(ctx context.Context, q ports.ReportQuery) (*domain.StockReport, error) {
	return runReport(ctx, s, stockPlan, q, func(ctx context.Context, cur, _ aggregation.Input) domain.StockReport {
		return s.engine.StockReport(ctx, cur)
	})
}

// Invalidate drops every cached report and rendered export
func (s *ReportService) Invalidate(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}

	for _, prefix := range []string{reportKeyPrefix, exportKeyPrefix} {
		if err := s.cache.DeletePattern(ctx, prefix+":*"); err != nil {
			return fmt.Errorf("failed to invalidate %s cache: %w", prefix, err)
		}
	}

	s.logger.InfoContext(ctx, "report cache invalidated")
	return nil
}

// CacheKey returns the cache key of a report for a resolved query
func CacheKey(kind domain.ReportKind, period domain.Period, q ports.ReportQuery) string {
	return strings.Join([]string{reportKeyPrefix, string(kind), period.Key(), filterKey(q)}, ":")
}

func filterKey(q ports.ReportQuery) string {
	var parts []string
	if q.Continuous {
		parts = append(parts, "continuous")
	}
	if q.PaymentMethod != "" {
		parts = append(parts, "pm="+string(q.PaymentMethod))
	}
	if len(parts) == 0 {
		return "all"
	}
	return strings.Join(parts, ",")
}

type buildFunc[T any] func(ctx context.Context, cur, prev aggregation.Input) T

func runReport[T any](ctx context.Context, s *ReportService, plan reportPlan, q ports.ReportQuery, build buildFunc[T]) (*T, error) {
	ctx, span := s.tracer.Start(ctx, "ReportService."+string(plan.kind),
		trace.WithAttributes(
			attribute.String("report.kind", string(plan.kind)),
			attribute.String("report.start", q.StartDate),
			attribute.String("report.end", q.EndDate),
		))
	defer span.End()

	report, err := cachedReport(ctx, s, plan, q, build)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return report, nil
}

func cachedReport[T any](ctx context.Context, s *ReportService, plan reportPlan, q ports.ReportQuery, build buildFunc[T]) (*T, error) {
	if q.PaymentMethod != "" && !q.PaymentMethod.IsValid() {
		return nil, fmt.Errorf("%w: unknown payment method %q", domain.ErrInvalidRecord, q.PaymentMethod)
	}

	period, err := s.ResolvePeriod(q.StartDate, q.EndDate)
	if err != nil {
		return nil, err
	}

	compute := func() (*T, error) {
		cur, prev, err := s.load(ctx, plan, period, q)
		if err != nil {
			return nil, fmt.Errorf("%s report: %w", plan.kind, err)
		}
		report := build(ctx, cur, prev)
		return &report, nil
	}

	if s.cache == nil {
		return compute()
	}

	key := CacheKey(plan.kind, period, q)
	var (
		report   T
		fetchErr error
	)
	err = s.cache.GetOrSet(ctx, key, &report, func() (interface{}, error) {
		built, err := compute()
		if err != nil {
			fetchErr = err
			return nil, err
		}
		return built, nil
	}, s.settings.CacheTTL)

	switch {
	case fetchErr != nil:
		return nil, fetchErr
	case err != nil:
		s.logger.WarnContext(ctx, "report cache unavailable, building directly",
			slog.String("key", key),
			slog.String("error", err.Error()))
		return compute()
	}

	return &report, nil
}

// load fetches the record sets the plan needs for the current and previous
// windows concurrently.
func (s *ReportService) load(ctx context.Context, plan reportPlan, period domain.Period, q ports.ReportQuery) (aggregation.Input, aggregation.Input, error) {
	cur := aggregation.Input{Period: period}
	prev := aggregation.Input{Period: period.Previous()}

	g, gctx := errgroup.WithContext(ctx)
	s.fetch(gctx, g, plan.current, &cur)
	s.fetch(gctx, g, plan.previous, &prev)

	if err := g.Wait(); err != nil {
		if !errors.Is(err, domain.ErrDataSourceUnavailable) {
			err = fmt.Errorf("%w: %w", domain.ErrDataSourceUnavailable, err)
		}
		return cur, prev, err
	}

	if q.PaymentMethod != "" && plan.current.has(needSales) {
		filterByPaymentMethod(&cur, q.PaymentMethod)
		filterByPaymentMethod(&prev, q.PaymentMethod)
	}

	s.logger.DebugContext(ctx, "report data loaded",
		slog.String("kind", string(plan.kind)),
		slog.String("period", period.Key()),
		slog.Int("sales", len(cur.Sales)),
		slog.Int("sale_items", len(cur.SaleItems)),
		slog.Int("purchase_items", len(cur.PurchaseItems)),
		slog.Int("expenses", len(cur.Expenses)))

	return cur, prev, nil
}

func (s *ReportService) fetch(ctx context.Context, g *errgroup.Group, need dataset, in *aggregation.Input) {
	period := in.Period

	if need.has(needSales) {
		g.Go(func() (err error) {
			in.Sales, err = s.store.ListSales(ctx, period)
			return err
		})
	}
	if need.has(needSaleItems) {
		g.Go(func() (err error) {
			in.SaleItems, err = s.store.ListSaleItems(ctx, period)
			return err
		})
	}
	if need.has(needPurchaseItems) {
		g.Go(func() (err error) {
			in.PurchaseItems, err = s.store.ListPurchaseItems(ctx, period)
			return err
		})
	}
	if need.has(needExpenses) {
		g.Go(func() (err error) {
			in.Expenses, err = s.store.ListExpenses(ctx, period)
			return err
		})
	}
	if need.has(needCategories) {
		g.Go(func() (err error) {
			in.Categories, err = s.store.ListCategories(ctx)
			return err
		})
	}
}

// filterByPaymentMethod keeps the sales paid with method and their lines
func filterByPaymentMethod(in *aggregation.Input, method domain.PaymentMethod) {
	kept := make(map[uuid.UUID]struct{}, len(in.Sales))
	sales := in.Sales[:0:0]
	for _, sale := range in.Sales {
		if sale.PaymentMethod == method {
			sales = append(sales, sale)
			kept[sale.ID] = struct{}{}
		}
	}
	in.Sales = sales

	if in.SaleItems == nil {
		return
	}
	items := in.SaleItems[:0:0]
	for _, item := range in.SaleItems {
		if _, ok := kept[item.SaleID]; ok {
			items = append(items, item)
		}
	}
	in.SaleItems = items
}
