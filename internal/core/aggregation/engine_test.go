package aggregation_test

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ammerola/kasir-be/internal/core/aggregation"
	"github.com/ammerola/kasir-be/internal/core/domain"
	"github.com/ammerola/kasir-be/test/helpers"
)

var jakarta = time.FixedZone("WIB", 7*60*60)

func newEngine(t *testing.T) *aggregation.Engine {
	t.Helper()
	opts := aggregation.DefaultOptions()
	opts.Location = jakarta
	return aggregation.NewEngine(opts, helpers.TestLogger())
}

func day(d int) time.Time {
	return time.Date(2024, time.March, d, 10, 0, 0, 0, jakarta)
}

func mustPeriod(t *testing.T, first, last time.Time) domain.Period {
	t.Helper()
	p, err := domain.NewPeriod(first, last, jakarta)
	require.NoError(t, err)
	return p
}

func sale(total int64, discount float64, dt domain.DiscountType, at time.Time) domain.Sale {
	return *helpers.CreateTestSale(func(s *domain.Sale) {
		s.TotalAmount = decimal.NewFromInt(total)
		s.Discount = decimal.NewFromFloat(discount)
		s.DiscountType = dt
		s.CreatedAt = at
	})
}

func TestTotals_RevenueConservation(t *testing.T) {
	tests := []struct {
		name          string
		sales         []domain.Sale
		wantRevenue   string
		wantDiscounts string
		wantNet       string
	}{
		{
			name:          "percentage_discount",
			sales:         []domain.Sale{sale(100000, 10, domain.DiscountPercentage, day(1)), sale(33333, 15, domain.DiscountPercentage, day(1))},
			wantRevenue:   "133333",
			wantDiscounts: "14999.95",
			wantNet:       "118333.05",
		},
		{
			name:          "fixed_discount",
			sales:         []domain.Sale{sale(50000, 2500, domain.DiscountFixed, day(2)), sale(12000, 0, domain.DiscountFixed, day(2))},
			wantRevenue:   "62000",
			wantDiscounts: "2500",
			wantNet:       "59500",
		},
		{
			name:          "mixed_discount_types",
			sales:         []domain.Sale{sale(20000, 50, domain.DiscountPercentage, day(3)), sale(20000, 1000, domain.DiscountFixed, day(3))},
			wantRevenue:   "40000",
			wantDiscounts: "11000",
			wantNet:       "29000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			totals := aggregation.Totals(tt.sales)

			assert.True(t, decimal.RequireFromString(tt.wantRevenue).Equal(totals.TotalRevenue), totals.TotalRevenue.String())
			assert.True(t, decimal.RequireFromString(tt.wantDiscounts).Equal(totals.TotalDiscounts), totals.TotalDiscounts.String())
			assert.True(t, decimal.RequireFromString(tt.wantNet).Equal(totals.NetRevenue), totals.NetRevenue.String())
			assert.True(t, totals.NetRevenue.Equal(totals.TotalRevenue.Sub(totals.TotalDiscounts)))
		})
	}
}

func TestReports_RoundedFiguresConserveRevenue(t *testing.T) {
	e := newEngine(t)
	centSale := func(total, pct string) domain.Sale {
		return *helpers.CreateTestSale(func(s *domain.Sale) {
			s.TotalAmount = decimal.RequireFromString(total)
			s.Discount = decimal.RequireFromString(pct)
			s.DiscountType = domain.DiscountPercentage
			s.CreatedAt = day(1)
		})
	}
	cur := aggregation.Input{
		Period: mustPeriod(t, day(1), day(1)),
		Sales:  []domain.Sale{centSale("10.10", "5"), centSale("33.33", "7.5")},
	}

	type figures struct {
		name                  string
		total, discounts, net decimal.Decimal
	}

	report := e.SalesReport(context.Background(), cur, aggregation.Input{}, aggregation.SalesOptions{})
	o := report.Overview
	tests := []figures{{"sales_overview", o.TotalRevenue, o.TotalDiscounts, o.NetRevenue}}
	for _, r := range report.RecentSales {
		tests = append(tests, figures{"recent_sale_" + r.Total.String(), r.Total, r.Discount, r.Net})
	}
	pl := e.ProfitLoss(context.Background(), cur, aggregation.Input{})
	tests = append(tests, figures{"profit_loss_revenue", pl.Revenue.TotalRevenue, pl.Revenue.TotalDiscounts, pl.Revenue.NetRevenue})

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.net.Equal(tt.total.Sub(tt.discounts)),
				"net %s != total %s - discounts %s", tt.net, tt.total, tt.discounts)
		})
	}

	assert.Equal(t, "43.43", o.TotalRevenue.String())
	assert.Equal(t, "3.01", o.TotalDiscounts.String(), "0.505 and 2.49975 round to 0.51 and 2.50")
	assert.Equal(t, "40.42", o.NetRevenue.String())
}

func TestSalesReport_ScenarioA_PercentageDiscount(t *testing.T) {
	e := newEngine(t)
	cur := aggregation.Input{
		Period: mustPeriod(t, day(1), day(1)),
		Sales:  []domain.Sale{sale(100000, 10, domain.DiscountPercentage, day(1))},
	}

	report := e.SalesReport(context.Background(), cur, aggregation.Input{}, aggregation.SalesOptions{})

	assert.Equal(t, "90000", report.Overview.NetRevenue.String())
	assert.Equal(t, "10000", report.Overview.TotalDiscounts.String())
	assert.Equal(t, "100000", report.Overview.TotalRevenue.String())
}

func TestProfitLoss_ScenarioB_ExpensesOnly(t *testing.T) {
	e := newEngine(t)
	cur := aggregation.Input{
		Period: mustPeriod(t, day(1), day(7)),
		Expenses: []domain.Expense{
			{ID: uuid.New(), Description: "Listrik bulan Maret", Amount: decimal.NewFromInt(50000), CreatedAt: day(2)},
		},
	}

	report := e.ProfitLoss(context.Background(), cur, aggregation.Input{})

	assert.Equal(t, "-50000", report.Profit.NetProfit.String())
	assert.Equal(t, 0.0, report.Profit.NetProfitMargin)
	assert.Equal(t, 0.0, report.Profit.GrossProfitMargin)
	assert.Equal(t, 0.0, report.Profit.OperatingMargin)
	assert.Equal(t, "50000", report.Profit.TotalExpenses.String())
}

func TestDailySales_ScenarioC_SameDayBucket(t *testing.T) {
	e := newEngine(t)
	period := mustPeriod(t, day(5), day(5))
	sales := []domain.Sale{
		sale(20000, 0, domain.DiscountFixed, day(5)),
		sale(30000, 0, domain.DiscountFixed, day(5).Add(3*time.Hour)),
	}

	daily := e.DailySales(period, sales, false)

	require.Len(t, daily, 1)
	assert.Equal(t, "2024-03-05", daily[0].Date)
	assert.Equal(t, "50000", daily[0].Revenue.String())
	assert.Equal(t, 2, daily[0].TransactionCount)
}

func TestDailySales_ContinuousSeries(t *testing.T) {
	e := newEngine(t)
	period := mustPeriod(t, day(1), day(7))
	sales := []domain.Sale{
		sale(10000, 0, domain.DiscountFixed, day(6)),
		sale(15000, 0, domain.DiscountFixed, day(2)),
	}

	t.Run("continuous_backfills_every_day", func(t *testing.T) {
		daily := e.DailySales(period, sales, true)

		require.Len(t, daily, 7)
		zero := 0
		for i, d := range daily {
			if d.Revenue.IsZero() {
				zero++
			}
			if i > 0 {
				assert.Less(t, daily[i-1].Date, d.Date)
			}
		}
		assert.Equal(t, 5, zero)
		assert.Equal(t, "2024-03-01", daily[0].Date)
		assert.Equal(t, "2024-03-07", daily[6].Date)
	})

	t.Run("sparse_keeps_only_sale_days_ascending", func(t *testing.T) {
		daily := e.DailySales(period, sales, false)

		require.Len(t, daily, 2)
		assert.Equal(t, "2024-03-02", daily[0].Date)
		assert.Equal(t, "2024-03-06", daily[1].Date)
	})

	t.Run("bucket_uses_reporting_timezone", func(t *testing.T) {
		// 2024-03-02 20:00 UTC is 2024-03-03 03:00 in WIB
		late := sale(5000, 0, domain.DiscountFixed, time.Date(2024, time.March, 2, 20, 0, 0, 0, time.UTC))
		daily := e.DailySales(period, []domain.Sale{late}, false)

		require.Len(t, daily, 1)
		assert.Equal(t, "2024-03-03", daily[0].Date)
	})
}

func TestBreakdowns_PercentageClosure(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	s1 := sale(30000, 0, domain.DiscountFixed, day(1))
	s1.PaymentMethod = domain.PaymentCash
	s2 := sale(45000, 0, domain.DiscountFixed, day(1))
	s2.PaymentMethod = domain.PaymentTransfer
	s3 := sale(25000, 0, domain.DiscountFixed, day(2))
	s3.PaymentMethod = domain.PaymentDebit

	items := []domain.SaleLineItem{
		*helpers.CreateTestSaleItem(s1.ID, "Beras", 2, 15000),
		*helpers.CreateTestSaleItem(s2.ID, "Minyak", 3, 15000),
		*helpers.CreateTestSaleItem(s3.ID, "Gula", 1, 25000),
	}

	t.Run("positive_net_revenue_sums_to_100", func(t *testing.T) {
		sales := []domain.Sale{s1, s2, s3}
		totals := aggregation.Totals(sales)

		cats := e.CategorySales(ctx, items, totals.NetRevenue)
		pays := e.PaymentMethods(ctx, sales, totals)

		var catSum, paySum float64
		for _, c := range cats {
			catSum += c.Percentage
		}
		for _, p := range pays {
			paySum += p.Percentage
		}
		assert.InDelta(t, 100.0, catSum, 0.05)
		assert.InDelta(t, 100.0, paySum, 0.05)
	})

	t.Run("unknown_method_excluded_from_shares", func(t *testing.T) {
		odd := sale(20000, 0, domain.DiscountFixed, day(2))
		odd.PaymentMethod = domain.PaymentMethod("voucher")
		sales := []domain.Sale{s1, s2, s3, odd}
		totals := aggregation.Totals(sales)
		require.Equal(t, 4, totals.Transactions)

		pays := e.PaymentMethods(ctx, sales, totals)
		require.Len(t, pays, 3)

		var paySum float64
		for _, p := range pays {
			paySum += p.Percentage
		}
		assert.InDelta(t, 100.0, paySum, 0.05)
		assert.InDelta(t, 33.33, pays[0].Percentage, 0.01)
	})

	t.Run("zero_net_revenue_gives_zero_percentages", func(t *testing.T) {
		free := sale(10000, 100, domain.DiscountPercentage, day(1))
		free.PaymentMethod = domain.PaymentCash
		sales := []domain.Sale{free}
		totals := aggregation.Totals(sales)
		require.True(t, totals.NetRevenue.IsZero())

		cats := e.CategorySales(ctx, []domain.SaleLineItem{*helpers.CreateTestSaleItem(free.ID, "Beras", 1, 10000)}, totals.NetRevenue)
		pays := e.PaymentMethods(ctx, sales, totals)

		for _, c := range cats {
			assert.Equal(t, 0.0, c.Percentage)
		}
		require.Len(t, pays, 1)
		assert.Equal(t, 0.0, pays[0].Percentage)
		assert.Equal(t, 1, pays[0].Count)
	})
}

func TestSalesReport_ZeroDivisionSafety(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	period := mustPeriod(t, day(1), day(7))

	sales := e.SalesReport(ctx, aggregation.Input{Period: period}, aggregation.Input{Period: period.Previous()}, aggregation.SalesOptions{Continuous: true})
	pl := e.ProfitLoss(ctx, aggregation.Input{Period: period}, aggregation.Input{Period: period.Previous()})

	floats := []float64{
		sales.Overview.RevenueGrowth,
		sales.Overview.TransactionGrowth,
		sales.Overview.ItemGrowth,
		pl.Profit.GrossProfitMargin,
		pl.Profit.OperatingMargin,
		pl.Profit.NetProfitMargin,
		pl.Growth.RevenueGrowth,
		pl.Growth.NetProfitGrowth,
	}
	for _, f := range floats {
		assert.False(t, math.IsNaN(f) || math.IsInf(f, 0))
		assert.Equal(t, 0.0, f)
	}
	assert.True(t, sales.Overview.AverageOrderValue.IsZero())
	assert.True(t, pl.Profit.NetProfit.IsZero())
	assert.Len(t, sales.DailySales, 7)
	assert.Empty(t, sales.CategorySales)
	assert.Empty(t, sales.PaymentMethods)
	assert.Empty(t, sales.RecentSales)
	assert.Empty(t, aggregation.ExpenseBreakdown(nil))
}

func TestGrowth(t *testing.T) {
	tests := []struct {
		name     string
		current  int64
		previous int64
		want     float64
	}{
		{name: "increase", current: 1500, previous: 1000, want: 50.0},
		{name: "decrease", current: 500, previous: 1000, want: -50.0},
		{name: "unchanged", current: 1000, previous: 1000, want: 0},
		{name: "zero_previous", current: 1000, previous: 0, want: 0},
		{name: "negative_previous_uses_magnitude", current: 500, previous: -1000, want: 150.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := aggregation.Growth(decimal.NewFromInt(tt.current), decimal.NewFromInt(tt.previous))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSalesReport_RevenueGrowthAgainstPreviousWindow(t *testing.T) {
	e := newEngine(t)
	period := mustPeriod(t, day(8), day(14))
	prevPeriod := period.Previous()

	cur := aggregation.Input{Period: period, Sales: []domain.Sale{sale(1500, 0, domain.DiscountFixed, day(9))}}
	prev := aggregation.Input{Period: prevPeriod, Sales: []domain.Sale{sale(1000, 0, domain.DiscountFixed, day(2))}}

	report := e.SalesReport(context.Background(), cur, prev, aggregation.SalesOptions{})
	assert.Equal(t, 50.0, report.Overview.RevenueGrowth)
	assert.Equal(t, 0.0, report.Overview.TransactionGrowth)

	cur.Sales = []domain.Sale{sale(500, 0, domain.DiscountFixed, day(9))}
	report = e.SalesReport(context.Background(), cur, prev, aggregation.SalesOptions{})
	assert.Equal(t, -50.0, report.Overview.RevenueGrowth)
}

func TestTopCategories_StableOrdering(t *testing.T) {
	rows := []domain.CategorySales{
		{Category: "Sabun", Revenue: decimal.NewFromInt(5000)},
		{Category: "Kopi", Revenue: decimal.NewFromInt(9000)},
		{Category: "Teh", Revenue: decimal.NewFromInt(5000)},
		{Category: "Susu", Revenue: decimal.NewFromInt(9000)},
		{Category: "Roti", Revenue: decimal.NewFromInt(1000)},
		{Category: "Mie", Revenue: decimal.NewFromInt(5000)},
	}

	top := aggregation.TopCategories(rows, 5)

	require.Len(t, top, 5)
	names := make([]string, len(top))
	for i, r := range top {
		names[i] = r.Category
	}
	assert.Equal(t, []string{"Kopi", "Susu", "Sabun", "Teh", "Mie"}, names)
	assert.Equal(t, "Sabun", rows[0].Category, "input must not be reordered")
}

func TestRecentSales_BoundedAndNewestFirst(t *testing.T) {
	var sales []domain.Sale
	for i := 1; i <= 15; i++ {
		sales = append(sales, sale(int64(i*1000), 0, domain.DiscountFixed, day(i)))
	}

	recent := aggregation.RecentSales(sales, aggregation.DefaultRecentLimit)

	require.Len(t, recent, 10)
	assert.Equal(t, "15000", recent[0].Total.String())
	assert.Equal(t, "6000", recent[9].Total.String())
	for i := 1; i < len(recent); i++ {
		assert.True(t, recent[i-1].CreatedAt.After(recent[i].CreatedAt))
	}
}

func TestCategorySales_Aggregation(t *testing.T) {
	e := newEngine(t)
	s1, s2 := uuid.New(), uuid.New()
	items := []domain.SaleLineItem{
		*helpers.CreateTestSaleItem(s1, "Kopi", 2, 5000),
		*helpers.CreateTestSaleItem(s1, "Kopi", 1, 5000),
		*helpers.CreateTestSaleItem(s2, "Kopi", 4, 5000),
		*helpers.CreateTestSaleItem(s2, "Teh", 3, 2000),
		*helpers.CreateTestSaleItem(s2, "", 1, 9999),
	}

	rows := e.CategorySales(context.Background(), items, decimal.NewFromInt(41000))

	require.Len(t, rows, 2)
	assert.Equal(t, "Kopi", rows[0].Category)
	assert.Equal(t, "35000", rows[0].Revenue.String())
	assert.Equal(t, 7, rows[0].Quantity)
	assert.Equal(t, 2, rows[0].TransactionCount)
	assert.Equal(t, 85.37, rows[0].Percentage)
	assert.Equal(t, "Teh", rows[1].Category)
	assert.Equal(t, 1, rows[1].TransactionCount)
}

// The COGS figure is a flat-ratio placeholder, not inventory costing.
// These tests pin the placeholder formula only.
func TestCostOfGoods_PlaceholderRatio(t *testing.T) {
	saleID := uuid.New()
	items := []domain.SaleLineItem{
		*helpers.CreateTestSaleItem(saleID, "Kopi", 10, 5000),
		*helpers.CreateTestSaleItem(saleID, "Teh", 5, 2000),
	}
	purchases := []domain.PurchaseLineItem{
		*helpers.CreateTestPurchaseItem("Kopi", 20, 2800),
		*helpers.CreateTestPurchaseItem("Gula", 5, 10000),
	}

	t.Run("default_ratio", func(t *testing.T) {
		e := newEngine(t)
		cogs := e.CostOfGoods(items, purchases)

		assert.Equal(t, "36000", cogs.Total.String())
		assert.Equal(t, "106000", cogs.TotalPurchaseCost.String())
		require.Len(t, cogs.Categories, 2)
		assert.Equal(t, "30000", cogs.Categories[0].EstimatedCOGS.String())
		assert.Equal(t, "56000", cogs.Categories[0].PurchaseCost.String(), "purchase cost is a reference signal")
		assert.True(t, cogs.Categories[1].PurchaseCost.IsZero())
	})

	t.Run("configured_ratio", func(t *testing.T) {
		opts := aggregation.DefaultOptions()
		ratio := decimal.NewFromFloat(0.75)
		opts.AssumedCostRatio = &ratio
		e := aggregation.NewEngine(opts, helpers.TestLogger())

		cogs := e.CostOfGoods(items, purchases)
		assert.Equal(t, "45000", cogs.Total.String())
		assert.Equal(t, "0.75", cogs.AssumedCostRatio.String())
	})

	t.Run("configured_zero_ratio", func(t *testing.T) {
		opts := aggregation.DefaultOptions()
		zero := decimal.Zero
		opts.AssumedCostRatio = &zero
		e := aggregation.NewEngine(opts, helpers.TestLogger())

		require.NotNil(t, e.Options().AssumedCostRatio)
		assert.True(t, e.Options().AssumedCostRatio.IsZero())

		cogs := e.CostOfGoods(items, purchases)
		assert.True(t, cogs.Total.IsZero())
		assert.True(t, cogs.AssumedCostRatio.IsZero())
	})

	t.Run("unset_ratio_uses_default", func(t *testing.T) {
		e := aggregation.NewEngine(aggregation.Options{Location: jakarta}, helpers.TestLogger())

		assert.Equal(t, "0.6", e.Options().AssumedCostRatio.String())
		assert.Equal(t, "36000", e.CostOfGoods(items, purchases).Total.String())
	})
}

func TestProfit_Margins(t *testing.T) {
	p := aggregation.Profit(decimal.NewFromInt(100000), decimal.NewFromInt(60000), decimal.NewFromInt(15000))

	assert.Equal(t, "40000", p.GrossProfit.String())
	assert.Equal(t, 40.0, p.GrossProfitMargin)
	assert.Equal(t, "25000", p.OperatingProfit.String())
	assert.Equal(t, 25.0, p.OperatingMargin)
	assert.True(t, p.NetProfit.Equal(p.OperatingProfit))
	assert.Equal(t, 25.0, p.NetProfitMargin)
}

func TestExpenseBreakdown(t *testing.T) {
	expenses := []domain.Expense{
		{ID: uuid.New(), Description: "Listrik toko", Amount: decimal.NewFromInt(300000), CreatedAt: day(1)},
		{ID: uuid.New(), Description: "Gaji kasir", Amount: decimal.NewFromInt(1500000), CreatedAt: day(2)},
		{ID: uuid.New(), Description: "listrik gudang", Amount: decimal.NewFromInt(200000), CreatedAt: day(3)},
		{ID: uuid.New(), Description: "Bayar sewa", Category: "Sewa", Amount: decimal.NewFromInt(500000), CreatedAt: day(4)},
		{ID: uuid.New(), Description: "   ", Amount: decimal.NewFromInt(0), CreatedAt: day(5)},
	}

	rows := aggregation.ExpenseBreakdown(expenses)

	require.Len(t, rows, 4)
	assert.Equal(t, "gaji", rows[0].Category)
	assert.Equal(t, 60.0, rows[0].Percentage)
	assert.Equal(t, "listrik", rows[1].Category)
	assert.Equal(t, "500000", rows[1].Amount.String())
	assert.Equal(t, 2, rows[1].Count)
	assert.Equal(t, "sewa", rows[2].Category, "explicit category wins over the description heuristic")
	assert.Equal(t, domain.ExpenseCategoryOther, rows[3].Category)
}

func TestSalesReport_SkipsMalformedRecords(t *testing.T) {
	e := newEngine(t)
	good := sale(20000, 0, domain.DiscountFixed, day(3))
	good.PaymentMethod = domain.PaymentCash
	negative := sale(-5000, 0, domain.DiscountFixed, day(3))
	badType := sale(7000, 0, domain.DiscountType("bogus"), day(3))
	noMethod := sale(8000, 0, domain.DiscountFixed, day(3))
	noMethod.PaymentMethod = ""

	badItem := *helpers.CreateTestSaleItem(good.ID, "Kopi", 1, 1000)
	badItem.Quantity = -2

	cur := aggregation.Input{
		Period:    mustPeriod(t, day(1), day(7)),
		Sales:     []domain.Sale{good, negative, badType, noMethod},
		SaleItems: []domain.SaleLineItem{*helpers.CreateTestSaleItem(good.ID, "Kopi", 4, 5000), badItem},
	}

	report := e.SalesReport(context.Background(), cur, aggregation.Input{}, aggregation.SalesOptions{})

	assert.Equal(t, 2, report.Overview.TotalTransactions)
	assert.Equal(t, "28000", report.Overview.TotalRevenue.String())
	require.Len(t, report.PaymentMethods, 1)
	assert.Equal(t, 1, report.PaymentMethods[0].Count)
	require.Len(t, report.CategorySales, 1)
	assert.Equal(t, 4, report.CategorySales[0].Quantity)
}

func TestStockReport_Turnover(t *testing.T) {
	e := newEngine(t)
	kopi := domain.Category{ID: uuid.New(), Name: "Kopi", Stock: 40, Price: decimal.NewFromInt(5000)}
	teh := domain.Category{ID: uuid.New(), Name: "Teh", Stock: 0, Price: decimal.NewFromInt(2000)}

	soldKopi := *helpers.CreateTestSaleItem(uuid.New(), "Kopi", 10, 5000)
	soldKopi.CategoryID = kopi.ID
	soldTeh := *helpers.CreateTestSaleItem(uuid.New(), "Teh", 3, 2000)
	soldTeh.CategoryID = teh.ID

	report := e.StockReport(context.Background(), aggregation.Input{
		Period:     mustPeriod(t, day(1), day(7)),
		Categories: []domain.Category{kopi, teh},
		SaleItems:  []domain.SaleLineItem{soldKopi, soldTeh},
	})

	require.Len(t, report.Categories, 2)
	assert.Equal(t, 0.25, report.Categories[0].TurnoverRate)
	assert.False(t, report.Categories[0].LowStock)
	assert.Equal(t, "200000", report.Categories[0].StockValue.String())
	assert.Equal(t, 0.0, report.Categories[1].TurnoverRate)
	assert.True(t, report.Categories[1].LowStock)
	assert.Equal(t, 1, report.LowStockCount)
	assert.Equal(t, 40, report.TotalStock)
}
