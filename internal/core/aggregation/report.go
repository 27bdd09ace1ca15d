package aggregation

import (
	"context"

	"github.com/ammerola/kasir-be/internal/core/domain"
)

// Input is the record set of one window. Records are expected to already
// fall inside Period; the engine does not filter by time.
type Input struct {
	Period        domain.Period
	Sales         []domain.Sale
	SaleItems     []domain.SaleLineItem
	PurchaseItems []domain.PurchaseLineItem
	Expenses      []domain.Expense
	Categories    []domain.Category
}

// SalesOptions tunes the sales report
type SalesOptions struct {
	// Continuous backfills zero-revenue days in the daily series
	Continuous bool
}

// SalesReport builds the sales dashboard for cur, computing growth against
// prev. Only prev.Sales is read.
func (e *Engine) SalesReport(ctx context.Context, cur, prev Input, opts SalesOptions) domain.SalesReport {
	sales := e.ValidSales(ctx, cur.Sales)
	items := e.ValidSaleItems(ctx, cur.SaleItems)
	totals := Totals(sales)
	prevTotals := Totals(e.ValidSales(ctx, prev.Sales))

	categories := e.CategorySales(ctx, items, totals.NetRevenue)

	return domain.SalesReport{
		Period:         cur.Period.View(),
		Overview:       Overview(totals, prevTotals),
		DailySales:     e.DailySales(cur.Period, sales, opts.Continuous),
		CategorySales:  categories,
		PaymentMethods: e.PaymentMethods(ctx, sales, totals),
		TopCategories:  TopCategories(categories, e.opts.TopN),
		RecentSales:    RecentSales(sales, e.opts.RecentLimit),
	}
}

// ProfitLoss builds the profit and loss statement for cur. prev is used
// for revenue and net profit growth.
func (e *Engine) ProfitLoss(ctx context.Context, cur, prev Input) domain.ProfitLossReport {
	curSummary, curCOGS, curExpenses, curTotals := e.profitOf(ctx, cur)
	prevSummary, _, _, prevTotals := e.profitOf(ctx, prev)

	return domain.ProfitLossReport{
		Period: cur.Period.View(),
		Revenue: domain.RevenueSummary{
			TotalRevenue:      money(curTotals.TotalRevenue),
			TotalDiscounts:    money(curTotals.TotalDiscounts),
			NetRevenue:        netOf(curTotals.TotalRevenue, curTotals.TotalDiscounts),
			TotalTransactions: curTotals.Transactions,
		},
		CostOfGoods: curCOGS,
		Expenses:    ExpenseBreakdown(curExpenses),
		Profit:      curSummary,
		Growth: domain.ProfitGrowth{
			RevenueGrowth:   Growth(curTotals.TotalRevenue, prevTotals.TotalRevenue),
			NetProfitGrowth: Growth(curSummary.NetProfit, prevSummary.NetProfit),
		},
	}
}

func (e *Engine) profitOf(ctx context.Context, in Input) (domain.ProfitSummary, domain.CostOfGoods, []domain.Expense, RevenueTotals) {
	sales := e.ValidSales(ctx, in.Sales)
	items := e.ValidSaleItems(ctx, in.SaleItems)
	purchases := e.ValidPurchaseItems(ctx, in.PurchaseItems)
	expenses := e.ValidExpenses(ctx, in.Expenses)

	totals := Totals(sales)
	cogs := e.CostOfGoods(items, purchases)
	summary := Profit(totals.NetRevenue, cogs.Total, TotalExpenses(expenses))
	return summary, cogs, expenses, totals
}

// ExpenseReport builds the expense breakdown for a window
func (e *Engine) ExpenseReport(ctx context.Context, in Input) domain.ExpenseReport {
	expenses := e.ValidExpenses(ctx, in.Expenses)
	return domain.ExpenseReport{
		Period:        in.Period.View(),
		TotalExpenses: money(TotalExpenses(expenses)),
		Count:         len(expenses),
		Categories:    ExpenseBreakdown(expenses),
	}
}

// StockReport builds the stock report from in.Categories and the window's
// sale and purchase lines.
func (e *Engine) StockReport(ctx context.Context, in Input) domain.StockReport {
	items := e.ValidSaleItems(ctx, in.SaleItems)
	purchases := e.ValidPurchaseItems(ctx, in.PurchaseItems)

	rows, stock, value, low := e.StockLevels(in.Categories, items, purchases)
	return domain.StockReport{
		Period:          in.Period.View(),
		TotalStock:      stock,
		TotalStockValue: value,
		LowStockCount:   low,
		Categories:      rows,
	}
}
