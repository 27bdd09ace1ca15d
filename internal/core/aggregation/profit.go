package aggregation

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/ammerola/kasir-be/internal/core/domain"
)

// CostOfGoods estimates COGS per category as subtotal x AssumedCostRatio.
// The purchase cost recorded for each category in the same window is
// reported next to it as a reference signal only; it does not feed the
// estimate. Items without a category still count toward the total.
func (e *Engine) CostOfGoods(items []domain.SaleLineItem, purchases []domain.PurchaseLineItem) domain.CostOfGoods {
	ratio := e.costRatio
	index := make(map[string]int)
	var rows []domain.CategoryCost

	row := func(name string) *domain.CategoryCost {
		idx, ok := index[name]
		if !ok {
			idx = len(rows)
			index[name] = idx
			rows = append(rows, domain.CategoryCost{
				Category:      name,
				SalesRevenue:  decimal.Zero,
				PurchaseCost:  decimal.Zero,
				EstimatedCOGS: decimal.Zero,
			})
		}
		return &rows[idx]
	}

	total := decimal.Zero
	for i := range items {
		cogs := items[i].Subtotal.Mul(ratio)
		total = total.Add(cogs)
		if items[i].CategoryName == "" {
			continue
		}
		r := row(items[i].CategoryName)
		r.SalesRevenue = r.SalesRevenue.Add(items[i].Subtotal)
		r.EstimatedCOGS = r.EstimatedCOGS.Add(cogs)
	}

	purchaseTotal := decimal.Zero
	for i := range purchases {
		purchaseTotal = purchaseTotal.Add(purchases[i].Subtotal)
		if purchases[i].CategoryName == "" {
			continue
		}
		// only categories that sold in the window carry a cost row
		if idx, ok := index[purchases[i].CategoryName]; ok {
			rows[idx].PurchaseCost = rows[idx].PurchaseCost.Add(purchases[i].Subtotal)
		}
	}

	for i := range rows {
		rows[i].SalesRevenue = money(rows[i].SalesRevenue)
		rows[i].PurchaseCost = money(rows[i].PurchaseCost)
		rows[i].EstimatedCOGS = money(rows[i].EstimatedCOGS)
	}
	if rows == nil {
		rows = []domain.CategoryCost{}
	}

	return domain.CostOfGoods{
		AssumedCostRatio:  ratio,
		TotalPurchaseCost: money(purchaseTotal),
		Total:             money(total),
		Categories:        rows,
	}
}

// TotalExpenses sums expense amounts
func TotalExpenses(expenses []domain.Expense) decimal.Decimal {
	total := decimal.Zero
	for i := range expenses {
		total = total.Add(expenses[i].Amount)
	}
	return total
}

// Profit derives gross, operating and net profit with zero-guarded margins
func Profit(netRevenue, cogs, expenses decimal.Decimal) domain.ProfitSummary {
	gross := netRevenue.Sub(cogs)
	operating := gross.Sub(expenses)
	net := operating

	return domain.ProfitSummary{
		NetRevenue:        money(netRevenue),
		TotalCOGS:         money(cogs),
		GrossProfit:       money(gross),
		GrossProfitMargin: percentOf(gross, netRevenue),
		TotalExpenses:     money(expenses),
		OperatingProfit:   money(operating),
		OperatingMargin:   percentOf(operating, netRevenue),
		NetProfit:         money(net),
		NetProfitMargin:   percentOf(net, netRevenue),
	}
}

// ExpenseBreakdown groups expenses by their effective category, highest
// amount first. Ties keep first-appearance order.
func ExpenseBreakdown(expenses []domain.Expense) []domain.ExpenseCategory {
	index := make(map[string]int)
	var rows []domain.ExpenseCategory
	total := decimal.Zero

	for i := range expenses {
		name := expenses[i].EffectiveCategory()
		idx, ok := index[name]
		if !ok {
			idx = len(rows)
			index[name] = idx
			rows = append(rows, domain.ExpenseCategory{Category: name, Amount: decimal.Zero})
		}
		rows[idx].Amount = rows[idx].Amount.Add(expenses[i].Amount)
		rows[idx].Count++
		total = total.Add(expenses[i].Amount)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Amount.GreaterThan(rows[j].Amount)
	})
	for i := range rows {
		rows[i].Percentage = percentOf(rows[i].Amount, total)
		rows[i].Amount = money(rows[i].Amount)
	}
	if rows == nil {
		rows = []domain.ExpenseCategory{}
	}
	return rows
}
