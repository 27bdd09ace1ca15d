package aggregation

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ammerola/kasir-be/internal/core/domain"
)

// RevenueTotals are the summed sale figures of a window
type RevenueTotals struct {
	TotalRevenue   decimal.Decimal
	TotalDiscounts decimal.Decimal
	NetRevenue     decimal.Decimal
	Transactions   int
	Items          int
}

// ValidSales drops malformed sales, logging each one
func (e *Engine) ValidSales(ctx context.Context, sales []domain.Sale) []domain.Sale {
	valid := make([]domain.Sale, 0, len(sales))
	for i := range sales {
		if err := sales[i].Validate(); err != nil {
			e.warnSkipped(ctx, "sale", sales[i].ID.String(), err)
			continue
		}
		valid = append(valid, sales[i])
	}
	return valid
}

// ValidSaleItems drops malformed sale line items, logging each one
func (e *Engine) ValidSaleItems(ctx context.Context, items []domain.SaleLineItem) []domain.SaleLineItem {
	valid := make([]domain.SaleLineItem, 0, len(items))
	for i := range items {
		if err := items[i].Validate(); err != nil {
			e.warnSkipped(ctx, "sale_item", items[i].ID.String(), err)
			continue
		}
		valid = append(valid, items[i])
	}
	return valid
}

// ValidPurchaseItems drops malformed purchase line items, logging each one
func (e *Engine) ValidPurchaseItems(ctx context.Context, items []domain.PurchaseLineItem) []domain.PurchaseLineItem {
	valid := make([]domain.PurchaseLineItem, 0, len(items))
	for i := range items {
		if err := items[i].Validate(); err != nil {
			e.warnSkipped(ctx, "purchase_item", items[i].ID.String(), err)
			continue
		}
		valid = append(valid, items[i])
	}
	return valid
}

// ValidExpenses drops malformed expenses, logging each one
func (e *Engine) ValidExpenses(ctx context.Context, expenses []domain.Expense) []domain.Expense {
	valid := make([]domain.Expense, 0, len(expenses))
	for i := range expenses {
		if err := expenses[i].Validate(); err != nil {
			e.warnSkipped(ctx, "expense", expenses[i].ID.String(), err)
			continue
		}
		valid = append(valid, expenses[i])
	}
	return valid
}

// Totals sums revenue, resolved discounts, transactions and items.
// Discounts are rounded per sale so NetRevenue subtracts exactly.
// Sales must already be validated.
func Totals(sales []domain.Sale) RevenueTotals {
	t := RevenueTotals{
		TotalRevenue:   decimal.Zero,
		TotalDiscounts: decimal.Zero,
	}
	for i := range sales {
		t.TotalRevenue = t.TotalRevenue.Add(sales[i].TotalAmount)
		t.TotalDiscounts = t.TotalDiscounts.Add(sales[i].DiscountAmount())
		t.Transactions++
		t.Items += sales[i].TotalItems
	}
	t.NetRevenue = t.TotalRevenue.Sub(t.TotalDiscounts)
	return t
}

// DailySales buckets sales by calendar date in the engine's location.
// With continuous set, every date of the period is present, zero-filled.
// The result is ascending by date.
func (e *Engine) DailySales(period domain.Period, sales []domain.Sale, continuous bool) []domain.DailySales {
	buckets := make(map[string]*domain.DailySales)
	for i := range sales {
		key := sales[i].CreatedAt.In(e.opts.Location).Format(domain.DateLayout)
		b, ok := buckets[key]
		if !ok {
			b = &domain.DailySales{Date: key, Revenue: decimal.Zero}
			buckets[key] = b
		}
		b.Revenue = b.Revenue.Add(sales[i].TotalAmount)
		b.TransactionCount++
	}

	var out []domain.DailySales
	if continuous {
		for _, day := range period.Days() {
			key := day.In(e.opts.Location).Format(domain.DateLayout)
			if b, ok := buckets[key]; ok {
				out = append(out, *b)
				continue
			}
			out = append(out, domain.DailySales{Date: key, Revenue: decimal.Zero})
		}
	} else {
		keys := make([]string, 0, len(buckets))
		for k := range buckets {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			out = append(out, *buckets[k])
		}
	}

	for i := range out {
		out[i].Revenue = money(out[i].Revenue)
	}
	if out == nil {
		out = []domain.DailySales{}
	}
	return out
}

// CategorySales groups line items by category name in first-appearance
// order. Items without a category are left out.
func (e *Engine) CategorySales(ctx context.Context, items []domain.SaleLineItem, netRevenue decimal.Decimal) []domain.CategorySales {
	type acc struct {
		row   domain.CategorySales
		sales map[uuid.UUID]struct{}
	}
	index := make(map[string]int)
	var rows []*acc

	for i := range items {
		name := items[i].CategoryName
		if name == "" {
			e.logger.WarnContext(ctx, "sale item without category excluded from breakdown",
				"item_id", items[i].ID.String(), "sale_id", items[i].SaleID.String())
			continue
		}
		idx, ok := index[name]
		if !ok {
			idx = len(rows)
			index[name] = idx
			rows = append(rows, &acc{
				row:   domain.CategorySales{Category: name, Revenue: decimal.Zero},
				sales: make(map[uuid.UUID]struct{}),
			})
		}
		a := rows[idx]
		a.row.Revenue = a.row.Revenue.Add(items[i].Subtotal)
		a.row.Quantity += items[i].Quantity
		a.sales[items[i].SaleID] = struct{}{}
	}

	out := make([]domain.CategorySales, 0, len(rows))
	for _, a := range rows {
		a.row.TransactionCount = len(a.sales)
		a.row.Percentage = percentOf(a.row.Revenue, netRevenue)
		a.row.Revenue = money(a.row.Revenue)
		out = append(out, a.row)
	}
	return out
}

// PaymentMethods groups sales by payment method in first-appearance order.
// Percentages are shares of the sales listed in the breakdown, so a sale
// with an unknown method still counts toward revenue but not toward the
// shares. They are zero when there is no net revenue.
func (e *Engine) PaymentMethods(ctx context.Context, sales []domain.Sale, totals RevenueTotals) []domain.PaymentMethodSales {
	index := make(map[domain.PaymentMethod]int)
	var out []domain.PaymentMethodSales

	for i := range sales {
		method := sales[i].PaymentMethod
		if !method.IsValid() {
			e.logger.WarnContext(ctx, "sale with unknown payment method excluded from breakdown",
				"sale_id", sales[i].ID.String(), "payment_method", string(method))
			continue
		}
		idx, ok := index[method]
		if !ok {
			idx = len(out)
			index[method] = idx
			out = append(out, domain.PaymentMethodSales{Method: method, Revenue: decimal.Zero})
		}
		out[idx].Count++
		out[idx].Revenue = out[idx].Revenue.Add(sales[i].TotalAmount)
	}

	listed := 0
	for i := range out {
		listed += out[i].Count
	}
	txns := decimal.NewFromInt(int64(listed))
	for i := range out {
		if totals.NetRevenue.IsZero() {
			out[i].Percentage = 0
		} else {
			out[i].Percentage = percentOf(decimal.NewFromInt(int64(out[i].Count)), txns)
		}
		out[i].Revenue = money(out[i].Revenue)
	}
	if out == nil {
		out = []domain.PaymentMethodSales{}
	}
	return out
}

// TopCategories returns the n highest-revenue rows. The sort is stable so
// ties keep their input order.
func TopCategories(rows []domain.CategorySales, n int) []domain.CategorySales {
	sorted := make([]domain.CategorySales, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Revenue.GreaterThan(sorted[j].Revenue)
	})
	if n > 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// RecentSales returns up to n sales, newest first
func RecentSales(sales []domain.Sale, n int) []domain.RecentSale {
	sorted := make([]domain.Sale, len(sales))
	copy(sorted, sales)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})
	if n > 0 && len(sorted) > n {
		sorted = sorted[:n]
	}

	out := make([]domain.RecentSale, 0, len(sorted))
	for i := range sorted {
		s := &sorted[i]
		out = append(out, domain.RecentSale{
			ID:            s.ID,
			CreatedAt:     s.CreatedAt,
			Cashier:       s.CashierName,
			Member:        s.MemberName,
			PaymentMethod: s.PaymentMethod,
			TotalItems:    s.TotalItems,
			Total:         money(s.TotalAmount),
			Discount:      money(s.DiscountAmount()),
			Net:           netOf(s.TotalAmount, s.DiscountAmount()),
		})
	}
	return out
}

// Overview assembles the headline figures with growth against prev
func Overview(cur, prev RevenueTotals) domain.Overview {
	aov := decimal.Zero
	if cur.Transactions > 0 {
		aov = cur.TotalRevenue.Div(decimal.NewFromInt(int64(cur.Transactions)))
	}
	return domain.Overview{
		TotalRevenue:      money(cur.TotalRevenue),
		TotalDiscounts:    money(cur.TotalDiscounts),
		NetRevenue:        netOf(cur.TotalRevenue, cur.TotalDiscounts),
		TotalTransactions: cur.Transactions,
		TotalItems:        cur.Items,
		AverageOrderValue: money(aov),
		RevenueGrowth:     Growth(cur.TotalRevenue, prev.TotalRevenue),
		TransactionGrowth: Growth(decimal.NewFromInt(int64(cur.Transactions)), decimal.NewFromInt(int64(prev.Transactions))),
		ItemGrowth:        Growth(decimal.NewFromInt(int64(cur.Items)), decimal.NewFromInt(int64(prev.Items))),
	}
}
