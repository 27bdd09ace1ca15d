// internal/core/domain/report.go
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReportKind identifies a report type
type ReportKind string

const (
	ReportSales      ReportKind = "sales"
	ReportProfitLoss ReportKind = "profit_loss"
	ReportExpenses   ReportKind = "expenses"
	ReportStock      ReportKind = "stock"
)

// IsValid reports whether the kind is known
func (k ReportKind) IsValid() bool {
	switch k {
	case ReportSales, ReportProfitLoss, ReportExpenses, ReportStock:
		return true
	}
	return false
}

// Overview holds the headline sales figures
type Overview struct {
	TotalRevenue      decimal.Decimal `json:"totalRevenue"`
	TotalDiscounts    decimal.Decimal `json:"totalDiscounts"`
	NetRevenue        decimal.Decimal `json:"netRevenue"`
	TotalTransactions int             `json:"totalTransactions"`
	TotalItems        int             `json:"totalItems"`
	AverageOrderValue decimal.Decimal `json:"averageOrderValue"`
	RevenueGrowth     float64         `json:"revenueGrowth"`
	TransactionGrowth float64         `json:"transactionGrowth"`
	ItemGrowth        float64         `json:"itemGrowth"`
}

// DailySales is one calendar-day bucket
type DailySales struct {
	Date             string          `json:"date"`
	Revenue          decimal.Decimal `json:"revenue"`
	TransactionCount int             `json:"transactionCount"`
}

// CategorySales is the per-category breakdown row
type CategorySales struct {
	Category         string          `json:"category"`
	Revenue          decimal.Decimal `json:"revenue"`
	Quantity         int             `json:"quantity"`
	TransactionCount int             `json:"transactionCount"`
	Percentage       float64         `json:"percentage"`
}

// PaymentMethodSales is the per-payment-method breakdown row
type PaymentMethodSales struct {
	Method     PaymentMethod   `json:"method"`
	Count      int             `json:"count"`
	Revenue    decimal.Decimal `json:"revenue"`
	Percentage float64         `json:"percentage"`
}

// RecentSale is a display row of the most recent sales
type RecentSale struct {
	ID            uuid.UUID       `json:"id"`
	CreatedAt     time.Time       `json:"createdAt"`
	Cashier       string          `json:"cashier"`
	Member        string          `json:"member,omitempty"`
	PaymentMethod PaymentMethod   `json:"paymentMethod"`
	TotalItems    int             `json:"totalItems"`
	Total         decimal.Decimal `json:"total"`
	Discount      decimal.Decimal `json:"discount"`
	Net           decimal.Decimal `json:"net"`
}

// SalesReport is the sales dashboard payload
type SalesReport struct {
	Period         PeriodView           `json:"period"`
	Overview       Overview             `json:"overview"`
	DailySales     []DailySales         `json:"dailySales"`
	CategorySales  []CategorySales      `json:"categorySales"`
	PaymentMethods []PaymentMethodSales `json:"paymentMethods"`
	TopCategories  []CategorySales      `json:"topCategories"`
	RecentSales    []RecentSale         `json:"recentSales"`
}

// CategoryCost pairs the estimated COGS of a category with the purchase
// cost recorded for it in the same window.
type CategoryCost struct {
	Category      string          `json:"category"`
	SalesRevenue  decimal.Decimal `json:"salesRevenue"`
	PurchaseCost  decimal.Decimal `json:"purchaseCost"`
	EstimatedCOGS decimal.Decimal `json:"estimatedCogs"`
}

// CostOfGoods is the COGS estimate for a window
type CostOfGoods struct {
	AssumedCostRatio  decimal.Decimal `json:"assumedCostRatio"`
	TotalPurchaseCost decimal.Decimal `json:"totalPurchaseCost"`
	Total             decimal.Decimal `json:"total"`
	Categories        []CategoryCost  `json:"categories"`
}

// ProfitSummary holds profit figures and their margins
type ProfitSummary struct {
	NetRevenue        decimal.Decimal `json:"netRevenue"`
	TotalCOGS         decimal.Decimal `json:"totalCogs"`
	GrossProfit       decimal.Decimal `json:"grossProfit"`
	GrossProfitMargin float64         `json:"grossProfitMargin"`
	TotalExpenses     decimal.Decimal `json:"totalExpenses"`
	OperatingProfit   decimal.Decimal `json:"operatingProfit"`
	OperatingMargin   float64         `json:"operatingMargin"`
	NetProfit         decimal.Decimal `json:"netProfit"`
	NetProfitMargin   float64         `json:"netProfitMargin"`
}

// ExpenseCategory is one row of the expense breakdown
type ExpenseCategory struct {
	Category   string          `json:"category"`
	Amount     decimal.Decimal `json:"amount"`
	Count      int             `json:"count"`
	Percentage float64         `json:"percentage"`
}

// RevenueSummary holds revenue totals for a window
type RevenueSummary struct {
	TotalRevenue      decimal.Decimal `json:"totalRevenue"`
	TotalDiscounts    decimal.Decimal `json:"totalDiscounts"`
	NetRevenue        decimal.Decimal `json:"netRevenue"`
	TotalTransactions int             `json:"totalTransactions"`
}

// ProfitGrowth compares a window to the preceding one
type ProfitGrowth struct {
	RevenueGrowth   float64 `json:"revenueGrowth"`
	NetProfitGrowth float64 `json:"netProfitGrowth"`
}

// ProfitLossReport is the profit and loss statement for a window
type ProfitLossReport struct {
	Period      PeriodView        `json:"period"`
	Revenue     RevenueSummary    `json:"revenue"`
	CostOfGoods CostOfGoods       `json:"costOfGoods"`
	Expenses    []ExpenseCategory `json:"expenses"`
	Profit      ProfitSummary     `json:"profit"`
	Growth      ProfitGrowth      `json:"growth"`
}

// ExpenseReport is the expense breakdown for a window
type ExpenseReport struct {
	Period        PeriodView        `json:"period"`
	TotalExpenses decimal.Decimal   `json:"totalExpenses"`
	Count         int               `json:"count"`
	Categories    []ExpenseCategory `json:"categories"`
}

// CategoryStock is one row of the stock report
type CategoryStock struct {
	CategoryID        uuid.UUID       `json:"categoryId"`
	Category          string          `json:"category"`
	Stock             int             `json:"stock"`
	Price             decimal.Decimal `json:"price"`
	StockValue        decimal.Decimal `json:"stockValue"`
	SoldQuantity      int             `json:"soldQuantity"`
	PurchasedQuantity int             `json:"purchasedQuantity"`
	TurnoverRate      float64         `json:"turnoverRate"`
	LowStock          bool            `json:"lowStock"`
}

// StockReport lists stock levels with movement over a window
type StockReport struct {
	Period          PeriodView      `json:"period"`
	TotalStock      int             `json:"totalStock"`
	TotalStockValue decimal.Decimal `json:"totalStockValue"`
	LowStockCount   int             `json:"lowStockCount"`
	Categories      []CategoryStock `json:"categories"`
}
