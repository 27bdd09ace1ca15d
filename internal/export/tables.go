// internal/export/tables.go
package export

import (
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/ammerola/kasir-be/internal/core/domain"
)

const (
	dateTimeLayout = "2006-01-02 15:04"
	sectionDaily   = "Daily Sales"
	sectionTop     = "Top Categories"
	sectionRecent  = "Recent Sales"
)

// KeyValue is one line of a summary table
type KeyValue struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// SaleRow is a flattened recent sale
type SaleRow struct {
	ID            string `json:"id"`
	Date          string `json:"date"`
	Cashier       string `json:"cashier"`
	Member        string `json:"member,omitempty"`
	PaymentMethod string `json:"paymentMethod"`
	Items         int    `json:"items"`
	Total         string `json:"total"`
	Discount      string `json:"discount"`
	Net           string `json:"net"`
}

// TopRow is a ranked category
type TopRow struct {
	Rank         int    `json:"rank"`
	Category     string `json:"category"`
	Revenue      string `json:"revenue"`
	Quantity     int    `json:"quantity"`
	Transactions int    `json:"transactions"`
	Percentage   string `json:"percentage"`
}

// DailyRow is one day of the daily series
type DailyRow struct {
	Date         string `json:"date"`
	Revenue      string `json:"revenue"`
	Transactions int    `json:"transactions"`
}

// Section is a titled table with a header row
type Section struct {
	Title  string     `json:"title"`
	Header []string   `json:"header"`
	Rows   [][]string `json:"rows"`
}

// Tables is a report flattened for rendering. Values are direct
// projections of the report; nothing is recomputed here.
type Tables struct {
	Kind      domain.ReportKind `json:"kind"`
	Title     string            `json:"title"`
	Period    domain.PeriodView `json:"period"`
	Summary   []KeyValue        `json:"summary"`
	DailyRows []DailyRow        `json:"dailyRows,omitempty"`
	TopRows   []TopRow          `json:"topRows,omitempty"`
	SalesRows []SaleRow         `json:"salesRows,omitempty"`
	Extra     []Section         `json:"sections,omitempty"`
}

// BuildTables flattens a sales report
func BuildTables(report *domain.SalesReport) Tables {
	o := report.Overview
	t := Tables{
		Kind:   domain.ReportSales,
		Title:  "Sales Report",
		Period: report.Period,
		Summary: []KeyValue{
			{"Total Revenue", amount(o.TotalRevenue)},
			{"Total Discounts", amount(o.TotalDiscounts)},
			{"Net Revenue", amount(o.NetRevenue)},
			{"Transactions", strconv.Itoa(o.TotalTransactions)},
			{"Items Sold", strconv.Itoa(o.TotalItems)},
			{"Average Order Value", amount(o.AverageOrderValue)},
			{"Revenue Growth", percent(o.RevenueGrowth)},
			{"Transaction Growth", percent(o.TransactionGrowth)},
			{"Item Growth", percent(o.ItemGrowth)},
		},
	}

	for _, d := range report.DailySales {
		t.DailyRows = append(t.DailyRows, DailyRow{
			Date:         d.Date,
			Revenue:      amount(d.Revenue),
			Transactions: d.TransactionCount,
		})
	}
	for i, c := range report.TopCategories {
		t.TopRows = append(t.TopRows, TopRow{
			Rank:         i + 1,
			Category:     c.Category,
			Revenue:      amount(c.Revenue),
			Quantity:     c.Quantity,
			Transactions: c.TransactionCount,
			Percentage:   percent(c.Percentage),
		})
	}
	for _, s := range report.RecentSales {
		t.SalesRows = append(t.SalesRows, SaleRow{
			ID:            s.ID.String(),
			Date:          s.CreatedAt.Format(dateTimeLayout),
			Cashier:       s.Cashier,
			Member:        s.Member,
			PaymentMethod: string(s.PaymentMethod),
			Items:         s.TotalItems,
			Total:         amount(s.Total),
			Discount:      amount(s.Discount),
			Net:           amount(s.Net),
		})
	}

	return t
}

// BuildProfitLossTables flattens a profit and loss statement
func BuildProfitLossTables(report *domain.ProfitLossReport) Tables {
	p := report.Profit
	t := Tables{
		Kind:   domain.ReportProfitLoss,
		Title:  "Profit & Loss",
		Period: report.Period,
		Summary: []KeyValue{
			{"Gross Revenue", amount(report.Revenue.TotalRevenue)},
			{"Discounts", amount(report.Revenue.TotalDiscounts)},
			{"Net Revenue", amount(p.NetRevenue)},
			{"Cost of Goods Sold", amount(p.TotalCOGS)},
			{"Gross Profit", amount(p.GrossProfit)},
			{"Gross Margin", percent(p.GrossProfitMargin)},
			{"Operating Expenses", amount(p.TotalExpenses)},
			{"Operating Profit", amount(p.OperatingProfit)},
			{"Net Profit", amount(p.NetProfit)},
			{"Net Margin", percent(p.NetProfitMargin)},
			{"Revenue Growth", percent(report.Growth.RevenueGrowth)},
			{"Net Profit Growth", percent(report.Growth.NetProfitGrowth)},
		},
	}

	cogs := Section{
		Title:  "Cost of Goods",
		Header: []string{"Category", "Sales Revenue", "Purchase Cost", "Estimated COGS"},
	}
	for _, c := range report.CostOfGoods.Categories {
		cogs.Rows = append(cogs.Rows, []string{
			c.Category, amount(c.SalesRevenue), amount(c.PurchaseCost), amount(c.EstimatedCOGS),
		})
	}
	t.Extra = append(t.Extra, cogs, expenseSection(report.Expenses))

	return t
}

// BuildExpenseTables flattens an expense breakdown
func BuildExpenseTables(report *domain.ExpenseReport) Tables {
	return Tables{
		Kind:   domain.ReportExpenses,
		Title:  "Expense Report",
		Period: report.Period,
		Summary: []KeyValue{
			{"Total Expenses", amount(report.TotalExpenses)},
			{"Entries", strconv.Itoa(report.Count)},
			{"Categories", strconv.Itoa(len(report.Categories))},
		},
		Extra: []Section{expenseSection(report.Categories)},
	}
}

// BuildStockTables flattens a stock report
func BuildStockTables(report *domain.StockReport) Tables {
	section := Section{
		Title:  "Stock Levels",
		Header: []string{"Category", "Stock", "Price", "Stock Value", "Sold", "Purchased", "Turnover", "Low Stock"},
	}
	for _, c := range report.Categories {
		low := ""
		if c.LowStock {
			low = "yes"
		}
		section.Rows = append(section.Rows, []string{
			c.Category,
			strconv.Itoa(c.Stock),
			amount(c.Price),
			amount(c.StockValue),
			strconv.Itoa(c.SoldQuantity),
			strconv.Itoa(c.PurchasedQuantity),
			strconv.FormatFloat(c.TurnoverRate, 'f', 2, 64),
			low,
		})
	}

	return Tables{
		Kind:   domain.ReportStock,
		Title:  "Stock Report",
		Period: report.Period,
		Summary: []KeyValue{
			{"Total Stock", strconv.Itoa(report.TotalStock)},
			{"Total Stock Value", amount(report.TotalStockValue)},
			{"Low Stock Categories", strconv.Itoa(report.LowStockCount)},
		},
		Extra: []Section{section},
	}
}

// FromReport flattens any of the report payloads
func FromReport(report any) (Tables, error) {
	switch r := report.(type) {
	case *domain.SalesReport:
		return BuildTables(r), nil
	case *domain.ProfitLossReport:
		return BuildProfitLossTables(r), nil
	case *domain.ExpenseReport:
		return BuildExpenseTables(r), nil
	case *domain.StockReport:
		return BuildStockTables(r), nil
	default:
		return Tables{}, fmt.Errorf("unsupported report type %T", report)
	}
}

// Sections returns every table after the summary in rendering order
func (t Tables) Sections() []Section {
	var sections []Section

	if len(t.DailyRows) > 0 {
		s := Section{Title: sectionDaily, Header: []string{"Date", "Revenue", "Transactions"}}
		for _, d := range t.DailyRows {
			s.Rows = append(s.Rows, []string{d.Date, d.Revenue, strconv.Itoa(d.Transactions)})
		}
		sections = append(sections, s)
	}
	if len(t.TopRows) > 0 {
		s := Section{Title: sectionTop, Header: []string{"#", "Category", "Revenue", "Quantity", "Transactions", "Share"}}
		for _, r := range t.TopRows {
			s.Rows = append(s.Rows, []string{
				strconv.Itoa(r.Rank), r.Category, r.Revenue,
				strconv.Itoa(r.Quantity), strconv.Itoa(r.Transactions), r.Percentage,
			})
		}
		sections = append(sections, s)
	}
	if t.Kind == domain.ReportSales {
		s := Section{Title: sectionRecent, Header: []string{"Date", "Cashier", "Member", "Payment", "Items", "Total", "Discount", "Net"}}
		for _, r := range t.SalesRows {
			s.Rows = append(s.Rows, []string{
				r.Date, r.Cashier, r.Member, r.PaymentMethod,
				strconv.Itoa(r.Items), r.Total, r.Discount, r.Net,
			})
		}
		sections = append(sections, s)
	}

	return append(sections, t.Extra...)
}

func expenseSection(rows []domain.ExpenseCategory) Section {
	s := Section{Title: "Expenses", Header: []string{"Category", "Amount", "Entries", "Share"}}
	for _, e := range rows {
		s.Rows = append(s.Rows, []string{e.Category, amount(e.Amount), strconv.Itoa(e.Count), percent(e.Percentage)})
	}
	return s
}

func amount(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func percent(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64) + "%"
}
