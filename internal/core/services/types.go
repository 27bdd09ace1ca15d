// internal/core/services/types.go
package services

import (
	"time"

	"github.com/ammerola/kasir-be/internal/core/domain"
)

// ReportSettings controls range resolution and caching of reports
type ReportSettings struct {
	Location         *time.Location
	DefaultRangeDays int
	MaxRangeDays     int
	CacheTTL         time.Duration
}

// DefaultReportSettings returns a 30 day default window, a one year cap and
// a two minute cache.
func DefaultReportSettings() ReportSettings {
	return ReportSettings{
		Location:         time.Local,
		DefaultRangeDays: 30,
		MaxRangeDays:     366,
		CacheTTL:         2 * time.Minute,
	}
}

// dataset selects which record sets a report reads from the store
type dataset uint8

const (
	needSales dataset = 1 << iota
	needSaleItems
	needPurchaseItems
	needExpenses
	needCategories
)

func (d dataset) has(flag dataset) bool {
	return d&flag != 0
}

// reportPlan names the record sets read for the current and the previous
// window. A zero previous plan skips the previous window.
type reportPlan struct {
	kind     domain.ReportKind
	current  dataset
	previous dataset
}

var (
	salesPlan = reportPlan{
		kind:     domain.ReportSales,
		current:  needSales | needSaleItems,
		previous: needSales,
	}
	profitLossPlan = reportPlan{
		kind:     domain.ReportProfitLoss,
		current:  needSales | needSaleItems | needPurchaseItems | needExpenses,
		previous: needSales | needSaleItems | needPurchaseItems | needExpenses,
	}
	expensePlan = reportPlan{
		kind:    domain.ReportExpenses,
		current: needExpenses,
	}
	stockPlan = reportPlan{
		kind:    domain.ReportStock,
		current: needCategories | needSaleItems | needPurchaseItems,
	}
)
