// internal/core/ports/report_service.go
package ports

import (
	"context"

	"github.com/ammerola/kasir-be/internal/core/domain"
)

// ReportQuery carries the caller's report request. Dates are ISO-8601
// calendar dates; empty values fall back to the default range.
type ReportQuery struct {
	StartDate     string               `json:"startDate,omitempty"`
	EndDate       string               `json:"endDate,omitempty"`
	Continuous    bool                 `json:"continuous,omitempty"`
	PaymentMethod domain.PaymentMethod `json:"paymentMethod,omitempty"`
}

// ReportService builds reports over a date range
type ReportService interface {
	ResolvePeriod(startDate, endDate string) (domain.Period, error)
	SalesReport(ctx context.Context, q ReportQuery) (*domain.SalesReport, error)
	ProfitLoss(ctx context.Context, q ReportQuery) (*domain.ProfitLossReport, error)
	ExpenseReport(ctx context.Context, q ReportQuery) (*domain.ExpenseReport, error)
	StockReport(ctx context.Context, q ReportQuery) (*domain.StockReport, error)
	Invalidate(ctx context.Context) error
}
