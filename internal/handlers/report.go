// internal/handlers/report.go
package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/ammerola/kasir-be/internal/core/ports"
)

// ReportHandler serves the report endpoints
type ReportHandler struct {
	responder
	reports ports.ReportService
}

// NewReportHandler creates a new report handler
func NewReportHandler(reports ports.ReportService, logger *slog.Logger) *ReportHandler {
	return &ReportHandler{
		responder: responder{logger: logger.With(slog.String("handler", "report"))},
		reports:   reports,
	}
}

// GetSales handles GET /api/v1/reports/sales
func (h *ReportHandler) GetSales(w http.ResponseWriter, r *http.Request) {
	serveReport(h, w, r, "sales report", h.reports.SalesReport)
}

// GetProfitLoss handles GET /api/v1/reports/profit-loss
func (h *ReportHandler) GetProfitLoss(w http.ResponseWriter, r *http.Request) {
	serveReport(h, w, r, "profit and loss report", h.reports.ProfitLoss)
}

// GetExpenses handles GET /api/v1/reports/expenses
func (h *ReportHandler) GetExpenses(w http.ResponseWriter, r *http.Request) {
	serveReport(h, w, r, "expense report", h.reports.ExpenseReport)
}

// GetStock handles GET /api/v1/reports/stock
func (h *ReportHandler) GetStock(w http.ResponseWriter, r *http.Request) {
	serveReport(h, w, r, "stock report", h.reports.StockReport)
}

func serveReport[T any](h *ReportHandler, w http.ResponseWriter, r *http.Request, op string,
	build func(context.Context, ports.ReportQuery) (*T, error)) {
	ctx := r.Context()

	params, err := parseReportParams(r)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	report, err := build(ctx, params.Query())
	if err != nil {
		h.respondServiceError(ctx, w, err, op)
		return
	}

	w.Header().Set("Cache-Control", "private, max-age=60")
	h.respondJSON(w, http.StatusOK, report)
}
