// internal/handlers/export_test.go
package handlers_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ammerola/kasir-be/internal/core/domain"
	"github.com/ammerola/kasir-be/internal/core/ports"
	"github.com/ammerola/kasir-be/internal/export"
	"github.com/ammerola/kasir-be/internal/handlers"
	"github.com/ammerola/kasir-be/test/helpers"
	"github.com/ammerola/kasir-be/test/mocks"
)

func exportRequest(kind, query string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/reports/"+kind+"/export"+query, nil)
	req.SetPathValue("kind", kind)
	return req
}

func TestExportHandler_ExportReport(t *testing.T) {
	period := marchPeriod(t)
	report := &domain.SalesReport{Period: period.View()}

	t.Run("renders_and_caches_on_miss", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		mockService := mocks.NewMockReportService(ctrl)
		cache, mr := newTestCache(t)

		mockService.EXPECT().ResolvePeriod("2024-03-01", "2024-03-31").Return(period, nil)
		mockService.EXPECT().
			SalesReport(gomock.Any(), ports.ReportQuery{StartDate: "2024-03-01", EndDate: "2024-03-31"}).
			Return(report, nil)

		handler := handlers.NewExportHandler(mockService, cache, helpers.TestLogger())
		rec := httptest.NewRecorder()
		handler.ExportReport(rec, exportRequest("sales", "?format=pdf&startDate=2024-03-01&endDate=2024-03-31"))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, export.ContentTypePDF, rec.Header().Get("Content-Type"))
		assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
		assert.Equal(t, `attachment; filename="sales_report_2024-03-01_2024-03-31.pdf"`, rec.Header().Get("Content-Disposition"))
		assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF-")))

		helpers.AssertEventuallyWithTimeout(t, func() bool {
			return mr.Exists("export:pdf:report:sales:2024-03-01:2024-03-31:all")
		}, 2*time.Second, "rendered export should be cached")
	})

	t.Run("serves_cached_json", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		mockService := mocks.NewMockReportService(ctrl)
		cache, _ := newTestCache(t)

		require.NoError(t, cache.Set(context.Background(),
			"export:json:report:sales:2024-03-01:2024-03-31:all", []byte(`{"cached":true}`)))
		mockService.EXPECT().ResolvePeriod("2024-03-01", "2024-03-31").Return(period, nil)

		handler := handlers.NewExportHandler(mockService, cache, helpers.TestLogger())
		rec := httptest.NewRecorder()
		handler.ExportReport(rec, exportRequest("sales", "?format=json&startDate=2024-03-01&endDate=2024-03-31"))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))
		assert.Equal(t, export.ContentTypeJSON, rec.Header().Get("Content-Type"))
		assert.JSONEq(t, `{"cached":true}`, rec.Body.String())
	})

	t.Run("defaults_to_xlsx_without_cache", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		mockService := mocks.NewMockReportService(ctrl)

		mockService.EXPECT().ResolvePeriod("", "").Return(period, nil)
		mockService.EXPECT().StockReport(gomock.Any(), gomock.Any()).Return(&domain.StockReport{Period: period.View()}, nil)

		handler := handlers.NewExportHandler(mockService, nil, helpers.TestLogger())
		rec := httptest.NewRecorder()
		handler.ExportReport(rec, exportRequest("stock", ""))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, export.ContentTypeExcel, rec.Header().Get("Content-Type"))
		assert.True(t, strings.HasSuffix(rec.Header().Get("Content-Disposition"), `.xlsx"`))
	})

	t.Run("unknown_report_kind", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		handler := handlers.NewExportHandler(mocks.NewMockReportService(ctrl), nil, helpers.TestLogger())

		rec := httptest.NewRecorder()
		handler.ExportReport(rec, exportRequest("inventory", ""))

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("unsupported_format", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		handler := handlers.NewExportHandler(mocks.NewMockReportService(ctrl), nil, helpers.TestLogger())

		rec := httptest.NewRecorder()
		handler.ExportReport(rec, exportRequest("sales", "?format=csv"))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, errorMessage(t, rec), "format")
	})

	t.Run("store_failure", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		mockService := mocks.NewMockReportService(ctrl)

		mockService.EXPECT().ResolvePeriod(gomock.Any(), gomock.Any()).Return(period, nil)
		mockService.EXPECT().SalesReport(gomock.Any(), gomock.Any()).Return(nil, domain.ErrDataSourceUnavailable)

		handler := handlers.NewExportHandler(mockService, nil, helpers.TestLogger())
		rec := httptest.NewRecorder()
		handler.ExportReport(rec, exportRequest("sales", "?format=xlsx"))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "failed to fetch report data", errorMessage(t, rec))
	})
}
