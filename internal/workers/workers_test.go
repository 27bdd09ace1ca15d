// internal/workers/workers_test.go
package workers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v3"

	"github.com/ammerola/kasir-be/internal/adapters/memory"
	redis_a "github.com/ammerola/kasir-be/internal/adapters/redis_adapter"
	"github.com/ammerola/kasir-be/internal/adapters/storage"
	"github.com/ammerola/kasir-be/internal/core/aggregation"
	"github.com/ammerola/kasir-be/internal/core/domain"
	"github.com/ammerola/kasir-be/internal/core/ports"
	"github.com/ammerola/kasir-be/internal/core/services"
	"github.com/ammerola/kasir-be/internal/workers"
	"github.com/ammerola/kasir-be/test/helpers"
)

type harness struct {
	store   *memory.Store
	cache   *redis_a.Cache
	reports *services.ReportService
	storage *storage.LocalStorage
	jobs    *redis_a.JobStore
	locker  *redis_a.Locker
	redis   *miniredis.Miniredis
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	logger := helpers.TestLogger()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	cache := redis_a.NewCache(client, time.Minute, logger)

	local, err := storage.NewLocalStorage(t.TempDir(), logger)
	require.NoError(t, err)

	store := memory.NewStore()
	settings := services.DefaultReportSettings()
	settings.Location = time.UTC
	engine := aggregation.NewEngine(aggregation.Options{Location: time.UTC}, logger)

	return &harness{
		store:   store,
		cache:   cache,
		reports: services.NewReportService(store, cache, engine, settings, logger),
		storage: local,
		jobs:    redis_a.NewJobStore(cache, time.Hour),
		locker:  redis_a.NewLocker(client, logger),
		redis:   mr,
	}
}

func (h *harness) seedSales(t *testing.T) {
	t.Helper()
	ctx := context.Background()

	category := helpers.CreateTestCategory()
	require.NoError(t, h.store.UpsertCategory(ctx, category))

	for day := 1; day <= 3; day++ {
		sale := helpers.CreateTestSale(func(s *domain.Sale) {
			s.CreatedAt = time.Date(2024, time.March, day, 10, 0, 0, 0, time.UTC)
			s.TotalAmount = decimal.NewFromInt(24000)
			s.TotalItems = 2
			s.Items = []domain.SaleLineItem{{CategoryID: category.ID, UnitPrice: category.Price, Quantity: 2}}
		})
		require.NoError(t, h.store.CreateSale(ctx, sale))
	}
}

func exportTask(t *testing.T, p workers.ExportPayload) *asynq.Task {
	t.Helper()
	task, err := workers.NewExportTask(p, 3)
	require.NoError(t, err)
	return task
}

func TestExportProcessor_ProcessExport(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.seedSales(t)

	processor := workers.NewExportProcessor(h.reports, h.storage, h.jobs, h.locker, "exports", helpers.TestLogger())

	tests := []struct {
		name   string
		format domain.ExportFormat
		kind   domain.ReportKind
		magic  []byte
	}{
		{name: "sales_xlsx", format: domain.FormatExcel, kind: domain.ReportSales, magic: []byte("PK")},
		{name: "sales_pdf", format: domain.FormatPDF, kind: domain.ReportSales, magic: []byte("%PDF-")},
		{name: "profit_loss_json", format: domain.FormatJSON, kind: domain.ReportProfitLoss, magic: []byte("{")},
		{name: "stock_xlsx", format: domain.FormatExcel, kind: domain.ReportStock, magic: []byte("PK")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			jobID := "job-" + tt.name
			task := exportTask(t, workers.ExportPayload{
				JobID:  jobID,
				Kind:   tt.kind,
				Format: tt.format,
				Query:  ports.ReportQuery{StartDate: "2024-03-01", EndDate: "2024-03-31"},
			})

			require.NoError(t, processor.ProcessExport(ctx, task))

			job, err := h.jobs.Get(ctx, jobID)
			require.NoError(t, err)
			assert.Equal(t, domain.JobCompleted, job.Status)
			assert.NotNil(t, job.FinishedAt)
			assert.True(t, strings.HasPrefix(job.ObjectKey, "exports/"+jobID+"/"))
			assert.True(t, strings.HasSuffix(job.ObjectKey, "_2024-03-01_2024-03-31."+string(tt.format)))

			data, err := h.storage.Download(ctx, job.ObjectKey)
			require.NoError(t, err)
			assert.True(t, bytes.HasPrefix(data, tt.magic))

			assert.False(t, h.redis.Exists("lock:export:"+string(tt.kind)+":2024-03-01:2024-03-31:"+string(tt.format)),
				"lock must be released")
		})
	}
}

func TestExportProcessor_LockedRangeRetries(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	processor := workers.NewExportProcessor(h.reports, h.storage, h.jobs, h.locker, "exports", helpers.TestLogger())

	release, err := h.locker.Obtain(ctx, "export:sales:2024-03-01:2024-03-31:pdf", time.Minute)
	require.NoError(t, err)
	defer release()

	err = processor.ProcessExport(ctx, exportTask(t, workers.ExportPayload{
		JobID:  "job-locked",
		Kind:   domain.ReportSales,
		Format: domain.FormatPDF,
		Query:  ports.ReportQuery{StartDate: "2024-03-01", EndDate: "2024-03-31"},
	}))
	require.Error(t, err)
	assert.True(t, errors.Is(err, redis_a.ErrLocked))
	assert.False(t, errors.Is(err, asynq.SkipRetry))
}

func TestExportProcessor_InvalidRangeSkipsRetry(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	processor := workers.NewExportProcessor(h.reports, h.storage, h.jobs, nil, "exports", helpers.TestLogger())

	err := processor.ProcessExport(ctx, exportTask(t, workers.ExportPayload{
		JobID:  "job-bad-range",
		Kind:   domain.ReportSales,
		Format: domain.FormatExcel,
		Query:  ports.ReportQuery{StartDate: "2024-03-31", EndDate: "2024-03-01"},
	}))
	require.Error(t, err)
	assert.True(t, errors.Is(err, asynq.SkipRetry))

	job, err := h.jobs.Get(ctx, "job-bad-range")
	require.NoError(t, err)
	assert.Equal(t, domain.JobFailed, job.Status)
	assert.Contains(t, job.Error, "invalid date range")
}

func TestExportProcessor_MalformedPayload(t *testing.T) {
	h := newHarness(t)
	processor := workers.NewExportProcessor(h.reports, h.storage, h.jobs, nil, "", helpers.TestLogger())

	err := processor.ProcessExport(context.Background(), asynq.NewTask(workers.TypeReportExport, []byte("{")))
	assert.True(t, errors.Is(err, asynq.SkipRetry))

	b, _ := json.Marshal(workers.ExportPayload{JobID: "x", Kind: "weekly", Format: domain.FormatPDF})
	err = processor.ProcessExport(context.Background(), asynq.NewTask(workers.TypeReportExport, b))
	assert.True(t, errors.Is(err, asynq.SkipRetry))
}

func expenseWorkbook(t *testing.T, rows [][]string) []byte {
	t.Helper()
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Pengeluaran")
	require.NoError(t, err)
	for _, values := range rows {
		row := sheet.AddRow()
		for _, v := range values {
			row.AddCell().Value = v
		}
	}
	var buf bytes.Buffer
	require.NoError(t, file.Write(&buf))
	return buf.Bytes()
}

func TestParseExpenseWorkbook(t *testing.T) {
	data := expenseWorkbook(t, [][]string{
		{"Description", "Category", "Amount", "Date"},
		{"Listrik toko Maret", "", "450000", "2024-03-05"},
		{"Gaji karyawan", "Payroll", "Rp 2.500.000", "2024-03-28"},
		{"Sewa ruko", "sewa", "1,500,000", "01/03/2024"},
		{"", "", "", ""},
		{"Tanpa tanggal", "", "1000", ""},
		{"Minus", "", "-5", "2024-03-05"},
	})

	expenses, warnings, err := workers.ParseExpenseWorkbook(data, time.UTC)
	require.NoError(t, err)

	require.Len(t, expenses, 3)
	assert.Equal(t, "listrik", expenses[0].Category)
	assert.Equal(t, "450000", expenses[0].Amount.String())
	assert.Equal(t, "payroll", expenses[1].Category)
	assert.Equal(t, "2500000", expenses[1].Amount.String())
	assert.Equal(t, "1500000", expenses[2].Amount.String())
	assert.Equal(t, time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC), expenses[2].CreatedAt)

	require.Len(t, warnings, 2)
	assert.Contains(t, warnings[0], "row 6")
	assert.Contains(t, warnings[1], "row 7")
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{name: "plain_integer", raw: "450000", want: "450000"},
		{name: "plain_decimal", raw: "12.50", want: "12.5"},
		{name: "numeric_cell_precision", raw: "0.3333", want: "0.3333"},
		{name: "thousands_dot", raw: "65.000", want: "65000"},
		{name: "rupiah_thousands_dot", raw: "Rp 1.500.000", want: "1500000"},
		{name: "rupiah_with_period", raw: "Rp. 30.500", want: "30500"},
		{name: "thousands_dot_decimal_comma", raw: "Rp 1.500,50", want: "1500.5"},
		{name: "decimal_comma_two_places", raw: "12,50", want: "12.5"},
		{name: "decimal_comma_one_place", raw: "1,5", want: "1.5"},
		{name: "thousands_comma", raw: "1,500,000", want: "1500000"},
		{name: "thousands_comma_decimal_dot", raw: "1,500.50", want: "1500.5"},
		{name: "mixed_grouping", raw: "1.500.000,5,0", wantErr: true},
		{name: "comma_three_places_short_group", raw: "12,5000", wantErr: true},
		{name: "dot_three_places_long_prefix", raw: "1500.000", wantErr: true},
		{name: "negative", raw: "-5", wantErr: true},
		{name: "text", raw: "seribu", wantErr: true},
		{name: "empty", raw: "  ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := workers.ParseAmount(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, domain.ErrInvalidRecord))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestParseExpenseWorkbook_DecimalCommaAmounts(t *testing.T) {
	data := expenseWorkbook(t, [][]string{
		{"Description", "Category", "Amount", "Date"},
		{"Parkir", "operasional", "12,50", "2024-03-05"},
		{"Fotokopi", "operasional", "Rp 1.500,50", "2024-03-05"},
		{"Salah ketik", "operasional", "1,5000", "2024-03-05"},
	})

	expenses, warnings, err := workers.ParseExpenseWorkbook(data, time.UTC)
	require.NoError(t, err)

	require.Len(t, expenses, 2)
	assert.Equal(t, "12.5", expenses[0].Amount.String())
	assert.Equal(t, "1500.5", expenses[1].Amount.String())
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "row 4")
	assert.Contains(t, warnings[0], "ambiguous amount")
}

func TestParseExpenseWorkbook_MissingAmountColumn(t *testing.T) {
	data := expenseWorkbook(t, [][]string{{"Description", "Date"}, {"Listrik", "2024-03-05"}})

	_, _, err := workers.ParseExpenseWorkbook(data, time.UTC)
	assert.True(t, errors.Is(err, domain.ErrInvalidRecord))
}

func TestImportProcessor_ProcessImport(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	require.NoError(t, h.cache.Set(ctx, "report:expenses:2024-03-01:2024-03-31:all", map[string]string{"stale": "yes"}))

	key := "imports/job-import/expenses.xlsx"
	_, err := h.storage.Upload(ctx, key, bytes.NewReader(expenseWorkbook(t, [][]string{
		{"Keterangan", "Kategori", "Jumlah", "Tanggal"},
		{"Listrik toko", "", "150000", "2024-03-05"},
		{"Air PDAM", "utilitas", "50000", "2024-03-06"},
	})), "")
	require.NoError(t, err)

	task, err := workers.NewImportTask(workers.ImportPayload{JobID: "job-import", ObjectKey: key}, 3)
	require.NoError(t, err)

	processor := workers.NewImportProcessor(h.storage, h.store, h.reports, h.jobs, time.UTC, helpers.TestLogger())
	require.NoError(t, processor.ProcessImport(ctx, task))

	job, err := h.jobs.Get(ctx, "job-import")
	require.NoError(t, err)
	assert.Equal(t, domain.JobCompleted, job.Status)
	assert.Equal(t, 2, job.Processed)

	assert.False(t, h.redis.Exists("report:expenses:2024-03-01:2024-03-31:all"), "import must invalidate cached reports")

	exists, err := h.storage.Exists(ctx, key)
	require.NoError(t, err)
	assert.False(t, exists)

	report, err := h.reports.ExpenseReport(ctx, ports.ReportQuery{StartDate: "2024-03-01", EndDate: "2024-03-31"})
	require.NoError(t, err)
	assert.Equal(t, "200000", report.TotalExpenses.String())
	assert.Equal(t, 2, report.Count)
}

func TestImportProcessor_MissingObject(t *testing.T) {
	h := newHarness(t)
	processor := workers.NewImportProcessor(h.storage, h.store, h.reports, h.jobs, time.UTC, helpers.TestLogger())

	task, err := workers.NewImportTask(workers.ImportPayload{JobID: "job-missing", ObjectKey: "imports/nope.xlsx"}, 3)
	require.NoError(t, err)

	err = processor.ProcessImport(context.Background(), task)
	assert.True(t, errors.Is(err, asynq.SkipRetry))

	job, err := h.jobs.Get(context.Background(), "job-missing")
	require.NoError(t, err)
	assert.Equal(t, domain.JobFailed, job.Status)
}

func TestCacheWarmer_WarmCache(t *testing.T) {
	h := newHarness(t)
	warmer := workers.NewCacheWarmer(h.reports, helpers.TestLogger(), domain.ReportSales, domain.ReportStock)

	require.NoError(t, warmer.WarmCache(context.Background(), workers.NewWarmCacheTask()))

	keys := h.redis.Keys()
	var warmed []string
	for _, k := range keys {
		if strings.HasPrefix(k, "report:") {
			warmed = append(warmed, strings.Split(k, ":")[1])
		}
	}
	assert.ElementsMatch(t, []string{"sales", "stock"}, warmed)
}

func TestCleanupProcessor_CleanupExports(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	local, err := storage.NewLocalStorage(dir, helpers.TestLogger())
	require.NoError(t, err)

	for _, key := range []string{"exports/a/old.xlsx", "exports/b/new.pdf", "imports/c/old.xlsx"} {
		_, err := local.Upload(ctx, key, strings.NewReader("data"), "")
		require.NoError(t, err)
	}

	past := time.Now().Add(-48 * time.Hour)
	for _, key := range []string{"exports/a/old.xlsx", "imports/c/old.xlsx"} {
		require.NoError(t, os.Chtimes(filepath.Join(dir, key), past, past))
	}

	processor := workers.NewCleanupProcessor(local, 24*time.Hour, helpers.TestLogger(), "exports")
	require.NoError(t, processor.CleanupExports(ctx, workers.NewCleanupTask()))

	remaining, err := local.List(ctx, "")
	require.NoError(t, err)

	var keys []string
	for _, obj := range remaining {
		keys = append(keys, obj.Key)
	}
	assert.ElementsMatch(t, []string{"exports/b/new.pdf", "imports/c/old.xlsx"}, keys)
}
