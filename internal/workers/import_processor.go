// internal/workers/import_processor.go
package workers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"
	"github.com/tealeg/xlsx/v3"

	"github.com/ammerola/kasir-be/internal/core/domain"
	"github.com/ammerola/kasir-be/internal/core/ports"
	"github.com/ammerola/kasir-be/internal/pkg/logger"
)

// expense workbook columns, matched by header text
var expenseColumns = map[string]string{
	"description": "description",
	"keterangan":  "description",
	"category":    "category",
	"kategori":    "category",
	"amount":      "amount",
	"jumlah":      "amount",
	"nominal":     "amount",
	"date":        "date",
	"tanggal":     "date",
}

// ImportProcessor loads expense workbooks into the ledger
type ImportProcessor struct {
	storage  ports.StorageClient
	writer   ports.TransactionWriter
	reports  ports.ReportService
	jobs     ports.JobStore
	location *time.Location
	logger   *slog.Logger
}

// NewImportProcessor creates a new import processor
func NewImportProcessor(storage ports.StorageClient, writer ports.TransactionWriter, reports ports.ReportService,
	jobs ports.JobStore, location *time.Location, logger *slog.Logger) *ImportProcessor {
	if location == nil {
		location = time.Local
	}
	return &ImportProcessor{
		storage:  storage,
		writer:   writer,
		reports:  reports,
		jobs:     jobs,
		location: location,
		logger:   logger.With(slog.String("processor", "import")),
	}
}

// ProcessImport handles expense:import tasks
func (p *ImportProcessor) ProcessImport(ctx context.Context, t *asynq.Task) error {
	var payload ImportPayload
	if err := decodePayload(t, &payload); err != nil {
		return err
	}
	ctx = logger.WithJobID(ctx, payload.JobID)

	job, err := p.jobs.Get(ctx, payload.JobID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		job = &domain.Job{ID: payload.JobID, Type: domain.JobTypeImport}
	}
	job.Status = domain.JobProcessing
	job.ObjectKey = payload.ObjectKey
	if err := p.jobs.Save(ctx, job); err != nil {
		p.logger.WarnContext(ctx, "failed to record job status", slog.String("error", err.Error()))
	}

	p.logger.InfoContext(ctx, "processing expense workbook",
		slog.String("object_key", payload.ObjectKey),
		slog.String("filename", payload.Filename))

	data, err := p.storage.Download(ctx, payload.ObjectKey)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			p.fail(ctx, job, err)
			return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
		}
		return fmt.Errorf("failed to download workbook: %w", err)
	}

	expenses, warnings, err := ParseExpenseWorkbook(data, p.location)
	if err != nil {
		p.fail(ctx, job, err)
		return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
	}

	if len(expenses) > 0 {
		if err := p.writer.CreateExpenses(ctx, expenses); err != nil {
			p.fail(ctx, job, err)
			if errors.Is(err, domain.ErrInvalidRecord) {
				return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
			}
			return fmt.Errorf("failed to save expenses: %w", err)
		}
		if err := p.reports.Invalidate(ctx); err != nil {
			p.logger.WarnContext(ctx, "failed to invalidate report cache", slog.String("error", err.Error()))
		}
	}

	if err := p.storage.Delete(ctx, payload.ObjectKey); err != nil {
		p.logger.WarnContext(ctx, "failed to delete imported workbook",
			slog.String("object_key", payload.ObjectKey),
			slog.String("error", err.Error()))
	}

	job.Processed = len(expenses)
	job.Warnings = warnings
	finish(job, domain.JobCompleted, nil)
	if err := p.jobs.Save(ctx, job); err != nil {
		p.logger.WarnContext(ctx, "failed to record job completion", slog.String("error", err.Error()))
	}

	p.logger.InfoContext(ctx, "expense import completed",
		slog.Int("expenses_imported", len(expenses)),
		slog.Int("rows_skipped", len(warnings)))

	return nil
}

func (p *ImportProcessor) fail(ctx context.Context, job *domain.Job, cause error) {
	finish(job, domain.JobFailed, cause)
	if err := p.jobs.Save(ctx, job); err != nil {
		p.logger.WarnContext(ctx, "failed to record job failure", slog.String("error", err.Error()))
	}
	p.logger.ErrorContext(ctx, "expense import failed", slog.String("error", cause.Error()))
}

// ParseExpenseWorkbook reads the first sheet of an expense workbook. The
// first row is the header; unusable rows are skipped and reported as
// warnings. Rows without a category get one from their description.
func ParseExpenseWorkbook(data []byte, loc *time.Location) ([]domain.Expense, []string, error) {
	file, err := xlsx.OpenBinary(data)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: failed to open workbook: %v", domain.ErrInvalidRecord, err)
	}
	if len(file.Sheets) == 0 {
		return nil, nil, fmt.Errorf("%w: workbook has no sheets", domain.ErrInvalidRecord)
	}

	var (
		expenses []domain.Expense
		warnings []string
		columns  map[string]int
		rowIdx   int
	)

	err = file.Sheets[0].ForEachRow(func(r *xlsx.Row) error {
		rowIdx++
		if columns == nil {
			columns = headerColumns(r)
			if _, ok := columns["amount"]; !ok {
				return fmt.Errorf("%w: header row has no Amount column", domain.ErrInvalidRecord)
			}
			return nil
		}

		expense, err := parseExpenseRow(r, columns, loc)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("row %d: %v", rowIdx, err))
			return nil
		}
		if expense != nil {
			expenses = append(expenses, *expense)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	return expenses, warnings, nil
}

func headerColumns(r *xlsx.Row) map[string]int {
	columns := make(map[string]int)
	r.ForEachCell(func(c *xlsx.Cell) error {
		col, _ := c.GetCoordinates()
		if name, ok := expenseColumns[strings.ToLower(strings.TrimSpace(c.String()))]; ok {
			columns[name] = col
		}
		return nil
	})
	return columns
}

func parseExpenseRow(r *xlsx.Row, columns map[string]int, loc *time.Location) (*domain.Expense, error) {
	cell := func(name string) *xlsx.Cell {
		idx, ok := columns[name]
		if !ok {
			return nil
		}
		return r.GetCell(idx)
	}
	text := func(name string) string {
		if c := cell(name); c != nil {
			return strings.TrimSpace(c.String())
		}
		return ""
	}

	description := text("description")
	rawAmount := text("amount")
	if description == "" && rawAmount == "" {
		return nil, nil
	}

	amount, err := ParseAmount(rawAmount)
	if err != nil {
		return nil, err
	}

	createdAt, err := ParseCellDate(cell("date"), loc)
	if err != nil {
		return nil, err
	}

	category := strings.ToLower(text("category"))
	if category == "" {
		category = domain.CategoryFromDescription(description)
	}

	expense := &domain.Expense{
		ID:          uuid.New(),
		Description: description,
		Category:    category,
		Amount:      amount,
		CreatedAt:   createdAt,
	}
	if err := expense.Validate(); err != nil {
		return nil, err
	}
	return expense, nil
}

var (
	// 65.000 or 1.500.000, dots group thousands
	thousandsDotRe = regexp.MustCompile(`^\d{1,3}(\.\d{3})+$`)
	// 1.500,50 or 12,50, comma before one or two decimals
	decimalCommaRe = regexp.MustCompile(`^(\d{1,3}(\.\d{3})+|\d+),\d{1,2}$`)
	// 1,500,000 or 1,500.50, commas group thousands
	thousandsCommaRe = regexp.MustCompile(`^\d{1,3}(,\d{3})+(\.\d{1,2})?$`)
	// 1500, 1500.50, or a numeric cell such as 0.3333
	plainAmountRe = regexp.MustCompile(`^\d+(\.\d{1,2}|\.\d{4,})?$`)
)

// ParseAmount accepts plain numbers and rupiah amounts written with dot or
// comma grouping: "Rp 1.500.000", "65.000", "1.500,50", "12,50",
// "1,500,000". Anything else is rejected rather than guessed.
func ParseAmount(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	for _, prefix := range []string{"Rp", "rp", "RP"} {
		s = strings.TrimPrefix(s, prefix)
	}
	s = strings.TrimPrefix(strings.TrimSpace(s), ".")
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return decimal.Zero, fmt.Errorf("%w: amount is empty", domain.ErrInvalidRecord)
	}

	switch {
	case plainAmountRe.MatchString(s):
	case thousandsDotRe.MatchString(s):
		s = strings.ReplaceAll(s, ".", "")
	case decimalCommaRe.MatchString(s):
		s = strings.ReplaceAll(strings.ReplaceAll(s, ".", ""), ",", ".")
	case thousandsCommaRe.MatchString(s):
		s = strings.ReplaceAll(s, ",", "")
	default:
		return decimal.Zero, fmt.Errorf("%w: ambiguous amount %q", domain.ErrInvalidRecord, raw)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: invalid amount %q", domain.ErrInvalidRecord, raw)
	}
	return d, nil
}

// ParseCellDate reads an xlsx date cell or a date string in loc
func ParseCellDate(c *xlsx.Cell, loc *time.Location) (time.Time, error) {
	if c == nil {
		return time.Time{}, fmt.Errorf("date is missing")
	}
	if c.IsTime() {
		t, err := c.GetTime(false)
		if err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, loc), nil
		}
	}

	raw := strings.TrimSpace(c.String())
	for _, layout := range []string{domain.DateLayout, "02/01/2006", "2006-01-02 15:04:05", time.RFC3339} {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", raw)
}
