// cmd/seeder/main.go
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/ammerola/kasir-be/internal/adapters/db"
	"github.com/ammerola/kasir-be/internal/app"
	"github.com/ammerola/kasir-be/internal/core/domain"
	"github.com/ammerola/kasir-be/internal/core/ports"
	"github.com/ammerola/kasir-be/internal/pkg/config"
	"github.com/ammerola/kasir-be/internal/pkg/logger"
)

// seederState tracks processed invoices between runs
type seederState struct {
	ProcessedInvoices []string  `json:"processed_invoices"`
	ProcessedCount    int       `json:"processed_count"`
	LastUpdate        time.Time `json:"last_update"`
}

// summary counts what a run wrote
type summary struct {
	Sales     int
	Purchases int
	Expenses  int
	Failed    []string
}

func main() {
	var (
		ledgerFile    = flag.String("ledger", "", "Sales ledger workbook (xlsx)")
		invoicesDir   = flag.String("invoices", "", "Directory containing supplier invoice PDFs")
		syntheticDays = flag.Int("synthetic-days", 0, "Generate this many days of synthetic trading")
		seed          = flag.Uint64("seed", 42, "Random seed for synthetic data")
		stateFile     = flag.String("state", "./.seed_state.json", "State file for tracking processed invoices")
		logLevel      = flag.String("log-level", "info", "Log level (debug, info, warn, error)")
		dryRun        = flag.Bool("dry-run", false, "Preview changes without writing to the store")
		force         = flag.Bool("force", false, "Reprocess all invoices")
		reset         = flag.Bool("reset", false, "Roll back and reapply the ledger schema before seeding")
	)
	flag.Parse()

	slogger := logger.SetupLogger(*logLevel, "json")
	log := slogger.Logger

	if *ledgerFile == "" && *invoicesDir == "" && *syntheticDays <= 0 {
		fmt.Fprintln(os.Stderr, "nothing to seed: pass -ledger, -invoices or -synthetic-days")
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(log)
	if err != nil {
		log.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if cfg.Database.Driver == "memory" && !*dryRun {
		log.Warn("DB_DRIVER is memory, seeded data will be lost on exit")
	}

	ctx := context.Background()
	loc := cfg.Report.Location()

	if *reset && cfg.Database.Driver != "memory" && !*dryRun {
		if err := resetSchema(ctx, cfg, log); err != nil {
			log.Error("failed to reset schema", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	store, err := app.OpenStore(ctx, cfg, 4, log)
	if err != nil {
		log.Error("failed to open store", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer store.Close()

	cat, err := newCatalog(ctx, store.LedgerStore, *dryRun)
	if err != nil {
		log.Error("failed to load catalog", slog.String("error", err.Error()))
		os.Exit(1)
	}

	s := &seeder{store: store.LedgerStore, catalog: cat, dryRun: *dryRun, logger: log}

	// Purchases first so stock is in place before sales draw it down
	if *invoicesDir != "" {
		state := loadState(*stateFile, *force)
		s.seedInvoices(ctx, *invoicesDir, loc, state)
		if !*dryRun {
			saveState(*stateFile, state, log)
		}
	}
	if *syntheticDays > 0 {
		s.seedSynthetic(ctx, *syntheticDays, *seed, loc)
	}
	if *ledgerFile != "" {
		s.seedLedger(ctx, *ledgerFile, loc)
	}

	s.printSummary()

	log.Info("seed operation completed",
		slog.Int("sales", s.summary.Sales),
		slog.Int("purchases", s.summary.Purchases),
		slog.Int("expenses", s.summary.Expenses),
		slog.Int("failed", len(s.summary.Failed)))

	if *dryRun {
		fmt.Println("\n[DRY RUN] No changes were written")
	}
}

// resetSchema rolls every migration back and reapplies them
func resetSchema(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	migrator, err := db.NewMigrator(&db.MigrationConfig{DatabaseURL: cfg.GetDatabaseURL()}, log)
	if err != nil {
		return err
	}
	defer migrator.Close()

	for {
		version, _, err := migrator.Version(ctx)
		if err != nil {
			return err
		}
		if version == 0 {
			break
		}
		log.Warn("rolling back ledger schema", slog.Uint64("version", uint64(version)))
		if err := migrator.Down(ctx); err != nil {
			return err
		}
	}
	return migrator.Up(ctx)
}

type seeder struct {
	store   ports.TransactionWriter
	catalog *catalog
	dryRun  bool
	logger  *slog.Logger
	summary summary
}

func (s *seeder) seedInvoices(ctx context.Context, dir string, loc *time.Location, state *seederState) {
	pdfFiles, err := filepath.Glob(filepath.Join(dir, "*.pdf"))
	if err != nil {
		s.logger.Error("failed to find PDF files", slog.String("error", err.Error()))
		return
	}

	extractor := NewInvoiceExtractor(loc, s.logger)
	for i, path := range pdfFiles {
		number := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		fmt.Printf("PROGRESS: Processing %d/%d: %s\n", i+1, len(pdfFiles), number)

		if slices.Contains(state.ProcessedInvoices, number) {
			s.logger.Info("skipping already processed invoice", slog.String("invoice", number))
			continue
		}

		fallback := time.Now().In(loc)
		if info, err := os.Stat(path); err == nil {
			fallback = info.ModTime().In(loc)
		}

		inv, err := extractor.Extract(path, number, fallback)
		if err != nil {
			s.fail(number, err)
			continue
		}
		if len(inv.Lines) == 0 {
			s.fail(number, fmt.Errorf("no items found"))
			continue
		}

		purchase, err := inv.toPurchase(ctx, s.catalog)
		if err == nil && !s.dryRun {
			err = s.store.CreatePurchase(ctx, purchase)
		}
		if err != nil {
			s.fail(number, err)
			continue
		}

		fmt.Printf("SUCCESS: Processed invoice %s - %d lines\n", number, len(inv.Lines))
		s.summary.Purchases++
		state.ProcessedInvoices = append(state.ProcessedInvoices, number)
		state.ProcessedCount = len(state.ProcessedInvoices)
		state.LastUpdate = time.Now()
	}
}

func (s *seeder) seedLedger(ctx context.Context, path string, loc *time.Location) {
	data, err := os.ReadFile(path)
	if err != nil {
		s.fail(path, err)
		return
	}

	sales, warnings, err := parseSalesLedger(data, loc)
	if err != nil {
		s.fail(path, err)
		return
	}
	for _, w := range warnings {
		fmt.Printf("WARNING: %s\n", w)
	}

	s.writeSales(ctx, sales)
}

func (s *seeder) seedSynthetic(ctx context.Context, days int, seed uint64, loc *time.Location) {
	ledger := generateLedger(time.Now().In(loc), days, seed, loc)

	if err := registerProducts(ctx, s.catalog); err != nil {
		s.fail("synthetic catalog", err)
		return
	}

	for _, p := range ledger.Purchases {
		purchase, err := p.toPurchase(ctx, s.catalog)
		if err == nil && !s.dryRun {
			err = s.store.CreatePurchase(ctx, purchase)
		}
		if err != nil {
			s.fail("synthetic purchase "+p.Date.Format(domain.DateLayout), err)
			continue
		}
		s.summary.Purchases++
	}

	s.writeSales(ctx, ledger.Sales)

	if !s.dryRun && len(ledger.Expenses) > 0 {
		if err := s.store.CreateExpenses(ctx, ledger.Expenses); err != nil {
			s.fail("synthetic expenses", err)
			return
		}
	}
	s.summary.Expenses += len(ledger.Expenses)
}

func (s *seeder) writeSales(ctx context.Context, sales []ledgerSale) {
	for _, ls := range sales {
		sale, err := ls.toSale(ctx, s.catalog)
		if err == nil && !s.dryRun {
			err = s.store.CreateSale(ctx, sale)
		}
		if err != nil {
			s.fail("sale "+ls.Receipt, err)
			continue
		}
		s.summary.Sales++
	}
}

func (s *seeder) fail(what string, err error) {
	s.logger.Error("failed to seed",
		slog.String("source", what),
		slog.String("error", err.Error()))
	fmt.Printf("ERROR: %s - %v\n", what, err)
	s.summary.Failed = append(s.summary.Failed, what)
}

func (s *seeder) printSummary() {
	fmt.Println("\n" + strings.Repeat("=", 60))
	fmt.Println("SEEDING SUMMARY")
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("Sales:     %d\n", s.summary.Sales)
	fmt.Printf("Purchases: %d\n", s.summary.Purchases)
	fmt.Printf("Expenses:  %d\n", s.summary.Expenses)

	if len(s.summary.Failed) > 0 {
		fmt.Printf("\nFailed (%d):\n", len(s.summary.Failed))
		for _, f := range s.summary.Failed {
			fmt.Printf("  - %s\n", f)
		}
	}
}

func loadState(path string, force bool) *seederState {
	state := &seederState{}
	if force {
		return state
	}
	if data, err := os.ReadFile(path); err == nil {
		_ = json.Unmarshal(data, state)
	}
	return state
}

func saveState(path string, state *seederState, log *slog.Logger) {
	data, err := json.MarshalIndent(state, "", "  ")
	if err == nil {
		err = os.WriteFile(path, data, 0o644)
	}
	if err != nil {
		log.Warn("failed to save seeder state", slog.String("error", err.Error()))
	}
}
