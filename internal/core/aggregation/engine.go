// Package aggregation turns flat transaction records into report summaries.
// Every function here is pure: it performs no I/O and keeps no state
// between calls, so concurrent report requests never interfere.
package aggregation

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
)

const (
	DefaultTopN              = 5
	DefaultRecentLimit       = 10
	DefaultLowStockThreshold = 10
)

// DefaultAssumedCostRatio is the share of a line subtotal booked as COGS.
var DefaultAssumedCostRatio = decimal.NewFromFloat(0.6)

// Options configures an Engine
type Options struct {
	// AssumedCostRatio is a flat cost estimate applied to every category.
	// Nil means DefaultAssumedCostRatio; zero is a valid ratio.
	// TODO: replace with FIFO or weighted-average costing once purchase
	// lots are tracked per sale line.
	AssumedCostRatio  *decimal.Decimal
	Location          *time.Location
	TopN              int
	RecentLimit       int
	LowStockThreshold int
}

// DefaultOptions returns the options used when nothing is configured
func DefaultOptions() Options {
	ratio := DefaultAssumedCostRatio
	return Options{
		AssumedCostRatio:  &ratio,
		Location:          time.Local,
		TopN:              DefaultTopN,
		RecentLimit:       DefaultRecentLimit,
		LowStockThreshold: DefaultLowStockThreshold,
	}
}

// Engine computes report summaries
type Engine struct {
	opts      Options
	costRatio decimal.Decimal
	logger    *slog.Logger
}

// NewEngine creates an engine, filling unset options with defaults
func NewEngine(opts Options, logger *slog.Logger) *Engine {
	def := DefaultOptions()
	costRatio := *def.AssumedCostRatio
	if opts.AssumedCostRatio != nil && !opts.AssumedCostRatio.IsNegative() {
		costRatio = *opts.AssumedCostRatio
	}
	opts.AssumedCostRatio = nil
	if opts.Location == nil {
		opts.Location = def.Location
	}
	if opts.TopN <= 0 {
		opts.TopN = def.TopN
	}
	if opts.RecentLimit <= 0 {
		opts.RecentLimit = def.RecentLimit
	}
	if opts.LowStockThreshold <= 0 {
		opts.LowStockThreshold = def.LowStockThreshold
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Engine{
		opts:      opts,
		costRatio: costRatio,
		logger:    logger.With(slog.String("component", "aggregation")),
	}
}

// Options returns the effective options
func (e *Engine) Options() Options {
	opts := e.opts
	ratio := e.costRatio
	opts.AssumedCostRatio = &ratio
	return opts
}

func (e *Engine) warnSkipped(ctx context.Context, kind string, id string, err error) {
	e.logger.WarnContext(ctx, "skipping malformed record",
		slog.String("kind", kind),
		slog.String("id", id),
		slog.String("error", err.Error()))
}

var hundred = decimal.NewFromInt(100)

// percentOf returns part / whole x 100 rounded to two places, or 0 when
// whole is zero.
func percentOf(part, whole decimal.Decimal) float64 {
	if whole.IsZero() {
		return 0
	}
	return part.Div(whole).Mul(hundred).Round(2).InexactFloat64()
}

// Growth returns (current - previous) / |previous| x 100, or 0 when
// previous is zero.
func Growth(current, previous decimal.Decimal) float64 {
	if previous.IsZero() {
		return 0
	}
	return current.Sub(previous).Div(previous.Abs()).Mul(hundred).Round(2).InexactFloat64()
}

func money(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// netOf subtracts the published (rounded) figures so net always equals
// total minus discounts as serialized
func netOf(total, discounts decimal.Decimal) decimal.Decimal {
	return money(total).Sub(money(discounts))
}
