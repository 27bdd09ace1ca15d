// internal/core/domain/expense.go
package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ExpenseCategoryOther is used when no category can be derived
const ExpenseCategoryOther = "other"

// Expense is an operating cost not tied to any line item
type Expense struct {
	ID          uuid.UUID       `json:"id"`
	Description string          `json:"description"`
	Category    string          `json:"category,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Validate checks the expense invariants
func (e *Expense) Validate() error {
	if e.Amount.IsNegative() {
		return fmt.Errorf("%w: expense %s has negative amount", ErrInvalidRecord, e.ID)
	}
	if e.CreatedAt.IsZero() {
		return fmt.Errorf("%w: expense %s has no timestamp", ErrInvalidRecord, e.ID)
	}
	return nil
}

// EffectiveCategory returns the explicit category, or falls back to the
// first word of the description for legacy rows. The fallback is a
// heuristic backfill, not a taxonomy.
func (e *Expense) EffectiveCategory() string {
	if c := strings.TrimSpace(e.Category); c != "" {
		return strings.ToLower(c)
	}
	return CategoryFromDescription(e.Description)
}

// CategoryFromDescription derives a category from the first
// whitespace-delimited token of a description.
func CategoryFromDescription(description string) string {
	fields := strings.Fields(description)
	if len(fields) == 0 {
		return ExpenseCategoryOther
	}
	return strings.ToLower(fields[0])
}
