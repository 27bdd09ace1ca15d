// internal/core/ports/transaction_store.go
package ports

import (
	"context"

	"github.com/ammerola/kasir-be/internal/core/domain"
)

// TransactionStore is the read side of the sales ledger. Every read is
// bounded by a half-open period and returns rows with their display names
// joined in. Implementations wrap failures in domain.ErrDataSourceUnavailable.
type TransactionStore interface {
	ListSales(ctx context.Context, period domain.Period) ([]domain.Sale, error)
	ListSaleItems(ctx context.Context, period domain.Period) ([]domain.SaleLineItem, error)
	ListPurchaseItems(ctx context.Context, period domain.Period) ([]domain.PurchaseLineItem, error)
	ListExpenses(ctx context.Context, period domain.Period) ([]domain.Expense, error)
	ListCategories(ctx context.Context) ([]domain.Category, error)
	Ping(ctx context.Context) error
}

// TransactionWriter records new ledger entries. Stock is adjusted in the
// same unit of work: purchases add to category stock, sales remove from it.
type TransactionWriter interface {
	CreateSale(ctx context.Context, sale *domain.Sale) error
	CreatePurchase(ctx context.Context, purchase *domain.Purchase) error
	CreateExpenses(ctx context.Context, expenses []domain.Expense) error
	UpsertCategory(ctx context.Context, category *domain.Category) error
}

// LedgerStore is a store that can both read and record
type LedgerStore interface {
	TransactionStore
	TransactionWriter
}
