//go:build integration
// +build integration

package db_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/ammerola/kasir-be/internal/adapters/db"
	"github.com/ammerola/kasir-be/internal/core/domain"
	"github.com/ammerola/kasir-be/test/helpers"
)

type LedgerStoreSuite struct {
	suite.Suite
	testDB *helpers.TestDB
	store  *db.LedgerStore
	ctx    context.Context
	period domain.Period
}

func (s *LedgerStoreSuite) SetupSuite() {
	s.testDB = helpers.SetupTestDB(s.T())
	s.store = db.NewLedgerStore(s.testDB.Database, helpers.TestLogger())
	s.ctx = context.Background()

	p, err := domain.NewPeriod(
		time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, time.March, 31, 0, 0, 0, 0, time.UTC),
		time.UTC,
	)
	s.Require().NoError(err)
	s.period = p
}

func (s *LedgerStoreSuite) SetupTest() {
	helpers.TruncateAllTables(s.T(), s.testDB.PgxPool)
}

func (s *LedgerStoreSuite) TestCreateSale_DecrementsStock() {
	category := helpers.CreateTestCategory()
	s.Require().NoError(s.store.UpsertCategory(s.ctx, category))

	cashier := &domain.User{Name: "Siti"}
	s.Require().NoError(s.store.UpsertUser(s.ctx, cashier))

	sale := helpers.CreateTestSale(func(sl *domain.Sale) {
		sl.UserID = cashier.ID
		sl.TotalItems = 3
		sl.TotalAmount = decimal.NewFromInt(36000)
		sl.Items = []domain.SaleLineItem{{
			CategoryID: category.ID,
			UnitPrice:  category.Price,
			Quantity:   3,
		}}
	})
	s.Require().NoError(s.store.CreateSale(s.ctx, sale))

	categories, err := s.store.ListCategories(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(categories, 1)
	s.Equal(47, categories[0].Stock)

	sales, err := s.store.ListSales(s.ctx, s.period)
	s.Require().NoError(err)
	s.Require().Len(sales, 1)
	s.Equal("Siti", sales[0].CashierName)
	s.True(sales[0].TotalAmount.Equal(decimal.NewFromInt(36000)))

	items, err := s.store.ListSaleItems(s.ctx, s.period)
	s.Require().NoError(err)
	s.Require().Len(items, 1)
	s.Equal(category.Name, items[0].CategoryName)
	s.True(items[0].Subtotal.Equal(decimal.NewFromInt(36000)))
}

func (s *LedgerStoreSuite) TestCreatePurchase_IncrementsStock() {
	category := helpers.CreateTestCategory()
	s.Require().NoError(s.store.UpsertCategory(s.ctx, category))

	supplier := &domain.Supplier{Name: "CV Sumber Rejeki"}
	s.Require().NoError(s.store.UpsertSupplier(s.ctx, supplier))

	purchase := &domain.Purchase{
		SupplierID:  supplier.ID,
		TotalItems:  10,
		TotalAmount: decimal.NewFromInt(80000),
		CreatedAt:   time.Date(2024, time.March, 3, 8, 0, 0, 0, time.UTC),
		Items: []domain.PurchaseLineItem{{
			CategoryID: category.ID,
			UnitCost:   decimal.NewFromInt(8000),
			Quantity:   10,
			Subtotal:   decimal.NewFromInt(80000),
		}},
	}
	s.Require().NoError(s.store.CreatePurchase(s.ctx, purchase))

	items, err := s.store.ListPurchaseItems(s.ctx, s.period)
	s.Require().NoError(err)
	s.Require().Len(items, 1)
	s.Equal("CV Sumber Rejeki", items[0].SupplierName)

	categories, err := s.store.ListCategories(s.ctx)
	s.Require().NoError(err)
	s.Equal(60, categories[0].Stock)
}

func (s *LedgerStoreSuite) TestListExpenses_HalfOpenPeriod() {
	inside := helpers.CreateTestExpense()
	onBoundary := helpers.CreateTestExpense(func(e *domain.Expense) {
		e.CreatedAt = s.period.End
	})
	s.Require().NoError(s.store.CreateExpenses(s.ctx, []domain.Expense{*inside, *onBoundary}))

	expenses, err := s.store.ListExpenses(s.ctx, s.period)
	s.Require().NoError(err)
	s.Require().Len(expenses, 1)
	s.Equal(inside.ID, expenses[0].ID)
}

func TestLedgerStoreSuite(t *testing.T) {
	suite.Run(t, new(LedgerStoreSuite))
}
