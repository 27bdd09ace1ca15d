// Package memory is an in-process ledger store for development and tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ammerola/kasir-be/internal/core/domain"
	"github.com/ammerola/kasir-be/internal/core/ports"
)

// Store keeps the ledger in maps guarded by a single RWMutex
type Store struct {
	mu            sync.RWMutex
	categories    map[uuid.UUID]domain.Category
	users         map[uuid.UUID]domain.User
	members       map[uuid.UUID]domain.Member
	suppliers     map[uuid.UUID]domain.Supplier
	sales         []domain.Sale
	saleItems     []domain.SaleLineItem
	purchases     []domain.Purchase
	purchaseItems []domain.PurchaseLineItem
	expenses      []domain.Expense
}

var _ ports.LedgerStore = (*Store)(nil)

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		categories: make(map[uuid.UUID]domain.Category),
		users:      make(map[uuid.UUID]domain.User),
		members:    make(map[uuid.UUID]domain.Member),
		suppliers:  make(map[uuid.UUID]domain.Supplier),
	}
}

// ListSales returns sales inside the period, oldest first, with cashier
// and member names filled in.
func (s *Store) ListSales(ctx context.Context, period domain.Period) ([]domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Sale, 0)
	for _, sale := range s.sales {
		if !period.Contains(sale.CreatedAt) {
			continue
		}
		sale.Items = nil
		if u, ok := s.users[sale.UserID]; ok {
			sale.CashierName = u.Name
		}
		if sale.MemberID != nil {
			if m, ok := s.members[*sale.MemberID]; ok {
				sale.MemberName = m.Name
			}
		}
		out = append(out, sale)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// ListSaleItems returns the lines of sales made inside the period
func (s *Store) ListSaleItems(ctx context.Context, period domain.Period) ([]domain.SaleLineItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	soldAt := make(map[uuid.UUID]time.Time)
	for _, sale := range s.sales {
		if period.Contains(sale.CreatedAt) {
			soldAt[sale.ID] = sale.CreatedAt
		}
	}

	out := make([]domain.SaleLineItem, 0)
	for _, item := range s.saleItems {
		if _, ok := soldAt[item.SaleID]; !ok {
			continue
		}
		if c, ok := s.categories[item.CategoryID]; ok {
			item.CategoryName = c.Name
		}
		out = append(out, item)
	}
	sort.SliceStable(out, func(i, j int) bool { return soldAt[out[i].SaleID].Before(soldAt[out[j].SaleID]) })
	return out, nil
}

// ListPurchaseItems returns the lines of purchases received inside the period
func (s *Store) ListPurchaseItems(ctx context.Context, period domain.Period) ([]domain.PurchaseLineItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	boughtAt := make(map[uuid.UUID]time.Time)
	for _, purchase := range s.purchases {
		if period.Contains(purchase.CreatedAt) {
			boughtAt[purchase.ID] = purchase.CreatedAt
		}
	}

	out := make([]domain.PurchaseLineItem, 0)
	for _, item := range s.purchaseItems {
		if _, ok := boughtAt[item.PurchaseID]; !ok {
			continue
		}
		if c, ok := s.categories[item.CategoryID]; ok {
			item.CategoryName = c.Name
		}
		out = append(out, item)
	}
	sort.SliceStable(out, func(i, j int) bool { return boughtAt[out[i].PurchaseID].Before(boughtAt[out[j].PurchaseID]) })
	return out, nil
}

// ListExpenses returns expenses inside the period
func (s *Store) ListExpenses(ctx context.Context, period domain.Period) ([]domain.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Expense, 0)
	for _, e := range s.expenses {
		if period.Contains(e.CreatedAt) {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// ListCategories returns the catalog ordered by name
func (s *Store) ListCategories(ctx context.Context) ([]domain.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Category, 0, len(s.categories))
	for _, c := range s.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Ping always succeeds
func (s *Store) Ping(ctx context.Context) error {
	return nil
}

// CreateSale records a sale and removes the sold quantity from stock
func (s *Store) CreateSale(ctx context.Context, sale *domain.Sale) error {
	if sale.ID == uuid.Nil {
		sale.ID = uuid.New()
	}
	if sale.CreatedAt.IsZero() {
		sale.CreatedAt = time.Now()
	}
	if err := sale.Validate(); err != nil {
		return err
	}
	for i := range sale.Items {
		item := &sale.Items[i]
		if item.ID == uuid.Nil {
			item.ID = uuid.New()
		}
		item.SaleID = sale.ID
		if item.CreatedAt.IsZero() {
			item.CreatedAt = sale.CreatedAt
		}
		if item.Subtotal.IsZero() {
			item.Subtotal = item.ComputeSubtotal()
		}
		if err := item.Validate(); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, item := range sale.Items {
		if c, ok := s.categories[item.CategoryID]; ok {
			c.Stock -= item.Quantity
			c.UpdatedAt = time.Now()
			s.categories[item.CategoryID] = c
		}
		s.saleItems = append(s.saleItems, item)
	}
	s.sales = append(s.sales, *sale)
	return nil
}

// CreatePurchase records a purchase and adds the received quantity to stock
func (s *Store) CreatePurchase(ctx context.Context, purchase *domain.Purchase) error {
	if purchase.ID == uuid.Nil {
		purchase.ID = uuid.New()
	}
	if purchase.CreatedAt.IsZero() {
		purchase.CreatedAt = time.Now()
	}
	if purchase.DiscountType == "" {
		purchase.DiscountType = domain.DiscountFixed
	}
	for i := range purchase.Items {
		item := &purchase.Items[i]
		if item.ID == uuid.Nil {
			item.ID = uuid.New()
		}
		item.PurchaseID = purchase.ID
		if item.CreatedAt.IsZero() {
			item.CreatedAt = purchase.CreatedAt
		}
	}
	if err := purchase.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	supplier := s.suppliers[purchase.SupplierID].Name
	for _, item := range purchase.Items {
		if c, ok := s.categories[item.CategoryID]; ok {
			c.Stock += item.Quantity
			c.UpdatedAt = time.Now()
			s.categories[item.CategoryID] = c
		}
		item.SupplierName = supplier
		s.purchaseItems = append(s.purchaseItems, item)
	}
	s.purchases = append(s.purchases, *purchase)
	return nil
}

// CreateExpenses records expenses
func (s *Store) CreateExpenses(ctx context.Context, expenses []domain.Expense) error {
	for i := range expenses {
		if expenses[i].ID == uuid.Nil {
			expenses[i].ID = uuid.New()
		}
		if expenses[i].CreatedAt.IsZero() {
			expenses[i].CreatedAt = time.Now()
		}
		if err := expenses[i].Validate(); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.expenses = append(s.expenses, expenses...)
	return nil
}

// UpsertCategory creates a category or updates the one with the same name
func (s *Store) UpsertCategory(ctx context.Context, category *domain.Category) error {
	if err := category.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for id, existing := range s.categories {
		if strings.EqualFold(existing.Name, category.Name) {
			category.ID = id
			category.CreatedAt = existing.CreatedAt
			category.UpdatedAt = now
			s.categories[id] = *category
			return nil
		}
	}
	if category.ID == uuid.Nil {
		category.ID = uuid.New()
	}
	category.CreatedAt, category.UpdatedAt = now, now
	s.categories[category.ID] = *category
	return nil
}

// UpsertUser creates or replaces a cashier
func (s *Store) UpsertUser(ctx context.Context, user *domain.User) error {
	if user.Name == "" {
		return fmt.Errorf("%w: user name is required", domain.ErrInvalidRecord)
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	s.mu.Lock()
	s.users[user.ID] = *user
	s.mu.Unlock()
	return nil
}

// UpsertMember creates or replaces a member
func (s *Store) UpsertMember(ctx context.Context, member *domain.Member) error {
	if member.Name == "" {
		return fmt.Errorf("%w: member name is required", domain.ErrInvalidRecord)
	}
	if member.ID == uuid.Nil {
		member.ID = uuid.New()
	}
	s.mu.Lock()
	s.members[member.ID] = *member
	s.mu.Unlock()
	return nil
}

// UpsertSupplier creates or replaces a supplier
func (s *Store) UpsertSupplier(ctx context.Context, supplier *domain.Supplier) error {
	if supplier.Name == "" {
		return fmt.Errorf("%w: supplier name is required", domain.ErrInvalidRecord)
	}
	if supplier.ID == uuid.Nil {
		supplier.ID = uuid.New()
	}
	s.mu.Lock()
	s.suppliers[supplier.ID] = *supplier
	s.mu.Unlock()
	return nil
}
