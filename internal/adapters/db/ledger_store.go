// internal/adapters/db/ledger_store.go
package db

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/ammerola/kasir-be/internal/core/domain"
	"github.com/ammerola/kasir-be/internal/core/ports"
)

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// LedgerStore implements ports.LedgerStore on Postgres
type LedgerStore struct {
	db     *Database
	logger *slog.Logger
}

var _ ports.LedgerStore = (*LedgerStore)(nil)

// NewLedgerStore creates a new Postgres-backed ledger store
func NewLedgerStore(db *Database, logger *slog.Logger) *LedgerStore {
	return &LedgerStore{
		db:     db,
		logger: logger.With(slog.String("repository", "ledger")),
	}
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, domain.ErrDataSourceUnavailable, err)
}

func inPeriod(column string, p domain.Period) squirrel.And {
	return squirrel.And{
		squirrel.GtOrEq{column: p.Start},
		squirrel.Lt{column: p.End},
	}
}

func salesQuery(p domain.Period) squirrel.SelectBuilder {
	return psql.Select(
		"s.id", "s.total_items", "s.total_amount", "s.discount", "s.discount_type",
		"s.payment_method", "s.member_id", "COALESCE(m.name, '')",
		"s.user_id", "COALESCE(u.name, '')", "s.created_at",
	).
		From("sales s").
		LeftJoin("members m ON m.id = s.member_id").
		LeftJoin("users u ON u.id = s.user_id").
		Where(inPeriod("s.created_at", p)).
		OrderBy("s.created_at ASC", "s.id ASC")
}

func saleItemsQuery(p domain.Period) squirrel.SelectBuilder {
	return psql.Select(
		"si.id", "si.sale_id", "si.category_id", "COALESCE(c.name, '')",
		"si.unit_price", "si.quantity", "si.discount", "si.subtotal", "si.created_at",
	).
		From("sale_items si").
		Join("sales s ON s.id = si.sale_id").
		LeftJoin("categories c ON c.id = si.category_id").
		Where(inPeriod("s.created_at", p)).
		OrderBy("s.created_at ASC", "si.id ASC")
}

func purchaseItemsQuery(p domain.Period) squirrel.SelectBuilder {
	return psql.Select(
		"pi.id", "pi.purchase_id", "pi.category_id", "COALESCE(c.name, '')",
		"COALESCE(sp.name, '')", "pi.unit_cost", "pi.quantity", "pi.subtotal", "pi.created_at",
	).
		From("purchase_items pi").
		Join("purchases p ON p.id = pi.purchase_id").
		LeftJoin("categories c ON c.id = pi.category_id").
		LeftJoin("suppliers sp ON sp.id = p.supplier_id").
		Where(inPeriod("p.created_at", p)).
		OrderBy("p.created_at ASC", "pi.id ASC")
}

func expensesQuery(p domain.Period) squirrel.SelectBuilder {
	return psql.Select("id", "description", "category", "amount", "created_at").
		From("expenses").
		Where(inPeriod("created_at", p)).
		OrderBy("created_at ASC", "id ASC")
}

func (r *LedgerStore) query(ctx context.Context, op string, b squirrel.SelectBuilder) (pgx.Rows, error) {
	sql, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build query: %w", op, err)
	}
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, unavailable(op, err)
	}
	return rows, nil
}

func uuidPtr(v pgtype.UUID) *uuid.UUID {
	if !v.Valid {
		return nil
	}
	id := uuid.UUID(v.Bytes)
	return &id
}

func uuidOrNil(v pgtype.UUID) uuid.UUID {
	if !v.Valid {
		return uuid.Nil
	}
	return uuid.UUID(v.Bytes)
}

func nullUUID(id uuid.UUID) interface{} {
	if id == uuid.Nil {
		return nil
	}
	return id
}

// ListSales returns the sales created inside the period
func (r *LedgerStore) ListSales(ctx context.Context, period domain.Period) ([]domain.Sale, error) {
	rows, err := r.query(ctx, "list sales", salesQuery(period))
	if err != nil {
		return nil, err
	}

	sales, err := ScanMany(rows, func(row pgx.Rows) (domain.Sale, error) {
		var s domain.Sale
		var discountType, method string
		var memberID, userID pgtype.UUID
		err := row.Scan(
			&s.ID, &s.TotalItems, &s.TotalAmount, &s.Discount, &discountType,
			&method, &memberID, &s.MemberName, &userID, &s.CashierName, &s.CreatedAt,
		)
		s.DiscountType = domain.DiscountType(discountType)
		s.PaymentMethod = domain.PaymentMethod(method)
		s.MemberID = uuidPtr(memberID)
		s.UserID = uuidOrNil(userID)
		return s, err
	})
	if err != nil {
		return nil, unavailable("scan sales", err)
	}

	r.logger.DebugContext(ctx, "sales loaded",
		slog.Int("count", len(sales)),
		slog.String("period", period.Key()))
	return sales, nil
}

// ListSaleItems returns the sale lines created inside the period
func (r *LedgerStore) ListSaleItems(ctx context.Context, period domain.Period) ([]domain.SaleLineItem, error) {
	rows, err := r.query(ctx, "list sale items", saleItemsQuery(period))
	if err != nil {
		return nil, err
	}

	items, err := ScanMany(rows, func(row pgx.Rows) (domain.SaleLineItem, error) {
		var i domain.SaleLineItem
		var categoryID pgtype.UUID
		err := row.Scan(
			&i.ID, &i.SaleID, &categoryID, &i.CategoryName,
			&i.UnitPrice, &i.Quantity, &i.Discount, &i.Subtotal, &i.CreatedAt,
		)
		i.CategoryID = uuidOrNil(categoryID)
		return i, err
	})
	if err != nil {
		return nil, unavailable("scan sale items", err)
	}
	return items, nil
}

// ListPurchaseItems returns the purchase lines created inside the period
func (r *LedgerStore) ListPurchaseItems(ctx context.Context, period domain.Period) ([]domain.PurchaseLineItem, error) {
	rows, err := r.query(ctx, "list purchase items", purchaseItemsQuery(period))
	if err != nil {
		return nil, err
	}

	items, err := ScanMany(rows, func(row pgx.Rows) (domain.PurchaseLineItem, error) {
		var i domain.PurchaseLineItem
		var categoryID pgtype.UUID
		err := row.Scan(
			&i.ID, &i.PurchaseID, &categoryID, &i.CategoryName, &i.SupplierName,
			&i.UnitCost, &i.Quantity, &i.Subtotal, &i.CreatedAt,
		)
		i.CategoryID = uuidOrNil(categoryID)
		return i, err
	})
	if err != nil {
		return nil, unavailable("scan purchase items", err)
	}
	return items, nil
}

// ListExpenses returns the expenses recorded inside the period
func (r *LedgerStore) ListExpenses(ctx context.Context, period domain.Period) ([]domain.Expense, error) {
	rows, err := r.query(ctx, "list expenses", expensesQuery(period))
	if err != nil {
		return nil, err
	}

	expenses, err := ScanMany(rows, func(row pgx.Rows) (domain.Expense, error) {
		var e domain.Expense
		err := row.Scan(&e.ID, &e.Description, &e.Category, &e.Amount, &e.CreatedAt)
		return e, err
	})
	if err != nil {
		return nil, unavailable("scan expenses", err)
	}
	return expenses, nil
}

// ListCategories returns the whole catalog ordered by name
func (r *LedgerStore) ListCategories(ctx context.Context) ([]domain.Category, error) {
	b := psql.Select("id", "name", "stock", "price", "created_at", "updated_at").
		From("categories").
		OrderBy("name ASC")

	rows, err := r.query(ctx, "list categories", b)
	if err != nil {
		return nil, err
	}

	categories, err := ScanMany(rows, func(row pgx.Rows) (domain.Category, error) {
		var c domain.Category
		err := row.Scan(&c.ID, &c.Name, &c.Stock, &c.Price, &c.CreatedAt, &c.UpdatedAt)
		return c, err
	})
	if err != nil {
		return nil, unavailable("scan categories", err)
	}
	return categories, nil
}

// Ping checks connectivity
func (r *LedgerStore) Ping(ctx context.Context) error {
	if err := r.db.Ping(ctx); err != nil {
		return unavailable("ping", err)
	}
	return nil
}

// Health reports connection pool statistics
func (r *LedgerStore) Health(ctx context.Context) map[string]interface{} {
	return r.db.Health(ctx)
}

// CreateSale stores a sale with its lines and removes the sold quantity
// from category stock in one transaction.
func (r *LedgerStore) CreateSale(ctx context.Context, sale *domain.Sale) error {
	if sale.ID == uuid.Nil {
		sale.ID = uuid.New()
	}
	if sale.CreatedAt.IsZero() {
		sale.CreatedAt = time.Now()
	}
	if err := sale.Validate(); err != nil {
		return err
	}

	return r.db.Transaction(ctx, func(tx pgx.Tx) error {
		var memberID interface{}
		if sale.MemberID != nil {
			memberID = *sale.MemberID
		}

		sql, args, err := psql.Insert("sales").
			Columns("id", "total_items", "total_amount", "discount", "discount_type",
				"payment_method", "member_id", "user_id", "created_at").
			Values(sale.ID, sale.TotalItems, sale.TotalAmount, sale.Discount, string(sale.DiscountType),
				string(sale.PaymentMethod), memberID, nullUUID(sale.UserID), sale.CreatedAt).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build sale insert: %w", err)
		}
		if _, err := tx.Exec(ctx, sql, args...); err != nil {
			return fmt.Errorf("failed to insert sale: %w", err)
		}

		if len(sale.Items) == 0 {
			return nil
		}

		batch := &pgx.Batch{}
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

			batch.Queue(`
				INSERT INTO sale_items (id, sale_id, category_id, unit_price, quantity, discount, subtotal, created_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
				item.ID, item.SaleID, nullUUID(item.CategoryID), item.UnitPrice,
				item.Quantity, item.Discount, item.Subtotal, item.CreatedAt)
			if item.CategoryID != uuid.Nil {
				batch.Queue(`UPDATE categories SET stock = stock - $1, updated_at = NOW() WHERE id = $2`,
					item.Quantity, item.CategoryID)
			}
		}

		return sendBatch(ctx, tx, batch)
	})
}

// CreatePurchase stores a purchase with its lines and adds the received
// quantity to category stock in one transaction.
func (r *LedgerStore) CreatePurchase(ctx context.Context, purchase *domain.Purchase) error {
	if purchase.ID == uuid.Nil {
		purchase.ID = uuid.New()
	}
	if purchase.CreatedAt.IsZero() {
		purchase.CreatedAt = time.Now()
	}
	if purchase.DiscountType == "" {
		purchase.DiscountType = domain.DiscountFixed
	}
	if err := purchase.Validate(); err != nil {
		return err
	}

	return r.db.Transaction(ctx, func(tx pgx.Tx) error {
		sql, args, err := psql.Insert("purchases").
			Columns("id", "supplier_id", "total_items", "total_amount", "discount",
				"discount_type", "user_id", "created_at").
			Values(purchase.ID, nullUUID(purchase.SupplierID), purchase.TotalItems, purchase.TotalAmount,
				purchase.Discount, string(purchase.DiscountType), nullUUID(purchase.UserID), purchase.CreatedAt).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build purchase insert: %w", err)
		}
		if _, err := tx.Exec(ctx, sql, args...); err != nil {
			return fmt.Errorf("failed to insert purchase: %w", err)
		}

		if len(purchase.Items) == 0 {
			return nil
		}

		batch := &pgx.Batch{}
		for i := range purchase.Items {
			item := &purchase.Items[i]
			if item.ID == uuid.Nil {
				item.ID = uuid.New()
			}
			item.PurchaseID = purchase.ID
			if item.CreatedAt.IsZero() {
				item.CreatedAt = purchase.CreatedAt
			}

			batch.Queue(`
				INSERT INTO purchase_items (id, purchase_id, category_id, unit_cost, quantity, subtotal, created_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7)`,
				item.ID, item.PurchaseID, nullUUID(item.CategoryID), item.UnitCost,
				item.Quantity, item.Subtotal, item.CreatedAt)
			if item.CategoryID != uuid.Nil {
				batch.Queue(`UPDATE categories SET stock = stock + $1, updated_at = NOW() WHERE id = $2`,
					item.Quantity, item.CategoryID)
			}
		}

		return sendBatch(ctx, tx, batch)
	})
}

// CreateExpenses inserts expenses in a single statement
func (r *LedgerStore) CreateExpenses(ctx context.Context, expenses []domain.Expense) error {
	if len(expenses) == 0 {
		return nil
	}

	b := psql.Insert("expenses").Columns("id", "description", "category", "amount", "created_at")
	for i := range expenses {
		e := &expenses[i]
		if e.ID == uuid.Nil {
			e.ID = uuid.New()
		}
		if e.CreatedAt.IsZero() {
			e.CreatedAt = time.Now()
		}
		if err := e.Validate(); err != nil {
			return err
		}
		b = b.Values(e.ID, e.Description, e.Category, e.Amount, e.CreatedAt)
	}

	sql, args, err := b.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build expense insert: %w", err)
	}
	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("failed to insert expenses: %w", err)
	}

	r.logger.InfoContext(ctx, "expenses recorded", slog.Int("count", len(expenses)))
	return nil
}

// UpsertCategory creates a category or updates stock and price of the
// category with the same name.
func (r *LedgerStore) UpsertCategory(ctx context.Context, category *domain.Category) error {
	if err := category.Validate(); err != nil {
		return err
	}
	if category.ID == uuid.Nil {
		category.ID = uuid.New()
	}

	err := r.db.QueryRow(ctx, `
		INSERT INTO categories (id, name, stock, price)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (name) DO UPDATE SET
			stock = EXCLUDED.stock,
			price = EXCLUDED.price,
			updated_at = NOW()
		RETURNING id, created_at, updated_at`,
		category.ID, category.Name, category.Stock, category.Price,
	).Scan(&category.ID, &category.CreatedAt, &category.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert category %s: %w", category.Name, err)
	}
	return nil
}

// UpsertUser creates or renames a cashier
func (r *LedgerStore) UpsertUser(ctx context.Context, user *domain.User) error {
	return r.upsertParty(ctx, "users", `
		INSERT INTO users (id, name, email, role) VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, email = EXCLUDED.email, role = EXCLUDED.role`,
		&user.ID, user.Name, user.Email, user.Role)
}

// UpsertMember creates or updates a member
func (r *LedgerStore) UpsertMember(ctx context.Context, member *domain.Member) error {
	return r.upsertParty(ctx, "members", `
		INSERT INTO members (id, name, phone, address) VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, phone = EXCLUDED.phone, address = EXCLUDED.address`,
		&member.ID, member.Name, member.Phone, member.Address)
}

// UpsertSupplier creates or updates a supplier
func (r *LedgerStore) UpsertSupplier(ctx context.Context, supplier *domain.Supplier) error {
	return r.upsertParty(ctx, "suppliers", `
		INSERT INTO suppliers (id, name, phone, address) VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, phone = EXCLUDED.phone, address = EXCLUDED.address`,
		&supplier.ID, supplier.Name, supplier.Phone, supplier.Address)
}

func (r *LedgerStore) upsertParty(ctx context.Context, table, sql string, id *uuid.UUID, name, a, b string) error {
	if name == "" {
		return fmt.Errorf("%w: %s name is required", domain.ErrInvalidRecord, table)
	}
	if *id == uuid.Nil {
		*id = uuid.New()
	}
	if _, err := r.db.Exec(ctx, sql, *id, name, a, b); err != nil {
		return fmt.Errorf("failed to upsert %s: %w", table, err)
	}
	return nil
}

func sendBatch(ctx context.Context, tx pgx.Tx, batch *pgx.Batch) error {
	br := tx.SendBatch(ctx, batch)
	defer br.Close()

	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("batch statement %d failed: %w", i, err)
		}
	}
	return br.Close()
}
