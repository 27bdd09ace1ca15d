// cmd/seeder/ledger.go
package main

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tealeg/xlsx/v3"

	"github.com/ammerola/kasir-be/internal/core/domain"
	"github.com/ammerola/kasir-be/internal/workers"
)

// sales ledger columns, matched by header text
var ledgerColumns = map[string]string{
	"date":           "date",
	"tanggal":        "date",
	"receipt":        "receipt",
	"nota":           "receipt",
	"no nota":        "receipt",
	"category":       "category",
	"kategori":       "category",
	"item":           "category",
	"qty":            "quantity",
	"quantity":       "quantity",
	"unit price":     "price",
	"price":          "price",
	"harga":          "price",
	"discount":       "discount",
	"diskon":         "discount",
	"order discount": "order_discount",
	"diskon nota":    "order_discount",
	"payment":        "payment",
	"payment method": "payment",
	"pembayaran":     "payment",
	"member":         "member",
	"pelanggan":      "member",
	"cashier":        "cashier",
	"kasir":          "cashier",
}

// ledgerLine is one category line read from the ledger
type ledgerLine struct {
	Category  string
	Quantity  int
	UnitPrice decimal.Decimal
	Discount  decimal.Decimal
}

// ledgerSale groups the rows sharing a receipt number
type ledgerSale struct {
	Receipt       string
	CreatedAt     time.Time
	Payment       domain.PaymentMethod
	Member        string
	Cashier       string
	OrderDiscount decimal.Decimal
	Lines         []ledgerLine
}

// parseSalesLedger reads the first sheet of a sales ledger workbook. Rows
// without a receipt number become single-line sales. Bad rows are skipped
// and reported as warnings.
func parseSalesLedger(data []byte, loc *time.Location) ([]ledgerSale, []string, error) {
	file, err := xlsx.OpenBinary(data)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open ledger: %w", err)
	}
	if len(file.Sheets) == 0 {
		return nil, nil, fmt.Errorf("ledger has no sheets")
	}

	var (
		warnings []string
		columns  map[string]int
		rowIdx   int
		order    []string
	)
	sales := make(map[string]*ledgerSale)

	err = file.Sheets[0].ForEachRow(func(r *xlsx.Row) error {
		rowIdx++
		if columns == nil {
			columns = ledgerHeader(r)
			for _, required := range []string{"date", "category", "price"} {
				if _, ok := columns[required]; !ok {
					return fmt.Errorf("ledger header has no %s column", required)
				}
			}
			return nil
		}

		sale, line, err := parseLedgerRow(r, columns, loc)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("row %d: %v", rowIdx, err))
			return nil
		}
		if sale == nil {
			return nil
		}

		key := sale.Receipt
		if key == "" {
			key = "row-" + strconv.Itoa(rowIdx)
		}
		existing, ok := sales[key]
		if !ok {
			sales[key] = sale
			order = append(order, key)
			existing = sale
		} else if !sale.OrderDiscount.IsZero() {
			existing.OrderDiscount = sale.OrderDiscount
		}
		existing.Lines = append(existing.Lines, line)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	result := make([]ledgerSale, 0, len(order))
	for _, key := range order {
		result = append(result, *sales[key])
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, warnings, nil
}

func ledgerHeader(r *xlsx.Row) map[string]int {
	columns := make(map[string]int)
	r.ForEachCell(func(c *xlsx.Cell) error {
		col, _ := c.GetCoordinates()
		if name, ok := ledgerColumns[normalizeName(c.String())]; ok {
			columns[name] = col
		}
		return nil
	})
	return columns
}

func parseLedgerRow(r *xlsx.Row, columns map[string]int, loc *time.Location) (*ledgerSale, ledgerLine, error) {
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

	var line ledgerLine
	line.Category = text("category")
	rawPrice := text("price")
	if line.Category == "" && rawPrice == "" {
		return nil, line, nil
	}
	if line.Category == "" {
		return nil, line, fmt.Errorf("category is empty")
	}

	price, err := workers.ParseAmount(rawPrice)
	if err != nil {
		return nil, line, err
	}
	line.UnitPrice = price

	line.Quantity = 1
	if raw := text("quantity"); raw != "" {
		qty, err := strconv.Atoi(raw)
		if err != nil || qty <= 0 {
			return nil, line, fmt.Errorf("invalid quantity %q", raw)
		}
		line.Quantity = qty
	}

	if raw := text("discount"); raw != "" {
		if line.Discount, err = workers.ParseAmount(raw); err != nil {
			return nil, line, err
		}
	}

	createdAt, err := workers.ParseCellDate(cell("date"), loc)
	if err != nil {
		return nil, line, err
	}

	payment := domain.PaymentCash
	if raw := strings.ToLower(text("payment")); raw != "" {
		payment = domain.PaymentMethod(raw)
		if !payment.IsValid() {
			return nil, line, fmt.Errorf("unknown payment method %q", raw)
		}
	}

	sale := &ledgerSale{
		Receipt:   text("receipt"),
		CreatedAt: createdAt,
		Payment:   payment,
		Member:    text("member"),
		Cashier:   text("cashier"),
	}
	if raw := text("order_discount"); raw != "" {
		if sale.OrderDiscount, err = workers.ParseAmount(raw); err != nil {
			return nil, line, err
		}
	}
	return sale, line, nil
}

// toSale resolves names against the catalog and totals the lines
func (s ledgerSale) toSale(ctx context.Context, cat *catalog) (*domain.Sale, error) {
	sale := &domain.Sale{
		PaymentMethod: s.Payment,
		Discount:      s.OrderDiscount,
		DiscountType:  domain.DiscountFixed,
		CreatedAt:     s.CreatedAt,
	}

	var err error
	if sale.UserID, err = cat.user(ctx, s.Cashier); err != nil {
		return nil, err
	}
	if memberID, err := cat.member(ctx, s.Member); err != nil {
		return nil, err
	} else if memberID != uuid.Nil {
		sale.MemberID = &memberID
	}

	for _, l := range s.Lines {
		categoryID, err := cat.category(ctx, l.Category, l.UnitPrice)
		if err != nil {
			return nil, err
		}
		item := domain.SaleLineItem{
			CategoryID:   categoryID,
			CategoryName: l.Category,
			UnitPrice:    l.UnitPrice,
			Quantity:     l.Quantity,
			Discount:     l.Discount,
			CreatedAt:    s.CreatedAt,
		}
		item.Subtotal = item.ComputeSubtotal()

		sale.Items = append(sale.Items, item)
		sale.TotalItems += l.Quantity
		sale.TotalAmount = sale.TotalAmount.Add(item.Subtotal)
	}
	return sale, nil
}
