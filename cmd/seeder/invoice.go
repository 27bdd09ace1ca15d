// cmd/seeder/invoice.go
package main

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"
	"github.com/shopspring/decimal"

	"github.com/ammerola/kasir-be/internal/core/domain"
	"github.com/ammerola/kasir-be/internal/workers"
)

var (
	invoiceHeaderRe   = regexp.MustCompile(`(?i)(ITEM.*QTY|BARANG.*(QTY|JML)|DESCRIPTION.*PRICE)`)
	invoiceFooterRe   = regexp.MustCompile(`(?i)^(SUB\s?TOTAL|TOTAL|GRAND TOTAL|TERBILANG)\b`)
	invoiceSupplierRe = regexp.MustCompile(`(?i)^(supplier|pemasok|vendor)\s*:\s*(.+)$`)
	invoiceDateRe     = regexp.MustCompile(`(?i)^(date|tanggal|tgl)\s*:\s*(.+)$`)
	invoiceNumberRe   = regexp.MustCompile(`(?i)^(invoice|faktur|no\.?)\s*(no\.?|#)?\s*:\s*(.+)$`)
	dashFillerRe      = regexp.MustCompile(`-{5,}`)
	spacesRe          = regexp.MustCompile(`\s+`)

	// description, quantity, unit cost and line total, amounts in Rp or plain
	invoiceLineRe = regexp.MustCompile(`^(.*?)\s+(\d{1,5})\s+(?:Rp\.?\s*)?([\d.,]+)\s+(?:Rp\.?\s*)?([\d.,]+)$`)
)

// invoiceLine is one purchased category on a supplier invoice
type invoiceLine struct {
	Category string
	Quantity int
	UnitCost decimal.Decimal
	Subtotal decimal.Decimal
}

// supplierInvoice is the purchase described by one PDF
type supplierInvoice struct {
	Number   string
	Supplier string
	Date     time.Time
	Lines    []invoiceLine
}

// InvoiceExtractor reads supplier invoices from PDF files
type InvoiceExtractor struct {
	location *time.Location
	logger   *slog.Logger
}

func NewInvoiceExtractor(loc *time.Location, logger *slog.Logger) *InvoiceExtractor {
	return &InvoiceExtractor{
		location: loc,
		logger:   logger.With(slog.String("component", "invoice_extractor")),
	}
}

// Extract parses the invoice at path. fallbackDate is used when the
// document carries no readable date.
func (e *InvoiceExtractor) Extract(path, number string, fallbackDate time.Time) (*supplierInvoice, error) {
	lines, err := e.extractTextLines(path)
	if err != nil {
		return nil, fmt.Errorf("failed to extract text: %w", err)
	}

	inv := e.parseInvoice(lines)
	if inv.Number == "" {
		inv.Number = number
	}
	if inv.Date.IsZero() {
		inv.Date = fallbackDate
	}

	e.logger.Info("extracted invoice",
		slog.String("invoice", inv.Number),
		slog.String("supplier", inv.Supplier),
		slog.Int("lines", len(inv.Lines)))
	return inv, nil
}

func (e *InvoiceExtractor) extractTextLines(path string) ([]string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var textLines []string
	for pageNum := 1; pageNum <= r.NumPage(); pageNum++ {
		page := r.Page(pageNum)
		if page.V.IsNull() {
			continue
		}

		rows, err := page.GetTextByRow()
		if err != nil {
			e.logger.Warn("failed to extract text from page",
				slog.Int("page", pageNum),
				slog.String("error", err.Error()))
			continue
		}
		for _, row := range rows {
			var sb strings.Builder
			for i, word := range row.Content {
				if i > 0 {
					sb.WriteByte(' ')
				}
				sb.WriteString(word.S)
			}
			textLines = append(textLines, sb.String())
		}
	}

	return textLines, nil
}

// parseInvoice reads header fields until the item table, then buffers
// description lines until a line ends with quantity, unit cost and total.
func (e *InvoiceExtractor) parseInvoice(textLines []string) *supplierInvoice {
	inv := &supplierInvoice{}

	start := -1
	for idx, raw := range textLines {
		line := strings.TrimSpace(raw)
		if m := invoiceSupplierRe.FindStringSubmatch(line); m != nil && inv.Supplier == "" {
			inv.Supplier = strings.TrimSpace(m[2])
		}
		if m := invoiceDateRe.FindStringSubmatch(line); m != nil && inv.Date.IsZero() {
			inv.Date = e.parseDate(strings.TrimSpace(m[2]))
		}
		if m := invoiceNumberRe.FindStringSubmatch(line); m != nil && inv.Number == "" {
			inv.Number = strings.TrimSpace(m[3])
		}
		if invoiceHeaderRe.MatchString(line) {
			start = idx + 1
			break
		}
	}
	if start < 0 {
		e.logger.Warn("no item table header found, scanning whole document")
		start = 0
	}

	var pending []string
	for _, raw := range textLines[start:] {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if invoiceFooterRe.MatchString(line) {
			break
		}
		if dashFillerRe.MatchString(line) {
			line = strings.TrimSpace(dashFillerRe.Split(line, 2)[0])
			if line == "" {
				continue
			}
		}

		m := invoiceLineRe.FindStringSubmatch(line)
		if m == nil {
			pending = append(pending, line)
			continue
		}

		desc := cleanDescription(strings.Join(append(pending, m[1]), " "))
		pending = pending[:0]
		if desc == "" {
			continue
		}

		qty, _ := strconv.Atoi(m[2])
		unitCost, err := workers.ParseAmount(m[3])
		if err != nil || qty <= 0 {
			e.logger.Debug("skipping unreadable invoice line", slog.String("line", line))
			continue
		}
		subtotal, err := workers.ParseAmount(m[4])
		if err != nil {
			subtotal = unitCost.Mul(decimal.NewFromInt(int64(qty)))
		}

		inv.Lines = append(inv.Lines, invoiceLine{
			Category: desc,
			Quantity: qty,
			UnitCost: unitCost,
			Subtotal: subtotal,
		})
	}

	return inv
}

func (e *InvoiceExtractor) parseDate(raw string) time.Time {
	for _, layout := range []string{domain.DateLayout, "02/01/2006", "02-01-2006", "2 January 2006", "02 Jan 2006"} {
		if t, err := time.ParseInLocation(layout, raw, e.location); err == nil {
			return t
		}
	}
	return time.Time{}
}

func cleanDescription(desc string) string {
	desc = dashFillerRe.ReplaceAllString(desc, " ")
	desc = spacesRe.ReplaceAllString(desc, " ")
	return strings.TrimSpace(desc)
}

// toPurchase resolves the supplier and categories and totals the invoice
func (inv *supplierInvoice) toPurchase(ctx context.Context, cat *catalog) (*domain.Purchase, error) {
	purchase := &domain.Purchase{
		DiscountType: domain.DiscountFixed,
		CreatedAt:    inv.Date,
	}

	var err error
	if purchase.SupplierID, err = cat.supplier(ctx, inv.Supplier); err != nil {
		return nil, err
	}
	purchase.SupplierName = inv.Supplier

	for _, l := range inv.Lines {
		categoryID, err := cat.category(ctx, l.Category, decimal.Zero)
		if err != nil {
			return nil, err
		}
		purchase.Items = append(purchase.Items, domain.PurchaseLineItem{
			CategoryID:   categoryID,
			CategoryName: l.Category,
			UnitCost:     l.UnitCost,
			Quantity:     l.Quantity,
			Subtotal:     l.Subtotal,
			CreatedAt:    inv.Date,
		})
		purchase.TotalItems += l.Quantity
		purchase.TotalAmount = purchase.TotalAmount.Add(l.Subtotal)
	}
	return purchase, nil
}
