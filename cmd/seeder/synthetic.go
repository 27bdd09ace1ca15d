// cmd/seeder/synthetic.go
package main

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ammerola/kasir-be/internal/core/domain"
)

type syntheticProduct struct {
	name  string
	price int64
	cost  int64
}

var syntheticProducts = []syntheticProduct{
	{"Beras 5kg", 72000, 61000},
	{"Minyak Goreng 2L", 36000, 30500},
	{"Gula Pasir 1kg", 17500, 14800},
	{"Telur 1kg", 29000, 25000},
	{"Kopi Sachet", 1500, 1100},
	{"Mie Instan", 3500, 2700},
	{"Sabun Mandi", 4500, 3400},
	{"Air Mineral 600ml", 4000, 2600},
	{"Teh Celup", 6500, 5000},
	{"Susu Kental Manis", 12500, 10200},
}

var syntheticExpenses = []struct {
	description string
	category    string
	amount      int64
	dayOfMonth  int
}{
	{"Listrik toko", "utilitas", 450000, 5},
	{"Air PDAM", "utilitas", 85000, 5},
	{"Gaji karyawan", "gaji", 2500000, 28},
	{"Sewa ruko", "sewa", 1500000, 1},
	{"Plastik kemasan", "operasional", 120000, 15},
}

var (
	syntheticCashiers = []string{"Sari", "Budi", "Dewi"}
	syntheticMembers  = []string{"", "", "", "Pak Ahmad", "Bu Rina", "Toko Makmur"}
	syntheticPayments = []domain.PaymentMethod{
		domain.PaymentCash, domain.PaymentCash, domain.PaymentCash,
		domain.PaymentTransfer, domain.PaymentDebit,
	}
)

// syntheticLedger is a generated set of ledger entries
type syntheticLedger struct {
	Purchases []ledgerPurchase
	Sales     []ledgerSale
	Expenses  []domain.Expense
}

// ledgerPurchase is a weekly restock from one supplier
type ledgerPurchase struct {
	Supplier string
	Date     time.Time
	Lines    []invoiceLine
}

// generateLedger builds days of trading ending the day before end. The
// same seed always yields the same ledger.
func generateLedger(end time.Time, days int, seed uint64, loc *time.Location) syntheticLedger {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	endDay := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, loc)
	first := endDay.AddDate(0, 0, -days)

	var ledger syntheticLedger
	for d := 0; d < days; d++ {
		day := first.AddDate(0, 0, d)

		if d%7 == 0 {
			ledger.Purchases = append(ledger.Purchases, restock(rng, day.Add(7*time.Hour)))
		}

		for _, e := range syntheticExpenses {
			if day.Day() == e.dayOfMonth {
				ledger.Expenses = append(ledger.Expenses, domain.Expense{
					Description: e.description,
					Category:    e.category,
					Amount:      decimal.NewFromInt(e.amount),
					CreatedAt:   day.Add(10 * time.Hour),
				})
			}
		}

		transactions := 8 + rng.IntN(12)
		if wd := day.Weekday(); wd == time.Saturday || wd == time.Sunday {
			transactions += 6
		}
		for n := 0; n < transactions; n++ {
			at := day.Add(time.Duration(8*60+rng.IntN(13*60)) * time.Minute)
			ledger.Sales = append(ledger.Sales, randomSale(rng, at, fmt.Sprintf("%s-%03d", day.Format("20060102"), n+1)))
		}
	}
	return ledger
}

func restock(rng *rand.Rand, at time.Time) ledgerPurchase {
	p := ledgerPurchase{Supplier: "CV Sumber Rejeki", Date: at}
	if rng.IntN(2) == 0 {
		p.Supplier = "PT Grosir Nusantara"
	}
	for _, prod := range syntheticProducts {
		qty := 20 + rng.IntN(40)
		cost := decimal.NewFromInt(prod.cost)
		p.Lines = append(p.Lines, invoiceLine{
			Category: prod.name,
			Quantity: qty,
			UnitCost: cost,
			Subtotal: cost.Mul(decimal.NewFromInt(int64(qty))),
		})
	}
	return p
}

func randomSale(rng *rand.Rand, at time.Time, receipt string) ledgerSale {
	sale := ledgerSale{
		Receipt:   receipt,
		CreatedAt: at,
		Payment:   syntheticPayments[rng.IntN(len(syntheticPayments))],
		Member:    syntheticMembers[rng.IntN(len(syntheticMembers))],
		Cashier:   syntheticCashiers[rng.IntN(len(syntheticCashiers))],
	}

	picked := make(map[int]bool)
	for lines := 1 + rng.IntN(4); len(sale.Lines) < lines; {
		idx := rng.IntN(len(syntheticProducts))
		if picked[idx] {
			continue
		}
		picked[idx] = true
		prod := syntheticProducts[idx]
		sale.Lines = append(sale.Lines, ledgerLine{
			Category:  prod.name,
			Quantity:  1 + rng.IntN(3),
			UnitPrice: decimal.NewFromInt(prod.price),
		})
	}

	if sale.Member != "" && rng.IntN(4) == 0 {
		sale.OrderDiscount = decimal.NewFromInt(int64(500 * (1 + rng.IntN(6))))
	}
	return sale
}

// registerProducts creates the synthetic categories with their shelf prices
func registerProducts(ctx context.Context, cat *catalog) error {
	for _, prod := range syntheticProducts {
		if _, err := cat.category(ctx, prod.name, decimal.NewFromInt(prod.price)); err != nil {
			return err
		}
	}
	return nil
}

func (p ledgerPurchase) toPurchase(ctx context.Context, cat *catalog) (*domain.Purchase, error) {
	inv := &supplierInvoice{Supplier: p.Supplier, Date: p.Date, Lines: p.Lines}
	return inv.toPurchase(ctx, cat)
}
