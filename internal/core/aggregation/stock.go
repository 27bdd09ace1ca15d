package aggregation

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ammerola/kasir-be/internal/core/domain"
)

// StockLevels reports current stock per category together with the
// quantities sold and purchased in the window. Turnover is sold / stock
// on hand, zero when nothing is on hand.
func (e *Engine) StockLevels(categories []domain.Category, sold []domain.SaleLineItem, purchased []domain.PurchaseLineItem) ([]domain.CategoryStock, int, decimal.Decimal, int) {
	soldByID := make(map[uuid.UUID]int)
	soldByName := make(map[string]int)
	for i := range sold {
		if sold[i].CategoryID != uuid.Nil {
			soldByID[sold[i].CategoryID] += sold[i].Quantity
		} else {
			soldByName[sold[i].CategoryName] += sold[i].Quantity
		}
	}
	boughtByID := make(map[uuid.UUID]int)
	boughtByName := make(map[string]int)
	for i := range purchased {
		if purchased[i].CategoryID != uuid.Nil {
			boughtByID[purchased[i].CategoryID] += purchased[i].Quantity
		} else {
			boughtByName[purchased[i].CategoryName] += purchased[i].Quantity
		}
	}

	rows := make([]domain.CategoryStock, 0, len(categories))
	totalStock := 0
	totalValue := decimal.Zero
	lowCount := 0

	for i := range categories {
		c := &categories[i]
		value := c.Price.Mul(decimal.NewFromInt(int64(c.Stock)))
		soldQty := soldByID[c.ID] + soldByName[c.Name]
		row := domain.CategoryStock{
			CategoryID:        c.ID,
			Category:          c.Name,
			Stock:             c.Stock,
			Price:             money(c.Price),
			StockValue:        money(value),
			SoldQuantity:      soldQty,
			PurchasedQuantity: boughtByID[c.ID] + boughtByName[c.Name],
			LowStock:          c.Stock <= e.opts.LowStockThreshold,
		}
		if c.Stock > 0 {
			row.TurnoverRate = decimal.NewFromInt(int64(soldQty)).
				Div(decimal.NewFromInt(int64(c.Stock))).Round(2).InexactFloat64()
		}
		if row.LowStock {
			lowCount++
		}
		totalStock += c.Stock
		totalValue = totalValue.Add(value)
		rows = append(rows, row)
	}

	return rows, totalStock, money(totalValue), lowCount
}
