// internal/core/domain/purchase.go
package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Purchase is a stock intake from a supplier
type Purchase struct {
	ID           uuid.UUID       `json:"id"`
	SupplierID   uuid.UUID       `json:"supplier_id"`
	SupplierName string          `json:"supplier_name,omitempty"`
	TotalItems   int             `json:"total_items"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	Discount     decimal.Decimal `json:"discount"`
	DiscountType DiscountType    `json:"discount_type"`
	UserID       uuid.UUID       `json:"user_id"`
	CreatedAt    time.Time       `json:"created_at"`

	Items []PurchaseLineItem `json:"items,omitempty"`
}

// Validate checks the purchase invariants
func (p *Purchase) Validate() error {
	if p.TotalAmount.IsNegative() {
		return fmt.Errorf("%w: purchase %s has negative total", ErrInvalidRecord, p.ID)
	}
	if p.DiscountType != "" && !p.DiscountType.IsValid() {
		return fmt.Errorf("%w: purchase %s has unknown discount type %q", ErrInvalidRecord, p.ID, p.DiscountType)
	}
	for idx := range p.Items {
		if err := p.Items[idx].Validate(); err != nil {
			return err
		}
	}
	return nil
}

// PurchaseLineItem is one category line within a purchase
type PurchaseLineItem struct {
	ID           uuid.UUID       `json:"id"`
	PurchaseID   uuid.UUID       `json:"purchase_id"`
	CategoryID   uuid.UUID       `json:"category_id"`
	CategoryName string          `json:"category_name"`
	SupplierName string          `json:"supplier_name,omitempty"`
	UnitCost     decimal.Decimal `json:"unit_cost"`
	Quantity     int             `json:"quantity"`
	Subtotal     decimal.Decimal `json:"subtotal"`
	CreatedAt    time.Time       `json:"created_at"`
}

// Validate checks the line item invariants
func (i *PurchaseLineItem) Validate() error {
	if i.Quantity <= 0 {
		return fmt.Errorf("%w: purchase item %s has non-positive quantity %d", ErrInvalidRecord, i.ID, i.Quantity)
	}
	if i.Subtotal.IsNegative() || i.UnitCost.IsNegative() {
		return fmt.Errorf("%w: purchase item %s has negative amount", ErrInvalidRecord, i.ID)
	}
	return nil
}
