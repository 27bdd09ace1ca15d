// internal/core/domain/sale.go
package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DiscountType tells how Sale.Discount is interpreted
type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

// IsValid reports whether the discount type is known
func (d DiscountType) IsValid() bool {
	return d == DiscountPercentage || d == DiscountFixed
}

// PaymentMethod represents how a sale was settled
type PaymentMethod string

const (
	PaymentCash     PaymentMethod = "cash"
	PaymentTransfer PaymentMethod = "transfer"
	PaymentDebit    PaymentMethod = "debit"
)

// IsValid reports whether the payment method is known
func (p PaymentMethod) IsValid() bool {
	switch p {
	case PaymentCash, PaymentTransfer, PaymentDebit:
		return true
	}
	return false
}

var hundred = decimal.NewFromInt(100)

// Sale is a completed checkout transaction
type Sale struct {
	ID            uuid.UUID       `json:"id"`
	TotalItems    int             `json:"total_items"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	Discount      decimal.Decimal `json:"discount"`
	DiscountType  DiscountType    `json:"discount_type"`
	PaymentMethod PaymentMethod   `json:"payment_method"`
	MemberID      *uuid.UUID      `json:"member_id,omitempty"`
	MemberName    string          `json:"member_name,omitempty"`
	UserID        uuid.UUID       `json:"user_id"`
	CashierName   string          `json:"cashier_name,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`

	Items []SaleLineItem `json:"items,omitempty"`
}

// Validate checks the sale invariants
func (s *Sale) Validate() error {
	if s.TotalAmount.IsNegative() {
		return fmt.Errorf("%w: sale %s has negative total", ErrInvalidRecord, s.ID)
	}
	if s.Discount.IsNegative() {
		return fmt.Errorf("%w: sale %s has negative discount", ErrInvalidRecord, s.ID)
	}
	if !s.DiscountType.IsValid() {
		return fmt.Errorf("%w: sale %s has unknown discount type %q", ErrInvalidRecord, s.ID, s.DiscountType)
	}
	if s.TotalItems < 0 {
		return fmt.Errorf("%w: sale %s has negative item count", ErrInvalidRecord, s.ID)
	}
	if s.CreatedAt.IsZero() {
		return fmt.Errorf("%w: sale %s has no timestamp", ErrInvalidRecord, s.ID)
	}
	return nil
}

// DiscountAmount resolves the stored discount into a currency amount,
// rounded to cents. A percentage discount applies to this sale's own total.
func (s *Sale) DiscountAmount() decimal.Decimal {
	if s.DiscountType == DiscountPercentage {
		return s.TotalAmount.Mul(s.Discount).Div(hundred).Round(2)
	}
	return s.Discount.Round(2)
}

// SaleLineItem is one category line within a sale
type SaleLineItem struct {
	ID           uuid.UUID       `json:"id"`
	SaleID       uuid.UUID       `json:"sale_id"`
	CategoryID   uuid.UUID       `json:"category_id"`
	CategoryName string          `json:"category_name"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	Quantity     int             `json:"quantity"`
	Discount     decimal.Decimal `json:"discount"`
	Subtotal     decimal.Decimal `json:"subtotal"`
	CreatedAt    time.Time       `json:"created_at"`
}

// Validate checks the line item invariants
func (i *SaleLineItem) Validate() error {
	if i.Quantity <= 0 {
		return fmt.Errorf("%w: sale item %s has non-positive quantity %d", ErrInvalidRecord, i.ID, i.Quantity)
	}
	if i.Subtotal.IsNegative() || i.UnitPrice.IsNegative() {
		return fmt.Errorf("%w: sale item %s has negative amount", ErrInvalidRecord, i.ID)
	}
	return nil
}

// ComputeSubtotal returns quantity x unit price less the line discount,
// never below zero.
func (i *SaleLineItem) ComputeSubtotal() decimal.Decimal {
	sub := i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity))).Sub(i.Discount)
	if sub.IsNegative() {
		return decimal.Zero
	}
	return sub
}
