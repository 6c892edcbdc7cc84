package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockItem is a sellable product with its on-hand quantity.
type StockItem struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Category    string          `json:"category"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int             `json:"quantity"`
	Description string          `json:"description,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Value returns UnitPrice * Quantity.
func (s StockItem) Value() decimal.Decimal {
	return s.UnitPrice.Mul(decimal.NewFromInt(int64(s.Quantity)))
}

// SaleReceipt describes a committed sell operation.
type SaleReceipt struct {
	ItemID       string          `json:"item_id"`
	ItemName     string          `json:"item_name"`
	Quantity     int             `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	Total        decimal.Decimal `json:"total"`
	RemainingQty int             `json:"remaining_quantity"`
	Note         string          `json:"note,omitempty"`
	SoldAt       time.Time       `json:"sold_at"`
}
