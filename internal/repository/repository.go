// Package repository defines the entity store the services read from and
// write to. Backends live in the sub-packages.
package repository

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mamadbah2/stockledger/internal/domain/models"
)

// Store is the CRUD surface for stock items, ledger entries and departments.
// Get and Delete return models.ErrNotFound for unknown ids.
type Store interface {
	GetStockItem(ctx context.Context, id string) (models.StockItem, error)
	ListStockItems(ctx context.Context, filter StockFilter) ([]models.StockItem, error)
	SaveStockItem(ctx context.Context, item models.StockItem) error
	DeleteStockItem(ctx context.Context, id string) error

	GetLedgerEntry(ctx context.Context, id string) (models.LedgerEntry, error)
	ListLedgerEntries(ctx context.Context, filter EntryFilter) ([]models.LedgerEntry, error)
	SaveLedgerEntry(ctx context.Context, entry models.LedgerEntry) error
	DeleteLedgerEntry(ctx context.Context, id string) error

	GetDepartment(ctx context.Context, id string) (models.Department, error)
	ListDepartments(ctx context.Context) ([]models.Department, error)
	SaveDepartment(ctx context.Context, dept models.Department) error
	DeleteDepartment(ctx context.Context, id string) error
}

// StockFilter narrows ListStockItems. Zero fields match everything.
type StockFilter struct {
	NameContains string
	Category     string
	MinPrice     *decimal.Decimal
	MaxPrice     *decimal.Decimal
	// BelowQuantity keeps items whose quantity is strictly lower. Ignored when 0.
	BelowQuantity int
}

// Matches applies the filter to a single item.
func (f StockFilter) Matches(item models.StockItem) bool {
	if f.NameContains != "" && !strings.Contains(strings.ToLower(item.Name), strings.ToLower(f.NameContains)) {
		return false
	}
	if f.Category != "" && !strings.EqualFold(item.Category, f.Category) {
		return false
	}
	if f.MinPrice != nil && item.UnitPrice.LessThan(*f.MinPrice) {
		return false
	}
	if f.MaxPrice != nil && item.UnitPrice.GreaterThan(*f.MaxPrice) {
		return false
	}
	if f.BelowQuantity > 0 && item.Quantity >= f.BelowQuantity {
		return false
	}
	return true
}

// EntryFilter narrows ListLedgerEntries. From is inclusive, To exclusive.
type EntryFilter struct {
	From             time.Time
	To               time.Time
	DepartmentID     string
	Direction        models.Direction
	CategoryContains string
}

// Matches applies the filter to a single entry.
func (f EntryFilter) Matches(entry models.LedgerEntry) bool {
	if !f.From.IsZero() && entry.Date.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && !entry.Date.Before(f.To) {
		return false
	}
	if f.DepartmentID != "" && entry.DepartmentID != f.DepartmentID {
		return false
	}
	if f.Direction != "" && entry.Direction != f.Direction {
		return false
	}
	if f.CategoryContains != "" && !strings.Contains(strings.ToLower(entry.Category), strings.ToLower(f.CategoryContains)) {
		return false
	}
	return true
}
