package models

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidQuantity indicates a zero or negative quantity.
	ErrInvalidQuantity = errors.New("quantity must be greater than zero")
	// ErrInvalidAmount indicates a zero or negative amount.
	ErrInvalidAmount = errors.New("amount must be greater than zero")
	// ErrInvalidInput covers the remaining field validation failures.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound is returned by stores when an entity does not exist.
	ErrNotFound = errors.New("entity not found")
	// ErrDepartmentNotFound indicates a ledger operation named an unknown department.
	ErrDepartmentNotFound = errors.New("department not found")
	// ErrInsufficientStock is the sentinel behind InsufficientStockError.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrBudgetExceeded is the sentinel behind BudgetExceededError.
	ErrBudgetExceeded = errors.New("budget exceeded")
)

// InsufficientStockError rejects a sell larger than the quantity on hand.
type InsufficientStockError struct {
	ItemID    string
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock: available %d, requested %d", e.Available, e.Requested)
}

func (e *InsufficientStockError) Unwrap() error {
	return ErrInsufficientStock
}

// BudgetExceededError rejects an expense that would push monthly spend past the ceiling.
type BudgetExceededError struct {
	DepartmentID string
	Ceiling      decimal.Decimal
	CurrentSpend decimal.Decimal
	Attempted    decimal.Decimal
}

func (e *BudgetExceededError) Error() string {
	return fmt.Sprintf("budget exceeded: ceiling %s, current spend %s, attempted %s",
		e.Ceiling.StringFixed(2), e.CurrentSpend.StringFixed(2), e.Attempted.StringFixed(2))
}

func (e *BudgetExceededError) Unwrap() error {
	return ErrBudgetExceeded
}

// Remaining is how much can still be spent this month, never below zero.
func (e *BudgetExceededError) Remaining() decimal.Decimal {
	left := e.Ceiling.Sub(e.CurrentSpend)
	if left.IsNegative() {
		return decimal.Zero
	}
	return left
}
