// Package guard validates state-changing operations against a snapshot before
// they are committed. Every check is a pure function; only ApplySell mutates,
// and only the item it is handed.
package guard

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/mamadbah2/stockledger/internal/domain/models"
	"github.com/mamadbah2/stockledger/internal/service/aggregation"
)

// CanSell reports whether quantity units can be taken from item.
func CanSell(item models.StockItem, quantity int) bool {
	return quantity > 0 && item.Quantity >= quantity
}

// CheckSell explains why CanSell would fail, or returns nil.
func CheckSell(item models.StockItem, quantity int) error {
	if quantity <= 0 {
		return models.ErrInvalidQuantity
	}
	if item.Quantity < quantity {
		return &models.InsufficientStockError{
			ItemID:    item.ID,
			Available: item.Quantity,
			Requested: quantity,
		}
	}
	return nil
}

// ApplySell decrements item by quantity when CheckSell passes. On failure the
// item is left unchanged.
func ApplySell(item *models.StockItem, quantity int) error {
	if err := CheckSell(*item, quantity); err != nil {
		return err
	}
	item.Quantity -= quantity
	return nil
}

// CurrentSpend sums the department's expense entries inside the calendar month
// containing now, in now's location.
func CurrentSpend(departmentID string, entries []models.LedgerEntry, now time.Time) decimal.Decimal {
	start, end := aggregation.MonthRange(now.Year(), now.Month(), now.Location())
	return aggregation.SumBy(entries, func(e models.LedgerEntry) bool {
		return e.DepartmentID == departmentID &&
			e.Direction == models.DirectionExpense &&
			aggregation.InRange(e.Date, start, end)
	}, func(e models.LedgerEntry) decimal.Decimal { return e.Amount })
}

// CanSpend reports whether amount fits in the department's remaining budget
// for the month containing now. Budgets reset every calendar month.
func CanSpend(department models.Department, amount decimal.Decimal, periodEntries []models.LedgerEntry, now time.Time) bool {
	return CheckSpend(department, amount, periodEntries, now) == nil
}

// CheckSpend explains why CanSpend would fail, or returns nil.
func CheckSpend(department models.Department, amount decimal.Decimal, periodEntries []models.LedgerEntry, now time.Time) error {
	if !amount.IsPositive() {
		return models.ErrInvalidAmount
	}

	spent := CurrentSpend(department.ID, periodEntries, now)
	if spent.Add(amount).GreaterThan(department.BudgetCeiling) {
		return &models.BudgetExceededError{
			DepartmentID: department.ID,
			Ceiling:      department.BudgetCeiling,
			CurrentSpend: spent,
			Attempted:    amount,
		}
	}
	return nil
}
