package guard

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/stockledger/internal/domain/models"
)

func TestCanSell(t *testing.T) {
	item := models.StockItem{ID: "bread", Quantity: 5}

	tests := []struct {
		name string
		qty  int
		want bool
	}{
		{"zero", 0, false},
		{"negative", -1, false},
		{"partial", 3, true},
		{"exact", 5, true},
		{"oversell", 6, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CanSell(item, tc.qty))
		})
	}
}

func TestApplySell_InsufficientLeavesItemUnchanged(t *testing.T) {
	item := models.StockItem{ID: "bread", Quantity: 3}

	err := ApplySell(&item, 5)

	var stockErr *models.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 3, stockErr.Available)
	assert.Equal(t, 5, stockErr.Requested)
	assert.ErrorIs(t, err, models.ErrInsufficientStock)
	assert.Equal(t, "insufficient stock: available 3, requested 5", err.Error())
	assert.Equal(t, 3, item.Quantity)
}

func TestApplySell_InvalidQuantity(t *testing.T) {
	item := models.StockItem{Quantity: 3}

	assert.ErrorIs(t, ApplySell(&item, 0), models.ErrInvalidQuantity)
	assert.ErrorIs(t, ApplySell(&item, -2), models.ErrInvalidQuantity)
	assert.Equal(t, 3, item.Quantity)
}

func TestApplySell_DecrementsExactly(t *testing.T) {
	for q := 1; q <= 4; q++ {
		for n := 1; n <= q; n++ {
			item := models.StockItem{Quantity: q}
			require.NoError(t, ApplySell(&item, n))
			assert.Equal(t, q-n, item.Quantity)
		}
	}
}

func budgetFixture() (models.Department, []models.LedgerEntry, time.Time) {
	now := time.Date(2024, 6, 20, 12, 0, 0, 0, time.UTC)
	dept := models.Department{ID: "IT", Name: "IT", BudgetCeiling: decimal.NewFromInt(50000)}
	entries := []models.LedgerEntry{
		{DepartmentID: "IT", Direction: models.DirectionExpense, Amount: decimal.NewFromInt(30000), Date: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)},
		{DepartmentID: "IT", Direction: models.DirectionExpense, Amount: decimal.NewFromInt(15000), Date: time.Date(2024, 6, 18, 0, 0, 0, 0, time.UTC)},
		// ignored: previous month, income, other department
		{DepartmentID: "IT", Direction: models.DirectionExpense, Amount: decimal.NewFromInt(40000), Date: time.Date(2024, 5, 31, 23, 0, 0, 0, time.UTC)},
		{DepartmentID: "IT", Direction: models.DirectionIncome, Amount: decimal.NewFromInt(99999), Date: time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC)},
		{DepartmentID: "HR", Direction: models.DirectionExpense, Amount: decimal.NewFromInt(99999), Date: time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC)},
	}
	return dept, entries, now
}

func TestCheckSpend_BudgetScenario(t *testing.T) {
	dept, entries, now := budgetFixture()

	assert.True(t, CurrentSpend("IT", entries, now).Equal(decimal.NewFromInt(45000)))

	err := CheckSpend(dept, decimal.NewFromInt(6000), entries, now)
	var budgetErr *models.BudgetExceededError
	require.True(t, errors.As(err, &budgetErr))
	assert.True(t, budgetErr.Ceiling.Equal(decimal.NewFromInt(50000)))
	assert.True(t, budgetErr.CurrentSpend.Equal(decimal.NewFromInt(45000)))
	assert.True(t, budgetErr.Attempted.Equal(decimal.NewFromInt(6000)))
	assert.True(t, budgetErr.Remaining().Equal(decimal.NewFromInt(5000)))
	assert.False(t, CanSpend(dept, decimal.NewFromInt(6000), entries, now))

	assert.NoError(t, CheckSpend(dept, decimal.NewFromInt(4000), entries, now))
	assert.True(t, CanSpend(dept, decimal.NewFromInt(5000), entries, now), "spending up to the ceiling is allowed")
}

func TestCheckSpend_InvalidAmount(t *testing.T) {
	dept, entries, now := budgetFixture()

	assert.ErrorIs(t, CheckSpend(dept, decimal.Zero, entries, now), models.ErrInvalidAmount)
	assert.ErrorIs(t, CheckSpend(dept, decimal.NewFromInt(-5), entries, now), models.ErrInvalidAmount)
}

func TestCheckSpend_NoRolloverAcrossMonths(t *testing.T) {
	dept, entries, _ := budgetFixture()
	july := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)

	assert.True(t, CanSpend(dept, decimal.NewFromInt(50000), entries, july))
	assert.False(t, CanSpend(dept, decimal.NewFromInt(50001), entries, july))
}
