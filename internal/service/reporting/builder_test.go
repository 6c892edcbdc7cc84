package reporting

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/stockledger/internal/domain/models"
)

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func at(y int, m time.Month, day int) time.Time {
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

func TestBuildCashFlow_Department(t *testing.T) {
	departments := []models.Department{
		{ID: "IT", Name: "IT", BudgetCeiling: d(50000)},
		{ID: "HR", Name: "HR", BudgetCeiling: d(20000)},
	}
	entries := []models.LedgerEntry{
		{DepartmentID: "IT", Direction: models.DirectionIncome, Amount: d(50000), Date: at(2024, 5, 3)},
		{DepartmentID: "IT", Direction: models.DirectionExpense, Amount: d(15000), Date: at(2024, 5, 31)},
		{DepartmentID: "IT", Direction: models.DirectionExpense, Amount: d(999), Date: at(2024, 6, 1)},
		{DepartmentID: "HR", Direction: models.DirectionExpense, Amount: d(5000), Date: at(2024, 5, 10)},
	}

	report, err := BuildCashFlow(entries, departments, 2024, time.May, "IT", time.UTC)
	require.NoError(t, err)

	assert.True(t, report.TotalIncome.Equal(d(50000)))
	assert.True(t, report.TotalExpense.Equal(d(15000)))
	assert.True(t, report.NetProfit().Equal(d(35000)))
	assert.True(t, report.BudgetVariance.Equal(d(35000)))
	assert.Equal(t, "IT", report.DepartmentName)
	assert.Equal(t, at(2024, 5, 1), report.PeriodStart)
	assert.Equal(t, at(2024, 6, 1), report.PeriodEnd)
}

func TestBuildCashFlow_AllDepartmentsSumsCeilings(t *testing.T) {
	departments := []models.Department{
		{ID: "IT", BudgetCeiling: d(50000)},
		{ID: "HR", BudgetCeiling: d(20000)},
	}
	entries := []models.LedgerEntry{
		{DepartmentID: "IT", Direction: models.DirectionExpense, Amount: d(15000), Date: at(2024, 5, 2)},
		{DepartmentID: "HR", Direction: models.DirectionExpense, Amount: d(5000), Date: at(2024, 5, 10)},
	}

	report, err := BuildCashFlow(entries, departments, 2024, time.May, "", time.UTC)
	require.NoError(t, err)
	assert.True(t, report.TotalExpense.Equal(d(20000)))
	assert.True(t, report.BudgetVariance.Equal(d(50000)))
	assert.True(t, report.NetProfit().Equal(d(-20000)))
}

func TestBuildCashFlow_UnknownDepartment(t *testing.T) {
	_, err := BuildCashFlow(nil, nil, 2024, time.May, "Ops", time.UTC)
	assert.ErrorIs(t, err, models.ErrDepartmentNotFound)
}

func TestBuildStockValue_Empty(t *testing.T) {
	report := BuildStockValue(nil)
	assert.True(t, report.TotalValue.IsZero())
	assert.Equal(t, 0, report.TotalItems)
	assert.Equal(t, 0, report.TotalQuantity)
	assert.Empty(t, report.Categories)
}

func TestBuildStockValue_Breakdown(t *testing.T) {
	items := []models.StockItem{
		{Category: "Bread", UnitPrice: decimal.RequireFromString("1.10"), Quantity: 10},
		{Category: "Cake", UnitPrice: decimal.RequireFromString("15.00"), Quantity: 2},
		{Category: "Bread", UnitPrice: decimal.RequireFromString("0.90"), Quantity: 5},
		{Category: "Drinks", UnitPrice: decimal.RequireFromString("3.00"), Quantity: 5},
	}

	report := BuildStockValue(items)

	assert.True(t, report.TotalValue.Equal(decimal.RequireFromString("60.50")), "got %s", report.TotalValue)
	assert.Equal(t, 4, report.TotalItems)
	assert.Equal(t, 22, report.TotalQuantity)
	require.Len(t, report.Categories, 3)
	assert.Equal(t, "Cake", report.Categories[0].Category)
	// Bread 15.50 ranks above Drinks 15.00.
	assert.Equal(t, "Bread", report.Categories[1].Category)
	assert.Equal(t, 2, report.Categories[1].ItemCount)
	assert.Equal(t, 15, report.Categories[1].TotalQuantity)
	assert.Equal(t, "Drinks", report.Categories[2].Category)
}

func TestBuildBudgetVariances(t *testing.T) {
	departments := []models.Department{
		{ID: "IT", Name: "IT", BudgetCeiling: d(1000)},
		{ID: "HR", Name: "HR", BudgetCeiling: d(0)},
	}
	entries := []models.LedgerEntry{
		{DepartmentID: "IT", Direction: models.DirectionExpense, Amount: d(1200), Date: at(2024, 5, 2)},
		{DepartmentID: "IT", Direction: models.DirectionIncome, Amount: d(5000), Date: at(2024, 5, 2)},
	}

	out := BuildBudgetVariances(departments, entries, at(2024, 5, 1), at(2024, 6, 1))
	require.Len(t, out, 2)
	assert.True(t, out[0].Variance().Equal(d(-200)))
	assert.True(t, out[0].VariancePercent().Equal(d(-20)))
	assert.True(t, out[0].OverBudget())
	assert.True(t, out[1].VariancePercent().IsZero())
	assert.False(t, out[1].OverBudget())
}

func TestBuildEntrySummary(t *testing.T) {
	entries := []models.LedgerEntry{
		{Category: "Rent", Direction: models.DirectionExpense, Amount: d(100)},
		{Category: "Sales", Direction: models.DirectionIncome, Amount: d(300)},
		{Category: "rent", Direction: models.DirectionExpense, Amount: d(50)},
		{Category: "Rent", Direction: models.DirectionIncome, Amount: d(7)},
	}

	out := BuildEntrySummary(entries)
	require.Len(t, out, 3)
	assert.Equal(t, "Rent", out[0].Category)
	assert.Equal(t, 2, out[0].Count)
	assert.True(t, out[0].TotalAmount.Equal(d(150)))
	assert.Equal(t, models.DirectionIncome, out[2].Direction)
	assert.Equal(t, 1, out[2].Count)
}
