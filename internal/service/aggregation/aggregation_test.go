package aggregation

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/stockledger/internal/domain/models"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func entry(date time.Time, amount string, dir models.Direction, category string) models.LedgerEntry {
	return models.LedgerEntry{Date: date, Amount: dec(amount), Direction: dir, Category: category, DepartmentID: "IT"}
}

func TestGroupSum_OrderIndependent(t *testing.T) {
	day := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	entries := []models.LedgerEntry{
		entry(day, "0.1", models.DirectionExpense, "travel"),
		entry(day, "0.2", models.DirectionExpense, "travel"),
		entry(day, "10.55", models.DirectionExpense, "food"),
		entry(day, "0.3", models.DirectionExpense, "travel"),
	}
	reversed := []models.LedgerEntry{entries[3], entries[2], entries[1], entries[0]}

	byCategory := func(e models.LedgerEntry) string { return e.Category }

	a := GroupSum(entries, byCategory, entryAmount)
	b := GroupSum(reversed, byCategory, entryAmount)

	require.Len(t, a, 2)
	assert.True(t, a["travel"].Equal(dec("0.6")), "got %s", a["travel"])
	assert.True(t, a["food"].Equal(dec("10.55")))
	for k, v := range a {
		assert.True(t, v.Equal(b[k]), "key %s differs: %s vs %s", k, v, b[k])
	}
}

func TestCountBy(t *testing.T) {
	counts := CountBy([]string{"a", "b", "a"}, func(s string) string { return s })
	assert.Equal(t, map[string]int{"a": 2, "b": 1}, counts)
}

func TestMonthRange_HalfOpen(t *testing.T) {
	start, end := MonthRange(2024, time.December, nil)
	assert.Equal(t, time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), end)

	assert.True(t, InRange(start, start, end))
	assert.False(t, InRange(end, start, end))
	assert.True(t, InRange(end.Add(-time.Nanosecond), start, end))
}

func TestMonthTotals_BoundaryBelongsToNewMonth(t *testing.T) {
	entries := []models.LedgerEntry{
		entry(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), "100", models.DirectionExpense, "rent"),
		entry(time.Date(2024, 2, 29, 23, 59, 59, 0, time.UTC), "40", models.DirectionExpense, "rent"),
		entry(time.Date(2024, 3, 31, 23, 59, 59, 0, time.UTC), "5", models.DirectionExpense, "misc"),
		entry(time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), "7", models.DirectionExpense, "misc"),
		entry(time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), "900", models.DirectionIncome, "sales"),
	}

	march := MonthTotals(entries, 2024, time.March, models.DirectionExpense)
	assert.True(t, march.Equal(dec("105")), "got %s", march)

	feb := MonthTotals(entries, 2024, time.February, models.DirectionExpense)
	assert.True(t, feb.Equal(dec("40")), "got %s", feb)

	income := MonthTotals(entries, 2024, time.March, models.DirectionIncome)
	assert.True(t, income.Equal(dec("900")))
}

func TestMonthTotals_Idempotent(t *testing.T) {
	entries := []models.LedgerEntry{
		entry(time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC), "12.34", models.DirectionIncome, "sales"),
		entry(time.Date(2024, 5, 3, 0, 0, 0, 0, time.UTC), "0.66", models.DirectionIncome, "sales"),
	}

	first := MonthTotals(entries, 2024, time.May, models.DirectionIncome)
	second := MonthTotals(entries, 2024, time.May, models.DirectionIncome)
	assert.True(t, first.Equal(second))
	assert.True(t, first.Equal(dec("13")))
}

func TestMonthTotalsIn_UsesLocationBoundaries(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	// 23:30 UTC on Feb 29 is already March 1st at UTC+2.
	entries := []models.LedgerEntry{
		entry(time.Date(2024, 2, 29, 23, 30, 0, 0, time.UTC), "10", models.DirectionExpense, "x"),
	}

	assert.True(t, MonthTotalsIn(entries, 2024, time.March, models.DirectionExpense, loc).Equal(dec("10")))
	assert.True(t, MonthTotals(entries, 2024, time.March, models.DirectionExpense).IsZero())
}

type ranked struct {
	name string
	q    int
}

func TestTopN_StableDescending(t *testing.T) {
	items := []ranked{{"a", 5}, {"b", 7}, {"c", 7}, {"d", 2}}
	byQuantity := func(x, y ranked) bool { return x.q < y.q }

	top := TopN(items, byQuantity, 3)

	assert.Equal(t, []ranked{{"b", 7}, {"c", 7}, {"a", 5}}, top)
	assert.Equal(t, []ranked{{"a", 5}, {"b", 7}, {"c", 7}, {"d", 2}}, items, "input must not be reordered")
}

func TestTopN_Bounds(t *testing.T) {
	items := []ranked{{"a", 1}, {"b", 2}}
	byQuantity := func(x, y ranked) bool { return x.q < y.q }

	assert.Empty(t, TopN(items, byQuantity, 0))
	assert.Empty(t, TopN([]ranked{}, byQuantity, 3))
	assert.Equal(t, []ranked{{"b", 2}, {"a", 1}}, TopN(items, byQuantity, 10))
}
