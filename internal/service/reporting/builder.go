package reporting

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mamadbah2/stockledger/internal/domain/models"
	"github.com/mamadbah2/stockledger/internal/service/aggregation"
)

// BuildCashFlow totals one calendar month of entries. With a departmentID the
// entries are narrowed to that department and the variance uses its ceiling;
// without one the ceiling is the sum of every department's budget.
func BuildCashFlow(entries []models.LedgerEntry, departments []models.Department, year int, month time.Month, departmentID string, loc *time.Location) (models.CashFlowReport, error) {
	start, end := aggregation.MonthRange(year, month, loc)
	report := models.CashFlowReport{
		PeriodStart:  start,
		PeriodEnd:    end,
		DepartmentID: departmentID,
	}

	ceiling := decimal.Zero
	if departmentID != "" {
		dept, ok := findDepartment(departments, departmentID)
		if !ok {
			return models.CashFlowReport{}, fmt.Errorf("%w: %s", models.ErrDepartmentNotFound, departmentID)
		}
		ceiling = dept.BudgetCeiling
		report.DepartmentName = dept.Name
	} else {
		for _, dept := range departments {
			ceiling = ceiling.Add(dept.BudgetCeiling)
		}
	}

	inScope := func(e models.LedgerEntry) bool {
		return aggregation.InRange(e.Date, start, end) && (departmentID == "" || e.DepartmentID == departmentID)
	}
	totals := aggregation.GroupSum(filter(entries, inScope), func(e models.LedgerEntry) models.Direction {
		return e.Direction
	}, func(e models.LedgerEntry) decimal.Decimal { return e.Amount })

	report.TotalIncome = totals[models.DirectionIncome]
	report.TotalExpense = totals[models.DirectionExpense]
	report.BudgetVariance = ceiling.Sub(report.TotalExpense)
	return report, nil
}

// BuildStockValue values the given items. An empty input yields a zero report.
// Categories are ordered by value, highest first; equal values keep first-seen
// order.
func BuildStockValue(items []models.StockItem) models.StockValueReport {
	report := models.StockValueReport{
		TotalValue: decimal.Zero,
		TotalItems: len(items),
		Categories: []models.CategoryStock{},
	}

	index := make(map[string]int)
	for _, item := range items {
		value := item.Value()
		report.TotalValue = report.TotalValue.Add(value)
		report.TotalQuantity += item.Quantity

		pos, ok := index[item.Category]
		if !ok {
			pos = len(report.Categories)
			index[item.Category] = pos
			report.Categories = append(report.Categories, models.CategoryStock{Category: item.Category, TotalValue: decimal.Zero})
		}
		row := &report.Categories[pos]
		row.TotalValue = row.TotalValue.Add(value)
		row.ItemCount++
		row.TotalQuantity += item.Quantity
	}

	report.Categories = aggregation.TopN(report.Categories, func(a, b models.CategoryStock) bool {
		return a.TotalValue.LessThan(b.TotalValue)
	}, len(report.Categories))
	return report
}

// BuildBudgetVariances compares each department's spend inside [start, end)
// with its ceiling, in department order.
func BuildBudgetVariances(departments []models.Department, entries []models.LedgerEntry, start, end time.Time) []models.BudgetVariance {
	spend := aggregation.GroupSum(filter(entries, func(e models.LedgerEntry) bool {
		return e.Direction == models.DirectionExpense && aggregation.InRange(e.Date, start, end)
	}), func(e models.LedgerEntry) string { return e.DepartmentID }, func(e models.LedgerEntry) decimal.Decimal { return e.Amount })

	out := make([]models.BudgetVariance, 0, len(departments))
	for _, dept := range departments {
		out = append(out, models.BudgetVariance{
			DepartmentID:   dept.ID,
			DepartmentName: dept.Name,
			BudgetCeiling:  dept.BudgetCeiling,
			TotalExpense:   spend[dept.ID],
		})
	}
	return out
}

type summaryKey struct {
	category  string
	direction models.Direction
}

// BuildEntrySummary groups entries by (category, direction), in the order
// each group first appears. Category matching ignores case; the first
// spelling seen is kept.
func BuildEntrySummary(entries []models.LedgerEntry) []models.EntrySummary {
	keyOf := func(e models.LedgerEntry) summaryKey {
		return summaryKey{category: strings.ToLower(e.Category), direction: e.Direction}
	}

	sums := aggregation.GroupSum(entries, keyOf, func(e models.LedgerEntry) decimal.Decimal { return e.Amount })
	counts := aggregation.CountBy(entries, keyOf)

	seen := make(map[summaryKey]bool)
	out := make([]models.EntrySummary, 0, len(sums))
	for _, e := range entries {
		k := keyOf(e)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, models.EntrySummary{
			Category:    e.Category,
			Direction:   e.Direction,
			TotalAmount: sums[k],
			Count:       counts[k],
		})
	}
	return out
}

func findDepartment(departments []models.Department, id string) (models.Department, bool) {
	for _, d := range departments {
		if d.ID == id {
			return d, true
		}
	}
	return models.Department{}, false
}

func filter[T any](items []T, keep func(T) bool) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if keep(item) {
			out = append(out, item)
		}
	}
	return out
}
