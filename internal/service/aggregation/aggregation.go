// Package aggregation holds the pure group/sum/rank helpers the reports are
// built from. Nothing here touches storage.
package aggregation

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mamadbah2/stockledger/internal/domain/models"
)

// GroupSum folds items into per-key decimal sums. Decimal addition is exact,
// so the result does not depend on the input order.
func GroupSum[T any, K comparable](items []T, keyFn func(T) K, valueFn func(T) decimal.Decimal) map[K]decimal.Decimal {
	sums := make(map[K]decimal.Decimal)
	for _, item := range items {
		key := keyFn(item)
		sums[key] = sums[key].Add(valueFn(item))
	}
	return sums
}

// CountBy counts items per key.
func CountBy[T any, K comparable](items []T, keyFn func(T) K) map[K]int {
	counts := make(map[K]int)
	for _, item := range items {
		counts[keyFn(item)]++
	}
	return counts
}

// SumBy adds valueFn over every item accepted by keep. A nil keep accepts all.
func SumBy[T any](items []T, keep func(T) bool, valueFn func(T) decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		if keep != nil && !keep(item) {
			continue
		}
		total = total.Add(valueFn(item))
	}
	return total
}

// MonthRange returns the half-open interval [first of month, first of next month)
// in loc. A nil loc means UTC.
func MonthRange(year int, month time.Month, loc *time.Location) (time.Time, time.Time) {
	if loc == nil {
		loc = time.UTC
	}
	start := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 1, 0)
}

// InRange reports whether t lies within [start, end).
func InRange(t, start, end time.Time) bool {
	return !t.Before(start) && t.Before(end)
}

// MonthTotals sums the amounts of entries in the given month and direction.
// Entries are compared in UTC month boundaries; use MonthTotalsIn for another
// location.
func MonthTotals(entries []models.LedgerEntry, year int, month time.Month, direction models.Direction) decimal.Decimal {
	return MonthTotalsIn(entries, year, month, direction, time.UTC)
}

// MonthTotalsIn is MonthTotals with month boundaries taken in loc.
func MonthTotalsIn(entries []models.LedgerEntry, year int, month time.Month, direction models.Direction, loc *time.Location) decimal.Decimal {
	start, end := MonthRange(year, month, loc)
	return SumBy(entries, func(e models.LedgerEntry) bool {
		return e.Direction == direction && InRange(e.Date, start, end)
	}, entryAmount)
}

// TopN returns up to n items ordered so that higher-ranked items come first.
// less(a, b) must report whether a ranks below b. Equal items keep their input
// order and the input slice is left untouched.
func TopN[T any](items []T, less func(a, b T) bool, n int) []T {
	if n <= 0 || len(items) == 0 {
		return []T{}
	}

	sorted := make([]T, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		return less(sorted[j], sorted[i])
	})

	if n > len(sorted) {
		n = len(sorted)
	}
	return sorted[:n]
}

func entryAmount(e models.LedgerEntry) decimal.Decimal {
	return e.Amount
}
