package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Direction tells whether an entry adds to or removes from net cash.
type Direction string

const (
	DirectionIncome  Direction = "income"
	DirectionExpense Direction = "expense"
)

// ParseDirection normalizes user supplied direction labels.
func ParseDirection(value string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case string(DirectionIncome):
		return DirectionIncome, nil
	case string(DirectionExpense):
		return DirectionExpense, nil
	default:
		return "", fmt.Errorf("%w: unknown direction %q", ErrInvalidInput, value)
	}
}

// Valid reports whether d is one of the known directions.
func (d Direction) Valid() bool {
	return d == DirectionIncome || d == DirectionExpense
}

// LedgerEntry is an immutable income or expense record owned by a department.
type LedgerEntry struct {
	ID           string          `json:"id"`
	Date         time.Time       `json:"date"`
	Amount       decimal.Decimal `json:"amount"`
	Direction    Direction       `json:"direction"`
	Category     string          `json:"category"`
	Description  string          `json:"description,omitempty"`
	DepartmentID string          `json:"department_id"`
}

// Department owns ledger entries and caps its monthly expenses.
type Department struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	BudgetCeiling decimal.Decimal `json:"budget_ceiling"`
}
