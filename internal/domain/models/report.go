package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// CashFlowReport summarizes one calendar month of ledger activity.
// PeriodEnd is exclusive.
type CashFlowReport struct {
	TotalIncome    decimal.Decimal `json:"total_income"`
	TotalExpense   decimal.Decimal `json:"total_expense"`
	BudgetVariance decimal.Decimal `json:"budget_variance"`
	DepartmentID   string          `json:"department_id,omitempty"`
	DepartmentName string          `json:"department_name,omitempty"`
	PeriodStart    time.Time       `json:"period_start"`
	PeriodEnd      time.Time       `json:"period_end"`
}

// NetProfit is always derived from the totals.
func (r CashFlowReport) NetProfit() decimal.Decimal {
	return r.TotalIncome.Sub(r.TotalExpense)
}

// MarshalJSON includes the derived net profit.
func (r CashFlowReport) MarshalJSON() ([]byte, error) {
	type plain CashFlowReport
	return json.Marshal(struct {
		plain
		NetProfit decimal.Decimal `json:"net_profit"`
	}{plain(r), r.NetProfit()})
}

// CategoryStock is one row of the stock value breakdown.
type CategoryStock struct {
	Category      string          `json:"category"`
	TotalValue    decimal.Decimal `json:"total_value"`
	ItemCount     int             `json:"item_count"`
	TotalQuantity int             `json:"total_quantity"`
}

// StockValueReport values the full inventory.
type StockValueReport struct {
	TotalValue    decimal.Decimal `json:"total_value"`
	TotalItems    int             `json:"total_items"`
	TotalQuantity int             `json:"total_quantity"`
	Categories    []CategoryStock `json:"categories"`
}

// BudgetVariance compares a department's current-month spend to its ceiling.
type BudgetVariance struct {
	DepartmentID   string          `json:"department_id"`
	DepartmentName string          `json:"department_name"`
	BudgetCeiling  decimal.Decimal `json:"budget_ceiling"`
	TotalExpense   decimal.Decimal `json:"total_expense"`
}

// Variance is ceiling minus spend.
func (b BudgetVariance) Variance() decimal.Decimal {
	return b.BudgetCeiling.Sub(b.TotalExpense)
}

// VariancePercent is the variance relative to the ceiling, 0 for a zero ceiling.
func (b BudgetVariance) VariancePercent() decimal.Decimal {
	if b.BudgetCeiling.IsZero() {
		return decimal.Zero
	}
	return b.Variance().Div(b.BudgetCeiling).Mul(decimal.NewFromInt(100)).Round(2)
}

// OverBudget reports a negative variance.
func (b BudgetVariance) OverBudget() bool {
	return b.Variance().IsNegative()
}

// MarshalJSON includes the derived fields.
func (b BudgetVariance) MarshalJSON() ([]byte, error) {
	type plain BudgetVariance
	return json.Marshal(struct {
		plain
		Variance        decimal.Decimal `json:"variance"`
		VariancePercent decimal.Decimal `json:"variance_percent"`
		OverBudget      bool            `json:"over_budget"`
	}{plain(b), b.Variance(), b.VariancePercent(), b.OverBudget()})
}

// EntrySummary groups ledger entries by category and direction.
type EntrySummary struct {
	Category    string          `json:"category"`
	Direction   Direction       `json:"direction"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Count       int             `json:"count"`
}
