package sheets

import (
	"context"
	"fmt"
	"time"

	"github.com/mamadbah2/stockledger/internal/domain/models"
)

// Tabs written by the mirror.
const (
	LedgerTab   = "Ledger"
	SalesTab    = "Sales"
	CashFlowTab = "CashFlow"
)

const (
	dateFormat  = "2006-01-02"
	monthFormat = "2006-01"
)

var headers = map[string][]interface{}{
	LedgerTab:   {"date", "entry_id", "department_id", "direction", "category", "amount", "description"},
	SalesTab:    {"sold_at", "item_id", "quantity", "unit_price", "total", "note"},
	CashFlowTab: {"month", "department_id", "income", "expense", "net_profit", "budget_variance", "department"},
}

// Mirror appends committed ledger activity to a spreadsheet so operators can
// follow it without access to the database. Rows are never read back.
type Mirror struct {
	repo Repository
}

// NewMirror wraps a tab-level repository.
func NewMirror(repo Repository) *Mirror {
	return &Mirror{repo: repo}
}

// EnsureHeaders writes the column titles into every empty tab.
func (m *Mirror) EnsureHeaders(ctx context.Context) error {
	for _, tab := range []string{LedgerTab, SalesTab, CashFlowTab} {
		row, err := m.repo.FirstRow(ctx, tab)
		if err != nil {
			return err
		}
		if len(row) > 0 {
			continue
		}
		if err := m.repo.AppendRow(ctx, tab, headers[tab]); err != nil {
			return fmt.Errorf("write %s header: %w", tab, err)
		}
	}
	return nil
}

// RecordEntry appends a ledger entry row.
func (m *Mirror) RecordEntry(ctx context.Context, entry models.LedgerEntry) error {
	return m.repo.AppendRow(ctx, LedgerTab, []interface{}{
		entry.Date.Format(dateFormat),
		entry.ID,
		entry.DepartmentID,
		string(entry.Direction),
		entry.Category,
		entry.Amount.StringFixed(2),
		entry.Description,
	})
}

// RecordSale appends a sale row.
func (m *Mirror) RecordSale(ctx context.Context, receipt models.SaleReceipt) error {
	return m.repo.AppendRow(ctx, SalesTab, []interface{}{
		receipt.SoldAt.Format(time.RFC3339),
		receipt.ItemID,
		receipt.Quantity,
		receipt.UnitPrice.StringFixed(2),
		receipt.Total.StringFixed(2),
		receipt.Note,
	})
}

// RecordCashFlow appends a closed-month cash flow row.
func (m *Mirror) RecordCashFlow(ctx context.Context, report models.CashFlowReport) error {
	department := report.DepartmentID
	if department == "" {
		department = "ALL"
	}
	return m.repo.AppendRow(ctx, CashFlowTab, []interface{}{
		report.PeriodStart.Format(monthFormat),
		department,
		report.TotalIncome.StringFixed(2),
		report.TotalExpense.StringFixed(2),
		report.NetProfit().StringFixed(2),
		report.BudgetVariance.StringFixed(2),
		report.DepartmentName,
	})
}
