package commands

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/stockledger/internal/domain/models"
	"github.com/mamadbah2/stockledger/internal/service/ledger"
)

type fakeInventory struct {
	sellErr  error
	lastNote string
}

func (f *fakeInventory) Sell(_ context.Context, id string, quantity int, note string) (models.SaleReceipt, error) {
	f.lastNote = note
	if f.sellErr != nil {
		return models.SaleReceipt{}, f.sellErr
	}
	return models.SaleReceipt{
		ItemID:       id,
		ItemName:     "Baguette",
		Quantity:     quantity,
		UnitPrice:    decimal.RequireFromString("1.20"),
		Total:        decimal.RequireFromString("1.20").Mul(decimal.NewFromInt(int64(quantity))),
		RemainingQty: 7,
	}, nil
}

func (f *fakeInventory) Restock(_ context.Context, id string, quantity int) (models.StockItem, error) {
	return models.StockItem{ID: id, Name: "Baguette", Quantity: 10 + quantity}, nil
}

type fakeLedger struct {
	last models.LedgerEntry
	err  error
}

func (f *fakeLedger) Record(_ context.Context, in ledger.EntryInput) (models.LedgerEntry, error) {
	if f.err != nil {
		return models.LedgerEntry{}, f.err
	}
	f.last = models.LedgerEntry{
		Date:         time.Date(2024, 5, 3, 10, 0, 0, 0, time.UTC),
		Amount:       in.Amount,
		Direction:    in.Direction,
		Category:     in.Category,
		Description:  in.Description,
		DepartmentID: in.DepartmentID,
	}
	return f.last, nil
}

type fakeReporting struct {
	warn bool
}

func (f *fakeReporting) StockValue(context.Context) (models.StockValueReport, error) {
	return models.StockValueReport{
		TotalValue:    decimal.RequireFromString("60.5"),
		TotalItems:    2,
		TotalQuantity: 17,
		Categories:    []models.CategoryStock{{Category: "Bread", TotalValue: decimal.RequireFromString("60.5"), TotalQuantity: 17}},
	}, nil
}

func (f *fakeReporting) LowStock(context.Context, int) ([]models.StockItem, error) {
	return []models.StockItem{{Name: "Croissant", Quantity: 2}}, nil
}

func (f *fakeReporting) CashFlow(_ context.Context, _ int, _ time.Month, departmentID string) (models.CashFlowReport, error) {
	if departmentID == "Ops" {
		return models.CashFlowReport{}, fmt.Errorf("%w: Ops", models.ErrDepartmentNotFound)
	}
	return models.CashFlowReport{
		TotalIncome:    decimal.NewFromInt(50000),
		TotalExpense:   decimal.NewFromInt(15000),
		BudgetVariance: decimal.NewFromInt(35000),
		PeriodStart:    time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
	}, nil
}

func (f *fakeReporting) CashFlowWarning(context.Context, string) (bool, error) {
	return f.warn, nil
}

func (f *fakeReporting) BudgetVariances(context.Context, string) ([]models.BudgetVariance, error) {
	return []models.BudgetVariance{
		{DepartmentID: "IT", BudgetCeiling: decimal.NewFromInt(1000), TotalExpense: decimal.NewFromInt(1200)},
	}, nil
}

func newDispatcher() (*Service, *fakeInventory, *fakeLedger, *fakeReporting) {
	inv := &fakeInventory{}
	led := &fakeLedger{}
	rep := &fakeReporting{}
	return NewService(inv, led, rep, 10, nil), inv, led, rep
}

func TestHandleCommand_Sell(t *testing.T) {
	svc, inv, _, _ := newDispatcher()

	reply, err := svc.HandleCommand(context.Background(), models.ParseCommand("/sell b1 3"), "224600")
	require.NoError(t, err)
	assert.Equal(t, "Sold 3 x Baguette @ 1.20 = 3.60. 7 left in stock.", reply)
	assert.Equal(t, "via 224600", inv.lastNote)

	_, err = svc.HandleCommand(context.Background(), models.ParseCommand("/sell b1 many"), "x")
	assert.ErrorIs(t, err, ErrInvalidArguments)
}

func TestHandleCommand_SellRejectedKeepsNumbers(t *testing.T) {
	svc, inv, _, _ := newDispatcher()
	inv.sellErr = &models.InsufficientStockError{ItemID: "b1", Available: 3, Requested: 5}

	_, err := svc.HandleCommand(context.Background(), models.ParseCommand("/sell b1 5"), "x")
	require.Error(t, err)
	assert.Equal(t, "Sale rejected: only 3 in stock, 5 requested.", Reply(err))
}

func TestHandleCommand_Expense(t *testing.T) {
	svc, _, led, _ := newDispatcher()

	reply, err := svc.HandleCommand(context.Background(), models.ParseCommand("/expense IT 4000 hardware two laptops"), "x")
	require.NoError(t, err)
	assert.Equal(t, "Expense of 4000.00 recorded for IT (hardware) on 2024-05-03.", reply)
	assert.Equal(t, models.DirectionExpense, led.last.Direction)
	assert.Equal(t, "two laptops", led.last.Description)

	_, err = svc.HandleCommand(context.Background(), models.ParseCommand("/income IT"), "x")
	assert.ErrorIs(t, err, ErrInvalidArguments)
}

func TestHandleCommand_ExpenseOverBudget(t *testing.T) {
	svc, _, led, _ := newDispatcher()
	led.err = &models.BudgetExceededError{
		DepartmentID: "IT",
		Ceiling:      decimal.NewFromInt(50000),
		CurrentSpend: decimal.NewFromInt(45000),
		Attempted:    decimal.NewFromInt(6000),
	}

	_, err := svc.HandleCommand(context.Background(), models.ParseCommand("/expense IT 6000 hardware"), "x")
	require.Error(t, err)
	assert.Equal(t, "Expense rejected: ceiling 50000.00, already spent 45000.00, attempted 6000.00 (remaining 5000.00).", Reply(err))
}

func TestHandleCommand_Stock(t *testing.T) {
	svc, _, _, _ := newDispatcher()

	reply, err := svc.HandleCommand(context.Background(), models.ParseCommand("/stock"), "x")
	require.NoError(t, err)
	assert.Contains(t, reply, "Stock value 60.50 across 2 items (17 units).")
	assert.Contains(t, reply, "- Croissant: 2")
}

func TestHandleCommand_CashFlow(t *testing.T) {
	svc, _, _, rep := newDispatcher()
	rep.warn = true

	reply, err := svc.HandleCommand(context.Background(), models.ParseCommand("/cashflow IT"), "x")
	require.NoError(t, err)
	assert.Contains(t, reply, "income 50000.00, expense 15000.00, net 35000.00, budget variance 35000.00")
	assert.Contains(t, reply, "Warning")

	_, err = svc.HandleCommand(context.Background(), models.ParseCommand("/cashflow Ops"), "x")
	assert.Equal(t, "Unknown department.", Reply(err))
}

func TestHandleCommand_Budget(t *testing.T) {
	svc, _, _, _ := newDispatcher()

	reply, err := svc.HandleCommand(context.Background(), models.ParseCommand("/budget"), "x")
	require.NoError(t, err)
	assert.Contains(t, reply, "- IT: spent 1200.00 of 1000.00, variance -200.00 (-20.00%) OVER")
}

func TestHandleCommand_Unknown(t *testing.T) {
	svc, _, _, _ := newDispatcher()

	_, err := svc.HandleCommand(context.Background(), models.ParseCommand("/dance"), "x")
	assert.ErrorIs(t, err, ErrUnsupportedCommand)
	assert.Contains(t, Reply(err), "Unknown command.")
}

func TestReply(t *testing.T) {
	assert.Empty(t, Reply(nil))
	assert.Equal(t, "Unknown item.", Reply(fmt.Errorf("load: %w", models.ErrNotFound)))
	assert.Equal(t, "Rejected: quantity must be greater than zero", Reply(models.ErrInvalidQuantity))
	assert.Equal(t, "Something went wrong, please try again later.", Reply(errors.New("mongo down")))
}
