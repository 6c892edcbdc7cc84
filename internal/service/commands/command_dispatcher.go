package commands

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mamadbah2/stockledger/internal/domain/models"
	"github.com/mamadbah2/stockledger/internal/service/ledger"
)

// ErrInvalidArguments indicates the command payload could not be parsed.
var ErrInvalidArguments = errors.New("invalid command arguments")

// ErrUnsupportedCommand indicates we do not yet support the requested command.
var ErrUnsupportedCommand = errors.New("unsupported command")

const (
	dateFormat    = "2006-01-02"
	lowStockLimit = 5
)

// Usage lists the accepted command forms.
const Usage = "Commands: /sell <item> <qty> [note], /restock <item> <qty>, " +
	"/expense <dept> <amount> <category> [description], /income <dept> <amount> <category> [description], " +
	"/stock, /cashflow <dept>, /budget [dept]"

// Inventory is the part of the inventory service the dispatcher drives.
type Inventory interface {
	Sell(ctx context.Context, id string, quantity int, note string) (models.SaleReceipt, error)
	Restock(ctx context.Context, id string, quantity int) (models.StockItem, error)
}

// Ledger records ledger entries.
type Ledger interface {
	Record(ctx context.Context, in ledger.EntryInput) (models.LedgerEntry, error)
}

// ReportingAdapter defines the reporting functions required by the dispatcher.
type ReportingAdapter interface {
	StockValue(ctx context.Context) (models.StockValueReport, error)
	LowStock(ctx context.Context, threshold int) ([]models.StockItem, error)
	CashFlow(ctx context.Context, year int, month time.Month, departmentID string) (models.CashFlowReport, error)
	CashFlowWarning(ctx context.Context, departmentID string) (bool, error)
	BudgetVariances(ctx context.Context, departmentID string) ([]models.BudgetVariance, error)
}

// Dispatcher executes parsed commands.
type Dispatcher interface {
	HandleCommand(ctx context.Context, cmd models.Command, sender string) (string, error)
}

// Service implements the Dispatcher interface.
type Service struct {
	inventory         Inventory
	ledger            Ledger
	reporting         ReportingAdapter
	lowStockThreshold int
	logger            *zap.Logger
	now               func() time.Time
}

// NewService constructs a command dispatcher. lowStockThreshold <= 0 disables
// the low stock section of /stock.
func NewService(inventory Inventory, ledger Ledger, reporting ReportingAdapter, lowStockThreshold int, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		inventory:         inventory,
		ledger:            ledger,
		reporting:         reporting,
		lowStockThreshold: lowStockThreshold,
		logger:            logger,
		now:               time.Now,
	}
}

// HandleCommand runs the command and returns the reply text. Domain
// rejections come back as errors; Reply turns them into operator text.
func (s *Service) HandleCommand(ctx context.Context, cmd models.Command, sender string) (string, error) {
	s.logger.Debug("dispatching command", zap.String("command", string(cmd.Type)), zap.String("sender", sender), zap.Strings("args", cmd.Args))

	switch cmd.Type {
	case models.CommandSell:
		return s.handleSell(ctx, cmd, sender)
	case models.CommandRestock:
		return s.handleRestock(ctx, cmd)
	case models.CommandExpense:
		return s.handleEntry(ctx, cmd, models.DirectionExpense, sender)
	case models.CommandIncome:
		return s.handleEntry(ctx, cmd, models.DirectionIncome, sender)
	case models.CommandStock:
		return s.handleStock(ctx)
	case models.CommandCashFlow:
		return s.handleCashFlow(ctx, cmd)
	case models.CommandBudget:
		return s.handleBudget(ctx, cmd)
	default:
		return "", ErrUnsupportedCommand
	}
}

func (s *Service) handleSell(ctx context.Context, cmd models.Command, sender string) (string, error) {
	if len(cmd.Args) < 2 {
		return "", ErrInvalidArguments
	}
	quantity, err := strconv.Atoi(cmd.Args[1])
	if err != nil {
		return "", ErrInvalidArguments
	}
	note := strings.Join(cmd.Args[2:], " ")
	if note == "" {
		note = "via " + sender
	}

	receipt, err := s.inventory.Sell(ctx, cmd.Args[0], quantity, note)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Sold %d x %s @ %s = %s. %d left in stock.",
		receipt.Quantity, receipt.ItemName, receipt.UnitPrice.StringFixed(2), receipt.Total.StringFixed(2), receipt.RemainingQty), nil
}

func (s *Service) handleRestock(ctx context.Context, cmd models.Command) (string, error) {
	if len(cmd.Args) < 2 {
		return "", ErrInvalidArguments
	}
	quantity, err := strconv.Atoi(cmd.Args[1])
	if err != nil {
		return "", ErrInvalidArguments
	}

	item, err := s.inventory.Restock(ctx, cmd.Args[0], quantity)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Restocked %s with %d units. %d now in stock.", item.Name, quantity, item.Quantity), nil
}

func (s *Service) handleEntry(ctx context.Context, cmd models.Command, direction models.Direction, sender string) (string, error) {
	if len(cmd.Args) < 3 {
		return "", ErrInvalidArguments
	}
	amount, err := decimal.NewFromString(cmd.Args[1])
	if err != nil {
		return "", ErrInvalidArguments
	}

	description := strings.Join(cmd.Args[3:], " ")
	if description == "" {
		description = "via " + sender
	}

	entry, err := s.ledger.Record(ctx, ledger.EntryInput{
		Amount:       amount,
		Direction:    direction,
		Category:     cmd.Args[2],
		Description:  description,
		DepartmentID: cmd.Args[0],
	})
	if err != nil {
		return "", err
	}

	label := "Income"
	if direction == models.DirectionExpense {
		label = "Expense"
	}
	return fmt.Sprintf("%s of %s recorded for %s (%s) on %s.",
		label, entry.Amount.StringFixed(2), entry.DepartmentID, entry.Category, entry.Date.Format(dateFormat)), nil
}

func (s *Service) handleStock(ctx context.Context) (string, error) {
	report, err := s.reporting.StockValue(ctx)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Stock value %s across %d items (%d units).", report.TotalValue.StringFixed(2), report.TotalItems, report.TotalQuantity)
	for _, c := range report.Categories {
		fmt.Fprintf(&b, "\n- %s: %s (%d units)", c.Category, c.TotalValue.StringFixed(2), c.TotalQuantity)
	}

	if s.lowStockThreshold > 0 {
		low, err := s.reporting.LowStock(ctx, s.lowStockThreshold)
		if err != nil {
			s.logger.Debug("low stock lookup failed", zap.Error(err))
		} else if len(low) > 0 {
			fmt.Fprintf(&b, "\nLow stock (below %d):", s.lowStockThreshold)
			for i, item := range low {
				if i == lowStockLimit {
					fmt.Fprintf(&b, "\n... and %d more", len(low)-lowStockLimit)
					break
				}
				fmt.Fprintf(&b, "\n- %s: %d", item.Name, item.Quantity)
			}
		}
	}
	return b.String(), nil
}

func (s *Service) handleCashFlow(ctx context.Context, cmd models.Command) (string, error) {
	departmentID := ""
	if len(cmd.Args) > 0 {
		departmentID = cmd.Args[0]
	}

	report, err := s.reporting.CashFlow(ctx, 0, 0, departmentID)
	if err != nil {
		return "", err
	}

	scope := "all departments"
	if departmentID != "" {
		scope = departmentID
	}
	message := fmt.Sprintf("Cash flow %s for %s: income %s, expense %s, net %s, budget variance %s.",
		report.PeriodStart.Format("2006-01"), scope,
		report.TotalIncome.StringFixed(2), report.TotalExpense.StringFixed(2),
		report.NetProfit().StringFixed(2), report.BudgetVariance.StringFixed(2))

	if departmentID != "" {
		warn, err := s.reporting.CashFlowWarning(ctx, departmentID)
		if err != nil {
			s.logger.Debug("cash flow warning lookup failed", zap.Error(err))
		} else if warn {
			message += "\nWarning: net profit was negative for the last two months."
		}
	}
	return message, nil
}

func (s *Service) handleBudget(ctx context.Context, cmd models.Command) (string, error) {
	departmentID := ""
	if len(cmd.Args) > 0 {
		departmentID = cmd.Args[0]
	}

	variances, err := s.reporting.BudgetVariances(ctx, departmentID)
	if err != nil {
		return "", err
	}
	if len(variances) == 0 {
		return "No departments configured.", nil
	}

	var b strings.Builder
	b.WriteString("Budget this month:")
	for _, v := range variances {
		status := "ok"
		if v.OverBudget() {
			status = "OVER"
		}
		fmt.Fprintf(&b, "\n- %s: spent %s of %s, variance %s (%s%%) %s",
			v.DepartmentID, v.TotalExpense.StringFixed(2), v.BudgetCeiling.StringFixed(2),
			v.Variance().StringFixed(2), v.VariancePercent().StringFixed(2), status)
	}
	return b.String(), nil
}

// Reply turns a dispatcher error into the text sent back to the operator.
// Rejections keep their numbers so the operator can act on them.
func Reply(err error) string {
	var stockErr *models.InsufficientStockError
	var budgetErr *models.BudgetExceededError

	switch {
	case err == nil:
		return ""
	case errors.As(err, &stockErr):
		return fmt.Sprintf("Sale rejected: only %d in stock, %d requested.", stockErr.Available, stockErr.Requested)
	case errors.As(err, &budgetErr):
		return fmt.Sprintf("Expense rejected: ceiling %s, already spent %s, attempted %s (remaining %s).",
			budgetErr.Ceiling.StringFixed(2), budgetErr.CurrentSpend.StringFixed(2),
			budgetErr.Attempted.StringFixed(2), budgetErr.Remaining().StringFixed(2))
	case errors.Is(err, ErrUnsupportedCommand):
		return "Unknown command. " + Usage
	case errors.Is(err, ErrInvalidArguments):
		return "Could not read that command. " + Usage
	case errors.Is(err, models.ErrDepartmentNotFound):
		return "Unknown department."
	case errors.Is(err, models.ErrNotFound):
		return "Unknown item."
	case errors.Is(err, models.ErrInvalidQuantity),
		errors.Is(err, models.ErrInvalidAmount),
		errors.Is(err, models.ErrInvalidInput):
		return "Rejected: " + err.Error()
	default:
		return "Something went wrong, please try again later."
	}
}
