package reporting

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/stockledger/internal/domain/models"
	"github.com/mamadbah2/stockledger/internal/observability/metrics"
	"github.com/mamadbah2/stockledger/internal/repository"
	"github.com/mamadbah2/stockledger/internal/service/aggregation"
)

// DefaultLowStockThreshold flags items with fewer units than this.
const DefaultLowStockThreshold = 10

const (
	defaultSeriesMonths = 6
	maxSeriesMonths     = 120
)

// Service builds read-only views over the store. It keeps no state between
// calls: every report is recomputed from the records current at call time.
type Service struct {
	repo   repository.Store
	logger *zap.Logger
	loc    *time.Location
	now    func() time.Time
}

// NewService wires a new reporting service instance. Month boundaries are
// taken in loc (UTC when nil).
func NewService(repository repository.Store, loc *time.Location, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Service{repo: repository, logger: logger, loc: loc, now: time.Now}
}

// Location is the zone month boundaries are computed in.
func (s *Service) Location() *time.Location {
	return s.loc
}

// Now returns the current time in the report location.
func (s *Service) Now() time.Time {
	return s.now().In(s.loc)
}

// CashFlow reports one calendar month. A zero year or month falls back to
// the current one; an empty departmentID covers every department.
func (s *Service) CashFlow(ctx context.Context, year int, month time.Month, departmentID string) (report models.CashFlowReport, err error) {
	defer func(start time.Time) { metrics.ObserveReport("cash_flow", start, err) }(time.Now())

	now := s.Now()
	if year == 0 {
		year = now.Year()
	}
	if month == 0 {
		month = now.Month()
	}
	if month < time.January || month > time.December {
		return models.CashFlowReport{}, fmt.Errorf("%w: month must be between 1 and 12", models.ErrInvalidInput)
	}

	departments, err := s.repo.ListDepartments(ctx)
	if err != nil {
		return models.CashFlowReport{}, fmt.Errorf("load departments: %w", err)
	}

	start, end := aggregation.MonthRange(year, month, s.loc)
	entries, err := s.repo.ListLedgerEntries(ctx, repository.EntryFilter{From: start, To: end, DepartmentID: departmentID})
	if err != nil {
		return models.CashFlowReport{}, fmt.Errorf("load ledger entries: %w", err)
	}

	return BuildCashFlow(entries, departments, year, month, departmentID, s.loc)
}

// CashFlowWarning is true when the department's net profit was negative in
// both of the two most recently completed calendar months.
func (s *Service) CashFlowWarning(ctx context.Context, departmentID string) (bool, error) {
	if departmentID == "" {
		return false, fmt.Errorf("%w: department is required", models.ErrInvalidInput)
	}

	now := s.Now()
	current, _ := aggregation.MonthRange(now.Year(), now.Month(), s.loc)
	for _, back := range []int{-1, -2} {
		month := current.AddDate(0, back, 0)
		report, err := s.CashFlow(ctx, month.Year(), month.Month(), departmentID)
		if err != nil {
			return false, err
		}
		if !report.NetProfit().IsNegative() {
			return false, nil
		}
	}

	s.logger.Info("cash flow warning raised", zap.String("department_id", departmentID))
	return true, nil
}

// CashFlowSeries reports one CashFlow per calendar month touched by
// [from, to], oldest first. A zero to means now and a zero from starts six
// whole months before to's month. The store is read once for the whole range.
func (s *Service) CashFlowSeries(ctx context.Context, from, to time.Time, departmentID string) (series []models.CashFlowReport, err error) {
	defer func(start time.Time) { metrics.ObserveReport("cash_flow_series", start, err) }(time.Now())

	if to.IsZero() {
		to = s.Now()
	}
	to = to.In(s.loc)
	if from.IsZero() {
		current, _ := aggregation.MonthRange(to.Year(), to.Month(), s.loc)
		from = current.AddDate(0, -defaultSeriesMonths, 0)
	}
	from = from.In(s.loc)
	if from.After(to) {
		return nil, fmt.Errorf("%w: from must not be after to", models.ErrInvalidInput)
	}

	first, _ := aggregation.MonthRange(from.Year(), from.Month(), s.loc)
	_, last := aggregation.MonthRange(to.Year(), to.Month(), s.loc)
	months := (last.Year()-first.Year())*12 + int(last.Month()) - int(first.Month())
	if months > maxSeriesMonths {
		return nil, fmt.Errorf("%w: series covers %d months, at most %d allowed", models.ErrInvalidInput, months, maxSeriesMonths)
	}

	departments, err := s.repo.ListDepartments(ctx)
	if err != nil {
		return nil, fmt.Errorf("load departments: %w", err)
	}
	entries, err := s.repo.ListLedgerEntries(ctx, repository.EntryFilter{From: first, To: last, DepartmentID: departmentID})
	if err != nil {
		return nil, fmt.Errorf("load ledger entries: %w", err)
	}

	series = make([]models.CashFlowReport, 0, months)
	for month := first; month.Before(last); month = month.AddDate(0, 1, 0) {
		report, err := BuildCashFlow(entries, departments, month.Year(), month.Month(), departmentID, s.loc)
		if err != nil {
			return nil, err
		}
		series = append(series, report)
	}
	return series, nil
}

// BudgetVariances reports every department's current-month spend against its
// ceiling. A non-empty departmentID narrows the list to that department.
func (s *Service) BudgetVariances(ctx context.Context, departmentID string) (out []models.BudgetVariance, err error) {
	defer func(start time.Time) { metrics.ObserveReport("budget_variance", start, err) }(time.Now())

	departments, err := s.repo.ListDepartments(ctx)
	if err != nil {
		return nil, fmt.Errorf("load departments: %w", err)
	}
	if departmentID != "" {
		dept, ok := findDepartment(departments, departmentID)
		if !ok {
			return nil, fmt.Errorf("%w: %s", models.ErrDepartmentNotFound, departmentID)
		}
		departments = []models.Department{dept}
	}

	now := s.Now()
	start, end := aggregation.MonthRange(now.Year(), now.Month(), s.loc)
	entries, err := s.repo.ListLedgerEntries(ctx, repository.EntryFilter{
		From:         start,
		To:           end,
		DepartmentID: departmentID,
		Direction:    models.DirectionExpense,
	})
	if err != nil {
		return nil, fmt.Errorf("load ledger entries: %w", err)
	}

	return BuildBudgetVariances(departments, entries, start, end), nil
}

// EntrySummary groups the filtered entries by category and direction.
func (s *Service) EntrySummary(ctx context.Context, filter repository.EntryFilter) ([]models.EntrySummary, error) {
	entries, err := s.repo.ListLedgerEntries(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("load ledger entries: %w", err)
	}
	return BuildEntrySummary(entries), nil
}

// StockValue values the whole inventory.
func (s *Service) StockValue(ctx context.Context) (report models.StockValueReport, err error) {
	defer func(start time.Time) { metrics.ObserveReport("stock_value", start, err) }(time.Now())

	items, err := s.repo.ListStockItems(ctx, repository.StockFilter{})
	if err != nil {
		return models.StockValueReport{}, fmt.Errorf("load stock items: %w", err)
	}
	return BuildStockValue(items), nil
}

// TopStock returns the n items with the most units on hand. Ties keep
// insertion order.
func (s *Service) TopStock(ctx context.Context, n int) ([]models.StockItem, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: n must be positive", models.ErrInvalidInput)
	}
	items, err := s.repo.ListStockItems(ctx, repository.StockFilter{})
	if err != nil {
		return nil, fmt.Errorf("load stock items: %w", err)
	}
	return aggregation.TopN(items, func(a, b models.StockItem) bool { return a.Quantity < b.Quantity }, n), nil
}

// LowStock lists items with fewer than threshold units, fewest first.
// A threshold <= 0 uses DefaultLowStockThreshold.
func (s *Service) LowStock(ctx context.Context, threshold int) ([]models.StockItem, error) {
	if threshold <= 0 {
		threshold = DefaultLowStockThreshold
	}
	items, err := s.repo.ListStockItems(ctx, repository.StockFilter{BelowQuantity: threshold})
	if err != nil {
		return nil, fmt.Errorf("load stock items: %w", err)
	}
	return aggregation.TopN(items, func(a, b models.StockItem) bool { return a.Quantity > b.Quantity }, len(items)), nil
}

// DepartmentWarnings evaluates CashFlowWarning for every department and
// returns the ones that tripped it. A failing department is logged and
// skipped so one bad record does not hide the others.
func (s *Service) DepartmentWarnings(ctx context.Context) ([]models.Department, error) {
	departments, err := s.repo.ListDepartments(ctx)
	if err != nil {
		return nil, fmt.Errorf("load departments: %w", err)
	}

	var flagged []models.Department
	for _, dept := range departments {
		warn, err := s.CashFlowWarning(ctx, dept.ID)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			s.logger.Warn("cash flow warning check failed", zap.String("department_id", dept.ID), zap.Error(err))
			continue
		}
		if warn {
			flagged = append(flagged, dept)
		}
	}
	return flagged, nil
}
