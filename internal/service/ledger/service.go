package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mamadbah2/stockledger/internal/domain/models"
	"github.com/mamadbah2/stockledger/internal/locking"
	"github.com/mamadbah2/stockledger/internal/observability/metrics"
	"github.com/mamadbah2/stockledger/internal/repository"
	"github.com/mamadbah2/stockledger/internal/service/aggregation"
	"github.com/mamadbah2/stockledger/internal/service/guard"
)

const (
	maxDepartmentNameLength = 100
	maxCategoryLength       = 100
	maxDescriptionLength    = 500
	monthKeyFormat          = "2006-01"
)

// EntryRecorder receives committed ledger entries. Failures are logged only.
type EntryRecorder interface {
	RecordEntry(ctx context.Context, entry models.LedgerEntry) error
}

// Service records ledger entries and manages departments. Recording, updating
// and deleting all hold a lock scoped to the department and the current month,
// so expenses are checked against the ceiling atomically and a department
// cannot disappear under an entry being recorded.
type Service struct {
	repo    repository.Store
	locks   *locking.KeyedMutex
	entries EntryRecorder
	logger  *zap.Logger
	loc     *time.Location
	now     func() time.Time
}

// NewService wires a ledger service. Month boundaries are taken in loc (UTC
// when nil). entries may be nil.
func NewService(repo repository.Store, locks *locking.KeyedMutex, entries EntryRecorder, loc *time.Location, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if locks == nil {
		locks = locking.NewKeyedMutex()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		repo:    repo,
		locks:   locks,
		entries: entries,
		logger:  logger,
		loc:     loc,
		now:     time.Now,
	}
}

// DepartmentInput carries the editable department fields.
type DepartmentInput struct {
	ID            string          `json:"id"`
	Name          string          `json:"name" binding:"required"`
	BudgetCeiling decimal.Decimal `json:"budget_ceiling"`
}

func (in DepartmentInput) validate() error {
	name := strings.TrimSpace(in.Name)
	switch {
	case name == "":
		return fmt.Errorf("%w: department name is required", models.ErrInvalidInput)
	case len(name) > maxDepartmentNameLength:
		return fmt.Errorf("%w: department name must not exceed %d characters", models.ErrInvalidInput, maxDepartmentNameLength)
	case in.BudgetCeiling.IsNegative():
		return fmt.Errorf("%w: budget ceiling must not be negative", models.ErrInvalidInput)
	}
	return nil
}

// CreateDepartment stores a new department. A missing ID is generated.
func (s *Service) CreateDepartment(ctx context.Context, in DepartmentInput) (models.Department, error) {
	if err := in.validate(); err != nil {
		return models.Department{}, err
	}

	id := strings.TrimSpace(in.ID)
	if id == "" {
		id = uuid.NewString()
	} else if _, err := s.repo.GetDepartment(ctx, id); err == nil {
		return models.Department{}, fmt.Errorf("%w: department %s already exists", models.ErrInvalidInput, id)
	} else if !errors.Is(err, models.ErrNotFound) {
		return models.Department{}, fmt.Errorf("check department %s: %w", id, err)
	}

	dept := models.Department{ID: id, Name: strings.TrimSpace(in.Name), BudgetCeiling: in.BudgetCeiling}
	if err := s.repo.SaveDepartment(ctx, dept); err != nil {
		return models.Department{}, fmt.Errorf("save department: %w", err)
	}

	s.logger.Info("department created", zap.String("department_id", id), zap.String("ceiling", dept.BudgetCeiling.String()))
	return dept, nil
}

// GetDepartment loads one department, mapping a miss to ErrDepartmentNotFound.
func (s *Service) GetDepartment(ctx context.Context, id string) (models.Department, error) {
	dept, err := s.repo.GetDepartment(ctx, id)
	if errors.Is(err, models.ErrNotFound) {
		return models.Department{}, fmt.Errorf("%w: %s", models.ErrDepartmentNotFound, id)
	}
	if err != nil {
		return models.Department{}, fmt.Errorf("load department %s: %w", id, err)
	}
	return dept, nil
}

// ListDepartments returns every department.
func (s *Service) ListDepartments(ctx context.Context) ([]models.Department, error) {
	depts, err := s.repo.ListDepartments(ctx)
	if err != nil {
		return nil, fmt.Errorf("list departments: %w", err)
	}
	return depts, nil
}

// UpdateDepartment changes name and ceiling. Lowering the ceiling below the
// current spend is allowed; it only blocks further expenses.
func (s *Service) UpdateDepartment(ctx context.Context, id string, in DepartmentInput) (models.Department, error) {
	if err := in.validate(); err != nil {
		return models.Department{}, err
	}

	unlock := s.locks.Lock(budgetKey(id, s.now().In(s.loc)))
	defer unlock()

	dept, err := s.GetDepartment(ctx, id)
	if err != nil {
		return models.Department{}, err
	}
	dept.Name = strings.TrimSpace(in.Name)
	dept.BudgetCeiling = in.BudgetCeiling

	if err := s.repo.SaveDepartment(ctx, dept); err != nil {
		return models.Department{}, fmt.Errorf("save department: %w", err)
	}
	return dept, nil
}

// DeleteDepartment removes a department that owns no ledger entries.
func (s *Service) DeleteDepartment(ctx context.Context, id string) error {
	unlock := s.locks.Lock(budgetKey(id, s.now().In(s.loc)))
	defer unlock()

	owned, err := s.repo.ListLedgerEntries(ctx, repository.EntryFilter{DepartmentID: id})
	if err != nil {
		return fmt.Errorf("list department entries: %w", err)
	}
	if len(owned) > 0 {
		return fmt.Errorf("%w: department %s still owns %d ledger entries", models.ErrInvalidInput, id, len(owned))
	}

	if err := s.repo.DeleteDepartment(ctx, id); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return fmt.Errorf("%w: %s", models.ErrDepartmentNotFound, id)
		}
		return fmt.Errorf("delete department %s: %w", id, err)
	}
	return nil
}

// EntryInput carries a new ledger entry. A zero Date means now.
type EntryInput struct {
	Date         time.Time        `json:"date"`
	Amount       decimal.Decimal  `json:"amount"`
	Direction    models.Direction `json:"direction" binding:"required"`
	Category     string           `json:"category" binding:"required"`
	Description  string           `json:"description"`
	DepartmentID string           `json:"department_id" binding:"required"`
}

// Record validates and stores a ledger entry. Expenses must fit in the
// department's remaining budget for the current calendar month.
func (s *Service) Record(ctx context.Context, in EntryInput) (entry models.LedgerEntry, err error) {
	defer func() { metrics.ObserveEntry(in.Direction, err) }()

	now := s.now().In(s.loc)
	if err := s.validateEntry(in, now); err != nil {
		return models.LedgerEntry{}, err
	}

	date := in.Date
	if date.IsZero() {
		date = now
	}
	entry = models.LedgerEntry{
		ID:           uuid.NewString(),
		Date:         date,
		Amount:       in.Amount,
		Direction:    in.Direction,
		Category:     strings.TrimSpace(in.Category),
		Description:  in.Description,
		DepartmentID: in.DepartmentID,
	}

	unlock := s.locks.Lock(budgetKey(in.DepartmentID, now))
	defer unlock()

	dept, err := s.GetDepartment(ctx, in.DepartmentID)
	if err != nil {
		return models.LedgerEntry{}, err
	}

	if in.Direction == models.DirectionExpense {
		period, err := s.monthExpenses(ctx, dept.ID, now)
		if err != nil {
			return models.LedgerEntry{}, err
		}

		if err := guard.CheckSpend(dept, in.Amount, period, now); err != nil {
			s.logger.Info("expense rejected",
				zap.String("department_id", dept.ID),
				zap.String("amount", in.Amount.String()),
				zap.Error(err))
			return models.LedgerEntry{}, err
		}
	}

	if err := s.repo.SaveLedgerEntry(ctx, entry); err != nil {
		return models.LedgerEntry{}, fmt.Errorf("save ledger entry: %w", err)
	}

	if s.entries != nil {
		if err := s.entries.RecordEntry(ctx, entry); err != nil {
			s.logger.Warn("failed to mirror ledger entry", zap.String("entry_id", entry.ID), zap.Error(err))
		}
	}

	s.logger.Info("ledger entry recorded",
		zap.String("entry_id", entry.ID),
		zap.String("department_id", entry.DepartmentID),
		zap.String("direction", string(entry.Direction)),
		zap.String("amount", entry.Amount.String()))
	return entry, nil
}

// CanSpend reports whether an expense of amount would be accepted for the
// department right now. Nothing is recorded.
func (s *Service) CanSpend(ctx context.Context, departmentID string, amount decimal.Decimal) (bool, error) {
	if !amount.IsPositive() {
		return false, models.ErrInvalidAmount
	}

	dept, err := s.GetDepartment(ctx, departmentID)
	if err != nil {
		return false, err
	}

	now := s.now().In(s.loc)
	period, err := s.monthExpenses(ctx, dept.ID, now)
	if err != nil {
		return false, err
	}
	return guard.CanSpend(dept, amount, period, now), nil
}

func (s *Service) monthExpenses(ctx context.Context, departmentID string, now time.Time) ([]models.LedgerEntry, error) {
	start, end := aggregation.MonthRange(now.Year(), now.Month(), s.loc)
	entries, err := s.repo.ListLedgerEntries(ctx, repository.EntryFilter{
		From:         start,
		To:           end,
		DepartmentID: departmentID,
		Direction:    models.DirectionExpense,
	})
	if err != nil {
		return nil, fmt.Errorf("load month expenses: %w", err)
	}
	return entries, nil
}

func (s *Service) validateEntry(in EntryInput, now time.Time) error {
	switch {
	case !in.Amount.IsPositive():
		return models.ErrInvalidAmount
	case !in.Direction.Valid():
		return fmt.Errorf("%w: direction must be income or expense", models.ErrInvalidInput)
	case strings.TrimSpace(in.Category) == "":
		return fmt.Errorf("%w: category is required", models.ErrInvalidInput)
	case len(in.Category) > maxCategoryLength:
		return fmt.Errorf("%w: category must not exceed %d characters", models.ErrInvalidInput, maxCategoryLength)
	case len(in.Description) > maxDescriptionLength:
		return fmt.Errorf("%w: description must not exceed %d characters", models.ErrInvalidInput, maxDescriptionLength)
	case strings.TrimSpace(in.DepartmentID) == "":
		return fmt.Errorf("%w: department is required", models.ErrInvalidInput)
	case in.Date.After(now):
		return fmt.Errorf("%w: entry date cannot be in the future", models.ErrInvalidInput)
	}
	return nil
}

// Get loads one entry.
func (s *Service) Get(ctx context.Context, id string) (models.LedgerEntry, error) {
	entry, err := s.repo.GetLedgerEntry(ctx, id)
	if err != nil {
		return models.LedgerEntry{}, fmt.Errorf("load ledger entry %s: %w", id, err)
	}
	return entry, nil
}

// List returns the matching entries, newest first.
func (s *Service) List(ctx context.Context, filter repository.EntryFilter) ([]models.LedgerEntry, error) {
	entries, err := s.repo.ListLedgerEntries(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list ledger entries: %w", err)
	}
	return aggregation.TopN(entries, func(a, b models.LedgerEntry) bool { return a.Date.Before(b.Date) }, len(entries)), nil
}

// Delete removes an entry. Entries are never edited in place.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.DeleteLedgerEntry(ctx, id); err != nil {
		return fmt.Errorf("delete ledger entry %s: %w", id, err)
	}
	s.logger.Info("ledger entry deleted", zap.String("entry_id", id))
	return nil
}

func budgetKey(departmentID string, now time.Time) string {
	return "budget:" + departmentID + ":" + now.Format(monthKeyFormat)
}
