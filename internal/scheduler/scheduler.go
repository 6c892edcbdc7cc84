package scheduler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/stockledger/internal/domain/models"
)

const jobTimeout = 2 * time.Minute

// Reporter is the reporting surface the monthly close needs.
type Reporter interface {
	Now() time.Time
	Location() *time.Location
	CashFlow(ctx context.Context, year int, month time.Month, departmentID string) (models.CashFlowReport, error)
	DepartmentWarnings(ctx context.Context) ([]models.Department, error)
}

// Notifier delivers warning messages. An empty recipient means the default
// channel.
type Notifier interface {
	Notify(ctx context.Context, to, message string) error
}

// CashFlowRecorder archives a closed month.
type CashFlowRecorder interface {
	RecordCashFlow(ctx context.Context, report models.CashFlowReport) error
}

// Scheduler runs the monthly close: the previous month's cash flow is archived
// and departments with two negative months in a row are flagged.
type Scheduler struct {
	cron     *cron.Cron
	schedule string
	reporter Reporter
	notifier Notifier
	archive  CashFlowRecorder
	logger   *zap.Logger
}

// NewScheduler creates a new scheduler instance. notifier and archive may be
// nil when the matching integration is not configured.
func NewScheduler(schedule string, reporter Reporter, notifier Notifier, archive CashFlowRecorder, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Scheduler{
		cron:     cron.New(cron.WithLocation(reporter.Location())),
		schedule: schedule,
		reporter: reporter,
		notifier: notifier,
		archive:  archive,
		logger:   logger,
	}
}

// Start registers the monthly close and starts the cron loop.
func (s *Scheduler) Start() error {
	s.logger.Info("starting scheduler", zap.String("schedule", s.schedule))

	if _, err := s.cron.AddFunc(s.schedule, s.runJob); err != nil {
		return fmt.Errorf("schedule monthly close: %w", err)
	}

	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) runJob() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	if err := s.RunMonthlyClose(ctx); err != nil {
		s.logger.Error("monthly close failed", zap.Error(err))
	}
}

// RunMonthlyClose archives the last completed month and sends cash flow
// warnings. Archive and notification failures are logged; only a failure to
// read the store is returned.
func (s *Scheduler) RunMonthlyClose(ctx context.Context) error {
	now := s.reporter.Now()
	closed := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, -1, 0)

	report, err := s.reporter.CashFlow(ctx, closed.Year(), closed.Month(), "")
	if err != nil {
		return fmt.Errorf("build cash flow for %s: %w", closed.Format("2006-01"), err)
	}
	s.logger.Info("month closed",
		zap.String("month", closed.Format("2006-01")),
		zap.String("income", report.TotalIncome.StringFixed(2)),
		zap.String("expense", report.TotalExpense.StringFixed(2)),
		zap.String("net_profit", report.NetProfit().StringFixed(2)))

	if s.archive != nil {
		if err := s.archive.RecordCashFlow(ctx, report); err != nil {
			s.logger.Warn("failed to archive cash flow", zap.Error(err))
		}
	}

	flagged, err := s.reporter.DepartmentWarnings(ctx)
	if err != nil {
		return fmt.Errorf("evaluate cash flow warnings: %w", err)
	}
	if len(flagged) == 0 {
		return nil
	}

	message := WarningMessage(flagged)
	s.logger.Warn("cash flow warning", zap.Int("departments", len(flagged)))
	if s.notifier != nil {
		if err := s.notifier.Notify(ctx, "", message); err != nil {
			s.logger.Error("failed to send cash flow warning", zap.Error(err))
		}
	}
	return nil
}

// WarningMessage renders the notification for the flagged departments.
func WarningMessage(flagged []models.Department) string {
	names := make([]string, 0, len(flagged))
	for _, d := range flagged {
		label := d.ID
		if d.Name != "" && d.Name != d.ID {
			label = fmt.Sprintf("%s (%s)", d.Name, d.ID)
		}
		names = append(names, label)
	}
	return "Cash flow warning: net profit was negative in each of the last two months for " + strings.Join(names, ", ") + "."
}
