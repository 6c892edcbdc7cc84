package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/stockledger/internal/domain/models"
)

type stubReporter struct {
	now        time.Time
	flagged    []models.Department
	cashErr    error
	askedYear  int
	askedMonth time.Month
}

func (r *stubReporter) Now() time.Time           { return r.now }
func (r *stubReporter) Location() *time.Location { return time.UTC }

func (r *stubReporter) CashFlow(_ context.Context, year int, month time.Month, _ string) (models.CashFlowReport, error) {
	r.askedYear, r.askedMonth = year, month
	if r.cashErr != nil {
		return models.CashFlowReport{}, r.cashErr
	}
	return models.CashFlowReport{TotalIncome: decimal.NewFromInt(10), TotalExpense: decimal.NewFromInt(30)}, nil
}

func (r *stubReporter) DepartmentWarnings(context.Context) ([]models.Department, error) {
	return r.flagged, nil
}

type recordingNotifier struct{ messages []string }

func (n *recordingNotifier) Notify(_ context.Context, _ string, message string) error {
	n.messages = append(n.messages, message)
	return nil
}

type recordingArchive struct {
	reports []models.CashFlowReport
	err     error
}

func (a *recordingArchive) RecordCashFlow(_ context.Context, report models.CashFlowReport) error {
	a.reports = append(a.reports, report)
	return a.err
}

func TestRunMonthlyClose_ArchivesPreviousMonthAndWarns(t *testing.T) {
	reporter := &stubReporter{
		now:     time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC),
		flagged: []models.Department{{ID: "IT", Name: "Information Technology"}, {ID: "HR", Name: "HR"}},
	}
	notifier := &recordingNotifier{}
	archive := &recordingArchive{err: errors.New("sheets quota")}

	s := NewScheduler("0 8 1 * *", reporter, notifier, archive, nil)
	require.NoError(t, s.RunMonthlyClose(context.Background()))

	assert.Equal(t, 2023, reporter.askedYear)
	assert.Equal(t, time.December, reporter.askedMonth)
	assert.Len(t, archive.reports, 1)
	require.Len(t, notifier.messages, 1)
	assert.Contains(t, notifier.messages[0], "Information Technology (IT), HR")
}

func TestRunMonthlyClose_NoWarnings(t *testing.T) {
	reporter := &stubReporter{now: time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)}
	notifier := &recordingNotifier{}

	s := NewScheduler("0 8 1 * *", reporter, notifier, nil, nil)
	require.NoError(t, s.RunMonthlyClose(context.Background()))
	assert.Empty(t, notifier.messages)
	assert.Equal(t, time.April, reporter.askedMonth)
}

func TestRunMonthlyClose_StoreFailure(t *testing.T) {
	reporter := &stubReporter{now: time.Now(), cashErr: errors.New("store down")}

	s := NewScheduler("0 8 1 * *", reporter, nil, nil, nil)
	assert.ErrorContains(t, s.RunMonthlyClose(context.Background()), "store down")
}

func TestStart_InvalidSchedule(t *testing.T) {
	s := NewScheduler("not a schedule", &stubReporter{}, nil, nil, nil)
	assert.Error(t, s.Start())
}

func TestStartStop(t *testing.T) {
	s := NewScheduler("0 8 1 * *", &stubReporter{}, nil, nil, nil)
	require.NoError(t, s.Start())
	s.Stop()
}
