package metrics

import (
	"errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mamadbah2/stockledger/internal/domain/models"
)

const (
	metricPrefix = "stockledger_"

	resultSuccess = "success"
	resultError   = "error"

	ReasonInvalidQuantity   = "invalid_quantity"
	ReasonInvalidAmount     = "invalid_amount"
	ReasonInsufficientStock = "insufficient_stock"
	ReasonBudgetExceeded    = "budget_exceeded"
	ReasonNotFound          = "not_found"
	ReasonInvalidInput      = "invalid_input"
	ReasonStore             = "store"
)

var (
	registerOnce sync.Once

	salesTotal      *prometheus.CounterVec
	unitsSoldTotal  prometheus.Counter
	rejectionsTotal *prometheus.CounterVec
	entriesTotal    *prometheus.CounterVec
	reportLatency   *prometheus.HistogramVec
)

// Init registers the collectors on reg. Later calls are no-ops. Until Init
// runs every recording function does nothing.
func Init(reg prometheus.Registerer) {
	registerOnce.Do(func() {
		salesTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "sales_total",
				Help: "Sell operations by result",
			},
			[]string{"result"},
		)
		unitsSoldTotal = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "units_sold_total",
				Help: "Units removed from stock by committed sales",
			},
		)
		rejectionsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "rejections_total",
				Help: "Rejected mutations by operation and reason",
			},
			[]string{"operation", "reason"},
		)
		entriesTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "ledger_entries_total",
				Help: "Committed ledger entries by direction",
			},
			[]string{"direction"},
		)
		reportLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "report_latency_seconds",
				Help:    "Report build latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"report", "result"},
		)

		reg.MustRegister(salesTotal, unitsSoldTotal, rejectionsTotal, entriesTotal, reportLatency)
	})
}

// ObserveSale records a sell attempt.
func ObserveSale(units int, err error) {
	if salesTotal == nil {
		return
	}
	if err != nil {
		salesTotal.WithLabelValues(resultError).Inc()
		rejectionsTotal.WithLabelValues("sell", Reason(err)).Inc()
		return
	}
	salesTotal.WithLabelValues(resultSuccess).Inc()
	unitsSoldTotal.Add(float64(units))
}

// ObserveEntry records a ledger write attempt.
func ObserveEntry(direction models.Direction, err error) {
	if entriesTotal == nil {
		return
	}
	if err != nil {
		rejectionsTotal.WithLabelValues("record_"+string(direction), Reason(err)).Inc()
		return
	}
	entriesTotal.WithLabelValues(string(direction)).Inc()
}

// ObserveReport records how long a report took to build.
func ObserveReport(report string, start time.Time, err error) {
	if reportLatency == nil {
		return
	}
	result := resultSuccess
	if err != nil {
		result = resultError
	}
	reportLatency.WithLabelValues(report, result).Observe(time.Since(start).Seconds())
}

// Reason maps a domain error to a low-cardinality label.
func Reason(err error) string {
	switch {
	case errors.Is(err, models.ErrInvalidQuantity):
		return ReasonInvalidQuantity
	case errors.Is(err, models.ErrInvalidAmount):
		return ReasonInvalidAmount
	case errors.Is(err, models.ErrInsufficientStock):
		return ReasonInsufficientStock
	case errors.Is(err, models.ErrBudgetExceeded):
		return ReasonBudgetExceeded
	case errors.Is(err, models.ErrNotFound), errors.Is(err, models.ErrDepartmentNotFound):
		return ReasonNotFound
	case errors.Is(err, models.ErrInvalidInput):
		return ReasonInvalidInput
	default:
		return ReasonStore
	}
}
