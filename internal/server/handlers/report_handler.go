package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/stockledger/internal/export"
	"github.com/mamadbah2/stockledger/internal/repository"
	"github.com/mamadbah2/stockledger/internal/service/reporting"
)

const (
	formatJSON = "json"
	formatXLSX = "xlsx"
	formatPDF  = "pdf"
)

// ReportHandler exposes the read-only reports.
type ReportHandler struct {
	svc               *reporting.Service
	tally             *reporting.SalesTally
	lowStockThreshold int
	logger            *zap.Logger
}

// NewReportHandler constructs the HTTP handler adapter. tally may be nil.
func NewReportHandler(svc *reporting.Service, tally *reporting.SalesTally, lowStockThreshold int, logger *zap.Logger) *ReportHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportHandler{svc: svc, tally: tally, lowStockThreshold: lowStockThreshold, logger: logger}
}

// StockValue values the inventory. format=xlsx|pdf downloads it.
func (h *ReportHandler) StockValue(c *gin.Context) {
	format, ok := exportFormat(c)
	if !ok {
		return
	}

	report, err := h.svc.StockValue(c.Request.Context())
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	switch format {
	case formatXLSX:
		h.download(c, "stock-value.xlsx", export.ContentTypeXLSX, func() ([]byte, error) { return export.BuildStockValueXLSX(report) })
	case formatPDF:
		h.download(c, "stock-value.pdf", export.ContentTypePDF, func() ([]byte, error) { return export.BuildStockValuePDF(report) })
	default:
		c.JSON(http.StatusOK, report)
	}
}

// TopStock returns the n items with the most units, n defaulting to 3.
func (h *ReportHandler) TopStock(c *gin.Context) {
	n, err := queryInt(c, "n", 3)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	items, err := h.svc.TopStock(c.Request.Context(), n)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": items})
}

// LowStock lists items under the threshold.
func (h *ReportHandler) LowStock(c *gin.Context) {
	threshold, err := queryInt(c, "threshold", h.lowStockThreshold)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	items, err := h.svc.LowStock(c.Request.Context(), threshold)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": items, "threshold": threshold})
}

// CashFlow reports one month. year and month default to the current month.
func (h *ReportHandler) CashFlow(c *gin.Context) {
	format, ok := exportFormat(c)
	if !ok {
		return
	}
	year, err := queryInt(c, "year", 0)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	month, err := queryInt(c, "month", 0)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	departmentID := c.Query("department_id")

	ctx := c.Request.Context()
	report, err := h.svc.CashFlow(ctx, year, time.Month(month), departmentID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	if format == formatJSON {
		c.JSON(http.StatusOK, report)
		return
	}

	summary, err := h.svc.EntrySummary(ctx, repository.EntryFilter{
		From:         report.PeriodStart,
		To:           report.PeriodEnd,
		DepartmentID: departmentID,
	})
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	name := "cash-flow-" + report.PeriodStart.Format("2006-01")
	if format == formatXLSX {
		h.download(c, name+".xlsx", export.ContentTypeXLSX, func() ([]byte, error) { return export.BuildCashFlowXLSX(report, summary) })
		return
	}
	h.download(c, name+".pdf", export.ContentTypePDF, func() ([]byte, error) { return export.BuildCashFlowPDF(report, summary) })
}

// CashFlowSeries returns one cash flow per month between from and to,
// defaulting to the last six months.
func (h *ReportHandler) CashFlowSeries(c *gin.Context) {
	from, err := queryTime(c, "from", h.svc.Location())
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	to, err := queryTime(c, "to", h.svc.Location())
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	series, err := h.svc.CashFlowSeries(c.Request.Context(), from, to, c.Query("department_id"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": series})
}

// CashFlowWarning reports whether a department had two negative months in a row.
func (h *ReportHandler) CashFlowWarning(c *gin.Context) {
	departmentID := c.Query("department_id")
	warn, err := h.svc.CashFlowWarning(c.Request.Context(), departmentID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"department_id": departmentID, "warning": warn})
}

// BudgetVariance reports current-month spend against ceilings.
func (h *ReportHandler) BudgetVariance(c *gin.Context) {
	variances, err := h.svc.BudgetVariances(c.Request.Context(), c.Query("department_id"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": variances})
}

// EntrySummary groups entries by category and direction.
func (h *ReportHandler) EntrySummary(c *gin.Context) {
	filter, err := entryFilter(c, h.svc.Location())
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	summary, err := h.svc.EntrySummary(c.Request.Context(), filter)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": summary})
}

// SalesTally returns the sales accumulated since the process started.
func (h *ReportHandler) SalesTally(c *gin.Context) {
	if h.tally == nil {
		c.JSON(http.StatusOK, reporting.NewSalesTally().Snapshot())
		return
	}
	c.JSON(http.StatusOK, h.tally.Snapshot())
}

func (h *ReportHandler) download(c *gin.Context, filename, contentType string, build func() ([]byte, error)) {
	data, err := build()
	if err != nil {
		writeError(c, h.logger, fmt.Errorf("render %s: %w", filename, err))
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, data)
}

func exportFormat(c *gin.Context) (string, bool) {
	format := c.DefaultQuery("format", formatJSON)
	switch format {
	case formatJSON, formatXLSX, formatPDF:
		return format, true
	default:
		badRequest(c, "format must be json, xlsx or pdf")
		return "", false
	}
}
