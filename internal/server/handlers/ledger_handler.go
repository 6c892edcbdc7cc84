package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/stockledger/internal/service/ledger"
)

// LedgerHandler exposes departments and ledger entries.
type LedgerHandler struct {
	svc    *ledger.Service
	loc    *time.Location
	logger *zap.Logger
}

// NewLedgerHandler constructs the HTTP handler adapter. Plain dates in query
// strings are read in loc.
func NewLedgerHandler(svc *ledger.Service, loc *time.Location, logger *zap.Logger) *LedgerHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &LedgerHandler{svc: svc, loc: loc, logger: logger}
}

// CreateDepartment adds a department.
func (h *LedgerHandler) CreateDepartment(c *gin.Context) {
	var in ledger.DepartmentInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}

	dept, err := h.svc.CreateDepartment(c.Request.Context(), in)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, dept)
}

// ListDepartments returns every department.
func (h *LedgerHandler) ListDepartments(c *gin.Context) {
	departments, err := h.svc.ListDepartments(c.Request.Context())
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": departments})
}

// GetDepartment returns one department.
func (h *LedgerHandler) GetDepartment(c *gin.Context) {
	dept, err := h.svc.GetDepartment(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, dept)
}

// CanSpend answers whether an expense of ?amount= would fit the department's
// budget this month, without recording it.
func (h *LedgerHandler) CanSpend(c *gin.Context) {
	amount, err := queryDecimal(c, "amount")
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	if amount == nil {
		badRequest(c, "amount is required")
		return
	}

	id := c.Param("id")
	allowed, err := h.svc.CanSpend(c.Request.Context(), id, *amount)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"department_id": id, "amount": *amount, "allowed": allowed})
}

// UpdateDepartment renames a department or changes its ceiling.
func (h *LedgerHandler) UpdateDepartment(c *gin.Context) {
	var in ledger.DepartmentInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}

	dept, err := h.svc.UpdateDepartment(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, dept)
}

// DeleteDepartment removes a department without entries.
func (h *LedgerHandler) DeleteDepartment(c *gin.Context) {
	if err := h.svc.DeleteDepartment(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// RecordEntry stores a ledger entry.
func (h *LedgerHandler) RecordEntry(c *gin.Context) {
	var in ledger.EntryInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}

	entry, err := h.svc.Record(c.Request.Context(), in)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

// ListEntries returns entries matching the query, newest first.
func (h *LedgerHandler) ListEntries(c *gin.Context) {
	filter, err := entryFilter(c, h.loc)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	entries, err := h.svc.List(c.Request.Context(), filter)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": entries})
}

// GetEntry returns one entry.
func (h *LedgerHandler) GetEntry(c *gin.Context) {
	entry, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

// DeleteEntry removes an entry.
func (h *LedgerHandler) DeleteEntry(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}
