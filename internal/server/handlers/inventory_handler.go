package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/stockledger/internal/repository"
	"github.com/mamadbah2/stockledger/internal/service/inventory"
)

// InventoryHandler exposes stock item CRUD and the sell and restock operations.
type InventoryHandler struct {
	svc    *inventory.Service
	logger *zap.Logger
}

// NewInventoryHandler constructs the HTTP handler adapter.
func NewInventoryHandler(svc *inventory.Service, logger *zap.Logger) *InventoryHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InventoryHandler{svc: svc, logger: logger}
}

type sellRequest struct {
	Quantity int    `json:"quantity"`
	Note     string `json:"note"`
}

type restockRequest struct {
	Quantity int `json:"quantity"`
}

// Create adds a stock item.
func (h *InventoryHandler) Create(c *gin.Context) {
	var in inventory.ItemInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}

	item, err := h.svc.Create(c.Request.Context(), in)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

// List returns a filtered, sorted page of items.
func (h *InventoryHandler) List(c *gin.Context) {
	minPrice, err := queryDecimal(c, "min_price")
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	maxPrice, err := queryDecimal(c, "max_price")
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	page, err := queryInt(c, "page", 1)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	pageSize, err := queryInt(c, "page_size", 0)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	result, err := h.svc.List(c.Request.Context(), inventory.ListQuery{
		Filter: repository.StockFilter{
			NameContains: c.Query("name"),
			Category:     c.Query("category"),
			MinPrice:     minPrice,
			MaxPrice:     maxPrice,
		},
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
		Page:      page,
		PageSize:  pageSize,
	})
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Get returns one item.
func (h *InventoryHandler) Get(c *gin.Context) {
	item, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// Update replaces the editable fields of an item.
func (h *InventoryHandler) Update(c *gin.Context) {
	var in inventory.ItemInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}

	item, err := h.svc.Update(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// Delete removes an item.
func (h *InventoryHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Sell decrements stock and returns the receipt.
func (h *InventoryHandler) Sell(c *gin.Context) {
	var req sellRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}

	receipt, err := h.svc.Sell(c.Request.Context(), c.Param("id"), req.Quantity, req.Note)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, receipt)
}

// Restock adds units to an item.
func (h *InventoryHandler) Restock(c *gin.Context) {
	var req restockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}

	item, err := h.svc.Restock(c.Request.Context(), c.Param("id"), req.Quantity)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, item)
}
