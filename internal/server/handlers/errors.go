package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/stockledger/internal/domain/models"
)

// writeError maps service errors onto HTTP responses. Rejections carry their
// numbers in the body.
func writeError(c *gin.Context, logger *zap.Logger, err error) {
	var stockErr *models.InsufficientStockError
	var budgetErr *models.BudgetExceededError

	switch {
	case errors.As(err, &stockErr):
		c.JSON(http.StatusConflict, gin.H{
			"error":     err.Error(),
			"item_id":   stockErr.ItemID,
			"available": stockErr.Available,
			"requested": stockErr.Requested,
		})
	case errors.As(err, &budgetErr):
		c.JSON(http.StatusConflict, gin.H{
			"error":         err.Error(),
			"department_id": budgetErr.DepartmentID,
			"ceiling":       budgetErr.Ceiling,
			"current_spend": budgetErr.CurrentSpend,
			"attempted":     budgetErr.Attempted,
			"remaining":     budgetErr.Remaining(),
		})
	case errors.Is(err, models.ErrNotFound), errors.Is(err, models.ErrDepartmentNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrInvalidQuantity),
		errors.Is(err, models.ErrInvalidAmount),
		errors.Is(err, models.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}
