package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/mamadbah2/stockledger/internal/server/handlers"
)

// Handlers groups the HTTP adapters. Webhook may be nil when WhatsApp is not
// configured.
type Handlers struct {
	Inventory *handlers.InventoryHandler
	Ledger    *handlers.LedgerHandler
	Reports   *handlers.ReportHandler
	Webhook   *handlers.WebhookHandler
}

// New wires the Gin engine with required routes and middlewares. gatherer
// backs /metrics; nil skips the route.
func New(h Handlers, gatherer prometheus.Gatherer, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	if h.Webhook != nil {
		r.GET("/webhook", h.Webhook.Verify)
		r.POST("/webhook", h.Webhook.Receive)
		r.POST("/send-message", h.Webhook.SendMessage)
	}

	api := r.Group("/api/v1")

	items := api.Group("/items")
	items.POST("", h.Inventory.Create)
	items.GET("", h.Inventory.List)
	items.GET("/:id", h.Inventory.Get)
	items.PUT("/:id", h.Inventory.Update)
	items.DELETE("/:id", h.Inventory.Delete)
	items.POST("/:id/sell", h.Inventory.Sell)
	items.POST("/:id/restock", h.Inventory.Restock)

	departments := api.Group("/departments")
	departments.POST("", h.Ledger.CreateDepartment)
	departments.GET("", h.Ledger.ListDepartments)
	departments.GET("/:id", h.Ledger.GetDepartment)
	departments.GET("/:id/can-spend", h.Ledger.CanSpend)
	departments.PUT("/:id", h.Ledger.UpdateDepartment)
	departments.DELETE("/:id", h.Ledger.DeleteDepartment)

	entries := api.Group("/entries")
	entries.POST("", h.Ledger.RecordEntry)
	entries.GET("", h.Ledger.ListEntries)
	entries.GET("/:id", h.Ledger.GetEntry)
	entries.DELETE("/:id", h.Ledger.DeleteEntry)

	reports := api.Group("/reports")
	reports.GET("/stock-value", h.Reports.StockValue)
	reports.GET("/top-stock", h.Reports.TopStock)
	reports.GET("/low-stock", h.Reports.LowStock)
	reports.GET("/cash-flow", h.Reports.CashFlow)
	reports.GET("/cash-flow/warning", h.Reports.CashFlowWarning)
	reports.GET("/cash-flow/series", h.Reports.CashFlowSeries)
	reports.GET("/budget-variance", h.Reports.BudgetVariance)
	reports.GET("/entry-summary", h.Reports.EntrySummary)
	reports.GET("/sales-tally", h.Reports.SalesTally)

	if logger != nil {
		logger.Info("router initialized")
	}

	return r
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			logger.Error("request completed", fields...)
			return
		}
		logger.Info("request completed", fields...)
	}
}
