package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/mamadbah2/stockledger/internal/config"
	"github.com/mamadbah2/stockledger/internal/locking"
	"github.com/mamadbah2/stockledger/internal/observability/metrics"
	"github.com/mamadbah2/stockledger/internal/repository"
	"github.com/mamadbah2/stockledger/internal/repository/memory"
	"github.com/mamadbah2/stockledger/internal/repository/mongodb"
	"github.com/mamadbah2/stockledger/internal/repository/sheets"
	"github.com/mamadbah2/stockledger/internal/scheduler"
	"github.com/mamadbah2/stockledger/internal/server/handlers"
	"github.com/mamadbah2/stockledger/internal/server/router"
	commandsvc "github.com/mamadbah2/stockledger/internal/service/commands"
	inventorysvc "github.com/mamadbah2/stockledger/internal/service/inventory"
	ledgersvc "github.com/mamadbah2/stockledger/internal/service/ledger"
	reportingsvc "github.com/mamadbah2/stockledger/internal/service/reporting"
	whatsappsvc "github.com/mamadbah2/stockledger/internal/service/whatsapp"
	whatsappclient "github.com/mamadbah2/stockledger/pkg/clients/whatsapp"
	"github.com/mamadbah2/stockledger/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.Server.LogLevel))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	loc, err := cfg.Reporting.Location()
	if err != nil {
		baseLogger.Fatal("invalid timezone", zap.Error(err))
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics.Init(registry)

	var store repository.Store
	switch cfg.Store.Backend {
	case config.BackendMongoDB:
		connectCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		mongoRepo, err := mongodb.NewMongoDBRepository(connectCtx, cfg.MongoDB.URI, cfg.MongoDB.DBName, baseLogger.Named("repo.mongodb"))
		cancel()
		if err != nil {
			baseLogger.Fatal("failed to init mongodb repository", zap.Error(err))
		}
		defer func() {
			if err := mongoRepo.Close(context.Background()); err != nil {
				baseLogger.Error("failed to close mongodb connection", zap.Error(err))
			}
		}()
		store = mongoRepo
	default:
		baseLogger.Warn("using in-memory store, data is lost on restart")
		store = memory.NewStore()
	}

	tally := reportingsvc.NewSalesTally()
	sales := inventorysvc.SaleRecorders{tally}

	var entryRecorder ledgersvc.EntryRecorder
	var cashFlowArchive scheduler.CashFlowRecorder
	if cfg.Sheets.Enabled() {
		sheetsRepo, err := sheets.NewGoogleSheetRepository(context.Background(), cfg.Sheets, baseLogger.Named("repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets repository", zap.Error(err))
		}
		mirror := sheets.NewMirror(sheetsRepo)
		headerCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		if err := mirror.EnsureHeaders(headerCtx); err != nil {
			baseLogger.Warn("failed to prepare sheet headers", zap.Error(err))
		}
		cancel()
		sales = append(sales, mirror)
		entryRecorder = mirror
		cashFlowArchive = mirror
		baseLogger.Info("google sheets mirror enabled")
	}

	locks := locking.NewKeyedMutex()
	inventoryService := inventorysvc.NewService(store, locks, sales, baseLogger.Named("svc.inventory"))
	ledgerService := ledgersvc.NewService(store, locks, entryRecorder, loc, baseLogger.Named("svc.ledger"))
	reportingService := reportingsvc.NewService(store, loc, baseLogger.Named("svc.reporting"))

	routes := router.Handlers{
		Inventory: handlers.NewInventoryHandler(inventoryService, baseLogger.Named("handlers.inventory")),
		Ledger:    handlers.NewLedgerHandler(ledgerService, loc, baseLogger.Named("handlers.ledger")),
		Reports:   handlers.NewReportHandler(reportingService, tally, cfg.Reporting.LowStockThreshold, baseLogger.Named("handlers.reports")),
	}

	var notifier scheduler.Notifier
	if cfg.WhatsApp.Enabled() {
		dispatcher := commandsvc.NewService(inventoryService, ledgerService, reportingService, cfg.Reporting.LowStockThreshold, baseLogger.Named("svc.commands"))
		whatsClient := whatsappclient.NewClient(cfg.WhatsApp)
		messagingSvc := whatsappsvc.NewMetaWhatsAppService(cfg.WhatsApp, whatsClient, dispatcher, baseLogger.Named("svc.whatsapp"))
		routes.Webhook = handlers.NewWebhookHandler(messagingSvc, baseLogger.Named("handlers.whatsapp"))
		if cfg.WhatsApp.GroupID != "" {
			notifier = messagingSvc
		}
		baseLogger.Info("whatsapp command channel enabled")
	} else {
		baseLogger.Warn("whatsapp credentials missing, command channel disabled")
	}

	engine := router.New(routes, registry, baseLogger.Named("router"))

	sched := scheduler.NewScheduler(cfg.Reporting.CronSchedule, reportingService, notifier, cashFlowArchive, baseLogger.Named("scheduler"))
	if err := sched.Start(); err != nil {
		baseLogger.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port), zap.String("store", cfg.Store.Backend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}
