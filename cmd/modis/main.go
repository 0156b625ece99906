package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/Kashan-amd/modis/internal/accounts"
	"github.com/Kashan-amd/modis/internal/app"
	"github.com/Kashan-amd/modis/internal/balances"
	"github.com/Kashan-amd/modis/internal/ledger"
	"github.com/Kashan-amd/modis/internal/organizations"
	"github.com/Kashan-amd/modis/internal/pettycash"
	"github.com/Kashan-amd/modis/internal/platform/cache"
	"github.com/Kashan-amd/modis/internal/platform/db"
	"github.com/Kashan-amd/modis/internal/projects"
	"github.com/Kashan-amd/modis/internal/reports"
	"github.com/Kashan-amd/modis/internal/shared"
	"github.com/Kashan-amd/modis/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, balance cache disabled", slog.Any("error", err))
	}
	defer func() {
		if redisClient == nil {
			return
		}
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	auditLogger := shared.NewAuditLogger(dbpool)
	balanceCache := balances.NewCache(redisClient, cfg.BalanceCacheTTL)

	organizationsRepo := organizations.NewRepository(dbpool)
	organizationsService := organizations.NewService(organizationsRepo)
	organizationsHandler := organizations.NewHandler(logger, organizationsService)

	accountsRepo := accounts.NewRepository(dbpool)
	accountsService := accounts.NewService(accountsRepo, auditLogger)
	accountsHandler := accounts.NewHandler(logger, accountsService)

	ledgerRepo := ledger.NewRepository(dbpool)
	ledgerService := ledger.NewService(ledgerRepo, auditLogger, balanceCache)
	ledgerHandler := ledger.NewHandler(logger, ledgerService)

	balancesRepo := balances.NewRepository(dbpool)
	balancesService := balances.NewService(balancesRepo, balanceCache, auditLogger)
	balancesHandler := balances.NewHandler(logger, balancesService)

	pettyCashRepo := pettycash.NewRepository(dbpool)
	pettyCashService := pettycash.NewService(pettyCashRepo, auditLogger)
	pettyCashHandler := pettycash.NewHandler(logger, pettyCashService)

	projectsRepo := projects.NewRepository(dbpool)
	projectsService := projects.NewService(projectsRepo)
	projectsHandler := projects.NewHandler(logger, projectsService)

	reportBuilder := reports.NewBuilder(organizationsService, balancesService)
	var pdfExporter *reports.PDFExporter
	if cfg.GotenbergURL != "" {
		pdfExporter = &reports.PDFExporter{Endpoint: cfg.GotenbergURL, Client: http.DefaultClient}
	}
	reportsHandler := reports.NewHandler(logger, reportBuilder, pdfExporter)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobsClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init jobs client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobsClient.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()
	jobsHandler := jobs.NewHandler(inspector, jobsClient, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:               logger,
		Config:               cfg,
		OrganizationsHandler: organizationsHandler,
		AccountsHandler:      accountsHandler,
		LedgerHandler:        ledgerHandler,
		BalancesHandler:      balancesHandler,
		PettyCashHandler:     pettyCashHandler,
		ProjectsHandler:      projectsHandler,
		ReportsHandler:       reportsHandler,
		JobsHandler:          jobsHandler,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
