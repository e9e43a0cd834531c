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

	"github.com/reefdesk/reefdesk/internal/app"
	"github.com/reefdesk/reefdesk/internal/booking"
	"github.com/reefdesk/reefdesk/internal/commission"
	"github.com/reefdesk/reefdesk/internal/divepkg"
	"github.com/reefdesk/reefdesk/internal/invoicing"
	"github.com/reefdesk/reefdesk/internal/observability"
	"github.com/reefdesk/reefdesk/internal/packages"
	"github.com/reefdesk/reefdesk/internal/platform/cache"
	"github.com/reefdesk/reefdesk/internal/platform/db"
	"github.com/reefdesk/reefdesk/internal/pricing"
	"github.com/reefdesk/reefdesk/jobs"
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

	pool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, pricing snapshots uncached", slog.Any("error", err))
	}
	defer func() {
		if redisClient != nil {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}
	}()

	metrics := observability.NewMetrics()

	var snapshots *pricing.SnapshotCache
	if redisClient != nil {
		snapshots = pricing.NewSnapshotCache(redisClient, cfg.PriceCacheTTL)
	}
	pricingService := pricing.NewService(pricing.NewRepository(pool), snapshots, metrics)
	pricingHandler := pricing.NewHandler(logger, pricingService)

	packagesService := packages.NewService(packages.NewRepository(pool))
	packagesHandler := packages.NewHandler(logger, packagesService)

	divepkgService := divepkg.NewService(divepkg.NewRepository(pool), metrics)
	divepkgHandler := divepkg.NewHandler(logger, divepkgService)

	jobsClient := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := jobsClient.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()
	enqueueRecompute := func(ctx context.Context, invoiceID, agentID int64) error {
		_, err := jobsClient.EnqueueCommissionRecompute(ctx, jobs.CommissionRecomputePayload{
			InvoiceID: invoiceID,
			AgentID:   agentID,
		})
		return err
	}

	commissionRepo := commission.NewRepository(pool)
	commissionService := commission.NewService(commissionRepo, metrics, logger)
	commissionHandler := commission.NewHandler(logger, commissionService, enqueueRecompute)

	bookingRepo := booking.NewRepository(pool)
	bookingHandler := booking.NewHandler(logger, bookingRepo)

	invoicingRepo := invoicing.NewRepository(pool, metrics)
	invoicingService := invoicing.NewService(invoicingRepo, commissionRepo, bookingRepo, logger)
	invoicingHandler := invoicing.NewHandler(logger, invoicingService)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobsHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		BookingHandler:    bookingHandler,
		PricingHandler:    pricingHandler,
		PackagesHandler:   packagesHandler,
		DivePkgHandler:    divepkgHandler,
		CommissionHandler: commissionHandler,
		InvoicingHandler:  invoicingHandler,
		JobsHandler:       jobsHandler,
		Metrics:           metrics,
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
