package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/reefdesk/reefdesk/internal/app"
	"github.com/reefdesk/reefdesk/internal/commission"
	"github.com/reefdesk/reefdesk/internal/divepkg"
	"github.com/reefdesk/reefdesk/internal/invoicing"
	"github.com/reefdesk/reefdesk/internal/platform/db"
	"github.com/reefdesk/reefdesk/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
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

	divepkgService := divepkg.NewService(divepkg.NewRepository(pool), nil)
	expiryJob := jobs.NewDivePackageExpiryJob(divepkgService, logger)

	commissionRepo := commission.NewRepository(pool)
	commissionService := commission.NewService(commissionRepo, nil, logger)
	invoicingRepo := invoicing.NewRepository(pool, nil)
	recomputeJob := jobs.NewCommissionRecomputeJob(invoicingRepo, commissionService, logger)

	expiryTask, err := jobs.NewDivePackageExpiryTask(jobs.DivePackageExpiryPayload{})
	if err != nil {
		logger.Error("build expiry task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskDivePackageExpiry, Handler: expiryJob.Handle},
			{Type: jobs.TaskCommissionRecompute, Handler: recomputeJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "15 2 * * *", Task: expiryTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
