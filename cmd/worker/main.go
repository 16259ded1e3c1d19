package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/vivenda-app/vivenda/internal/app"
	"github.com/vivenda-app/vivenda/internal/assistant"
	"github.com/vivenda-app/vivenda/internal/finance"
	jobmetrics "github.com/vivenda-app/vivenda/internal/jobs"
	"github.com/vivenda-app/vivenda/jobs"
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

	pool, err := pgxpool.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	metrics := jobmetrics.NewMetrics(prometheus.DefaultRegisterer)

	financeRepo := finance.NewRepository(pool)
	financeClient := finance.NewClient(cfg.FinanceAPIURL)
	financeService := finance.NewService(logger, financeRepo, financeClient)
	financeSyncJob := jobs.NewFinanceSyncJob(financeService, logger, metrics)

	assistantClient := assistant.NewWebhookClient(cfg.AssistantWebhookURL)
	assistantPromptJob := jobs.NewAssistantPromptJob(assistantClient, logger, metrics)

	syncTask, err := jobs.NewFinanceSyncTask(jobs.FinanceSyncPayload{Reason: "scheduled"})
	if err != nil {
		logger.Error("build finance sync task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskFinanceSync, Handler: financeSyncJob.Handle},
			{Type: jobs.TaskAssistantPrompt, Handler: assistantPromptJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "*/30 * * * *", Task: syncTask, Options: []asynq.Option{asynq.MaxRetry(0)}},
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
