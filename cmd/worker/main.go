package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/hisab-pos/hisab/internal/app"
	"github.com/hisab-pos/hisab/internal/billing"
	jobmetrics "github.com/hisab-pos/hisab/internal/jobs"
	"github.com/hisab-pos/hisab/internal/loyalty"
	"github.com/hisab-pos/hisab/internal/observability"
	"github.com/hisab-pos/hisab/internal/platform/cache"
	"github.com/hisab-pos/hisab/internal/platform/db"
	"github.com/hisab-pos/hisab/jobs"
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

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := jobmetrics.NewMetrics(nil)

	loyaltyRepo := loyalty.NewRepository(pool)
	loyaltyService := loyalty.NewService(loyaltyRepo, logger)

	billingRepo := billing.NewRepository(pool)
	billingService := billing.NewService(billing.NewTxRunner(pool), billingRepo, redisClient, observability.NewMetrics(), logger)

	recoveryJob := jobs.NewSequenceRecoveryJob(billingService, logger, metrics)
	tierJob := jobs.NewTierReviewJob(loyaltyService, logger, metrics)

	recoveryTask, err := jobs.NewSequenceRecoveryTask(jobs.SequenceRecoveryPayload{Reason: "scheduled"})
	if err != nil {
		logger.Error("build recovery task", slog.Any("error", err))
		os.Exit(1)
	}
	tierTask, err := jobs.NewTierReviewTask(jobs.TierReviewPayload{})
	if err != nil {
		logger.Error("build tier review task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskSequenceRecovery, Handler: recoveryJob.Handle},
			{Type: jobs.TaskLoyaltyTierReview, Handler: tierJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "30 3 * * *", Task: recoveryTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "0 2 * * *", Task: tierTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
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
