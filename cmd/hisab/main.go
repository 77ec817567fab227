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

	"github.com/hisab-pos/hisab/internal/app"
	"github.com/hisab-pos/hisab/internal/auth"
	"github.com/hisab-pos/hisab/internal/billing"
	"github.com/hisab-pos/hisab/internal/customers"
	"github.com/hisab-pos/hisab/internal/employees"
	"github.com/hisab-pos/hisab/internal/loyalty"
	"github.com/hisab-pos/hisab/internal/observability"
	"github.com/hisab-pos/hisab/internal/platform/cache"
	"github.com/hisab-pos/hisab/internal/platform/db"
	"github.com/hisab-pos/hisab/internal/products"
	"github.com/hisab-pos/hisab/internal/settings"
	"github.com/hisab-pos/hisab/jobs"
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

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
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

	metrics := observability.NewMetrics()
	sessions := auth.NewSessionManager(redisClient, cfg.SessionTTL)

	authRepo := auth.NewRepository(pool)
	authService := auth.NewService(authRepo)
	authHandler := auth.NewHandler(logger, authService, sessions)

	customerRepo := customers.NewRepository(pool)
	loyaltyRepo := loyalty.NewRepository(pool)
	settingsRepo := settings.NewRepository(pool)
	productsRepo := products.NewRepository(pool)
	employeesRepo := employees.NewRepository(pool)

	loyaltyService := loyalty.NewService(loyaltyRepo, logger)
	customerService := customers.NewService(customerRepo, loyaltyRepo, logger)
	settingsService := settings.NewService(settingsRepo)

	billingRepo := billing.NewRepository(pool)
	billingService := billing.NewService(billing.NewTxRunner(pool), billingRepo, redisClient, metrics, logger)

	// Heal sequences on boot so restored databases do not serve duplicate
	// key errors on the first insert.
	recoverCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	if err := billingService.RecoverSequences(recoverCtx); err != nil {
		logger.Warn("recover sequences", slog.Any("error", err))
	}
	cancel()

	billingHandler := billing.NewHandler(logger, billingService)
	customerHandler := customers.NewHandler(logger, customerService, loyaltyService)
	settingsHandler := settings.NewHandler(logger, settingsService)
	productsHandler := products.NewHandler(logger, productsRepo)
	employeesHandler := employees.NewHandler(logger, employeesRepo)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobsHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		AuthHandler:      authHandler,
		AuthMiddleware:   auth.Middleware(sessions, logger),
		BillingHandler:   billingHandler,
		CustomersHandler: customerHandler,
		SettingsHandler:  settingsHandler,
		ProductsHandler:  productsHandler,
		EmployeesHandler: employeesHandler,
		JobsHandler:      jobsHandler,
		Metrics:          metrics,
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
