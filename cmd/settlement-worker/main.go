package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/promptmart/promptmart-backend/api/controllers"
	"github.com/promptmart/promptmart-backend/api/routes"
	"github.com/promptmart/promptmart-backend/internal/cron"
	"github.com/promptmart/promptmart-backend/internal/ledger"
	"github.com/promptmart/promptmart-backend/internal/orders"
	"github.com/promptmart/promptmart-backend/internal/payouts"
	"github.com/promptmart/promptmart-backend/internal/sellers"
	"github.com/promptmart/promptmart-backend/internal/settings"
	"github.com/promptmart/promptmart-backend/internal/settlement"
	"github.com/promptmart/promptmart-backend/pkg/config"
	"github.com/promptmart/promptmart-backend/pkg/db"
	"github.com/promptmart/promptmart-backend/pkg/logger"
	"github.com/promptmart/promptmart-backend/pkg/metrics"
	"github.com/promptmart/promptmart-backend/pkg/paypal"
	"github.com/promptmart/promptmart-backend/pkg/redis"
	"github.com/promptmart/promptmart-backend/pkg/stripe"
)

const serviceName = "settlement-worker"

func main() {
	logg := logger.New(logger.Options{ServiceName: serviceName})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: serviceName,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	if err := run(cfg, logg); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(context.Background(), "settlement worker stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(context.Background(), "settlement worker shutting down gracefully")
}

func run(cfg *config.Config, logg *logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithField(ctx, "env", cfg.App.Env)

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return fmt.Errorf("bootstrap database: %w", err)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(ctx, "error closing database", err)
		}
	}()

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return fmt.Errorf("bootstrap redis: %w", err)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(ctx, "error closing redis", err)
		}
	}()

	var stripeClient *stripe.Client
	if cfg.Stripe.APIKey != "" {
		stripeClient, err = stripe.NewClient(ctx, cfg.Stripe, logg)
		if err != nil {
			return fmt.Errorf("bootstrap stripe: %w", err)
		}
	} else {
		logg.Warn(ctx, "stripe not configured; real-time transfers disabled")
	}

	var paypalClient *paypal.Client
	if cfg.PayPal.ClientID != "" {
		paypalClient, err = paypal.NewClient(cfg.PayPal)
		if err != nil {
			return fmt.Errorf("bootstrap paypal: %w", err)
		}
	} else {
		logg.Warn(ctx, "paypal not configured; pending batches cannot be executed")
	}

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	sweepMetrics := metrics.NewSweepMetrics(promRegistry)

	gormDB := dbClient.DB()
	ordersRepo := orders.NewRepository(gormDB)
	sellersRepo := sellers.NewRepository(gormDB)
	ledgerRepo := ledger.NewRepository(gormDB)
	batchesRepo := payouts.NewRepository(gormDB)

	settingsService, err := settings.NewService(settings.NewRepository(gormDB))
	if err != nil {
		return fmt.Errorf("create settings service: %w", err)
	}
	ledgerService, err := ledger.NewService(ledgerRepo)
	if err != nil {
		return fmt.Errorf("create ledger service: %w", err)
	}

	var processor settlement.Processor
	var transfers payouts.TransferClient
	if stripeClient != nil {
		processor = stripeClient
		transfers = stripeClient
	}

	settlementService, err := settlement.NewService(settlement.ServiceParams{
		Logger:    logg,
		DB:        dbClient,
		Orders:    ordersRepo,
		Sellers:   sellersRepo,
		Ledger:    ledgerRepo,
		Settings:  settingsService,
		Processor: processor,
	})
	if err != nil {
		return fmt.Errorf("create settlement service: %w", err)
	}

	var payoutClient payouts.PayoutClient
	if paypalClient != nil {
		payoutClient = paypalClient
	}
	payoutService, err := payouts.NewService(payouts.ServiceParams{
		Logger:  logg,
		Ledger:  ledgerRepo,
		Sellers: sellersRepo,
		Batches: batchesRepo,
		Payouts: payoutClient,
		Metrics: sweepMetrics,
	})
	if err != nil {
		return fmt.Errorf("create payout service: %w", err)
	}

	estimator, err := payouts.NewEstimator(ledgerRepo, settingsService, nil)
	if err != nil {
		return fmt.Errorf("create payout estimator: %w", err)
	}

	sweepJob, err := payouts.NewSweepJob(payouts.SweepJobParams{
		Logger:    logg,
		Ledger:    ledgerRepo,
		Sellers:   sellersRepo,
		Batches:   batchesRepo,
		Settings:  settingsService,
		Transfers: transfers,
		Metrics:   sweepMetrics,
	})
	if err != nil {
		return fmt.Errorf("create sweep job: %w", err)
	}

	lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey("payout-sweep"), cfg.Worker.LockTTL)
	if err != nil {
		return fmt.Errorf("create sweep lock: %w", err)
	}
	cronService, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(sweepJob),
		Lock:     lock,
		Metrics:  sweepMetrics,
		Interval: cfg.Worker.SweepInterval,
	})
	if err != nil {
		return fmt.Errorf("create cron service: %w", err)
	}

	handler := routes.NewRouter(routes.RouterParams{
		Config: cfg,
		Logger: logg,
		Pingers: map[string]controllers.Pinger{
			"database": dbClient,
			"redis":    redisClient,
		},
		Settlement: settlementService,
		Ledger:     ledgerService,
		Payouts:    payoutService,
		Estimator:  estimator,
		Registry:   promRegistry,
	})

	server := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logg.Info(logg.WithField(ctx, "addr", server.Addr), "http server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	cronErr := make(chan error, 1)
	go func() {
		cronErr <- cronService.Run(ctx)
	}()

	logg.Info(ctx, "settlement worker started")

	var runErr error
	select {
	case <-ctx.Done():
		runErr = ctx.Err()
	case err := <-serverErr:
		runErr = fmt.Errorf("http server: %w", err)
	case err := <-cronErr:
		runErr = err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logg.Error(ctx, "http server shutdown failed", err)
	}
	return runErr
}
