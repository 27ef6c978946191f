package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/shopsphere/payments-core/internal/application/services"
	"github.com/shopsphere/payments-core/internal/config"
	"github.com/shopsphere/payments-core/internal/infrastructure/gateway"
	"github.com/shopsphere/payments-core/internal/infrastructure/persistence/postgres"
	"github.com/shopsphere/payments-core/internal/interfaces/rest/handlers"
	"github.com/shopsphere/payments-core/internal/interfaces/rest/middleware"
	"github.com/shopsphere/payments-core/internal/worker"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := cfg.Logger.NewLogger(cfg.Primary.Env)
	slog.SetDefault(logger)

	logger.Info("starting payments service",
		"port", cfg.Server.Port,
		"env", cfg.Primary.Env,
		"log_level", cfg.Logger.Level,
	)

	if cfg.Gateway.WebhookSecret == "" {
		logger.Warn("webhook signing secret not configured, events will be accepted unverified")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Connect(ctx, &cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	orderRepo := postgres.NewOrderRepository(db)
	userRepo := postgres.NewUserRepository(db)
	ledgerRepo := postgres.NewLedgerRepository(db)

	stripeClient := gateway.NewStripeGateway(cfg.Gateway, logger)
	gatewayClient := gateway.NewRetryGateway(stripeClient, cfg.Retry)

	intentService := services.NewPaymentIntentService(orderRepo, userRepo, gatewayClient, cfg.Gateway.Currency, logger)
	reconciler := services.NewWebhookReconciler(orderRepo, ledgerRepo, gatewayClient, logger)
	statusService := services.NewStatusService(orderRepo, gatewayClient, logger)

	h := handlers.NewHandlers(
		intentService,
		reconciler,
		statusService,
		cfg.Gateway.PublishableKey,
		cfg.Auth.JWTSecret,
		logger,
	)

	router := chi.NewRouter()
	router.Use(chimw.RequestID)
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.Logging(logger))
	router.Use(middleware.Metrics)
	router.Use(middleware.Timeout(cfg.Server.ReadTimeout))
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.Cors.Origins(),
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type", "Stripe-Signature"},
	}))

	router.Handle("/metrics", promhttp.Handler())
	h.Routes(router)

	server := &http.Server{
		Addr:         "0.0.0.0:" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	ledgerGC := worker.NewLedgerGC(
		ledgerRepo,
		cfg.Worker.Interval,
		cfg.Worker.LedgerRetention,
		cfg.Worker.BatchSize,
		logger,
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		ledgerGC.Start(gctx)
		return nil
	})

	g.Go(func() error {
		logger.Info("server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}

	logger.Info("server exited")
}
