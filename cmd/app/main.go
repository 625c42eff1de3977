// File: cmd/app/main.go
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"freelance-marketplace/internal/config"
	"freelance-marketplace/internal/domain/ports/adapter"
	payAdapters "freelance-marketplace/internal/infra/adapters/payment"
	pg "freelance-marketplace/internal/infra/db/postgres"
	"freelance-marketplace/internal/infra/logging"
	"freelance-marketplace/internal/infra/metrics"
	red "freelance-marketplace/internal/infra/redis"
	"freelance-marketplace/internal/infra/sched"
	"freelance-marketplace/internal/infra/web"
	"freelance-marketplace/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (noop gateway, relaxed validation)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("developer mode enabled")
	}

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, cfg.Database.MaxConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()

	// ---- Redis (optional in dev) ----
	var limiter *red.RateLimiter
	var publisher adapter.EventPublisher
	if cfg.Redis.URL != "" {
		redisClient, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis")
		}
		defer redisClient.Close()
		limiter = red.NewRateLimiter(redisClient)
		publisher = red.NewEventPublisher(redisClient)
	} else if !cfg.Runtime.Dev {
		logger.Fatal().Msg("redis.url is required outside dev mode")
	}

	// ---- Repositories ----
	intentRepo := pg.NewPaymentIntentRepo(pool)
	eventRepo := pg.NewProcessedEventRepo(pool)
	subscriberRepo := pg.NewSubscriberRepo(pool)
	txManager := pg.NewTxManager(pool)

	// ---- Payment gateway ----
	var gateway adapter.CheckoutGateway
	var verifier adapter.WebhookVerifier
	if cfg.Runtime.Dev && cfg.Stripe.SecretKey == "" {
		gateway = payAdapters.NewNoopGateway()
		verifier = payAdapters.NewStripeVerifier(cfg.Stripe.WebhookSecret)
		logger.Warn().Msg("payment gateway: noop (dev)")
	} else {
		gateway = payAdapters.NewStripeGateway(cfg.Stripe.SecretKey)
		verifier = payAdapters.NewStripeVerifier(cfg.Stripe.WebhookSecret)
		logger.Info().Str("gateway", gateway.Name()).Msg("payment gateway ready")
	}

	// ---- Use cases ----
	paymentUC := usecase.NewPaymentUseCase(intentRepo, subscriberRepo, gateway, cfg.Stripe.FrontendURL, logger)
	webhookUC := usecase.NewWebhookUseCase(eventRepo, intentRepo, subscriberRepo, txManager, publisher, logger)

	// ---- Metrics ----
	metrics.MustRegister()

	// ---- HTTP ----
	auth := web.NewAuthManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	server := web.NewServer(cfg, paymentUC, webhookUC, verifier, auth, limiter, logger)

	// ---- Reconciler ----
	reconciler := sched.NewReconciler(intentRepo, subscriberRepo, cfg.Reconciler.Interval, cfg.Reconciler.Batch, logger)
	go reconciler.Start(ctx)

	go func() {
		if err := server.Start(); err != nil {
			logger.Error().Err(err).Msg("http server stopped")
			cancel()
		}
	}()

	// ---- Shutdown ----
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
		logger.Info().Msg("shutdown signal received")
	case <-ctx.Done():
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
	logger.Info().Msg("bye")
}
