package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"habitual/internal/ai"
	"habitual/internal/amqp"
	"habitual/internal/auth"
	"habitual/internal/billing"
	"habitual/internal/cache"
	"habitual/internal/config"
	apphttp "habitual/internal/http"
	"habitual/internal/log"
	"habitual/internal/services"
	"habitual/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := log.New(log.DefaultConfig())
	log.SetDefault(logger)

	logger.Info("Starting habitual server")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: cfg.SentryDSN}); err != nil {
			logger.Error("Failed to initialize Sentry", log.FieldError, err)
			os.Exit(1)
		}
		defer sentry.Flush(2 * time.Second)
	}

	repo, err := storage.NewRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize storage", log.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	// The broker is optional: entries stay durable either way, the worker
	// just catches up on its prune ticker instead.
	var publisher services.EventPublisher
	if cfg.AMQPURL != "" {
		// The server only publishes, so no consumer prefetch is needed.
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, 0)
		if err != nil {
			logger.Warn("AMQP unavailable, continuing without event publishing", log.FieldError, err)
		} else {
			defer amqpClient.Close()
			publisher = amqpClient
		}
	}

	cacheManager := cache.NewManager()
	cacheManager.StartCleanup(10 * time.Minute)
	defer cacheManager.Stop()

	deps := apphttp.Deps{
		Repo:    repo,
		Auth:    auth.NewService(cfg, repo, logger),
		Entries: services.NewEntryService(repo, publisher, nil, logger),
		Habits:  services.NewHabitService(repo),
		Friends: services.NewFriendService(repo),
		Cache:   cacheManager,
		Logger:  logger,
	}
	if cfg.AIEnabled() {
		generator := ai.NewClient(cfg.AnthropicAPIKey, cfg.AnthropicModel)
		deps.Insights = services.NewInsightService(repo, generator, logger)
	} else {
		logger.Info("AI insights disabled - no ANTHROPIC_API_KEY provided")
	}
	if cfg.StripeEnabled() {
		deps.Billing = billing.NewClient(cfg)
	} else {
		logger.Info("Billing disabled - no STRIPE_SECRET_KEY provided")
	}

	srv := apphttp.NewServer(cfg, deps)
	srv.ReadTimeout = 15 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Listening", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
