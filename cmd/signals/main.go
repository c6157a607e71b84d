package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/shiplog-systems/shiplog-signals/internal/adapter"
	"github.com/shiplog-systems/shiplog-signals/internal/audit"
	"github.com/shiplog-systems/shiplog-signals/internal/config"
	"github.com/shiplog-systems/shiplog-signals/internal/dedup"
	"github.com/shiplog-systems/shiplog-signals/internal/dlq"
	"github.com/shiplog-systems/shiplog-signals/internal/handlers"
	"github.com/shiplog-systems/shiplog-signals/internal/logging"
	"github.com/shiplog-systems/shiplog-signals/internal/persist"
	"github.com/shiplog-systems/shiplog-signals/internal/pipeline"
	"github.com/shiplog-systems/shiplog-signals/internal/ratelimit"
	"github.com/shiplog-systems/shiplog-signals/internal/server"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize structured logging
	logger := logging.New(
		logging.ParseLevel(cfg.Logging.Level),
		cfg.Logging.Format,
	).With(logging.Service("signals"))
	logging.SetDefault(logger)

	slog.Info("Starting signal pipeline service",
		slog.Int("port", cfg.Server.Port),
		slog.String("log_level", cfg.Logging.Level),
		slog.Bool("redis_enabled", cfg.Redis.Enabled),
		slog.Bool("postgres_enabled", cfg.Postgres.Enabled),
		slog.Bool("nats_enabled", cfg.NATS.Enabled),
	)

	// Deduplication store: Redis shares one view across instances,
	// memory is the single-instance development fallback.
	var guard dedup.Store
	if cfg.Redis.Enabled {
		redisGuard, err := dedup.NewRedisStore(cfg.Redis.URL, cfg.Dedup.TTL)
		if err != nil {
			log.Fatalf("Failed to connect dedup store: %v", err)
		}
		guard = redisGuard
		slog.Info("Dedup store ready",
			slog.String("backend", "redis"),
			slog.Duration("ttl", cfg.Dedup.TTL),
		)
	} else {
		guard = dedup.NewMemoryStore()
		slog.Warn("Using in-memory dedup store (development only)")
	}
	defer guard.Close()

	// Signal store
	var store persist.SignalStore
	if cfg.Postgres.Enabled {
		pgStore, err := persist.NewPostgresStore(context.Background(), cfg.Postgres.DSN)
		if err != nil {
			slog.Error("Failed to connect to PostgreSQL", slog.String("error", err.Error()))
			os.Exit(1)
		}
		store = pgStore
		slog.Info("Connected to PostgreSQL")

		// Run database migrations
		slog.Info("Running database migrations")
		m, err := migrate.New(cfg.Postgres.MigrationsPath, cfg.Postgres.DSN)
		if err != nil {
			slog.Error("Failed to initialize migrations", slog.String("error", err.Error()))
			os.Exit(1)
		}
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			slog.Error("Failed to run migrations", slog.String("error", err.Error()))
			os.Exit(1)
		}
	} else {
		store = persist.NewMemoryStore()
		slog.Warn("Using in-memory signal store (development only)")
	}
	defer store.Close()

	// Audit trail and dead letter queue ride the same NATS deployment.
	var trail audit.Trail = audit.NopTrail{}
	var deadLetters dlq.Writer = dlq.NopWriter{}
	if cfg.NATS.Enabled {
		natsTrail, err := audit.NewNATSTrail(cfg.NATS.URL, cfg.Audit.SigningKey, logger.Logger)
		if err != nil {
			log.Fatalf("Failed to connect audit trail: %v", err)
		}
		trail = natsTrail
		defer natsTrail.Close()

		jsQueue, err := dlq.NewJetStreamQueue(context.Background(), cfg.NATS.URL, logger.Logger)
		if err != nil {
			log.Fatalf("Failed to initialize JetStream DLQ: %v", err)
		}
		deadLetters = jsQueue
		defer jsQueue.Close()
		slog.Info("Audit trail and DLQ enabled", slog.String("nats_url", cfg.NATS.URL))
	} else {
		slog.Warn("NATS disabled - audit trail and DLQ are no-ops")
	}

	// Rate limiter
	var limiter ratelimit.RateLimiter = ratelimit.NoOpRateLimiter{}
	if cfg.Redis.Enabled && cfg.Ingestion.RateLimitEnabled {
		redisLimiter, err := ratelimit.NewRedisRateLimiter(
			cfg.Redis.URL,
			cfg.Ingestion.RateLimitRequests,
			cfg.Ingestion.RateLimitWindow,
		)
		if err != nil {
			slog.Warn("Failed to initialize rate limiter, continuing without",
				slog.String("error", err.Error()))
		} else {
			limiter = redisLimiter
			slog.Info("Rate limiting enabled",
				slog.Int("requests", cfg.Ingestion.RateLimitRequests),
				slog.Duration("window", cfg.Ingestion.RateLimitWindow),
			)
		}
	}
	defer limiter.Close()

	// Provider adapters
	registry := adapter.NewRegistry(
		adapter.GitHubAdapter{},
		adapter.JiraAdapter{},
	)
	slog.Info("Provider adapters registered", slog.Any("kinds", registry.Kinds()))

	// Pipeline manager, one pipeline per release context
	manager := pipeline.NewManager(pipeline.Deps{
		Registry:    registry,
		Guard:       guard,
		Store:       store,
		Trail:       trail,
		DeadLetters: deadLetters,
		Logger:      logger,
		Config: pipeline.Config{
			MaxRetries:   cfg.Persistence.MaxRetries,
			RetryBackoff: cfg.Persistence.RetryBackoff,
		},
	})

	// HTTP surface
	handler := handlers.NewWebhookHandler(manager, store, guard, limiter, handlers.Config{
		Secrets:     cfg.Webhook.Secrets,
		MaxBodySize: cfg.Ingestion.MaxPayloadSize,
	}, logger)
	router := server.NewRouter(handler)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
	go func() {
		slog.Info("Signal pipeline listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	slog.Info("Server stopped")
}
