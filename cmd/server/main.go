package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpAdapter "github.com/mietwerk/rentledger/internal/adapter/http"
	"github.com/mietwerk/rentledger/internal/adapter/http/handler"
	"github.com/mietwerk/rentledger/internal/adapter/http/middleware"
	postgresRepo "github.com/mietwerk/rentledger/internal/adapter/repository/postgres"
	redisRepo "github.com/mietwerk/rentledger/internal/adapter/repository/redis"
	"github.com/mietwerk/rentledger/internal/dedup"
	"github.com/mietwerk/rentledger/internal/infrastructure/auth"
	"github.com/mietwerk/rentledger/internal/infrastructure/config"
	"github.com/mietwerk/rentledger/internal/infrastructure/eventpublisher"
	"github.com/mietwerk/rentledger/internal/infrastructure/logger"
	"github.com/mietwerk/rentledger/internal/infrastructure/metrics"
	"github.com/mietwerk/rentledger/internal/infrastructure/postgres"
	"github.com/mietwerk/rentledger/internal/infrastructure/redis"
	"github.com/mietwerk/rentledger/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	ctx := context.Background()

	// Connect to PostgreSQL
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, cfg.DatabaseMaxConns, cfg.DatabaseMinConns)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer pool.Close()
	log.Info().Msg("connected to postgres")

	if cfg.MigrationsPath != "" {
		if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath, log); err != nil {
			log.Fatal().Err(err).Msg("failed to run migrations")
		}
	}

	// Connect to Redis
	redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("connected to redis")

	m := metrics.New()

	// Initialize repositories
	txManager := postgresRepo.NewTxManager(pool)
	transactionRepo := postgresRepo.NewTransactionRepository(pool)
	contractRepo := postgresRepo.NewContractRepository(pool)
	itemRepo := postgresRepo.NewFinancialItemRepository(pool)
	outboxRepo := postgresRepo.NewOutboxRepository(pool)
	auditRepo := postgresRepo.NewAuditRepository(pool)
	idGen := postgresRepo.NewULIDGenerator()
	cache := redisRepo.NewCache(redisClient)
	idempotencyStore := redisRepo.NewIdempotencyStore(redisClient)
	mappingStore := redisRepo.NewMappingStore(redisClient)

	detector := dedup.NewDetector(dedup.NewHeuristicScorer(), 0, log)
	retrier := postgresRepo.NewRetrier(log)

	// Initialize use cases
	importUC := usecase.NewImportUseCase(
		txManager, transactionRepo, outboxRepo, auditRepo, mappingStore,
		detector, idGen, retrier, log, m,
	)
	transactionUC := usecase.NewTransactionUseCase(transactionRepo)
	matchUC := usecase.NewMatchUseCase(
		txManager, transactionRepo, contractRepo, auditRepo, cache, idGen, log, m,
	)
	reconcileUC := usecase.NewReconcileUseCase(
		txManager, transactionRepo, contractRepo, itemRepo, outboxRepo, auditRepo, idGen, retrier, m,
	)
	contractUC := usecase.NewContractUseCase(contractRepo, itemRepo)

	// Optional JWT auth
	var jwtManager *auth.JWTManager
	if cfg.AuthEnabled && cfg.JWTSecret != "" {
		jwtManager = auth.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiration)
		log.Info().Msg("JWT authentication enabled")
	}

	// Optional per-IP rate limiting
	var rateLimiter *middleware.RateLimiter
	if cfg.RateLimitRPS > 0 {
		rateLimiter = middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
		log.Info().Float64("rps", cfg.RateLimitRPS).Msg("rate limiting enabled")
	}

	// Create router
	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		ImportHandler:      handler.NewImportHandler(importUC),
		TransactionHandler: handler.NewTransactionHandler(transactionUC, matchUC, reconcileUC),
		ContractHandler:    handler.NewContractHandler(contractUC),
		HealthHandler:      handler.NewHealthHandler(pool, redisClient),
		IdempotencyStore:   idempotencyStore,
		JWTManager:         jwtManager,
		RateLimiter:        rateLimiter,
	})

	// Outbox relay
	publisherCtx, stopPublisher := context.WithCancel(ctx)
	defer stopPublisher()

	publisher := eventpublisher.NewEventPublisher(eventpublisher.Config{
		OutboxRepo: outboxRepo,
		Publisher:  eventpublisher.NewLogPublisher(log),
		Logger:     log,
	})
	go func() {
		if err := publisher.Start(publisherCtx); err != nil && err != context.Canceled {
			log.Error().Err(err).Msg("event publisher stopped")
		}
	}()

	// Create server
	server := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.HTTPPort).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")
	stopPublisher()

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
