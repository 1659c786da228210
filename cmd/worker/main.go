// Package main is the entry point for the craftflow background worker.
// It runs the periodic order status sweep and the sales channel import.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/bsm/redislock"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"craftflow/internal/domain/fulfillment"
	"craftflow/internal/domain/materials"
	"craftflow/internal/domain/orders"
	"craftflow/internal/domain/production"
	"craftflow/internal/infrastructure/channel"
	"craftflow/internal/infrastructure/jobs"
	"craftflow/internal/infrastructure/storage/postgres"
	"craftflow/internal/infrastructure/storage/postgres/catalog_repo"
	"craftflow/internal/infrastructure/storage/postgres/document_repo"
	"craftflow/internal/infrastructure/storage/postgres/register_repo"
	"craftflow/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	log, err := logger.New(logger.Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Development: getEnv("APP_ENV", "development") == "development",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ctx = logger.WithLogger(ctx, log)

	log.Info("starting craftflow worker")

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(mustEnv("DATABASE_URL")))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	redisOpts, err := redis.ParseURL(getEnv("REDIS_URL", "redis://localhost:6379/0"))
	if err != nil {
		log.Fatalw("invalid redis url", "error", err)
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatalw("failed to ping redis", "error", err)
	}
	locker := redislock.New(redisClient)

	txManager := postgres.NewTxManager(pool)

	productRepo := catalog_repo.NewProductRepo(txManager)
	recipeRepo := document_repo.NewRecipeRepo(txManager)
	orderRepo := document_repo.NewOrderRepo(txManager)
	taskRepo := document_repo.NewProductionTaskRepo(txManager)
	lotRepo := register_repo.NewMaterialLotRepo(txManager)
	balanceRepo := register_repo.NewInventoryRepo(txManager)

	resolver := materials.NewAvailabilityResolver(lotRepo)
	allocator := materials.NewAllocator(lotRepo)

	orderSvc := orders.NewService(orderRepo, txManager)
	aggregator := orders.NewStatusAggregator(orderRepo, balanceRepo, recipeRepo, resolver, taskRepo)
	orchestrator := production.NewOrchestrator(
		orderRepo, balanceRepo, recipeRepo, lotRepo, resolver, allocator, taskRepo, txManager)
	engine := fulfillment.NewEngine(orderRepo, balanceRepo, orchestrator, aggregator, txManager)

	recomputeJob := jobs.NewRecomputeJob(locker, orderRepo, aggregator)
	recomputeInterval := getEnvDuration("RECOMPUTE_INTERVAL", 5*time.Minute)

	var syncJob *jobs.ChannelSyncJob
	syncInterval := getEnvDuration("CHANNEL_SYNC_INTERVAL", 15*time.Minute)
	if baseURL := os.Getenv("CHANNEL_BASE_URL"); baseURL != "" {
		client := channel.NewHTTPClient(channel.DefaultHTTPClientConfig(
			baseURL, getEnv("CHANNEL_API_KEY", "")))
		syncSvc := channel.NewSyncService(
			client, productRepo, orderSvc, orderRepo, engine, aggregator)
		syncJob = jobs.NewChannelSyncJob(locker, syncSvc)
		log.Infow("channel sync enabled", "interval", syncInterval)
	} else {
		log.Info("channel sync disabled, CHANNEL_BASE_URL not set")
	}

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		runEvery(ctx, recomputeInterval, func() {
			if err := recomputeJob.Run(ctx); err != nil && ctx.Err() == nil {
				log.Errorw("recompute sweep failed", "error", err)
			}
		})
	}()

	if syncJob != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runEvery(ctx, syncInterval, func() {
				if err := syncJob.Run(ctx); err != nil && ctx.Err() == nil {
					log.Errorw("channel sync failed", "error", err)
				}
			})
		}()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down worker...")
	cancel()

	wg.Wait()
	log.Info("worker stopped")
}

// runEvery fires fn immediately and then on every tick until the context ends.
func runEvery(ctx context.Context, interval time.Duration, fn func()) {
	fn()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn()
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func mustEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		fmt.Printf("required environment variable %s not set\n", key)
		os.Exit(1)
	}
	return value
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
