// Package main is the entry point for the craftflow API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"craftflow/internal/domain/catalogs/material"
	"craftflow/internal/domain/catalogs/product"
	"craftflow/internal/domain/catalogs/warehouse"
	"craftflow/internal/domain/fulfillment"
	"craftflow/internal/domain/inventory"
	"craftflow/internal/domain/materials"
	"craftflow/internal/domain/orders"
	"craftflow/internal/domain/production"
	"craftflow/internal/domain/recipes"
	"craftflow/internal/domain/reports"
	v1 "craftflow/internal/infrastructure/http/v1"
	"craftflow/internal/infrastructure/storage/postgres"
	"craftflow/internal/infrastructure/storage/postgres/catalog_repo"
	"craftflow/internal/infrastructure/storage/postgres/document_repo"
	"craftflow/internal/infrastructure/storage/postgres/register_repo"
	"craftflow/internal/infrastructure/storage/postgres/report_repo"
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

	ctx := context.Background()
	log.Info("starting craftflow server")

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(mustEnv("DATABASE_URL")))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	txManager := postgres.NewTxManager(pool)

	// Repositories
	productRepo := catalog_repo.NewProductRepo(txManager)
	materialRepo := catalog_repo.NewMaterialRepo(txManager)
	warehouseRepo := catalog_repo.NewWarehouseRepo(txManager)
	recipeRepo := document_repo.NewRecipeRepo(txManager)
	orderRepo := document_repo.NewOrderRepo(txManager)
	taskRepo := document_repo.NewProductionTaskRepo(txManager)
	lotRepo := register_repo.NewMaterialLotRepo(txManager)
	balanceRepo := register_repo.NewInventoryRepo(txManager)
	reportRepo := report_repo.NewReportRepo(txManager)

	// Catalog services
	productSvc := product.NewService(productRepo, txManager)
	materialSvc := material.NewService(materialRepo, txManager)
	warehouseSvc := warehouse.NewService(warehouseRepo, txManager)
	recipeSvc := recipes.NewService(recipeRepo, txManager)

	// Material stock
	resolver := materials.NewAvailabilityResolver(lotRepo)
	allocator := materials.NewAllocator(lotRepo)
	lotSvc := materials.NewService(lotRepo, txManager)
	inventorySvc := inventory.NewService(balanceRepo)

	// Orders and fulfillment
	orderSvc := orders.NewService(orderRepo, txManager)
	aggregator := orders.NewStatusAggregator(orderRepo, balanceRepo, recipeRepo, resolver, taskRepo)
	orchestrator := production.NewOrchestrator(
		orderRepo, balanceRepo, recipeRepo, lotRepo, resolver, allocator, taskRepo, txManager)
	engine := fulfillment.NewEngine(orderRepo, balanceRepo, orchestrator, aggregator, txManager)

	// Reports
	deficit := reports.NewDeficitAnalyzer(orderRepo, recipeRepo, resolver)
	replenishment := reports.NewReplenishmentReport(deficit, lotRepo)
	valuation := reports.NewValuationReport(reportRepo)

	router := v1.NewRouter(v1.RouterConfig{
		Pool:   pool,
		Logger: log,

		Products:   productSvc,
		Materials:  materialSvc,
		Warehouses: warehouseSvc,
		Recipes:    recipeSvc,

		Orders:       orderSvc,
		Engine:       engine,
		Orchestrator: orchestrator,

		Lots:     lotSvc,
		Resolver: resolver,

		Inventory: inventorySvc,

		Deficit:       deficit,
		Replenishment: replenishment,
		Valuation:     valuation,
	})

	port := getEnv("APP_PORT", "8080")
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
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
