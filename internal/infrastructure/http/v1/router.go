// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

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
	"craftflow/internal/infrastructure/http/v1/handlers"
	"craftflow/internal/infrastructure/http/v1/middleware"
	"craftflow/internal/infrastructure/storage/postgres"
	"craftflow/pkg/logger"
)

// RouterConfig carries the wired application components.
type RouterConfig struct {
	Pool   *postgres.Pool
	Logger *logger.Logger

	Products   *product.Service
	Materials  *material.Service
	Warehouses *warehouse.Service
	Recipes    *recipes.Service

	Orders       *orders.Service
	Engine       *fulfillment.Engine
	Orchestrator *production.Orchestrator

	Lots     *materials.Service
	Resolver *materials.AvailabilityResolver

	Inventory *inventory.Service

	Deficit       *reports.DeficitAnalyzer
	Replenishment *reports.ReplenishmentReport
	Valuation     *reports.ValuationReport
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Order matters: recovery first, error handler renders last.
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
	}

	base := handlers.NewBaseHandler()

	productHandler := handlers.NewProductHandler(base, cfg.Products)
	materialHandler := handlers.NewMaterialHandler(base, cfg.Materials)
	warehouseHandler := handlers.NewWarehouseHandler(base, cfg.Warehouses)
	recipeHandler := handlers.NewRecipeHandler(base, cfg.Recipes)
	orderHandler := handlers.NewOrderHandler(base, cfg.Orders, cfg.Engine)
	productionHandler := handlers.NewProductionHandler(base, cfg.Orchestrator)
	lotHandler := handlers.NewMaterialLotHandler(base, cfg.Lots, cfg.Resolver)
	inventoryHandler := handlers.NewInventoryHandler(base, cfg.Inventory)
	reportsHandler := handlers.NewReportsHandler(base, cfg.Deficit, cfg.Replenishment, cfg.Valuation)

	api := router.Group("/api/v1")
	{
		products := api.Group("/products")
		{
			products.GET("", productHandler.List)
			products.POST("", productHandler.Create)
			products.GET("/:id", productHandler.Get)
			products.PUT("/:id", productHandler.Update)
			products.DELETE("/:id", productHandler.Delete)
			products.GET("/:id/recipe", recipeHandler.GetByProduct)
		}

		materialDefs := api.Group("/materials")
		{
			materialDefs.GET("", materialHandler.List)
			materialDefs.POST("", materialHandler.Create)
			materialDefs.GET("/:id", materialHandler.Get)
			materialDefs.PUT("/:id", materialHandler.Update)
			materialDefs.DELETE("/:id", materialHandler.Delete)
			materialDefs.GET("/:id/availability", lotHandler.Availability)

			materialDefs.POST("/lots", lotHandler.Receive)
			materialDefs.GET("/lots/:id", lotHandler.Get)
			materialDefs.POST("/lots/:id/adjust", lotHandler.Adjust)
			materialDefs.GET("/movements", lotHandler.Movements)
		}

		warehouses := api.Group("/warehouses")
		{
			warehouses.GET("", warehouseHandler.List)
			warehouses.POST("", warehouseHandler.Create)
			warehouses.GET("/:id", warehouseHandler.Get)
			warehouses.PUT("/:id", warehouseHandler.Update)
			warehouses.DELETE("/:id", warehouseHandler.Delete)
		}

		api.PUT("/recipes", recipeHandler.Replace)

		ordersGroup := api.Group("/orders")
		{
			ordersGroup.GET("", orderHandler.ListActive)
			ordersGroup.POST("", orderHandler.Create)
			ordersGroup.GET("/:id", orderHandler.Get)
			ordersGroup.POST("/:id/process", orderHandler.Process)
			ordersGroup.POST("/lines/:lineId/ship", orderHandler.ShipLine)
			ordersGroup.POST("/lines/:lineId/cancel", orderHandler.CancelLine)
		}

		productionGroup := api.Group("/production")
		{
			productionGroup.GET("/queue", productionHandler.Queue)
			productionGroup.POST("/tasks/:id/start", productionHandler.Start)
			productionGroup.POST("/tasks/:id/complete", productionHandler.Complete)
		}

		inventoryGroup := api.Group("/inventory")
		{
			inventoryGroup.GET("", inventoryHandler.List)
			inventoryGroup.GET("/:id", inventoryHandler.Get)
			inventoryGroup.POST("/:id/receive", inventoryHandler.Receive)
			inventoryGroup.POST("/:id/adjust", inventoryHandler.Adjust)
		}

		reportsGroup := api.Group("/reports")
		{
			reportsGroup.GET("/deficit", reportsHandler.Deficit)
			reportsGroup.GET("/replenishment", reportsHandler.Replenishment)
			reportsGroup.GET("/valuation", reportsHandler.Valuation)
		}
	}

	return router
}
