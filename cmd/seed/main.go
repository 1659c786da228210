// Package main provides a CLI tool for seeding the database with demo data:
// a small workshop catalog with warehouses, materials, products, and recipes.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"craftflow/internal/core/apperror"
	"craftflow/internal/core/types"
	"craftflow/internal/domain/catalogs/material"
	"craftflow/internal/domain/catalogs/product"
	"craftflow/internal/domain/catalogs/warehouse"
	"craftflow/internal/domain/inventory"
	"craftflow/internal/domain/materials"
	"craftflow/internal/domain/recipes"
	"craftflow/internal/infrastructure/storage/postgres"
	"craftflow/internal/infrastructure/storage/postgres/catalog_repo"
	"craftflow/internal/infrastructure/storage/postgres/document_repo"
	"craftflow/internal/infrastructure/storage/postgres/register_repo"
	"craftflow/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(dbURL))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	log.Info("connected to database")

	txManager := postgres.NewTxManager(pool)

	s := &seeder{
		log:        log,
		warehouses: warehouse.NewService(catalog_repo.NewWarehouseRepo(txManager), txManager),
		materials:  material.NewService(catalog_repo.NewMaterialRepo(txManager), txManager),
		products:   product.NewService(catalog_repo.NewProductRepo(txManager), txManager),
		recipes:    recipes.NewService(document_repo.NewRecipeRepo(txManager), txManager),
		lots:       materials.NewService(register_repo.NewMaterialLotRepo(txManager), txManager),
		balances:   inventory.NewService(register_repo.NewInventoryRepo(txManager)),
	}

	if err := s.run(ctx); err != nil {
		log.Fatalw("seeding failed", "error", err)
	}

	log.Info("seeding completed successfully")
}

type seeder struct {
	log        *logger.Logger
	warehouses *warehouse.Service
	materials  *material.Service
	products   *product.Service
	recipes    *recipes.Service
	lots       *materials.Service
	balances   *inventory.Service
}

func (s *seeder) run(ctx context.Context) error {
	home, err := s.warehouse(ctx, warehouse.NewWarehouse("WH-HOME", "Home workshop", warehouse.TypeHome, 1))
	if err != nil {
		return err
	}
	center, err := s.warehouse(ctx, warehouse.NewWarehouse("WH-PC", "Production center", warehouse.TypeProductionCenter, 2))
	if err != nil {
		return err
	}

	board, err := s.material(ctx, material.NewDefinition("MAT-BOARD", "Oak board blank", material.KindBlank, "pcs"))
	if err != nil {
		return err
	}
	wax, err := s.material(ctx, material.NewDefinition("MAT-WAX", "Finishing wax", material.KindConsumable, "pcs"))
	if err != nil {
		return err
	}
	box, err := s.material(ctx, material.NewDefinition("MAT-BOX", "Gift box", material.KindPackaging, "pcs"))
	if err != nil {
		return err
	}

	cuttingBoard, err := s.product(ctx, product.NewProduct("PRD-CB", "Engraved cutting board", "CB-OAK-01"))
	if err != nil {
		return err
	}
	coasterSet, err := s.product(ctx, product.NewProduct("PRD-CS", "Coaster set", "CS-OAK-04"))
	if err != nil {
		return err
	}

	if err := s.recipe(ctx, cuttingBoard, map[*material.Definition]float64{
		board: 1, wax: 1, box: 1,
	}); err != nil {
		return err
	}
	if err := s.recipe(ctx, coasterSet, map[*material.Definition]float64{
		board: 2, wax: 1, box: 1,
	}); err != nil {
		return err
	}

	if os.Getenv("SEED_DEMO_STOCK") == "true" {
		now := time.Now().UTC()
		demoLots := []*materials.Lot{
			materials.NewLot(board.ID, home.ID, types.NewQuantityFromInt(3),
				types.NewMoney(12.50), "OakWood Supply", now.AddDate(0, 0, -7)),
			materials.NewLot(board.ID, center.ID, types.NewQuantityFromInt(10),
				types.NewMoney(11.80), "OakWood Supply", now.AddDate(0, 0, -2)),
			materials.NewLot(wax.ID, home.ID, types.NewQuantityFromInt(20),
				types.NewMoney(3.20), "Finishing Co", now.AddDate(0, 0, -14)),
			materials.NewLot(box.ID, home.ID, types.NewQuantityFromInt(50),
				types.NewMoney(0.90), "PackRight", now.AddDate(0, -1, 0)),
		}
		for _, lot := range demoLots {
			if err := s.lots.ReceiveLot(ctx, lot); err != nil {
				return fmt.Errorf("receive demo lot: %w", err)
			}
		}
		if err := s.balances.Receive(ctx, cuttingBoard.ID, types.NewQuantityFromInt(2)); err != nil {
			return fmt.Errorf("receive demo stock: %w", err)
		}
		s.log.Info("demo stock seeded")
	}

	return nil
}

func (s *seeder) warehouse(ctx context.Context, w *warehouse.Warehouse) (*warehouse.Warehouse, error) {
	existing, err := s.warehouses.GetByCode(ctx, w.Code)
	if err == nil {
		s.log.Infow("warehouse already exists", "code", w.Code)
		return existing, nil
	}
	if !apperror.IsNotFound(err) {
		return nil, err
	}
	if err := s.warehouses.Create(ctx, w); err != nil {
		return nil, fmt.Errorf("create warehouse %s: %w", w.Code, err)
	}
	s.log.Infow("warehouse created", "code", w.Code, "priority", w.Priority)
	return w, nil
}

func (s *seeder) material(ctx context.Context, d *material.Definition) (*material.Definition, error) {
	existing, err := s.materials.GetByCode(ctx, d.Code)
	if err == nil {
		s.log.Infow("material already exists", "code", d.Code)
		return existing, nil
	}
	if !apperror.IsNotFound(err) {
		return nil, err
	}
	if err := s.materials.Create(ctx, d); err != nil {
		return nil, fmt.Errorf("create material %s: %w", d.Code, err)
	}
	s.log.Infow("material created", "code", d.Code)
	return d, nil
}

func (s *seeder) product(ctx context.Context, p *product.Product) (*product.Product, error) {
	existing, err := s.products.GetByCode(ctx, p.Code)
	if err == nil {
		s.log.Infow("product already exists", "code", p.Code)
		return existing, nil
	}
	if !apperror.IsNotFound(err) {
		return nil, err
	}
	if err := s.products.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create product %s: %w", p.Code, err)
	}
	s.log.Infow("product created", "code", p.Code, "sku", p.SKU)
	return p, nil
}

func (s *seeder) recipe(ctx context.Context, p *product.Product, components map[*material.Definition]float64) error {
	if _, err := s.recipes.GetActiveByProduct(ctx, p.ID); err == nil {
		s.log.Infow("recipe already exists", "product", p.Code)
		return nil
	} else if !apperror.IsNotFound(err) {
		return err
	}

	r := recipes.NewRecipe(p.ID)
	for def, qty := range components {
		r.AddComponent(def.ID, types.NewQuantityFromFloat64(qty))
	}
	if err := s.recipes.Replace(ctx, r); err != nil {
		return fmt.Errorf("create recipe for %s: %w", p.Code, err)
	}
	s.log.Infow("recipe created", "product", p.Code, "components", len(r.Components))
	return nil
}
