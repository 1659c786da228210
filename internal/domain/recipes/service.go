package recipes

import (
	"context"
	"fmt"

	"craftflow/internal/core/apperror"
	"craftflow/internal/core/id"
	"craftflow/internal/core/tx"
	"craftflow/pkg/logger"
)

// Service provides business operations for recipes.
type Service struct {
	repo      Repository
	txManager tx.Manager
}

// NewService creates a new recipe service.
func NewService(repo Repository, txManager tx.Manager) *Service {
	return &Service{
		repo:      repo,
		txManager: txManager,
	}
}

// Replace installs a new active recipe for a product.
// The prior recipe (if any) is soft-deleted, never hard-deleted, so
// historical production tasks keep a resolvable bill of materials.
func (s *Service) Replace(ctx context.Context, recipe *Recipe) error {
	if err := recipe.Validate(ctx); err != nil {
		return err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		prior, err := s.repo.GetActiveByProduct(ctx, recipe.ProductID)
		if err != nil && !apperror.IsNotFound(err) {
			return fmt.Errorf("get active recipe: %w", err)
		}

		if prior != nil && err == nil {
			if err := s.repo.SetDeletionMark(ctx, prior.ID, true); err != nil {
				return fmt.Errorf("retire prior recipe: %w", err)
			}
		}

		if err := s.repo.Create(ctx, recipe); err != nil {
			return fmt.Errorf("create recipe: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "recipe replaced",
		"product_id", recipe.ProductID,
		"recipe_id", recipe.ID,
		"components", len(recipe.Components),
	)
	return nil
}

// GetActiveByProduct returns the product's active recipe.
func (s *Service) GetActiveByProduct(ctx context.Context, productID id.ID) (*Recipe, error) {
	return s.repo.GetActiveByProduct(ctx, productID)
}

// GetByID retrieves a recipe.
func (s *Service) GetByID(ctx context.Context, recipeID id.ID) (*Recipe, error) {
	return s.repo.GetByID(ctx, recipeID)
}
