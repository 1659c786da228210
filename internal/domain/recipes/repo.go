package recipes

import (
	"context"

	"craftflow/internal/core/id"
)

// Repository defines operations for recipe persistence.
type Repository interface {
	// Create inserts a recipe with its components.
	Create(ctx context.Context, recipe *Recipe) error

	// GetByID retrieves a recipe with components.
	GetByID(ctx context.Context, recipeID id.ID) (*Recipe, error)

	// GetActiveByProduct returns the product's active (not soft-deleted)
	// recipe with components. Not-found means the product has no recipe.
	GetActiveByProduct(ctx context.Context, productID id.ID) (*Recipe, error)

	// SetDeletionMark soft-deletes or restores a recipe.
	SetDeletionMark(ctx context.Context, recipeID id.ID, marked bool) error

	// ListByProducts returns active recipes for the given products, keyed by
	// product id. Products without a recipe are simply absent.
	ListByProducts(ctx context.Context, productIDs []id.ID) (map[id.ID]*Recipe, error)
}
