package product

import (
	"context"

	"craftflow/internal/domain"
)

// Repository defines the interface for Product persistence.
type Repository interface {
	domain.CatalogRepository[*Product]

	// GetBySKU retrieves a product by its channel SKU.
	GetBySKU(ctx context.Context, sku string) (*Product, error)
}
