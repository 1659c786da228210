package warehouse

import (
	"context"

	"craftflow/internal/domain"
)

// Repository defines the interface for Warehouse persistence.
type Repository interface {
	domain.CatalogRepository[*Warehouse]

	// ListByPriority returns active warehouses ordered by allocation priority.
	ListByPriority(ctx context.Context) ([]*Warehouse, error)
}
