package warehouse

import (
	"context"

	"craftflow/internal/core/tx"
	"craftflow/internal/domain"
)

// Service provides business logic for the Warehouse catalog.
type Service struct {
	*domain.CatalogService[*Warehouse]
	repo Repository
}

// NewService creates a new Warehouse service.
func NewService(repo Repository, txManager tx.Manager) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Warehouse]{
		Repo:       repo,
		TxManager:  txManager,
		EntityName: "warehouse",
	})

	return &Service{
		CatalogService: base,
		repo:           repo,
	}
}

// ListByPriority returns active warehouses in allocation order.
func (s *Service) ListByPriority(ctx context.Context) ([]*Warehouse, error) {
	return s.repo.ListByPriority(ctx)
}
