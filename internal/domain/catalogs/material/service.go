package material

import (
	"craftflow/internal/core/tx"
	"craftflow/internal/domain"
)

// Service provides business logic for the MaterialDefinition catalog.
type Service struct {
	*domain.CatalogService[*Definition]
	repo Repository
}

// NewService creates a new material definition service.
func NewService(repo Repository, txManager tx.Manager) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Definition]{
		Repo:       repo,
		TxManager:  txManager,
		EntityName: "material definition",
	})

	return &Service{
		CatalogService: base,
		repo:           repo,
	}
}
