package product

import (
	"context"

	"craftflow/internal/core/apperror"
	"craftflow/internal/core/tx"
	"craftflow/internal/domain"
)

// Service provides business logic for the Product catalog.
// Uses composition with domain.CatalogService for common CRUD operations.
type Service struct {
	*domain.CatalogService[*Product]
	repo Repository
}

// NewService creates a new Product service.
func NewService(repo Repository, txManager tx.Manager) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Product]{
		Repo:       repo,
		TxManager:  txManager,
		EntityName: "product",
	})

	svc := &Service{
		CatalogService: base,
		repo:           repo,
	}

	base.Hooks().OnBeforeCreate(svc.checkSKUUnique)

	return svc
}

// checkSKUUnique rejects a duplicate SKU before insert.
func (s *Service) checkSKUUnique(ctx context.Context, p *Product) error {
	existing, err := s.repo.GetBySKU(ctx, p.SKU)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil
		}
		return err
	}
	if existing.ID != p.ID {
		return apperror.NewDuplicate("product", "sku", p.SKU)
	}
	return nil
}

// GetBySKU retrieves a product by channel SKU.
func (s *Service) GetBySKU(ctx context.Context, sku string) (*Product, error) {
	return s.repo.GetBySKU(ctx, sku)
}
