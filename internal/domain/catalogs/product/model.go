// Package product provides the Product catalog.
// Products are finished goods sold through the sales channel; each may have
// one active recipe describing the materials required to produce it.
package product

import (
	"context"

	"craftflow/internal/core/apperror"
	"craftflow/internal/core/entity"
)

// Product represents a sellable finished good.
type Product struct {
	entity.Catalog

	// SKU is the channel-facing stock keeping unit (unique, used to match
	// ingested order lines to catalog products)
	SKU string `db:"sku" json:"sku"`

	// IsActive indicates if the product is still sold
	IsActive bool `db:"is_active" json:"isActive"`

	// Description
	Description *string `db:"description" json:"description,omitempty"`
}

// NewProduct creates a new Product with required fields.
func NewProduct(code, name, sku string) *Product {
	return &Product{
		Catalog:  entity.NewCatalog(code, name),
		SKU:      sku,
		IsActive: true,
	}
}

// Validate implements entity.Validatable interface.
func (p *Product) Validate(ctx context.Context) error {
	if err := p.Catalog.Validate(ctx); err != nil {
		return err
	}

	if p.SKU == "" {
		return apperror.NewValidation("sku is required").
			WithDetail("field", "sku")
	}

	return nil
}
