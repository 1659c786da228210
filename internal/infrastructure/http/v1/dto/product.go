package dto

import (
	"craftflow/internal/domain/catalogs/product"
)

// CreateProductRequest is the request body for creating a product.
type CreateProductRequest struct {
	Code        string  `json:"code"`
	Name        string  `json:"name" binding:"required"`
	SKU         string  `json:"sku" binding:"required"`
	IsActive    bool    `json:"isActive"`
	Description *string `json:"description"`
}

// ToEntity converts DTO to domain entity.
func (r *CreateProductRequest) ToEntity() *product.Product {
	p := product.NewProduct(r.Code, r.Name, r.SKU)
	p.IsActive = r.IsActive
	p.Description = r.Description
	return p
}

// UpdateProductRequest is the request body for updating a product.
type UpdateProductRequest struct {
	Code        string  `json:"code"`
	Name        string  `json:"name" binding:"required"`
	SKU         string  `json:"sku" binding:"required"`
	IsActive    bool    `json:"isActive"`
	Description *string `json:"description,omitempty"`
	Version     int     `json:"version" binding:"required"`
}

// ApplyTo applies update DTO to existing entity.
func (r *UpdateProductRequest) ApplyTo(p *product.Product) {
	p.Code = r.Code
	p.Name = r.Name
	p.SKU = r.SKU
	p.IsActive = r.IsActive
	p.Description = r.Description
	p.Version = r.Version
}

// ProductResponse is the response body for a product.
type ProductResponse struct {
	ID           string  `json:"id"`
	Code         string  `json:"code"`
	Name         string  `json:"name"`
	SKU          string  `json:"sku"`
	IsActive     bool    `json:"isActive"`
	Description  *string `json:"description,omitempty"`
	DeletionMark bool    `json:"deletionMark"`
	Version      int     `json:"version"`
}

// FromProduct creates response DTO from domain entity.
func FromProduct(p *product.Product) *ProductResponse {
	return &ProductResponse{
		ID:           p.ID.String(),
		Code:         p.Code,
		Name:         p.Name,
		SKU:          p.SKU,
		IsActive:     p.IsActive,
		Description:  p.Description,
		DeletionMark: p.DeletionMark,
		Version:      p.Version,
	}
}
