package dto

import (
	"craftflow/internal/domain/catalogs/material"
)

// CreateMaterialRequest is the request body for creating a material
// definition.
type CreateMaterialRequest struct {
	Code         string        `json:"code"`
	Name         string        `json:"name" binding:"required"`
	Kind         material.Kind `json:"kind" binding:"required"`
	Size         *string       `json:"size"`
	Color        *string       `json:"color"`
	MaterialType *string       `json:"materialType"`
	Unit         string        `json:"unit" binding:"required"`
}

// ToEntity converts DTO to domain entity.
func (r *CreateMaterialRequest) ToEntity() *material.Definition {
	d := material.NewDefinition(r.Code, r.Name, r.Kind, r.Unit)
	d.Size = r.Size
	d.Color = r.Color
	d.MaterialType = r.MaterialType
	return d
}

// UpdateMaterialRequest is the request body for updating a material
// definition.
type UpdateMaterialRequest struct {
	Code         string        `json:"code"`
	Name         string        `json:"name" binding:"required"`
	Kind         material.Kind `json:"kind" binding:"required"`
	Size         *string       `json:"size,omitempty"`
	Color        *string       `json:"color,omitempty"`
	MaterialType *string       `json:"materialType,omitempty"`
	Unit         string        `json:"unit" binding:"required"`
	Version      int           `json:"version" binding:"required"`
}

// ApplyTo applies update DTO to existing entity.
func (r *UpdateMaterialRequest) ApplyTo(d *material.Definition) {
	d.Code = r.Code
	d.Name = r.Name
	d.Kind = r.Kind
	d.Size = r.Size
	d.Color = r.Color
	d.MaterialType = r.MaterialType
	d.Unit = r.Unit
	d.Version = r.Version
}

// MaterialResponse is the response body for a material definition.
type MaterialResponse struct {
	ID           string        `json:"id"`
	Code         string        `json:"code"`
	Name         string        `json:"name"`
	Kind         material.Kind `json:"kind"`
	Size         *string       `json:"size,omitempty"`
	Color        *string       `json:"color,omitempty"`
	MaterialType *string       `json:"materialType,omitempty"`
	Unit         string        `json:"unit"`
	DeletionMark bool          `json:"deletionMark"`
	Version      int           `json:"version"`
}

// FromMaterial creates response DTO from domain entity.
func FromMaterial(d *material.Definition) *MaterialResponse {
	return &MaterialResponse{
		ID:           d.ID.String(),
		Code:         d.Code,
		Name:         d.Name,
		Kind:         d.Kind,
		Size:         d.Size,
		Color:        d.Color,
		MaterialType: d.MaterialType,
		Unit:         d.Unit,
		DeletionMark: d.DeletionMark,
		Version:      d.Version,
	}
}
