package handlers

import (
	"craftflow/internal/domain/catalogs/material"
	"craftflow/internal/infrastructure/http/v1/dto"
)

// MaterialHTTPHandler serves the material definition catalog endpoints.
type MaterialHTTPHandler = CatalogHandler[
	*material.Definition,
	dto.CreateMaterialRequest,
	dto.UpdateMaterialRequest,
]

// NewMaterialHandler wires the material service into the generic catalog
// handler.
func NewMaterialHandler(base *BaseHandler, service *material.Service) *MaterialHTTPHandler {
	config := CatalogHandlerConfig[
		*material.Definition,
		dto.CreateMaterialRequest,
		dto.UpdateMaterialRequest,
	]{
		Service:    service.CatalogService,
		EntityName: "material",

		MapCreateDTO: func(req dto.CreateMaterialRequest) *material.Definition {
			return req.ToEntity()
		},
		MapUpdateDTO: func(req dto.UpdateMaterialRequest, existing *material.Definition) *material.Definition {
			req.ApplyTo(existing)
			return existing
		},
		MapToDTO: func(d *material.Definition) any {
			return dto.FromMaterial(d)
		},
	}
	return NewCatalogHandler(base, config)
}
