package catalog_repo

import (
	"craftflow/internal/domain/catalogs/material"
	"craftflow/internal/infrastructure/storage/postgres"
)

const materialTable = "cat_materials"

// MaterialRepo implements material.Repository.
type MaterialRepo struct {
	*BaseCatalogRepo[*material.Definition]
}

// NewMaterialRepo creates a new material definition repository.
func NewMaterialRepo(txManager *postgres.TxManager) *MaterialRepo {
	return &MaterialRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(
			txManager,
			materialTable,
			postgres.ExtractDBColumns[material.Definition](),
			func() *material.Definition { return &material.Definition{} },
		),
	}
}
