package material

import (
	"craftflow/internal/domain"
)

// Repository defines the interface for MaterialDefinition persistence.
type Repository interface {
	domain.CatalogRepository[*Definition]
}
