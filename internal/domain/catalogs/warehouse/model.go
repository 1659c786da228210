// Package warehouse provides the Warehouse catalog.
// Warehouses are physical storage locations; their fixed priority ordering is
// the allocation tie-break when material is drawn from several locations.
package warehouse

import (
	"context"

	"craftflow/internal/core/apperror"
	"craftflow/internal/core/entity"
)

// WarehouseType defines the type of warehouse.
type WarehouseType string

const (
	// TypeHome is the home/finishing warehouse; outranks the production center.
	TypeHome WarehouseType = "home"
	// TypeProductionCenter is the external production-center warehouse.
	TypeProductionCenter WarehouseType = "production_center"
)

// Warehouse represents a storage location for materials.
type Warehouse struct {
	entity.Catalog

	// Type defines the warehouse category
	Type WarehouseType `db:"type" json:"type"`

	// Priority is the fixed allocation preference; lower values are
	// consumed from first
	Priority int `db:"priority" json:"priority"`

	// Address is the physical address
	Address *string `db:"address" json:"address,omitempty"`

	// IsActive indicates if warehouse is operational
	IsActive bool `db:"is_active" json:"isActive"`
}

// NewWarehouse creates a new Warehouse with required fields.
func NewWarehouse(code, name string, whType WarehouseType, priority int) *Warehouse {
	return &Warehouse{
		Catalog:  entity.NewCatalog(code, name),
		Type:     whType,
		Priority: priority,
		IsActive: true,
	}
}

// Validate implements entity.Validatable interface.
func (w *Warehouse) Validate(ctx context.Context) error {
	if err := w.Catalog.Validate(ctx); err != nil {
		return err
	}

	if !isValidWarehouseType(w.Type) {
		return apperror.NewValidation("invalid warehouse type").
			WithDetail("field", "type").
			WithDetail("value", string(w.Type))
	}

	if w.Priority < 0 {
		return apperror.NewValidation("priority must not be negative").
			WithDetail("field", "priority")
	}

	return nil
}

func isValidWarehouseType(t WarehouseType) bool {
	switch t {
	case TypeHome, TypeProductionCenter:
		return true
	}
	return false
}
