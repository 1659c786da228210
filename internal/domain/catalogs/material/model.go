// Package material provides the MaterialDefinition catalog.
// A material definition is a named kind of raw material; physical batches of
// it are tracked separately as lots.
package material

import (
	"context"

	"craftflow/internal/core/apperror"
	"craftflow/internal/core/entity"
)

// Kind defines the category of material.
type Kind string

const (
	KindBlank      Kind = "blank"     // un-decorated product blanks
	KindConsumable Kind = "consumable"
	KindPackaging  Kind = "packaging"
)

// Definition represents a kind of raw material.
type Definition struct {
	entity.Catalog

	// Kind defines the material category
	Kind Kind `db:"kind" json:"kind"`

	// Descriptive attributes
	Size         *string `db:"size" json:"size,omitempty"`
	Color        *string `db:"color" json:"color,omitempty"`
	MaterialType *string `db:"material_type" json:"materialType,omitempty"`

	// Unit is the unit of measure (pcs, m, kg)
	Unit string `db:"unit" json:"unit"`
}

// NewDefinition creates a new material definition with required fields.
func NewDefinition(code, name string, kind Kind, unit string) *Definition {
	return &Definition{
		Catalog: entity.NewCatalog(code, name),
		Kind:    kind,
		Unit:    unit,
	}
}

// Validate implements entity.Validatable interface.
func (d *Definition) Validate(ctx context.Context) error {
	if err := d.Catalog.Validate(ctx); err != nil {
		return err
	}

	if !isValidKind(d.Kind) {
		return apperror.NewValidation("invalid material kind").
			WithDetail("field", "kind").
			WithDetail("value", string(d.Kind))
	}

	if d.Unit == "" {
		return apperror.NewValidation("unit is required").
			WithDetail("field", "unit")
	}

	return nil
}

func isValidKind(k Kind) bool {
	switch k {
	case KindBlank, KindConsumable, KindPackaging:
		return true
	}
	return false
}
