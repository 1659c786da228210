// Package recipes provides the Recipe: the bill of materials for one unit of
// a product. A product has at most one active recipe; replacing it
// soft-deletes the prior one so movement history stays explainable.
package recipes

import (
	"context"

	"craftflow/internal/core/apperror"
	"craftflow/internal/core/entity"
	"craftflow/internal/core/id"
	"craftflow/internal/core/types"
)

// Recipe maps a product to its material requirements per produced unit.
type Recipe struct {
	entity.BaseDocument

	ProductID id.ID `db:"product_id" json:"productId"`

	// Components are the material requirements (table part)
	Components []Component `db:"-" json:"components"`
}

// Component is one (material definition, quantity per unit) pair.
type Component struct {
	LineID       id.ID          `db:"line_id" json:"lineId"`
	RecipeID     id.ID          `db:"recipe_id" json:"recipeId"`
	DefinitionID id.ID          `db:"definition_id" json:"definitionId"`
	QtyPerUnit   types.Quantity `db:"qty_per_unit" json:"qtyPerUnit"`
}

// NewRecipe creates a new recipe for a product.
func NewRecipe(productID id.ID) *Recipe {
	return &Recipe{
		BaseDocument: entity.NewBaseDocument(),
		ProductID:    productID,
		Components:   make([]Component, 0),
	}
}

// AddComponent appends a material requirement.
func (r *Recipe) AddComponent(definitionID id.ID, qtyPerUnit types.Quantity) {
	r.Components = append(r.Components, Component{
		LineID:       id.New(),
		RecipeID:     r.ID,
		DefinitionID: definitionID,
		QtyPerUnit:   qtyPerUnit,
	})
}

// Validate implements entity.Validatable.
func (r *Recipe) Validate(ctx context.Context) error {
	if id.IsNil(r.ProductID) {
		return apperror.NewValidation("product is required").
			WithDetail("field", "productId")
	}

	if len(r.Components) == 0 {
		return apperror.NewValidation("at least one component is required").
			WithDetail("field", "components")
	}

	seen := make(map[id.ID]bool, len(r.Components))
	for i, c := range r.Components {
		if id.IsNil(c.DefinitionID) {
			return apperror.NewValidation("material definition is required").
				WithDetail("field", "components").
				WithDetail("lineNo", i+1)
		}
		if !c.QtyPerUnit.IsPositive() {
			return apperror.NewValidation("quantity per unit must be positive").
				WithDetail("field", "components").
				WithDetail("lineNo", i+1)
		}
		if seen[c.DefinitionID] {
			return apperror.NewValidation("duplicate material in recipe").
				WithDetail("field", "components").
				WithDetail("lineNo", i+1)
		}
		seen[c.DefinitionID] = true
	}

	return nil
}
