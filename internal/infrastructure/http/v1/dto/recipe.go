package dto

import (
	"craftflow/internal/core/apperror"
	"craftflow/internal/core/id"
	"craftflow/internal/core/types"
	"craftflow/internal/domain/recipes"
)

// RecipeComponentRequest is one material requirement in a recipe.
type RecipeComponentRequest struct {
	DefinitionID string  `json:"definitionId" binding:"required"`
	QtyPerUnit   float64 `json:"qtyPerUnit" binding:"required"`
}

// ReplaceRecipeRequest installs a new recipe for a product.
type ReplaceRecipeRequest struct {
	ProductID  string                   `json:"productId" binding:"required"`
	Components []RecipeComponentRequest `json:"components" binding:"required"`
}

// ToEntity converts DTO to domain entity.
func (r *ReplaceRecipeRequest) ToEntity() (*recipes.Recipe, error) {
	productID, err := id.Parse(r.ProductID)
	if err != nil {
		return nil, apperror.NewValidation("invalid product id").
			WithDetail("productId", r.ProductID)
	}

	recipe := recipes.NewRecipe(productID)
	for _, comp := range r.Components {
		defID, err := id.Parse(comp.DefinitionID)
		if err != nil {
			return nil, apperror.NewValidation("invalid material definition id").
				WithDetail("definitionId", comp.DefinitionID)
		}
		recipe.AddComponent(defID, types.NewQuantityFromFloat64(comp.QtyPerUnit))
	}
	return recipe, nil
}

// RecipeComponentResponse is one component of a recipe response.
type RecipeComponentResponse struct {
	LineID       string  `json:"lineId"`
	DefinitionID string  `json:"definitionId"`
	QtyPerUnit   float64 `json:"qtyPerUnit"`
}

// RecipeResponse is the response body for a recipe.
type RecipeResponse struct {
	ID         string                    `json:"id"`
	ProductID  string                    `json:"productId"`
	Components []RecipeComponentResponse `json:"components"`
	CreatedAt  string                    `json:"createdAt"`
}

// FromRecipe creates response DTO from domain entity.
func FromRecipe(r *recipes.Recipe) *RecipeResponse {
	resp := &RecipeResponse{
		ID:        r.ID.String(),
		ProductID: r.ProductID.String(),
		CreatedAt: r.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	for _, comp := range r.Components {
		resp.Components = append(resp.Components, RecipeComponentResponse{
			LineID:       comp.LineID.String(),
			DefinitionID: comp.DefinitionID.String(),
			QtyPerUnit:   comp.QtyPerUnit.Float64(),
		})
	}
	return resp
}
