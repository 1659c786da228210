package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"craftflow/internal/domain/recipes"
	"craftflow/internal/infrastructure/http/v1/dto"
)

// RecipeHandler serves recipe endpoints.
type RecipeHandler struct {
	*BaseHandler
	service *recipes.Service
}

// NewRecipeHandler creates a new recipe handler.
func NewRecipeHandler(base *BaseHandler, service *recipes.Service) *RecipeHandler {
	return &RecipeHandler{
		BaseHandler: base,
		service:     service,
	}
}

// Replace handles PUT /recipes: installs a new active recipe for a
// product, retiring the previous one.
func (h *RecipeHandler) Replace(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.ReplaceRecipeRequest
	if !h.BindJSON(c, &req) {
		return
	}

	recipe, err := req.ToEntity()
	if err != nil {
		h.Error(c, err)
		return
	}
	if err := h.service.Replace(ctx, recipe); err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.FromRecipe(recipe))
}

// GetByProduct handles GET /products/:id/recipe.
func (h *RecipeHandler) GetByProduct(c *gin.Context) {
	ctx := c.Request.Context()

	productID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	recipe, err := h.service.GetActiveByProduct(ctx, productID)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromRecipe(recipe))
}
