package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"craftflow/internal/core/id"
	"craftflow/internal/core/types"
	"craftflow/internal/domain/inventory"
)

// InventoryHandler serves finished-product balance endpoints.
type InventoryHandler struct {
	*BaseHandler
	service *inventory.Service
}

// NewInventoryHandler creates a new inventory handler.
func NewInventoryHandler(base *BaseHandler, service *inventory.Service) *InventoryHandler {
	return &InventoryHandler{
		BaseHandler: base,
		service:     service,
	}
}

type balanceResponse struct {
	ProductID string    `json:"productId"`
	OnHand    float64   `json:"onHand"`
	Reserved  float64   `json:"reserved"`
	Available float64   `json:"available"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func fromBalance(b inventory.Balance) balanceResponse {
	return balanceResponse{
		ProductID: b.ProductID.String(),
		OnHand:    b.OnHand.Float64(),
		Reserved:  b.Reserved.Float64(),
		Available: b.Available().Float64(),
		UpdatedAt: b.UpdatedAt,
	}
}

// Get handles GET /inventory/:id.
func (h *InventoryHandler) Get(c *gin.Context) {
	productID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	balance, err := h.service.Get(c.Request.Context(), productID)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, fromBalance(balance))
}

// List handles GET /inventory with optional ids query parameter.
func (h *InventoryHandler) List(c *gin.Context) {
	var productIDs []id.ID
	for _, raw := range c.QueryArray("ids") {
		parsed, err := id.Parse(raw)
		if err != nil {
			h.Error(c, err)
			return
		}
		productIDs = append(productIDs, parsed)
	}

	balances, err := h.service.List(c.Request.Context(), productIDs)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]balanceResponse, len(balances))
	for i, b := range balances {
		items[i] = fromBalance(b)
	}
	c.JSON(http.StatusOK, items)
}

type receiveStockRequest struct {
	Quantity float64 `json:"quantity" binding:"required"`
}

// Receive handles POST /inventory/:id/receive for opening balances and
// returned shipments.
func (h *InventoryHandler) Receive(c *gin.Context) {
	productID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req receiveStockRequest
	if !h.BindJSON(c, &req) {
		return
	}

	err := h.service.Receive(c.Request.Context(), productID, types.NewQuantityFromFloat64(req.Quantity))
	if err != nil {
		h.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type adjustStockRequest struct {
	Delta float64 `json:"delta" binding:"required"`
}

// Adjust handles POST /inventory/:id/adjust for stocktaking corrections.
func (h *InventoryHandler) Adjust(c *gin.Context) {
	productID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req adjustStockRequest
	if !h.BindJSON(c, &req) {
		return
	}

	err := h.service.Adjust(c.Request.Context(), productID, types.NewQuantityFromFloat64(req.Delta))
	if err != nil {
		h.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
