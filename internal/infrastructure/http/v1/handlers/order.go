package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"craftflow/internal/domain/fulfillment"
	"craftflow/internal/domain/orders"
	"craftflow/internal/infrastructure/http/v1/dto"
)

// OrderHandler serves order endpoints.
type OrderHandler struct {
	*BaseHandler
	service *orders.Service
	engine  *fulfillment.Engine
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(base *BaseHandler, service *orders.Service, engine *fulfillment.Engine) *OrderHandler {
	return &OrderHandler{
		BaseHandler: base,
		service:     service,
		engine:      engine,
	}
}

// Create handles POST /orders: stores the order and immediately runs the
// fulfillment decision pass over its lines.
func (h *OrderHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}

	order, err := req.ToEntity()
	if err != nil {
		h.Error(c, err)
		return
	}
	if err := h.service.Create(ctx, order); err != nil {
		h.Error(c, err)
		return
	}
	if _, err := h.engine.ProcessOrder(ctx, order.ID); err != nil {
		h.Error(c, err)
		return
	}

	created, err := h.service.GetByID(ctx, order.ID)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.FromOrder(created, nil))
}

// Get handles GET /orders/:id with lines and timeline.
func (h *OrderHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()

	orderID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	order, err := h.service.GetByID(ctx, orderID)
	if err != nil {
		h.Error(c, err)
		return
	}
	timeline, err := h.service.GetTimeline(ctx, orderID)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromOrder(order, timeline))
}

// ListActive handles GET /orders.
func (h *OrderHandler) ListActive(c *gin.Context) {
	ctx := c.Request.Context()

	active, err := h.service.ListActive(ctx)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]any, len(active))
	for i, order := range active {
		items[i] = dto.FromOrder(order, nil)
	}
	c.JSON(http.StatusOK, dto.ListResponse{
		Items:      items,
		TotalCount: len(items),
		Limit:      len(items),
	})
}

// Process handles POST /orders/:id/process: runs the decision pass over
// any still-undecided lines and recomputes the status.
func (h *OrderHandler) Process(c *gin.Context) {
	ctx := c.Request.Context()

	orderID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	result, err := h.engine.ProcessOrder(ctx, orderID)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ShipLine handles POST /orders/lines/:lineId/ship.
func (h *OrderHandler) ShipLine(c *gin.Context) {
	ctx := c.Request.Context()

	lineID, ok := h.ParseID(c, "lineId")
	if !ok {
		return
	}

	if err := h.engine.ShipLine(ctx, lineID); err != nil {
		h.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type cancelLineRequest struct {
	Reason string `json:"reason"`
}

// CancelLine handles POST /orders/lines/:lineId/cancel.
func (h *OrderHandler) CancelLine(c *gin.Context) {
	ctx := c.Request.Context()

	lineID, ok := h.ParseID(c, "lineId")
	if !ok {
		return
	}

	var req cancelLineRequest
	if c.Request.Body != nil && c.Request.ContentLength > 0 {
		if !h.BindJSON(c, &req) {
			return
		}
	}

	if err := h.engine.CancelLine(ctx, lineID, req.Reason); err != nil {
		h.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
