package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"craftflow/internal/core/id"
	"craftflow/internal/core/types"
	"craftflow/internal/domain/materials"
	"craftflow/internal/infrastructure/http/v1/dto"
)

// MaterialLotHandler serves lot intake, corrections, availability, and
// the movement ledger.
type MaterialLotHandler struct {
	*BaseHandler
	service  *materials.Service
	resolver *materials.AvailabilityResolver
}

// NewMaterialLotHandler creates a new material lot handler.
func NewMaterialLotHandler(base *BaseHandler, service *materials.Service, resolver *materials.AvailabilityResolver) *MaterialLotHandler {
	return &MaterialLotHandler{
		BaseHandler: base,
		service:     service,
		resolver:    resolver,
	}
}

// Receive handles POST /materials/lots.
func (h *MaterialLotHandler) Receive(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.ReceiveLotRequest
	if !h.BindJSON(c, &req) {
		return
	}

	lot, err := req.ToEntity()
	if err != nil {
		h.Error(c, err)
		return
	}
	if err := h.service.ReceiveLot(ctx, lot); err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.FromLot(lot))
}

// Get handles GET /materials/lots/:id.
func (h *MaterialLotHandler) Get(c *gin.Context) {
	lotID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	lot, err := h.service.GetLot(c.Request.Context(), lotID)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromLot(lot))
}

// Adjust handles POST /materials/lots/:id/adjust.
func (h *MaterialLotHandler) Adjust(c *gin.Context) {
	lotID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.AdjustLotRequest
	if !h.BindJSON(c, &req) {
		return
	}

	qty := types.NewQuantityFromFloat64(req.Quantity)
	err := h.service.Adjust(c.Request.Context(), lotID, qty, materials.MovementReason(req.Reason))
	if err != nil {
		h.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Availability handles GET /materials/:id/availability with an optional
// warehouseId query parameter.
func (h *MaterialLotHandler) Availability(c *gin.Context) {
	defID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var warehouseID *id.ID
	if raw := c.Query("warehouseId"); raw != "" {
		parsed, err := id.Parse(raw)
		if err != nil {
			h.Error(c, err)
			return
		}
		warehouseID = &parsed
	}

	available, err := h.resolver.Available(c.Request.Context(), defID, warehouseID)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"definitionId": defID.String(),
		"available":    available.Float64(),
	})
}

// Movements handles GET /materials/movements with ledger filters.
func (h *MaterialLotHandler) Movements(c *gin.Context) {
	filter := materials.MovementFilter{
		Limit:  h.ParseIntQuery(c, "limit", 100),
		Offset: h.ParseIntQuery(c, "offset", 0),
	}

	if raw := c.Query("definitionId"); raw != "" {
		parsed, err := id.Parse(raw)
		if err != nil {
			h.Error(c, err)
			return
		}
		filter.DefinitionID = &parsed
	}
	if raw := c.Query("lotId"); raw != "" {
		parsed, err := id.Parse(raw)
		if err != nil {
			h.Error(c, err)
			return
		}
		filter.LotID = &parsed
	}
	if raw := c.Query("reason"); raw != "" {
		reason := materials.MovementReason(raw)
		filter.Reason = &reason
	}
	if raw := c.Query("from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err == nil {
			filter.FromDate = &t
		}
	}
	if raw := c.Query("to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err == nil {
			filter.ToDate = &t
		}
	}

	movements, err := h.service.ListMovements(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]dto.MovementResponse, len(movements))
	for i, m := range movements {
		items[i] = dto.FromMovement(m)
	}
	c.JSON(http.StatusOK, items)
}
