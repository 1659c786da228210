package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"craftflow/internal/domain/production"
)

// ProductionHandler serves the production queue endpoints.
type ProductionHandler struct {
	*BaseHandler
	orchestrator *production.Orchestrator
}

// NewProductionHandler creates a new production handler.
func NewProductionHandler(base *BaseHandler, orchestrator *production.Orchestrator) *ProductionHandler {
	return &ProductionHandler{
		BaseHandler:  base,
		orchestrator: orchestrator,
	}
}

type taskResponse struct {
	ID          string     `json:"id"`
	ProductID   string     `json:"productId"`
	Quantity    float64    `json:"quantity"`
	OrderLineID string     `json:"orderLineId,omitempty"`
	Priority    int        `json:"priority"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"createdAt"`
	StartedAt   *time.Time `json:"startedAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

func fromTask(t *production.Task) taskResponse {
	resp := taskResponse{
		ID:          t.ID.String(),
		ProductID:   t.ProductID.String(),
		Quantity:    t.Quantity.Float64(),
		Priority:    t.Priority,
		Status:      string(t.Status),
		CreatedAt:   t.CreatedAt,
		StartedAt:   t.StartedAt,
		CompletedAt: t.CompletedAt,
	}
	if t.OrderLineID != nil {
		resp.OrderLineID = t.OrderLineID.String()
	}
	return resp
}

// Queue handles GET /production/queue.
func (h *ProductionHandler) Queue(c *gin.Context) {
	tasks, err := h.orchestrator.Queue(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]taskResponse, len(tasks))
	for i, task := range tasks {
		items[i] = fromTask(task)
	}
	c.JSON(http.StatusOK, items)
}

// Start handles POST /production/tasks/:id/start: consumes materials and
// moves the task to in_progress.
func (h *ProductionHandler) Start(c *gin.Context) {
	taskID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.orchestrator.StartProduction(c.Request.Context(), taskID); err != nil {
		h.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Complete handles POST /production/tasks/:id/complete: books the output
// into finished stock and closes the task.
func (h *ProductionHandler) Complete(c *gin.Context) {
	taskID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.orchestrator.CompleteProduction(c.Request.Context(), taskID); err != nil {
		h.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
