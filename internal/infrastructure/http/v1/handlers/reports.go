package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"craftflow/internal/domain/reports"
)

// ReportsHandler serves the reporting endpoints.
type ReportsHandler struct {
	*BaseHandler
	deficit       *reports.DeficitAnalyzer
	replenishment *reports.ReplenishmentReport
	valuation     *reports.ValuationReport
}

// NewReportsHandler creates a new reports handler.
func NewReportsHandler(
	base *BaseHandler,
	deficit *reports.DeficitAnalyzer,
	replenishment *reports.ReplenishmentReport,
	valuation *reports.ValuationReport,
) *ReportsHandler {
	return &ReportsHandler{
		BaseHandler:   base,
		deficit:       deficit,
		replenishment: replenishment,
		valuation:     valuation,
	}
}

// Deficit handles GET /reports/deficit.
func (h *ReportsHandler) Deficit(c *gin.Context) {
	result, err := h.deficit.Analyze(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Replenishment handles GET /reports/replenishment.
func (h *ReportsHandler) Replenishment(c *gin.Context) {
	result, err := h.replenishment.Build(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Valuation handles GET /reports/valuation.
func (h *ReportsHandler) Valuation(c *gin.Context) {
	result, err := h.valuation.Build(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
