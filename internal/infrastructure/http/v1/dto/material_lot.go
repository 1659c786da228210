package dto

import (
	"time"

	"craftflow/internal/core/apperror"
	"craftflow/internal/core/id"
	"craftflow/internal/core/types"
	"craftflow/internal/domain/materials"
)

// ReceiveLotRequest is the request body for recording a delivered batch.
type ReceiveLotRequest struct {
	DefinitionID string     `json:"definitionId" binding:"required"`
	WarehouseID  string     `json:"warehouseId" binding:"required"`
	Quantity     float64    `json:"quantity" binding:"required"`
	UnitCost     string     `json:"unitCost"`
	Supplier     string     `json:"supplier"`
	ReceivedAt   *time.Time `json:"receivedAt"`
}

// ToEntity converts DTO to domain entity.
func (r *ReceiveLotRequest) ToEntity() (*materials.Lot, error) {
	defID, err := id.Parse(r.DefinitionID)
	if err != nil {
		return nil, apperror.NewValidation("invalid material definition id").
			WithDetail("definitionId", r.DefinitionID)
	}
	whID, err := id.Parse(r.WarehouseID)
	if err != nil {
		return nil, apperror.NewValidation("invalid warehouse id").
			WithDetail("warehouseId", r.WarehouseID)
	}

	unitCost := types.ZeroMoney()
	if r.UnitCost != "" {
		unitCost, err = types.NewMoneyFromString(r.UnitCost)
		if err != nil {
			return nil, apperror.NewValidation("invalid unit cost").
				WithDetail("unitCost", r.UnitCost)
		}
	}

	receivedAt := time.Now().UTC()
	if r.ReceivedAt != nil {
		receivedAt = *r.ReceivedAt
	}

	return materials.NewLot(defID, whID, types.NewQuantityFromFloat64(r.Quantity), unitCost, r.Supplier, receivedAt), nil
}

// AdjustLotRequest is the request body for a manual lot correction.
type AdjustLotRequest struct {
	Quantity float64 `json:"quantity" binding:"required"`
	Reason   string  `json:"reason" binding:"required"`
}

// LotResponse is the response body for a material lot.
type LotResponse struct {
	ID           string    `json:"id"`
	DefinitionID string    `json:"definitionId"`
	WarehouseID  string    `json:"warehouseId"`
	Received     float64   `json:"received"`
	Remaining    float64   `json:"remaining"`
	UnitCost     string    `json:"unitCost"`
	Supplier     string    `json:"supplier,omitempty"`
	ReceivedAt   time.Time `json:"receivedAt"`
}

// FromLot creates response DTO from domain entity.
func FromLot(lot *materials.Lot) *LotResponse {
	return &LotResponse{
		ID:           lot.ID.String(),
		DefinitionID: lot.DefinitionID.String(),
		WarehouseID:  lot.WarehouseID.String(),
		Received:     lot.Received.Float64(),
		Remaining:    lot.Remaining.Float64(),
		UnitCost:     lot.UnitCost.String(),
		Supplier:     lot.Supplier,
		ReceivedAt:   lot.ReceivedAt,
	}
}

// MovementResponse is one ledger line.
type MovementResponse struct {
	LineID       string    `json:"lineId"`
	LotID        string    `json:"lotId"`
	DefinitionID string    `json:"definitionId"`
	WarehouseID  string    `json:"warehouseId"`
	Quantity     float64   `json:"quantity"`
	Reason       string    `json:"reason"`
	TaskID       string    `json:"taskId,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// FromMovement creates response DTO from domain entity.
func FromMovement(m materials.Movement) MovementResponse {
	resp := MovementResponse{
		LineID:       m.LineID.String(),
		LotID:        m.LotID.String(),
		DefinitionID: m.DefinitionID.String(),
		WarehouseID:  m.WarehouseID.String(),
		Quantity:     m.Quantity.Float64(),
		Reason:       string(m.Reason),
		CreatedAt:    m.CreatedAt,
	}
	if m.TaskID != nil {
		resp.TaskID = m.TaskID.String()
	}
	return resp
}
