// Package materials provides raw-material lots, the append-only movement
// ledger, availability resolution, and FIFO lot allocation.
package materials

import (
	"context"
	"time"

	"craftflow/internal/core/apperror"
	"craftflow/internal/core/entity"
	"craftflow/internal/core/id"
	"craftflow/internal/core/types"
)

// Lot is one received batch of a material definition at one warehouse.
// Tracked separately from the definition for cost and traceability.
// Invariant: Remaining = Received + sum of signed movements, never negative.
type Lot struct {
	entity.BaseDocument

	DefinitionID id.ID `db:"definition_id" json:"definitionId"`
	WarehouseID  id.ID `db:"warehouse_id" json:"warehouseId"`

	Received  types.Quantity `db:"received" json:"received"`
	Remaining types.Quantity `db:"remaining" json:"remaining"`

	// UnitCost is the purchase cost per unit of measure
	UnitCost types.Money `db:"unit_cost" json:"unitCost"`

	Supplier   string    `db:"supplier" json:"supplier,omitempty"`
	ReceivedAt time.Time `db:"received_at" json:"receivedAt"`
}

// NewLot creates a lot for a received batch.
func NewLot(definitionID, warehouseID id.ID, qty types.Quantity, unitCost types.Money, supplier string, receivedAt time.Time) *Lot {
	return &Lot{
		BaseDocument: entity.NewBaseDocument(),
		DefinitionID: definitionID,
		WarehouseID:  warehouseID,
		Received:     qty,
		Remaining:    qty,
		UnitCost:     unitCost,
		Supplier:     supplier,
		ReceivedAt:   receivedAt.UTC(),
	}
}

// Validate implements entity.Validatable.
func (l *Lot) Validate(ctx context.Context) error {
	if id.IsNil(l.DefinitionID) {
		return apperror.NewValidation("material definition is required").
			WithDetail("field", "definitionId")
	}
	if id.IsNil(l.WarehouseID) {
		return apperror.NewValidation("warehouse is required").
			WithDetail("field", "warehouseId")
	}
	if !l.Received.IsPositive() {
		return apperror.NewValidation("received quantity must be positive").
			WithDetail("field", "received")
	}
	if l.UnitCost.IsNegative() {
		return apperror.NewValidation("unit cost must not be negative").
			WithDetail("field", "unitCost")
	}
	return nil
}

// MovementReason tags why a lot quantity changed.
type MovementReason string

const (
	ReasonReceived   MovementReason = "received"
	ReasonProduction MovementReason = "production"
	ReasonAdjustment MovementReason = "adjustment"
	ReasonWriteOff   MovementReason = "writeoff"
)

// Movement is an immutable signed quantity delta against one lot.
// Movements form an append-only ledger; they are never updated or deleted.
type Movement struct {
	// LineID is unique identifier for this ledger line (UUIDv7)
	LineID id.ID `db:"line_id" json:"lineId"`

	LotID        id.ID `db:"lot_id" json:"lotId"`
	DefinitionID id.ID `db:"definition_id" json:"definitionId"`
	WarehouseID  id.ID `db:"warehouse_id" json:"warehouseId"`

	// Quantity is signed: positive for receipts, negative for consumption
	Quantity types.Quantity `db:"quantity" json:"quantity"`

	Reason MovementReason `db:"reason" json:"reason"`

	// TaskID links consumption movements to the production task that
	// caused them (nullable)
	TaskID *id.ID `db:"task_id" json:"taskId,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// NewMovement creates a ledger line against a lot.
func NewMovement(lot *Lot, qty types.Quantity, reason MovementReason, taskID *id.ID) Movement {
	return Movement{
		LineID:       id.New(),
		LotID:        lot.ID,
		DefinitionID: lot.DefinitionID,
		WarehouseID:  lot.WarehouseID,
		Quantity:     qty,
		Reason:       reason,
		TaskID:       taskID,
		CreatedAt:    time.Now().UTC(),
	}
}

// MovementFilter for querying the ledger.
type MovementFilter struct {
	DefinitionID *id.ID
	LotID        *id.ID
	WarehouseID  *id.ID
	Reason       *MovementReason
	TaskID       *id.ID
	FromDate     *time.Time
	ToDate       *time.Time
	Limit        int
	Offset       int
}
