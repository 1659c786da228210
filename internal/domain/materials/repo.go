package materials

import (
	"context"

	"craftflow/internal/core/id"
	"craftflow/internal/core/types"
)

// LotRepository persists lots and their movement ledger.
type LotRepository interface {
	CreateLot(ctx context.Context, lot *Lot) error
	GetLot(ctx context.Context, lotID id.ID) (*Lot, error)

	// ListAvailableLots returns lots with remaining > 0 for the definition,
	// ordered by warehouse priority ascending, then received date ascending,
	// then lot id ascending. This ordering is the allocation order.
	ListAvailableLots(ctx context.Context, definitionID id.ID) ([]*Lot, error)

	// SumRemaining totals remaining quantity across lots of the definition.
	// When warehouseID is non-nil the total is restricted to that warehouse.
	// A definition with no lots sums to zero.
	SumRemaining(ctx context.Context, definitionID id.ID, warehouseID *id.ID) (types.Quantity, error)

	// DebitLot decrements remaining by qty only when remaining >= qty.
	// Zero rows affected means the lot was consumed concurrently and the
	// caller must abort its transaction.
	DebitLot(ctx context.Context, lotID id.ID, qty types.Quantity) error

	// CreditLot increments remaining, capped by the lot's received quantity.
	CreditLot(ctx context.Context, lotID id.ID, qty types.Quantity) error

	CreateMovements(ctx context.Context, movements []Movement) error
	ListMovements(ctx context.Context, filter MovementFilter) ([]Movement, error)

	// LatestLotByDefinition returns the most recently received lot for the
	// definition, used as the source of supplier and cost hints.
	LatestLotByDefinition(ctx context.Context, definitionID id.ID) (*Lot, error)
}
