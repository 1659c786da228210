package materials

import (
	"context"

	"craftflow/internal/core/id"
	"craftflow/internal/core/types"
)

// AvailabilityResolver answers "how much of this material do we have".
type AvailabilityResolver struct {
	lots LotRepository
}

func NewAvailabilityResolver(lots LotRepository) *AvailabilityResolver {
	return &AvailabilityResolver{lots: lots}
}

// Available returns the total remaining quantity of the definition across
// all lots, optionally restricted to one warehouse. A definition with no
// lots resolves to zero, not an error.
func (r *AvailabilityResolver) Available(ctx context.Context, definitionID id.ID, warehouseID *id.ID) (types.Quantity, error) {
	return r.lots.SumRemaining(ctx, definitionID, warehouseID)
}
