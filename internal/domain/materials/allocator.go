package materials

import (
	"context"

	"craftflow/internal/core/id"
	"craftflow/internal/core/types"
)

// Allocation takes Quantity from one lot.
type Allocation struct {
	LotID       id.ID          `json:"lotId"`
	WarehouseID id.ID          `json:"warehouseId"`
	Quantity    types.Quantity `json:"quantity"`
}

// Plan is the outcome of planning an allocation. When Shortage is positive
// the plan is partial and must not be applied.
type Plan struct {
	DefinitionID id.ID          `json:"definitionId"`
	Required     types.Quantity `json:"required"`
	Allocations  []Allocation   `json:"allocations"`
	Shortage     types.Quantity `json:"shortage"`
}

// Covered reports whether the plan fully covers the requirement.
func (p Plan) Covered() bool { return p.Shortage.IsZero() }

// Allocated returns the total planned quantity.
func (p Plan) Allocated() types.Quantity {
	var total types.Quantity
	for _, a := range p.Allocations {
		total += a.Quantity
	}
	return total
}

// Allocator plans which lots cover a material requirement. Planning is a
// pure read: applying the plan (debiting lots, writing movements) is the
// caller's job inside its own transaction.
type Allocator struct {
	lots LotRepository
}

func NewAllocator(lots LotRepository) *Allocator {
	return &Allocator{lots: lots}
}

// SelectLots greedily takes from lots in warehouse priority order, oldest
// lot first within a warehouse. A lot is never planned below zero.
func (a *Allocator) SelectLots(ctx context.Context, definitionID id.ID, required types.Quantity) (Plan, error) {
	plan := Plan{DefinitionID: definitionID, Required: required}
	if !required.IsPositive() {
		return plan, nil
	}

	candidates, err := a.lots.ListAvailableLots(ctx, definitionID)
	if err != nil {
		return Plan{}, err
	}

	outstanding := required
	for _, lot := range candidates {
		if outstanding.IsZero() {
			break
		}
		take := types.Min(lot.Remaining, outstanding)
		if !take.IsPositive() {
			continue
		}
		plan.Allocations = append(plan.Allocations, Allocation{
			LotID:       lot.ID,
			WarehouseID: lot.WarehouseID,
			Quantity:    take,
		})
		outstanding -= take
	}
	plan.Shortage = outstanding
	return plan, nil
}
