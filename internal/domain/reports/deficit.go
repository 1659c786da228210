// Package reports provides material deficit, replenishment, and stock
// valuation reporting.
package reports

import (
	"context"
	"sort"

	"craftflow/internal/core/id"
	"craftflow/internal/core/types"
	"craftflow/internal/domain/materials"
	"craftflow/internal/domain/orders"
	"craftflow/internal/domain/recipes"
)

// Deficit is the material-level gap between what open orders need and
// what is on hand. Deficit is never negative.
type Deficit struct {
	DefinitionID id.ID          `json:"definitionId"`
	Needed       types.Quantity `json:"needed"`
	Have         types.Quantity `json:"have"`
	Deficit      types.Quantity `json:"deficit"`
}

// DeficitAnalyzer aggregates material requirements across orders that
// still need production. Replenishment is decided per material, so the
// report is material-level, not per-order.
type DeficitAnalyzer struct {
	orders   orders.Repository
	recipes  recipes.Repository
	resolver *materials.AvailabilityResolver
}

func NewDeficitAnalyzer(
	ordersRepo orders.Repository,
	recipesRepo recipes.Repository,
	resolver *materials.AvailabilityResolver,
) *DeficitAnalyzer {
	return &DeficitAnalyzer{
		orders:   ordersRepo,
		recipes:  recipesRepo,
		resolver: resolver,
	}
}

var deficitFlowStatuses = []orders.FlowStatus{
	orders.FlowNeedMaterials,
	orders.FlowNeedProduction,
	orders.FlowInProduction,
}

// Analyze sums required quantities per material definition over all
// outstanding produce-on-demand lines and subtracts current availability.
func (a *DeficitAnalyzer) Analyze(ctx context.Context) ([]Deficit, error) {
	openOrders, err := a.orders.ListByFlowStatus(ctx, deficitFlowStatuses)
	if err != nil {
		return nil, err
	}

	needed := make(map[id.ID]types.Quantity)
	productIDs := make(map[id.ID]struct{})
	var outstanding []*orders.Line
	for _, order := range openOrders {
		lines, err := a.orders.GetLines(ctx, order.ID)
		if err != nil {
			return nil, err
		}
		for _, line := range lines {
			if line.FulfillmentType != orders.TypeProduceOnDemand {
				continue
			}
			if line.FulfillmentStatus != orders.StatusPlanned &&
				line.FulfillmentStatus != orders.StatusInProduction {
				continue
			}
			outstanding = append(outstanding, line)
			productIDs[line.ProductID] = struct{}{}
		}
	}
	if len(outstanding) == 0 {
		return nil, nil
	}

	ids := make([]id.ID, 0, len(productIDs))
	for pid := range productIDs {
		ids = append(ids, pid)
	}
	recipeByProduct, err := a.recipes.ListByProducts(ctx, ids)
	if err != nil {
		return nil, err
	}

	for _, line := range outstanding {
		recipe, ok := recipeByProduct[line.ProductID]
		if !ok {
			// No recipe means no computable requirement. The line shows
			// up as blocked in its status instead.
			continue
		}
		for _, comp := range recipe.Components {
			needed[comp.DefinitionID] += comp.QtyPerUnit.Mul(line.Quantity)
		}
	}

	result := make([]Deficit, 0, len(needed))
	for defID, req := range needed {
		have, err := a.resolver.Available(ctx, defID, nil)
		if err != nil {
			return nil, err
		}
		gap := req - have
		if gap.IsNegative() {
			gap = 0
		}
		result = append(result, Deficit{
			DefinitionID: defID,
			Needed:       req,
			Have:         have,
			Deficit:      gap,
		})
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Deficit > result[j].Deficit
	})
	return result, nil
}
