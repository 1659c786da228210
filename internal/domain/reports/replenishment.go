package reports

import (
	"context"

	"craftflow/internal/core/apperror"
	"craftflow/internal/core/types"
	"craftflow/internal/domain/materials"
)

// ReplenishmentItem is a deficit enriched with purchasing hints taken
// from the material's most recent lot.
type ReplenishmentItem struct {
	Deficit

	LastSupplier string      `json:"lastSupplier,omitempty"`
	LastUnitCost types.Money `json:"lastUnitCost"`

	// EstimatedCost prices the deficit at the last known unit cost
	EstimatedCost types.Money `json:"estimatedCost"`
}

// ReplenishmentReport turns the deficit analysis into a shopping list.
type ReplenishmentReport struct {
	analyzer *DeficitAnalyzer
	lots     materials.LotRepository
}

func NewReplenishmentReport(analyzer *DeficitAnalyzer, lots materials.LotRepository) *ReplenishmentReport {
	return &ReplenishmentReport{
		analyzer: analyzer,
		lots:     lots,
	}
}

// Build lists materials in deficit with the supplier and cost of their
// latest lot. Materials that were never received carry no hints.
func (r *ReplenishmentReport) Build(ctx context.Context) ([]ReplenishmentItem, error) {
	deficits, err := r.analyzer.Analyze(ctx)
	if err != nil {
		return nil, err
	}

	items := make([]ReplenishmentItem, 0, len(deficits))
	for _, d := range deficits {
		if d.Deficit.IsZero() {
			continue
		}
		item := ReplenishmentItem{
			Deficit:       d,
			LastUnitCost:  types.ZeroMoney(),
			EstimatedCost: types.ZeroMoney(),
		}
		latest, err := r.lots.LatestLotByDefinition(ctx, d.DefinitionID)
		switch {
		case err == nil:
			item.LastSupplier = latest.Supplier
			item.LastUnitCost = latest.UnitCost
			item.EstimatedCost = types.CostOf(d.Deficit, latest.UnitCost)
		case apperror.IsNotFound(err):
			// never purchased, no hints to offer
		default:
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}
