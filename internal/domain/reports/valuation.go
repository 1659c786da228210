package reports

import (
	"context"

	"craftflow/internal/core/id"
	"craftflow/internal/core/types"
)

// ValuationRow is the remaining quantity and purchase value of one
// material definition, summed over its lots.
type ValuationRow struct {
	DefinitionID id.ID          `db:"definition_id" json:"definitionId"`
	Remaining    types.Quantity `db:"remaining" json:"remaining"`
	Value        types.Money    `db:"value" json:"value"`
}

// Valuation is the full stock valuation report.
type Valuation struct {
	Rows  []ValuationRow `json:"rows"`
	Total types.Money    `json:"total"`
}

// Repository runs the aggregate report queries that have no business
// logic of their own.
type Repository interface {
	// MaterialValuation sums remaining quantity and remaining * unit cost
	// per definition over all lots.
	MaterialValuation(ctx context.Context) ([]ValuationRow, error)
}

// ValuationReport prices remaining material stock at lot purchase cost.
type ValuationReport struct {
	repo Repository
}

func NewValuationReport(repo Repository) *ValuationReport {
	return &ValuationReport{repo: repo}
}

func (r *ValuationReport) Build(ctx context.Context) (Valuation, error) {
	rows, err := r.repo.MaterialValuation(ctx)
	if err != nil {
		return Valuation{}, err
	}
	total := types.ZeroMoney()
	for _, row := range rows {
		total = total.Add(row.Value)
	}
	return Valuation{Rows: rows, Total: total}, nil
}
