// Package report_repo runs the aggregate report queries.
package report_repo

import (
	"context"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"

	"craftflow/internal/domain/reports"
	"craftflow/internal/infrastructure/storage/postgres"
)

var _ reports.Repository = (*ReportRepo)(nil)

// ReportRepo implements reports.Repository.
type ReportRepo struct {
	txManager *postgres.TxManager
}

// NewReportRepo creates a new report repository.
func NewReportRepo(txManager *postgres.TxManager) *ReportRepo {
	return &ReportRepo{txManager: txManager}
}

// MaterialValuation prices remaining lot stock at purchase cost.
// Quantities are stored as scaled integers, so the value is divided back
// by the quantity scale.
func (r *ReportRepo) MaterialValuation(ctx context.Context) ([]reports.ValuationRow, error) {
	const query = `
		SELECT definition_id,
		       COALESCE(SUM(remaining), 0)                         AS remaining,
		       COALESCE(SUM(remaining * unit_cost) / 10000.0, 0)   AS value
		FROM reg_material_lots
		WHERE remaining > 0
		GROUP BY definition_id
		ORDER BY value DESC`

	var rows []reports.ValuationRow
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &rows, query); err != nil {
		return nil, fmt.Errorf("material valuation: %w", err)
	}
	return rows, nil
}
