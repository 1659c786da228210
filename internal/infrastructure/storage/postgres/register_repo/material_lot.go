// Package register_repo provides PostgreSQL implementations for the
// quantity registers: material lots with their movement ledger, and
// finished-product balances.
package register_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"craftflow/internal/core/apperror"
	"craftflow/internal/core/id"
	"craftflow/internal/core/types"
	"craftflow/internal/domain/materials"
	"craftflow/internal/infrastructure/storage/postgres"
)

const (
	lotsTable      = "reg_material_lots"
	movementsTable = "reg_material_movements"
)

var _ materials.LotRepository = (*MaterialLotRepo)(nil)

// MaterialLotRepo implements materials.LotRepository.
type MaterialLotRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
	lotCols   []string
}

// NewMaterialLotRepo creates a new material lot repository.
func NewMaterialLotRepo(txManager *postgres.TxManager) *MaterialLotRepo {
	return &MaterialLotRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		lotCols:   postgres.ExtractDBColumns[materials.Lot](),
	}
}

func (r *MaterialLotRepo) querier(ctx context.Context) postgres.Querier {
	return r.txManager.GetQuerier(ctx)
}

// CreateLot inserts a lot.
func (r *MaterialLotRepo) CreateLot(ctx context.Context, lot *materials.Lot) error {
	data := postgres.StructToMap(lot)
	filtered := make(map[string]any, len(r.lotCols))
	for _, col := range r.lotCols {
		if val, ok := data[col]; ok {
			filtered[col] = val
		}
	}

	sql, args, err := r.builder.
		Insert(lotsTable).
		SetMap(filtered).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert lot: %w", err)
	}
	return nil
}

// GetLot retrieves a lot by id.
func (r *MaterialLotRepo) GetLot(ctx context.Context, lotID id.ID) (*materials.Lot, error) {
	sql, args, err := r.builder.
		Select(prefixed("l", r.lotCols)...).
		From(lotsTable + " l").
		Where(squirrel.Eq{"l.id": lotID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	lot := &materials.Lot{}
	if err := pgxscan.Get(ctx, r.querier(ctx), lot, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("material lot", lotID.String())
		}
		return nil, fmt.Errorf("get lot: %w", err)
	}
	return lot, nil
}

// ListAvailableLots returns allocation candidates in consumption order:
// warehouse priority, then oldest receipt, then lot id as the tie breaker.
func (r *MaterialLotRepo) ListAvailableLots(ctx context.Context, definitionID id.ID) ([]*materials.Lot, error) {
	sql, args, err := r.builder.
		Select(prefixed("l", r.lotCols)...).
		From(lotsTable + " l").
		Join("cat_warehouses w ON w.id = l.warehouse_id").
		Where(squirrel.Eq{"l.definition_id": definitionID}).
		Where(squirrel.Gt{"l.remaining": 0}).
		OrderBy("w.priority ASC", "l.received_at ASC", "l.id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var lots []*materials.Lot
	if err := pgxscan.Select(ctx, r.querier(ctx), &lots, sql, args...); err != nil {
		return nil, fmt.Errorf("list available lots: %w", err)
	}
	return lots, nil
}

// SumRemaining totals remaining quantity for a definition.
func (r *MaterialLotRepo) SumRemaining(ctx context.Context, definitionID id.ID, warehouseID *id.ID) (types.Quantity, error) {
	q := r.builder.
		Select("COALESCE(SUM(remaining), 0)").
		From(lotsTable).
		Where(squirrel.Eq{"definition_id": definitionID})
	if warehouseID != nil {
		q = q.Where(squirrel.Eq{"warehouse_id": *warehouseID})
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}

	var total int64
	if err := r.querier(ctx).QueryRow(ctx, sql, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("sum remaining: %w", err)
	}
	return types.NewQuantityFromInt64Scaled(total), nil
}

// DebitLot conditionally decrements remaining. Zero rows affected means a
// concurrent consumer got there first.
func (r *MaterialLotRepo) DebitLot(ctx context.Context, lotID id.ID, qty types.Quantity) error {
	sql, args, err := r.builder.
		Update(lotsTable).
		Set("remaining", squirrel.Expr("remaining - ?", qty)).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": lotID}).
		Where(squirrel.GtOrEq{"remaining": qty}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("debit lot: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewConcurrentModification("material lot", lotID.String())
	}
	return nil
}

// CreditLot increments remaining, never above the received quantity.
func (r *MaterialLotRepo) CreditLot(ctx context.Context, lotID id.ID, qty types.Quantity) error {
	sql, args, err := r.builder.
		Update(lotsTable).
		Set("remaining", squirrel.Expr("remaining + ?", qty)).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": lotID}).
		Where(squirrel.Expr("remaining + ? <= received", qty)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("credit lot: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewBusinessRule("LOT_OVERCREDIT", "credit would exceed the lot's received quantity").
			WithDetail("lot_id", lotID.String())
	}
	return nil
}

// CreateMovements batch inserts ledger lines.
func (r *MaterialLotRepo) CreateMovements(ctx context.Context, movements []materials.Movement) error {
	if len(movements) == 0 {
		return nil
	}

	q := r.builder.Insert(movementsTable).Columns(
		"line_id", "lot_id", "definition_id", "warehouse_id",
		"quantity", "reason", "task_id", "created_at",
	)
	for _, m := range movements {
		q = q.Values(
			m.LineID, m.LotID, m.DefinitionID, m.WarehouseID,
			m.Quantity, m.Reason, m.TaskID, m.CreatedAt,
		)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert movements: %w", err)
	}
	return nil
}

// ListMovements reads the ledger, newest first.
func (r *MaterialLotRepo) ListMovements(ctx context.Context, filter materials.MovementFilter) ([]materials.Movement, error) {
	q := r.builder.
		Select(postgres.ExtractDBColumns[materials.Movement]()...).
		From(movementsTable).
		OrderBy("created_at DESC", "line_id DESC")

	if filter.DefinitionID != nil {
		q = q.Where(squirrel.Eq{"definition_id": *filter.DefinitionID})
	}
	if filter.LotID != nil {
		q = q.Where(squirrel.Eq{"lot_id": *filter.LotID})
	}
	if filter.WarehouseID != nil {
		q = q.Where(squirrel.Eq{"warehouse_id": *filter.WarehouseID})
	}
	if filter.Reason != nil {
		q = q.Where(squirrel.Eq{"reason": *filter.Reason})
	}
	if filter.TaskID != nil {
		q = q.Where(squirrel.Eq{"task_id": *filter.TaskID})
	}
	if filter.FromDate != nil {
		q = q.Where(squirrel.GtOrEq{"created_at": *filter.FromDate})
	}
	if filter.ToDate != nil {
		q = q.Where(squirrel.Lt{"created_at": *filter.ToDate})
	}
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var movements []materials.Movement
	if err := pgxscan.Select(ctx, r.querier(ctx), &movements, sql, args...); err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	return movements, nil
}

// LatestLotByDefinition returns the most recently received lot.
func (r *MaterialLotRepo) LatestLotByDefinition(ctx context.Context, definitionID id.ID) (*materials.Lot, error) {
	sql, args, err := r.builder.
		Select(prefixed("l", r.lotCols)...).
		From(lotsTable + " l").
		Where(squirrel.Eq{"l.definition_id": definitionID}).
		OrderBy("l.received_at DESC", "l.id DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	lot := &materials.Lot{}
	if err := pgxscan.Get(ctx, r.querier(ctx), lot, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("material lot", definitionID.String())
		}
		return nil, fmt.Errorf("latest lot: %w", err)
	}
	return lot, nil
}

// prefixed qualifies columns with a table alias for joined queries.
func prefixed(alias string, cols []string) []string {
	out := make([]string, len(cols))
	for i, col := range cols {
		out[i] = alias + "." + col
	}
	return out
}
