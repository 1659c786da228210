// Package document_repo provides PostgreSQL implementations for the
// operational documents: orders, recipes, and production tasks.
package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"craftflow/internal/core/apperror"
	"craftflow/internal/core/id"
	"craftflow/internal/domain/orders"
	"craftflow/internal/infrastructure/storage/postgres"
)

const (
	ordersTable     = "doc_orders"
	orderLinesTable = "doc_order_lines"
	timelineTable   = "doc_order_timeline"
)

var _ orders.Repository = (*OrderRepo)(nil)

// OrderRepo implements orders.Repository.
type OrderRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
	orderCols []string
	lineCols  []string
}

// NewOrderRepo creates a new order repository.
func NewOrderRepo(txManager *postgres.TxManager) *OrderRepo {
	return &OrderRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		orderCols: postgres.ExtractDBColumns[orders.Order](),
		lineCols:  postgres.ExtractDBColumns[orders.Line](),
	}
}

func (r *OrderRepo) querier(ctx context.Context) postgres.Querier {
	return r.txManager.GetQuerier(ctx)
}

// Create inserts the order header and its lines.
func (r *OrderRepo) Create(ctx context.Context, order *orders.Order) error {
	data := postgres.StructToMap(order)
	filtered := make(map[string]any, len(r.orderCols))
	for _, col := range r.orderCols {
		if val, ok := data[col]; ok {
			filtered[col] = val
		}
	}

	sql, args, err := r.builder.
		Insert(ordersTable).
		SetMap(filtered).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	if len(order.Lines) == 0 {
		return nil
	}
	q := r.builder.Insert(orderLinesTable).Columns(r.lineCols...)
	for _, line := range order.Lines {
		lineData := postgres.StructToMap(line)
		row := make([]any, len(r.lineCols))
		for i, col := range r.lineCols {
			row[i] = lineData[col]
		}
		q = q.Values(row...)
	}
	sql, args, err = q.ToSql()
	if err != nil {
		return fmt.Errorf("build lines insert: %w", err)
	}
	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert order lines: %w", err)
	}
	return nil
}

// GetByID retrieves the order header.
func (r *OrderRepo) GetByID(ctx context.Context, orderID id.ID) (*orders.Order, error) {
	sql, args, err := r.builder.
		Select(r.orderCols...).
		From(ordersTable).
		Where(squirrel.Eq{"id": orderID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	order := &orders.Order{}
	if err := pgxscan.Get(ctx, r.querier(ctx), order, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("order", orderID.String())
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	return order, nil
}

// GetByChannelRef finds an imported order by its channel identifier.
func (r *OrderRepo) GetByChannelRef(ctx context.Context, channelRef string) (*orders.Order, error) {
	sql, args, err := r.builder.
		Select(r.orderCols...).
		From(ordersTable).
		Where(squirrel.Eq{"channel_ref": channelRef}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	order := &orders.Order{}
	if err := pgxscan.Get(ctx, r.querier(ctx), order, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("order", channelRef)
		}
		return nil, fmt.Errorf("get order by channel ref: %w", err)
	}
	return order, nil
}

// ListByFlowStatus returns orders in any of the given statuses.
func (r *OrderRepo) ListByFlowStatus(ctx context.Context, statuses []orders.FlowStatus) ([]*orders.Order, error) {
	sql, args, err := r.builder.
		Select(r.orderCols...).
		From(ordersTable).
		Where(squirrel.Eq{"flow_status": statuses}).
		OrderBy("created_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var result []*orders.Order
	if err := pgxscan.Select(ctx, r.querier(ctx), &result, sql, args...); err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return result, nil
}

// ListActive returns orders whose lifecycle is not finished.
func (r *OrderRepo) ListActive(ctx context.Context) ([]*orders.Order, error) {
	terminal := []orders.FlowStatus{orders.FlowShipped, orders.FlowDone, orders.FlowCancelled}

	sql, args, err := r.builder.
		Select(r.orderCols...).
		From(ordersTable).
		Where(squirrel.NotEq{"flow_status": terminal}).
		OrderBy("created_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var result []*orders.Order
	if err := pgxscan.Select(ctx, r.querier(ctx), &result, sql, args...); err != nil {
		return nil, fmt.Errorf("list active orders: %w", err)
	}
	return result, nil
}

// GetLines returns the order's lines in insertion order.
func (r *OrderRepo) GetLines(ctx context.Context, orderID id.ID) ([]*orders.Line, error) {
	sql, args, err := r.builder.
		Select(r.lineCols...).
		From(orderLinesTable).
		Where(squirrel.Eq{"order_id": orderID}).
		OrderBy("id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var lines []*orders.Line
	if err := pgxscan.Select(ctx, r.querier(ctx), &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}
	return lines, nil
}

// GetLine retrieves one line.
func (r *OrderRepo) GetLine(ctx context.Context, lineID id.ID) (*orders.Line, error) {
	sql, args, err := r.builder.
		Select(r.lineCols...).
		From(orderLinesTable).
		Where(squirrel.Eq{"id": lineID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	line := &orders.Line{}
	if err := pgxscan.Get(ctx, r.querier(ctx), line, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("order line", lineID.String())
		}
		return nil, fmt.Errorf("get line: %w", err)
	}
	return line, nil
}

// DecideLine writes the decision with a compare-and-set on the PENDING
// type. Zero rows affected means another pass already decided the line.
func (r *OrderRepo) DecideLine(ctx context.Context, lineID id.ID, ft orders.FulfillmentType, fs orders.FulfillmentStatus, note string) error {
	sql, args, err := r.builder.
		Update(orderLinesTable).
		Set("fulfillment_type", ft).
		Set("fulfillment_status", fs).
		Set("note", note).
		Where(squirrel.Eq{"id": lineID}).
		Where(squirrel.Eq{"fulfillment_type": orders.TypePending}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("decide line: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewLineAlreadyDecided(lineID.String())
	}
	return nil
}

// UpdateLineStatus writes the execution status. An empty note leaves the
// stored note untouched.
func (r *OrderRepo) UpdateLineStatus(ctx context.Context, lineID id.ID, fs orders.FulfillmentStatus, note string) error {
	q := r.builder.
		Update(orderLinesTable).
		Set("fulfillment_status", fs).
		Where(squirrel.Eq{"id": lineID})
	if note != "" {
		q = q.Set("note", note)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update line status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("order line", lineID.String())
	}
	return nil
}

// SetFlowStatus writes the status only when it differs and reports
// whether a transition happened.
func (r *OrderRepo) SetFlowStatus(ctx context.Context, orderID id.ID, status orders.FlowStatus) (bool, error) {
	sql, args, err := r.builder.
		Update(ordersTable).
		Set("flow_status", status).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": orderID}).
		Where(squirrel.NotEq{"flow_status": status}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build update: %w", err)
	}

	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return false, fmt.Errorf("set flow status: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

// AppendTimeline stores one transition record.
func (r *OrderRepo) AppendTimeline(ctx context.Context, entry orders.TimelineEntry) error {
	sql, args, err := r.builder.
		Insert(timelineTable).
		Columns("id", "order_id", "status", "reason", "at").
		Values(entry.ID, entry.OrderID, entry.Status, entry.Reason, entry.At).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("append timeline: %w", err)
	}
	return nil
}

// GetTimeline returns the order's transitions, oldest first.
func (r *OrderRepo) GetTimeline(ctx context.Context, orderID id.ID) ([]orders.TimelineEntry, error) {
	sql, args, err := r.builder.
		Select("id", "order_id", "status", "reason", "at").
		From(timelineTable).
		Where(squirrel.Eq{"order_id": orderID}).
		OrderBy("at ASC", "id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var entries []orders.TimelineEntry
	if err := pgxscan.Select(ctx, r.querier(ctx), &entries, sql, args...); err != nil {
		return nil, fmt.Errorf("get timeline: %w", err)
	}
	return entries, nil
}
