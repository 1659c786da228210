package register_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"craftflow/internal/core/apperror"
	"craftflow/internal/core/id"
	"craftflow/internal/core/types"
	"craftflow/internal/domain/inventory"
	"craftflow/internal/infrastructure/storage/postgres"
)

const balancesTable = "reg_product_balances"

var _ inventory.Repository = (*InventoryRepo)(nil)

// InventoryRepo implements inventory.Repository. Every mutation is one
// conditional statement so concurrent reservations cannot oversell.
type InventoryRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewInventoryRepo creates a new product balance repository.
func NewInventoryRepo(txManager *postgres.TxManager) *InventoryRepo {
	return &InventoryRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *InventoryRepo) querier(ctx context.Context) postgres.Querier {
	return r.txManager.GetQuerier(ctx)
}

// Get returns the balance for a product, zero when untracked.
func (r *InventoryRepo) Get(ctx context.Context, productID id.ID) (inventory.Balance, error) {
	sql, args, err := r.builder.
		Select("product_id", "on_hand", "reserved", "updated_at").
		From(balancesTable).
		Where(squirrel.Eq{"product_id": productID}).
		Limit(1).
		ToSql()
	if err != nil {
		return inventory.Balance{}, fmt.Errorf("build query: %w", err)
	}

	var balance inventory.Balance
	if err := pgxscan.Get(ctx, r.querier(ctx), &balance, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return inventory.Balance{ProductID: productID}, nil
		}
		return inventory.Balance{}, fmt.Errorf("get balance: %w", err)
	}
	return balance, nil
}

// List returns balances for the given products. Untracked products are
// simply absent from the result.
func (r *InventoryRepo) List(ctx context.Context, productIDs []id.ID) ([]inventory.Balance, error) {
	q := r.builder.
		Select("product_id", "on_hand", "reserved", "updated_at").
		From(balancesTable).
		OrderBy("product_id")
	if len(productIDs) > 0 {
		q = q.Where(squirrel.Eq{"product_id": productIDs})
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var balances []inventory.Balance
	if err := pgxscan.Select(ctx, r.querier(ctx), &balances, sql, args...); err != nil {
		return nil, fmt.Errorf("list balances: %w", err)
	}
	return balances, nil
}

// Reserve holds qty only while enough unreserved stock remains. The
// availability check and the increment are a single statement.
func (r *InventoryRepo) Reserve(ctx context.Context, productID id.ID, qty types.Quantity) error {
	sql, args, err := r.builder.
		Update(balancesTable).
		Set("reserved", squirrel.Expr("reserved + ?", qty)).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"product_id": productID}).
		Where(squirrel.Expr("on_hand - reserved >= ?", qty)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("reserve: %w", err)
	}
	if result.RowsAffected() == 0 {
		// The caller decided against a balance that no longer holds.
		// Reported as a conflict, not a shortage, so the caller knows
		// to re-evaluate instead of surfacing "insufficient stock".
		return apperror.NewConcurrentModification("product balance", productID.String())
	}
	return nil
}

// ReleaseReservation returns qty to available stock.
func (r *InventoryRepo) ReleaseReservation(ctx context.Context, productID id.ID, qty types.Quantity) error {
	sql, args, err := r.builder.
		Update(balancesTable).
		Set("reserved", squirrel.Expr("reserved - ?", qty)).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"product_id": productID}).
		Where(squirrel.GtOrEq{"reserved": qty}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("release reservation: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewBusinessRule("RESERVATION_UNDERFLOW", "release exceeds reserved quantity").
			WithDetail("product_id", productID.String())
	}
	return nil
}

// FulfillReservation ships reserved goods: both on_hand and reserved drop.
func (r *InventoryRepo) FulfillReservation(ctx context.Context, productID id.ID, qty types.Quantity) error {
	sql, args, err := r.builder.
		Update(balancesTable).
		Set("on_hand", squirrel.Expr("on_hand - ?", qty)).
		Set("reserved", squirrel.Expr("reserved - ?", qty)).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"product_id": productID}).
		Where(squirrel.GtOrEq{"reserved": qty}).
		Where(squirrel.GtOrEq{"on_hand": qty}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("fulfill reservation: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewBusinessRule("RESERVATION_UNDERFLOW", "fulfillment exceeds reserved quantity").
			WithDetail("product_id", productID.String())
	}
	return nil
}

// AddOnHand increases on_hand, creating the balance row if absent.
func (r *InventoryRepo) AddOnHand(ctx context.Context, productID id.ID, qty types.Quantity) error {
	const query = `
		INSERT INTO reg_product_balances (product_id, on_hand, reserved, updated_at)
		VALUES ($1, $2, 0, now())
		ON CONFLICT (product_id)
		DO UPDATE SET on_hand = reg_product_balances.on_hand + EXCLUDED.on_hand,
		              updated_at = now()`

	if _, err := r.querier(ctx).Exec(ctx, query, productID, qty); err != nil {
		return fmt.Errorf("add on hand: %w", err)
	}
	return nil
}

// RemoveOnHand writes off unreserved stock.
func (r *InventoryRepo) RemoveOnHand(ctx context.Context, productID id.ID, qty types.Quantity) error {
	sql, args, err := r.builder.
		Update(balancesTable).
		Set("on_hand", squirrel.Expr("on_hand - ?", qty)).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"product_id": productID}).
		Where(squirrel.Expr("on_hand - reserved >= ?", qty)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("remove on hand: %w", err)
	}
	if result.RowsAffected() == 0 {
		balance, berr := r.Get(ctx, productID)
		if berr != nil {
			return apperror.NewInsufficientStock(productID.String(), qty.Float64(), 0)
		}
		return apperror.NewInsufficientStock(productID.String(), qty.Float64(), balance.Available().Float64())
	}
	return nil
}
