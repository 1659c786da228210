package inventory

import (
	"context"

	"craftflow/internal/core/id"
	"craftflow/internal/core/types"
)

// Repository persists product balances. All quantity mutations are single
// conditional statements so concurrent callers cannot oversell.
type Repository interface {
	// Get returns the balance for a product. An untracked product is a
	// zero balance, not an error.
	Get(ctx context.Context, productID id.ID) (Balance, error)

	List(ctx context.Context, productIDs []id.ID) ([]Balance, error)

	// Reserve moves qty from available to reserved only when
	// on_hand - reserved >= qty. Zero rows affected means availability
	// changed since the caller checked and maps to a
	// CONCURRENT_MODIFICATION conflict, not an insufficiency.
	Reserve(ctx context.Context, productID id.ID, qty types.Quantity) error

	// ReleaseReservation returns qty from reserved to available.
	ReleaseReservation(ctx context.Context, productID id.ID, qty types.Quantity) error

	// FulfillReservation removes qty from both on_hand and reserved when
	// reserved goods ship.
	FulfillReservation(ctx context.Context, productID id.ID, qty types.Quantity) error

	// AddOnHand increases on_hand, creating the balance row if absent.
	AddOnHand(ctx context.Context, productID id.ID, qty types.Quantity) error

	// RemoveOnHand decreases on_hand only while the unreserved remainder
	// covers qty. Zero rows affected means the write-off would cut into
	// reserved stock.
	RemoveOnHand(ctx context.Context, productID id.ID, qty types.Quantity) error
}
