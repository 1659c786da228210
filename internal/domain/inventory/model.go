// Package inventory tracks finished-product balances and reservations.
package inventory

import (
	"time"

	"craftflow/internal/core/id"
	"craftflow/internal/core/types"
)

// Balance is the on-hand and reserved quantity of one product.
// Invariant: 0 <= Reserved <= OnHand.
type Balance struct {
	ProductID id.ID          `db:"product_id" json:"productId"`
	OnHand    types.Quantity `db:"on_hand" json:"onHand"`
	Reserved  types.Quantity `db:"reserved" json:"reserved"`
	UpdatedAt time.Time      `db:"updated_at" json:"updatedAt"`
}

// Available is the quantity free for new commitments.
func (b Balance) Available() types.Quantity {
	return b.OnHand - b.Reserved
}
