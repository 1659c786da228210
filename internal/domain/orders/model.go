// Package orders holds sales orders, their lines, fulfillment decisions,
// and the order status lifecycle.
package orders

import (
	"context"
	"strings"
	"time"

	"craftflow/internal/core/apperror"
	"craftflow/internal/core/entity"
	"craftflow/internal/core/id"
	"craftflow/internal/core/types"
)

// FulfillmentType is the decided scenario for one order line.
// PENDING means not yet decided; any other value is final for the line.
type FulfillmentType string

const (
	TypePending         FulfillmentType = "PENDING"
	TypeReadyStock      FulfillmentType = "READY_STOCK"
	TypeProduceOnDemand FulfillmentType = "PRODUCE_ON_DEMAND"
	TypeExternal        FulfillmentType = "EXTERNAL"
)

// FulfillmentStatus is the stored per-line execution state.
type FulfillmentStatus string

const (
	StatusPlanned      FulfillmentStatus = "planned"
	StatusInProduction FulfillmentStatus = "in_production"
	StatusReady        FulfillmentStatus = "ready"
	StatusShipped      FulfillmentStatus = "shipped"
	StatusCancelled    FulfillmentStatus = "cancelled"
)

// LineStatus is the derived operational status of one line. It is computed
// live from stock and material checks, never stored.
type LineStatus string

const (
	LinePending              LineStatus = "PENDING"
	LineWaitingForMaterials  LineStatus = "WAITING_FOR_MATERIALS"
	LineWaitingForProduction LineStatus = "WAITING_FOR_PRODUCTION"
	LineInProduction         LineStatus = "IN_PRODUCTION"
	LineReadyToShip          LineStatus = "READY_TO_SHIP"
	LineShipped              LineStatus = "SHIPPED"
	LineDone                 LineStatus = "DONE"
	LineBlocked              LineStatus = "BLOCKED"
)

// FlowStatus is the order-level lifecycle stage. It advances forward or
// jumps to CANCELLED; terminal statuses are never overwritten by recompute.
type FlowStatus string

const (
	FlowNew            FlowStatus = "NEW"
	FlowNeedMaterials  FlowStatus = "NEED_MATERIALS"
	FlowNeedProduction FlowStatus = "NEED_PRODUCTION"
	FlowInProduction   FlowStatus = "IN_PRODUCTION"
	FlowReadyToShip    FlowStatus = "READY_TO_SHIP"
	FlowShipped        FlowStatus = "SHIPPED"
	FlowDone           FlowStatus = "DONE"
	FlowCancelled      FlowStatus = "CANCELLED"
)

// IsTerminal reports whether the status ends the order lifecycle.
func (s FlowStatus) IsTerminal() bool {
	return s == FlowShipped || s == FlowDone || s == FlowCancelled
}

// Order is a sales order imported from a channel or entered manually.
type Order struct {
	entity.BaseDocument

	Number string `db:"number" json:"number"`

	// ChannelRef is the order's identifier in the external sales channel,
	// empty for manually entered orders
	ChannelRef string `db:"channel_ref" json:"channelRef,omitempty"`

	Customer string `db:"customer" json:"customer,omitempty"`

	FlowStatus FlowStatus `db:"flow_status" json:"flowStatus"`

	Lines []*Line `db:"-" json:"lines,omitempty"`
}

// NewOrder creates an order in the NEW flow status.
func NewOrder(number, channelRef, customer string) *Order {
	return &Order{
		BaseDocument: entity.NewBaseDocument(),
		Number:       strings.TrimSpace(number),
		ChannelRef:   strings.TrimSpace(channelRef),
		Customer:     strings.TrimSpace(customer),
		FlowStatus:   FlowNew,
	}
}

// AddLine appends an undecided line for a product.
func (o *Order) AddLine(productID id.ID, qty types.Quantity) *Line {
	line := &Line{
		ID:                id.New(),
		OrderID:           o.ID,
		ProductID:         productID,
		Quantity:          qty,
		FulfillmentType:   TypePending,
		FulfillmentStatus: StatusPlanned,
	}
	o.Lines = append(o.Lines, line)
	return line
}

// Validate implements entity.Validatable.
func (o *Order) Validate(ctx context.Context) error {
	if o.Number == "" {
		return apperror.NewValidation("order number is required").
			WithDetail("field", "number")
	}
	if len(o.Lines) == 0 {
		return apperror.NewValidation("order must have at least one line")
	}
	for i, line := range o.Lines {
		if id.IsNil(line.ProductID) {
			return apperror.NewValidation("line product is required").
				WithDetail("line", i)
		}
		if !line.Quantity.IsPositive() {
			return apperror.NewValidation("line quantity must be positive").
				WithDetail("line", i)
		}
	}
	return nil
}

// Line is one (product, quantity) position of an order.
type Line struct {
	ID        id.ID `db:"id" json:"id"`
	OrderID   id.ID `db:"order_id" json:"orderId"`
	ProductID id.ID `db:"product_id" json:"productId"`

	Quantity types.Quantity `db:"quantity" json:"quantity"`

	FulfillmentType   FulfillmentType   `db:"fulfillment_type" json:"fulfillmentType"`
	FulfillmentStatus FulfillmentStatus `db:"fulfillment_status" json:"fulfillmentStatus"`

	// ChannelFulfilled marks lines the sales channel ships itself
	ChannelFulfilled bool `db:"channel_fulfilled" json:"channelFulfilled"`

	// Note carries the human-readable reason when the line is blocked
	Note string `db:"note" json:"note,omitempty"`
}

// Decided reports whether the line's scenario has been settled.
func (l *Line) Decided() bool {
	return l.FulfillmentType != TypePending
}

// TimelineEntry is one append-only record of an order status transition.
type TimelineEntry struct {
	ID      id.ID      `db:"id" json:"id"`
	OrderID id.ID      `db:"order_id" json:"orderId"`
	Status  FlowStatus `db:"status" json:"status"`
	Reason  string     `db:"reason" json:"reason"`
	At      time.Time  `db:"at" json:"at"`
}
