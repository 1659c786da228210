package orders

import (
	"context"

	"craftflow/internal/core/id"
)

// Repository persists orders, lines, and the status timeline.
type Repository interface {
	Create(ctx context.Context, order *Order) error
	GetByID(ctx context.Context, orderID id.ID) (*Order, error)

	// GetByChannelRef finds an order previously imported from the channel.
	GetByChannelRef(ctx context.Context, channelRef string) (*Order, error)

	ListByFlowStatus(ctx context.Context, statuses []FlowStatus) ([]*Order, error)

	// ListActive returns orders whose flow status is not terminal.
	ListActive(ctx context.Context) ([]*Order, error)

	GetLines(ctx context.Context, orderID id.ID) ([]*Line, error)
	GetLine(ctx context.Context, lineID id.ID) (*Line, error)

	// DecideLine writes the decided type, status, and note only while the
	// line is still PENDING. Zero rows affected means another pass decided
	// the line first.
	DecideLine(ctx context.Context, lineID id.ID, ft FulfillmentType, fs FulfillmentStatus, note string) error

	UpdateLineStatus(ctx context.Context, lineID id.ID, fs FulfillmentStatus, note string) error

	// SetFlowStatus writes the status only when it differs from the stored
	// one and reports whether a transition happened.
	SetFlowStatus(ctx context.Context, orderID id.ID, status FlowStatus) (bool, error)

	AppendTimeline(ctx context.Context, entry TimelineEntry) error
	GetTimeline(ctx context.Context, orderID id.ID) ([]TimelineEntry, error)
}
