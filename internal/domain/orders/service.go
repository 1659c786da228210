package orders

import (
	"context"
	"fmt"
	"time"

	"craftflow/internal/core/id"
	"craftflow/internal/core/tx"
	"craftflow/pkg/logger"
)

// Service provides order persistence operations. Fulfillment decisions
// live in the fulfillment package, not here.
type Service struct {
	repo      Repository
	txManager tx.Manager
}

func NewService(repo Repository, txManager tx.Manager) *Service {
	return &Service{
		repo:      repo,
		txManager: txManager,
	}
}

// Create stores a new order with its lines and opens the timeline.
func (s *Service) Create(ctx context.Context, order *Order) error {
	if err := order.Validate(ctx); err != nil {
		return err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, order); err != nil {
			return fmt.Errorf("create order: %w", err)
		}
		entry := TimelineEntry{
			ID:      id.New(),
			OrderID: order.ID,
			Status:  FlowNew,
			Reason:  "order created",
			At:      time.Now().UTC(),
		}
		return s.repo.AppendTimeline(ctx, entry)
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "order created",
		"order_id", order.ID,
		"number", order.Number,
		"lines", len(order.Lines),
	)
	return nil
}

// GetByID returns the order with its lines loaded.
func (s *Service) GetByID(ctx context.Context, orderID id.ID) (*Order, error) {
	order, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	lines, err := s.repo.GetLines(ctx, orderID)
	if err != nil {
		return nil, err
	}
	order.Lines = lines
	return order, nil
}

// GetByChannelRef finds an imported order by its channel identifier.
func (s *Service) GetByChannelRef(ctx context.Context, channelRef string) (*Order, error) {
	return s.repo.GetByChannelRef(ctx, channelRef)
}

// ListActive returns all orders still moving through the lifecycle.
func (s *Service) ListActive(ctx context.Context) ([]*Order, error) {
	return s.repo.ListActive(ctx)
}

// GetTimeline returns the order's status history, oldest first.
func (s *Service) GetTimeline(ctx context.Context, orderID id.ID) ([]TimelineEntry, error) {
	return s.repo.GetTimeline(ctx, orderID)
}
