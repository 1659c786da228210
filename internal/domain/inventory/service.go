package inventory

import (
	"context"

	"craftflow/internal/core/apperror"
	"craftflow/internal/core/id"
	"craftflow/internal/core/types"
	"craftflow/pkg/logger"
)

// Service provides balance queries and manual stock operations.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Get returns the product balance, zero when untracked.
func (s *Service) Get(ctx context.Context, productID id.ID) (Balance, error) {
	return s.repo.Get(ctx, productID)
}

// List returns balances for the given products.
func (s *Service) List(ctx context.Context, productIDs []id.ID) ([]Balance, error) {
	return s.repo.List(ctx, productIDs)
}

// Receive adds finished goods to stock outside the production flow, for
// example an opening balance or a returned shipment.
func (s *Service) Receive(ctx context.Context, productID id.ID, qty types.Quantity) error {
	if !qty.IsPositive() {
		return apperror.NewValidation("received quantity must be positive")
	}
	if err := s.repo.AddOnHand(ctx, productID, qty); err != nil {
		return err
	}
	logger.Info(ctx, "product stock received", "product_id", productID, "quantity", qty)
	return nil
}

// Adjust corrects on_hand by a signed delta, for example after a physical
// count. A negative delta never cuts into reserved stock.
func (s *Service) Adjust(ctx context.Context, productID id.ID, delta types.Quantity) error {
	switch {
	case delta.IsZero():
		return apperror.NewValidation("adjustment delta must be non-zero")
	case delta.IsPositive():
		if err := s.repo.AddOnHand(ctx, productID, delta); err != nil {
			return err
		}
	default:
		if err := s.repo.RemoveOnHand(ctx, productID, delta.Abs()); err != nil {
			return err
		}
	}
	logger.Info(ctx, "product stock adjusted", "product_id", productID, "delta", delta)
	return nil
}
