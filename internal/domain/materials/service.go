package materials

import (
	"context"
	"fmt"
	"time"

	"craftflow/internal/core/apperror"
	"craftflow/internal/core/id"
	"craftflow/internal/core/tx"
	"craftflow/internal/core/types"
	"craftflow/pkg/logger"
)

// Service provides intake and manual correction operations for lots.
// All quantity changes go through the movement ledger.
type Service struct {
	lots      LotRepository
	txManager tx.Manager
}

// NewService creates a new materials service.
func NewService(lots LotRepository, txManager tx.Manager) *Service {
	return &Service{
		lots:      lots,
		txManager: txManager,
	}
}

// ReceiveLot records a delivered batch: creates the lot and its opening
// "received" movement in one transaction.
func (s *Service) ReceiveLot(ctx context.Context, lot *Lot) error {
	if err := lot.Validate(ctx); err != nil {
		return err
	}
	if lot.ReceivedAt.IsZero() {
		lot.ReceivedAt = time.Now().UTC()
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.lots.CreateLot(ctx, lot); err != nil {
			return fmt.Errorf("create lot: %w", err)
		}
		opening := NewMovement(lot, lot.Received, ReasonReceived, nil)
		if err := s.lots.CreateMovements(ctx, []Movement{opening}); err != nil {
			return fmt.Errorf("record receipt movement: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "material lot received",
		"lot_id", lot.ID,
		"definition_id", lot.DefinitionID,
		"warehouse_id", lot.WarehouseID,
		"quantity", lot.Received,
	)
	return nil
}

// Adjust applies a signed manual correction to a lot. Positive quantities
// add stock (inventory count found more), negative quantities remove it.
// A negative adjustment larger than the lot's remaining quantity is refused.
func (s *Service) Adjust(ctx context.Context, lotID id.ID, qty types.Quantity, reason MovementReason) error {
	if qty.IsZero() {
		return apperror.NewValidation("adjustment quantity must not be zero")
	}
	if reason != ReasonAdjustment && reason != ReasonWriteOff {
		return apperror.NewValidation("unsupported adjustment reason").
			WithDetail("reason", string(reason))
	}
	if reason == ReasonWriteOff && qty.IsPositive() {
		return apperror.NewValidation("write-off quantity must be negative")
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		lot, err := s.lots.GetLot(ctx, lotID)
		if err != nil {
			return err
		}

		if qty.IsNegative() {
			if err := s.lots.DebitLot(ctx, lotID, qty.Abs()); err != nil {
				return err
			}
		} else {
			if err := s.lots.CreditLot(ctx, lotID, qty); err != nil {
				return err
			}
		}

		mv := NewMovement(lot, qty, reason, nil)
		if err := s.lots.CreateMovements(ctx, []Movement{mv}); err != nil {
			return fmt.Errorf("record adjustment movement: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "material lot adjusted",
		"lot_id", lotID,
		"quantity", qty,
		"reason", reason,
	)
	return nil
}

// GetLot retrieves a lot by id.
func (s *Service) GetLot(ctx context.Context, lotID id.ID) (*Lot, error) {
	return s.lots.GetLot(ctx, lotID)
}

// ListMovements reads the movement ledger.
func (s *Service) ListMovements(ctx context.Context, filter MovementFilter) ([]Movement, error) {
	if filter.Limit <= 0 || filter.Limit > 1000 {
		filter.Limit = 100
	}
	return s.lots.ListMovements(ctx, filter)
}
