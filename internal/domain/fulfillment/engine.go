// Package fulfillment drives the decision pass over newly ingested orders.
package fulfillment

import (
	"context"

	"craftflow/internal/core/apperror"
	"craftflow/internal/core/id"
	"craftflow/internal/core/tx"
	"craftflow/internal/domain/inventory"
	"craftflow/internal/domain/orders"
	"craftflow/internal/domain/production"
	"craftflow/pkg/logger"
)

// Result counts the outcome of one order pass.
type Result struct {
	Decided int `json:"decided"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// Engine decides and applies a fulfillment scenario for every undecided
// line of an order, exactly once per line.
type Engine struct {
	orders       orders.Repository
	balances     inventory.Repository
	orchestrator *production.Orchestrator
	aggregator   *orders.StatusAggregator
	txManager    tx.Manager
}

func NewEngine(
	ordersRepo orders.Repository,
	balances inventory.Repository,
	orchestrator *production.Orchestrator,
	aggregator *orders.StatusAggregator,
	txManager tx.Manager,
) *Engine {
	return &Engine{
		orders:       ordersRepo,
		balances:     balances,
		orchestrator: orchestrator,
		aggregator:   aggregator,
		txManager:    txManager,
	}
}

// ProcessOrder runs decide+apply over the order's lines sequentially.
// Already-decided lines are never re-decided, only recounted as skipped;
// the status recompute at the end re-evaluates them. One line's failure
// does not abort its siblings.
func (e *Engine) ProcessOrder(ctx context.Context, orderID id.ID) (Result, error) {
	lines, err := e.orders.GetLines(ctx, orderID)
	if err != nil {
		return Result{}, err
	}

	var result Result
	for _, line := range lines {
		if line.Decided() {
			result.Skipped++
			continue
		}

		decision, err := e.orchestrator.DecideFulfillmentScenario(ctx, line)
		if err != nil {
			result.Failed++
			logger.Error(ctx, "line decision failed",
				"line_id", line.ID, "error", err)
			continue
		}
		err = e.orchestrator.ApplyFulfillmentScenario(ctx, line, decision)
		if apperror.IsConcurrentModification(err) {
			// Stock moved between decide and apply. One fresh decision
			// either lands on another scenario or reports the shortage.
			logger.Warn(ctx, "stock moved during apply, re-deciding line",
				"line_id", line.ID)
			err = e.redecideLine(ctx, line)
		}
		if err != nil {
			if apperror.IsLineAlreadyDecided(err) {
				result.Skipped++
				continue
			}
			result.Failed++
			logger.Error(ctx, "line scenario apply failed",
				"line_id", line.ID, "error", err)
			continue
		}
		result.Decided++
	}

	if _, err := e.aggregator.RecomputeOrder(ctx, orderID); err != nil {
		return result, err
	}

	logger.Info(ctx, "order processed",
		"order_id", orderID,
		"decided", result.Decided,
		"skipped", result.Skipped,
		"failed", result.Failed,
	)
	return result, nil
}

func (e *Engine) redecideLine(ctx context.Context, line *orders.Line) error {
	decision, err := e.orchestrator.DecideFulfillmentScenario(ctx, line)
	if err != nil {
		return err
	}
	return e.orchestrator.ApplyFulfillmentScenario(ctx, line, decision)
}

// ShipLine ships a ready line: the reservation is fulfilled, stock drops,
// and the order status is recomputed.
func (e *Engine) ShipLine(ctx context.Context, lineID id.ID) error {
	line, err := e.orders.GetLine(ctx, lineID)
	if err != nil {
		return err
	}
	if line.FulfillmentStatus != orders.StatusReady {
		return apperror.NewBusinessRule("LINE_NOT_READY", "only ready lines can ship").
			WithDetail("line_id", lineID.String()).
			WithDetail("status", string(line.FulfillmentStatus))
	}

	err = e.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := e.balances.FulfillReservation(ctx, line.ProductID, line.Quantity); err != nil {
			return err
		}
		return e.orders.UpdateLineStatus(ctx, lineID, orders.StatusShipped, "")
	})
	if err != nil {
		return err
	}

	if _, err := e.aggregator.RecomputeOrder(ctx, line.OrderID); err != nil {
		return err
	}
	logger.Info(ctx, "line shipped",
		"line_id", lineID,
		"product_id", line.ProductID,
		"quantity", line.Quantity,
	)
	return nil
}

// CancelLine cancels a not-yet-shipped line and releases its stock
// reservation when one is held. Cancelling twice is a no-op.
func (e *Engine) CancelLine(ctx context.Context, lineID id.ID, reason string) error {
	line, err := e.orders.GetLine(ctx, lineID)
	if err != nil {
		return err
	}
	switch line.FulfillmentStatus {
	case orders.StatusCancelled:
		return nil
	case orders.StatusShipped:
		return apperror.NewBusinessRule("LINE_ALREADY_SHIPPED", "shipped lines cannot be cancelled").
			WithDetail("line_id", lineID.String())
	}
	if reason == "" {
		reason = "cancelled by operator"
	}

	// A ready line holds a reservation whether it was fulfilled from stock
	// or produced; anything earlier in the flow does not touch balances.
	holdsReservation := line.FulfillmentStatus == orders.StatusReady

	err = e.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if holdsReservation {
			if err := e.balances.ReleaseReservation(ctx, line.ProductID, line.Quantity); err != nil {
				return err
			}
		}
		return e.orders.UpdateLineStatus(ctx, lineID, orders.StatusCancelled, reason)
	})
	if err != nil {
		return err
	}

	if _, err := e.aggregator.RecomputeOrder(ctx, line.OrderID); err != nil {
		return err
	}
	logger.Info(ctx, "line cancelled",
		"line_id", lineID,
		"product_id", line.ProductID,
		"reservation_released", holdsReservation,
	)
	return nil
}
