package orders

import (
	"context"
	"fmt"
	"time"

	"craftflow/internal/core/apperror"
	"craftflow/internal/core/id"
	"craftflow/internal/domain/inventory"
	"craftflow/internal/domain/materials"
	"craftflow/internal/domain/recipes"
	"craftflow/pkg/logger"
)

// TaskProbe is the narrow view of production tasks the aggregator needs.
// Implemented by the production task repository.
type TaskProbe interface {
	// LineTaskStatus returns the status of the task linked to the line
	// ("pending", "in_progress", "completed") and whether one exists.
	LineTaskStatus(ctx context.Context, lineID id.ID) (string, bool, error)
}

// StatusAggregator derives line statuses from live stock and material
// checks and rolls them up into the order flow status.
type StatusAggregator struct {
	orders    Repository
	balances  inventory.Repository
	recipes   recipes.Repository
	materials *materials.AvailabilityResolver
	tasks     TaskProbe
}

func NewStatusAggregator(
	orders Repository,
	balances inventory.Repository,
	recipes recipes.Repository,
	resolver *materials.AvailabilityResolver,
	tasks TaskProbe,
) *StatusAggregator {
	return &StatusAggregator{
		orders:    orders,
		balances:  balances,
		recipes:   recipes,
		materials: resolver,
		tasks:     tasks,
	}
}

// DeriveLineStatus computes the line's operational status live. It never
// fails on missing reference data: a product without a recipe or balance
// degrades to a blocked or waiting status with a reason, not an error.
func (a *StatusAggregator) DeriveLineStatus(ctx context.Context, line *Line) (LineStatus, string, error) {
	// Terminal states reported by the channel win over any live check.
	switch line.FulfillmentStatus {
	case StatusCancelled:
		return LineBlocked, "cancelled by channel", nil
	case StatusShipped:
		if line.ChannelFulfilled {
			return LineDone, "fulfilled by channel", nil
		}
		return LineShipped, "shipped", nil
	}

	switch line.FulfillmentType {
	case TypeExternal:
		return LinePending, "fulfilled outside this system", nil

	case TypeReadyStock:
		return a.deriveReadyStock(ctx, line)

	case TypeProduceOnDemand:
		return a.deriveProduceOnDemand(ctx, line)

	default:
		return LinePending, "awaiting fulfillment decision", nil
	}
}

func (a *StatusAggregator) deriveReadyStock(ctx context.Context, line *Line) (LineStatus, string, error) {
	balance, err := a.balances.Get(ctx, line.ProductID)
	if err != nil {
		return "", "", err
	}

	// Reserved already counts this line, so the live check is against raw
	// on-hand stock. It only fails when the goods backing the reservation
	// were lost out of band.
	if balance.OnHand >= line.Quantity {
		return LineReadyToShip, "reserved from stock", nil
	}

	// Stock was lost after the decision. Fall back to the material check
	// to tell a material problem from a production backlog.
	short, _, err := a.materialShortages(ctx, line)
	if err != nil {
		return "", "", err
	}
	if short {
		return LineWaitingForMaterials, "stock depleted and materials short", nil
	}
	return LineWaitingForProduction, "stock depleted, production needed", nil
}

func (a *StatusAggregator) deriveProduceOnDemand(ctx context.Context, line *Line) (LineStatus, string, error) {
	balance, err := a.balances.Get(ctx, line.ProductID)
	if err != nil {
		return "", "", err
	}

	effective := balance.Available()
	if line.FulfillmentStatus == StatusReady {
		// Completed production reserved the produced quantity for this line.
		effective += line.Quantity
	}
	if effective >= line.Quantity {
		return LineReadyToShip, "finished stock covers the line", nil
	}

	// Running production already consumed its materials, so the shortage
	// check only applies to lines still waiting to start.
	taskStatus, found, err := a.tasks.LineTaskStatus(ctx, line.ID)
	if err != nil {
		return "", "", err
	}
	if (found && taskStatus == "in_progress") || line.FulfillmentStatus == StatusInProduction {
		return LineInProduction, "production in progress", nil
	}

	short, missing, err := a.materialShortages(ctx, line)
	if err != nil {
		return "", "", err
	}
	if missing != "" {
		return LineBlocked, missing, nil
	}
	if short {
		return LineWaitingForMaterials, "insufficient materials for production", nil
	}
	return LineWaitingForProduction, "queued for production", nil
}

// materialShortages checks whether the line's recipe requirements are
// covered by current material availability. The second return value is a
// non-empty reason when the check cannot run at all (no recipe).
func (a *StatusAggregator) materialShortages(ctx context.Context, line *Line) (bool, string, error) {
	recipe, err := a.recipes.GetActiveByProduct(ctx, line.ProductID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return false, "no recipe defined for product", nil
		}
		return false, "", err
	}

	for _, comp := range recipe.Components {
		required := comp.QtyPerUnit.Mul(line.Quantity)
		have, err := a.materials.Available(ctx, comp.DefinitionID, nil)
		if err != nil {
			return false, "", err
		}
		if have < required {
			return true, "", nil
		}
	}
	return false, "", nil
}

// linePriority orders statuses worst-first for order aggregation.
var linePriority = map[LineStatus]int{
	LineWaitingForMaterials:  5,
	LineWaitingForProduction: 4,
	LineInProduction:         3,
	LineReadyToShip:          2,
	LinePending:              1,
}

var lineToFlow = map[LineStatus]FlowStatus{
	LineWaitingForMaterials:  FlowNeedMaterials,
	LineWaitingForProduction: FlowNeedProduction,
	LineInProduction:         FlowInProduction,
	LineReadyToShip:          FlowReadyToShip,
	LinePending:              FlowNew,
}

// RecomputeOrder derives every line status, aggregates the worst case into
// the order flow status, and appends a timeline entry when the status
// actually changed. Terminal flow statuses are left untouched.
func (a *StatusAggregator) RecomputeOrder(ctx context.Context, orderID id.ID) (FlowStatus, error) {
	order, err := a.orders.GetByID(ctx, orderID)
	if err != nil {
		return "", err
	}
	if order.FlowStatus.IsTerminal() {
		return order.FlowStatus, nil
	}

	lines, err := a.orders.GetLines(ctx, orderID)
	if err != nil {
		return "", err
	}

	statuses := make([]LineStatus, 0, len(lines))
	for _, line := range lines {
		status, _, err := a.DeriveLineStatus(ctx, line)
		if err != nil {
			return "", err
		}
		statuses = append(statuses, status)
	}

	next, reason := aggregate(statuses)
	changed, err := a.orders.SetFlowStatus(ctx, orderID, next)
	if err != nil {
		return "", err
	}
	if changed {
		entry := TimelineEntry{
			ID:      id.New(),
			OrderID: orderID,
			Status:  next,
			Reason:  reason,
			At:      time.Now().UTC(),
		}
		if err := a.orders.AppendTimeline(ctx, entry); err != nil {
			return "", err
		}
		logger.Info(ctx, "order flow status changed",
			"order_id", orderID,
			"status", next,
			"reason", reason,
		)
	}
	return next, nil
}

// aggregate picks the worst active line status and maps it to a flow
// status. Orders with no active lines collapse to a terminal status.
func aggregate(statuses []LineStatus) (FlowStatus, string) {
	var (
		worst       LineStatus
		worstRank   int
		worstCount  int
		activeCount int
		shipped     int
		done        int
		blocked     int
	)
	for _, s := range statuses {
		switch s {
		case LineShipped:
			shipped++
			continue
		case LineDone:
			done++
			continue
		case LineBlocked:
			blocked++
			continue
		}
		activeCount++
		if rank := linePriority[s]; rank > worstRank {
			worst, worstRank, worstCount = s, rank, 1
		} else if s == worst {
			worstCount++
		}
	}

	if len(statuses) == 0 {
		return FlowNew, "no lines"
	}

	if activeCount == 0 {
		switch {
		case blocked == len(statuses):
			return FlowCancelled, "all lines cancelled"
		case shipped > 0:
			return FlowShipped, "all lines shipped"
		default:
			return FlowDone, "all lines fulfilled"
		}
	}

	flow := lineToFlow[worst]
	return flow, aggregateReason(worst, worstCount, activeCount)
}

func aggregateReason(worst LineStatus, count, active int) string {
	var what string
	switch worst {
	case LineWaitingForMaterials:
		what = "waiting for materials"
	case LineWaitingForProduction:
		what = "waiting for production"
	case LineInProduction:
		what = "in production"
	case LineReadyToShip:
		what = "ready to ship"
	default:
		what = "awaiting decision"
	}
	if count == active {
		return fmt.Sprintf("all %d active lines %s", active, what)
	}
	return fmt.Sprintf("%d of %d active lines %s", count, active, what)
}
