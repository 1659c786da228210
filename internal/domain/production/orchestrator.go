package production

import (
	"context"
	"fmt"
	"time"

	"craftflow/internal/core/apperror"
	"craftflow/internal/core/id"
	"craftflow/internal/core/tx"
	"craftflow/internal/core/types"
	"craftflow/internal/domain/inventory"
	"craftflow/internal/domain/materials"
	"craftflow/internal/domain/orders"
	"craftflow/internal/domain/recipes"
	"craftflow/pkg/logger"
)

// MissingMaterial describes one material that falls short of a line's
// production requirement.
type MissingMaterial struct {
	DefinitionID id.ID          `json:"definitionId"`
	Required     types.Quantity `json:"required"`
	Available    types.Quantity `json:"available"`
	Shortage     types.Quantity `json:"shortage"`
}

// Decision is the outcome of evaluating a fulfillment scenario for one
// order line. It carries no side effects.
type Decision struct {
	Type         orders.FulfillmentType `json:"type"`
	CanFulfill   bool                   `json:"canFulfill"`
	HasMaterials bool                   `json:"hasMaterials"`
	Missing      []MissingMaterial      `json:"missing,omitempty"`
	Reason       string                 `json:"reason,omitempty"`
}

// Orchestrator decides fulfillment scenarios, applies them, and drives
// production tasks through their lifecycle. Material consumption happens
// in two phases: lots are planned when the scenario is applied and
// consumed only when production actually starts.
type Orchestrator struct {
	orders    orders.Repository
	balances  inventory.Repository
	recipes   recipes.Repository
	lots      materials.LotRepository
	resolver  *materials.AvailabilityResolver
	allocator *materials.Allocator
	tasks     TaskRepository
	txManager tx.Manager
}

func NewOrchestrator(
	ordersRepo orders.Repository,
	balances inventory.Repository,
	recipesRepo recipes.Repository,
	lots materials.LotRepository,
	resolver *materials.AvailabilityResolver,
	allocator *materials.Allocator,
	tasks TaskRepository,
	txManager tx.Manager,
) *Orchestrator {
	return &Orchestrator{
		orders:    ordersRepo,
		balances:  balances,
		recipes:   recipesRepo,
		lots:      lots,
		resolver:  resolver,
		allocator: allocator,
		tasks:     tasks,
		txManager: txManager,
	}
}

// DecideFulfillmentScenario evaluates one line without side effects.
//
// Channel-fulfilled lines are EXTERNAL and get no stock or material
// checks. Otherwise finished stock wins over production, and production
// feasibility is judged on total material availability across warehouses.
func (o *Orchestrator) DecideFulfillmentScenario(ctx context.Context, line *orders.Line) (Decision, error) {
	if line.ChannelFulfilled {
		return Decision{
			Type:       orders.TypeExternal,
			CanFulfill: true,
			Reason:     "fulfilled by channel",
		}, nil
	}

	balance, err := o.balances.Get(ctx, line.ProductID)
	if err != nil {
		return Decision{}, err
	}
	if balance.Available() >= line.Quantity {
		return Decision{
			Type:       orders.TypeReadyStock,
			CanFulfill: true,
			Reason:     "available from finished stock",
		}, nil
	}

	recipe, err := o.recipes.GetActiveByProduct(ctx, line.ProductID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return Decision{
				Type:       orders.TypeProduceOnDemand,
				CanFulfill: false,
				Reason:     "no recipe defined for product",
			}, nil
		}
		return Decision{}, err
	}

	decision := Decision{
		Type:         orders.TypeProduceOnDemand,
		CanFulfill:   true,
		HasMaterials: true,
	}
	for _, comp := range recipe.Components {
		required := comp.QtyPerUnit.Mul(line.Quantity)
		available, err := o.resolver.Available(ctx, comp.DefinitionID, nil)
		if err != nil {
			return Decision{}, err
		}
		if available < required {
			decision.Missing = append(decision.Missing, MissingMaterial{
				DefinitionID: comp.DefinitionID,
				Required:     required,
				Available:    available,
				Shortage:     required - available,
			})
		}
	}
	if len(decision.Missing) > 0 {
		decision.CanFulfill = false
		decision.HasMaterials = false
		decision.Reason = fmt.Sprintf("%d material(s) insufficient for production", len(decision.Missing))
	}
	return decision, nil
}

// ApplyFulfillmentScenario commits a decision to a line exactly once.
// The line's PENDING type is the guard: a concurrent pass that decided
// the line first surfaces as a LineAlreadyDecided error and nothing is
// written.
func (o *Orchestrator) ApplyFulfillmentScenario(ctx context.Context, line *orders.Line, decision Decision) error {
	if line.Decided() {
		return apperror.NewLineAlreadyDecided(line.ID.String())
	}

	switch {
	case decision.Type == orders.TypeReadyStock:
		return o.applyReadyStock(ctx, line)

	case decision.Type == orders.TypeProduceOnDemand && decision.CanFulfill:
		return o.applyProduction(ctx, line)

	default:
		// EXTERNAL, short-material production, or no recipe: decide the
		// type and record the reason, no stock or material side effects.
		err := o.orders.DecideLine(ctx, line.ID, decision.Type, orders.StatusPlanned, decision.Reason)
		if err != nil {
			return err
		}
		logger.Info(ctx, "fulfillment scenario applied",
			"line_id", line.ID,
			"type", decision.Type,
			"can_fulfill", decision.CanFulfill,
		)
		return nil
	}
}

func (o *Orchestrator) applyReadyStock(ctx context.Context, line *orders.Line) error {
	err := o.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := o.orders.DecideLine(ctx, line.ID, orders.TypeReadyStock, orders.StatusReady, ""); err != nil {
			return err
		}
		// Availability may have been consumed since the decision was
		// computed. The conditional reserve aborts the whole transaction
		// instead of overselling.
		return o.balances.Reserve(ctx, line.ProductID, line.Quantity)
	})
	if err != nil {
		return err
	}
	logger.Info(ctx, "line reserved from stock",
		"line_id", line.ID,
		"product_id", line.ProductID,
		"quantity", line.Quantity,
	)
	return nil
}

func (o *Orchestrator) applyProduction(ctx context.Context, line *orders.Line) error {
	task := NewTask(line.ProductID, line.Quantity, &line.ID, 0)
	err := o.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := o.orders.DecideLine(ctx, line.ID, orders.TypeProduceOnDemand, orders.StatusPlanned, ""); err != nil {
			return err
		}
		return o.tasks.Create(ctx, task)
	})
	if err != nil {
		return err
	}
	logger.Info(ctx, "production task created",
		"task_id", task.ID,
		"line_id", line.ID,
		"product_id", line.ProductID,
		"quantity", line.Quantity,
	)
	return nil
}

// StartProduction consumes materials and moves the task to in_progress.
//
// Lot allocation is re-planned from scratch here. The plan made when the
// scenario was applied is advisory only: materials may have been consumed
// elsewhere since, so the start is a full re-validation. Any shortage
// aborts the whole transition with no partial movements.
func (o *Orchestrator) StartProduction(ctx context.Context, taskID id.ID) error {
	err := o.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		task, err := o.tasks.GetByID(ctx, taskID)
		if err != nil {
			return err
		}
		if task.Status != TaskPending {
			return apperror.NewBusinessRule("INVALID_TASK_STATUS",
				fmt.Sprintf("task is %s, only pending tasks can start", task.Status))
		}

		recipe, err := o.recipes.GetActiveByProduct(ctx, task.ProductID)
		if err != nil {
			return err
		}

		plans := make([]materials.Plan, 0, len(recipe.Components))
		shortages := make(map[string]float64)
		for _, comp := range recipe.Components {
			required := comp.QtyPerUnit.Mul(task.Quantity)
			plan, err := o.allocator.SelectLots(ctx, comp.DefinitionID, required)
			if err != nil {
				return err
			}
			if !plan.Covered() {
				shortages[comp.DefinitionID.String()] = plan.Shortage.Float64()
				continue
			}
			plans = append(plans, plan)
		}
		if len(shortages) > 0 {
			return apperror.NewInsufficientMaterials(shortages)
		}

		now := time.Now().UTC()
		var movements []materials.Movement
		for _, plan := range plans {
			for _, alloc := range plan.Allocations {
				if err := o.lots.DebitLot(ctx, alloc.LotID, alloc.Quantity); err != nil {
					return err
				}
				movements = append(movements, materials.Movement{
					LineID:       id.New(),
					LotID:        alloc.LotID,
					DefinitionID: plan.DefinitionID,
					WarehouseID:  alloc.WarehouseID,
					Quantity:     alloc.Quantity.Neg(),
					Reason:       materials.ReasonProduction,
					TaskID:       &task.ID,
					CreatedAt:    now,
				})
			}
		}
		if err := o.lots.CreateMovements(ctx, movements); err != nil {
			return fmt.Errorf("record consumption movements: %w", err)
		}

		if err := o.tasks.AdvanceStatus(ctx, taskID, TaskPending, TaskInProgress, now); err != nil {
			return err
		}
		if task.OrderLineID != nil {
			if err := o.orders.UpdateLineStatus(ctx, *task.OrderLineID, orders.StatusInProduction, ""); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	logger.Info(ctx, "production started", "task_id", taskID)
	return nil
}

// CompleteProduction books the produced quantity into finished stock and
// closes the task. A line-linked task reserves its output for the line so
// no other order can take it.
func (o *Orchestrator) CompleteProduction(ctx context.Context, taskID id.ID) error {
	err := o.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		task, err := o.tasks.GetByID(ctx, taskID)
		if err != nil {
			return err
		}
		if task.Status != TaskInProgress {
			return apperror.NewBusinessRule("INVALID_TASK_STATUS",
				fmt.Sprintf("task is %s, only in-progress tasks can complete", task.Status))
		}

		if err := o.balances.AddOnHand(ctx, task.ProductID, task.Quantity); err != nil {
			return err
		}
		if task.OrderLineID != nil {
			if err := o.balances.Reserve(ctx, task.ProductID, task.Quantity); err != nil {
				return err
			}
			if err := o.orders.UpdateLineStatus(ctx, *task.OrderLineID, orders.StatusReady, ""); err != nil {
				return err
			}
		}
		return o.tasks.AdvanceStatus(ctx, taskID, TaskInProgress, TaskCompleted, time.Now().UTC())
	})
	if err != nil {
		return err
	}
	logger.Info(ctx, "production completed", "task_id", taskID)
	return nil
}

// Queue returns the open production queue.
func (o *Orchestrator) Queue(ctx context.Context) ([]*Task, error) {
	return o.tasks.ListQueue(ctx)
}
