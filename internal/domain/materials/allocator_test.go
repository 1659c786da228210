package materials

import (
	"context"
	"testing"
	"time"

	"craftflow/internal/core/apperror"
	"craftflow/internal/core/id"
	"craftflow/internal/core/types"
)

// fakeLotRepo serves lots in the order they were added, mirroring the
// warehouse-priority-then-age ordering the real repository guarantees.
type fakeLotRepo struct {
	lots      []*Lot
	movements []Movement
}

func (f *fakeLotRepo) CreateLot(ctx context.Context, lot *Lot) error {
	f.lots = append(f.lots, lot)
	return nil
}

func (f *fakeLotRepo) GetLot(ctx context.Context, lotID id.ID) (*Lot, error) {
	for _, l := range f.lots {
		if l.ID == lotID {
			return l, nil
		}
	}
	return nil, apperror.NewNotFound("material lot", lotID.String())
}

func (f *fakeLotRepo) ListAvailableLots(ctx context.Context, definitionID id.ID) ([]*Lot, error) {
	var result []*Lot
	for _, l := range f.lots {
		if l.DefinitionID == definitionID && l.Remaining.IsPositive() {
			result = append(result, l)
		}
	}
	return result, nil
}

func (f *fakeLotRepo) SumRemaining(ctx context.Context, definitionID id.ID, warehouseID *id.ID) (types.Quantity, error) {
	var total types.Quantity
	for _, l := range f.lots {
		if l.DefinitionID != definitionID {
			continue
		}
		if warehouseID != nil && l.WarehouseID != *warehouseID {
			continue
		}
		total += l.Remaining
	}
	return total, nil
}

func (f *fakeLotRepo) DebitLot(ctx context.Context, lotID id.ID, qty types.Quantity) error {
	for _, l := range f.lots {
		if l.ID == lotID {
			if l.Remaining < qty {
				return apperror.NewConcurrentModification("material lot", lotID.String())
			}
			l.Remaining -= qty
			return nil
		}
	}
	return apperror.NewNotFound("material lot", lotID.String())
}

func (f *fakeLotRepo) CreditLot(ctx context.Context, lotID id.ID, qty types.Quantity) error {
	for _, l := range f.lots {
		if l.ID == lotID {
			l.Remaining += qty
			return nil
		}
	}
	return apperror.NewNotFound("material lot", lotID.String())
}

func (f *fakeLotRepo) CreateMovements(ctx context.Context, movements []Movement) error {
	f.movements = append(f.movements, movements...)
	return nil
}

func (f *fakeLotRepo) ListMovements(ctx context.Context, filter MovementFilter) ([]Movement, error) {
	return f.movements, nil
}

func (f *fakeLotRepo) LatestLotByDefinition(ctx context.Context, definitionID id.ID) (*Lot, error) {
	var latest *Lot
	for _, l := range f.lots {
		if l.DefinitionID != definitionID {
			continue
		}
		if latest == nil || l.ReceivedAt.After(latest.ReceivedAt) {
			latest = l
		}
	}
	if latest == nil {
		return nil, apperror.NewNotFound("material lot", definitionID.String())
	}
	return latest, nil
}

func day(n int) time.Time {
	return time.Date(2026, 1, n, 0, 0, 0, 0, time.UTC)
}

func TestAllocator_SelectLots_OldestFirst(t *testing.T) {
	defID := id.New()
	whID := id.New()
	lotA := NewLot(defID, whID, types.NewQuantityFromInt(5), types.NewMoney(10), "", day(1))
	lotB := NewLot(defID, whID, types.NewQuantityFromInt(5), types.NewMoney(10), "", day(2))
	repo := &fakeLotRepo{lots: []*Lot{lotA, lotB}}

	plan, err := NewAllocator(repo).SelectLots(context.Background(), defID, types.NewQuantityFromInt(7))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !plan.Covered() {
		t.Fatalf("expected covered plan, shortage %s", plan.Shortage)
	}
	if len(plan.Allocations) != 2 {
		t.Fatalf("expected 2 allocations, got %d", len(plan.Allocations))
	}
	if plan.Allocations[0].LotID != lotA.ID || plan.Allocations[0].Quantity != types.NewQuantityFromInt(5) {
		t.Errorf("first allocation should drain the older lot: %+v", plan.Allocations[0])
	}
	if plan.Allocations[1].LotID != lotB.ID || plan.Allocations[1].Quantity != types.NewQuantityFromInt(2) {
		t.Errorf("second allocation should take the remainder: %+v", plan.Allocations[1])
	}
	if plan.Allocated() != types.NewQuantityFromInt(7) {
		t.Errorf("allocated total: got %s, want 7", plan.Allocated())
	}
}

func TestAllocator_SelectLots_WarehousePriorityOrder(t *testing.T) {
	defID := id.New()
	home := id.New()
	center := id.New()

	// The repository contract orders lots by warehouse priority first, so
	// the home lot comes first even though it was received later.
	homeLot := NewLot(defID, home, types.NewQuantityFromInt(3), types.NewMoney(10), "", day(5))
	centerLot := NewLot(defID, center, types.NewQuantityFromInt(10), types.NewMoney(10), "", day(1))
	repo := &fakeLotRepo{lots: []*Lot{homeLot, centerLot}}

	plan, err := NewAllocator(repo).SelectLots(context.Background(), defID, types.NewQuantityFromInt(8))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(plan.Allocations) != 2 {
		t.Fatalf("expected 2 allocations, got %d", len(plan.Allocations))
	}
	if plan.Allocations[0].WarehouseID != home {
		t.Errorf("home warehouse should be drained first")
	}
	if plan.Allocations[0].Quantity != types.NewQuantityFromInt(3) {
		t.Errorf("home allocation: got %s, want 3", plan.Allocations[0].Quantity)
	}
	if plan.Allocations[1].Quantity != types.NewQuantityFromInt(5) {
		t.Errorf("center allocation: got %s, want 5", plan.Allocations[1].Quantity)
	}
}

func TestAllocator_SelectLots_Shortage(t *testing.T) {
	defID := id.New()
	lot := NewLot(defID, id.New(), types.NewQuantityFromInt(4), types.NewMoney(10), "", day(1))
	repo := &fakeLotRepo{lots: []*Lot{lot}}

	plan, err := NewAllocator(repo).SelectLots(context.Background(), defID, types.NewQuantityFromInt(10))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if plan.Covered() {
		t.Fatal("plan should not be covered")
	}
	if plan.Shortage != types.NewQuantityFromInt(6) {
		t.Errorf("shortage: got %s, want 6", plan.Shortage)
	}
	if plan.Allocated() != types.NewQuantityFromInt(4) {
		t.Errorf("allocated: got %s, want 4", plan.Allocated())
	}
}

func TestAllocator_SelectLots_ZeroRequired(t *testing.T) {
	repo := &fakeLotRepo{}
	plan, err := NewAllocator(repo).SelectLots(context.Background(), id.New(), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(plan.Allocations) != 0 || !plan.Covered() {
		t.Errorf("zero requirement should produce an empty covered plan: %+v", plan)
	}
}

func TestAvailabilityResolver_UnknownDefinitionIsZero(t *testing.T) {
	resolver := NewAvailabilityResolver(&fakeLotRepo{})

	have, err := resolver.Available(context.Background(), id.New(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !have.IsZero() {
		t.Errorf("unknown definition: got %s, want 0", have)
	}
}

func TestAvailabilityResolver_PerWarehouse(t *testing.T) {
	defID := id.New()
	home := id.New()
	center := id.New()
	repo := &fakeLotRepo{lots: []*Lot{
		NewLot(defID, home, types.NewQuantityFromInt(3), types.NewMoney(10), "", day(1)),
		NewLot(defID, center, types.NewQuantityFromInt(10), types.NewMoney(10), "", day(2)),
	}}
	resolver := NewAvailabilityResolver(repo)

	total, err := resolver.Available(context.Background(), defID, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != types.NewQuantityFromInt(13) {
		t.Errorf("total: got %s, want 13", total)
	}

	homeOnly, err := resolver.Available(context.Background(), defID, &home)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if homeOnly != types.NewQuantityFromInt(3) {
		t.Errorf("home only: got %s, want 3", homeOnly)
	}
}
