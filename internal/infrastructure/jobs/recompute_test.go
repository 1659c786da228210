package jobs

import (
	"context"
	"testing"

	"craftflow/internal/core/apperror"
	"craftflow/internal/core/id"
	"craftflow/internal/core/types"
	"craftflow/internal/domain/inventory"
	"craftflow/internal/domain/materials"
	"craftflow/internal/domain/orders"
	"craftflow/internal/domain/recipes"
)

// --- fakes ---

type sweepOrders struct {
	orders   map[id.ID]*orders.Order
	timeline []orders.TimelineEntry
}

func newSweepOrders() *sweepOrders {
	return &sweepOrders{orders: make(map[id.ID]*orders.Order)}
}

func (s *sweepOrders) Create(ctx context.Context, order *orders.Order) error {
	s.orders[order.ID] = order
	return nil
}
func (s *sweepOrders) GetByID(ctx context.Context, orderID id.ID) (*orders.Order, error) {
	o, ok := s.orders[orderID]
	if !ok {
		return nil, apperror.NewNotFound("order", orderID.String())
	}
	return o, nil
}
func (s *sweepOrders) GetByChannelRef(ctx context.Context, ref string) (*orders.Order, error) {
	return nil, apperror.NewNotFound("order", ref)
}
func (s *sweepOrders) ListByFlowStatus(ctx context.Context, statuses []orders.FlowStatus) ([]*orders.Order, error) {
	return nil, nil
}
func (s *sweepOrders) ListActive(ctx context.Context) ([]*orders.Order, error) {
	var result []*orders.Order
	for _, o := range s.orders {
		if !o.FlowStatus.IsTerminal() {
			result = append(result, o)
		}
	}
	return result, nil
}
func (s *sweepOrders) GetLines(ctx context.Context, orderID id.ID) ([]*orders.Line, error) {
	o, err := s.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return o.Lines, nil
}
func (s *sweepOrders) GetLine(ctx context.Context, lineID id.ID) (*orders.Line, error) {
	return nil, apperror.NewNotFound("order line", lineID.String())
}
func (s *sweepOrders) DecideLine(ctx context.Context, lineID id.ID, ft orders.FulfillmentType, fs orders.FulfillmentStatus, note string) error {
	return nil
}
func (s *sweepOrders) UpdateLineStatus(ctx context.Context, lineID id.ID, fs orders.FulfillmentStatus, note string) error {
	return nil
}
func (s *sweepOrders) SetFlowStatus(ctx context.Context, orderID id.ID, status orders.FlowStatus) (bool, error) {
	o, err := s.GetByID(ctx, orderID)
	if err != nil {
		return false, err
	}
	if o.FlowStatus == status {
		return false, nil
	}
	o.FlowStatus = status
	return true, nil
}
func (s *sweepOrders) AppendTimeline(ctx context.Context, entry orders.TimelineEntry) error {
	s.timeline = append(s.timeline, entry)
	return nil
}
func (s *sweepOrders) GetTimeline(ctx context.Context, orderID id.ID) ([]orders.TimelineEntry, error) {
	return nil, nil
}

type zeroBalances struct{}

func (zeroBalances) Get(ctx context.Context, productID id.ID) (inventory.Balance, error) {
	return inventory.Balance{ProductID: productID}, nil
}
func (zeroBalances) List(ctx context.Context, productIDs []id.ID) ([]inventory.Balance, error) {
	return nil, nil
}
func (zeroBalances) Reserve(ctx context.Context, productID id.ID, qty types.Quantity) error {
	return nil
}
func (zeroBalances) ReleaseReservation(ctx context.Context, productID id.ID, qty types.Quantity) error {
	return nil
}
func (zeroBalances) FulfillReservation(ctx context.Context, productID id.ID, qty types.Quantity) error {
	return nil
}
func (zeroBalances) AddOnHand(ctx context.Context, productID id.ID, qty types.Quantity) error {
	return nil
}
func (zeroBalances) RemoveOnHand(ctx context.Context, productID id.ID, qty types.Quantity) error {
	return nil
}

type noRecipes struct{}

func (noRecipes) Create(ctx context.Context, r *recipes.Recipe) error { return nil }
func (noRecipes) GetByID(ctx context.Context, recipeID id.ID) (*recipes.Recipe, error) {
	return nil, apperror.NewNotFound("recipe", recipeID.String())
}
func (noRecipes) GetActiveByProduct(ctx context.Context, productID id.ID) (*recipes.Recipe, error) {
	return nil, apperror.NewNotFound("recipe", productID.String())
}
func (noRecipes) SetDeletionMark(ctx context.Context, recipeID id.ID, marked bool) error { return nil }
func (noRecipes) ListByProducts(ctx context.Context, productIDs []id.ID) (map[id.ID]*recipes.Recipe, error) {
	return nil, nil
}

type noLots struct{}

func (noLots) CreateLot(ctx context.Context, lot *materials.Lot) error { return nil }
func (noLots) GetLot(ctx context.Context, lotID id.ID) (*materials.Lot, error) {
	return nil, apperror.NewNotFound("material lot", lotID.String())
}
func (noLots) ListAvailableLots(ctx context.Context, definitionID id.ID) ([]*materials.Lot, error) {
	return nil, nil
}
func (noLots) SumRemaining(ctx context.Context, definitionID id.ID, warehouseID *id.ID) (types.Quantity, error) {
	return 0, nil
}
func (noLots) DebitLot(ctx context.Context, lotID id.ID, qty types.Quantity) error  { return nil }
func (noLots) CreditLot(ctx context.Context, lotID id.ID, qty types.Quantity) error { return nil }
func (noLots) CreateMovements(ctx context.Context, movements []materials.Movement) error {
	return nil
}
func (noLots) ListMovements(ctx context.Context, filter materials.MovementFilter) ([]materials.Movement, error) {
	return nil, nil
}
func (noLots) LatestLotByDefinition(ctx context.Context, definitionID id.ID) (*materials.Lot, error) {
	return nil, apperror.NewNotFound("material lot", definitionID.String())
}

type noTasks struct{}

func (noTasks) LineTaskStatus(ctx context.Context, lineID id.ID) (string, bool, error) {
	return "", false, nil
}

// --- tests ---

func TestSweep_AdvancesStaleOrders(t *testing.T) {
	repo := newSweepOrders()
	resolver := materials.NewAvailabilityResolver(noLots{})
	aggregator := orders.NewStatusAggregator(repo, zeroBalances{}, noRecipes{}, resolver, noTasks{})
	job := NewRecomputeJob(nil, repo, aggregator)

	// The line shipped but nothing recomputed the order since.
	stale := orders.NewOrder("1001", "", "")
	line := stale.AddLine(id.New(), types.NewQuantityFromInt(1))
	line.FulfillmentType = orders.TypeReadyStock
	line.FulfillmentStatus = orders.StatusShipped
	stale.FlowStatus = orders.FlowReadyToShip
	repo.orders[stale.ID] = stale

	done := orders.NewOrder("1002", "", "")
	done.AddLine(id.New(), types.NewQuantityFromInt(1))
	done.FlowStatus = orders.FlowShipped
	repo.orders[done.ID] = done

	if err := job.sweep(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if stale.FlowStatus != orders.FlowShipped {
		t.Errorf("stale order: got %s, want %s", stale.FlowStatus, orders.FlowShipped)
	}
	if len(repo.timeline) != 1 {
		t.Errorf("timeline entries: got %d, want 1", len(repo.timeline))
	}
}

func TestSweep_KeepsUpToDateOrdersQuiet(t *testing.T) {
	repo := newSweepOrders()
	resolver := materials.NewAvailabilityResolver(noLots{})
	aggregator := orders.NewStatusAggregator(repo, zeroBalances{}, noRecipes{}, resolver, noTasks{})
	job := NewRecomputeJob(nil, repo, aggregator)

	current := orders.NewOrder("1003", "", "")
	line := current.AddLine(id.New(), types.NewQuantityFromInt(1))
	line.FulfillmentType = orders.TypeReadyStock
	line.FulfillmentStatus = orders.StatusShipped
	current.FlowStatus = orders.FlowShipped
	repo.orders[current.ID] = current

	if err := job.sweep(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repo.timeline) != 0 {
		t.Errorf("timeline entries: got %d, want 0", len(repo.timeline))
	}
}