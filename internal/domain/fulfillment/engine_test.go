package fulfillment

import (
	"context"
	"testing"
	"time"

	"craftflow/internal/core/apperror"
	"craftflow/internal/core/id"
	"craftflow/internal/core/types"
	"craftflow/internal/domain/inventory"
	"craftflow/internal/domain/materials"
	"craftflow/internal/domain/orders"
	"craftflow/internal/domain/production"
	"craftflow/internal/domain/recipes"
)

// --- fakes ---

// rollbackTx mimics transactional semantics over the in-memory fakes:
// line and balance mutations made inside a failed fn are undone.
type rollbackTx struct {
	orders   *memOrders
	balances *memBalances
}

func (r rollbackTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	lineSnap := make(map[id.ID]orders.Line)
	for _, o := range r.orders.orders {
		for _, l := range o.Lines {
			lineSnap[l.ID] = *l
		}
	}
	balSnap := make(map[id.ID]inventory.Balance)
	for k, b := range r.balances.balances {
		balSnap[k] = *b
	}

	err := fn(ctx)
	if err != nil {
		for _, o := range r.orders.orders {
			for _, l := range o.Lines {
				if snap, ok := lineSnap[l.ID]; ok {
					*l = snap
				}
			}
		}
		for k, b := range r.balances.balances {
			if snap, ok := balSnap[k]; ok {
				*b = snap
			}
		}
	}
	return err
}

type memOrders struct {
	orders   map[id.ID]*orders.Order
	timeline []orders.TimelineEntry
}

func newMemOrders() *memOrders { return &memOrders{orders: make(map[id.ID]*orders.Order)} }

func (m *memOrders) Create(ctx context.Context, order *orders.Order) error {
	m.orders[order.ID] = order
	return nil
}
func (m *memOrders) GetByID(ctx context.Context, orderID id.ID) (*orders.Order, error) {
	o, ok := m.orders[orderID]
	if !ok {
		return nil, apperror.NewNotFound("order", orderID.String())
	}
	return o, nil
}
func (m *memOrders) GetByChannelRef(ctx context.Context, ref string) (*orders.Order, error) {
	for _, o := range m.orders {
		if o.ChannelRef == ref {
			return o, nil
		}
	}
	return nil, apperror.NewNotFound("order", ref)
}
func (m *memOrders) ListByFlowStatus(ctx context.Context, statuses []orders.FlowStatus) ([]*orders.Order, error) {
	var result []*orders.Order
	for _, o := range m.orders {
		for _, s := range statuses {
			if o.FlowStatus == s {
				result = append(result, o)
				break
			}
		}
	}
	return result, nil
}
func (m *memOrders) ListActive(ctx context.Context) ([]*orders.Order, error) {
	var result []*orders.Order
	for _, o := range m.orders {
		if !o.FlowStatus.IsTerminal() {
			result = append(result, o)
		}
	}
	return result, nil
}
func (m *memOrders) GetLines(ctx context.Context, orderID id.ID) ([]*orders.Line, error) {
	o, ok := m.orders[orderID]
	if !ok {
		return nil, apperror.NewNotFound("order", orderID.String())
	}
	return o.Lines, nil
}
func (m *memOrders) GetLine(ctx context.Context, lineID id.ID) (*orders.Line, error) {
	for _, o := range m.orders {
		for _, l := range o.Lines {
			if l.ID == lineID {
				return l, nil
			}
		}
	}
	return nil, apperror.NewNotFound("order line", lineID.String())
}
func (m *memOrders) DecideLine(ctx context.Context, lineID id.ID, ft orders.FulfillmentType, fs orders.FulfillmentStatus, note string) error {
	l, err := m.GetLine(ctx, lineID)
	if err != nil {
		return err
	}
	if l.FulfillmentType != orders.TypePending {
		return apperror.NewLineAlreadyDecided(lineID.String())
	}
	l.FulfillmentType = ft
	l.FulfillmentStatus = fs
	l.Note = note
	return nil
}
func (m *memOrders) UpdateLineStatus(ctx context.Context, lineID id.ID, fs orders.FulfillmentStatus, note string) error {
	l, err := m.GetLine(ctx, lineID)
	if err != nil {
		return err
	}
	l.FulfillmentStatus = fs
	return nil
}
func (m *memOrders) SetFlowStatus(ctx context.Context, orderID id.ID, status orders.FlowStatus) (bool, error) {
	o, ok := m.orders[orderID]
	if !ok {
		return false, apperror.NewNotFound("order", orderID.String())
	}
	if o.FlowStatus == status {
		return false, nil
	}
	o.FlowStatus = status
	return true, nil
}
func (m *memOrders) AppendTimeline(ctx context.Context, entry orders.TimelineEntry) error {
	m.timeline = append(m.timeline, entry)
	return nil
}
func (m *memOrders) GetTimeline(ctx context.Context, orderID id.ID) ([]orders.TimelineEntry, error) {
	var result []orders.TimelineEntry
	for _, e := range m.timeline {
		if e.OrderID == orderID {
			result = append(result, e)
		}
	}
	return result, nil
}

type memBalances struct {
	balances map[id.ID]*inventory.Balance

	// failReserves makes the next N Reserve calls report a conflict,
	// simulating stock moving between decision and reservation.
	failReserves int
}

func newMemBalances() *memBalances {
	return &memBalances{balances: make(map[id.ID]*inventory.Balance)}
}

func (m *memBalances) get(productID id.ID) *inventory.Balance {
	b, ok := m.balances[productID]
	if !ok {
		b = &inventory.Balance{ProductID: productID}
		m.balances[productID] = b
	}
	return b
}

func (m *memBalances) Get(ctx context.Context, productID id.ID) (inventory.Balance, error) {
	return *m.get(productID), nil
}
func (m *memBalances) List(ctx context.Context, productIDs []id.ID) ([]inventory.Balance, error) {
	return nil, nil
}
func (m *memBalances) Reserve(ctx context.Context, productID id.ID, qty types.Quantity) error {
	b := m.get(productID)
	if m.failReserves > 0 {
		m.failReserves--
		return apperror.NewConcurrentModification("product balance", productID.String())
	}
	if b.OnHand-b.Reserved < qty {
		return apperror.NewConcurrentModification("product balance", productID.String())
	}
	b.Reserved += qty
	return nil
}
func (m *memBalances) ReleaseReservation(ctx context.Context, productID id.ID, qty types.Quantity) error {
	m.get(productID).Reserved -= qty
	return nil
}
func (m *memBalances) FulfillReservation(ctx context.Context, productID id.ID, qty types.Quantity) error {
	b := m.get(productID)
	b.OnHand -= qty
	b.Reserved -= qty
	return nil
}
func (m *memBalances) AddOnHand(ctx context.Context, productID id.ID, qty types.Quantity) error {
	m.get(productID).OnHand += qty
	return nil
}
func (m *memBalances) RemoveOnHand(ctx context.Context, productID id.ID, qty types.Quantity) error {
	b := m.get(productID)
	if b.OnHand-b.Reserved < qty {
		return apperror.NewInsufficientStock(productID.String(), qty.Float64(), (b.OnHand - b.Reserved).Float64())
	}
	b.OnHand -= qty
	return nil
}

type memRecipes struct {
	byProduct map[id.ID]*recipes.Recipe
}

func (m *memRecipes) Create(ctx context.Context, r *recipes.Recipe) error { return nil }
func (m *memRecipes) GetByID(ctx context.Context, recipeID id.ID) (*recipes.Recipe, error) {
	return nil, apperror.NewNotFound("recipe", recipeID.String())
}
func (m *memRecipes) GetActiveByProduct(ctx context.Context, productID id.ID) (*recipes.Recipe, error) {
	r, ok := m.byProduct[productID]
	if !ok {
		return nil, apperror.NewNotFound("recipe", productID.String())
	}
	return r, nil
}
func (m *memRecipes) SetDeletionMark(ctx context.Context, recipeID id.ID, marked bool) error {
	return nil
}
func (m *memRecipes) ListByProducts(ctx context.Context, productIDs []id.ID) (map[id.ID]*recipes.Recipe, error) {
	result := make(map[id.ID]*recipes.Recipe)
	for _, pid := range productIDs {
		if r, ok := m.byProduct[pid]; ok {
			result[pid] = r
		}
	}
	return result, nil
}

type memLots struct {
	lots      []*materials.Lot
	movements []materials.Movement
}

func (m *memLots) CreateLot(ctx context.Context, lot *materials.Lot) error {
	m.lots = append(m.lots, lot)
	return nil
}
func (m *memLots) GetLot(ctx context.Context, lotID id.ID) (*materials.Lot, error) {
	for _, l := range m.lots {
		if l.ID == lotID {
			return l, nil
		}
	}
	return nil, apperror.NewNotFound("material lot", lotID.String())
}
func (m *memLots) ListAvailableLots(ctx context.Context, definitionID id.ID) ([]*materials.Lot, error) {
	var result []*materials.Lot
	for _, l := range m.lots {
		if l.DefinitionID == definitionID && l.Remaining.IsPositive() {
			result = append(result, l)
		}
	}
	return result, nil
}
func (m *memLots) SumRemaining(ctx context.Context, definitionID id.ID, warehouseID *id.ID) (types.Quantity, error) {
	var total types.Quantity
	for _, l := range m.lots {
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
func (m *memLots) DebitLot(ctx context.Context, lotID id.ID, qty types.Quantity) error {
	for _, l := range m.lots {
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
func (m *memLots) CreditLot(ctx context.Context, lotID id.ID, qty types.Quantity) error {
	return nil
}
func (m *memLots) CreateMovements(ctx context.Context, movements []materials.Movement) error {
	m.movements = append(m.movements, movements...)
	return nil
}
func (m *memLots) ListMovements(ctx context.Context, filter materials.MovementFilter) ([]materials.Movement, error) {
	return m.movements, nil
}
func (m *memLots) LatestLotByDefinition(ctx context.Context, definitionID id.ID) (*materials.Lot, error) {
	return nil, apperror.NewNotFound("material lot", definitionID.String())
}

type memTasks struct {
	tasks map[id.ID]*production.Task
}

func newMemTasks() *memTasks { return &memTasks{tasks: make(map[id.ID]*production.Task)} }

func (m *memTasks) Create(ctx context.Context, task *production.Task) error {
	m.tasks[task.ID] = task
	return nil
}
func (m *memTasks) GetByID(ctx context.Context, taskID id.ID) (*production.Task, error) {
	t, ok := m.tasks[taskID]
	if !ok {
		return nil, apperror.NewNotFound("production task", taskID.String())
	}
	return t, nil
}
func (m *memTasks) GetByLine(ctx context.Context, lineID id.ID) (*production.Task, error) {
	for _, t := range m.tasks {
		if t.OrderLineID != nil && *t.OrderLineID == lineID {
			return t, nil
		}
	}
	return nil, apperror.NewNotFound("production task", lineID.String())
}
func (m *memTasks) ListQueue(ctx context.Context) ([]*production.Task, error) {
	var result []*production.Task
	for _, t := range m.tasks {
		if t.Status != production.TaskCompleted {
			result = append(result, t)
		}
	}
	return result, nil
}
func (m *memTasks) AdvanceStatus(ctx context.Context, taskID id.ID, from, to production.TaskStatus, at time.Time) error {
	t, ok := m.tasks[taskID]
	if !ok {
		return apperror.NewNotFound("production task", taskID.String())
	}
	if t.Status != from {
		return apperror.NewConcurrentModification("production task", taskID.String())
	}
	t.Status = to
	return nil
}
func (m *memTasks) LineTaskStatus(ctx context.Context, lineID id.ID) (string, bool, error) {
	t, err := m.GetByLine(ctx, lineID)
	if err != nil {
		return "", false, nil
	}
	return string(t.Status), true, nil
}

// --- fixture ---

type fixture struct {
	orders   *memOrders
	balances *memBalances
	recipes  *memRecipes
	lots     *memLots
	tasks    *memTasks
	orch     *production.Orchestrator
	engine   *Engine
}

func newFixture() *fixture {
	f := &fixture{
		orders:   newMemOrders(),
		balances: newMemBalances(),
		recipes:  &memRecipes{byProduct: make(map[id.ID]*recipes.Recipe)},
		lots:     &memLots{},
		tasks:    newMemTasks(),
	}
	resolver := materials.NewAvailabilityResolver(f.lots)
	allocator := materials.NewAllocator(f.lots)
	mgr := rollbackTx{orders: f.orders, balances: f.balances}
	f.orch = production.NewOrchestrator(
		f.orders, f.balances, f.recipes, f.lots, resolver, allocator, f.tasks, mgr)
	aggregator := orders.NewStatusAggregator(f.orders, f.balances, f.recipes, resolver, f.tasks)
	f.engine = NewEngine(f.orders, f.balances, f.orch, aggregator, mgr)
	return f
}

func day(n int) time.Time {
	return time.Date(2026, 1, n, 0, 0, 0, 0, time.UTC)
}

// Workshop setup used across the scenario tests: product P needs 2 of
// material M per unit; lot A holds 3 in the home warehouse, lot B holds a
// configurable amount at the production center.
func (f *fixture) setupWorkshop(lotBQty int64) (productID, materialID id.ID, lotA, lotB *materials.Lot) {
	productID = id.New()
	materialID = id.New()

	r := recipes.NewRecipe(productID)
	r.AddComponent(materialID, types.NewQuantityFromInt(2))
	f.recipes.byProduct[productID] = r

	lotA = materials.NewLot(materialID, id.New(), types.NewQuantityFromInt(3), types.NewMoney(10), "", day(1))
	lotB = materials.NewLot(materialID, id.New(), types.NewQuantityFromInt(lotBQty), types.NewMoney(10), "", day(2))
	f.lots.lots = append(f.lots.lots, lotA, lotB)
	return productID, materialID, lotA, lotB
}

// --- tests ---

func TestProcessOrder_ProduceOnDemandScenario(t *testing.T) {
	f := newFixture()
	productID, _, lotA, lotB := f.setupWorkshop(10)

	order := orders.NewOrder("ORD-100", "", "")
	order.AddLine(productID, types.NewQuantityFromInt(4)) // needs 8 of M, 13 available
	f.orders.orders[order.ID] = order
	ctx := context.Background()

	result, err := f.engine.ProcessOrder(ctx, order.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Decided != 1 || result.Skipped != 0 || result.Failed != 0 {
		t.Errorf("result: %+v", result)
	}

	line := order.Lines[0]
	if line.FulfillmentType != orders.TypeProduceOnDemand {
		t.Errorf("line type: got %s", line.FulfillmentType)
	}
	if order.FlowStatus != orders.FlowNeedProduction {
		t.Errorf("flow status: got %s, want %s", order.FlowStatus, orders.FlowNeedProduction)
	}

	// Start production: 3 drained from the home lot, 5 from the center lot.
	queue, _ := f.orch.Queue(ctx)
	if len(queue) != 1 {
		t.Fatalf("expected 1 task, got %d", len(queue))
	}
	if err := f.orch.StartProduction(ctx, queue[0].ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !lotA.Remaining.IsZero() || lotB.Remaining != types.NewQuantityFromInt(5) {
		t.Errorf("lot remainders: A=%s B=%s", lotA.Remaining, lotB.Remaining)
	}

	if _, err := f.engine.aggregator.RecomputeOrder(ctx, order.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if order.FlowStatus != orders.FlowInProduction {
		t.Errorf("flow status after start: got %s", order.FlowStatus)
	}

	// Complete and ship.
	if err := f.orch.CompleteProduction(ctx, queue[0].ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := f.engine.ShipLine(ctx, line.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if order.FlowStatus != orders.FlowShipped {
		t.Errorf("flow status after ship: got %s", order.FlowStatus)
	}
	b := f.balances.get(productID)
	if !b.OnHand.IsZero() || !b.Reserved.IsZero() {
		t.Errorf("balance after ship: %+v", b)
	}
}

func TestProcessOrder_MaterialShortageScenario(t *testing.T) {
	f := newFixture()
	productID, materialID, _, _ := f.setupWorkshop(2) // 5 available, 8 needed

	order := orders.NewOrder("ORD-101", "", "")
	order.AddLine(productID, types.NewQuantityFromInt(4))
	f.orders.orders[order.ID] = order
	ctx := context.Background()

	result, err := f.engine.ProcessOrder(ctx, order.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Decided != 1 {
		t.Errorf("result: %+v", result)
	}

	line := order.Lines[0]
	if line.FulfillmentType != orders.TypeProduceOnDemand {
		t.Errorf("line type: got %s", line.FulfillmentType)
	}
	if order.FlowStatus != orders.FlowNeedMaterials {
		t.Errorf("flow status: got %s, want %s", order.FlowStatus, orders.FlowNeedMaterials)
	}

	// No task was queued and no materials were touched.
	queue, _ := f.orch.Queue(ctx)
	if len(queue) != 0 {
		t.Errorf("no task should exist for a short line, got %d", len(queue))
	}
	have, _ := f.lots.SumRemaining(ctx, materialID, nil)
	if have != types.NewQuantityFromInt(5) {
		t.Errorf("materials touched: %s", have)
	}
}

func TestProcessOrder_ReadyStockScenario(t *testing.T) {
	f := newFixture()
	productID := id.New()
	f.balances.get(productID).OnHand = types.NewQuantityFromInt(10)

	order := orders.NewOrder("ORD-102", "", "")
	order.AddLine(productID, types.NewQuantityFromInt(4))
	f.orders.orders[order.ID] = order
	ctx := context.Background()

	if _, err := f.engine.ProcessOrder(ctx, order.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if order.Lines[0].FulfillmentType != orders.TypeReadyStock {
		t.Errorf("line type: got %s", order.Lines[0].FulfillmentType)
	}
	if f.balances.get(productID).Reserved != types.NewQuantityFromInt(4) {
		t.Errorf("reserved: %s", f.balances.get(productID).Reserved)
	}
	if order.FlowStatus != orders.FlowReadyToShip {
		t.Errorf("flow status: got %s", order.FlowStatus)
	}
}

func TestProcessOrder_MixedLinesCountedOnce(t *testing.T) {
	f := newFixture()
	stocked := id.New()
	f.balances.get(stocked).OnHand = types.NewQuantityFromInt(5)
	orphan := id.New() // no recipe, no stock

	order := orders.NewOrder("ORD-103", "", "")
	order.AddLine(stocked, types.NewQuantityFromInt(2))
	order.AddLine(orphan, types.NewQuantityFromInt(1))
	f.orders.orders[order.ID] = order
	ctx := context.Background()

	result, err := f.engine.ProcessOrder(ctx, order.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Decided != 2 || result.Failed != 0 {
		t.Errorf("first pass: %+v", result)
	}

	// Second pass skips everything.
	result, err = f.engine.ProcessOrder(ctx, order.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Decided != 0 || result.Skipped != 2 {
		t.Errorf("second pass: %+v", result)
	}
	if f.balances.get(stocked).Reserved != types.NewQuantityFromInt(2) {
		t.Errorf("double reservation: %s", f.balances.get(stocked).Reserved)
	}
}

func TestProcessOrder_ReservationConflictRedecides(t *testing.T) {
	f := newFixture()
	productID := id.New()
	f.balances.get(productID).OnHand = types.NewQuantityFromInt(10)
	f.balances.failReserves = 1

	order := orders.NewOrder("ORD-107", "", "")
	order.AddLine(productID, types.NewQuantityFromInt(4))
	f.orders.orders[order.ID] = order
	ctx := context.Background()

	result, err := f.engine.ProcessOrder(ctx, order.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Decided != 1 || result.Failed != 0 {
		t.Errorf("result: %+v", result)
	}
	if order.Lines[0].FulfillmentType != orders.TypeReadyStock {
		t.Errorf("line type: got %s", order.Lines[0].FulfillmentType)
	}
	if f.balances.get(productID).Reserved != types.NewQuantityFromInt(4) {
		t.Errorf("reserved: %s", f.balances.get(productID).Reserved)
	}
}

func TestCancelLine_ReleasesReservation(t *testing.T) {
	f := newFixture()
	productID := id.New()
	f.balances.get(productID).OnHand = types.NewQuantityFromInt(10)

	order := orders.NewOrder("ORD-105", "", "")
	order.AddLine(productID, types.NewQuantityFromInt(4))
	f.orders.orders[order.ID] = order
	ctx := context.Background()

	if _, err := f.engine.ProcessOrder(ctx, order.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.balances.get(productID).Reserved != types.NewQuantityFromInt(4) {
		t.Fatalf("reserved: %s", f.balances.get(productID).Reserved)
	}

	lineID := order.Lines[0].ID
	if err := f.engine.CancelLine(ctx, lineID, "customer changed mind"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.balances.get(productID).Reserved != types.NewQuantityFromInt(0) {
		t.Errorf("reserved after cancel: %s", f.balances.get(productID).Reserved)
	}
	if order.Lines[0].FulfillmentStatus != orders.StatusCancelled {
		t.Errorf("line status: got %s", order.Lines[0].FulfillmentStatus)
	}
	if order.FlowStatus != orders.FlowCancelled {
		t.Errorf("flow status: got %s", order.FlowStatus)
	}

	// Cancelling again is a no-op and must not double-release.
	if err := f.engine.CancelLine(ctx, lineID, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.balances.get(productID).Reserved != types.NewQuantityFromInt(0) {
		t.Errorf("reserved after repeat cancel: %s", f.balances.get(productID).Reserved)
	}
}

func TestCancelLine_RejectsShippedLine(t *testing.T) {
	f := newFixture()
	productID := id.New()
	f.balances.get(productID).OnHand = types.NewQuantityFromInt(4)

	order := orders.NewOrder("ORD-106", "", "")
	order.AddLine(productID, types.NewQuantityFromInt(4))
	f.orders.orders[order.ID] = order
	ctx := context.Background()

	if _, err := f.engine.ProcessOrder(ctx, order.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lineID := order.Lines[0].ID
	if err := f.engine.ShipLine(ctx, lineID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err := f.engine.CancelLine(ctx, lineID, "")
	if err == nil {
		t.Fatal("expected error cancelling a shipped line")
	}
	appErr, ok := apperror.AsAppError(err)
	if !ok || appErr.Code != "LINE_ALREADY_SHIPPED" {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestShipLine_RequiresReadyStatus(t *testing.T) {
	f := newFixture()
	productID := id.New()

	order := orders.NewOrder("ORD-104", "", "")
	order.AddLine(productID, types.NewQuantityFromInt(1))
	f.orders.orders[order.ID] = order

	err := f.engine.ShipLine(context.Background(), order.Lines[0].ID)
	if err == nil {
		t.Fatal("expected error shipping an unready line")
	}
	appErr, ok := apperror.AsAppError(err)
	if !ok || appErr.Code != "LINE_NOT_READY" {
		t.Errorf("unexpected error: %v", err)
	}
}
