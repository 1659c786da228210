package channel

import (
	"context"
	"testing"
	"time"

	"craftflow/internal/core/apperror"
	"craftflow/internal/core/id"
	"craftflow/internal/core/types"
	"craftflow/internal/domain"
	"craftflow/internal/domain/catalogs/product"
	"craftflow/internal/domain/fulfillment"
	"craftflow/internal/domain/inventory"
	"craftflow/internal/domain/materials"
	"craftflow/internal/domain/orders"
	"craftflow/internal/domain/production"
	"craftflow/internal/domain/recipes"
)

// --- fakes ---

type passTx struct{}

func (passTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type stubFeed struct {
	pages []Page
	calls int
}

func (s *stubFeed) FetchOrders(ctx context.Context, page int) (Page, error) {
	s.calls++
	if page > len(s.pages) {
		return Page{}, nil
	}
	return s.pages[page-1], nil
}

type fakeOrderRepo struct {
	orders   map[id.ID]*orders.Order
	timeline []orders.TimelineEntry
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[id.ID]*orders.Order)}
}

func (f *fakeOrderRepo) Create(ctx context.Context, order *orders.Order) error {
	f.orders[order.ID] = order
	return nil
}
func (f *fakeOrderRepo) GetByID(ctx context.Context, orderID id.ID) (*orders.Order, error) {
	o, ok := f.orders[orderID]
	if !ok {
		return nil, apperror.NewNotFound("order", orderID.String())
	}
	return o, nil
}
func (f *fakeOrderRepo) GetByChannelRef(ctx context.Context, ref string) (*orders.Order, error) {
	for _, o := range f.orders {
		if o.ChannelRef == ref {
			return o, nil
		}
	}
	return nil, apperror.NewNotFound("order", ref)
}
func (f *fakeOrderRepo) ListByFlowStatus(ctx context.Context, statuses []orders.FlowStatus) ([]*orders.Order, error) {
	return nil, nil
}
func (f *fakeOrderRepo) ListActive(ctx context.Context) ([]*orders.Order, error) {
	var result []*orders.Order
	for _, o := range f.orders {
		if !o.FlowStatus.IsTerminal() {
			result = append(result, o)
		}
	}
	return result, nil
}
func (f *fakeOrderRepo) GetLines(ctx context.Context, orderID id.ID) ([]*orders.Line, error) {
	o, err := f.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return o.Lines, nil
}
func (f *fakeOrderRepo) GetLine(ctx context.Context, lineID id.ID) (*orders.Line, error) {
	for _, o := range f.orders {
		for _, l := range o.Lines {
			if l.ID == lineID {
				return l, nil
			}
		}
	}
	return nil, apperror.NewNotFound("order line", lineID.String())
}
func (f *fakeOrderRepo) DecideLine(ctx context.Context, lineID id.ID, ft orders.FulfillmentType, fs orders.FulfillmentStatus, note string) error {
	l, err := f.GetLine(ctx, lineID)
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
func (f *fakeOrderRepo) UpdateLineStatus(ctx context.Context, lineID id.ID, fs orders.FulfillmentStatus, note string) error {
	l, err := f.GetLine(ctx, lineID)
	if err != nil {
		return err
	}
	l.FulfillmentStatus = fs
	return nil
}
func (f *fakeOrderRepo) SetFlowStatus(ctx context.Context, orderID id.ID, status orders.FlowStatus) (bool, error) {
	o, err := f.GetByID(ctx, orderID)
	if err != nil {
		return false, err
	}
	if o.FlowStatus == status {
		return false, nil
	}
	o.FlowStatus = status
	return true, nil
}
func (f *fakeOrderRepo) AppendTimeline(ctx context.Context, entry orders.TimelineEntry) error {
	f.timeline = append(f.timeline, entry)
	return nil
}
func (f *fakeOrderRepo) GetTimeline(ctx context.Context, orderID id.ID) ([]orders.TimelineEntry, error) {
	return nil, nil
}

type fakeProducts struct {
	bySKU map[string]*product.Product
}

func (f *fakeProducts) Create(ctx context.Context, p *product.Product) error { return nil }
func (f *fakeProducts) GetByID(ctx context.Context, pid id.ID) (*product.Product, error) {
	return nil, apperror.NewNotFound("product", pid.String())
}
func (f *fakeProducts) GetByCode(ctx context.Context, code string) (*product.Product, error) {
	return nil, apperror.NewNotFound("product", code)
}
func (f *fakeProducts) Update(ctx context.Context, p *product.Product) error { return nil }
func (f *fakeProducts) SetDeletionMark(ctx context.Context, pid id.ID, marked bool) error {
	return nil
}
func (f *fakeProducts) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*product.Product], error) {
	return domain.ListResult[*product.Product]{}, nil
}
func (f *fakeProducts) Exists(ctx context.Context, pid id.ID) (bool, error)      { return false, nil }
func (f *fakeProducts) ExistsByCode(ctx context.Context, code string) (bool, error) {
	return false, nil
}
func (f *fakeProducts) GetBySKU(ctx context.Context, sku string) (*product.Product, error) {
	p, ok := f.bySKU[sku]
	if !ok {
		return nil, apperror.NewNotFound("product", sku)
	}
	return p, nil
}

type fakeBalances struct {
	balances map[id.ID]*inventory.Balance
}

func (f *fakeBalances) get(productID id.ID) *inventory.Balance {
	b, ok := f.balances[productID]
	if !ok {
		b = &inventory.Balance{ProductID: productID}
		f.balances[productID] = b
	}
	return b
}
func (f *fakeBalances) Get(ctx context.Context, productID id.ID) (inventory.Balance, error) {
	return *f.get(productID), nil
}
func (f *fakeBalances) List(ctx context.Context, productIDs []id.ID) ([]inventory.Balance, error) {
	return nil, nil
}
func (f *fakeBalances) Reserve(ctx context.Context, productID id.ID, qty types.Quantity) error {
	b := f.get(productID)
	if b.OnHand-b.Reserved < qty {
		return apperror.NewConcurrentModification("product balance", productID.String())
	}
	b.Reserved += qty
	return nil
}
func (f *fakeBalances) ReleaseReservation(ctx context.Context, productID id.ID, qty types.Quantity) error {
	f.get(productID).Reserved -= qty
	return nil
}
func (f *fakeBalances) FulfillReservation(ctx context.Context, productID id.ID, qty types.Quantity) error {
	b := f.get(productID)
	b.OnHand -= qty
	b.Reserved -= qty
	return nil
}
func (f *fakeBalances) AddOnHand(ctx context.Context, productID id.ID, qty types.Quantity) error {
	f.get(productID).OnHand += qty
	return nil
}
func (f *fakeBalances) RemoveOnHand(ctx context.Context, productID id.ID, qty types.Quantity) error {
	f.get(productID).OnHand -= qty
	return nil
}

type stubRecipes struct{}

func (stubRecipes) Create(ctx context.Context, r *recipes.Recipe) error { return nil }
func (stubRecipes) GetByID(ctx context.Context, recipeID id.ID) (*recipes.Recipe, error) {
	return nil, apperror.NewNotFound("recipe", recipeID.String())
}
func (stubRecipes) GetActiveByProduct(ctx context.Context, productID id.ID) (*recipes.Recipe, error) {
	return nil, apperror.NewNotFound("recipe", productID.String())
}
func (stubRecipes) SetDeletionMark(ctx context.Context, recipeID id.ID, marked bool) error {
	return nil
}
func (stubRecipes) ListByProducts(ctx context.Context, productIDs []id.ID) (map[id.ID]*recipes.Recipe, error) {
	return nil, nil
}

type stubLots struct{}

func (stubLots) CreateLot(ctx context.Context, lot *materials.Lot) error { return nil }
func (stubLots) GetLot(ctx context.Context, lotID id.ID) (*materials.Lot, error) {
	return nil, apperror.NewNotFound("material lot", lotID.String())
}
func (stubLots) ListAvailableLots(ctx context.Context, definitionID id.ID) ([]*materials.Lot, error) {
	return nil, nil
}
func (stubLots) SumRemaining(ctx context.Context, definitionID id.ID, warehouseID *id.ID) (types.Quantity, error) {
	return 0, nil
}
func (stubLots) DebitLot(ctx context.Context, lotID id.ID, qty types.Quantity) error  { return nil }
func (stubLots) CreditLot(ctx context.Context, lotID id.ID, qty types.Quantity) error { return nil }
func (stubLots) CreateMovements(ctx context.Context, movements []materials.Movement) error {
	return nil
}
func (stubLots) ListMovements(ctx context.Context, filter materials.MovementFilter) ([]materials.Movement, error) {
	return nil, nil
}
func (stubLots) LatestLotByDefinition(ctx context.Context, definitionID id.ID) (*materials.Lot, error) {
	return nil, apperror.NewNotFound("material lot", definitionID.String())
}

type stubTasks struct{}

func (stubTasks) Create(ctx context.Context, task *production.Task) error { return nil }
func (stubTasks) GetByID(ctx context.Context, taskID id.ID) (*production.Task, error) {
	return nil, apperror.NewNotFound("production task", taskID.String())
}
func (stubTasks) GetByLine(ctx context.Context, lineID id.ID) (*production.Task, error) {
	return nil, apperror.NewNotFound("production task", lineID.String())
}
func (stubTasks) ListQueue(ctx context.Context) ([]*production.Task, error) { return nil, nil }
func (stubTasks) AdvanceStatus(ctx context.Context, taskID id.ID, from, to production.TaskStatus, at time.Time) error {
	return nil
}
func (stubTasks) LineTaskStatus(ctx context.Context, lineID id.ID) (string, bool, error) {
	return "", false, nil
}

// --- fixture ---

type syncFixture struct {
	feed     *stubFeed
	repo     *fakeOrderRepo
	balances *fakeBalances
	products *fakeProducts
	sync     *SyncService
}

func newSyncFixture() *syncFixture {
	f := &syncFixture{
		feed:     &stubFeed{},
		repo:     newFakeOrderRepo(),
		balances: &fakeBalances{balances: make(map[id.ID]*inventory.Balance)},
		products: &fakeProducts{bySKU: make(map[string]*product.Product)},
	}
	lots := stubLots{}
	resolver := materials.NewAvailabilityResolver(lots)
	allocator := materials.NewAllocator(lots)
	orch := production.NewOrchestrator(
		f.repo, f.balances, stubRecipes{}, lots, resolver, allocator, stubTasks{}, passTx{})
	aggregator := orders.NewStatusAggregator(f.repo, f.balances, stubRecipes{}, resolver, stubTasks{})
	engine := fulfillment.NewEngine(f.repo, f.balances, orch, aggregator, passTx{})
	orderSvc := orders.NewService(f.repo, passTx{})

	f.sync = NewSyncService(f.feed, f.products, orderSvc, f.repo, engine, aggregator)
	f.sync.PageDelay = time.Millisecond
	return f
}

func (f *syncFixture) addProduct(sku string, stock int64) *product.Product {
	p := product.NewProduct(sku, sku, sku)
	f.products.bySKU[sku] = p
	if stock > 0 {
		f.balances.get(p.ID).OnHand = types.NewQuantityFromInt(stock)
	}
	return p
}

// --- tests ---

func TestSync_ImportsNewOrder(t *testing.T) {
	f := newSyncFixture()
	f.addProduct("CB-OAK-01", 5)
	f.feed.pages = []Page{{Orders: []Order{{
		Ref:      "ch-1",
		Number:   "1001",
		Customer: "Jo",
		Status:   "paid",
		Lines:    []OrderLine{{SKU: "CB-OAK-01", Quantity: 2}},
	}}}}

	report, err := f.sync.Sync(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Created != 1 || report.Failed != 0 {
		t.Errorf("report: %+v", report)
	}

	imported, err := f.repo.GetByChannelRef(context.Background(), "ch-1")
	if err != nil {
		t.Fatalf("imported order not found: %v", err)
	}
	if imported.Number != "1001" {
		t.Errorf("number: got %s", imported.Number)
	}
	if imported.Lines[0].FulfillmentType != orders.TypeReadyStock {
		t.Errorf("line type: got %s", imported.Lines[0].FulfillmentType)
	}
	if imported.FlowStatus != orders.FlowReadyToShip {
		t.Errorf("flow status: got %s", imported.FlowStatus)
	}
}

func TestSync_TerminalStatusUpdatesKnownOrder(t *testing.T) {
	f := newSyncFixture()
	p := f.addProduct("CB-OAK-01", 0)

	existing := orders.NewOrder("1002", "ch-2", "")
	line := existing.AddLine(p.ID, types.NewQuantityFromInt(1))
	line.FulfillmentType = orders.TypeReadyStock
	line.FulfillmentStatus = orders.StatusReady
	existing.FlowStatus = orders.FlowReadyToShip
	f.repo.orders[existing.ID] = existing

	f.feed.pages = []Page{{Orders: []Order{{Ref: "ch-2", Status: "shipped"}}}}

	report, err := f.sync.Sync(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Updated != 1 || report.Created != 0 {
		t.Errorf("report: %+v", report)
	}
	if line.FulfillmentStatus != orders.StatusShipped {
		t.Errorf("line status: got %s", line.FulfillmentStatus)
	}
	if existing.FlowStatus != orders.FlowShipped {
		t.Errorf("flow status: got %s", existing.FlowStatus)
	}
}

func TestSync_NonTerminalStatusIsSkipped(t *testing.T) {
	f := newSyncFixture()
	p := f.addProduct("CB-OAK-01", 0)

	existing := orders.NewOrder("1003", "ch-3", "")
	existing.AddLine(p.ID, types.NewQuantityFromInt(1))
	existing.FlowStatus = orders.FlowInProduction
	f.repo.orders[existing.ID] = existing

	f.feed.pages = []Page{{Orders: []Order{{Ref: "ch-3", Status: "paid"}}}}

	report, err := f.sync.Sync(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Skipped != 1 || report.Updated != 0 {
		t.Errorf("report: %+v", report)
	}
	if existing.FlowStatus != orders.FlowInProduction {
		t.Errorf("flow status must not change: got %s", existing.FlowStatus)
	}
}

func TestSync_UnknownSKUCountsFailed(t *testing.T) {
	f := newSyncFixture()
	f.feed.pages = []Page{{Orders: []Order{{
		Ref:    "ch-4",
		Lines:  []OrderLine{{SKU: "NO-SUCH", Quantity: 1}},
		Status: "paid",
	}}}}

	report, err := f.sync.Sync(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Failed != 1 || report.Created != 0 {
		t.Errorf("report: %+v", report)
	}
	if _, err := f.repo.GetByChannelRef(context.Background(), "ch-4"); !apperror.IsNotFound(err) {
		t.Error("rejected order must not be created")
	}
}
