package reports

import (
	"context"
	"testing"

	"craftflow/internal/core/apperror"
	"craftflow/internal/core/id"
	"craftflow/internal/core/types"
	"craftflow/internal/domain/materials"
	"craftflow/internal/domain/orders"
	"craftflow/internal/domain/recipes"
)

type memOrders struct {
	orders map[id.ID]*orders.Order
}

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
func (m *memOrders) ListActive(ctx context.Context) ([]*orders.Order, error) { return nil, nil }
func (m *memOrders) GetLines(ctx context.Context, orderID id.ID) ([]*orders.Line, error) {
	return m.orders[orderID].Lines, nil
}
func (m *memOrders) GetLine(ctx context.Context, lineID id.ID) (*orders.Line, error) {
	return nil, apperror.NewNotFound("order line", lineID.String())
}
func (m *memOrders) DecideLine(ctx context.Context, lineID id.ID, ft orders.FulfillmentType, fs orders.FulfillmentStatus, note string) error {
	return nil
}
func (m *memOrders) UpdateLineStatus(ctx context.Context, lineID id.ID, fs orders.FulfillmentStatus, note string) error {
	return nil
}
func (m *memOrders) SetFlowStatus(ctx context.Context, orderID id.ID, status orders.FlowStatus) (bool, error) {
	return false, nil
}
func (m *memOrders) AppendTimeline(ctx context.Context, entry orders.TimelineEntry) error {
	return nil
}
func (m *memOrders) GetTimeline(ctx context.Context, orderID id.ID) ([]orders.TimelineEntry, error) {
	return nil, nil
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

type stubLots struct {
	byDefinition map[id.ID]types.Quantity
}

func (s *stubLots) CreateLot(ctx context.Context, lot *materials.Lot) error { return nil }
func (s *stubLots) GetLot(ctx context.Context, lotID id.ID) (*materials.Lot, error) {
	return nil, apperror.NewNotFound("material lot", lotID.String())
}
func (s *stubLots) ListAvailableLots(ctx context.Context, definitionID id.ID) ([]*materials.Lot, error) {
	return nil, nil
}
func (s *stubLots) SumRemaining(ctx context.Context, definitionID id.ID, warehouseID *id.ID) (types.Quantity, error) {
	return s.byDefinition[definitionID], nil
}
func (s *stubLots) DebitLot(ctx context.Context, lotID id.ID, qty types.Quantity) error  { return nil }
func (s *stubLots) CreditLot(ctx context.Context, lotID id.ID, qty types.Quantity) error { return nil }
func (s *stubLots) CreateMovements(ctx context.Context, movements []materials.Movement) error {
	return nil
}
func (s *stubLots) ListMovements(ctx context.Context, filter materials.MovementFilter) ([]materials.Movement, error) {
	return nil, nil
}
func (s *stubLots) LatestLotByDefinition(ctx context.Context, definitionID id.ID) (*materials.Lot, error) {
	return nil, apperror.NewNotFound("material lot", definitionID.String())
}

type deficitFixture struct {
	orders  *memOrders
	recipes *memRecipes
	lots    *stubLots
}

func newDeficitFixture() *deficitFixture {
	return &deficitFixture{
		orders:  &memOrders{orders: make(map[id.ID]*orders.Order)},
		recipes: &memRecipes{byProduct: make(map[id.ID]*recipes.Recipe)},
		lots:    &stubLots{byDefinition: make(map[id.ID]types.Quantity)},
	}
}

func (f *deficitFixture) analyzer() *DeficitAnalyzer {
	return NewDeficitAnalyzer(f.orders, f.recipes, materials.NewAvailabilityResolver(f.lots))
}

func (f *deficitFixture) addRecipe(productID, defID id.ID, perUnit int64) {
	r := recipes.NewRecipe(productID)
	r.AddComponent(defID, types.NewQuantityFromInt(perUnit))
	f.recipes.byProduct[productID] = r
}

func (f *deficitFixture) addOrder(flow orders.FlowStatus, productID id.ID, qty int64) *orders.Order {
	o := orders.NewOrder("ORD-"+id.New().String()[:8], "", "")
	line := o.AddLine(productID, types.NewQuantityFromInt(qty))
	line.FulfillmentType = orders.TypeProduceOnDemand
	line.FulfillmentStatus = orders.StatusPlanned
	o.FlowStatus = flow
	f.orders.orders[o.ID] = o
	return o
}

func TestDeficit_CoveredMaterialIsZero(t *testing.T) {
	f := newDeficitFixture()
	productID, defID := id.New(), id.New()
	f.addRecipe(productID, defID, 2)
	f.addOrder(orders.FlowNeedProduction, productID, 4) // needs 8
	f.lots.byDefinition[defID] = types.NewQuantityFromInt(13)

	result, err := f.analyzer().Analyze(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result) != 1 {
		t.Fatalf("expected 1 row, got %d", len(result))
	}
	row := result[0]
	if row.Needed != types.NewQuantityFromInt(8) || row.Have != types.NewQuantityFromInt(13) {
		t.Errorf("row: %+v", row)
	}
	if !row.Deficit.IsZero() {
		t.Errorf("covered material must have zero deficit, got %s", row.Deficit)
	}
}

func TestDeficit_ShortMaterialSumsAcrossOrders(t *testing.T) {
	f := newDeficitFixture()
	productID, defID := id.New(), id.New()
	f.addRecipe(productID, defID, 2)
	f.addOrder(orders.FlowNeedMaterials, productID, 4) // needs 8
	f.addOrder(orders.FlowNeedMaterials, productID, 1) // needs 2
	f.lots.byDefinition[defID] = types.NewQuantityFromInt(5)

	result, err := f.analyzer().Analyze(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result) != 1 {
		t.Fatalf("expected 1 row, got %d", len(result))
	}
	row := result[0]
	if row.Needed != types.NewQuantityFromInt(10) {
		t.Errorf("needed: got %s, want 10", row.Needed)
	}
	if row.Deficit != types.NewQuantityFromInt(5) {
		t.Errorf("deficit: got %s, want 5", row.Deficit)
	}
}

func TestDeficit_IgnoresIrrelevantLines(t *testing.T) {
	f := newDeficitFixture()
	productID, defID := id.New(), id.New()
	f.addRecipe(productID, defID, 2)

	// Shipped line is outside the outstanding statuses.
	shipped := f.addOrder(orders.FlowNeedProduction, productID, 4)
	shipped.Lines[0].FulfillmentStatus = orders.StatusShipped

	// Ready-stock line needs no materials.
	stock := f.addOrder(orders.FlowNeedProduction, productID, 2)
	stock.Lines[0].FulfillmentType = orders.TypeReadyStock

	result, err := f.analyzer().Analyze(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result) != 0 {
		t.Errorf("expected no rows, got %+v", result)
	}
}

func TestDeficit_SortedWorstFirst(t *testing.T) {
	f := newDeficitFixture()
	productA, defA := id.New(), id.New()
	productB, defB := id.New(), id.New()
	f.addRecipe(productA, defA, 1)
	f.addRecipe(productB, defB, 1)
	f.addOrder(orders.FlowNeedMaterials, productA, 3) // deficit 3
	f.addOrder(orders.FlowNeedMaterials, productB, 9) // deficit 9

	result, err := f.analyzer().Analyze(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(result))
	}
	if result[0].DefinitionID != defB {
		t.Errorf("largest deficit should come first: %+v", result)
	}
}
