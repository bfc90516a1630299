package stocktake

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"stocktake-service/internal/model"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type fakeProducts struct {
	nextID       uint
	byID         map[uint]*model.Product
	byBarcode    map[string]uint
	createErrFor map[string]error
	updateErr    error
	findCalls    int
	creates      int
	updates      int
}

func newFakeProducts() *fakeProducts {
	return &fakeProducts{
		byID:         make(map[uint]*model.Product),
		byBarcode:    make(map[string]uint),
		createErrFor: make(map[string]error),
	}
}

func (f *fakeProducts) FindActiveByBarcode(_ context.Context, tenantID uint, barcode string) (*model.Product, error) {
	f.findCalls++
	id, ok := f.byBarcode[barcode]
	if !ok {
		return nil, nil
	}
	p := *f.byID[id]
	if p.TenantID != tenantID || !p.IsActive {
		return nil, nil
	}
	return &p, nil
}

func (f *fakeProducts) Create(_ context.Context, p *model.Product) error {
	if err := f.createErrFor[p.Barcode]; err != nil {
		return err
	}
	// Mirrors the partial unique index: one active product per (tenant, barcode)
	for _, existing := range f.byID {
		if existing.TenantID == p.TenantID && existing.Barcode == p.Barcode && existing.IsActive {
			return errors.New("duplicate active barcode")
		}
	}
	f.creates++
	f.nextID++
	p.ID = f.nextID
	stored := *p
	f.byID[p.ID] = &stored
	f.byBarcode[p.Barcode] = p.ID
	return nil
}

func (f *fakeProducts) Update(_ context.Context, p *model.Product) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	existing, ok := f.byID[p.ID]
	if !ok {
		return errors.New("product not found")
	}
	f.updates++
	quantity := existing.Quantity
	stored := *p
	stored.Quantity = quantity
	f.byID[p.ID] = &stored
	f.byBarcode[p.Barcode] = p.ID
	return nil
}

type fakeTaxonomy struct {
	categories    map[uint]*model.Category
	subcategories map[uint]*model.Subcategory
}

func (f *fakeTaxonomy) CategoryByID(_ context.Context, tenantID, id uint) (*model.Category, error) {
	c, ok := f.categories[id]
	if !ok || c.TenantID != tenantID {
		return nil, nil
	}
	out := *c
	return &out, nil
}

func (f *fakeTaxonomy) SubcategoryByID(_ context.Context, tenantID, id uint) (*model.Subcategory, error) {
	sc, ok := f.subcategories[id]
	if !ok || sc.TenantID != tenantID {
		return nil, nil
	}
	out := *sc
	return &out, nil
}

type fakeLedger struct {
	entries  []model.InventoryAdjustment
	failNext error
	products *fakeProducts
}

func (f *fakeLedger) Append(_ context.Context, adj *model.InventoryAdjustment) (int, error) {
	if f.failNext != nil {
		err := f.failNext
		f.failNext = nil
		return 0, err
	}
	f.entries = append(f.entries, *adj)

	sum := 0
	for _, e := range f.entries {
		if e.TenantID == adj.TenantID && e.ProductID == adj.ProductID {
			sum += e.QtyAdded
		}
	}
	if p, ok := f.products.byID[adj.ProductID]; ok {
		p.Quantity = sum
	}
	return sum, nil
}

const testTenant uint = 7

func newTestEngine() (*Engine, *fakeProducts, *fakeLedger) {
	products := newFakeProducts()
	ledger := &fakeLedger{products: products}
	taxo := &fakeTaxonomy{
		categories: map[uint]*model.Category{
			1: {ID: 1, TenantID: testTenant, Name: "Disposable Vapes"},
			2: {ID: 2, TenantID: testTenant, Name: "Lighters"},
		},
		subcategories: map[uint]*model.Subcategory{
			10: {ID: 10, TenantID: testTenant, CategoryID: 1, Name: "Pods", SupplierName: "PodHouse"},
			11: {ID: 11, TenantID: testTenant, CategoryID: 1, Name: "5% Disposables", SupplierName: "VapeCo"},
			12: {ID: 12, TenantID: testTenant, CategoryID: 2, Name: "Butane Refills", SupplierName: "FlameCo"},
		},
	}
	return NewEngine(products, taxo, ledger, zap.NewNop()), products, ledger
}

func price(v string) *decimal.Decimal {
	d := decimal.RequireFromString(v)
	return &d
}

func uintPtr(v uint) *uint      { return &v }
func strPtr(v string) *string   { return &v }
func f64Ptr(v float64) *float64 { return &v }

func validDraft() *Draft {
	return &Draft{
		Barcode:       "0123456789012",
		Name:          "CloudNine",
		CategoryID:    uintPtr(1),
		SubcategoryID: uintPtr(10),
		Flavor:        strPtr("Mango Ice"),
		Nicotine:      f64Ptr(20),
		SellPrice:     price("19.99"),
	}
}

func TestReconcileValidationOrder(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Draft)
		wantField string
	}{
		{"missing name", func(d *Draft) { d.Name = "  " }, "name"},
		{"missing category", func(d *Draft) { d.CategoryID = nil }, "category_id"},
		{"unknown category", func(d *Draft) { d.CategoryID = uintPtr(99) }, "category_id"},
		{"missing subcategory", func(d *Draft) { d.SubcategoryID = nil }, "subcategory"},
		{"unknown subcategory", func(d *Draft) { d.SubcategoryID = uintPtr(99) }, "subcategory"},
		{"subcategory under wrong category", func(d *Draft) { d.SubcategoryID = uintPtr(12) }, "subcategory"},
		{"missing sell price", func(d *Draft) { d.SellPrice = nil }, "sell_price"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine, products, ledger := newTestEngine()
			draft := validDraft()
			tt.mutate(draft)

			_, err := engine.Reconcile(context.Background(), testTenant, draft, 5)
			ve, ok := IsValidationError(err)
			if !ok {
				t.Fatalf("want ValidationError, got %v", err)
			}
			if ve.Field != tt.wantField {
				t.Errorf("failed field = %q, want %q", ve.Field, tt.wantField)
			}
			if products.creates != 0 || products.updates != 0 {
				t.Error("validation failure must not write a product")
			}
			if len(ledger.entries) != 0 {
				t.Error("validation failure must not append to the ledger")
			}
		})
	}
}

func TestReconcileRejectsNegativeQuantity(t *testing.T) {
	engine, _, ledger := newTestEngine()

	_, err := engine.Reconcile(context.Background(), testTenant, validDraft(), -1)
	ve, ok := IsValidationError(err)
	if !ok || ve.Field != "add_qty" {
		t.Fatalf("want add_qty ValidationError, got %v", err)
	}
	if len(ledger.entries) != 0 {
		t.Error("rejected quantity must not reach the ledger")
	}
}

func TestReconcileCreatesProductAndAppendsLedger(t *testing.T) {
	engine, products, ledger := newTestEngine()

	result, err := engine.Reconcile(context.Background(), testTenant, validDraft(), 12)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if !result.Created {
		t.Error("expected a created product")
	}
	if result.Quantity != 12 {
		t.Errorf("quantity = %d, want 12", result.Quantity)
	}

	p := products.byID[result.ProductID]
	if p == nil {
		t.Fatal("product not persisted")
	}
	if p.SubcategoryName == nil || *p.SubcategoryName != "Pods" {
		t.Errorf("subcategory snapshot = %v, want Pods", p.SubcategoryName)
	}
	if p.SupplierName == nil || *p.SupplierName != "PodHouse" {
		t.Errorf("supplier snapshot = %v, want PodHouse", p.SupplierName)
	}
	if p.Flavor == nil || *p.Flavor != "Mango Ice" {
		t.Error("vape category must keep the flavor")
	}
	if p.Nicotine == nil || *p.Nicotine != 20 {
		t.Error("Pods subcategory must keep the nicotine strength")
	}

	if len(ledger.entries) != 1 {
		t.Fatalf("ledger entries = %d, want 1", len(ledger.entries))
	}
	entry := ledger.entries[0]
	if entry.QtyAdded != 12 || entry.Reason != model.AdjustmentReasonStockCount {
		t.Errorf("ledger entry = %+v", entry)
	}
	if entry.TenantID != testTenant {
		t.Errorf("ledger tenant = %d, want %d", entry.TenantID, testTenant)
	}
}

func TestReconcileAccumulatesQuantityAcrossSaves(t *testing.T) {
	engine, products, ledger := newTestEngine()
	ctx := context.Background()

	first, err := engine.Reconcile(ctx, testTenant, validDraft(), 3)
	if err != nil {
		t.Fatalf("first reconcile: %v", err)
	}

	// Second count for the same barcode starts from the resolved draft
	draft := validDraft()
	draft.ProductID = &first.ProductID
	second, err := engine.Reconcile(ctx, testTenant, draft, 4)
	if err != nil {
		t.Fatalf("second reconcile: %v", err)
	}

	if second.Quantity != 7 {
		t.Errorf("accumulated quantity = %d, want 7", second.Quantity)
	}
	if products.byID[first.ProductID].Quantity != 7 {
		t.Errorf("cached quantity = %d, want 7", products.byID[first.ProductID].Quantity)
	}
	if len(ledger.entries) != 2 {
		t.Fatalf("ledger entries = %d, want 2", len(ledger.entries))
	}
	if ledger.entries[0].QtyAdded+ledger.entries[1].QtyAdded != 7 {
		t.Error("ledger entries must sum to the accumulated quantity")
	}
}

func TestReconcileNullsAttributesTheTaxonomyHides(t *testing.T) {
	engine, products, _ := newTestEngine()

	// Lighters are not a vape category and Butane Refills carry no nicotine;
	// values left in the draft must not be persisted.
	draft := validDraft()
	draft.CategoryID = uintPtr(2)
	draft.SubcategoryID = uintPtr(12)

	result, err := engine.Reconcile(context.Background(), testTenant, draft, 1)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}

	p := products.byID[result.ProductID]
	if p.Flavor != nil {
		t.Errorf("flavor = %v, want nil for a non-vape category", *p.Flavor)
	}
	if p.Nicotine != nil {
		t.Errorf("nicotine = %v, want nil for a non-nicotine subcategory", *p.Nicotine)
	}
}

func TestReconcileKeepsStoredSnapshotOnResave(t *testing.T) {
	engine, products, _ := newTestEngine()
	ctx := context.Background()

	result, err := engine.Reconcile(ctx, testTenant, validDraft(), 1)
	if err != nil {
		t.Fatalf("first reconcile: %v", err)
	}

	// The draft of a re-save carries the stored snapshot pair; even though the
	// live row's supplier has since changed, the recorded history must not.
	draft := validDraft()
	draft.ProductID = &result.ProductID
	draft.SubcategoryID = nil
	draft.SubcategoryName = strPtr("Pods")
	draft.SupplierName = strPtr("PodHouse")

	if _, err := engine.Reconcile(ctx, testTenant, draft, 0); err != nil {
		t.Fatalf("re-save: %v", err)
	}

	p := products.byID[result.ProductID]
	if *p.SubcategoryName != "Pods" || *p.SupplierName != "PodHouse" {
		t.Errorf("snapshot changed on re-save: (%s, %s)", *p.SubcategoryName, *p.SupplierName)
	}
}

func TestReconcileEditOnlySaveSkipsLedger(t *testing.T) {
	engine, products, ledger := newTestEngine()

	result, err := engine.Reconcile(context.Background(), testTenant, validDraft(), 0)
	if err != nil {
		t.Fatalf("edit-only save: %v", err)
	}
	if products.byID[result.ProductID] == nil {
		t.Fatal("edit-only save must still persist the product")
	}
	if len(ledger.entries) != 0 {
		t.Error("edit-only save must not append a ledger row")
	}
}

func TestReconcileUpsertFailureSkipsLedger(t *testing.T) {
	engine, products, ledger := newTestEngine()
	products.createErrFor["0123456789012"] = errors.New("insert rejected")

	_, err := engine.Reconcile(context.Background(), testTenant, validDraft(), 5)
	if err == nil {
		t.Fatal("expected an error from the failed upsert")
	}
	if _, ok := IsValidationError(err); ok {
		t.Error("persistence failure must not be reported as a validation error")
	}
	if len(ledger.entries) != 0 {
		t.Error("a failed upsert must leave no orphan ledger entries")
	}
}

func TestReconcileLedgerFailureIsRetryable(t *testing.T) {
	engine, products, ledger := newTestEngine()
	ledger.failNext = errors.New("connection reset")

	result, err := engine.Reconcile(context.Background(), testTenant, validDraft(), 5)
	if !errors.Is(err, ErrLedgerAppend) {
		t.Fatalf("want ErrLedgerAppend, got %v", err)
	}
	if result == nil || result.ProductID == 0 {
		t.Fatal("ledger failure must still report the saved product ID for retry")
	}
	if products.byID[result.ProductID] == nil {
		t.Error("product save must survive the ledger failure")
	}

	// Retrying just the add succeeds and does not duplicate the product
	draft := validDraft()
	draft.ProductID = &result.ProductID
	retried, err := engine.Reconcile(context.Background(), testTenant, draft, 5)
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if retried.Quantity != 5 {
		t.Errorf("quantity after retry = %d, want 5", retried.Quantity)
	}
	if products.creates != 1 {
		t.Errorf("creates = %d, want 1", products.creates)
	}
}

func TestReconcileReusesBarcodeOfDeactivatedProduct(t *testing.T) {
	engine, products, _ := newTestEngine()
	ctx := context.Background()

	first, err := engine.Reconcile(ctx, testTenant, validDraft(), 3)
	if err != nil {
		t.Fatalf("seed reconcile: %v", err)
	}
	products.byID[first.ProductID].IsActive = false

	// The deactivated record frees its barcode: scanning it resolves to a
	// fresh draft and the create succeeds against the active-only uniqueness.
	resolver := NewResolver(products)
	draft, err := resolver.Resolve(ctx, testTenant, "0123456789012")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if draft.ProductID != nil {
		t.Fatal("a deactivated product must resolve as a new one")
	}

	second, err := engine.Reconcile(ctx, testTenant, validDraft(), 2)
	if err != nil {
		t.Fatalf("recreating a freed barcode: %v", err)
	}
	if second.ProductID == first.ProductID {
		t.Error("recreation must produce a new record, not revive the old one")
	}
	if !second.Created {
		t.Error("recreation must report a created product")
	}
}

func TestResolverReturnsFreshDraftOnMiss(t *testing.T) {
	_, products, _ := newTestEngine()
	resolver := NewResolver(products)

	draft, err := resolver.Resolve(context.Background(), testTenant, " 555000111222 ")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if draft.ProductID != nil {
		t.Error("a miss must produce a draft without an identity")
	}
	if draft.Barcode != "555000111222" {
		t.Errorf("barcode = %q, want trimmed code", draft.Barcode)
	}
	if draft.Name != "" || draft.CategoryID != nil || draft.SellPrice != nil {
		t.Error("a fresh draft must carry only the barcode")
	}
}

func TestResolverPopulatesDraftFromStoredProduct(t *testing.T) {
	engine, products, _ := newTestEngine()
	result, err := engine.Reconcile(context.Background(), testTenant, validDraft(), 9)
	if err != nil {
		t.Fatalf("seed reconcile: %v", err)
	}

	resolver := NewResolver(products)
	draft, err := resolver.Resolve(context.Background(), testTenant, "0123456789012")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if draft.ProductID == nil || *draft.ProductID != result.ProductID {
		t.Fatal("draft must carry the stored product identity")
	}
	if draft.Name != "CloudNine" {
		t.Errorf("name = %q", draft.Name)
	}
	if draft.SubcategoryName == nil || *draft.SubcategoryName != "Pods" {
		t.Error("draft must carry the stored snapshot")
	}
	if draft.Quantity != 9 {
		t.Errorf("quantity = %d, want 9", draft.Quantity)
	}
}

func TestResolverScopesLookupToTenant(t *testing.T) {
	engine, products, _ := newTestEngine()
	if _, err := engine.Reconcile(context.Background(), testTenant, validDraft(), 1); err != nil {
		t.Fatalf("seed reconcile: %v", err)
	}

	resolver := NewResolver(products)
	draft, err := resolver.Resolve(context.Background(), testTenant+1, "0123456789012")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if draft.ProductID != nil {
		t.Error("another tenant must not see this tenant's product")
	}
}

func TestReconcileUnknownTenantCategory(t *testing.T) {
	engine, _, _ := newTestEngine()

	// Same category ID, wrong tenant: the category lookup must miss
	_, err := engine.Reconcile(context.Background(), testTenant+1, validDraft(), 1)
	ve, ok := IsValidationError(err)
	if !ok || ve.Field != "category_id" {
		t.Fatalf("want category_id ValidationError for foreign tenant, got %v", err)
	}
}

func ExampleValidationError() {
	err := &ValidationError{Field: "sell_price", Message: "sell price is required"}
	fmt.Println(err)
	// Output: validation failed on sell_price: sell price is required
}
