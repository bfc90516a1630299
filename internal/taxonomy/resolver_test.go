package taxonomy

import (
	"testing"

	"stocktake-service/internal/model"
)

func testResolver() *Resolver {
	categories := []model.Category{
		{ID: 1, TenantID: 7, Name: "Disposable Vapes"},
		{ID: 2, TenantID: 7, Name: "Cigarettes"},
	}
	subcategories := []model.Subcategory{
		{ID: 10, TenantID: 7, CategoryID: 1, Name: "5% Disposables", SupplierName: "VapeCo"},
		{ID: 11, TenantID: 7, CategoryID: 1, Name: "Pods", SupplierName: "PodHouse"},
		{ID: 12, TenantID: 7, CategoryID: 2, Name: "King Size", SupplierName: "TobacInc"},
	}
	return NewResolver(categories, subcategories)
}

func TestSubcategoriesFor(t *testing.T) {
	r := testResolver()

	got := r.SubcategoriesFor(1)
	if len(got) != 2 {
		t.Fatalf("SubcategoriesFor(1) returned %d rows, want 2", len(got))
	}
	if got[0].ID != 10 || got[1].ID != 11 {
		t.Errorf("SubcategoriesFor(1) order = [%d %d], want [10 11]", got[0].ID, got[1].ID)
	}

	if got := r.SubcategoriesFor(99); len(got) != 0 {
		t.Errorf("SubcategoriesFor(99) returned %d rows, want 0", len(got))
	}
}

func TestMatchSnapshot(t *testing.T) {
	r := testResolver()

	sc, ok := r.MatchSnapshot("Pods", "PodHouse")
	if !ok {
		t.Fatal("MatchSnapshot(Pods, PodHouse) did not match")
	}
	if sc.ID != 11 {
		t.Errorf("MatchSnapshot matched ID %d, want 11", sc.ID)
	}

	// The same name under a different supplier is a different identity
	if _, ok := r.MatchSnapshot("Pods", "VapeCo"); ok {
		t.Error("MatchSnapshot(Pods, VapeCo) matched, want miss")
	}

	// A snapshot from a since-renamed row simply has no live match
	if _, ok := r.MatchSnapshot("Old Name", "PodHouse"); ok {
		t.Error("MatchSnapshot(Old Name, PodHouse) matched, want miss")
	}
}

func TestLookupsByID(t *testing.T) {
	r := testResolver()

	if c, ok := r.CategoryByID(1); !ok || c.Name != "Disposable Vapes" {
		t.Errorf("CategoryByID(1) = (%v, %v)", c, ok)
	}
	if _, ok := r.CategoryByID(42); ok {
		t.Error("CategoryByID(42) matched, want miss")
	}
	if sc, ok := r.SubcategoryByID(12); !ok || sc.Name != "King Size" {
		t.Errorf("SubcategoryByID(12) = (%v, %v)", sc, ok)
	}
}
