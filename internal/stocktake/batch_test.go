package stocktake

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func validMaster() MasterAttributes {
	return MasterAttributes{
		Name:          "CloudNine",
		CategoryID:    uintPtr(1),
		SubcategoryID: uintPtr(10),
		SellPrice:     price("19.99"),
	}
}

func TestBatchCommitsEveryRow(t *testing.T) {
	engine, products, ledger := newTestEngine()

	rows := []BatchRow{
		{Barcode: "100", Flavor: strPtr("Mango"), Nicotine: f64Ptr(20), AddQty: 2},
		{Barcode: "200", Flavor: strPtr("Mint"), Nicotine: f64Ptr(35), AddQty: 3},
		{Barcode: "300", AddQty: 1},
	}

	result, err := engine.ReconcileBatch(context.Background(), testTenant, validMaster(), rows)
	if err != nil {
		t.Fatalf("ReconcileBatch: %v", err)
	}
	if len(result.Committed) != 3 || len(result.Failures) != 0 {
		t.Fatalf("committed=%d failures=%d, want 3/0", len(result.Committed), len(result.Failures))
	}
	if products.creates != 3 {
		t.Errorf("creates = %d, want 3", products.creates)
	}
	if len(ledger.entries) != 3 {
		t.Errorf("ledger entries = %d, want 3", len(ledger.entries))
	}

	// Per-row optional fields overlay the shared master attributes
	first := products.byID[result.Committed[0].ProductID]
	if first.Flavor == nil || *first.Flavor != "Mango" {
		t.Error("row flavor must be applied over the master attributes")
	}
	if first.Name != "CloudNine" {
		t.Error("master brand must be applied to every row")
	}
}

func TestBatchSkipsBlankBarcodes(t *testing.T) {
	engine, products, _ := newTestEngine()

	rows := []BatchRow{
		{Barcode: "100", AddQty: 1},
		{Barcode: "   ", AddQty: 5},
		{Barcode: "", AddQty: 5},
	}

	result, err := engine.ReconcileBatch(context.Background(), testTenant, validMaster(), rows)
	if err != nil {
		t.Fatalf("ReconcileBatch: %v", err)
	}
	if result.Skipped != 2 {
		t.Errorf("skipped = %d, want 2", result.Skipped)
	}
	if len(result.Failures) != 0 {
		t.Error("blank rows are skipped, not failed")
	}
	if products.creates != 1 {
		t.Errorf("creates = %d, want 1", products.creates)
	}
}

func TestBatchContinuesPastRowFailure(t *testing.T) {
	engine, products, ledger := newTestEngine()

	var rows []BatchRow
	for i := 1; i <= 10; i++ {
		rows = append(rows, BatchRow{Barcode: fmt.Sprintf("%03d", i), AddQty: i})
	}
	products.createErrFor["004"] = errors.New("insert rejected")

	result, err := engine.ReconcileBatch(context.Background(), testTenant, validMaster(), rows)
	if err != nil {
		t.Fatalf("ReconcileBatch: %v", err)
	}

	if len(result.Committed) != 9 {
		t.Errorf("committed = %d, want 9", len(result.Committed))
	}
	if len(result.Failures) != 1 {
		t.Fatalf("failures = %d, want 1", len(result.Failures))
	}
	if result.Failures[0].Index != 3 || result.Failures[0].Barcode != "004" {
		t.Errorf("failure = %+v, want row index 3 barcode 004", result.Failures[0])
	}
	if len(ledger.entries) != 9 {
		t.Errorf("ledger entries = %d, want 9", len(ledger.entries))
	}

	// Re-running only the failed row succeeds and duplicates nothing
	products.createErrFor = map[string]error{}
	retry, err := engine.ReconcileBatch(context.Background(), testTenant, validMaster(), []BatchRow{{Barcode: "004", AddQty: 4}})
	if err != nil {
		t.Fatalf("retry batch: %v", err)
	}
	if len(retry.Committed) != 1 || len(retry.Failures) != 0 {
		t.Fatalf("retry committed=%d failures=%d", len(retry.Committed), len(retry.Failures))
	}
	if products.creates != 10 {
		t.Errorf("creates after retry = %d, want 10", products.creates)
	}
	if len(ledger.entries) != 10 {
		t.Errorf("ledger entries after retry = %d, want 10", len(ledger.entries))
	}
}

func TestBatchRowsShareOneBarcodeSequentially(t *testing.T) {
	engine, products, _ := newTestEngine()

	// Rows are processed in order, so the second row updates the product the
	// first row created instead of racing a second insert.
	rows := []BatchRow{
		{Barcode: "100", AddQty: 2},
		{Barcode: "100", AddQty: 3},
	}

	result, err := engine.ReconcileBatch(context.Background(), testTenant, validMaster(), rows)
	if err != nil {
		t.Fatalf("ReconcileBatch: %v", err)
	}
	if len(result.Committed) != 2 {
		t.Fatalf("committed = %d, want 2", len(result.Committed))
	}
	if products.creates != 1 || products.updates != 1 {
		t.Errorf("creates=%d updates=%d, want 1/1", products.creates, products.updates)
	}
	if result.Committed[1].Quantity != 5 {
		t.Errorf("final quantity = %d, want 5", result.Committed[1].Quantity)
	}
}

func TestBatchRowValidationFailureIsPerRow(t *testing.T) {
	engine, _, _ := newTestEngine()

	master := validMaster()
	master.SellPrice = nil // every row will fail validation

	result, err := engine.ReconcileBatch(context.Background(), testTenant, master, []BatchRow{
		{Barcode: "100", AddQty: 1},
		{Barcode: "200", AddQty: 1},
	})
	if err != nil {
		t.Fatalf("ReconcileBatch: %v", err)
	}
	if len(result.Failures) != 2 {
		t.Errorf("failures = %d, want 2", len(result.Failures))
	}
}

func TestBatchStopsOnCancelledContext(t *testing.T) {
	engine, products, _ := newTestEngine()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := engine.ReconcileBatch(ctx, testTenant, validMaster(), []BatchRow{{Barcode: "100", AddQty: 1}})
	if err == nil {
		t.Fatal("expected the context error")
	}
	if len(result.Committed) != 0 || products.creates != 0 {
		t.Error("no row may run after cancellation")
	}
}
