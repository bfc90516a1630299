package stocktake

import (
	"context"
	"fmt"
	"strings"

	"stocktake-service/internal/model"
	"stocktake-service/internal/taxonomy"

	"go.uber.org/zap"
)

type productStore interface {
	FindActiveByBarcode(ctx context.Context, tenantID uint, barcode string) (*model.Product, error)
	Create(ctx context.Context, p *model.Product) error
	Update(ctx context.Context, p *model.Product) error
}

type taxonomyLookup interface {
	CategoryByID(ctx context.Context, tenantID, id uint) (*model.Category, error)
	SubcategoryByID(ctx context.Context, tenantID, id uint) (*model.Subcategory, error)
}

type ledgerStore interface {
	Append(ctx context.Context, adj *model.InventoryAdjustment) (int, error)
}

// Engine runs the reconcile sequence: validate the draft, upsert the product,
// then append the quantity change to the ledger. Each step only starts after
// the previous one succeeded.
type Engine struct {
	products productStore
	taxonomy taxonomyLookup
	ledger   ledgerStore
	log      *zap.Logger
}

// NewEngine wires a reconciliation engine from its stores.
func NewEngine(products productStore, taxonomy taxonomyLookup, ledger ledgerStore, log *zap.Logger) *Engine {
	return &Engine{
		products: products,
		taxonomy: taxonomy,
		ledger:   ledger,
		log:      log,
	}
}

// Result reports a successful (or partially successful) reconcile.
type Result struct {
	ProductID uint `json:"product_id"`
	Created   bool `json:"created"`
	Quantity  int  `json:"quantity"`
}

// Reconcile validates a draft and persists it, then records addQty in the
// quantity ledger. addQty == 0 is an edit-only save: the product is updated
// and no ledger row is written. Validation failures return before any write.
// A ledger failure after the product was saved is wrapped with ErrLedgerAppend
// and still carries the saved product ID so the operator can retry the add.
func (e *Engine) Reconcile(ctx context.Context, tenantID uint, draft *Draft, addQty int) (*Result, error) {
	if strings.TrimSpace(draft.Name) == "" {
		return nil, &ValidationError{Field: "name", Message: "brand name is required"}
	}

	if draft.CategoryID == nil {
		return nil, &ValidationError{Field: "category_id", Message: "category is required"}
	}
	category, err := e.taxonomy.CategoryByID(ctx, tenantID, *draft.CategoryID)
	if err != nil {
		return nil, fmt.Errorf("loading category: %w", err)
	}
	if category == nil {
		return nil, &ValidationError{Field: "category_id", Message: "category not found"}
	}

	subcategoryName, supplierName, err := e.resolveSnapshot(ctx, tenantID, draft)
	if err != nil {
		return nil, err
	}

	if draft.SellPrice == nil {
		return nil, &ValidationError{Field: "sell_price", Message: "sell price is required"}
	}

	if addQty < 0 {
		return nil, &ValidationError{Field: "add_qty", Message: "quantity to add must not be negative"}
	}

	payload := e.buildPayload(tenantID, draft, category, subcategoryName, supplierName)

	created := draft.ProductID == nil
	if created {
		if err := e.products.Create(ctx, payload); err != nil {
			return nil, fmt.Errorf("creating product: %w", err)
		}
	} else {
		payload.ID = *draft.ProductID
		if err := e.products.Update(ctx, payload); err != nil {
			return nil, fmt.Errorf("updating product: %w", err)
		}
	}

	result := &Result{ProductID: payload.ID, Created: created, Quantity: draft.Quantity}

	if addQty > 0 {
		total, err := e.ledger.Append(ctx, &model.InventoryAdjustment{
			TenantID:  tenantID,
			ProductID: payload.ID,
			QtyAdded:  addQty,
			Reason:    model.AdjustmentReasonStockCount,
		})
		if err != nil {
			e.log.Error("Ledger append failed after product save",
				zap.Uint("tenant_id", tenantID),
				zap.Uint("product_id", payload.ID),
				zap.Int("add_qty", addQty),
				zap.Error(err))
			return result, fmt.Errorf("%w: %v", ErrLedgerAppend, err)
		}
		result.Quantity = total
	}

	return result, nil
}

// resolveSnapshot settles the subcategory snapshot pair for a draft. An
// already-present snapshot is used verbatim, so re-saving a product does not
// pick up later renames of the live subcategory row. Only a draft without a
// snapshot falls back to the live row referenced by SubcategoryID.
func (e *Engine) resolveSnapshot(ctx context.Context, tenantID uint, draft *Draft) (string, string, error) {
	if draft.SubcategoryName != nil && strings.TrimSpace(*draft.SubcategoryName) != "" {
		supplier := ""
		if draft.SupplierName != nil {
			supplier = *draft.SupplierName
		}
		return *draft.SubcategoryName, supplier, nil
	}

	if draft.SubcategoryID == nil {
		return "", "", &ValidationError{Field: "subcategory", Message: "subcategory is required"}
	}

	subcategory, err := e.taxonomy.SubcategoryByID(ctx, tenantID, *draft.SubcategoryID)
	if err != nil {
		return "", "", fmt.Errorf("loading subcategory: %w", err)
	}
	if subcategory == nil {
		return "", "", &ValidationError{Field: "subcategory", Message: "subcategory not found"}
	}
	if draft.CategoryID != nil && subcategory.CategoryID != *draft.CategoryID {
		return "", "", &ValidationError{Field: "subcategory", Message: "subcategory does not belong to the selected category"}
	}

	return subcategory.Name, subcategory.SupplierName, nil
}

// buildPayload assembles the persisted product row. Attributes the taxonomy
// rules do not call for are persisted as null even when the draft carries a
// value, so stale irrelevant data never survives a category change.
func (e *Engine) buildPayload(tenantID uint, draft *Draft, category *model.Category, subcategoryName, supplierName string) *model.Product {
	p := &model.Product{
		TenantID:        tenantID,
		Barcode:         draft.Barcode,
		Name:            strings.TrimSpace(draft.Name),
		Model:           draft.Model,
		CategoryID:      draft.CategoryID,
		SubcategoryName: &subcategoryName,
		Size:            draft.Size,
		SellPrice:       draft.SellPrice,
		IsActive:        true,
	}

	if supplierName != "" {
		p.SupplierName = &supplierName
	}
	if taxonomy.RequiresFlavor(category.Name) {
		p.Flavor = draft.Flavor
	}
	if taxonomy.RequiresNicotine(subcategoryName) {
		p.Nicotine = draft.Nicotine
	}

	return p
}
