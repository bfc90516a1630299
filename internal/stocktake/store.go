package stocktake

import (
	"context"
	"errors"

	"stocktake-service/internal/model"

	"gorm.io/gorm"
)

// ProductStore is the GORM-backed product data access layer.
type ProductStore struct {
	db *gorm.DB
}

// NewProductStore returns a ProductStore backed by the given database handle.
func NewProductStore(db *gorm.DB) *ProductStore {
	return &ProductStore{db: db}
}

// FindActiveByBarcode looks up the active product for (tenant, barcode). A
// miss is returned as (nil, nil): absence of a match signals a new product,
// not a failure.
func (s *ProductStore) FindActiveByBarcode(ctx context.Context, tenantID uint, barcode string) (*model.Product, error) {
	var p model.Product
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND barcode = ? AND is_active = ?", tenantID, barcode, true).
		First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Create inserts a new product row.
func (s *ProductStore) Create(ctx context.Context, p *model.Product) error {
	return s.db.WithContext(ctx).Create(p).Error
}

// Update rewrites all mutable fields of an existing product by ID. Optional
// fields are written through a column map so a nil value clears the stored
// column instead of being skipped. Quantity is owned by the ledger and is
// never written here.
func (s *ProductStore) Update(ctx context.Context, p *model.Product) error {
	result := s.db.WithContext(ctx).
		Model(&model.Product{}).
		Where("id = ? AND tenant_id = ?", p.ID, p.TenantID).
		Updates(map[string]interface{}{
			"barcode":          p.Barcode,
			"name":             p.Name,
			"model":            p.Model,
			"category_id":      p.CategoryID,
			"subcategory_name": p.SubcategoryName,
			"supplier_name":    p.SupplierName,
			"size":             p.Size,
			"flavor":           p.Flavor,
			"nicotine":         p.Nicotine,
			"sell_price":       p.SellPrice,
			"is_active":        p.IsActive,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Deactivate soft-disables a product. Rows are never physically deleted; the
// barcode frees up for a future active record while history stays intact.
func (s *ProductStore) Deactivate(ctx context.Context, tenantID, id uint) error {
	result := s.db.WithContext(ctx).
		Model(&model.Product{}).
		Where("id = ? AND tenant_id = ?", id, tenantID).
		Update("is_active", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DistinctOptions returns the distinct non-empty brand names and models for a
// tenant, used to prefill pick lists during data entry.
func (s *ProductStore) DistinctOptions(ctx context.Context, tenantID uint) (names []string, models []string, err error) {
	err = s.db.WithContext(ctx).
		Model(&model.Product{}).
		Where("tenant_id = ? AND name <> ''", tenantID).
		Distinct().
		Order("name").
		Pluck("name", &names).Error
	if err != nil {
		return nil, nil, err
	}

	err = s.db.WithContext(ctx).
		Model(&model.Product{}).
		Where("tenant_id = ? AND model IS NOT NULL AND model <> ''", tenantID).
		Distinct().
		Order("model").
		Pluck("model", &models).Error
	if err != nil {
		return nil, nil, err
	}

	return names, models, nil
}

// LedgerStore is the GORM-backed quantity ledger. Rows are append-only; the
// cached Product.Quantity is refreshed from the ledger sum in the same
// transaction as each append.
type LedgerStore struct {
	db *gorm.DB
}

// NewLedgerStore returns a LedgerStore backed by the given database handle.
func NewLedgerStore(db *gorm.DB) *LedgerStore {
	return &LedgerStore{db: db}
}

// Append inserts one adjustment row, recomputes the ledger sum for the
// product and caches it on the product row, all in one transaction. It
// returns the new total.
func (s *LedgerStore) Append(ctx context.Context, adj *model.InventoryAdjustment) (int, error) {
	var total int
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(adj).Error; err != nil {
			return err
		}

		sum, err := ledgerSum(tx, adj.TenantID, adj.ProductID)
		if err != nil {
			return err
		}

		if err := tx.Model(&model.Product{}).
			Where("id = ? AND tenant_id = ?", adj.ProductID, adj.TenantID).
			Update("quantity", sum).Error; err != nil {
			return err
		}

		total = sum
		return nil
	})
	return total, err
}

// Sum returns the current ledger total for a product.
func (s *LedgerStore) Sum(ctx context.Context, tenantID, productID uint) (int, error) {
	return ledgerSum(s.db.WithContext(ctx), tenantID, productID)
}

// RebuildQuantity re-derives the cached quantity from the ledger. The cache is
// never independent truth; this restores it after any suspected drift.
func (s *LedgerStore) RebuildQuantity(ctx context.Context, tenantID, productID uint) (int, error) {
	var total int
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sum, err := ledgerSum(tx, tenantID, productID)
		if err != nil {
			return err
		}
		if err := tx.Model(&model.Product{}).
			Where("id = ? AND tenant_id = ?", productID, tenantID).
			Update("quantity", sum).Error; err != nil {
			return err
		}
		total = sum
		return nil
	})
	return total, err
}

// Entries lists the ledger rows for a product, newest first.
func (s *LedgerStore) Entries(ctx context.Context, tenantID, productID uint) ([]model.InventoryAdjustment, error) {
	var entries []model.InventoryAdjustment
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND product_id = ?", tenantID, productID).
		Order("created_at DESC").
		Find(&entries).Error
	return entries, err
}

func ledgerSum(tx *gorm.DB, tenantID, productID uint) (int, error) {
	var row struct {
		Total int
	}
	err := tx.Model(&model.InventoryAdjustment{}).
		Select("COALESCE(SUM(qty_added), 0) AS total").
		Where("tenant_id = ? AND product_id = ?", tenantID, productID).
		Scan(&row).Error
	return row.Total, err
}
