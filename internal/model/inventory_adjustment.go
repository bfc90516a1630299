package model

import "time"

// InventoryAdjustment is one row of the append-only quantity ledger. Rows are
// never updated or deleted; Product.Quantity is recomputed from the sum of
// qty_added whenever a row is appended.
type InventoryAdjustment struct {
	ID        uint      `json:"id" gorm:"primarykey"`
	TenantID  uint      `json:"tenant_id" gorm:"index:idx_adjustments_tenant_product,priority:1;not null"`
	ProductID uint      `json:"product_id" gorm:"index:idx_adjustments_tenant_product,priority:2;not null"`
	QtyAdded  int       `json:"qty_added" gorm:"not null"`
	Reason    string    `json:"reason" gorm:"type:varchar(32);not null"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// AdjustmentReasonStockCount is the reason recorded for ledger rows appended
// by a stock-count reconciliation.
const AdjustmentReasonStockCount = "stock_count"
