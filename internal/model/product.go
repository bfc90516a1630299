package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product represents one catalog entry per tenant-scoped barcode. The
// subcategory fields are a snapshot of the subcategory chosen when the
// record was last saved; they are intentionally not a foreign key, so a
// later rename of the subcategory row does not rewrite what was recorded
// during a stock count.
//
// The barcode index is partial over active rows: at most one active product
// per (tenant, barcode), while deactivated records keep their barcode and
// stay queryable as history.
type Product struct {
	ID              uint             `json:"id" gorm:"primarykey"`
	TenantID        uint             `json:"tenant_id" gorm:"index:idx_products_tenant_barcode,unique,where:is_active,priority:1;not null;comment:'Tenant this product belongs to'"`
	Barcode         string           `json:"barcode" gorm:"type:varchar(64);index:idx_products_tenant_barcode,unique,priority:2;not null"`
	Name            string           `json:"name" gorm:"type:varchar(255);not null"`
	Model           *string          `json:"model,omitempty" gorm:"type:varchar(255)"`
	CategoryID      *uint            `json:"category_id,omitempty"`
	SubcategoryName *string          `json:"subcategory_name,omitempty" gorm:"type:varchar(255)"`
	SupplierName    *string          `json:"supplier_name,omitempty" gorm:"type:varchar(255)"`
	Size            *string          `json:"size,omitempty" gorm:"type:varchar(100)"`
	Flavor          *string          `json:"flavor,omitempty" gorm:"type:varchar(255)"`
	Nicotine        *float64         `json:"nicotine,omitempty" gorm:"comment:'mg/ml'"`
	SellPrice       *decimal.Decimal `json:"sell_price,omitempty" gorm:"type:decimal(10,2)"`
	Quantity        int              `json:"quantity" gorm:"default:0;comment:'Derived cache of the adjustment ledger sum'"`
	IsActive        bool             `json:"is_active" gorm:"default:true"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
	DeletedAt       gorm.DeletedAt   `json:"deleted_at,omitempty" gorm:"index"`
}
