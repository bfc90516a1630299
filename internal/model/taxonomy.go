package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Category is tenant-owned taxonomy reference data. Tax rates live here so a
// product record only needs the category reference to be priced correctly.
type Category struct {
	ID            uint            `json:"id" gorm:"primarykey"`
	TenantID      uint            `json:"tenant_id" gorm:"index;not null;comment:'Tenant this category belongs to'"`
	Name          string          `json:"name" gorm:"type:varchar(100);not null"`
	GstRate       decimal.Decimal `json:"gst_rate" gorm:"type:decimal(5,2);default:0"`
	PstRate       decimal.Decimal `json:"pst_rate" gorm:"type:decimal(5,2);default:0"`
	IsActive      bool            `json:"is_active" gorm:"default:true"`
	Subcategories []Subcategory   `json:"subcategories,omitempty" gorm:"foreignKey:CategoryID"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	DeletedAt     gorm.DeletedAt  `json:"deleted_at,omitempty" gorm:"index"`
}

// Subcategory belongs to exactly one Category. Its name is not unique within
// a tenant; the (name, supplier_name) pair is the human identity used for
// display and for matching a product's stored snapshot back to a live row.
type Subcategory struct {
	ID           uint           `json:"id" gorm:"primarykey"`
	TenantID     uint           `json:"tenant_id" gorm:"index;not null;comment:'Tenant this subcategory belongs to'"`
	CategoryID   uint           `json:"category_id" gorm:"index;not null"`
	Name         string         `json:"name" gorm:"type:varchar(100);not null"`
	SupplierName string         `json:"supplier_name" gorm:"type:varchar(255)"`
	SizeLabel    *string        `json:"size_label,omitempty" gorm:"type:varchar(50)"`
	SizeValue    *string        `json:"size_value,omitempty" gorm:"type:varchar(50)"`
	IsActive     bool           `json:"is_active" gorm:"default:true"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}
