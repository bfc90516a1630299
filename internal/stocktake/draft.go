package stocktake

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
)

// Draft is the editable working copy of a product during a stock count. A
// draft with a nil ProductID describes a product that will be created on the
// first successful reconcile for its barcode.
//
// SubcategoryName/SupplierName are the snapshot pair and are authoritative;
// SubcategoryID is only a convenience reference to a live taxonomy row used
// when no snapshot has been chosen yet.
type Draft struct {
	ProductID       *uint            `json:"product_id,omitempty"`
	Barcode         string           `json:"barcode"`
	Name            string           `json:"name"`
	Model           *string          `json:"model,omitempty"`
	CategoryID      *uint            `json:"category_id,omitempty"`
	SubcategoryID   *uint            `json:"subcategory_id,omitempty"`
	SubcategoryName *string          `json:"subcategory_name,omitempty"`
	SupplierName    *string          `json:"supplier_name,omitempty"`
	Size            *string          `json:"size,omitempty"`
	Flavor          *string          `json:"flavor,omitempty"`
	Nicotine        *float64         `json:"nicotine,omitempty"`
	SellPrice       *decimal.Decimal `json:"sell_price,omitempty"`
	Quantity        int              `json:"quantity"`
}

// Resolver maps a scanned code to a product identity.
type Resolver struct {
	products productStore
}

// NewResolver returns a Resolver backed by the given product store.
func NewResolver(products productStore) *Resolver {
	return &Resolver{products: products}
}

// Resolve looks up an active product by (tenant, barcode). A hit returns a
// draft populated from the stored record, snapshot fields included. A miss is
// a normal outcome, not an error: it returns a fresh draft carrying only the
// barcode, signalling a to-be-created product.
func (r *Resolver) Resolve(ctx context.Context, tenantID uint, barcode string) (*Draft, error) {
	barcode = strings.TrimSpace(barcode)

	p, err := r.products.FindActiveByBarcode(ctx, tenantID, barcode)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return &Draft{Barcode: barcode}, nil
	}

	id := p.ID
	return &Draft{
		ProductID:       &id,
		Barcode:         p.Barcode,
		Name:            p.Name,
		Model:           p.Model,
		CategoryID:      p.CategoryID,
		SubcategoryName: p.SubcategoryName,
		SupplierName:    p.SupplierName,
		Size:            p.Size,
		Flavor:          p.Flavor,
		Nicotine:        p.Nicotine,
		SellPrice:       p.SellPrice,
		Quantity:        p.Quantity,
	}, nil
}
