package stocktake

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// MasterAttributes is the shared attribute set of a bulk entry session. Every
// row in the batch is saved with these values, overlaid with the row's own
// optional fields.
type MasterAttributes struct {
	Name            string           `json:"name"`
	Model           *string          `json:"model,omitempty"`
	CategoryID      *uint            `json:"category_id,omitempty"`
	SubcategoryID   *uint            `json:"subcategory_id,omitempty"`
	SubcategoryName *string          `json:"subcategory_name,omitempty"`
	SupplierName    *string          `json:"supplier_name,omitempty"`
	SellPrice       *decimal.Decimal `json:"sell_price,omitempty"`
}

// BatchRow is one bulk entry line: its own barcode plus the per-unit fields
// that vary across a case of otherwise identical products.
type BatchRow struct {
	Barcode  string   `json:"barcode"`
	Size     *string  `json:"size,omitempty"`
	Flavor   *string  `json:"flavor,omitempty"`
	Nicotine *float64 `json:"nicotine,omitempty"`
	AddQty   int      `json:"add_qty"`
}

// RowOutcome reports one committed batch row.
type RowOutcome struct {
	Index     int    `json:"index"`
	Barcode   string `json:"barcode"`
	ProductID uint   `json:"product_id"`
	Created   bool   `json:"created"`
	Quantity  int    `json:"quantity"`
}

// RowFailure reports one failed batch row. The row's error does not abort the
// rest of the batch.
type RowFailure struct {
	Index   int    `json:"index"`
	Barcode string `json:"barcode"`
	Error   string `json:"error"`
}

// BatchResult aggregates per-row outcomes of a bulk sweep. Success is per
// row, never all-or-nothing.
type BatchResult struct {
	Committed []RowOutcome `json:"committed"`
	Failures  []RowFailure `json:"failures"`
	Skipped   int          `json:"skipped"`
}

// ReconcileBatch runs the reconcile sequence for each row with a non-empty
// barcode, sequentially, so two rows can never race on the same barcode
// within one batch. A failing row is recorded and the sweep continues; the
// batch is a best-effort pass over the rows, not a transaction.
func (e *Engine) ReconcileBatch(ctx context.Context, tenantID uint, master MasterAttributes, rows []BatchRow) (*BatchResult, error) {
	result := &BatchResult{}

	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		barcode := strings.TrimSpace(row.Barcode)
		if barcode == "" {
			result.Skipped++
			continue
		}

		draft, err := e.resolveRow(ctx, tenantID, barcode, master, row)
		if err == nil {
			var res *Result
			res, err = e.Reconcile(ctx, tenantID, draft, row.AddQty)
			if res != nil {
				// A ledger failure still saved the product; report the row as
				// failed but keep the committed identity visible for retry.
				if err == nil {
					result.Committed = append(result.Committed, RowOutcome{
						Index:     i,
						Barcode:   barcode,
						ProductID: res.ProductID,
						Created:   res.Created,
						Quantity:  res.Quantity,
					})
				}
			}
		}
		if err != nil {
			e.log.Warn("Batch row failed",
				zap.Uint("tenant_id", tenantID),
				zap.Int("row", i),
				zap.String("barcode", barcode),
				zap.Error(err))
			result.Failures = append(result.Failures, RowFailure{
				Index:   i,
				Barcode: barcode,
				Error:   err.Error(),
			})
		}
	}

	return result, nil
}

// resolveRow builds the draft for one batch row: the row's product identity,
// overlaid with the master attributes and the row's own optional fields.
func (e *Engine) resolveRow(ctx context.Context, tenantID uint, barcode string, master MasterAttributes, row BatchRow) (*Draft, error) {
	p, err := e.products.FindActiveByBarcode(ctx, tenantID, barcode)
	if err != nil {
		return nil, err
	}

	draft := &Draft{
		Barcode:         barcode,
		Name:            master.Name,
		Model:           master.Model,
		CategoryID:      master.CategoryID,
		SubcategoryID:   master.SubcategoryID,
		SubcategoryName: master.SubcategoryName,
		SupplierName:    master.SupplierName,
		SellPrice:       master.SellPrice,
		Size:            row.Size,
		Flavor:          row.Flavor,
		Nicotine:        row.Nicotine,
	}
	if p != nil {
		id := p.ID
		draft.ProductID = &id
		draft.Quantity = p.Quantity
	}
	return draft, nil
}
