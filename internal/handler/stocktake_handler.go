package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"stocktake-service/internal/stocktake"
	"stocktake-service/pkg/logger"
	"stocktake-service/prometheus"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	engine       *stocktake.Engine
	productStore *stocktake.ProductStore
	ledgerStore  *stocktake.LedgerStore
)

// InitStocktake wires the reconciliation engine and its stores into the
// stocktake handlers
func InitStocktake(e *stocktake.Engine, products *stocktake.ProductStore, ledger *stocktake.LedgerStore) {
	engine = e
	productStore = products
	ledgerStore = ledger
}

// ReconcileRequest carries the edited draft plus the quantity to add.
// Either the subcategory snapshot pair (unchanged re-save) or subcategory_id
// (a fresh choice) identifies the subcategory.
type ReconcileRequest struct {
	ProductID       *uint            `json:"product_id"`
	Barcode         string           `json:"barcode" validate:"required"`
	Name            string           `json:"name"`
	Model           *string          `json:"model"`
	CategoryID      *uint            `json:"category_id"`
	SubcategoryID   *uint            `json:"subcategory_id"`
	SubcategoryName *string          `json:"subcategory_name"`
	SupplierName    *string          `json:"supplier_name"`
	Size            *string          `json:"size"`
	Flavor          *string          `json:"flavor"`
	Nicotine        *float64         `json:"nicotine"`
	SellPrice       *decimal.Decimal `json:"sell_price"`
	AddQty          int              `json:"add_qty" validate:"gte=0"`
}

func (r *ReconcileRequest) draft() *stocktake.Draft {
	return &stocktake.Draft{
		ProductID:       r.ProductID,
		Barcode:         r.Barcode,
		Name:            r.Name,
		Model:           r.Model,
		CategoryID:      r.CategoryID,
		SubcategoryID:   r.SubcategoryID,
		SubcategoryName: r.SubcategoryName,
		SupplierName:    r.SupplierName,
		Size:            r.Size,
		Flavor:          r.Flavor,
		Nicotine:        r.Nicotine,
		SellPrice:       r.SellPrice,
	}
}

// Reconcile validates and saves one product draft, then records the quantity
// change in the adjustment ledger
func Reconcile(c echo.Context) error {
	log := logger.FromContext(c)

	tenantID, ok := c.Get("tenant_id").(uint)
	if !ok {
		log.Warn("Missing tenant_id in context")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant_id is required"})
	}

	var req ReconcileRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	log.Info("Reconciling product",
		zap.String("barcode", req.Barcode),
		zap.Int("add_qty", req.AddQty),
		zap.Uint("tenant_id", tenantID))

	defer prometheus.TrackDBOperation("reconcile")(time.Now())
	result, err := engine.Reconcile(c.Request().Context(), tenantID, req.draft(), req.AddQty)
	if err != nil {
		if ve, ok := stocktake.IsValidationError(err); ok {
			prometheus.RecordReconcileOperation("validation_failed")
			log.Warn("Reconcile validation failed",
				zap.String("field", ve.Field),
				zap.String("barcode", req.Barcode))
			return c.JSON(http.StatusUnprocessableEntity, echo.Map{
				"error": ve.Message,
				"field": ve.Field,
			})
		}
		if errors.Is(err, stocktake.ErrLedgerAppend) {
			// The product row is saved; only the quantity add needs a retry
			prometheus.RecordReconcileOperation("ledger_failed")
			log.Error("Ledger append failed",
				zap.String("barcode", req.Barcode),
				zap.Uint("product_id", result.ProductID),
				zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{
				"error":      "Product saved but quantity not recorded, retry the add",
				"retryable":  true,
				"product_id": result.ProductID,
			})
		}
		prometheus.RecordReconcileOperation("persistence_failed")
		log.Error("Reconcile failed",
			zap.String("barcode", req.Barcode),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to save product"})
	}

	prometheus.RecordReconcileOperation("saved")
	if req.AddQty > 0 {
		prometheus.RecordLedgerAppend(req.AddQty)
	}

	log.Info("Product reconciled successfully",
		zap.Uint("product_id", result.ProductID),
		zap.Bool("created", result.Created),
		zap.Int("quantity", result.Quantity),
		zap.Uint("tenant_id", tenantID))

	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	return c.JSON(status, result)
}

// BatchRequest is one bulk entry sweep: shared master attributes plus the rows
type BatchRequest struct {
	Master stocktake.MasterAttributes `json:"master"`
	Rows   []stocktake.BatchRow       `json:"rows" validate:"required"`
}

// ReconcileBatch runs the reconcile sequence over every bulk entry row
func ReconcileBatch(c echo.Context) error {
	log := logger.FromContext(c)

	tenantID, ok := c.Get("tenant_id").(uint)
	if !ok {
		log.Warn("Missing tenant_id in context")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant_id is required"})
	}

	var req BatchRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	log.Info("Reconciling batch",
		zap.Int("rows", len(req.Rows)),
		zap.Uint("tenant_id", tenantID))

	defer prometheus.TrackDBOperation("reconcile_batch")(time.Now())
	result, err := engine.ReconcileBatch(c.Request().Context(), tenantID, req.Master, req.Rows)
	if err != nil {
		log.Error("Batch aborted", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Batch aborted"})
	}

	for range result.Committed {
		prometheus.RecordBatchRow("committed")
	}
	for range result.Failures {
		prometheus.RecordBatchRow("failed")
	}
	for i := 0; i < result.Skipped; i++ {
		prometheus.RecordBatchRow("skipped")
	}

	log.Info("Batch reconciled",
		zap.Int("committed", len(result.Committed)),
		zap.Int("failed", len(result.Failures)),
		zap.Int("skipped", result.Skipped),
		zap.Uint("tenant_id", tenantID))
	return c.JSON(http.StatusOK, result)
}

// ProductOptions returns the distinct brand names and models recorded for the
// tenant, for pick lists during data entry
func ProductOptions(c echo.Context) error {
	log := logger.FromContext(c)

	tenantID, ok := c.Get("tenant_id").(uint)
	if !ok {
		log.Warn("Missing tenant_id in context")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant_id is required"})
	}

	names, models, err := productStore.DistinctOptions(c.Request().Context(), tenantID)
	if err != nil {
		log.Error("Failed to retrieve product options",
			zap.Uint("tenant_id", tenantID),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to retrieve product options"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"names":  names,
		"models": models,
	})
}

// ListAdjustments returns the quantity ledger rows for one product, newest first
func ListAdjustments(c echo.Context) error {
	log := logger.FromContext(c)

	tenantID, ok := c.Get("tenant_id").(uint)
	if !ok {
		log.Warn("Missing tenant_id in context")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant_id is required"})
	}

	productID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid product id"})
	}

	entries, err := ledgerStore.Entries(c.Request().Context(), tenantID, uint(productID))
	if err != nil {
		log.Error("Failed to retrieve adjustments",
			zap.Uint64("product_id", productID),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to retrieve adjustments"})
	}

	// The ledger sum is the authoritative quantity, not the cached column
	total, err := ledgerStore.Sum(c.Request().Context(), tenantID, uint(productID))
	if err != nil {
		log.Error("Failed to sum adjustments",
			zap.Uint64("product_id", productID),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to retrieve adjustments"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"entries": entries,
		"total":   total,
	})
}

// RebuildQuantity re-derives a product's cached quantity from its ledger sum
func RebuildQuantity(c echo.Context) error {
	log := logger.FromContext(c)

	tenantID, ok := c.Get("tenant_id").(uint)
	if !ok {
		log.Warn("Missing tenant_id in context")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant_id is required"})
	}

	productID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid product id"})
	}

	quantity, err := ledgerStore.RebuildQuantity(c.Request().Context(), tenantID, uint(productID))
	if err != nil {
		log.Error("Failed to rebuild quantity",
			zap.Uint64("product_id", productID),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to rebuild quantity"})
	}

	log.Info("Quantity rebuilt from ledger",
		zap.Uint64("product_id", productID),
		zap.Int("quantity", quantity),
		zap.Uint("tenant_id", tenantID))
	return c.JSON(http.StatusOK, echo.Map{"product_id": productID, "quantity": quantity})
}

// DeactivateProduct soft-disables a product; records are never deleted
func DeactivateProduct(c echo.Context) error {
	log := logger.FromContext(c)

	tenantID, ok := c.Get("tenant_id").(uint)
	if !ok {
		log.Warn("Missing tenant_id in context")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant_id is required"})
	}

	productID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid product id"})
	}

	if err := productStore.Deactivate(c.Request().Context(), tenantID, uint(productID)); err != nil {
		log.Error("Failed to deactivate product",
			zap.Uint64("product_id", productID),
			zap.Error(err))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Product not found"})
	}

	log.Info("Product deactivated",
		zap.Uint64("product_id", productID),
		zap.Uint("tenant_id", tenantID))
	return c.JSON(http.StatusOK, echo.Map{"message": "Product deactivated"})
}
