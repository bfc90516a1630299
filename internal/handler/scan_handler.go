package handler

import (
	"fmt"
	"net/http"
	"time"

	"stocktake-service/internal/scan"
	"stocktake-service/internal/stocktake"
	"stocktake-service/pkg/logger"
	"stocktake-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

var (
	debouncers       *scan.SessionDebouncers
	identityResolver *stocktake.Resolver
)

// InitScan wires the debouncer registry and the identity resolver used by the
// scan handler
func InitScan(d *scan.SessionDebouncers, r *stocktake.Resolver) {
	debouncers = d
	identityResolver = r
}

// ScanRequest is one decoded scan signal from the scanning device
type ScanRequest struct {
	Code      string     `json:"code" validate:"required"`
	ScannedAt *time.Time `json:"scanned_at"`
}

// ScanResponse carries the resolved product draft for an accepted signal
type ScanResponse struct {
	Suppressed bool             `json:"suppressed"`
	New        bool             `json:"new,omitempty"`
	Draft      *stocktake.Draft `json:"draft,omitempty"`
}

// Scan handles one scan signal: debounce first, then resolve the barcode to a
// product draft. A suppressed signal performs no lookup at all.
func Scan(c echo.Context) error {
	log := logger.FromContext(c)

	tenantID, ok := c.Get("tenant_id").(uint)
	if !ok {
		log.Warn("Missing tenant_id in context")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant_id is required"})
	}
	userID, _ := c.Get("user_id").(uint)

	var req ScanRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	at := time.Now()
	if req.ScannedAt != nil {
		at = *req.ScannedAt
	}

	// Debounce per session so parallel counters don't suppress each other
	sessionKey := fmt.Sprintf("%d:%d", tenantID, userID)
	if !debouncers.Get(sessionKey).Accept(at) {
		prometheus.ScansSuppressedCounter.Inc()
		log.Info("Scan signal suppressed",
			zap.String("code", req.Code),
			zap.Uint("tenant_id", tenantID))
		return c.JSON(http.StatusTooManyRequests, ScanResponse{Suppressed: true})
	}
	prometheus.ScansAcceptedCounter.Inc()

	defer prometheus.TrackDBOperation("resolve_barcode")(time.Now())
	draft, err := identityResolver.Resolve(c.Request().Context(), tenantID, req.Code)
	if err != nil {
		log.Error("Barcode lookup failed",
			zap.String("code", req.Code),
			zap.Uint("tenant_id", tenantID),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to resolve barcode"})
	}

	// Re-match the stored snapshot to a live subcategory row, when one still
	// exists, so the client can preselect it. One targeted query; the full
	// taxonomy is only loaded where a whole session needs it.
	if draft.SubcategoryName != nil && taxonomyStore != nil {
		supplier := ""
		if draft.SupplierName != nil {
			supplier = *draft.SupplierName
		}
		sc, err := taxonomyStore.FindByPair(c.Request().Context(), tenantID, *draft.SubcategoryName, supplier)
		if err != nil {
			log.Warn("Snapshot re-match failed", zap.Error(err))
		} else if sc != nil {
			id := sc.ID
			draft.SubcategoryID = &id
		}
	}

	log.Info("Scan resolved",
		zap.String("code", req.Code),
		zap.Bool("new_product", draft.ProductID == nil),
		zap.Uint("tenant_id", tenantID))
	return c.JSON(http.StatusOK, ScanResponse{
		Suppressed: false,
		New:        draft.ProductID == nil,
		Draft:      draft,
	})
}
