package handler

import (
	"net/http"

	"stocktake-service/pkg/logger"
	"stocktake-service/pkg/vision"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

var visionClient *vision.Client

// InitVision wires the optional photo autofill client. A nil client disables
// the feature.
func InitVision(client *vision.Client) {
	visionClient = client
}

// AutofillRequest carries an encoded product photo
type AutofillRequest struct {
	ImageBase64 string `json:"image_base64" validate:"required"`
}

// Autofill extracts best-effort attribute suggestions from a product photo.
// Suggestions only prefill the draft on the client; saving still goes through
// the reconcile validation.
func Autofill(c echo.Context) error {
	log := logger.FromContext(c)

	if visionClient == nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "photo autofill is not configured"})
	}

	var req AutofillRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	suggestion, err := visionClient.Extract(c.Request().Context(), req.ImageBase64)
	if err != nil {
		log.Error("Autofill extraction failed", zap.Error(err))
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "Autofill failed"})
	}

	return c.JSON(http.StatusOK, suggestion)
}
