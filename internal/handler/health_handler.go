package handler

import (
	"net/http"

	"stocktake-service/pkg/database"

	"github.com/labstack/echo/v4"
)

// HealthCheck reports service liveness and database connectivity
func HealthCheck(c echo.Context) error {
	sqlDB, err := database.GetDB().DB()
	if err != nil || sqlDB.Ping() != nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{
			"status":   "degraded",
			"database": "unreachable",
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}
