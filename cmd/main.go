package main

import (
	"net/http"

	"stocktake-service/internal/handler"
	mid "stocktake-service/internal/middleware"
	"stocktake-service/internal/scan"
	"stocktake-service/internal/stocktake"
	"stocktake-service/internal/taxonomy"
	"stocktake-service/pkg/config"
	"stocktake-service/pkg/database"
	"stocktake-service/pkg/jwtutil"
	"stocktake-service/pkg/logger"
	"stocktake-service/pkg/vision"
	"stocktake-service/prometheus"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		// Just log a warning, don't fail if .env file is not found
		// Production environments set their variables directly
	}

	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		// Can't use structured logger yet since it's not initialized
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	logger.InitLogger(appConfig)
	log := logger.GetLogger()
	defer log.Sync()

	log.Info("Starting stocktake-service",
		zap.String("environment", appConfig.Server.Env),
		zap.String("port", appConfig.Server.Port))

	// Initialize JWT utility
	jwtutil.Initialize(&appConfig.JWT)
	log.Info("JWT utility initialized")

	// Initialize Prometheus metrics
	prometheus.InitMetrics(appConfig)
	log.Info("Prometheus metrics initialized",
		zap.String("metrics_prefix", appConfig.Metrics.Prefix))

	// Initialize database
	err = database.InitDB(appConfig)
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	log.Info("Database connection established")

	// Wire the stores and the reconciliation core
	db := database.GetDB()
	taxonomyStore := taxonomy.NewStore(db)
	productStore := stocktake.NewProductStore(db)
	ledgerStore := stocktake.NewLedgerStore(db)
	engine := stocktake.NewEngine(productStore, taxonomyStore, ledgerStore, log)
	resolver := stocktake.NewResolver(productStore)
	debouncers := scan.NewSessionDebouncers(appConfig.Scan.DebounceWindow)

	handler.InitTaxonomy(taxonomyStore)
	handler.InitStocktake(engine, productStore, ledgerStore)
	handler.InitScan(debouncers, resolver)
	handler.InitVision(vision.NewClient(&appConfig.Vision, log))
	log.Info("Reconciliation core initialized",
		zap.Duration("scan_debounce_window", appConfig.Scan.DebounceWindow),
		zap.Bool("autofill_enabled", appConfig.Vision.Endpoint != ""))

	// Initialize Echo instance
	e := echo.New()
	e.Validator = handler.NewRequestValidator()

	// Middleware
	e.Use(middleware.Recover())
	e.Use(mid.RequestIDMiddleware)
	e.Use(mid.MetricsMiddleware)

	// Routes
	// Metrics endpoint
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Health check endpoint
	e.GET("/health", handler.HealthCheck)

	// Taxonomy routes - Apply auth middleware to validate JWT and extract tenant ID
	taxonomyAPI := e.Group("/api", mid.AuthMiddleware)
	taxonomyAPI.GET("/categories", handler.ListCategories)
	taxonomyAPI.POST("/categories", handler.CreateCategory)
	taxonomyAPI.GET("/subcategories", handler.ListSubcategories)
	taxonomyAPI.POST("/subcategories", handler.CreateSubcategory)

	// Stock count routes
	stocktakeAPI := e.Group("/api", mid.AuthMiddleware)
	stocktakeAPI.POST("/scan", handler.Scan)
	stocktakeAPI.POST("/stocktake", handler.Reconcile)
	stocktakeAPI.POST("/stocktake/batch", handler.ReconcileBatch)
	stocktakeAPI.POST("/stocktake/autofill", handler.Autofill)
	stocktakeAPI.GET("/products/options", handler.ProductOptions)
	stocktakeAPI.GET("/products/:id/adjustments", handler.ListAdjustments)
	stocktakeAPI.POST("/products/:id/quantity/rebuild", handler.RebuildQuantity)
	stocktakeAPI.DELETE("/products/:id", handler.DeactivateProduct)

	// Start server
	port := appConfig.Server.Port
	log.Info("Starting server", zap.String("port", port))
	if err := e.Start(":" + port); err != nil && err != http.ErrServerClosed {
		log.Fatal("Server error", zap.Error(err))
	}
}
