package handler

import (
	"net/http"
	"strconv"

	"stocktake-service/internal/model"
	"stocktake-service/internal/taxonomy"
	"stocktake-service/pkg/logger"
	"stocktake-service/prometheus"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var taxonomyStore *taxonomy.Store

// InitTaxonomy wires the taxonomy store used by the taxonomy handlers
func InitTaxonomy(store *taxonomy.Store) {
	taxonomyStore = store
}

// CategoryRequest defines the structure for category creation requests
type CategoryRequest struct {
	Name    string          `json:"name" validate:"required"`
	GstRate decimal.Decimal `json:"gst_rate"`
	PstRate decimal.Decimal `json:"pst_rate"`
}

// SubcategoryRequest defines the structure for subcategory creation requests
type SubcategoryRequest struct {
	CategoryID   uint    `json:"category_id" validate:"required"`
	Name         string  `json:"name" validate:"required"`
	SupplierName string  `json:"supplier_name"`
	SizeLabel    *string `json:"size_label"`
	SizeValue    *string `json:"size_value"`
}

// ListCategories retrieves all categories for the tenant, with subcategories nested
func ListCategories(c echo.Context) error {
	log := logger.FromContext(c)

	tenantID, ok := c.Get("tenant_id").(uint)
	if !ok {
		log.Warn("Missing tenant_id in context")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant_id is required"})
	}

	categories, err := taxonomyStore.ListCategories(c.Request().Context(), tenantID)
	if err != nil {
		log.Error("Failed to retrieve categories",
			zap.Uint("tenant_id", tenantID),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to retrieve categories"})
	}

	prometheus.RecordTaxonomyOperation("list_categories")
	log.Info("Categories retrieved successfully",
		zap.Int("count", len(categories)),
		zap.Uint("tenant_id", tenantID))
	return c.JSON(http.StatusOK, categories)
}

// CreateCategory handles creating a new category with its tax rates
func CreateCategory(c echo.Context) error {
	log := logger.FromContext(c)

	tenantID, ok := c.Get("tenant_id").(uint)
	if !ok {
		log.Warn("Missing tenant_id in context")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant_id is required"})
	}

	var req CategoryRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	category := model.Category{
		TenantID: tenantID,
		Name:     req.Name,
		GstRate:  req.GstRate,
		PstRate:  req.PstRate,
		IsActive: true,
	}

	if err := taxonomyStore.CreateCategory(c.Request().Context(), &category); err != nil {
		log.Error("Failed to create category",
			zap.String("name", req.Name),
			zap.Uint("tenant_id", tenantID),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to create category"})
	}

	prometheus.RecordTaxonomyOperation("create_category")
	log.Info("Category created successfully",
		zap.Uint("category_id", category.ID),
		zap.String("name", category.Name),
		zap.Uint("tenant_id", tenantID))
	return c.JSON(http.StatusCreated, category)
}

// ListSubcategories retrieves the tenant's subcategories, optionally filtered
// by parent category
func ListSubcategories(c echo.Context) error {
	log := logger.FromContext(c)

	tenantID, ok := c.Get("tenant_id").(uint)
	if !ok {
		log.Warn("Missing tenant_id in context")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant_id is required"})
	}

	categoryParam := c.QueryParam("category_id")
	if categoryParam != "" {
		categoryID, err := strconv.ParseUint(categoryParam, 10, 32)
		if err != nil {
			log.Warn("Invalid category_id parameter", zap.String("value", categoryParam))
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid category_id"})
		}

		resolver, err := taxonomyStore.LoadResolver(c.Request().Context(), tenantID)
		if err != nil {
			log.Error("Failed to load taxonomy",
				zap.Uint("tenant_id", tenantID),
				zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to retrieve subcategories"})
		}

		subcategories := resolver.SubcategoriesFor(uint(categoryID))
		prometheus.RecordTaxonomyOperation("list_subcategories")
		log.Info("Subcategories retrieved successfully",
			zap.Int("count", len(subcategories)),
			zap.Uint64("category_id", categoryID),
			zap.Uint("tenant_id", tenantID))
		return c.JSON(http.StatusOK, subcategories)
	}

	subcategories, err := taxonomyStore.ListSubcategories(c.Request().Context(), tenantID)
	if err != nil {
		log.Error("Failed to retrieve subcategories",
			zap.Uint("tenant_id", tenantID),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to retrieve subcategories"})
	}

	prometheus.RecordTaxonomyOperation("list_subcategories")
	log.Info("Subcategories retrieved successfully",
		zap.Int("count", len(subcategories)),
		zap.Uint("tenant_id", tenantID))
	return c.JSON(http.StatusOK, subcategories)
}

// CreateSubcategory handles creating a new subcategory under a category
func CreateSubcategory(c echo.Context) error {
	log := logger.FromContext(c)

	tenantID, ok := c.Get("tenant_id").(uint)
	if !ok {
		log.Warn("Missing tenant_id in context")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant_id is required"})
	}

	var req SubcategoryRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	// The parent category must exist in this tenant
	category, err := taxonomyStore.CategoryByID(c.Request().Context(), tenantID, req.CategoryID)
	if err != nil {
		log.Error("Failed to load parent category",
			zap.Uint("category_id", req.CategoryID),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to create subcategory"})
	}
	if category == nil {
		log.Warn("Parent category not found",
			zap.Uint("category_id", req.CategoryID),
			zap.Uint("tenant_id", tenantID))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Category not found"})
	}

	subcategory := model.Subcategory{
		TenantID:     tenantID,
		CategoryID:   req.CategoryID,
		Name:         req.Name,
		SupplierName: req.SupplierName,
		SizeLabel:    req.SizeLabel,
		SizeValue:    req.SizeValue,
		IsActive:     true,
	}

	if err := taxonomyStore.CreateSubcategory(c.Request().Context(), &subcategory); err != nil {
		log.Error("Failed to create subcategory",
			zap.String("name", req.Name),
			zap.Uint("tenant_id", tenantID),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to create subcategory"})
	}

	prometheus.RecordTaxonomyOperation("create_subcategory")
	log.Info("Subcategory created successfully",
		zap.Uint("subcategory_id", subcategory.ID),
		zap.String("name", subcategory.Name),
		zap.String("supplier_name", subcategory.SupplierName),
		zap.Uint("tenant_id", tenantID))
	return c.JSON(http.StatusCreated, subcategory)
}
