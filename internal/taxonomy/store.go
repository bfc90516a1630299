package taxonomy

import (
	"context"
	"errors"

	"stocktake-service/internal/model"

	"gorm.io/gorm"
)

// Store is the tenant-scoped data access layer for taxonomy reference data.
type Store struct {
	db *gorm.DB
}

// NewStore returns a Store backed by the given database handle.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// ListCategories retrieves all active categories for a tenant, ordered by name,
// with their subcategories attached.
func (s *Store) ListCategories(ctx context.Context, tenantID uint) ([]model.Category, error) {
	var categories []model.Category
	err := s.db.WithContext(ctx).
		Preload("Subcategories", "tenant_id = ?", tenantID).
		Where("tenant_id = ?", tenantID).
		Order("name").
		Find(&categories).Error
	return categories, err
}

// ListSubcategories retrieves all active subcategories for a tenant, ordered by name.
func (s *Store) ListSubcategories(ctx context.Context, tenantID uint) ([]model.Subcategory, error) {
	var subcategories []model.Subcategory
	err := s.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("name").
		Find(&subcategories).Error
	return subcategories, err
}

// CategoryByID retrieves one category scoped to the tenant. A missing row is
// returned as (nil, nil); it is a lookup miss, not a database failure.
func (s *Store) CategoryByID(ctx context.Context, tenantID, id uint) (*model.Category, error) {
	var category model.Category
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&category).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &category, nil
}

// SubcategoryByID retrieves one subcategory scoped to the tenant. A missing
// row is returned as (nil, nil).
func (s *Store) SubcategoryByID(ctx context.Context, tenantID, id uint) (*model.Subcategory, error) {
	var subcategory model.Subcategory
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&subcategory).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &subcategory, nil
}

// FindByPair retrieves the live subcategory matching a stored
// (name, supplier_name) snapshot, scoped to the tenant. A miss is returned as
// (nil, nil); a snapshot is allowed to outlive the row it was taken from.
func (s *Store) FindByPair(ctx context.Context, tenantID uint, name, supplierName string) (*model.Subcategory, error) {
	var subcategory model.Subcategory
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND name = ? AND supplier_name = ?", tenantID, name, supplierName).
		First(&subcategory).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &subcategory, nil
}

// CreateCategory inserts a new category row.
func (s *Store) CreateCategory(ctx context.Context, category *model.Category) error {
	return s.db.WithContext(ctx).Create(category).Error
}

// CreateSubcategory inserts a new subcategory row.
func (s *Store) CreateSubcategory(ctx context.Context, subcategory *model.Subcategory) error {
	return s.db.WithContext(ctx).Create(subcategory).Error
}

// LoadResolver loads the tenant's full taxonomy once and builds the in-memory
// lookup structure used for the lifetime of a session.
func (s *Store) LoadResolver(ctx context.Context, tenantID uint) (*Resolver, error) {
	var categories []model.Category
	if err := s.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("name").
		Find(&categories).Error; err != nil {
		return nil, err
	}

	subcategories, err := s.ListSubcategories(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	return NewResolver(categories, subcategories), nil
}
