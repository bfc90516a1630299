package taxonomy

import "stocktake-service/internal/model"

type snapshotKey struct {
	name     string
	supplier string
}

// Resolver holds a tenant's taxonomy loaded once per session and answers
// lookups without further database round trips. Subcategories are indexed
// both by ID and by their (name, supplier_name) pair so a product's stored
// snapshot can be matched back to a live row when one still exists.
type Resolver struct {
	categoriesByID    map[uint]model.Category
	subcategoriesByID map[uint]model.Subcategory
	byPair            map[snapshotKey]model.Subcategory
	subcategories     []model.Subcategory
}

// NewResolver builds the lookup indexes from already-loaded taxonomy rows.
// The subcategory slice order is preserved for SubcategoriesFor.
func NewResolver(categories []model.Category, subcategories []model.Subcategory) *Resolver {
	r := &Resolver{
		categoriesByID:    make(map[uint]model.Category, len(categories)),
		subcategoriesByID: make(map[uint]model.Subcategory, len(subcategories)),
		byPair:            make(map[snapshotKey]model.Subcategory, len(subcategories)),
		subcategories:     subcategories,
	}
	for _, c := range categories {
		r.categoriesByID[c.ID] = c
	}
	for _, sc := range subcategories {
		r.subcategoriesByID[sc.ID] = sc
		r.byPair[snapshotKey{name: sc.Name, supplier: sc.SupplierName}] = sc
	}
	return r
}

// CategoryByID returns the category with the given ID, if loaded.
func (r *Resolver) CategoryByID(id uint) (model.Category, bool) {
	c, ok := r.categoriesByID[id]
	return c, ok
}

// SubcategoryByID returns the subcategory with the given ID, if loaded.
func (r *Resolver) SubcategoryByID(id uint) (model.Subcategory, bool) {
	sc, ok := r.subcategoriesByID[id]
	return sc, ok
}

// MatchSnapshot finds the live subcategory row matching a product's stored
// (name, supplier_name) snapshot. The snapshot is not required to match a
// current row; a miss just means the row was renamed or removed since the
// product was saved.
func (r *Resolver) MatchSnapshot(name, supplierName string) (model.Subcategory, bool) {
	sc, ok := r.byPair[snapshotKey{name: name, supplier: supplierName}]
	return sc, ok
}

// SubcategoriesFor returns the subcategories belonging to a category, in
// load order (name-ordered when loaded through the Store).
func (r *Resolver) SubcategoriesFor(categoryID uint) []model.Subcategory {
	var out []model.Subcategory
	for _, sc := range r.subcategories {
		if sc.CategoryID == categoryID {
			out = append(out, sc)
		}
	}
	return out
}
