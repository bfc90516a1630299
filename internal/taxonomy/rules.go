package taxonomy

import "strings"

// AttributeRequirement identifies an optional product attribute that a
// taxonomy name calls for.
type AttributeRequirement int

const (
	RequireNone AttributeRequirement = iota
	RequireFlavor
	RequireNicotine
)

// The requirement rules are heuristic, name-based classifications, not stored
// taxonomy flags. The token lists below are load-bearing: matching is a
// case-insensitive substring check, and the exact sets decide which fields the
// operator is asked for, so changing them changes what gets persisted.
var requirementTokens = map[AttributeRequirement][]string{
	// Matched against the category name.
	RequireFlavor: {"vape", "disposable", "pod", "eliquid", "ejuice", "e-juice", "juice"},
	// Matched against the subcategory name.
	RequireNicotine: {"eliquid", "ejuice", "e-juice", "pod", "pods"},
}

func nameMatches(name string, requirement AttributeRequirement) bool {
	x := strings.ToLower(name)
	// Names like "E-Liquid" are spelled with and without the hyphen across
	// tenants; match the dehyphenated form too so both spellings classify
	// the same way.
	stripped := strings.ReplaceAll(x, "-", "")
	for _, token := range requirementTokens[requirement] {
		if strings.Contains(x, token) || strings.Contains(stripped, token) {
			return true
		}
	}
	return false
}

// RequiresFlavor reports whether products in a category with this name carry
// an optional flavor attribute.
func RequiresFlavor(categoryName string) bool {
	return nameMatches(categoryName, RequireFlavor)
}

// RequiresNicotine reports whether products in a subcategory with this name
// carry an optional nicotine strength attribute.
func RequiresNicotine(subcategoryName string) bool {
	return nameMatches(subcategoryName, RequireNicotine)
}
