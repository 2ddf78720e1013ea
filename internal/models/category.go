package models

import "strings"

// Category is one member of the closed article taxonomy.
type Category string

const (
	CategoryPolitics      Category = "politics"
	CategoryBusiness      Category = "business"
	CategoryTechnology    Category = "technology"
	CategorySocial        Category = "social"
	CategoryEnvironment   Category = "environment"
	CategoryInternational Category = "international"
	CategoryOther         Category = "other"
)

// Categories lists the taxonomy in display order.
var Categories = []Category{
	CategoryPolitics,
	CategoryBusiness,
	CategoryTechnology,
	CategorySocial,
	CategoryEnvironment,
	CategoryInternational,
	CategoryOther,
}

// ParseCategory reports whether s names a taxonomy category. Matching is
// case-insensitive and ignores surrounding whitespace.
func ParseCategory(s string) (Category, bool) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Categories {
		if c == known {
			return c, true
		}
	}
	return "", false
}
