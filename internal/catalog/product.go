package catalog

import "strings"

// Category is one of the fixed garment groups the catalog is organized into.
type Category string

const (
	CategoryTop         Category = "top"
	CategoryPants       Category = "pants"
	CategoryShoes       Category = "shoes"
	CategoryAccessories Category = "accessories"
)

// Categories returns all known categories in their canonical order.
func Categories() []Category {
	return []Category{CategoryTop, CategoryPants, CategoryShoes, CategoryAccessories}
}

// ParseCategory normalizes the raw value into a known category. Unknown values
// map to the empty category so malformed records stay loadable.
func ParseCategory(raw string) Category {
	switch Category(strings.ToLower(strings.TrimSpace(raw))) {
	case CategoryTop:
		return CategoryTop
	case CategoryPants:
		return CategoryPants
	case CategoryShoes:
		return CategoryShoes
	case CategoryAccessories:
		return CategoryAccessories
	}
	return ""
}

// Product is a single catalog item. Products are immutable once loaded.
type Product struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Price    int      `json:"price"`
	Tags     []string `json:"tags"`
	Category Category `json:"category"`
	ImageURL string   `json:"imageUrl,omitempty"`
}

// ScoredProduct pairs a product with its relevance score for one request and
// its position in the score-sorted candidate list. The rank is what lets the
// reconciliation step fill from the original order.
type ScoredProduct struct {
	Product
	Score float64 `json:"score"`
	Rank  int     `json:"-"`
}

// searchText returns the lowercased haystack keywords are matched against.
func searchText(p Product) string {
	return strings.ToLower(p.Title + " " + strings.Join(p.Tags, " "))
}
