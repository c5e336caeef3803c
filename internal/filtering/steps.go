package filtering

import (
	"math"
	"strings"

	"github.com/tryfit/stylist/internal/catalog"
)

type priceRangeFilter struct {
	min *int
	max *int
}

// NewPriceRange creates a filter keeping candidates priced within the
// inclusive [min, max] bounds. A nil bound is unbounded on that side. An
// inverted range (min > max) matches nothing.
func NewPriceRange(min, max *int) Filter {
	return &priceRangeFilter{min: min, max: max}
}

func (f *priceRangeFilter) Name() string { return "price_range" }

func (f *priceRangeFilter) Apply(items []catalog.ScoredProduct) ([]catalog.ScoredProduct, Step) {
	initial := len(items)
	if f.min == nil && f.max == nil {
		return items, Step{Initial: initial, Left: initial}
	}

	lo := 0
	if f.min != nil {
		lo = *f.min
	}
	hi := math.MaxInt
	if f.max != nil {
		hi = *f.max
	}

	kept := make([]catalog.ScoredProduct, 0, len(items))
	for _, item := range items {
		if item.Price >= lo && item.Price <= hi {
			kept = append(kept, item)
		}
	}

	return kept, Step{Initial: initial, Dropped: initial - len(kept), Left: len(kept)}
}

type excludeTagsFilter struct {
	tags map[string]struct{}
}

// NewExcludeTags creates a filter dropping candidates whose tag set
// intersects the excluded tags, case-insensitively.
func NewExcludeTags(tags []string) Filter {
	excluded := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		if tag = strings.ToLower(strings.TrimSpace(tag)); tag != "" {
			excluded[tag] = struct{}{}
		}
	}
	return &excludeTagsFilter{tags: excluded}
}

func (f *excludeTagsFilter) Name() string { return "exclude_tags" }

func (f *excludeTagsFilter) Apply(items []catalog.ScoredProduct) ([]catalog.ScoredProduct, Step) {
	initial := len(items)
	if len(f.tags) == 0 {
		return items, Step{Initial: initial, Left: initial}
	}

	kept := make([]catalog.ScoredProduct, 0, len(items))
	for _, item := range items {
		if !f.matches(item.Tags) {
			kept = append(kept, item)
		}
	}

	return kept, Step{Initial: initial, Dropped: initial - len(kept), Left: len(kept)}
}

func (f *excludeTagsFilter) matches(tags []string) bool {
	for _, tag := range tags {
		if _, ok := f.tags[strings.ToLower(tag)]; ok {
			return true
		}
	}
	return false
}
