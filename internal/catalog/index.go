package catalog

import (
	"encoding/json"
	"math"
	"os"
	"sort"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
)

// Index holds the current immutable catalog snapshot and answers
// category-scoped keyword queries against it. Reload swaps the snapshot
// atomically; readers in flight keep their own consistent view.
type Index struct {
	path     string
	logger   *zap.Logger
	snapshot atomic.Pointer[snapshot]
}

type snapshot struct {
	products []Product
}

// Stats summarizes the loaded catalog.
type Stats struct {
	TotalProducts int              `json:"totalProducts"`
	Categories    map[Category]int `json:"categories"`
	PriceRange    PriceRange       `json:"priceRange"`
}

// PriceRange holds aggregate price figures. All zero for an empty catalog.
type PriceRange struct {
	Min     int `json:"min"`
	Max     int `json:"max"`
	Average int `json:"average"`
}

// NewIndex creates an index over the catalog file at path. The index starts
// empty; call Load to read the source.
func NewIndex(path string, logger *zap.Logger) *Index {
	if logger == nil {
		logger = zap.NewNop()
	}

	idx := &Index{path: path, logger: logger}
	idx.snapshot.Store(&snapshot{})

	return idx
}

// Load reads and parses the catalog source, swapping in the new snapshot.
// An unreadable or malformed source degrades the catalog to empty instead of
// failing the caller; the problem is logged.
func (i *Index) Load() {
	data, err := os.ReadFile(i.path)
	if err != nil {
		i.logger.Error("reading catalog source, catalog degrades to empty",
			zap.String("path", i.path),
			zap.Error(err),
		)
		i.snapshot.Store(&snapshot{})
		return
	}

	products, err := parseProducts(data)
	if err != nil {
		i.logger.Error("parsing catalog source, catalog degrades to empty",
			zap.String("path", i.path),
			zap.Error(err),
		)
		i.snapshot.Store(&snapshot{})
		return
	}

	i.snapshot.Store(&snapshot{products: products})
	i.logger.Info("catalog loaded",
		zap.String("path", i.path),
		zap.Int("products", len(products)),
	)
}

// Reload re-runs Load. Concurrent readers continue to see the previous
// snapshot until the swap completes.
func (i *Index) Reload() {
	i.Load()
}

// parseProducts decodes the raw catalog JSON. Missing tags, title or category
// default to empty values rather than rejecting the record.
func parseProducts(data []byte) ([]Product, error) {
	var products []Product
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, err
	}

	for idx := range products {
		if products[idx].Tags == nil {
			products[idx].Tags = []string{}
		}
		products[idx].Category = ParseCategory(string(products[idx].Category))
	}

	return products, nil
}

// Products returns the products of the current snapshot in catalog order.
func (i *Index) Products() []Product {
	return i.snapshot.Load().products
}

// Len returns the number of products in the current snapshot.
func (i *Index) Len() int {
	return len(i.snapshot.Load().products)
}

// Score computes the relevance of a product for the given keywords. Each
// keyword contributes 1.0 when it appears as a substring of the product's
// title and tags, or 0.5 when any whitespace-delimited token of it does.
// Keywords are matched case-insensitively; no normalization by keyword count
// or item length is applied.
func Score(p Product, keywords []string) float64 {
	text := searchText(p)

	score := 0.0
	for _, kw := range normalizeKeywords(keywords) {
		if strings.Contains(text, kw) {
			score += 1.0
			continue
		}
		for _, token := range strings.Fields(kw) {
			if strings.Contains(text, token) {
				score += 0.5
				break
			}
		}
	}

	return score
}

func normalizeKeywords(keywords []string) []string {
	normalized := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" {
			normalized = append(normalized, kw)
		}
	}
	return normalized
}

// Search scores every product of the requested categories and returns the
// candidates exceeding the threshold, sorted by score descending. Ties keep
// catalog iteration order, so identical inputs always produce identical
// output. A non-positive maxResults means no truncation.
func (i *Index) Search(keywords []string, categories []Category, maxResults int, threshold float64) []ScoredProduct {
	if len(categories) == 0 {
		categories = Categories()
	}

	wanted := make(map[Category]struct{}, len(categories))
	for _, c := range categories {
		wanted[c] = struct{}{}
	}

	var results []ScoredProduct
	for _, p := range i.snapshot.Load().products {
		if _, ok := wanted[p.Category]; !ok {
			continue
		}

		s := Score(p, keywords)
		if s > threshold {
			results = append(results, ScoredProduct{Product: p, Score: s})
		}
	}

	sort.SliceStable(results, func(a, b int) bool {
		return results[a].Score > results[b].Score
	})

	if maxResults > 0 && len(results) > maxResults {
		results = results[:maxResults]
	}

	for idx := range results {
		results[idx].Rank = idx
	}

	return results
}

// Stats aggregates product counts and price figures over the current
// snapshot. The average is rounded to the nearest integer.
func (i *Index) Stats() Stats {
	products := i.snapshot.Load().products

	stats := Stats{
		TotalProducts: len(products),
		Categories:    make(map[Category]int),
	}

	if len(products) == 0 {
		return stats
	}

	minPrice := products[0].Price
	maxPrice := products[0].Price
	total := 0

	for _, p := range products {
		stats.Categories[p.Category]++
		if p.Price < minPrice {
			minPrice = p.Price
		}
		if p.Price > maxPrice {
			maxPrice = p.Price
		}
		total += p.Price
	}

	stats.PriceRange = PriceRange{
		Min:     minPrice,
		Max:     maxPrice,
		Average: int(math.Round(float64(total) / float64(len(products)))),
	}

	return stats
}
