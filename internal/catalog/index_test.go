package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writeCatalog(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "catalog.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	return path
}

func newTestIndex(t *testing.T, content string) *Index {
	t.Helper()

	idx := NewIndex(writeCatalog(t, content), zap.NewNop())
	idx.Load()

	return idx
}

const sampleCatalog = `[
	{"id": "t1", "title": "Casual Cotton Tee", "price": 25000, "tags": ["casual", "cotton"], "category": "top"},
	{"id": "t2", "title": "Wool Sweater", "price": 40000, "tags": ["wool", "formal"], "category": "top"},
	{"id": "p1", "title": "Slim Denim Jeans", "price": 50000, "tags": ["casual", "denim", "slim"], "category": "pants"},
	{"id": "s1", "title": "Canvas Sneakers", "price": 30000, "tags": ["casual", "white"], "category": "shoes"},
	{"id": "a1", "title": "Leather Belt", "price": 15000, "tags": ["formal", "leather"], "category": "accessories"}
]`

func TestLoadDefaultsMissingFields(t *testing.T) {
	idx := newTestIndex(t, `[{"id": "x1", "price": 100}, {"id": "x2", "category": "HATS"}]`)

	products := idx.Products()
	require.Len(t, products, 2)

	assert.Equal(t, "", products[0].Title)
	assert.NotNil(t, products[0].Tags)
	assert.Empty(t, products[0].Tags)
	assert.Equal(t, Category(""), products[0].Category)

	// Unknown categories normalize to empty instead of rejecting the record.
	assert.Equal(t, Category(""), products[1].Category)
}

func TestLoadFailureDegradesToEmpty(t *testing.T) {
	t.Run("malformed source", func(t *testing.T) {
		idx := newTestIndex(t, `{"not": "an array"`)
		assert.Zero(t, idx.Len())
	})

	t.Run("missing file", func(t *testing.T) {
		idx := NewIndex(filepath.Join(t.TempDir(), "nope.json"), zap.NewNop())
		idx.Load()
		assert.Zero(t, idx.Len())
	})
}

func TestReloadSwapsSnapshot(t *testing.T) {
	path := writeCatalog(t, `[{"id": "t1", "title": "Tee", "price": 1, "tags": [], "category": "top"}]`)

	idx := NewIndex(path, zap.NewNop())
	idx.Load()
	require.Equal(t, 1, idx.Len())

	before := idx.Products()

	require.NoError(t, os.WriteFile(path, []byte(`[
		{"id": "t1", "title": "Tee", "price": 1, "tags": [], "category": "top"},
		{"id": "t2", "title": "Shirt", "price": 2, "tags": [], "category": "top"}
	]`), 0o644))
	idx.Reload()

	assert.Equal(t, 2, idx.Len())
	// The snapshot handed out before the reload stays consistent.
	assert.Len(t, before, 1)
}

func TestScore(t *testing.T) {
	tee := Product{Title: "Casual Cotton Tee", Tags: []string{"casual", "cotton"}}

	cases := []struct {
		name     string
		keywords []string
		want     float64
	}{
		{"whole keyword substring", []string{"casual"}, 1.0},
		{"case-insensitive", []string{"CASUAL"}, 1.0},
		{"multi-word keyword present", []string{"casual cotton"}, 1.0},
		{"token-only partial match", []string{"casual wool"}, 0.5},
		{"no match", []string{"formal"}, 0.0},
		{"keywords accumulate", []string{"casual", "cotton", "tee"}, 3.0},
		{"blank keywords skipped", []string{"  ", ""}, 0.0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Score(tee, tc.keywords))
		})
	}
}

func TestSearchExcludesAtOrBelowThreshold(t *testing.T) {
	idx := newTestIndex(t, sampleCatalog)

	results := idx.Search([]string{"casual"}, []Category{CategoryTop}, 10, 0)

	require.Len(t, results, 1)
	assert.Equal(t, "t1", results[0].ID)
	assert.Equal(t, 1.0, results[0].Score)
}

func TestSearchOrdersByScoreWithStableTies(t *testing.T) {
	idx := newTestIndex(t, `[
		{"id": "t1", "title": "Plain Tee", "price": 1, "tags": ["casual"], "category": "top"},
		{"id": "t2", "title": "Casual Casual Tee", "price": 2, "tags": ["casual", "cotton"], "category": "top"},
		{"id": "t3", "title": "Everyday Tee", "price": 3, "tags": ["casual"], "category": "top"}
	]`)

	results := idx.Search([]string{"casual", "cotton"}, []Category{CategoryTop}, 10, 0)

	require.Len(t, results, 3)
	// t2 matches both keywords; t1 and t3 tie and keep catalog order.
	assert.Equal(t, "t2", results[0].ID)
	assert.Equal(t, "t1", results[1].ID)
	assert.Equal(t, "t3", results[2].ID)

	for i, r := range results {
		assert.Equal(t, i, r.Rank)
	}
}

func TestSearchTruncatesToMaxResults(t *testing.T) {
	idx := newTestIndex(t, sampleCatalog)

	results := idx.Search([]string{"casual"}, nil, 2, 0)
	assert.Len(t, results, 2)
}

func TestSearchIsDeterministic(t *testing.T) {
	idx := newTestIndex(t, sampleCatalog)

	first := idx.Search([]string{"casual", "denim"}, nil, 10, 0)
	second := idx.Search([]string{"casual", "denim"}, nil, 10, 0)

	assert.Equal(t, first, second)
}

func TestSearchScopesCategories(t *testing.T) {
	idx := newTestIndex(t, sampleCatalog)

	results := idx.Search([]string{"casual"}, []Category{CategoryShoes}, 10, 0)

	require.Len(t, results, 1)
	assert.Equal(t, "s1", results[0].ID)
}

func TestStats(t *testing.T) {
	t.Run("empty catalog", func(t *testing.T) {
		idx := newTestIndex(t, `[]`)

		stats := idx.Stats()
		assert.Zero(t, stats.TotalProducts)
		assert.Equal(t, PriceRange{}, stats.PriceRange)
	})

	t.Run("populated catalog", func(t *testing.T) {
		idx := newTestIndex(t, sampleCatalog)

		stats := idx.Stats()
		assert.Equal(t, 5, stats.TotalProducts)
		assert.Equal(t, 2, stats.Categories[CategoryTop])
		assert.Equal(t, 1, stats.Categories[CategoryPants])
		assert.Equal(t, 15000, stats.PriceRange.Min)
		assert.Equal(t, 50000, stats.PriceRange.Max)
		assert.Equal(t, 32000, stats.PriceRange.Average)
	})
}
