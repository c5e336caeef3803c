package filtering

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/tryfit/stylist/internal/catalog"
)

func items(prices ...int) []catalog.ScoredProduct {
	out := make([]catalog.ScoredProduct, 0, len(prices))
	for i, price := range prices {
		out = append(out, catalog.ScoredProduct{Product: catalog.Product{
			ID:    string(rune('a' + i)),
			Price: price,
		}})
	}
	return out
}

func ids(items []catalog.ScoredProduct) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.ID)
	}
	return out
}

func intPtr(v int) *int { return &v }

func TestPriceRange(t *testing.T) {
	cases := []struct {
		name string
		min  *int
		max  *int
		want []string
	}{
		{"unbounded keeps all", nil, nil, []string{"a", "b", "c"}},
		{"lower bound inclusive", intPtr(200), nil, []string{"b", "c"}},
		{"upper bound inclusive", nil, intPtr(200), []string{"a", "b"}},
		{"both bounds", intPtr(150), intPtr(250), []string{"b"}},
		{"inverted range matches nothing", intPtr(300), intPtr(100), nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			kept, step := NewPriceRange(tc.min, tc.max).Apply(items(100, 200, 300))

			assert.Equal(t, tc.want, func() []string {
				if len(kept) == 0 {
					return nil
				}
				return ids(kept)
			}())
			assert.Equal(t, 3, step.Initial)
			assert.Equal(t, len(kept), step.Left)
			assert.Equal(t, 3-len(kept), step.Dropped)
		})
	}
}

func TestExcludeTags(t *testing.T) {
	candidates := []catalog.ScoredProduct{
		{Product: catalog.Product{ID: "a", Tags: []string{"casual", "Cotton"}}},
		{Product: catalog.Product{ID: "b", Tags: []string{"formal", "wool"}}},
		{Product: catalog.Product{ID: "c", Tags: []string{"sporty"}}},
	}

	t.Run("case-insensitive intersection", func(t *testing.T) {
		kept, step := NewExcludeTags([]string{"COTTON", " wool "}).Apply(candidates)

		assert.Equal(t, []string{"c"}, ids(kept))
		assert.Equal(t, 2, step.Dropped)
	})

	t.Run("blank entries ignored", func(t *testing.T) {
		kept, _ := NewExcludeTags([]string{"", "  "}).Apply(candidates)
		assert.Len(t, kept, 3)
	})
}

func TestRunAppliesStepsInOrder(t *testing.T) {
	candidates := []catalog.ScoredProduct{
		{Product: catalog.Product{ID: "a", Price: 100, Tags: []string{"casual"}}},
		{Product: catalog.Product{ID: "b", Price: 200, Tags: []string{"formal"}}},
		{Product: catalog.Product{ID: "c", Price: 300, Tags: []string{"casual"}}},
	}

	kept := Run(zap.NewNop(), []Filter{
		NewPriceRange(nil, intPtr(250)),
		NewExcludeTags([]string{"formal"}),
	}, candidates)

	assert.Equal(t, []string{"a"}, ids(kept))
}
