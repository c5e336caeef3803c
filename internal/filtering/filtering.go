// Package filtering applies ordered post-search filter steps to scored
// catalog candidates.
package filtering

import (
	"go.uber.org/zap"

	"github.com/tryfit/stylist/internal/catalog"
)

// Filter represents a single filtering step applied to candidates.
type Filter interface {
	Name() string
	Apply(items []catalog.ScoredProduct) ([]catalog.ScoredProduct, Step)
}

// Step describes the result of executing a filtering step.
type Step struct {
	Initial int
	Dropped int
	Left    int
}

// Run executes the supplied filters sequentially and returns the surviving
// candidates. Each step's effect is logged.
func Run(logger *zap.Logger, steps []Filter, items []catalog.ScoredProduct) []catalog.ScoredProduct {
	if logger == nil {
		logger = zap.NewNop()
	}

	for _, step := range steps {
		next, info := step.Apply(items)

		logger.Debug("filter step",
			zap.String("name", step.Name()),
			zap.Int("initial", info.Initial),
			zap.Int("dropped", info.Dropped),
			zap.Int("left", info.Left),
		)

		items = next
	}

	return items
}
