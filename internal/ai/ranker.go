package ai

import (
	"context"

	"github.com/tryfit/stylist/internal/catalog"
	"github.com/tryfit/stylist/internal/styling"
)

// RankResult is the external model's suggested ordering: per category, the
// product ids it selected, best first.
type RankResult map[catalog.Category][]string

// Ranker asks an external model to choose and order up to topK candidates per
// category. A nil result with a nil error means the model produced nothing
// usable; callers must fall back to their own ordering in that case.
type Ranker interface {
	Available() bool
	Rerank(ctx context.Context, analysis *styling.Analysis, candidates map[catalog.Category][]catalog.ScoredProduct, topK int) (RankResult, error)
}
