// Package recommend implements the end-to-end recommendation flow: keyword
// derivation, oversampled catalog search, filtering, optional external
// reranking and the reconciliation of both orderings.
package recommend

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/tryfit/stylist/internal/ai"
	"github.com/tryfit/stylist/internal/catalog"
	"github.com/tryfit/stylist/internal/filtering"
	"github.com/tryfit/stylist/internal/styling"
)

const (
	defaultMaxPerCategory = 3
	maxPerCategoryCap     = 20

	// oversampleFactor widens the candidate pool so the reranker has real
	// choices beyond what ends up in the response.
	oversampleFactor = 4
)

// Method values attached to results for observability.
const (
	MethodAI       = "ai"
	MethodFallback = "fallback"
)

// Options configures a single recommendation request. Every field has a
// defined default; the zero value is usable.
type Options struct {
	// MaxPerCategory bounds each category's result list. Defaults to 3,
	// capped at 20.
	MaxPerCategory int
	// MinPrice and MaxPrice are optional inclusive bounds. An inverted
	// range yields empty results rather than an error.
	MinPrice *int
	MaxPrice *int
	// ExcludeTags drops candidates carrying any of these tags,
	// case-insensitively.
	ExcludeTags []string
	// UseRerank forces reranking on or off. Nil defers to the ranker's own
	// availability.
	UseRerank *bool
}

func (o Options) withDefaults() Options {
	if o.MaxPerCategory <= 0 {
		o.MaxPerCategory = defaultMaxPerCategory
	}
	if o.MaxPerCategory > maxPerCategoryCap {
		o.MaxPerCategory = maxPerCategoryCap
	}
	return o
}

// Result is the assembled per-category recommendation response.
type Result struct {
	Recommendations map[catalog.Category][]catalog.ScoredProduct `json:"recommendations"`
	Method          string                                       `json:"analysisMethod"`
	RequestID       string                                       `json:"requestId"`
	Timestamp       string                                       `json:"timestamp"`
}

// Recommender wires the catalog index and the optional external ranker into
// one decision flow.
type Recommender struct {
	index  *catalog.Index
	ranker ai.Ranker
	logger *zap.Logger
}

// New creates a Recommender. The ranker may be nil; the flow then always uses
// the deterministic fallback ordering.
func New(index *catalog.Index, ranker ai.Ranker, logger *zap.Logger) *Recommender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recommender{index: index, ranker: ranker, logger: logger}
}

// Recommend derives keywords from the analysis, gathers oversampled
// candidates per category, optionally asks the external ranker for a better
// ordering and reconciles it against the score order. The only error it
// returns is context cancellation.
func (r *Recommender) Recommend(ctx context.Context, analysis *styling.Analysis, opts Options) (*Result, error) {
	opts = opts.withDefaults()

	keywords := analysis.Keywords()
	oversample := opts.MaxPerCategory * oversampleFactor

	steps := []filtering.Filter{
		filtering.NewPriceRange(opts.MinPrice, opts.MaxPrice),
		filtering.NewExcludeTags(opts.ExcludeTags),
	}

	candidates := make(map[catalog.Category][]catalog.ScoredProduct, len(catalog.Categories()))
	for _, cat := range catalog.Categories() {
		cands := r.index.Search(keywords, []catalog.Category{cat}, oversample, 0)
		cands = filtering.Run(r.logger.With(zap.String("category", string(cat))), steps, cands)
		if len(cands) > oversample {
			cands = cands[:oversample]
		}
		candidates[cat] = cands
	}

	ranked, err := r.maybeRerank(ctx, analysis, candidates, opts)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Recommendations: make(map[catalog.Category][]catalog.ScoredProduct, len(candidates)),
		Method:          MethodFallback,
		RequestID:       fmt.Sprintf("req_%d", time.Now().Unix()),
		Timestamp:       time.Now().UTC().Format(time.RFC3339),
	}

	for _, cat := range catalog.Categories() {
		cands := candidates[cat]

		if ids := ranked[cat]; len(ids) > 0 {
			merged, applied := reconcile(cands, ids, opts.MaxPerCategory)
			if applied {
				result.Method = MethodAI
			}
			result.Recommendations[cat] = merged
			continue
		}

		result.Recommendations[cat] = truncate(cands, opts.MaxPerCategory)
	}

	r.logger.Info("recommendation assembled",
		zap.String("method", result.Method),
		zap.String("request_id", result.RequestID),
	)

	return result, nil
}

func (r *Recommender) maybeRerank(ctx context.Context, analysis *styling.Analysis, candidates map[catalog.Category][]catalog.ScoredProduct, opts Options) (ai.RankResult, error) {
	use := r.ranker != nil && r.ranker.Available()
	if opts.UseRerank != nil {
		use = *opts.UseRerank
	}

	if !use || r.ranker == nil {
		return nil, nil
	}

	ranked, err := r.ranker.Rerank(ctx, analysis, candidates, opts.MaxPerCategory)
	if err != nil {
		return nil, err
	}

	return ranked, nil
}

// reconcile walks the model's id ordering first, skipping ids that are not
// actual candidates, then fills the remainder from the score order without
// reintroducing ids already placed. It reports whether any model-chosen id
// made it into the output.
func reconcile(cands []catalog.ScoredProduct, ids []string, limit int) ([]catalog.ScoredProduct, bool) {
	byID := make(map[string]catalog.ScoredProduct, len(cands))
	for _, cand := range cands {
		byID[cand.ID] = cand
	}

	out := make([]catalog.ScoredProduct, 0, limit)
	seen := make(map[string]struct{}, limit)
	applied := false

	for _, id := range ids {
		if len(out) == limit {
			break
		}
		cand, ok := byID[id]
		if !ok {
			// The model may hallucinate ids; ignore them.
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		out = append(out, cand)
		seen[id] = struct{}{}
		applied = true
	}

	for _, cand := range cands {
		if len(out) == limit {
			break
		}
		if _, dup := seen[cand.ID]; dup {
			continue
		}
		out = append(out, cand)
		seen[cand.ID] = struct{}{}
	}

	return out, applied
}

func truncate(items []catalog.ScoredProduct, limit int) []catalog.ScoredProduct {
	if len(items) > limit {
		return items[:limit]
	}
	return items
}
