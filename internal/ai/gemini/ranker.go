package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	_ "embed"

	"go.uber.org/zap"

	"github.com/tryfit/stylist/internal/ai"
	"github.com/tryfit/stylist/internal/catalog"
	"github.com/tryfit/stylist/internal/styling"
	"github.com/tryfit/stylist/internal/utils"
)

type textGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

//go:embed prompt.md
var promptTemplate string

const (
	defaultMaxLogLength = 200
	defaultTopK         = 3

	// Caps on the candidate summaries exposed to the model, keeping the
	// prompt token-frugal.
	maxCandidatesShown = 20
	maxTitleRunes      = 120
	maxColorsShown     = 3
	maxFitTermsShown   = 3
	maxTagsShown       = 8
)

// colorTerms are tag values recognized as colors for the candidate summaries.
var colorTerms = map[string]bool{
	"black": true, "white": true, "gray": true, "grey": true, "charcoal": true,
	"beige": true, "cream": true, "ivory": true, "tan": true, "brown": true,
	"navy": true, "blue": true, "denim": true, "teal": true, "mint": true,
	"red": true, "burgundy": true, "maroon": true, "pink": true, "purple": true,
	"lavender": true, "green": true, "olive": true, "khaki": true,
	"yellow": true, "orange": true, "gold": true, "silver": true,
}

// fitTerms are tag values recognized as fit or shape descriptors.
var fitTerms = map[string]bool{
	"slim": true, "skinny": true, "regular": true, "relaxed": true,
	"loose": true, "oversized": true, "fitted": true, "tailored": true,
	"cropped": true, "wide": true, "straight": true, "tapered": true,
	"boxy": true, "flared": true, "bootcut": true,
}

// Ranker asks Gemini to choose and order candidates per category. Every
// failure mode degrades to "no result": the caller falls back to its own
// deterministic ordering instead of surfacing an error.
type Ranker struct {
	generator textGenerator
	logger    *zap.Logger
	maxLogLen int
}

// NewRanker creates a Ranker on top of a text generator.
func NewRanker(generator textGenerator, logger *zap.Logger, maxLogLength int) *Ranker {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Ranker{
		generator: generator,
		logger:    logger,
		maxLogLen: maxLogLength,
	}
}

// Available reports whether the ranker is backed by a configured generator.
func (r *Ranker) Available() bool {
	return r != nil && r.generator != nil
}

// Rerank implements ai.Ranker. Context cancellation is the only error it
// propagates; call failures and unparseable replies return a nil result.
func (r *Ranker) Rerank(ctx context.Context, analysis *styling.Analysis, candidates map[catalog.Category][]catalog.ScoredProduct, topK int) (ai.RankResult, error) {
	if !r.Available() {
		return nil, nil
	}

	if topK <= 0 {
		topK = defaultTopK
	}

	prompt, err := r.buildPrompt(analysis, candidates, topK)
	if err != nil {
		r.logger.Warn("building rerank prompt failed, using fallback ordering", zap.Error(err))
		return nil, nil
	}

	r.logger.Debug("gemini rerank request",
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, r.maxLogLen)),
	)

	raw, err := r.generator.GenerateText(ctx, prompt)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		r.logger.Warn("rerank call failed, using fallback ordering", zap.Error(err))
		return nil, nil
	}

	r.logger.Debug("gemini rerank response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, r.maxLogLen)),
	)

	result, err := parseRankResponse(raw, topK)
	if err != nil {
		r.logger.Warn("rerank reply unparseable, using fallback ordering", zap.Error(err))
		return nil, nil
	}

	return result, nil
}

func (r *Ranker) buildPrompt(analysis *styling.Analysis, candidates map[catalog.Category][]catalog.ScoredProduct, topK int) (string, error) {
	styleJSON, err := json.Marshal(analysis)
	if err != nil {
		return "", fmt.Errorf("marshal style analysis: %w", err)
	}

	var blocks strings.Builder
	for _, cat := range catalog.Categories() {
		rows, err := json.Marshal(summarize(candidates[cat]))
		if err != nil {
			return "", fmt.Errorf("marshal %s candidates: %w", cat, err)
		}
		fmt.Fprintf(&blocks, "CANDIDATES_%s:\n%s\n\n", strings.ToUpper(string(cat)), rows)
	}

	prompt := strings.ReplaceAll(promptTemplate, "{{TOP_K}}", fmt.Sprint(topK))
	prompt = strings.ReplaceAll(prompt, "{{STYLE_ANALYSIS}}", string(styleJSON))
	prompt = strings.ReplaceAll(prompt, "{{CANDIDATES}}", strings.TrimSpace(blocks.String()))

	return prompt, nil
}

// candidateSummary is the compact item representation shown to the model.
type candidateSummary struct {
	ID     string   `json:"id"`
	Title  string   `json:"title"`
	Price  int      `json:"price"`
	Colors []string `json:"colors,omitempty"`
	Fit    []string `json:"fit,omitempty"`
	Tags   []string `json:"tags,omitempty"`
}

func summarize(items []catalog.ScoredProduct) []candidateSummary {
	if len(items) > maxCandidatesShown {
		items = items[:maxCandidatesShown]
	}

	summaries := make([]candidateSummary, 0, len(items))
	for _, item := range items {
		colors, fits := classifyTags(item.Tags)

		tags := item.Tags
		if len(tags) > maxTagsShown {
			tags = tags[:maxTagsShown]
		}

		summaries = append(summaries, candidateSummary{
			ID:     item.ID,
			Title:  truncateRunes(item.Title, maxTitleRunes),
			Price:  item.Price,
			Colors: colors,
			Fit:    fits,
			Tags:   tags,
		})
	}

	return summaries
}

func classifyTags(tags []string) (colors, fits []string) {
	for _, tag := range tags {
		lowered := strings.ToLower(strings.TrimSpace(tag))
		switch {
		case colorTerms[lowered] && len(colors) < maxColorsShown:
			colors = append(colors, tag)
		case fitTerms[lowered] && len(fits) < maxFitTermsShown:
			fits = append(fits, tag)
		}
	}
	return colors, fits
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

// parseRankResponse extracts the JSON object from the free-text reply and
// coerces the per-category id arrays. Ids may arrive as strings or numbers;
// anything else is skipped. Each list is truncated to topK.
func parseRankResponse(raw string, topK int) (ai.RankResult, error) {
	span, ok := extractJSONObject(raw)
	if !ok {
		return nil, errors.New("no JSON object found in reply")
	}

	dec := json.NewDecoder(strings.NewReader(span))
	dec.UseNumber()

	var data map[string][]any
	if err := dec.Decode(&data); err != nil {
		return nil, fmt.Errorf("parse rerank reply: %w", err)
	}

	result := make(ai.RankResult)
	for _, cat := range catalog.Categories() {
		var ids []string
		for _, v := range data[string(cat)] {
			if id := coerceID(v); id != "" {
				ids = append(ids, id)
			}
			if len(ids) == topK {
				break
			}
		}
		if len(ids) > 0 {
			result[cat] = ids
		}
	}

	if len(result) == 0 {
		return nil, errors.New("reply selected no candidates")
	}

	return result, nil
}

// extractJSONObject returns the first balanced {...} span of the input,
// tolerating code fences and surrounding prose.
func extractJSONObject(raw string) (string, bool) {
	start := strings.IndexByte(raw, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(raw); i++ {
		c := raw[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return raw[start : i+1], true
			}
		}
	}

	return "", false
}

func coerceID(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case json.Number:
		return val.String()
	default:
		return ""
	}
}
