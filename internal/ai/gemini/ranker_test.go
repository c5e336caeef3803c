package gemini

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/tryfit/stylist/internal/catalog"
	"github.com/tryfit/stylist/internal/styling"
)

type stubGenerator struct {
	response   string
	err        error
	lastPrompt string
}

func (s *stubGenerator) GenerateText(_ context.Context, prompt string) (string, error) {
	s.lastPrompt = prompt
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func testCandidates() map[catalog.Category][]catalog.ScoredProduct {
	return map[catalog.Category][]catalog.ScoredProduct{
		catalog.CategoryTop: {
			{Product: catalog.Product{ID: "t1", Title: "Casual Cotton Tee", Price: 25000, Tags: []string{"casual", "white", "slim"}}, Score: 2, Rank: 0},
			{Product: catalog.Product{ID: "t2", Title: "Wool Sweater", Price: 40000, Tags: []string{"wool", "navy"}}, Score: 1, Rank: 1},
		},
		catalog.CategoryPants: {
			{Product: catalog.Product{ID: "p1", Title: "Slim Denim Jeans", Price: 50000, Tags: []string{"denim", "slim"}}, Score: 1, Rank: 0},
		},
	}
}

func TestRankerRerank(t *testing.T) {
	stub := &stubGenerator{response: `{"top": ["t2", "t1"], "pants": ["p1"], "shoes": [], "accessories": []}`}
	ranker := NewRanker(stub, zap.NewNop(), 0)

	analysis := &styling.Analysis{OverallStyle: []string{"casual"}, Colors: []string{"white"}}

	result, err := ranker.Rerank(context.Background(), analysis, testCandidates(), 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := result[catalog.CategoryTop]; len(got) != 2 || got[0] != "t2" || got[1] != "t1" {
		t.Fatalf("unexpected top ordering: %v", got)
	}

	if got := result[catalog.CategoryPants]; len(got) != 1 || got[0] != "p1" {
		t.Fatalf("unexpected pants ordering: %v", got)
	}

	if _, ok := result[catalog.CategoryShoes]; ok {
		t.Fatalf("empty categories must be absent from the result")
	}

	if stub.lastPrompt == "" {
		t.Fatalf("expected prompt to be sent")
	}

	if !strings.Contains(stub.lastPrompt, "CANDIDATES_TOP:") {
		t.Fatalf("expected top candidates block in prompt: %s", stub.lastPrompt)
	}

	if !strings.Contains(stub.lastPrompt, `"casual"`) {
		t.Fatalf("expected style analysis in prompt: %s", stub.lastPrompt)
	}

	if !strings.Contains(stub.lastPrompt, "at most 3 ids") {
		t.Fatalf("expected top_k substitution in prompt: %s", stub.lastPrompt)
	}
}

func TestRankerTruncatesToTopK(t *testing.T) {
	stub := &stubGenerator{response: `{"top": ["t1", "t2", "t3", "t4"]}`}
	ranker := NewRanker(stub, zap.NewNop(), 0)

	result, err := ranker.Rerank(context.Background(), &styling.Analysis{}, testCandidates(), 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := result[catalog.CategoryTop]; len(got) != 2 {
		t.Fatalf("expected 2 ids, got %v", got)
	}
}

func TestRankerHandlesCodeFence(t *testing.T) {
	stub := &stubGenerator{response: "Sure! Here is the ranking:\n```json\n{\"top\": [\"t1\"]}\n```"}
	ranker := NewRanker(stub, zap.NewNop(), 0)

	result, err := ranker.Rerank(context.Background(), &styling.Analysis{}, testCandidates(), 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := result[catalog.CategoryTop]; len(got) != 1 || got[0] != "t1" {
		t.Fatalf("unexpected result: %v", got)
	}
}

func TestRankerCoercesNumericIDs(t *testing.T) {
	stub := &stubGenerator{response: `{"top": [101, "t2"]}`}
	ranker := NewRanker(stub, zap.NewNop(), 0)

	result, err := ranker.Rerank(context.Background(), &styling.Analysis{}, testCandidates(), 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := result[catalog.CategoryTop]; len(got) != 2 || got[0] != "101" || got[1] != "t2" {
		t.Fatalf("unexpected result: %v", got)
	}
}

func TestRankerDegradesToNoResult(t *testing.T) {
	cases := []struct {
		name string
		stub *stubGenerator
	}{
		{"call failure", &stubGenerator{err: errors.New("503 overloaded")}},
		{"unparseable reply", &stubGenerator{response: "no json here"}},
		{"empty selection", &stubGenerator{response: `{"top": [], "pants": []}`}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ranker := NewRanker(tc.stub, zap.NewNop(), 0)

			result, err := ranker.Rerank(context.Background(), &styling.Analysis{}, testCandidates(), 3)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result != nil {
				t.Fatalf("expected no result, got %v", result)
			}
		})
	}
}

func TestRankerUnavailableWithoutGenerator(t *testing.T) {
	ranker := NewRanker(nil, zap.NewNop(), 0)

	if ranker.Available() {
		t.Fatalf("expected ranker to be unavailable")
	}

	result, err := ranker.Rerank(context.Background(), &styling.Analysis{}, testCandidates(), 3)
	if err != nil || result != nil {
		t.Fatalf("expected no result and no error, got %v, %v", result, err)
	}
}

func TestRankerPropagatesCancellation(t *testing.T) {
	stub := &stubGenerator{err: context.Canceled}
	ranker := NewRanker(stub, zap.NewNop(), 0)

	_, err := ranker.Rerank(context.Background(), &styling.Analysis{}, testCandidates(), 3)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestSummarizeCapsExposedFields(t *testing.T) {
	items := make([]catalog.ScoredProduct, 0, 25)
	for i := 0; i < 25; i++ {
		items = append(items, catalog.ScoredProduct{Product: catalog.Product{
			ID:    "t" + string(rune('a'+i)),
			Title: strings.Repeat("x", 200),
			Tags:  []string{"black", "white", "navy", "red", "slim", "loose", "fitted", "cropped", "casual", "cotton", "basic"},
		}})
	}

	summaries := summarize(items)

	if len(summaries) != maxCandidatesShown {
		t.Fatalf("expected %d summaries, got %d", maxCandidatesShown, len(summaries))
	}

	first := summaries[0]
	if len([]rune(first.Title)) != maxTitleRunes {
		t.Fatalf("expected title capped at %d runes, got %d", maxTitleRunes, len([]rune(first.Title)))
	}
	if len(first.Colors) != maxColorsShown {
		t.Fatalf("expected %d colors, got %v", maxColorsShown, first.Colors)
	}
	if len(first.Fit) != maxFitTermsShown {
		t.Fatalf("expected %d fit terms, got %v", maxFitTermsShown, first.Fit)
	}
	if len(first.Tags) != maxTagsShown {
		t.Fatalf("expected %d tags, got %v", maxTagsShown, first.Tags)
	}
}

func TestExtractJSONObject(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
		ok    bool
	}{
		{"bare object", `{"a": 1}`, `{"a": 1}`, true},
		{"surrounded by prose", "result: {\"a\": 1} thanks", `{"a": 1}`, true},
		{"nested braces", `{"a": {"b": 2}}`, `{"a": {"b": 2}}`, true},
		{"braces inside strings", `{"a": "}{"}`, `{"a": "}{"}`, true},
		{"unbalanced", `{"a": 1`, "", false},
		{"no object", "nothing here", "", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := extractJSONObject(tc.input)
			if ok != tc.ok || got != tc.want {
				t.Fatalf("extractJSONObject(%q) = %q, %v; want %q, %v", tc.input, got, ok, tc.want, tc.ok)
			}
		})
	}
}
