package vsm

import (
	"math"
	"testing"

	"github.com/Harryjl046/eventsearch/internal/index"
)

const epsilon = 1e-9

func buildRanker(t *testing.T) *Ranker {
	t.Helper()
	b := index.NewBuilder()
	b.AddDocument("d1", []string{"new", "york", "meetup", "group"})
	b.AddDocument("d2", []string{"new", "york", "tech", "workshop"})
	b.AddDocument("d3", []string{"python", "workshop"})
	ix, report := b.Build()
	if len(report.Errors) != 0 {
		t.Fatalf("unexpected build errors: %v", report.Errors)
	}
	return NewRanker(ix)
}

func TestTF(t *testing.T) {
	tests := []struct {
		termFreq, length int
		want             float64
	}{
		{0, 10, 0},
		{1, 1, 1},
		{2, 4, 1 + math.Log10(0.5)},
		{5, 5, 1},
		{3, 0, 0},
	}
	for _, tt := range tests {
		got := TF(tt.termFreq, tt.length)
		if math.Abs(got-tt.want) > epsilon {
			t.Errorf("TF(%d, %d) = %v, want %v", tt.termFreq, tt.length, got, tt.want)
		}
	}
}

func TestIDF(t *testing.T) {
	tests := []struct {
		totalDocs, docFreq int
		want               float64
	}{
		{3, 1, math.Log10(3)},
		{3, 3, 0},
		{100, 10, 1},
		{3, 0, 0},
		{0, 1, 0},
	}
	for _, tt := range tests {
		got := IDF(tt.totalDocs, tt.docFreq)
		if math.Abs(got-tt.want) > epsilon {
			t.Errorf("IDF(%d, %d) = %v, want %v", tt.totalDocs, tt.docFreq, got, tt.want)
		}
	}
}

func TestRankScoresWithinUnitRange(t *testing.T) {
	r := buildRanker(t)
	results := r.Rank([]string{"new", "york", "workshop"}, 0)
	if len(results) == 0 {
		t.Fatal("no results for query matching every document")
	}
	for _, sd := range results {
		if sd.Score <= 0 || sd.Score > 1+epsilon {
			t.Errorf("score for %s = %v outside (0, 1]", sd.DocID, sd.Score)
		}
	}
}

func TestRankOrderingDeterministic(t *testing.T) {
	r := buildRanker(t)
	first := r.Rank([]string{"workshop", "python"}, 0)
	for i := 0; i < 5; i++ {
		again := r.Rank([]string{"workshop", "python"}, 0)
		if len(again) != len(first) {
			t.Fatalf("run %d returned %d results, want %d", i, len(again), len(first))
		}
		for j := range first {
			if again[j].DocID != first[j].DocID {
				t.Fatalf("run %d ordering diverged at %d: %s vs %s", i, j, again[j].DocID, first[j].DocID)
			}
		}
	}
	// Scores must be non-increasing with doc-id ascending on ties.
	for i := 1; i < len(first); i++ {
		if first[i].Score > first[i-1].Score+epsilon {
			t.Fatalf("results not sorted by score: %v", first)
		}
		if math.Abs(first[i].Score-first[i-1].Score) < epsilon && first[i].DocID < first[i-1].DocID {
			t.Fatalf("tie not broken by doc id: %v", first)
		}
	}
}

func TestRankDiscriminativeTermWins(t *testing.T) {
	r := buildRanker(t)
	// "python" appears only in d3; d3 must outrank d2 for this query.
	results := r.Rank([]string{"python", "workshop"}, 0)
	if len(results) < 2 {
		t.Fatalf("got %d results, want at least 2", len(results))
	}
	if results[0].DocID != "d3" {
		t.Fatalf("top result = %s, want d3", results[0].DocID)
	}
}

func TestRankUnknownQueryTerms(t *testing.T) {
	r := buildRanker(t)
	if results := r.Rank([]string{"zzz", "qqq"}, 0); len(results) != 0 {
		t.Fatalf("query of unknown terms returned %v", results)
	}
}

func TestRankTopNTruncation(t *testing.T) {
	r := buildRanker(t)
	all := r.Rank([]string{"new", "york", "workshop", "python"}, 0)
	if len(all) != 3 {
		t.Fatalf("full ranking returned %d docs, want 3", len(all))
	}
	top := r.Rank([]string{"new", "york", "workshop", "python"}, 2)
	if len(top) != 2 {
		t.Fatalf("topN=2 returned %d docs", len(top))
	}
	for i := range top {
		if top[i].DocID != all[i].DocID {
			t.Fatalf("truncated ranking diverged at %d", i)
		}
	}
}

func TestCosineZeroNorm(t *testing.T) {
	if got := Cosine(map[string]float64{}, map[string]float64{"a": 1}, 0); got != 0 {
		t.Fatalf("zero doc norm: got %v, want 0", got)
	}
	if got := Cosine(map[string]float64{"a": 1}, map[string]float64{"a": 0}, 1); got != 0 {
		t.Fatalf("zero query vector: got %v, want 0", got)
	}
}

func TestDocumentKeywords(t *testing.T) {
	r := buildRanker(t)
	// "python" is d3's most discriminative term: df 1 vs "workshop" df 2.
	keywords := r.DocumentKeywords("d3", 1)
	if len(keywords) != 1 || keywords[0] != "python" {
		t.Fatalf("keywords = %v, want [python]", keywords)
	}
	if got := r.DocumentKeywords("nope", 3); got != nil {
		t.Fatalf("keywords for unknown doc = %v, want nil", got)
	}
	all := r.DocumentKeywords("d3", 10)
	if len(all) != 2 {
		t.Fatalf("k beyond vocabulary returned %d keywords", len(all))
	}
}
