package executor

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/Harryjl046/eventsearch/internal/index"
	"github.com/Harryjl046/eventsearch/internal/search/booleval"
	"github.com/Harryjl046/eventsearch/pkg/config"
	apperrors "github.com/Harryjl046/eventsearch/pkg/errors"
)

func buildExecutor(t *testing.T) *Executor {
	t.Helper()
	b := index.NewBuilder()
	b.AddDocument("d1", []string{"new", "york", "meetup", "group"})
	b.AddDocument("d2", []string{"new", "york", "tech", "workshop"})
	b.AddDocument("d3", []string{"python", "workshop"})
	ix, report := b.Build()
	if len(report.Errors) != 0 {
		t.Fatalf("unexpected build errors: %v", report.Errors)
	}
	return New(ix, booleval.Strategy{UseSkips: true})
}

func TestBoolean(t *testing.T) {
	exec := buildExecutor(t)
	ctx := context.Background()

	tests := []struct {
		name        string
		query       string
		wantDocs    []string
		wantMissing []string
	}{
		{"conjunction", "new AND york", []string{"d1", "d2"}, nil},
		{"exclusion", "york AND NOT tech", []string{"d1"}, nil},
		{"disjunction in conjunction", "(meetup OR tech) AND york", []string{"d1", "d2"}, nil},
		{"missing term", "york AND zealand", []string{}, []string{"zealand"}},
		{"all missing", "xx AND yy", []string{}, []string{"xx", "yy"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := exec.Boolean(ctx, tt.query)
			if err != nil {
				t.Fatalf("Boolean(%q): %v", tt.query, err)
			}
			if !reflect.DeepEqual(res.DocIDs, tt.wantDocs) {
				t.Fatalf("docs = %v, want %v", res.DocIDs, tt.wantDocs)
			}
			want := tt.wantMissing
			if want == nil {
				want = []string{}
			}
			missing := res.MissingTerms
			if missing == nil {
				missing = []string{}
			}
			if !reflect.DeepEqual(missing, want) {
				t.Fatalf("missing = %v, want %v", missing, want)
			}
			if res.TotalHits != len(res.DocIDs) {
				t.Fatalf("TotalHits = %d, docs = %d", res.TotalHits, len(res.DocIDs))
			}
		})
	}
}

func TestBooleanParseError(t *testing.T) {
	exec := buildExecutor(t)
	_, err := exec.Boolean(context.Background(), "a AND (b OR")
	if !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("error = %v, want ErrInvalidInput", err)
	}
}

func TestPhrase(t *testing.T) {
	exec := buildExecutor(t)
	res, err := exec.Phrase(context.Background(), "new york")
	if err != nil {
		t.Fatalf("Phrase: %v", err)
	}
	if res.TotalHits != 2 || res.Occurrences != 2 {
		t.Fatalf("hits = %d occurrences = %d, want 2/2", res.TotalHits, res.Occurrences)
	}
	if res.Matches[0].DocID != "d1" || res.Matches[1].DocID != "d2" {
		t.Fatalf("matches = %+v", res.Matches)
	}

	missing, err := exec.Phrase(context.Background(), "new zealand")
	if err != nil {
		t.Fatalf("Phrase: %v", err)
	}
	if missing.TotalHits != 0 || len(missing.MissingTerms) != 1 {
		t.Fatalf("missing-term phrase = %+v", missing)
	}
}

func TestRanked(t *testing.T) {
	exec := buildExecutor(t)
	res, err := exec.Ranked(context.Background(), "python workshop", 10)
	if err != nil {
		t.Fatalf("Ranked: %v", err)
	}
	if res.TotalHits == 0 {
		t.Fatal("no ranked results")
	}
	if res.Results[0].DocID != "d3" {
		t.Fatalf("top ranked doc = %s, want d3", res.Results[0].DocID)
	}

	limited, err := exec.Ranked(context.Background(), "new york workshop python", 1)
	if err != nil {
		t.Fatalf("Ranked: %v", err)
	}
	if len(limited.Results) != 1 {
		t.Fatalf("limit=1 returned %d results", len(limited.Results))
	}
}

func TestStrategyFromConfig(t *testing.T) {
	tests := []struct {
		cfg  config.SearchConfig
		want booleval.Strategy
	}{
		{
			cfg:  config.SearchConfig{TermOrder: "low-df-first", OrHandling: "merge-first"},
			want: booleval.Strategy{TermOrder: booleval.LowDFFirst, OrHandling: booleval.MergeORFirst, UseSkips: true},
		},
		{
			cfg:  config.SearchConfig{TermOrder: "high-df-first", OrHandling: "distribute"},
			want: booleval.Strategy{TermOrder: booleval.HighDFFirst, OrHandling: booleval.DistributeAND, UseSkips: true},
		},
		{
			cfg:  config.SearchConfig{TermOrder: "bogus", OrHandling: "bogus"},
			want: booleval.Strategy{UseSkips: true},
		},
	}
	for _, tt := range tests {
		if got := StrategyFromConfig(tt.cfg); got != tt.want {
			t.Errorf("StrategyFromConfig(%+v) = %+v, want %+v", tt.cfg, got, tt.want)
		}
	}
}

func TestKeywords(t *testing.T) {
	exec := buildExecutor(t)
	kw := exec.Keywords("d3", 1)
	if len(kw) != 1 || kw[0] != "python" {
		t.Fatalf("Keywords(d3, 1) = %v", kw)
	}
	if exec.Keywords("missing", 3) != nil {
		t.Fatal("keywords for unknown doc should be nil")
	}
}
