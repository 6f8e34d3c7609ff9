package booleval

import (
	"reflect"
	"testing"

	"github.com/Harryjl046/eventsearch/internal/index"
)

// mapSource serves term lists from a plain map, attaching real skip overlays.
type mapSource map[string][]string

func (s mapSource) SkipList(term string) (SkipList, bool) {
	ids, ok := s[term]
	if !ok {
		return SkipList{}, false
	}
	return SkipList{Docs: ids, Skips: index.BuildSkipPointers(len(ids))}, true
}

// eventCorpus mirrors three small documents:
//
//	d1: new york meetup group
//	d2: new york tech workshop
//	d3: python workshop
func eventCorpus() mapSource {
	return mapSource{
		"new":      {"d1", "d2"},
		"york":     {"d1", "d2"},
		"meetup":   {"d1"},
		"group":    {"d1"},
		"tech":     {"d2"},
		"workshop": {"d2", "d3"},
		"python":   {"d3"},
	}
}

func allStrategies() []Strategy {
	var strategies []Strategy
	for _, to := range []TermOrder{LowDFFirst, HighDFFirst} {
		for _, oh := range []OrHandling{MergeORFirst, DistributeAND} {
			for _, skips := range []bool{false, true} {
				strategies = append(strategies, Strategy{TermOrder: to, OrHandling: oh, UseSkips: skips})
			}
		}
	}
	return strategies
}

func TestEvaluate(t *testing.T) {
	src := eventCorpus()
	tests := []struct {
		name        string
		expr        Expr
		wantDocs    []string
		wantMissing []string
	}{
		{
			name:     "single term",
			expr:     Term("workshop"),
			wantDocs: []string{"d2", "d3"},
		},
		{
			name:     "and",
			expr:     &And{Operands: []Expr{Term("new"), Term("york")}},
			wantDocs: []string{"d1", "d2"},
		},
		{
			name:     "and narrows",
			expr:     &And{Operands: []Expr{Term("york"), Term("workshop")}},
			wantDocs: []string{"d2"},
		},
		{
			name:     "or",
			expr:     &Or{Operands: []Expr{Term("meetup"), Term("python")}},
			wantDocs: []string{"d1", "d3"},
		},
		{
			name: "or inside and",
			expr: &And{Operands: []Expr{
				Term("york"),
				&Or{Operands: []Expr{Term("meetup"), Term("tech")}},
			}},
			wantDocs: []string{"d1", "d2"},
		},
		{
			name: "and not",
			expr: &And{
				Operands: []Expr{Term("york")},
				Excludes: []Expr{Term("tech")},
			},
			wantDocs: []string{"d1"},
		},
		{
			name:        "missing term empties and",
			expr:        &And{Operands: []Expr{Term("york"), Term("zzz")}},
			wantDocs:    []string{},
			wantMissing: []string{"zzz"},
		},
		{
			name:        "missing term is noop for or",
			expr:        &Or{Operands: []Expr{Term("python"), Term("zzz")}},
			wantDocs:    []string{"d3"},
			wantMissing: []string{"zzz"},
		},
		{
			name:        "missing excluded term removes nothing",
			expr:        &And{Operands: []Expr{Term("york")}, Excludes: []Expr{Term("zzz")}},
			wantDocs:    []string{"d1", "d2"},
			wantMissing: []string{"zzz"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, strat := range allStrategies() {
				res := Evaluate(src, tt.expr, strat)
				got := res.DocIDs
				if got == nil {
					got = []string{}
				}
				if !reflect.DeepEqual(got, tt.wantDocs) {
					t.Errorf("strategy %+v: docs = %v, want %v", strat, got, tt.wantDocs)
				}
				missing := res.MissingTerms
				if missing == nil {
					missing = []string{}
				}
				want := tt.wantMissing
				if want == nil {
					want = []string{}
				}
				if !reflect.DeepEqual(missing, want) {
					t.Errorf("strategy %+v: missing = %v, want %v", strat, missing, want)
				}
			}
		})
	}
}

// Every strategy combination must produce identical results on larger inputs
// too, not just the toy corpus.
func TestStrategyEquivalenceOnLargeLists(t *testing.T) {
	src := mapSource{
		"a": multiples(2, 1000).Docs,
		"b": multiples(3, 1000).Docs,
		"c": multiples(5, 1000).Docs,
		"d": multiples(7, 1000).Docs,
	}
	expr := &And{
		Operands: []Expr{
			Term("a"),
			&Or{Operands: []Expr{Term("b"), Term("c")}},
		},
		Excludes: []Expr{Term("d")},
	}

	baseline := Evaluate(src, expr, Strategy{}).DocIDs
	if len(baseline) == 0 {
		t.Fatal("baseline result is empty, test corpus too small")
	}
	for _, strat := range allStrategies() {
		got := Evaluate(src, expr, strat).DocIDs
		if !reflect.DeepEqual(got, baseline) {
			t.Fatalf("strategy %+v diverged: %d docs vs %d", strat, len(got), len(baseline))
		}
	}
}

func TestEvaluateTermWithEmptyPostings(t *testing.T) {
	src := mapSource{"present": {}}
	res := Evaluate(src, Term("present"), Strategy{})
	if len(res.MissingTerms) != 0 {
		t.Fatalf("known term with no postings reported missing: %v", res.MissingTerms)
	}
	if len(res.DocIDs) != 0 {
		t.Fatalf("docs = %v, want none", res.DocIDs)
	}
}
