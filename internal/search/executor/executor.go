// Package executor wires the query pipeline together: parsing, boolean
// evaluation, phrase verification, and vector-space ranking over one built
// index.
package executor

import (
	"context"
	"log/slog"
	"strings"

	"github.com/Harryjl046/eventsearch/internal/index"
	"github.com/Harryjl046/eventsearch/internal/search/booleval"
	"github.com/Harryjl046/eventsearch/internal/search/parser"
	"github.com/Harryjl046/eventsearch/internal/search/phrase"
	"github.com/Harryjl046/eventsearch/internal/search/vsm"
	"github.com/Harryjl046/eventsearch/pkg/config"
	"github.com/Harryjl046/eventsearch/pkg/logger"
)

// Executor evaluates queries against an immutable index. All query paths
// are pure reads; one Executor serves concurrent callers.
type Executor struct {
	idx      *index.InvertedIndex
	ranker   *vsm.Ranker
	strategy booleval.Strategy
	logger   *slog.Logger
}

// New creates an Executor, deriving the ranker's document vectors up front.
func New(idx *index.InvertedIndex, strategy booleval.Strategy) *Executor {
	e := &Executor{
		idx:      idx,
		ranker:   vsm.NewRanker(idx),
		strategy: strategy,
		logger:   slog.Default().With("component", "query-executor"),
	}
	e.logger.Info("executor ready", "docs", idx.DocCount(), "terms", idx.TermCount())
	return e
}

// StrategyFromConfig maps the search config onto an evaluation strategy.
// Unrecognised values fall back to the efficient defaults.
func StrategyFromConfig(cfg config.SearchConfig) booleval.Strategy {
	strat := booleval.Strategy{UseSkips: true}
	if cfg.TermOrder == "high-df-first" {
		strat.TermOrder = booleval.HighDFFirst
	}
	if cfg.OrHandling == "distribute" {
		strat.OrHandling = booleval.DistributeAND
	}
	return strat
}

// BooleanResult is the response of a boolean query.
type BooleanResult struct {
	Query        string   `json:"query"`
	TotalHits    int      `json:"total_hits"`
	DocIDs       []string `json:"doc_ids"`
	MissingTerms []string `json:"missing_terms,omitempty"`
}

// Boolean parses and evaluates a boolean expression. Terms absent from the
// dictionary are reported in the result, never conflated with terms that
// exist but match nothing.
func (e *Executor) Boolean(ctx context.Context, query string) (*BooleanResult, error) {
	expr, err := parser.Parse(query)
	if err != nil {
		return nil, err
	}
	res := booleval.Evaluate(e.source(), expr, e.strategy)
	if res.DocIDs == nil {
		res.DocIDs = []string{}
	}
	logger.FromContext(ctx).Info("boolean query executed",
		"query", query,
		"hits", len(res.DocIDs),
		"missing_terms", res.MissingTerms,
	)
	return &BooleanResult{
		Query:        query,
		TotalHits:    len(res.DocIDs),
		DocIDs:       res.DocIDs,
		MissingTerms: res.MissingTerms,
	}, nil
}

// PhraseResult is the response of a phrase query.
type PhraseResult struct {
	Phrase       string         `json:"phrase"`
	TotalHits    int            `json:"total_hits"`
	Occurrences  int            `json:"occurrences"`
	Matches      []phrase.Match `json:"matches"`
	MissingTerms []string       `json:"missing_terms,omitempty"`
}

// Phrase verifies a contiguous phrase given as space-separated terms.
func (e *Executor) Phrase(ctx context.Context, phraseText string) (*PhraseResult, error) {
	terms := strings.Fields(phraseText)
	res := phrase.Verify(e.source(), terms)
	matches := res.Matches
	if matches == nil {
		matches = []phrase.Match{}
	}
	logger.FromContext(ctx).Info("phrase query executed",
		"phrase", phraseText,
		"hits", len(matches),
		"occurrences", res.Occurrences(),
		"missing_terms", res.MissingTerms,
	)
	return &PhraseResult{
		Phrase:       phraseText,
		TotalHits:    len(matches),
		Occurrences:  res.Occurrences(),
		Matches:      matches,
		MissingTerms: res.MissingTerms,
	}, nil
}

// RankedResult is the response of a free-text ranked query.
type RankedResult struct {
	Query     string          `json:"query"`
	TotalHits int             `json:"total_hits"`
	Results   []vsm.ScoredDoc `json:"results"`
}

// Ranked scores documents against the free-text query and returns the top
// limit results.
func (e *Executor) Ranked(ctx context.Context, query string, limit int) (*RankedResult, error) {
	terms := strings.Fields(query)
	results := e.ranker.Rank(terms, limit)
	if results == nil {
		results = []vsm.ScoredDoc{}
	}
	logger.FromContext(ctx).Info("ranked query executed",
		"query", query,
		"results", len(results),
		"limit", limit,
	)
	return &RankedResult{
		Query:     query,
		TotalHits: len(results),
		Results:   results,
	}, nil
}

// Stats exposes the index's term-distribution statistics.
func (e *Executor) Stats() index.Stats {
	return e.idx.ComputeStats(30)
}

// Keywords returns a document's highest-weight terms.
func (e *Executor) Keywords(docID string, k int) []string {
	return e.ranker.DocumentKeywords(docID, k)
}

func (e *Executor) source() indexSource {
	return indexSource{idx: e.idx}
}

// indexSource adapts the index to the booleval and phrase lookup contracts.
type indexSource struct {
	idx *index.InvertedIndex
}

func (s indexSource) SkipList(term string) (booleval.SkipList, bool) {
	tp, ok := s.idx.Lookup(term)
	if !ok {
		return booleval.SkipList{}, false
	}
	return booleval.SkipList{Docs: tp.Postings.DocIDs(), Skips: tp.Skips}, true
}

func (s indexSource) Postings(term string) (index.PostingList, bool) {
	tp, ok := s.idx.Lookup(term)
	if !ok {
		return nil, false
	}
	return tp.Postings, true
}
