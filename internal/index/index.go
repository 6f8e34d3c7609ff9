package index

import (
	"sort"
)

// InvertedIndex is the finalized, read-only positional index. Query
// components never mutate it; concurrent readers need no synchronization.
type InvertedIndex struct {
	terms      map[string]*TermPostings
	docLengths map[string]int
}

// Lookup returns the postings for a term. The second return value reports
// whether the term exists in the dictionary at all, which callers must keep
// distinct from an existing term with empty postings.
func (ix *InvertedIndex) Lookup(term string) (*TermPostings, bool) {
	tp, ok := ix.terms[term]
	return tp, ok
}

// DocFrequency returns the number of documents containing term, or 0 when
// the term is unknown.
func (ix *InvertedIndex) DocFrequency(term string) int {
	tp, ok := ix.terms[term]
	if !ok {
		return 0
	}
	return tp.DocFrequency()
}

// Terms returns all terms in lexicographic order.
func (ix *InvertedIndex) Terms() []string {
	terms := make([]string, 0, len(ix.terms))
	for term := range ix.terms {
		terms = append(terms, term)
	}
	sort.Strings(terms)
	return terms
}

// TermCount returns the number of distinct terms.
func (ix *InvertedIndex) TermCount() int {
	return len(ix.terms)
}

// DocCount returns the number of documents in the index.
func (ix *InvertedIndex) DocCount() int {
	return len(ix.docLengths)
}

// DocLength returns a document's length in tokens.
func (ix *InvertedIndex) DocLength(docID string) int {
	return ix.docLengths[docID]
}

// DocIDs returns all document ids in ascending order.
func (ix *InvertedIndex) DocIDs() []string {
	ids := make([]string, 0, len(ix.docLengths))
	for id := range ix.docLengths {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// DFBucket is one row of the document-frequency histogram.
type DFBucket struct {
	Label string `json:"label"`
	Min   int    `json:"min"`
	Max   int    `json:"max"` // 0 means unbounded
	Count int    `json:"count"`
}

// TermDF pairs a term with its document frequency.
type TermDF struct {
	Term string `json:"term"`
	DF   int    `json:"df"`
}

// Stats describes the term distribution of the index.
type Stats struct {
	TermCount int        `json:"term_count"`
	DocCount  int        `json:"doc_count"`
	Buckets   []DFBucket `json:"df_buckets"`
	TopTerms  []TermDF   `json:"top_terms"`
}

// ComputeStats builds a document-frequency histogram and the top-k terms by
// DF, used to pick representative terms for benchmarking.
func (ix *InvertedIndex) ComputeStats(topK int) Stats {
	buckets := []DFBucket{
		{Label: "ultra-high", Min: 10000, Max: 0},
		{Label: "high", Min: 5000, Max: 10000},
		{Label: "mid-high", Min: 1000, Max: 5000},
		{Label: "mid", Min: 500, Max: 1000},
		{Label: "mid-low", Min: 100, Max: 500},
		{Label: "low", Min: 10, Max: 100},
		{Label: "ultra-low", Min: 1, Max: 10},
	}
	dfs := make([]TermDF, 0, len(ix.terms))
	for term, tp := range ix.terms {
		df := tp.DocFrequency()
		dfs = append(dfs, TermDF{Term: term, DF: df})
		for i := range buckets {
			if df >= buckets[i].Min && (buckets[i].Max == 0 || df < buckets[i].Max) {
				buckets[i].Count++
				break
			}
		}
	}
	sort.Slice(dfs, func(i, j int) bool {
		if dfs[i].DF != dfs[j].DF {
			return dfs[i].DF > dfs[j].DF
		}
		return dfs[i].Term < dfs[j].Term
	})
	if topK > len(dfs) {
		topK = len(dfs)
	}
	return Stats{
		TermCount: len(ix.terms),
		DocCount:  len(ix.docLengths),
		Buckets:   buckets,
		TopTerms:  dfs[:topK],
	}
}
