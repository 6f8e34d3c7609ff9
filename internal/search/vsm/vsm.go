// Package vsm ranks documents against free-text queries with the vector
// space model: saturating log TF, log IDF, and cosine similarity.
package vsm

import (
	"math"
	"sort"

	"github.com/Harryjl046/eventsearch/internal/index"
)

// ScoredDoc pairs a document with its cosine similarity to the query.
type ScoredDoc struct {
	DocID string  `json:"doc_id"`
	Score float64 `json:"score"`
}

// Ranker holds TF-IDF document vectors derived from an index. The vectors
// are transient query-time state, never persisted; the Ranker itself is
// immutable after construction and safe for concurrent use.
type Ranker struct {
	totalDocs  int
	idf        map[string]float64
	docVectors map[string]map[string]float64
	docNorms   map[string]float64
}

// TF returns the saturating term-frequency weight 1 + log10(tf/length) for
// tf > 0, and 0 otherwise. The same formula applies to documents (length in
// tokens) and queries (length in query terms).
func TF(termFreq, length int) float64 {
	if termFreq <= 0 || length <= 0 {
		return 0
	}
	return 1 + math.Log10(float64(termFreq)/float64(length))
}

// IDF returns log10(totalDocs/docFreq), or 0 when the term occurs nowhere.
func IDF(totalDocs, docFreq int) float64 {
	if docFreq <= 0 || totalDocs <= 0 {
		return 0
	}
	return math.Log10(float64(totalDocs) / float64(docFreq))
}

// NewRanker derives per-document TF-IDF vectors and their norms from the
// index.
func NewRanker(ix *index.InvertedIndex) *Ranker {
	r := &Ranker{
		totalDocs:  ix.DocCount(),
		idf:        make(map[string]float64, ix.TermCount()),
		docVectors: make(map[string]map[string]float64, ix.DocCount()),
	}
	for _, term := range ix.Terms() {
		tp, _ := ix.Lookup(term)
		idf := IDF(r.totalDocs, tp.DocFrequency())
		r.idf[term] = idf
		for _, p := range tp.Postings {
			vec, ok := r.docVectors[p.DocID]
			if !ok {
				vec = make(map[string]float64)
				r.docVectors[p.DocID] = vec
			}
			tf := TF(len(p.Positions), ix.DocLength(p.DocID))
			vec[term] = tf * idf
		}
	}
	r.docNorms = make(map[string]float64, len(r.docVectors))
	for docID, vec := range r.docVectors {
		var sum float64
		for _, w := range vec {
			sum += w * w
		}
		r.docNorms[docID] = math.Sqrt(sum)
	}
	return r
}

// QueryVector builds the TF-IDF vector of a free-text query. Terms unknown
// to the index get weight 0.
func (r *Ranker) QueryVector(queryTerms []string) map[string]float64 {
	counts := make(map[string]int, len(queryTerms))
	for _, term := range queryTerms {
		counts[term]++
	}
	vec := make(map[string]float64, len(counts))
	for term, count := range counts {
		idf, known := r.idf[term]
		if !known {
			vec[term] = 0
			continue
		}
		vec[term] = TF(count, len(queryTerms)) * idf
	}
	return vec
}

// Cosine computes the similarity between a document vector and a query
// vector. The dot product ranges only over the query's non-zero terms
// (terms absent from the document contribute zero, never penalize); the
// norms cover the full vectors. A zero-norm vector on either side yields 0.
func Cosine(docVector, queryVector map[string]float64, docNorm float64) float64 {
	var dot float64
	for term, qw := range queryVector {
		dot += docVector[term] * qw
	}
	var qsum float64
	for _, w := range queryVector {
		qsum += w * w
	}
	queryNorm := math.Sqrt(qsum)
	if docNorm == 0 || queryNorm == 0 {
		return 0
	}
	return dot / (docNorm * queryNorm)
}

// Rank scores every document against the query, keeps those with positive
// similarity, and returns the top N ordered by descending score with ties
// broken by ascending document id for determinism.
func (r *Ranker) Rank(queryTerms []string, topN int) []ScoredDoc {
	queryVector := r.QueryVector(queryTerms)
	results := make([]ScoredDoc, 0, len(r.docVectors))
	for docID, vec := range r.docVectors {
		score := Cosine(vec, queryVector, r.docNorms[docID])
		if score > 0 {
			results = append(results, ScoredDoc{DocID: docID, Score: score})
		}
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].DocID < results[j].DocID
	})
	if topN > 0 && len(results) > topN {
		results = results[:topN]
	}
	return results
}

// DocumentKeywords returns a document's top-k terms by TF-IDF weight.
func (r *Ranker) DocumentKeywords(docID string, k int) []string {
	vec, ok := r.docVectors[docID]
	if !ok {
		return nil
	}
	type termWeight struct {
		term   string
		weight float64
	}
	weights := make([]termWeight, 0, len(vec))
	for term, w := range vec {
		weights = append(weights, termWeight{term, w})
	}
	sort.Slice(weights, func(i, j int) bool {
		if weights[i].weight != weights[j].weight {
			return weights[i].weight > weights[j].weight
		}
		return weights[i].term < weights[j].term
	})
	if k > len(weights) {
		k = len(weights)
	}
	keywords := make([]string, k)
	for i := 0; i < k; i++ {
		keywords[i] = weights[i].term
	}
	return keywords
}
