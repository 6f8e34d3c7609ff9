package index

import (
	"fmt"
	"log/slog"
	"math"
	"runtime"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	apperrors "github.com/Harryjl046/eventsearch/pkg/errors"
)

// DocumentError records a per-document integrity failure found during the
// build. The affected document is dropped; the build continues for others.
type DocumentError struct {
	DocID string
	Err   error
}

func (e DocumentError) Error() string {
	return fmt.Sprintf("document %s: %v", e.DocID, e.Err)
}

// BuildReport summarises one index build.
type BuildReport struct {
	DocsIndexed int
	TermCount   int
	Errors      []DocumentError
}

// Builder accumulates term occurrences across one pass over the corpus and
// finalizes them into an immutable InvertedIndex. It owns all mutable state;
// nothing survives past Build.
type Builder struct {
	terms      map[string]map[string][]int // term -> doc -> positions
	docLengths map[string]int
	badDocs    map[string]struct{}
	errs       []DocumentError
	logger     *slog.Logger
}

// NewBuilder creates an empty Builder.
func NewBuilder() *Builder {
	return &Builder{
		terms:      make(map[string]map[string][]int),
		docLengths: make(map[string]int),
		badDocs:    make(map[string]struct{}),
		logger:     slog.Default().With("component", "index-builder"),
	}
}

// AddDocument consumes one document's normalized token sequence. Positions
// are assigned by token index, 0-based. An empty token sequence yields no
// entries. Re-adding a document id is an integrity error for that document.
func (b *Builder) AddDocument(docID string, tokens []string) {
	if _, seen := b.docLengths[docID]; seen {
		b.markBad(docID, apperrors.Newf(apperrors.ErrInvalidInput, 0, "document %s added twice", docID))
		return
	}
	b.docLengths[docID] = len(tokens)
	for pos, term := range tokens {
		docs, ok := b.terms[term]
		if !ok {
			docs = make(map[string][]int)
			b.terms[term] = docs
		}
		docs[docID] = append(docs[docID], pos)
	}
}

// AddPositions inserts pre-computed positions for one (term, document) pair,
// used when loading a persisted index. Malformed positions (negative or
// non-monotonic) are fatal for the document only.
func (b *Builder) AddPositions(docID, term string, positions []int) {
	if err := validatePositions(positions); err != nil {
		b.markBad(docID, err)
		return
	}
	docs, ok := b.terms[term]
	if !ok {
		docs = make(map[string][]int)
		b.terms[term] = docs
	}
	docs[docID] = positions
	b.docLengths[docID] += len(positions)
}

func (b *Builder) markBad(docID string, err error) {
	if _, dup := b.badDocs[docID]; dup {
		return
	}
	b.badDocs[docID] = struct{}{}
	b.errs = append(b.errs, DocumentError{DocID: docID, Err: err})
	b.logger.Warn("document dropped from build", "doc_id", docID, "error", err)
}

// Build sorts the accumulated postings and materializes the immutable index.
// Per-term finalization is independent and runs in parallel. All collected
// integrity errors are surfaced in the report; none aborts the build.
func (b *Builder) Build() (*InvertedIndex, BuildReport) {
	termList := make([]string, 0, len(b.terms))
	for term := range b.terms {
		termList = append(termList, term)
	}
	sort.Strings(termList)

	finalized := make(map[string]*TermPostings, len(termList))
	var mu sync.Mutex
	g := new(errgroup.Group)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for _, term := range termList {
		term := term
		docs := b.terms[term]
		g.Go(func() error {
			tp := b.finalizeTerm(docs)
			if tp == nil {
				return nil
			}
			mu.Lock()
			finalized[term] = tp
			mu.Unlock()
			return nil
		})
	}
	// Finalization never returns an error; errgroup is used for its
	// bounded-concurrency wait semantics.
	_ = g.Wait()

	docLengths := make(map[string]int, len(b.docLengths))
	for docID, n := range b.docLengths {
		if _, bad := b.badDocs[docID]; bad {
			continue
		}
		docLengths[docID] = n
	}

	// Drop terms whose only occurrences were in bad documents.
	for term, tp := range finalized {
		if len(tp.Postings) == 0 {
			delete(finalized, term)
		}
	}

	idx := &InvertedIndex{
		terms:      finalized,
		docLengths: docLengths,
	}
	report := BuildReport{
		DocsIndexed: len(docLengths),
		TermCount:   len(finalized),
		Errors:      b.errs,
	}
	b.logger.Info("index build complete",
		"docs", report.DocsIndexed,
		"terms", report.TermCount,
		"dropped_docs", len(b.errs),
	)
	return idx, report
}

func (b *Builder) finalizeTerm(docs map[string][]int) *TermPostings {
	docIDs := make([]string, 0, len(docs))
	for docID := range docs {
		if _, bad := b.badDocs[docID]; bad {
			continue
		}
		docIDs = append(docIDs, docID)
	}
	if len(docIDs) == 0 {
		return &TermPostings{}
	}
	sort.Strings(docIDs)
	postings := make(PostingList, len(docIDs))
	for i, docID := range docIDs {
		postings[i] = Posting{DocID: docID, Positions: docs[docID]}
	}
	return &TermPostings{
		Postings: postings,
		Skips:    BuildSkipPointers(len(postings)),
	}
}

// BuildSkipPointers computes the skip overlay for a posting list of length n
// with stride max(1, floor(sqrt(n))). A stride below 2 emits no pointers, and
// a stride start only gets a pointer when its target lands inside the list.
func BuildSkipPointers(n int) []SkipPointer {
	step := int(math.Sqrt(float64(n)))
	if step < 2 {
		return nil
	}
	var skips []SkipPointer
	for i := 0; i < n; i += step {
		if next := i + step; next < n {
			skips = append(skips, SkipPointer{From: i, To: next, Jump: step})
		}
	}
	return skips
}

func validatePositions(positions []int) error {
	for i, p := range positions {
		if p < 0 {
			return apperrors.Newf(apperrors.ErrMalformedPositions, 0, "negative position %d", p)
		}
		if i > 0 && p <= positions[i-1] {
			return apperrors.Newf(apperrors.ErrMalformedPositions, 0, "non-monotonic position %d after %d", p, positions[i-1])
		}
	}
	return nil
}
