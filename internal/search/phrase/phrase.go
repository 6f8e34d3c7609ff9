// Package phrase refines a bag-of-terms AND result with positional
// verification: a document matches the phrase only when some occurrence of
// the first term is followed immediately, position by position, by the
// remaining terms.
package phrase

import (
	"sort"

	"github.com/Harryjl046/eventsearch/internal/index"
	"github.com/Harryjl046/eventsearch/internal/search/booleval"
)

// Source resolves a term to its positional postings. The boolean reports
// whether the term exists in the dictionary.
type Source interface {
	Postings(term string) (index.PostingList, bool)
}

// Match is one phrase hit: the document and every valid start position, so
// occurrence counts can be derived.
type Match struct {
	DocID          string `json:"doc_id"`
	StartPositions []int  `json:"start_positions"`
}

// Result carries the phrase matches plus any terms absent from the
// dictionary. A missing term makes the phrase unmatchable, but it is still
// reported so callers can tell it apart from a phrase that simply never
// occurs.
type Result struct {
	Matches      []Match
	MissingTerms []string
}

// Occurrences returns the total number of phrase occurrences across all
// matched documents.
func (r Result) Occurrences() int {
	n := 0
	for _, m := range r.Matches {
		n += len(m.StartPositions)
	}
	return n
}

// Verify finds the documents containing the terms as a contiguous phrase.
// It first intersects the terms' document sets (positions ignored), then
// checks, for every start position of the first term, that each following
// term occurs at start+i. The matched set is always a subset of the
// AND-only result; the difference is the AND method's false-positive rate.
func Verify(src Source, terms []string) Result {
	if len(terms) == 0 {
		return Result{}
	}
	lists := make([]index.PostingList, len(terms))
	var missing []string
	for i, term := range terms {
		pl, ok := src.Postings(term)
		if !ok {
			missing = append(missing, term)
			continue
		}
		lists[i] = pl
	}
	if len(missing) > 0 {
		return Result{MissingTerms: missing}
	}

	candidates := lists[0].DocIDs()
	for _, pl := range lists[1:] {
		candidates = booleval.Intersect(candidates, pl.DocIDs())
		if len(candidates) == 0 {
			return Result{}
		}
	}

	var matches []Match
	for _, docID := range candidates {
		positions := make([][]int, len(lists))
		for i, pl := range lists {
			positions[i] = findPositions(pl, docID)
		}
		starts := chainStarts(positions)
		if len(starts) > 0 {
			matches = append(matches, Match{DocID: docID, StartPositions: starts})
		}
	}
	return Result{Matches: matches}
}

// chainStarts returns every start position from the first list whose chain
// start+1, start+2, … is present in the following lists. A single-term
// phrase degenerates to the first term's positions.
func chainStarts(positions [][]int) []int {
	if len(positions) == 0 {
		return nil
	}
	if len(positions) == 1 {
		return positions[0]
	}
	var valid []int
	for _, start := range positions[0] {
		ok := true
		for i := 1; i < len(positions); i++ {
			if !containsPosition(positions[i], start+i) {
				ok = false
				break
			}
		}
		if ok {
			valid = append(valid, start)
		}
	}
	return valid
}

func containsPosition(positions []int, p int) bool {
	i := sort.SearchInts(positions, p)
	return i < len(positions) && positions[i] == p
}

func findPositions(pl index.PostingList, docID string) []int {
	i := sort.Search(len(pl), func(i int) bool {
		return pl[i].DocID >= docID
	})
	if i < len(pl) && pl[i].DocID == docID {
		return pl[i].Positions
	}
	return nil
}
