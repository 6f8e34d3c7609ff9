// Package index builds and holds the positional inverted index: for every
// term, the list of documents it occurs in, the token positions of each
// occurrence, and a skip-pointer overlay used to accelerate intersections.
package index

// Posting records a term's occurrences in one document. Positions are token
// indexes within the document, 0-based, strictly increasing.
type Posting struct {
	DocID     string `json:"doc"`
	Positions []int  `json:"positions"`
}

// PostingList holds all postings for one term, sorted strictly ascending by
// document id.
type PostingList []Posting

// DocIDs returns the document-id array of the list.
func (pl PostingList) DocIDs() []string {
	ids := make([]string, len(pl))
	for i, p := range pl {
		ids[i] = p.DocID
	}
	return ids
}

// SkipPointer is a shortcut over a posting list's document-id array. From and
// To are indexes into that array; Jump is the stride the pointer was built
// with. Targets are strictly greater than their sources and monotonically
// increasing across the overlay.
type SkipPointer struct {
	From int `json:"from"`
	To   int `json:"to"`
	Jump int `json:"jump"`
}

// TermPostings is the per-term unit of the index: the posting list plus its
// skip overlay.
type TermPostings struct {
	Postings PostingList   `json:"postings"`
	Skips    []SkipPointer `json:"skips"`
}

// DocFrequency returns the number of documents the term occurs in.
func (tp *TermPostings) DocFrequency() int {
	return len(tp.Postings)
}
