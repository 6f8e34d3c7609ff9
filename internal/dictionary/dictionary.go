// Package dictionary holds the sorted term -> (offset, length) table that
// addresses serialized posting lists inside the postings store, plus two
// compressed binary codecs for it: front-coding and blocking.
package dictionary

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
)

// Entry maps a term to the byte range of its posting list in the postings
// blob. Entries are kept sorted by term; offsets are contiguous, so the
// offset of entry i+1 equals the offset of entry i plus its length.
type Entry struct {
	Term   string
	Offset uint32
	Length uint32
}

type jsonLocation struct {
	Offset uint32 `json:"offset"`
	Length uint32 `json:"length"`
}

// WriteJSON writes the uncompressed dictionary as a term -> {offset, length}
// JSON object.
func WriteJSON(w io.Writer, entries []Entry) error {
	m := make(map[string]jsonLocation, len(entries))
	for _, e := range entries {
		m[e.Term] = jsonLocation{Offset: e.Offset, Length: e.Length}
	}
	enc := json.NewEncoder(w)
	if err := enc.Encode(m); err != nil {
		return fmt.Errorf("encoding dictionary: %w", err)
	}
	return nil
}

// ReadJSON reads the JSON dictionary form and returns its entries sorted by
// term.
func ReadJSON(r io.Reader) ([]Entry, error) {
	var m map[string]jsonLocation
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return nil, fmt.Errorf("decoding dictionary: %w", err)
	}
	entries := make([]Entry, 0, len(m))
	for term, loc := range m {
		entries = append(entries, Entry{Term: term, Offset: loc.Offset, Length: loc.Length})
	}
	Sort(entries)
	return entries, nil
}

// Sort orders entries lexicographically by term, the order both codecs
// require.
func Sort(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Term < entries[j].Term
	})
}

// Find locates a term in a sorted entry slice.
func Find(entries []Entry, term string) (Entry, bool) {
	i := sort.Search(len(entries), func(i int) bool {
		return entries[i].Term >= term
	})
	if i < len(entries) && entries[i].Term == term {
		return entries[i], true
	}
	return Entry{}, false
}

func commonPrefixLen(a, b string) int {
	n := 0
	for n < len(a) && n < len(b) && a[n] == b[n] {
		n++
	}
	return n
}
