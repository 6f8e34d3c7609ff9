package index

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// WriteJSON persists the index in its intermediate JSON form:
// term -> {postings: [{doc, positions}], skips: [{from, to, jump}]}.
func (ix *InvertedIndex) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	if err := enc.Encode(ix.terms); err != nil {
		return fmt.Errorf("encoding inverted index: %w", err)
	}
	return nil
}

// WriteJSONFile writes the JSON form to path via a temp file and rename.
func (ix *InvertedIndex) WriteJSONFile(path string) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("creating index file: %w", err)
	}
	if err := ix.WriteJSON(f); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing index file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("renaming index file: %w", err)
	}
	return nil
}

// ReadJSON loads an index from its intermediate JSON form. Every posting is
// re-validated: documents with negative or non-monotonic positions are
// dropped with a per-document error in the report while the rest of the scan
// continues. Skip overlays are recomputed rather than trusted, and document
// lengths are re-derived from position counts.
func ReadJSON(r io.Reader) (*InvertedIndex, BuildReport, error) {
	var raw map[string]TermPostings
	dec := json.NewDecoder(r)
	if err := dec.Decode(&raw); err != nil {
		return nil, BuildReport{}, fmt.Errorf("decoding inverted index: %w", err)
	}
	b := NewBuilder()
	for term, tp := range raw {
		var prevDoc string
		for i, p := range tp.Postings {
			if i > 0 && p.DocID <= prevDoc {
				b.markBad(p.DocID, fmt.Errorf("posting list for %q not strictly ascending at %q", term, p.DocID))
				prevDoc = p.DocID
				continue
			}
			prevDoc = p.DocID
			b.AddPositions(p.DocID, term, p.Positions)
		}
	}
	idx, report := b.Build()
	return idx, report, nil
}

// ReadJSONFile loads the JSON form from path.
func ReadJSONFile(path string) (*InvertedIndex, BuildReport, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, BuildReport{}, fmt.Errorf("opening index file: %w", err)
	}
	defer f.Close()
	return ReadJSON(f)
}
