package segment

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/Harryjl046/eventsearch/internal/index"
	apperrors "github.com/Harryjl046/eventsearch/pkg/errors"
)

func buildTestIndex(t *testing.T) *index.InvertedIndex {
	t.Helper()
	b := index.NewBuilder()
	b.AddDocument("d1", []string{"new", "york", "meetup", "group"})
	b.AddDocument("d2", []string{"new", "york", "tech", "workshop"})
	b.AddDocument("d3", []string{"python", "workshop"})
	ix, report := b.Build()
	if len(report.Errors) != 0 {
		t.Fatalf("unexpected build errors: %v", report.Errors)
	}
	return ix
}

func TestSegmentRoundTrip(t *testing.T) {
	ix := buildTestIndex(t)
	dir := t.TempDir()

	entries, err := NewWriter(dir).Write(ix)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if len(entries) != ix.TermCount() {
		t.Fatalf("writer returned %d entries, want %d", len(entries), ix.TermCount())
	}
	// Offsets are contiguous in sorted term order.
	for i := 1; i < len(entries); i++ {
		if entries[i].Offset != entries[i-1].Offset+entries[i-1].Length {
			t.Fatalf("entry %d offset %d not contiguous after %d+%d",
				i, entries[i].Offset, entries[i-1].Offset, entries[i-1].Length)
		}
	}

	r, err := OpenReader(filepath.Join(dir, FileName))
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer r.Close()

	if r.TermCount() != ix.TermCount() {
		t.Fatalf("reader TermCount = %d, want %d", r.TermCount(), ix.TermCount())
	}
	if r.DocCount() != uint32(ix.DocCount()) {
		t.Fatalf("reader DocCount = %d, want %d", r.DocCount(), ix.DocCount())
	}
	for _, term := range ix.Terms() {
		want, _ := ix.Lookup(term)
		got, ok, err := r.Lookup(term)
		if err != nil {
			t.Fatalf("Lookup(%q): %v", term, err)
		}
		if !ok {
			t.Fatalf("term %q missing from segment", term)
		}
		if !reflect.DeepEqual(got.Postings, want.Postings) {
			t.Fatalf("postings for %q = %+v, want %+v", term, got.Postings, want.Postings)
		}
	}

	if _, ok, err := r.Lookup("zebra"); err != nil || ok {
		t.Fatalf("Lookup of absent term = ok=%v err=%v", ok, err)
	}
}

func TestOpenReaderBadMagic(t *testing.T) {
	ix := buildTestIndex(t)
	dir := t.TempDir()
	if _, err := NewWriter(dir).Write(ix); err != nil {
		t.Fatalf("Write: %v", err)
	}
	path := filepath.Join(dir, FileName)
	corruptByteAt(t, path, 0)

	_, err := OpenReader(path)
	if !errors.Is(err, apperrors.ErrCorruptSegment) {
		t.Fatalf("OpenReader error = %v, want ErrCorruptSegment", err)
	}
}

func TestOpenReaderChecksumMismatch(t *testing.T) {
	ix := buildTestIndex(t)
	dir := t.TempDir()
	if _, err := NewWriter(dir).Write(ix); err != nil {
		t.Fatalf("Write: %v", err)
	}
	path := filepath.Join(dir, FileName)

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	// Flip a byte inside the dictionary region, just before the footer.
	corruptByteAt(t, path, info.Size()-int64(FooterSize)-2)

	_, err = OpenReader(path)
	if !errors.Is(err, apperrors.ErrCorruptSegment) {
		t.Fatalf("OpenReader error = %v, want ErrCorruptSegment", err)
	}
}

func TestWriteEmptyIndexFails(t *testing.T) {
	b := index.NewBuilder()
	ix, _ := b.Build()
	if _, err := NewWriter(t.TempDir()).Write(ix); err == nil {
		t.Fatal("writing an empty segment succeeded")
	}
}

func corruptByteAt(t *testing.T, path string, off int64) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		t.Fatalf("opening segment for corruption: %v", err)
	}
	defer f.Close()
	buf := make([]byte, 1)
	if _, err := f.ReadAt(buf, off); err != nil {
		t.Fatalf("reading byte: %v", err)
	}
	buf[0] ^= 0xff
	if _, err := f.WriteAt(buf, off); err != nil {
		t.Fatalf("writing byte: %v", err)
	}
}
