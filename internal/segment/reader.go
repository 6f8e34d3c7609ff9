package segment

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"hash/crc32"
	"net/http"
	"os"

	"github.com/Harryjl046/eventsearch/internal/dictionary"
	"github.com/Harryjl046/eventsearch/internal/index"
	apperrors "github.com/Harryjl046/eventsearch/pkg/errors"
)

// Reader provides read access to a segment file. Posting lists are fetched
// exclusively through dictionary (offset, length) pairs; the blob is never
// scanned directly.
type Reader struct {
	file     *os.File
	filePath string
	header   segmentHeader
	entries  []dictionary.Entry
	postBase int64
}

// OpenReader opens and validates a segment file, loading its dictionary.
func OpenReader(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening segment file: %w", err)
	}
	headerBytes := make([]byte, HeaderSize)
	if _, err := f.ReadAt(headerBytes, 0); err != nil {
		f.Close()
		return nil, fmt.Errorf("reading segment header: %w", err)
	}
	magic := binary.LittleEndian.Uint32(headerBytes[0:4])
	if magic != MagicBytes {
		f.Close()
		return nil, apperrors.Newf(apperrors.ErrCorruptSegment, http.StatusInternalServerError,
			"bad magic bytes %x", magic)
	}
	header := segmentHeader{
		Magic:      magic,
		Version:    binary.LittleEndian.Uint32(headerBytes[4:8]),
		TermCount:  binary.LittleEndian.Uint32(headerBytes[8:12]),
		DocCount:   binary.LittleEndian.Uint32(headerBytes[12:16]),
		CreatedAt:  int64(binary.LittleEndian.Uint64(headerBytes[16:24])),
		DictOffset: int64(binary.LittleEndian.Uint64(headerBytes[24:32])),
		DictSize:   int64(binary.LittleEndian.Uint64(headerBytes[32:40])),
		PostOffset: int64(binary.LittleEndian.Uint64(headerBytes[40:48])),
		PostSize:   int64(binary.LittleEndian.Uint64(headerBytes[48:56])),
	}
	dictBytes := make([]byte, header.DictSize)
	if _, err := f.ReadAt(dictBytes, header.DictOffset); err != nil {
		f.Close()
		return nil, fmt.Errorf("reading dictionary: %w", err)
	}
	footer := make([]byte, FooterSize)
	if _, err := f.ReadAt(footer, header.DictOffset+header.DictSize); err != nil {
		f.Close()
		return nil, fmt.Errorf("reading footer: %w", err)
	}
	if checksum := binary.LittleEndian.Uint32(footer[0:4]); checksum != crc32.ChecksumIEEE(dictBytes) {
		f.Close()
		return nil, apperrors.New(apperrors.ErrCorruptSegment, http.StatusInternalServerError,
			"dictionary checksum mismatch")
	}
	var entries []dictionary.Entry
	if err := json.Unmarshal(dictBytes, &entries); err != nil {
		f.Close()
		return nil, fmt.Errorf("parsing dictionary: %w", err)
	}
	return &Reader{
		file:     f,
		filePath: path,
		header:   header,
		entries:  entries,
		postBase: header.PostOffset,
	}, nil
}

// Lookup fetches a term's postings via its dictionary entry. The boolean
// reports whether the term exists in the dictionary.
func (r *Reader) Lookup(term string) (*index.TermPostings, bool, error) {
	entry, ok := dictionary.Find(r.entries, term)
	if !ok {
		return nil, false, nil
	}
	tp, err := r.ReadAt(entry)
	if err != nil {
		return nil, true, err
	}
	return tp, true, nil
}

// ReadAt fetches the postings addressed by an arbitrary dictionary entry.
func (r *Reader) ReadAt(entry dictionary.Entry) (*index.TermPostings, error) {
	buf := make([]byte, entry.Length)
	if _, err := r.file.ReadAt(buf, r.postBase+int64(entry.Offset)); err != nil {
		return nil, fmt.Errorf("reading postings: %w", err)
	}
	var tp index.TermPostings
	if err := json.Unmarshal(buf, &tp); err != nil {
		return nil, fmt.Errorf("parsing postings: %w", err)
	}
	return &tp, nil
}

// Entries returns the segment's dictionary, sorted by term.
func (r *Reader) Entries() []dictionary.Entry {
	return r.entries
}

// TermCount returns the number of terms in the segment.
func (r *Reader) TermCount() int {
	return len(r.entries)
}

// DocCount returns the number of documents the segment was built from.
func (r *Reader) DocCount() uint32 {
	return r.header.DocCount
}

// Close closes the underlying file.
func (r *Reader) Close() error {
	return r.file.Close()
}
