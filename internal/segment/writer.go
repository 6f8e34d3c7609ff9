// Package segment persists the built index as a single read-only file: a
// postings blob addressed purely through dictionary (offset, length) pairs,
// framed by a fixed header and a CRC-carrying footer.
package segment

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"hash/crc32"
	"os"
	"path/filepath"
	"time"

	"github.com/Harryjl046/eventsearch/internal/dictionary"
	"github.com/Harryjl046/eventsearch/internal/index"
)

// MagicBytes identifies a valid .evsx segment file.
const (
	MagicBytes    uint32 = 0x45565358
	FormatVersion uint32 = 1
	HeaderSize    int    = 64
	FooterSize    int    = 32

	// FileName is the single segment produced by a build.
	FileName = "postings.evsx"
)

// segmentHeader is the 64-byte header written at the start of the file.
type segmentHeader struct {
	Magic      uint32
	Version    uint32
	TermCount  uint32
	DocCount   uint32
	CreatedAt  int64
	DictOffset int64
	DictSize   int64
	PostOffset int64
	PostSize   int64
}

// Writer serialises a built index into a new segment file.
type Writer struct {
	dataDir string
}

// NewWriter creates a Writer that writes into the given directory.
func NewWriter(dataDir string) *Writer {
	return &Writer{dataDir: dataDir}
}

// Write creates the segment file for the index and returns the dictionary
// entries addressing each term's serialized postings. It writes to a .tmp
// file first and renames on success. Posting lists are laid out in sorted
// term order, so entry offsets are contiguous and non-overlapping.
func (w *Writer) Write(ix *index.InvertedIndex) ([]dictionary.Entry, error) {
	terms := ix.Terms()
	if len(terms) == 0 {
		return nil, fmt.Errorf("cannot write empty segment")
	}
	finalPath := filepath.Join(w.dataDir, FileName)
	tmpPath := finalPath + ".tmp"

	if err := os.MkdirAll(w.dataDir, 0755); err != nil {
		return nil, fmt.Errorf("creating segment directory: %w", err)
	}
	f, err := os.Create(tmpPath)
	if err != nil {
		return nil, fmt.Errorf("creating temp segment file: %w", err)
	}
	defer f.Close()

	header := segmentHeader{
		Magic:     MagicBytes,
		Version:   FormatVersion,
		TermCount: uint32(len(terms)),
		DocCount:  uint32(ix.DocCount()),
		CreatedAt: time.Now().Unix(),
	}
	headerBytes := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint32(headerBytes[0:4], header.Magic)
	binary.LittleEndian.PutUint32(headerBytes[4:8], header.Version)
	binary.LittleEndian.PutUint32(headerBytes[8:12], header.TermCount)
	binary.LittleEndian.PutUint32(headerBytes[12:16], header.DocCount)
	binary.LittleEndian.PutUint64(headerBytes[16:24], uint64(header.CreatedAt))
	if _, err := f.Write(headerBytes); err != nil {
		return nil, fmt.Errorf("writing header: %w", err)
	}

	postingsStart, _ := f.Seek(0, 1)
	entries := make([]dictionary.Entry, 0, len(terms))
	for _, term := range terms {
		tp, _ := ix.Lookup(term)
		offset, _ := f.Seek(0, 1)
		postingsData, err := json.Marshal(tp)
		if err != nil {
			return nil, fmt.Errorf("marshaling postings for term %q: %w", term, err)
		}
		if _, err := f.Write(postingsData); err != nil {
			return nil, fmt.Errorf("writing postings for term %q: %w", term, err)
		}
		entries = append(entries, dictionary.Entry{
			Term:   term,
			Offset: uint32(offset - postingsStart),
			Length: uint32(len(postingsData)),
		})
	}

	postingsEnd, _ := f.Seek(0, 1)
	postingsSize := postingsEnd - postingsStart
	dictStart := postingsEnd
	dictData, err := json.Marshal(entries)
	if err != nil {
		return nil, fmt.Errorf("marshaling dictionary: %w", err)
	}
	if _, err := f.Write(dictData); err != nil {
		return nil, fmt.Errorf("writing dictionary: %w", err)
	}
	dictEnd, _ := f.Seek(0, 1)
	dictSize := dictEnd - dictStart

	checksum := crc32.ChecksumIEEE(dictData)
	footer := make([]byte, FooterSize)
	binary.LittleEndian.PutUint32(footer[0:4], checksum)
	binary.LittleEndian.PutUint32(footer[4:8], header.DocCount)
	binary.LittleEndian.PutUint64(footer[8:16], uint64(dictStart))
	binary.LittleEndian.PutUint64(footer[16:24], uint64(dictSize))
	binary.LittleEndian.PutUint64(footer[24:32], uint64(postingsSize))
	if _, err := f.Write(footer); err != nil {
		return nil, fmt.Errorf("writing footer: %w", err)
	}

	binary.LittleEndian.PutUint64(headerBytes[24:32], uint64(dictStart))
	binary.LittleEndian.PutUint64(headerBytes[32:40], uint64(dictSize))
	binary.LittleEndian.PutUint64(headerBytes[40:48], uint64(postingsStart))
	binary.LittleEndian.PutUint64(headerBytes[48:56], uint64(postingsSize))
	if _, err := f.WriteAt(headerBytes, 0); err != nil {
		return nil, fmt.Errorf("updating header: %w", err)
	}
	if err := f.Sync(); err != nil {
		return nil, fmt.Errorf("syncing segment file: %w", err)
	}
	f.Close()
	if err := os.Rename(tmpPath, finalPath); err != nil {
		return nil, fmt.Errorf("renaming segment file: %w", err)
	}
	return entries, nil
}
