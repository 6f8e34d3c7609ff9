package dictionary

import (
	"bytes"
	"encoding/binary"
	"net/http"
	"strings"

	apperrors "github.com/Harryjl046/eventsearch/pkg/errors"
)

// DefaultBlockSize is the number of terms grouped under one base term.
const DefaultBlockSize = 4

// FrontCodingEncode serializes sorted entries using shared-prefix
// elimination. Each block of blockSize terms stores its first (base) term in
// full with prefix length 0; every following term stores only the length of
// the prefix it shares with the base plus the remaining suffix bytes.
//
// Record layout, little-endian:
//
//	[prefix_len:u8][suffix_len:u8][suffix][offset:u32][length:u32]
//
// Prefix and suffix lengths are single bytes, so no term may exceed 255
// bytes; such a term is an encode error, never a silent truncation.
func FrontCodingEncode(entries []Entry, blockSize int) ([]byte, error) {
	if blockSize < 1 {
		blockSize = DefaultBlockSize
	}
	var buf bytes.Buffer
	for i := 0; i < len(entries); i += blockSize {
		block := entries[i:min(i+blockSize, len(entries))]
		base := block[0].Term
		if len(base) > 255 {
			return nil, apperrors.Newf(apperrors.ErrTermTooLong, http.StatusBadRequest,
				"term %q is %d bytes", base, len(base))
		}
		writeFrontCodedRecord(&buf, 0, base, block[0])
		for _, e := range block[1:] {
			if len(e.Term) > 255 {
				return nil, apperrors.Newf(apperrors.ErrTermTooLong, http.StatusBadRequest,
					"term %q is %d bytes", e.Term, len(e.Term))
			}
			prefix := commonPrefixLen(base, e.Term)
			writeFrontCodedRecord(&buf, prefix, e.Term[prefix:], e)
		}
	}
	return buf.Bytes(), nil
}

func writeFrontCodedRecord(buf *bytes.Buffer, prefixLen int, suffix string, e Entry) {
	buf.WriteByte(byte(prefixLen))
	buf.WriteByte(byte(len(suffix)))
	buf.WriteString(suffix)
	var u32 [8]byte
	binary.LittleEndian.PutUint32(u32[0:4], e.Offset)
	binary.LittleEndian.PutUint32(u32[4:8], e.Length)
	buf.Write(u32[:])
}

// FrontCodingDecode reconstructs the entries from a front-coded blob. The
// base term resets at every prefix-length-0 record. Undecodable byte
// sequences in term bytes are replaced rather than aborting the scan; a
// truncated record stops the scan and returns the entries decoded so far
// together with a corruption error.
func FrontCodingDecode(data []byte) ([]Entry, error) {
	var entries []Entry
	var base string
	i := 0
	for i < len(data) {
		if i+2 > len(data) {
			return entries, apperrors.Newf(apperrors.ErrCorruptDictionary, 0,
				"truncated record header at byte %d", i)
		}
		prefixLen := int(data[i])
		suffixLen := int(data[i+1])
		i += 2
		if i+suffixLen+8 > len(data) {
			return entries, apperrors.Newf(apperrors.ErrCorruptDictionary, 0,
				"truncated record body at byte %d", i)
		}
		suffix := strings.ToValidUTF8(string(data[i:i+suffixLen]), "�")
		i += suffixLen
		offset := binary.LittleEndian.Uint32(data[i : i+4])
		length := binary.LittleEndian.Uint32(data[i+4 : i+8])
		i += 8

		var term string
		if prefixLen == 0 {
			base = suffix
			term = base
		} else {
			if prefixLen > len(base) {
				return entries, apperrors.Newf(apperrors.ErrCorruptDictionary, 0,
					"prefix length %d exceeds base term %q", prefixLen, base)
			}
			term = base[:prefixLen] + suffix
		}
		entries = append(entries, Entry{Term: term, Offset: offset, Length: length})
	}
	return entries, nil
}
