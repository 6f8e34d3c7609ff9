package dictionary

import (
	"bytes"
	"encoding/binary"
	"strings"

	apperrors "github.com/Harryjl046/eventsearch/pkg/errors"
)

// blockingSlots is the fixed number of term slots per blocking record.
const blockingSlots = 4

// BlockGroup is one decoded blocking record: up to four terms, the postings
// offset of the first term, and the auxiliary lengths of the first three
// terms (zero-padded when the final block is short).
type BlockGroup struct {
	Terms      []string
	Offset     uint32
	AuxLengths [3]uint32
}

// BlockingEncode serializes sorted entries as fixed-layout records of four
// terms each. Record layout, little-endian:
//
//	[record_len:u32] then 4 x [term_len:u16][term], [offset:u32], 3 x [aux_len:u32]
//
// Missing slots in a short final block are written as empty strings and zero
// lengths. The record-length header allows a forward-only sequential scan
// with no side index.
//
// Only the first term's offset survives per block, so per-term offsets for
// the remaining slots are not recoverable from this encoding alone: callers
// needing exact random access per term should use front-coding or pair this
// file with the uncompressed dictionary. This lossiness is inherent to the
// format, not an implementation defect.
func BlockingEncode(entries []Entry) []byte {
	var out bytes.Buffer
	var u32 [4]byte
	var u16 [2]byte
	for i := 0; i < len(entries); i += blockingSlots {
		block := entries[i:min(i+blockingSlots, len(entries))]

		var rec bytes.Buffer
		for s := 0; s < blockingSlots; s++ {
			var term string
			if s < len(block) {
				term = block[s].Term
			}
			binary.LittleEndian.PutUint16(u16[:], uint16(len(term)))
			rec.Write(u16[:])
			rec.WriteString(term)
		}
		binary.LittleEndian.PutUint32(u32[:], block[0].Offset)
		rec.Write(u32[:])
		for s := 0; s < 3; s++ {
			var length uint32
			if s < len(block) {
				length = block[s].Length
			}
			binary.LittleEndian.PutUint32(u32[:], length)
			rec.Write(u32[:])
		}

		binary.LittleEndian.PutUint32(u32[:], uint32(rec.Len()))
		out.Write(u32[:])
		out.Write(rec.Bytes())
	}
	return out.Bytes()
}

// BlockingDecode scans blocking records sequentially. Undecodable term bytes
// are replaced; a truncated record stops the scan and returns the groups
// decoded so far together with a corruption error.
func BlockingDecode(data []byte) ([]BlockGroup, error) {
	var groups []BlockGroup
	i := 0
	for i < len(data) {
		if i+4 > len(data) {
			return groups, apperrors.Newf(apperrors.ErrCorruptDictionary, 0,
				"truncated record-length header at byte %d", i)
		}
		recLen := int(binary.LittleEndian.Uint32(data[i : i+4]))
		i += 4
		if i+recLen > len(data) {
			return groups, apperrors.Newf(apperrors.ErrCorruptDictionary, 0,
				"record length %d overruns input at byte %d", recLen, i)
		}
		rec := data[i : i+recLen]
		i += recLen

		group, err := decodeBlockingRecord(rec)
		if err != nil {
			return groups, err
		}
		groups = append(groups, group)
	}
	return groups, nil
}

func decodeBlockingRecord(rec []byte) (BlockGroup, error) {
	var group BlockGroup
	j := 0
	for s := 0; s < blockingSlots; s++ {
		if j+2 > len(rec) {
			return group, apperrors.Newf(apperrors.ErrCorruptDictionary, 0,
				"truncated term length in slot %d", s)
		}
		termLen := int(binary.LittleEndian.Uint16(rec[j : j+2]))
		j += 2
		if j+termLen > len(rec) {
			return group, apperrors.Newf(apperrors.ErrCorruptDictionary, 0,
				"term length %d overruns record in slot %d", termLen, s)
		}
		group.Terms = append(group.Terms, strings.ToValidUTF8(string(rec[j:j+termLen]), "�"))
		j += termLen
	}
	if j+16 > len(rec) {
		return group, apperrors.Newf(apperrors.ErrCorruptDictionary, 0,
			"truncated offset/length fields")
	}
	group.Offset = binary.LittleEndian.Uint32(rec[j : j+4])
	j += 4
	for s := 0; s < 3; s++ {
		group.AuxLengths[s] = binary.LittleEndian.Uint32(rec[j : j+4])
		j += 4
	}
	return group, nil
}
