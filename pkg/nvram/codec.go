package nvram

import (
	"encoding/binary"
	"fmt"
)

// SectionState classifies a section after it has been read back, per the
// data model's section lifecycle.
type SectionState int

const (
	// StateEmpty means the section contains no recognizable header: every
	// byte we inspected to find a magic number was the medium's erase
	// value, or the medium reported a short read consistent with an
	// untouched section.
	StateEmpty SectionState = iota

	// StateHeaderOnlyValid means the header's magic and header_crc32
	// check out, but the payload's data_crc32 does not, or its records do
	// not parse: the section describes itself but its data did not survive.
	StateHeaderOnlyValid

	// StateAllVerified means header and payload both check out; the
	// section's entries may be trusted.
	StateAllVerified

	// StateCorrupt means the header itself is unrecoverable (bad magic
	// or header_crc32 mismatch).
	StateCorrupt
)

func (s SectionState) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateHeaderOnlyValid:
		return "header-only-valid"
	case StateAllVerified:
		return "all-verified"
	case StateCorrupt:
		return "corrupt"
	default:
		return "unknown"
	}
}

// recordFixedLen is the per-entry overhead: key_len(4) + value_len(4).
const recordFixedLen = 8

// payloadSize returns the exact number of bytes encodePayload will
// produce for es.
func payloadSize(es *EntrySet) uint64 {
	var n uint64

	for _, e := range es.Entries() {
		n += recordFixedLen + uint64(len(e.Key)) + uint64(len(e.Value))
	}

	return n
}

// serializedSectionSize returns the total size (header + payload) a
// section holding es would occupy.
func serializedSectionSize(es *EntrySet) uint64 {
	return uint64(headerSize) + payloadSize(es)
}

// encodePayload renders es as the LIST payload format: a concatenation of
// (key_len, value_len, key, value) records in iteration order, with no
// padding between records.
func encodePayload(es *EntrySet) []byte {
	buf := make([]byte, payloadSize(es))

	var off int
	for _, e := range es.Entries() {
		binary.LittleEndian.PutUint32(buf[off:], uint32(len(e.Key)))
		off += 4
		binary.LittleEndian.PutUint32(buf[off:], uint32(len(e.Value)))
		off += 4
		off += copy(buf[off:], e.Key)
		off += copy(buf[off:], e.Value)
	}

	return buf
}

// decodePayload parses a LIST payload into an EntrySet. It returns
// ErrCorrupt if a record's length prefixes run past the end of buf, or
// if a key or value length is zero.
func decodePayload(buf []byte) (*EntrySet, error) {
	es := NewEntrySet()

	off := 0
	for off < len(buf) {
		if off+recordFixedLen > len(buf) {
			return nil, fmt.Errorf("%w: truncated record header at offset %d", ErrCorrupt, off)
		}

		keyLen := binary.LittleEndian.Uint32(buf[off:])
		valLen := binary.LittleEndian.Uint32(buf[off+4:])
		off += recordFixedLen

		if keyLen == 0 || valLen == 0 {
			return nil, fmt.Errorf("%w: zero-length field at offset %d", ErrCorrupt, off)
		}

		need := uint64(keyLen) + uint64(valLen)
		if uint64(off)+need > uint64(len(buf)) {
			return nil, fmt.Errorf("%w: truncated record body at offset %d", ErrCorrupt, off)
		}

		key := buf[off : off+int(keyLen)]
		off += int(keyLen)
		val := buf[off : off+int(valLen)]
		off += int(valLen)

		if err := es.Set(key, val); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
	}

	return es, nil
}

// encodeSection renders es as a full section image: a 24-byte header
// followed by its LIST payload. counter is the section's transaction
// counter, stamped into the header.
func encodeSection(counter uint32, es *EntrySet) []byte {
	payload := encodePayload(es)

	h := SectionHeader{
		Magic:     magicV2,
		Counter:   counter,
		DataLen:   uint32(len(payload)),
		DataCRC32: crc32Of(payload),
		Type:      TypeList,
	}

	buf := make([]byte, 0, headerSize+len(payload))
	buf = append(buf, encodeHeaderBytes(h)...)
	buf = append(buf, payload...)

	return buf
}

// isBlank reports whether every byte of buf equals fill, the signature
// of an untouched (erased or zero-filled) region.
func isBlank(buf []byte, fill byte) bool {
	for _, b := range buf {
		if b != fill {
			return false
		}
	}

	return true
}

// decodeSection reads and classifies a section image. raw is typically
// the full section as read from a [Medium]; a raw shorter than
// headerSize is [StateEmpty] if it is all blankFill (or empty) and
// [StateCorrupt] otherwise. blankFill is the medium's erase value (0xFF
// for most flash media, 0x00 for the file and efi mediums) used only to
// distinguish [StateEmpty] from [StateCorrupt].
//
// decodeSection never returns a non-nil error: classification failures
// are reported via the returned SectionState, matching the invariant
// that reading a section can always produce a verdict.
func decodeSection(raw []byte, blankFill byte) (SectionHeader, *EntrySet, SectionState) {
	if len(raw) < headerSize {
		if isBlank(raw, blankFill) {
			return SectionHeader{}, nil, StateEmpty
		}

		return SectionHeader{}, nil, StateCorrupt
	}

	if isBlank(raw[:headerSize], blankFill) {
		return SectionHeader{}, nil, StateEmpty
	}

	h, err := validateHeaderBytes(raw, uint64(len(raw)))
	if err != nil {
		return SectionHeader{}, nil, StateCorrupt
	}

	payload := raw[headerSize : uint64(headerSize)+uint64(h.DataLen)]

	if crc32Of(payload) != h.DataCRC32 {
		return h, nil, StateHeaderOnlyValid
	}

	es, err := decodePayload(payload)
	if err != nil {
		return h, nil, StateHeaderOnlyValid
	}

	return h, es, StateAllVerified
}
