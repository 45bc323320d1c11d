package nvram

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
)

// Wire-format constants for the v2 section layout (spec data model §3).
const (
	// magicV2 is the constant identifying the v2 on-disk format.
	magicV2 uint32 = 0x4e56524d // "NVRM" read big-endian; stored little-endian, the on-disk bytes are "MRVN"

	// headerSize is the fixed size in bytes of a section header.
	headerSize = 24

	// headerCRCLen is the number of leading header bytes covered by
	// header_crc32 (everything except the CRC field itself).
	headerCRCLen = 20
)

// PayloadType identifies the kind of payload following a section header.
// Only TypeList is specified by this format.
type PayloadType uint8

// TypeList is the only payload kind defined by the v2 format.
const TypeList PayloadType = 1

// header field byte offsets within the 24-byte header.
const (
	offMagic      = 0
	offCounter    = 4
	offDataLen    = 8
	offDataCRC32  = 12
	offHeaderCRC  = 16
	offType       = 20
	offReserved   = 21
	reservedBytes = 3
)

// SectionHeader is the fixed 24-byte section header defined by the v2
// format. All integer fields are little-endian on the wire.
type SectionHeader struct {
	Magic     uint32
	Counter   uint32
	DataLen   uint32
	DataCRC32 uint32
	HeaderCRC uint32
	Type      PayloadType
	_reserved [reservedBytes]byte
}

// crcTable is the CRC-32 table for the IEEE 802.3 polynomial, the
// algorithm mandated by the data model (initial 0xFFFFFFFF, final XOR
// 0xFFFFFFFF — exactly what hash/crc32's IEEE table implements).
var crcTable = crc32.MakeTable(crc32.IEEE)

// crc32Of returns the CRC-32 (IEEE) checksum of b.
func crc32Of(b []byte) uint32 {
	return crc32.Checksum(b, crcTable)
}

// encodeHeaderBytes writes h's fields into a 24-byte buffer, including
// HeaderCRC, which is (re)computed over bytes [0,20). Callers that want
// canonical bytes should set Counter/DataLen/DataCRC32/Type first and
// call this last.
func encodeHeaderBytes(h SectionHeader) []byte {
	buf := make([]byte, headerSize)

	binary.LittleEndian.PutUint32(buf[offMagic:], h.Magic)
	binary.LittleEndian.PutUint32(buf[offCounter:], h.Counter)
	binary.LittleEndian.PutUint32(buf[offDataLen:], h.DataLen)
	binary.LittleEndian.PutUint32(buf[offDataCRC32:], h.DataCRC32)
	buf[offType] = byte(h.Type)
	// reserved bytes [21,24) are left zero

	crc := crc32Of(buf[:headerCRCLen])
	binary.LittleEndian.PutUint32(buf[offHeaderCRC:], crc)

	return buf
}

// decodeHeaderBytes parses a 24-byte buffer into a SectionHeader without
// validating it. Callers must len(buf) >= headerSize.
func decodeHeaderBytes(buf []byte) SectionHeader {
	var h SectionHeader

	h.Magic = binary.LittleEndian.Uint32(buf[offMagic:])
	h.Counter = binary.LittleEndian.Uint32(buf[offCounter:])
	h.DataLen = binary.LittleEndian.Uint32(buf[offDataLen:])
	h.DataCRC32 = binary.LittleEndian.Uint32(buf[offDataCRC32:])
	h.HeaderCRC = binary.LittleEndian.Uint32(buf[offHeaderCRC:])
	h.Type = PayloadType(buf[offType])
	copy(h._reserved[:], buf[offReserved:offReserved+reservedBytes])

	return h
}

// validateHeaderBytes checks magic, header_crc32 and the data_len bound;
// it does not read the payload. sectionSize is the total size of the
// backing section, used to bounds-check data_len.
//
// Returns the parsed header and a nil error if valid, or an error satisfying
// errors.Is(err, ErrCorrupt) if not (never ErrIO — this is a pure
// function over already-read bytes).
func validateHeaderBytes(buf []byte, sectionSize uint64) (SectionHeader, error) {
	if len(buf) < headerSize {
		return SectionHeader{}, fmt.Errorf("%w: header buffer too short (%d bytes)", ErrCorrupt, len(buf))
	}

	h := decodeHeaderBytes(buf)

	if h.Magic != magicV2 {
		return SectionHeader{}, fmt.Errorf("%w: bad magic %#08x", ErrCorrupt, h.Magic)
	}

	wantCRC := crc32Of(buf[:headerCRCLen])
	if h.HeaderCRC != wantCRC {
		return SectionHeader{}, fmt.Errorf("%w: header crc mismatch", ErrCorrupt)
	}

	if uint64(headerSize)+uint64(h.DataLen) > sectionSize {
		return SectionHeader{}, fmt.Errorf("%w: data_len %d exceeds section size %d", ErrCorrupt, h.DataLen, sectionSize)
	}

	return h, nil
}
