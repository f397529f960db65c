package record

import (
	"encoding/binary"
	"fmt"
)

// HeaderSize is the fixed, byte-packed size of a Header record: 28
// bytes (8 + 8 + 4 + 4 + 4), little-endian, no padding.
const HeaderSize = 28

// CompMethodSize is the fixed byte width of the compMethod ASCII tag.
const CompMethodSize = 8

// Recognized compMethod tags. Trailing spaces are significant and are
// part of the wire value.
var (
	CompUncompressed = [CompMethodSize]byte{'U', 'N', 'C', 'M', 'P', 'R', 'S', 'D'}
	CompZlib         = [CompMethodSize]byte{'Z', 'L', 'I', 'B', ' ', ' ', ' ', ' '}
	CompZstd         = [CompMethodSize]byte{'Z', 'S', 'T', 'D', ' ', ' ', ' ', ' '}
	CompZstdDict     = [CompMethodSize]byte{'Z', 'S', 'T', 'D', '+', 'D', ' ', ' '}
	CompLZ4          = [CompMethodSize]byte{'L', 'Z', '4', ' ', ' ', ' ', ' ', ' '}
)

// Header is the archive's fixed-layout 28-byte header.
type Header struct {
	IndexSize    uint64
	CompMethod   [CompMethodSize]byte
	ExtFieldSize uint32
	NumOfIndexes uint32
	Flags        Flags
}

// ToBinary serializes h into its exact 28-byte on-disk form. Fields are
// written explicitly in declared order and width rather than by
// reinterpreting an in-memory struct image, since Go's struct layout is
// not guaranteed to match the packed wire format.
func (h *Header) ToBinary() []byte {
	buf := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint64(buf[0:8], h.IndexSize)
	copy(buf[8:16], h.CompMethod[:])
	binary.LittleEndian.PutUint32(buf[16:20], h.ExtFieldSize)
	binary.LittleEndian.PutUint32(buf[20:24], h.NumOfIndexes)
	// compIndex/compExtField are deprecated and MUST be written as
	// zero, regardless of what the in-memory Flags carries.
	flags := h.Flags
	flags.CompIndex = false
	flags.CompExtField = false
	binary.LittleEndian.PutUint32(buf[24:28], flags.Encode())
	return buf
}

// HeaderFromBinary parses a 28-byte buffer into a Header.
func HeaderFromBinary(buf []byte) (*Header, error) {
	if len(buf) < HeaderSize {
		return nil, fmt.Errorf("record: header buffer too short: got %d bytes, need %d", len(buf), HeaderSize)
	}
	h := &Header{}
	h.IndexSize = binary.LittleEndian.Uint64(buf[0:8])
	copy(h.CompMethod[:], buf[8:16])
	h.ExtFieldSize = binary.LittleEndian.Uint32(buf[16:20])
	h.NumOfIndexes = binary.LittleEndian.Uint32(buf[20:24])
	h.Flags = DecodeFlags(binary.LittleEndian.Uint32(buf[24:28]))
	return h, nil
}

// CompMethodString returns the tag with trailing spaces trimmed off for
// display purposes only; the wire value keeps the padding.
func CompMethodString(tag [CompMethodSize]byte) string {
	end := CompMethodSize
	for end > 0 && tag[end-1] == ' ' {
		end--
	}
	return string(tag[:end])
}
