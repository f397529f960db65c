package record

import (
	"encoding/binary"
	"fmt"
)

// IndexEntrySize is the fixed byte length of an IndexEntry record: 128
// bytes (8 + 8 + 8 + 4 + 100), little-endian, no padding.
const IndexEntrySize = 128

// IndexFieldSize is the width of IndexEntry.Field.
const IndexFieldSize = 100

// IndexEntry describes one stored file. Field holds a NUL-terminated
// filename starting at offset 0, with the trailing N bytes (N =
// checksumType's CHECKSUM_LENGTH) reserved for the per-file digest.
// Filename length + checksum length must not exceed IndexFieldSize - 1.
type IndexEntry struct {
	Offset       uint64
	UncompSize   uint64
	CompSize     uint64
	ExtFieldSize uint32
	Field        [IndexFieldSize]byte
}

// SetField writes name (NUL-terminated) at the start of Field and
// digest into its trailing bytes. It returns an error if they would
// overlap.
func (e *IndexEntry) SetField(name string, digest []byte) error {
	nameBytes := []byte(name)
	n := len(nameBytes)
	d := len(digest)
	if n+1+d > IndexFieldSize {
		return fmt.Errorf("record: filename %q (%d bytes) + checksum (%d bytes) overflow the %d-byte field", name, n, d, IndexFieldSize)
	}
	var field [IndexFieldSize]byte
	copy(field[:n], nameBytes)
	field[n] = 0
	copy(field[IndexFieldSize-d:], digest)
	e.Field = field
	return nil
}

// Name extracts the NUL-terminated filename from Field.
func (e *IndexEntry) Name() string {
	for i, b := range e.Field {
		if b == 0 {
			return string(e.Field[:i])
		}
	}
	return string(e.Field[:])
}

// Digest extracts the trailing digestLen bytes of Field.
func (e *IndexEntry) Digest(digestLen int) []byte {
	if digestLen <= 0 {
		return nil
	}
	if digestLen > IndexFieldSize {
		digestLen = IndexFieldSize
	}
	out := make([]byte, digestLen)
	copy(out, e.Field[IndexFieldSize-digestLen:])
	return out
}

// ToBinary serializes the 128-byte fixed portion of the entry (the
// caller appends any index-extension bytes separately).
func (e *IndexEntry) ToBinary() []byte {
	buf := make([]byte, IndexEntrySize)
	binary.LittleEndian.PutUint64(buf[0:8], e.Offset)
	binary.LittleEndian.PutUint64(buf[8:16], e.UncompSize)
	binary.LittleEndian.PutUint64(buf[16:24], e.CompSize)
	binary.LittleEndian.PutUint32(buf[24:28], e.ExtFieldSize)
	copy(buf[28:128], e.Field[:])
	return buf
}

// IndexEntryFromBinary parses a 128-byte buffer into an IndexEntry.
func IndexEntryFromBinary(buf []byte) (*IndexEntry, error) {
	if len(buf) < IndexEntrySize {
		return nil, fmt.Errorf("record: index entry buffer too short: got %d bytes, need %d", len(buf), IndexEntrySize)
	}
	e := &IndexEntry{}
	e.Offset = binary.LittleEndian.Uint64(buf[0:8])
	e.UncompSize = binary.LittleEndian.Uint64(buf[8:16])
	e.CompSize = binary.LittleEndian.Uint64(buf[16:24])
	e.ExtFieldSize = binary.LittleEndian.Uint32(buf[24:28])
	copy(e.Field[:], buf[28:128])
	return e, nil
}
