package extreg

import (
	"encoding/binary"
	"fmt"

	"github.com/ZILtoid1991/datapak/record"
)

// osExtPathSize is the fixed width of OSExt's filename-extension +
// relative-path field, 0xFF-padded.
const osExtPathSize = 200

// OSExt is the "OSExt " index extension: a filename extension plus
// relative path, creation/modify timestamps, and two attribute banks,
// carried as per-file OS metadata. Only this index-level form is
// implemented; ParseHeaderExt has no header-level OSExt record and
// returns any such header extension as UnknownHeaderExt.
type OSExt struct {
	// Path holds the combined "filename extension + relative path"
	// string this extension carries.
	Path         string
	CreationTime uint64
	ModifyTime   uint64
	AttrBank1    uint32
	AttrBank2    uint32
}

func (OSExt) Signature() [record.IndexExtSignatureSize]byte { return record.SigOSExt }

func (o OSExt) Encode() []byte {
	buf := make([]byte, osExtPathSize+8+8+4+4)
	for i := range buf[:osExtPathSize] {
		buf[i] = 0xFF
	}
	copy(buf[:osExtPathSize], o.Path)
	off := osExtPathSize
	binary.LittleEndian.PutUint64(buf[off:off+8], o.CreationTime)
	off += 8
	binary.LittleEndian.PutUint64(buf[off:off+8], o.ModifyTime)
	off += 8
	binary.LittleEndian.PutUint32(buf[off:off+4], o.AttrBank1)
	off += 4
	binary.LittleEndian.PutUint32(buf[off:off+4], o.AttrBank2)
	return buf
}

// ParseOSExt parses an "OSExt " payload.
func ParseOSExt(payload []byte) (OSExt, error) {
	const want = osExtPathSize + 8 + 8 + 4 + 4
	if len(payload) < want {
		return OSExt{}, fmt.Errorf("extreg: OSExt payload too short: got %d bytes, need %d", len(payload), want)
	}
	end := osExtPathSize
	for end > 0 && payload[end-1] == 0xFF {
		end--
	}
	o := OSExt{Path: string(payload[:end])}
	off := osExtPathSize
	o.CreationTime = binary.LittleEndian.Uint64(payload[off : off+8])
	off += 8
	o.ModifyTime = binary.LittleEndian.Uint64(payload[off : off+8])
	off += 8
	o.AttrBank1 = binary.LittleEndian.Uint32(payload[off : off+4])
	off += 4
	o.AttrBank2 = binary.LittleEndian.Uint32(payload[off : off+4])
	return o, nil
}
