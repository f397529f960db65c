package extreg

import (
	"encoding/binary"
	"fmt"

	"github.com/ZILtoid1991/datapak/record"
)

// POSIX access-flag bits for OSExtP.AccessFlags.
const (
	AccessOutExec    = 0x001
	AccessOutWrite   = 0x002
	AccessOutRead    = 0x004
	AccessGroupExec  = 0x008
	AccessGroupWrite = 0x010
	AccessGroupRead  = 0x020
	AccessOwnerExec  = 0x040
	AccessOwnerWrite = 0x080
	AccessOwnerRead  = 0x100
)

const (
	osExtPNameSize = 32
	osExtPSize     = 4 + 4 + osExtPNameSize + osExtPNameSize + 4
)

// OSExtP is the "OSExtP" index extension: POSIX ownership and
// permission metadata for a single file.
type OSExtP struct {
	UserID      uint32
	GroupID     uint32
	UserName    string
	GroupName   string
	AccessFlags uint32
}

func (OSExtP) Signature() [record.IndexExtSignatureSize]byte { return record.SigOSExtP }

func (p OSExtP) Encode() []byte {
	buf := make([]byte, osExtPSize)
	binary.LittleEndian.PutUint32(buf[0:4], p.UserID)
	binary.LittleEndian.PutUint32(buf[4:8], p.GroupID)
	copy(buf[8:8+osExtPNameSize], p.UserName)
	copy(buf[8+osExtPNameSize:8+2*osExtPNameSize], p.GroupName)
	binary.LittleEndian.PutUint32(buf[8+2*osExtPNameSize:], p.AccessFlags)
	return buf
}

// ParseOSExtP parses an "OSExtP" payload.
func ParseOSExtP(payload []byte) (OSExtP, error) {
	if len(payload) < osExtPSize {
		return OSExtP{}, fmt.Errorf("extreg: OSExtP payload too short: got %d bytes, need %d", len(payload), osExtPSize)
	}
	p := OSExtP{}
	p.UserID = binary.LittleEndian.Uint32(payload[0:4])
	p.GroupID = binary.LittleEndian.Uint32(payload[4:8])
	p.UserName = trimNUL(payload[8 : 8+osExtPNameSize])
	p.GroupName = trimNUL(payload[8+osExtPNameSize : 8+2*osExtPNameSize])
	p.AccessFlags = binary.LittleEndian.Uint32(payload[8+2*osExtPNameSize:])
	return p, nil
}

func trimNUL(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}

// HasAccess reports whether every bit in flags is set in p.AccessFlags.
func (p OSExtP) HasAccess(flags uint32) bool {
	return p.AccessFlags&flags == flags
}
