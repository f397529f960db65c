package extreg

import (
	"encoding/binary"
	"fmt"

	"github.com/ZILtoid1991/datapak/record"
)

const (
	randAcAuxSize = 16
	randAcSize    = 8 + randAcAuxSize
)

// RandAc is the "RandAc" index extension: a per-file random-access
// position plus 16 bytes of codec-dependent auxiliary state (e.g. a
// zstd frame's window state), mirroring the way icza/mpq's block table
// pairs a file position with sector bookkeeping so a reader can jump
// straight to a compressed block.
type RandAc struct {
	Position uint64
	Aux      [randAcAuxSize]byte
}

func (RandAc) Signature() [record.IndexExtSignatureSize]byte { return record.SigRandAc }

func (r RandAc) Encode() []byte {
	buf := make([]byte, randAcSize)
	binary.LittleEndian.PutUint64(buf[0:8], r.Position)
	copy(buf[8:], r.Aux[:])
	return buf
}

// ParseRandAc parses a "RandAc" payload.
func ParseRandAc(payload []byte) (RandAc, error) {
	if len(payload) < randAcSize {
		return RandAc{}, fmt.Errorf("extreg: RandAc payload too short: got %d bytes, need %d", len(payload), randAcSize)
	}
	r := RandAc{Position: binary.LittleEndian.Uint64(payload[0:8])}
	copy(r.Aux[:], payload[8:randAcSize])
	return r, nil
}
