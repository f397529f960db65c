package record

import (
	"encoding/binary"
	"fmt"
)

// HeaderExtSignatureSize is the width of a header extension's signature
// field.
const HeaderExtSignatureSize = 8

// HeaderExtPrefixSize is the fixed byte length of the
// {signature, size} prefix that precedes every header extension's
// payload.
const HeaderExtPrefixSize = 12

// Recognized header-extension signatures.
var (
	SigCmprDict = [HeaderExtSignatureSize]byte{'C', 'M', 'P', 'R', 'D', 'I', 'C', 'T'}
	SigCmprDIxf = [HeaderExtSignatureSize]byte{'C', 'M', 'P', 'R', 'D', 'I', 'x', 'f'}
)

// HeaderExtension is a 12-byte-prefixed, variable-length record
// attached to the archive header.
type HeaderExtension struct {
	Signature [HeaderExtSignatureSize]byte
	Size      uint32 // counts the 12-byte prefix
	Payload   []byte // len(Payload) == Size - HeaderExtPrefixSize
}

// NewHeaderExtension builds a HeaderExtension with Size computed from
// the payload length.
func NewHeaderExtension(sig [HeaderExtSignatureSize]byte, payload []byte) *HeaderExtension {
	return &HeaderExtension{
		Signature: sig,
		Size:      uint32(HeaderExtPrefixSize + len(payload)),
		Payload:   payload,
	}
}

// ToBinary serializes the extension's full byte image (prefix +
// payload).
func (e *HeaderExtension) ToBinary() []byte {
	buf := make([]byte, HeaderExtPrefixSize+len(e.Payload))
	copy(buf[0:8], e.Signature[:])
	binary.LittleEndian.PutUint32(buf[8:12], e.Size)
	copy(buf[12:], e.Payload)
	return buf
}

// HeaderExtensionPrefixFromBinary parses just the 12-byte prefix; the
// caller is responsible for then reading Size-12 payload bytes.
func HeaderExtensionPrefixFromBinary(buf []byte) (sig [HeaderExtSignatureSize]byte, size uint32, err error) {
	if len(buf) < HeaderExtPrefixSize {
		return sig, 0, fmt.Errorf("record: header extension prefix too short: got %d bytes, need %d", len(buf), HeaderExtPrefixSize)
	}
	copy(sig[:], buf[0:8])
	size = binary.LittleEndian.Uint32(buf[8:12])
	if size < HeaderExtPrefixSize {
		return sig, 0, fmt.Errorf("record: header extension size %d smaller than prefix", size)
	}
	return sig, size, nil
}
