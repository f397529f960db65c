package record

import (
	"encoding/binary"
	"fmt"
)

// IndexExtSignatureSize is the width of an index extension's signature
// field.
const IndexExtSignatureSize = 6

// IndexExtPrefixSize is the fixed byte length of the
// {signature, size} prefix that precedes every index extension's
// payload.
const IndexExtPrefixSize = 8

// Recognized index-extension signatures.
var (
	SigOSExt  = [IndexExtSignatureSize]byte{'O', 'S', 'E', 'x', 't', ' '}
	SigOSExtP = [IndexExtSignatureSize]byte{'O', 'S', 'E', 'x', 't', 'P'}
	SigRandAc = [IndexExtSignatureSize]byte{'R', 'a', 'n', 'd', 'A', 'c'}
)

// IndexExtension is an 8-byte-prefixed, variable-length record attached
// to a single IndexEntry.
type IndexExtension struct {
	Signature [IndexExtSignatureSize]byte
	Size      uint16 // counts the 8-byte prefix
	Payload   []byte // len(Payload) == Size - IndexExtPrefixSize
}

// NewIndexExtension builds an IndexExtension with Size computed from
// the payload length.
func NewIndexExtension(sig [IndexExtSignatureSize]byte, payload []byte) *IndexExtension {
	return &IndexExtension{
		Signature: sig,
		Size:      uint16(IndexExtPrefixSize + len(payload)),
		Payload:   payload,
	}
}

// ToBinary serializes the extension's full byte image (prefix +
// payload).
func (e *IndexExtension) ToBinary() []byte {
	buf := make([]byte, IndexExtPrefixSize+len(e.Payload))
	copy(buf[0:6], e.Signature[:])
	binary.LittleEndian.PutUint16(buf[6:8], e.Size)
	copy(buf[8:], e.Payload)
	return buf
}

// IndexExtensionPrefixFromBinary parses just the 8-byte prefix; the
// caller then reads Size-8 payload bytes.
func IndexExtensionPrefixFromBinary(buf []byte) (sig [IndexExtSignatureSize]byte, size uint16, err error) {
	if len(buf) < IndexExtPrefixSize {
		return sig, 0, fmt.Errorf("record: index extension prefix too short: got %d bytes, need %d", len(buf), IndexExtPrefixSize)
	}
	copy(sig[:], buf[0:6])
	size = binary.LittleEndian.Uint16(buf[6:8])
	if int(size) < IndexExtPrefixSize {
		return sig, 0, fmt.Errorf("record: index extension size %d smaller than prefix", size)
	}
	return sig, size, nil
}
