package extreg

import (
	"bytes"
	"fmt"

	"github.com/ZILtoid1991/datapak/record"
)

// CompressionDictionary is the CMPRDICT header extension: the
// dictionary's raw bytes, inlined directly in the archive.
type CompressionDictionary struct {
	Data []byte
}

func (CompressionDictionary) Signature() [record.HeaderExtSignatureSize]byte {
	return record.SigCmprDict
}

func (d CompressionDictionary) Encode() []byte {
	return d.Data
}

// ParseCompressionDictionary parses a CMPRDICT payload. The payload is
// the dictionary bytes verbatim, so this never fails, but it returns an
// error to keep the parser signature uniform with the rest of the
// registry.
func ParseCompressionDictionary(payload []byte) (CompressionDictionary, error) {
	return CompressionDictionary{Data: append([]byte(nil), payload...)}, nil
}

// ExternalDictionaryPath is the CMPRDIxf header extension: a
// NUL-terminated path to a dictionary file kept outside the archive.
type ExternalDictionaryPath struct {
	Path string
}

func (ExternalDictionaryPath) Signature() [record.HeaderExtSignatureSize]byte {
	return record.SigCmprDIxf
}

func (p ExternalDictionaryPath) Encode() []byte {
	return append([]byte(p.Path), 0)
}

// ParseExternalDictionaryPath parses a CMPRDIxf payload.
func ParseExternalDictionaryPath(payload []byte) (ExternalDictionaryPath, error) {
	idx := bytes.IndexByte(payload, 0)
	if idx < 0 {
		return ExternalDictionaryPath{}, fmt.Errorf("extreg: CMPRDIxf payload is not NUL-terminated")
	}
	return ExternalDictionaryPath{Path: string(payload[:idx])}, nil
}
