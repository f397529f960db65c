// Package extreg recognizes the standard DataPak extension records
// (compression dictionary, OS metadata, POSIX permissions, random-access
// index) and exposes anything else as an opaque byte blob that
// round-trips unchanged through a re-serialized archive.
package extreg

import (
	"github.com/ZILtoid1991/datapak/record"
)

// HeaderExtValue is implemented by every typed header-extension payload
// this registry knows how to parse.
type HeaderExtValue interface {
	// Signature returns the 8-byte tag this value serializes under.
	Signature() [record.HeaderExtSignatureSize]byte
	// Encode returns the payload bytes (not including the 12-byte
	// prefix).
	Encode() []byte
}

// IndexExtValue is implemented by every typed index-extension payload
// this registry knows how to parse.
type IndexExtValue interface {
	// Signature returns the 6-byte tag this value serializes under.
	Signature() [record.IndexExtSignatureSize]byte
	// Encode returns the payload bytes (not including the 8-byte
	// prefix).
	Encode() []byte
}

// UnknownHeaderExt preserves a header extension this registry does not
// recognize, so that re-serializing the archive round-trips it intact.
type UnknownHeaderExt struct {
	Sig     [record.HeaderExtSignatureSize]byte
	Payload []byte
}

func (u UnknownHeaderExt) Signature() [record.HeaderExtSignatureSize]byte { return u.Sig }
func (u UnknownHeaderExt) Encode() []byte                                { return u.Payload }

// UnknownIndexExt preserves an index extension this registry does not
// recognize.
type UnknownIndexExt struct {
	Sig     [record.IndexExtSignatureSize]byte
	Payload []byte
}

func (u UnknownIndexExt) Signature() [record.IndexExtSignatureSize]byte { return u.Sig }
func (u UnknownIndexExt) Encode() []byte                                { return u.Payload }

// ParseHeaderExt dispatches a raw HeaderExtension to its typed form, or
// returns an UnknownHeaderExt if the signature is not recognized.
func ParseHeaderExt(raw *record.HeaderExtension) (HeaderExtValue, error) {
	switch raw.Signature {
	case record.SigCmprDict:
		return ParseCompressionDictionary(raw.Payload)
	case record.SigCmprDIxf:
		return ParseExternalDictionaryPath(raw.Payload)
	default:
		return UnknownHeaderExt{Sig: raw.Signature, Payload: raw.Payload}, nil
	}
}

// ParseIndexExt dispatches a raw IndexExtension to its typed form, or
// returns an UnknownIndexExt if the signature is not recognized.
func ParseIndexExt(raw *record.IndexExtension) (IndexExtValue, error) {
	switch raw.Signature {
	case record.SigOSExt:
		return ParseOSExt(raw.Payload)
	case record.SigOSExtP:
		return ParseOSExtP(raw.Payload)
	case record.SigRandAc:
		return ParseRandAc(raw.Payload)
	default:
		return UnknownIndexExt{Sig: raw.Signature, Payload: raw.Payload}, nil
	}
}

// ToHeaderExtension serializes a HeaderExtValue back into the raw,
// on-disk record.
func ToHeaderExtension(v HeaderExtValue) *record.HeaderExtension {
	return record.NewHeaderExtension(v.Signature(), v.Encode())
}

// ToIndexExtension serializes an IndexExtValue back into the raw,
// on-disk record.
func ToIndexExtension(v IndexExtValue) *record.IndexExtension {
	return record.NewIndexExtension(v.Signature(), v.Encode())
}
