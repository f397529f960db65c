package archive

import (
	"github.com/ZILtoid1991/datapak/codec"
	"github.com/ZILtoid1991/datapak/record"
)

// Options are the per-archive builder knobs, attached to each Reader/
// Writer instance instead of process-wide globals so that concurrent
// callers with different settings don't interfere with each other.
type Options struct {
	// EnableSignatureCheck, when false, skips the fatal mismatch on a
	// bad 8-byte signature (forensic recovery of damaged archives).
	EnableSignatureCheck bool
	// EnableHeaderChecksumError, when false, lets the reader proceed
	// best-effort even if the header-region CRC32 trailer does not
	// match.
	EnableHeaderChecksumError bool
	// EnableFileChecksumError, when false, skips per-file digest
	// verification in Reader.NextBytes.
	EnableFileChecksumError bool
	// ReadBufferSize is stored with the options; Reader and Writer do
	// not consult it, and the codecs buffer internally on their own.
	ReadBufferSize int
	// Signature overrides the default 8-byte archive magic.
	Signature [record.SignatureSize]byte
	// HashOpts configures checksum construction (e.g. the legacy
	// murmur3 seed for reading old archives).
	HashOpts codec.HashOptions
}

// DefaultOptions returns the documented defaults: all three enable*
// knobs on, a 32 KiB read buffer, and the standard "DataPak." signature.
func DefaultOptions() Options {
	return Options{
		EnableSignatureCheck:      true,
		EnableHeaderChecksumError: true,
		EnableFileChecksumError:   true,
		ReadBufferSize:            codec.ReadBufferSize,
		Signature:                 record.DefaultSignature,
	}
}

// Option mutates an Options value, functional-options style.
type Option func(*Options)

// WithSignatureCheck toggles EnableSignatureCheck.
func WithSignatureCheck(enabled bool) Option {
	return func(o *Options) { o.EnableSignatureCheck = enabled }
}

// WithHeaderChecksumError toggles EnableHeaderChecksumError.
func WithHeaderChecksumError(enabled bool) Option {
	return func(o *Options) { o.EnableHeaderChecksumError = enabled }
}

// WithFileChecksumError toggles EnableFileChecksumError.
func WithFileChecksumError(enabled bool) Option {
	return func(o *Options) { o.EnableFileChecksumError = enabled }
}

// WithReadBufferSize sets ReadBufferSize (default 32 KiB), which no
// Reader or Writer operation reads.
func WithReadBufferSize(n int) Option {
	return func(o *Options) { o.ReadBufferSize = n }
}

// WithSignature overrides the default 8-byte archive magic.
func WithSignature(sig [record.SignatureSize]byte) Option {
	return func(o *Options) { o.Signature = sig }
}

// WithLegacyMurmurSeed toggles the historical 0x66_69_6c_65 murmur3
// seed, for reading archives written by older implementations.
func WithLegacyMurmurSeed(enabled bool) Option {
	return func(o *Options) { o.HashOpts.LegacyMurmurSeed = enabled }
}

func applyOptions(opts ...Option) Options {
	o := DefaultOptions()
	for _, apply := range opts {
		apply(&o)
	}
	return o
}
