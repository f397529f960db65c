package codec

import (
	"crypto/md5"
	"crypto/sha256"
	"crypto/sha512"
	"hash"
	"hash/crc32"
	"hash/crc64"

	"github.com/spaolacci/murmur3"
	"golang.org/x/crypto/ripemd160" //nolint:staticcheck // ripemd160 is deprecated upstream but required for the legacy checksum catalog

	"github.com/ZILtoid1991/datapak/record"
)

// legacyMurmurSeed is the historical "murmurhash seed" 0x66_69_6c_65
// ("file" in ASCII) used by older DataPak source revisions. New
// archives should prefer CRC-family checksums, which are cheaper to
// compute and verify; this constant exists only so that HashOptions
// can reproduce archives written by those older revisions on read.
const legacyMurmurSeed = 0x66696c65

// HashOptions configures checksum construction for compatibility with
// archives from older implementations.
type HashOptions struct {
	// LegacyMurmurSeed selects the historical 0x66_69_6c_65 seed for
	// MurmurHash3 checksums instead of the zero seed used by new
	// archives.
	LegacyMurmurSeed bool
}

var crc64ISOTable = crc64.MakeTable(crc64.ISO)
var crc64ECMATable = crc64.MakeTable(crc64.ECMA)

// NewHash returns a hash.Hash that produces exactly
// ct.Length() digest bytes on Sum(nil), or an error if ct is not a
// recognized checksum type.
func NewHash(ct record.ChecksumType, opts HashOptions) (hash.Hash, error) {
	switch ct {
	case record.ChecksumNone:
		return nopHash{}, nil
	case record.ChecksumRIPEMD160:
		return ripemd160.New(), nil
	case record.ChecksumMurmur3_32:
		if opts.LegacyMurmurSeed {
			return murmur3.New32WithSeed(legacyMurmurSeed), nil
		}
		return murmur3.New32(), nil
	case record.ChecksumMurmur3_128_32:
		// Computes the same x64 128-bit MurmurHash3 as
		// ChecksumMurmur3_128_64, with the seed applied to both halves;
		// the x86 (32-bit) 128-bit variant is not implemented, so both
		// catalog entries produce identical digests.
		seed := uint64(0)
		if opts.LegacyMurmurSeed {
			seed = legacyMurmurSeed
		}
		return murmur3.New128WithSeed(seed, seed), nil
	case record.ChecksumMurmur3_128_64:
		if opts.LegacyMurmurSeed {
			return murmur3.New128WithSeed(legacyMurmurSeed, legacyMurmurSeed), nil
		}
		return murmur3.New128(), nil
	case record.ChecksumSHA224:
		return sha256.New224(), nil
	case record.ChecksumSHA256:
		return sha256.New(), nil
	case record.ChecksumSHA384:
		return sha512.New384(), nil
	case record.ChecksumSHA512:
		return sha512.New(), nil
	case record.ChecksumSHA512_224:
		return sha512.New512_224(), nil
	case record.ChecksumSHA512_256:
		return sha512.New512_256(), nil
	case record.ChecksumMD5:
		return md5.New(), nil
	case record.ChecksumCRC32:
		return crc32.NewIEEE(), nil
	case record.ChecksumCRC64ISO:
		return crc64.New(crc64ISOTable), nil
	case record.ChecksumCRC64ECMA:
		return crc64.New(crc64ECMATable), nil
	default:
		return nil, errCompression(nil, "unrecognized checksum type %d", ct)
	}
}

// FinalizeDigest extracts h's digest in the wire byte order this
// checksum type is stored in. CRC32/CRC64 are single integers and are
// stored little-endian on disk, while every other catalog entry is a
// byte string and keeps hash.Hash's natural digest order.
func FinalizeDigest(ct record.ChecksumType, h hash.Hash) []byte {
	sum := h.Sum(nil)
	switch ct {
	case record.ChecksumCRC32, record.ChecksumCRC64ISO, record.ChecksumCRC64ECMA:
		out := make([]byte, len(sum))
		for i, b := range sum {
			out[len(sum)-1-i] = b
		}
		return out
	default:
		return sum
	}
}

// nopHash implements hash.Hash for ChecksumNone: it discards everything
// fed to it and always produces a zero-length digest.
type nopHash struct{}

func (nopHash) Write(p []byte) (int, error) { return len(p), nil }
func (nopHash) Sum(b []byte) []byte         { return b }
func (nopHash) Reset()                      {}
func (nopHash) Size() int                   { return 0 }
func (nopHash) BlockSize() int              { return 1 }
