package record

// ChecksumType is the closed 6-bit encoding from the checksum catalog.
type ChecksumType uint8

// The checksum catalog. The header-region integrity checksum is always
// CRC32 regardless of ChecksumType; ChecksumType only selects the
// per-file digest algorithm stored in an IndexEntry's field tail.
const (
	ChecksumNone ChecksumType = iota
	ChecksumRIPEMD160
	ChecksumMurmur3_32
	ChecksumMurmur3_128_32
	ChecksumMurmur3_128_64
	ChecksumSHA224
	ChecksumSHA256
	ChecksumSHA384
	ChecksumSHA512
	ChecksumSHA512_224
	ChecksumSHA512_256
	ChecksumMD5
	ChecksumCRC32
	ChecksumCRC64ISO
	ChecksumCRC64ECMA
)

// checksumLength is each checksum type's digest length in bytes,
// indexed by ChecksumType.
var checksumLength = [...]int{
	ChecksumNone:           0,
	ChecksumRIPEMD160:      20,
	ChecksumMurmur3_32:     4,
	ChecksumMurmur3_128_32: 16,
	ChecksumMurmur3_128_64: 16,
	ChecksumSHA224:         28,
	ChecksumSHA256:         32,
	ChecksumSHA384:         48,
	ChecksumSHA512:         64,
	ChecksumSHA512_224:     28,
	ChecksumSHA512_256:     32,
	ChecksumMD5:            16,
	ChecksumCRC32:          4,
	ChecksumCRC64ISO:       8,
	ChecksumCRC64ECMA:      8,
}

// Length returns CHECKSUM_LENGTH[t], or -1 if t is not a recognized
// checksum type.
func (t ChecksumType) Length() int {
	if int(t) < 0 || int(t) >= len(checksumLength) {
		return -1
	}
	return checksumLength[t]
}

// Valid reports whether t is one of the 15 catalog entries.
func (t ChecksumType) Valid() bool {
	return int(t) >= 0 && int(t) < len(checksumLength)
}
