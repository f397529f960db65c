package main

import (
	"fmt"
	"strings"

	"github.com/ZILtoid1991/datapak/record"
)

// compMethodByName maps the CLI/manifest-facing compression names onto
// their wire compMethod tags.
var compMethodByName = map[string][record.CompMethodSize]byte{
	"none":      record.CompUncompressed,
	"zlib":      record.CompZlib,
	"zstd":      record.CompZstd,
	"zstd+dict": record.CompZstdDict,
}

func parseCompMethod(name string) ([record.CompMethodSize]byte, error) {
	tag, ok := compMethodByName[strings.ToLower(name)]
	if !ok {
		return tag, fmt.Errorf("unknown compression method %q (want one of: none, zlib, zstd, zstd+dict)", name)
	}
	return tag, nil
}

// checksumByName maps the CLI/manifest-facing checksum names onto the
// closed checksum catalog.
var checksumByName = map[string]record.ChecksumType{
	"none":           record.ChecksumNone,
	"ripemd160":      record.ChecksumRIPEMD160,
	"murmur3-32":     record.ChecksumMurmur3_32,
	"murmur3-128-32": record.ChecksumMurmur3_128_32,
	"murmur3-128-64": record.ChecksumMurmur3_128_64,
	"sha224":         record.ChecksumSHA224,
	"sha256":         record.ChecksumSHA256,
	"sha384":         record.ChecksumSHA384,
	"sha512":         record.ChecksumSHA512,
	"sha512-224":     record.ChecksumSHA512_224,
	"sha512-256":     record.ChecksumSHA512_256,
	"md5":            record.ChecksumMD5,
	"crc32":          record.ChecksumCRC32,
	"crc64-iso":      record.ChecksumCRC64ISO,
	"crc64-ecma":     record.ChecksumCRC64ECMA,
}

func parseChecksum(name string) (record.ChecksumType, error) {
	ct, ok := checksumByName[strings.ToLower(name)]
	if !ok {
		return 0, fmt.Errorf("unknown checksum algorithm %q", name)
	}
	return ct, nil
}
