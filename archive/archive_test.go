package archive

import (
	"bytes"
	"crypto/rand"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/ZILtoid1991/datapak/dpkerr"
	"github.com/ZILtoid1991/datapak/extreg"
	"github.com/ZILtoid1991/datapak/record"
)

// writeTempFile creates a file under t.TempDir() with the given
// contents and returns its path.
func writeTempFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func baseHeader(compMethod [record.CompMethodSize]byte, level int, checksum record.ChecksumType, perFile bool) record.Header {
	return record.Header{
		CompMethod: compMethod,
		Flags: record.Flags{
			ChecksumType: uint8(checksum),
			CompLevel:    uint8(level),
			PerFileComp:  perFile,
		},
	}
}

// buildArchive writes files (name -> contents, in order) into a fresh
// archive at a temp path and returns that path.
func buildArchive(t *testing.T, header record.Header, files []struct {
	name string
	data []byte
}) string {
	t.Helper()
	archivePath := filepath.Join(t.TempDir(), "test.dpk")
	w, err := Create(archivePath, header, nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	for _, f := range files {
		src := writeTempFile(t, f.name, f.data)
		if _, err := w.AddFile(src, f.name, nil); err != nil {
			t.Fatalf("AddFile(%s): %v", f.name, err)
		}
	}
	if err := w.Finalize(); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	return archivePath
}

// Property 1: round-trip.
func TestRoundTripPreservesOrderAndContent(t *testing.T) {
	files := []struct {
		name string
		data []byte
	}{
		{"a.txt", bytes.Repeat([]byte{0x00}, 100)},
		{"b.txt", bytes.Repeat([]byte{0xFF}, 100)},
		{"c.txt", []byte{}},
	}
	header := baseHeader(record.CompZstd, 10, record.ChecksumNone, false)
	path := buildArchive(t, header, files)

	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	for i, f := range files {
		got, err := r.NextBytes()
		if err != nil {
			t.Fatalf("NextBytes(%d): %v", i, err)
		}
		if !bytes.Equal(got, f.data) {
			t.Errorf("entry %d (%s): got %d bytes, want %d bytes matching original", i, f.name, len(got), len(f.data))
		}
	}
}

// Property 3: index accounting.
func TestIndexAccounting(t *testing.T) {
	files := []struct {
		name string
		data []byte
	}{
		{"one", []byte("hello")},
		{"two", []byte("world!!")},
	}
	header := baseHeader(record.CompUncompressed, 0, record.ChecksumCRC32, true)
	path := buildArchive(t, header, files)

	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	if r.Header.NumOfIndexes != uint32(len(files)) {
		t.Errorf("NumOfIndexes = %d, want %d", r.Header.NumOfIndexes, len(files))
	}
	if r.Header.IndexSize != uint64(len(files))*record.IndexEntrySize {
		t.Errorf("IndexSize = %d, want %d", r.Header.IndexSize, uint64(len(files))*record.IndexEntrySize)
	}
}

// Property 4: checksum fidelity, across every checksum type.
func TestChecksumFidelityAcrossTypes(t *testing.T) {
	types := []record.ChecksumType{
		record.ChecksumCRC32, record.ChecksumCRC64ISO, record.ChecksumCRC64ECMA,
		record.ChecksumMD5, record.ChecksumSHA256, record.ChecksumRIPEMD160,
		record.ChecksumMurmur3_32, record.ChecksumNone,
		record.ChecksumMurmur3_128_32, record.ChecksumMurmur3_128_64,
		record.ChecksumSHA224, record.ChecksumSHA384, record.ChecksumSHA512,
		record.ChecksumSHA512_224, record.ChecksumSHA512_256,
	}
	data := []byte("checksum fidelity payload")
	for _, ct := range types {
		header := baseHeader(record.CompUncompressed, 0, ct, true)
		path := buildArchive(t, header, []struct {
			name string
			data []byte
		}{{"f", data}})

		r, err := Open(path, WithFileChecksumError(true))
		if err != nil {
			t.Fatalf("checksum %d: Open: %v", ct, err)
		}
		if _, err := r.NextBytes(); err != nil {
			t.Errorf("checksum %d: NextBytes: %v", ct, err)
		}
		r.Close()
	}
}

// Property 5: random-access iff perFileComp || compMethod==UNCMPRSD.
func TestRandomAccessIff(t *testing.T) {
	cases := []struct {
		name       string
		compMethod [record.CompMethodSize]byte
		perFile    bool
		want       bool
	}{
		{"uncompressed-joint-flag-false", record.CompUncompressed, false, true},
		{"zstd-per-file", record.CompZstd, true, true},
		{"zstd-joint", record.CompZstd, false, false},
	}
	for _, c := range cases {
		header := baseHeader(c.compMethod, 5, record.ChecksumNone, c.perFile)
		path := buildArchive(t, header, []struct {
			name string
			data []byte
		}{{"a", []byte("aaa")}, {"b", []byte("bbb")}})

		r, err := Open(path)
		if err != nil {
			t.Fatalf("%s: Open: %v", c.name, err)
		}
		if got := r.RandomAccess(); got != c.want {
			t.Errorf("%s: RandomAccess() = %v, want %v", c.name, got, c.want)
		}
		_, seekErr := r.SeekTo(1)
		if c.want && seekErr != nil {
			t.Errorf("%s: SeekTo(1) failed on random-access archive: %v", c.name, seekErr)
		}
		if !c.want && !errors.Is(seekErr, dpkerr.UnsupportedAccessMode) {
			t.Errorf("%s: SeekTo(1) = %v, want UnsupportedAccessMode", c.name, seekErr)
		}
		r.Close()
	}
}

// Property 7: idempotence of parse — re-parsing a freshly written
// archive yields an equal Header (modulo the deprecated bits, which
// Create never sets in the first place here).
func TestIdempotenceOfParse(t *testing.T) {
	header := baseHeader(record.CompZlib, 6, record.ChecksumSHA256, true)
	path := buildArchive(t, header, []struct {
		name string
		data []byte
	}{{"only", []byte("round-trip me")}})

	r1, err := Open(path)
	if err != nil {
		t.Fatalf("Open #1: %v", err)
	}
	h1 := r1.Header
	r1.Close()

	r2, err := Open(path)
	if err != nil {
		t.Fatalf("Open #2: %v", err)
	}
	h2 := r2.Header
	r2.Close()

	if h1 != h2 {
		t.Errorf("re-parsing diverged: %+v != %+v", h1, h2)
	}
	if h1.Flags.CompIndex || h1.Flags.CompExtField {
		t.Errorf("deprecated bits were not zero on write: %+v", h1.Flags)
	}
}

// S1: single byte 0x41, UNCMPRSD, CRC32.
func TestScenarioS1(t *testing.T) {
	header := baseHeader(record.CompUncompressed, 0, record.ChecksumCRC32, true)
	path := buildArchive(t, header, []struct {
		name string
		data []byte
	}{{"a", []byte{0x41}}})

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	const wantLen = 8 + 28 + 0 + 128 + 4 + 1
	if len(raw) != wantLen {
		t.Fatalf("archive length = %d, want %d", len(raw), wantLen)
	}
	if raw[168] != 0x41 {
		t.Errorf("byte at offset 168 = %#x, want 0x41", raw[168])
	}
	fieldStart := 8 + 28 + 0 + 28 // index entry's fixed prefix ends at +28
	digest := raw[fieldStart+100-4 : fieldStart+100]
	want := []byte{0x8b, 0x9e, 0xd9, 0xd3}
	if !bytes.Equal(digest, want) {
		t.Errorf("trailing field digest = %x, want %x (CRC32(0x41) little-endian)", digest, want)
	}
}

// S2: three files under ZSTD level 10, checksumType=none.
func TestScenarioS2(t *testing.T) {
	files := []struct {
		name string
		data []byte
	}{
		{"a", bytes.Repeat([]byte{0x00}, 100)},
		{"b", bytes.Repeat([]byte{0xFF}, 100)},
		{"c", []byte{}},
	}
	header := baseHeader(record.CompZstd, 10, record.ChecksumNone, false)
	path := buildArchive(t, header, files)

	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	if r.Header.NumOfIndexes != 3 {
		t.Errorf("numOfIndexes = %d, want 3", r.Header.NumOfIndexes)
	}
	if r.Header.IndexSize != 384 {
		t.Errorf("indexSize = %d, want 384", r.Header.IndexSize)
	}
	for i, f := range files {
		got, err := r.NextBytes()
		if err != nil {
			t.Fatalf("NextBytes(%d): %v", i, err)
		}
		if !bytes.Equal(got, f.data) {
			t.Errorf("entry %d: mismatch", i)
		}
	}
}

// S3: ZLIB level 6, two identical 64 KiB random blobs, crc64ECMA.
func TestScenarioS3(t *testing.T) {
	blob := make([]byte, 64*1024)
	if _, err := rand.Read(blob); err != nil {
		t.Fatalf("rand.Read: %v", err)
	}
	files := []struct {
		name string
		data []byte
	}{
		{"blob1", append([]byte(nil), blob...)},
		{"blob2", append([]byte(nil), blob...)},
	}
	header := baseHeader(record.CompZlib, 6, record.ChecksumCRC64ECMA, true)
	path := buildArchive(t, header, files)

	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	e0 := r.GetIndex(0)
	e1 := r.GetIndex(1)
	if !bytes.Equal(e0.Digest(record.ChecksumCRC64ECMA.Length()), e1.Digest(record.ChecksumCRC64ECMA.Length())) {
		t.Error("identical blobs produced different CRC64-ECMA digests")
	}
	for i := range files {
		got, err := r.NextBytes()
		if err != nil {
			t.Fatalf("NextBytes(%d): %v", i, err)
		}
		if !bytes.Equal(got, blob) {
			t.Errorf("entry %d: decoded blob does not match original", i)
		}
	}
}

// S4: bad signature.
func TestScenarioS4(t *testing.T) {
	header := baseHeader(record.CompUncompressed, 0, record.ChecksumNone, true)
	path := buildArchive(t, header, []struct {
		name string
		data []byte
	}{{"a", []byte("x")}})

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	raw[4] = 'p' // "DataPak." -> "Datapak."
	tamperedPath := filepath.Join(t.TempDir(), "tampered.dpk")
	if err := os.WriteFile(tamperedPath, raw, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	_, err = Open(tamperedPath)
	if !errors.Is(err, dpkerr.BadSignature) {
		t.Fatalf("Open = %v, want BadSignature", err)
	}
}

// S5: flip a bit in header.numOfIndexes, expect BadChecksum.
func TestScenarioS5(t *testing.T) {
	header := baseHeader(record.CompUncompressed, 0, record.ChecksumNone, true)
	path := buildArchive(t, header, []struct {
		name string
		data []byte
	}{{"a", []byte("x")}, {"b", []byte("y")}})

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	// numOfIndexes is at header offset 20 (signature 8 + header[20:24]).
	numOfIndexesOffset := record.SignatureSize + 20
	raw[numOfIndexesOffset] ^= 0x01
	tamperedPath := filepath.Join(t.TempDir(), "tampered.dpk")
	if err := os.WriteFile(tamperedPath, raw, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	_, err = Open(tamperedPath, WithHeaderChecksumError(true))
	if !errors.Is(err, dpkerr.BadChecksum) {
		t.Fatalf("Open = %v, want BadChecksum", err)
	}
}

// S6: jointly compressed archive, seek_to raises UnsupportedAccessMode.
func TestScenarioS6(t *testing.T) {
	header := baseHeader(record.CompZstd, 5, record.ChecksumNone, false)
	path := buildArchive(t, header, []struct {
		name string
		data []byte
	}{{"a", []byte("aaa")}, {"b", []byte("bbb")}})

	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	_, err = r.SeekTo(1)
	if !errors.Is(err, dpkerr.UnsupportedAccessMode) {
		t.Fatalf("SeekTo(1) = %v, want UnsupportedAccessMode", err)
	}
}

func TestSignatureCheckCanBeDisabled(t *testing.T) {
	header := baseHeader(record.CompUncompressed, 0, record.ChecksumNone, true)
	path := buildArchive(t, header, []struct {
		name string
		data []byte
	}{{"a", []byte("x")}})

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	raw[6] = 'p'
	tamperedPath := filepath.Join(t.TempDir(), "tampered.dpk")
	if err := os.WriteFile(tamperedPath, raw, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	r, err := Open(tamperedPath, WithSignatureCheck(false))
	if err != nil {
		t.Fatalf("Open with signature check disabled: %v", err)
	}
	defer r.Close()
}

func TestFileChecksumMismatchIsFatalOnlyForThatEntry(t *testing.T) {
	header := baseHeader(record.CompUncompressed, 0, record.ChecksumCRC32, true)
	path := buildArchive(t, header, []struct {
		name string
		data []byte
	}{{"a", []byte("first")}, {"b", []byte("second")}})

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	// Corrupt entry "a"'s stored byte (offset 296, per S1's layout logic
	// generalized: header region ends at 8+28+0=36, index table is
	// 2*128=256 bytes ending at 292, trailer is 4 bytes ending at 296,
	// "first" starts at 296).
	dataStart := 8 + 28 + 0 + 2*128 + 4
	raw[dataStart] ^= 0xFF
	tamperedPath := filepath.Join(t.TempDir(), "tampered.dpk")
	if err := os.WriteFile(tamperedPath, raw, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	r, err := Open(tamperedPath, WithHeaderChecksumError(false))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	_, err = r.NextBytes()
	if !errors.Is(err, dpkerr.BadChecksum) {
		t.Fatalf("NextBytes(0) = %v, want BadChecksum", err)
	}
	got, err := r.NextBytes()
	if err != nil {
		t.Fatalf("NextBytes(1) after a prior checksum failure: %v", err)
	}
	if !bytes.Equal(got, []byte("second")) {
		t.Errorf("entry 1 = %q, want %q", got, "second")
	}
}

func TestHeaderExtensionsRoundTripThroughArchive(t *testing.T) {
	dict := extreg.CompressionDictionary{Data: []byte("a shared dictionary for zstd+dict")}
	header := baseHeader(record.CompZstdDict, 10, record.ChecksumNone, true)
	archivePath := filepath.Join(t.TempDir(), "withdict.dpk")
	w, err := Create(archivePath, header, []extreg.HeaderExtValue{dict})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	src := writeTempFile(t, "f", []byte("payload needing a dictionary to compress well"))
	if _, err := w.AddFile(src, "f", nil); err != nil {
		t.Fatalf("AddFile: %v", err)
	}
	if err := w.Finalize(); err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	r, err := Open(archivePath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	if len(r.HeaderExts) != 1 {
		t.Fatalf("HeaderExts = %d entries, want 1", len(r.HeaderExts))
	}
	got, ok := r.HeaderExts[0].(extreg.CompressionDictionary)
	if !ok {
		t.Fatalf("HeaderExts[0] = %T, want CompressionDictionary", r.HeaderExts[0])
	}
	if !bytes.Equal(got.Data, dict.Data) {
		t.Errorf("dictionary round-trip mismatch")
	}

	out, err := r.NextBytes()
	if err != nil {
		t.Fatalf("NextBytes: %v", err)
	}
	if string(out) != "payload needing a dictionary to compress well" {
		t.Errorf("got %q", out)
	}
}

func TestPeekIndexAndEOF(t *testing.T) {
	header := baseHeader(record.CompUncompressed, 0, record.ChecksumNone, true)
	path := buildArchive(t, header, []struct {
		name string
		data []byte
	}{{"only", []byte("x")}})

	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	peeked := r.PeekIndex()
	if peeked == nil || peeked.Name() != "only" {
		t.Fatalf("PeekIndex = %+v, want entry named %q", peeked, "only")
	}
	if _, err := r.NextBytes(); err != nil {
		t.Fatalf("NextBytes: %v", err)
	}
	if r.PeekIndex() != nil {
		t.Error("PeekIndex after exhausting the archive should be nil")
	}
	if _, err := r.NextBytes(); !errors.Is(err, io.EOF) {
		t.Errorf("NextBytes past the end = %v, want io.EOF", err)
	}
}
