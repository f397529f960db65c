package archive

import (
	"bytes"
	"fmt"
	"hash/crc32"
	"io"
	"os"

	"github.com/ZILtoid1991/datapak/codec"
	"github.com/ZILtoid1991/datapak/dpkerr"
	"github.com/ZILtoid1991/datapak/extreg"
	"github.com/ZILtoid1991/datapak/record"
)

// Reader parses an archive's signature, header, extensions and index
// table on construction, then yields file payloads sequentially (or by
// index, when the archive is random-access). It is read-mode only:
// once constructed, it never mutates the underlying file except to
// advance its own read/seek cursor.
type Reader struct {
	opts Options

	Header          record.Header
	HeaderExts      []extreg.HeaderExtValue
	indexes         []*record.IndexEntry
	indexExtensions [][]extreg.IndexExtValue

	src       io.ReadSeeker
	closer    io.Closer
	dataStart int64
	dict      []byte

	nextIndex int

	// jointDecoder persists across NextBytes calls in joint mode, since
	// one codec stream spans every entry.
	jointDecoder codec.Decoder
	// perFileDecoder is rebuilt for each entry in per-file/uncompressed
	// mode, since every entry is its own independent codec stream.
	perFileDecoder     codec.Decoder
	perFileDecoderForI int
}

// Open opens path and parses it as a DataPak archive.
func Open(path string, opts ...Option) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("datapak: open %s: %w", path, err)
	}
	r, err := FromStream(f, opts...)
	if err != nil {
		f.Close()
		return nil, err
	}
	r.closer = f
	return r, nil
}

// FromStream parses a DataPak archive from an already-open
// io.ReadSeeker, e.g. for archives embedded in a larger file.
func FromStream(s io.ReadSeeker, opts ...Option) (*Reader, error) {
	r := &Reader{opts: applyOptions(opts...), src: s}
	if err := r.parse(); err != nil {
		return nil, err
	}
	return r, nil
}

// Close releases the underlying file handle and any decoder resources.
func (r *Reader) Close() error {
	if zd, ok := r.jointDecoder.(interface{ Close() }); ok {
		zd.Close()
	}
	if zd, ok := r.perFileDecoder.(interface{ Close() }); ok {
		zd.Close()
	}
	if r.closer != nil {
		return r.closer.Close()
	}
	return nil
}

func (r *Reader) parse() error {
	crc := crc32.NewIEEE()

	sigBuf := make([]byte, record.SignatureSize)
	if _, err := io.ReadFull(r.src, sigBuf); err != nil {
		return dpkerr.Wrap(dpkerr.KindUnexpectedEOF, err, "read signature")
	}
	if r.opts.EnableSignatureCheck && !bytes.Equal(sigBuf, r.opts.Signature[:]) {
		return dpkerr.New(dpkerr.KindBadSignature, "signature %q does not match expected %q", sigBuf, r.opts.Signature[:])
	}
	crc.Write(sigBuf)

	headerBuf := make([]byte, record.HeaderSize)
	if _, err := io.ReadFull(r.src, headerBuf); err != nil {
		return dpkerr.Wrap(dpkerr.KindUnexpectedEOF, err, "read header")
	}
	crc.Write(headerBuf)
	header, err := record.HeaderFromBinary(headerBuf)
	if err != nil {
		return err
	}
	r.Header = *header

	extRaw := make([]byte, header.ExtFieldSize)
	if _, err := io.ReadFull(r.src, extRaw); err != nil {
		return dpkerr.Wrap(dpkerr.KindUnexpectedEOF, err, "read header extensions")
	}
	crc.Write(extRaw)
	extLogical := extRaw
	if header.Flags.CompExtField {
		extLogical, err = decompressWholeBuffer(header.CompMethod, nil, extRaw)
		if err != nil {
			return err
		}
	}
	exts, err := parseHeaderExtensions(extLogical)
	if err != nil {
		return err
	}
	r.HeaderExts = exts
	r.dict = findDictionary(exts)

	indexRaw := make([]byte, header.IndexSize)
	if _, err := io.ReadFull(r.src, indexRaw); err != nil {
		return dpkerr.Wrap(dpkerr.KindUnexpectedEOF, err, "read index table")
	}
	crc.Write(indexRaw)
	indexLogical := indexRaw
	if header.Flags.CompIndex {
		indexLogical, err = decompressWholeBuffer(header.CompMethod, r.dict, indexRaw)
		if err != nil {
			return err
		}
	}
	indexes, indexExts, err := parseIndexTable(indexLogical, int(header.NumOfIndexes))
	if err != nil {
		return err
	}
	r.indexes = indexes
	r.indexExtensions = indexExts

	trailer := make([]byte, 4)
	if _, err := io.ReadFull(r.src, trailer); err != nil {
		return dpkerr.Wrap(dpkerr.KindUnexpectedEOF, err, "read header CRC trailer")
	}
	want := crc.Sum32()
	got := uint32(trailer[0]) | uint32(trailer[1])<<8 | uint32(trailer[2])<<16 | uint32(trailer[3])<<24
	if got != want && r.opts.EnableHeaderChecksumError {
		return dpkerr.New(dpkerr.KindBadChecksum, "header CRC32 trailer %#08x does not match computed %#08x", got, want)
	}

	pos, err := r.src.Seek(0, io.SeekCurrent)
	if err != nil {
		return fmt.Errorf("datapak: locate data region: %w", err)
	}
	r.dataStart = pos

	if r.jointMode() {
		if _, err := r.src.Seek(r.dataStart, io.SeekStart); err != nil {
			return fmt.Errorf("datapak: seek to data region: %w", err)
		}
		dec, err := codec.NewDecoder(header.CompMethod, r.dict, r.src)
		if err != nil {
			return err
		}
		r.jointDecoder = dec
	}

	return nil
}

func parseHeaderExtensions(buf []byte) ([]extreg.HeaderExtValue, error) {
	var exts []extreg.HeaderExtValue
	off := 0
	for off < len(buf) {
		if len(buf)-off < record.HeaderExtPrefixSize {
			return nil, dpkerr.New(dpkerr.KindUnexpectedEOF, "truncated header extension prefix")
		}
		sig, size, err := record.HeaderExtensionPrefixFromBinary(buf[off:])
		if err != nil {
			return nil, err
		}
		end := off + int(size)
		if end > len(buf) {
			return nil, dpkerr.New(dpkerr.KindUnexpectedEOF, "header extension payload runs past extFieldSize")
		}
		raw := &record.HeaderExtension{Signature: sig, Size: size, Payload: buf[off+record.HeaderExtPrefixSize : end]}
		v, err := extreg.ParseHeaderExt(raw)
		if err != nil {
			return nil, err
		}
		exts = append(exts, v)
		off = end
	}
	return exts, nil
}

func parseIndexTable(buf []byte, n int) ([]*record.IndexEntry, [][]extreg.IndexExtValue, error) {
	entries := make([]*record.IndexEntry, 0, n)
	allExts := make([][]extreg.IndexExtValue, 0, n)
	off := 0
	for i := 0; i < n; i++ {
		if len(buf)-off < record.IndexEntrySize {
			return nil, nil, dpkerr.New(dpkerr.KindUnexpectedEOF, "truncated index entry %d", i)
		}
		entry, err := record.IndexEntryFromBinary(buf[off:])
		if err != nil {
			return nil, nil, err
		}
		off += record.IndexEntrySize

		var exts []extreg.IndexExtValue
		extEnd := off + int(entry.ExtFieldSize)
		if extEnd > len(buf) {
			return nil, nil, dpkerr.New(dpkerr.KindUnexpectedEOF, "index entry %d extension payload runs past indexSize", i)
		}
		extBuf := buf[off:extEnd]
		extOff := 0
		for extOff < len(extBuf) {
			if len(extBuf)-extOff < record.IndexExtPrefixSize {
				return nil, nil, dpkerr.New(dpkerr.KindUnexpectedEOF, "truncated index extension prefix on entry %d", i)
			}
			sig, size, err := record.IndexExtensionPrefixFromBinary(extBuf[extOff:])
			if err != nil {
				return nil, nil, err
			}
			end := extOff + int(size)
			if end > len(extBuf) {
				return nil, nil, dpkerr.New(dpkerr.KindUnexpectedEOF, "index extension payload runs past entry %d's extFieldSize", i)
			}
			raw := &record.IndexExtension{Signature: sig, Size: size, Payload: extBuf[extOff+record.IndexExtPrefixSize : end]}
			v, err := extreg.ParseIndexExt(raw)
			if err != nil {
				return nil, nil, err
			}
			exts = append(exts, v)
			extOff = end
		}
		off = extEnd

		entries = append(entries, entry)
		allExts = append(allExts, exts)
	}
	return entries, allExts, nil
}

func findDictionary(exts []extreg.HeaderExtValue) []byte {
	for _, e := range exts {
		if cd, ok := e.(extreg.CompressionDictionary); ok {
			return cd.Data
		}
	}
	for _, e := range exts {
		if p, ok := e.(extreg.ExternalDictionaryPath); ok {
			data, err := os.ReadFile(p.Path)
			if err != nil {
				// Dictionary load failure is surfaced lazily on first
				// use since this helper has no error return;
				// NewDecoder(ZSTD+D) with a nil dict reports it then.
				return nil
			}
			return data
		}
	}
	return nil
}

func decompressWholeBuffer(method [record.CompMethodSize]byte, dict []byte, raw []byte) ([]byte, error) {
	dec, err := codec.NewDecoder(method, dict, bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	out, err := io.ReadAll(dec)
	if err != nil {
		return nil, dpkerr.Wrap(dpkerr.KindCompression, err, "decompress deprecated compIndex/compExtField region")
	}
	return out, nil
}

// jointMode reports whether this archive shares a single codec stream
// across all entries (no random access).
func (r *Reader) jointMode() bool {
	return !r.Header.Flags.PerFileComp && r.Header.CompMethod != record.CompUncompressed
}

// RandomAccess reports whether SeekTo is usable on this archive:
// perFileComp or an uncompressed compMethod.
func (r *Reader) RandomAccess() bool {
	return r.Header.Flags.PerFileComp || r.Header.CompMethod == record.CompUncompressed
}

// PeekIndex returns the entry that the next call to NextBytes would
// decode, or nil if the archive is exhausted.
func (r *Reader) PeekIndex() *record.IndexEntry {
	if r.nextIndex >= len(r.indexes) {
		return nil
	}
	return r.indexes[r.nextIndex]
}

// GetIndex returns the i'th index entry, or nil if i is out of range.
func (r *Reader) GetIndex(i int) *record.IndexEntry {
	if i < 0 || i >= len(r.indexes) {
		return nil
	}
	return r.indexes[i]
}

// NumIndexes returns the number of entries in the archive.
func (r *Reader) NumIndexes() int {
	return len(r.indexes)
}

// IndexExtensions returns the index extensions attached to the i'th
// entry, or nil if i is out of range or has none.
func (r *Reader) IndexExtensions(i int) []extreg.IndexExtValue {
	if i < 0 || i >= len(r.indexExtensions) {
		return nil
	}
	return r.indexExtensions[i]
}

// NextBytes decompresses exactly the next entry's uncompressed size,
// advances the cursor, and returns the bytes. If file-checksum
// verification is enabled and the archive's checksum type is not
// "none", it recomputes the per-file digest and compares it against the
// entry's stored digest; a mismatch is fatal for this call only — the
// Reader remains usable for subsequent entries.
func (r *Reader) NextBytes() ([]byte, error) {
	if r.nextIndex >= len(r.indexes) {
		return nil, io.EOF
	}
	entry := r.indexes[r.nextIndex]
	idx := r.nextIndex

	dec, err := r.decoderFor(idx, entry)
	if err != nil {
		return nil, err
	}

	buf := make([]byte, entry.UncompSize)
	if _, err := io.ReadFull(dec, buf); err != nil {
		return nil, dpkerr.Wrap(dpkerr.KindUnexpectedEOF, err, "decompress entry %d (%s)", idx, entry.Name())
	}
	r.nextIndex++

	ct := record.ChecksumType(r.Header.Flags.ChecksumType)
	if r.opts.EnableFileChecksumError && ct != record.ChecksumNone {
		h, err := codec.NewHash(ct, r.opts.HashOpts)
		if err != nil {
			return nil, err
		}
		h.Write(buf)
		got := codec.FinalizeDigest(ct, h)
		want := entry.Digest(ct.Length())
		if !bytes.Equal(got, want) {
			return buf, dpkerr.New(dpkerr.KindBadChecksum, "entry %d (%s): digest %x does not match stored %x", idx, entry.Name(), got, want)
		}
	}
	return buf, nil
}

// decoderFor returns the codec.Decoder that should be used to read
// entry's bytes, creating a fresh per-file decoder when needed.
func (r *Reader) decoderFor(idx int, entry *record.IndexEntry) (codec.Decoder, error) {
	if r.jointMode() {
		return r.jointDecoder, nil
	}
	if r.perFileDecoder != nil && r.perFileDecoderForI == idx {
		return r.perFileDecoder, nil
	}
	if _, err := r.src.Seek(r.dataStart+int64(entry.Offset), io.SeekStart); err != nil {
		return nil, fmt.Errorf("datapak: seek to entry %d: %w", idx, err)
	}
	var body io.Reader = r.src
	if r.Header.CompMethod != record.CompUncompressed {
		body = io.LimitReader(r.src, int64(entry.CompSize))
	}
	dec, err := codec.NewDecoder(r.Header.CompMethod, r.dict, body)
	if err != nil {
		return nil, err
	}
	r.perFileDecoder = dec
	r.perFileDecoderForI = idx
	return dec, nil
}

// SeekTo repositions the Reader at the i'th entry for random access.
// It fails with dpkerr.UnsupportedAccessMode unless RandomAccess()
// is true.
func (r *Reader) SeekTo(i int) (*record.IndexEntry, error) {
	if !r.RandomAccess() {
		return nil, dpkerr.New(dpkerr.KindUnsupportedAccessMode, "archive is jointly compressed; random access is unavailable")
	}
	if i < 0 || i >= len(r.indexes) {
		return nil, fmt.Errorf("datapak: index %d out of range [0,%d)", i, len(r.indexes))
	}
	entry := r.indexes[i]
	if _, err := r.src.Seek(r.dataStart+int64(entry.Offset), io.SeekStart); err != nil {
		return nil, fmt.Errorf("datapak: seek to entry %d: %w", i, err)
	}
	// Force decoderFor to build a fresh codec instance bound to this
	// entry on the next NextBytes call.
	r.perFileDecoder = nil
	r.perFileDecoderForI = -1
	r.nextIndex = i
	return entry, nil
}
