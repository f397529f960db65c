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

// pendingFile is one addFile call accumulated before Finalize.
type pendingFile struct {
	srcPath   string
	entry     *record.IndexEntry
	indexExts []extreg.IndexExtValue
}

// Writer accumulates file entries and their source paths, computing
// per-file checksums during a pre-pass, then serializes the header,
// extensions and index table before streaming file bodies through the
// chosen codec. A Writer is build-mode only: AddFile mutates it until
// Finalize is called, which is terminal.
type Writer struct {
	opts       Options
	path       string
	header     record.Header
	headerExts []extreg.HeaderExtValue

	pending             []pendingFile
	runningUncompOffset uint64

	finalized bool
}

// Create begins a new build-mode archive that will be written to path,
// using headerTemplate as the starting Header (IndexSize,
// ExtFieldSize and NumOfIndexes are recomputed by Writer and need not
// be pre-populated). Create does not open or create path and sets up
// no encoder; Finalize creates the file and the encoder.
func Create(path string, headerTemplate record.Header, headerExts []extreg.HeaderExtValue, opts ...Option) (*Writer, error) {
	w := &Writer{
		opts:       applyOptions(opts...),
		path:       path,
		header:     headerTemplate,
		headerExts: headerExts,
	}
	w.header.NumOfIndexes = 0
	w.header.IndexSize = 0
	var extFieldSize uint32
	for _, e := range headerExts {
		extFieldSize += uint32(len(e.Encode())) + record.HeaderExtPrefixSize
	}
	w.header.ExtFieldSize = extFieldSize
	return w, nil
}

// AddFile registers srcPath's contents to be stored under archiveName.
// It reads srcPath once to compute its per-file checksum, using the
// checksum algorithm configured in the Header this Writer was created
// with. Calling AddFile after Finalize is a fatal programmer error.
func (w *Writer) AddFile(srcPath, archiveName string, indexExts []extreg.IndexExtValue) (*record.IndexEntry, error) {
	if w.finalized {
		panic("datapak: AddFile called on a finalized Writer")
	}

	f, err := os.Open(srcPath)
	if err != nil {
		return nil, fmt.Errorf("datapak: open %s: %w", srcPath, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("datapak: stat %s: %w", srcPath, err)
	}
	size := uint64(info.Size())

	ct := record.ChecksumType(w.header.Flags.ChecksumType)
	h, err := codec.NewHash(ct, w.opts.HashOpts)
	if err != nil {
		return nil, dpkerr.Wrap(dpkerr.KindCompression, err, "unsupported checksum type %d", ct)
	}
	if _, err := io.Copy(h, f); err != nil {
		return nil, fmt.Errorf("datapak: hash %s: %w", srcPath, err)
	}
	digest := codec.FinalizeDigest(ct, h)

	var extFieldSize uint32
	for _, e := range indexExts {
		extFieldSize += uint32(len(e.Encode())) + record.IndexExtPrefixSize
	}

	entry := &record.IndexEntry{
		Offset:       w.runningUncompOffset,
		UncompSize:   size,
		CompSize:     size, // corrected for joint/per-file mode in Finalize
		ExtFieldSize: extFieldSize,
	}
	if err := entry.SetField(archiveName, digest); err != nil {
		return nil, fmt.Errorf("datapak: %w", err)
	}

	w.pending = append(w.pending, pendingFile{srcPath: srcPath, entry: entry, indexExts: indexExts})
	w.runningUncompOffset += size
	w.header.IndexSize += record.IndexEntrySize + uint64(extFieldSize)
	w.header.NumOfIndexes++

	return entry, nil
}

// jointMode reports whether this archive shares a single codec stream
// across all entries (no random access).
func (w *Writer) jointMode() bool {
	return !w.header.Flags.PerFileComp && w.header.CompMethod != record.CompUncompressed
}

// Finalize writes the complete archive to disk: signature, header,
// header extensions, index table, header CRC32 trailer, then the data
// region. It is not safe to call twice.
func (w *Writer) Finalize() error {
	if w.finalized {
		panic("datapak: Finalize called twice")
	}
	w.finalized = true

	if uint64(len(w.pending)) != uint64(w.header.NumOfIndexes) {
		return fmt.Errorf("datapak: numOfIndexes accounting mismatch: have %d entries, header says %d", len(w.pending), w.header.NumOfIndexes)
	}

	out, err := os.Create(w.path)
	if err != nil {
		return fmt.Errorf("datapak: create %s: %w", w.path, err)
	}
	defer out.Close()

	joint := w.jointMode()
	dict := findDictionary(w.headerExts)

	// For per-file/uncompressed archives, compress each file's body
	// ahead of time so that the IndexEntry.Offset/CompSize values
	// written into the index (which precedes the data region on disk)
	// are correct.
	var bodies [][]byte
	if !joint {
		bodies = make([][]byte, len(w.pending))
		var runningCompOffset uint64
		for i, pf := range w.pending {
			body, err := compressWholeFile(pf.srcPath, w.header.CompMethod, int(w.header.Flags.CompLevel), dict)
			if err != nil {
				return err
			}
			bodies[i] = body
			pf.entry.Offset = runningCompOffset
			pf.entry.CompSize = uint64(len(body))
			runningCompOffset += uint64(len(body))
		}
	} else {
		// Jointly compressed entries share one codec stream; CompSize
		// has no per-entry meaning and is written as 0 (no random
		// access).
		for _, pf := range w.pending {
			pf.entry.CompSize = 0
		}
	}

	crc := crc32.NewIEEE()
	mw := io.MultiWriter(out, crc)

	if _, err := mw.Write(w.opts.Signature[:]); err != nil {
		return fmt.Errorf("datapak: write signature: %w", err)
	}
	if _, err := mw.Write(w.header.ToBinary()); err != nil {
		return fmt.Errorf("datapak: write header: %w", err)
	}
	for _, e := range w.headerExts {
		raw := extreg.ToHeaderExtension(e)
		if _, err := mw.Write(raw.ToBinary()); err != nil {
			return fmt.Errorf("datapak: write header extension: %w", err)
		}
	}
	for _, pf := range w.pending {
		if _, err := mw.Write(pf.entry.ToBinary()); err != nil {
			return fmt.Errorf("datapak: write index entry: %w", err)
		}
		for _, e := range pf.indexExts {
			raw := extreg.ToIndexExtension(e)
			if _, err := mw.Write(raw.ToBinary()); err != nil {
				return fmt.Errorf("datapak: write index extension: %w", err)
			}
		}
	}

	var trailer [4]byte
	putLE32(trailer[:], crc.Sum32())
	if _, err := out.Write(trailer[:]); err != nil {
		return fmt.Errorf("datapak: write header CRC trailer: %w", err)
	}

	if !joint {
		for _, body := range bodies {
			if _, err := out.Write(body); err != nil {
				return fmt.Errorf("datapak: write file body: %w", err)
			}
		}
		return nil
	}

	enc, err := codec.NewEncoder(w.header.CompMethod, int(w.header.Flags.CompLevel), dict, out)
	if err != nil {
		return err
	}
	for i, pf := range w.pending {
		src, err := os.Open(pf.srcPath)
		if err != nil {
			return fmt.Errorf("datapak: open %s: %w", pf.srcPath, err)
		}
		_, copyErr := io.Copy(enc, src)
		src.Close()
		if copyErr != nil {
			return fmt.Errorf("datapak: stream %s: %w", pf.srcPath, copyErr)
		}
		if i == len(w.pending)-1 {
			if err := enc.FlushAt(codec.End); err != nil {
				return err
			}
		} else {
			if err := enc.FlushAt(codec.Flush); err != nil {
				return err
			}
		}
	}
	if len(w.pending) == 0 {
		if err := enc.FlushAt(codec.End); err != nil {
			return err
		}
	}
	return nil
}

func compressWholeFile(srcPath string, method [record.CompMethodSize]byte, level int, dict []byte) ([]byte, error) {
	src, err := os.Open(srcPath)
	if err != nil {
		return nil, fmt.Errorf("datapak: open %s: %w", srcPath, err)
	}
	defer src.Close()

	var buf bytes.Buffer
	enc, err := codec.NewEncoder(method, level, dict, &buf)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(enc, src); err != nil {
		return nil, fmt.Errorf("datapak: compress %s: %w", srcPath, err)
	}
	if err := enc.FlushAt(codec.End); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func putLE32(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}
