// Package codec wraps the compression and checksum primitives behind a
// uniform streaming interface, so the archive reader and writer can
// treat "uncompressed", "deflate/zlib", "zstd" and "zstd+dict" the same
// way. It never makes a decision about which bytes to compress; that is
// the archive package's job.
package codec

import (
	"fmt"
	"io"

	"github.com/ZILtoid1991/datapak/dpkerr"
	"github.com/ZILtoid1991/datapak/record"
)

// FlushMode selects how an Encoder should treat the end of the bytes
// just fed to it.
type FlushMode int

const (
	// Continue means more data for the same codec stream follows; no
	// flush point is emitted.
	Continue FlushMode = iota
	// Flush emits a codec sync point (zstd e_flush, deflate
	// Z_SYNC_FLUSH) without ending the stream. Used between files in a
	// jointly compressed archive.
	Flush
	// End finalizes the codec stream (zstd e_end, deflate Z_FINISH).
	// Used at archive end (joint mode) or after each file (per-file
	// mode).
	End
)

// ReadBufferSize is the default value of archive.Options.ReadBufferSize.
// The encoders and decoders in this package do not consult it.
const ReadBufferSize = 32 * 1024

// Encoder is a streaming compressor. Write feeds input bytes through
// the codec and appends produced output to the underlying writer it was
// constructed with. FlushAt performs the flush/end handling described
// by FlushMode.
type Encoder interface {
	io.Writer
	// FlushAt performs the requested flush behavior. Continue is a
	// no-op; Flush emits a sync point; End finalizes the stream. After
	// End, the Encoder must not be written to again.
	FlushAt(mode FlushMode) error
}

// Decoder is a streaming decompressor that reads decoded bytes from the
// underlying reader it was constructed with.
type Decoder interface {
	io.Reader
}

// NewEncoder builds an Encoder for the given compMethod tag, writing
// compressed output to w. dict is an optional compression dictionary
// (only meaningful for CompZstdDict).
func NewEncoder(method [record.CompMethodSize]byte, level int, dict []byte, w io.Writer) (Encoder, error) {
	switch method {
	case record.CompUncompressed:
		return newUncompressedEncoder(w), nil
	case record.CompZlib:
		return newZlibEncoder(w, level)
	case record.CompZstd:
		return newZstdEncoder(w, level, nil)
	case record.CompZstdDict:
		if len(dict) == 0 {
			return nil, dpkerr.Wrap(dpkerr.KindCompression, nil, "zstd+dict encoder requires a non-empty dictionary")
		}
		return newZstdEncoder(w, level, dict)
	case record.CompLZ4:
		return nil, dpkerr.New(dpkerr.KindUnknownCompressionExtension, "compMethod %q is recognized but not implemented", record.CompMethodString(method))
	default:
		return nil, dpkerr.New(dpkerr.KindUnknownCompressionExtension, "compMethod %q is not recognized", record.CompMethodString(method))
	}
}

// NewDecoder builds a Decoder for the given compMethod tag, reading
// compressed bytes from r.
func NewDecoder(method [record.CompMethodSize]byte, dict []byte, r io.Reader) (Decoder, error) {
	switch method {
	case record.CompUncompressed:
		return newUncompressedDecoder(r), nil
	case record.CompZlib:
		return newZlibDecoder(r)
	case record.CompZstd:
		return newZstdDecoder(r, nil)
	case record.CompZstdDict:
		if len(dict) == 0 {
			return nil, dpkerr.Wrap(dpkerr.KindCompression, nil, "zstd+dict decoder requires a non-empty dictionary")
		}
		return newZstdDecoder(r, dict)
	case record.CompLZ4:
		return nil, dpkerr.New(dpkerr.KindUnknownCompressionExtension, "compMethod %q is recognized but not implemented", record.CompMethodString(method))
	default:
		return nil, dpkerr.New(dpkerr.KindUnknownCompressionExtension, "compMethod %q is not recognized", record.CompMethodString(method))
	}
}

func errCompression(cause error, format string, args ...interface{}) error {
	return dpkerr.Wrap(dpkerr.KindCompression, cause, fmt.Sprintf(format, args...))
}
