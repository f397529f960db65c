package codec

import (
	"io"

	"github.com/klauspost/compress/zlib"
)

// zlibEncoder wraps klauspost/compress/zlib.Writer, which is a faster
// drop-in replacement for the stdlib package of the same shape and
// already exposes the mid-stream flush semantics this codec needs
// (Z_SYNC_FLUSH on Flush, Z_FINISH on Close).
type zlibEncoder struct {
	w *zlib.Writer
}

func newZlibEncoder(w io.Writer, level int) (*zlibEncoder, error) {
	zw, err := zlib.NewWriterLevel(w, level)
	if err != nil {
		return nil, errCompression(err, "open zlib encoder at level %d", level)
	}
	return &zlibEncoder{w: zw}, nil
}

func (e *zlibEncoder) Write(p []byte) (int, error) {
	n, err := e.w.Write(p)
	if err != nil {
		return n, errCompression(err, "zlib write")
	}
	return n, nil
}

func (e *zlibEncoder) FlushAt(mode FlushMode) error {
	switch mode {
	case Continue:
		return nil
	case Flush:
		if err := e.w.Flush(); err != nil {
			return errCompression(err, "zlib sync flush")
		}
		return nil
	case End:
		if err := e.w.Close(); err != nil {
			return errCompression(err, "zlib finish")
		}
		return nil
	default:
		return errCompression(nil, "unknown flush mode %d", mode)
	}
}

// zlibDecoder wraps klauspost/compress/zlib.Reader. Flush points
// written by the encoder are transparent to the reader: Read just
// keeps draining decompressed bytes across them, which is exactly what
// a jointly compressed archive's persistent codec cursor needs.
type zlibDecoder struct {
	r io.ReadCloser
}

func newZlibDecoder(r io.Reader) (*zlibDecoder, error) {
	zr, err := zlib.NewReader(r)
	if err != nil {
		return nil, errCompression(err, "open zlib decoder")
	}
	return &zlibDecoder{r: zr}, nil
}

func (d *zlibDecoder) Read(p []byte) (int, error) {
	n, err := d.r.Read(p)
	if err != nil && err != io.EOF {
		return n, errCompression(err, "zlib read")
	}
	return n, err
}
