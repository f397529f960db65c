package codec

import "io"

// uncompressedEncoder is a pass-through Encoder for compMethod =
// UNCMPRSD: writes are forwarded unchanged, and flushing is a no-op
// since there is no codec state to synchronize.
type uncompressedEncoder struct {
	w io.Writer
}

func newUncompressedEncoder(w io.Writer) *uncompressedEncoder {
	return &uncompressedEncoder{w: w}
}

func (e *uncompressedEncoder) Write(p []byte) (int, error) {
	return e.w.Write(p)
}

func (e *uncompressedEncoder) FlushAt(mode FlushMode) error {
	return nil
}

// uncompressedDecoder is a pass-through Decoder.
type uncompressedDecoder struct {
	r io.Reader
}

func newUncompressedDecoder(r io.Reader) *uncompressedDecoder {
	return &uncompressedDecoder{r: r}
}

func (d *uncompressedDecoder) Read(p []byte) (int, error) {
	return d.r.Read(p)
}
