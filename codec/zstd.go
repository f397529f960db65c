package codec

import (
	"io"

	"github.com/klauspost/compress/zstd"
)

// zstdLevel maps the archive's 0-63 compLevel field onto zstd's coarser
// EncoderLevel enum, matching the way klauspost/compress/zstd is used
// in rpcpool-yellowstone-faithful (WithEncoderLevel, not a raw numeric
// level).
func zstdLevel(level int) zstd.EncoderLevel {
	switch {
	case level <= 1:
		return zstd.SpeedFastest
	case level <= 6:
		return zstd.SpeedDefault
	case level <= 12:
		return zstd.SpeedBetterCompression
	default:
		return zstd.SpeedBestCompression
	}
}

// zstdEncoder wraps klauspost/compress/zstd.Encoder. A non-nil dict
// configures CompZstdDict encoding via WithEncoderDict.
type zstdEncoder struct {
	enc *zstd.Encoder
}

func newZstdEncoder(w io.Writer, level int, dict []byte) (*zstdEncoder, error) {
	opts := []zstd.EOption{zstd.WithEncoderLevel(zstdLevel(level))}
	if len(dict) > 0 {
		opts = append(opts, zstd.WithEncoderDict(dict))
	}
	enc, err := zstd.NewWriter(w, opts...)
	if err != nil {
		return nil, errCompression(err, "open zstd encoder at level %d", level)
	}
	return &zstdEncoder{enc: enc}, nil
}

func (e *zstdEncoder) Write(p []byte) (int, error) {
	n, err := e.enc.Write(p)
	if err != nil {
		return n, errCompression(err, "zstd write")
	}
	return n, nil
}

func (e *zstdEncoder) FlushAt(mode FlushMode) error {
	switch mode {
	case Continue:
		return nil
	case Flush:
		if err := e.enc.Flush(); err != nil {
			return errCompression(err, "zstd flush")
		}
		return nil
	case End:
		if err := e.enc.Close(); err != nil {
			return errCompression(err, "zstd finish")
		}
		return nil
	default:
		return errCompression(nil, "unknown flush mode %d", mode)
	}
}

// zstdDecoder wraps klauspost/compress/zstd.Decoder. A non-nil dict
// configures CompZstdDict decoding via WithDecoderDicts.
type zstdDecoder struct {
	dec *zstd.Decoder
}

func newZstdDecoder(r io.Reader, dict []byte) (*zstdDecoder, error) {
	opts := []zstd.DOption{}
	if len(dict) > 0 {
		opts = append(opts, zstd.WithDecoderDicts(dict))
	}
	dec, err := zstd.NewReader(r, opts...)
	if err != nil {
		return nil, errCompression(err, "open zstd decoder")
	}
	return &zstdDecoder{dec: dec}, nil
}

func (d *zstdDecoder) Read(p []byte) (int, error) {
	n, err := d.dec.Read(p)
	if err != nil && err != io.EOF {
		return n, errCompression(err, "zstd read")
	}
	return n, err
}

// Close releases the decoder's background goroutines/buffers. The
// archive reader calls this when the archive is closed.
func (d *zstdDecoder) Close() {
	d.dec.Close()
}
