package compress

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/zlib"
)

type Zlib struct {
	level int
}

var _ Compressor = Zlib{}

// NewZlib validates level (zlib.HuffmanOnly..zlib.BestCompression).
// Zero selects zlib.DefaultCompression.
func NewZlib(level int) (Zlib, error) {
	if level == 0 {
		level = zlib.DefaultCompression
	}
	// probe once so bad levels fail at construction, not on the hot path
	if _, err := zlib.NewWriterLevel(io.Discard, level); err != nil {
		return Zlib{}, err
	}
	return Zlib{level: level}, nil
}

func (z Zlib) Deflate(p []byte) ([]byte, error) {
	level := z.level
	if level == 0 {
		level = zlib.DefaultCompression
	}
	var buf bytes.Buffer
	w, err := zlib.NewWriterLevel(&buf, level)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(p); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (Zlib) Inflate(p []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(p))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}
