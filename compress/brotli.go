package compress

import (
	"bytes"
	"fmt"
	"io"

	"github.com/andybalholm/brotli"
)

// Brotli compresses with andybalholm/brotli. Quality ranges from
// brotli.BestSpeed (0) to brotli.BestCompression (11); the zero value uses 0.
type Brotli struct {
	Quality int
}

var _ Compressor = Brotli{}

func NewBrotli(quality int) (Brotli, error) {
	if quality < brotli.BestSpeed || quality > brotli.BestCompression {
		return Brotli{}, fmt.Errorf("compress: brotli quality %d out of range [%d,%d]",
			quality, brotli.BestSpeed, brotli.BestCompression)
	}
	return Brotli{Quality: quality}, nil
}

func (b Brotli) Deflate(p []byte) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(len(p) / 2)
	w := brotli.NewWriterLevel(&buf, b.Quality)
	if _, err := w.Write(p); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (Brotli) Inflate(p []byte) ([]byte, error) {
	return io.ReadAll(brotli.NewReader(bytes.NewReader(p)))
}
