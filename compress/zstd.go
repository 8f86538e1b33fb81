package compress

import (
	"github.com/klauspost/compress/zstd"
)

// Zstd holds one encoder and one decoder. EncodeAll/DecodeAll are safe for
// concurrent use, so a single Zstd can serve a whole store.
type Zstd struct {
	enc *zstd.Encoder
	dec *zstd.Decoder
}

var _ Compressor = (*Zstd)(nil)

// NewZstd maps level (zstd's 1..22 scale, <=0 for the library default)
// onto the encoder's speed presets.
func NewZstd(level int) (*Zstd, error) {
	encLevel := zstd.SpeedDefault
	if level > 0 {
		encLevel = zstd.EncoderLevelFromZstd(level)
	}
	enc, err := zstd.NewWriter(nil,
		zstd.WithEncoderLevel(encLevel),
		zstd.WithZeroFrames(true),
	)
	if err != nil {
		return nil, err
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		_ = enc.Close()
		return nil, err
	}
	return &Zstd{enc: enc, dec: dec}, nil
}

func (z *Zstd) Deflate(p []byte) ([]byte, error) {
	return z.enc.EncodeAll(p, make([]byte, 0, len(p)/2)), nil
}

func (z *Zstd) Inflate(p []byte) ([]byte, error) {
	return z.dec.DecodeAll(p, nil)
}

// Close releases the decoder's goroutines.
func (z *Zstd) Close() error {
	z.dec.Close()
	return z.enc.Close()
}
