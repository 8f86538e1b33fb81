package compress

import "github.com/klauspost/compress/s2"

// S2 uses the klauspost s2 block format: fast, moderate ratio.
// Better trades some speed for a smaller output.
type S2 struct {
	Better bool
}

var _ Compressor = S2{}

func (c S2) Deflate(p []byte) ([]byte, error) {
	if c.Better {
		return s2.EncodeBetter(nil, p), nil
	}
	return s2.Encode(nil, p), nil
}

func (S2) Inflate(p []byte) ([]byte, error) {
	return s2.Decode(nil, p)
}
