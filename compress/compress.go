// Package compress provides the pluggable compression strategies used by brcache.
//
// A Compressor must satisfy Inflate(Deflate(x)) == x for every x, including
// empty input, and must be safe for concurrent use: a single instance is shared
// by every request of a store.
package compress

import (
	"fmt"
	"strings"
)

// Compressor is a byte-level compression strategy.
type Compressor interface {
	Deflate(p []byte) ([]byte, error)
	Inflate(p []byte) ([]byte, error)
}

// DefaultQuality matches the brotli quality used when nothing is configured.
const DefaultQuality = 6

// Default returns the built-in strategy (brotli, quality 6).
func Default() Compressor { return Brotli{Quality: DefaultQuality} }

// ByName builds a strategy from configuration. quality is interpreted per
// algorithm (brotli 0..11, zstd 1..22, zlib -2..9, ignored by s2); a negative
// value for brotli/zstd selects the algorithm default.
func ByName(name string, quality int) (Compressor, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "brotli", "br":
		if quality < 0 {
			quality = DefaultQuality
		}
		return NewBrotli(quality)
	case "zstd", "zstandard":
		return NewZstd(quality)
	case "s2":
		return S2{}, nil
	case "zlib":
		return NewZlib(quality)
	default:
		return nil, fmt.Errorf("compress: unknown compressor %q", name)
	}
}
