// Package codec turns values into bytes and back for brcache.
//
// Codecs only serialize. Compression and framing are applied by the store on
// top of the codec output, so a codec must never emit 0x02 as the first byte
// of a payload (the compressed-payload marker). The store re-checks this on
// every write and refuses ambiguous payloads when it cannot envelope them.
package codec

// Codec encodes/decodes values V to []byte for storage.
type Codec[V any] interface {
	Encode(V) ([]byte, error)
	Decode([]byte) (V, error)
}
