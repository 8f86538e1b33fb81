package codec

// Bytes is an identity codec for []byte values. Arbitrary binary data may
// start with 0x02; the store then forces the compressed envelope, so writing
// such a value with compression disabled fails instead of corrupting reads.
type Bytes struct{}

func (Bytes) Encode(b []byte) ([]byte, error) { return b, nil }
func (Bytes) Decode(b []byte) ([]byte, error) { return b, nil }

// String stores Go strings as their UTF-8 bytes, without validation.
type String struct{}

func (String) Encode(s string) ([]byte, error) { return []byte(s), nil }
func (String) Decode(b []byte) (string, error) { return string(b), nil }
