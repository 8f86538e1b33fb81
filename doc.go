// Package brcache is a transparent compression layer in front of any byte
// cache. Values are serialized with a Codec, compressed with a Compressor once
// they pass a size threshold, framed with a one-byte marker and handed to the
// wrapped Provider. Reads reverse the process; callers only see their values.
//
// Components:
//   - Provider: byte store with TTL (memory, Redis, Ristretto, BigCache).
//   - Codec[V]: (de)serializes V <-> []byte. Msgpack by default.
//   - Compressor: Deflate/Inflate strategy. Brotli quality 6 by default.
//
// Payload:
//
//	0x02 || compressed   - compressed envelope
//	serialized           - raw codec output, stored as-is
//	-?[0-9]+             - integer values, never enveloped, so Increment works
//
// Keys:
//
//	<prefix><key>        - prefix "br-" unless Options.DisablePrefix is set
//
// Compression is kept only when it shrinks the payload. A failed Deflate
// aborts the write; nothing is stored.
//
// Fetch is read-through but not atomic: concurrent fetches of the same
// missing key may all run compute and all write. Wrap compute with your own
// single-flight when that matters.
//
// Usage:
//
//	c, _ := brcache.New[User](brcache.Options[User]{
//		Provider: memory.New(memory.Config{}),
//	})
//	u, ok, err := c.Fetch(ctx, brcache.Key("user", id), loadUser)
package brcache
