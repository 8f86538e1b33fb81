// Package provider defines the backend abstraction wrapped by brcache.
//
// Implementations MUST be byte-for-byte transparent: Get must return exactly the
// same []byte that was previously passed to Set for a key (no prepended/appended
// metadata, no re-encoding, no mutation). brcache owns compression and framing;
// it always passes Options.Compress=false so a store with its own compression
// never processes an already-processed payload twice.
//
// Integers written by brcache are plain decimal text. Incr must operate on that
// representation so counters written through the decorator stay incrementable.
package provider

import (
	"context"
	"errors"
	"strconv"
	"time"
)

// ErrNotInteger is returned by Incr when the stored value is not decimal text.
var ErrNotInteger = errors.New("provider: value is not an integer")

// ErrRejected is returned by Incr when the store refused to keep the new
// counter value (admission/eviction).
var ErrRejected = errors.New("provider: write refused by the store")

// Options are forwarded verbatim from the caller. brcache fills the fields it
// knows about and never reads Extra.
type Options struct {
	TTL       time.Duration // <= 0: no expiry (or the backend's global window)
	Cost      int64         // admission cost for cost-aware stores; ignored elsewhere
	Namespace string        // applied as "<namespace>:<key>" by the adapters in this module
	Compress  bool          // backend-native compression; always false from brcache
	Extra     map[string]any
}

// Item is one entry of a SetMulti batch.
type Item struct {
	Key   string
	Value []byte
	Cost  int64
}

// Provider is a byte store. It must be safe for concurrent use.
type Provider interface {
	// Get returns (value, true, nil) on hit; (nil, false, nil) on miss.
	// If an IO/remote error happens, return (nil, false, err).
	Get(ctx context.Context, key string, o Options) ([]byte, bool, error)

	// GetMulti returns hits only; missing keys are absent from the map.
	GetMulti(ctx context.Context, keys []string, o Options) (map[string][]byte, error)

	// Set stores value. ok=false means the store refused the write under
	// pressure (admission/eviction); that is not an error.
	Set(ctx context.Context, key string, value []byte, o Options) (ok bool, err error)

	// SetMulti stores all items as one logical call. Item.Cost overrides o.Cost.
	// rejected lists the Item.Keys the store refused under pressure; like
	// Set's ok=false that is not an error.
	SetMulti(ctx context.Context, items []Item, o Options) (rejected []string, err error)

	// Del removes a key (best-effort, missing keys are not an error).
	Del(ctx context.Context, key string, o Options) error
	DelMulti(ctx context.Context, keys []string, o Options) error

	Exists(ctx context.Context, key string, o Options) (bool, error)

	// Incr adds delta to the decimal integer stored at key and returns the new
	// value. A missing key counts as 0. Negative delta decrements.
	// A new counter gets o.TTL; an existing counter keeps its expiry.
	Incr(ctx context.Context, key string, delta int64, o Options) (int64, error)

	// Clear removes every entry (every entry of o.Namespace when supported).
	Clear(ctx context.Context, o Options) error

	// Close releases resources.
	Close(ctx context.Context) error
}

// Key applies o.Namespace to key.
func Key(o Options, key string) string {
	if o.Namespace == "" {
		return key
	}
	return o.Namespace + ":" + key
}

// AddInt is the read-modify-write step of Incr for stores without a native
// counter: it parses cur (nil when missing) and returns the new value and its
// decimal encoding. Callers hold their own lock around the whole step.
func AddInt(cur []byte, found bool, delta int64) (int64, []byte, error) {
	var n int64
	if found {
		v, err := strconv.ParseInt(string(cur), 10, 64)
		if err != nil {
			return 0, nil, ErrNotInteger
		}
		n = v
	}
	n += delta
	return n, strconv.AppendInt(nil, n, 10), nil
}
