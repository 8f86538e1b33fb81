package brcache

import (
	"context"
	"time"

	c "github.com/unkn0wn-root/brcache/codec"
	cmp "github.com/unkn0wn-root/brcache/compress"
	"github.com/unkn0wn-root/brcache/internal/keys"
	pr "github.com/unkn0wn-root/brcache/provider"
)

// DefaultPrefix is prepended to every logical key unless disabled.
const DefaultPrefix = "br-"

// DefaultCompressThreshold is the minimum serialized size, in bytes, that
// triggers a compression attempt.
const DefaultCompressThreshold = 1024

// SetCostFunc computes the admission cost passed to cost-aware providers.
type SetCostFunc func(storageKey string, payload []byte, isBulk bool, bulkCount int) int64

// ComputeFunc produces a value on a Fetch miss.
type ComputeFunc[V any] func(ctx context.Context) (V, error)

// ComputeKeyFunc produces the value of one missing key in FetchMulti.
type ComputeKeyFunc[V any] func(ctx context.Context, key string) (V, error)

// Entry is one FetchMulti result, in the caller's key order.
type Entry[V any] struct {
	Key   string
	Value V
}

// Cache is the decorator API. V is the caller's value type; integer kinds are
// stored natively (decimal text) so Increment/Decrement work on them.
//
// Keys are logical keys; build structured ones with Key. Physical keys sent to
// the provider are Prefix+key.
type Cache[V any] interface {
	// Single
	Get(ctx context.Context, key string, opts ...Option) (v V, ok bool, err error)
	Write(ctx context.Context, key string, value V, opts ...Option) error
	// Fetch returns the cached value or computes, stores and returns it.
	// compute may be nil; WithForce requires it. Not atomic: concurrent
	// fetches of the same missing key may all compute (no single-flight).
	Fetch(ctx context.Context, key string, compute ComputeFunc[V], opts ...Option) (v V, ok bool, err error)
	Delete(ctx context.Context, key string, opts ...Option) error
	Exists(ctx context.Context, key string, opts ...Option) (bool, error)
	Increment(ctx context.Context, key string, by int64, opts ...Option) (int64, error)
	Decrement(ctx context.Context, key string, by int64, opts ...Option) (int64, error)

	// Bulk (one provider round-trip each)
	GetMulti(ctx context.Context, keys []string, opts ...Option) (map[string]V, error)
	WriteMulti(ctx context.Context, items map[string]V, opts ...Option) error
	FetchMulti(ctx context.Context, keys []string, compute ComputeKeyFunc[V], opts ...Option) ([]Entry[V], error)
	DeleteMulti(ctx context.Context, keys []string, opts ...Option) error

	Clear(ctx context.Context, opts ...Option) error

	// Key mapping
	ExpandKey(key string) string
	SourceKey(storageKey string) string

	// Provider returns the wrapped backend.
	Provider() pr.Provider
	Close(ctx context.Context) error
}

// Options configure a store. Only Provider is required; others have sensible
// defaults. Options are copied at construction and never change afterwards.
type Options[V any] struct {
	// Required
	Provider pr.Provider

	Codec      c.Codec[V]     // nil => codec.Msgpack[V]
	Compressor cmp.Compressor // nil => compress.Default() (brotli, quality 6)

	Prefix        string // "" => DefaultPrefix
	DisablePrefix bool   // physical keys == logical keys

	CompressThreshold  int  // bytes; 0 => DefaultCompressThreshold
	DisableCompression bool // store every payload raw

	DefaultTTL time.Duration // forwarded to the provider; 0 => no expiry
	Namespace  string        // forwarded to the provider

	ComputeSetCost SetCostFunc // default 1 per entry
	EncodeWorkers  int         // parallel encodes in batch writes; 0 => GOMAXPROCS

	Logger Logger // nil => NopLogger
	Hooks  Hooks  // nil => NopHooks
}

func New[V any](opts Options[V]) (Cache[V], error) {
	s, err := newStore[V](opts)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Key builds a logical key from structured parts: strings as-is, nil as "",
// numbers and bools via strconv, values with CacheKey() or ToParam() through
// those methods, fmt.Stringer via String, slices joined with "/".
func Key(parts ...any) string { return keys.Normalize(parts...) }

// CacheKeyer lets domain types provide their own cache key to Key.
type CacheKeyer = keys.CacheKeyer

// Parameterizer lets domain types provide a URL-style identifier to Key.
type Parameterizer = keys.Parameterizer
