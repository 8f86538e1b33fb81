package brcache

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	c "github.com/unkn0wn-root/brcache/codec"
	cmp "github.com/unkn0wn-root/brcache/compress"
	"github.com/unkn0wn-root/brcache/internal/envelope"
	"github.com/unkn0wn-root/brcache/internal/keys"
	pr "github.com/unkn0wn-root/brcache/provider"
)

var errAmbiguous = errors.New("raw payload collides with the compressed envelope")

// intMode says how integers bypass the codec for a given V.
type intMode uint8

const (
	intNone    intMode = iota // codec only
	intStatic                 // V is an integer kind
	intDynamic                // V is an empty interface; decided per value
)

type store[V any] struct {
	provider pr.Provider
	codec    c.Codec[V]
	keys     keys.Transformer
	defaults callOptions
	costFn   SetCostFunc
	workers  int
	log      Logger
	hooks    Hooks

	typ  reflect.Type
	ints intMode
}

func newStore[V any](opts Options[V]) (*store[V], error) {
	if opts.Provider == nil {
		return nil, fmt.Errorf("%w: Options.Provider is required", ErrInvalidArgument)
	}
	if opts.CompressThreshold < 0 {
		return nil, fmt.Errorf("%w: negative CompressThreshold %d", ErrInvalidArgument, opts.CompressThreshold)
	}
	if opts.EncodeWorkers < 0 {
		return nil, fmt.Errorf("%w: negative EncodeWorkers %d", ErrInvalidArgument, opts.EncodeWorkers)
	}

	var codec c.Codec[V] = c.Msgpack[V]{}
	if opts.Codec != nil {
		codec = opts.Codec
	}
	var compressor cmp.Compressor = cmp.Default()
	if opts.Compressor != nil {
		compressor = opts.Compressor
	}
	var logger Logger = NopLogger{}
	if opts.Logger != nil {
		logger = opts.Logger
	}
	var hooks Hooks = NopHooks{}
	if opts.Hooks != nil {
		hooks = opts.Hooks
	}

	prefix := coalesce(opts.Prefix, DefaultPrefix)
	if opts.DisablePrefix {
		prefix = ""
	}

	s := &store[V]{
		provider: opts.Provider,
		codec:    codec,
		keys:     keys.Transformer{Prefix: prefix},
		defaults: callOptions{
			compress:   !opts.DisableCompression,
			threshold:  coalesce(opts.CompressThreshold, DefaultCompressThreshold),
			compressor: compressor,
			ttl:        opts.DefaultTTL,
			namespace:  opts.Namespace,
		},
		costFn:  opts.ComputeSetCost,
		workers: opts.EncodeWorkers,
		log:     logger,
		hooks:   hooks,
		typ:     reflect.TypeOf((*V)(nil)).Elem(),
	}
	s.ints = intModeOf(s.typ)
	return s, nil
}

func intModeOf(t reflect.Type) intMode {
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return intStatic
	case reflect.Interface:
		if t.NumMethod() == 0 {
			return intDynamic
		}
	}
	return intNone
}

// Single

func (s *store[V]) Write(ctx context.Context, key string, value V, opts ...Option) error {
	o := s.callOptions(opts)
	return s.write(ctx, "write", key, value, o)
}

func (s *store[V]) write(ctx context.Context, op, key string, value V, o callOptions) error {
	sk := s.keys.Expand(key)
	payload, err := s.encode(op, key, sk, value, o)
	if err != nil {
		return err
	}
	ok, err := s.provider.Set(ctx, sk, payload, o.forward(s.cost(sk, payload, false, 1)))
	if err != nil {
		return err
	}
	if !ok {
		s.log.Debug("provider rejected set", fields(sk, "op", op, "len", len(payload)))
		s.hooks.ProviderSetRejected(sk, false)
	}
	return nil
}

func (s *store[V]) Get(ctx context.Context, key string, opts ...Option) (V, bool, error) {
	o := s.callOptions(opts)
	return s.read(ctx, "read", key, o)
}

func (s *store[V]) read(ctx context.Context, op, key string, o callOptions) (V, bool, error) {
	var zero V
	sk := s.keys.Expand(key)
	payload, ok, err := s.provider.Get(ctx, sk, o.forward(0))
	if err != nil || !ok {
		return zero, false, err
	}
	v, err := s.decode(op, key, sk, payload, o)
	if err != nil {
		return zero, false, err
	}
	return v, true, nil
}

func (s *store[V]) Fetch(ctx context.Context, key string, compute ComputeFunc[V], opts ...Option) (V, bool, error) {
	var zero V
	o := s.callOptions(opts)
	if o.force && compute == nil {
		return zero, false, fmt.Errorf("%w: forced fetch of %q without a compute function", ErrInvalidArgument, key)
	}
	if !o.force {
		v, ok, err := s.read(ctx, "fetch", key, o)
		if err != nil || ok {
			return v, ok, err
		}
		if compute == nil {
			return zero, false, nil
		}
	}

	s.hooks.FetchMiss(s.keys.Expand(key), o.force)
	v, err := compute(ctx)
	if err != nil {
		return zero, false, err
	}
	if err := s.write(ctx, "fetch", key, v, o); err != nil {
		return zero, false, err
	}
	return v, true, nil
}

func (s *store[V]) Delete(ctx context.Context, key string, opts ...Option) error {
	o := s.callOptions(opts)
	return s.provider.Del(ctx, s.keys.Expand(key), o.forward(0))
}

func (s *store[V]) Exists(ctx context.Context, key string, opts ...Option) (bool, error) {
	o := s.callOptions(opts)
	return s.provider.Exists(ctx, s.keys.Expand(key), o.forward(0))
}

// Increment adds by to the native integer at key. A missing key starts at 0.
func (s *store[V]) Increment(ctx context.Context, key string, by int64, opts ...Option) (int64, error) {
	o := s.callOptions(opts)
	return s.provider.Incr(ctx, s.keys.Expand(key), by, o.forward(1))
}

func (s *store[V]) Decrement(ctx context.Context, key string, by int64, opts ...Option) (int64, error) {
	return s.Increment(ctx, key, -by, opts...)
}

func (s *store[V]) Clear(ctx context.Context, opts ...Option) error {
	o := s.callOptions(opts)
	return s.provider.Clear(ctx, o.forward(0))
}

func (s *store[V]) ExpandKey(key string) string        { return s.keys.Expand(key) }
func (s *store[V]) SourceKey(storageKey string) string { return s.keys.Source(storageKey) }
func (s *store[V]) Provider() pr.Provider              { return s.provider }

func (s *store[V]) Close(ctx context.Context) error { return s.provider.Close(ctx) }

// Encoding

// encode turns value into the stored payload. Integers are written as decimal
// text. Everything else goes through the codec and, when it pays off, the
// compressor.
func (s *store[V]) encode(op, key, sk string, value V, o callOptions) ([]byte, error) {
	if n, ok := s.intText(value); ok {
		return n, nil
	}
	raw, err := s.codec.Encode(value)
	if err != nil {
		return nil, opErr(op, key, ErrSerialization, err)
	}

	ambiguous := envelope.Ambiguous(raw, s.ints == intDynamic)
	if !o.compress || (!ambiguous && len(raw) < o.threshold) {
		if ambiguous {
			return nil, opErr(op, key, ErrSerialization, errAmbiguous)
		}
		return raw, nil
	}

	d, err := o.compressor.Deflate(raw)
	if err != nil {
		return nil, opErr(op, key, ErrCompression, err)
	}
	if len(d) < len(raw) || ambiguous {
		s.hooks.Compressed(sk, len(raw), len(d)+1)
		return envelope.Wrap(d), nil
	}
	s.log.Debug("compression did not shrink payload; storing raw",
		fields(sk, "op", op, "raw", len(raw), "compressed", len(d)))
	s.hooks.CompressionRejected(sk, len(raw), len(d))
	return raw, nil
}

// intText returns the native form of value when it is an integer.
func (s *store[V]) intText(value V) ([]byte, bool) {
	var rv reflect.Value
	switch s.ints {
	case intStatic:
		rv = reflect.ValueOf(&value).Elem()
	case intDynamic:
		rv = reflect.ValueOf(any(value))
		if !rv.IsValid() {
			return nil, false
		}
	default:
		return nil, false
	}
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return envelope.FormatInt(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return envelope.FormatUint(rv.Uint()), true
	}
	return nil, false
}

func (s *store[V]) decode(op, key, sk string, payload []byte, o callOptions) (V, error) {
	if s.ints != intNone && envelope.IsInteger(payload) {
		v, err := s.parseInt(payload)
		if err != nil {
			s.decodeFailed(sk, "integer", err)
			var zero V
			return zero, opErr(op, key, ErrSerialization, err)
		}
		return v, nil
	}

	raw := payload
	if d, ok := envelope.Unwrap(payload); ok {
		inflated, err := o.compressor.Inflate(d)
		if err != nil {
			s.decodeFailed(sk, "inflate", err)
			var zero V
			return zero, opErr(op, key, ErrCompression, err)
		}
		raw = inflated
	}
	v, err := s.codec.Decode(raw)
	if err != nil {
		s.decodeFailed(sk, "decode", err)
		var zero V
		return zero, opErr(op, key, ErrSerialization, err)
	}
	return v, nil
}

// parseInt converts native integer text into V. Dynamic stores get int64, or
// uint64 for values above MaxInt64.
func (s *store[V]) parseInt(b []byte) (V, error) {
	var v V
	if s.ints == intDynamic {
		if n, err := envelope.ParseInt(b, 64); err == nil {
			return any(n).(V), nil
		}
		u, err := envelope.ParseUint(b, 64)
		if err != nil {
			return v, err
		}
		return any(u).(V), nil
	}

	rv := reflect.ValueOf(&v).Elem()
	switch s.typ.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := envelope.ParseInt(b, s.typ.Bits())
		if err != nil {
			return v, err
		}
		rv.SetInt(n)
	default:
		n, err := envelope.ParseUint(b, s.typ.Bits())
		if err != nil {
			return v, err
		}
		rv.SetUint(n)
	}
	return v, nil
}

func (s *store[V]) decodeFailed(sk, reason string, err error) {
	s.log.Warn("stored payload could not be decoded", fields(sk, "reason", reason, "err", err))
	s.hooks.DecodeFailed(sk, reason)
}

func (s *store[V]) cost(sk string, payload []byte, bulk bool, n int) int64 {
	if s.costFn == nil {
		return 1
	}
	return s.costFn(sk, payload, bulk, n)
}
