package brcache

import (
	"time"

	cmp "github.com/unkn0wn-root/brcache/compress"
	pr "github.com/unkn0wn-root/brcache/provider"
)

// Option overrides a store default for a single call.
type Option func(*callOptions)

// callOptions is the merged, per-call view of the store defaults.
type callOptions struct {
	compress   bool
	threshold  int
	compressor cmp.Compressor
	force      bool

	// forwarded to the provider, never interpreted here
	ttl       time.Duration
	namespace string
	extra     map[string]any
}

// WithCompress enables or disables compression for this call.
func WithCompress(on bool) Option { return func(o *callOptions) { o.compress = on } }

// WithCompressThreshold sets the minimum serialized size that is compressed.
func WithCompressThreshold(n int) Option { return func(o *callOptions) { o.threshold = n } }

// WithCompressor swaps the strategy for this call. Reads of a compressed
// payload must use the strategy that wrote it.
func WithCompressor(c cmp.Compressor) Option {
	return func(o *callOptions) {
		if c != nil {
			o.compressor = c
		}
	}
}

// WithForce makes Fetch/FetchMulti recompute even on a hit.
func WithForce() Option { return func(o *callOptions) { o.force = true } }

func WithTTL(d time.Duration) Option { return func(o *callOptions) { o.ttl = d } }

func WithNamespace(ns string) Option { return func(o *callOptions) { o.namespace = ns } }

// WithExtra adds a backend-specific option. brcache forwards it untouched.
func WithExtra(key string, value any) Option {
	return func(o *callOptions) {
		m := make(map[string]any, len(o.extra)+1)
		for k, v := range o.extra {
			m[k] = v
		}
		m[key] = value
		o.extra = m
	}
}

func (s *store[V]) callOptions(opts []Option) callOptions {
	o := s.defaults
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// forward builds the provider options. Backend-native compression is always
// off: the payload is already final.
func (o callOptions) forward(cost int64) pr.Options {
	return pr.Options{
		TTL:       o.ttl,
		Cost:      cost,
		Namespace: o.namespace,
		Compress:  false,
		Extra:     o.extra,
	}
}

// coalesce returns def when v is the zero value of T - otherwise v.
func coalesce[T comparable](v, def T) T {
	var zero T
	if v == zero {
		return def
	}
	return v
}
