package ristretto

import (
	"context"
	"errors"
	"sync"
	"time"

	rc "github.com/dgraph-io/ristretto"

	pr "github.com/unkn0wn-root/brcache/provider"
)

// Provider keeps payloads in a ristretto cache. Ristretto admits writes
// asynchronously and may refuse them under cost pressure; Set waits for the
// write buffer to drain so a successful Set is visible to the next Get.
type Provider struct {
	c *rc.Cache

	// guards Incr's read-modify-write; ristretto has no atomic counters
	incrMu sync.Mutex
}

var _ pr.Provider = (*Provider)(nil)

type Config struct {
	NumCounters int64
	MaxCost     int64
	BufferItems int64
	Metrics     bool
	// Cost in Ristretto is provided by the caller (brcache passes cost per Set).
}

func New(cfg Config) (*Provider, error) {
	if cfg.NumCounters <= 0 || cfg.MaxCost <= 0 || cfg.BufferItems <= 0 {
		return nil, errors.New("ristretto: invalid config")
	}
	c, err := rc.NewCache(&rc.Config{
		NumCounters: cfg.NumCounters,
		MaxCost:     cfg.MaxCost,
		BufferItems: cfg.BufferItems,
		Metrics:     cfg.Metrics,
	})
	if err != nil {
		return nil, err
	}
	return &Provider{c: c}, nil
}

func (p *Provider) get(key string) ([]byte, bool) {
	v, ok := p.c.Get(key)
	if !ok {
		return nil, false
	}
	b, _ := v.([]byte)
	if b == nil {
		// self-heal: drop unexpected entry shape
		p.c.Del(key)
		return nil, false
	}
	return b, true
}

func (p *Provider) Get(_ context.Context, key string, o pr.Options) ([]byte, bool, error) {
	b, ok := p.get(pr.Key(o, key))
	return b, ok, nil
}

func (p *Provider) GetMulti(_ context.Context, keys []string, o pr.Options) (map[string][]byte, error) {
	out := make(map[string][]byte, len(keys))
	for _, k := range keys {
		if b, ok := p.get(pr.Key(o, k)); ok {
			out[k] = b
		}
	}
	return out, nil
}

func (p *Provider) Set(_ context.Context, key string, value []byte, o pr.Options) (bool, error) {
	ok := p.c.SetWithTTL(pr.Key(o, key), clone(value), cost(o.Cost), ttl(o))
	p.c.Wait()
	return ok, nil
}

// SetMulti reports items dropped by the set buffer or refused by admission;
// a refused entry reads back as a miss.
func (p *Provider) SetMulti(_ context.Context, items []pr.Item, o pr.Options) ([]string, error) {
	var rejected []string
	queued := make([]bool, len(items))
	for i, it := range items {
		c := it.Cost
		if c == 0 {
			c = o.Cost
		}
		queued[i] = p.c.SetWithTTL(pr.Key(o, it.Key), clone(it.Value), cost(c), ttl(o))
	}
	p.c.Wait()
	for i, it := range items {
		if !queued[i] || !p.stored(pr.Key(o, it.Key)) {
			rejected = append(rejected, it.Key)
		}
	}
	return rejected, nil
}

func (p *Provider) Del(_ context.Context, key string, o pr.Options) error {
	p.c.Del(pr.Key(o, key))
	return nil
}

func (p *Provider) DelMulti(_ context.Context, keys []string, o pr.Options) error {
	for _, k := range keys {
		p.c.Del(pr.Key(o, k))
	}
	return nil
}

func (p *Provider) Exists(_ context.Context, key string, o pr.Options) (bool, error) {
	_, ok := p.get(pr.Key(o, key))
	return ok, nil
}

// Incr fails with provider.ErrRejected when ristretto does not keep the new
// value, so a counter is never reported without being stored.
func (p *Provider) Incr(_ context.Context, key string, delta int64, o pr.Options) (int64, error) {
	k := pr.Key(o, key)
	p.incrMu.Lock()
	defer p.incrMu.Unlock()

	cur, found := p.get(k)
	n, text, err := pr.AddInt(cur, found, delta)
	if err != nil {
		return 0, err
	}
	exp := ttl(o)
	if found {
		// keep the counter's remaining lifetime; 0 means no expiry
		exp, _ = p.c.GetTTL(k)
		if exp < 0 {
			exp = 0
		}
	}
	ok := p.c.SetWithTTL(k, text, cost(o.Cost), exp)
	p.c.Wait()
	if !ok || !p.stored(k) {
		return 0, pr.ErrRejected
	}
	return n, nil
}

func (p *Provider) stored(k string) bool {
	_, ok := p.c.Get(k)
	return ok
}

// Clear drops everything; ristretto cannot enumerate keys, so a namespace
// cannot be cleared on its own.
func (p *Provider) Clear(_ context.Context, _ pr.Options) error {
	p.c.Clear()
	return nil
}

func (p *Provider) Close(_ context.Context) error {
	p.c.Wait()
	p.c.Close()
	return nil
}

// Metrics exposes ristretto's counters (nil unless Config.Metrics).
func (p *Provider) Metrics() *rc.Metrics { return p.c.Metrics }

func cost(c int64) int64 {
	if c <= 0 {
		return 1
	}
	return c
}

func ttl(o pr.Options) time.Duration {
	if o.TTL < 0 {
		return 0
	}
	return o.TTL
}

func clone(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
