// Package memory is an in-process Provider: a map guarded by a RWMutex with
// per-entry TTLs. Expired entries are dropped lazily on access and by an
// optional sweeper.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	pr "github.com/unkn0wn-root/brcache/provider"
)

type entry struct {
	v   []byte
	exp time.Time // zero => no TTL
}

func (e entry) expired(now time.Time) bool { return !e.exp.IsZero() && now.After(e.exp) }

type Memory struct {
	mu sync.RWMutex
	m  map[string]entry

	now    func() time.Time
	ticker *time.Ticker
	stopCh chan struct{}
	wg     sync.WaitGroup
	once   sync.Once
}

var _ pr.Provider = (*Memory)(nil)

type Config struct {
	// SweepInterval > 0 starts a background goroutine that removes expired
	// entries. Close stops it.
	SweepInterval time.Duration
}

func New(cfg Config) *Memory {
	p := &Memory{m: make(map[string]entry), now: time.Now}
	if cfg.SweepInterval > 0 {
		p.ticker = time.NewTicker(cfg.SweepInterval)
		p.stopCh = make(chan struct{})
		p.wg.Add(1)
		go p.sweepLoop()
	}
	return p
}

func (p *Memory) sweepLoop() {
	defer p.wg.Done()
	for {
		select {
		case <-p.ticker.C:
			p.sweep()
		case <-p.stopCh:
			return
		}
	}
}

func (p *Memory) sweep() {
	now := p.now()
	p.mu.Lock()
	for k, e := range p.m {
		if e.expired(now) {
			delete(p.m, k)
		}
	}
	p.mu.Unlock()
}

func (p *Memory) expiry(ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return p.now().Add(ttl)
}

// get must be called with at least a read lock held.
func (p *Memory) get(k string, now time.Time) ([]byte, bool) {
	e, ok := p.m[k]
	if !ok || e.expired(now) {
		return nil, false
	}
	return e.v, true
}

func (p *Memory) Get(_ context.Context, key string, o pr.Options) ([]byte, bool, error) {
	p.mu.RLock()
	v, ok := p.get(pr.Key(o, key), p.now())
	p.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	return clone(v), true, nil
}

func (p *Memory) GetMulti(_ context.Context, keys []string, o pr.Options) (map[string][]byte, error) {
	out := make(map[string][]byte, len(keys))
	now := p.now()
	p.mu.RLock()
	for _, k := range keys {
		if v, ok := p.get(pr.Key(o, k), now); ok {
			out[k] = clone(v)
		}
	}
	p.mu.RUnlock()
	return out, nil
}

func (p *Memory) Set(_ context.Context, key string, value []byte, o pr.Options) (bool, error) {
	e := entry{v: clone(value), exp: p.expiry(o.TTL)}
	p.mu.Lock()
	p.m[pr.Key(o, key)] = e
	p.mu.Unlock()
	return true, nil
}

func (p *Memory) SetMulti(_ context.Context, items []pr.Item, o pr.Options) ([]string, error) {
	exp := p.expiry(o.TTL)
	p.mu.Lock()
	for _, it := range items {
		p.m[pr.Key(o, it.Key)] = entry{v: clone(it.Value), exp: exp}
	}
	p.mu.Unlock()
	return nil, nil
}

func (p *Memory) Del(_ context.Context, key string, o pr.Options) error {
	p.mu.Lock()
	delete(p.m, pr.Key(o, key))
	p.mu.Unlock()
	return nil
}

func (p *Memory) DelMulti(_ context.Context, keys []string, o pr.Options) error {
	p.mu.Lock()
	for _, k := range keys {
		delete(p.m, pr.Key(o, k))
	}
	p.mu.Unlock()
	return nil
}

func (p *Memory) Exists(_ context.Context, key string, o pr.Options) (bool, error) {
	p.mu.RLock()
	_, ok := p.get(pr.Key(o, key), p.now())
	p.mu.RUnlock()
	return ok, nil
}

// Incr keeps the existing expiry of the entry; a new counter gets o.TTL.
func (p *Memory) Incr(_ context.Context, key string, delta int64, o pr.Options) (int64, error) {
	k := pr.Key(o, key)
	now := p.now()

	p.mu.Lock()
	defer p.mu.Unlock()
	cur, found := p.get(k, now)
	n, text, err := pr.AddInt(cur, found, delta)
	if err != nil {
		return 0, err
	}
	exp := p.expiry(o.TTL)
	if found {
		exp = p.m[k].exp
	}
	p.m[k] = entry{v: text, exp: exp}
	return n, nil
}

func (p *Memory) Clear(_ context.Context, o pr.Options) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if o.Namespace == "" {
		p.m = make(map[string]entry)
		return nil
	}
	prefix := o.Namespace + ":"
	for k := range p.m {
		if strings.HasPrefix(k, prefix) {
			delete(p.m, k)
		}
	}
	return nil
}

// Len counts live entries. Handy for tests and diagnostics.
func (p *Memory) Len() int {
	now := p.now()
	p.mu.RLock()
	defer p.mu.RUnlock()
	n := 0
	for _, e := range p.m {
		if !e.expired(now) {
			n++
		}
	}
	return n
}

func (p *Memory) Close(_ context.Context) error {
	p.once.Do(func() {
		if p.stopCh != nil {
			close(p.stopCh)
			p.ticker.Stop()
			p.wg.Wait()
		}
	})
	return nil
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
