package bigcache

import (
	"context"
	"errors"
	"sync"
	"time"

	bc "github.com/allegro/bigcache/v3"

	pr "github.com/unkn0wn-root/brcache/provider"
)

// Provider stores payloads in BigCache. BigCache has a single global life
// window, so per-call TTLs are ignored.
type Provider struct {
	c      *bc.BigCache
	incrMu sync.Mutex
}

var _ pr.Provider = (*Provider)(nil)

type Config struct {
	LifeWindow         time.Duration
	CleanWindow        time.Duration
	Shards             int
	MaxEntriesInWindow int
	MaxEntrySize       int
	HardMaxCacheSizeMB int // ~ memory limit; 0 = unlimited
}

func New(cfg Config) (*Provider, error) {
	conf := bc.DefaultConfig(cfg.LifeWindow)
	if cfg.CleanWindow > 0 {
		conf.CleanWindow = cfg.CleanWindow
	}
	if cfg.Shards > 0 {
		conf.Shards = cfg.Shards
	}
	if cfg.MaxEntriesInWindow > 0 {
		conf.MaxEntriesInWindow = cfg.MaxEntriesInWindow
	}
	if cfg.MaxEntrySize > 0 {
		conf.MaxEntrySize = cfg.MaxEntrySize
	}
	if cfg.HardMaxCacheSizeMB > 0 {
		conf.HardMaxCacheSize = cfg.HardMaxCacheSizeMB
	}
	conf.Verbose = false
	c, err := bc.New(context.Background(), conf)
	if err != nil {
		return nil, err
	}
	return &Provider{c: c}, nil
}

func (p *Provider) get(key string) ([]byte, bool, error) {
	b, err := p.c.Get(key)
	if errors.Is(err, bc.ErrEntryNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (p *Provider) Get(_ context.Context, key string, o pr.Options) ([]byte, bool, error) {
	return p.get(pr.Key(o, key))
}

func (p *Provider) GetMulti(_ context.Context, keys []string, o pr.Options) (map[string][]byte, error) {
	out := make(map[string][]byte, len(keys))
	for _, k := range keys {
		b, ok, err := p.get(pr.Key(o, k))
		if err != nil {
			return nil, err
		}
		if ok {
			out[k] = b
		}
	}
	return out, nil
}

func (p *Provider) Set(_ context.Context, key string, value []byte, o pr.Options) (bool, error) {
	if err := p.c.Set(pr.Key(o, key), value); err != nil {
		return false, err
	}
	return true, nil
}

func (p *Provider) SetMulti(_ context.Context, items []pr.Item, o pr.Options) ([]string, error) {
	for _, it := range items {
		if err := p.c.Set(pr.Key(o, it.Key), it.Value); err != nil {
			return nil, err
		}
	}
	return nil, nil
}

func (p *Provider) Del(_ context.Context, key string, o pr.Options) error {
	err := p.c.Delete(pr.Key(o, key))
	if errors.Is(err, bc.ErrEntryNotFound) {
		return nil
	}
	return err
}

func (p *Provider) DelMulti(ctx context.Context, keys []string, o pr.Options) error {
	for _, k := range keys {
		if err := p.Del(ctx, k, o); err != nil {
			return err
		}
	}
	return nil
}

func (p *Provider) Exists(_ context.Context, key string, o pr.Options) (bool, error) {
	_, ok, err := p.get(pr.Key(o, key))
	return ok, err
}

// Incr rewrites the entry, so bigcache's global LifeWindow restarts for it;
// per-entry TTLs do not exist here.
func (p *Provider) Incr(_ context.Context, key string, delta int64, o pr.Options) (int64, error) {
	k := pr.Key(o, key)
	p.incrMu.Lock()
	defer p.incrMu.Unlock()

	cur, found, err := p.get(k)
	if err != nil {
		return 0, err
	}
	n, text, err := pr.AddInt(cur, found, delta)
	if err != nil {
		return 0, err
	}
	return n, p.c.Set(k, text)
}

// Clear resets all shards; namespaces are not tracked separately.
func (p *Provider) Clear(_ context.Context, _ pr.Options) error {
	return p.c.Reset()
}

func (p *Provider) Close(_ context.Context) error {
	return p.c.Close()
}
