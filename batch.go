package brcache

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	pr "github.com/unkn0wn-root/brcache/provider"
)

// GetMulti returns the hits of keys, keyed by logical key. Any entry that
// fails to decode fails the whole call.
func (s *store[V]) GetMulti(ctx context.Context, keys []string, opts ...Option) (map[string]V, error) {
	o := s.callOptions(opts)
	return s.getMulti(ctx, "get_multi", keys, o)
}

func (s *store[V]) getMulti(ctx context.Context, op string, keys []string, o callOptions) (map[string]V, error) {
	out := make(map[string]V, len(keys))
	if len(keys) == 0 {
		return out, nil
	}
	raw, err := s.provider.GetMulti(ctx, s.keys.ExpandAll(keys), o.forward(0))
	if err != nil {
		return nil, err
	}
	for sk, payload := range raw {
		key := s.keys.Source(sk)
		v, err := s.decode(op, key, sk, payload, o)
		if err != nil {
			return nil, err
		}
		out[key] = v
	}
	return out, nil
}

// WriteMulti encodes every entry and stores them with one provider call.
func (s *store[V]) WriteMulti(ctx context.Context, items map[string]V, opts ...Option) error {
	o := s.callOptions(opts)
	return s.writeMulti(ctx, "write_multi", items, o)
}

func (s *store[V]) writeMulti(ctx context.Context, op string, items map[string]V, o callOptions) error {
	if len(items) == 0 {
		return nil
	}
	keys := make([]string, 0, len(items))
	for k := range items {
		keys = append(keys, k)
	}

	batch := make([]pr.Item, len(keys))
	var g errgroup.Group
	g.SetLimit(s.encodeWorkers(len(keys)))
	for i, k := range keys {
		g.Go(func() error {
			sk := s.keys.Expand(k)
			payload, err := s.encode(op, k, sk, items[k], o)
			if err != nil {
				return err
			}
			batch[i] = pr.Item{Key: sk, Value: payload, Cost: s.cost(sk, payload, true, len(keys))}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	rejected, err := s.provider.SetMulti(ctx, batch, o.forward(1))
	if err != nil {
		return err
	}
	for _, sk := range rejected {
		s.log.Debug("provider rejected set", fields(sk, "op", op, "batch", len(batch)))
		s.hooks.ProviderSetRejected(sk, true)
	}
	return nil
}

// FetchMulti returns one entry per distinct key, in the order keys were given.
// Missing keys (every key under WithForce) are computed once and written back
// with a single WriteMulti.
func (s *store[V]) FetchMulti(ctx context.Context, keys []string, compute ComputeKeyFunc[V], opts ...Option) ([]Entry[V], error) {
	o := s.callOptions(opts)
	if o.force && compute == nil {
		return nil, fmt.Errorf("%w: forced fetch without a compute function", ErrInvalidArgument)
	}

	uniq := make([]string, 0, len(keys))
	seen := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		uniq = append(uniq, k)
	}

	found := make(map[string]V, len(uniq))
	if !o.force {
		hits, err := s.getMulti(ctx, "fetch_multi", uniq, o)
		if err != nil {
			return nil, err
		}
		found = hits
	}

	if compute != nil {
		computed := make(map[string]V)
		for _, k := range uniq {
			if _, ok := found[k]; ok {
				continue
			}
			s.hooks.FetchMiss(s.keys.Expand(k), o.force)
			v, err := compute(ctx, k)
			if err != nil {
				return nil, err
			}
			computed[k] = v
		}
		if err := s.writeMulti(ctx, "fetch_multi", computed, o); err != nil {
			return nil, err
		}
		for k, v := range computed {
			found[k] = v
		}
	}

	out := make([]Entry[V], 0, len(uniq))
	for _, k := range uniq {
		if v, ok := found[k]; ok {
			out = append(out, Entry[V]{Key: k, Value: v})
		}
	}
	return out, nil
}

func (s *store[V]) DeleteMulti(ctx context.Context, keys []string, opts ...Option) error {
	if len(keys) == 0 {
		return nil
	}
	o := s.callOptions(opts)
	return s.provider.DelMulti(ctx, s.keys.ExpandAll(keys), o.forward(0))
}

func (s *store[V]) encodeWorkers(n int) int {
	w := s.workers
	if w <= 0 {
		w = runtime.GOMAXPROCS(0)
	}
	if w > n {
		w = n
	}
	return w
}
