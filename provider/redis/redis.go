package redis

import (
	"context"
	"errors"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	pr "github.com/unkn0wn-root/brcache/provider"
)

var ErrNilClient = errors.New("redis provider: nil client")

// clearBatch bounds the SCAN page and DEL arity used by a namespaced Clear.
const clearBatch = 512

// Redis stores payloads as plain string values, so decimal integers written by
// brcache are incremented natively by INCRBY.
type Redis struct {
	rdb         goredis.UniversalClient
	closeClient bool
}

var _ pr.Provider = (*Redis)(nil)

type Config struct {
	Client      goredis.UniversalClient
	CloseClient bool // set true only if this provider exclusively owns the client
}

func New(cfg Config) (*Redis, error) {
	if cfg.Client == nil {
		return nil, ErrNilClient
	}
	return &Redis{rdb: cfg.Client, closeClient: cfg.CloseClient}, nil
}

func (p *Redis) Get(ctx context.Context, key string, o pr.Options) ([]byte, bool, error) {
	b, err := p.rdb.Get(ctx, pr.Key(o, key)).Bytes()
	if err == goredis.Nil {
		return nil, false, nil // miss
	}
	if err != nil {
		return nil, false, err // transport/server error
	}
	return b, true, nil
}

func (p *Redis) GetMulti(ctx context.Context, keys []string, o pr.Options) (map[string][]byte, error) {
	out := make(map[string][]byte, len(keys))
	if len(keys) == 0 {
		return out, nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = pr.Key(o, k)
	}
	vals, err := p.rdb.MGet(ctx, full...).Result()
	if err != nil {
		return nil, err
	}
	for i, v := range vals {
		switch s := v.(type) {
		case nil:
			// miss
		case string:
			out[keys[i]] = []byte(s)
		case []byte:
			out[keys[i]] = s
		}
	}
	return out, nil
}

// Set treats non-positive TTLs as "no expiry".
func (p *Redis) Set(ctx context.Context, key string, value []byte, o pr.Options) (bool, error) {
	if err := p.rdb.Set(ctx, pr.Key(o, key), value, ttl(o)).Err(); err != nil {
		return false, err
	}
	return true, nil
}

// SetMulti pipelines one SET per item so each keeps its TTL; MSET cannot
// carry expirations.
func (p *Redis) SetMulti(ctx context.Context, items []pr.Item, o pr.Options) ([]string, error) {
	if len(items) == 0 {
		return nil, nil
	}
	_, err := p.rdb.Pipelined(ctx, func(pipe goredis.Pipeliner) error {
		for _, it := range items {
			pipe.Set(ctx, pr.Key(o, it.Key), it.Value, ttl(o))
		}
		return nil
	})
	return nil, err
}

func (p *Redis) Del(ctx context.Context, key string, o pr.Options) error {
	return p.rdb.Del(ctx, pr.Key(o, key)).Err()
}

func (p *Redis) DelMulti(ctx context.Context, keys []string, o pr.Options) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = pr.Key(o, k)
	}
	return p.rdb.Del(ctx, full...).Err()
}

func (p *Redis) Exists(ctx context.Context, key string, o pr.Options) (bool, error) {
	n, err := p.rdb.Exists(ctx, pr.Key(o, key)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// incrNew runs INCRBY and sets the expiry only when the counter did not exist,
// so an existing counter keeps its TTL.
var incrNew = goredis.NewScript(`
local existed = redis.call('EXISTS', KEYS[1])
local n = redis.call('INCRBY', KEYS[1], ARGV[1])
if existed == 0 then
	redis.call('PEXPIRE', KEYS[1], ARGV[2])
end
return n
`)

func (p *Redis) Incr(ctx context.Context, key string, delta int64, o pr.Options) (int64, error) {
	k := pr.Key(o, key)
	var (
		n   int64
		err error
	)
	if t := ttl(o); t > 0 {
		n, err = incrNew.Run(ctx, p.rdb, []string{k}, delta, t.Milliseconds()).Int64()
	} else {
		n, err = p.rdb.IncrBy(ctx, k, delta).Result()
	}
	if isNotInteger(err) {
		return 0, errors.Join(pr.ErrNotInteger, err)
	}
	return n, err
}

// isNotInteger matches the server's reply for INCRBY on a non-numeric value
// ("ERR value is not an integer or out of range"). Only error replies sent by
// the server are considered; network and client errors never match.
func isNotInteger(err error) bool {
	var rerr goredis.Error
	if !errors.As(err, &rerr) || errors.Is(err, goredis.Nil) {
		return false
	}
	msg := rerr.Error()
	return strings.HasPrefix(msg, "ERR") && strings.Contains(msg, "not an integer")
}

// Clear deletes the namespace's keys with SCAN+DEL, or flushes the current
// database when no namespace is set.
func (p *Redis) Clear(ctx context.Context, o pr.Options) error {
	if o.Namespace == "" {
		return p.rdb.FlushDB(ctx).Err()
	}
	pattern := o.Namespace + ":*"
	var cursor uint64
	for {
		keys, next, err := p.rdb.Scan(ctx, cursor, pattern, clearBatch).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := p.rdb.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

// Close releases the underlying redis client only when this provider owns it.
// Safe to call multiple times; repeated calls become no-ops.
func (p *Redis) Close(context.Context) error {
	if p.closeClient {
		if err := p.rdb.Close(); err != nil && !errors.Is(err, goredis.ErrClosed) {
			return err
		}
	}
	return nil
}

func ttl(o pr.Options) time.Duration {
	if o.TTL <= 0 {
		return 0
	}
	return o.TTL
}
