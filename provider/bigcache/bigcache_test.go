package bigcache

import (
	"context"
	"errors"
	"testing"
	"time"

	pr "github.com/unkn0wn-root/brcache/provider"
)

func newTestProvider(t *testing.T) *Provider {
	t.Helper()
	p, err := New(Config{LifeWindow: time.Minute, Shards: 16, MaxEntriesInWindow: 100, MaxEntrySize: 256})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = p.Close(context.Background()) })
	return p
}

func TestRoundTripAndDelete(t *testing.T) {
	ctx := context.Background()
	p := newTestProvider(t)

	if _, ok, err := p.Get(ctx, "k", pr.Options{}); ok || err != nil {
		t.Fatalf("expected clean miss, ok=%v err=%v", ok, err)
	}
	if ok, err := p.Set(ctx, "k", []byte{0x02, 1, 2}, pr.Options{}); !ok || err != nil {
		t.Fatalf("Set ok=%v err=%v", ok, err)
	}
	got, ok, err := p.Get(ctx, "k", pr.Options{})
	if err != nil || !ok || string(got) != "\x02\x01\x02" {
		t.Fatalf("Get = %x ok=%v err=%v", got, ok, err)
	}
	if err := p.Del(ctx, "k", pr.Options{}); err != nil {
		t.Fatalf("Del: %v", err)
	}
	if err := p.Del(ctx, "k", pr.Options{}); err != nil {
		t.Fatalf("Del of missing key must not fail: %v", err)
	}
	if ok, _ := p.Exists(ctx, "k", pr.Options{}); ok {
		t.Fatalf("Exists after Del")
	}
}

func TestMultiAndNamespace(t *testing.T) {
	ctx := context.Background()
	p := newTestProvider(t)

	ns := pr.Options{Namespace: "app"}
	if rejected, err := p.SetMulti(ctx, []pr.Item{{Key: "a", Value: []byte("1")}, {Key: "b", Value: []byte("2")}}, ns); err != nil || len(rejected) != 0 {
		t.Fatalf("SetMulti: rejected=%v err=%v", rejected, err)
	}
	got, err := p.GetMulti(ctx, []string{"a", "b", "x"}, ns)
	if err != nil || len(got) != 2 {
		t.Fatalf("GetMulti = %q, %v", got, err)
	}
	if _, ok, _ := p.Get(ctx, "app:a", pr.Options{}); !ok {
		t.Fatalf("namespace not applied as prefix")
	}
	if err := p.DelMulti(ctx, []string{"a", "b", "x"}, ns); err != nil {
		t.Fatalf("DelMulti: %v", err)
	}
}

func TestIncrAndClear(t *testing.T) {
	ctx := context.Background()
	p := newTestProvider(t)

	if n, err := p.Incr(ctx, "n", 5, pr.Options{}); err != nil || n != 5 {
		t.Fatalf("Incr = %d, %v", n, err)
	}
	if n, _ := p.Incr(ctx, "n", 1, pr.Options{}); n != 6 {
		t.Fatalf("Incr = %d, want 6", n)
	}
	_, _ = p.Set(ctx, "s", []byte("x"), pr.Options{})
	if _, err := p.Incr(ctx, "s", 1, pr.Options{}); !errors.Is(err, pr.ErrNotInteger) {
		t.Fatalf("want ErrNotInteger, got %v", err)
	}
	if err := p.Clear(ctx, pr.Options{}); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if ok, _ := p.Exists(ctx, "n", pr.Options{}); ok {
		t.Fatalf("entry survived Clear")
	}
}
