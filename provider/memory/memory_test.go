package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	pr "github.com/unkn0wn-root/brcache/provider"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestMemory(t *testing.T) (*Memory, *clock) {
	t.Helper()
	p := New(Config{})
	c := &clock{t: time.Unix(1_700_000_000, 0)}
	p.now = c.now
	t.Cleanup(func() { _ = p.Close(context.Background()) })
	return p, c
}

func TestGetSetDel(t *testing.T) {
	ctx := context.Background()
	p, _ := newTestMemory(t)

	if _, ok, err := p.Get(ctx, "k", pr.Options{}); ok || err != nil {
		t.Fatalf("expected miss, ok=%v err=%v", ok, err)
	}
	if ok, err := p.Set(ctx, "k", []byte("v"), pr.Options{}); !ok || err != nil {
		t.Fatalf("Set ok=%v err=%v", ok, err)
	}
	got, ok, err := p.Get(ctx, "k", pr.Options{})
	if err != nil || !ok || string(got) != "v" {
		t.Fatalf("Get = %q ok=%v err=%v", got, ok, err)
	}
	if err := p.Del(ctx, "k", pr.Options{}); err != nil {
		t.Fatalf("Del: %v", err)
	}
	if ok, _ := p.Exists(ctx, "k", pr.Options{}); ok {
		t.Fatalf("key still exists after Del")
	}
}

func TestByteTransparencyAndIsolation(t *testing.T) {
	ctx := context.Background()
	p, _ := newTestMemory(t)

	in := []byte{0x02, 0x00, 0xff}
	_, _ = p.Set(ctx, "k", in, pr.Options{})
	in[0] = 'X' // caller reuses its buffer

	got, _, _ := p.Get(ctx, "k", pr.Options{})
	if got[0] != 0x02 {
		t.Fatalf("stored value aliased caller buffer")
	}
	got[1] = 'Y'
	again, _, _ := p.Get(ctx, "k", pr.Options{})
	if again[1] != 0x00 {
		t.Fatalf("returned value aliased stored buffer")
	}
}

func TestTTLExpiry(t *testing.T) {
	ctx := context.Background()
	p, c := newTestMemory(t)

	_, _ = p.Set(ctx, "short", []byte("v"), pr.Options{TTL: time.Second})
	_, _ = p.Set(ctx, "forever", []byte("v"), pr.Options{})

	c.advance(2 * time.Second)
	if _, ok, _ := p.Get(ctx, "short", pr.Options{}); ok {
		t.Fatalf("expired entry returned")
	}
	if _, ok, _ := p.Get(ctx, "forever", pr.Options{}); !ok {
		t.Fatalf("entry without TTL expired")
	}
	if p.Len() != 1 {
		t.Fatalf("Len = %d, want 1", p.Len())
	}
	p.sweep()
	p.mu.RLock()
	_, present := p.m["short"]
	p.mu.RUnlock()
	if present {
		t.Fatalf("sweep kept an expired entry")
	}
}

func TestMultiOps(t *testing.T) {
	ctx := context.Background()
	p, _ := newTestMemory(t)

	rejected, err := p.SetMulti(ctx, []pr.Item{
		{Key: "a", Value: []byte("1")},
		{Key: "b", Value: []byte("2")},
	}, pr.Options{})
	if err != nil || len(rejected) != 0 {
		t.Fatalf("SetMulti: rejected=%v err=%v", rejected, err)
	}
	got, err := p.GetMulti(ctx, []string{"a", "b", "missing"}, pr.Options{})
	if err != nil {
		t.Fatalf("GetMulti: %v", err)
	}
	if len(got) != 2 || string(got["a"]) != "1" || string(got["b"]) != "2" {
		t.Fatalf("GetMulti = %q", got)
	}
	if _, ok := got["missing"]; ok {
		t.Fatalf("missing key present in GetMulti result")
	}
	if err := p.DelMulti(ctx, []string{"a", "b"}, pr.Options{}); err != nil {
		t.Fatalf("DelMulti: %v", err)
	}
	if p.Len() != 0 {
		t.Fatalf("Len = %d after DelMulti", p.Len())
	}
}

func TestIncr(t *testing.T) {
	ctx := context.Background()
	p, _ := newTestMemory(t)

	n, err := p.Incr(ctx, "counter", 1, pr.Options{})
	if err != nil || n != 1 {
		t.Fatalf("Incr on missing = %d, %v", n, err)
	}
	_, _ = p.Set(ctx, "counter", []byte("41"), pr.Options{})
	if n, _ = p.Incr(ctx, "counter", 1, pr.Options{}); n != 42 {
		t.Fatalf("Incr = %d, want 42", n)
	}
	if n, _ = p.Incr(ctx, "counter", -50, pr.Options{}); n != -8 {
		t.Fatalf("Incr(-50) = %d, want -8", n)
	}
	raw, _, _ := p.Get(ctx, "counter", pr.Options{})
	if string(raw) != "-8" {
		t.Fatalf("counter stored as %q", raw)
	}

	_, _ = p.Set(ctx, "text", []byte("abc"), pr.Options{})
	if _, err := p.Incr(ctx, "text", 1, pr.Options{}); !errors.Is(err, pr.ErrNotInteger) {
		t.Fatalf("want ErrNotInteger, got %v", err)
	}
}

func TestIncrKeepsExpiry(t *testing.T) {
	ctx := context.Background()
	p, c := newTestMemory(t)

	_, _ = p.Set(ctx, "c", []byte("1"), pr.Options{TTL: time.Second})
	_, _ = p.Incr(ctx, "c", 1, pr.Options{TTL: time.Hour})
	c.advance(2 * time.Second)
	if ok, _ := p.Exists(ctx, "c", pr.Options{}); ok {
		t.Fatalf("Incr must not extend an existing expiry")
	}
}

func TestIncrConcurrent(t *testing.T) {
	ctx := context.Background()
	p, _ := newTestMemory(t)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = p.Incr(ctx, "hits", 1, pr.Options{})
		}()
	}
	wg.Wait()
	raw, _, _ := p.Get(ctx, "hits", pr.Options{})
	if string(raw) != "50" {
		t.Fatalf("hits = %q, want 50", raw)
	}
}

func TestNamespace(t *testing.T) {
	ctx := context.Background()
	p, _ := newTestMemory(t)

	ns := pr.Options{Namespace: "app"}
	_, _ = p.Set(ctx, "k", []byte("ns"), ns)
	_, _ = p.Set(ctx, "k", []byte("plain"), pr.Options{})

	got, _, _ := p.Get(ctx, "k", ns)
	if string(got) != "ns" {
		t.Fatalf("namespaced Get = %q", got)
	}
	raw, ok, _ := p.Get(ctx, "app:k", pr.Options{})
	if !ok || string(raw) != "ns" {
		t.Fatalf("namespace must be applied as <ns>:<key>")
	}
	if err := p.Clear(ctx, ns); err != nil {
		t.Fatalf("Clear(ns): %v", err)
	}
	if _, ok, _ := p.Get(ctx, "k", ns); ok {
		t.Fatalf("namespaced entry survived namespaced Clear")
	}
	if _, ok, _ := p.Get(ctx, "k", pr.Options{}); !ok {
		t.Fatalf("namespaced Clear removed an entry outside the namespace")
	}
	_ = p.Clear(ctx, pr.Options{})
	if p.Len() != 0 {
		t.Fatalf("Clear left %d entries", p.Len())
	}
}

func TestSweeperStopsOnClose(t *testing.T) {
	p := New(Config{SweepInterval: time.Millisecond})
	if err := p.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}
	// second Close is a no-op
	if err := p.Close(context.Background()); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}
