package keys

import (
	"fmt"
	"testing"
)

type post struct{ id int }

func (p post) ToParam() string { return fmt.Sprintf("post/%d", p.id) }

type versioned struct{ id int }

func (v versioned) CacheKey() string { return fmt.Sprintf("versioned/%d-v2", v.id) }

// ToParam must lose to CacheKey.
func (v versioned) ToParam() string { return "ignored" }

type color int

func (c color) String() string { return [...]string{"red", "green"}[c] }

type shard uint16

func TestNormalizeScalars(t *testing.T) {
	cases := []struct {
		in   any
		want string
	}{
		{"plain", "plain"},
		{nil, ""},
		{[]byte("raw"), "raw"},
		{42, "42"},
		{int64(-7), "-7"},
		{shard(9), "9"},
		{uint8(255), "255"},
		{1.5, "1.5"},
		{true, "true"},
		{color(1), "green"},
		{post{id: 3}, "post/3"},
		{versioned{id: 3}, "versioned/3-v2"},
	}
	for _, tc := range cases {
		if got := Normalize(tc.in); got != tc.want {
			t.Fatalf("Normalize(%#v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeStructured(t *testing.T) {
	collection := []post{{id: 1}, {id: 2}}

	got := Normalize("views", "controller/action", collection)
	want := "views/controller/action/post/1/post/2"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}

	// nil members collapse to empty segments
	got = Normalize("views", []any{collection, nil})
	if want := "views/post/1/post/2/"; got != want {
		t.Fatalf("got %q want %q", got, want)
	}

	var np *post
	if got := Normalize(np); got != "" {
		t.Fatalf("nil pointer should normalize to empty, got %q", got)
	}
	p := &post{id: 8}
	if got := Normalize(p); got != "post/8" {
		t.Fatalf("pointer should normalize through, got %q", got)
	}
}

func TestNormalizeMapIsOrderIndependent(t *testing.T) {
	a := map[string]int{"b": 2, "a": 1, "c": 3}
	b := map[string]int{"c": 3, "a": 1, "b": 2}
	if Normalize(a) != Normalize(b) {
		t.Fatalf("equal maps normalized differently")
	}
	if got := Normalize(a); got != "a=1/b=2/c=3" {
		t.Fatalf("got %q", got)
	}
}

func TestNormalizeDeterministic(t *testing.T) {
	k1 := Normalize("user", 1, []string{"a", "b"})
	k2 := Normalize([]any{"user", 1, []string{"a", "b"}})
	if k1 != k2 {
		t.Fatalf("variadic and slice forms differ: %q vs %q", k1, k2)
	}
}

func TestTransformerBijection(t *testing.T) {
	tr := Transformer{Prefix: "br-"}
	for _, k := range []string{"", "a", "br-nested", "views/post/1"} {
		p := tr.Expand(k)
		if p != "br-"+k {
			t.Fatalf("Expand(%q) = %q", k, p)
		}
		if got := tr.Source(p); got != k {
			t.Fatalf("Source(Expand(%q)) = %q", k, got)
		}
	}
}

func TestTransformerEmptyPrefixIsIdentity(t *testing.T) {
	tr := Transformer{}
	for _, k := range []string{"a", "br-a"} {
		if tr.Expand(k) != k || tr.Source(k) != k {
			t.Fatalf("empty prefix must be identity for %q", k)
		}
	}
}

func TestExpandAllDoesNotMutateInput(t *testing.T) {
	tr := Transformer{Prefix: "p:"}
	in := []string{"x", "y"}
	out := tr.ExpandAll(in)
	if in[0] != "x" || in[1] != "y" {
		t.Fatalf("input mutated: %v", in)
	}
	if out[0] != "p:x" || out[1] != "p:y" {
		t.Fatalf("unexpected output: %v", out)
	}
}
