// Package keys maps logical cache keys to physical backend keys.
package keys

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// CacheKeyer is implemented by values that know their own cache key.
type CacheKeyer interface {
	CacheKey() string
}

// Parameterizer is implemented by values with a URL-style identifier
// (e.g. "post/1"). Used when CacheKey is not available.
type Parameterizer interface {
	ToParam() string
}

// Normalize reduces a structured key to a deterministic string.
// A single part is normalized on its own; several parts are treated as a list.
// Lists are joined with "/", nil becomes "", maps become sorted "k=v" pairs.
func Normalize(parts ...any) string {
	if len(parts) == 1 {
		return normalize(parts[0])
	}
	return normalize(parts)
}

func normalize(v any) string {
	if rv := reflect.ValueOf(v); rv.Kind() == reflect.Pointer && rv.IsNil() {
		return ""
	}
	switch k := v.(type) {
	case nil:
		return ""
	case CacheKeyer:
		return k.CacheKey()
	case Parameterizer:
		return k.ToParam()
	case string:
		return k
	case []byte:
		return string(k)
	case []string:
		return strings.Join(k, "/")
	case []any:
		return join(len(k), func(i int) any { return k[i] })
	case fmt.Stringer:
		return k.String()
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		return rv.String()
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(rv.Uint(), 10)
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'g', -1, rv.Type().Bits())
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return ""
		}
		return normalize(rv.Elem().Interface())
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return ""
		}
		return join(rv.Len(), func(i int) any { return rv.Index(i).Interface() })
	case reflect.Map:
		pairs := make([]string, 0, rv.Len())
		it := rv.MapRange()
		for it.Next() {
			pairs = append(pairs, normalize(it.Key().Interface())+"="+normalize(it.Value().Interface()))
		}
		sort.Strings(pairs)
		return strings.Join(pairs, "/")
	}
	return fmt.Sprint(v)
}

func join(n int, at func(int) any) string {
	s := make([]string, n)
	for i := range s {
		s[i] = normalize(at(i))
	}
	return strings.Join(s, "/")
}

// Transformer applies a fixed prefix. An empty prefix makes it the identity.
type Transformer struct {
	Prefix string
}

func (t Transformer) Expand(key string) string { return t.Prefix + key }

// Source strips the prefix from a physical key.
func (t Transformer) Source(physical string) string {
	return strings.TrimPrefix(physical, t.Prefix)
}

// ExpandAll expands keys into a new slice; the input is not mutated.
func (t Transformer) ExpandAll(keys []string) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = t.Prefix + k
	}
	return out
}
