package codec

import "github.com/goccy/go-json"

// JSON serializes with goccy/go-json (drop-in encoding/json semantics).
// Note for dynamically typed stores (V = any): a float such as 2.0 encodes as
// "2", which the store treats as ambiguous with native integer text and
// therefore always envelopes.
type JSON[V any] struct{}

var _ Codec[struct{}] = JSON[struct{}]{}

func (JSON[V]) Encode(v V) ([]byte, error) { return json.Marshal(v) }
func (JSON[V]) Decode(b []byte) (V, error) {
	var v V
	err := json.Unmarshal(b, &v)
	return v, err
}
