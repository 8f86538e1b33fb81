package brcache

// Hooks lightweight callbacks for high-signal events.
// Implementations MUST be cheap and non-blocking and safe for concurrent use:
// batch writes call them from several goroutines.
type Hooks interface {
	// A payload was stored compressed.
	Compressed(storageKey string, rawLen, storedLen int)

	// Compression was attempted but did not shrink the payload; raw bytes were
	// stored instead.
	CompressionRejected(storageKey string, rawLen, compressedLen int)

	// A stored payload could not be turned back into a value.
	// reason ∈ {"inflate", "decode", "integer"}
	DecodeFailed(storageKey, reason string)

	// Provider returned ok=false on Set (backpressure/eviction).
	ProviderSetRejected(storageKey string, isBulk bool)

	// Fetch invoked the compute function (miss, or forced refresh).
	FetchMiss(storageKey string, forced bool)
}

// NopHooks is the default no-op
type NopHooks struct{}

func (NopHooks) Compressed(string, int, int)          {}
func (NopHooks) CompressionRejected(string, int, int) {}
func (NopHooks) DecodeFailed(string, string)          {}
func (NopHooks) ProviderSetRejected(string, bool)     {}
func (NopHooks) FetchMiss(string, bool)               {}
