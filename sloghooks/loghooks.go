// Package sloghooks reports brcache events through log/slog, with sampling
// for the high-volume ones and key redaction.
package sloghooks

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sync/atomic"

	"github.com/unkn0wn-root/brcache"
)

type Options struct {
	// Sampling to avoid floods; 0/1 = log all.
	CompressedEvery uint64
	RejectedEvery   uint64
	FetchMissEvery  uint64
	// Optional key redactor. Defaults to SHA-256 prefix.
	Redact func(string) string
}

type Hooks struct {
	l    *slog.Logger
	opts Options

	compressedCtr atomic.Uint64
	rejectedCtr   atomic.Uint64
	fetchMissCtr  atomic.Uint64
}

var _ brcache.Hooks = (*Hooks)(nil)

func New(l *slog.Logger, opts Options) *Hooks {
	return &Hooks{l: l, opts: opts}
}

func (h *Hooks) redact(k string) string {
	if h.opts.Redact != nil {
		return h.opts.Redact(k)
	}
	sum := sha256.Sum256([]byte(k))
	return hex.EncodeToString(sum[:8])
}

func sample(n uint64, ctr *atomic.Uint64) bool {
	if n == 0 || n == 1 {
		return true
	}
	return ctr.Add(1)%n == 0
}

func (h *Hooks) Compressed(storageKey string, rawLen, storedLen int) {
	if h.l == nil || !sample(h.opts.CompressedEvery, &h.compressedCtr) {
		return
	}
	h.l.Debug("brcache.compressed",
		"key", h.redact(storageKey),
		"raw", rawLen,
		"stored", storedLen)
}

func (h *Hooks) CompressionRejected(storageKey string, rawLen, compressedLen int) {
	if h.l == nil || !sample(h.opts.RejectedEvery, &h.rejectedCtr) {
		return
	}
	h.l.Debug("brcache.compression_rejected",
		"key", h.redact(storageKey),
		"raw", rawLen,
		"compressed", compressedLen)
}

func (h *Hooks) DecodeFailed(storageKey, reason string) {
	if h.l == nil {
		return
	}
	h.l.Warn("brcache.decode_failed",
		"key", h.redact(storageKey),
		"reason", reason)
}

func (h *Hooks) ProviderSetRejected(storageKey string, isBulk bool) {
	if h.l == nil {
		return
	}
	h.l.Warn("brcache.provider_set_rejected",
		"key", h.redact(storageKey),
		"is_bulk", isBulk)
}

func (h *Hooks) FetchMiss(storageKey string, forced bool) {
	if h.l == nil || !sample(h.opts.FetchMissEvery, &h.fetchMissCtr) {
		return
	}
	h.l.Debug("brcache.fetch_miss",
		"key", h.redact(storageKey),
		"forced", forced)
}
