// Package zap adapts a *zap.Logger to brcache.Logger.
package zap

import (
	"sort"

	"go.uber.org/zap"

	"github.com/unkn0wn-root/brcache"
)

var _ brcache.Logger = ZapLogger{}

type ZapLogger struct{ L *zap.Logger }

// New names the logger "brcache". A nil l logs nothing.
func New(l *zap.Logger) ZapLogger {
	if l == nil {
		return ZapLogger{L: zap.NewNop()}
	}
	return ZapLogger{L: l.Named("brcache")}
}

func (z ZapLogger) Debug(msg string, f brcache.Fields) { z.L.Debug(msg, zf(f)...) }
func (z ZapLogger) Info(msg string, f brcache.Fields)  { z.L.Info(msg, zf(f)...) }
func (z ZapLogger) Warn(msg string, f brcache.Fields)  { z.L.Warn(msg, zf(f)...) }
func (z ZapLogger) Error(msg string, f brcache.Fields) { z.L.Error(msg, zf(f)...) }

// zf converts fields in key order; errors keep zap's error encoding.
func zf(f brcache.Fields) []zap.Field {
	if len(f) == 0 {
		return nil
	}
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]zap.Field, 0, len(f))
	for _, k := range keys {
		switch v := f[k].(type) {
		case error:
			out = append(out, zap.NamedError(k, v))
		case []byte:
			out = append(out, zap.Int(k+"_len", len(v)))
		default:
			out = append(out, zap.Any(k, v))
		}
	}
	return out
}
