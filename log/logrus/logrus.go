// Package logrus adapts a logrus entry to brcache.Logger.
package logrus

import (
	"github.com/sirupsen/logrus"

	"github.com/unkn0wn-root/brcache"
)

var _ brcache.Logger = LogrusLogger{}

type LogrusLogger struct{ E *logrus.Entry }

// New tags every entry with component=brcache.
func New(l *logrus.Logger) LogrusLogger {
	if l == nil {
		l = logrus.StandardLogger()
	}
	return LogrusLogger{E: l.WithField("component", "brcache")}
}

func (l LogrusLogger) Debug(msg string, f brcache.Fields) { l.with(f).Debug(msg) }
func (l LogrusLogger) Info(msg string, f brcache.Fields)  { l.with(f).Info(msg) }
func (l LogrusLogger) Warn(msg string, f brcache.Fields)  { l.with(f).Warn(msg) }
func (l LogrusLogger) Error(msg string, f brcache.Fields) { l.with(f).Error(msg) }

// with routes an "err" field through logrus' error key.
func (l LogrusLogger) with(f brcache.Fields) *logrus.Entry {
	e := l.E
	if len(f) == 0 {
		return e
	}
	fields := make(logrus.Fields, len(f))
	for k, v := range f {
		if err, ok := v.(error); ok && k == "err" {
			e = e.WithError(err)
			continue
		}
		fields[k] = v
	}
	return e.WithFields(fields)
}
