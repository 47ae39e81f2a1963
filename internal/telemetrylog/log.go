// Package telemetrylog is the structured-logging facade the offline
// transport's internals use to report swallowed failures. It wraps
// go.uber.org/zap rather than the standard library's log package, and
// defaults to a no-op logger so an embedding application is never forced
// to configure one.
package telemetrylog

import "go.uber.org/zap"

// Logger is a small subset of *zap.Logger's surface: the offline transport
// only ever needs leveled logging with structured fields, never the full
// zap API (sugared logging, sampling config, and so on).
type Logger struct {
	z *zap.Logger
}

// New wraps z. A nil z is treated the same as Nop().
func New(z *zap.Logger) *Logger {
	if z == nil {
		z = zap.NewNop()
	}
	return &Logger{z: z}
}

// Nop returns a Logger that discards everything, the default for a
// transport.Engine that wasn't given one explicitly.
func Nop() *Logger {
	return &Logger{z: zap.NewNop()}
}

func (l *Logger) Debug(msg string, fields ...zap.Field) {
	if l == nil || l.z == nil {
		return
	}
	l.z.Debug(msg, fields...)
}

func (l *Logger) Info(msg string, fields ...zap.Field) {
	if l == nil || l.z == nil {
		return
	}
	l.z.Info(msg, fields...)
}

func (l *Logger) Warn(msg string, fields ...zap.Field) {
	if l == nil || l.z == nil {
		return
	}
	l.z.Warn(msg, fields...)
}
