// Package zaplog adapts a zap logger to the domain Logger port.
package zaplog

import (
	"go.uber.org/zap"

	"github.com/adiwena/netbilling/internal/domain/ports"
)

// Logger implements ports.Logger over a zap.Logger
type Logger struct {
	z *zap.Logger
}

// New wraps a zap logger
func New(z *zap.Logger) *Logger {
	return &Logger{z: z}
}

func (l *Logger) Info(msg string, fields ...ports.Field) {
	l.z.Info(msg, toZap(fields)...)
}

func (l *Logger) Error(msg string, fields ...ports.Field) {
	l.z.Error(msg, toZap(fields)...)
}

func (l *Logger) Warn(msg string, fields ...ports.Field) {
	l.z.Warn(msg, toZap(fields)...)
}

func (l *Logger) Debug(msg string, fields ...ports.Field) {
	l.z.Debug(msg, toZap(fields)...)
}

func toZap(fields []ports.Field) []zap.Field {
	zf := make([]zap.Field, len(fields))
	for i, f := range fields {
		if err, ok := f.Value.(error); ok && f.Key == "error" {
			zf[i] = zap.Error(err)
			continue
		}
		zf[i] = zap.Any(f.Key, f.Value)
	}
	return zf
}
