// Package logging wraps zap the way go-coffee's dao/pkg/logger does
// (level parse, console-vs-JSON encoder choice) and adds the one thing
// this node needs that the teacher didn't: turning a machine.LogEffect
// into zap fields at the point the shell executes it.
package logging

import (
	"os"
	"sort"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps zap.Logger the way go-coffee's Logger does, so callers can
// still reach the full zap API through embedding.
type Logger struct {
	*zap.Logger
}

// New builds a Logger at the given level ("debug"|"info"|"warn"|"error")
// and format ("json"|"console"), defaulting unrecognized values to info
// and console respectively.
func New(level, format string) *Logger {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	var encoder zapcore.Encoder
	if format == "json" {
		encoder = zapcore.NewJSONEncoder(zapcore.EncoderConfig{
			TimeKey:        "timestamp",
			LevelKey:       "level",
			NameKey:        "logger",
			CallerKey:      "caller",
			MessageKey:     "message",
			StacktraceKey:  "stacktrace",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.LowercaseLevelEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.StringDurationEncoder,
			EncodeCaller:   zapcore.ShortCallerEncoder,
		})
	} else {
		encoder = zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
			TimeKey:        "T",
			LevelKey:       "L",
			NameKey:        "N",
			CallerKey:      "C",
			MessageKey:     "M",
			StacktraceKey:  "S",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.CapitalColorLevelEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.StringDurationEncoder,
			EncodeCaller:   zapcore.ShortCallerEncoder,
		})
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(os.Stdout), zapLevel)
	zapLogger := zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	return &Logger{Logger: zapLogger}
}

// WithFields returns a derived logger carrying the given fields on every
// subsequent entry.
func (l *Logger) WithFields(fields ...zap.Field) *Logger {
	return &Logger{Logger: l.Logger.With(fields...)}
}

// EmitEffect logs one machine.LogEffect at the level it names, converting
// its Data map to sorted zap.Any fields so JSON and console output stay
// deterministic across runs.
func (l *Logger) EmitEffect(message string, level string, data map[string]interface{}) {
	fields := make([]zap.Field, 0, len(data))
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fields = append(fields, zap.Any(k, data[k]))
	}

	switch level {
	case "debug":
		l.Debug(message, fields...)
	case "warn":
		l.Warn(message, fields...)
	case "error":
		l.Error(message, fields...)
	default:
		l.Info(message, fields...)
	}
}
