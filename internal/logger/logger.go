// Package logger wraps zap behind a narrow interface so the rest of the
// module never imports zap directly, and so tests can supply a no-op
// implementation without pulling in a real sink.
package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Field is an opaque structured log field, constructed via the helpers
// below and passed to a Logger method.
type Field = zap.Field

// Logger is the logging surface used throughout the service.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
}

// StringField builds a string-valued field.
func StringField(key, value string) Field {
	return zap.String(key, value)
}

// Int64Field builds an int64-valued field.
func Int64Field(key string, value int64) Field {
	return zap.Int64(key, value)
}

// BoolField builds a bool-valued field.
func BoolField(key string, value bool) Field {
	return zap.Bool(key, value)
}

// ErrorField builds a field carrying an error under the given key.
func ErrorField(key string, err error) Field {
	return zap.NamedError(key, err)
}

// AnyField builds a field from an arbitrary value via reflection,
// for the occasional case where a typed helper doesn't exist.
func AnyField(key string, value any) Field {
	return zap.Any(key, value)
}

type zapLogger struct {
	z *zap.Logger
}

// New builds a JSON-encoded zap.Logger writing to stdout, and returns a
// cleanup func that flushes buffered log entries. Env sets the minimum
// level: debug in "development", info otherwise. Caller info is always
// attached; no stack traces are added.
func New(env string) (Logger, func()) {
	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "message",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	minLevel := zapcore.InfoLevel
	if env == "development" {
		minLevel = zapcore.DebugLevel
	}

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.AddSync(os.Stdout),
		zap.NewAtomicLevelAt(minLevel),
	)

	z := zap.New(core, zap.AddCaller())
	cleanup := func() { _ = z.Sync() }

	return &zapLogger{z: z}, cleanup
}

// NewNop returns a Logger that discards everything, for use in tests.
func NewNop() Logger {
	return &zapLogger{z: zap.NewNop()}
}

func (l *zapLogger) Debug(msg string, fields ...Field) { l.z.Debug(msg, fields...) }
func (l *zapLogger) Info(msg string, fields ...Field)  { l.z.Info(msg, fields...) }
func (l *zapLogger) Warn(msg string, fields ...Field)  { l.z.Warn(msg, fields...) }
func (l *zapLogger) Error(msg string, fields ...Field) { l.z.Error(msg, fields...) }
