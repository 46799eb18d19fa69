// Package utils provides shared helpers for logging, validation and HTTP responses.
package utils

import (
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps zap.Logger with variadic key-value logging, which keeps
// call sites short without giving up structured output.
type Logger struct {
	*zap.Logger
}

// LoggerOptions configures the logger instance.
type LoggerOptions struct {
	// Development switches to a human-readable console encoding
	Development bool
	// Level is the minimum enabled logging level
	Level zapcore.Level
	// OutputPaths lists the log sinks, "stdout" or file paths
	OutputPaths []string
	// ErrorOutputPaths lists the sinks for the logger's own errors
	ErrorOutputPaths []string
}

// DefaultLoggerOptions returns the default logger configuration.
func DefaultLoggerOptions() LoggerOptions {
	return LoggerOptions{
		Development:      false,
		Level:            zapcore.DebugLevel,
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}
}

// NewLogger builds a structured logger, falling back to defaults when no
// options are given.
func NewLogger(opts ...LoggerOptions) *Logger {
	options := DefaultLoggerOptions()
	if len(opts) > 0 {
		options = opts[0]
	}

	config := zap.Config{
		Level:       zap.NewAtomicLevelAt(options.Level),
		Development: options.Development,
		Sampling: &zap.SamplingConfig{
			Initial:    100,
			Thereafter: 100,
		},
		Encoding:         "json",
		EncoderConfig:    defaultEncoderConfig(),
		OutputPaths:      options.OutputPaths,
		ErrorOutputPaths: options.ErrorOutputPaths,
	}

	if options.Development {
		config.Encoding = "console"
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	logger, err := config.Build(
		zap.AddCallerSkip(1),
		zap.AddStacktrace(zapcore.ErrorLevel),
	)
	if err != nil {
		// No logger exists yet to report through, so fall back to the
		// example logger rather than crashing at startup.
		fallback := zap.NewExample()
		fallback.Error("Failed to create logger", zap.Error(err))
		return &Logger{fallback}
	}

	return &Logger{logger}
}

func defaultEncoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "message",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.MillisDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
}

// Info logs at info level with key-value context.
func (l *Logger) Info(msg string, fields ...any) {
	l.Logger.Info(msg, toZapFields(fields)...)
}

// Error logs at error level, attaching err when non-nil.
func (l *Logger) Error(msg string, err error, fields ...any) {
	zapFields := toZapFields(fields)
	if err != nil {
		zapFields = append(zapFields, zap.Error(err))
	}
	l.Logger.Error(msg, zapFields...)
}

// Warn logs at warn level with key-value context.
func (l *Logger) Warn(msg string, fields ...any) {
	l.Logger.Warn(msg, toZapFields(fields)...)
}

// Debug logs at debug level with key-value context.
func (l *Logger) Debug(msg string, fields ...any) {
	l.Logger.Debug(msg, toZapFields(fields)...)
}

// Fatal logs at fatal level, attaching err when non-nil, then exits.
func (l *Logger) Fatal(msg string, err error, fields ...any) {
	zapFields := toZapFields(fields)
	if err != nil {
		zapFields = append(zapFields, zap.Error(err))
	}
	l.Logger.Fatal(msg, zapFields...)
}

// With returns a child logger carrying additional key-value context.
func (l *Logger) With(fields ...any) *Logger {
	return &Logger{l.Logger.With(toZapFields(fields)...)}
}

// Named appends a scope segment to the logger name.
func (l *Logger) Named(name string) *Logger {
	return &Logger{l.Logger.Named(name)}
}

// Sync flushes buffered entries. Call it before the process exits.
func (l *Logger) Sync() {
	_ = l.Logger.Sync()
}

// toZapFields converts alternating key-value pairs into zap fields. A
// trailing key without a value gets "MISSING_VALUE"; a non-string key
// becomes "INVALID_KEY".
func toZapFields(fields []any) []zap.Field {
	if len(fields) == 0 {
		return nil
	}
	if len(fields)%2 != 0 {
		fields = append(fields, "MISSING_VALUE")
	}

	result := make([]zap.Field, 0, len(fields)/2)
	for i := 0; i < len(fields); i += 2 {
		key, ok := fields[i].(string)
		if !ok {
			key = "INVALID_KEY"
		}
		result = append(result, zapField(key, fields[i+1]))
	}
	return result
}

// zapField picks a typed zap field where the concrete type is known.
func zapField(key string, value any) zap.Field {
	switch v := value.(type) {
	case string:
		return zap.String(key, v)
	case int:
		return zap.Int(key, v)
	case int64:
		return zap.Int64(key, v)
	case float64:
		return zap.Float64(key, v)
	case bool:
		return zap.Bool(key, v)
	case time.Duration:
		return zap.Duration(key, v)
	case error:
		return zap.Error(v)
	default:
		return zap.Any(key, v)
	}
}

// GlobalLogger is the process wide logger used where no instance has been
// injected.
var GlobalLogger *Logger

func init() {
	isDevelopment := os.Getenv("REELID_ENV") != "production"

	GlobalLogger = NewLogger(LoggerOptions{
		Development: isDevelopment,
		Level:       zapcore.InfoLevel,
	})
}

// GetLogger hands out the process-wide logger.
func GetLogger() *Logger {
	return GlobalLogger
}
