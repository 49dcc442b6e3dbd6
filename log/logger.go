// Package log provides the scanner's structured diagnostics channel.
//
// All log output is JSON on stderr; stdout is reserved for scan records.
// The default level is warn so ordinary pipeline runs stay silent — the
// scan summary surfaces at info when asked for, anomaly detail at debug.
package log

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// DefaultLevel keeps ordinary runs silent on stderr.
const DefaultLevel = "warn"

// Logger wraps zap with the field shape used across the scanner.
type Logger struct {
	zap *zap.Logger
}

// ParseLevel converts a level name (debug, info, warn, error) to a zap level.
func ParseLevel(s string) (zapcore.Level, error) {
	lvl, err := zapcore.ParseLevel(s)
	if err != nil {
		return 0, fmt.Errorf("unknown log level %q", s)
	}
	return lvl, nil
}

// New creates a logger at the given level writing to stderr.
func New(level zapcore.Level) *Logger {
	return NewWithWriter(level, os.Stderr)
}

// NewWithWriter creates a logger writing to w. Used by tests to capture
// output.
func NewWithWriter(level zapcore.Level, w io.Writer) *Logger {
	encoderConfig := zapcore.EncoderConfig{
		TimeKey:     "timestamp",
		LevelKey:    "level",
		MessageKey:  "message",
		EncodeTime:  zapcore.RFC3339NanoTimeEncoder,
		EncodeLevel: zapcore.LowercaseLevelEncoder,
	}
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.AddSync(w),
		level,
	)
	return &Logger{zap: zap.New(core)}
}

// NewNop returns a logger that discards everything. Collaborators hold it
// instead of a nil check at every call site.
func NewNop() *Logger {
	return &Logger{zap: zap.NewNop()}
}

// WithInput returns a logger binding the input name (path or "stdin") to
// every entry.
func (l *Logger) WithInput(name string) *Logger {
	return &Logger{zap: l.zap.With(zap.String("input", name))}
}

// Debug logs a debug message.
func (l *Logger) Debug(message string, fields map[string]any) {
	l.zap.Debug(message, zap.Any("fields", fields))
}

// Info logs an info message.
func (l *Logger) Info(message string, fields map[string]any) {
	l.zap.Info(message, zap.Any("fields", fields))
}

// Warn logs a warning message.
func (l *Logger) Warn(message string, fields map[string]any) {
	l.zap.Warn(message, zap.Any("fields", fields))
}

// Error logs an error message.
func (l *Logger) Error(message string, fields map[string]any) {
	l.zap.Error(message, zap.Any("fields", fields))
}

// Sync flushes buffered entries. Stderr sync errors are unactionable and
// routinely non-nil on Linux pipes, so callers usually discard the result.
func (l *Logger) Sync() error {
	return l.zap.Sync()
}
