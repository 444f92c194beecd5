package internal

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// LogLevel represents different logging verbosity levels
type LogLevel int

const (
	LogLevelError LogLevel = iota
	LogLevelWarn
	LogLevelInfo
	LogLevelDebug
	LogLevelTrace
)

// ParseLogLevel maps ERROR/WARN/INFO/DEBUG/TRACE (any case) to a level.
// Unknown strings fall back to INFO.
func ParseLogLevel(s string) LogLevel {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ERROR":
		return LogLevelError
	case "WARN":
		return LogLevelWarn
	case "DEBUG":
		return LogLevelDebug
	case "TRACE":
		return LogLevelTrace
	}
	return LogLevelInfo
}

func (l LogLevel) zerolog() zerolog.Level {
	switch l {
	case LogLevelError:
		return zerolog.ErrorLevel
	case LogLevelWarn:
		return zerolog.WarnLevel
	case LogLevelDebug:
		return zerolog.DebugLevel
	case LogLevelTrace:
		return zerolog.TraceLevel
	}
	return zerolog.InfoLevel
}

// Logger provides leveled logging
type Logger struct {
	level LogLevel
	zl    zerolog.Logger
}

// NewLogger creates a new logger with the specified level writing to w.
// pretty switches to zerolog's human-readable console writer.
func NewLogger(level LogLevel, w io.Writer, pretty bool) *Logger {
	if pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}
	}
	zl := zerolog.New(w).Level(level.zerolog()).With().Timestamp().Logger()
	return &Logger{level: level, zl: zl}
}

// NewDefaultLogger creates a logger based on LOG_LEVEL and LOG_PRETTY
func NewDefaultLogger() *Logger {
	zerolog.TimeFieldFormat = time.RFC3339
	pretty := os.Getenv("LOG_PRETTY") == "true"
	return NewLogger(ParseLogLevel(os.Getenv("LOG_LEVEL")), os.Stderr, pretty)
}

// With returns a child logger carrying a fixed field, e.g. a run ID.
func (l *Logger) With(key string, value interface{}) *Logger {
	return &Logger{level: l.level, zl: l.zl.With().Interface(key, value).Logger()}
}

// Error logs error messages
func (l *Logger) Error(format string, args ...interface{}) {
	l.zl.Error().Msgf(format, args...)
}

// Warn logs warning messages
func (l *Logger) Warn(format string, args ...interface{}) {
	l.zl.Warn().Msgf(format, args...)
}

// Info logs info messages
func (l *Logger) Info(format string, args ...interface{}) {
	l.zl.Info().Msgf(format, args...)
}

// Debug logs debug messages
func (l *Logger) Debug(format string, args ...interface{}) {
	l.zl.Debug().Msgf(format, args...)
}

// Trace logs trace messages
func (l *Logger) Trace(format string, args ...interface{}) {
	l.zl.Trace().Msgf(format, args...)
}

// GetLevel returns the current log level
func (l *Logger) GetLevel() LogLevel {
	return l.level
}

// Nop returns a logger that discards everything; handy in tests.
func Nop() *Logger {
	return &Logger{level: LogLevelError, zl: zerolog.Nop()}
}

// SetLevel changes the verbosity of l.
func (l *Logger) SetLevel(level LogLevel) {
	l.level = level
	l.zl = l.zl.Level(level.zerolog())
}
