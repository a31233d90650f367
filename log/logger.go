package log

import (
	"fmt"
	"strings"
	"sync/atomic"
)

// LogLevel is a logging severity. Messages below a logger's level are dropped.
type LogLevel int

const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelWarn
	LogLevelError
	// LogLevelNone drops every message.
	LogLevelNone
)

// levelNames doubles as the golog level name of each LogLevel.
var levelNames = [...]string{
	LogLevelDebug: "debug",
	LogLevelInfo:  "info",
	LogLevelWarn:  "warn",
	LogLevelError: "error",
	LogLevelNone:  "disable",
}

var levelAliases = map[string]LogLevel{
	"":        LogLevelInfo,
	"debug":   LogLevelDebug,
	"info":    LogLevelInfo,
	"warn":    LogLevelWarn,
	"warning": LogLevelWarn,
	"error":   LogLevelError,
	"none":    LogLevelNone,
	"off":     LogLevelNone,
	"disable": LogLevelNone,
}

// Logger is the logging interface used by workflows and graph listeners.
type Logger interface {
	Debug(format string, v ...any)
	Info(format string, v ...any)
	Warn(format string, v ...any)
	Error(format string, v ...any)
}

func (l LogLevel) valid() bool {
	return l >= LogLevelDebug && l <= LogLevelNone
}

func (l LogLevel) String() string {
	switch {
	case l == LogLevelNone:
		return "NONE"
	case l.valid():
		return strings.ToUpper(levelNames[l])
	default:
		return fmt.Sprintf("UNKNOWN(%d)", l)
	}
}

// ParseLevel converts a level name such as "debug" or "WARN" into a LogLevel.
func ParseLevel(s string) (LogLevel, error) {
	if l, ok := levelAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return l, nil
	}
	return LogLevelInfo, fmt.Errorf("unknown log level %q", s)
}

// NoOpLogger discards everything.
type NoOpLogger struct{}

func (l *NoOpLogger) Debug(format string, v ...any) {}
func (l *NoOpLogger) Info(format string, v ...any) {}
func (l *NoOpLogger) Warn(format string, v ...any) {}
func (l *NoOpLogger) Error(format string, v ...any) {}

// box gives atomic.Pointer a single concrete type to hold.
type box struct{ Logger }

var current atomic.Pointer[box]

func init() {
	current.Store(&box{NewDefaultLogger(LogLevelInfo)})
}

// SetDefaultLogger replaces the package-level logger. A nil logger silences
// the helpers. Safe to call while other goroutines log.
func SetDefaultLogger(logger Logger) {
	if logger == nil {
		logger = &NoOpLogger{}
	}
	current.Store(&box{logger})
}

// GetDefaultLogger returns the package-level logger.
func GetDefaultLogger() Logger {
	return current.Load().Logger
}

// SetLogLevel replaces the package-level logger with a stderr logger at level.
func SetLogLevel(level LogLevel) {
	SetDefaultLogger(NewDefaultLogger(level))
}

func Debug(format string, v ...any) { GetDefaultLogger().Debug(format, v...) }
func Info(format string, v ...any) { GetDefaultLogger().Info(format, v...) }
func Warn(format string, v ...any) { GetDefaultLogger().Warn(format, v...) }
func Error(format string, v ...any) { GetDefaultLogger().Error(format, v...) }
