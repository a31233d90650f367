package log

import (
	"io"
	"os"
	"sync/atomic"

	"github.com/kataras/golog"
)

// Prefix starts every line written by NewCustomLogger.
const Prefix = "[patterns] "

// GologLogger is a Logger on top of a kataras/golog logger. Its level can be
// changed while other goroutines log.
type GologLogger struct {
	g     *golog.Logger
	level atomic.Int32
}

var _ Logger = (*GologLogger)(nil)

// NewGologLogger wraps g at info level, keeping its output and format.
func NewGologLogger(g *golog.Logger) *GologLogger {
	l := &GologLogger{g: g}
	l.SetLevel(LogLevelInfo)
	return l
}

// NewDefaultLogger writes to stderr so workflow output on stdout stays clean.
func NewDefaultLogger(level LogLevel) *GologLogger {
	return NewCustomLogger(os.Stderr, level)
}

// NewCustomLogger writes to out with the package prefix.
func NewCustomLogger(out io.Writer, level LogLevel) *GologLogger {
	g := golog.New()
	g.SetOutput(out)
	g.SetPrefix(Prefix)
	l := NewGologLogger(g)
	l.SetLevel(level)
	return l
}

func (l *GologLogger) enabled(level LogLevel) bool {
	threshold := l.GetLevel()
	return threshold != LogLevelNone && level >= threshold
}

func (l *GologLogger) Debug(format string, v ...any) {
	if l.enabled(LogLevelDebug) {
		l.g.Debugf(format, v...)
	}
}

func (l *GologLogger) Info(format string, v ...any) {
	if l.enabled(LogLevelInfo) {
		l.g.Infof(format, v...)
	}
}

func (l *GologLogger) Warn(format string, v ...any) {
	if l.enabled(LogLevelWarn) {
		l.g.Warnf(format, v...)
	}
}

func (l *GologLogger) Error(format string, v ...any) {
	if l.enabled(LogLevelError) {
		l.g.Errorf(format, v...)
	}
}

// SetLevel changes the level of the wrapper and of the golog logger. An
// unknown level falls back to info.
func (l *GologLogger) SetLevel(level LogLevel) {
	if !level.valid() {
		level = LogLevelInfo
	}
	l.level.Store(int32(level))
	l.g.SetLevel(levelNames[level])
}

// GetLevel returns the current level.
func (l *GologLogger) GetLevel() LogLevel {
	return LogLevel(l.level.Load())
}
