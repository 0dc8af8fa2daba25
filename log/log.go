package log

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync/atomic"
)

// Level orders log output by severity. Messages below the logger's level are
// dropped.
type Level int32

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	}
	return fmt.Sprintf("LEVEL(%d)", int32(l))
}

// ParseLevel accepts the names returned by Level.String, case-insensitively.
func ParseLevel(s string) (Level, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return LevelDebug, nil
	case "INFO", "":
		return LevelInfo, nil
	case "WARN", "WARNING":
		return LevelWarn, nil
	case "ERROR":
		return LevelError, nil
	}
	return LevelInfo, fmt.Errorf("unknown log level %q", s)
}

type Logger struct {
	l     *log.Logger
	level atomic.Int32
}

var std = NewFromLogger(log.New(os.Stderr, "", log.LstdFlags), LevelInfo)

// Default returns the standard logger used by the package-level output functions.
func Default() *Logger { return std }

func New(out io.Writer, prefix string, flag int, level Level) *Logger {
	return NewFromLogger(log.New(out, prefix, flag), level)
}

func NewFromLogger(l *log.Logger, level Level) *Logger {
	logger := &Logger{l: l}
	logger.level.Store(int32(level))
	return logger
}

// Level returns the minimum level the logger writes.
func (l *Logger) Level() Level {
	return Level(l.level.Load())
}

// SetLevel sets the minimum level the logger writes.
func (l *Logger) SetLevel(level Level) {
	l.level.Store(int32(level))
}

// Enabled reports whether messages at level would be written.
func (l *Logger) Enabled(level Level) bool {
	return level >= l.Level()
}

// Logf logs at the given level. Arguments are handled in the manner of
// [fmt.Printf].
func (l *Logger) Logf(level Level, format string, v ...any) {
	l.logf(level, format, v...)
}

func (l *Logger) logf(level Level, format string, v ...any) {
	if !l.Enabled(level) {
		return
	}
	l.l.Output(3, level.String()+" "+fmt.Sprintf(format, v...))
}

// Debugf logs at LevelDebug. Arguments are handled in the manner of [fmt.Printf].
func (l *Logger) Debugf(format string, v ...any) { l.logf(LevelDebug, format, v...) }

// Infof logs at LevelInfo. Arguments are handled in the manner of [fmt.Printf].
func (l *Logger) Infof(format string, v ...any) { l.logf(LevelInfo, format, v...) }

// Warnf logs at LevelWarn. Arguments are handled in the manner of [fmt.Printf].
func (l *Logger) Warnf(format string, v ...any) { l.logf(LevelWarn, format, v...) }

// Errorf logs at LevelError. Arguments are handled in the manner of [fmt.Printf].
func (l *Logger) Errorf(format string, v ...any) { l.logf(LevelError, format, v...) }

// Writer returns the output destination for the logger.
func (l *Logger) Writer() io.Writer {
	return l.l.Writer()
}

// Warnf logs at LevelWarn to the standard logger.
func Warnf(format string, v ...any) { std.logf(LevelWarn, format, v...) }
