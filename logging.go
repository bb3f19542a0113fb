// Package sgp's logging is a leveled logger over the standard library's
// log.Logger, following the shape of hurricanerix-weave's
// internal/logging package: level filtering, a single Printf-style sink
// per level, and an optional rotating file output.
package sgp

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Level is a logging severity.
type Level int

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
	default:
		return "UNKNOWN"
	}
}

// ParseLevel parses a level string, defaulting to LevelInfo for
// anything unrecognized.
func ParseLevel(s string) Level {
	switch strings.ToLower(s) {
	case "debug":
		return LevelDebug
	case "warn":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// Logger is a leveled wrapper around log.Logger. The zero value is not
// usable; construct one with NewLogger.
type Logger struct {
	level  Level
	logger *log.Logger
}

// NewLogger creates a Logger at level, writing to output (os.Stderr if
// nil).
func NewLogger(level Level, output io.Writer) *Logger {
	if output == nil {
		output = os.Stderr
	}
	return &Logger{level: level, logger: log.New(output, "", log.LstdFlags)}
}

// NewRotatingLogger creates a Logger that writes through a lumberjack
// rolling file, for long-running batch-audit deployments that would
// otherwise grow an unbounded log file (SPEC_FULL.md's ambient-stack
// section).
func NewRotatingLogger(level Level, path string, maxSizeMB, maxBackups, maxAgeDays int) *Logger {
	return NewLogger(level, &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
		MaxAge:     maxAgeDays,
	})
}

func (l *Logger) log(level Level, format string, v ...interface{}) {
	if l.level > level {
		return
	}
	l.logger.Printf("[%s] %s", level, fmt.Sprintf(format, v...))
}

func (l *Logger) Debugf(format string, v ...interface{}) { l.log(LevelDebug, format, v...) }
func (l *Logger) Infof(format string, v ...interface{})  { l.log(LevelInfo, format, v...) }
func (l *Logger) Warnf(format string, v ...interface{})  { l.log(LevelWarn, format, v...) }
func (l *Logger) Errorf(format string, v ...interface{}) { l.log(LevelError, format, v...) }

// SetLevel changes the logger's minimum emitted level.
func (l *Logger) SetLevel(level Level) { l.level = level }
