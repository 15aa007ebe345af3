// Package dlog is a thin leveled wrapper around the standard library's
// log.Logger. No repo in the reference corpus imports a structured
// logging library (logrus/zap/zerolog); this keeps the same choice
// rather than introducing one unmotivated by anything the corpus shows.
package dlog

import (
	"io"
	"log"
	"os"
)

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

// Logger wraps a *log.Logger with a minimum level filter.
type Logger struct {
	min Level
	l   *log.Logger
}

// New builds a Logger writing to w at the given minimum level.
func New(w io.Writer, min Level) *Logger {
	return &Logger{min: min, l: log.New(w, "", log.LstdFlags)}
}

// Default writes to stderr at LevelInfo, the level the CLI uses unless
// -v is passed.
func Default() *Logger {
	return New(os.Stderr, LevelInfo)
}

func (lg *Logger) log(level Level, format string, args ...any) {
	if level < lg.min {
		return
	}
	lg.l.Printf("["+level.String()+"] "+format, args...)
}

func (lg *Logger) Debugf(format string, args ...any) { lg.log(LevelDebug, format, args...) }
func (lg *Logger) Infof(format string, args ...any)  { lg.log(LevelInfo, format, args...) }
func (lg *Logger) Warnf(format string, args ...any)  { lg.log(LevelWarn, format, args...) }
func (lg *Logger) Errorf(format string, args ...any) { lg.log(LevelError, format, args...) }
