// Package dlog centralizes the engine's logging convention: a thin
// wrapper over the standard library's log.Logger with the small set of
// levels the checker actually needs. The teacher never reaches for a
// structured-logging library anywhere in its own code (config.go,
// grpc/MessageScheduler.go, tester/simulator.go all call log.Printf
// directly); dporcheck keeps that plain-log-package convention and only
// adds a level prefix, rather than introducing a third-party logger the
// corpus never uses.
package dlog

import (
	"io"
	"log"
	"os"
)

// Level is a log severity. Violation is reserved for deadlock/race/
// forward-progress findings so they stand out in a dump.
type Level int

const (
	LevelInfo Level = iota
	LevelWarn
	LevelViolation
)

func (l Level) prefix() string {
	switch l {
	case LevelWarn:
		return "[warn] "
	case LevelViolation:
		return "[violation] "
	default:
		return "[info] "
	}
}

// Logger wraps a *log.Logger, tagging every line with its level.
type Logger struct {
	out *log.Logger
}

// New returns a Logger writing to w with the given log.Logger flags.
func New(w io.Writer, flags int) *Logger {
	return &Logger{out: log.New(w, "", flags)}
}

// Default returns a Logger writing to stderr with timestamps, the engine's
// default sink.
func Default() *Logger {
	return New(os.Stderr, log.LstdFlags)
}

func (l *Logger) log(level Level, format string, args ...any) {
	l.out.Printf(level.prefix()+format, args...)
}

// Info logs a routine progress message.
func (l *Logger) Info(format string, args ...any) { l.log(LevelInfo, format, args...) }

// Warn logs a recoverable anomaly (e.g. a replayed run diverging from its
// recorded descriptor sequence).
func (l *Logger) Warn(format string, args ...any) { l.log(LevelWarn, format, args...) }

// Violation logs a reported deadlock, data race, or forward-progress
// finding.
func (l *Logger) Violation(format string, args ...any) { l.log(LevelViolation, format, args...) }
