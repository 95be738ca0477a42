// Package logger is a thin component-aware wrapper around zerolog.
package logger

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

type LogLevel = zerolog.Level

const (
	DEBUG = zerolog.DebugLevel
	INFO  = zerolog.InfoLevel
	WARN  = zerolog.WarnLevel
	ERROR = zerolog.ErrorLevel
)

var (
	mu  sync.RWMutex
	log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger().Level(zerolog.InfoLevel)
)

// SetOutput replaces the log sink. JSON lines are written unless console is true.
func SetOutput(w io.Writer, console bool) {
	mu.Lock()
	defer mu.Unlock()
	level := log.GetLevel()
	if console {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339, NoColor: true}
	}
	log = zerolog.New(w).With().Timestamp().Logger().Level(level)
}

func SetLevel(level LogLevel) {
	mu.Lock()
	defer mu.Unlock()
	log = log.Level(level)
}

// ParseLevel maps "debug", "info", "warn" and "error" to a level, defaulting to INFO.
func ParseLevel(s string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DEBUG
	case "warn", "warning":
		return WARN
	case "error":
		return ERROR
	default:
		return INFO
	}
}

func current() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return log
}

func emit(ev *zerolog.Event, component, message string, fields map[string]interface{}) {
	if component != "" {
		ev = ev.Str("component", component)
	}
	if len(fields) > 0 {
		ev = ev.Fields(fields)
	}
	ev.Msg(message)
}

func DebugCF(component, message string, fields map[string]interface{}) {
	l := current()
	emit(l.Debug(), component, message, fields)
}

func InfoCF(component, message string, fields map[string]interface{}) {
	l := current()
	emit(l.Info(), component, message, fields)
}

func WarnCF(component, message string, fields map[string]interface{}) {
	l := current()
	emit(l.Warn(), component, message, fields)
}

func ErrorCF(component, message string, fields map[string]interface{}) {
	l := current()
	emit(l.Error(), component, message, fields)
}
