package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Options controls how the process-wide logger is built.
type Options struct {
	Level  string // debug, info, warn, error
	Format string // console or json
	File   string // optional, appended in addition to stderr
}

var (
	mu     sync.RWMutex
	base   = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).With().Timestamp().Logger().Level(zerolog.InfoLevel)
	closer io.Closer
)

// Init replaces the process-wide logger. It is safe to call more than once;
// a previously opened log file is closed.
func Init(opts Options) error {
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(opts.Level)))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	var out io.Writer = os.Stderr
	if opts.Format != "json" {
		out = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	}

	var file *os.File
	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o700); err != nil {
			return fmt.Errorf("create log dir: %w", err)
		}
		file, err = os.OpenFile(opts.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		out = zerolog.MultiLevelWriter(out, file)
	}

	mu.Lock()
	defer mu.Unlock()
	if closer != nil {
		closer.Close()
		closer = nil
	}
	if file != nil {
		closer = file
	}
	base = zerolog.New(out).With().Timestamp().Logger().Level(level)
	return nil
}

// SetOutput points the logger at w with JSON encoding. Used by tests.
func SetOutput(w io.Writer, level zerolog.Level) {
	mu.Lock()
	defer mu.Unlock()
	base = zerolog.New(w).With().Timestamp().Logger().Level(level)
}

// Logger returns the current zerolog logger.
func Logger() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base
}

func emit(level zerolog.Level, component, message string, fields map[string]any) {
	l := Logger()
	ev := l.WithLevel(level)
	if ev == nil {
		return
	}
	if component != "" {
		ev = ev.Str("component", component)
	}
	if len(fields) > 0 {
		ev = ev.Fields(fields)
	}
	ev.Msg(message)
}

func DebugC(component, message string) { emit(zerolog.DebugLevel, component, message, nil) }
func InfoC(component, message string)  { emit(zerolog.InfoLevel, component, message, nil) }
func WarnC(component, message string)  { emit(zerolog.WarnLevel, component, message, nil) }
func ErrorC(component, message string) { emit(zerolog.ErrorLevel, component, message, nil) }

func DebugCF(component, message string, fields map[string]any) {
	emit(zerolog.DebugLevel, component, message, fields)
}

func InfoCF(component, message string, fields map[string]any) {
	emit(zerolog.InfoLevel, component, message, fields)
}

func WarnCF(component, message string, fields map[string]any) {
	emit(zerolog.WarnLevel, component, message, fields)
}

func ErrorCF(component, message string, fields map[string]any) {
	emit(zerolog.ErrorLevel, component, message, fields)
}
