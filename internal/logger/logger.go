// Package logger provides structured logging for the Eunio sync engine.
// Messages go through log/slog. When verbose mode is enabled via the
// --verbose flag, debug messages are printed too, which shows each
// record the sync pass touches and every conflict decision.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Common attribute keys for consistent logging across the codebase.
const (
	KeyUser      = "user"
	KeyEntity    = "entity"
	KeyRecord    = "record"
	KeyPass      = "pass"
	KeyAttempt   = "attempt"
	KeyDetection = "detection"
	KeyStrategy  = "strategy"
	KeyCount     = "count"
	KeyError     = "error"
)

// Options configures the logger.
type Options struct {
	// Level is the minimum level when not verbose. Defaults to warn.
	Level slog.Level

	// Verbose lowers the level to debug.
	Verbose bool

	// JSON selects JSON output instead of text.
	JSON bool

	// File, when set, receives a copy of every log line and is rotated
	// once it reaches MaxSizeMB.
	File       string
	MaxSizeMB  int
	MaxBackups int
}

var (
	mu      sync.RWMutex
	opts    Options
	output  io.Writer = os.Stderr
	file    *lumberjack.Logger
	current *slog.Logger
)

func init() {
	opts.Level = slog.LevelWarn
	current = build()
}

// Configure replaces the logger configuration.
func Configure(o Options) {
	mu.Lock()
	defer mu.Unlock()
	if file != nil {
		_ = file.Close()
		file = nil
	}
	opts = o
	if o.File != "" {
		file = &lumberjack.Logger{
			Filename:   o.File,
			MaxSize:    o.MaxSizeMB,
			MaxBackups: o.MaxBackups,
		}
	}
	current = build()
}

// Close flushes and closes the log file, if any.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if file == nil {
		return nil
	}
	err := file.Close()
	file = nil
	current = build()
	return err
}

// ParseLevel converts a level name such as "debug" or "warn".
func ParseLevel(name string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(name))); err != nil {
		return slog.LevelWarn, fmt.Errorf("parse log level %q: %w", name, err)
	}
	return level, nil
}

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	opts.Verbose = v
	current = build()
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return opts.Verbose
}

// SetOutput sets the output writer for logs.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
	current = build()
}

// L returns the current logger.
func L() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// With returns a logger that includes the given attributes in every output.
func With(args ...any) *slog.Logger {
	return L().With(args...)
}

// Debug logs at debug level. It only prints in verbose mode.
func Debug(msg string, args ...any) {
	L().Debug(msg, args...)
}

// Info logs at info level.
func Info(msg string, args ...any) {
	L().Info(msg, args...)
}

// Warn logs at warn level.
func Warn(msg string, args ...any) {
	L().Warn(msg, args...)
}

// Error logs at error level.
func Error(msg string, args ...any) {
	L().Error(msg, args...)
}

// Section prints a section header if verbose mode is enabled.
func Section(name string) {
	mu.RLock()
	defer mu.RUnlock()
	if opts.Verbose {
		fmt.Fprintf(output, "\n=== %s ===\n", name)
	}
}

// Err returns an attribute for an error, or an empty attribute for nil.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any(KeyError, err)
}

// User returns an attribute for a user ID.
func User(id string) slog.Attr {
	return slog.String(KeyUser, id)
}

// Count returns an attribute for an item count.
func Count(n int) slog.Attr {
	return slog.Int(KeyCount, n)
}

// build must be called with mu held.
func build() *slog.Logger {
	level := opts.Level
	if opts.Verbose {
		level = slog.LevelDebug
	}

	w := output
	if file != nil {
		w = io.MultiWriter(output, file)
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if opts.JSON {
		handler = slog.NewJSONHandler(w, handlerOpts)
	} else {
		handler = slog.NewTextHandler(w, handlerOpts)
	}
	return slog.New(handler)
}
