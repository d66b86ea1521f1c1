// Package logging builds the console's structured logger. The TUI owns the
// terminal, so log lines go to a file in the state directory.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"pkt.systems/pslog"
)

// Logger is the logger type threaded through the console.
type Logger = pslog.Logger

// Open returns a structured logger appending to path. When debug is false
// debug lines are dropped. The returned closer must be called on exit.
func Open(path string, debug bool) (pslog.Logger, io.Closer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return New(f, debug), f, nil
}

// New returns a structured logger writing to w.
func New(w io.Writer, debug bool) pslog.Logger {
	opts := pslog.Options{
		Mode:          pslog.ModeStructured,
		NoColor:       true,
		MinLevel:      pslog.InfoLevel,
		VerboseFields: true,
	}
	if debug {
		opts.MinLevel = pslog.DebugLevel
	}
	return pslog.NewWithOptions(w, opts)
}

// Discard returns a logger that drops everything. Used by tests and by
// components constructed without a logger.
func Discard() pslog.Logger {
	return pslog.NewWithOptions(io.Discard, pslog.Options{
		Mode:     pslog.ModeStructured,
		NoColor:  true,
		MinLevel: pslog.ErrorLevel,
	})
}

// OrDiscard returns l, or a discarding logger when l is nil.
func OrDiscard(l pslog.Logger) pslog.Logger {
	if l == nil {
		return Discard()
	}
	return l
}
