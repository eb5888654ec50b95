// Package logging builds the component loggers used across firewatch.
//
// Log lines go to a size-rotated file so daemon and CLI runs share one
// history. Each component gets a bracketed prefix, for example
// "[store] " or "[daemon] ", which keeps interleaved lines greppable.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Options controls the log sink and rotation policy.
type Options struct {
	// File is the log file path. Empty disables file logging.
	File string

	// MaxSizeMB, MaxBackups, MaxAgeDays, and Compress are the
	// rotation knobs, passed through to the rotator.
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool

	// Verbose mirrors every line to stderr.
	Verbose bool
}

// Factory hands out component loggers that share one sink.
type Factory struct {
	sink    io.Writer
	rotator *lumberjack.Logger
}

// Setup prepares the shared sink. With no file and no verbose flag the
// loggers are silent, which is what non-daemon CLI runs want.
func Setup(opts Options) (*Factory, error) {
	f := &Factory{}

	var writers []io.Writer
	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		f.rotator = &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
			Compress:   opts.Compress,
		}
		writers = append(writers, f.rotator)
	}
	if opts.Verbose {
		writers = append(writers, os.Stderr)
	}

	switch len(writers) {
	case 0:
		f.sink = io.Discard
	case 1:
		f.sink = writers[0]
	default:
		f.sink = io.MultiWriter(writers...)
	}
	return f, nil
}

// Component returns a logger with the "[name] " prefix on the shared
// sink.
func (f *Factory) Component(name string) *log.Logger {
	return log.New(f.sink, "["+name+"] ", log.LstdFlags)
}

// Writer exposes the shared sink for code that logs without the std
// logger, such as HTTP server error logs.
func (f *Factory) Writer() io.Writer {
	return f.sink
}

// Close flushes and closes the rotator.
func (f *Factory) Close() error {
	if f.rotator == nil {
		return nil
	}
	return f.rotator.Close()
}
