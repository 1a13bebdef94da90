// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logger provides the process-wide zerolog logger for msgbook.
//
// Diagnostics go to stderr so they never mix with the summary printed on
// stdout. On a terminal the output is human readable, otherwise it is one
// JSON object per line.
package logger

import (
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/term"
)

// Logger is the project-wide logging type.
type Logger = zerolog.Logger

// Options configures the logger.
type Options struct {
	// Level is one of trace, debug, info, warn, error. Default: info
	Level string

	// Format is "console", "json" or empty to pick by TTY detection.
	Format string

	// Writer defaults to os.Stderr.
	Writer io.Writer

	// RunID tags every event of one export run.
	RunID string
}

var (
	once sync.Once
	root atomic.Pointer[zerolog.Logger]
)

// Init builds the root logger. Only the first call has an effect.
func Init(opt Options) {
	once.Do(func() {
		l := New(opt)
		root.Store(&l)
	})
}

// Get returns the root logger, initializing it with defaults if needed.
func Get() *Logger {
	if l := root.Load(); l != nil {
		return l
	}
	Init(Options{})
	return root.Load()
}

// New builds a standalone logger from opt.
func New(opt Options) Logger {
	zerolog.TimeFieldFormat = time.RFC3339Nano

	var w io.Writer = os.Stderr
	if opt.Writer != nil {
		w = opt.Writer
	}

	format := strings.ToLower(strings.TrimSpace(opt.Format))
	if format == "" {
		format = "json"
		if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
			format = "console"
		}
	}
	if format == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}

	ctx := zerolog.New(w).Level(ParseLevel(opt.Level)).With().Timestamp()
	if opt.RunID != "" {
		ctx = ctx.Str("run_id", opt.RunID)
	}
	return ctx.Logger()
}

// Nop returns a logger that discards everything. Intended for tests.
func Nop() *Logger {
	l := zerolog.Nop()
	return &l
}

// ParseLevel maps a level name to a zerolog level. Unknown names give info.
func ParseLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
