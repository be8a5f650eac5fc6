// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/pterm/pterm"
)

var (
	opLogger atomic.Pointer[slog.Logger]

	mu     sync.Mutex
	output io.Writer = os.Stderr
)

func init() {
	Setup("info", os.Stderr)
}

// Op returns the operational logger for gateway traces and CLI diagnostics.
// Console output meant for the user goes through pterm printers instead.
func Op() *slog.Logger {
	return opLogger.Load()
}

// Setup replaces the operational logger with one writing to w at level.
// Unknown levels fall back to info.
func Setup(level string, w io.Writer) {
	mu.Lock()
	output = w
	mu.Unlock()

	pl := pterm.DefaultLogger.
		WithLevel(ParseLevel(level)).
		WithWriter(w)
	opLogger.Store(slog.New(pterm.NewSlogHandler(pl)))
}

// SetLevelFromString keeps the current destination and changes the level.
// Valid values: "trace", "debug", "info", "warn", "error".
func SetLevelFromString(level string) {
	mu.Lock()
	w := output
	mu.Unlock()
	Setup(level, w)
}

// ParseLevel maps a level name onto the pterm log level.
func ParseLevel(level string) pterm.LogLevel {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return pterm.LogLevelTrace
	case "debug":
		return pterm.LogLevelDebug
	case "warn", "warning":
		return pterm.LogLevelWarn
	case "error":
		return pterm.LogLevelError
	case "off", "disabled":
		return pterm.LogLevelDisabled
	default:
		return pterm.LogLevelInfo
	}
}

// Discard returns a logger that drops everything, for tests and quiet runs.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
