// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"io"
	"log/slog"
	"os"

	"golang.org/x/term"
)

// NewCommandLogger creates the process logger at level. When stderr is
// a terminal it uses slog.TextHandler for human-readable output; when
// stderr is piped or redirected it uses slog.JSONHandler.
func NewCommandLogger(level slog.Level) *slog.Logger {
	return NewLogger(os.Stderr, IsTerminal(os.Stderr), level)
}

// NewLogger builds a text or JSON logger writing to w.
func NewLogger(w io.Writer, text bool, level slog.Level) *slog.Logger {
	options := &slog.HandlerOptions{Level: level}
	if text {
		return slog.New(slog.NewTextHandler(w, options))
	}
	return slog.New(slog.NewJSONHandler(w, options))
}

// IsTerminal reports whether file is a terminal.
func IsTerminal(file *os.File) bool {
	return term.IsTerminal(int(file.Fd()))
}
