// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bureau-foundation/kinship/lib/clock"
)

// Epoch is the starting time of every fake clock in the test suite.
var Epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

// FakeClock returns a fake clock stopped at Epoch.
func FakeClock() *clock.FakeClock {
	return clock.Fake(Epoch)
}

// LogCapture collects JSON log lines written through its Logger.
type LogCapture struct {
	Logger *slog.Logger

	mu     sync.Mutex
	buffer bytes.Buffer
}

// CaptureLogger returns a debug-level logger that records every entry.
func CaptureLogger() *LogCapture {
	capture := &LogCapture{}
	capture.Logger = slog.New(slog.NewJSONHandler(lockedWriter{capture}, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return capture
}

// Entries decodes every captured line.
func (c *LogCapture) Entries(t *testing.T) []map[string]any {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	var entries []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(c.buffer.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("decoding log line %q: %v", line, err)
		}
		entries = append(entries, entry)
	}
	return entries
}

// Find returns the first entry with the given level and message, or
// nil.
func (c *LogCapture) Find(t *testing.T, level slog.Level, message string) map[string]any {
	t.Helper()
	for _, entry := range c.Entries(t) {
		if entry[slog.LevelKey] == level.String() && entry[slog.MessageKey] == message {
			return entry
		}
	}
	return nil
}

type lockedWriter struct{ capture *LogCapture }

func (w lockedWriter) Write(p []byte) (int, error) {
	w.capture.mu.Lock()
	defer w.capture.mu.Unlock()
	return w.capture.buffer.Write(p)
}
