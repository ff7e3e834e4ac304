// Package testutil provides shared helpers for tests: loggers that write
// through t.Log or into memory, and builders for small in-memory datasets.
package testutil

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"testing"
)

// NewTestLogger returns a logger that writes to t.Log().
// Logs only appear on test failure or when running with -v.
func NewTestLogger(t testing.TB) *slog.Logger {
	t.Helper()
	return slog.New(slog.NewTextHandler(testWriter{t}, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

type testWriter struct {
	t testing.TB
}

func (w testWriter) Write(p []byte) (n int, err error) {
	w.t.Helper()
	w.t.Log(string(p))
	return len(p), nil
}

// LogEntry is one captured record. Attribute values are formatted with %v.
type LogEntry struct {
	Level   slog.Level
	Message string
	Attrs   map[string]string
}

// LogCapture collects records for assertions.
type LogCapture struct {
	mu      sync.Mutex
	entries []LogEntry
}

// Entries returns a copy of everything logged so far.
func (c *LogCapture) Entries() []LogEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]LogEntry(nil), c.entries...)
}

// Find returns the entries whose message is msg.
func (c *LogCapture) Find(msg string) []LogEntry {
	var out []LogEntry
	for _, e := range c.Entries() {
		if e.Message == msg {
			out = append(out, e)
		}
	}
	return out
}

// NewCaptureLogger returns a logger that records every entry in memory and
// also mirrors it to t.Log().
func NewCaptureLogger(t testing.TB) (*slog.Logger, *LogCapture) {
	t.Helper()
	c := &LogCapture{}
	h := &captureHandler{capture: c, next: NewTestLogger(t).Handler()}
	return slog.New(h), c
}

type captureHandler struct {
	capture *LogCapture
	next    slog.Handler
	attrs   []slog.Attr
}

func (h *captureHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *captureHandler) Handle(ctx context.Context, r slog.Record) error {
	e := LogEntry{Level: r.Level, Message: r.Message, Attrs: make(map[string]string)}
	for _, a := range h.attrs {
		e.Attrs[a.Key] = fmt.Sprint(a.Value.Any())
	}
	r.Attrs(func(a slog.Attr) bool {
		e.Attrs[a.Key] = fmt.Sprint(a.Value.Any())
		return true
	})

	h.capture.mu.Lock()
	h.capture.entries = append(h.capture.entries, e)
	h.capture.mu.Unlock()
	return h.next.Handle(ctx, r)
}

func (h *captureHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &captureHandler{
		capture: h.capture,
		next:    h.next.WithAttrs(attrs),
		attrs:   append(append([]slog.Attr(nil), h.attrs...), attrs...),
	}
}

func (h *captureHandler) WithGroup(name string) slog.Handler {
	return &captureHandler{capture: h.capture, next: h.next.WithGroup(name), attrs: h.attrs}
}
