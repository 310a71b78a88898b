package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
)

// LevelNotice sits between info and warn.
const LevelNotice = slog.Level(2)

// SimpleHandler implements slog.Handler for common log format.
type SimpleHandler struct {
	Output io.Writer
	Level  slog.Level

	mu     *sync.Mutex
	attrs  string
	prefix string
}

func (h *SimpleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.Level
}

func (h *SimpleHandler) Handle(_ context.Context, r slog.Record) error {
	level := levelName(r.Level)

	timeStr := r.Time.Format("2006-01-02 15:04:05")
	msg := fmt.Sprintf("%s [%s] %s%s", timeStr, level, r.Message, h.attrs)

	r.Attrs(func(a slog.Attr) bool {
		msg += fmt.Sprintf(" %s%s=%v", h.prefix, a.Key, a.Value)
		return true
	})

	if h.mu != nil {
		h.mu.Lock()
		defer h.mu.Unlock()
	}
	_, err := fmt.Fprintln(h.Output, msg)
	return err
}

// WithAttrs returns a handler that appends attrs to every record.
func (h *SimpleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	var b strings.Builder
	b.WriteString(h.attrs)
	for _, a := range attrs {
		fmt.Fprintf(&b, " %s%s=%v", h.prefix, a.Key, a.Value)
	}
	nh := h.clone()
	nh.attrs = b.String()
	return nh
}

// WithGroup qualifies subsequent attribute keys with name.
func (h *SimpleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	nh := h.clone()
	nh.prefix = h.prefix + name + "."
	return nh
}

func (h *SimpleHandler) clone() *SimpleHandler {
	c := *h
	return &c
}

// New returns a handler that serializes writes to w.
func New(w io.Writer, level slog.Level) *SimpleHandler {
	return &SimpleHandler{Output: w, Level: level, mu: &sync.Mutex{}}
}

func levelName(l slog.Level) string {
	if l == LevelNotice {
		return "NOTICE"
	}
	return l.String()
}

// ParseLevel maps a level name to a slog.Level. Unknown names return
// slog.LevelInfo together with an error.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "notice":
		return LevelNotice, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("invalid log level %q", s)
}
