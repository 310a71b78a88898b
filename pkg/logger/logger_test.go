package logger

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// Use a fixed time for reproducible output
var fixedTime = time.Date(2023, 10, 27, 10, 0, 0, 0, time.UTC)

func TestSimpleHandler_Enabled(t *testing.T) {
	h := &SimpleHandler{Level: slog.LevelInfo}
	ctx := context.Background()

	assert.False(t, h.Enabled(ctx, slog.LevelDebug))
	assert.True(t, h.Enabled(ctx, slog.LevelInfo))
	assert.True(t, h.Enabled(ctx, slog.LevelWarn))
	assert.True(t, h.Enabled(ctx, slog.LevelError))
}

func TestSimpleHandler_Handle(t *testing.T) {
	var buf bytes.Buffer
	h := &SimpleHandler{Output: &buf, Level: slog.LevelInfo}
	ctx := context.Background()

	r := slog.NewRecord(fixedTime, slog.LevelInfo, "test message", 0)
	r.AddAttrs(slog.String("key", "value"), slog.Int("count", 42))

	err := h.Handle(ctx, r)
	assert.NoError(t, err)

	// Expected format: "2006-01-02 15:04:05 [LEVEL] Message key=value count=42\n"
	expected := "2023-10-27 10:00:00 [INFO] test message key=value count=42\n"
	assert.Equal(t, expected, buf.String())
}

func TestSimpleHandler_Notice(t *testing.T) {
	var buf bytes.Buffer
	h := New(&buf, slog.LevelInfo)

	r := slog.NewRecord(fixedTime, LevelNotice, "cache disabled", 0)
	assert.NoError(t, h.Handle(context.Background(), r))
	assert.Equal(t, "2023-10-27 10:00:00 [NOTICE] cache disabled\n", buf.String())
}

func TestSimpleHandler_WithAttrs(t *testing.T) {
	var buf bytes.Buffer
	h := New(&buf, slog.LevelInfo)

	assert.Same(t, h, h.WithAttrs(nil), "WithAttrs without attrs returns the same handler")

	newH := h.WithAttrs([]slog.Attr{slog.String("a", "b")})
	assert.NotSame(t, h, newH)

	r := slog.NewRecord(fixedTime, slog.LevelWarn, "msg", 0)
	r.AddAttrs(slog.Int("n", 1))
	assert.NoError(t, newH.Handle(context.Background(), r))
	assert.Equal(t, "2023-10-27 10:00:00 [WARN] msg a=b n=1\n", buf.String())

	// The parent handler is unchanged
	buf.Reset()
	assert.NoError(t, h.Handle(context.Background(), slog.NewRecord(fixedTime, slog.LevelInfo, "plain", 0)))
	assert.Equal(t, "2023-10-27 10:00:00 [INFO] plain\n", buf.String())
}

func TestSimpleHandler_WithGroup(t *testing.T) {
	var buf bytes.Buffer
	h := New(&buf, slog.LevelInfo)

	assert.Same(t, h, h.WithGroup(""), "WithGroup without a name returns the same handler")

	newH := h.WithGroup("http").WithAttrs([]slog.Attr{slog.String("route", "/api/health")})
	r := slog.NewRecord(fixedTime, slog.LevelInfo, "request", 0)
	r.AddAttrs(slog.Int("code", 200))
	assert.NoError(t, newH.Handle(context.Background(), r))
	assert.Equal(t, "2023-10-27 10:00:00 [INFO] request http.route=/api/health http.code=200\n", buf.String())
}

func TestSimpleHandler_WithSlog(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(New(&buf, slog.LevelDebug)).With("component", "service")
	log.Debug("started", "port", 8246)
	assert.Contains(t, buf.String(), "[DEBUG] started component=service port=8246")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
		{"notice", LevelNotice, false},
		{"warn", slog.LevelWarn, false},
		{"Warning", slog.LevelWarn, false},
		{" error ", slog.LevelError, false},
		{"verbose", slog.LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseLevel(tt.input)
			assert.Equal(t, tt.want, got)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
