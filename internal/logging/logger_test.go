package logging

import (
	"context"
	"log/slog"
	"testing"

	"github.com/shiplog-systems/shiplog-signals/internal/middleware"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"verbose", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNew(t *testing.T) {
	for _, format := range []string{"json", "text", ""} {
		if logger := New(slog.LevelInfo, format); logger == nil || logger.Logger == nil {
			t.Errorf("New(info, %q) returned nil logger", format)
		}
	}
}

func TestWithContext_RequestID(t *testing.T) {
	logger := New(slog.LevelInfo, "json")

	ctx := context.WithValue(context.Background(), middleware.RequestIDKey, "delivery-42")
	if got := logger.WithContext(ctx); got == logger.Logger {
		t.Error("WithContext should enrich the logger when a request ID is present")
	}

	if got := logger.WithContext(context.Background()); got != logger.Logger {
		t.Error("WithContext without a request ID should return the base logger")
	}
}

func TestWith(t *testing.T) {
	logger := New(slog.LevelInfo, "json")
	child := logger.With(Release("RLS-1"))
	if child == nil || child.Logger == logger.Logger {
		t.Error("With should return a derived logger")
	}
}
