package cli

import (
	"context"
	"log/slog"
	"testing"

	"github.com/vietddude/digest/internal/core/config"
)

func TestLogLevel(t *testing.T) {
	tests := []struct {
		level string
		debug bool
		want  slog.Level
	}{
		{"", false, slog.LevelInfo},
		{"info", false, slog.LevelInfo},
		{"debug", false, slog.LevelDebug},
		{"warn", false, slog.LevelWarn},
		{"error", false, slog.LevelError},
		{"error", true, slog.LevelDebug},
	}
	for _, tt := range tests {
		if got := logLevel(tt.level, tt.debug); got != tt.want {
			t.Errorf("logLevel(%q, %v) = %v, want %v", tt.level, tt.debug, got, tt.want)
		}
	}
}

func TestSetupLogging_JSONFormat(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	setupLogging(config.LoggingConfig{Level: "warn", Format: "json"}, false)

	h := slog.Default().Handler()
	if _, ok := h.(*slog.JSONHandler); !ok {
		t.Fatalf("handler = %T, want *slog.JSONHandler", h)
	}
	if h.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("info should be filtered at warn level")
	}
	if !h.Enabled(context.Background(), slog.LevelWarn) {
		t.Error("warn should be enabled")
	}
}

func TestSetupLogging_TextFormat(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	setupLogging(config.LoggingConfig{Format: "text"}, false)

	if _, ok := slog.Default().Handler().(*slog.JSONHandler); ok {
		t.Error("text format should not install the JSON handler")
	}
}
