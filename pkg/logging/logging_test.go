package logging

import (
	"log/slog"
	"testing"
)

func TestNewLevels(t *testing.T) {
	tests := []struct {
		level string
		want  slog.Level
		ok    bool
	}{
		{"debug", slog.LevelDebug, true},
		{"info", slog.LevelInfo, true},
		{"warn", slog.LevelWarn, true},
		{"error", slog.LevelError, true},
		{"verbose", slog.LevelInfo, true}, // unknown falls back to info
	}

	for _, tt := range tests {
		l := New(tt.level)
		if l == nil || l.Logger == nil {
			t.Fatalf("New(%q) returned nil logger", tt.level)
		}
		if got := l.Enabled(nil, tt.want); got != tt.ok {
			t.Errorf("New(%q).Enabled(%v) = %v, want %v", tt.level, tt.want, got, tt.ok)
		}
	}

	if New("error").Enabled(nil, slog.LevelInfo) {
		t.Error("error-level logger must not emit info")
	}
}

func TestDefaultIsInfo(t *testing.T) {
	l := Default()
	if !l.Enabled(nil, slog.LevelInfo) {
		t.Error("default logger must emit info")
	}
	if l.Enabled(nil, slog.LevelDebug) {
		t.Error("default logger must not emit debug")
	}
}
