package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestNewLoggerWithWriter_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(slog.LevelInfo, "text", &buf)

	logger.Info("run replayed", "run_id", "run_abc")

	output := buf.String()
	if !strings.Contains(output, "run replayed") {
		t.Errorf("expected 'run replayed' in output, got: %s", output)
	}
	if !strings.Contains(output, "run_id=run_abc") {
		t.Errorf("expected 'run_id=run_abc' in output, got: %s", output)
	}
}

func TestNewLoggerWithWriter_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(slog.LevelInfo, "json", &buf)

	logger.Info("session created", "discipline", "RR")

	output := buf.String()
	if !strings.Contains(output, `"msg":"session created"`) {
		t.Errorf("expected JSON msg field in output, got: %s", output)
	}
	if !strings.Contains(output, `"discipline":"RR"`) {
		t.Errorf("expected JSON discipline field in output, got: %s", output)
	}
}

func TestNewLoggerWithWriter_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(slog.LevelWarn, "text", &buf)

	logger.Info("should not appear")
	logger.Warn("should appear")

	output := buf.String()
	if strings.Contains(output, "should not appear") {
		t.Errorf("INFO message should be filtered at WARN level, got: %s", output)
	}
	if !strings.Contains(output, "should appear") {
		t.Errorf("WARN message should appear at WARN level, got: %s", output)
	}
}

func TestNewLoggerWithWriter_TraceLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(LevelTrace, "text", &buf)
	child := logger.With("component", "kernel")

	child.Log(context.Background(), LevelTrace, "dispatch", "to", 3)

	output := buf.String()
	if !strings.Contains(output, "level=TRACE") {
		t.Errorf("expected level=TRACE in output, got: %s", output)
	}
	if !strings.Contains(output, "component=kernel") {
		t.Errorf("expected component in output, got: %s", output)
	}
	if !strings.Contains(output, "to=3") {
		t.Errorf("expected to=3 in output, got: %s", output)
	}
}

func TestNewLoggerWithWriter_TraceFilteredAtDebug(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(slog.LevelDebug, "text", &buf)

	logger.Log(context.Background(), LevelTrace, "dispatch")

	if buf.Len() != 0 {
		t.Errorf("trace message should be filtered at DEBUG level, got: %s", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"trace", LevelTrace},
		{"TRACE", LevelTrace},
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"ERROR", slog.LevelError},
		{"unknown", slog.LevelInfo},
		{"", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.input); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}
