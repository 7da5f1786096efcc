package logger

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestPrettyHandler_Structural(t *testing.T) {
	var buf bytes.Buffer
	opts := &slog.HandlerOptions{Level: LevelDebug}
	h := NewPrettyHandler(&buf, opts, false)
	l := slog.New(h)

	t.Run("WithAttrs", func(t *testing.T) {
		buf.Reset()
		l2 := l.With("request_id", "abc-123")
		l2.Info("test message", "user", "alice")

		output := buf.String()
		if !strings.Contains(output, "request_id=") || !strings.Contains(output, "abc-123") {
			t.Errorf("output missing persistent attr: %q", output)
		}
		if !strings.Contains(output, "user=") || !strings.Contains(output, "alice") {
			t.Errorf("output missing record attr: %q", output)
		}
	})

	t.Run("WithGroup", func(t *testing.T) {
		buf.Reset()
		l2 := l.WithGroup("translation").With("slides", 10)
		l2.Info("job started", "task", "t-1")

		output := buf.String()
		if !strings.Contains(output, "translation.slides=") || !strings.Contains(output, "10") {
			t.Errorf("output missing grouped persistent attr: %q", output)
		}
		if !strings.Contains(output, "translation.task=") || !strings.Contains(output, "t-1") {
			t.Errorf("output missing grouped record attr: %q", output)
		}
	})
}

func TestRedactAttr(t *testing.T) {
	t.Run("KeyBasedRedaction", func(t *testing.T) {
		attr := slog.String("api_key", "sk-1234567890abcdef")
		got := RedactAttr(nil, attr)
		if got.Value.String() != "[REDACTED]" {
			t.Fatalf("expected redaction, got %q", got.Value.String())
		}
	})

	t.Run("KeywordsMapRedaction", func(t *testing.T) {
		attr := slog.String("keywords_map", `{"订单":"注文"}`)
		got := RedactAttr(nil, attr)
		if got.Value.String() != "[REDACTED]" {
			t.Fatalf("expected redaction, got %q", got.Value.String())
		}
	})

	t.Run("ValuePatternRedaction", func(t *testing.T) {
		attr := slog.String("message", "bearer sk-1234567890abcdef")
		got := RedactAttr(nil, attr)
		if got.Value.String() != "[REDACTED]" {
			t.Fatalf("expected redaction, got %q", got.Value.String())
		}
	})

	t.Run("NonSensitive", func(t *testing.T) {
		attr := slog.String("user", "alice")
		got := RedactAttr(nil, attr)
		if got.Value.String() != "alice" {
			t.Fatalf("unexpected redaction: %q", got.Value.String())
		}
	})
}
