package logger

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestTextLoggerWritesAttrs(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := Text(&buf, slog.LevelInfo)
	log.Info("extraction complete", "entries", 2, "path", "model.gguf")

	out := buf.String()
	if !strings.Contains(out, "extraction complete") {
		t.Fatalf("missing message: %s", out)
	}
	if !strings.Contains(out, "entries=2") {
		t.Fatalf("missing attr: %s", out)
	}
}

func TestLevelFiltering(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := Text(&buf, slog.LevelWarn)
	log.Info("hidden")
	log.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info should be filtered at warn level: %s", out)
	}
	if !strings.Contains(out, "shown") {
		t.Fatalf("warn should pass: %s", out)
	}
}

func TestPrettyHandlerOutput(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := Pretty(&buf, slog.LevelDebug)
	log.Debug("walking metadata", "kv", 31)

	out := buf.String()
	if !strings.Contains(out, "walking metadata") {
		t.Fatalf("missing message: %s", out)
	}
	if !strings.Contains(out, "kv=31") {
		t.Fatalf("missing attr: %s", out)
	}
}

func TestWith(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := Text(&buf, slog.LevelInfo).With("component", "walker")
	log.Info("start")

	if !strings.Contains(buf.String(), "component=walker") {
		t.Fatalf("missing inherited attr: %s", buf.String())
	}
}

func TestContextRoundTrip(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := Text(&buf, slog.LevelInfo)
	ctx := WithContext(context.Background(), log)

	FromContext(ctx).Info("via context")
	if !strings.Contains(buf.String(), "via context") {
		t.Fatalf("context logger not used: %s", buf.String())
	}

	// Falls back to a default logger rather than returning nil.
	if FromContext(context.Background()) == nil {
		t.Fatal("expected fallback logger")
	}
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
		"":        slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
