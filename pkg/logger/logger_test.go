package logger

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestCronLoggerWritesErrors(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	base := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	l := NewCron(base)

	l.Info("schedule", "entry", 1)
	l.Error(errors.New("boom"), "panic", "job", "inventory-sync")

	out := buf.String()
	if !strings.Contains(out, "cron: schedule") {
		t.Fatalf("missing info line: %s", out)
	}
	if !strings.Contains(out, "error=boom") || !strings.Contains(out, "job=inventory-sync") {
		t.Fatalf("missing error fields: %s", out)
	}
}
