package logging

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "yaml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "test.log")
	logger, err := New(Options{Level: "debug", Format: "json", OutputPaths: []string{path}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Info("hello", "scan_id", "42")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	line := string(data)
	if !strings.Contains(line, `"msg":"hello"`) || !strings.Contains(line, `"scan_id":"42"`) {
		t.Fatalf("unexpected log line: %s", line)
	}
	if !strings.Contains(line, `"level":"info"`) {
		t.Fatalf("level not lowercased: %s", line)
	}
}

func TestConsoleHandlerFormatsAttrs(t *testing.T) {
	var sb strings.Builder
	levelVar := new(slog.LevelVar)
	handler := newConsoleHandler(writerFunc(func(p []byte) (int, error) {
		sb.Write(p)
		return len(p), nil
	}), levelVar)

	logger := slog.New(handler).With("scan_id", "42")
	logger.Info("status changed", "status", "in progress")

	line := sb.String()
	if !strings.Contains(line, "INF status changed") {
		t.Fatalf("missing level/message: %s", line)
	}
	if !strings.Contains(line, "scan_id=42") {
		t.Fatalf("missing carried attr: %s", line)
	}
	if !strings.Contains(line, `status="in progress"`) {
		t.Fatalf("value with spaces not quoted: %s", line)
	}
}

func TestConsoleHandlerLevelFilter(t *testing.T) {
	levelVar := new(slog.LevelVar)
	levelVar.Set(slog.LevelWarn)
	handler := newConsoleHandler(writerFunc(func(p []byte) (int, error) {
		t.Errorf("unexpected write: %s", p)
		return len(p), nil
	}), levelVar)
	if handler.Enabled(context.Background(), slog.LevelInfo) {
		t.Fatal("info should be filtered at warn level")
	}
}

type writerFunc func(p []byte) (int, error)

func (f writerFunc) Write(p []byte) (int, error) { return f(p) }
