package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"mrimark/internal/config"
	"mrimark/internal/logging"
)

func readLines(t *testing.T, path string) []string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	return strings.Split(strings.TrimSpace(string(content)), "\n")
}

func TestConsoleLoggerPrefixesComponentAndPass(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(&buf, "info", "console")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger = logging.NewComponentLogger(logger, "marker")
	ctx := logging.WithPass(logging.WithRunID(context.Background(), "run-1"), "t1_3d")
	logging.WithContext(ctx, logger).Info("pass complete", logging.Int("changed", 3), logging.String("note", "two words"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one line, got %d: %q", len(lines), lines)
	}
	line := lines[0]
	for _, want := range []string{" INFO marker[t1_3d]: pass complete", "changed=3", "run_id=run-1", `note="two words"`} {
		if !strings.Contains(line, want) {
			t.Fatalf("expected %q in %q", want, line)
		}
	}
	if strings.Contains(line, ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", line)
	}
}

func TestConsoleLoggerIncludesCallerForDebug(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(&buf, "debug", "console")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Debug("message with caller")

	if !strings.Contains(buf.String(), "logger_test.go:") {
		t.Fatalf("expected caller information in debug logs, got %q", buf.String())
	}
}

func TestNewJSONLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(&buf, "info", "json")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logging.Warn(logger, "cell_unreadable", "cell unreadable; treated as missing",
		logging.String(logging.FieldPID, "P1"), logging.Int(logging.FieldRow, 4))

	var payload map[string]any
	if err := json.Unmarshal(buf.Bytes(), &payload); err != nil {
		t.Fatalf("decode json line: %v", err)
	}
	if payload["level"] != "warn" || payload["pid"] != "P1" || payload[logging.FieldEventType] != "cell_unreadable" {
		t.Fatalf("unexpected payload %v", payload)
	}
	if hint, _ := payload[logging.FieldErrorHint].(string); hint == "" {
		t.Fatalf("expected default hint in %v", payload)
	}
	if _, ok := payload["ts"]; !ok {
		t.Fatalf("expected ts key in %v", payload)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(io.Discard, "info", "xml"); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestNewInvalidLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(&buf, "verbose", "console")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Debug("hidden")
	logger.Info("shown")
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 || !strings.Contains(lines[0], "shown") {
		t.Fatalf("expected only the info line, got %q", lines)
	}
}

func TestNewFromConfigTeesToRunLog(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()
	cfg.Logging.RetentionDays = 7

	stale := filepath.Join(cfg.Paths.LogDir, "mrimark-20000101T000000.log")
	if err := os.WriteFile(stale, []byte("old\n"), 0o644); err != nil {
		t.Fatalf("write stale log: %v", err)
	}
	old := time.Now().AddDate(0, 0, -30)
	if err := os.Chtimes(stale, old, old); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	var console bytes.Buffer
	logger, logPath, err := logging.NewFromConfig(&cfg, &console)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	if logPath == "" || filepath.Dir(logPath) != cfg.Paths.LogDir {
		t.Fatalf("unexpected run log path %q", logPath)
	}

	logger.Debug("file only")
	logger.Info("both")

	if strings.Contains(console.String(), "file only") {
		t.Fatalf("debug line leaked to info console: %q", console.String())
	}
	if !strings.Contains(console.String(), "both") {
		t.Fatalf("expected info line on console, got %q", console.String())
	}
	lines := readLines(t, logPath)
	if len(lines) != 2 {
		t.Fatalf("expected both lines in run log, got %q", lines)
	}
	for _, line := range lines {
		if strings.Contains(line, "pruned") {
			t.Fatalf("pruning leaked into the new run log: %q", lines)
		}
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Fatalf("expected stale run log to be pruned, stat err=%v", err)
	}
}

func TestNewFromConfigWithoutLogDir(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = ""
	var console bytes.Buffer
	logger, logPath, err := logging.NewFromConfig(&cfg, &console)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	if logPath != "" {
		t.Fatalf("expected no run log, got %q", logPath)
	}
	logger.Info("hello")
	if !strings.Contains(console.String(), "hello") {
		t.Fatalf("expected console output, got %q", console.String())
	}
}

func TestRunLogName(t *testing.T) {
	got := logging.RunLogName(time.Date(2024, 3, 5, 7, 8, 9, 0, time.UTC))
	if got != "mrimark-20240305T070809.log" {
		t.Fatalf("got %q want %q", got, "mrimark-20240305T070809.log")
	}
}

func TestNopLogger(t *testing.T) {
	logger := logging.NewNop()
	if logger.Enabled(context.Background(), 12) {
		t.Fatal("nop logger should not be enabled")
	}
	logging.NewComponentLogger(nil, "x").Info("discarded")
}

func TestWarnKeepsExplicitHint(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(&buf, "warn", "console")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logging.Warn(logger, "history_write_failed", "run history not saved", logging.String(logging.FieldErrorHint, "retry"))
	logging.Warn(logger, "unlisted_event", "plain")
	out := buf.String()
	if strings.Count(out, logging.FieldErrorHint+"=") != 1 || !strings.Contains(out, "error_hint=retry") {
		t.Fatalf("unexpected hints in %q", out)
	}
	if !strings.Contains(out, "event_type=unlisted_event") {
		t.Fatalf("missing event type in %q", out)
	}
}
