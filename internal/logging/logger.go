package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"mrimark/internal/config"
)

// New constructs a logger writing to w. Format is "console" (the default) or
// "json"; unknown levels fall back to info. Debug loggers report the caller.
func New(w io.Writer, level, format string) (*slog.Logger, error) {
	handler, err := newHandler(w, level, format)
	if err != nil {
		return nil, err
	}
	return slog.New(handler), nil
}

func newHandler(w io.Writer, level, format string) (slog.Handler, error) {
	levelVar := new(slog.LevelVar)
	levelVar.Set(parseLevel(level))
	addSource := levelVar.Level() <= slog.LevelDebug

	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json":
		return newJSONHandler(w, levelVar, addSource), nil
	case "console", "":
		return newPrettyHandler(w, levelVar, addSource), nil
	default:
		return nil, fmt.Errorf("log format: unsupported value %q", format)
	}
}

// NewFromConfig creates a logger that writes to w in the configured format
// and, when a log directory is set, also writes every record as JSON to a
// per-run file there. It returns the file path, or "" when no file is
// written. Run logs older than the retention window are pruned.
func NewFromConfig(cfg *config.Config, w io.Writer) (*slog.Logger, string, error) {
	if w == nil {
		w = os.Stderr
	}
	if cfg == nil {
		return defaultConsole(w), "", nil
	}

	console, err := newHandler(w, cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return nil, "", err
	}
	dir := strings.TrimSpace(cfg.Paths.LogDir)
	if dir == "" {
		return slog.New(console), "", nil
	}

	file, path, err := openRunLog(dir, time.Now())
	if err != nil {
		return nil, "", err
	}
	// Pruning reports to the console only; a run log holds just its own run.
	pruneRunLogs(slog.New(console), dir, path, cfg.Logging.RetentionDays)
	return slog.New(splitHandler{console: console, runLog: newJSONHandler(file, slog.LevelDebug, false)}), path, nil
}

func defaultConsole(w io.Writer) *slog.Logger {
	levelVar := new(slog.LevelVar)
	return slog.New(newPrettyHandler(w, levelVar, false))
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
