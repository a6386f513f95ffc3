package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const runLogPattern = "mrimark-*.log"

// RunLogName returns the per-run log file name for the given start time.
func RunLogName(started time.Time) string {
	return "mrimark-" + started.UTC().Format("20060102T150405") + ".log"
}

func openRunLog(dir string, started time.Time) (*os.File, string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, "", fmt.Errorf("ensure log directory: %w", err)
	}
	path := filepath.Join(dir, RunLogName(started))
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, "", fmt.Errorf("open run log %s: %w", path, err)
	}
	return file, path, nil
}

// newJSONHandler writes one JSON object per record with a UTC "ts" key and
// lowercase levels.
func newJSONHandler(w io.Writer, lvl slog.Leveler, addSource bool) slog.Handler {
	return slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:     lvl,
		AddSource: addSource,
		ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
			if len(groups) > 0 {
				return attr
			}
			switch attr.Key {
			case slog.TimeKey:
				attr.Key = "ts"
				attr.Value = slog.StringValue(attr.Value.Time().UTC().Format(time.RFC3339Nano))
			case slog.LevelKey:
				attr.Value = slog.StringValue(strings.ToLower(attr.Value.String()))
			case slog.SourceKey:
				if src, ok := attr.Value.Any().(*slog.Source); ok && src != nil {
					attr.Value = slog.StringValue(fmt.Sprintf("%s:%d", filepath.Base(src.File), src.Line))
				}
			}
			return attr
		},
	})
}

// splitHandler sends records at or above the console level to the console
// and every record to the run log.
type splitHandler struct {
	console slog.Handler
	runLog  slog.Handler
}

func (h splitHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.runLog.Enabled(ctx, level) || h.console.Enabled(ctx, level)
}

func (h splitHandler) Handle(ctx context.Context, record slog.Record) error {
	var consoleErr error
	if h.console.Enabled(ctx, record.Level) {
		consoleErr = h.console.Handle(ctx, record.Clone())
	}
	if h.runLog.Enabled(ctx, record.Level) {
		if err := h.runLog.Handle(ctx, record); err != nil {
			return err
		}
	}
	return consoleErr
}

func (h splitHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return splitHandler{console: h.console.WithAttrs(attrs), runLog: h.runLog.WithAttrs(attrs)}
}

func (h splitHandler) WithGroup(name string) slog.Handler {
	return splitHandler{console: h.console.WithGroup(name), runLog: h.runLog.WithGroup(name)}
}

// pruneRunLogs removes run logs in dir last modified more than retentionDays
// ago, never touching keep. A retentionDays of 0 keeps everything.
func pruneRunLogs(logger *slog.Logger, dir, keep string, retentionDays int) int {
	if retentionDays <= 0 {
		return 0
	}
	matches, err := filepath.Glob(filepath.Join(dir, runLogPattern))
	if err != nil {
		return 0
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	removed := 0
	for _, path := range matches {
		if path == keep {
			continue
		}
		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() || !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(path); err != nil {
			Warn(logger, "log_prune_failed", "run log not pruned", String("path", path), Error(err))
			continue
		}
		removed++
		logger.Debug("run log pruned", String("path", path))
	}
	return removed
}
