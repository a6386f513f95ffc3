package logging

import (
	"context"
	"log/slog"
	"time"
)

type Attr = slog.Attr

func Bool(key string, value bool) Attr { return slog.Bool(key, value) }

func Duration(key string, value time.Duration) Attr { return slog.Duration(key, value) }

func Int(key string, value int) Attr { return slog.Int(key, value) }

func String(key string, value string) Attr { return slog.String(key, value) }

func Error(err error) Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	return slog.String("error", err.Error())
}

// Args converts attrs to the variadic form slog.Logger methods accept.
func Args(attrs ...Attr) []any {
	args := make([]any, 0, len(attrs))
	for _, attr := range attrs {
		args = append(args, attr)
	}
	return args
}

func NewNop() *slog.Logger {
	return slog.New(NoopHandler{})
}

// NewComponentLogger tags logger with a component name. A nil logger yields
// a no-op logger.
func NewComponentLogger(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	return logger.With(String(FieldComponent, component))
}

// eventHints holds the default operator hint for each warning event.
var eventHints = map[string]string{
	"cell_unreadable":      "fix or blank the cell; the row is labeled as if it were missing",
	"round_unparseable":    "check the AcquisitionDateTime column for this row",
	"history_write_failed": "check history.path or disable history",
	"subject_unsplit":      "check ingest.split_char against the subject directory names",
	"sidecar_unreadable":   "check the file encoding or re-export the sidecar",
	"series_unplaced":      "check that the labeled table was built from this source tree",
	"log_prune_failed":     "check permissions on paths.log_dir",
}

// Warn logs msg at warn level tagged with eventType. When attrs carry no
// error_hint, the default hint for eventType is added.
func Warn(logger *slog.Logger, eventType, msg string, attrs ...Attr) {
	if logger == nil {
		return
	}
	attrs = append(attrs, String(FieldEventType, eventType))
	if !hasKey(attrs, FieldErrorHint) {
		if hint, ok := eventHints[eventType]; ok {
			attrs = append(attrs, String(FieldErrorHint, hint))
		}
	}
	logger.Warn(msg, Args(attrs...)...)
}

func hasKey(attrs []Attr, key string) bool {
	for _, a := range attrs {
		if a.Key == key {
			return true
		}
	}
	return false
}

// NoopHandler discards all log output.
type NoopHandler struct{}

func (NoopHandler) Enabled(context.Context, slog.Level) bool { return false }

func (NoopHandler) Handle(context.Context, slog.Record) error { return nil }

func (NoopHandler) WithAttrs([]slog.Attr) slog.Handler { return NoopHandler{} }

func (NoopHandler) WithGroup(string) slog.Handler { return NoopHandler{} }
