package logging

import (
	"context"
	"log/slog"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldRunID identifies one classify run; it matches the history row.
	FieldRunID = "run_id"
	// FieldPass names the labeling pass that emitted the line.
	FieldPass = "pass"
	// FieldPID is the subject identifier of the record being reported.
	FieldPID = "pid"
	// FieldRow is the zero-based data row of the record being reported.
	FieldRow = "row"
	// FieldEventType classifies warnings and notable events.
	FieldEventType = "event_type"
	// FieldErrorHint suggests a next step for the operator.
	FieldErrorHint = "error_hint"
)

type contextKey string

const (
	runIDKey contextKey = "run_id"
	passKey  contextKey = "pass"
)

// WithRunID stores the run identifier on ctx.
func WithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext returns the run identifier stored by WithRunID.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(runIDKey).(string)
	return id, ok && id != ""
}

// WithPass stores the active pass name on ctx.
func WithPass(ctx context.Context, pass string) context.Context {
	return context.WithValue(ctx, passKey, pass)
}

// PassFromContext returns the pass name stored by WithPass.
func PassFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	pass, ok := ctx.Value(passKey).(string)
	return pass, ok && pass != ""
}

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 2)
	if id, ok := RunIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldRunID, id))
	}
	if pass, ok := PassFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldPass, pass))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(Args(fields...)...)
}
