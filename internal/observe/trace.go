package observe

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// tracerName is the instrumentation scope of every voxbook span.
const tracerName = "github.com/MrWong99/voxbook"

// Span names produced by the booking pipeline.
const (
	SpanParse    = "intake.parse"
	SpanConflict = "conflict.check"
	SpanSession  = "session.run"
)

// Attribute keys shared by spans and log lines.
const (
	KeyLanguage  = attribute.Key("voxbook.language")
	KeyTeamID    = attribute.Key("voxbook.team_id")
	KeyHasTime   = attribute.Key("voxbook.has_time")
	KeySessionID = attribute.Key("voxbook.session_id")
	KeyConflicts = attribute.Key("voxbook.conflicts")
	KeyOutcome   = attribute.Key("voxbook.outcome")
)

// StartSpan starts a span on the global tracer provider. Callers end it
// with [EndSpan] or span.End.
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracer().Start(ctx, name, trace.WithAttributes(attrs...))
}

func tracer() trace.Tracer { return otel.Tracer(tracerName) }

// EndSpan records err on span, if any, and ends it.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

type sessionKey struct{}

// WithSessionID tags ctx with a voice session ID. [Logger] and spans
// started below ctx pick it up.
func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionKey{}, id)
}

// SessionID returns the ID set by [WithSessionID], or "".
func SessionID(ctx context.Context) string {
	id, _ := ctx.Value(sessionKey{}).(string)
	return id
}

// CorrelationID returns the trace ID of the span in ctx, or "" without one.
// It is the value of the X-Correlation-ID response header.
func CorrelationID(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if sc.HasTraceID() {
		return sc.TraceID().String()
	}
	return ""
}

// Logger returns the default logger with trace_id, span_id and session_id
// attached when ctx carries them.
func Logger(ctx context.Context) *slog.Logger {
	l := slog.Default()
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		l = l.With(
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}
	if id := SessionID(ctx); id != "" {
		l = l.With(slog.String("session_id", id))
	}
	return l
}
