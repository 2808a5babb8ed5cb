package observability

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"go.opentelemetry.io/otel/trace"
)

const (
	attrTraceID = "trace_id"
	attrSpanID  = "span_id"
	attrService = "service"
	attrEnv     = "env"
	attrMode    = "mode"
)

type logAttrsKey struct{}

// ContextWithLogAttrs returns a context whose log records carry attrs in
// addition to any attached by parent contexts. It lets deep call chains such
// as spread resolution log the locale file they work on without threading a
// logger through every call.
func ContextWithLogAttrs(ctx context.Context, attrs ...slog.Attr) context.Context {
	if len(attrs) == 0 {
		return ctx
	}

	merged := slices.Concat(logAttrsFrom(ctx), attrs)

	return context.WithValue(ctx, logAttrsKey{}, merged)
}

func logAttrsFrom(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}

	attrs, _ := ctx.Value(logAttrsKey{}).([]slog.Attr)

	return attrs
}

// TracingHandler is an [slog.Handler] that adds the active span's trace_id and
// span_id, attributes attached with [ContextWithLogAttrs], and the service
// metadata given at construction.
type TracingHandler struct {
	inner slog.Handler
}

// NewTracingHandler wraps inner. Service metadata is attached before any
// group so it stays at the top level of every record.
func NewTracingHandler(inner slog.Handler, service, env string, appMode AppMode) *TracingHandler {
	attrs := []slog.Attr{
		slog.String(attrService, service),
		slog.String(attrMode, string(appMode)),
	}

	if env != "" {
		attrs = append(attrs, slog.String(attrEnv, env))
	}

	return &TracingHandler{inner: inner.WithAttrs(attrs)}
}

// Enabled delegates to the inner handler.
func (th *TracingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return th.inner.Enabled(ctx, level)
}

// Handle enriches record from ctx, then delegates.
func (th *TracingHandler) Handle(ctx context.Context, record slog.Record) error {
	if attrs := logAttrsFrom(ctx); len(attrs) > 0 {
		record.AddAttrs(attrs...)
	}

	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		record.AddAttrs(
			slog.String(attrTraceID, sc.TraceID().String()),
			slog.String(attrSpanID, sc.SpanID().String()),
		)
	}

	if err := th.inner.Handle(ctx, record); err != nil {
		return fmt.Errorf("tracing handler: %w", err)
	}

	return nil
}

// WithAttrs implements [slog.Handler].
func (th *TracingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &TracingHandler{inner: th.inner.WithAttrs(attrs)}
}

// WithGroup implements [slog.Handler].
func (th *TracingHandler) WithGroup(name string) slog.Handler {
	return &TracingHandler{inner: th.inner.WithGroup(name)}
}
