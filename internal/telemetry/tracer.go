package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Tracer wraps an OTel tracer with a minimal start/end contract so callers
// don't need to import the trace API directly.
//
// Grounded on internal/agent/otel.go's OTELTracer: a
// package-scoped tracer plus a Start that returns a context and an end
// closure taking the call's error, so callers can `defer end(err)` instead
// of juggling span.End/span.RecordError by hand.
type Tracer struct {
	tracer trace.Tracer
}

// NewTracer returns a Tracer scoped to name (typically the calling package).
// Safe to call even when Setup was never invoked: otel.Tracer then returns
// a no-op tracer, so spans are simply discarded.
func NewTracer(name string) *Tracer {
	return &Tracer{tracer: otel.Tracer(name)}
}

// Start begins a span named name carrying attrs as string attributes. The
// returned func must be called exactly once, with the operation's error
// (or nil), to end the span.
func (t *Tracer) Start(ctx context.Context, name string, attrs map[string]any) (context.Context, func(err error)) {
	kvs := make([]attribute.KeyValue, 0, len(attrs))
	for k, v := range attrs {
		kvs = append(kvs, attribute.String(k, fmt.Sprint(v)))
	}
	ctx, span := t.tracer.Start(ctx, name, trace.WithAttributes(kvs...))
	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
		}
		span.End()
	}
}
