package tracing

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// tracer is installed once by the provider at startup; repositories and the
// generation pipeline read it on every call.
var tracer trace.Tracer

// SetTracer installs the tracer. Passing nil turns every span into a no-op and
// blanks the trace ids written to error bodies and document.generated events.
func SetTracer(t trace.Tracer) {
	tracer = t
}

// recordingContext returns the span context on ctx when tracing is enabled
// and the span carries real ids.
func recordingContext(ctx context.Context) (trace.SpanContext, bool) {
	if tracer == nil {
		return trace.SpanContext{}, false
	}
	sc := trace.SpanContextFromContext(ctx)
	return sc, sc.IsValid()
}

// GetActiveSpan returns the span on ctx, or nil when there is nothing to report.
func GetActiveSpan(ctx context.Context) trace.Span {
	if _, ok := recordingContext(ctx); !ok {
		return nil
	}
	return trace.SpanFromContext(ctx)
}

// StartSpan opens a child span named after the repository or pipeline step.
// Attributes such as the template id or action can be attached up front.
func StartSpan(ctx context.Context, spanName string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return tracer.Start(ctx, spanName, trace.WithAttributes(attrs...))
}

// GetTraceParent renders the W3C traceparent header that is copied onto
// outgoing document.generated messages.
func GetTraceParent(ctx context.Context) string {
	if _, ok := recordingContext(ctx); !ok {
		return ""
	}
	carrier := propagation.MapCarrier{}
	propagation.TraceContext{}.Inject(ctx, carrier)
	return carrier.Get("traceparent")
}

// GetTraceID is the id echoed in error responses and generation events.
func GetTraceID(ctx context.Context) string {
	sc, ok := recordingContext(ctx)
	if !ok {
		return ""
	}
	return sc.TraceID().String()
}

func GetSpanID(ctx context.Context) string {
	sc, ok := recordingContext(ctx)
	if !ok {
		return ""
	}
	return sc.SpanID().String()
}
