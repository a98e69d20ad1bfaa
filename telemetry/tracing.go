// OpenTelemetry tracing support for command and dispatch observability.
package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/contactdesk/deskcore/errors"
)

// Tracer wraps OpenTelemetry tracing with task-specific helpers.
type Tracer struct {
	tracer trace.Tracer
}

// NewTracer creates a new tracer with the given name.
func NewTracer(name string) *Tracer {
	return &Tracer{tracer: otel.Tracer(name)}
}

// NewNoopTracer returns a tracer that records nothing.
func NewNoopTracer() *Tracer {
	return &Tracer{tracer: trace.NewNoopTracerProvider().Tracer("")}
}

// StartSpan starts a new span with the given name.
func (t *Tracer) StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, name, opts...)
}

// --- Command spans ---

// CommandSpanOptions contains attributes for a command span.
type CommandSpanOptions struct {
	TaskID      string
	MediaType   string
	Destination string
	TrackingID  string
}

// StartCommandSpan starts a span for one task command.
func (t *Tracer) StartCommandSpan(ctx context.Context, op string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "command."+op, trace.WithSpanKind(trace.SpanKindClient))
}

// EndCommandSpan ends a command span with its outcome.
func (t *Tracer) EndCommandSpan(span trace.Span, opts CommandSpanOptions, err error) {
	attrs := []attribute.KeyValue{
		attribute.String("task.id", opts.TaskID),
		attribute.String("task.media_type", opts.MediaType),
	}
	if opts.Destination != "" {
		attrs = append(attrs, attribute.String("command.destination", opts.Destination))
	}
	if opts.TrackingID != "" {
		attrs = append(attrs, attribute.String("command.tracking_id", opts.TrackingID))
	}

	if err != nil {
		attrs = append(attrs,
			attribute.String("error.code", errors.Code(err).String()),
			attribute.String("error.category", errors.Category(err).String()),
		)
		if rc := errors.ReasonCode(err); rc != 0 {
			attrs = append(attrs, attribute.Int("error.reason_code", rc))
		}
	}

	span.SetAttributes(attrs...)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}

	span.End()
}

// --- Dispatch spans ---

// StartDispatchSpan starts a span for dispatching one notification.
func (t *Tracer) StartDispatchSpan(ctx context.Context, eventType, taskID string) (context.Context, trace.Span) {
	ctx, span := t.tracer.Start(ctx, "dispatch."+eventType, trace.WithSpanKind(trace.SpanKindConsumer))
	span.SetAttributes(
		attribute.String("event.type", eventType),
		attribute.String("task.id", taskID),
	)
	return ctx, span
}

// EndDispatchSpan ends a dispatch span.
func (t *Tracer) EndDispatchSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// --- Context Propagation ---

// InjectContext injects trace context into a carrier for cross-process propagation.
func InjectContext(ctx context.Context, carrier propagation.TextMapCarrier) {
	otel.GetTextMapPropagator().Inject(ctx, carrier)
}

// ExtractContext extracts trace context from a carrier.
func ExtractContext(ctx context.Context, carrier propagation.TextMapCarrier) context.Context {
	return otel.GetTextMapPropagator().Extract(ctx, carrier)
}

// MapCarrier is a simple map-based TextMapCarrier for context propagation.
type MapCarrier map[string]string

func (c MapCarrier) Get(key string) string {
	return c[key]
}

func (c MapCarrier) Set(key, value string) {
	c[key] = value
}

func (c MapCarrier) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	return keys
}
