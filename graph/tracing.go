package graph

import (
	"context"
	"io"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// TracingListener records one OpenTelemetry span per node execution.
type TracingListener[S any] struct {
	tracer trace.Tracer

	mu    sync.Mutex
	spans map[string]trace.Span
}

// NewTracingListener creates a listener starting spans on tracer.
func NewTracingListener[S any](tracer trace.Tracer) *TracingListener[S] {
	return &TracingListener[S]{tracer: tracer, spans: make(map[string]trace.Span)}
}

// OnNodeEvent implements the NodeListener interface
func (t *TracingListener[S]) OnNodeEvent(ctx context.Context, event NodeEvent, nodeName string, _ S, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch event {
	case NodeEventStart:
		_, span := t.tracer.Start(ctx, "node "+nodeName,
			trace.WithAttributes(attribute.String("graph.node", nodeName)))
		t.spans[nodeName] = span
	case NodeEventComplete, NodeEventError:
		span, ok := t.spans[nodeName]
		if !ok {
			return
		}
		delete(t.spans, nodeName)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}
		span.End()
	}
}

// NewStdoutTracerProvider exports spans as JSON to w as soon as they end.
func NewStdoutTracerProvider(w io.Writer) (*sdktrace.TracerProvider, error) {
	exp, err := stdouttrace.New(stdouttrace.WithWriter(w), stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, err
	}
	return sdktrace.NewTracerProvider(sdktrace.WithSyncer(exp)), nil
}
