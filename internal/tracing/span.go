package tracing

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/torosent/sockprobe/internal/probe"
	"github.com/torosent/sockprobe/internal/runner"
)

// StartProbeSpan starts a client span for one probe against target.
func StartProbeSpan(ctx context.Context, tracer trace.Tracer, target probe.Target) (context.Context, trace.Span) {
	ctx, span := tracer.Start(ctx, "probe "+target.Address(),
		trace.WithSpanKind(trace.SpanKindClient),
	)
	span.SetAttributes(
		attribute.String("network.transport", "tcp"),
		attribute.String("server.address", target.Host),
		attribute.Int("server.port", target.Port),
	)
	if target.Timeout > 0 {
		span.SetAttributes(attribute.String("sockprobe.timeout", target.Timeout.String()))
	}
	if id, ok := runner.TaskIDFromContext(ctx); ok {
		span.SetAttributes(attribute.Int("sockprobe.task_id", id))
	}
	return ctx, span
}

// EndSpan finishes a span, recording error status if applicable.
func EndSpan(span trace.Span, err error, attrs ...attribute.KeyValue) {
	if len(attrs) > 0 {
		span.SetAttributes(attrs...)
	}
	if err != nil {
		var connErr *probe.ConnectionError
		if errors.As(err, &connErr) {
			span.SetAttributes(
				attribute.String("sockprobe.phase", string(connErr.Phase)),
				attribute.Bool("sockprobe.timeout_expired", connErr.Timeout()),
			)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

type tracedProber struct {
	inner  runner.Prober
	tracer trace.Tracer
}

// WithTracing wraps a Prober so every probe runs inside its own span.
func WithTracing(p runner.Prober, tracer trace.Tracer) runner.Prober {
	if tracer == nil {
		return p
	}
	return &tracedProber{inner: p, tracer: tracer}
}

func (t *tracedProber) Probe(ctx context.Context, target probe.Target) ([]byte, error) {
	ctx, span := StartProbeSpan(ctx, t.tracer, target)
	resp, err := t.inner.Probe(ctx, target)
	EndSpan(span, err, attribute.Int("sockprobe.response_bytes", len(resp)))
	return resp, err
}
