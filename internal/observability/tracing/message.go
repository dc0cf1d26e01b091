package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const gatewayTracer = "brewlink/gateway"

// StartMessage opens a consumer span for one inbound MQTT message.
func StartMessage(ctx context.Context, topic string) (context.Context, trace.Span) {
	return otel.Tracer(gatewayTracer).Start(ctx, "mqtt receive "+topic,
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("messaging.system", "mqtt"),
			attribute.String("messaging.destination.name", topic),
		),
	)
}

// StartCommand opens a producer span for one dispatched command.
func StartCommand(ctx context.Context, deviceID int64, action string) (context.Context, trace.Span) {
	return otel.Tracer(gatewayTracer).Start(ctx, "command "+action,
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			attribute.String("messaging.system", "mqtt"),
			attribute.Int64("device_id", deviceID),
			attribute.String("command.action", action),
		),
	)
}

// EndSpan records err, when present, and ends span.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		if safeErr := SafeError(err); safeErr != nil {
			span.RecordError(safeErr)
		}
		span.SetStatus(codes.Error, "failed")
	}
	span.End()
}
