package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics exposes application-level instruments.
type Metrics struct {
	commands   metric.Int64Counter
	telemetry  metric.Int64Counter
	sideEffect metric.Int64Counter
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				if log != nil {
					log.Info("shutting down meter provider")
				}
				return provider.Shutdown(ctx)
			},
		})
	}

	if log != nil {
		log.Info("metrics initialized",
			zap.String("endpoint", cfg.ExporterEndpoint),
			zap.String("protocol", cfg.ExporterProtocol),
		)
	}

	return provider, nil
}

// New configures the domain metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "brewlink"
	}
	meter := provider.Meter(name)

	commands, err := meter.Int64Counter("brewlink_commands_total")
	if err != nil {
		return nil, err
	}
	telemetry, err := meter.Int64Counter("brewlink_telemetry_messages_total")
	if err != nil {
		return nil, err
	}
	sideEffect, err := meter.Int64Counter("brewlink_telemetry_side_effects_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		commands:   commands,
		telemetry:  telemetry,
		sideEffect: sideEffect,
	}, nil
}

// RecordCommand counts a dispatch attempt by action and outcome.
func (m *Metrics) RecordCommand(ctx context.Context, action, outcome, reason string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("action", strings.TrimSpace(action)),
		attribute.String("outcome", strings.TrimSpace(outcome)),
		attribute.String("reason", strings.TrimSpace(reason)),
	)
	m.commands.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordTelemetry counts an inbound message by topic kind and decode result.
func (m *Metrics) RecordTelemetry(ctx context.Context, topicKind, result string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("topic_kind", strings.TrimSpace(topicKind)),
		attribute.String("result", strings.TrimSpace(result)),
	)
	m.telemetry.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordSideEffect counts a persistence side effect applied from telemetry.
func (m *Metrics) RecordSideEffect(ctx context.Context, effect, result string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("effect", strings.TrimSpace(effect)),
		attribute.String("result", strings.TrimSpace(result)),
	)
	m.sideEffect.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	protocol = strings.ToLower(strings.TrimSpace(protocol))
	switch protocol {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{}
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(context.Background(), opts...)
	case "grpc", "grpc/protobuf", "":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(context.Background(), opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
	}
}

var allowedLabelKeys = map[attribute.Key]struct{}{
	"action":     {},
	"outcome":    {},
	"reason":     {},
	"topic_kind": {},
	"result":     {},
	"effect":     {},
}

// FilterAttributes strips disallowed labels to keep metrics low-cardinality.
func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, ok := allowedLabelKeys[attr.Key]; !ok {
			continue
		}
		filtered = append(filtered, attr)
	}
	return filtered
}
