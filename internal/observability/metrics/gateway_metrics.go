package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	TopicKindSensorData = "sensor_data"
	TopicKindOther      = "other"

	MessageResultAccepted     = "accepted"
	MessageResultDecodeFailed = "decode_failed"
	MessageResultIgnored      = "ignored"
)

// GatewayMetrics captures transport gateway health signals.
type GatewayMetrics struct {
	messages         *prometheus.CounterVec
	sideEffectErrors *prometheus.CounterVec
	reconnects       prometheus.Counter
	connectionState  prometheus.Gauge
	commands         *prometheus.CounterVec
	historySize      prometheus.Gauge
}

var (
	gatewayMetricsOnce sync.Once
	gatewayMetrics     *GatewayMetrics
)

// Gateway returns the singleton gateway metrics registry.
func Gateway() *GatewayMetrics {
	return GatewayWithConfig(Config{})
}

// GatewayWithConfig returns the singleton gateway metrics registry using config labels.
func GatewayWithConfig(cfg Config) *GatewayMetrics {
	gatewayMetricsOnce.Do(func() {
		gatewayMetrics = newGatewayMetrics(prometheus.DefaultRegisterer, cfg)
	})
	return gatewayMetrics
}

// ResetGatewayMetricsForTest resets the gateway metrics singleton for tests.
func ResetGatewayMetricsForTest() {
	gatewayMetricsOnce = sync.Once{}
	gatewayMetrics = nil
}

func newGatewayMetrics(registerer prometheus.Registerer, cfg Config) *GatewayMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	constLabels := constLabelsFor(cfg)

	messages := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "brewlink_gateway_messages_total",
		Help:        "Inbound transport messages by topic kind and result.",
		ConstLabels: constLabels,
	}, []string{"topic_kind", "result"})
	sideEffectErrors := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "brewlink_gateway_side_effect_errors_total",
		Help:        "Persistence side effects abandoned during ingestion.",
		ConstLabels: constLabels,
	}, []string{"effect", "reason"})
	reconnects := prometheus.NewCounter(prometheus.CounterOpts{
		Name:        "brewlink_gateway_reconnects_total",
		Help:        "Reconnect attempts after a transport error.",
		ConstLabels: constLabels,
	})
	connectionState := prometheus.NewGauge(prometheus.GaugeOpts{
		Name:        "brewlink_gateway_state",
		Help:        "Gateway connection state (0 disconnected, 1 connecting, 2 listening).",
		ConstLabels: constLabels,
	})
	commands := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "brewlink_gateway_commands_total",
		Help:        "Command dispatches by action and outcome.",
		ConstLabels: constLabels,
	}, []string{"action", "outcome"})
	historySize := prometheus.NewGauge(prometheus.GaugeOpts{
		Name:        "brewlink_gateway_history_size",
		Help:        "Envelopes currently held in the telemetry history.",
		ConstLabels: constLabels,
	})

	registerer.MustRegister(
		messages,
		sideEffectErrors,
		reconnects,
		connectionState,
		commands,
		historySize,
	)

	return &GatewayMetrics{
		messages:         messages,
		sideEffectErrors: sideEffectErrors,
		reconnects:       reconnects,
		connectionState:  connectionState,
		commands:         commands,
		historySize:      historySize,
	}
}

func (m *GatewayMetrics) IncMessage(topicKind, result string) {
	if m == nil || m.messages == nil {
		return
	}
	m.messages.WithLabelValues(topicKind, result).Inc()
}

func (m *GatewayMetrics) IncSideEffectError(effect string, err error) {
	if m == nil || m.sideEffectErrors == nil || err == nil {
		return
	}
	m.sideEffectErrors.WithLabelValues(effect, ClassifyReason(err)).Inc()
}

func (m *GatewayMetrics) IncReconnect() {
	if m == nil || m.reconnects == nil {
		return
	}
	m.reconnects.Inc()
}

func (m *GatewayMetrics) SetState(state int) {
	if m == nil || m.connectionState == nil {
		return
	}
	m.connectionState.Set(float64(state))
}

func (m *GatewayMetrics) IncCommand(action, outcome string) {
	if m == nil || m.commands == nil {
		return
	}
	m.commands.WithLabelValues(normalizeAction(action), outcome).Inc()
}

func (m *GatewayMetrics) SetHistorySize(size int) {
	if m == nil || m.historySize == nil {
		return
	}
	m.historySize.Set(float64(size))
}

var knownActions = map[string]struct{}{
	"single_brew":  {},
	"double_brew":  {},
	"power_toggle": {},
	"cleaning":     {},
	"read_sensors": {},
}

// normalizeAction folds caller-supplied actions into "custom" to keep the
// label set bounded.
func normalizeAction(action string) string {
	if _, ok := knownActions[action]; ok {
		return action
	}
	return "custom"
}
