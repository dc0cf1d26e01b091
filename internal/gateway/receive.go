package gateway

import (
	"context"
	"errors"
	"time"

	"github.com/smallbiznis/brewlink/internal/device/domain"
	obscontext "github.com/smallbiznis/brewlink/internal/observability/context"
	"github.com/smallbiznis/brewlink/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/brewlink/internal/observability/metrics"
	"github.com/smallbiznis/brewlink/internal/observability/tracing"
	"github.com/smallbiznis/brewlink/internal/telemetry"
	"github.com/smallbiznis/brewlink/pkg/telemetry/correlation"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

const (
	effectDecrementQuota = "decrement_quota"
	effectSetCleaning    = "set_last_cleaning"
	effectSetPower       = "set_power_state"
	effectInsertReading  = "insert_sensor_reading"
	effectMirrorPrefix   = "mirror_"
)

// run is the receive loop. It owns reconnection until ctx is cancelled.
func (g *Gateway) run(ctx context.Context, session Session, done chan struct{}) {
	defer close(done)
	ctx = obscontext.WithComponent(ctx, "gateway")

	for {
		err := g.listen(ctx, session)
		if ctx.Err() != nil {
			return
		}

		g.log.Error("transport receive failed", zap.Error(err))
		g.mu.Lock()
		g.session = nil
		g.state = StateDisconnected
		g.mu.Unlock()
		g.prom.SetState(int(StateDisconnected))
		if closeErr := session.Close(); closeErr != nil {
			g.log.Debug("close broken session", zap.Error(closeErr))
		}

		session = g.reconnect(ctx)
		if session == nil {
			return
		}
	}
}

// listen processes messages one at a time until Receive fails.
func (g *Gateway) listen(ctx context.Context, session Session) error {
	for {
		msg, err := session.Receive(ctx)
		if err != nil {
			return err
		}
		g.handle(ctx, msg)
	}
}

// reconnect waits the configured delay and dials again until it succeeds or
// ctx is cancelled. There is no backoff and no attempt cap.
func (g *Gateway) reconnect(ctx context.Context) Session {
	for attempt := 1; ; attempt++ {
		delay := g.currentSettings().ReconnectDelay
		g.log.Info("reconnecting", zap.Duration("delay", delay), zap.Int("attempt", attempt))
		select {
		case <-ctx.Done():
			return nil
		case <-g.clock.After(delay):
		}

		g.setState(StateConnecting)
		g.prom.IncReconnect()
		session, err := g.establish(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			g.log.Warn("reconnect failed", zap.Error(err), zap.Int("attempt", attempt))
			g.setState(StateDisconnected)
			continue
		}

		g.mu.Lock()
		if ctx.Err() != nil {
			g.mu.Unlock()
			_ = session.Close()
			return nil
		}
		g.session = session
		g.state = StateListening
		g.mu.Unlock()
		g.prom.SetState(int(StateListening))
		g.log.Info("reconnected", zap.Int("attempt", attempt))
		return session
	}
}

func (g *Gateway) handle(ctx context.Context, msg Message) {
	ctx, span := tracing.StartMessage(ctx, msg.Topic)
	defer span.End()

	topicKind := obsmetrics.TopicKindOther
	if msg.Topic == SensorDataTopic {
		topicKind = obsmetrics.TopicKindSensorData
	}

	data, err := DecodeObject(msg.Payload)
	if err != nil {
		g.log.Warn("drop undecodable message",
			zap.String("topic", msg.Topic),
			zap.ByteString("payload", msg.Payload),
			zap.Error(err),
		)
		g.recordMessage(ctx, topicKind, obsmetrics.MessageResultDecodeFailed)
		return
	}

	if msg.Topic != SensorDataTopic {
		g.log.Debug("message received", zap.String("topic", msg.Topic), zap.ByteString("payload", msg.Payload))
		g.recordMessage(ctx, topicKind, obsmetrics.MessageResultIgnored)
		return
	}

	env := telemetry.Envelope{
		ID:        g.genID.Generate(),
		Topic:     msg.Topic,
		Timestamp: g.clock.Now(),
		Data:      data,
	}
	g.cache.Record(env)
	g.prom.SetHistorySize(g.cache.Len())
	g.recordMessage(ctx, topicKind, obsmetrics.MessageResultAccepted)

	payload := DecodeSensorPayload(data)
	deviceID := g.defaultDeviceID
	if payload.DeviceID != nil {
		deviceID = *payload.DeviceID
	}
	ctx, _ = correlation.ContextForMessage(ctx, data, env.ID.String())
	log := logger.WithDevice(logger.WithContext(ctx, g.log), deviceID).With(zap.Stringer("envelope_id", env.ID))
	log.Debug("sensor data received", zap.ByteString("payload", msg.Payload))

	g.applySideEffects(ctx, log, deviceID, env, payload, msg.Payload)
	g.mirror(ctx, log, telemetry.Sample{
		DeviceID:   deviceID,
		Envelope:   env,
		WaterLevel: payload.WaterLevel,
		BeansLevel: payload.BeansLevel,
	})
}

// applySideEffects writes device state derived from one message. Each effect
// runs under its own timeout and a failure only abandons that effect.
func (g *Gateway) applySideEffects(ctx context.Context, log *zap.Logger, deviceID int64, env telemetry.Envelope, payload SensorPayload, raw []byte) {
	if brew, ok := payload.Status.(BrewCompleted); ok {
		g.effect(ctx, log, effectDecrementQuota, func(ctx context.Context) error {
			return g.repo.DecrementQuota(ctx, deviceID, brew.Count)
		})
	}

	if payload.CleaningCompleted() {
		g.effect(ctx, log, effectSetCleaning, func(ctx context.Context) error {
			return g.repo.SetLastCleaning(ctx, deviceID, env.Timestamp)
		})
	}

	if on, ok := payload.PowerReport(); ok {
		g.effect(ctx, log, effectSetPower, func(ctx context.Context) error {
			return g.repo.SetPowerState(ctx, deviceID, on)
		})
	}

	if payload.HasLevels() {
		g.effect(ctx, log, effectInsertReading, func(ctx context.Context) error {
			return g.repo.InsertSensorReading(ctx, &domain.SensorReading{
				DeviceID:   deviceID,
				WaterLevel: payload.WaterLevel,
				BeansLevel: payload.BeansLevel,
				Timestamp:  env.Timestamp,
				Payload:    datatypes.JSON(raw),
			})
		})
	}
}

func (g *Gateway) mirror(ctx context.Context, log *zap.Logger, sample telemetry.Sample) {
	for _, sink := range g.sinks {
		g.effect(ctx, log, effectMirrorPrefix+sink.Name(), func(ctx context.Context) error {
			return sink.Mirror(ctx, sample)
		})
	}
}

func (g *Gateway) effect(ctx context.Context, log *zap.Logger, name string, fn func(ctx context.Context) error) {
	timeout := g.currentSettings().PersistenceTimeout
	effectCtx, cancel := g.withTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	err := fn(effectCtx)
	if err == nil {
		g.metrics.RecordSideEffect(ctx, name, "ok")
		return
	}
	if ctx.Err() != nil && errors.Is(err, context.Canceled) {
		return
	}

	g.prom.IncSideEffectError(name, err)
	g.metrics.RecordSideEffect(ctx, name, "error")
	log.Error("side effect abandoned",
		zap.String("effect", name),
		zap.Duration("elapsed", time.Since(start)),
		zap.Error(err),
	)
}

func (g *Gateway) recordMessage(ctx context.Context, topicKind, result string) {
	g.prom.IncMessage(topicKind, result)
	g.metrics.RecordTelemetry(ctx, topicKind, result)
}
