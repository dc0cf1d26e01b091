package influx

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/smallbiznis/brewlink/internal/config"
	"github.com/smallbiznis/brewlink/internal/telemetry"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const measurement = "sensor_data"

var ErrMissingSettings = errors.New("influx url, org and bucket are required")

// Sink writes level readings as points of the sensor_data measurement.
type Sink struct {
	client influxdb2.Client
	writer api.WriteAPIBlocking
}

// New returns nil when the sink is disabled.
func New(lc fx.Lifecycle, cfg config.InfluxConfig, log *zap.Logger) (*Sink, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	if strings.TrimSpace(cfg.URL) == "" || cfg.Org == "" || cfg.Bucket == "" {
		return nil, ErrMissingSettings
	}

	client := influxdb2.NewClient(cfg.URL, cfg.Token)
	sink := &Sink{
		client: client,
		writer: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ok, err := client.Ping(ctx)
			if err != nil || !ok {
				log.Warn("influx ping failed", zap.String("url", cfg.URL), zap.Error(err))
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			client.Close()
			return nil
		},
	})
	return sink, nil
}

func (s *Sink) Name() string { return "influx" }

func (s *Sink) Mirror(ctx context.Context, sample telemetry.Sample) error {
	point, ok := Point(sample)
	if !ok {
		return nil
	}
	if err := s.writer.WritePoint(ctx, point); err != nil {
		return fmt.Errorf("write point: %w", err)
	}
	return nil
}

// Point converts a sample into a point. It reports false when the sample
// carries no level.
func Point(sample telemetry.Sample) (*write.Point, bool) {
	fields := make(map[string]interface{}, 2)
	if sample.WaterLevel != nil {
		fields["water_level"] = *sample.WaterLevel
	}
	if sample.BeansLevel != nil {
		fields["beans_level"] = *sample.BeansLevel
	}
	if len(fields) == 0 {
		return nil, false
	}

	tags := map[string]string{"device_id": strconv.FormatInt(sample.DeviceID, 10)}
	return influxdb2.NewPoint(measurement, tags, fields, sample.Envelope.Timestamp), true
}
