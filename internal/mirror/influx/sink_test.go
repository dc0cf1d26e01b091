package influx

import (
	"testing"
	"time"

	"github.com/smallbiznis/brewlink/internal/config"
	"github.com/smallbiznis/brewlink/internal/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"
)

func TestPoint(t *testing.T) {
	ts := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	water, beans := 55.0, 20.0
	point, ok := Point(telemetry.Sample{
		DeviceID:   3,
		Envelope:   telemetry.Envelope{Timestamp: ts, Data: map[string]any{"status": "idle"}},
		WaterLevel: &water,
		BeansLevel: &beans,
	})
	require.True(t, ok)
	assert.Equal(t, "sensor_data", point.Name())
	assert.True(t, ts.Equal(point.Time()))

	require.Len(t, point.TagList(), 1)
	assert.Equal(t, "device_id", point.TagList()[0].Key)
	assert.Equal(t, "3", point.TagList()[0].Value)

	fields := map[string]interface{}{}
	for _, f := range point.FieldList() {
		fields[f.Key] = f.Value
	}
	assert.Equal(t, map[string]interface{}{"water_level": 55.0, "beans_level": 20.0}, fields)
}

func TestPointWithoutLevels(t *testing.T) {
	_, ok := Point(telemetry.Sample{
		DeviceID: 1,
		Envelope: telemetry.Envelope{Data: map[string]any{"water_level": 40.0, "status": "single_brew_completed"}},
	})
	assert.False(t, ok, "raw data is not consulted")
}

func TestPointSingleLevel(t *testing.T) {
	beans := 12.5
	point, ok := Point(telemetry.Sample{DeviceID: 2, BeansLevel: &beans})
	require.True(t, ok)
	require.Len(t, point.FieldList(), 1)
	assert.Equal(t, "beans_level", point.FieldList()[0].Key)
	assert.Equal(t, 12.5, point.FieldList()[0].Value)
}

func TestNewDisabledOrInvalid(t *testing.T) {
	lc := fxtest.NewLifecycle(t)

	sink, err := New(lc, config.InfluxConfig{}, zap.NewNop())
	require.NoError(t, err)
	assert.Nil(t, sink)

	_, err = New(lc, config.InfluxConfig{Enabled: true, URL: "http://influx:8086"}, zap.NewNop())
	assert.ErrorIs(t, err, ErrMissingSettings)
}
