package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGatewaySettingsHolderDefaultsWithoutFile(t *testing.T) {
	chdir(t, t.TempDir())

	holder, err := NewGatewaySettingsHolder()
	require.NoError(t, err)
	assert.Equal(t, DefaultGatewaySettings(), holder.Get())
}

func TestNewGatewaySettingsHolderReadsFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	content := []byte("gateway:\n  historyCapacity: 10\n  reconnectDelay: 2s\n  quotaResetValue: 6\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "gateway.yml"), content, 0o600))

	holder, err := NewGatewaySettingsHolder()
	require.NoError(t, err)

	got := holder.Get()
	assert.Equal(t, 10, got.HistoryCapacity)
	assert.Equal(t, 2*time.Second, got.ReconnectDelay)
	assert.Equal(t, 6, got.QuotaResetValue)
	assert.Equal(t, 5*time.Second, got.PublishTimeout)
}

func TestNewGatewaySettingsHolderRejectsInvalidFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	content := []byte("gateway:\n  historyCapacity: 0\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "gateway.yml"), content, 0o600))

	_, err := NewGatewaySettingsHolder()
	require.Error(t, err)
}

func TestNilHolderFallsBackToDefaults(t *testing.T) {
	var holder *GatewaySettingsHolder
	assert.Equal(t, DefaultGatewaySettings(), holder.Get())
}

func TestLoadReadsMQTTEnv(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("MQTT_BROKER_HOST", "broker.local")
	t.Setenv("MQTT_BROKER_PORT", "8883")
	t.Setenv("DEFAULT_DEVICE_ID", "42")
	t.Setenv("TZ_LOCATION", "Europe/Prague")

	cfg := Load()
	assert.Equal(t, "broker.local", cfg.MQTT.BrokerHost)
	assert.Equal(t, 8883, cfg.MQTT.BrokerPort)
	assert.Equal(t, "coffee_machine/#", cfg.MQTT.Topic)
	assert.Equal(t, int64(42), cfg.DefaultDeviceID)
	assert.Equal(t, "Europe/Prague", cfg.Location.String())
}

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
