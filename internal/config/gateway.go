package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// GatewaySettings are the tunables of the telemetry gateway and the quota
// reset job. They can be changed at runtime through gateway.yml.
type GatewaySettings struct {
	HistoryCapacity    int           `mapstructure:"historyCapacity"`
	ReconnectDelay     time.Duration `mapstructure:"reconnectDelay"`
	PublishTimeout     time.Duration `mapstructure:"publishTimeout"`
	PersistenceTimeout time.Duration `mapstructure:"persistenceTimeout"`
	QuotaResetValue    int           `mapstructure:"quotaResetValue"`
	ResetJobTimeout    time.Duration `mapstructure:"resetJobTimeout"`
}

func DefaultGatewaySettings() GatewaySettings {
	return GatewaySettings{
		HistoryCapacity:    100,
		ReconnectDelay:     5 * time.Second,
		PublishTimeout:     5 * time.Second,
		PersistenceTimeout: 5 * time.Second,
		QuotaResetValue:    4,
		ResetJobTimeout:    30 * time.Second,
	}
}

type GatewaySettingsHolder struct {
	current atomic.Value // holds GatewaySettings
}

// NewStaticGatewaySettingsHolder returns a holder that never reloads.
func NewStaticGatewaySettingsHolder(settings GatewaySettings) *GatewaySettingsHolder {
	holder := &GatewaySettingsHolder{}
	holder.current.Store(settings)
	return holder
}

func NewGatewaySettingsHolder() (*GatewaySettingsHolder, error) {
	v := viper.New()

	v.SetConfigName("gateway")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/brewlink/config")
	v.AddConfigPath("/etc/brewlink")
	v.AddConfigPath(".")

	v.SetEnvPrefix("BREWLINK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultGatewaySettings()
	v.SetDefault("gateway.historyCapacity", defaults.HistoryCapacity)
	v.SetDefault("gateway.reconnectDelay", defaults.ReconnectDelay)
	v.SetDefault("gateway.publishTimeout", defaults.PublishTimeout)
	v.SetDefault("gateway.persistenceTimeout", defaults.PersistenceTimeout)
	v.SetDefault("gateway.quotaResetValue", defaults.QuotaResetValue)
	v.SetDefault("gateway.resetJobTimeout", defaults.ResetJobTimeout)

	fileLoaded := true
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		fileLoaded = false
	}

	settings, err := decodeGatewaySettings(v)
	if err != nil {
		return nil, err
	}
	if err := validateGatewaySettings(settings); err != nil {
		return nil, err
	}

	holder := &GatewaySettingsHolder{}
	holder.current.Store(settings)

	if fileLoaded {
		v.WatchConfig()
		v.OnConfigChange(func(e fsnotify.Event) {
			updated, err := decodeGatewaySettings(v)
			if err != nil {
				log.Printf("[gateway-config] reload failed: %v", err)
				return
			}
			if err := validateGatewaySettings(updated); err != nil {
				log.Printf("[gateway-config] invalid config ignored: %v", err)
				return
			}
			holder.current.Store(updated)
			log.Printf("[gateway-config] reloaded from %s", e.Name)
		})
	}

	return holder, nil
}

func (h *GatewaySettingsHolder) Get() GatewaySettings {
	if h == nil {
		return DefaultGatewaySettings()
	}
	return h.current.Load().(GatewaySettings)
}

// decodeGatewaySettings unmarshals the merged settings tree so keys missing
// from gateway.yml keep their defaults.
func decodeGatewaySettings(v *viper.Viper) (GatewaySettings, error) {
	var root struct {
		Gateway GatewaySettings `mapstructure:"gateway"`
	}
	if err := v.Unmarshal(&root); err != nil {
		return GatewaySettings{}, err
	}
	return root.Gateway, nil
}

func validateGatewaySettings(s GatewaySettings) error {
	if s.HistoryCapacity <= 0 {
		return errors.New("gateway.historyCapacity must be positive")
	}
	if s.ReconnectDelay <= 0 {
		return errors.New("gateway.reconnectDelay must be positive")
	}
	if s.PublishTimeout <= 0 || s.PersistenceTimeout <= 0 || s.ResetJobTimeout <= 0 {
		return errors.New("gateway timeouts must be positive")
	}
	if s.QuotaResetValue < 0 {
		return errors.New("gateway.quotaResetValue cannot be negative")
	}
	return nil
}
