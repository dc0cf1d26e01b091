package scheduler

import (
	"time"

	"github.com/smallbiznis/brewlink/internal/config"
)

// Config controls where midnight falls and how long the daily lock is held.
type Config struct {
	Location *time.Location
	LockTTL  time.Duration
}

func DefaultConfig() Config {
	return Config{
		Location: time.Local,
		LockTTL:  time.Hour,
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.Location == nil {
		c.Location = defaults.Location
	}
	if c.LockTTL <= 0 {
		c.LockTTL = defaults.LockTTL
	}
	return c
}

func ProvideConfig(cfg config.Config) Config {
	return Config{Location: cfg.Location}.withDefaults()
}
