package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string

	OTLPEndpoint string

	DBType            string
	DBURL             string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int

	MQTT MQTTConfig

	// DefaultDeviceID is the device inbound telemetry is attributed to when
	// the payload carries no device_id.
	DefaultDeviceID int64
	// SeedDefaultDevice inserts DefaultDeviceID at startup when it is missing.
	SeedDefaultDevice bool

	Redis  RedisConfig
	Influx InfluxConfig

	SchedulerEnabled bool
	Location         *time.Location
}

type MQTTConfig struct {
	BrokerHost string
	BrokerPort int
	Topic      string
	ClientID   string
	Username   string
	Password   string
}

type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
}

type InfluxConfig struct {
	Enabled bool
	URL     string
	Token   string
	Org     string
	Bucket  string
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		AppName:           getenv("APP_SERVICE", "brewlink"),
		AppVersion:        getenv("APP_VERSION", "0.1.0"),
		Environment:       getenv("ENVIRONMENT", "development"),
		HTTPAddr:          getenv("HTTP_ADDR", ":8080"),
		OTLPEndpoint:      getenv("OTLP_ENDPOINT", "localhost:4317"),
		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBURL:             strings.TrimSpace(getenv("DATABASE_URL", "")),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "coffee"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", "postgres"),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 20),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 300),
		DBConnMaxIdleTime: getenvInt("DATABASE_CONN_MAX_IDLE_TIME", 60),
		MQTT: MQTTConfig{
			BrokerHost: getenv("MQTT_BROKER_HOST", "mqtt"),
			BrokerPort: getenvInt("MQTT_BROKER_PORT", 1883),
			Topic:      getenv("MQTT_TOPIC", "coffee_machine/#"),
			ClientID:   getenv("MQTT_CLIENT_ID", "brewlink-gateway"),
			Username:   strings.TrimSpace(getenv("MQTT_USERNAME", "")),
			Password:   strings.TrimSpace(getenv("MQTT_PASSWORD", "")),
		},
		DefaultDeviceID:   getenvInt64("DEFAULT_DEVICE_ID", 1),
		SeedDefaultDevice: getenvBool("SEED_DEFAULT_DEVICE", true),
		Redis: RedisConfig{
			Enabled:  getenvBool("REDIS_ENABLED", false),
			Addr:     strings.TrimSpace(getenv("REDIS_ADDR", "localhost:6379")),
			Password: strings.TrimSpace(getenv("REDIS_PASSWORD", "")),
			DB:       getenvInt("REDIS_DB", 0),
		},
		Influx: InfluxConfig{
			Enabled: getenvBool("INFLUX_ENABLED", false),
			URL:     strings.TrimSpace(getenv("INFLUX_URL", "http://localhost:8086")),
			Token:   strings.TrimSpace(getenv("INFLUX_TOKEN", "")),
			Org:     getenv("INFLUX_ORG", "brewlink"),
			Bucket:  getenv("INFLUX_BUCKET", "coffee_machine"),
		},
		SchedulerEnabled: getenvBool("SCHEDULER_ENABLED", true),
		Location:         getenvLocation("TZ_LOCATION", time.Local),
	}

	return cfg
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.Environment), "production")
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("[config] invalid %s=%q, using %d", key, value, def)
		return def
	}
	return parsed
}

func getenvInt64(key string, def int64) int64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		log.Printf("[config] invalid %s=%q, using %d", key, value, def)
		return def
	}
	return parsed
}

func getenvLocation(key string, def *time.Location) *time.Location {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" || strings.EqualFold(value, "local") {
		return def
	}
	loc, err := time.LoadLocation(value)
	if err != nil {
		log.Printf("[config] unknown %s=%q, using %s", key, value, def)
		return def
	}
	return loc
}
