package db

import (
	"fmt"
	"strings"
)

// Config describes one relational connection. URL, when set, is used as the
// DSN verbatim and the discrete fields are ignored.
type Config struct {
	Type            string
	URL             string
	Host            string
	Port            string
	Name            string
	User            string
	Password        string
	SSLMode         string
	MaxIdleConn     int
	MaxOpenConn     int
	ConnMaxLifetime int
	ConnMaxIdleTime int
}

// DSN returns the driver connection string for cfg.Type.
func (c Config) DSN() string {
	if url := strings.TrimSpace(c.URL); url != "" {
		return url
	}
	switch c.Type {
	case "mysql":
		return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
			c.User, c.Password, c.Host, c.Port, c.Name)
	case "postgres":
		sslMode := c.SSLMode
		if sslMode == "" {
			sslMode = "disable"
		}
		return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
			c.Host, c.User, c.Password, c.Name, c.Port, sslMode)
	case "sqlite":
		if c.Name == "" {
			return "brewlink.db"
		}
		return c.Name
	default:
		return ""
	}
}
