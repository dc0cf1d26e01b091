package mqtt

import (
	"strings"
	"sync"

	paho "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

var pahoLogOnce sync.Once

// RoutePahoLogs sends the paho client's package loggers to zap. level is
// one of off, error, warn or debug; anything else means error.
func RoutePahoLogs(log *zap.Logger, level string) {
	pahoLogOnce.Do(func() {
		setPahoLoggers(log, level)
	})
}

func setPahoLoggers(log *zap.Logger, level string) {
	level = strings.ToLower(strings.TrimSpace(level))
	if level == "off" || level == "none" {
		return
	}
	base := log.Named("paho")
	paho.ERROR = zap.NewStdLog(base)
	paho.CRITICAL = zap.NewStdLog(base)
	switch level {
	case "debug":
		paho.WARN = zap.NewStdLog(base)
		paho.DEBUG = zap.NewStdLog(base)
	case "warn":
		paho.WARN = zap.NewStdLog(base)
	}
}
