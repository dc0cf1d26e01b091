package mqtt

import (
	"github.com/smallbiznis/brewlink/internal/gateway"
	"github.com/smallbiznis/brewlink/internal/observability"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("transport.mqtt",
	fx.Provide(
		fx.Annotate(NewDialer, fx.As(new(gateway.Dialer))),
	),
	fx.Invoke(func(cfg observability.Config, log *zap.Logger) {
		RoutePahoLogs(log.Named("mqtt"), cfg.MQTTLogLevel)
	}),
)
