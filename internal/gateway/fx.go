package gateway

import (
	"context"

	"github.com/smallbiznis/brewlink/internal/command"
	"github.com/smallbiznis/brewlink/internal/config"
	"github.com/smallbiznis/brewlink/internal/device/domain"
	"github.com/smallbiznis/brewlink/internal/telemetry"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("gateway",
	fx.Provide(NewCache),
	fx.Provide(NewValidator),
	fx.Provide(New),
	fx.Invoke(RegisterLifecycle),
)

func NewCache(settings *config.GatewaySettingsHolder) *telemetry.Cache {
	return telemetry.NewCache(settings.Get().HistoryCapacity)
}

func NewValidator(repo domain.Repository, settings *config.GatewaySettingsHolder) *command.Validator {
	return command.NewValidator(repo, settings.Get().PersistenceTimeout)
}

// RegisterLifecycle connects on start and disconnects on stop. A failed
// first connect leaves the process up and Disconnected.
func RegisterLifecycle(lc fx.Lifecycle, g *Gateway, log *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := g.Connect(ctx); err != nil {
				log.Error("gateway initial connect failed", zap.Error(err))
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return g.Disconnect(ctx)
		},
	})
}
