package mirror

import (
	goredis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/brewlink/internal/config"
	"github.com/smallbiznis/brewlink/internal/mirror/influx"
	redismirror "github.com/smallbiznis/brewlink/internal/mirror/redis"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("mirror",
	fx.Provide(NewSinks),
)

type SinkParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Config    config.Config
	Settings  *config.GatewaySettingsHolder
	Log       *zap.Logger
	Redis     *goredis.Client `optional:"true"`
}

// NewSinks builds the enabled sinks. An empty list is valid.
func NewSinks(p SinkParams) ([]Sink, error) {
	var sinks []Sink

	if sink := redismirror.New(p.Redis, p.Settings.Get().HistoryCapacity); sink != nil {
		sinks = append(sinks, sink)
	}

	influxSink, err := influx.New(p.Lifecycle, p.Config.Influx, p.Log)
	if err != nil {
		return nil, err
	}
	if influxSink != nil {
		sinks = append(sinks, influxSink)
	}

	names := make([]string, 0, len(sinks))
	for _, sink := range sinks {
		names = append(names, sink.Name())
	}
	p.Log.Info("telemetry mirrors configured", zap.Strings("sinks", names))
	return sinks, nil
}
