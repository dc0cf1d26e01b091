package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/brewlink/internal/clock"
	"github.com/smallbiznis/brewlink/internal/config"
	"github.com/smallbiznis/brewlink/internal/device/domain"
	"github.com/smallbiznis/brewlink/internal/gateway"
	"github.com/smallbiznis/brewlink/internal/observability"
	obsmiddleware "github.com/smallbiznis/brewlink/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/brewlink/internal/observability/metrics"
	obstracing "github.com/smallbiznis/brewlink/internal/observability/tracing"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const shutdownTimeout = 10 * time.Second

var Module = fx.Module("http.server",
	fx.Provide(provideGatewayView),
	fx.Provide(NewServer),
	fx.Provide(registerGin),
	fx.Invoke(run),
)

// GatewayView is the read side of the gateway the ops endpoints need.
type GatewayView interface {
	State() gateway.State
	Snapshot() gateway.Snapshot
}

func provideGatewayView(g *gateway.Gateway) GatewayView { return g }

type Params struct {
	fx.In

	Config  config.Config
	DB      *gorm.DB
	Gateway GatewayView
	Repo    domain.Repository
	Clock   clock.Clock
	Log     *zap.Logger
}

type Server struct {
	db       *gorm.DB
	gateway  GatewayView
	repo     domain.Repository
	clock    clock.Clock
	deviceID int64
	log      *zap.Logger
}

func NewServer(p Params) *Server {
	deviceID := p.Config.DefaultDeviceID
	if deviceID <= 0 {
		deviceID = 1
	}
	log := p.Log
	if log == nil {
		log = zap.NewNop()
	}
	clk := p.Clock
	if clk == nil {
		clk = clock.New()
	}
	return &Server{
		db:       p.DB,
		gateway:  p.Gateway,
		repo:     p.Repo,
		clock:    clk,
		deviceID: deviceID,
		log:      log.Named("server"),
	}
}

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics, s *Server) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Logger:          s.log,
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	s.RegisterRoutes(r)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics, s *Server) *gin.Engine {
	if !obsCfg.Debug() {
		gin.SetMode(gin.ReleaseMode)
	}
	return NewEngine(obsCfg, httpMetrics, s)
}

func (s *Server) RegisterRoutes(r gin.IRouter) {
	r.GET("/health", s.Health)
	r.GET("/ready", s.Ready)
	r.GET("/debug/gateway", s.DebugGateway)
}

func run(lc fx.Lifecycle, shutdowner fx.Shutdowner, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	addr := cfg.HTTPAddr
	if addr == "" {
		addr = ":8080"
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", addr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("http server stopped", zap.Error(err))
					_ = shutdowner.Shutdown(fx.ExitCode(1))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}
