package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/brewlink/internal/clock"
	"github.com/smallbiznis/brewlink/internal/command"
	"github.com/smallbiznis/brewlink/internal/config"
	"github.com/smallbiznis/brewlink/internal/device/domain"
	"github.com/smallbiznis/brewlink/internal/mirror"
	obsmetrics "github.com/smallbiznis/brewlink/internal/observability/metrics"
	"github.com/smallbiznis/brewlink/internal/telemetry"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var (
	ErrAlreadyConnected = errors.New("gateway_already_connected")
	ErrNotConnected     = errors.New("gateway_not_connected")
	ErrInvalidConfig    = errors.New("invalid_gateway_config")
	ErrClosed           = errors.New("gateway_closed")
)

type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateListening
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateListening:
		return "listening"
	default:
		return "disconnected"
	}
}

type Params struct {
	fx.In

	Log       *zap.Logger
	Dialer    Dialer
	Repo      domain.Repository
	Cache     *telemetry.Cache
	Validator *command.Validator
	Clock     clock.Clock
	GenID     *snowflake.Node
	Settings  *config.GatewaySettingsHolder
	AppConfig config.Config              `optional:"true"`
	Sinks     []mirror.Sink              `optional:"true"`
	Metrics   *obsmetrics.Metrics        `optional:"true"`
	Prom      *obsmetrics.GatewayMetrics `optional:"true"`
}

// Gateway owns the transport session, the receive loop and the command path.
type Gateway struct {
	log             *zap.Logger
	dialer          Dialer
	repo            domain.Repository
	cache           *telemetry.Cache
	validator       *command.Validator
	clock           clock.Clock
	genID           *snowflake.Node
	settings        *config.GatewaySettingsHolder
	sinks           []mirror.Sink
	metrics         *obsmetrics.Metrics
	prom            *obsmetrics.GatewayMetrics
	defaultDeviceID int64
	topic           string

	mu      sync.Mutex
	state   State
	session Session
	cancel  context.CancelFunc
	done    chan struct{}
	closed  bool
}

func New(p Params) (*Gateway, error) {
	if p.Log == nil || p.Dialer == nil || p.Repo == nil || p.Cache == nil || p.Validator == nil || p.Clock == nil || p.GenID == nil {
		return nil, ErrInvalidConfig
	}

	sinks := make([]mirror.Sink, 0, len(p.Sinks))
	for _, sink := range p.Sinks {
		if sink != nil {
			sinks = append(sinks, sink)
		}
	}

	defaultDeviceID := p.AppConfig.DefaultDeviceID
	if defaultDeviceID <= 0 {
		defaultDeviceID = 1
	}

	topic := p.AppConfig.MQTT.Topic
	if topic == "" {
		topic = SubscribeTopic
	}

	prom := p.Prom
	if prom == nil {
		prom = obsmetrics.Gateway()
	}

	g := &Gateway{
		log:             p.Log.Named("gateway").With(zap.String("component", "gateway")),
		dialer:          p.Dialer,
		repo:            p.Repo,
		cache:           p.Cache,
		validator:       p.Validator,
		clock:           p.Clock,
		genID:           p.GenID,
		settings:        p.Settings,
		sinks:           sinks,
		metrics:         p.Metrics,
		prom:            prom,
		defaultDeviceID: defaultDeviceID,
		topic:           topic,
	}
	g.prom.SetState(int(StateDisconnected))
	return g, nil
}

func (g *Gateway) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

func (g *Gateway) setState(state State) {
	g.mu.Lock()
	g.state = state
	g.mu.Unlock()
	g.prom.SetState(int(state))
}

// Connect dials, subscribes to every device topic and starts the receive
// loop. Setup failures are returned and not retried. A gateway that has been
// disconnected cannot connect again.
func (g *Gateway) Connect(ctx context.Context) error {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return ErrClosed
	}
	if g.state != StateDisconnected || g.done != nil {
		g.mu.Unlock()
		return ErrAlreadyConnected
	}
	g.state = StateConnecting
	g.mu.Unlock()
	g.prom.SetState(int(StateConnecting))

	session, err := g.establish(ctx)
	if err != nil {
		g.setState(StateDisconnected)
		g.log.Error("connect failed", zap.Error(err))
		return err
	}

	loopCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	g.mu.Lock()
	if g.closed {
		g.state = StateDisconnected
		g.mu.Unlock()
		cancel()
		_ = session.Close()
		return ErrClosed
	}
	g.session = session
	g.state = StateListening
	g.cancel = cancel
	g.done = done
	g.mu.Unlock()
	g.prom.SetState(int(StateListening))

	g.log.Info("listening", zap.String("topic", g.topic))
	go g.run(loopCtx, session, done)
	return nil
}

// Disconnect stops the receive loop, waits for it to exit and then closes
// the session. It is terminal: later Connect calls fail with ErrClosed.
func (g *Gateway) Disconnect(ctx context.Context) error {
	g.mu.Lock()
	g.closed = true
	cancel, done := g.cancel, g.done
	g.mu.Unlock()
	if cancel == nil {
		return nil
	}

	cancel()
	select {
	case <-done:
	case <-ctx.Done():
		return fmt.Errorf("wait for receive loop: %w", ctx.Err())
	}

	g.mu.Lock()
	session := g.session
	g.session = nil
	g.cancel = nil
	g.done = nil
	g.state = StateDisconnected
	g.mu.Unlock()
	g.prom.SetState(int(StateDisconnected))

	if session != nil {
		if err := session.Close(); err != nil {
			g.log.Warn("close session failed", zap.Error(err))
		}
	}
	g.log.Info("disconnected")
	return nil
}

// Publish sends cmd on the commands topic.
func (g *Gateway) Publish(ctx context.Context, cmd command.Command) error {
	g.mu.Lock()
	session, state := g.session, g.state
	g.mu.Unlock()
	if state != StateListening || session == nil {
		return ErrNotConnected
	}

	payload, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("marshal command: %w", err)
	}

	ctx, cancel := g.withTimeout(ctx, g.currentSettings().PublishTimeout)
	defer cancel()

	if err := session.Publish(ctx, CommandsTopic, payload); err != nil {
		return fmt.Errorf("publish %s: %w", cmd.Action, err)
	}
	return nil
}

func (g *Gateway) Latest() (telemetry.Envelope, bool) {
	return g.cache.Latest()
}

func (g *Gateway) History(limit int) []telemetry.Envelope {
	return g.cache.History(limit)
}

func (g *Gateway) establish(ctx context.Context) (Session, error) {
	session, err := g.dialer.Dial(ctx)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}
	if err := session.Subscribe(ctx, g.topic); err != nil {
		_ = session.Close()
		return nil, fmt.Errorf("subscribe %s: %w", g.topic, err)
	}
	return session, nil
}

func (g *Gateway) currentSettings() config.GatewaySettings {
	return g.settings.Get()
}

func (g *Gateway) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
