package mqtt

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/smallbiznis/brewlink/internal/config"
	"github.com/smallbiznis/brewlink/internal/gateway"
	"go.uber.org/zap"
)

const (
	defaultQoS        byte = 1
	connectTimeout         = 10 * time.Second
	disconnectQuiesce uint = 250
	inboundBuffer          = 256
)

var ErrNoBroker = errors.New("mqtt_broker_not_configured")

// Dialer connects to an MQTT broker with paho. Automatic reconnection is off;
// a lost connection is reported through Session.Receive.
type Dialer struct {
	log      *zap.Logger
	broker   string
	clientID string
	username string
	password string
	qos      byte
}

func NewDialer(cfg config.Config, log *zap.Logger) (*Dialer, error) {
	if cfg.MQTT.BrokerHost == "" {
		return nil, ErrNoBroker
	}
	log = log.Named("mqtt")
	return &Dialer{
		log:      log,
		broker:   BrokerURL(cfg.MQTT.BrokerHost, cfg.MQTT.BrokerPort),
		clientID: ClientID(cfg.MQTT.ClientID),
		username: cfg.MQTT.Username,
		password: cfg.MQTT.Password,
		qos:      defaultQoS,
	}, nil
}

// BrokerURL builds a tcp:// URL unless host already carries a scheme.
func BrokerURL(host string, port int) string {
	for _, scheme := range []string{"tcp://", "ssl://", "tls://", "ws://", "wss://", "mqtt://", "mqtts://"} {
		if strings.HasPrefix(host, scheme) {
			return host
		}
	}
	if port <= 0 {
		port = 1883
	}
	return fmt.Sprintf("tcp://%s:%d", host, port)
}

// ClientID returns id, or a random brewlink-prefixed id when empty.
func ClientID(id string) string {
	if id != "" {
		return id
	}
	return "brewlink-" + uuid.NewString()[:8]
}

func (d *Dialer) Dial(ctx context.Context) (gateway.Session, error) {
	s := newSession(d.qos)

	opts := paho.NewClientOptions().
		AddBroker(d.broker).
		SetClientID(d.clientID).
		SetAutoReconnect(false).
		SetConnectRetry(false).
		SetCleanSession(true).
		SetOrderMatters(true).
		SetConnectTimeout(connectTimeout).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			d.log.Warn("connection lost", zap.String("broker", d.broker), zap.Error(err))
			s.connectionLost(err)
		}).
		SetDefaultPublishHandler(s.onMessage)
	if d.username != "" {
		opts.SetUsername(d.username)
		opts.SetPassword(d.password)
	}

	client := paho.NewClient(opts)
	if err := waitToken(ctx, client.Connect()); err != nil {
		return nil, fmt.Errorf("connect %s: %w", d.broker, err)
	}
	s.client = client
	d.log.Info("connected", zap.String("broker", d.broker), zap.String("client_id", d.clientID))
	return s, nil
}

func waitToken(ctx context.Context, token paho.Token) error {
	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return ctx.Err()
	}
}
