package gateway

import (
	"context"
	"errors"
)

const (
	SubscribeTopic  = "coffee_machine/#"
	SensorDataTopic = "coffee_machine/sensor_data"
	CommandsTopic   = "coffee_machine/commands"
)

// ErrSessionClosed is returned by Session.Receive once the connection is gone.
var ErrSessionClosed = errors.New("session_closed")

type Message struct {
	Topic   string
	Payload []byte
}

// Dialer opens transport sessions. The gateway owns reconnection, so
// implementations must not reconnect on their own.
type Dialer interface {
	Dial(ctx context.Context) (Session, error)
}

type Session interface {
	Subscribe(ctx context.Context, topic string) error
	Publish(ctx context.Context, topic string, payload []byte) error
	// Receive blocks for the next message. It returns ctx.Err() on
	// cancellation and a non-nil error when the connection is lost.
	Receive(ctx context.Context) (Message, error)
	Close() error
}
