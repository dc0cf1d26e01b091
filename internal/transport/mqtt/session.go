package mqtt

import (
	"context"
	"fmt"
	"sync"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/smallbiznis/brewlink/internal/gateway"
)

type session struct {
	client paho.Client
	qos    byte

	msgs      chan gateway.Message
	lost      chan error
	closed    chan struct{}
	closeOnce sync.Once
}

func newSession(qos byte) *session {
	return &session{
		qos:    qos,
		msgs:   make(chan gateway.Message, inboundBuffer),
		lost:   make(chan error, 1),
		closed: make(chan struct{}),
	}
}

// onMessage blocks while the buffer is full so paho keeps delivery order.
// A full buffer stalls paho's router and with it keepalive handling, so a
// database slow enough to back up inboundBuffer messages ends in a
// connection loss and a reconnect rather than dropped telemetry.
func (s *session) onMessage(_ paho.Client, msg paho.Message) {
	payload := append([]byte(nil), msg.Payload()...)
	select {
	case s.msgs <- gateway.Message{Topic: msg.Topic(), Payload: payload}:
	case <-s.closed:
	}
}

func (s *session) connectionLost(err error) {
	select {
	case s.lost <- err:
	default:
	}
}

func (s *session) Subscribe(ctx context.Context, topic string) error {
	return waitToken(ctx, s.client.Subscribe(topic, s.qos, s.onMessage))
}

func (s *session) Publish(ctx context.Context, topic string, payload []byte) error {
	return waitToken(ctx, s.client.Publish(topic, s.qos, false, payload))
}

// Receive drains buffered messages before reporting a lost or closed
// connection; those messages were already acknowledged to the broker.
func (s *session) Receive(ctx context.Context) (gateway.Message, error) {
	select {
	case msg := <-s.msgs:
		return msg, nil
	default:
	}
	select {
	case <-ctx.Done():
		return gateway.Message{}, ctx.Err()
	case msg := <-s.msgs:
		return msg, nil
	case err := <-s.lost:
		return gateway.Message{}, fmt.Errorf("connection lost: %w", err)
	case <-s.closed:
		return gateway.Message{}, gateway.ErrSessionClosed
	}
}

func (s *session) Close() error {
	s.closeOnce.Do(func() {
		close(s.closed)
		if s.client != nil && s.client.IsConnected() {
			s.client.Disconnect(disconnectQuiesce)
		}
	})
	return nil
}
