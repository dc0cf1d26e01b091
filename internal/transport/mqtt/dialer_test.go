package mqtt

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/smallbiznis/brewlink/internal/config"
	"github.com/smallbiznis/brewlink/internal/gateway"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestBrokerURL(t *testing.T) {
	assert.Equal(t, "tcp://mqtt:1883", BrokerURL("mqtt", 1883))
	assert.Equal(t, "tcp://localhost:1883", BrokerURL("localhost", 0))
	assert.Equal(t, "ssl://broker.local:8883", BrokerURL("ssl://broker.local:8883", 1883))
}

func TestClientID(t *testing.T) {
	assert.Equal(t, "kitchen-gw", ClientID("kitchen-gw"))

	generated := ClientID("")
	assert.True(t, strings.HasPrefix(generated, "brewlink-"))
	assert.Len(t, generated, len("brewlink-")+8)
	assert.NotEqual(t, generated, ClientID(""))
}

func TestNewDialerRequiresBroker(t *testing.T) {
	_, err := NewDialer(config.Config{}, zap.NewNop())
	assert.ErrorIs(t, err, ErrNoBroker)

	d, err := NewDialer(config.Config{MQTT: config.MQTTConfig{BrokerHost: "mqtt", BrokerPort: 1884}}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "tcp://mqtt:1884", d.broker)
}

func TestSessionReceive(t *testing.T) {
	s := newSession(defaultQoS)
	ctx := context.Background()

	s.msgs <- gateway.Message{Topic: gateway.SensorDataTopic, Payload: []byte(`{}`)}
	msg, err := s.Receive(ctx)
	require.NoError(t, err)
	assert.Equal(t, gateway.SensorDataTopic, msg.Topic)

	s.connectionLost(errors.New("eof"))
	s.connectionLost(errors.New("second report is dropped"))
	_, err = s.Receive(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "eof")

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = s.Receive(cancelled)
	assert.ErrorIs(t, err, context.Canceled)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	_, err = s.Receive(ctx)
	assert.ErrorIs(t, err, gateway.ErrSessionClosed)
}

func TestSessionReceiveDrainsBufferBeforeConnectionLoss(t *testing.T) {
	ctx := context.Background()
	for i := 0; i < 200; i++ {
		s := newSession(defaultQoS)
		s.msgs <- gateway.Message{Topic: gateway.SensorDataTopic, Payload: []byte(`{"status":"single_brew_completed"}`)}
		s.connectionLost(errors.New("eof"))

		msg, err := s.Receive(ctx)
		require.NoError(t, err, "run %d", i)
		assert.JSONEq(t, `{"status":"single_brew_completed"}`, string(msg.Payload))

		_, err = s.Receive(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "eof")
	}
}

func TestSessionReceiveDrainsBufferAfterClose(t *testing.T) {
	s := newSession(defaultQoS)
	s.msgs <- gateway.Message{Topic: gateway.SensorDataTopic, Payload: []byte(`{}`)}
	require.NoError(t, s.Close())

	msg, err := s.Receive(context.Background())
	require.NoError(t, err)
	assert.Equal(t, gateway.SensorDataTopic, msg.Topic)

	_, err = s.Receive(context.Background())
	assert.ErrorIs(t, err, gateway.ErrSessionClosed)
}

func TestSessionOnMessageReleasedByClose(t *testing.T) {
	s := newSession(defaultQoS)
	for i := 0; i < inboundBuffer; i++ {
		s.msgs <- gateway.Message{Topic: gateway.SensorDataTopic}
	}

	done := make(chan struct{})
	go func() {
		s.onMessage(nil, fakeMessage{topic: gateway.SensorDataTopic, payload: []byte(`{}`)})
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("onMessage returned while the buffer was full")
	case <-time.After(20 * time.Millisecond):
	}

	require.NoError(t, s.Close())
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("onMessage still blocked after close")
	}
}

func TestSessionReceiveBlocksUntilMessage(t *testing.T) {
	s := newSession(defaultQoS)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := s.Receive(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

type fakeMessage struct {
	topic   string
	payload []byte
}

func (m fakeMessage) Duplicate() bool   { return false }
func (m fakeMessage) Qos() byte         { return defaultQoS }
func (m fakeMessage) Retained() bool    { return false }
func (m fakeMessage) Topic() string     { return m.topic }
func (m fakeMessage) MessageID() uint16 { return 1 }
func (m fakeMessage) Payload() []byte   { return m.payload }
func (m fakeMessage) Ack()              {}
