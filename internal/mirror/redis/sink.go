package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/brewlink/internal/telemetry"
)

const (
	latestTTL      = 24 * time.Hour
	keyLatest      = "device:%d:latest"
	keyHistory     = "device:%d:history"
	defaultHistory = telemetry.DefaultCapacity
)

// Sink keeps the latest envelope per device and a capped recent list in
// redis, so other processes can read telemetry without the gateway.
type Sink struct {
	client  *goredis.Client
	history int64
}

func New(client *goredis.Client, history int) *Sink {
	if client == nil {
		return nil
	}
	if history <= 0 {
		history = defaultHistory
	}
	return &Sink{client: client, history: int64(history)}
}

func (s *Sink) Name() string { return "redis" }

func LatestKey(deviceID int64) string  { return fmt.Sprintf(keyLatest, deviceID) }
func HistoryKey(deviceID int64) string { return fmt.Sprintf(keyHistory, deviceID) }

func (s *Sink) Mirror(ctx context.Context, sample telemetry.Sample) error {
	deviceID := sample.DeviceID
	body, err := json.Marshal(sample.Envelope)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Set(ctx, LatestKey(deviceID), body, latestTTL)
		pipe.LPush(ctx, HistoryKey(deviceID), body)
		pipe.LTrim(ctx, HistoryKey(deviceID), 0, s.history-1)
		return nil
	})
	if err != nil {
		return fmt.Errorf("mirror device %d: %w", deviceID, err)
	}
	return nil
}

// Latest reads back the mirrored envelope, or false if none is stored.
func (s *Sink) Latest(ctx context.Context, deviceID int64) (telemetry.Envelope, bool, error) {
	raw, err := s.client.Get(ctx, LatestKey(deviceID)).Bytes()
	if err == goredis.Nil {
		return telemetry.Envelope{}, false, nil
	}
	if err != nil {
		return telemetry.Envelope{}, false, err
	}
	var env telemetry.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return telemetry.Envelope{}, false, fmt.Errorf("decode envelope: %w", err)
	}
	return env, true, nil
}
