package telemetry

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Envelope is one inbound message as kept in the cache. Data is the decoded
// JSON object and is treated as read-only once recorded.
type Envelope struct {
	ID        snowflake.ID   `json:"id"`
	Topic     string         `json:"topic"`
	Timestamp time.Time      `json:"timestamp"`
	Data      map[string]any `json:"data"`
}

// Sample is an accepted sensor envelope with the device it was attributed to
// and the levels decoded from it.
type Sample struct {
	DeviceID   int64
	Envelope   Envelope
	WaterLevel *float64
	BeansLevel *float64
}
