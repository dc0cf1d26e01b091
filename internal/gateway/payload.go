package gateway

import (
	"encoding/json"
	"errors"
	"math"
	"strings"
)

const (
	ActionCleaningCompleted = "cleaning_completed"
	ActionPowerToggle       = "power_toggle"
)

var ErrNotAnObject = errors.New("payload_not_json_object")

// StatusEvent is the parsed form of the free-text status field.
type StatusEvent interface {
	isStatusEvent()
}

type BrewCompleted struct {
	Count int
}

type CleaningCompleted struct{}

type UnknownStatus struct {
	Raw string
}

func (BrewCompleted) isStatusEvent()     {}
func (CleaningCompleted) isStatusEvent() {}
func (UnknownStatus) isStatusEvent()     {}

// ParseStatus classifies a device status string. Double brews are matched
// first since both markers share a suffix.
func ParseStatus(raw string) StatusEvent {
	switch {
	case strings.Contains(raw, "double_brew_completed"):
		return BrewCompleted{Count: 2}
	case strings.Contains(raw, "single_brew_completed"):
		return BrewCompleted{Count: 1}
	case strings.Contains(raw, "cleaning_completed"):
		return CleaningCompleted{}
	default:
		return UnknownStatus{Raw: raw}
	}
}

// SensorPayload is the typed view of a sensor_data message.
type SensorPayload struct {
	DeviceID   *int64
	WaterLevel *float64
	BeansLevel *float64
	Action     string
	Status     StatusEvent
	PowerState *bool
}

func (p SensorPayload) HasLevels() bool {
	return p.WaterLevel != nil || p.BeansLevel != nil
}

// CleaningCompleted reports whether the message announces a finished cleaning.
func (p SensorPayload) CleaningCompleted() bool {
	if p.Action == ActionCleaningCompleted {
		return true
	}
	_, ok := p.Status.(CleaningCompleted)
	return ok
}

// PowerReport returns the power state the device says it switched to.
func (p SensorPayload) PowerReport() (bool, bool) {
	if p.Action != ActionPowerToggle || p.PowerState == nil {
		return false, false
	}
	return *p.PowerState, true
}

// DecodeObject parses raw as a JSON object.
func DecodeObject(raw []byte) (map[string]any, error) {
	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, err
	}
	if data == nil {
		return nil, ErrNotAnObject
	}
	return data, nil
}

// DecodeSensorPayload extracts the known fields from a decoded message.
// Fields with unexpected types are treated as absent.
func DecodeSensorPayload(data map[string]any) SensorPayload {
	payload := SensorPayload{
		WaterLevel: level(data["water_level"]),
		BeansLevel: level(data["beans_level"]),
		Status:     UnknownStatus{},
	}
	if action, ok := data["action"].(string); ok {
		payload.Action = action
	}
	if status, ok := data["status"].(string); ok {
		payload.Status = ParseStatus(status)
	}
	if state, ok := data["power_state"].(bool); ok {
		payload.PowerState = &state
	}
	if id, ok := data["device_id"].(float64); ok && id > 0 && id == math.Trunc(id) {
		deviceID := int64(id)
		payload.DeviceID = &deviceID
	}
	return payload
}

// level accepts either a bare number or an object with a percentage field.
func level(v any) *float64 {
	switch val := v.(type) {
	case float64:
		return &val
	case map[string]any:
		if pct, ok := val["percentage"].(float64); ok {
			return &pct
		}
	}
	return nil
}
