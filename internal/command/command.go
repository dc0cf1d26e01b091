package command

import (
	"encoding/json"
	"errors"
	"strings"
)

const (
	ActionSingleBrew  = "single_brew"
	ActionDoubleBrew  = "double_brew"
	ActionPowerToggle = "power_toggle"
	ActionCleaning    = "cleaning"
	ActionReadSensors = "read_sensors"
)

const (
	ReasonDevicePoweredOff = "device_powered_off"
	ReasonQuotaExceeded    = "daily_coffee_limit_exceeded"
)

var ErrEmptyAction = errors.New("empty_action")

// Command is an instruction for the device. It is never persisted.
type Command struct {
	Action     string         `json:"action"`
	Parameters map[string]any `json:"parameters,omitempty"`
}

// MarshalJSON flattens parameters next to the action. A parameter named
// "action" is dropped.
func (c Command) MarshalJSON() ([]byte, error) {
	if strings.TrimSpace(c.Action) == "" {
		return nil, ErrEmptyAction
	}
	body := make(map[string]any, len(c.Parameters)+1)
	for key, value := range c.Parameters {
		body[key] = value
	}
	body["action"] = c.Action
	return json.Marshal(body)
}
