package command

import (
	"context"
	"fmt"
	"time"

	"github.com/smallbiznis/brewlink/internal/device/domain"
)

// Rejection describes why a command was not forwarded. It is a business
// outcome, not an error.
type Rejection struct {
	Reason    string `json:"reason"`
	Available *int   `json:"available,omitempty"`
}

type Decision struct {
	Allowed   bool
	Rejection *Rejection
}

func allow() Decision { return Decision{Allowed: true} }

func reject(reason string, available *int) Decision {
	return Decision{Rejection: &Rejection{Reason: reason, Available: available}}
}

// requiredQuota lists the gated actions and how many cups each consumes.
var requiredQuota = map[string]int{
	ActionSingleBrew: 1,
	ActionDoubleBrew: 2,
	ActionCleaning:   0,
}

// Evaluate applies the power and quota rules to a snapshot of device state.
func Evaluate(action string, device domain.Device) Decision {
	need, gated := requiredQuota[action]
	if !gated {
		return allow()
	}
	if !device.IsPoweredOn {
		return reject(ReasonDevicePoweredOff, nil)
	}
	if device.NumbersOfCoffee < need {
		available := device.NumbersOfCoffee
		return reject(ReasonQuotaExceeded, &available)
	}
	return allow()
}

type Validator struct {
	repo    domain.Repository
	timeout time.Duration
}

func NewValidator(repo domain.Repository, timeout time.Duration) *Validator {
	return &Validator{repo: repo, timeout: timeout}
}

// Check reads the device on every call and evaluates action against it.
// Read failures are returned as errors, never as rejections.
func (v *Validator) Check(ctx context.Context, deviceID int64, action string) (Decision, error) {
	if _, gated := requiredQuota[action]; !gated {
		return allow(), nil
	}

	if v.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, v.timeout)
		defer cancel()
	}

	device, err := v.repo.GetDevice(ctx, deviceID)
	if err != nil {
		return Decision{}, fmt.Errorf("load device %d: %w", deviceID, err)
	}
	return Evaluate(action, *device), nil
}
