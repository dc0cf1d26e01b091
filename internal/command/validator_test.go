package command

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/smallbiznis/brewlink/internal/device/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRepo struct {
	domain.Repository
	device *domain.Device
	err    error
	reads  int
}

func (s *stubRepo) GetDevice(ctx context.Context, id int64) (*domain.Device, error) {
	s.reads++
	if s.err != nil {
		return nil, s.err
	}
	copied := *s.device
	return &copied, nil
}

func TestEvaluatePoweredOffRejectsGatedActions(t *testing.T) {
	for _, quota := range []int{0, 1, 4} {
		device := domain.Device{IsPoweredOn: false, NumbersOfCoffee: quota}
		for _, action := range []string{ActionSingleBrew, ActionDoubleBrew, ActionCleaning} {
			decision := Evaluate(action, device)
			require.False(t, decision.Allowed, action)
			require.NotNil(t, decision.Rejection)
			assert.Equal(t, ReasonDevicePoweredOff, decision.Rejection.Reason)
			assert.Nil(t, decision.Rejection.Available)
		}
	}
}

func TestEvaluateQuota(t *testing.T) {
	device := domain.Device{IsPoweredOn: true, NumbersOfCoffee: 1}

	decision := Evaluate(ActionDoubleBrew, device)
	require.NotNil(t, decision.Rejection)
	assert.Equal(t, ReasonQuotaExceeded, decision.Rejection.Reason)
	require.NotNil(t, decision.Rejection.Available)
	assert.Equal(t, 1, *decision.Rejection.Available)

	assert.True(t, Evaluate(ActionSingleBrew, device).Allowed)

	device.NumbersOfCoffee = 0
	assert.False(t, Evaluate(ActionSingleBrew, device).Allowed)
	assert.True(t, Evaluate(ActionCleaning, device).Allowed)
}

func TestEvaluateUngatedActions(t *testing.T) {
	device := domain.Device{IsPoweredOn: false}
	for _, action := range []string{ActionPowerToggle, ActionReadSensors, "descale"} {
		assert.True(t, Evaluate(action, device).Allowed, action)
	}
}

func TestValidatorReadsFreshState(t *testing.T) {
	repo := &stubRepo{device: &domain.Device{ID: 1, IsPoweredOn: true, NumbersOfCoffee: 2}}
	v := NewValidator(repo, time.Second)
	ctx := context.Background()

	decision, err := v.Check(ctx, 1, ActionDoubleBrew)
	require.NoError(t, err)
	assert.True(t, decision.Allowed)

	repo.device.NumbersOfCoffee = 0
	decision, err = v.Check(ctx, 1, ActionDoubleBrew)
	require.NoError(t, err)
	require.NotNil(t, decision.Rejection)
	assert.Equal(t, 0, *decision.Rejection.Available)
	assert.Equal(t, 2, repo.reads)
}

func TestValidatorReadFailureIsAnError(t *testing.T) {
	repo := &stubRepo{err: domain.ErrDeviceNotFound}
	v := NewValidator(repo, 0)

	_, err := v.Check(context.Background(), 9, ActionSingleBrew)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrDeviceNotFound))

	decision, err := v.Check(context.Background(), 9, ActionPowerToggle)
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
}

func TestCommandMarshal(t *testing.T) {
	raw, err := Command{
		Action:     ActionSingleBrew,
		Parameters: map[string]any{"strength": "strong", "action": "override"},
	}.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"action":"single_brew","strength":"strong"}`, string(raw))

	raw, err = Command{Action: ActionReadSensors}.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"action":"read_sensors"}`, string(raw))

	_, err = Command{Action: " "}.MarshalJSON()
	assert.ErrorIs(t, err, ErrEmptyAction)
}
