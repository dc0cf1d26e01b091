package domain

import (
	"context"
	"time"
)

// Repository is the persistence boundary for device state. Every method is a
// single atomic statement.
type Repository interface {
	GetDevice(ctx context.Context, id int64) (*Device, error)
	SetPowerState(ctx context.Context, id int64, on bool) error
	// DecrementQuota lowers the daily quota by amount, clamping at zero.
	DecrementQuota(ctx context.Context, id int64, amount int) error
	// SetLastCleaning records a cleaning; older timestamps are ignored.
	SetLastCleaning(ctx context.Context, id int64, at time.Time) error
	InsertSensorReading(ctx context.Context, reading *SensorReading) error
	ListSensorReadings(ctx context.Context, deviceID int64, limit int) ([]*SensorReading, error)
	// ResetAllQuotas sets every device quota to value and returns the rows touched.
	ResetAllQuotas(ctx context.Context, value int) (int64, error)
}
