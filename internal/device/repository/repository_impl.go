package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/smallbiznis/brewlink/internal/device/domain"
	"github.com/smallbiznis/brewlink/pkg/db/option"
	"github.com/smallbiznis/brewlink/pkg/repository"
	"gorm.io/gorm"
)

type repo struct {
	devices  repository.Repository[domain.Device]
	readings repository.Repository[domain.SensorReading]
}

func Provide(db *gorm.DB) domain.Repository {
	return &repo{
		devices:  repository.ProvideStore[domain.Device](db),
		readings: repository.ProvideStore[domain.SensorReading](db),
	}
}

func (r *repo) GetDevice(ctx context.Context, id int64) (*domain.Device, error) {
	if id <= 0 {
		return nil, domain.ErrDeviceNotFound
	}
	device, err := r.devices.FindOne(ctx, &domain.Device{ID: id})
	if err != nil {
		return nil, err
	}
	if device == nil {
		return nil, domain.ErrDeviceNotFound
	}
	return device, nil
}

func (r *repo) SetPowerState(ctx context.Context, id int64, on bool) error {
	affected, err := r.devices.Exec(ctx,
		`UPDATE devices SET is_powered_on = ? WHERE id = ?`,
		on,
		id,
	)
	if err != nil {
		return err
	}
	if affected == 0 {
		return r.ensureExists(ctx, id)
	}
	return nil
}

func (r *repo) DecrementQuota(ctx context.Context, id int64, amount int) error {
	if amount < 0 {
		return fmt.Errorf("decrement %d: %w", amount, domain.ErrInvalidAmount)
	}
	affected, err := r.devices.Exec(ctx,
		`UPDATE devices
		 SET numbers_of_coffee = CASE WHEN numbers_of_coffee > ? THEN numbers_of_coffee - ? ELSE 0 END
		 WHERE id = ?`,
		amount,
		amount,
		id,
	)
	if err != nil {
		return err
	}
	if affected == 0 {
		return r.ensureExists(ctx, id)
	}
	return nil
}

func (r *repo) SetLastCleaning(ctx context.Context, id int64, at time.Time) error {
	at = at.UTC()
	affected, err := r.devices.Exec(ctx,
		`UPDATE devices SET last_cleaning_time = ?
		 WHERE id = ? AND (last_cleaning_time IS NULL OR last_cleaning_time < ?)`,
		at,
		id,
		at,
	)
	if err != nil {
		return err
	}
	if affected == 0 {
		// Either unknown or already cleaned at a later time.
		return r.ensureExists(ctx, id)
	}
	return nil
}

func (r *repo) InsertSensorReading(ctx context.Context, reading *domain.SensorReading) error {
	if reading == nil || reading.DeviceID <= 0 || !reading.HasLevels() {
		return domain.ErrInvalidReading
	}
	if reading.Timestamp.IsZero() {
		reading.Timestamp = time.Now()
	}
	reading.Timestamp = reading.Timestamp.UTC()
	return r.readings.Create(ctx, reading)
}

func (r *repo) ListSensorReadings(ctx context.Context, deviceID int64, limit int) ([]*domain.SensorReading, error) {
	if deviceID <= 0 {
		return nil, domain.ErrDeviceNotFound
	}
	return r.readings.Find(ctx,
		&domain.SensorReading{DeviceID: deviceID},
		option.OrderBy("timestamp", true),
		option.Limit(limit),
	)
}

func (r *repo) ResetAllQuotas(ctx context.Context, value int) (int64, error) {
	if value < 0 {
		return 0, fmt.Errorf("reset to %d: %w", value, domain.ErrInvalidAmount)
	}
	affected, err := r.devices.Exec(ctx,
		`UPDATE devices SET numbers_of_coffee = ?`,
		value,
	)
	if err != nil {
		return 0, err
	}
	return affected, nil
}

func (r *repo) ensureExists(ctx context.Context, id int64) error {
	if id <= 0 {
		return domain.ErrDeviceNotFound
	}
	ok, err := r.devices.Exists(ctx, &domain.Device{ID: id})
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrDeviceNotFound
	}
	return nil
}
